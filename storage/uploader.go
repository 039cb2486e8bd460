package storage

import (
	"context"
	"io"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader хранит вложения споров и аватары в объектном хранилище.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, size int64, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}
