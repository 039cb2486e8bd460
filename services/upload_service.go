package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Dosada05/tournament-platform/storage"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const MaxProofSize = 5 << 20

var allowedProofTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

type UploadService interface {
	// UploadProof stores a dispute screenshot and returns its public https URL.
	UploadProof(ctx context.Context, userID int, filename string, size int64, reader io.Reader) (string, error)
}

type uploadService struct {
	uploader storage.FileUploader
	logger   *slog.Logger
	newID    func() string
}

func NewUploadService(uploader storage.FileUploader, logger *slog.Logger) UploadService {
	return &uploadService{uploader: uploader, logger: logger, newID: uuid.NewString}
}

func (s *uploadService) UploadProof(ctx context.Context, userID int, filename string, size int64, reader io.Reader) (string, error) {
	if size > MaxProofSize {
		return "", &AttachmentError{Reason: fmt.Sprintf("file exceeds %d MB", MaxProofSize>>20)}
	}

	data, err := io.ReadAll(io.LimitReader(reader, MaxProofSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return "", &AttachmentError{Reason: "file is empty"}
	}
	if len(data) > MaxProofSize {
		return "", &AttachmentError{Reason: fmt.Sprintf("file exceeds %d MB", MaxProofSize>>20)}
	}

	mtype := mimetype.Detect(data)
	if !proofTypeAllowed(mtype) {
		return "", &AttachmentError{Reason: fmt.Sprintf("unsupported file type %s", mtype.String())}
	}

	if s.uploader == nil {
		return "", ErrUploadsDisabled
	}

	key := proofKey(userID, s.newID(), filename, mtype.Extension())
	result, err := s.uploader.Upload(ctx, key, mtype.String(), int64(len(data)), bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to store proof: %w", err)
	}
	if !strings.HasPrefix(result.Location, "https://") {
		return "", fmt.Errorf("storage returned a non-https location for %s", key)
	}

	s.logger.Info("proof uploaded", slog.Int("user_id", userID), slog.String("key", key), slog.Int("bytes", len(data)))
	return result.Location, nil
}

func proofTypeAllowed(mtype *mimetype.MIME) bool {
	for _, allowed := range allowedProofTypes {
		if mtype.Is(allowed) {
			return true
		}
	}
	return false
}

// proofKey builds disputes/proofs/<user>/<id>-<slug><ext>.
func proofKey(userID int, id, filename, ext string) string {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	name := slug.Make(stem)
	if name == "" || name == "." {
		name = "proof"
	}
	return fmt.Sprintf("disputes/proofs/%d/%s-%s%s", userID, id, name, ext)
}
