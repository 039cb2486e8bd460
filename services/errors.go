package services

import (
	"errors"
	"fmt"
)

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден
	ErrDisputeNotFound    = errors.New("dispute not found")
	ErrRewardNotFound     = errors.New("validation reward not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrUserNotFound       = errors.New("user not found")

	// Ошибки валидации (до любого сетевого вызова)
	ErrValidationFailed  = errors.New("validation failed")
	ErrInvalidAttachment = errors.New("invalid attachment")

	// Конфликты состояния
	ErrDisputeAlreadyResolved = errors.New("dispute was already resolved")
	ErrRewardAlreadyCollected = errors.New("reward was already collected")
	ErrDisputeDuplicate       = errors.New("a pending dispute already exists for this match")
	ErrDisputeWindowClosed    = errors.New("dispute window for this match has closed")
	ErrMatchResultSettled     = errors.New("another result claim for this match was already approved")
	ErrUserEmailConflict      = errors.New("email address is already in use")
	ErrUserNicknameConflict   = errors.New("nickname is already in use")

	// Ошибки аутентификации и авторизации
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")

	ErrUploadsDisabled = errors.New("file uploads are not configured")
)

// ValidationError names the offending input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AttachmentError is returned when an uploaded proof violates the size or type policy.
type AttachmentError struct {
	Reason string
}

func (e *AttachmentError) Error() string {
	return "invalid attachment: " + e.Reason
}

func (e *AttachmentError) Is(target error) bool {
	return target == ErrInvalidAttachment
}
