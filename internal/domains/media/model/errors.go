package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	ErrCodeMediaNotFound   = "MED001"
	ErrCodeUnsupportedType = "MED002"
	ErrCodeTooLarge        = "MED003"
	ErrCodeMediaInUse      = "MED004"
)

// Errors
var (
	ErrMediaNotFound   = errors.New("media not found")
	ErrUnsupportedType = errors.New("unsupported content type")
	ErrTooLarge        = errors.New("file exceeds size limit")
	ErrMediaInUse      = errors.New("media is referenced by sections")
)

// MediaError custom error type
type MediaError struct {
	Code    string
	Message string
	Err     error
}

func (e *MediaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *MediaError) Unwrap() error {
	return e.Err
}

// Error constructors
func NewMediaNotFoundError() *MediaError {
	return &MediaError{
		Code:    ErrCodeMediaNotFound,
		Message: "Media not found",
		Err:     ErrMediaNotFound,
	}
}

func NewUnsupportedTypeError(ct string) *MediaError {
	return &MediaError{
		Code:    ErrCodeUnsupportedType,
		Message: fmt.Sprintf("Unsupported content type: %s", ct),
		Err:     ErrUnsupportedType,
	}
}

func NewTooLargeError(size int64) *MediaError {
	return &MediaError{
		Code:    ErrCodeTooLarge,
		Message: fmt.Sprintf("File of %d bytes exceeds the upload limit", size),
		Err:     ErrTooLarge,
	}
}

// NewMediaInUseError refuses deletion while sections or issue banners
// still point at the asset. Duplicated sections share media by
// reference, so a dangling delete would break every copy at once.
func NewMediaInUseError() *MediaError {
	return &MediaError{
		Code:    ErrCodeMediaInUse,
		Message: "Media is still referenced by issue content",
		Err:     ErrMediaInUse,
	}
}

// GetErrorResponse maps a media error to (status, message, code).
func GetErrorResponse(err error) (int, string, string) {
	var medErr *MediaError
	if errors.As(err, &medErr) {
		switch medErr.Code {
		case ErrCodeMediaNotFound:
			return http.StatusNotFound, medErr.Message, medErr.Code
		case ErrCodeUnsupportedType, ErrCodeTooLarge:
			return http.StatusBadRequest, medErr.Message, medErr.Code
		case ErrCodeMediaInUse:
			return http.StatusConflict, medErr.Message, medErr.Code
		}
	}

	return http.StatusInternalServerError, "Internal server error", "SYS_001"
}
