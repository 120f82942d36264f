package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	ErrCodeSectionNotFound   = "SEC001"
	ErrCodeIssueNotFound     = "SEC002"
	ErrCodeInvalidType       = "SEC003"
	ErrCodeInvalidPayload    = "SEC004"
	ErrCodeReorderMismatch   = "SEC005"
	ErrCodeInvalidInsertSpot = "SEC006"
)

// Errors
var (
	ErrSectionNotFound = errors.New("section not found")
	ErrIssueNotFound   = errors.New("issue not found")
	ErrInvalidType     = errors.New("unknown section type")
	ErrReorderMismatch = errors.New("reorder ids do not match the issue's sections")
)

// SectionError custom error type
type SectionError struct {
	Code    string
	Message string
	Err     error
}

func (e *SectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *SectionError) Unwrap() error {
	return e.Err
}

// Error constructors
func NewSectionNotFoundError() *SectionError {
	return &SectionError{
		Code:    ErrCodeSectionNotFound,
		Message: "Section not found",
		Err:     ErrSectionNotFound,
	}
}

func NewIssueNotFoundError() *SectionError {
	return &SectionError{
		Code:    ErrCodeIssueNotFound,
		Message: "Issue not found",
		Err:     ErrIssueNotFound,
	}
}

func NewInvalidTypeError(t string) *SectionError {
	return &SectionError{
		Code:    ErrCodeInvalidType,
		Message: fmt.Sprintf("Unknown section type: %s", t),
		Err:     ErrInvalidType,
	}
}

func NewInvalidPayloadError(err error) *SectionError {
	return &SectionError{
		Code:    ErrCodeInvalidPayload,
		Message: fmt.Sprintf("Invalid section payload: %v", err),
		Err:     err,
	}
}

// NewReorderMismatchError reports a reorder call whose id set does not
// exactly equal the issue's current sections. Accepting a partial list
// and silently dropping the absent sections would destroy user content,
// so the operation refuses instead.
func NewReorderMismatchError() *SectionError {
	return &SectionError{
		Code:    ErrCodeReorderMismatch,
		Message: "Reorder must list every section of the issue exactly once",
		Err:     ErrReorderMismatch,
	}
}

func NewInvalidInsertIndexError(index int) *SectionError {
	return &SectionError{
		Code:    ErrCodeInvalidInsertSpot,
		Message: fmt.Sprintf("Insert index %d is out of range", index),
		Err:     ErrReorderMismatch,
	}
}

// GetErrorResponse maps a section error to (status, message, code).
func GetErrorResponse(err error) (int, string, string) {
	var secErr *SectionError
	if errors.As(err, &secErr) {
		switch secErr.Code {
		case ErrCodeSectionNotFound, ErrCodeIssueNotFound:
			return http.StatusNotFound, secErr.Message, secErr.Code
		case ErrCodeInvalidType, ErrCodeInvalidPayload, ErrCodeReorderMismatch, ErrCodeInvalidInsertSpot:
			return http.StatusBadRequest, secErr.Message, secErr.Code
		}
	}

	return http.StatusInternalServerError, "Internal server error", "SYS_001"
}
