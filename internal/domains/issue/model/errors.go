package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	ErrCodeIssueNotFound     = "ISS001"
	ErrCodeInvalidTransition = "ISS002"
	ErrCodeNotDraft          = "ISS003"
	ErrCodeNothingToClone    = "ISS004"
	ErrCodeInvalidStatus     = "ISS005"
)

// Errors
var (
	ErrIssueNotFound     = errors.New("issue not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotDraft          = errors.New("issue is not a draft")
	ErrNothingToClone    = errors.New("no issue to clone from")
)

// IssueError custom error type
type IssueError struct {
	Code    string
	Message string
	Err     error
}

func (e *IssueError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *IssueError) Unwrap() error {
	return e.Err
}

// Error constructors
func NewIssueNotFoundError() *IssueError {
	return &IssueError{
		Code:    ErrCodeIssueNotFound,
		Message: "Issue not found",
		Err:     ErrIssueNotFound,
	}
}

func NewInvalidTransitionError(from, to Status) *IssueError {
	return &IssueError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("Cannot transition issue from %s to %s", from, to),
		Err:     ErrInvalidTransition,
	}
}

// NewNotDraftError guards deletion. Published and archived issues were
// visible to readers; removing them is an archival decision, not a
// delete button.
func NewNotDraftError() *IssueError {
	return &IssueError{
		Code:    ErrCodeNotDraft,
		Message: "Only draft issues can be deleted",
		Err:     ErrNotDraft,
	}
}

func NewNothingToCloneError() *IssueError {
	return &IssueError{
		Code:    ErrCodeNothingToClone,
		Message: "No existing issue to clone from",
		Err:     ErrNothingToClone,
	}
}

func NewInvalidStatusError(s string) *IssueError {
	return &IssueError{
		Code:    ErrCodeInvalidStatus,
		Message: fmt.Sprintf("Unknown issue status: %s", s),
		Err:     ErrInvalidTransition,
	}
}

// GetErrorResponse maps an issue error to (status, message, code).
func GetErrorResponse(err error) (int, string, string) {
	var issErr *IssueError
	if errors.As(err, &issErr) {
		switch issErr.Code {
		case ErrCodeIssueNotFound:
			return http.StatusNotFound, issErr.Message, issErr.Code
		case ErrCodeInvalidTransition, ErrCodeNotDraft, ErrCodeInvalidStatus:
			return http.StatusConflict, issErr.Message, issErr.Code
		case ErrCodeNothingToClone:
			return http.StatusNotFound, issErr.Message, issErr.Code
		}
	}

	return http.StatusInternalServerError, "Internal server error", "SYS_001"
}
