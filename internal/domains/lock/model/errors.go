package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	ErrCodeLockNotFound  = "LCK001"
	ErrCodeLockHeld      = "LCK002"
	ErrCodeNotHolder     = "LCK003"
	ErrCodeAdminRequired = "LCK004"
)

// Errors
var (
	ErrLockNotFound  = errors.New("no edit lock exists for this issue")
	ErrLockHeld      = errors.New("issue is locked by another editor")
	ErrNotHolder     = errors.New("edit lock is held by a different editor")
	ErrAdminRequired = errors.New("admin role required to force-release a lock")
)

// LockError custom error type
type LockError struct {
	Code    string
	Message string
	Err     error
}

func (e *LockError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *LockError) Unwrap() error {
	return e.Err
}

// Error constructors
func NewLockNotFoundError() *LockError {
	return &LockError{
		Code:    ErrCodeLockNotFound,
		Message: "No edit lock exists for this issue",
		Err:     ErrLockNotFound,
	}
}

func NewLockHeldError(holderName string) *LockError {
	return &LockError{
		Code:    ErrCodeLockHeld,
		Message: fmt.Sprintf("Issue is currently being edited by %s", holderName),
		Err:     ErrLockHeld,
	}
}

func NewNotHolderError() *LockError {
	return &LockError{
		Code:    ErrCodeNotHolder,
		Message: "You do not hold the edit lock for this issue",
		Err:     ErrNotHolder,
	}
}

func NewAdminRequiredError() *LockError {
	return &LockError{
		Code:    ErrCodeAdminRequired,
		Message: "Admin role required to force-release a lock",
		Err:     ErrAdminRequired,
	}
}

// GetErrorResponse maps a lock error to (status, message, code).
func GetErrorResponse(err error) (int, string, string) {
	var lockErr *LockError
	if errors.As(err, &lockErr) {
		switch {
		case errors.Is(lockErr.Err, ErrLockNotFound):
			return http.StatusNotFound, lockErr.Message, lockErr.Code
		case errors.Is(lockErr.Err, ErrLockHeld):
			return http.StatusConflict, lockErr.Message, lockErr.Code
		case errors.Is(lockErr.Err, ErrNotHolder), errors.Is(lockErr.Err, ErrAdminRequired):
			return http.StatusForbidden, lockErr.Message, lockErr.Code
		}
	}

	return http.StatusInternalServerError, "Internal server error", "SYS_001"
}
