package errors

import (
	"errors"
	"fmt"
)

var (
	ErrWorkerPanic          = fmt.Errorf("worker panic")
	ErrAuthenticationFailed = fmt.Errorf("authentication failed")
	ErrSessionRestoreFailed = fmt.Errorf("session restore failed")
	ErrFetchFailed          = fmt.Errorf("fetch failed")
	ErrSendFailed           = fmt.Errorf("send failed")
	ErrCredentialNotFound   = fmt.Errorf("credential not found")
	ErrNotAuthenticated     = fmt.Errorf("user is not authenticated")
	ErrInvalidRequest       = fmt.Errorf("invalid request")
	ErrInvalidTimezone      = fmt.Errorf("invalid timezone")
	ErrInvalidToken         = fmt.Errorf("invalid or expired token")
)

// Is reports whether any error in err's tree matches target.
// Mirrors the standard library so callers only import this package.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As mirrors errors.As from the standard library.
func As(err error, target any) bool {
	return errors.As(err, target)
}
