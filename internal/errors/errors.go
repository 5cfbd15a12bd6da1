package errors

import (
	"errors"
	"fmt"
)

// Common error types for the storefront client
var (
	// Token errors
	ErrInvalidToken   = errors.New("invalid token")
	ErrNoRefreshToken = errors.New("no refresh token")

	// Transport errors
	ErrBodyNotReplayable = errors.New("request body cannot be replayed")

	// General errors
	ErrNotFound = errors.New("not found")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
