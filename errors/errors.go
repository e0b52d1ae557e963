// Package errors provides the error taxonomy for transfer operations.
//
// Every error returned by the transfer client carries one of a small set of
// sentinel kinds, which can be checked with errors.Is, and a code obtained
// with CodeOf. The original cause stays in the chain so callers can still
// reach backend-specific details with errors.As.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Error represents a transfer operation error with context about the object involved.
type Error struct {
	// Op is the operation that failed (e.g., "initiate", "upload-part", "complete")
	Op string

	// Container is the destination container name (if applicable)
	Container string

	// Key is the destination object key (if applicable)
	Key string

	// Err is the underlying classified error
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Container != "" && e.Key != "" {
		return fmt.Sprintf("transfer.%s %s/%s: %v", e.Op, e.Container, e.Key, e.Err)
	}
	if e.Container != "" {
		return fmt.Sprintf("transfer.%s container %s: %v", e.Op, e.Container, e.Err)
	}
	if e.Key != "" {
		return fmt.Sprintf("transfer.%s object %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("transfer.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Code returns the classification of the wrapped error.
func (e *Error) Code() ErrorCode {
	return CodeOf(e.Err)
}

// WithContainer adds container context to an existing error.
func (e *Error) WithContainer(container string) *Error {
	e.Container = container
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
// Unclassified errors are classified as backend failures.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: Ensure(err),
	}
}

// NewObjectError creates a new Error with container and key context.
func NewObjectError(op, container, key string, err error) *Error {
	return &Error{
		Op:        op,
		Container: container,
		Key:       key,
		Err:       Ensure(err),
	}
}

// Sentinel error kinds. These can be used with errors.Is() for error checking.
var (
	// ErrAuthentication indicates that the backend rejected the credentials
	ErrAuthentication = errors.New("transfer: authentication failure")

	// ErrNotFound indicates that a container, object or upload session does not exist
	ErrNotFound = errors.New("transfer: not found")

	// ErrAccessDenied indicates that access to the resource is denied
	ErrAccessDenied = errors.New("transfer: access denied")

	// ErrInvalidArgument indicates that the provided input is invalid
	ErrInvalidArgument = errors.New("transfer: invalid argument")

	// ErrBackend indicates any other failure reported by the backend
	ErrBackend = errors.New("transfer: backend failure")

	// ErrSessionClosed indicates a submission to a session that was already completed or aborted
	ErrSessionClosed = fmt.Errorf("%w: session closed", ErrInvalidArgument)
)

// Wrap classifies err as the given sentinel kind while keeping err in the chain.
func Wrap(kind, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}

// InvalidArgument builds an invalid-argument error from a format string.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// Ensure makes sure err carries a classification. Context errors and errors
// that already carry a sentinel kind are returned unchanged; anything else is
// classified as a backend failure.
func Ensure(err error) error {
	if err == nil {
		return nil
	}
	if CodeOf(err) != CodeBackend || errors.Is(err, ErrBackend) {
		return err
	}
	return Wrap(ErrBackend, err)
}

// CodeOf returns the classification code of err. Unclassified errors report CodeBackend.
func CodeOf(err error) ErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCanceled
	case errors.Is(err, ErrAuthentication):
		return CodeAuthentication
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrAccessDenied):
		return CodeAccessDenied
	case errors.Is(err, ErrInvalidArgument):
		return CodeInvalidArgument
	default:
		return CodeBackend
	}
}

// IsNotFound checks if an error indicates that an object or session was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAccessDenied checks if an error indicates access was denied.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// IsInvalidArgument checks if an error indicates invalid input.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsCanceled checks if an error was caused by context cancellation or deadline.
func IsCanceled(err error) bool {
	return CodeOf(err) == CodeCanceled
}
