package bbs

import (
	"errors"
	"fmt"

	"github.com/mattrglobal/bbs-go/pkg/bbs/internal/backend"
)

var (
	// ErrLibraryClosed indicates the library handle has been closed
	ErrLibraryClosed = errors.New("bbs: library closed")

	// ErrNotBuilt indicates the native bindings were not compiled in
	ErrNotBuilt = backend.ErrNotBuilt

	// ErrMissingSecretKey indicates a signing operation was attempted with a
	// key pair that carries no secret key
	ErrMissingSecretKey = errors.New("bbs: key pair has no secret key")

	// ErrNoMessages indicates an operation requires at least one message
	ErrNoMessages = errors.New("bbs: at least one message is required")

	// ErrInvalidParameter indicates an invalid parameter was provided
	ErrInvalidParameter = errors.New("bbs: invalid parameter")

	// ErrContractViolation indicates the native library responded outside its
	// documented contract (for example an unknown verification status code)
	ErrContractViolation = errors.New("bbs: native contract violation")
)

// Error wraps a failure with the operation that produced it. Code carries the
// native error code verbatim; Code 0 means the failure was raised locally
// (validation, bookkeeping, missing bindings) and never reached the native
// library.
type Error struct {
	Op   string // Operation that failed
	Code int32  // Native error code, 0 for local failures
	Err  error  // Underlying error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("bbs.%s: native code %d: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("bbs.%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// errorf creates a local (non-native) Error
func errorf(op string, format string, args ...interface{}) error {
	return &Error{
		Op:  op,
		Err: fmt.Errorf(format, args...),
	}
}

// localError wraps a sentinel as a local Error
func localError(op string, err error) error {
	return &Error{Op: op, Err: err}
}

// nativeError carries a native code and its message verbatim
func nativeError(op string, code int32, message string) error {
	return &Error{
		Op:   op,
		Code: code,
		Err:  fmt.Errorf("native library failure: %s", message),
	}
}
