package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the brain answered and the record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrAccessDenied is the authorization-failure outcome. It is a denial
	// surfaced to the caller, never an internal error.
	ErrAccessDenied = errors.New("access denied")
	// ErrInvalidInput rejects malformed dispatch parameters before any
	// network traffic.
	ErrInvalidInput = errors.New("invalid input")
	// ErrBadAction rejects action descriptors that do not parse as
	// "verb@target".
	ErrBadAction = errors.New("malformed action descriptor")
	// ErrMalformedToken rejects callback tokens that do not decode.
	ErrMalformedToken = errors.New("malformed callback token")
	// ErrBadSignature rejects callback tokens whose MAC does not verify.
	// Distinct from ErrMalformedToken: the token decoded but was forged
	// or altered.
	ErrBadSignature = errors.New("callback token signature mismatch")
)

// BackendError is an application failure reported by the brain in a
// well-formed response ({error, error_type}).
type BackendError struct {
	Type    string
	Message string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("brain error %s: %s", e.Type, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match backend-reported missing
// records without collapsing them into transport failures.
func (e *BackendError) Is(target error) bool {
	return target == ErrNotFound && e.Type == "NotFound"
}

// TransportError covers everything between us and a well-formed brain
// response: connection failures, timeouts, non-JSON bodies, HTTP 500.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("brain request %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
