package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key does not exist in the store.
// It is a sentinel, not a fatal condition: callers that iterate (clear,
// push/pull) skip it and continue.
var ErrNotFound = errors.New("secret not found")

// IsNotFound reports whether err indicates a missing secret.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// CapabilityError reports an operation invoked against a backend whose
// descriptor does not declare that capability, e.g. reading from the
// write-only GitHub Actions store. Distinct from ErrNotFound: the secret may
// well exist, the backend just cannot perform the operation.
type CapabilityError struct {
	Store      string
	Capability Capability
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("store %q does not support %s", e.Store, e.Capability)
}

// BackendError wraps an authentication, permission or network failure
// surfaced by the backend SDK. It is propagated to the caller without
// retrying and aborts bulk operations.
type BackendError struct {
	Store string
	Op    string
	Err   error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("store %q: %s: %v", e.Store, e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// IsBackendError reports whether err is (or wraps) a backend failure.
func IsBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}
