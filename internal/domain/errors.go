package domain

import (
	"errors"
	"fmt"
)

// Workflow error kinds. Every workflow operation returns one of these so the
// caller can render a specific per-kind message; nothing is retried internally.
var (
	// ErrInsufficientCredit means the shop's credit balance is below the
	// generation cost. The record is left unchanged.
	ErrInsufficientCredit = errors.New("insufficient credit")

	// ErrMalformedAIResponse means the provider's response could not be parsed
	// into the seven-key proposed-field schema.
	ErrMalformedAIResponse = errors.New("malformed AI response")

	// ErrProviderTimeout means the generative provider did not answer within
	// the bounded timeout.
	ErrProviderTimeout = errors.New("provider timeout")

	// ErrRemoteUpdateRejected means the catalog push returned field-level
	// errors; the record stays in its enhanced state.
	ErrRemoteUpdateRejected = errors.New("remote update rejected")

	// ErrNotFound means the product id does not identify a known record.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput marks a precondition violation that should not occur if
	// the upstream contract holds.
	ErrInvalidInput = errors.New("invalid input")
)

// PersistenceError reports a failed local store read or write. StaleLocal is
// set when a remote catalog push already succeeded but the local status write
// failed, so the caller can reconcile instead of silently losing the
// catalog-side change.
type PersistenceError struct {
	Op         string
	StaleLocal bool
	Err        error
}

func (e *PersistenceError) Error() string {
	if e.StaleLocal {
		return fmt.Sprintf("persistence failed (%s): push succeeded, local state stale: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("persistence failed (%s): %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// FieldError is a single field-level error reported by the catalog provider.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RemoteUpdateError carries the field errors of a rejected catalog push.
// errors.Is(err, ErrRemoteUpdateRejected) holds for it.
type RemoteUpdateError struct {
	Fields []FieldError
}

func (e *RemoteUpdateError) Error() string {
	return fmt.Sprintf("remote update rejected: %d field error(s)", len(e.Fields))
}

func (e *RemoteUpdateError) Unwrap() error { return ErrRemoteUpdateRejected }
