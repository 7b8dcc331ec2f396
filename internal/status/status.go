package status

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound        = errors.New("order: order not found")
	ErrInventoryNotFound    = errors.New("inventory: ticket type not found")
	ErrDuplicateOrderNumber = errors.New("order: order number already exists")
	ErrChecksumMismatch     = errors.New("gateway: check mac value mismatch")
	ErrOrderNotPaid         = errors.New("ticket: order is not paid")
	ErrConflict             = errors.New("order: conflicting status transition")
)

// ValidationError reports malformed buyer input at the service boundary.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TransientError wraps persistence or infrastructure failures the caller may
// retry. Order state is never mutated on this path.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

func Transient(op string, err error) error {
	return &TransientError{Op: op, Err: err}
}

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
