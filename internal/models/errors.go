package models

import "fmt"

// ConflictError signals a state-invariant violation, e.g. a day already
// open for the organization or an order already in the target status.
type ConflictError struct {
	Resource string
	Reason   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s: %s", e.Resource, e.Reason)
}

// NotFoundError signals that a referenced entity does not exist.
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %d", e.Resource, e.ID)
}

// InvalidStateError signals an operation that is not valid from the
// entity's current state, e.g. confirming a cancelled order.
type InvalidStateError struct {
	Resource string
	Current  string
	Reason   string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s in state %s: %s", e.Resource, e.Current, e.Reason)
}

// ValidationError signals malformed input, e.g. an empty item list.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DispatchError signals a transient delivery failure. Retryable up to the
// configured attempt bound.
type DispatchError struct {
	PrinterAddr string
	Err         error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch to %s failed: %v", e.PrinterAddr, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
