package order

import (
	"fmt"
	"strings"
)

// ErrNotFound indicates a lookup of a nonexistent order identifier. It is a
// normal negative result, distinct from a transient store failure.
var ErrNotFound = fmt.Errorf("order not found")

// ValidationError indicates a malformed placement request. It aggregates
// every missing field into a single human-readable summary.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid order request: missing %s", strings.Join(e.Missing, ", "))
}

// PaymentDeclinedError indicates the customer's card was actively refused.
// This is a client-caused, non-retryable outcome, distinct from both
// validation failures and service failures.
type PaymentDeclinedError struct {
	Reason string
}

func (e *PaymentDeclinedError) Error() string {
	if e.Reason == "" {
		return "payment declined"
	}
	return fmt.Sprintf("payment declined: %s", e.Reason)
}

// UnavailableError indicates a downstream dependency could not complete.
// The caller may retry the whole placement; this service performs no
// automatic retry of the sequence, since repeating it could double-charge.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: service unavailable: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }
