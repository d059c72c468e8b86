// Package payment defines the boundary contract the order service depends
// on for card authorization. The HTTP adapter lives in internal/payment.
package payment

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrUnavailable indicates the payment service could not be reached or did
// not answer in time. It is distinct from a decline and must never be
// treated as one.
var ErrUnavailable = fmt.Errorf("payment service unavailable")

// DeclinedError indicates the card was actively refused by the payment
// service. Declines are terminal and are never retried.
type DeclinedError struct {
	Reason string
}

func (e *DeclinedError) Error() string {
	return fmt.Sprintf("payment declined: %s", e.Reason)
}

// Authorization is the payment service's approval of a charge, prior to
// settlement.
type Authorization struct {
	ID      string
	Message string
}

// Authorizer requests authorization of a charge against a card.
//
// Implementations return *DeclinedError when the card is refused and an
// error wrapping ErrUnavailable when the dependency cannot complete. Any
// retry policy (e.g. bounded backoff) belongs to the implementation; the
// caller sees a single attempt with a single outcome.
type Authorizer interface {
	Authorize(ctx context.Context, cardRef string, amount decimal.Decimal) (*Authorization, error)
}
