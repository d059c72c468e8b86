package order

import (
	"context"
	"iter"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/shopfront/orders-service/internal/domain/payment"
)

// Service orchestrates order placement: validation, payment authorization,
// persistence, and shipment notification. It is stateless and reentrant;
// any number of placements may run concurrently.
type Service struct {
	validator Validator
	payments  payment.Authorizer
	orders    Repository
	shipments Notifier
}

// NewService creates an order Service with the required capabilities.
func NewService(
	validator Validator,
	payments payment.Authorizer,
	orders Repository,
	shipments Notifier,
) *Service {
	return &Service{
		validator: validator,
		payments:  payments,
		orders:    orders,
		shipments: shipments,
	}
}

// PlaceOrder drives a placement request to a terminal outcome.
//
// The sequence is validate, authorize, persist, notify. Validation runs
// before anything else so a malformed request never incurs a payment
// attempt. A declined card returns *PaymentDeclinedError with nothing
// persisted. A payment or store failure returns *UnavailableError; the
// sequence is never retried here, since a blind repeat could charge the
// card twice. Shipment notification is best-effort and cannot change the
// outcome of an already persisted order.
func (s *Service) PlaceOrder(ctx context.Context, req Request) (*Order, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	total := req.Total()
	cardRef := req.Card.Masked()

	auth, err := s.payments.Authorize(ctx, cardRef, total)
	if err != nil {
		var declined *payment.DeclinedError
		if errors.As(err, &declined) {
			return nil, &PaymentDeclinedError{Reason: declined.Reason}
		}
		return nil, &UnavailableError{Op: "authorize payment", Err: err}
	}

	// Payment is authorized: from here the placement must reach a recorded
	// terminal state even if the inbound request is cancelled mid-flight.
	ctx = context.WithoutCancel(ctx)

	o, err := s.orders.Create(ctx, NewOrder{
		CustomerID:      req.Customer.ID,
		Address:         req.Address,
		CardRef:         cardRef,
		Items:           req.Items,
		Total:           total,
		AuthorizationID: auth.ID,
	})
	if err != nil {
		// The charge was authorized but no order exists. Reconciliation of
		// the orphaned authorization happens out of process; surface enough
		// to find it.
		zctx.From(ctx).Warn("order not persisted after payment authorization, reconciliation required",
			zap.String("authorization_id", auth.ID),
			zap.String("customer_id", req.Customer.ID),
			zap.Error(err),
		)
		return nil, &UnavailableError{Op: "persist order", Err: err}
	}

	s.shipments.Enqueue(o)

	return o, nil
}

// GetByID returns a single order. Unknown identifiers yield ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id string) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

// ListOrders returns all orders in insertion order as a lazy, restartable
// sequence.
func (s *Service) ListOrders(ctx context.Context) iter.Seq2[*Order, error] {
	return s.orders.List(ctx)
}
