package order

import (
	"context"
	"iter"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopfront/orders-service/internal/domain/payment"
)

// --- Mock implementations ---

type mockAuthorizer struct {
	calls      int
	lastRef    string
	lastAmount decimal.Decimal
	auth       *payment.Authorization
	err        error

	// beforeReturn runs just before Authorize returns, e.g. to cancel the
	// caller's context mid-flight.
	beforeReturn func()
}

func (m *mockAuthorizer) Authorize(_ context.Context, cardRef string, amount decimal.Decimal) (*payment.Authorization, error) {
	m.calls++
	m.lastRef = cardRef
	m.lastAmount = amount
	if m.beforeReturn != nil {
		m.beforeReturn()
	}
	return m.auth, m.err
}

type mockOrderRepo struct {
	createCalls int
	createErr   error
	lastCtxErr  error
	orders      []*Order
}

func (m *mockOrderRepo) Create(ctx context.Context, data NewOrder) (*Order, error) {
	m.createCalls++
	m.lastCtxErr = ctx.Err()
	if m.createErr != nil {
		return nil, m.createErr
	}
	o := &Order{
		ID:              uuid.New().String(),
		CustomerID:      data.CustomerID,
		Address:         data.Address,
		CardRef:         data.CardRef,
		Items:           data.Items,
		Total:           data.Total,
		Status:          StatusPlaced,
		AuthorizationID: data.AuthorizationID,
		CreatedAt:       time.Now(),
	}
	m.orders = append(m.orders, o)
	return o, nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*Order, error) {
	for _, o := range m.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockOrderRepo) List(_ context.Context) iter.Seq2[*Order, error] {
	return func(yield func(*Order, error) bool) {
		for _, o := range m.orders {
			if !yield(o, nil) {
				return
			}
		}
	}
}

type mockNotifier struct {
	enqueued []*Order
}

func (m *mockNotifier) Enqueue(o *Order) {
	m.enqueued = append(m.enqueued, o)
}

// --- Helpers ---

func approvedAuthorizer() *mockAuthorizer {
	return &mockAuthorizer{auth: &payment.Authorization{ID: "auth-1"}}
}

func newService(pay *mockAuthorizer, repo *mockOrderRepo, notifier *mockNotifier) *Service {
	return NewService(NewRequestValidator(), pay, repo, notifier)
}

// --- Tests ---

func TestPlaceOrder_InvalidRequest_NoDownstreamCalls(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"missing customer", func(r *Request) { r.Customer = Customer{} }},
		{"missing address", func(r *Request) { r.Address = Address{} }},
		{"missing card", func(r *Request) { r.Card = Card{} }},
		{"missing items", func(r *Request) { r.Items = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pay := approvedAuthorizer()
			repo := &mockOrderRepo{}
			svc := newService(pay, repo, &mockNotifier{})

			req := completeRequest()
			tt.mutate(&req)

			_, err := svc.PlaceOrder(context.Background(), req)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Zero(t, pay.calls, "validation failure must not reach the payment service")
			assert.Zero(t, repo.createCalls, "validation failure must not persist anything")
		})
	}
}

func TestPlaceOrder_Declined(t *testing.T) {
	pay := &mockAuthorizer{err: &payment.DeclinedError{Reason: "insufficient funds"}}
	repo := &mockOrderRepo{}
	notifier := &mockNotifier{}
	svc := newService(pay, repo, notifier)

	_, err := svc.PlaceOrder(context.Background(), completeRequest())

	var dErr *PaymentDeclinedError
	require.ErrorAs(t, err, &dErr)
	assert.Equal(t, "insufficient funds", dErr.Reason)
	assert.Zero(t, repo.createCalls, "declined payment must not persist an order")
	assert.Empty(t, notifier.enqueued)
}

func TestPlaceOrder_PaymentUnavailable(t *testing.T) {
	pay := &mockAuthorizer{err: errors.Wrap(payment.ErrUnavailable, "connection refused")}
	repo := &mockOrderRepo{}
	svc := newService(pay, repo, &mockNotifier{})

	_, err := svc.PlaceOrder(context.Background(), completeRequest())

	var uErr *UnavailableError
	require.ErrorAs(t, err, &uErr)
	assert.Zero(t, repo.createCalls, "unavailable payment must not persist an order")
}

func TestPlaceOrder_Success(t *testing.T) {
	pay := approvedAuthorizer()
	repo := &mockOrderRepo{}
	notifier := &mockNotifier{}
	svc := newService(pay, repo, notifier)

	req := completeRequest()
	req.Items = []Item{
		{ProductID: "A", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
		{ProductID: "B", Quantity: 1, UnitPrice: decimal.RequireFromString("5.00")},
	}

	o, err := svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	assert.NotEmpty(t, o.ID)
	assert.Equal(t, StatusPlaced, o.Status)
	assert.True(t, decimal.RequireFromString("25.00").Equal(o.Total))
	assert.Equal(t, "auth-1", o.AuthorizationID)
	assert.Equal(t, "****1111", o.CardRef, "only the masked card reference may be stored")

	assert.Equal(t, 1, pay.calls)
	assert.True(t, decimal.RequireFromString("25.00").Equal(pay.lastAmount))

	require.Len(t, notifier.enqueued, 1)
	assert.Equal(t, o.ID, notifier.enqueued[0].ID)
}

func TestPlaceOrder_StoreError(t *testing.T) {
	pay := approvedAuthorizer()
	repo := &mockOrderRepo{createErr: errors.New("db write failed")}
	notifier := &mockNotifier{}
	svc := newService(pay, repo, notifier)

	_, err := svc.PlaceOrder(context.Background(), completeRequest())

	var uErr *UnavailableError
	require.ErrorAs(t, err, &uErr)
	assert.Equal(t, 1, pay.calls, "payment was attempted before the store failure")
	assert.Empty(t, notifier.enqueued, "no notification for an order that was never persisted")
}

func TestPlaceOrder_CancellationAfterAuthorization(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	pay := approvedAuthorizer()
	pay.beforeReturn = cancel // request cancelled while authorization is in flight
	repo := &mockOrderRepo{}
	svc := newService(pay, repo, &mockNotifier{})

	o, err := svc.PlaceOrder(ctx, completeRequest())
	require.NoError(t, err)
	require.NotNil(t, o)

	assert.Equal(t, 1, repo.createCalls, "persistence must still run once payment is authorized")
	assert.NoError(t, repo.lastCtxErr, "store call must not observe the cancelled request context")
}

func TestPlaceOrder_NoDeduplication(t *testing.T) {
	pay := approvedAuthorizer()
	repo := &mockOrderRepo{}
	svc := newService(pay, repo, &mockNotifier{})

	req := completeRequest()

	first, err := svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID, "identical requests produce distinct orders")

	var ids []string
	for o, err := range svc.ListOrders(context.Background()) {
		require.NoError(t, err)
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []string{first.ID, second.ID}, ids)
}

func TestGetByID(t *testing.T) {
	pay := approvedAuthorizer()
	repo := &mockOrderRepo{}
	svc := newService(pay, repo, &mockNotifier{})

	placed, err := svc.PlaceOrder(context.Background(), completeRequest())
	require.NoError(t, err)

	got, err := svc.GetByID(context.Background(), placed.ID)
	require.NoError(t, err)
	assert.Equal(t, placed, got)

	_, err = svc.GetByID(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOrders_Scenario(t *testing.T) {
	pay := approvedAuthorizer()
	repo := &mockOrderRepo{}
	svc := newService(pay, repo, &mockNotifier{})

	req := completeRequest()
	req.Items = []Item{
		{ProductID: "A", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
		{ProductID: "B", Quantity: 1, UnitPrice: decimal.RequireFromString("5.00")},
	}

	placed, err := svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("25.00").Equal(placed.Total))
	assert.Equal(t, StatusPlaced, placed.Status)

	seen := 0
	for o, err := range svc.ListOrders(context.Background()) {
		require.NoError(t, err)
		if o.ID == placed.ID {
			seen++
		}
	}
	assert.Equal(t, 1, seen, "the order appears exactly once in the listing")
}
