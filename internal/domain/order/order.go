package order

import (
	"context"
	"iter"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status describes the lifecycle state of a persisted order. Orders are
// written in their terminal state in a single create call, so the only
// status this service ever stores is StatusPlaced.
type Status string

// StatusPlaced marks an order that was paid for and durably recorded.
const StatusPlaced Status = "placed"

// Customer identifies the customer placing an order. Only ID is required;
// name and email travel along for downstream consumers.
type Customer struct {
	ID    string
	Name  string
	Email string
}

// Address is the shipping destination for an order.
type Address struct {
	Street   string
	City     string
	PostCode string
	Country  string
}

// Card holds raw payment card details from the request. The raw number is
// never persisted; Masked produces the reference that is stored and passed
// to the payment service.
type Card struct {
	Number string
	Expiry string
	CCV    string
}

// Masked returns the card reference with all but the last four digits
// replaced, e.g. "****1234".
func (c Card) Masked() string {
	digits := strings.ReplaceAll(strings.ReplaceAll(c.Number, " ", ""), "-", "")
	if len(digits) <= 4 {
		return "****" + digits
	}
	return "****" + digits[len(digits)-4:]
}

// Item is a single order line: a product reference, a quantity, and the
// unit price quoted by the storefront.
type Item struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Subtotal returns quantity times unit price.
func (i Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Request is an incoming order placement request. It is transient input
// and is never persisted as-is.
type Request struct {
	Customer Customer
	Address  Address
	Card     Card
	Items    []Item
}

// Total sums the item subtotals, rounded to 2 decimal places.
func (r Request) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range r.Items {
		total = total.Add(item.Subtotal())
	}
	return total.Round(2)
}

// Order is a durably recorded customer order. The ID and CreatedAt fields
// are assigned by the Repository on create and are immutable thereafter.
type Order struct {
	ID              string
	CustomerID      string
	Address         Address
	CardRef         string
	Items           []Item
	Total           decimal.Decimal
	Status          Status
	AuthorizationID string
	CreatedAt       time.Time
}

// NewOrder is the data handed to the Repository for creation, before an
// identifier or timestamp exists.
type NewOrder struct {
	CustomerID      string
	Address         Address
	CardRef         string
	Items           []Item
	Total           decimal.Decimal
	AuthorizationID string
}

// Repository defines durable keyed storage of orders.
//
// List returns a lazy, restartable sequence of all orders in insertion
// order; each iteration re-reads the store. Implementations must be safe
// for concurrent use.
type Repository interface {
	Create(ctx context.Context, data NewOrder) (*Order, error)
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context) iter.Seq2[*Order, error]
}

// Notifier registers a fulfillment request for a placed order. Delivery is
// best-effort and must never block the caller.
type Notifier interface {
	Enqueue(o *Order)
}
