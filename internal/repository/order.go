package repository

import (
	"context"
	"encoding/json"
	"iter"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/shopfront/orders-service/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (id, customer_id, address, card_ref, items, total, status, auth_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	getOrderSQL = `SELECT id, customer_id, address, card_ref, items, total, status, auth_id, created_at
		FROM orders WHERE id = $1`

	listOrdersSQL = `SELECT id, customer_id, address, card_ref, items, total, status, auth_id, created_at
		FROM orders ORDER BY seq`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. The
// address and items are serialized to JSON for storage in JSONB columns.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create assigns a fresh identifier, persists the order atomically in its
// terminal placed status, and returns the full record.
func (r *OrderRepository) Create(ctx context.Context, data order.NewOrder) (*order.Order, error) {
	addressJSON, err := json.Marshal(data.Address)
	if err != nil {
		return nil, errors.Wrap(err, "marshal address")
	}
	itemsJSON, err := json.Marshal(data.Items)
	if err != nil {
		return nil, errors.Wrap(err, "marshal order items")
	}

	id := uuid.New().String()

	var createdAt time.Time
	err = r.pool.QueryRow(ctx, createOrderSQL,
		id, data.CustomerID, addressJSON, data.CardRef, itemsJSON,
		data.Total, string(order.StatusPlaced), data.AuthorizationID,
	).Scan(&createdAt)
	if err != nil {
		return nil, errors.Wrapf(err, "create order %q", id)
	}

	return &order.Order{
		ID:              id,
		CustomerID:      data.CustomerID,
		Address:         data.Address,
		CardRef:         data.CardRef,
		Items:           data.Items,
		Total:           data.Total,
		Status:          order.StatusPlaced,
		AuthorizationID: data.AuthorizationID,
		CreatedAt:       createdAt,
	}, nil
}

// GetByID returns a single order by identifier. Unknown identifiers yield
// order.ErrNotFound.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	row := r.pool.QueryRow(ctx, getOrderSQL, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %q", id)
	}
	return o, nil
}

// List returns all orders in insertion order. The sequence is lazy and
// restartable: each range over it issues a fresh query.
func (r *OrderRepository) List(ctx context.Context) iter.Seq2[*order.Order, error] {
	return func(yield func(*order.Order, error) bool) {
		rows, err := r.pool.Query(ctx, listOrdersSQL)
		if err != nil {
			yield(nil, errors.Wrap(err, "list orders"))
			return
		}
		defer rows.Close()

		for rows.Next() {
			o, err := scanOrder(rows)
			if err != nil {
				yield(nil, errors.Wrap(err, "scan order"))
				return
			}
			if !yield(o, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, errors.Wrap(err, "list orders"))
		}
	}
}

// scanOrder reads one order row, decoding the JSONB address and items.
func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		o           order.Order
		status      string
		addressJSON []byte
		itemsJSON   []byte
		total       decimal.Decimal
	)
	err := row.Scan(&o.ID, &o.CustomerID, &addressJSON, &o.CardRef, &itemsJSON,
		&total, &status, &o.AuthorizationID, &o.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(addressJSON, &o.Address); err != nil {
		return nil, errors.Wrap(err, "unmarshal address")
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, errors.Wrap(err, "unmarshal order items")
	}
	o.Total = total
	o.Status = order.Status(status)

	return &o, nil
}
