// Package shipping implements the fire-and-forget shipment notifier. Placed
// orders are queued in memory and posted to the shipping service by a
// background dispatcher; delivery failures are reported but never affect
// the outcome of the placement that queued them.
package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/shopfront/orders-service/internal/domain/order"
)

var _ order.Notifier = (*Dispatcher)(nil)

// Config configures the shipment Dispatcher.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	QueueSize int
}

// Dispatcher queues shipment notifications and delivers them in the
// background. Enqueue never blocks: when the queue is full the
// notification is dropped with a warning.
type Dispatcher struct {
	cfg   Config
	http  *http.Client
	queue chan *order.Order
	lg    *zap.Logger

	sent    metric.Int64Counter
	failed  metric.Int64Counter
	dropped metric.Int64Counter
}

// NewDispatcher creates a Dispatcher. Call Run to start delivery.
func NewDispatcher(cfg Config, lg *zap.Logger, meter metric.Meter) (*Dispatcher, error) {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 128
	}

	sent, err := meter.Int64Counter("shipment.notifications.sent")
	if err != nil {
		return nil, errors.Wrap(err, "create sent counter")
	}
	failed, err := meter.Int64Counter("shipment.notifications.failed")
	if err != nil {
		return nil, errors.Wrap(err, "create failed counter")
	}
	dropped, err := meter.Int64Counter("shipment.notifications.dropped")
	if err != nil {
		return nil, errors.Wrap(err, "create dropped counter")
	}

	return &Dispatcher{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		queue:   make(chan *order.Order, cfg.QueueSize),
		lg:      lg,
		sent:    sent,
		failed:  failed,
		dropped: dropped,
	}, nil
}

// Enqueue queues a shipment notification for the given order without
// blocking. The order is already committed; a full queue only costs the
// notification, never the order.
func (d *Dispatcher) Enqueue(o *order.Order) {
	select {
	case d.queue <- o:
	default:
		d.dropped.Add(context.Background(), 1)
		d.lg.Warn("shipment notification queue full, dropping",
			zap.String("order_id", o.ID),
		)
	}
}

// Run consumes the queue until ctx is cancelled. It always returns nil so
// it can run under an errgroup without tearing the group down.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case o := <-d.queue:
			d.notify(ctx, o)
		}
	}
}

type shipmentRequest struct {
	OrderID    string        `json:"order_id"`
	CustomerID string        `json:"customer_id"`
	Address    order.Address `json:"address"`
	Items      []order.Item  `json:"items"`
}

// notify posts a single fulfillment request. Failures are logged as
// non-fatal warnings.
func (d *Dispatcher) notify(ctx context.Context, o *order.Order) {
	body, err := json.Marshal(shipmentRequest{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		Address:    o.Address,
		Items:      o.Items,
	})
	if err != nil {
		d.failed.Add(ctx, 1)
		d.lg.Warn("marshal shipment notification", zap.String("order_id", o.ID), zap.Error(err))
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx, d.http.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, d.cfg.BaseURL+"/shipments", bytes.NewReader(body))
	if err != nil {
		d.failed.Add(ctx, 1)
		d.lg.Warn("build shipment notification", zap.String("order_id", o.ID), zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.http.Do(req)
	if err != nil {
		d.failed.Add(ctx, 1)
		d.lg.Warn("shipment notification failed",
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		d.failed.Add(ctx, 1)
		d.lg.Warn("shipment service rejected notification",
			zap.String("order_id", o.ID),
			zap.Int("status", resp.StatusCode),
		)
		return
	}

	d.sent.Add(ctx, 1)
	d.lg.Debug("shipment notification sent", zap.String("order_id", o.ID))
}
