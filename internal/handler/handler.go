// Package handler exposes the order service over HTTP: routing, DTO
// mapping, and translation of the domain error taxonomy to wire status
// codes.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"

	"github.com/shopfront/orders-service/internal/domain/order"
)

// Handler handles the inbound order API. Business logic lives in the
// order service; the handler only converts between wire and domain types.
type Handler struct {
	orders *order.Service

	placed   metric.Int64Counter
	rejected metric.Int64Counter
}

// NewHandler constructs a Handler with the given order service and meter.
func NewHandler(orders *order.Service, meter metric.Meter) (*Handler, error) {
	placed, err := meter.Int64Counter("orders.placed")
	if err != nil {
		return nil, errors.Wrap(err, "create placed counter")
	}
	rejected, err := meter.Int64Counter("orders.rejected")
	if err != nil {
		return nil, errors.Wrap(err, "create rejected counter")
	}

	return &Handler{
		orders:   orders,
		placed:   placed,
		rejected: rejected,
	}, nil
}

// Routes returns the router for the order API.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/orders", h.PlaceOrder)
	r.Get("/orders", h.ListOrders)
	r.Get("/orders/{id}", h.GetOrder)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Code: status, Message: msg})
}
