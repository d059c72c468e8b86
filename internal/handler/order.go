package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/shopfront/orders-service/internal/domain/order"
)

// PlaceOrder decodes the placement request, delegates to the order
// service, and maps the outcome (or typed error) back to the wire.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.rejected.Add(r.Context(), 1, metric.WithAttributes(attribute.String("reason", "malformed_json")))
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	o, err := h.orders.PlaceOrder(r.Context(), req.toDomain())
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}

	h.placed.Add(r.Context(), 1)
	writeJSON(w, http.StatusCreated, toResponse(o))
}

// writeOrderError maps the domain error taxonomy one-to-one to status
// codes: validation 400, declined 402, downstream unavailable 503. Nothing
// is merged into a generic failure.
func (h *Handler) writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation  *order.ValidationError
		declined    *order.PaymentDeclinedError
		unavailable *order.UnavailableError
	)
	switch {
	case errors.As(err, &validation):
		h.rejected.Add(r.Context(), 1, metric.WithAttributes(attribute.String("reason", "validation")))
		writeError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &declined):
		h.rejected.Add(r.Context(), 1, metric.WithAttributes(attribute.String("reason", "payment_declined")))
		writeError(w, http.StatusPaymentRequired, declined.Error())
	case errors.As(err, &unavailable):
		h.rejected.Add(r.Context(), 1, metric.WithAttributes(attribute.String("reason", "unavailable")))
		writeError(w, http.StatusServiceUnavailable, "order could not be placed, try again later")
	default:
		zctx.From(r.Context()).Error("place order", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// GetOrder returns a single order by identifier.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	o, err := h.orders.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		zctx.From(r.Context()).Error("get order", zap.String("order_id", id), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "order lookup failed, try again later")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(o))
}

// ListOrders returns all orders in insertion order.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	out := make([]orderResponse, 0)
	for o, err := range h.orders.ListOrders(r.Context()) {
		if err != nil {
			zctx.From(r.Context()).Error("list orders", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "order listing failed, try again later")
			return
		}
		out = append(out, toResponse(o))
	}

	writeJSON(w, http.StatusOK, out)
}
