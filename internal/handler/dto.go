package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopfront/orders-service/internal/domain/order"
)

// orderRequest is the wire form of a placement request. Top-level fields
// are pointers so that absent fields survive decoding as nil and reach the
// validator as missing, rather than being silently zeroed.
type orderRequest struct {
	Customer *customerDTO `json:"customer"`
	Address  *addressDTO  `json:"address"`
	Card     *cardDTO     `json:"card"`
	Items    []itemDTO    `json:"items"`
}

type customerDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type addressDTO struct {
	Street   string `json:"street"`
	City     string `json:"city"`
	PostCode string `json:"post_code"`
	Country  string `json:"country"`
}

type cardDTO struct {
	Number string `json:"number"`
	Expiry string `json:"expiry"`
	CCV    string `json:"ccv"`
}

type itemDTO struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// toDomain converts the wire request to a domain request. Nil sections
// become zero values, which the validator reports as missing.
func (r orderRequest) toDomain() order.Request {
	req := order.Request{}
	if r.Customer != nil {
		req.Customer = order.Customer{ID: r.Customer.ID, Name: r.Customer.Name, Email: r.Customer.Email}
	}
	if r.Address != nil {
		req.Address = order.Address{
			Street:   r.Address.Street,
			City:     r.Address.City,
			PostCode: r.Address.PostCode,
			Country:  r.Address.Country,
		}
	}
	if r.Card != nil {
		req.Card = order.Card{Number: r.Card.Number, Expiry: r.Card.Expiry, CCV: r.Card.CCV}
	}
	if len(r.Items) > 0 {
		req.Items = make([]order.Item, len(r.Items))
		for i, it := range r.Items {
			req.Items[i] = order.Item{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				UnitPrice: decimal.NewFromFloat(it.UnitPrice),
			}
		}
	}
	return req
}

type orderResponse struct {
	ID         string     `json:"id"`
	CustomerID string     `json:"customer_id"`
	Address    addressDTO `json:"address"`
	CardRef    string     `json:"card_ref"`
	Items      []itemDTO  `json:"items"`
	Total      float64    `json:"total"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
}

func toResponse(o *order.Order) orderResponse {
	items := make([]itemDTO, len(o.Items))
	for i, it := range o.Items {
		items[i] = itemDTO{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.InexactFloat64(),
		}
	}
	return orderResponse{
		ID:         o.ID,
		CustomerID: o.CustomerID,
		Address: addressDTO{
			Street:   o.Address.Street,
			City:     o.Address.City,
			PostCode: o.Address.PostCode,
			Country:  o.Address.Country,
		},
		CardRef:   o.CardRef,
		Items:     items,
		Total:     o.Total.InexactFloat64(),
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
	}
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
