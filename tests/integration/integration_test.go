//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"testing"
	"time"
)

var (
	baseURL    string
	httpClient *http.Client
)

// Response types — defined locally to keep tests truly black-box (no internal imports).

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type orderRequest struct {
	Customer *customerRequest `json:"customer,omitempty"`
	Address  *addressRequest  `json:"address,omitempty"`
	Card     *cardRequest     `json:"card,omitempty"`
	Items    []itemRequest    `json:"items,omitempty"`
}

type customerRequest struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type addressRequest struct {
	Street   string `json:"street"`
	City     string `json:"city"`
	PostCode string `json:"post_code"`
	Country  string `json:"country"`
}

type cardRequest struct {
	Number string `json:"number"`
	Expiry string `json:"expiry"`
	CCV    string `json:"ccv"`
}

type itemRequest struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type orderResponse struct {
	ID         string         `json:"id"`
	CustomerID string         `json:"customer_id"`
	CardRef    string         `json:"card_ref"`
	Items      []itemRequest  `json:"items"`
	Address    addressRequest `json:"address"`
	Total      float64        `json:"total"`
	Status     string         `json:"status"`
}

func TestMain(m *testing.M) {
	baseURL = os.Getenv("ORDERS_API_URL")
	if baseURL == "" {
		log.Println("ORDERS_API_URL not set, skipping integration tests")
		os.Exit(0)
	}
	httpClient = &http.Client{Timeout: 10 * time.Second}

	if err := waitForReady(); err != nil {
		log.Fatalf("wait for API: %v", err)
	}

	os.Exit(m.Run())
}

// waitForReady polls the readiness endpoint until the API accepts traffic.
func waitForReady() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			resp, err := httpClient.Get(baseURL + "/readyz")
			if err != nil {
				continue
			}
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
	}
}

// HTTP helpers.

func doGet(t *testing.T, path string) *http.Response {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, baseURL+path, nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}

	return resp
}

func doPost(t *testing.T, path string, body any) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, baseURL+path, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}

	return resp
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	return v
}

func validOrder() orderRequest {
	return orderRequest{
		Customer: &customerRequest{ID: "cust-integration", Name: "Integration Test"},
		Address:  &addressRequest{Street: "1 High St", City: "London", PostCode: "N1 9GU", Country: "UK"},
		Card:     &cardRequest{Number: "4111111111111111", Expiry: "12/29", CCV: "123"},
		Items: []itemRequest{
			{ProductID: "A", Quantity: 2, UnitPrice: 10},
			{ProductID: "B", Quantity: 1, UnitPrice: 5},
		},
	}
}
