// Package payment implements the HTTP adapter for the payment service.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	domain "github.com/shopfront/orders-service/internal/domain/payment"
)

var _ domain.Authorizer = (*Client)(nil)

// RetryConfig configures the bounded exponential backoff applied before the
// adapter reports the payment service unavailable. Declines are returned
// immediately and are never retried.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// DefaultRetryConfig returns the retry policy used when none is configured.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Multiplier:  2.0,
	}
}

// Client calls the payment service's authorization endpoint over HTTP.
// It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	retry   RetryConfig
}

// NewClient creates a payment Client. timeout bounds each authorization
// attempt; retry bounds how many attempts are made on transport errors
// and 5xx responses.
func NewClient(baseURL string, timeout time.Duration, retry RetryConfig) *Client {
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryConfig()
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		retry:   retry,
	}
}

type authRequest struct {
	CardRef string          `json:"card_ref"`
	Amount  decimal.Decimal `json:"amount"`
}

type authResponse struct {
	Authorized      bool   `json:"authorized"`
	Message         string `json:"message"`
	AuthorizationID string `json:"authorization_id"`
}

// Authorize requests authorization of amount against the given card
// reference. A refusal returns *domain.DeclinedError. Transport errors and
// 5xx responses are retried with exponential backoff; once attempts are
// exhausted the last error is returned wrapping domain.ErrUnavailable.
func (c *Client) Authorize(ctx context.Context, cardRef string, amount decimal.Decimal) (*domain.Authorization, error) {
	body, err := json.Marshal(authRequest{CardRef: cardRef, Amount: amount})
	if err != nil {
		return nil, errors.Wrap(err, "marshal authorization request")
	}

	var lastErr error
	backoff := c.retry.BaseDelay

	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(domain.ErrUnavailable, ctx.Err().Error())
			case <-time.After(backoff):
			}
			backoff = time.Duration(float64(backoff) * c.retry.Multiplier)
			if backoff > c.retry.MaxDelay {
				backoff = c.retry.MaxDelay
			}
		}

		auth, retryable, err := c.authorizeOnce(ctx, body)
		if err == nil {
			return auth, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}

	return nil, errors.Wrapf(domain.ErrUnavailable, "authorization failed after %d attempts: %v", c.retry.MaxAttempts, lastErr)
}

// authorizeOnce performs a single authorization attempt. The second return
// value reports whether the failure is eligible for retry.
func (c *Client) authorizeOnce(ctx context.Context, body []byte) (*domain.Authorization, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/paymentAuth", bytes.NewReader(body))
	if err != nil {
		return nil, false, errors.Wrap(err, "build authorization request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, errors.Wrap(err, "call payment service")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, true, errors.Errorf("payment service returned %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, errors.Wrapf(domain.ErrUnavailable, "payment service returned %d", resp.StatusCode)
	}

	var ar authResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return nil, false, errors.Wrap(domain.ErrUnavailable, err.Error())
	}

	if !ar.Authorized {
		return nil, false, &domain.DeclinedError{Reason: ar.Message}
	}

	return &domain.Authorization{
		ID:      ar.AuthorizationID,
		Message: ar.Message,
	}, false, nil
}
