// Package payments creates checkout sessions with the hosted payments
// provider. Billing logic itself lives entirely on the provider's side.
package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultAPIURL = "https://api.stripe.com/v1/checkout/sessions"

// Client creates hosted checkout sessions.
type Client struct {
	apiURL     string
	secretKey  string
	successURL string
	cancelURL  string
	client     *http.Client
}

// NewClient creates a payments client with the provider's production API URL.
func NewClient(secretKey, successURL, cancelURL string) *Client {
	return &Client{
		apiURL:     defaultAPIURL,
		secretKey:  secretKey,
		successURL: successURL,
		cancelURL:  cancelURL,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

// WithAPIURL overrides the provider API URL. Used by tests.
func (c *Client) WithAPIURL(apiURL string) *Client {
	c.apiURL = apiURL
	return c
}

// CreateCheckoutSession creates a one-time payment session for the given
// price and returns its id, which the client uses to redirect to the hosted
// checkout page. The user id rides along as metadata so the provider's
// webhook can credit the right account.
func (c *Client) CreateCheckoutSession(ctx context.Context, priceID, userID string) (string, error) {
	if c.secretKey == "" {
		return "", fmt.Errorf("payments not configured")
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	form.Set("line_items[0][price]", priceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", c.successURL)
	form.Set("cancel_url", c.cancelURL)
	form.Set("metadata[user_id]", userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("checkout session request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error.Message != "" {
			return "", fmt.Errorf("checkout session: %s", e.Error.Message)
		}
		return "", fmt.Errorf("checkout session: status %d", resp.StatusCode)
	}

	var session struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &session); err != nil {
		return "", fmt.Errorf("decode session: %w", err)
	}
	if session.ID == "" {
		return "", fmt.Errorf("checkout session response missing id")
	}
	return session.ID, nil
}
