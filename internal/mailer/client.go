// Package mailer relays contact-form submissions to the template email API.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultAPIURL = "https://api.emailjs.com/api/v1.0/email/send"

// Client sends template-based email through the delivery API.
type Client struct {
	apiURL     string
	serviceID  string
	templateID string
	publicKey  string
	client     *http.Client
}

// NewClient creates a mailer for one service/template pair.
func NewClient(serviceID, templateID, publicKey string) *Client {
	return &Client{
		apiURL:     defaultAPIURL,
		serviceID:  serviceID,
		templateID: templateID,
		publicKey:  publicKey,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

// WithAPIURL overrides the delivery API URL. Used by tests.
func (c *Client) WithAPIURL(apiURL string) *Client {
	c.apiURL = apiURL
	return c
}

// Send delivers one contact-form message with the sender's name, email, and
// message filled into the template.
func (c *Client) Send(ctx context.Context, name, email, message string) error {
	if c.serviceID == "" || c.templateID == "" {
		return fmt.Errorf("mailer not configured")
	}

	payload := map[string]any{
		"service_id":  c.serviceID,
		"template_id": c.templateID,
		"user_id":     c.publicKey,
		"template_params": map[string]string{
			"from_name":  name,
			"from_email": email,
			"message":    message,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("email send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("email send: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return nil
}
