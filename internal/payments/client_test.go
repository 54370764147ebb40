package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCreateCheckoutSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk_test_123" {
			t.Errorf("auth header = %q", r.Header.Get("Authorization"))
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		checks := map[string]string{
			"mode":                    "payment",
			"line_items[0][price]":    "price_basic",
			"line_items[0][quantity]": "1",
			"metadata[user_id]":       "user-1",
			"success_url":             "https://app/success",
			"cancel_url":              "https://app/cancel",
		}
		for k, want := range checks {
			if got := r.PostForm.Get(k); got != want {
				t.Errorf("form[%s] = %q, want %q", k, got, want)
			}
		}
		w.Write([]byte(`{"id":"cs_test_abc"}`))
	}))
	defer srv.Close()

	c := NewClient("sk_test_123", "https://app/success", "https://app/cancel").WithAPIURL(srv.URL)
	id, err := c.CreateCheckoutSession(context.Background(), "price_basic", "user-1")
	if err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}
	if id != "cs_test_abc" {
		t.Errorf("session id = %q", id)
	}
}

func TestCreateCheckoutSession_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"No such price: price_nope"}}`))
	}))
	defer srv.Close()

	c := NewClient("sk_test_123", "s", "c").WithAPIURL(srv.URL)
	_, err := c.CreateCheckoutSession(context.Background(), "price_nope", "user-1")
	if err == nil || !strings.Contains(err.Error(), "No such price") {
		t.Errorf("err = %v, want provider message", err)
	}
}

func TestCreateCheckoutSession_Unconfigured(t *testing.T) {
	c := NewClient("", "s", "c")
	if _, err := c.CreateCheckoutSession(context.Background(), "price_basic", "user-1"); err == nil {
		t.Error("succeeded without a secret key")
	}
}
