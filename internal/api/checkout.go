package api

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
)

// CheckoutCreator creates hosted checkout sessions.
type CheckoutCreator interface {
	CreateCheckoutSession(ctx context.Context, priceID, userID string) (string, error)
}

type CheckoutHandler struct {
	payments CheckoutCreator
	log      zerolog.Logger
}

func NewCheckoutHandler(payments CheckoutCreator, log zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		payments: payments,
		log:      log.With().Str("handler", "checkout").Logger(),
	}
}

// Create handles POST /api/create-checkout-session.
func (h *CheckoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PriceID string `json:"priceId"`
		UserID  string `json:"userId"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		WriteMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PriceID == "" {
		WriteMessage(w, http.StatusBadRequest, "Missing priceId")
		return
	}

	// The session user is authoritative; the body's userId is only a
	// cross-check from older clients.
	userID := req.UserID
	if user, ok := UserFromContext(r.Context()); ok {
		userID = user.ID
	}

	sessionID, err := h.payments.CreateCheckoutSession(r.Context(), req.PriceID, userID)
	if err != nil {
		h.log.Error().Err(err).Str("price", req.PriceID).Msg("checkout session creation failed")
		WriteFailure(w, http.StatusInternalServerError, "Error creating checkout session", err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"sessionId": sessionID})
}
