package api

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/snarg/scribed/internal/backend"
)

// AccountStore reads user-scoped and platform-wide records from the hosted
// backend.
type AccountStore interface {
	CreditsRemaining(ctx context.Context, userID string) (int, error)
	Uploads(ctx context.Context, userID string) ([]backend.Upload, error)
	Stats(ctx context.Context) (*backend.Stats, error)
}

type AccountHandler struct {
	store AccountStore
	log   zerolog.Logger
}

func NewAccountHandler(store AccountStore, log zerolog.Logger) *AccountHandler {
	return &AccountHandler{
		store: store,
		log:   log.With().Str("handler", "account").Logger(),
	}
}

// Credits handles GET /api/credits for the session user.
func (h *AccountHandler) Credits(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		WriteMessage(w, http.StatusUnauthorized, "You must be logged in.")
		return
	}

	credits, err := h.store.CreditsRemaining(r.Context(), user.ID)
	if err != nil {
		h.log.Error().Err(err).Str("user", user.ID).Msg("credits lookup failed")
		WriteFailure(w, http.StatusInternalServerError, "Error fetching credits", err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]int{"credits_remaining": credits})
}

// History handles GET /api/history for the session user, newest first.
func (h *AccountHandler) History(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		WriteMessage(w, http.StatusUnauthorized, "You must be logged in.")
		return
	}

	uploads, err := h.store.Uploads(r.Context(), user.ID)
	if err != nil {
		h.log.Error().Err(err).Str("user", user.ID).Msg("history lookup failed")
		WriteFailure(w, http.StatusInternalServerError, "Error fetching history", err)
		return
	}
	if uploads == nil {
		uploads = []backend.Upload{}
	}

	WriteJSON(w, http.StatusOK, map[string]any{"uploads": uploads})
}

// Stats handles GET /api/stats. Public: it backs the landing page counters.
func (h *AccountHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("stats lookup failed")
		WriteFailure(w, http.StatusInternalServerError, "Error fetching stats", err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}
