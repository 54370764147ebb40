package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// EmailSender delivers one contact-form message.
type EmailSender interface {
	Send(ctx context.Context, name, email, message string) error
}

type ContactHandler struct {
	mailer EmailSender
	log    zerolog.Logger
}

func NewContactHandler(mailer EmailSender, log zerolog.Logger) *ContactHandler {
	return &ContactHandler{
		mailer: mailer,
		log:    log.With().Str("handler", "contact").Logger(),
	}
}

// Send handles POST /api/contact.
func (h *ContactHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Message string `json:"message"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		WriteMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)
	if req.Name == "" || req.Email == "" || req.Message == "" {
		WriteMessage(w, http.StatusBadRequest, "name, email, and message are required")
		return
	}

	if err := h.mailer.Send(r.Context(), req.Name, req.Email, req.Message); err != nil {
		h.log.Error().Err(err).Msg("contact email failed")
		WriteFailure(w, http.StatusInternalServerError, "Error sending message", err)
		return
	}

	WriteMessage(w, http.StatusAccepted, "Message sent")
}
