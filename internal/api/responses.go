package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// MessageResponse is the body for validation failures and simple acks.
type MessageResponse struct {
	Message string `json:"message"`
}

// FailureResponse attaches an upstream or internal error to the message.
type FailureResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// UploadResponse is the success envelope for the upload relay: the upstream
// data payload verbatim under a thin message wrapper.
type UploadResponse struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// WriteMessage writes a message-only JSON response.
func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, MessageResponse{Message: msg})
}

// WriteFailure writes a message plus error-detail JSON response.
func WriteFailure(w http.ResponseWriter, status int, msg string, err error) {
	WriteJSON(w, status, FailureResponse{Message: msg, Error: err.Error()})
}

// DecodeJSON reads and decodes a JSON request body into v.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	return json.NewDecoder(r.Body).Decode(v)
}
