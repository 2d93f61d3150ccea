// Package api holds the JSON response helpers and HTTP middleware shared by
// all handlers.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// MessageResponse is the body of every non-streaming response: a
// human-readable message plus optional result fields.
type MessageResponse struct {
	Message string `json:"message"`
}

// WriteJSON serialises resp as JSON and writes it to w with the given HTTP
// status code.
func WriteJSON(w http.ResponseWriter, status int, resp interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// WriteMessage writes a bare {"message": ...} body.
func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, MessageResponse{Message: msg})
}
