package api

import "net/http"

// BadRequest writes a 400 error response.
func BadRequest(w http.ResponseWriter, msg string) {
	WriteMessage(w, http.StatusBadRequest, msg)
}

// NotFound writes a 404 error response.
func NotFound(w http.ResponseWriter, msg string) {
	WriteMessage(w, http.StatusNotFound, msg)
}

// MethodNotAllowed writes a 405 error response.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// TooLarge writes a 413 error response.
func TooLarge(w http.ResponseWriter, msg string) {
	WriteMessage(w, http.StatusRequestEntityTooLarge, msg)
}

// Internal writes a 500 error response. The message should describe the
// failure class only; details belong in the log, not the body.
func Internal(w http.ResponseWriter, msg string) {
	WriteMessage(w, http.StatusInternalServerError, msg)
}
