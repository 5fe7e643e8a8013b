// Package httpx provides JSON response and request helpers shared by all
// HTTP handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// MessageBody is the uniform envelope for status and error responses.
type MessageBody struct {
	Message string `json:"message"`
}

// JSON writes data as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Message writes a `{message}` body with the given status code.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, MessageBody{Message: msg})
}

// DecodeJSON decodes the request body into target. Empty and malformed
// bodies are reported as validation errors so handlers answer 400, not 500.
func DecodeJSON(r *http.Request, target any) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return Validation("request body is required")
		}
		return Validationf("invalid request body: %v", err)
	}
	return nil
}
