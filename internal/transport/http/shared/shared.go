// Package shared holds the JSON response helpers every handler uses so
// error envelopes stay consistent across the API.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "hemolink/pkg/domain-errors"
)

// errorResponse is the JSON envelope for all error responses.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes v with the given status. Encoding failures are dropped;
// by then the status line is already on the wire.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into its HTTP status and envelope.
// Internal errors keep their detail out of the response body.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	message := ""
	var de *dErrors.Error
	if errors.As(err, &de) && code != dErrors.CodeInternal {
		message = de.Message
	}
	WriteJSON(w, dErrors.HTTPStatus(code), errorResponse{
		Error:   string(code),
		Message: message,
	})
}
