// Package shared centralizes JSON response encoding and domain error
// translation so every handler produces the same envelopes.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	"acredita/pkg/domainerrors"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error    string `json:"error"`
	Message  string `json:"message,omitempty"`
	Critical bool   `json:"critical,omitempty"`
}

// WriteJSON encodes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// IsDomainError reports whether err carries a domain error code. Handlers use
// it to decide whether a failure deserves an error-level log line.
func IsDomainError(err error) bool {
	var de domainerrors.Error
	return errors.As(err, &de)
}

// WriteError translates domain errors to HTTP responses. Unrecognized errors
// collapse to an opaque 500; their detail belongs in logs, not responses.
func WriteError(w http.ResponseWriter, err error) {
	var de domainerrors.Error
	if !errors.As(err, &de) {
		WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Error: string(domainerrors.CodeInternal)})
		return
	}
	WriteJSON(w, domainerrors.ToHTTPStatus(de.Code), ErrorResponse{
		Error:    string(de.Code),
		Message:  de.Message,
		Critical: de.Critical,
	})
}
