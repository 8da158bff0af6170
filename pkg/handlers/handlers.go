// Package handlers provides JSON response helpers shared by HTTP handlers.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error is the JSON body written for failed requests.
// Code is an application-level code and is omitted when zero.
type Error struct {
	Code  int    `json:"code,omitempty"`
	Error string `json:"error"`
}

// RespondJSON writes data as JSON with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError logs err and writes it as a JSON error body.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	RespondCode(w, logger, status, 0, err)
}

// RespondCode logs err and writes a JSON error body carrying an application code.
func RespondCode(w http.ResponseWriter, logger *slog.Logger, status, code int, err error) {
	RespondMessage(w, logger, status, code, err.Error(), err)
}

// RespondMessage logs err in full but sends only message to the client.
// Server errors are logged at error level, client errors at warn.
func RespondMessage(w http.ResponseWriter, logger *slog.Logger, status, code int, message string, err error) {
	if status >= http.StatusInternalServerError {
		logger.Error("handler error", "status", status, "code", code, "error", err)
	} else {
		logger.Warn("request rejected", "status", status, "code", code, "error", err)
	}
	RespondJSON(w, status, Error{Code: code, Error: message})
}
