// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package handlers contains the chi HTTP handlers of the service.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/loopnotes/meeting-ingest-service/internal/domain"
	"github.com/loopnotes/meeting-ingest-service/internal/logging"
)

// errorResponse is the JSON error body shared by all endpoints.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError maps a domain error to the HTTP status and error body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := "internal_error"
	status := http.StatusInternalServerError

	switch domain.GetErrorType(err) {
	case domain.ErrorTypeValidation:
		code, status = "validation_error", http.StatusBadRequest
	case domain.ErrorTypeUnauthorized:
		code, status = "unauthorized", http.StatusUnauthorized
	case domain.ErrorTypeNotFound:
		code, status = "not_found", http.StatusNotFound
	case domain.ErrorTypeConflict:
		code, status = "conflict", http.StatusConflict
	case domain.ErrorTypeUnavailable:
		code, status = "unavailable", http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", logging.ErrKey, err)
	}

	writeJSON(w, status, errorResponse{Error: code, Message: err.Error()})
}
