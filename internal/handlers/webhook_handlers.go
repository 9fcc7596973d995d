// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/loopnotes/meeting-ingest-service/internal/middleware"
	"github.com/loopnotes/meeting-ingest-service/internal/service"
	"github.com/loopnotes/meeting-ingest-service/pkg/constants"
	"github.com/loopnotes/meeting-ingest-service/pkg/utils"
)

// WebhookHandlers serves the vendor webhook endpoint.
type WebhookHandlers struct {
	webhookService *service.FathomWebhookService
}

// NewWebhookHandlers creates new webhook handlers.
func NewWebhookHandlers(webhookService *service.FathomWebhookService) *WebhookHandlers {
	return &WebhookHandlers{webhookService: webhookService}
}

type webhookAcceptedResponse struct {
	Status    string `json:"status"`
	WebhookID string `json:"webhook_id"`
	Message   string `json:"message"`
}

// HandleFathomWebhook handles POST /webhooks/fathom. The signature is
// verified against the raw captured body, and the delivery is
// acknowledged before any parsing happens.
func (h *WebhookHandlers) HandleFathomWebhook(w http.ResponseWriter, r *http.Request) {
	body, ok := middleware.GetRawBodyFromContext(r.Context())
	if !ok {
		// Fall back to reading directly if the capture middleware is not
		// in the chain.
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error: "invalid_body", Message: "failed to read request body",
			})
			return
		}
	}

	resp, err := h.webhookService.ProcessWebhook(r.Context(), service.WebhookRequest{
		Signature: r.Header.Get(constants.FathomSignatureHeader),
		RawBody:   body,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingSignature):
			writeJSON(w, http.StatusUnauthorized, errorResponse{
				Error: "missing_signature", Message: "webhook request has no signature header",
			})
		case errors.Is(err, service.ErrInvalidSignature):
			writeJSON(w, http.StatusUnauthorized, errorResponse{
				Error: "invalid_signature", Message: "webhook signature verification failed",
			})
		default:
			writeError(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, webhookAcceptedResponse{
		Status:    utils.StringValue(resp.Status),
		WebhookID: utils.StringValue(resp.WebhookID),
		Message:   utils.StringValue(resp.Message),
	})
}

type webhookHealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// HandleWebhookHealth handles GET /webhooks/fathom/health.
func (h *WebhookHandlers) HandleWebhookHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, webhookHealthResponse{
		Status:  "healthy",
		Service: "webhook",
		Version: "1.0",
	})
}
