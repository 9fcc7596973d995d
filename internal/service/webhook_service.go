// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/loopnotes/meeting-ingest-service/internal/domain"
	"github.com/loopnotes/meeting-ingest-service/internal/logging"
	"github.com/loopnotes/meeting-ingest-service/pkg/utils"
)

// Sentinel causes for webhook authentication failures, wrapped inside the
// returned domain errors so the HTTP layer can pick the right error code.
var (
	ErrMissingSignature = errors.New("missing webhook signature")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// FathomWebhookService handles Fathom webhook deliveries: it verifies the
// signature against the raw body, acknowledges immediately, and hands the
// payload to the dispatcher for asynchronous processing.
type FathomWebhookService struct {
	webhookValidator domain.WebhookVerifier
	dispatcher       domain.IngestDispatcher
	ingestionService *IngestionService
}

// WebhookRequest represents the webhook processing request
type WebhookRequest struct {
	Signature string
	RawBody   []byte
}

// WebhookResponse represents the webhook processing response
type WebhookResponse struct {
	Status    *string
	WebhookID *string
	Message   *string
}

// NewFathomWebhookService creates a new FathomWebhookService
func NewFathomWebhookService(
	webhookValidator domain.WebhookVerifier,
	dispatcher domain.IngestDispatcher,
	ingestionService *IngestionService,
) *FathomWebhookService {
	return &FathomWebhookService{
		webhookValidator: webhookValidator,
		dispatcher:       dispatcher,
		ingestionService: ingestionService,
	}
}

// ServiceReady checks if the service is ready to process requests
func (s *FathomWebhookService) ServiceReady() bool {
	return s.webhookValidator != nil && s.dispatcher != nil && s.ingestionService != nil
}

// ProcessWebhook verifies and schedules a webhook delivery. The response
// is produced before any payload parsing happens: receipt acknowledges
// authenticity, not validity.
func (s *FathomWebhookService) ProcessWebhook(ctx context.Context, req WebhookRequest) (*WebhookResponse, error) {
	if !s.webhookValidator.Disabled() {
		if req.Signature == "" {
			return nil, domain.NewUnauthorizedError("webhook request has no signature header", ErrMissingSignature)
		}
		if err := s.webhookValidator.VerifySignature(req.Signature, req.RawBody); err != nil {
			slog.WarnContext(ctx, "webhook signature verification failed", logging.ErrKey, err)
			return nil, domain.NewUnauthorizedError("webhook signature verification failed", ErrInvalidSignature)
		}
	} else {
		slog.WarnContext(ctx, "webhook signature verification is disabled, accepting request")
	}

	webhookID := uuid.New().String()
	ctx = logging.AppendCtx(ctx, slog.String("webhook_id", webhookID))

	// Probe the recording id without a full parse so the acknowledgment
	// log line can be correlated with the eventual processing logs.
	if recordingID := gjson.GetBytes(req.RawBody, "recording_id"); recordingID.Exists() {
		ctx = logging.AppendCtx(ctx, slog.String("external_recording_id", recordingID.String()))
	}

	body := make([]byte, len(req.RawBody))
	copy(body, req.RawBody)

	err := s.dispatcher.Submit(ctx, webhookID, func(jobCtx context.Context) {
		if err := s.ingestionService.ProcessWebhookBody(jobCtx, body); err != nil {
			// The polling reconciler is the recovery path for anything
			// dropped here.
			slog.ErrorContext(jobCtx, "webhook payload processing failed", logging.ErrKey, err)
		}
	})
	if err != nil {
		return nil, domain.NewUnavailableError("service is shutting down", err)
	}

	slog.InfoContext(ctx, "webhook accepted for processing")

	return &WebhookResponse{
		Status:    utils.StringPtr("received"),
		WebhookID: utils.StringPtr(webhookID),
		Message:   utils.StringPtr("webhook accepted for processing"),
	}, nil
}
