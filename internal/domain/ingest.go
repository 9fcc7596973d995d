// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"
	"time"

	"github.com/loopnotes/meeting-ingest-service/internal/domain/models"
)

// WebhookVerifier authenticates inbound webhook deliveries against the
// raw, unparsed body bytes.
type WebhookVerifier interface {
	// VerifySignature checks the vendor signature header against the raw
	// body. It fails closed on malformed headers and unknown versions.
	VerifySignature(signatureHeader string, body []byte) error

	// Disabled reports whether verification was explicitly turned off
	// (no secret configured). Never treated as "always valid" silently.
	Disabled() bool
}

// IngestDispatcher schedules webhook payload processing off the request
// path. Each submission results in exactly one processing attempt;
// failures are logged and swallowed, with the polling reconciler as the
// recovery backstop.
type IngestDispatcher interface {
	Submit(ctx context.Context, webhookID string, job func(ctx context.Context)) error
}

// RecordingLister is the vendor's query API used by the polling
// reconciler as a backstop for dropped webhooks.
type RecordingLister interface {
	// ListRecordings returns recording payloads created since the watermark.
	ListRecordings(ctx context.Context, since time.Time) ([]*models.FathomWebhookPayload, error)
}

// MessagePublisher publishes ingest lifecycle messages for downstream
// services. Publishing is fire-and-forget; failures are logged only.
type MessagePublisher interface {
	PublishMeetingIngested(ctx context.Context, msg models.MeetingIngestedMessage) error
	PublishActionCreated(ctx context.Context, msg models.ActionCreatedMessage) error
	PublishActionSynced(ctx context.Context, msg models.ActionSyncedMessage) error
}
