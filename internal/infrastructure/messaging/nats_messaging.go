// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package messaging publishes ingest lifecycle messages to NATS.
package messaging

import (
	"context"
	"log/slog"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/loopnotes/meeting-ingest-service/internal/domain"
	"github.com/loopnotes/meeting-ingest-service/internal/domain/models"
	"github.com/loopnotes/meeting-ingest-service/internal/logging"
)

// INatsConn is the NATS connection interface needed by the publisher.
type INatsConn interface {
	IsConnected() bool
	Publish(subj string, data []byte) error
}

// MessageBuilder encodes lifecycle messages and sends them to NATS.
// Envelopes are msgpack-encoded; publishing is fire-and-forget for the
// callers, who only log failures.
type MessageBuilder struct {
	NatsConn INatsConn
}

// NewMessageBuilder creates a new MessageBuilder.
func NewMessageBuilder(natsConn INatsConn) *MessageBuilder {
	return &MessageBuilder{
		NatsConn: natsConn,
	}
}

func (m *MessageBuilder) sendMessage(ctx context.Context, subject string, message any) error {
	data, err := msgpack.Marshal(message)
	if err != nil {
		slog.ErrorContext(ctx, "error encoding message", logging.ErrKey, err, "subject", subject)
		return err
	}

	if err := m.NatsConn.Publish(subject, data); err != nil {
		slog.ErrorContext(ctx, "error sending message to NATS", logging.ErrKey, err, "subject", subject)
		return err
	}

	slog.DebugContext(ctx, "sent message to NATS", "subject", subject)
	return nil
}

// PublishMeetingIngested announces a created or merged meeting.
func (m *MessageBuilder) PublishMeetingIngested(ctx context.Context, msg models.MeetingIngestedMessage) error {
	return m.sendMessage(ctx, models.MeetingIngestedSubject, msg)
}

// PublishActionCreated announces a new pending action.
func (m *MessageBuilder) PublishActionCreated(ctx context.Context, msg models.ActionCreatedMessage) error {
	return m.sendMessage(ctx, models.ActionCreatedSubject, msg)
}

// PublishActionSynced announces a successful external sync.
func (m *MessageBuilder) PublishActionSynced(ctx context.Context, msg models.ActionSyncedMessage) error {
	return m.sendMessage(ctx, models.ActionSyncedSubject, msg)
}

var _ domain.MessagePublisher = (*MessageBuilder)(nil)
