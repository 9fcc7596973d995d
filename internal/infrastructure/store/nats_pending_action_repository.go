// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/loopnotes/meeting-ingest-service/internal/domain"
	"github.com/loopnotes/meeting-ingest-service/internal/domain/models"
	"github.com/loopnotes/meeting-ingest-service/internal/logging"
)

// NatsPendingActionRepository is the NATS KV store repository for pending
// actions. Actions are keyed by generated UID with a per-meeting index and
// a (meeting, description digest) dedup index.
type NatsPendingActionRepository struct {
	*NatsBaseRepository[models.PendingAction]
}

// NewNatsPendingActionRepository creates a new NATS KV store repository for pending actions.
func NewNatsPendingActionRepository(kvStore INatsKeyValue) *NatsPendingActionRepository {
	return &NatsPendingActionRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.PendingAction](kvStore, "pending action"),
	}
}

// Get retrieves a pending action by UID.
func (r *NatsPendingActionRepository) Get(ctx context.Context, actionUID string) (*models.PendingAction, error) {
	return r.NatsBaseRepository.Get(ctx, actionUID)
}

// GetWithRevision retrieves a pending action and its KV revision by UID.
func (r *NatsPendingActionRepository) GetWithRevision(ctx context.Context, actionUID string) (*models.PendingAction, uint64, error) {
	return r.NatsBaseRepository.GetWithRevision(ctx, actionUID)
}

// ListByMeeting returns all pending actions extracted from the given meeting.
func (r *NatsPendingActionRepository) ListByMeeting(ctx context.Context, meetingUID string) ([]*models.PendingAction, error) {
	prefix := MeetingActionIndexPrefix(meetingUID)
	keys, err := r.ListKeysWithPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var actions []*models.PendingAction
	for _, key := range keys {
		actionUID := strings.TrimPrefix(key, prefix)
		action, err := r.NatsBaseRepository.Get(ctx, actionUID)
		if err != nil {
			// Skip dangling index entries but keep listing.
			slog.WarnContext(ctx, "failed to load indexed pending action, skipping",
				"action_uid", actionUID, logging.ErrKey, err)
			continue
		}
		actions = append(actions, action)
	}

	return actions, nil
}

// ReserveDedupKey atomically claims the (meeting, description digest)
// pair. A conflict error means the same action item was already extracted.
func (r *NatsPendingActionRepository) ReserveDedupKey(ctx context.Context, meetingUID, dedupDigest string) error {
	return r.CreateOnlyRaw(ctx, DedupKey(meetingUID, dedupDigest), []byte{})
}

// ReleaseDedupKey drops a dedup claim. Used when the action create
// behind a fresh claim fails, so the item stays extractable.
func (r *NatsPendingActionRepository) ReleaseDedupKey(ctx context.Context, meetingUID, dedupDigest string) error {
	return r.DeleteKey(ctx, DedupKey(meetingUID, dedupDigest))
}

// Create stores a new pending action and its per-meeting index entry.
func (r *NatsPendingActionRepository) Create(ctx context.Context, action *models.PendingAction) error {
	if action.UID == "" {
		action.UID = uuid.New().String()
	}

	now := time.Now().UTC()
	action.CreatedAt = now
	action.UpdatedAt = now

	if err := r.CreateOnly(ctx, action.UID, action); err != nil {
		return err
	}

	if err := r.PutIndex(ctx, MeetingActionIndexKey(action.MeetingUID, action.UID), []byte{}); err != nil {
		// The action exists; a missing index only degrades listing.
		slog.ErrorContext(ctx, "failed to index pending action by meeting",
			"action_uid", action.UID, "meeting_uid", action.MeetingUID, logging.ErrKey, err)
	}

	return nil
}

// Update updates a pending action with optimistic concurrency control.
func (r *NatsPendingActionRepository) Update(ctx context.Context, action *models.PendingAction, revision uint64) error {
	action.UpdatedAt = time.Now().UTC()
	return r.NatsBaseRepository.Update(ctx, action.UID, action, revision)
}

var _ domain.PendingActionRepository = (*NatsPendingActionRepository)(nil)
