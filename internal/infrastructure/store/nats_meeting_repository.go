// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/loopnotes/meeting-ingest-service/internal/domain"
	"github.com/loopnotes/meeting-ingest-service/internal/domain/models"
)

// NatsMeetingRepository is the NATS KV store repository for meetings.
// The aggregate lives under its UID; the external recording id lives in a
// separate index entry created with kv.Create, which is what enforces the
// one-meeting-per-recording invariant under concurrent writers.
type NatsMeetingRepository struct {
	*NatsBaseRepository[models.Meeting]
}

// NewNatsMeetingRepository creates a new NATS KV store repository for meetings.
func NewNatsMeetingRepository(kvStore INatsKeyValue) *NatsMeetingRepository {
	return &NatsMeetingRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.Meeting](kvStore, "meeting"),
	}
}

// Get retrieves a meeting by UID.
func (r *NatsMeetingRepository) Get(ctx context.Context, meetingUID string) (*models.Meeting, error) {
	return r.NatsBaseRepository.Get(ctx, meetingUID)
}

// GetWithRevision retrieves a meeting and its KV revision by UID.
func (r *NatsMeetingRepository) GetWithRevision(ctx context.Context, meetingUID string) (*models.Meeting, uint64, error) {
	return r.NatsBaseRepository.GetWithRevision(ctx, meetingUID)
}

// GetByExternalRecordingID resolves the recording index entry and loads
// the referenced meeting.
func (r *NatsMeetingRepository) GetByExternalRecordingID(ctx context.Context, externalRecordingID string) (*models.Meeting, error) {
	value, err := r.GetRawValue(ctx, RecordingIndexKey(externalRecordingID))
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return nil, domain.NewNotFoundError(
				fmt.Sprintf("no meeting for external recording id '%s'", externalRecordingID), err)
		}
		return nil, err
	}

	return r.NatsBaseRepository.Get(ctx, string(value))
}

// ReserveExternalID atomically claims the external recording id for the
// given meeting UID. A conflict error means another process won the race
// and the caller must fetch-and-merge instead of creating.
func (r *NatsMeetingRepository) ReserveExternalID(ctx context.Context, externalRecordingID, meetingUID string) error {
	return r.CreateOnlyRaw(ctx, RecordingIndexKey(externalRecordingID), []byte(meetingUID))
}

// ReleaseExternalID drops the recording index entry. The ingestion
// service calls this when the meeting create behind a fresh claim fails,
// so the recording id is never left pointing at a meeting that was never
// stored.
func (r *NatsMeetingRepository) ReleaseExternalID(ctx context.Context, externalRecordingID string) error {
	return r.DeleteKey(ctx, RecordingIndexKey(externalRecordingID))
}

// Create stores a new meeting aggregate.
func (r *NatsMeetingRepository) Create(ctx context.Context, meeting *models.Meeting) error {
	if meeting.UID == "" {
		meeting.UID = uuid.New().String()
	}

	now := time.Now().UTC()
	meeting.CreatedAt = now
	meeting.UpdatedAt = now

	return r.CreateOnly(ctx, meeting.UID, meeting)
}

// Update updates a meeting with optimistic concurrency control.
func (r *NatsMeetingRepository) Update(ctx context.Context, meeting *models.Meeting, revision uint64) error {
	meeting.UpdatedAt = time.Now().UTC()
	return r.NatsBaseRepository.Update(ctx, meeting.UID, meeting, revision)
}

var _ domain.MeetingRepository = (*NatsMeetingRepository)(nil)
