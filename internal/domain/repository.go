// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"
	"time"

	"github.com/loopnotes/meeting-ingest-service/internal/domain/models"
)

// MeetingRepository persists meeting aggregates. The external recording id
// is the idempotency key: ReserveExternalID is the uniqueness constraint
// that makes concurrent webhook/poller creation for the same recording safe.
type MeetingRepository interface {
	Get(ctx context.Context, meetingUID string) (*models.Meeting, error)
	GetWithRevision(ctx context.Context, meetingUID string) (*models.Meeting, uint64, error)
	GetByExternalRecordingID(ctx context.Context, externalRecordingID string) (*models.Meeting, error)

	// ReserveExternalID atomically claims the external recording id for the
	// given meeting UID. It returns a conflict error if another process
	// already claimed it, in which case the caller must fetch-and-merge.
	ReserveExternalID(ctx context.Context, externalRecordingID, meetingUID string) error

	// ReleaseExternalID drops the claim on an external recording id so the
	// recording can be claimed again. Releasing an unclaimed id is not an
	// error.
	ReleaseExternalID(ctx context.Context, externalRecordingID string) error

	Create(ctx context.Context, meeting *models.Meeting) error
	Update(ctx context.Context, meeting *models.Meeting, revision uint64) error
}

// PendingActionRepository persists pending actions in a document-style
// store keyed by generated UID, with secondary indices for retrieval.
type PendingActionRepository interface {
	Get(ctx context.Context, actionUID string) (*models.PendingAction, error)
	GetWithRevision(ctx context.Context, actionUID string) (*models.PendingAction, uint64, error)
	ListByMeeting(ctx context.Context, meetingUID string) ([]*models.PendingAction, error)

	// ReserveDedupKey atomically claims the (meeting, description digest)
	// pair so re-extraction on a merged event doesn't duplicate actions.
	// It returns a conflict error when the pair is already claimed.
	ReserveDedupKey(ctx context.Context, meetingUID, dedupDigest string) error

	// ReleaseDedupKey drops a dedup claim so the item can be extracted
	// again. Releasing an unclaimed pair is not an error.
	ReleaseDedupKey(ctx context.Context, meetingUID, dedupDigest string) error

	Create(ctx context.Context, action *models.PendingAction) error
	Update(ctx context.Context, action *models.PendingAction, revision uint64) error
}

// UserRepository resolves known users by email and owns the fallback
// organizer identity.
type UserRepository interface {
	Get(ctx context.Context, userUID string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// EnsureFallbackOrganizer creates the default organizer identity if it
	// doesn't exist yet and returns it. Concurrent callers get the same record.
	EnsureFallbackOrganizer(ctx context.Context, organizationUID string) (*models.User, error)
}

// PollState is the persisted watermark of the polling reconciler.
type PollState struct {
	LastPolledAt time.Time `json:"last_polled_at"`
}

// PollStateRepository persists the poll watermark. The watermark only
// advances after a completed cycle so a transient fetch error retries the
// same window next cycle.
type PollStateRepository interface {
	Get(ctx context.Context) (*PollState, error)
	Set(ctx context.Context, state *PollState) error
}
