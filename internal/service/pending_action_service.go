// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/loopnotes/meeting-ingest-service/internal/domain"
	"github.com/loopnotes/meeting-ingest-service/internal/domain/models"
	"github.com/loopnotes/meeting-ingest-service/internal/logging"
)

// defaultSyncTimeout bounds a single external sync attempt.
const defaultSyncTimeout = 30 * time.Second

// PendingActionService drives the approval lifecycle of pending actions
// and pushes approved actions to external task systems.
type PendingActionService struct {
	pendingActionRepository domain.PendingActionRepository
	syncRegistry            domain.TaskSyncRegistry
	messageBuilder          domain.MessagePublisher
	syncTimeout             time.Duration
}

// NewPendingActionService creates a new PendingActionService.
func NewPendingActionService(
	pendingActionRepository domain.PendingActionRepository,
	syncRegistry domain.TaskSyncRegistry,
	messageBuilder domain.MessagePublisher,
) *PendingActionService {
	return &PendingActionService{
		pendingActionRepository: pendingActionRepository,
		syncRegistry:            syncRegistry,
		messageBuilder:          messageBuilder,
		syncTimeout:             defaultSyncTimeout,
	}
}

// ServiceReady checks if the service is ready to process requests
func (s *PendingActionService) ServiceReady() bool {
	return s.pendingActionRepository != nil && s.syncRegistry != nil && s.messageBuilder != nil
}

// GetPendingAction retrieves a pending action by UID.
func (s *PendingActionService) GetPendingAction(ctx context.Context, actionUID string) (*models.PendingAction, error) {
	return s.pendingActionRepository.Get(ctx, actionUID)
}

// ListByMeeting lists all pending actions extracted from a meeting.
func (s *PendingActionService) ListByMeeting(ctx context.Context, meetingUID string) ([]*models.PendingAction, error) {
	return s.pendingActionRepository.ListByMeeting(ctx, meetingUID)
}

// ApproveAction transitions a NEW action to ACTIVE on behalf of the actor.
func (s *PendingActionService) ApproveAction(ctx context.Context, actionUID, actorUID, notes string) (*models.PendingAction, error) {
	return s.transition(ctx, actionUID, func(action *models.PendingAction) error {
		return action.Approve(actorUID, notes)
	})
}

// RejectAction transitions a NEW or ACTIVE action to REJECTED on behalf
// of the actor.
func (s *PendingActionService) RejectAction(ctx context.Context, actionUID, actorUID, notes string) (*models.PendingAction, error) {
	return s.transition(ctx, actionUID, func(action *models.PendingAction) error {
		return action.Reject(actorUID, notes)
	})
}

// CompleteAction transitions an ACTIVE action to COMPLETE.
func (s *PendingActionService) CompleteAction(ctx context.Context, actionUID, notes string) (*models.PendingAction, error) {
	return s.transition(ctx, actionUID, func(action *models.PendingAction) error {
		return action.Complete(notes)
	})
}

// transition loads the action, applies the state change, and writes it
// back under the loaded revision. A lifecycle violation surfaces as a
// conflict so concurrent approvers get a meaningful answer.
func (s *PendingActionService) transition(ctx context.Context, actionUID string, apply func(*models.PendingAction) error) (*models.PendingAction, error) {
	action, revision, err := s.pendingActionRepository.GetWithRevision(ctx, actionUID)
	if err != nil {
		return nil, err
	}

	if err := apply(action); err != nil {
		var transitionErr *models.InvalidTransitionError
		if errors.As(err, &transitionErr) {
			return nil, domain.NewConflictError(transitionErr.Error(), err)
		}
		return nil, err
	}

	if err := s.pendingActionRepository.Update(ctx, action, revision); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "pending action transitioned",
		"action_uid", action.UID, "status", action.Status)

	return action, nil
}

// SyncAction pushes an approved action to the named external target and
// records the resulting external task id. The call is idempotent: an
// action that already carries an external task id is returned as-is
// without touching the target again.
func (s *PendingActionService) SyncAction(ctx context.Context, actionUID, target string) (*models.PendingAction, error) {
	action, revision, err := s.pendingActionRepository.GetWithRevision(ctx, actionUID)
	if err != nil {
		return nil, err
	}

	if action.ExternalTaskID != "" {
		slog.InfoContext(ctx, "pending action already synced",
			"action_uid", action.UID, "external_task_id", action.ExternalTaskID, "target", action.SyncTarget)
		return action, nil
	}

	if action.Status != models.ActionStatusActive {
		return nil, domain.NewConflictError(
			fmt.Sprintf("cannot sync pending action in status %s", action.Status))
	}

	provider, err := s.syncRegistry.GetProvider(target)
	if err != nil {
		return nil, err
	}

	syncCtx, cancel := context.WithTimeout(ctx, s.syncTimeout)
	defer cancel()

	externalTaskID, err := provider.CreateTask(syncCtx, action)
	if err != nil {
		slog.ErrorContext(ctx, "external task sync failed", logging.ErrKey, err,
			"action_uid", action.UID, "target", target)
		return nil, err
	}

	action.MarkSynced(target, externalTaskID)
	if err := s.pendingActionRepository.Update(ctx, action, revision); err != nil {
		// The external task exists but the record write failed. The next
		// sync attempt is a no-op on the target only if this write
		// eventually lands, so surface loudly.
		slog.ErrorContext(ctx, "failed to record sync result", logging.ErrKey, err,
			"action_uid", action.UID, "external_task_id", externalTaskID)
		return nil, err
	}

	msg := models.ActionSyncedMessage{
		ActionUID:      action.UID,
		MeetingUID:     action.MeetingUID,
		Target:         target,
		ExternalTaskID: externalTaskID,
		OccurredAt:     time.Now().UTC(),
	}
	if err := s.messageBuilder.PublishActionSynced(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "failed to publish action synced message", logging.ErrKey, err)
	}

	slog.InfoContext(ctx, "synced pending action to external target",
		"action_uid", action.UID, "target", target, "external_task_id", externalTaskID)

	return action, nil
}
