// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

// ActionStatus is the lifecycle state of a pending action.
type ActionStatus string

const (
	// ActionStatusNew is the only state a pending action can be created in.
	ActionStatusNew ActionStatus = "NEW"
	// ActionStatusActive means a human approved the action.
	ActionStatusActive ActionStatus = "ACTIVE"
	// ActionStatusComplete is terminal: the action was carried out.
	ActionStatusComplete ActionStatus = "COMPLETE"
	// ActionStatusRejected is terminal: the action was declined.
	ActionStatusRejected ActionStatus = "REJECTED"
)

// ActionPriority is the internal priority vocabulary. Sync adapters map it
// onto each target system's own values.
type ActionPriority string

const (
	ActionPriorityLow    ActionPriority = "LOW"
	ActionPriorityMedium ActionPriority = "MEDIUM"
	ActionPriorityHigh   ActionPriority = "HIGH"
)

// PendingAction is a human-approvable unit of follow-up work extracted
// from a meeting's action items. It is created in state NEW, mutated only
// through the transition methods, and never touched by the sync layer
// except to record the external task id.
type PendingAction struct {
	UID             string         `json:"uid"`
	MeetingUID      string         `json:"meeting_uid"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Status          ActionStatus   `json:"status"`
	Priority        ActionPriority `json:"priority"`
	AssigneeUserUID string         `json:"assignee_user_uid,omitempty"`
	AssigneeEmail   string         `json:"assignee_email,omitempty"`
	AssigneeName    string         `json:"assignee_name,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	SyncTarget      string         `json:"sync_target,omitempty"`
	ExternalTaskID  string         `json:"external_task_id,omitempty"`
	SyncedAt        *time.Time     `json:"synced_at,omitempty"`
	ApprovedBy      string         `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time     `json:"approved_at,omitempty"`
	ApprovalNotes   string         `json:"approval_notes,omitempty"`
	RejectedBy      string         `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time     `json:"rejected_at,omitempty"`
	RejectionNotes  string         `json:"rejection_notes,omitempty"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	CompletionNotes string         `json:"completion_notes,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// InvalidTransitionError reports an attempted state transition that the
// lifecycle does not allow, naming the operation and the current status.
type InvalidTransitionError struct {
	Operation string
	Status    ActionStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s pending action in status %s", e.Operation, e.Status)
}

// Approve transitions NEW -> ACTIVE, stamping the approving actor.
func (a *PendingAction) Approve(actorUID, notes string) error {
	if a.Status != ActionStatusNew {
		return &InvalidTransitionError{Operation: "approve", Status: a.Status}
	}

	now := time.Now().UTC()
	a.Status = ActionStatusActive
	a.ApprovedBy = actorUID
	a.ApprovedAt = &now
	a.ApprovalNotes = notes
	a.UpdatedAt = now
	return nil
}

// Reject transitions NEW -> REJECTED or ACTIVE -> REJECTED, stamping the
// rejecting actor. Approval metadata from a prior approve is kept.
func (a *PendingAction) Reject(actorUID, notes string) error {
	if a.Status != ActionStatusNew && a.Status != ActionStatusActive {
		return &InvalidTransitionError{Operation: "reject", Status: a.Status}
	}

	now := time.Now().UTC()
	a.Status = ActionStatusRejected
	a.RejectedBy = actorUID
	a.RejectedAt = &now
	a.RejectionNotes = notes
	a.UpdatedAt = now
	return nil
}

// Complete transitions ACTIVE -> COMPLETE.
func (a *PendingAction) Complete(notes string) error {
	if a.Status != ActionStatusActive {
		return &InvalidTransitionError{Operation: "complete", Status: a.Status}
	}

	now := time.Now().UTC()
	a.Status = ActionStatusComplete
	a.CompletedAt = &now
	a.CompletionNotes = notes
	a.UpdatedAt = now
	return nil
}

// MarkSynced records a successful sync result. A stored external task id
// is never overwritten by a later result, so a failed retry can't erase a
// prior success.
func (a *PendingAction) MarkSynced(target, externalTaskID string) {
	if a.ExternalTaskID != "" {
		return
	}

	now := time.Now().UTC()
	a.SyncTarget = target
	a.ExternalTaskID = externalTaskID
	a.SyncedAt = &now
	a.UpdatedAt = now
}

// DedupDigest returns a stable digest of the action description, used to
// build the (meeting, description) dedup index key so that re-extraction
// on a merged event doesn't duplicate actions.
func DedupDigest(description string) string {
	normalized := strings.ToLower(strings.TrimSpace(description))
	sum := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", sum[:16])
}
