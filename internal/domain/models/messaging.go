// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"time"
)

// NATS subjects for ingest lifecycle messages.
const (
	MeetingIngestedSubject = "loopnotes.meeting.ingested"
	ActionCreatedSubject   = "loopnotes.action.created"
	ActionSyncedSubject    = "loopnotes.action.synced"
)

// MeetingIngestedMessage announces that a meeting was created or merged.
// Envelopes are msgpack-encoded on the wire.
type MeetingIngestedMessage struct {
	MeetingUID          string        `msgpack:"meeting_uid"`
	ExternalRecordingID string        `msgpack:"external_recording_id"`
	Source              MeetingSource `msgpack:"source"`
	Created             bool          `msgpack:"created"`
	ActionItemCount     int           `msgpack:"action_item_count"`
	OccurredAt          time.Time     `msgpack:"occurred_at"`
}

// ActionCreatedMessage announces a new pending action awaiting approval.
type ActionCreatedMessage struct {
	ActionUID  string    `msgpack:"action_uid"`
	MeetingUID string    `msgpack:"meeting_uid"`
	Title      string    `msgpack:"title"`
	OccurredAt time.Time `msgpack:"occurred_at"`
}

// ActionSyncedMessage announces that an approved action reached an
// external task system.
type ActionSyncedMessage struct {
	ActionUID      string    `msgpack:"action_uid"`
	MeetingUID     string    `msgpack:"meeting_uid"`
	Target         string    `msgpack:"target"`
	ExternalTaskID string    `msgpack:"external_task_id"`
	OccurredAt     time.Time `msgpack:"occurred_at"`
}
