// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"time"
)

// MeetingSource indicates which ingestion path created the meeting record.
type MeetingSource string

const (
	// SourceWebhook marks meetings created from a vendor webhook delivery.
	SourceWebhook MeetingSource = "WEBHOOK"
	// SourceAPIPoll marks meetings created by the polling reconciler.
	SourceAPIPoll MeetingSource = "API_POLL"
)

// MeetingType classifies a meeting by its invitee domains.
type MeetingType string

const (
	// MeetingTypeInternal means every invitee belongs to the organizer's domain.
	MeetingTypeInternal MeetingType = "internal"
	// MeetingTypeExternal means at least one invitee is from another domain.
	MeetingTypeExternal MeetingType = "external"
)

// AttendanceStatus captures whether a participant was observed in the recording.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceUnknown AttendanceStatus = "unknown"
)

// InvitationStatus captures the participant's invitation response.
type InvitationStatus string

const (
	InvitationAccepted InvitationStatus = "accepted"
	InvitationUnknown  InvitationStatus = "unknown"
)

// Meeting is the durable aggregate for an ingested meeting recording.
// ExternalRecordingID is the vendor's recording identifier and is the
// idempotency key for the whole ingestion path: re-processing the same
// recording never creates a second Meeting.
type Meeting struct {
	UID                 string        `json:"uid"`
	Title               string        `json:"title"`
	ExternalRecordingID string        `json:"external_recording_id"`
	Source              MeetingSource `json:"source"`
	MeetingType         MeetingType   `json:"meeting_type,omitempty"`
	ScheduledStartTime  *time.Time    `json:"scheduled_start_time,omitempty"`
	ScheduledEndTime    *time.Time    `json:"scheduled_end_time,omitempty"`
	RecordingStartTime  *time.Time    `json:"recording_start_time,omitempty"`
	RecordingEndTime    *time.Time    `json:"recording_end_time,omitempty"`
	RecordingURL        string        `json:"recording_url,omitempty"`
	ShareURL            string        `json:"share_url,omitempty"`
	Summary             string        `json:"summary,omitempty"`
	TranscriptURL       string        `json:"transcript_url,omitempty"`
	OrganizerUID        string        `json:"organizer_uid"`
	OrganizationUID     string        `json:"organization_uid"`
	Participants        []Participant `json:"participants,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// Participant is a meeting attendee. UserUID is empty for external
// attendees that don't match any known user.
type Participant struct {
	Email            string           `json:"email"`
	DisplayName      string           `json:"display_name,omitempty"`
	UserUID          string           `json:"user_uid,omitempty"`
	External         bool             `json:"external"`
	AttendanceStatus AttendanceStatus `json:"attendance_status"`
	InvitationStatus InvitationStatus `json:"invitation_status"`
}

// MergeEvent folds newly available fields from a re-delivered event into
// the stored meeting. Already-populated fields are left untouched and
// participants are never recreated on merge. It reports whether anything
// changed so callers can skip a no-op write.
func (m *Meeting) MergeEvent(event *MeetingEvent) bool {
	changed := false

	if m.Title == "" && event.Title != "" {
		m.Title = event.Title
		changed = true
	}
	if m.Summary == "" && event.Summary != "" {
		m.Summary = event.Summary
		changed = true
	}
	if m.TranscriptURL == "" && event.TranscriptURL != "" {
		m.TranscriptURL = event.TranscriptURL
		changed = true
	}
	if m.RecordingURL == "" && event.RecordingURL != "" {
		m.RecordingURL = event.RecordingURL
		changed = true
	}
	if m.ShareURL == "" && event.ShareURL != "" {
		m.ShareURL = event.ShareURL
		changed = true
	}
	if m.MeetingType == "" && event.MeetingType != "" {
		m.MeetingType = event.MeetingType
		changed = true
	}
	if m.ScheduledStartTime == nil && event.ScheduledStartTime != nil {
		m.ScheduledStartTime = event.ScheduledStartTime
		changed = true
	}
	if m.ScheduledEndTime == nil && event.ScheduledEndTime != nil {
		m.ScheduledEndTime = event.ScheduledEndTime
		changed = true
	}
	if m.RecordingStartTime == nil && event.RecordingStartTime != nil {
		m.RecordingStartTime = event.RecordingStartTime
		changed = true
	}
	if m.RecordingEndTime == nil && event.RecordingEndTime != nil {
		m.RecordingEndTime = event.RecordingEndTime
		changed = true
	}

	return changed
}
