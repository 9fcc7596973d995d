// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"time"
)

// MeetingEvent is the canonical, vendor-neutral shape of a recording
// event. It is transient: produced by the normalizer, consumed by the
// upsert/extraction path, and discarded.
type MeetingEvent struct {
	ExternalRecordingID string
	Title               string
	MeetingType         MeetingType
	ScheduledStartTime  *time.Time
	ScheduledEndTime    *time.Time
	RecordingStartTime  *time.Time
	RecordingEndTime    *time.Time
	RecordingURL        string
	ShareURL            string
	Summary             string
	TranscriptURL       string
	OrganizerEmail      string
	Invitees            []EventInvitee
	ActionItems         []EventActionItem
	CRMMatches          *CRMMatches
}

// EventInvitee is a calendar invitee as reported by the vendor.
type EventInvitee struct {
	Email          string
	Name           string
	External       bool
	MatchedSpeaker bool
}

// EventActionItem is a raw action item extracted by the vendor from the
// recording, before it becomes a durable PendingAction.
type EventActionItem struct {
	Description        string
	AssigneeName       string
	AssigneeEmail      string
	PlaybackURL        string
	RecordingTimestamp string
}

// CRMMatches carries the vendor's CRM entity matches for the meeting, or
// an error marker when the vendor's CRM lookup failed.
type CRMMatches struct {
	Contacts  []CRMContact `json:"contacts,omitempty" mapstructure:"contacts"`
	Companies []CRMCompany `json:"companies,omitempty" mapstructure:"companies"`
	Deals     []CRMDeal    `json:"deals,omitempty" mapstructure:"deals"`
	Error     string       `json:"error,omitempty" mapstructure:"error"`
}

// CRMContact is a matched CRM contact.
type CRMContact struct {
	ID    string `json:"id,omitempty" mapstructure:"id"`
	Name  string `json:"name,omitempty" mapstructure:"name"`
	Email string `json:"email,omitempty" mapstructure:"email"`
}

// CRMCompany is a matched CRM company.
type CRMCompany struct {
	ID     string `json:"id,omitempty" mapstructure:"id"`
	Name   string `json:"name,omitempty" mapstructure:"name"`
	Domain string `json:"domain,omitempty" mapstructure:"domain"`
}

// CRMDeal is a matched CRM deal.
type CRMDeal struct {
	ID    string `json:"id,omitempty" mapstructure:"id"`
	Name  string `json:"name,omitempty" mapstructure:"name"`
	Stage string `json:"stage,omitempty" mapstructure:"stage"`
}

// Attendance derives the attendance/invitation pair for an invitee. A
// matched speaker label means the vendor observed the person talking in
// the recording, so they were present and had accepted the invite.
func (i EventInvitee) Attendance() (AttendanceStatus, InvitationStatus) {
	if i.MatchedSpeaker {
		return AttendancePresent, InvitationAccepted
	}
	return AttendanceUnknown, InvitationUnknown
}
