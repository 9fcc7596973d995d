// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFathomWebhookPayload_ToMeetingEvent(t *testing.T) {
	payload := &FathomWebhookPayload{
		Title:                     "Q3 planning",
		RecordingID:               json.Number("123456"),
		ScheduledStartTime:        "2026-08-20T14:00:00Z",
		RecordingStartTime:        "2026-08-20T14:02:10Z",
		URL:                       "https://fathom.video/calls/123456",
		ShareURL:                  "https://fathom.video/share/abc",
		TranscriptURL:             "https://fathom.video/calls/123456/transcript",
		CalendarInviteeDomainType: "one_external",
		DefaultSummary:            &FathomSummary{MarkdownFormatted: "## Summary"},
		FathomUser:                &FathomUser{Name: "Ana Example", Email: "ana@acme.test"},
		CalendarInvitees: []FathomInvitee{
			{Email: "ana@acme.test", Name: "Ana Example", MatchedSpeakerDisplayName: "Ana"},
			{Email: "bob@other.test", Name: "Bob Other", IsExternal: true},
		},
		ActionItems: []FathomActionItem{
			{
				Description:          "Send the proposal",
				Assignee:             &FathomAssignee{Name: "Ana Example", Email: "ana@acme.test"},
				RecordingPlaybackURL: "https://fathom.video/calls/123456?timestamp=65",
				RecordingTimestamp:   "00:01:05",
			},
		},
	}

	event, err := payload.ToMeetingEvent()
	require.NoError(t, err)

	assert.Equal(t, "123456", event.ExternalRecordingID)
	assert.Equal(t, "Q3 planning", event.Title)
	assert.Equal(t, MeetingTypeExternal, event.MeetingType)
	assert.Equal(t, "## Summary", event.Summary)
	assert.Equal(t, "ana@acme.test", event.OrganizerEmail)

	require.NotNil(t, event.ScheduledStartTime)
	assert.Equal(t, time.Date(2026, 8, 20, 14, 0, 0, 0, time.UTC), event.ScheduledStartTime.UTC())
	assert.Nil(t, event.ScheduledEndTime)

	require.Len(t, event.Invitees, 2)
	assert.True(t, event.Invitees[0].MatchedSpeaker)
	assert.False(t, event.Invitees[0].External)
	assert.False(t, event.Invitees[1].MatchedSpeaker)
	assert.True(t, event.Invitees[1].External)

	require.Len(t, event.ActionItems, 1)
	assert.Equal(t, "Send the proposal", event.ActionItems[0].Description)
	assert.Equal(t, "ana@acme.test", event.ActionItems[0].AssigneeEmail)
	assert.Equal(t, "00:01:05", event.ActionItems[0].RecordingTimestamp)
}

func TestFathomWebhookPayload_ToMeetingEvent_MissingRecordingID(t *testing.T) {
	payload := &FathomWebhookPayload{Title: "no id"}

	event, err := payload.ToMeetingEvent()

	require.Error(t, err)
	assert.Nil(t, event)
	assert.Contains(t, err.Error(), "recording_id")
}

func TestFathomWebhookPayload_ToMeetingEvent_UnparseableTimes(t *testing.T) {
	payload := &FathomWebhookPayload{
		RecordingID:        json.Number("7"),
		ScheduledStartTime: "not-a-time",
		RecordingEndTime:   "",
	}

	event, err := payload.ToMeetingEvent()
	require.NoError(t, err)

	assert.Nil(t, event.ScheduledStartTime)
	assert.Nil(t, event.RecordingEndTime)
}

func TestFathomWebhookPayload_CRMMatches(t *testing.T) {
	t.Run("decodes matched entities", func(t *testing.T) {
		payload := &FathomWebhookPayload{
			RecordingID: json.Number("9"),
			CRMMatches: map[string]any{
				"contacts": []any{
					map[string]any{"id": "c-1", "name": "Bob Other", "email": "bob@other.test"},
				},
				"companies": []any{
					map[string]any{"id": "co-1", "name": "Other Inc", "domain": "other.test"},
				},
				"deals": []any{
					map[string]any{"id": "d-1", "name": "Renewal", "stage": "negotiation"},
				},
			},
		}

		event, err := payload.ToMeetingEvent()
		require.NoError(t, err)
		require.NotNil(t, event.CRMMatches)

		require.Len(t, event.CRMMatches.Contacts, 1)
		assert.Equal(t, "bob@other.test", event.CRMMatches.Contacts[0].Email)
		require.Len(t, event.CRMMatches.Companies, 1)
		assert.Equal(t, "other.test", event.CRMMatches.Companies[0].Domain)
		require.Len(t, event.CRMMatches.Deals, 1)
		assert.Equal(t, "negotiation", event.CRMMatches.Deals[0].Stage)
		assert.Empty(t, event.CRMMatches.Error)
	})

	t.Run("keeps string error marker", func(t *testing.T) {
		payload := &FathomWebhookPayload{
			RecordingID: json.Number("9"),
			CRMMatches:  map[string]any{"error": "crm lookup failed"},
		}

		event, err := payload.ToMeetingEvent()
		require.NoError(t, err)
		require.NotNil(t, event.CRMMatches)
		assert.Equal(t, "crm lookup failed", event.CRMMatches.Error)
	})

	t.Run("normalizes non-string error marker", func(t *testing.T) {
		payload := &FathomWebhookPayload{
			RecordingID: json.Number("9"),
			CRMMatches:  map[string]any{"error": map[string]any{"code": float64(500)}},
		}

		event, err := payload.ToMeetingEvent()
		require.NoError(t, err)
		require.NotNil(t, event.CRMMatches)
		assert.NotEmpty(t, event.CRMMatches.Error)
	})

	t.Run("absent block stays nil", func(t *testing.T) {
		payload := &FathomWebhookPayload{RecordingID: json.Number("9")}

		event, err := payload.ToMeetingEvent()
		require.NoError(t, err)
		assert.Nil(t, event.CRMMatches)
	})
}

func TestMeetingTypeFromDomains(t *testing.T) {
	tests := []struct {
		name        string
		domainsType string
		expected    MeetingType
	}{
		{name: "internal", domainsType: "internal", expected: MeetingTypeInternal},
		{name: "only_internal", domainsType: "only_internal", expected: MeetingTypeInternal},
		{name: "one_external", domainsType: "one_external", expected: MeetingTypeExternal},
		{name: "all_external", domainsType: "all_external", expected: MeetingTypeExternal},
		{name: "empty stays unset", domainsType: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, meetingTypeFromDomains(tt.domainsType))
		})
	}
}

func TestEventInvitee_Attendance(t *testing.T) {
	t.Run("matched speaker was present and accepted", func(t *testing.T) {
		attendance, invitation := EventInvitee{MatchedSpeaker: true}.Attendance()
		assert.Equal(t, AttendancePresent, attendance)
		assert.Equal(t, InvitationAccepted, invitation)
	})

	t.Run("unmatched invitee is unknown", func(t *testing.T) {
		attendance, invitation := EventInvitee{}.Attendance()
		assert.Equal(t, AttendanceUnknown, attendance)
		assert.Equal(t, InvitationUnknown, invitation)
	})
}
