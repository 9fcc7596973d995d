// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// FathomWebhookPayload is the vendor-shaped body of a recording webhook.
// The same shape is returned by the vendor's listing API, so both the
// webhook path and the polling reconciler decode into it.
type FathomWebhookPayload struct {
	Title                     string             `json:"title"`
	RecordingID               json.Number        `json:"recording_id"`
	ScheduledStartTime        string             `json:"scheduled_start_time"`
	ScheduledEndTime          string             `json:"scheduled_end_time"`
	RecordingStartTime        string             `json:"recording_start_time"`
	RecordingEndTime          string             `json:"recording_end_time"`
	URL                       string             `json:"url"`
	ShareURL                  string             `json:"share_url"`
	TranscriptURL             string             `json:"transcript_url"`
	DefaultSummary            *FathomSummary     `json:"default_summary"`
	CalendarInviteeDomainType string             `json:"calendar_invitee_domains_type"`
	FathomUser                *FathomUser        `json:"fathom_user"`
	CalendarInvitees          []FathomInvitee    `json:"calendar_invitees"`
	ActionItems               []FathomActionItem `json:"action_items"`
	CRMMatches                map[string]any     `json:"crm_matches"`
}

// FathomSummary is the vendor's AI-generated meeting summary.
type FathomSummary struct {
	MarkdownFormatted string `json:"markdown_formatted"`
}

// FathomUser is the recording owner as reported by the vendor.
type FathomUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// FathomInvitee is a calendar invitee in the vendor payload.
type FathomInvitee struct {
	Email                     string `json:"email"`
	Name                      string `json:"name"`
	IsExternal                bool   `json:"is_external"`
	MatchedSpeakerDisplayName string `json:"matched_speaker_display_name"`
}

// FathomActionItem is a raw action item in the vendor payload.
type FathomActionItem struct {
	Description          string          `json:"description"`
	Assignee             *FathomAssignee `json:"assignee"`
	RecordingPlaybackURL string          `json:"recording_playback_url"`
	RecordingTimestamp   string          `json:"recording_timestamp"`
}

// FathomAssignee is the suggested owner of an action item.
type FathomAssignee struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ToMeetingEvent converts the vendor payload into the canonical event shape.
func (p *FathomWebhookPayload) ToMeetingEvent() (*MeetingEvent, error) {
	recordingID := p.RecordingID.String()
	if recordingID == "" {
		return nil, fmt.Errorf("payload has no recording_id")
	}

	event := &MeetingEvent{
		ExternalRecordingID: recordingID,
		Title:               p.Title,
		MeetingType:         meetingTypeFromDomains(p.CalendarInviteeDomainType),
		ScheduledStartTime:  parseVendorTime(p.ScheduledStartTime),
		ScheduledEndTime:    parseVendorTime(p.ScheduledEndTime),
		RecordingStartTime:  parseVendorTime(p.RecordingStartTime),
		RecordingEndTime:    parseVendorTime(p.RecordingEndTime),
		RecordingURL:        p.URL,
		ShareURL:            p.ShareURL,
		TranscriptURL:       p.TranscriptURL,
	}

	if p.DefaultSummary != nil {
		event.Summary = p.DefaultSummary.MarkdownFormatted
	}
	if p.FathomUser != nil {
		event.OrganizerEmail = p.FathomUser.Email
	}

	for _, invitee := range p.CalendarInvitees {
		event.Invitees = append(event.Invitees, EventInvitee{
			Email:          invitee.Email,
			Name:           invitee.Name,
			External:       invitee.IsExternal,
			MatchedSpeaker: invitee.MatchedSpeakerDisplayName != "",
		})
	}

	for _, item := range p.ActionItems {
		eventItem := EventActionItem{
			Description:        item.Description,
			PlaybackURL:        item.RecordingPlaybackURL,
			RecordingTimestamp: item.RecordingTimestamp,
		}
		if item.Assignee != nil {
			eventItem.AssigneeName = item.Assignee.Name
			eventItem.AssigneeEmail = item.Assignee.Email
		}
		event.ActionItems = append(event.ActionItems, eventItem)
	}

	if len(p.CRMMatches) > 0 {
		matches, err := decodeCRMMatches(p.CRMMatches)
		if err != nil {
			return nil, fmt.Errorf("failed to decode crm_matches: %w", err)
		}
		event.CRMMatches = matches
	}

	return event, nil
}

// decodeCRMMatches decodes the loosely-typed crm_matches block. The vendor
// sends either the matched entity lists or an error marker, and the error
// value is not consistently typed, so the block is decoded from a map
// rather than a fixed struct.
func decodeCRMMatches(raw map[string]any) (*CRMMatches, error) {
	// Normalize a non-string error marker before the typed decode.
	if errVal, ok := raw["error"]; ok {
		if _, isString := errVal.(string); !isString && errVal != nil {
			raw["error"] = fmt.Sprintf("%v", errVal)
		}
	}

	var matches CRMMatches
	config := mapstructure.DecoderConfig{
		TagName: "mapstructure",
		Result:  &matches,
	}
	decoder, err := mapstructure.NewDecoder(&config)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, err
	}

	return &matches, nil
}

// meetingTypeFromDomains maps the vendor's invitee-domains classification
// onto the meeting type: purely internal invitees vs any external ones.
func meetingTypeFromDomains(domainsType string) MeetingType {
	switch domainsType {
	case "internal", "only_internal":
		return MeetingTypeInternal
	case "":
		return ""
	default:
		return MeetingTypeExternal
	}
}

// parseVendorTime parses the vendor's RFC3339 timestamps, returning nil
// for absent or unparseable values instead of failing the whole event.
func parseVendorTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	return &t
}
