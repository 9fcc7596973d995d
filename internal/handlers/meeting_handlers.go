// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/loopnotes/meeting-ingest-service/internal/domain"
)

// MeetingHandlers serves read access to ingested meetings.
type MeetingHandlers struct {
	meetingRepository domain.MeetingRepository
}

// NewMeetingHandlers creates new meeting handlers.
func NewMeetingHandlers(meetingRepository domain.MeetingRepository) *MeetingHandlers {
	return &MeetingHandlers{meetingRepository: meetingRepository}
}

// HandleGetMeeting handles GET /meetings/{uid}.
func (h *MeetingHandlers) HandleGetMeeting(w http.ResponseWriter, r *http.Request) {
	meeting, err := h.meetingRepository.Get(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meeting)
}

// HandleGetMeetingByRecording handles GET /meetings/by-recording/{recording_id}.
func (h *MeetingHandlers) HandleGetMeetingByRecording(w http.ResponseWriter, r *http.Request) {
	meeting, err := h.meetingRepository.GetByExternalRecordingID(r.Context(), chi.URLParam(r, "recording_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meeting)
}
