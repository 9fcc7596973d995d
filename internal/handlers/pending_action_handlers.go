// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/loopnotes/meeting-ingest-service/internal/domain"
	"github.com/loopnotes/meeting-ingest-service/internal/domain/models"
	"github.com/loopnotes/meeting-ingest-service/internal/middleware"
	"github.com/loopnotes/meeting-ingest-service/internal/service"
)

// PendingActionHandlers serves the pending action approval and sync API.
type PendingActionHandlers struct {
	pendingActionService *service.PendingActionService
}

// NewPendingActionHandlers creates new pending action handlers.
func NewPendingActionHandlers(pendingActionService *service.PendingActionService) *PendingActionHandlers {
	return &PendingActionHandlers{pendingActionService: pendingActionService}
}

type actionDecisionRequest struct {
	Notes string `json:"notes,omitempty"`
}

type actionSyncRequest struct {
	Target string `json:"target"`
}

type actionListResponse struct {
	Actions []*models.PendingAction `json:"actions"`
}

// actor resolves the authenticated principal for mutating endpoints.
func actor(w http.ResponseWriter, r *http.Request) (string, bool) {
	principal, ok := middleware.GetPrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, domain.NewUnauthorizedError("request has no authenticated principal"))
		return "", false
	}
	return principal, true
}

// decodeBody decodes an optional JSON request body into dst. An empty
// body is accepted.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, r, domain.NewValidationError("invalid request body", err))
		return false
	}
	return true
}

// HandleGetPendingAction handles GET /pending-actions/{uid}.
func (h *PendingActionHandlers) HandleGetPendingAction(w http.ResponseWriter, r *http.Request) {
	action, err := h.pendingActionService.GetPendingAction(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, action)
}

// HandleListMeetingActions handles GET /meetings/{uid}/pending-actions.
func (h *PendingActionHandlers) HandleListMeetingActions(w http.ResponseWriter, r *http.Request) {
	actions, err := h.pendingActionService.ListByMeeting(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, actionListResponse{Actions: actions})
}

// HandleApproveAction handles POST /pending-actions/{uid}/approve.
func (h *PendingActionHandlers) HandleApproveAction(w http.ResponseWriter, r *http.Request) {
	principal, ok := actor(w, r)
	if !ok {
		return
	}
	var req actionDecisionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	action, err := h.pendingActionService.ApproveAction(r.Context(), chi.URLParam(r, "uid"), principal, req.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, action)
}

// HandleRejectAction handles POST /pending-actions/{uid}/reject.
func (h *PendingActionHandlers) HandleRejectAction(w http.ResponseWriter, r *http.Request) {
	principal, ok := actor(w, r)
	if !ok {
		return
	}
	var req actionDecisionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	action, err := h.pendingActionService.RejectAction(r.Context(), chi.URLParam(r, "uid"), principal, req.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, action)
}

// HandleCompleteAction handles POST /pending-actions/{uid}/complete.
func (h *PendingActionHandlers) HandleCompleteAction(w http.ResponseWriter, r *http.Request) {
	if _, ok := actor(w, r); !ok {
		return
	}
	var req actionDecisionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	action, err := h.pendingActionService.CompleteAction(r.Context(), chi.URLParam(r, "uid"), req.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, action)
}

// HandleSyncAction handles POST /pending-actions/{uid}/sync.
func (h *PendingActionHandlers) HandleSyncAction(w http.ResponseWriter, r *http.Request) {
	if _, ok := actor(w, r); !ok {
		return
	}
	var req actionSyncRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Target == "" {
		writeError(w, r, domain.NewValidationError("sync target is required"))
		return
	}

	action, err := h.pendingActionService.SyncAction(r.Context(), chi.URLParam(r, "uid"), req.Target)
	if err != nil {
		if syncErr, ok := domain.AsSyncError(err); ok {
			writeJSON(w, syncErrorStatus(syncErr), errorResponse{
				Error:   string(syncErr.Kind),
				Message: syncErr.Error(),
			})
			return
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, action)
}

// syncErrorStatus maps sync failure kinds onto HTTP statuses.
func syncErrorStatus(syncErr *domain.SyncError) int {
	switch syncErr.Kind {
	case domain.SyncErrorDisabled:
		return http.StatusConflict
	case domain.SyncErrorAuth:
		return http.StatusBadGateway
	case domain.SyncErrorTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
