// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/loopnotes/meeting-ingest-service/internal/domain"
	"github.com/loopnotes/meeting-ingest-service/internal/domain/mocks"
	"github.com/loopnotes/meeting-ingest-service/internal/domain/models"
	"github.com/loopnotes/meeting-ingest-service/internal/service"
	"github.com/loopnotes/meeting-ingest-service/pkg/constants"
)

func setupPendingActionHandlers() (*PendingActionHandlers, *mocks.MockPendingActionRepository, *mocks.MockTaskSyncRegistry) {
	actionRepo := &mocks.MockPendingActionRepository{}
	registry := &mocks.MockTaskSyncRegistry{}
	publisher := &mocks.MockMessagePublisher{}
	publisher.On("PublishActionSynced", mock.Anything, mock.Anything).Return(nil).Maybe()

	svc := service.NewPendingActionService(actionRepo, registry, publisher)
	return NewPendingActionHandlers(svc), actionRepo, registry
}

func pendingActionRouter(h *PendingActionHandlers) http.Handler {
	r := chi.NewRouter()
	r.Get("/pending-actions/{uid}", h.HandleGetPendingAction)
	r.Get("/meetings/{uid}/pending-actions", h.HandleListMeetingActions)
	r.Post("/pending-actions/{uid}/approve", h.HandleApproveAction)
	r.Post("/pending-actions/{uid}/reject", h.HandleRejectAction)
	r.Post("/pending-actions/{uid}/complete", h.HandleCompleteAction)
	r.Post("/pending-actions/{uid}/sync", h.HandleSyncAction)
	return r
}

func authenticatedRequest(method, path string, body []byte, principal string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if principal != "" {
		ctx := context.WithValue(req.Context(), constants.PrincipalContextID, principal)
		req = req.WithContext(ctx)
	}
	return req
}

func TestHandleGetPendingAction(t *testing.T) {
	h, actionRepo, _ := setupPendingActionHandlers()
	router := pendingActionRouter(h)

	t.Run("found", func(t *testing.T) {
		actionRepo.On("Get", mock.Anything, "action-1").
			Return(&models.PendingAction{UID: "action-1", Title: "Send the proposal"}, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pending-actions/action-1", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var action models.PendingAction
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &action))
		assert.Equal(t, "Send the proposal", action.Title)
	})

	t.Run("not found", func(t *testing.T) {
		actionRepo.On("Get", mock.Anything, "missing").
			Return(nil, domain.NewNotFoundError("pending action not found"))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pending-actions/missing", nil))

		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleListMeetingActions(t *testing.T) {
	h, actionRepo, _ := setupPendingActionHandlers()
	router := pendingActionRouter(h)

	actionRepo.On("ListByMeeting", mock.Anything, "meeting-1").
		Return([]*models.PendingAction{{UID: "action-1"}, {UID: "action-2"}}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/meetings/meeting-1/pending-actions", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp actionListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Actions, 2)
}

func TestHandleApproveAction(t *testing.T) {
	t.Run("approves on behalf of the principal", func(t *testing.T) {
		h, actionRepo, _ := setupPendingActionHandlers()
		router := pendingActionRouter(h)

		action := &models.PendingAction{UID: "action-1", Status: models.ActionStatusNew}
		actionRepo.On("GetWithRevision", mock.Anything, "action-1").Return(action, uint64(2), nil)
		actionRepo.On("Update", mock.Anything, action, uint64(2)).Return(nil)

		req := authenticatedRequest(http.MethodPost, "/pending-actions/action-1/approve",
			[]byte(`{"notes": "looks right"}`), "user-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var got models.PendingAction
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, models.ActionStatusActive, got.Status)
		assert.Equal(t, "user-1", got.ApprovedBy)
		assert.Equal(t, "looks right", got.ApprovalNotes)
	})

	t.Run("no principal returns 401", func(t *testing.T) {
		h, actionRepo, _ := setupPendingActionHandlers()
		router := pendingActionRouter(h)

		req := authenticatedRequest(http.MethodPost, "/pending-actions/action-1/approve", nil, "")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		actionRepo.AssertNotCalled(t, "GetWithRevision", mock.Anything, mock.Anything)
	})

	t.Run("empty body is accepted", func(t *testing.T) {
		h, actionRepo, _ := setupPendingActionHandlers()
		router := pendingActionRouter(h)

		action := &models.PendingAction{UID: "action-1", Status: models.ActionStatusNew}
		actionRepo.On("GetWithRevision", mock.Anything, "action-1").Return(action, uint64(2), nil)
		actionRepo.On("Update", mock.Anything, action, uint64(2)).Return(nil)

		req := authenticatedRequest(http.MethodPost, "/pending-actions/action-1/approve", nil, "user-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("lifecycle violation returns 409", func(t *testing.T) {
		h, actionRepo, _ := setupPendingActionHandlers()
		router := pendingActionRouter(h)

		action := &models.PendingAction{UID: "action-1", Status: models.ActionStatusRejected}
		actionRepo.On("GetWithRevision", mock.Anything, "action-1").Return(action, uint64(2), nil)

		req := authenticatedRequest(http.MethodPost, "/pending-actions/action-1/approve", nil, "user-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestHandleSyncAction(t *testing.T) {
	t.Run("requires a target", func(t *testing.T) {
		h, _, _ := setupPendingActionHandlers()
		router := pendingActionRouter(h)

		req := authenticatedRequest(http.MethodPost, "/pending-actions/action-1/sync",
			[]byte(`{}`), "user-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("disabled integration returns 409 with the sync error kind", func(t *testing.T) {
		h, actionRepo, registry := setupPendingActionHandlers()
		router := pendingActionRouter(h)

		action := &models.PendingAction{UID: "action-1", Status: models.ActionStatusActive}
		provider := &mocks.MockTaskSyncProvider{}

		actionRepo.On("GetWithRevision", mock.Anything, "action-1").Return(action, uint64(2), nil)
		registry.On("GetProvider", "hubspot").Return(provider, nil)
		provider.On("CreateTask", mock.Anything, action).Return("", domain.NewSyncDisabledError("hubspot"))

		req := authenticatedRequest(http.MethodPost, "/pending-actions/action-1/sync",
			[]byte(`{"target": "hubspot"}`), "user-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusConflict, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, string(domain.SyncErrorDisabled), resp.Error)
	})

	t.Run("successful sync returns the updated action", func(t *testing.T) {
		h, actionRepo, registry := setupPendingActionHandlers()
		router := pendingActionRouter(h)

		action := &models.PendingAction{UID: "action-1", Status: models.ActionStatusActive}
		provider := &mocks.MockTaskSyncProvider{}

		actionRepo.On("GetWithRevision", mock.Anything, "action-1").Return(action, uint64(2), nil)
		registry.On("GetProvider", "hubspot").Return(provider, nil)
		provider.On("CreateTask", mock.Anything, action).Return("hs-task-77", nil)
		actionRepo.On("Update", mock.Anything, action, uint64(2)).Return(nil)

		req := authenticatedRequest(http.MethodPost, "/pending-actions/action-1/sync",
			[]byte(`{"target": "hubspot"}`), "user-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var got models.PendingAction
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "hs-task-77", got.ExternalTaskID)
	})
}
