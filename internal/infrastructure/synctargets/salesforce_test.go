// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package synctargets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopnotes/meeting-ingest-service/internal/domain"
	"github.com/loopnotes/meeting-ingest-service/internal/domain/models"
)

// salesforceTestServer serves both the token endpoint and the Task
// endpoint on one listener, the way a Salesforce instance does.
func salesforceTestServer(t *testing.T, taskHandler http.HandlerFunc) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/services/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token": "sf-bearer", "token_type": "Bearer", "expires_in": 3600}`))
	})
	mux.HandleFunc("/services/data/v61.0/sobjects/Task", taskHandler)
	return httptest.NewServer(mux)
}

func TestSalesforceProvider_CreateTask(t *testing.T) {
	ctx := context.Background()

	action := &models.PendingAction{
		UID:         "action-1",
		Title:       "Send the proposal",
		Description: "Send the proposal",
		Status:      models.ActionStatusActive,
		Priority:    models.ActionPriorityHigh,
	}

	t.Run("creates a task with the client-credentials token", func(t *testing.T) {
		var gotAuth string
		var gotReq salesforceTaskRequest

		srv := salesforceTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			gotAuth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id": "00T000000000001", "success": true}`))
		})
		defer srv.Close()

		provider := NewSalesforceProvider(SalesforceConfig{
			Enabled:      true,
			InstanceURL:  srv.URL,
			ClientID:     "client-id",
			ClientSecret: "client-secret",
		})

		taskID, err := provider.CreateTask(ctx, action)
		require.NoError(t, err)
		assert.Equal(t, "00T000000000001", taskID)

		assert.Equal(t, "Bearer sf-bearer", gotAuth)
		assert.Equal(t, "Send the proposal", gotReq.Subject)
		assert.Equal(t, "In Progress", gotReq.Status)
		assert.Equal(t, "High", gotReq.Priority)
	})

	t.Run("missing credentials means disabled", func(t *testing.T) {
		provider := NewSalesforceProvider(SalesforceConfig{Enabled: true, InstanceURL: "https://example.my.salesforce.com"})
		assert.False(t, provider.Enabled())

		_, err := provider.CreateTask(ctx, action)
		require.Error(t, err)

		syncErr, ok := domain.AsSyncError(err)
		require.True(t, ok)
		assert.Equal(t, domain.SyncErrorDisabled, syncErr.Kind)
		assert.Equal(t, TargetSalesforce, syncErr.Target)
	})

	t.Run("403 surfaces as an auth error", func(t *testing.T) {
		srv := salesforceTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`[{"errorCode": "INSUFFICIENT_ACCESS"}]`))
		})
		defer srv.Close()

		provider := NewSalesforceProvider(SalesforceConfig{
			Enabled:      true,
			InstanceURL:  srv.URL,
			ClientID:     "client-id",
			ClientSecret: "client-secret",
		})

		_, err := provider.CreateTask(ctx, action)
		require.Error(t, err)

		syncErr, ok := domain.AsSyncError(err)
		require.True(t, ok)
		assert.Equal(t, domain.SyncErrorAuth, syncErr.Kind)
		assert.Equal(t, http.StatusForbidden, syncErr.StatusCode)
	})
}

func TestSalesforceStatusAndPriorityMapsAreTotal(t *testing.T) {
	statuses := []models.ActionStatus{
		models.ActionStatusNew,
		models.ActionStatusActive,
		models.ActionStatusComplete,
		models.ActionStatusRejected,
	}
	for _, status := range statuses {
		assert.NotEmpty(t, salesforceStatusMap[status], "status %s has no Salesforce mapping", status)
	}

	priorities := []models.ActionPriority{
		models.ActionPriorityLow,
		models.ActionPriorityMedium,
		models.ActionPriorityHigh,
	}
	for _, priority := range priorities {
		assert.NotEmpty(t, salesforcePriorityMap[priority], "priority %s has no Salesforce mapping", priority)
	}
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()

	hubspot := NewHubSpotProvider(HubSpotConfig{})
	registry.RegisterProvider(hubspot)

	provider, err := registry.GetProvider(TargetHubSpot)
	require.NoError(t, err)
	assert.Equal(t, TargetHubSpot, provider.Target())

	// Disabled providers stay resolvable.
	assert.False(t, provider.Enabled())

	_, err = registry.GetProvider("asana")
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeNotFound, domain.GetErrorType(err))
}
