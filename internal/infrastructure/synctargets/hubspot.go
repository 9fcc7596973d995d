// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package synctargets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/loopnotes/meeting-ingest-service/internal/domain"
	"github.com/loopnotes/meeting-ingest-service/internal/domain/models"
	"github.com/loopnotes/meeting-ingest-service/internal/logging"
)

// TargetHubSpot is the target name of the HubSpot adapter.
const TargetHubSpot = "hubspot"

const hubspotDefaultTimeout = 15 * time.Second

// hubspotStatusMap translates internal action statuses to HubSpot task
// statuses. The table is total: every internal value has a mapping.
var hubspotStatusMap = map[models.ActionStatus]string{
	models.ActionStatusNew:      "NOT_STARTED",
	models.ActionStatusActive:   "IN_PROGRESS",
	models.ActionStatusComplete: "COMPLETED",
	models.ActionStatusRejected: "DEFERRED",
}

// hubspotPriorityMap translates internal priorities to HubSpot task
// priorities. The table is total.
var hubspotPriorityMap = map[models.ActionPriority]string{
	models.ActionPriorityLow:    "LOW",
	models.ActionPriorityMedium: "MEDIUM",
	models.ActionPriorityHigh:   "HIGH",
}

// HubSpotConfig holds the HubSpot adapter configuration.
type HubSpotConfig struct {
	Enabled     bool
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
}

// HubSpotProvider creates tasks in HubSpot via the CRM v3 objects API
// using a private app access token.
type HubSpotProvider struct {
	httpClient *http.Client
	config     HubSpotConfig
}

// NewHubSpotProvider creates a new HubSpot sync provider.
func NewHubSpotProvider(config HubSpotConfig) *HubSpotProvider {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.hubapi.com"
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = hubspotDefaultTimeout
	}

	return &HubSpotProvider{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
	}
}

// Target returns the target system identifier.
func (p *HubSpotProvider) Target() string {
	return TargetHubSpot
}

// Enabled reports whether the integration is configured and turned on.
func (p *HubSpotProvider) Enabled() bool {
	return p.config.Enabled && p.config.AccessToken != ""
}

type hubspotTaskRequest struct {
	Properties hubspotTaskProperties `json:"properties"`
}

type hubspotTaskProperties struct {
	Subject   string `json:"hs_task_subject"`
	Body      string `json:"hs_task_body,omitempty"`
	Status    string `json:"hs_task_status"`
	Priority  string `json:"hs_task_priority"`
	Timestamp string `json:"hs_timestamp"`
}

type hubspotTaskResponse struct {
	ID string `json:"id"`
}

// CreateTask creates a HubSpot task for the pending action and returns
// the external task id.
func (p *HubSpotProvider) CreateTask(ctx context.Context, action *models.PendingAction) (string, error) {
	if !p.Enabled() {
		return "", domain.NewSyncDisabledError(TargetHubSpot)
	}

	payload := hubspotTaskRequest{
		Properties: hubspotTaskProperties{
			Subject:   action.Title,
			Body:      buildTaskBody(action),
			Status:    hubspotStatusMap[action.Status],
			Priority:  hubspotPriorityMap[action.Priority],
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", &domain.SyncError{
			Target: TargetHubSpot, Kind: domain.SyncErrorHTTP,
			Message: "failed to marshal task request", Err: err,
		}
	}

	endpoint := p.config.BaseURL + "/crm/v3/objects/tasks"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &domain.SyncError{
			Target: TargetHubSpot, Kind: domain.SyncErrorHTTP,
			Message: "failed to build task request", Err: err,
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.AccessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		kind := domain.SyncErrorHTTP
		if errors.Is(err, context.DeadlineExceeded) {
			kind = domain.SyncErrorTimeout
		}
		slog.ErrorContext(ctx, "HubSpot task creation failed", logging.ErrKey, err,
			"action_uid", action.UID)
		return "", &domain.SyncError{
			Target: TargetHubSpot, Kind: kind,
			Message: "request failed", Err: err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &domain.SyncError{
			Target: TargetHubSpot, Kind: domain.SyncErrorHTTP,
			Message: "failed to read response", Err: err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		kind := domain.SyncErrorHTTP
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			kind = domain.SyncErrorAuth
		}
		slog.ErrorContext(ctx, "HubSpot API returned error",
			"status", resp.StatusCode, "body", string(respBody), "action_uid", action.UID)
		return "", &domain.SyncError{
			Target: TargetHubSpot, Kind: kind,
			StatusCode: resp.StatusCode, Message: string(respBody),
		}
	}

	var taskResp hubspotTaskResponse
	if err := json.Unmarshal(respBody, &taskResp); err != nil {
		return "", &domain.SyncError{
			Target: TargetHubSpot, Kind: domain.SyncErrorHTTP,
			Message: "failed to decode response", Err: err,
		}
	}
	if taskResp.ID == "" {
		return "", &domain.SyncError{
			Target: TargetHubSpot, Kind: domain.SyncErrorHTTP,
			Message: "response has no task id",
		}
	}

	slog.InfoContext(ctx, "created HubSpot task",
		"action_uid", action.UID, "external_task_id", taskResp.ID)

	return taskResp.ID, nil
}

// buildTaskBody renders the task description with the traceability notes
// (playback link and in-recording timestamp) appended.
func buildTaskBody(action *models.PendingAction) string {
	if action.Notes == "" {
		return action.Description
	}
	if action.Description == "" {
		return action.Notes
	}
	return fmt.Sprintf("%s\n\n%s", action.Description, action.Notes)
}

var _ domain.TaskSyncProvider = (*HubSpotProvider)(nil)
