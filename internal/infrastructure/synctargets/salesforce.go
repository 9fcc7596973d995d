// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package synctargets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/loopnotes/meeting-ingest-service/internal/domain"
	"github.com/loopnotes/meeting-ingest-service/internal/domain/models"
	"github.com/loopnotes/meeting-ingest-service/internal/logging"
)

// TargetSalesforce is the target name of the Salesforce adapter.
const TargetSalesforce = "salesforce"

const (
	salesforceDefaultTimeout = 15 * time.Second
	salesforceAPIVersion     = "v61.0"
)

// salesforceStatusMap translates internal action statuses to Salesforce
// Task status picklist values. The table is total.
var salesforceStatusMap = map[models.ActionStatus]string{
	models.ActionStatusNew:      "Not Started",
	models.ActionStatusActive:   "In Progress",
	models.ActionStatusComplete: "Completed",
	models.ActionStatusRejected: "Deferred",
}

// salesforcePriorityMap translates internal priorities to Salesforce Task
// priority picklist values. The table is total.
var salesforcePriorityMap = map[models.ActionPriority]string{
	models.ActionPriorityLow:    "Low",
	models.ActionPriorityMedium: "Normal",
	models.ActionPriorityHigh:   "High",
}

// SalesforceConfig holds the Salesforce adapter configuration.
type SalesforceConfig struct {
	Enabled      bool
	InstanceURL  string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// SalesforceProvider creates Task records via the Salesforce REST API.
// Authentication uses the OAuth2 client-credentials flow; the oauth2
// transport caches the bearer token and refreshes it transparently before
// expiry, so adapter calls stay stateless.
type SalesforceProvider struct {
	httpClient *http.Client
	config     SalesforceConfig
}

// NewSalesforceProvider creates a new Salesforce sync provider.
func NewSalesforceProvider(config SalesforceConfig) *SalesforceProvider {
	config.InstanceURL = strings.TrimRight(config.InstanceURL, "/")
	if config.Timeout == 0 {
		config.Timeout = salesforceDefaultTimeout
	}

	provider := &SalesforceProvider{config: config}

	if config.ClientID != "" && config.ClientSecret != "" && config.InstanceURL != "" {
		cc := &clientcredentials.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			TokenURL:     config.InstanceURL + "/services/oauth2/token",
		}
		httpClient := cc.Client(context.Background())
		httpClient.Timeout = config.Timeout
		provider.httpClient = httpClient
	}

	return provider
}

// Target returns the target system identifier.
func (p *SalesforceProvider) Target() string {
	return TargetSalesforce
}

// Enabled reports whether the integration is configured and turned on.
func (p *SalesforceProvider) Enabled() bool {
	return p.config.Enabled && p.httpClient != nil
}

type salesforceTaskRequest struct {
	Subject     string `json:"Subject"`
	Description string `json:"Description,omitempty"`
	Status      string `json:"Status"`
	Priority    string `json:"Priority"`
}

type salesforceTaskResponse struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
}

// CreateTask creates a Salesforce Task for the pending action and returns
// the external task id.
func (p *SalesforceProvider) CreateTask(ctx context.Context, action *models.PendingAction) (string, error) {
	if !p.Enabled() {
		return "", domain.NewSyncDisabledError(TargetSalesforce)
	}

	payload := salesforceTaskRequest{
		Subject:     action.Title,
		Description: buildTaskBody(action),
		Status:      salesforceStatusMap[action.Status],
		Priority:    salesforcePriorityMap[action.Priority],
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", &domain.SyncError{
			Target: TargetSalesforce, Kind: domain.SyncErrorHTTP,
			Message: "failed to marshal task request", Err: err,
		}
	}

	endpoint := p.config.InstanceURL + "/services/data/" + salesforceAPIVersion + "/sobjects/Task"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &domain.SyncError{
			Target: TargetSalesforce, Kind: domain.SyncErrorHTTP,
			Message: "failed to build task request", Err: err,
		}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		kind := domain.SyncErrorHTTP
		if errors.Is(err, context.DeadlineExceeded) {
			kind = domain.SyncErrorTimeout
		}
		// The oauth2 transport surfaces token endpoint failures here.
		if strings.Contains(err.Error(), "oauth2") {
			kind = domain.SyncErrorAuth
		}
		slog.ErrorContext(ctx, "Salesforce task creation failed", logging.ErrKey, err,
			"action_uid", action.UID)
		return "", &domain.SyncError{
			Target: TargetSalesforce, Kind: kind,
			Message: "request failed", Err: err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &domain.SyncError{
			Target: TargetSalesforce, Kind: domain.SyncErrorHTTP,
			Message: "failed to read response", Err: err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		kind := domain.SyncErrorHTTP
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			kind = domain.SyncErrorAuth
		}
		slog.ErrorContext(ctx, "Salesforce API returned error",
			"status", resp.StatusCode, "body", string(respBody), "action_uid", action.UID)
		return "", &domain.SyncError{
			Target: TargetSalesforce, Kind: kind,
			StatusCode: resp.StatusCode, Message: string(respBody),
		}
	}

	var taskResp salesforceTaskResponse
	if err := json.Unmarshal(respBody, &taskResp); err != nil {
		return "", &domain.SyncError{
			Target: TargetSalesforce, Kind: domain.SyncErrorHTTP,
			Message: "failed to decode response", Err: err,
		}
	}
	if taskResp.ID == "" {
		return "", &domain.SyncError{
			Target: TargetSalesforce, Kind: domain.SyncErrorHTTP,
			Message: "response has no task id",
		}
	}

	slog.InfoContext(ctx, "created Salesforce task",
		"action_uid", action.UID, "external_task_id", taskResp.ID)

	return taskResp.ID, nil
}

var _ domain.TaskSyncProvider = (*SalesforceProvider)(nil)
