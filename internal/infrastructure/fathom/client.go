// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package fathom contains the HTTP client for the Fathom external API,
// used by the polling reconciler as a backstop for dropped webhooks.
package fathom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/loopnotes/meeting-ingest-service/internal/domain"
	"github.com/loopnotes/meeting-ingest-service/internal/domain/models"
	"github.com/loopnotes/meeting-ingest-service/internal/logging"
)

const defaultTimeout = 30 * time.Second

// Config holds the Fathom API client configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client calls the Fathom external API.
type Client struct {
	httpClient *http.Client
	config     Config
}

// NewClient creates a new Fathom API client.
func NewClient(config Config) *Client {
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
	}
}

// listMeetingsResponse is the envelope of the meetings listing endpoint.
type listMeetingsResponse struct {
	Items      []*models.FathomWebhookPayload `json:"items"`
	NextCursor string                         `json:"next_cursor"`
}

// ListRecordings returns all recording payloads created since the given
// watermark, following cursor pagination until exhausted.
func (c *Client) ListRecordings(ctx context.Context, since time.Time) ([]*models.FathomWebhookPayload, error) {
	ctx = logging.AppendCtx(ctx, slog.String("fathom_operation", "list_recordings"))

	var recordings []*models.FathomWebhookPayload
	cursor := ""

	for {
		page, nextCursor, err := c.listMeetingsPage(ctx, since, cursor)
		if err != nil {
			return nil, err
		}
		recordings = append(recordings, page...)

		if nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	slog.DebugContext(ctx, "fetched recordings from Fathom API",
		"count", len(recordings), "since", since)

	return recordings, nil
}

func (c *Client) listMeetingsPage(ctx context.Context, since time.Time, cursor string) ([]*models.FathomWebhookPayload, string, error) {
	query := url.Values{}
	if !since.IsZero() {
		query.Set("created_after", since.UTC().Format(time.RFC3339))
	}
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	endpoint := fmt.Sprintf("%s/external/v1/meetings?%s", c.config.BaseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", domain.NewInternalError("failed to create Fathom API request", err)
	}
	req.Header.Set("X-Api-Key", c.config.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "Fathom API request failed", logging.ErrKey, err)
		return nil, "", domain.NewUnavailableError("Fathom API request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", domain.NewInternalError("failed to read Fathom API response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.ErrorContext(ctx, "Fathom API returned error",
			"status", resp.StatusCode, "body", string(body))
		return nil, "", domain.NewInternalError(
			fmt.Sprintf("Fathom API returned status %d", resp.StatusCode))
	}

	var page listMeetingsResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, "", domain.NewInternalError("failed to decode Fathom API response", err)
	}

	return page.Items, page.NextCursor, nil
}

var _ domain.RecordingLister = (*Client)(nil)
