// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/loopnotes/meeting-ingest-service/internal/domain/models"
)

// SyncErrorKind classifies the failure modes of an external task sync.
type SyncErrorKind string

const (
	// SyncErrorDisabled means the integration is not configured or turned off.
	// It is distinct from runtime failures so callers can tell "not configured"
	// apart from "attempted and failed".
	SyncErrorDisabled SyncErrorKind = "integration_disabled"
	// SyncErrorHTTP means the target returned a non-2xx response.
	SyncErrorHTTP SyncErrorKind = "http_error"
	// SyncErrorAuth means the target rejected our credentials.
	SyncErrorAuth SyncErrorKind = "auth_error"
	// SyncErrorTimeout means the call exceeded its deadline.
	SyncErrorTimeout SyncErrorKind = "timeout"
)

// SyncError is the structured failure result of a sync attempt. Adapters
// never let raw transport errors cross their boundary; everything comes
// back as a SyncError carrying the upstream status and message.
type SyncError struct {
	Target     string
	Kind       SyncErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *SyncError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s sync failed (%s, status %d): %s", e.Target, e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s sync failed (%s): %s", e.Target, e.Kind, e.Message)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// NewSyncDisabledError builds the typed result for a disabled integration.
func NewSyncDisabledError(target string) *SyncError {
	return &SyncError{Target: target, Kind: SyncErrorDisabled, Message: "integration disabled"}
}

// AsSyncError extracts a SyncError from an error chain.
func AsSyncError(err error) (*SyncError, bool) {
	var syncErr *SyncError
	if errors.As(err, &syncErr) {
		return syncErr, true
	}
	return nil, false
}

// TaskSyncProvider defines the interface for external task/CRM system integrations.
// Implementations translate internal status/priority enums into the target's own
// vocabulary and report failures as [SyncError] values.
type TaskSyncProvider interface {
	// Target returns the target system identifier (e.g. "hubspot").
	Target() string

	// Enabled reports whether the integration is configured and turned on.
	Enabled() bool

	// CreateTask creates a task for the pending action in the external system
	// and returns the external task ID. A disabled provider returns a
	// [SyncError] with kind [SyncErrorDisabled] without any network I/O.
	CreateTask(ctx context.Context, action *models.PendingAction) (string, error)
}

// TaskSyncRegistry manages task sync providers. Disabled providers stay
// registered so callers get a typed result instead of a missing capability.
type TaskSyncRegistry interface {
	// GetProvider returns the provider for the specified target name.
	GetProvider(target string) (TaskSyncProvider, error)

	// RegisterProvider registers a provider under its target name.
	RegisterProvider(provider TaskSyncProvider)
}
