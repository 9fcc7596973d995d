// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package synctargets contains the external task/CRM system adapters and
// their registry.
package synctargets

import (
	"fmt"
	"sync"

	"github.com/loopnotes/meeting-ingest-service/internal/domain"
)

// Registry implements the TaskSyncRegistry interface. Disabled providers
// are registered like any other so callers always get a typed answer.
type Registry struct {
	providers map[string]domain.TaskSyncProvider
	mu        sync.RWMutex
}

// NewRegistry creates a new task sync registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]domain.TaskSyncProvider),
	}
}

// GetProvider returns the provider for the specified target name.
func (r *Registry) GetProvider(target string) (domain.TaskSyncProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[target]
	if !exists {
		return nil, domain.NewNotFoundError(fmt.Sprintf("unknown sync target %q", target))
	}

	return provider, nil
}

// RegisterProvider registers a provider under its target name.
func (r *Registry) RegisterProvider(provider domain.TaskSyncProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers[provider.Target()] = provider
}

var _ domain.TaskSyncRegistry = (*Registry)(nil)
