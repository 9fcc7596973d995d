// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"

	"github.com/loopnotes/meeting-ingest-service/internal/domain"
)

// pollStateKey is the KV key for the polling reconciler's watermark.
const pollStateKey = "fathom/poll-watermark"

// NatsPollStateRepository persists the polling reconciler's watermark.
type NatsPollStateRepository struct {
	*NatsBaseRepository[domain.PollState]
}

// NewNatsPollStateRepository creates a new NATS KV store repository for the poll watermark.
func NewNatsPollStateRepository(kvStore INatsKeyValue) *NatsPollStateRepository {
	return &NatsPollStateRepository{
		NatsBaseRepository: NewNatsBaseRepository[domain.PollState](kvStore, "poll state"),
	}
}

// Get returns the stored watermark, or a not-found error before the first
// completed cycle.
func (r *NatsPollStateRepository) Get(ctx context.Context) (*domain.PollState, error) {
	return r.NatsBaseRepository.Get(ctx, pollStateKey)
}

// Set stores the watermark. Plain Put: the poller is the only writer and
// overlapping runs are prevented upstream.
func (r *NatsPollStateRepository) Set(ctx context.Context, state *domain.PollState) error {
	return r.Put(ctx, pollStateKey, state)
}

var _ domain.PollStateRepository = (*NatsPollStateRepository)(nil)
