// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/loopnotes/meeting-ingest-service/internal/domain"
	"github.com/loopnotes/meeting-ingest-service/internal/domain/models"
	"github.com/loopnotes/meeting-ingest-service/internal/logging"
	"github.com/loopnotes/meeting-ingest-service/pkg/concurrent"
)

const (
	// defaultPollInterval is how often the reconciler sweeps the vendor API.
	defaultPollInterval = 15 * time.Minute
	// initialLookback bounds the first sweep when no watermark exists yet.
	initialLookback = 24 * time.Hour
	// pollWorkerCount bounds concurrent payload processing within a cycle.
	pollWorkerCount = 4
)

// PollerService is the reconciliation backstop for dropped webhooks: it
// periodically lists recordings from the vendor API and runs anything new
// through the same ingestion pipeline. The watermark only advances after
// a cycle's listing and sweep complete, so a failed listing re-covers the
// same window next cycle.
type PollerService struct {
	recordingLister     domain.RecordingLister
	ingestionService    *IngestionService
	pollStateRepository domain.PollStateRepository
	pool                *concurrent.WorkerPool
	interval            time.Duration

	// cycleMu keeps cycles from overlapping when one runs long.
	cycleMu sync.Mutex
}

// NewPollerService creates a new PollerService.
func NewPollerService(
	recordingLister domain.RecordingLister,
	ingestionService *IngestionService,
	pollStateRepository domain.PollStateRepository,
	interval time.Duration,
) *PollerService {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &PollerService{
		recordingLister:     recordingLister,
		ingestionService:    ingestionService,
		pollStateRepository: pollStateRepository,
		pool:                concurrent.NewWorkerPool(pollWorkerCount),
		interval:            interval,
	}
}

// ServiceReady checks if the service is ready to process requests
func (s *PollerService) ServiceReady() bool {
	return s.recordingLister != nil && s.ingestionService != nil && s.pollStateRepository != nil
}

// Run executes reconciliation cycles until the context is canceled. An
// initial cycle runs immediately so a restart doesn't wait a full
// interval to recover missed webhooks.
func (s *PollerService) Run(ctx context.Context) {
	slog.InfoContext(ctx, "starting polling reconciler", "interval", s.interval.String())

	if err := s.RunCycle(ctx); err != nil {
		slog.ErrorContext(ctx, "reconciliation cycle failed", logging.ErrKey, err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "stopping polling reconciler")
			return
		case <-ticker.C:
			if err := s.RunCycle(ctx); err != nil {
				slog.ErrorContext(ctx, "reconciliation cycle failed", logging.ErrKey, err)
			}
		}
	}
}

// RunCycle performs one reconciliation sweep. Malformed payloads are
// logged and skipped. A listing failure holds the watermark so the same
// window is retried; per-event processing failures are reported but do
// not hold it, since idempotent re-ingestion covers retried deliveries.
func (s *PollerService) RunCycle(ctx context.Context) error {
	if !s.cycleMu.TryLock() {
		slog.WarnContext(ctx, "skipping reconciliation cycle, previous cycle still running")
		return nil
	}
	defer s.cycleMu.Unlock()

	ctx = logging.AppendCtx(ctx, slog.String("component", "poller"))

	since, err := s.watermark(ctx)
	if err != nil {
		return err
	}

	// The next watermark is taken before listing so recordings created
	// mid-cycle land in the next window instead of being skipped.
	cycleStart := time.Now().UTC()

	recordings, err := s.recordingLister.ListRecordings(ctx, since)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "reconciliation cycle listing complete",
		"since", since, "recordings", len(recordings))

	functions := make([]func() error, 0, len(recordings))
	for _, payload := range recordings {
		functions = append(functions, func() error {
			err := s.ingestionService.ProcessPayload(ctx, payload, models.SourceAPIPoll)
			if err != nil && domain.GetErrorType(err) == domain.ErrorTypeValidation {
				// A payload the vendor will keep returning malformed must
				// not wedge the watermark.
				slog.WarnContext(ctx, "skipping malformed recording payload", logging.ErrKey, err)
				return nil
			}
			return err
		})
	}
	failures := s.pool.RunAll(ctx, functions...)

	// Listing and the sweep both completed, so the watermark advances even
	// when some events failed: re-ingestion is idempotent, and one
	// persistently failing recording must not grow the poll window forever.
	if err := s.pollStateRepository.Set(ctx, &domain.PollState{LastPolledAt: cycleStart}); err != nil {
		return err
	}

	if len(failures) > 0 {
		return domain.NewInternalError(
			fmt.Sprintf("reconciliation cycle had %d failures", len(failures)), failures...)
	}

	slog.InfoContext(ctx, "reconciliation cycle complete", "new_watermark", cycleStart)
	return nil
}

// watermark loads the last poll time, applying the initial lookback when
// the reconciler has never run.
func (s *PollerService) watermark(ctx context.Context) (time.Time, error) {
	state, err := s.pollStateRepository.Get(ctx)
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return time.Now().UTC().Add(-initialLookback), nil
		}
		return time.Time{}, err
	}
	return state.LastPolledAt, nil
}
