// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package concurrent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Dispatcher runs fire-and-forget jobs on bounded goroutines. Each
// submitted job gets exactly one attempt; there is no internal retry and
// no caller waiting on the result. Job panics are recovered and logged so
// one bad payload can't take the process down.
type Dispatcher struct {
	sem    chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// NewDispatcher creates a dispatcher that runs at most maxConcurrent jobs
// at a time.
func NewDispatcher(maxConcurrent int) *Dispatcher {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Dispatcher{
		sem: make(chan struct{}, maxConcurrent),
	}
}

// Submit schedules the job and returns immediately. The job runs with a
// context detached from the caller's cancellation: the HTTP request that
// delivered a webhook is acknowledged before processing happens, so the
// job must not die with it. Submissions after Shutdown are rejected.
func (d *Dispatcher) Submit(ctx context.Context, jobID string, job func(ctx context.Context)) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return fmt.Errorf("dispatcher is shut down")
	}
	d.wg.Add(1)
	d.mu.Unlock()

	jobCtx := context.WithoutCancel(ctx)

	go func() {
		defer d.wg.Done()

		d.sem <- struct{}{}
		defer func() { <-d.sem }()

		defer func() {
			if r := recover(); r != nil {
				slog.ErrorContext(jobCtx, "dispatched job panicked",
					"job_id", jobID, "panic", fmt.Sprintf("%v", r))
			}
		}()

		job(jobCtx)
	}()

	return nil
}

// Shutdown stops accepting new jobs and waits for in-flight jobs to
// finish or the context to expire.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
