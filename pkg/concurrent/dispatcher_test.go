// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package concurrent

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_Submit(t *testing.T) {
	d := NewDispatcher(2)

	var ran atomic.Bool
	done := make(chan struct{})

	err := d.Submit(context.Background(), "job-1", func(ctx context.Context) {
		ran.Store(true)
		close(done)
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not run")
	}
	assert.True(t, ran.Load())
}

func TestDispatcher_JobSurvivesCallerCancellation(t *testing.T) {
	d := NewDispatcher(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	canceled := make(chan bool, 1)
	err := d.Submit(ctx, "job-1", func(jobCtx context.Context) {
		canceled <- jobCtx.Err() != nil
	})
	require.NoError(t, err)

	select {
	case wasCanceled := <-canceled:
		assert.False(t, wasCanceled, "job context must be detached from the caller's")
	case <-time.After(time.Second):
		t.Fatal("job did not run")
	}
}

func TestDispatcher_RecoversPanic(t *testing.T) {
	d := NewDispatcher(1)

	require.NoError(t, d.Submit(context.Background(), "job-1", func(ctx context.Context) {
		panic("bad payload")
	}))

	// Shutdown waits for the panicking job; reaching here without the test
	// process dying is the assertion.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(ctx))
}

func TestDispatcher_RejectsAfterShutdown(t *testing.T) {
	d := NewDispatcher(1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(ctx))

	err := d.Submit(context.Background(), "job-1", func(ctx context.Context) {})
	require.Error(t, err)
}

func TestDispatcher_ShutdownWaitsForInflightJobs(t *testing.T) {
	d := NewDispatcher(2)

	var finished atomic.Int32
	release := make(chan struct{})

	for i := 0; i < 2; i++ {
		require.NoError(t, d.Submit(context.Background(), "job", func(ctx context.Context) {
			<-release
			finished.Add(1)
		}))
	}

	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(ctx))
	assert.Equal(t, int32(2), finished.Load())
}
