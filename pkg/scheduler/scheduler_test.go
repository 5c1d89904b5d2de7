/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRejectsDuplicates(t *testing.T) {
	s := NewWithGate(5, time.Minute)
	require.NoError(t, s.Register("dispatcher", "@every 2s", func(context.Context) error { return nil }))
	err := s.Register("dispatcher", "@every 2s", func(context.Context) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegisterRejectsBadSpec(t *testing.T) {
	s := NewWithGate(5, time.Minute)
	err := s.Register("broken", "every 2 seconds", func(context.Context) error { return nil })
	require.Error(t, err)
}

func TestOverlappingRunIsSkipped(t *testing.T) {
	s := NewWithGate(5, time.Minute)
	release := make(chan struct{})
	var runs int32
	require.NoError(t, s.Register("slow", "@every 1h", func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		<-release
		return nil
	}))
	tk := s.tasks["slow"]

	done := make(chan struct{})
	go func() {
		s.run(tk)
		close(done)
	}()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 1 }, time.Second, time.Millisecond)

	// second tick while the first is still running
	s.run(tk)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))

	close(release)
	<-done
	s.run(tk)
	// release channel is closed, the third run returns immediately
	assert.Equal(t, int32(2), atomic.LoadInt32(&runs))
}

func TestFailureGatePausesTask(t *testing.T) {
	s := NewWithGate(3, 50*time.Millisecond)
	var runs int32
	require.NoError(t, s.Register("flaky", "@every 1h", func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		return errors.New("boom")
	}))
	tk := s.tasks["flaky"]

	for i := 0; i < 3; i++ {
		s.run(tk)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&runs))

	// paused: the next tick is swallowed
	s.run(tk)
	assert.Equal(t, int32(3), atomic.LoadInt32(&runs))

	time.Sleep(60 * time.Millisecond)
	s.run(tk)
	assert.Equal(t, int32(4), atomic.LoadInt32(&runs))
}

func TestSuccessResetsFailureCount(t *testing.T) {
	s := NewWithGate(3, time.Minute)
	var fail atomic.Bool
	fail.Store(true)
	var runs int32
	require.NoError(t, s.Register("recovering", "@every 1h", func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		if fail.Load() {
			return errors.New("boom")
		}
		return nil
	}))
	tk := s.tasks["recovering"]

	s.run(tk)
	s.run(tk)
	fail.Store(false)
	s.run(tk) // success clears the streak
	fail.Store(true)
	s.run(tk)
	s.run(tk)

	// never hit 3 consecutive failures, so nothing is paused
	assert.True(t, tk.pausedUntil.IsZero())
	assert.Equal(t, int32(5), atomic.LoadInt32(&runs))
}

func TestKickRunsTask(t *testing.T) {
	s := NewWithGate(5, time.Minute)
	var runs int32
	require.NoError(t, s.Register("dispatcher", "@every 1h", func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}))
	s.Start(context.Background())
	defer s.Stop()

	s.Kick("dispatcher")
	require.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 1 }, time.Second, time.Millisecond)

	// unknown names are ignored, not a panic
	s.Kick("no-such-task")
}

func TestPanickingTaskCountsAsFailure(t *testing.T) {
	s := NewWithGate(2, time.Minute)
	require.NoError(t, s.Register("panicky", "@every 1h", func(context.Context) error {
		panic("unexpected")
	}))
	tk := s.tasks["panicky"]

	s.run(tk)
	s.run(tk)
	assert.False(t, tk.pausedUntil.IsZero())
}

func TestStoppedContextSuppressesRuns(t *testing.T) {
	s := NewWithGate(5, time.Minute)
	var runs int32
	require.NoError(t, s.Register("late", "@every 1h", func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()
	s.run(s.tasks["late"])
	assert.Zero(t, atomic.LoadInt32(&runs))
	s.Stop()
}
