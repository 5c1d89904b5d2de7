/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

// Package scheduler runs the periodic background tasks. Each task gets
// overlap suppression (a tick is skipped while the previous run is still
// going), a failure gate (a task failing too many consecutive runs is
// paused), and an eager-run entry point for out-of-cadence kicks.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"k8s.io/klog/v2"

	commonconfig "github.com/hive-agents/HIVE/pkg/config"
	"github.com/hive-agents/HIVE/pkg/metrics"
)

type TaskFunc func(ctx context.Context) error

type task struct {
	name string
	fn   TaskFunc

	mu                  sync.Mutex // held for the duration of a run
	consecutiveFailures int
	pausedUntil         time.Time
}

type Scheduler struct {
	cron        *cron.Cron
	tasks       map[string]*task
	maxFailures int
	pause       time.Duration

	mu  sync.RWMutex
	ctx context.Context
}

func New() *Scheduler {
	return NewWithGate(commonconfig.GetTaskMaxConsecutiveFailures(),
		time.Duration(commonconfig.GetTaskPauseMinute())*time.Minute)
}

func NewWithGate(maxFailures int, pause time.Duration) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		tasks:       make(map[string]*task),
		maxFailures: maxFailures,
		pause:       pause,
		ctx:         context.Background(),
	}
}

// Register adds a task at the given cron spec (e.g. "@every 2s"). Must be
// called before Start.
func (s *Scheduler) Register(name, spec string, fn TaskFunc) error {
	if _, dup := s.tasks[name]; dup {
		return fmt.Errorf("task %s already registered", name)
	}
	t := &task{name: name, fn: fn}
	s.tasks[name] = t
	_, err := s.cron.AddFunc(spec, func() { s.run(t) })
	if err != nil {
		return fmt.Errorf("failed to schedule task %s: %v", name, err)
	}
	return nil
}

// Kick runs the named task immediately, through the same wrapper as a
// scheduled tick, so overlap suppression and the failure gate still hold.
func (s *Scheduler) Kick(name string) {
	t, ok := s.tasks[name]
	if !ok {
		klog.Warningf("kick for unknown task %s ignored", name)
		return
	}
	go s.run(t)
}

// Start begins scheduled execution. ctx bounds every task run and is
// observed on Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	s.cron.Start()
	klog.Infof("scheduler started with %d tasks", len(s.tasks))
}

// Stop halts scheduling and waits for in-flight runs to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	// Acquiring every task lock proves no run is still in progress.
	for _, t := range s.tasks {
		t.mu.Lock()
		t.mu.Unlock()
	}
	klog.Info("scheduler stopped")
}

func (s *Scheduler) run(t *task) {
	if !t.mu.TryLock() {
		metrics.SkippedTicks.WithLabelValues(t.name).Inc()
		klog.V(4).Infof("task %s still running, tick skipped", t.name)
		return
	}
	defer t.mu.Unlock()

	if now := time.Now(); now.Before(t.pausedUntil) {
		metrics.SkippedTicks.WithLabelValues(t.name).Inc()
		klog.V(4).Infof("task %s paused until %s, tick skipped", t.name, t.pausedUntil.Format(time.RFC3339))
		return
	}

	s.mu.RLock()
	ctx := s.ctx
	s.mu.RUnlock()
	if ctx.Err() != nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			klog.Errorf("task %s panicked: %v", t.name, r)
			metrics.TaskErrors.WithLabelValues(t.name).Inc()
			s.noteFailure(t)
		}
	}()

	if err := t.fn(ctx); err != nil {
		corr := uuid.New().String()[:8]
		klog.ErrorS(err, "background task failed", "task", t.name, "corr", corr)
		metrics.TaskErrors.WithLabelValues(t.name).Inc()
		s.noteFailure(t)
		return
	}
	t.consecutiveFailures = 0
}

// noteFailure is called with t.mu held.
func (s *Scheduler) noteFailure(t *task) {
	t.consecutiveFailures++
	if s.maxFailures > 0 && t.consecutiveFailures >= s.maxFailures {
		t.pausedUntil = time.Now().Add(s.pause)
		t.consecutiveFailures = 0
		klog.Warningf("task %s paused for %s after %d consecutive failures",
			t.name, s.pause, s.maxFailures)
	}
}
