/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

// Package detector finds work the rest of the system has silently lost:
// agents that stopped heartbeating, detached jobs whose recovery window
// lapsed, and processing jobs making no progress.
package detector

import (
	"context"
	"time"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/klog/v2"

	commonconfig "github.com/hive-agents/HIVE/pkg/config"
	dbclient "github.com/hive-agents/HIVE/pkg/database/client"
	"github.com/hive-agents/HIVE/pkg/metrics"
)

// Store is the slice of the persistence gateway the detector needs.
type Store interface {
	MarkStaleAgentsOffline(ctx context.Context, threshold, grace time.Duration) ([]dbclient.OfflineVictim, error)
	FailExpiredRecoveries(ctx context.Context) ([]string, error)
	FailStalledJobs(ctx context.Context, escalation time.Duration) ([]string, error)
	SelectStuckJobs(ctx context.Context, threshold time.Duration) ([]*dbclient.StuckJob, error)
}

type Detector struct {
	store      Store
	liveness   time.Duration
	grace      time.Duration
	escalation time.Duration
	progress   time.Duration
	kicker     func()
}

// New builds the detector from configuration. kicker (optional) is invoked
// after a scan that detached a job, so the dispatcher retries immediately.
func New(store Store, kicker func()) *Detector {
	return &Detector{
		store:      store,
		liveness:   time.Duration(commonconfig.GetAgentLivenessThresholdSecond()) * time.Second,
		grace:      time.Duration(commonconfig.GetAgentRecoveryGraceSecond()) * time.Second,
		escalation: time.Duration(commonconfig.GetEscalationThresholdMinute()) * time.Minute,
		progress:   time.Duration(commonconfig.GetProgressThresholdMinute()) * time.Minute,
		kicker:     kicker,
	}
}

// NewWithThresholds is the test constructor.
func NewWithThresholds(store Store, liveness, grace, escalation, progress time.Duration, kicker func()) *Detector {
	return &Detector{
		store: store, liveness: liveness, grace: grace,
		escalation: escalation, progress: progress, kicker: kicker,
	}
}

// Scan runs the three passes. Each pass is individually idempotent and a
// pass failure does not stop the following ones; all errors are aggregated.
func (d *Detector) Scan(ctx context.Context) error {
	var errs []error

	victims, err := d.store.MarkStaleAgentsOffline(ctx, d.liveness, d.grace)
	if err != nil {
		errs = append(errs, err)
	}
	detached := false
	for _, v := range victims {
		metrics.AgentsOffline.Inc()
		if v.JobWasDetached {
			detached = true
		}
	}

	expired, err := d.store.FailExpiredRecoveries(ctx)
	if err != nil {
		errs = append(errs, err)
	}
	for range expired {
		metrics.JobsFailedByDetector.WithLabelValues(dbclient.ReasonAgentOffline).Inc()
	}

	stalled, err := d.store.FailStalledJobs(ctx, d.escalation)
	if err != nil {
		errs = append(errs, err)
	}
	for range stalled {
		metrics.JobsFailedByDetector.WithLabelValues(dbclient.ReasonNoProgress).Inc()
	}

	if detached && d.kicker != nil {
		d.kicker()
	}
	if len(victims) > 0 || len(expired) > 0 || len(stalled) > 0 {
		klog.Infof("detector scan: %d agents offline, %d recoveries expired, %d jobs stalled",
			len(victims), len(expired), len(stalled))
	}
	return utilerrors.NewAggregate(errs)
}

// Report returns the current stuck-work view. Read-only; nothing is
// persisted or transitioned.
func (d *Detector) Report(ctx context.Context) ([]*dbclient.StuckJob, error) {
	return d.store.SelectStuckJobs(ctx, d.progress)
}
