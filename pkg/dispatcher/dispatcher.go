/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

// Package dispatcher pairs created jobs with ready agents. The pairing
// itself commits in one store transaction; start commands fan out
// afterwards, and a failed start rolls its pair back so the job can be
// re-dispatched.
package dispatcher

import (
	"context"
	"sync/atomic"

	"k8s.io/klog/v2"

	"github.com/hive-agents/HIVE/pkg/agentclient"
	commonconfig "github.com/hive-agents/HIVE/pkg/config"
	"github.com/hive-agents/HIVE/pkg/concurrent"
	dbclient "github.com/hive-agents/HIVE/pkg/database/client"
	"github.com/hive-agents/HIVE/pkg/metrics"
)

// Store is the slice of the persistence gateway the dispatcher needs.
type Store interface {
	ClaimCreatedJobs(ctx context.Context, batchSize int) ([]dbclient.DispatchPair, error)
	RollbackDispatch(ctx context.Context, jobId, agentId string, maxAttempts int) (bool, error)
}

type Dispatcher struct {
	store       Store
	agents      agentclient.Interface
	batchSize   int
	maxAttempts int
	kick        chan struct{}
}

func New(store Store, agents agentclient.Interface) *Dispatcher {
	return NewWithLimits(store, agents,
		commonconfig.GetDispatchBatchSize(), commonconfig.GetDispatchMaxAttempts())
}

func NewWithLimits(store Store, agents agentclient.Interface, batchSize, maxAttempts int) *Dispatcher {
	return &Dispatcher{
		store:       store,
		agents:      agents,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
		kick:        make(chan struct{}, 1),
	}
}

// Kick requests an immediate dispatch pass. Non-blocking; a pending kick
// absorbs further ones.
func (d *Dispatcher) Kick() {
	select {
	case d.kick <- struct{}{}:
	default:
	}
}

// KickChan is drained by the scheduler to trigger out-of-cadence ticks.
func (d *Dispatcher) KickChan() <-chan struct{} {
	return d.kick
}

// Tick runs one dispatch pass: claim pairs, then deliver start commands in
// parallel. Jobs whose start delivery fails are rolled back to created (or
// failed for good once the attempt budget is spent), and the pass reports
// only infrastructure errors; per-pair start failures are handled in place.
func (d *Dispatcher) Tick(ctx context.Context) error {
	pairs, err := d.store.ClaimCreatedJobs(ctx, d.batchSize)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		return nil
	}
	var retryable atomic.Bool
	_, _ = concurrent.ExecIndexed(len(pairs), func(i int) error {
		pair := pairs[i]
		if err := d.agents.Start(ctx, pair.Agent, pair.Job); err != nil {
			klog.ErrorS(err, "start command failed, rolling back dispatch",
				"job", pair.Job.JobId, "agent", pair.Agent.AgentId)
			metrics.DispatchFailures.WithLabelValues(dbclient.ReasonStartCommandFailed).Inc()
			jobFailed, rbErr := d.store.RollbackDispatch(ctx, pair.Job.JobId, pair.Agent.AgentId, d.maxAttempts)
			if rbErr != nil {
				klog.ErrorS(rbErr, "failed to roll back dispatch",
					"job", pair.Job.JobId, "agent", pair.Agent.AgentId)
				return rbErr
			}
			if jobFailed {
				metrics.DispatchFailures.WithLabelValues(dbclient.ReasonNoCompatibleAgent).Inc()
			} else {
				retryable.Store(true)
			}
			return err
		}
		metrics.DispatchedJobs.Inc()
		return nil
	})
	if retryable.Load() {
		// A rolled-back job is created again; retry without waiting a full
		// cadence interval.
		d.Kick()
	}
	return nil
}
