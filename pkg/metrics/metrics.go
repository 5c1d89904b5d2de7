/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	DispatchedJobs = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hive",
		Name:      "dispatched_jobs_total",
		Help:      "Number of jobs successfully paired with an agent.",
	})

	DispatchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hive",
		Name:      "dispatch_failures_total",
		Help:      "Number of failed start commands, by reason.",
	}, []string{"reason"})

	HeartbeatsReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hive",
		Name:      "heartbeats_received_total",
		Help:      "Number of agent heartbeats accepted.",
	})

	HeartbeatAssignmentDrift = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hive",
		Name:      "heartbeat_assignment_drift_total",
		Help:      "Number of heartbeats whose reported job differs from the store's assignment.",
	})

	AgentsOffline = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hive",
		Name:      "agents_offline_total",
		Help:      "Number of agents transitioned to offline by the detector.",
	})

	JobsFailedByDetector = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hive",
		Name:      "jobs_failed_by_detector_total",
		Help:      "Number of jobs force-failed by the detector, by reason.",
	}, []string{"reason"})

	SkippedTicks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hive",
		Name:      "scheduler_skipped_ticks_total",
		Help:      "Number of periodic task runs skipped because the previous run was still active or the task was paused.",
	}, []string{"task"})

	TaskErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hive",
		Name:      "scheduler_task_errors_total",
		Help:      "Number of background task runs that returned an error.",
	}, []string{"task"})
)

func init() {
	prometheus.MustRegister(
		DispatchedJobs,
		DispatchFailures,
		HeartbeatsReceived,
		HeartbeatAssignmentDrift,
		AgentsOffline,
		JobsFailedByDetector,
		SkippedTicks,
		TaskErrors,
	)
}
