/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"k8s.io/klog/v2"

	commonerrors "github.com/hive-agents/HIVE/pkg/errors"
	jsonutils "github.com/hive-agents/HIVE/pkg/json"
)

// OfflineVictim reports one agent transitioned to offline by the liveness
// scan, and the job that was detached from it, if any.
type OfflineVictim struct {
	AgentId        string
	DetachedJobId  string
	JobWasDetached bool
}

// Booting agents are excluded: the state machine has no booting->offline
// edge, and a wedged pod replaces itself by re-registering the same address.
var staleAgentsCmd = fmt.Sprintf(`SELECT * FROM %s
	WHERE status IN ('%s', '%s', '%s')
	  AND last_heartbeat < NOW() - $1::interval
	FOR UPDATE SKIP LOCKED`, TAgent, AgentReady, AgentWorking, AgentFailed)

var expiredRecoveryJobsCmd = fmt.Sprintf(`SELECT * FROM %s
	WHERE status = '%s'
	  AND recovery_deadline IS NOT NULL
	  AND recovery_deadline < NOW()
	FOR UPDATE SKIP LOCKED`, TJob, JobCreated)

var stalledJobsCmd = fmt.Sprintf(`SELECT * FROM %s
	WHERE status = '%s'
	  AND updated_at < NOW() - $1::interval
	FOR UPDATE SKIP LOCKED`, TJob, JobProcessing)

// MarkStaleAgentsOffline transitions every agent whose last heartbeat is
// older than threshold to offline. A working victim's processing job is
// detached back to created with a recovery deadline of now+grace, giving the
// dispatcher that long to re-place it. Idempotent: offline agents are not
// re-selected.
func (c *Client) MarkStaleAgentsOffline(ctx context.Context, threshold, grace time.Duration) ([]OfflineVictim, error) {
	var victims []OfflineVictim
	err := c.execWithRetry(ctx, func(tx *sqlx.Tx) error {
		victims = victims[:0]
		var agents []*Agent
		if err := tx.SelectContext(ctx, &agents, staleAgentsCmd, cvtInterval(threshold)); err != nil {
			return err
		}
		for _, agent := range agents {
			victim := OfflineVictim{AgentId: agent.AgentId}
			if agent.CurrentJobId.Valid {
				job, err := getJobForUpdate(ctx, tx, agent.CurrentJobId.String)
				if err != nil && !commonerrors.IsNotFound(err) {
					return err
				}
				if job != nil && job.Status == JobProcessing {
					cmd := fmt.Sprintf(`UPDATE %s
						SET status = '%s',
						    assigned_agent_id = NULL,
						    recovery_deadline = NOW() + $2::interval,
						    updated_at = NOW()
						WHERE job_id = $1`, TJob, JobCreated)
					if _, err = tx.ExecContext(ctx, cmd, job.JobId, cvtInterval(grace)); err != nil {
						return err
					}
					victim.DetachedJobId = job.JobId
					victim.JobWasDetached = true
				}
			}
			if err := setAgentStatusAndJob(ctx, tx, agent.AgentId, AgentOffline, sql.NullString{}); err != nil {
				return err
			}
			victims = append(victims, victim)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, v := range victims {
		if v.JobWasDetached {
			klog.Warningf("agent %s offline, job %s detached for recovery", v.AgentId, v.DetachedJobId)
		} else {
			klog.Warningf("agent %s offline", v.AgentId)
		}
	}
	return victims, nil
}

// FailExpiredRecoveries fails every detached job whose recovery grace window
// has lapsed without a compatible agent picking it up. Returns the failed
// job ids.
func (c *Client) FailExpiredRecoveries(ctx context.Context) ([]string, error) {
	var failed []string
	err := c.execWithRetry(ctx, func(tx *sqlx.Tx) error {
		failed = failed[:0]
		var jobs []*Job
		if err := tx.SelectContext(ctx, &jobs, expiredRecoveryJobsCmd); err != nil {
			return err
		}
		for _, job := range jobs {
			if err := failJobWithReason(ctx, tx, job.JobId, ReasonAgentOffline); err != nil {
				return err
			}
			failed = append(failed, job.JobId)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, id := range failed {
		klog.Warningf("job %s failed: recovery grace window expired", id)
	}
	return failed, nil
}

// FailStalledJobs escalates processing jobs whose updated_at has not
// advanced within the escalation threshold: the job fails with reason
// no_progress and its agent leaves working. Returns the failed job ids.
func (c *Client) FailStalledJobs(ctx context.Context, escalation time.Duration) ([]string, error) {
	var failed []string
	err := c.execWithRetry(ctx, func(tx *sqlx.Tx) error {
		failed = failed[:0]
		var jobs []*Job
		if err := tx.SelectContext(ctx, &jobs, stalledJobsCmd, cvtInterval(escalation)); err != nil {
			return err
		}
		for _, job := range jobs {
			if job.AssignedAgentId.Valid {
				agent, err := getAgentForUpdate(ctx, tx, job.AssignedAgentId.String)
				if err != nil && !commonerrors.IsNotFound(err) {
					return err
				}
				if agent != nil && agent.Status == AgentWorking {
					if err = setAgentStatusAndJob(ctx, tx, agent.AgentId, AgentFailed, sql.NullString{}); err != nil {
						return err
					}
				}
			}
			if err := failJobWithReason(ctx, tx, job.JobId, ReasonNoProgress); err != nil {
				return err
			}
			failed = append(failed, job.JobId)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, id := range failed {
		klog.Warningf("job %s failed: no progress past escalation threshold", id)
	}
	return failed, nil
}

// StuckJob is one entry of the on-demand stuck-work report.
type StuckJob struct {
	JobId          string `db:"job_id" json:"job_id"`
	Status         string `db:"status" json:"status"`
	ConfigName     string `db:"config_name" json:"config_name"`
	Classification string `db:"classification" json:"classification"`
	StalledMinutes int64  `db:"stalled_minutes" json:"stalled_minutes"`
}

const (
	StuckNoProgress = "no_progress"
	StuckUnassigned = "unassigned"
)

// SelectStuckJobs builds the stuck-work report without locking: processing
// jobs stale past the progress threshold, plus created jobs that have waited
// longer than the threshold without a compatible agent.
func (c *Client) SelectStuckJobs(ctx context.Context, threshold time.Duration) ([]*StuckJob, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}
	cmd := fmt.Sprintf(`SELECT job_id, status, config_name,
			CASE WHEN status = '%s' THEN '%s' ELSE '%s' END AS classification,
			CAST(EXTRACT(EPOCH FROM (NOW() - updated_at)) / 60 AS BIGINT) AS stalled_minutes
		FROM %s
		WHERE (status = '%s' AND updated_at < NOW() - $1::interval)
		   OR (status = '%s' AND created_at < NOW() - $1::interval)
		ORDER BY updated_at ASC`,
		JobProcessing, StuckNoProgress, StuckUnassigned, TJob, JobProcessing, JobCreated)
	var stuck []*StuckJob
	rows, err := db.QueryxContext(ctx, cmd, cvtInterval(threshold))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		s := &StuckJob{}
		if err = rows.StructScan(s); err != nil {
			return nil, err
		}
		stuck = append(stuck, s)
	}
	return stuck, rows.Err()
}

func failJobWithReason(ctx context.Context, tx *sqlx.Tx, jobId, reason string) error {
	cmd := fmt.Sprintf(`UPDATE %s
		SET status = '%s',
		    assigned_agent_id = NULL,
		    recovery_deadline = NULL,
		    error_message = $2,
		    error_details = $3,
		    completed_at = NOW(),
		    updated_at = NOW()
		WHERE job_id = $1`, TJob, JobFailed)
	_, err := tx.ExecContext(ctx, cmd, jobId, reason,
		jsonutils.MarshalSilently(map[string]string{"reason": reason}))
	return err
}

func cvtInterval(d time.Duration) string {
	return fmt.Sprintf("%d seconds", int64(d.Seconds()))
}
