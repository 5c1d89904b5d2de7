/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"k8s.io/klog/v2"

	dbutils "github.com/hive-agents/HIVE/pkg/database/utils"
	commonerrors "github.com/hive-agents/HIVE/pkg/errors"
	jsonutils "github.com/hive-agents/HIVE/pkg/json"
)

// DispatchPair is one job/agent match produced by a claim.
type DispatchPair struct {
	Job   *Job
	Agent *Agent
}

var (
	claimJobsCmd = fmt.Sprintf(`SELECT * FROM %s
		WHERE status = '%s'
		ORDER BY created_at ASC, job_id ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED`, TJob, JobCreated)

	// Freshest heartbeat first: prefer the pod most recently known alive.
	// Agents locked earlier in the same transaction are excluded explicitly
	// since SKIP LOCKED does not skip our own locks.
	claimAgentCmd = fmt.Sprintf(`SELECT * FROM %s
		WHERE status = '%s'
		  AND config_name = $1
		  AND current_job_id IS NULL
		  AND agent_id <> ALL($2)
		ORDER BY last_heartbeat DESC
		LIMIT 1
		FOR UPDATE SKIP LOCKED`, TAgent, AgentReady)

	assignJobCmd = fmt.Sprintf(`UPDATE %s
		SET status = '%s',
		    assigned_agent_id = $2,
		    recovery_deadline = NULL,
		    updated_at = NOW()
		WHERE job_id = $1`, TJob, JobProcessing)
)

// ClaimCreatedJobs runs one dispatch claim: in a single transaction it locks
// up to batchSize created jobs (oldest first, skip-locked) and pairs each
// with the freshest compatible ready agent. Matched pairs commit atomically
// as processing/working; jobs with no compatible agent stay created and are
// simply skipped. The returned pairs reflect the committed state.
func (c *Client) ClaimCreatedJobs(ctx context.Context, batchSize int) ([]DispatchPair, error) {
	if batchSize <= 0 {
		batchSize = 16
	}
	var pairs []DispatchPair
	err := c.execWithRetry(ctx, func(tx *sqlx.Tx) error {
		pairs = pairs[:0]
		var jobs []*Job
		if err := tx.SelectContext(ctx, &jobs, claimJobsCmd, batchSize); err != nil {
			return err
		}
		claimed := []string{""}
		for _, job := range jobs {
			if job.Status != JobCreated {
				continue
			}
			var agents []*Agent
			if err := tx.SelectContext(ctx, &agents, claimAgentCmd, job.ConfigName, pq.Array(claimed)); err != nil {
				return err
			}
			if len(agents) == 0 {
				continue
			}
			agent := agents[0]
			if _, err := tx.ExecContext(ctx, assignJobCmd, job.JobId, agent.AgentId); err != nil {
				return err
			}
			if err := setAgentStatusAndJob(ctx, tx, agent.AgentId, AgentWorking, dbutils.NullString(job.JobId)); err != nil {
				return err
			}
			claimed = append(claimed, agent.AgentId)
			job.Status = JobProcessing
			job.AssignedAgentId = dbutils.NullString(agent.AgentId)
			agent.Status = AgentWorking
			agent.CurrentJobId = dbutils.NullString(job.JobId)
			pairs = append(pairs, DispatchPair{Job: job, Agent: agent})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, p := range pairs {
		klog.Infof("dispatched job %s to agent %s (config: %s)", p.Job.JobId, p.Agent.AgentId, p.Job.ConfigName)
	}
	return pairs, nil
}

// RollbackDispatch undoes an assignment whose start command could not be
// delivered. The job returns to created with its attempt counter bumped;
// after maxAttempts failed dispatches it fails for good. The agent is marked
// failed so the dispatcher stops picking it. Returns true when the job was
// failed terminally.
func (c *Client) RollbackDispatch(ctx context.Context, jobId, agentId string, maxAttempts int) (bool, error) {
	jobFailed := false
	err := c.execWithRetry(ctx, func(tx *sqlx.Tx) error {
		jobFailed = false
		job, err := getJobForUpdate(ctx, tx, jobId)
		if err != nil {
			return err
		}
		if job.Status != JobProcessing || !job.AssignedAgentId.Valid || job.AssignedAgentId.String != agentId {
			// Someone else already moved the job; nothing to undo.
			return nil
		}
		attempts := job.DispatchAttempts + 1
		details := jsonutils.MarshalSilently(map[string]interface{}{
			"reason":            ReasonStartCommandFailed,
			"dispatch_attempts": attempts,
		})
		if maxAttempts > 0 && attempts >= maxAttempts {
			jobFailed = true
			cmd := fmt.Sprintf(`UPDATE %s
				SET status = '%s',
				    assigned_agent_id = NULL,
				    dispatch_attempts = $2,
				    error_message = '%s',
				    error_details = $3,
				    completed_at = NOW(),
				    updated_at = NOW()
				WHERE job_id = $1`, TJob, JobFailed, ReasonNoCompatibleAgent)
			if _, err = tx.ExecContext(ctx, cmd, jobId, attempts,
				jsonutils.MarshalSilently(map[string]interface{}{
					"reason":            ReasonNoCompatibleAgent,
					"dispatch_attempts": attempts,
				})); err != nil {
				return err
			}
		} else {
			cmd := fmt.Sprintf(`UPDATE %s
				SET status = '%s',
				    assigned_agent_id = NULL,
				    dispatch_attempts = $2,
				    error_details = $3,
				    updated_at = NOW()
				WHERE job_id = $1`, TJob, JobCreated)
			if _, err = tx.ExecContext(ctx, cmd, jobId, attempts, details); err != nil {
				return err
			}
		}
		agent, err := getAgentForUpdate(ctx, tx, agentId)
		if err != nil {
			if commonerrors.IsNotFound(err) {
				return nil
			}
			return err
		}
		if agent.Status == AgentWorking {
			if err = setAgentStatusAndJob(ctx, tx, agentId, AgentFailed, sql.NullString{}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	klog.Warningf("rolled back dispatch of job %s from agent %s (terminally failed: %v)", jobId, agentId, jobFailed)
	return jobFailed, nil
}
