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
	"k8s.io/klog/v2"

	commonerrors "github.com/hive-agents/HIVE/pkg/errors"
)

// FreezeJob stores the agent's checkpoint payload verbatim and moves the job
// from processing to pending_review. The agent keeps its working status and
// the job link until the review resolves.
func (c *Client) FreezeJob(ctx context.Context, jobId string, frozenData []byte) error {
	return c.execWithRetry(ctx, func(tx *sqlx.Tx) error {
		job, err := getJobForUpdate(ctx, tx, jobId)
		if err != nil {
			return err
		}
		if job.Status != JobProcessing {
			return commonerrors.NewStateConflict(commonerrors.KindJob, jobId,
				fmt.Sprintf("cannot freeze job in state %s", job.Status))
		}
		cmd := fmt.Sprintf(`UPDATE %s
			SET status = '%s',
			    frozen_job_data = $2,
			    updated_at = NOW()
			WHERE job_id = $1`, TJob, JobPendingReview)
		if _, err = tx.ExecContext(ctx, cmd, jobId, frozenData); err != nil {
			return err
		}
		klog.Infof("job %s frozen for review", jobId)
		return nil
	})
}

// ApproveJob resolves a review as accepted: pending_review -> completed,
// agent link cleared on both sides in one transaction. The released agent is
// returned so the caller can push the approve command; a missing agent is
// not an error.
func (c *Client) ApproveJob(ctx context.Context, jobId string) (*Agent, error) {
	var agent *Agent
	err := c.execWithRetry(ctx, func(tx *sqlx.Tx) error {
		agent = nil
		job, err := getJobForUpdate(ctx, tx, jobId)
		if err != nil {
			return err
		}
		if job.Status != JobPendingReview {
			return commonerrors.NewStateConflict(commonerrors.KindJob, jobId,
				fmt.Sprintf("cannot approve job in state %s", job.Status))
		}
		if job.AssignedAgentId.Valid {
			agent, err = getAgentForUpdate(ctx, tx, job.AssignedAgentId.String)
			if err != nil && !commonerrors.IsNotFound(err) {
				return err
			}
			if agent != nil && agent.Status == AgentWorking {
				if err = setAgentStatusAndJob(ctx, tx, agent.AgentId, AgentCompleted, sql.NullString{}); err != nil {
					return err
				}
			}
		}
		return transitionJob(ctx, tx, job, JobCompleted, "")
	})
	if err != nil {
		return nil, err
	}
	return agent, nil
}

// ResumeJob resolves a review as continue-working. When the assigned agent
// is still live, the job returns to processing and the agent is returned so
// the caller can forward the feedback. When the agent is gone or offline,
// the job is detached back to created for the dispatcher to re-place, and
// (nil, nil) is returned.
func (c *Client) ResumeJob(ctx context.Context, jobId string) (*Agent, error) {
	var agent *Agent
	err := c.execWithRetry(ctx, func(tx *sqlx.Tx) error {
		agent = nil
		job, err := getJobForUpdate(ctx, tx, jobId)
		if err != nil {
			return err
		}
		if job.Status != JobPendingReview {
			return commonerrors.NewStateConflict(commonerrors.KindJob, jobId,
				fmt.Sprintf("cannot resume job in state %s", job.Status))
		}
		if job.AssignedAgentId.Valid {
			agent, err = getAgentForUpdate(ctx, tx, job.AssignedAgentId.String)
			if err != nil && !commonerrors.IsNotFound(err) {
				return err
			}
		}
		if agent == nil || agent.Status == AgentOffline {
			// No one to hand the feedback to; re-queue for dispatch.
			if agent != nil {
				if err = clearAgentJobLink(ctx, tx, agent.AgentId); err != nil {
					return err
				}
			}
			agent = nil
			return transitionJob(ctx, tx, job, JobCreated, "")
		}
		return transitionJob(ctx, tx, job, JobProcessing, "")
	})
	if err != nil {
		return nil, err
	}
	return agent, nil
}

// DetachJobToCreated breaks an assignment after a failed outbound command:
// the job returns to created and the agent is marked failed. Used by the
// resume path when the feedback could not be delivered.
func (c *Client) DetachJobToCreated(ctx context.Context, jobId, agentId string) error {
	return c.execWithRetry(ctx, func(tx *sqlx.Tx) error {
		job, err := getJobForUpdate(ctx, tx, jobId)
		if err != nil {
			return err
		}
		if IsJobTerminal(job.Status) || job.Status == JobCreated {
			return nil
		}
		if agentId != "" {
			agent, err := getAgentForUpdate(ctx, tx, agentId)
			if err != nil && !commonerrors.IsNotFound(err) {
				return err
			}
			if agent != nil && agent.Status == AgentWorking {
				if err = setAgentStatusAndJob(ctx, tx, agentId, AgentFailed, sql.NullString{}); err != nil {
					return err
				}
			}
		}
		return transitionJob(ctx, tx, job, JobCreated, ReasonResumeFailed)
	})
}
