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

	sqrl "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"k8s.io/klog/v2"

	dbutils "github.com/hive-agents/HIVE/pkg/database/utils"
	commonerrors "github.com/hive-agents/HIVE/pkg/errors"
	jsonutils "github.com/hive-agents/HIVE/pkg/json"
)

const (
	TJob = "jobs"
)

var (
	insertJobFormat    = `INSERT INTO ` + TJob + ` (%s) VALUES (%s)`
	getJobCmd          = fmt.Sprintf(`SELECT * FROM %s WHERE job_id = $1 LIMIT 1`, TJob)
	getJobForUpdateCmd = fmt.Sprintf(`SELECT * FROM %s WHERE job_id = $1 FOR UPDATE`, TJob)
	deleteJobCmd       = fmt.Sprintf(`DELETE FROM %s WHERE job_id = $1`, TJob)
)

func (c *Client) InsertJob(ctx context.Context, job *Job) error {
	if job == nil {
		return commonerrors.NewBadRequest("the input is empty")
	}
	db, err := c.getDB()
	if err != nil {
		return err
	}
	_, err = db.NamedExecContext(ctx, generateCommand(*job, insertJobFormat, ""), job)
	if err != nil {
		klog.ErrorS(err, "failed to insert job db", "id", job.JobId)
		return dbutils.ClassifyPqError(err)
	}
	return nil
}

func (c *Client) GetJob(ctx context.Context, jobId string) (*Job, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}
	var jobs []*Job
	if err = db.SelectContext(ctx, &jobs, getJobCmd, jobId); err != nil {
		return nil, dbutils.ClassifyPqError(err)
	}
	if len(jobs) == 0 {
		return nil, commonerrors.NewNotFound(commonerrors.KindJob, jobId)
	}
	return jobs[0], nil
}

func (c *Client) SelectJobs(ctx context.Context, query sqrl.Sqlizer, orderBy []string, limit, offset int) ([]*Job, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}
	builder := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("*").From(TJob)
	if query != nil {
		builder = builder.Where(query)
	}
	for _, order := range orderBy {
		builder = builder.OrderBy(order)
	}
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	if offset > 0 {
		builder = builder.Offset(uint64(offset))
	}
	cmd, args, err := builder.ToSql()
	if err != nil {
		return nil, commonerrors.NewInternalError(err.Error())
	}
	var jobs []*Job
	if err = db.SelectContext(ctx, &jobs, cmd, args...); err != nil {
		return nil, dbutils.ClassifyPqError(err)
	}
	return jobs, nil
}

func (c *Client) CountJobs(ctx context.Context, query sqrl.Sqlizer) (int, error) {
	db, err := c.getDB()
	if err != nil {
		return 0, err
	}
	builder := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("COUNT(*)").From(TJob)
	if query != nil {
		builder = builder.Where(query)
	}
	cmd, args, err := builder.ToSql()
	if err != nil {
		return 0, commonerrors.NewInternalError(err.Error())
	}
	var cnt int
	if err = db.GetContext(ctx, &cnt, cmd, args...); err != nil {
		return 0, dbutils.ClassifyPqError(err)
	}
	return cnt, nil
}

// DeleteJob removes a job and, via cascade, its requirements, sources,
// citations and graph changes. Only terminal jobs may be deleted.
func (c *Client) DeleteJob(ctx context.Context, jobId string) error {
	return c.execWithRetry(ctx, func(tx *sqlx.Tx) error {
		job, err := getJobForUpdate(ctx, tx, jobId)
		if err != nil {
			return err
		}
		if !IsJobTerminal(job.Status) {
			return commonerrors.NewStateConflict(commonerrors.KindJob, jobId,
				fmt.Sprintf("cannot delete job in state %s", job.Status))
		}
		_, err = tx.ExecContext(ctx, deleteJobCmd, jobId)
		return err
	})
}

// UpdateJobStatus performs a guarded state transition under a row lock.
// Side columns follow the target state: terminal states set completed_at and
// clear the agent link, created clears the link and keeps the job eligible
// for dispatch.
func (c *Client) UpdateJobStatus(ctx context.Context, jobId, target, reason string) error {
	return c.execWithRetry(ctx, func(tx *sqlx.Tx) error {
		job, err := getJobForUpdate(ctx, tx, jobId)
		if err != nil {
			return err
		}
		return transitionJob(ctx, tx, job, target, reason)
	})
}

// CancelJob cancels a job from created, processing or pending_review. The
// previously assigned agent, if any, is returned so the caller can push a
// cancel command to the pod.
func (c *Client) CancelJob(ctx context.Context, jobId string) (*Agent, error) {
	var agent *Agent
	err := c.execWithRetry(ctx, func(tx *sqlx.Tx) error {
		agent = nil
		job, err := getJobForUpdate(ctx, tx, jobId)
		if err != nil {
			return err
		}
		if !CanJobTransition(job.Status, JobCancelled) {
			return commonerrors.NewStateConflict(commonerrors.KindJob, jobId,
				fmt.Sprintf("cannot cancel job in state %s", job.Status))
		}
		if job.AssignedAgentId.Valid {
			agent, err = getAgentForUpdate(ctx, tx, job.AssignedAgentId.String)
			if err != nil && !commonerrors.IsNotFound(err) {
				return err
			}
			if agent != nil {
				if err = clearAgentJobLink(ctx, tx, agent.AgentId); err != nil {
					return err
				}
			}
		}
		return transitionJob(ctx, tx, job, JobCancelled, "")
	})
	if err != nil {
		return nil, err
	}
	return agent, nil
}

// FinishJobFromAgent records an agent-reported outcome: the job leaves
// processing for completed or failed and the agent leaves working in the
// same transaction, keeping the two link columns consistent.
func (c *Client) FinishJobFromAgent(ctx context.Context, jobId, agentId, outcome, errorMessage string,
	errorDetails interface{}, tokensUsed, requestCount int64) error {
	if outcome != JobCompleted && outcome != JobFailed {
		return commonerrors.NewBadRequest(fmt.Sprintf("invalid outcome %s", outcome))
	}
	return c.execWithRetry(ctx, func(tx *sqlx.Tx) error {
		job, err := getJobForUpdate(ctx, tx, jobId)
		if err != nil {
			return err
		}
		if job.Status != JobProcessing {
			return commonerrors.NewStateConflict(commonerrors.KindJob, jobId,
				fmt.Sprintf("cannot finish job in state %s", job.Status))
		}
		if job.AssignedAgentId.Valid && agentId != "" && job.AssignedAgentId.String != agentId {
			return commonerrors.NewStateConflict(commonerrors.KindJob, jobId,
				fmt.Sprintf("job is assigned to %s, not %s", job.AssignedAgentId.String, agentId))
		}
		if tokensUsed > 0 || requestCount > 0 {
			cmd := fmt.Sprintf(`UPDATE %s SET tokens_used = $2, request_count = $3 WHERE job_id = $1`, TJob)
			if _, err = tx.ExecContext(ctx, cmd, jobId, tokensUsed, requestCount); err != nil {
				return err
			}
		}
		if errorMessage != "" {
			cmd := fmt.Sprintf(`UPDATE %s SET error_message = $2, error_details = $3 WHERE job_id = $1`, TJob)
			if _, err = tx.ExecContext(ctx, cmd, jobId,
				dbutils.NullString(errorMessage), jsonutils.MarshalSilently(errorDetails)); err != nil {
				return err
			}
		}
		if job.AssignedAgentId.Valid {
			agent, err := getAgentForUpdate(ctx, tx, job.AssignedAgentId.String)
			if err != nil && !commonerrors.IsNotFound(err) {
				return err
			}
			if agent != nil && agent.Status == AgentWorking {
				agentTarget := AgentCompleted
				if outcome == JobFailed {
					agentTarget = AgentFailed
				}
				if err = setAgentStatusAndJob(ctx, tx, agent.AgentId, agentTarget, sql.NullString{}); err != nil {
					return err
				}
			}
		}
		return transitionJob(ctx, tx, job, outcome, "")
	})
}

// SetJobProgress records the per-role sub-states and usage counters an agent
// reports mid-run. It bumps updated_at, which is what the stuck-work
// detector watches as progress.
func (c *Client) SetJobProgress(ctx context.Context, jobId, creatorStatus, validatorStatus string,
	tokensUsed, requestCount int64) error {
	return c.execWithRetry(ctx, func(tx *sqlx.Tx) error {
		job, err := getJobForUpdate(ctx, tx, jobId)
		if err != nil {
			return err
		}
		if IsJobTerminal(job.Status) {
			return commonerrors.NewStateConflict(commonerrors.KindJob, jobId,
				fmt.Sprintf("job is already %s", job.Status))
		}
		if creatorStatus == "" {
			creatorStatus = job.CreatorStatus
		}
		if validatorStatus == "" {
			validatorStatus = job.ValidatorStatus
		}
		if tokensUsed <= 0 {
			tokensUsed = job.TokensUsed
		}
		if requestCount <= 0 {
			requestCount = job.RequestCount
		}
		cmd := fmt.Sprintf(`UPDATE %s
			SET creator_status = $2,
			    validator_status = $3,
			    tokens_used = $4,
			    request_count = $5,
			    updated_at = NOW()
			WHERE job_id = $1`, TJob)
		_, err = tx.ExecContext(ctx, cmd, jobId, creatorStatus, validatorStatus, tokensUsed, requestCount)
		return err
	})
}

// getJobForUpdate loads a job under a row lock inside the given transaction.
func getJobForUpdate(ctx context.Context, tx *sqlx.Tx, jobId string) (*Job, error) {
	var jobs []*Job
	if err := tx.SelectContext(ctx, &jobs, getJobForUpdateCmd, jobId); err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, commonerrors.NewNotFound(commonerrors.KindJob, jobId)
	}
	return jobs[0], nil
}

// transitionJob applies a guarded status change on a job already locked in
// tx. Terminal targets stamp completed_at and clear the agent link; a move
// back to created clears the link so the dispatcher can re-place the job.
func transitionJob(ctx context.Context, tx *sqlx.Tx, job *Job, target, reason string) error {
	if !CanJobTransition(job.Status, target) {
		return commonerrors.NewStateConflict(commonerrors.KindJob, job.JobId,
			fmt.Sprintf("transition %s -> %s is not permitted", job.Status, target))
	}
	set := `status = $2, updated_at = NOW()`
	args := []interface{}{job.JobId, target}
	switch {
	case IsJobTerminal(target):
		set += `, completed_at = NOW(), assigned_agent_id = NULL, recovery_deadline = NULL`
	case target == JobCreated:
		set += `, assigned_agent_id = NULL`
	}
	if reason != "" {
		set += fmt.Sprintf(`, error_details = $%d`, len(args)+1)
		args = append(args, jsonutils.MarshalSilently(map[string]string{"reason": reason}))
		if target == JobFailed {
			set += fmt.Sprintf(`, error_message = $%d`, len(args)+1)
			args = append(args, reason)
		}
	}
	cmd := fmt.Sprintf(`UPDATE %s SET %s WHERE job_id = $1`, TJob, set)
	if _, err := tx.ExecContext(ctx, cmd, args...); err != nil {
		return err
	}
	klog.Infof("job %s: %s -> %s", job.JobId, job.Status, target)
	return nil
}

// NewJob builds a job row with defaults applied. The caller validates the
// request fields beforehand.
func NewJob(description, uploadId, configName, context, instructions string) *Job {
	now := time.Now().UTC()
	return &Job{
		JobId:           NewID("job"),
		Description:     description,
		UploadId:        dbutils.NullString(uploadId),
		ConfigName:      configName,
		Context:         dbutils.NullString(context),
		Instructions:    dbutils.NullString(instructions),
		Status:          JobCreated,
		CreatorStatus:   RolePending,
		ValidatorStatus: RolePending,
		CreatedAt:       dbutils.NullTime(now),
		UpdatedAt:       dbutils.NullTime(now),
	}
}
