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
)

const (
	TAgent = "agents"
)

var (
	insertAgentFormat       = `INSERT INTO ` + TAgent + ` (%s) VALUES (%s)`
	getAgentCmd             = fmt.Sprintf(`SELECT * FROM %s WHERE agent_id = $1 LIMIT 1`, TAgent)
	getAgentForUpdateCmd    = fmt.Sprintf(`SELECT * FROM %s WHERE agent_id = $1 FOR UPDATE`, TAgent)
	getAgentByAddressCmd    = fmt.Sprintf(`SELECT * FROM %s WHERE hostname = $1 AND pod_ip = $2 AND pod_port = $3 FOR UPDATE`, TAgent)
	deleteAgentCmd          = fmt.Sprintf(`DELETE FROM %s WHERE agent_id = $1`, TAgent)
	reRegisterAgentCmd      = fmt.Sprintf(`UPDATE %s
		SET config_name = $2,
		    status = '%s',
		    current_job_id = NULL,
		    metadata = $3,
		    registered_at = NOW(),
		    last_heartbeat = NOW()
		WHERE agent_id = $1`, TAgent, AgentBooting)
	setAgentStatusAndJobCmd = fmt.Sprintf(`UPDATE %s SET status = $2, current_job_id = $3 WHERE agent_id = $1`, TAgent)
	heartbeatAgentCmd       = fmt.Sprintf(`UPDATE %s SET last_heartbeat = GREATEST(last_heartbeat, NOW()) WHERE agent_id = $1`, TAgent)
)

// RegisterAgent registers a pod, idempotently on its address tuple: an
// existing row with the same (hostname, pod_ip, pod_port) is reused in place
// with its state reset to booting and its job link cleared. Returns the
// agent id.
func (c *Client) RegisterAgent(ctx context.Context, configName, hostname, podIp string, podPort int,
	metadata []byte) (string, error) {
	if configName == "" {
		return "", commonerrors.NewBadRequest("config_name must not be empty")
	}
	if hostname == "" || podIp == "" || podPort <= 0 {
		return "", commonerrors.NewBadRequest("hostname, pod_ip and pod_port are required")
	}
	var agentId string
	err := c.execWithRetry(ctx, func(tx *sqlx.Tx) error {
		var existing []*Agent
		if err := tx.SelectContext(ctx, &existing, getAgentByAddressCmd, hostname, podIp, podPort); err != nil {
			return err
		}
		if len(existing) > 0 {
			agentId = existing[0].AgentId
			_, err := tx.ExecContext(ctx, reRegisterAgentCmd, agentId, configName, metadata)
			return err
		}
		now := time.Now().UTC()
		agent := &Agent{
			AgentId:       NewID("agent"),
			ConfigName:    configName,
			Hostname:      hostname,
			PodIp:         podIp,
			PodPort:       podPort,
			Status:        AgentBooting,
			Metadata:      metadata,
			RegisteredAt:  dbutils.NullTime(now),
			LastHeartbeat: dbutils.NullTime(now),
		}
		agentId = agent.AgentId
		_, err := tx.NamedExecContext(ctx, generateCommand(*agent, insertAgentFormat, ""), agent)
		return err
	})
	if err != nil {
		return "", err
	}
	klog.Infof("registered agent %s, config: %s, address: %s:%d", agentId, configName, podIp, podPort)
	return agentId, nil
}

// HeartbeatAgent records a liveness beat. last_heartbeat only moves forward
// (server clock, GREATEST guard), so late-arriving concurrent beats cannot
// rewind it. An absent or offline agent gets NotFound so the pod
// re-registers. A reported status is applied when the agent state machine
// allows it; a working agent reporting completed or failed reconciles its
// job through the same path as the explicit finish reports.
func (c *Client) HeartbeatAgent(ctx context.Context, agentId, reportedStatus string) error {
	return c.execWithRetry(ctx, func(tx *sqlx.Tx) error {
		agent, err := getAgentForUpdate(ctx, tx, agentId)
		if err != nil {
			return err
		}
		if agent.Status == AgentOffline {
			return commonerrors.NewNotFound(commonerrors.KindAgent, agentId)
		}
		if _, err = tx.ExecContext(ctx, heartbeatAgentCmd, agentId); err != nil {
			return err
		}
		if reportedStatus == "" || reportedStatus == agent.Status {
			return nil
		}
		if !IsValidAgentStatus(reportedStatus) {
			return commonerrors.NewBadRequest(fmt.Sprintf("invalid agent status %s", reportedStatus))
		}
		if !CanAgentTransition(agent.Status, reportedStatus) {
			// Stale or out-of-order report; the beat itself still counts.
			klog.V(4).Infof("agent %s heartbeat reports %s while %s, ignored", agentId, reportedStatus, agent.Status)
			return nil
		}
		jobLink := agent.CurrentJobId
		switch reportedStatus {
		case AgentReady:
			jobLink = sql.NullString{}
		case AgentCompleted, AgentFailed:
			if agent.Status == AgentWorking && agent.CurrentJobId.Valid {
				// Reconcile the linked job; the agent may have lost the
				// explicit report. Outcome follows the reported status.
				job, err := getJobForUpdate(ctx, tx, agent.CurrentJobId.String)
				if err != nil && !commonerrors.IsNotFound(err) {
					return err
				}
				if job != nil && job.Status == JobProcessing {
					outcome := JobCompleted
					if reportedStatus == AgentFailed {
						outcome = JobFailed
					}
					if err = transitionJob(ctx, tx, job, outcome, ""); err != nil {
						return err
					}
				}
			}
			jobLink = sql.NullString{}
		}
		return setAgentStatusAndJob(ctx, tx, agentId, reportedStatus, jobLink)
	})
}

// MarkAgentReady transitions booting -> ready.
func (c *Client) MarkAgentReady(ctx context.Context, agentId string) error {
	return c.execWithRetry(ctx, func(tx *sqlx.Tx) error {
		agent, err := getAgentForUpdate(ctx, tx, agentId)
		if err != nil {
			return err
		}
		if !CanAgentTransition(agent.Status, AgentReady) {
			return commonerrors.NewStateConflict(commonerrors.KindAgent, agentId,
				fmt.Sprintf("transition %s -> %s is not permitted", agent.Status, AgentReady))
		}
		return setAgentStatusAndJob(ctx, tx, agentId, AgentReady, sql.NullString{})
	})
}

// MarkAgentWorking transitions ready -> working and links the job. It
// rejects agents that are not ready or already hold a job; at most one of
// two concurrent attempts can win the row lock with status still ready.
func (c *Client) MarkAgentWorking(ctx context.Context, agentId, jobId string) error {
	return c.execWithRetry(ctx, func(tx *sqlx.Tx) error {
		agent, err := getAgentForUpdate(ctx, tx, agentId)
		if err != nil {
			return err
		}
		if agent.Status != AgentReady {
			return commonerrors.NewStateConflict(commonerrors.KindAgent, agentId,
				fmt.Sprintf("agent is %s, not ready", agent.Status))
		}
		if agent.CurrentJobId.Valid {
			return commonerrors.NewStateConflict(commonerrors.KindAgent, agentId,
				fmt.Sprintf("agent already holds job %s", agent.CurrentJobId.String))
		}
		return setAgentStatusAndJob(ctx, tx, agentId, AgentWorking, dbutils.NullString(jobId))
	})
}

// MarkAgentFinished transitions working -> completed|failed and clears the
// job link.
func (c *Client) MarkAgentFinished(ctx context.Context, agentId, outcome string) error {
	if outcome != AgentCompleted && outcome != AgentFailed {
		return commonerrors.NewBadRequest(fmt.Sprintf("invalid outcome %s", outcome))
	}
	return c.execWithRetry(ctx, func(tx *sqlx.Tx) error {
		agent, err := getAgentForUpdate(ctx, tx, agentId)
		if err != nil {
			return err
		}
		if !CanAgentTransition(agent.Status, outcome) {
			return commonerrors.NewStateConflict(commonerrors.KindAgent, agentId,
				fmt.Sprintf("transition %s -> %s is not permitted", agent.Status, outcome))
		}
		return setAgentStatusAndJob(ctx, tx, agentId, outcome, sql.NullString{})
	})
}

// RemoveAgent hard-deletes an agent record. Only permitted for agents that
// are not booting or holding work.
func (c *Client) RemoveAgent(ctx context.Context, agentId string) error {
	return c.execWithRetry(ctx, func(tx *sqlx.Tx) error {
		agent, err := getAgentForUpdate(ctx, tx, agentId)
		if err != nil {
			return err
		}
		switch agent.Status {
		case AgentOffline, AgentFailed, AgentCompleted:
		default:
			return commonerrors.NewStateConflict(commonerrors.KindAgent, agentId,
				fmt.Sprintf("cannot remove agent in state %s", agent.Status))
		}
		_, err = tx.ExecContext(ctx, deleteAgentCmd, agentId)
		return err
	})
}

func (c *Client) GetAgent(ctx context.Context, agentId string) (*Agent, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}
	var agents []*Agent
	if err = db.SelectContext(ctx, &agents, getAgentCmd, agentId); err != nil {
		return nil, dbutils.ClassifyPqError(err)
	}
	if len(agents) == 0 {
		return nil, commonerrors.NewNotFound(commonerrors.KindAgent, agentId)
	}
	return agents[0], nil
}

func (c *Client) SelectAgents(ctx context.Context, query sqrl.Sqlizer, orderBy []string, limit, offset int) ([]*Agent, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}
	builder := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("*").From(TAgent)
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
	var agents []*Agent
	if err = db.SelectContext(ctx, &agents, cmd, args...); err != nil {
		return nil, dbutils.ClassifyPqError(err)
	}
	return agents, nil
}

func (c *Client) CountAgents(ctx context.Context, query sqrl.Sqlizer) (int, error) {
	db, err := c.getDB()
	if err != nil {
		return 0, err
	}
	builder := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("COUNT(*)").From(TAgent)
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

// getAgentForUpdate loads an agent under a row lock inside the given
// transaction.
func getAgentForUpdate(ctx context.Context, tx *sqlx.Tx, agentId string) (*Agent, error) {
	var agents []*Agent
	if err := tx.SelectContext(ctx, &agents, getAgentForUpdateCmd, agentId); err != nil {
		return nil, err
	}
	if len(agents) == 0 {
		return nil, commonerrors.NewNotFound(commonerrors.KindAgent, agentId)
	}
	return agents[0], nil
}

func setAgentStatusAndJob(ctx context.Context, tx *sqlx.Tx, agentId, status string, jobId sql.NullString) error {
	_, err := tx.ExecContext(ctx, setAgentStatusAndJobCmd, agentId, status, jobId)
	return err
}

func clearAgentJobLink(ctx context.Context, tx *sqlx.Tx, agentId string) error {
	cmd := fmt.Sprintf(`UPDATE %s SET current_job_id = NULL WHERE agent_id = $1`, TAgent)
	_, err := tx.ExecContext(ctx, cmd, agentId)
	return err
}
