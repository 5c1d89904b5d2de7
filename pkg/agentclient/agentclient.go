/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

// Package agentclient sends lifecycle commands to agent pods. Commands are
// acknowledged by any 2xx response; an acknowledged command is never
// re-sent. Non-2xx responses and transport errors are retried until the
// attempt budget is spent, then surfaced to the caller, which decides the
// state consequence (dispatch rollback, detach, log-only).
package agentclient

import (
	"context"
	"fmt"
	"time"

	"k8s.io/klog/v2"

	commonbackoff "github.com/hive-agents/HIVE/pkg/backoff"
	commonconfig "github.com/hive-agents/HIVE/pkg/config"
	dbclient "github.com/hive-agents/HIVE/pkg/database/client"
	dbutils "github.com/hive-agents/HIVE/pkg/database/utils"
	"github.com/hive-agents/HIVE/pkg/httpclient"
)

const (
	pathRun     = "/run"
	pathCancel  = "/cancel"
	pathResume  = "/resume"
	pathApprove = "/approve"

	// Start waits are fixed 1s then 2s. The other commands use a jittered
	// exponential schedule so concurrent retries do not align.
	startInitialWait   = 1 * time.Second
	commandInitialWait = 250 * time.Millisecond
	commandJitter      = 0.2
)

type Interface interface {
	Start(ctx context.Context, agent *dbclient.Agent, job *dbclient.Job) error
	Cancel(ctx context.Context, agent *dbclient.Agent, jobId string) error
	Resume(ctx context.Context, agent *dbclient.Agent, jobId, feedback string) error
	Approve(ctx context.Context, agent *dbclient.Agent, jobId string) error
}

// startRequest is the job payload delivered with the run command. The job
// description travels as the agent's prompt.
type startRequest struct {
	JobId        string `json:"job_id"`
	Prompt       string `json:"prompt"`
	ConfigName   string `json:"config_name"`
	Context      string `json:"context,omitempty"`
	Instructions string `json:"instructions,omitempty"`
	UploadId     string `json:"upload_id,omitempty"`
}

type commandRequest struct {
	JobId    string `json:"job_id"`
	Feedback string `json:"feedback,omitempty"`
}

type agentClient struct {
	http   httpclient.Interface
	maxTry uint64
}

// New builds the command client from configuration. The HTTP layer runs
// with maxTry=1 so the retry budget here counts transport attempts exactly.
func New() Interface {
	return &agentClient{
		http: httpclient.NewHttpClientWithTimeout(
			time.Duration(commonconfig.GetAgentRequestTimeoutSecond())*time.Second,
			time.Duration(commonconfig.GetAgentConnectTimeoutSecond())*time.Second,
			1),
		maxTry: uint64(commonconfig.GetAgentMaxTry()),
	}
}

// NewWithHttp is the test constructor.
func NewWithHttp(http httpclient.Interface, maxTry int) Interface {
	return &agentClient{http: http, maxTry: uint64(maxTry)}
}

func (a *agentClient) Start(ctx context.Context, agent *dbclient.Agent, job *dbclient.Job) error {
	body := &startRequest{
		JobId:        job.JobId,
		Prompt:       job.Description,
		ConfigName:   job.ConfigName,
		Context:      dbutils.ParseNullString(job.Context),
		Instructions: dbutils.ParseNullString(job.Instructions),
		UploadId:     dbutils.ParseNullString(job.UploadId),
	}
	// RetryN with a 2s interval cap yields the fixed 1s, 2s waits.
	return commonbackoff.RetryN(func() error {
		return a.post(ctx, agent, pathRun, job.JobId, body)
	}, a.maxTry, startInitialWait, 2*startInitialWait)
}

func (a *agentClient) Cancel(ctx context.Context, agent *dbclient.Agent, jobId string) error {
	return a.retryCommand(ctx, agent, pathCancel, &commandRequest{JobId: jobId})
}

func (a *agentClient) Resume(ctx context.Context, agent *dbclient.Agent, jobId, feedback string) error {
	return a.retryCommand(ctx, agent, pathResume, &commandRequest{JobId: jobId, Feedback: feedback})
}

func (a *agentClient) Approve(ctx context.Context, agent *dbclient.Agent, jobId string) error {
	return a.retryCommand(ctx, agent, pathApprove, &commandRequest{JobId: jobId})
}

func (a *agentClient) retryCommand(ctx context.Context, agent *dbclient.Agent, path string, body *commandRequest) error {
	return commonbackoff.RetryNotifyN(func() error {
		return a.post(ctx, agent, path, body.JobId, body)
	}, a.maxTry, commandInitialWait, commandJitter, func(err error, wait time.Duration) {
		klog.V(4).InfoS("agent command attempt failed, retrying",
			"agent", agent.AgentId, "path", path, "wait", wait, "err", err)
	})
}

func (a *agentClient) post(ctx context.Context, agent *dbclient.Agent, path, jobId string, body interface{}) error {
	result, err := a.http.PostCtx(ctx, agent.Address()+path, body)
	if err != nil {
		return fmt.Errorf("agent %s unreachable on %s: %v", agent.AgentId, path, err)
	}
	if !result.IsSuccess() {
		return fmt.Errorf("agent %s rejected %s for job %s: status %d",
			agent.AgentId, path, jobId, result.StatusCode)
	}
	return nil
}
