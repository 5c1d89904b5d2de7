/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package job_handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	dbclient "github.com/hive-agents/HIVE/pkg/database/client"
	commonerrors "github.com/hive-agents/HIVE/pkg/errors"
	"github.com/hive-agents/HIVE/pkg/handlers/job-handlers/types"
)

func (h *Handler) FreezeJob(c *gin.Context) {
	handle(c, h.freezeJob)
}

func (h *Handler) ApproveJob(c *gin.Context) {
	handle(c, h.approveJob)
}

func (h *Handler) ResumeJob(c *gin.Context) {
	handle(c, h.resumeJob)
}

// freezeJob stores the agent's checkpoint payload verbatim and parks the job
// for review. The payload is decoded only to verify its shape.
func (h *Handler) freezeJob(c *gin.Context) (interface{}, error) {
	jobId := c.Param(JobId)
	req := &types.FreezeRequest{}
	body, err := getBodyFromRequest(c.Request, req)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 || strings.TrimSpace(req.Summary) == "" {
		return nil, commonerrors.NewBadRequest("summary is required")
	}
	if err = h.dbClient.FreezeJob(c.Request.Context(), jobId, body); err != nil {
		return nil, err
	}
	klog.Infof("job %s frozen for review (phase %d)", jobId, req.PhaseNumber)
	return gin.H{}, nil
}

func (h *Handler) approveJob(c *gin.Context) (interface{}, error) {
	jobId := c.Param(JobId)
	agent, err := h.dbClient.ApproveJob(c.Request.Context(), jobId)
	if err != nil {
		return nil, err
	}
	if agent != nil {
		// The store already reflects the approval; delivery is best effort
		// and the agent reconciles via heartbeat if it misses the command.
		go func(agent *dbclient.Agent) {
			ctx, cancel := commandContext()
			defer cancel()
			if err := h.agents.Approve(ctx, agent, jobId); err != nil {
				klog.ErrorS(err, "failed to deliver approve command", "job", jobId, "agent", agent.AgentId)
			}
		}(agent)
	}
	klog.Infof("job %s approved", jobId)
	return gin.H{}, nil
}

// resumeJob sends review feedback back to the assigned agent. With no live
// agent the job is detached to created for re-dispatch; a failed delivery
// detaches it as well and fails the unresponsive agent.
func (h *Handler) resumeJob(c *gin.Context) (interface{}, error) {
	jobId := c.Param(JobId)
	req := &types.ResumeRequest{}
	if _, err := getBodyFromRequest(c.Request, req); err != nil {
		return nil, err
	}
	ctx := c.Request.Context()
	agent, err := h.dbClient.ResumeJob(ctx, jobId)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		// Detached back to created; let the dispatcher find a new agent.
		klog.Infof("job %s resumed without a live agent, re-queued", jobId)
		if h.kicker != nil {
			h.kicker()
		}
		return gin.H{}, nil
	}
	if err = h.agents.Resume(ctx, agent, jobId, req.Feedback); err != nil {
		klog.ErrorS(err, "failed to deliver resume command, detaching job",
			"job", jobId, "agent", agent.AgentId)
		if detachErr := h.dbClient.DetachJobToCreated(ctx, jobId, agent.AgentId); detachErr != nil {
			return nil, detachErr
		}
		if h.kicker != nil {
			h.kicker()
		}
		return gin.H{}, nil
	}
	klog.Infof("job %s resumed on agent %s", jobId, agent.AgentId)
	return gin.H{}, nil
}
