/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package agent_handlers

import (
	"context"
	"encoding/json"

	sqrl "github.com/Masterminds/squirrel"
	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	dbclient "github.com/hive-agents/HIVE/pkg/database/client"
	dbutils "github.com/hive-agents/HIVE/pkg/database/utils"
	commonerrors "github.com/hive-agents/HIVE/pkg/errors"
	"github.com/hive-agents/HIVE/pkg/handlers/agent-handlers/types"
	"github.com/hive-agents/HIVE/pkg/metrics"
)

func (h *Handler) RegisterAgent(c *gin.Context) {
	handle(c, h.registerAgent)
}

func (h *Handler) HeartbeatAgent(c *gin.Context) {
	handle(c, h.heartbeatAgent)
}

func (h *Handler) ListAgent(c *gin.Context) {
	handle(c, h.listAgent)
}

func (h *Handler) GetAgent(c *gin.Context) {
	handle(c, h.getAgent)
}

func (h *Handler) DeleteAgent(c *gin.Context) {
	handle(c, h.deleteAgent)
}

func (h *Handler) registerAgent(c *gin.Context) (interface{}, error) {
	req := &types.RegisterAgentRequest{}
	if err := getBodyFromRequest(c.Request, req); err != nil {
		return nil, err
	}
	// The config name is an opaque label; a matching agent_configs row is
	// optional and pods may register before an operator describes the config.
	if req.ConfigName == "" {
		return nil, commonerrors.NewBadRequest("config_name is required")
	}
	agentId, err := h.dbClient.RegisterAgent(c.Request.Context(), req.ConfigName, req.Hostname, req.PodIp,
		req.PodPort, req.Metadata)
	if err != nil {
		return nil, err
	}
	return &types.RegisterAgentResponse{AgentId: agentId}, nil
}

// heartbeatAgent records liveness and any self-reported status change. A
// NotFound response tells the pod to re-register. A beat that moves the agent
// to ready nudges the dispatcher since new capacity just appeared.
func (h *Handler) heartbeatAgent(c *gin.Context) (interface{}, error) {
	agentId := c.Param(AgentId)
	req := &types.HeartbeatRequest{}
	if err := getBodyFromRequest(c.Request, req); err != nil {
		return nil, err
	}
	if req.Status != "" && !dbclient.IsValidAgentStatus(req.Status) {
		return nil, commonerrors.NewBadRequest("invalid status " + req.Status)
	}
	ctx := c.Request.Context()
	if err := h.dbClient.HeartbeatAgent(ctx, agentId, req.Status); err != nil {
		return nil, err
	}
	metrics.HeartbeatsReceived.Inc()
	if req.CurrentJobId != "" {
		h.noteAssignmentDrift(ctx, agentId, req.CurrentJobId)
	}
	if req.Status == dbclient.AgentReady && h.kicker != nil {
		h.kicker()
	}
	return gin.H{}, nil
}

// noteAssignmentDrift compares the job a pod claims against the store's
// assignment. Drift happens when the detector recovered a job while its
// agent was unreachable; the detector resolves it, this surfaces it.
func (h *Handler) noteAssignmentDrift(ctx context.Context, agentId, reportedJobId string) {
	agent, err := h.dbClient.GetAgent(ctx, agentId)
	if err != nil {
		return
	}
	if assigned := dbutils.ParseNullString(agent.CurrentJobId); assigned != reportedJobId {
		metrics.HeartbeatAssignmentDrift.Inc()
		klog.Warningf("agent %s reports job %s but the store assigns %q", agentId, reportedJobId, assigned)
	}
}

func (h *Handler) listAgent(c *gin.Context) (interface{}, error) {
	query := &types.ListAgentQuery{}
	if err := c.ShouldBindQuery(query); err != nil {
		return nil, commonerrors.NewBadRequest(err.Error())
	}
	dbSql, err := cvtToListAgentSql(query)
	if err != nil {
		return nil, err
	}
	ctx := c.Request.Context()
	agents, err := h.dbClient.SelectAgents(ctx, dbSql,
		[]string{dbclient.RegisteredAt + " DESC"}, query.Limit, query.Offset)
	if err != nil {
		return nil, err
	}
	result := &types.ListAgentResponse{Items: []types.AgentItem{}}
	if result.TotalCount, err = h.dbClient.CountAgents(ctx, dbSql); err != nil {
		return nil, err
	}
	for _, agent := range agents {
		result.Items = append(result.Items, cvtAgentToItem(agent))
	}
	return result, nil
}

func (h *Handler) getAgent(c *gin.Context) (interface{}, error) {
	agent, err := h.dbClient.GetAgent(c.Request.Context(), c.Param(AgentId))
	if err != nil {
		return nil, err
	}
	item := cvtAgentToItem(agent)
	return &item, nil
}

func (h *Handler) deleteAgent(c *gin.Context) (interface{}, error) {
	agentId := c.Param(AgentId)
	if err := h.dbClient.RemoveAgent(c.Request.Context(), agentId); err != nil {
		return nil, err
	}
	klog.Infof("agent %s removed", agentId)
	return gin.H{}, nil
}

func cvtToListAgentSql(query *types.ListAgentQuery) (sqrl.Sqlizer, error) {
	conditions := sqrl.And{}
	if query.Status != "" {
		if !dbclient.IsValidAgentStatus(query.Status) {
			return nil, commonerrors.NewBadRequest("invalid status " + query.Status)
		}
		conditions = append(conditions, sqrl.Eq{"status": query.Status})
	}
	if query.ConfigName != "" {
		conditions = append(conditions, sqrl.Eq{"config_name": query.ConfigName})
	}
	if len(conditions) == 0 {
		return nil, nil
	}
	return conditions, nil
}

func cvtAgentToItem(agent *dbclient.Agent) types.AgentItem {
	return types.AgentItem{
		AgentId:       agent.AgentId,
		ConfigName:    agent.ConfigName,
		Hostname:      agent.Hostname,
		PodIp:         agent.PodIp,
		PodPort:       agent.PodPort,
		Status:        agent.Status,
		CurrentJobId:  dbutils.ParseNullString(agent.CurrentJobId),
		Metadata:      json.RawMessage(agent.Metadata),
		RegisteredAt:  dbutils.ParseNullTimeToString(agent.RegisteredAt),
		LastHeartbeat: dbutils.ParseNullTimeToString(agent.LastHeartbeat),
	}
}
