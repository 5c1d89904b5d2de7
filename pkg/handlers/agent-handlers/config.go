/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package agent_handlers

import (
	"encoding/json"
	"strings"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	dbclient "github.com/hive-agents/HIVE/pkg/database/client"
	dbutils "github.com/hive-agents/HIVE/pkg/database/utils"
	commonerrors "github.com/hive-agents/HIVE/pkg/errors"
	"github.com/hive-agents/HIVE/pkg/handlers/agent-handlers/types"
)

func (h *Handler) UpsertAgentConfig(c *gin.Context) {
	handle(c, h.upsertAgentConfig)
}

func (h *Handler) ListAgentConfig(c *gin.Context) {
	handle(c, h.listAgentConfig)
}

func (h *Handler) GetAgentConfig(c *gin.Context) {
	handle(c, h.getAgentConfig)
}

func (h *Handler) DeleteAgentConfig(c *gin.Context) {
	handle(c, h.deleteAgentConfig)
}

func (h *Handler) upsertAgentConfig(c *gin.Context) (interface{}, error) {
	req := &types.AgentConfigRequest{}
	if err := getBodyFromRequest(c.Request, req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.ConfigName) == "" {
		return nil, commonerrors.NewBadRequest("config_name is required")
	}
	config := &dbclient.AgentConfig{
		ConfigName:     req.ConfigName,
		DisplayName:    dbutils.NullString(req.DisplayName),
		Description:    dbutils.NullString(req.Description),
		ToolCategories: req.ToolCategories,
		Limits:         req.Limits,
	}
	if err := h.dbClient.UpsertAgentConfig(c.Request.Context(), config); err != nil {
		return nil, err
	}
	klog.Infof("agent config %s upserted", req.ConfigName)
	return gin.H{}, nil
}

func (h *Handler) listAgentConfig(c *gin.Context) (interface{}, error) {
	configs, err := h.dbClient.SelectAgentConfigs(c.Request.Context())
	if err != nil {
		return nil, err
	}
	result := &types.ListAgentConfigResponse{Items: []types.AgentConfigItem{}}
	for _, config := range configs {
		result.Items = append(result.Items, cvtConfigToItem(config))
	}
	return result, nil
}

func (h *Handler) getAgentConfig(c *gin.Context) (interface{}, error) {
	config, err := h.dbClient.GetAgentConfig(c.Request.Context(), c.Param(ConfigName))
	if err != nil {
		return nil, err
	}
	item := cvtConfigToItem(config)
	return &item, nil
}

func (h *Handler) deleteAgentConfig(c *gin.Context) (interface{}, error) {
	configName := c.Param(ConfigName)
	if err := h.dbClient.DeleteAgentConfig(c.Request.Context(), configName); err != nil {
		return nil, err
	}
	klog.Infof("agent config %s deleted", configName)
	return gin.H{}, nil
}

func cvtConfigToItem(config *dbclient.AgentConfig) types.AgentConfigItem {
	return types.AgentConfigItem{
		ConfigName:     config.ConfigName,
		DisplayName:    dbutils.ParseNullString(config.DisplayName),
		Description:    dbutils.ParseNullString(config.Description),
		ToolCategories: json.RawMessage(config.ToolCategories),
		Limits:         json.RawMessage(config.Limits),
		CreatedAt:      dbutils.ParseNullTimeToString(config.CreatedAt),
		UpdatedAt:      dbutils.ParseNullTimeToString(config.UpdatedAt),
	}
}
