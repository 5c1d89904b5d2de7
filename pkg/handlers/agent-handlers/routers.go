/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package agent_handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/hive-agents/HIVE/pkg/common"
)

func InitAgentRouters(e *gin.Engine, h *Handler) {
	group := e.Group(common.ApiRootPath)
	{
		group.POST("agents", h.RegisterAgent)
		group.GET("agents", h.ListAgent)
		group.GET(fmt.Sprintf("agents/:%s", AgentId), h.GetAgent)
		group.DELETE(fmt.Sprintf("agents/:%s", AgentId), h.DeleteAgent)
		group.POST(fmt.Sprintf("agents/:%s/heartbeat", AgentId), h.HeartbeatAgent)

		group.POST("configs", h.UpsertAgentConfig)
		group.GET("configs", h.ListAgentConfig)
		group.GET(fmt.Sprintf("configs/:%s", ConfigName), h.GetAgentConfig)
		group.DELETE(fmt.Sprintf("configs/:%s", ConfigName), h.DeleteAgentConfig)
	}
}
