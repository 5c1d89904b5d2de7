/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package statistic_handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/hive-agents/HIVE/pkg/common"
)

func InitStatisticRouters(e *gin.Engine, h *Handler) {
	group := e.Group(common.ApiRootPath)
	{
		group.GET("statistics/jobs", h.JobStatistics)
		group.GET("statistics/agents", h.AgentStatistics)
		group.GET("statistics/daily", h.DailyStatistics)
		group.GET("statistics/stuck-jobs", h.StuckJobs)
	}
}
