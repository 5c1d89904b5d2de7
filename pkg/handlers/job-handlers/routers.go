/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package job_handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/hive-agents/HIVE/pkg/common"
)

func InitJobRouters(e *gin.Engine, h *Handler) {
	group := e.Group(common.ApiRootPath)
	{
		group.POST("jobs", h.CreateJob)
		group.GET("jobs", h.ListJob)
		group.GET(fmt.Sprintf("jobs/:%s", JobId), h.GetJob)
		group.DELETE(fmt.Sprintf("jobs/:%s", JobId), h.DeleteJob)
		group.POST(fmt.Sprintf("jobs/:%s/cancel", JobId), h.CancelJob)
		group.POST(fmt.Sprintf("jobs/:%s/resume", JobId), h.ResumeJob)
		group.POST(fmt.Sprintf("jobs/:%s/approve", JobId), h.ApproveJob)
		group.POST(fmt.Sprintf("jobs/:%s/freeze", JobId), h.FreezeJob)
		group.POST(fmt.Sprintf("jobs/:%s/complete", JobId), h.CompleteJob)
		group.POST(fmt.Sprintf("jobs/:%s/fail", JobId), h.FailJob)
		group.POST(fmt.Sprintf("jobs/:%s/status", JobId), h.ReportJobStatus)
		group.GET(fmt.Sprintf("jobs/:%s/progress", JobId), h.GetJobProgress)
		group.GET(fmt.Sprintf("jobs/:%s/audit", JobId), h.ListJobAuditLogs)
		group.GET(fmt.Sprintf("jobs/:%s/requirements", JobId), h.ListJobRequirements)
		group.GET(fmt.Sprintf("jobs/:%s/sources", JobId), h.ListJobSources)
		group.GET(fmt.Sprintf("jobs/:%s/citations", JobId), h.ListJobCitations)
		group.GET(fmt.Sprintf("jobs/:%s/graph-changes", JobId), h.ListJobGraphChanges)
		group.GET(fmt.Sprintf("jobs/:%s/events", JobId), h.StreamJobEvents)
	}
}
