/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package statistic_handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apiutils "github.com/hive-agents/HIVE/pkg/apiutils"
	dbclient "github.com/hive-agents/HIVE/pkg/database/client"
	commonerrors "github.com/hive-agents/HIVE/pkg/errors"
	"github.com/hive-agents/HIVE/pkg/detector"
)

const defaultDailyWindowDays = 7

type Handler struct {
	dbClient dbclient.Interface
	detector *detector.Detector
}

func NewHandler(dbClient dbclient.Interface, det *detector.Detector) *Handler {
	return &Handler{dbClient: dbClient, detector: det}
}

type handleFunc func(*gin.Context) (interface{}, error)

func handle(c *gin.Context, fn handleFunc) {
	rsp, err := fn(c)
	if err != nil {
		apiutils.AbortWithApiError(c, err)
		return
	}
	c.JSON(http.StatusOK, rsp)
}

func (h *Handler) JobStatistics(c *gin.Context) {
	handle(c, h.jobStatistics)
}

func (h *Handler) AgentStatistics(c *gin.Context) {
	handle(c, h.agentStatistics)
}

func (h *Handler) DailyStatistics(c *gin.Context) {
	handle(c, h.dailyStatistics)
}

func (h *Handler) StuckJobs(c *gin.Context) {
	handle(c, h.stuckJobs)
}

func (h *Handler) jobStatistics(c *gin.Context) (interface{}, error) {
	counts, err := h.dbClient.CountJobsByStatus(c.Request.Context())
	if err != nil {
		return nil, err
	}
	return gin.H{"items": counts}, nil
}

func (h *Handler) agentStatistics(c *gin.Context) (interface{}, error) {
	counts, err := h.dbClient.CountAgentsByStatus(c.Request.Context())
	if err != nil {
		return nil, err
	}
	return gin.H{"items": counts}, nil
}

type dailyQuery struct {
	Days int `form:"days,default=7"`
}

// dailyStatistics returns the rolled-up per-day job counters, newest first.
// The window always ends today; days bounds how far back it starts.
func (h *Handler) dailyStatistics(c *gin.Context) (interface{}, error) {
	query := &dailyQuery{Days: defaultDailyWindowDays}
	if err := c.ShouldBindQuery(query); err != nil {
		return nil, commonerrors.NewBadRequest(err.Error())
	}
	if query.Days <= 0 || query.Days > 365 {
		return nil, commonerrors.NewBadRequest("days must be between 1 and 365")
	}
	to := time.Now().UTC().Truncate(24 * time.Hour)
	from := to.AddDate(0, 0, -(query.Days - 1))
	stats, err := h.dbClient.SelectDailyStatistics(c.Request.Context(), from, to)
	if err != nil {
		return nil, err
	}
	return gin.H{"items": stats}, nil
}

// stuckJobs reports jobs the detector considers stalled without changing
// their state.
func (h *Handler) stuckJobs(c *gin.Context) (interface{}, error) {
	jobs, err := h.detector.Report(c.Request.Context())
	if err != nil {
		return nil, err
	}
	return gin.H{"items": jobs}, nil
}
