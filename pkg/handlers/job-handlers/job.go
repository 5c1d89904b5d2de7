/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package job_handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	sqrl "github.com/Masterminds/squirrel"
	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	commonconfig "github.com/hive-agents/HIVE/pkg/config"
	dbclient "github.com/hive-agents/HIVE/pkg/database/client"
	dbutils "github.com/hive-agents/HIVE/pkg/database/utils"
	commonerrors "github.com/hive-agents/HIVE/pkg/errors"
	"github.com/hive-agents/HIVE/pkg/handlers/job-handlers/types"
)

func (h *Handler) CreateJob(c *gin.Context) {
	handle(c, h.createJob)
}

func (h *Handler) ListJob(c *gin.Context) {
	handle(c, h.listJob)
}

func (h *Handler) GetJob(c *gin.Context) {
	handle(c, h.getJob)
}

func (h *Handler) DeleteJob(c *gin.Context) {
	handle(c, h.deleteJob)
}

func (h *Handler) CancelJob(c *gin.Context) {
	handle(c, h.cancelJob)
}

func (h *Handler) GetJobProgress(c *gin.Context) {
	handle(c, h.getJobProgress)
}

func (h *Handler) createJob(c *gin.Context) (interface{}, error) {
	req := &types.CreateJobRequest{}
	if _, err := getBodyFromRequest(c.Request, req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, commonerrors.NewBadRequest("description is required")
	}
	if req.ConfigName == "" {
		req.ConfigName = commonconfig.GetDefaultConfigName()
	}
	ctx := c.Request.Context()
	if req.UploadId != "" {
		if _, err := h.dbClient.GetUpload(ctx, req.UploadId); err != nil {
			return nil, err
		}
	}
	job := dbclient.NewJob(req.Description, req.UploadId, req.ConfigName, req.Context, req.Instructions)
	if err := h.dbClient.InsertJob(ctx, job); err != nil {
		return nil, err
	}
	klog.Infof("create job %s (config: %s, upload: %s)", job.JobId, job.ConfigName, req.UploadId)
	if h.kicker != nil {
		h.kicker()
	}
	return &types.CreateJobResponse{JobId: job.JobId}, nil
}

func (h *Handler) listJob(c *gin.Context) (interface{}, error) {
	query := &types.ListJobQuery{}
	if err := c.ShouldBindQuery(query); err != nil {
		return nil, commonerrors.NewBadRequest(err.Error())
	}
	dbSql, err := cvtToListJobSql(query)
	if err != nil {
		return nil, err
	}
	ctx := c.Request.Context()
	jobs, err := h.dbClient.SelectJobs(ctx, dbSql,
		[]string{dbclient.CreatedAt + " DESC"}, query.Limit, query.Offset)
	if err != nil {
		return nil, err
	}
	result := &types.ListJobResponse{}
	if result.TotalCount, err = h.dbClient.CountJobs(ctx, dbSql); err != nil {
		return nil, err
	}
	for _, job := range jobs {
		result.Items = append(result.Items, cvtJobToItem(job))
	}
	return result, nil
}

func (h *Handler) getJob(c *gin.Context) (interface{}, error) {
	jobId := c.Param(JobId)
	ctx := c.Request.Context()
	job, err := h.dbClient.GetJob(ctx, jobId)
	if err != nil {
		return nil, err
	}
	result := &types.JobDetailResponse{
		JobItem:       cvtJobToItem(job),
		Context:       dbutils.ParseNullString(job.Context),
		Instructions:  dbutils.ParseNullString(job.Instructions),
		FrozenJobData: job.FrozenJobData,
	}
	counts, err := h.dbClient.CountRequirementsByStatus(ctx, jobId)
	if err != nil {
		return nil, err
	}
	result.Progress = cvtToProgress(counts, dbutils.ParseNullTime(job.CreatedAt))
	return result, nil
}

func (h *Handler) deleteJob(c *gin.Context) (interface{}, error) {
	jobId := c.Param(JobId)
	if err := h.dbClient.DeleteJob(c.Request.Context(), jobId); err != nil {
		return nil, err
	}
	klog.Infof("delete job %s", jobId)
	return gin.H{}, nil
}

func (h *Handler) cancelJob(c *gin.Context) (interface{}, error) {
	jobId := c.Param(JobId)
	agent, err := h.dbClient.CancelJob(c.Request.Context(), jobId)
	if err != nil {
		return nil, err
	}
	if agent != nil {
		// Best effort: the job is already cancelled in the store; a pod that
		// misses the command reconciles on its next heartbeat.
		go func(agent *dbclient.Agent) {
			ctx, cancel := commandContext()
			defer cancel()
			if err := h.agents.Cancel(ctx, agent, jobId); err != nil {
				klog.ErrorS(err, "failed to deliver cancel command", "job", jobId, "agent", agent.AgentId)
			}
		}(agent)
	}
	return gin.H{}, nil
}

func (h *Handler) getJobProgress(c *gin.Context) (interface{}, error) {
	jobId := c.Param(JobId)
	ctx := c.Request.Context()
	job, err := h.dbClient.GetJob(ctx, jobId)
	if err != nil {
		return nil, err
	}
	counts, err := h.dbClient.CountRequirementsByStatus(ctx, jobId)
	if err != nil {
		return nil, err
	}
	return cvtToProgress(counts, dbutils.ParseNullTime(job.CreatedAt)), nil
}

func cvtToListJobSql(query *types.ListJobQuery) (sqrl.Sqlizer, error) {
	conditions := sqrl.And{}
	if query.Status != "" {
		if !dbclient.IsValidJobStatus(query.Status) {
			return nil, commonerrors.NewBadRequest(fmt.Sprintf("invalid status %s", query.Status))
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

func cvtJobToItem(job *dbclient.Job) types.JobItem {
	return types.JobItem{
		JobId:            job.JobId,
		Description:      job.Description,
		ConfigName:       job.ConfigName,
		UploadId:         dbutils.ParseNullString(job.UploadId),
		Status:           job.Status,
		CreatorStatus:    job.CreatorStatus,
		ValidatorStatus:  job.ValidatorStatus,
		AssignedAgentId:  dbutils.ParseNullString(job.AssignedAgentId),
		DispatchAttempts: job.DispatchAttempts,
		ErrorMessage:     dbutils.ParseNullString(job.ErrorMessage),
		ErrorDetails:     job.ErrorDetails,
		TokensUsed:       job.TokensUsed,
		RequestCount:     job.RequestCount,
		CreatedAt:        dbutils.ParseNullTimeToString(job.CreatedAt),
		UpdatedAt:        dbutils.ParseNullTimeToString(job.UpdatedAt),
		CompletedAt:      dbutils.ParseNullTimeToString(job.CompletedAt),
	}
}

// cvtToProgress derives the requirement summary. Percent is
// integrated/total; the ETA estimate only appears once three requirements
// have integrated, as earlier extrapolation is noise.
func cvtToProgress(counts map[string]int, createdAt time.Time) *types.ProgressResponse {
	result := &types.ProgressResponse{ByStatus: counts}
	for _, cnt := range counts {
		result.Total += cnt
	}
	if result.Total == 0 {
		return result
	}
	integrated := counts[dbclient.RequirementIntegrated]
	result.Percent = float64(integrated) / float64(result.Total)
	if result.Percent > 1 {
		result.Percent = 1
	}
	remaining := counts[dbclient.RequirementPending] + counts[dbclient.RequirementValidating]
	if integrated >= 3 && remaining > 0 && !createdAt.IsZero() {
		elapsed := time.Since(createdAt)
		eta := int64(elapsed.Seconds() / float64(integrated) * float64(remaining))
		result.EtaSeconds = &eta
	}
	return result
}

// commandContext bounds an async agent command that has outlived its HTTP
// request.
func commandContext() (ctx context.Context, cancel context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Minute)
}
