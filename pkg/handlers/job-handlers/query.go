/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package job_handlers

import (
	sqrl "github.com/Masterminds/squirrel"
	"github.com/gin-gonic/gin"

	dbutils "github.com/hive-agents/HIVE/pkg/database/utils"
	commonerrors "github.com/hive-agents/HIVE/pkg/errors"
	"github.com/hive-agents/HIVE/pkg/handlers/job-handlers/types"
)

// Read-only passthrough endpoints over the per-job artifacts.

func (h *Handler) ListJobRequirements(c *gin.Context) {
	handle(c, h.listJobRequirements)
}

func (h *Handler) ListJobSources(c *gin.Context) {
	handle(c, h.listJobSources)
}

func (h *Handler) ListJobCitations(c *gin.Context) {
	handle(c, h.listJobCitations)
}

func (h *Handler) ListJobGraphChanges(c *gin.Context) {
	handle(c, h.listJobGraphChanges)
}

func (h *Handler) ListJobAuditLogs(c *gin.Context) {
	handle(c, h.listJobAuditLogs)
}

type pageQuery struct {
	Limit  int `form:"limit,default=50"`
	Offset int `form:"offset"`
}

func parsePageQuery(c *gin.Context) (*pageQuery, error) {
	query := &pageQuery{}
	if err := c.ShouldBindQuery(query); err != nil {
		return nil, commonerrors.NewBadRequest(err.Error())
	}
	return query, nil
}

// ensureJob keeps the artifact endpoints 404-ing for unknown jobs instead of
// returning empty lists.
func (h *Handler) ensureJob(c *gin.Context) (string, error) {
	jobId := c.Param(JobId)
	if _, err := h.dbClient.GetJob(c.Request.Context(), jobId); err != nil {
		return "", err
	}
	return jobId, nil
}

func (h *Handler) listJobRequirements(c *gin.Context) (interface{}, error) {
	jobId, err := h.ensureJob(c)
	if err != nil {
		return nil, err
	}
	reqs, err := h.dbClient.SelectRequirements(c.Request.Context(), jobId)
	if err != nil {
		return nil, err
	}
	items := make([]types.RequirementItem, 0, len(reqs))
	for _, r := range reqs {
		items = append(items, types.RequirementItem{
			RequirementId: r.RequirementId,
			Name:          r.Name,
			Description:   dbutils.ParseNullString(r.Description),
			Status:        r.Status,
			GraphNodeId:   dbutils.ParseNullString(r.GraphNodeId),
			CreatedAt:     dbutils.ParseNullTimeToString(r.CreatedAt),
			UpdatedAt:     dbutils.ParseNullTimeToString(r.UpdatedAt),
		})
	}
	return items, nil
}

func (h *Handler) listJobSources(c *gin.Context) (interface{}, error) {
	jobId, err := h.ensureJob(c)
	if err != nil {
		return nil, err
	}
	sources, err := h.dbClient.SelectSources(c.Request.Context(), jobId)
	if err != nil {
		return nil, err
	}
	items := make([]types.SourceItem, 0, len(sources))
	for _, s := range sources {
		items = append(items, types.SourceItem{
			SourceId:    s.SourceId,
			Url:         s.Url,
			Title:       dbutils.ParseNullString(s.Title),
			ContentHash: dbutils.ParseNullString(s.ContentHash),
			CreatedAt:   dbutils.ParseNullTimeToString(s.CreatedAt),
		})
	}
	return items, nil
}

func (h *Handler) listJobCitations(c *gin.Context) (interface{}, error) {
	jobId, err := h.ensureJob(c)
	if err != nil {
		return nil, err
	}
	citations, err := h.dbClient.SelectCitations(c.Request.Context(), jobId)
	if err != nil {
		return nil, err
	}
	items := make([]types.CitationItem, 0, len(citations))
	for _, cit := range citations {
		items = append(items, types.CitationItem{
			CitationId:         cit.CitationId,
			SourceId:           cit.SourceId,
			RequirementId:      dbutils.ParseNullString(cit.RequirementId),
			Snippet:            dbutils.ParseNullString(cit.Snippet),
			VerificationStatus: dbutils.ParseNullString(cit.VerificationStatus),
			CreatedAt:          dbutils.ParseNullTimeToString(cit.CreatedAt),
		})
	}
	return items, nil
}

func (h *Handler) listJobGraphChanges(c *gin.Context) (interface{}, error) {
	jobId, err := h.ensureJob(c)
	if err != nil {
		return nil, err
	}
	query, err := parsePageQuery(c)
	if err != nil {
		return nil, err
	}
	ctx := c.Request.Context()
	changes, err := h.dbClient.SelectGraphChanges(ctx, jobId, query.Limit, query.Offset)
	if err != nil {
		return nil, err
	}
	result := &types.ListGraphChangeResponse{}
	if result.TotalCount, err = h.dbClient.CountGraphChanges(ctx, jobId); err != nil {
		return nil, err
	}
	for _, g := range changes {
		result.Items = append(result.Items, types.GraphChangeItem{
			Id:            g.Id,
			RequirementId: dbutils.ParseNullString(g.RequirementId),
			Operation:     g.Operation,
			NodeId:        dbutils.ParseNullString(g.NodeId),
			Payload:       g.Payload,
			CreatedAt:     dbutils.ParseNullTimeToString(g.CreatedAt),
		})
	}
	return result, nil
}

func (h *Handler) listJobAuditLogs(c *gin.Context) (interface{}, error) {
	jobId, err := h.ensureJob(c)
	if err != nil {
		return nil, err
	}
	query, err := parsePageQuery(c)
	if err != nil {
		return nil, err
	}
	dbSql := sqrl.Eq{"resource_type": "jobs", "resource_name": jobId}
	ctx := c.Request.Context()
	logs, err := h.dbClient.SelectAuditLogs(ctx, dbSql, []string{"id DESC"}, query.Limit, query.Offset)
	if err != nil {
		return nil, err
	}
	result := &types.ListAuditLogResponse{}
	if result.TotalCount, err = h.dbClient.CountAuditLogs(ctx, dbSql); err != nil {
		return nil, err
	}
	for _, log := range logs {
		result.Items = append(result.Items, types.AuditLogItem{
			Id:             log.Id,
			Actor:          dbutils.ParseNullString(log.Actor),
			ClientIp:       dbutils.ParseNullString(log.ClientIp),
			HttpMethod:     log.HttpMethod,
			RequestPath:    log.RequestPath,
			ResponseStatus: log.ResponseStatus,
			LatencyMs:      log.LatencyMs,
			CreatedAt:      dbutils.ParseNullTimeToString(log.CreatedAt),
		})
	}
	return result, nil
}
