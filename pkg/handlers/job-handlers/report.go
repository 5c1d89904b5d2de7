/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package job_handlers

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	dbclient "github.com/hive-agents/HIVE/pkg/database/client"
	dbutils "github.com/hive-agents/HIVE/pkg/database/utils"
	commonerrors "github.com/hive-agents/HIVE/pkg/errors"
	"github.com/hive-agents/HIVE/pkg/handlers/job-handlers/types"
)

// Agent report endpoints: complete, fail and status are posted by agent
// pods, not operators.

func (h *Handler) CompleteJob(c *gin.Context) {
	handle(c, h.completeJob)
}

func (h *Handler) FailJob(c *gin.Context) {
	handle(c, h.failJob)
}

func (h *Handler) ReportJobStatus(c *gin.Context) {
	handle(c, h.reportJobStatus)
}

func (h *Handler) completeJob(c *gin.Context) (interface{}, error) {
	jobId := c.Param(JobId)
	req := &types.CompleteJobRequest{}
	if _, err := getBodyFromRequest(c.Request, req); err != nil {
		return nil, err
	}
	err := h.dbClient.FinishJobFromAgent(c.Request.Context(), jobId, req.AgentId,
		dbclient.JobCompleted, "", nil, req.TokensUsed, req.RequestCount)
	if err != nil {
		return nil, err
	}
	klog.Infof("job %s completed by agent %s (tokens: %d, requests: %d)",
		jobId, req.AgentId, req.TokensUsed, req.RequestCount)
	return gin.H{}, nil
}

func (h *Handler) failJob(c *gin.Context) (interface{}, error) {
	jobId := c.Param(JobId)
	req := &types.FailJobRequest{}
	if _, err := getBodyFromRequest(c.Request, req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.ErrorMessage) == "" {
		return nil, commonerrors.NewBadRequest("error_message is required")
	}
	var details interface{}
	if len(req.ErrorDetails) > 0 {
		details = json.RawMessage(req.ErrorDetails)
	}
	err := h.dbClient.FinishJobFromAgent(c.Request.Context(), jobId, req.AgentId,
		dbclient.JobFailed, req.ErrorMessage, details, req.TokensUsed, req.RequestCount)
	if err != nil {
		return nil, err
	}
	klog.Warningf("job %s failed by agent %s: %s", jobId, req.AgentId, req.ErrorMessage)
	return gin.H{}, nil
}

// reportJobStatus records the agent's mid-run progress: role sub-states,
// usage counters, and any artifact batches riding along. Progress writes
// bump updated_at, which keeps the stuck-work detector quiet.
func (h *Handler) reportJobStatus(c *gin.Context) (interface{}, error) {
	jobId := c.Param(JobId)
	req := &types.JobStatusRequest{}
	if _, err := getBodyFromRequest(c.Request, req); err != nil {
		return nil, err
	}
	if err := validateRoleStatuses(req); err != nil {
		return nil, err
	}
	ctx := c.Request.Context()
	if err := h.dbClient.SetJobProgress(ctx, jobId, req.CreatorStatus, req.ValidatorStatus,
		req.TokensUsed, req.RequestCount); err != nil {
		return nil, err
	}
	if err := h.storeArtifacts(c, jobId, req); err != nil {
		return nil, err
	}
	return gin.H{}, nil
}

func validateRoleStatuses(req *types.JobStatusRequest) error {
	if req.CreatorStatus != "" && !dbclient.IsValidRoleStatus(req.CreatorStatus) {
		return commonerrors.NewBadRequest(fmt.Sprintf("invalid creator_status %s", req.CreatorStatus))
	}
	if req.ValidatorStatus != "" && !dbclient.IsValidRoleStatus(req.ValidatorStatus) {
		return commonerrors.NewBadRequest(fmt.Sprintf("invalid validator_status %s", req.ValidatorStatus))
	}
	return nil
}

func (h *Handler) storeArtifacts(c *gin.Context, jobId string, req *types.JobStatusRequest) error {
	ctx := c.Request.Context()
	// Insert commands bind every column, so the rows must carry their own
	// timestamps; column defaults never apply.
	now := dbutils.NullTime(time.Now().UTC())
	for _, r := range req.Requirements {
		row := &dbclient.Requirement{
			RequirementId: r.RequirementId,
			JobId:         jobId,
			Name:          r.Name,
			Description:   dbutils.NullString(r.Description),
			Status:        r.Status,
			GraphNodeId:   dbutils.NullString(r.GraphNodeId),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if row.RequirementId == "" {
			row.RequirementId = dbclient.NewID("req")
		}
		if err := h.dbClient.UpsertRequirement(ctx, row); err != nil {
			return err
		}
	}
	for _, s := range req.Sources {
		row := &dbclient.Source{
			SourceId:    s.SourceId,
			JobId:       jobId,
			Url:         s.Url,
			Title:       dbutils.NullString(s.Title),
			ContentHash: dbutils.NullString(s.ContentHash),
			CreatedAt:   now,
		}
		if row.SourceId == "" {
			row.SourceId = dbclient.NewID("src")
		}
		if err := h.dbClient.InsertSource(ctx, row); err != nil {
			if commonerrors.IsStateConflict(err) {
				continue // already reported
			}
			return err
		}
	}
	for _, cit := range req.Citations {
		row := &dbclient.Citation{
			CitationId:         cit.CitationId,
			JobId:              jobId,
			SourceId:           cit.SourceId,
			RequirementId:      dbutils.NullString(cit.RequirementId),
			Snippet:            dbutils.NullString(cit.Snippet),
			VerificationStatus: dbutils.NullString(cit.VerificationStatus),
			CreatedAt:          now,
		}
		if row.CitationId == "" {
			row.CitationId = dbclient.NewID("cit")
		}
		if err := h.dbClient.InsertCitation(ctx, row); err != nil {
			if commonerrors.IsStateConflict(err) {
				continue
			}
			return err
		}
	}
	for _, g := range req.GraphChanges {
		row := &dbclient.GraphChange{
			JobId:         jobId,
			RequirementId: dbutils.NullString(g.RequirementId),
			Operation:     g.Operation,
			NodeId:        dbutils.NullString(g.NodeId),
			Payload:       g.Payload,
			CreatedAt:     now,
		}
		if err := h.dbClient.InsertGraphChange(ctx, row); err != nil {
			return err
		}
	}
	return nil
}
