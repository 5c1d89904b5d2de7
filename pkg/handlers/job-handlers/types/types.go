/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package types

import (
	"encoding/json"
)

type CreateJobRequest struct {
	Description  string `json:"description"`
	ConfigName   string `json:"config_name,omitempty"`
	UploadId     string `json:"upload_id,omitempty"`
	Context      string `json:"context,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

type CreateJobResponse struct {
	JobId string `json:"job_id"`
}

type ListJobQuery struct {
	Status     string `form:"status"`
	ConfigName string `form:"config_name"`
	Limit      int    `form:"limit,default=50"`
	Offset     int    `form:"offset"`
}

type JobItem struct {
	JobId            string          `json:"job_id"`
	Description      string          `json:"description"`
	ConfigName       string          `json:"config_name"`
	UploadId         string          `json:"upload_id,omitempty"`
	Status           string          `json:"status"`
	CreatorStatus    string          `json:"creator_status"`
	ValidatorStatus  string          `json:"validator_status"`
	AssignedAgentId  string          `json:"assigned_agent_id,omitempty"`
	DispatchAttempts int             `json:"dispatch_attempts"`
	ErrorMessage     string          `json:"error_message,omitempty"`
	ErrorDetails     json.RawMessage `json:"error_details,omitempty"`
	TokensUsed       int64           `json:"tokens_used"`
	RequestCount     int64           `json:"request_count"`
	CreatedAt        string          `json:"created_at,omitempty"`
	UpdatedAt        string          `json:"updated_at,omitempty"`
	CompletedAt      string          `json:"completed_at,omitempty"`
}

type ListJobResponse struct {
	TotalCount int       `json:"total_count"`
	Items      []JobItem `json:"items"`
}

type JobDetailResponse struct {
	JobItem
	Context       string            `json:"context,omitempty"`
	Instructions  string            `json:"instructions,omitempty"`
	FrozenJobData json.RawMessage   `json:"frozen_job_data,omitempty"`
	Progress      *ProgressResponse `json:"progress,omitempty"`
}

// ProgressResponse summarizes a job's requirements. Percent is
// integrated/total clamped to [0,1]; EtaSeconds appears only once at least
// three requirements are integrated.
type ProgressResponse struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	Percent    float64        `json:"percent"`
	EtaSeconds *int64         `json:"eta_seconds,omitempty"`
}

type ResumeRequest struct {
	Feedback string `json:"feedback,omitempty"`
}

// FreezeRequest is the checkpoint payload an agent posts before review. It
// is validated for shape and stored verbatim.
type FreezeRequest struct {
	Summary      string          `json:"summary"`
	Deliverables json.RawMessage `json:"deliverables,omitempty"`
	Confidence   float64         `json:"confidence,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	PhaseNumber  int             `json:"phase_number,omitempty"`
	FrozenAt     string          `json:"frozen_at,omitempty"`
}

type CompleteJobRequest struct {
	AgentId      string `json:"agent_id"`
	TokensUsed   int64  `json:"tokens_used,omitempty"`
	RequestCount int64  `json:"request_count,omitempty"`
}

type FailJobRequest struct {
	AgentId      string          `json:"agent_id"`
	ErrorMessage string          `json:"error_message"`
	ErrorDetails json.RawMessage `json:"error_details,omitempty"`
	TokensUsed   int64           `json:"tokens_used,omitempty"`
	RequestCount int64           `json:"request_count,omitempty"`
}

// JobStatusRequest is the agent's mid-run progress report. Besides the role
// sub-states and counters it may carry artifact batches, which are upserted
// as they arrive.
type JobStatusRequest struct {
	AgentId         string              `json:"agent_id,omitempty"`
	CreatorStatus   string              `json:"creator_status,omitempty"`
	ValidatorStatus string              `json:"validator_status,omitempty"`
	TokensUsed      int64               `json:"tokens_used,omitempty"`
	RequestCount    int64               `json:"request_count,omitempty"`
	Requirements    []RequirementReport `json:"requirements,omitempty"`
	Sources         []SourceReport      `json:"sources,omitempty"`
	Citations       []CitationReport    `json:"citations,omitempty"`
	GraphChanges    []GraphChangeReport `json:"graph_changes,omitempty"`
}

type RequirementReport struct {
	RequirementId string `json:"requirement_id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Status        string `json:"status"`
	GraphNodeId   string `json:"graph_node_id,omitempty"`
}

type SourceReport struct {
	SourceId    string `json:"source_id"`
	Url         string `json:"url"`
	Title       string `json:"title,omitempty"`
	ContentHash string `json:"content_hash,omitempty"`
}

type CitationReport struct {
	CitationId         string `json:"citation_id"`
	SourceId           string `json:"source_id"`
	RequirementId      string `json:"requirement_id,omitempty"`
	Snippet            string `json:"snippet,omitempty"`
	VerificationStatus string `json:"verification_status,omitempty"`
}

type GraphChangeReport struct {
	RequirementId string          `json:"requirement_id,omitempty"`
	Operation     string          `json:"operation"`
	NodeId        string          `json:"node_id,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

type RequirementItem struct {
	RequirementId string `json:"requirement_id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Status        string `json:"status"`
	GraphNodeId   string `json:"graph_node_id,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

type SourceItem struct {
	SourceId    string `json:"source_id"`
	Url         string `json:"url"`
	Title       string `json:"title,omitempty"`
	ContentHash string `json:"content_hash,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

type CitationItem struct {
	CitationId         string `json:"citation_id"`
	SourceId           string `json:"source_id"`
	RequirementId      string `json:"requirement_id,omitempty"`
	Snippet            string `json:"snippet,omitempty"`
	VerificationStatus string `json:"verification_status,omitempty"`
	CreatedAt          string `json:"created_at,omitempty"`
}

type GraphChangeItem struct {
	Id            int64           `json:"id"`
	RequirementId string          `json:"requirement_id,omitempty"`
	Operation     string          `json:"operation"`
	NodeId        string          `json:"node_id,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	CreatedAt     string          `json:"created_at,omitempty"`
}

type ListGraphChangeResponse struct {
	TotalCount int               `json:"total_count"`
	Items      []GraphChangeItem `json:"items"`
}

type AuditLogItem struct {
	Id             int64  `json:"id"`
	Actor          string `json:"actor,omitempty"`
	ClientIp       string `json:"client_ip,omitempty"`
	HttpMethod     string `json:"http_method"`
	RequestPath    string `json:"request_path"`
	ResponseStatus int    `json:"response_status"`
	LatencyMs      int64  `json:"latency_ms"`
	CreatedAt      string `json:"created_at,omitempty"`
}

type ListAuditLogResponse struct {
	TotalCount int            `json:"total_count"`
	Items      []AuditLogItem `json:"items"`
}

// JobEvent is one frame of the websocket status stream.
type JobEvent struct {
	JobId           string `json:"job_id"`
	Status          string `json:"status"`
	CreatorStatus   string `json:"creator_status"`
	ValidatorStatus string `json:"validator_status"`
	Timestamp       string `json:"timestamp"`
}
