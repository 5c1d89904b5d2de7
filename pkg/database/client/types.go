/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	DESC = "desc"
	ASC  = "asc"

	CreatedAt     = "created_at"
	UpdatedAt     = "updated_at"
	LastHeartbeat = "last_heartbeat"
	RegisteredAt  = "registered_at"
)

// Job lifecycle states.
const (
	JobCreated       = "created"
	JobProcessing    = "processing"
	JobPendingReview = "pending_review"
	JobCompleted     = "completed"
	JobFailed        = "failed"
	JobCancelled     = "cancelled"
)

// Agent pod states.
const (
	AgentBooting   = "booting"
	AgentReady     = "ready"
	AgentWorking   = "working"
	AgentCompleted = "completed"
	AgentFailed    = "failed"
	AgentOffline   = "offline"
)

// Per-role sub-states reported by agents. Informational to the orchestrator.
const (
	RolePending    = "pending"
	RoleProcessing = "processing"
	RoleCompleted  = "completed"
	RoleFailed     = "failed"
)

// Requirement states.
const (
	RequirementPending    = "pending"
	RequirementValidating = "validating"
	RequirementIntegrated = "integrated"
	RequirementRejected   = "rejected"
	RequirementFailed     = "failed"
)

// Failure reasons recorded in error_details.
const (
	ReasonAgentOffline       = "agent_offline"
	ReasonNoProgress         = "no_progress"
	ReasonNoCompatibleAgent  = "no_compatible_agent"
	ReasonStartCommandFailed = "start_command_failed"
	ReasonResumeFailed       = "resume_command_failed"
)

// jobTransitions is the allowed job state graph. Beyond the user-visible
// edges it carries two internal ones: processing->created (post-dispatch
// rollback and offline recovery) and pending_review->created (resume with an
// unreachable agent). Terminal states have no outgoing edges.
var jobTransitions = map[string][]string{
	JobCreated:       {JobProcessing, JobCancelled, JobFailed},
	JobProcessing:    {JobPendingReview, JobCompleted, JobFailed, JobCancelled, JobCreated},
	JobPendingReview: {JobProcessing, JobCompleted, JobCancelled, JobFailed, JobCreated},
	JobCompleted:     nil,
	JobFailed:        nil,
	JobCancelled:     nil,
}

// agentTransitions is the allowed agent state graph. offline->booting only
// happens through re-registration, which replaces the row in place.
var agentTransitions = map[string][]string{
	AgentBooting:   {AgentReady, AgentFailed},
	AgentReady:     {AgentWorking, AgentOffline},
	AgentWorking:   {AgentCompleted, AgentFailed, AgentOffline},
	AgentCompleted: {AgentReady},
	AgentFailed:    {AgentOffline},
	AgentOffline:   {AgentBooting},
}

func CanJobTransition(from, to string) bool {
	for _, t := range jobTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

func CanAgentTransition(from, to string) bool {
	for _, t := range agentTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

func IsJobTerminal(status string) bool {
	return status == JobCompleted || status == JobFailed || status == JobCancelled
}

func IsValidJobStatus(status string) bool {
	_, ok := jobTransitions[status]
	return ok
}

func IsValidAgentStatus(status string) bool {
	_, ok := agentTransitions[status]
	return ok
}

func IsValidRoleStatus(status string) bool {
	switch status {
	case RolePending, RoleProcessing, RoleCompleted, RoleFailed:
		return true
	}
	return false
}

// NewID allocates an opaque identifier with a kind prefix, e.g. job-1a2b3c4d.
func NewID(kind string) string {
	return kind + "-" + uuid.New().String()[:8]
}

type Job struct {
	JobId            string         `db:"job_id"`
	Description      string         `db:"description"`
	UploadId         sql.NullString `db:"upload_id"`
	ConfigName       string         `db:"config_name"`
	Context          sql.NullString `db:"context"`
	Instructions     sql.NullString `db:"instructions"`
	Status           string         `db:"status"`
	CreatorStatus    string         `db:"creator_status"`
	ValidatorStatus  string         `db:"validator_status"`
	AssignedAgentId  sql.NullString `db:"assigned_agent_id"`
	DispatchAttempts int            `db:"dispatch_attempts"`
	RecoveryDeadline pq.NullTime    `db:"recovery_deadline"`
	FrozenJobData    []byte         `db:"frozen_job_data"`
	ErrorMessage     sql.NullString `db:"error_message"`
	ErrorDetails     []byte         `db:"error_details"`
	TokensUsed       int64          `db:"tokens_used"`
	RequestCount     int64          `db:"request_count"`
	CreatedAt        pq.NullTime    `db:"created_at"`
	UpdatedAt        pq.NullTime    `db:"updated_at"`
	CompletedAt      pq.NullTime    `db:"completed_at"`
}

func GetJobFieldTags() map[string]string {
	j := Job{}
	return getFieldTags(j)
}

type Agent struct {
	AgentId       string         `db:"agent_id"`
	ConfigName    string         `db:"config_name"`
	Hostname      string         `db:"hostname"`
	PodIp         string         `db:"pod_ip"`
	PodPort       int            `db:"pod_port"`
	Status        string         `db:"status"`
	CurrentJobId  sql.NullString `db:"current_job_id"`
	Metadata      []byte         `db:"metadata"`
	RegisteredAt  pq.NullTime    `db:"registered_at"`
	LastHeartbeat pq.NullTime    `db:"last_heartbeat"`
}

func GetAgentFieldTags() map[string]string {
	a := Agent{}
	return getFieldTags(a)
}

// Address is the callback endpoint of the pod.
func (a *Agent) Address() string {
	return fmt.Sprintf("%s:%d", a.PodIp, a.PodPort)
}

type Requirement struct {
	RequirementId string         `db:"requirement_id"`
	JobId         string         `db:"job_id"`
	Name          string         `db:"name"`
	Description   sql.NullString `db:"description"`
	Status        string         `db:"status"`
	GraphNodeId   sql.NullString `db:"graph_node_id"`
	CreatedAt     pq.NullTime    `db:"created_at"`
	UpdatedAt     pq.NullTime    `db:"updated_at"`
}

func GetRequirementFieldTags() map[string]string {
	r := Requirement{}
	return getFieldTags(r)
}

type Source struct {
	SourceId    string         `db:"source_id"`
	JobId       string         `db:"job_id"`
	Url         string         `db:"url"`
	Title       sql.NullString `db:"title"`
	ContentHash sql.NullString `db:"content_hash"`
	CreatedAt   pq.NullTime    `db:"created_at"`
}

type Citation struct {
	CitationId         string         `db:"citation_id"`
	JobId              string         `db:"job_id"`
	SourceId           string         `db:"source_id"`
	RequirementId      sql.NullString `db:"requirement_id"`
	Snippet            sql.NullString `db:"snippet"`
	VerificationStatus sql.NullString `db:"verification_status"`
	CreatedAt          pq.NullTime    `db:"created_at"`
}

type Upload struct {
	UploadId  string      `db:"upload_id"`
	Files     []byte      `db:"files"`
	FileCount int         `db:"file_count"`
	TotalSize int64       `db:"total_size"`
	CreatedAt pq.NullTime `db:"created_at"`
}

type AuditLog struct {
	Id             int64          `db:"id"`
	Actor          sql.NullString `db:"actor"`
	ClientIp       sql.NullString `db:"client_ip"`
	HttpMethod     string         `db:"http_method"`
	RequestPath    string         `db:"request_path"`
	ResourceType   sql.NullString `db:"resource_type"`
	ResourceName   sql.NullString `db:"resource_name"`
	RequestBody    sql.NullString `db:"request_body"`
	ResponseStatus int            `db:"response_status"`
	LatencyMs      int64          `db:"latency_ms"`
	CreatedAt      pq.NullTime    `db:"created_at"`
}

type GraphChange struct {
	Id            int64          `db:"id"`
	JobId         string         `db:"job_id"`
	RequirementId sql.NullString `db:"requirement_id"`
	Operation     string         `db:"operation"`
	NodeId        sql.NullString `db:"node_id"`
	Payload       []byte         `db:"payload"`
	CreatedAt     pq.NullTime    `db:"created_at"`
}

type AgentConfig struct {
	ConfigName     string         `db:"config_name"`
	DisplayName    sql.NullString `db:"display_name"`
	Description    sql.NullString `db:"description"`
	ToolCategories []byte         `db:"tool_categories"`
	Limits         []byte         `db:"limits"`
	CreatedAt      pq.NullTime    `db:"created_at"`
	UpdatedAt      pq.NullTime    `db:"updated_at"`
}

// getFieldTags retrieves FieldTags for internal use.
func getFieldTags(obj interface{}) map[string]string {
	result := make(map[string]string)
	t := reflect.TypeOf(obj)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		result[strings.ToLower(field.Name)] = field.Tag.Get("db")
	}
	return result
}

// generateCommand generates a named SQL command using reflection over the
// db tags of obj, skipping the column named by ignoreTag.
func generateCommand(obj interface{}, format, ignoreTag string) string {
	t := reflect.TypeOf(obj)
	columns := make([]string, 0, t.NumField())
	values := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("db")
		if tag == ignoreTag {
			continue
		}
		columns = append(columns, tag)
		values = append(values, fmt.Sprintf(":%s", tag))
	}
	cmd := fmt.Sprintf(format, strings.Join(columns, ", "), strings.Join(values, ", "))
	return cmd
}

// GetFieldTag returns the FieldTag value.
func GetFieldTag(tags map[string]string, name string) string {
	name = strings.ToLower(name)
	return tags[name]
}
