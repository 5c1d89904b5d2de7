/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"context"
	"time"

	sqrl "github.com/Masterminds/squirrel"
)

// Interface is the full persistence gateway surface. Consumers depend on the
// slice they need so tests can fake just that slice.
type Interface interface {
	JobInterface
	AgentInterface
	DispatchInterface
	ReviewInterface
	DetectorInterface
	ArtifactInterface
	UploadInterface
	AuditLogInterface
	AgentConfigInterface
	StatisticInterface

	Close()
	Ping(ctx context.Context) error
}

type JobInterface interface {
	InsertJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, jobId string) (*Job, error)
	SelectJobs(ctx context.Context, query sqrl.Sqlizer, orderBy []string, limit, offset int) ([]*Job, error)
	CountJobs(ctx context.Context, query sqrl.Sqlizer) (int, error)
	DeleteJob(ctx context.Context, jobId string) error
	UpdateJobStatus(ctx context.Context, jobId, target, reason string) error
	CancelJob(ctx context.Context, jobId string) (*Agent, error)
	FinishJobFromAgent(ctx context.Context, jobId, agentId, outcome, errorMessage string,
		errorDetails interface{}, tokensUsed, requestCount int64) error
	SetJobProgress(ctx context.Context, jobId, creatorStatus, validatorStatus string,
		tokensUsed, requestCount int64) error
}

type AgentInterface interface {
	RegisterAgent(ctx context.Context, configName, hostname, podIp string, podPort int, metadata []byte) (string, error)
	HeartbeatAgent(ctx context.Context, agentId, reportedStatus string) error
	MarkAgentReady(ctx context.Context, agentId string) error
	MarkAgentWorking(ctx context.Context, agentId, jobId string) error
	MarkAgentFinished(ctx context.Context, agentId, outcome string) error
	RemoveAgent(ctx context.Context, agentId string) error
	GetAgent(ctx context.Context, agentId string) (*Agent, error)
	SelectAgents(ctx context.Context, query sqrl.Sqlizer, orderBy []string, limit, offset int) ([]*Agent, error)
	CountAgents(ctx context.Context, query sqrl.Sqlizer) (int, error)
}

type DispatchInterface interface {
	ClaimCreatedJobs(ctx context.Context, batchSize int) ([]DispatchPair, error)
	RollbackDispatch(ctx context.Context, jobId, agentId string, maxAttempts int) (bool, error)
}

type ReviewInterface interface {
	FreezeJob(ctx context.Context, jobId string, frozenData []byte) error
	ApproveJob(ctx context.Context, jobId string) (*Agent, error)
	ResumeJob(ctx context.Context, jobId string) (*Agent, error)
	DetachJobToCreated(ctx context.Context, jobId, agentId string) error
}

type DetectorInterface interface {
	MarkStaleAgentsOffline(ctx context.Context, threshold, grace time.Duration) ([]OfflineVictim, error)
	FailExpiredRecoveries(ctx context.Context) ([]string, error)
	FailStalledJobs(ctx context.Context, escalation time.Duration) ([]string, error)
	SelectStuckJobs(ctx context.Context, threshold time.Duration) ([]*StuckJob, error)
}

// ArtifactInterface covers the per-job artifacts agents report back:
// requirements, sources, citations and graph changes.
type ArtifactInterface interface {
	UpsertRequirement(ctx context.Context, req *Requirement) error
	SelectRequirements(ctx context.Context, jobId string) ([]*Requirement, error)
	CountRequirementsByStatus(ctx context.Context, jobId string) (map[string]int, error)
	InsertSource(ctx context.Context, source *Source) error
	SelectSources(ctx context.Context, jobId string) ([]*Source, error)
	InsertCitation(ctx context.Context, citation *Citation) error
	SelectCitations(ctx context.Context, jobId string) ([]*Citation, error)
	InsertGraphChange(ctx context.Context, change *GraphChange) error
	SelectGraphChanges(ctx context.Context, jobId string, limit, offset int) ([]*GraphChange, error)
	CountGraphChanges(ctx context.Context, jobId string) (int, error)
}

type UploadInterface interface {
	InsertUpload(ctx context.Context, upload *Upload) error
	GetUpload(ctx context.Context, uploadId string) (*Upload, error)
}

type AuditLogInterface interface {
	InsertAuditLog(ctx context.Context, auditLog *AuditLog) error
	SelectAuditLogs(ctx context.Context, query sqrl.Sqlizer, orderBy []string, limit, offset int) ([]*AuditLog, error)
	CountAuditLogs(ctx context.Context, query sqrl.Sqlizer) (int, error)
}

type AgentConfigInterface interface {
	UpsertAgentConfig(ctx context.Context, config *AgentConfig) error
	GetAgentConfig(ctx context.Context, configName string) (*AgentConfig, error)
	SelectAgentConfigs(ctx context.Context) ([]*AgentConfig, error)
	DeleteAgentConfig(ctx context.Context, configName string) error
}

type StatisticInterface interface {
	RollupDailyStatistics(ctx context.Context, day time.Time) error
	SelectDailyStatistics(ctx context.Context, from, to time.Time) ([]*JobStatisticsDaily, error)
	CountJobsByStatus(ctx context.Context) ([]*JobStatusCount, error)
	CountAgentsByStatus(ctx context.Context) ([]*AgentStatusCount, error)
}

var _ Interface = (*Client)(nil)
