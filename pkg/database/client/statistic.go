/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	dbutils "github.com/hive-agents/HIVE/pkg/database/utils"
	commonerrors "github.com/hive-agents/HIVE/pkg/errors"
)

// JobStatisticsDaily is the per-day rollup row maintained by the scheduler.
type JobStatisticsDaily struct {
	StatDate       time.Time `gorm:"column:stat_date;primaryKey" json:"stat_date"`
	CreatedCount   int64     `gorm:"column:created_count" json:"created_count"`
	CompletedCount int64     `gorm:"column:completed_count" json:"completed_count"`
	FailedCount    int64     `gorm:"column:failed_count" json:"failed_count"`
	CancelledCount int64     `gorm:"column:cancelled_count" json:"cancelled_count"`
	TokensUsed     int64     `gorm:"column:tokens_used" json:"tokens_used"`
	RequestCount   int64     `gorm:"column:request_count" json:"request_count"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (JobStatisticsDaily) TableName() string {
	return "job_statistics_daily"
}

// JobStatusCount is one bucket of the live jobs summary.
type JobStatusCount struct {
	Status string `gorm:"column:status" json:"status"`
	Count  int64  `gorm:"column:count" json:"count"`
}

// AgentStatusCount is one bucket of the live agents summary, grouped by
// configuration and status.
type AgentStatusCount struct {
	ConfigName string `gorm:"column:config_name" json:"config_name"`
	Status     string `gorm:"column:status" json:"status"`
	Count      int64  `gorm:"column:count" json:"count"`
}

const rollupCmd = `
	SELECT d.stat_date,
	       COALESCE(c.created_count, 0)   AS created_count,
	       COALESCE(f.completed_count, 0) AS completed_count,
	       COALESCE(f.failed_count, 0)    AS failed_count,
	       COALESCE(f.cancelled_count, 0) AS cancelled_count,
	       COALESCE(f.tokens_used, 0)     AS tokens_used,
	       COALESCE(f.request_count, 0)   AS request_count
	FROM (SELECT ?::date AS stat_date) d
	LEFT JOIN (
	    SELECT created_at::date AS stat_date, COUNT(*) AS created_count
	    FROM jobs WHERE created_at::date = ?::date GROUP BY 1
	) c ON c.stat_date = d.stat_date
	LEFT JOIN (
	    SELECT completed_at::date AS stat_date,
	           COUNT(*) FILTER (WHERE status = 'completed') AS completed_count,
	           COUNT(*) FILTER (WHERE status = 'failed')    AS failed_count,
	           COUNT(*) FILTER (WHERE status = 'cancelled') AS cancelled_count,
	           SUM(tokens_used)   AS tokens_used,
	           SUM(request_count) AS request_count
	    FROM jobs WHERE completed_at::date = ?::date GROUP BY 1
	) f ON f.stat_date = d.stat_date`

// RollupDailyStatistics recomputes the rollup row for one calendar day from
// the jobs table and upserts it. Idempotent; the scheduler runs it for today
// and yesterday so late completions near midnight are not lost.
func (c *Client) RollupDailyStatistics(ctx context.Context, day time.Time) error {
	if c.gorm == nil {
		return commonerrors.NewInternalError("the gorm client has not been initialized")
	}
	date := day.Format("2006-01-02")
	var row JobStatisticsDaily
	if err := c.gorm.WithContext(ctx).Raw(rollupCmd, date, date, date).Scan(&row).Error; err != nil {
		return dbutils.ClassifyPqError(err)
	}
	row.UpdatedAt = time.Now()
	err := c.gorm.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stat_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"created_count", "completed_count", "failed_count",
			"cancelled_count", "tokens_used", "request_count", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return dbutils.ClassifyPqError(err)
	}
	return nil
}

// SelectDailyStatistics returns rollup rows in [from, to], newest first.
func (c *Client) SelectDailyStatistics(ctx context.Context, from, to time.Time) ([]*JobStatisticsDaily, error) {
	if c.gorm == nil {
		return nil, commonerrors.NewInternalError("the gorm client has not been initialized")
	}
	var rows []*JobStatisticsDaily
	err := c.gorm.WithContext(ctx).
		Where("stat_date BETWEEN ?::date AND ?::date", from.Format("2006-01-02"), to.Format("2006-01-02")).
		Order("stat_date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, dbutils.ClassifyPqError(err)
	}
	return rows, nil
}

// CountJobsByStatus returns the live per-status job counts.
func (c *Client) CountJobsByStatus(ctx context.Context) ([]*JobStatusCount, error) {
	if c.gorm == nil {
		return nil, commonerrors.NewInternalError("the gorm client has not been initialized")
	}
	var rows []*JobStatusCount
	err := c.gorm.WithContext(ctx).Table(TJob).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, dbutils.ClassifyPqError(err)
	}
	return rows, nil
}

// CountAgentsByStatus returns live agent counts grouped by config and status.
func (c *Client) CountAgentsByStatus(ctx context.Context) ([]*AgentStatusCount, error) {
	if c.gorm == nil {
		return nil, commonerrors.NewInternalError("the gorm client has not been initialized")
	}
	var rows []*AgentStatusCount
	err := c.gorm.WithContext(ctx).Table(TAgent).
		Select("config_name, status, COUNT(*) AS count").
		Group("config_name, status").
		Order("config_name ASC, status ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, dbutils.ClassifyPqError(err)
	}
	return rows, nil
}
