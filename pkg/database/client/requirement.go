/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"context"
	"fmt"

	sqrl "github.com/Masterminds/squirrel"
	"k8s.io/klog/v2"

	dbutils "github.com/hive-agents/HIVE/pkg/database/utils"
	commonerrors "github.com/hive-agents/HIVE/pkg/errors"
)

const (
	TRequirement = "requirements"
)

var (
	insertRequirementFormat = `INSERT INTO ` + TRequirement + ` (%s) VALUES (%s)`
	getRequirementCmd       = fmt.Sprintf(`SELECT * FROM %s WHERE requirement_id = $1 LIMIT 1`, TRequirement)
	updateRequirementCmd    = fmt.Sprintf(`UPDATE %s
		SET status = :status,
		    description = :description,
		    graph_node_id = :graph_node_id,
		    updated_at = NOW()
		WHERE requirement_id = :requirement_id`, TRequirement)
	countRequirementsCmd = fmt.Sprintf(`SELECT status, COUNT(*) AS count FROM %s WHERE job_id = $1 GROUP BY status`, TRequirement)
)

// UpsertRequirement inserts or refreshes an artifact row reported by an
// agent. The orchestrator stores these for observability only.
func (c *Client) UpsertRequirement(ctx context.Context, req *Requirement) error {
	if req == nil {
		return commonerrors.NewBadRequest("the input is empty")
	}
	if !isValidRequirementStatus(req.Status) {
		return commonerrors.NewBadRequest(fmt.Sprintf("invalid requirement status %s", req.Status))
	}
	db, err := c.getDB()
	if err != nil {
		return err
	}
	var existing []*Requirement
	if err = db.SelectContext(ctx, &existing, getRequirementCmd, req.RequirementId); err != nil {
		return dbutils.ClassifyPqError(err)
	}
	if len(existing) > 0 {
		_, err = db.NamedExecContext(ctx, updateRequirementCmd, req)
	} else {
		_, err = db.NamedExecContext(ctx, generateCommand(*req, insertRequirementFormat, ""), req)
	}
	if err != nil {
		klog.ErrorS(err, "failed to upsert requirement", "id", req.RequirementId)
		return dbutils.ClassifyPqError(err)
	}
	return nil
}

func (c *Client) SelectRequirements(ctx context.Context, jobId string) ([]*Requirement, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}
	cmd, args, err := sqrl.Select("*").PlaceholderFormat(sqrl.Dollar).
		From(TRequirement).
		Where(sqrl.Eq{"job_id": jobId}).
		OrderBy(CreatedAt + " ASC").ToSql()
	if err != nil {
		return nil, commonerrors.NewInternalError(err.Error())
	}
	var reqs []*Requirement
	if err = db.SelectContext(ctx, &reqs, cmd, args...); err != nil {
		return nil, dbutils.ClassifyPqError(err)
	}
	return reqs, nil
}

// CountRequirementsByStatus returns per-status counts for one job's
// requirements, used by the progress summary.
func (c *Client) CountRequirementsByStatus(ctx context.Context, jobId string) (map[string]int, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, countRequirementsCmd, jobId)
	if err != nil {
		return nil, dbutils.ClassifyPqError(err)
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err = rows.Scan(&status, &count); err != nil {
			return nil, dbutils.ClassifyPqError(err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func isValidRequirementStatus(status string) bool {
	switch status {
	case RequirementPending, RequirementValidating, RequirementIntegrated,
		RequirementRejected, RequirementFailed:
		return true
	}
	return false
}
