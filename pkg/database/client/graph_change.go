/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"context"

	sqrl "github.com/Masterminds/squirrel"

	dbutils "github.com/hive-agents/HIVE/pkg/database/utils"
	commonerrors "github.com/hive-agents/HIVE/pkg/errors"
)

const (
	TGraphChange = "graph_changes"
)

var (
	insertGraphChangeFormat = `INSERT INTO ` + TGraphChange + ` (%s) VALUES (%s)`
)

// InsertGraphChange records one external graph-store mutation reported by an
// agent, for the audit-oriented query endpoints.
func (c *Client) InsertGraphChange(ctx context.Context, change *GraphChange) error {
	if change == nil {
		return commonerrors.NewBadRequest("the input is empty")
	}
	db, err := c.getDB()
	if err != nil {
		return err
	}
	if _, err = db.NamedExecContext(ctx, generateCommand(*change, insertGraphChangeFormat, "id"), change); err != nil {
		return dbutils.ClassifyPqError(err)
	}
	return nil
}

func (c *Client) SelectGraphChanges(ctx context.Context, jobId string, limit, offset int) ([]*GraphChange, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}
	builder := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("*").From(TGraphChange).
		Where(sqrl.Eq{"job_id": jobId}).
		OrderBy("id ASC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	if offset > 0 {
		builder = builder.Offset(uint64(offset))
	}
	cmd, args, err := builder.ToSql()
	if err != nil {
		return nil, commonerrors.NewInternalError(err.Error())
	}
	var changes []*GraphChange
	if err = db.SelectContext(ctx, &changes, cmd, args...); err != nil {
		return nil, dbutils.ClassifyPqError(err)
	}
	return changes, nil
}

func (c *Client) CountGraphChanges(ctx context.Context, jobId string) (int, error) {
	db, err := c.getDB()
	if err != nil {
		return 0, err
	}
	cmd, args, err := sqrl.Select("COUNT(*)").PlaceholderFormat(sqrl.Dollar).
		From(TGraphChange).
		Where(sqrl.Eq{"job_id": jobId}).ToSql()
	if err != nil {
		return 0, commonerrors.NewInternalError(err.Error())
	}
	var count int
	if err = db.GetContext(ctx, &count, cmd, args...); err != nil {
		return 0, dbutils.ClassifyPqError(err)
	}
	return count, nil
}
