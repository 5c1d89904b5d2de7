/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"context"
	"fmt"

	sqrl "github.com/Masterminds/squirrel"

	dbutils "github.com/hive-agents/HIVE/pkg/database/utils"
	commonerrors "github.com/hive-agents/HIVE/pkg/errors"
)

const (
	TAuditLog = "audit_logs"
)

var (
	insertAuditLogFormat = `INSERT INTO ` + TAuditLog + ` (%s) VALUES (%s)`
)

// InsertAuditLog inserts a new audit log entry into the database.
func (c *Client) InsertAuditLog(ctx context.Context, auditLog *AuditLog) error {
	if auditLog == nil {
		return commonerrors.NewBadRequest("the input is empty")
	}
	db, err := c.getDB()
	if err != nil {
		return err
	}
	_, err = db.NamedExecContext(ctx, generateCommand(*auditLog, insertAuditLogFormat, "id"), auditLog)
	if err != nil {
		return fmt.Errorf("failed to insert audit_log to db: %v", err)
	}
	return nil
}

// SelectAuditLogs retrieves audit logs based on query conditions.
func (c *Client) SelectAuditLogs(ctx context.Context, query sqrl.Sqlizer, orderBy []string, limit, offset int) ([]*AuditLog, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}
	builder := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("*").From(TAuditLog)
	if query != nil {
		builder = builder.Where(query)
	}
	for _, order := range orderBy {
		builder = builder.OrderBy(order)
	}
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
	var auditLogs []*AuditLog
	if err = db.SelectContext(ctx, &auditLogs, cmd, args...); err != nil {
		return nil, dbutils.ClassifyPqError(err)
	}
	return auditLogs, nil
}

// CountAuditLogs counts audit logs based on query conditions.
func (c *Client) CountAuditLogs(ctx context.Context, query sqrl.Sqlizer) (int, error) {
	db, err := c.getDB()
	if err != nil {
		return 0, err
	}
	builder := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("COUNT(*)").From(TAuditLog)
	if query != nil {
		builder = builder.Where(query)
	}
	cmd, args, err := builder.ToSql()
	if err != nil {
		return 0, commonerrors.NewInternalError(err.Error())
	}
	var count int
	if err = db.GetContext(ctx, &count, cmd, args...); err != nil {
		return 0, dbutils.ClassifyPqError(err)
	}
	return count, nil
}
