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

// Sources and citations are artifacts of the citation subsystem. The
// orchestrator stores and serves them without interpretation; they are
// cascade-deleted with their job.

const (
	TSource   = "sources"
	TCitation = "citations"
)

var (
	insertSourceFormat   = `INSERT INTO ` + TSource + ` (%s) VALUES (%s)`
	insertCitationFormat = `INSERT INTO ` + TCitation + ` (%s) VALUES (%s)`
)

func (c *Client) InsertSource(ctx context.Context, source *Source) error {
	if source == nil {
		return commonerrors.NewBadRequest("the input is empty")
	}
	db, err := c.getDB()
	if err != nil {
		return err
	}
	if _, err = db.NamedExecContext(ctx, generateCommand(*source, insertSourceFormat, ""), source); err != nil {
		return dbutils.ClassifyPqError(err)
	}
	return nil
}

func (c *Client) SelectSources(ctx context.Context, jobId string) ([]*Source, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}
	cmd, args, err := sqrl.Select("*").PlaceholderFormat(sqrl.Dollar).
		From(TSource).
		Where(sqrl.Eq{"job_id": jobId}).
		OrderBy(CreatedAt + " ASC").ToSql()
	if err != nil {
		return nil, commonerrors.NewInternalError(err.Error())
	}
	var sources []*Source
	if err = db.SelectContext(ctx, &sources, cmd, args...); err != nil {
		return nil, dbutils.ClassifyPqError(err)
	}
	return sources, nil
}

func (c *Client) InsertCitation(ctx context.Context, citation *Citation) error {
	if citation == nil {
		return commonerrors.NewBadRequest("the input is empty")
	}
	db, err := c.getDB()
	if err != nil {
		return err
	}
	if _, err = db.NamedExecContext(ctx, generateCommand(*citation, insertCitationFormat, ""), citation); err != nil {
		return dbutils.ClassifyPqError(err)
	}
	return nil
}

func (c *Client) SelectCitations(ctx context.Context, jobId string) ([]*Citation, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}
	cmd, args, err := sqrl.Select("*").PlaceholderFormat(sqrl.Dollar).
		From(TCitation).
		Where(sqrl.Eq{"job_id": jobId}).
		OrderBy(CreatedAt + " ASC").ToSql()
	if err != nil {
		return nil, commonerrors.NewInternalError(err.Error())
	}
	var citations []*Citation
	if err = db.SelectContext(ctx, &citations, cmd, args...); err != nil {
		return nil, dbutils.ClassifyPqError(err)
	}
	return citations, nil
}
