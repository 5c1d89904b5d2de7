/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"context"
	"fmt"

	dbutils "github.com/hive-agents/HIVE/pkg/database/utils"
	commonerrors "github.com/hive-agents/HIVE/pkg/errors"
)

const (
	TUpload = "uploads"
)

var (
	insertUploadFormat = `INSERT INTO ` + TUpload + ` (%s) VALUES (%s)`
	getUploadCmd       = fmt.Sprintf(`SELECT * FROM %s WHERE upload_id = $1 LIMIT 1`, TUpload)
)

// InsertUpload persists upload bundle metadata. The file bytes themselves
// live on the filesystem under the upload root.
func (c *Client) InsertUpload(ctx context.Context, upload *Upload) error {
	if upload == nil {
		return commonerrors.NewBadRequest("the input is empty")
	}
	db, err := c.getDB()
	if err != nil {
		return err
	}
	if _, err = db.NamedExecContext(ctx, generateCommand(*upload, insertUploadFormat, ""), upload); err != nil {
		return dbutils.ClassifyPqError(err)
	}
	return nil
}

func (c *Client) GetUpload(ctx context.Context, uploadId string) (*Upload, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}
	var uploads []*Upload
	if err = db.SelectContext(ctx, &uploads, getUploadCmd, uploadId); err != nil {
		return nil, dbutils.ClassifyPqError(err)
	}
	if len(uploads) == 0 {
		return nil, commonerrors.NewNotFound(commonerrors.KindUpload, uploadId)
	}
	return uploads[0], nil
}
