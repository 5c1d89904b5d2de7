/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package upload_handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	apiutils "github.com/hive-agents/HIVE/pkg/apiutils"
	dbclient "github.com/hive-agents/HIVE/pkg/database/client"
	dbutils "github.com/hive-agents/HIVE/pkg/database/utils"
	commonerrors "github.com/hive-agents/HIVE/pkg/errors"
	"github.com/hive-agents/HIVE/pkg/uploads"
)

const (
	UploadId = "uploadId"
	FileName = "fileName"
)

type Handler struct {
	dbClient dbclient.Interface
	store    *uploads.Store
}

func NewHandler(dbClient dbclient.Interface, store *uploads.Store) *Handler {
	return &Handler{dbClient: dbClient, store: store}
}

type handleFunc func(*gin.Context) (interface{}, error)

func handle(c *gin.Context, fn handleFunc) {
	rsp, err := fn(c)
	if err != nil {
		apiutils.AbortWithApiError(c, err)
		return
	}
	c.JSON(http.StatusOK, rsp)
}

type uploadResponse struct {
	UploadId string             `json:"upload_id"`
	Files    []uploads.FileMeta `json:"files"`
}

type uploadMetaResponse struct {
	UploadId  string             `json:"upload_id"`
	Files     []uploads.FileMeta `json:"files"`
	FileCount int                `json:"file_count"`
	TotalSize int64              `json:"total_size"`
	CreatedAt string             `json:"created_at,omitempty"`
}

func (h *Handler) CreateUpload(c *gin.Context) {
	handle(c, h.createUpload)
}

func (h *Handler) GetUpload(c *gin.Context) {
	handle(c, h.getUpload)
}

// createUpload stores a multipart bundle (field "files") and records its
// metadata. The bundle is committed to disk before the row insert; a failed
// insert removes the bundle again so disk and store stay consistent.
func (h *Handler) createUpload(c *gin.Context) (interface{}, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, commonerrors.NewBadRequest("expected a multipart form: " + err.Error())
	}
	files := form.File["files"]
	if len(files) == 0 {
		return nil, commonerrors.NewBadRequest("multipart field files is empty")
	}
	uploadId := dbclient.NewID("upl")
	metas, total, err := h.store.Save(uploadId, files)
	if err != nil {
		return nil, err
	}
	filesJson, err := json.Marshal(metas)
	if err != nil {
		return nil, commonerrors.NewInternalError(err.Error())
	}
	row := &dbclient.Upload{
		UploadId:  uploadId,
		Files:     filesJson,
		FileCount: len(metas),
		TotalSize: total,
		CreatedAt: dbutils.NullTime(time.Now().UTC()),
	}
	if err = h.dbClient.InsertUpload(c.Request.Context(), row); err != nil {
		if removeErr := h.store.Remove(uploadId); removeErr != nil {
			klog.ErrorS(removeErr, "failed to remove orphaned upload bundle", "uploadId", uploadId)
		}
		return nil, err
	}
	return &uploadResponse{UploadId: uploadId, Files: metas}, nil
}

func (h *Handler) getUpload(c *gin.Context) (interface{}, error) {
	upload, err := h.dbClient.GetUpload(c.Request.Context(), c.Param(UploadId))
	if err != nil {
		return nil, err
	}
	var metas []uploads.FileMeta
	if len(upload.Files) > 0 {
		if err = json.Unmarshal(upload.Files, &metas); err != nil {
			return nil, commonerrors.NewInternalError(err.Error())
		}
	}
	return &uploadMetaResponse{
		UploadId:  upload.UploadId,
		Files:     metas,
		FileCount: upload.FileCount,
		TotalSize: upload.TotalSize,
		CreatedAt: dbutils.ParseNullTimeToString(upload.CreatedAt),
	}, nil
}

// GetUploadFile streams one stored file. The metadata row is checked first
// so unknown bundles 404 before touching the filesystem.
func (h *Handler) GetUploadFile(c *gin.Context) {
	uploadId := c.Param(UploadId)
	if _, err := h.dbClient.GetUpload(c.Request.Context(), uploadId); err != nil {
		apiutils.AbortWithApiError(c, err)
		return
	}
	path, err := h.store.Path(uploadId, c.Param(FileName))
	if err != nil {
		apiutils.AbortWithApiError(c, err)
		return
	}
	c.File(path)
}
