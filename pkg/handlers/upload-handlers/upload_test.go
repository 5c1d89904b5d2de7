/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package upload_handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbclient "github.com/hive-agents/HIVE/pkg/database/client"
	commonerrors "github.com/hive-agents/HIVE/pkg/errors"
	"github.com/hive-agents/HIVE/pkg/uploads"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeDB struct {
	dbclient.Interface

	uploads   map[string]*dbclient.Upload
	insertErr error
}

func (f *fakeDB) InsertUpload(_ context.Context, upload *dbclient.Upload) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.uploads[upload.UploadId] = upload
	return nil
}

func (f *fakeDB) GetUpload(_ context.Context, uploadId string) (*dbclient.Upload, error) {
	upload, ok := f.uploads[uploadId]
	if !ok {
		return nil, commonerrors.NewNotFound(commonerrors.KindUpload, uploadId)
	}
	return upload, nil
}

func newTestEnv(t *testing.T) (*gin.Engine, *fakeDB, string) {
	t.Helper()
	root := t.TempDir()
	store, err := uploads.NewStore(root, 1<<20)
	require.NoError(t, err)

	db := &fakeDB{uploads: map[string]*dbclient.Upload{}}
	engine := gin.New()
	InitUploadRouters(engine, NewHandler(db, store))
	return engine, db, root
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestCreateUploadStoresBundleAndMetadata(t *testing.T) {
	engine, db, root := newTestEnv(t)

	body, contentType := multipartBody(t, map[string]string{
		"notes.md":  "# findings",
		"data.json": `{"k":"v"}`,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var rsp uploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rsp))
	assert.Contains(t, rsp.UploadId, "upl-")
	assert.Len(t, rsp.Files, 2)

	row, ok := db.uploads[rsp.UploadId]
	require.True(t, ok)
	assert.Equal(t, 2, row.FileCount)
	assert.Equal(t, int64(len("# findings")+len(`{"k":"v"}`)), row.TotalSize)

	stored, err := os.ReadFile(filepath.Join(root, rsp.UploadId, "notes.md"))
	require.NoError(t, err)
	assert.Equal(t, "# findings", string(stored))
}

func TestCreateUploadWithoutFilesIs400(t *testing.T) {
	engine, _, _ := newTestEnv(t)
	body, contentType := multipartBody(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateUploadRemovesBundleOnInsertFailure(t *testing.T) {
	engine, db, root := newTestEnv(t)
	db.insertErr = commonerrors.NewTransientBackend("connection reset")

	body, contentType := multipartBody(t, map[string]string{"a.txt": "data"})
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "a failed metadata insert must not leave the bundle behind")
}

func TestGetUploadReturnsMetadata(t *testing.T) {
	engine, db, _ := newTestEnv(t)
	files, _ := json.Marshal([]uploads.FileMeta{{Name: "a.txt", Size: 4}})
	db.uploads["upl-1"] = &dbclient.Upload{UploadId: "upl-1", Files: files, FileCount: 1, TotalSize: 4}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/uploads/upl-1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var rsp uploadMetaResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rsp))
	assert.Equal(t, 1, rsp.FileCount)
	require.Len(t, rsp.Files, 1)
	assert.Equal(t, "a.txt", rsp.Files[0].Name)
}

func TestGetUploadFileServesContent(t *testing.T) {
	engine, _, _ := newTestEnv(t)

	body, contentType := multipartBody(t, map[string]string{"report.txt": "final"})
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var rsp uploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rsp))

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/api/uploads/"+rsp.UploadId+"/files/report.txt", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "final", w.Body.String())
}

func TestGetUploadFileUnknownBundleIs404(t *testing.T) {
	engine, _, _ := newTestEnv(t)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/uploads/upl-x/files/a.txt", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
