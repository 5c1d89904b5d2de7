/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

// Package uploads stores job file bundles on the local filesystem. Each
// bundle lives under {root}/{upload_id}/{name}; the bundle directory is
// staged under a temporary name and renamed into place so a crashed write
// never leaves a partial bundle visible.
package uploads

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"k8s.io/klog/v2"

	commonerrors "github.com/hive-agents/HIVE/pkg/errors"
)

// FileMeta describes one stored file, persisted as the files JSONB column.
type FileMeta struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type,omitempty"`
}

type Store struct {
	root     string
	maxBytes int64
}

func NewStore(root string, maxBytes int64) (*Store, error) {
	if root == "" {
		return nil, commonerrors.NewInternalError("upload root path is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, commonerrors.NewInternalError(fmt.Sprintf("failed to create upload root: %v", err))
	}
	return &Store{root: root, maxBytes: maxBytes}, nil
}

// Save writes all files of one bundle and returns their metadata. The size
// budget covers the whole bundle, not individual files. Any failure removes
// the staging directory so nothing is left behind.
func (s *Store) Save(uploadId string, files []*multipart.FileHeader) ([]FileMeta, int64, error) {
	if len(files) == 0 {
		return nil, 0, commonerrors.NewBadRequest("the bundle contains no files")
	}
	staging := filepath.Join(s.root, ".tmp-"+uploadId)
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, 0, commonerrors.NewInternalError(fmt.Sprintf("failed to create staging dir: %v", err))
	}
	defer os.RemoveAll(staging)

	metas := make([]FileMeta, 0, len(files))
	var total int64
	for _, fh := range files {
		name, err := cleanName(fh.Filename)
		if err != nil {
			return nil, 0, err
		}
		written, err := s.saveOne(staging, name, fh, total)
		if err != nil {
			return nil, 0, err
		}
		total += written
		metas = append(metas, FileMeta{Name: name, Size: written, MimeType: fh.Header.Get("Content-Type")})
	}
	if err := os.Rename(staging, filepath.Join(s.root, uploadId)); err != nil {
		return nil, 0, commonerrors.NewInternalError(fmt.Sprintf("failed to commit bundle: %v", err))
	}
	klog.V(2).InfoS("stored upload bundle", "uploadId", uploadId, "files", len(metas), "bytes", total)
	return metas, total, nil
}

func (s *Store) saveOne(staging, name string, fh *multipart.FileHeader, alreadyWritten int64) (int64, error) {
	src, err := fh.Open()
	if err != nil {
		return 0, commonerrors.NewBadRequest(fmt.Sprintf("failed to open uploaded file %s: %v", name, err))
	}
	defer src.Close()

	dst, err := os.OpenFile(filepath.Join(staging, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return 0, commonerrors.NewBadRequest(fmt.Sprintf("duplicate file name %s in bundle", name))
		}
		return 0, commonerrors.NewInternalError(err.Error())
	}
	defer dst.Close()

	// Copy with a hard cap instead of trusting the declared size.
	limit := s.maxBytes - alreadyWritten + 1
	written, err := io.Copy(dst, io.LimitReader(src, limit))
	if err != nil {
		return 0, commonerrors.NewInternalError(fmt.Sprintf("failed to write %s: %v", name, err))
	}
	if alreadyWritten+written > s.maxBytes {
		return 0, commonerrors.NewRequestEntityTooLargeError(
			fmt.Sprintf("bundle exceeds the %d byte limit", s.maxBytes))
	}
	return written, nil
}

// Path resolves a stored file for serving, refusing names that escape the
// bundle directory.
func (s *Store) Path(uploadId, name string) (string, error) {
	cleaned, err := cleanName(name)
	if err != nil {
		return "", err
	}
	if err := validateId(uploadId); err != nil {
		return "", err
	}
	p := filepath.Join(s.root, uploadId, cleaned)
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return "", commonerrors.NewNotFound(commonerrors.KindUpload, uploadId+"/"+cleaned)
		}
		return "", commonerrors.NewInternalError(err.Error())
	}
	return p, nil
}

// Remove deletes a whole bundle. Missing bundles are not an error.
func (s *Store) Remove(uploadId string) error {
	if err := validateId(uploadId); err != nil {
		return err
	}
	return os.RemoveAll(filepath.Join(s.root, uploadId))
}

func cleanName(name string) (string, error) {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == ".." || strings.ContainsAny(base, "/\\") {
		return "", commonerrors.NewBadRequest(fmt.Sprintf("invalid file name %q", name))
	}
	return base, nil
}

func validateId(uploadId string) error {
	if uploadId == "" || strings.ContainsAny(uploadId, "/\\") || strings.Contains(uploadId, "..") {
		return commonerrors.NewBadRequest(fmt.Sprintf("invalid upload id %q", uploadId))
	}
	return nil
}
