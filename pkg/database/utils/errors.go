/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package utils

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"strings"

	"github.com/lib/pq"

	commonerrors "github.com/hive-agents/HIVE/pkg/errors"
)

// ClassifyPqError converts driver-level errors into the orchestrator error
// taxonomy. Everything the gateway returns goes through here exactly once.
//
//	sql.ErrNoRows            -> NotFound (generic; callers usually re-wrap with kind)
//	unique_violation (23505) -> StateConflict
//	class 23 (integrity)     -> BadRequest
//	serialization (40001),
//	deadlock (40P01)         -> TransientBackend
//	class 08 (connection),
//	class 57 (op intervention) -> Unavailable
func ClassifyPqError(err error) error {
	if err == nil {
		return nil
	}
	if commonerrors.IsHive(err) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return commonerrors.NewNotFoundWithMessage(err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return commonerrors.NewTransientBackend(err.Error())
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return commonerrors.NewUnavailable(err.Error())
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		switch {
		case code == "23505":
			return commonerrors.NewStateConflict("", "", pqErr.Message)
		case strings.HasPrefix(code, "23"):
			return commonerrors.NewBadRequest(pqErr.Message)
		case code == "40001" || code == "40P01":
			return commonerrors.NewTransientBackend(pqErr.Message)
		case strings.HasPrefix(code, "08") || strings.HasPrefix(code, "57"):
			return commonerrors.NewUnavailable(pqErr.Message)
		}
	}
	return commonerrors.NewInternalError(err.Error())
}
