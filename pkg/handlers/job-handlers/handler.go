/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package job_handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hive-agents/HIVE/pkg/agentclient"
	apiutils "github.com/hive-agents/HIVE/pkg/apiutils"
	dbclient "github.com/hive-agents/HIVE/pkg/database/client"
	commonerrors "github.com/hive-agents/HIVE/pkg/errors"
	jsonutils "github.com/hive-agents/HIVE/pkg/json"
)

const (
	JobId = "jobId"
)

var (
	jsonContentType = "application/json; charset=utf-8"
)

type Handler struct {
	dbClient dbclient.Interface
	agents   agentclient.Interface
	kicker   func()
}

// NewHandler wires the job handlers. kicker nudges the dispatcher after
// writes that make a job eligible for dispatch.
func NewHandler(dbClient dbclient.Interface, agents agentclient.Interface, kicker func()) *Handler {
	return &Handler{dbClient: dbClient, agents: agents, kicker: kicker}
}

type handleFunc func(*gin.Context) (interface{}, error)

func handle(c *gin.Context, fn handleFunc) {
	rsp, err := fn(c)
	if err != nil {
		apiutils.AbortWithApiError(c, err)
		return
	}
	code := http.StatusOK
	if c.Writer.Status() > 0 {
		code = c.Writer.Status()
	}
	switch rspType := rsp.(type) {
	case []byte:
		c.Data(code, jsonContentType, rspType)
	case string:
		c.Data(code, jsonContentType, []byte(rspType))
	default:
		c.JSON(code, rspType)
	}
}

func getBodyFromRequest(req *http.Request, bodyStruct interface{}) ([]byte, error) {
	body, err := apiutils.ReadBody(req)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}
	if err = jsonutils.UnmarshalWithCheck(body, bodyStruct); err != nil {
		return body, commonerrors.NewBadRequest(err.Error())
	}
	return body, nil
}
