/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package agent_handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apiutils "github.com/hive-agents/HIVE/pkg/apiutils"
	dbclient "github.com/hive-agents/HIVE/pkg/database/client"
	commonerrors "github.com/hive-agents/HIVE/pkg/errors"
	jsonutils "github.com/hive-agents/HIVE/pkg/json"
)

const (
	AgentId    = "agentId"
	ConfigName = "configName"
)

type Handler struct {
	dbClient dbclient.Interface
	kicker   func()
}

// NewHandler wires the agent handlers. kicker nudges the dispatcher when an
// agent becomes ready for work.
func NewHandler(dbClient dbclient.Interface, kicker func()) *Handler {
	return &Handler{dbClient: dbClient, kicker: kicker}
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

func getBodyFromRequest(req *http.Request, bodyStruct interface{}) error {
	body, err := apiutils.ReadBody(req)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	if err = jsonutils.UnmarshalWithCheck(body, bodyStruct); err != nil {
		return commonerrors.NewBadRequest(err.Error())
	}
	return nil
}
