/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hive-agents/HIVE/pkg/agentclient"
	apiutils "github.com/hive-agents/HIVE/pkg/apiutils"
	"github.com/hive-agents/HIVE/pkg/common"
	dbclient "github.com/hive-agents/HIVE/pkg/database/client"
	"github.com/hive-agents/HIVE/pkg/detector"
	commonerrors "github.com/hive-agents/HIVE/pkg/errors"
	agent_handlers "github.com/hive-agents/HIVE/pkg/handlers/agent-handlers"
	job_handlers "github.com/hive-agents/HIVE/pkg/handlers/job-handlers"
	"github.com/hive-agents/HIVE/pkg/handlers/middleware"
	statistic_handlers "github.com/hive-agents/HIVE/pkg/handlers/statistic-handlers"
	upload_handlers "github.com/hive-agents/HIVE/pkg/handlers/upload-handlers"
	"github.com/hive-agents/HIVE/pkg/uploads"
)

// InitHttpHandlers builds the Gin engine with logging, recovery and audit
// middleware and wires every resource router. kicker nudges the dispatcher
// after writes that create dispatchable work.
func InitHttpHandlers(db dbclient.Interface, agents agentclient.Interface, store *uploads.Store,
	det *detector.Detector, audit *middleware.AuditBuffer, kicker func()) *gin.Engine {
	engine := gin.New()
	engine.MaxMultipartMemory = 32 << 20
	engine.Use(apiutils.Logger(), gin.Recovery(), middleware.AuditLog(audit))
	engine.NoRoute(func(c *gin.Context) {
		apiutils.AbortWithApiError(c, commonerrors.NewNotFoundWithMessage(c.Request.RequestURI+" not found"))
	})

	engine.GET(common.HealthzPath, func(c *gin.Context) {
		if err := db.Ping(c.Request.Context()); err != nil {
			apiutils.AbortWithApiError(c, commonerrors.NewUnavailable(err.Error()))
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET(common.MetricsPath, gin.WrapH(promhttp.Handler()))

	job_handlers.InitJobRouters(engine, job_handlers.NewHandler(db, agents, kicker))
	agent_handlers.InitAgentRouters(engine, agent_handlers.NewHandler(db, kicker))
	upload_handlers.InitUploadRouters(engine, upload_handlers.NewHandler(db, store))
	statistic_handlers.InitStatisticRouters(engine, statistic_handlers.NewHandler(db, det))
	return engine
}
