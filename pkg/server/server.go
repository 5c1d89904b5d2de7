/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package server

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
	ctrlruntime "sigs.k8s.io/controller-runtime"

	"github.com/hive-agents/HIVE/pkg/agentclient"
	commonconfig "github.com/hive-agents/HIVE/pkg/config"
	dbclient "github.com/hive-agents/HIVE/pkg/database/client"
	"github.com/hive-agents/HIVE/pkg/detector"
	"github.com/hive-agents/HIVE/pkg/dispatcher"
	commonerrors "github.com/hive-agents/HIVE/pkg/errors"
	"github.com/hive-agents/HIVE/pkg/handlers"
	"github.com/hive-agents/HIVE/pkg/handlers/middleware"
	commonklog "github.com/hive-agents/HIVE/pkg/klog"
	"github.com/hive-agents/HIVE/pkg/options"
	"github.com/hive-agents/HIVE/pkg/scheduler"
	"github.com/hive-agents/HIVE/pkg/uploads"
)

const (
	dispatcherTask = "dispatcher"
	detectorTask   = "detector"
	rollupTask     = "statistics-rollup"

	shutdownTimeout = 30 * time.Second
)

type Server struct {
	opts        *options.Options
	dbClient    dbclient.Interface
	dispatcher  *dispatcher.Dispatcher
	detector    *detector.Detector
	scheduler   *scheduler.Scheduler
	auditBuffer *middleware.AuditBuffer
	httpServer  *http.Server
	ctx         context.Context
	isInited    bool
}

func NewServer() (*Server, error) {
	s := &Server{
		opts: &options.Options{},
		ctx:  ctrlruntime.SetupSignalHandler(),
	}
	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) init() error {
	gin.SetMode(gin.ReleaseMode)
	var err error
	if err = s.opts.InitFlags(); err != nil {
		klog.ErrorS(err, "failed to parse flags")
		return err
	}
	if err = s.initLogs(); err != nil {
		klog.ErrorS(err, "failed to init logs")
		return err
	}
	if err = s.initConfig(); err != nil {
		klog.ErrorS(err, "failed to init config")
		return err
	}
	dbClient := dbclient.NewClient()
	if dbClient == nil {
		return commonerrors.NewUnavailable("the backing store is unreachable")
	}
	s.dbClient = dbClient

	store, err := uploads.NewStore(commonconfig.GetUploadRootPath(), commonconfig.GetUploadMaxBytes())
	if err != nil {
		klog.ErrorS(err, "failed to init upload store")
		return err
	}
	agents := agentclient.New()
	s.dispatcher = dispatcher.New(s.dbClient, agents)
	s.detector = detector.New(s.dbClient, s.dispatcher.Kick)
	if err = s.initScheduler(); err != nil {
		klog.ErrorS(err, "failed to init scheduler")
		return err
	}

	s.auditBuffer = middleware.NewAuditBuffer(s.dbClient)
	engine := handlers.InitHttpHandlers(s.dbClient, agents, store, s.detector, s.auditBuffer, s.dispatcher.Kick)
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", commonconfig.GetServerPort()),
		Handler:           engine,
		ReadHeaderTimeout: time.Duration(commonconfig.GetServerRequestTimeoutSecond()) * time.Second,
	}
	s.isInited = true
	return nil
}

func (s *Server) initLogs() error {
	return commonklog.Init(s.opts.LogfilePath, s.opts.LogFileSize)
}

func (s *Server) initConfig() error {
	path := s.opts.Config
	if path != "" {
		fullPath, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		path = fullPath
	}
	if err := commonconfig.LoadConfig(path); err != nil {
		return fmt.Errorf("config path: %s, err: %v", path, err)
	}
	return nil
}

func (s *Server) initScheduler() error {
	s.scheduler = scheduler.New()
	dispatchSpec := fmt.Sprintf("@every %ds", commonconfig.GetDispatchIntervalSecond())
	if err := s.scheduler.Register(dispatcherTask, dispatchSpec, s.dispatcher.Tick); err != nil {
		return err
	}
	detectorSpec := fmt.Sprintf("@every %ds", commonconfig.GetDetectorIntervalSecond())
	if err := s.scheduler.Register(detectorTask, detectorSpec, s.detector.Scan); err != nil {
		return err
	}
	rollupSpec := fmt.Sprintf("@every %dm", commonconfig.GetRollupIntervalMinute())
	return s.scheduler.Register(rollupTask, rollupSpec, s.rollupStatistics)
}

// rollupStatistics refreshes today's row and re-settles yesterday's, so jobs
// finishing around midnight still land in the right bucket.
func (s *Server) rollupStatistics(ctx context.Context) error {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if err := s.dbClient.RollupDailyStatistics(ctx, today); err != nil {
		return err
	}
	return s.dbClient.RollupDailyStatistics(ctx, today.AddDate(0, 0, -1))
}

func (s *Server) Start() {
	if !s.isInited {
		klog.Errorf("please init the orchestrator first")
		return
	}
	gin.EnableJsonDecoderDisallowUnknownFields()

	klog.Infof("starting orchestrator")
	s.scheduler.Start(s.ctx)
	// Dispatch kicks coalesce in the dispatcher's channel; this goroutine
	// turns them into eager scheduler runs between ticks.
	go func() {
		for {
			select {
			case <-s.ctx.Done():
				return
			case <-s.dispatcher.KickChan():
				s.scheduler.Kick(dispatcherTask)
			}
		}
	}()

	go func() {
		klog.Infof("http-server listen port: %d", commonconfig.GetServerPort())
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			klog.ErrorS(err, "failed to start http server")
		}
	}()

	<-s.ctx.Done()
	s.Stop()
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		klog.ErrorS(err, "failed to shutdown httpserver")
	}
	s.scheduler.Stop()
	s.auditBuffer.Stop()
	s.dbClient.Close()
	klog.Info("orchestrator is stopped")
	klog.Flush()
}
