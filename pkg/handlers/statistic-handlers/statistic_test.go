/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package statistic_handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbclient "github.com/hive-agents/HIVE/pkg/database/client"
	"github.com/hive-agents/HIVE/pkg/detector"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeDB struct {
	dbclient.Interface

	daily      []*dbclient.JobStatisticsDaily
	rangeFrom  time.Time
	rangeTo    time.Time
	jobCounts  []*dbclient.JobStatusCount
	agentCount []*dbclient.AgentStatusCount
}

func (f *fakeDB) CountJobsByStatus(context.Context) ([]*dbclient.JobStatusCount, error) {
	return f.jobCounts, nil
}

func (f *fakeDB) CountAgentsByStatus(context.Context) ([]*dbclient.AgentStatusCount, error) {
	return f.agentCount, nil
}

func (f *fakeDB) SelectDailyStatistics(_ context.Context, from, to time.Time) ([]*dbclient.JobStatisticsDaily, error) {
	f.rangeFrom, f.rangeTo = from, to
	return f.daily, nil
}

type fakeDetectorStore struct {
	stuck []*dbclient.StuckJob
}

func (f *fakeDetectorStore) MarkStaleAgentsOffline(context.Context, time.Duration, time.Duration) ([]dbclient.OfflineVictim, error) {
	return nil, nil
}

func (f *fakeDetectorStore) FailExpiredRecoveries(context.Context) ([]string, error) {
	return nil, nil
}

func (f *fakeDetectorStore) FailStalledJobs(context.Context, time.Duration) ([]string, error) {
	return nil, nil
}

func (f *fakeDetectorStore) SelectStuckJobs(context.Context, time.Duration) ([]*dbclient.StuckJob, error) {
	return f.stuck, nil
}

func newTestEnv(db *fakeDB, stuck []*dbclient.StuckJob) *gin.Engine {
	det := detector.NewWithThresholds(&fakeDetectorStore{stuck: stuck},
		time.Minute, time.Minute, time.Hour, 10*time.Minute, nil)
	engine := gin.New()
	InitStatisticRouters(engine, NewHandler(db, det))
	return engine
}

func get(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestJobStatistics(t *testing.T) {
	db := &fakeDB{jobCounts: []*dbclient.JobStatusCount{
		{Status: dbclient.JobProcessing, Count: 3},
		{Status: dbclient.JobCompleted, Count: 12},
	}}
	w := get(newTestEnv(db, nil), "/api/statistics/jobs")
	require.Equal(t, http.StatusOK, w.Code)

	var rsp struct {
		Items []*dbclient.JobStatusCount `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rsp))
	require.Len(t, rsp.Items, 2)
	assert.Equal(t, int64(12), rsp.Items[1].Count)
}

func TestDailyStatisticsWindow(t *testing.T) {
	db := &fakeDB{daily: []*dbclient.JobStatisticsDaily{{CreatedCount: 5}}}
	engine := newTestEnv(db, nil)

	w := get(engine, "/api/statistics/daily?days=3")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2*24*time.Hour, db.rangeTo.Sub(db.rangeFrom),
		"a 3 day window spans today plus the two days before")

	w = get(engine, "/api/statistics/daily?days=0")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = get(engine, "/api/statistics/daily?days=999")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStuckJobsReport(t *testing.T) {
	stuck := []*dbclient.StuckJob{{JobId: "job-1", Classification: dbclient.StuckNoProgress}}
	w := get(newTestEnv(&fakeDB{}, stuck), "/api/statistics/stuck-jobs")
	require.Equal(t, http.StatusOK, w.Code)

	var rsp struct {
		Items []*dbclient.StuckJob `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rsp))
	require.Len(t, rsp.Items, 1)
	assert.Equal(t, "job-1", rsp.Items[0].JobId)
}
