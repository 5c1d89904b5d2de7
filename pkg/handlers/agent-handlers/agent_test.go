/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package agent_handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	sqrl "github.com/Masterminds/squirrel"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbclient "github.com/hive-agents/HIVE/pkg/database/client"
	commonerrors "github.com/hive-agents/HIVE/pkg/errors"
	"github.com/hive-agents/HIVE/pkg/handlers/agent-handlers/types"
	"github.com/hive-agents/HIVE/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeDB struct {
	dbclient.Interface

	configs    map[string]*dbclient.AgentConfig
	agents     map[string]*dbclient.Agent
	registered []string
	heartbeats map[string]string
	removed    []string
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		configs:    map[string]*dbclient.AgentConfig{},
		agents:     map[string]*dbclient.Agent{},
		heartbeats: map[string]string{},
	}
}

func (f *fakeDB) GetAgentConfig(_ context.Context, configName string) (*dbclient.AgentConfig, error) {
	config, ok := f.configs[configName]
	if !ok {
		return nil, commonerrors.NewNotFound(commonerrors.KindConfig, configName)
	}
	return config, nil
}

func (f *fakeDB) UpsertAgentConfig(_ context.Context, config *dbclient.AgentConfig) error {
	f.configs[config.ConfigName] = config
	return nil
}

func (f *fakeDB) SelectAgentConfigs(context.Context) ([]*dbclient.AgentConfig, error) {
	configs := make([]*dbclient.AgentConfig, 0, len(f.configs))
	for _, config := range f.configs {
		configs = append(configs, config)
	}
	return configs, nil
}

func (f *fakeDB) DeleteAgentConfig(_ context.Context, configName string) error {
	if _, ok := f.configs[configName]; !ok {
		return commonerrors.NewNotFound(commonerrors.KindConfig, configName)
	}
	delete(f.configs, configName)
	return nil
}

func (f *fakeDB) RegisterAgent(_ context.Context, configName, hostname, podIp string, podPort int,
	_ []byte) (string, error) {
	if configName == "" || hostname == "" || podIp == "" || podPort <= 0 {
		return "", commonerrors.NewBadRequest("incomplete registration")
	}
	agentId := dbclient.NewID("agent")
	f.registered = append(f.registered, agentId)
	f.agents[agentId] = &dbclient.Agent{
		AgentId:    agentId,
		ConfigName: configName,
		Hostname:   hostname,
		PodIp:      podIp,
		PodPort:    podPort,
		Status:     dbclient.AgentBooting,
	}
	return agentId, nil
}

func (f *fakeDB) HeartbeatAgent(_ context.Context, agentId, reportedStatus string) error {
	if _, ok := f.agents[agentId]; !ok {
		return commonerrors.NewNotFound(commonerrors.KindAgent, agentId)
	}
	f.heartbeats[agentId] = reportedStatus
	return nil
}

func (f *fakeDB) GetAgent(_ context.Context, agentId string) (*dbclient.Agent, error) {
	agent, ok := f.agents[agentId]
	if !ok {
		return nil, commonerrors.NewNotFound(commonerrors.KindAgent, agentId)
	}
	return agent, nil
}

func (f *fakeDB) RemoveAgent(_ context.Context, agentId string) error {
	if _, ok := f.agents[agentId]; !ok {
		return commonerrors.NewNotFound(commonerrors.KindAgent, agentId)
	}
	f.removed = append(f.removed, agentId)
	delete(f.agents, agentId)
	return nil
}

func (f *fakeDB) SelectAgents(_ context.Context, _ sqrl.Sqlizer, _ []string, _, _ int) ([]*dbclient.Agent, error) {
	agents := make([]*dbclient.Agent, 0, len(f.agents))
	for _, agent := range f.agents {
		agents = append(agents, agent)
	}
	return agents, nil
}

func (f *fakeDB) CountAgents(context.Context, sqrl.Sqlizer) (int, error) {
	return len(f.agents), nil
}

type testEnv struct {
	db     *fakeDB
	engine *gin.Engine
	kicks  int
}

func newTestEnv() *testEnv {
	env := &testEnv{db: newFakeDB()}
	h := NewHandler(env.db, func() { env.kicks++ })
	env.engine = gin.New()
	InitAgentRouters(env.engine, h)
	return env
}

func (e *testEnv) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewBuffer(raw)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *testEnv) seedConfig(name string) {
	e.db.configs[name] = &dbclient.AgentConfig{ConfigName: name}
}

func TestRegisterAgentAgainstEmptyStore(t *testing.T) {
	// A pod may register before any agent_configs row describes its config;
	// the name is an opaque label at registration time.
	env := newTestEnv()
	w := env.do(http.MethodPost, "/api/agents", types.RegisterAgentRequest{
		ConfigName: "writer", Hostname: "node-1", PodIp: "10.0.0.5", PodPort: 9090,
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, env.db.registered, 1)
}

func TestRegisterAgentRequiresConfigName(t *testing.T) {
	env := newTestEnv()
	w := env.do(http.MethodPost, "/api/agents", types.RegisterAgentRequest{
		Hostname: "node-1", PodIp: "10.0.0.5", PodPort: 9090,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, env.db.registered)
}

func TestRegisterAgentReturnsId(t *testing.T) {
	env := newTestEnv()
	env.seedConfig("deep-research")
	w := env.do(http.MethodPost, "/api/agents", types.RegisterAgentRequest{
		ConfigName: "deep-research", Hostname: "node-1", PodIp: "10.0.0.5", PodPort: 9090,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var rsp types.RegisterAgentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rsp))
	assert.Contains(t, rsp.AgentId, "agent-")
	require.Len(t, env.db.registered, 1)
	assert.Equal(t, env.db.registered[0], rsp.AgentId)
}

func TestHeartbeatUnknownAgentIs404(t *testing.T) {
	env := newTestEnv()
	w := env.do(http.MethodPost, "/api/agents/agent-missing/heartbeat", types.HeartbeatRequest{})
	// 404 tells the pod to re-register.
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHeartbeatReadyKicksDispatcher(t *testing.T) {
	env := newTestEnv()
	env.seedConfig("deep-research")
	env.do(http.MethodPost, "/api/agents", types.RegisterAgentRequest{
		ConfigName: "deep-research", Hostname: "node-1", PodIp: "10.0.0.5", PodPort: 9090,
	})
	agentId := env.db.registered[0]

	w := env.do(http.MethodPost, "/api/agents/"+agentId+"/heartbeat",
		types.HeartbeatRequest{Status: dbclient.AgentReady})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dbclient.AgentReady, env.db.heartbeats[agentId])
	assert.Equal(t, 1, env.kicks)

	// A plain liveness beat must not kick.
	w = env.do(http.MethodPost, "/api/agents/"+agentId+"/heartbeat", types.HeartbeatRequest{})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, env.kicks)
}

func TestHeartbeatFlagsAssignmentDrift(t *testing.T) {
	env := newTestEnv()
	env.do(http.MethodPost, "/api/agents", types.RegisterAgentRequest{
		ConfigName: "deep-research", Hostname: "node-1", PodIp: "10.0.0.5", PodPort: 9090,
	})
	agentId := env.db.registered[0]

	// The store has no job link yet, so a claimed job is drift.
	before := testutil.ToFloat64(metrics.HeartbeatAssignmentDrift)
	w := env.do(http.MethodPost, "/api/agents/"+agentId+"/heartbeat",
		types.HeartbeatRequest{CurrentJobId: "job-9"})
	require.Equal(t, http.StatusOK, w.Code, "drift is surfaced, never an error")
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.HeartbeatAssignmentDrift))

	// A claim matching the assignment is not drift.
	env.db.agents[agentId].CurrentJobId = sql.NullString{String: "job-9", Valid: true}
	w = env.do(http.MethodPost, "/api/agents/"+agentId+"/heartbeat",
		types.HeartbeatRequest{CurrentJobId: "job-9"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.HeartbeatAssignmentDrift))
}

func TestHeartbeatRejectsInvalidStatus(t *testing.T) {
	env := newTestEnv()
	env.seedConfig("deep-research")
	env.do(http.MethodPost, "/api/agents", types.RegisterAgentRequest{
		ConfigName: "deep-research", Hostname: "node-1", PodIp: "10.0.0.5", PodPort: 9090,
	})
	agentId := env.db.registered[0]

	w := env.do(http.MethodPost, "/api/agents/"+agentId+"/heartbeat",
		types.HeartbeatRequest{Status: "tired"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCvtToListAgentSql(t *testing.T) {
	dbSql, err := cvtToListAgentSql(&types.ListAgentQuery{})
	require.NoError(t, err)
	assert.Nil(t, dbSql)

	dbSql, err = cvtToListAgentSql(&types.ListAgentQuery{Status: dbclient.AgentReady, ConfigName: "deep-research"})
	require.NoError(t, err)
	cmd, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("*").From("agents").Where(dbSql).ToSql()
	require.NoError(t, err)
	assert.Contains(t, cmd, "status = $1")
	assert.Contains(t, cmd, "config_name = $2")
	assert.Equal(t, []interface{}{dbclient.AgentReady, "deep-research"}, args)

	_, err = cvtToListAgentSql(&types.ListAgentQuery{Status: "tired"})
	assert.True(t, commonerrors.IsBadRequest(err))
}

func TestAgentConfigLifecycle(t *testing.T) {
	env := newTestEnv()

	w := env.do(http.MethodPost, "/api/configs", types.AgentConfigRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/configs", types.AgentConfigRequest{
		ConfigName:  "deep-research",
		DisplayName: "Deep Research",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/api/configs/deep-research", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var item types.AgentConfigItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	assert.Equal(t, "Deep Research", item.DisplayName)

	w = env.do(http.MethodDelete, "/api/configs/deep-research", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/api/configs/deep-research", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteAgentPassesThroughConflicts(t *testing.T) {
	env := newTestEnv()
	w := env.do(http.MethodDelete, "/api/agents/agent-missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
