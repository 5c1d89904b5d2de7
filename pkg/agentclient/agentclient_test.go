/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package agentclient

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbclient "github.com/hive-agents/HIVE/pkg/database/client"
	dbutils "github.com/hive-agents/HIVE/pkg/database/utils"
	"github.com/hive-agents/HIVE/pkg/httpclient"
)

func testAgent(t *testing.T, server *httptest.Server) *dbclient.Agent {
	t.Helper()
	host, portStr, err := net.SplitHostPort(strings.TrimPrefix(server.URL, "http://"))
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return &dbclient.Agent{AgentId: "agent-11112222", PodIp: host, PodPort: port}
}

func testClient(maxTry int) Interface {
	return NewWithHttp(httpclient.NewHttpClientWithTimeout(2*time.Second, time.Second, 1), maxTry)
}

func TestStartDeliversJobPayload(t *testing.T) {
	var got startRequest
	var raw map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/run", r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		require.NoError(t, json.Unmarshal(body, &raw))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	job := &dbclient.Job{
		JobId:        "job-1a2b3c4d",
		Description:  "summarize the corpus",
		ConfigName:   "default",
		Context:      dbutils.NullString("prior findings"),
		Instructions: dbutils.NullString("be terse"),
	}
	err := testClient(3).Start(context.Background(), testAgent(t, server), job)
	require.NoError(t, err)
	assert.Equal(t, "job-1a2b3c4d", got.JobId)
	assert.Equal(t, "summarize the corpus", got.Prompt)
	assert.Contains(t, raw, "prompt", "the run body carries the description under prompt")
	assert.Equal(t, "prior findings", got.Context)
	assert.Equal(t, "be terse", got.Instructions)
	assert.Empty(t, got.UploadId)
}

func TestCommandRetriesUntilAck(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := testClient(3).Cancel(context.Background(), testAgent(t, server), "job-1a2b3c4d")
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestCommandStopsAfterBudget(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	err := testClient(3).Approve(context.Background(), testAgent(t, server), "job-1a2b3c4d")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestAckedCommandNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	var got commandRequest
	server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		require.Equal(t, "/resume", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	})

	err := testClient(3).Resume(context.Background(), testAgent(t, server), "job-1a2b3c4d", "redo section 2")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, "redo section 2", got.Feedback)
}

func TestStartUnreachableAgent(t *testing.T) {
	agent := &dbclient.Agent{AgentId: "agent-dead0001", PodIp: "127.0.0.1", PodPort: 1}
	err := testClient(2).Start(context.Background(), agent, &dbclient.Job{JobId: "job-x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}
