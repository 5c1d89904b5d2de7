/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobTransitions(t *testing.T) {
	testCases := []struct {
		from    string
		to      string
		allowed bool
	}{
		{JobCreated, JobProcessing, true},
		{JobCreated, JobCancelled, true},
		{JobCreated, JobFailed, true},
		{JobCreated, JobPendingReview, false},
		{JobCreated, JobCompleted, false},
		{JobProcessing, JobPendingReview, true},
		{JobProcessing, JobCompleted, true},
		{JobProcessing, JobFailed, true},
		{JobProcessing, JobCancelled, true},
		{JobProcessing, JobCreated, true}, // dispatch rollback, offline recovery
		{JobPendingReview, JobProcessing, true},
		{JobPendingReview, JobCompleted, true},
		{JobPendingReview, JobCancelled, true},
		{JobPendingReview, JobCreated, true}, // resume with unreachable agent
		{JobCompleted, JobProcessing, false},
		{JobCompleted, JobCreated, false},
		{JobFailed, JobCreated, false},
		{JobFailed, JobProcessing, false},
		{JobCancelled, JobProcessing, false},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.allowed, CanJobTransition(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestJobTerminalStatesHaveNoExits(t *testing.T) {
	for _, terminal := range []string{JobCompleted, JobFailed, JobCancelled} {
		require.True(t, IsJobTerminal(terminal))
		for _, to := range []string{
			JobCreated, JobProcessing, JobPendingReview,
			JobCompleted, JobFailed, JobCancelled,
		} {
			assert.False(t, CanJobTransition(terminal, to), "%s -> %s", terminal, to)
		}
	}
}

func TestAgentTransitions(t *testing.T) {
	testCases := []struct {
		from    string
		to      string
		allowed bool
	}{
		{AgentBooting, AgentReady, true},
		{AgentBooting, AgentFailed, true},
		{AgentBooting, AgentWorking, false},
		{AgentBooting, AgentOffline, false},
		{AgentReady, AgentWorking, true},
		{AgentReady, AgentOffline, true},
		{AgentReady, AgentCompleted, false},
		{AgentWorking, AgentCompleted, true},
		{AgentWorking, AgentFailed, true},
		{AgentWorking, AgentOffline, true},
		{AgentWorking, AgentReady, false},
		{AgentCompleted, AgentReady, true},
		{AgentCompleted, AgentWorking, false},
		{AgentFailed, AgentOffline, true},
		{AgentFailed, AgentReady, false},
		{AgentOffline, AgentBooting, true}, // re-registration only
		{AgentOffline, AgentReady, false},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.allowed, CanAgentTransition(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestStatusValidators(t *testing.T) {
	for _, s := range []string{JobCreated, JobProcessing, JobPendingReview, JobCompleted, JobFailed, JobCancelled} {
		assert.True(t, IsValidJobStatus(s), s)
	}
	assert.False(t, IsValidJobStatus("running"))
	assert.False(t, IsValidJobStatus(""))

	for _, s := range []string{AgentBooting, AgentReady, AgentWorking, AgentCompleted, AgentFailed, AgentOffline} {
		assert.True(t, IsValidAgentStatus(s), s)
	}
	assert.False(t, IsValidAgentStatus("idle"))

	for _, s := range []string{RolePending, RoleProcessing, RoleCompleted, RoleFailed} {
		assert.True(t, IsValidRoleStatus(s), s)
	}
	assert.False(t, IsValidRoleStatus("done"))
}

func TestNewID(t *testing.T) {
	id := NewID("job")
	require.True(t, strings.HasPrefix(id, "job-"))
	assert.Len(t, id, len("job-")+8)

	other := NewID("job")
	assert.NotEqual(t, id, other)
}

func TestGenerateCommand(t *testing.T) {
	type row struct {
		Id   int64  `db:"id"`
		Name string `db:"name"`
		Note string `db:"note"`
	}
	cmd := generateCommand(row{}, `INSERT INTO t (%s) VALUES (%s)`, "id")
	assert.Equal(t, `INSERT INTO t (name, note) VALUES (:name, :note)`, cmd)

	cmd = generateCommand(row{}, `INSERT INTO t (%s) VALUES (%s)`, "")
	assert.Equal(t, `INSERT INTO t (id, name, note) VALUES (:id, :name, :note)`, cmd)
}

func TestGetFieldTags(t *testing.T) {
	tags := GetJobFieldTags()
	assert.Equal(t, "job_id", GetFieldTag(tags, "JobId"))
	assert.Equal(t, "assigned_agent_id", GetFieldTag(tags, "AssignedAgentId"))
	assert.Empty(t, GetFieldTag(tags, "NoSuchField"))
}

func TestAgentAddress(t *testing.T) {
	a := &Agent{PodIp: "10.2.3.4", PodPort: 8089}
	assert.Equal(t, "10.2.3.4:8089", a.Address())
}
