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

// last_heartbeat may only move forward. The guard lives in the update
// statement itself so concurrent late-arriving beats cannot rewind the
// column regardless of execution order.
func TestHeartbeatUpdateKeepsLastHeartbeatMonotonic(t *testing.T) {
	require.Contains(t, heartbeatAgentCmd, "last_heartbeat = GREATEST(last_heartbeat, NOW())")
	assert.Contains(t, heartbeatAgentCmd, "WHERE agent_id = $1")
	assert.NotContains(t, strings.Replace(heartbeatAgentCmd, "GREATEST(last_heartbeat, NOW())", "", 1),
		"NOW()", "only the guarded expression touches last_heartbeat")
}

// Re-registration is the one deliberate reset: the pod restarted, so its
// clock starts over along with its state.
func TestReRegisterResetsAgentLifecycleColumns(t *testing.T) {
	assert.Contains(t, reRegisterAgentCmd, "registered_at = NOW()")
	assert.Contains(t, reRegisterAgentCmd, "last_heartbeat = NOW()")
	assert.Contains(t, reRegisterAgentCmd, "current_job_id = NULL")
	assert.Contains(t, reRegisterAgentCmd, "status = '"+AgentBooting+"'")
}
