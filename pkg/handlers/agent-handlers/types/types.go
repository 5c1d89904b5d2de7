/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package types

import "encoding/json"

type RegisterAgentRequest struct {
	ConfigName string          `json:"config_name"`
	Hostname   string          `json:"hostname"`
	PodIp      string          `json:"pod_ip"`
	PodPort    int             `json:"pod_port"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
}

type RegisterAgentResponse struct {
	AgentId string `json:"agent_id"`
}

type HeartbeatRequest struct {
	Status string `json:"status,omitempty"`
	// CurrentJobId is the job the pod believes it runs. The store keeps its
	// own link; a mismatch is reported as assignment drift, never applied.
	CurrentJobId string `json:"current_job_id,omitempty"`
}

type ListAgentQuery struct {
	Status     string `form:"status"`
	ConfigName string `form:"config_name"`
	Limit      int    `form:"limit,default=50"`
	Offset     int    `form:"offset"`
}

type AgentItem struct {
	AgentId       string          `json:"agent_id"`
	ConfigName    string          `json:"config_name"`
	Hostname      string          `json:"hostname"`
	PodIp         string          `json:"pod_ip"`
	PodPort       int             `json:"pod_port"`
	Status        string          `json:"status"`
	CurrentJobId  string          `json:"current_job_id,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	RegisteredAt  string          `json:"registered_at,omitempty"`
	LastHeartbeat string          `json:"last_heartbeat,omitempty"`
}

type ListAgentResponse struct {
	TotalCount int         `json:"total_count"`
	Items      []AgentItem `json:"items"`
}

type AgentConfigRequest struct {
	ConfigName     string          `json:"config_name"`
	DisplayName    string          `json:"display_name,omitempty"`
	Description    string          `json:"description,omitempty"`
	ToolCategories json.RawMessage `json:"tool_categories,omitempty"`
	Limits         json.RawMessage `json:"limits,omitempty"`
}

type AgentConfigItem struct {
	ConfigName     string          `json:"config_name"`
	DisplayName    string          `json:"display_name,omitempty"`
	Description    string          `json:"description,omitempty"`
	ToolCategories json.RawMessage `json:"tool_categories,omitempty"`
	Limits         json.RawMessage `json:"limits,omitempty"`
	CreatedAt      string          `json:"created_at,omitempty"`
	UpdatedAt      string          `json:"updated_at,omitempty"`
}

type ListAgentConfigResponse struct {
	Items []AgentConfigItem `json:"items"`
}
