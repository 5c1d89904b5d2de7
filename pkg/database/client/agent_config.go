/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"context"
	"fmt"

	sqrl "github.com/Masterminds/squirrel"

	dbutils "github.com/hive-agents/HIVE/pkg/database/utils"
	commonerrors "github.com/hive-agents/HIVE/pkg/errors"
)

const (
	TAgentConfig = "agent_configs"
)

var (
	insertAgentConfigFormat = `INSERT INTO ` + TAgentConfig + ` (%s) VALUES (%s)`
	getAgentConfigCmd       = fmt.Sprintf(`SELECT * FROM %s WHERE config_name = $1 LIMIT 1`, TAgentConfig)
	updateAgentConfigCmd    = fmt.Sprintf(`UPDATE %s
		SET display_name = :display_name,
		    description = :description,
		    tool_categories = :tool_categories,
		    limits = :limits,
		    updated_at = NOW()
		WHERE config_name = :config_name`, TAgentConfig)
	deleteAgentConfigCmd = fmt.Sprintf(`DELETE FROM %s WHERE config_name = $1`, TAgentConfig)

	countAgentsByConfigCmd = fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE config_name = $1 AND status <> '%s'`,
		TAgent, AgentOffline)
)

// UpsertAgentConfig creates the named configuration or refreshes its fields.
func (c *Client) UpsertAgentConfig(ctx context.Context, config *AgentConfig) error {
	if config == nil {
		return commonerrors.NewBadRequest("the input is empty")
	}
	if config.ConfigName == "" {
		return commonerrors.NewBadRequest("config_name is required")
	}
	db, err := c.getDB()
	if err != nil {
		return err
	}
	var existing []*AgentConfig
	if err = db.SelectContext(ctx, &existing, getAgentConfigCmd, config.ConfigName); err != nil {
		return dbutils.ClassifyPqError(err)
	}
	if len(existing) > 0 {
		_, err = db.NamedExecContext(ctx, updateAgentConfigCmd, config)
	} else {
		_, err = db.NamedExecContext(ctx, generateCommand(*config, insertAgentConfigFormat, ""), config)
	}
	if err != nil {
		return dbutils.ClassifyPqError(err)
	}
	return nil
}

func (c *Client) GetAgentConfig(ctx context.Context, configName string) (*AgentConfig, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}
	var configs []*AgentConfig
	if err = db.SelectContext(ctx, &configs, getAgentConfigCmd, configName); err != nil {
		return nil, dbutils.ClassifyPqError(err)
	}
	if len(configs) == 0 {
		return nil, commonerrors.NewNotFound(commonerrors.KindConfig, configName)
	}
	return configs[0], nil
}

func (c *Client) SelectAgentConfigs(ctx context.Context) ([]*AgentConfig, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}
	cmd, _, err := sqrl.Select("*").From(TAgentConfig).OrderBy("config_name ASC").ToSql()
	if err != nil {
		return nil, commonerrors.NewInternalError(err.Error())
	}
	var configs []*AgentConfig
	if err = db.SelectContext(ctx, &configs, cmd); err != nil {
		return nil, dbutils.ClassifyPqError(err)
	}
	return configs, nil
}

// DeleteAgentConfig removes a configuration. Rejected while any live agent
// still references it.
func (c *Client) DeleteAgentConfig(ctx context.Context, configName string) error {
	db, err := c.getDB()
	if err != nil {
		return err
	}
	var inUse int
	if err = db.GetContext(ctx, &inUse, countAgentsByConfigCmd, configName); err != nil {
		return dbutils.ClassifyPqError(err)
	}
	if inUse > 0 {
		return commonerrors.NewStateConflict(commonerrors.KindConfig, configName,
			fmt.Sprintf("%d live agents still use this config", inUse))
	}
	result, err := db.ExecContext(ctx, deleteAgentConfigCmd, configName)
	if err != nil {
		return dbutils.ClassifyPqError(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return commonerrors.NewNotFound(commonerrors.KindConfig, configName)
	}
	return nil
}
