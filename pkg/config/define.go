/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package config

const (
	// server
	serverPrefix               = "server."
	serverPort                 = serverPrefix + "port"
	serverRequestTimeoutSecond = serverPrefix + "request_timeout_second"

	// db
	dbPrefix               = "db."
	dbHost                 = dbPrefix + "host"
	dbPort                 = dbPrefix + "port"
	dbUser                 = dbPrefix + "user"
	dbPassword             = dbPrefix + "password"
	dbSecretPath           = dbPrefix + "secret_path"
	dbName                 = dbPrefix + "name"
	dbSslMode              = dbPrefix + "sslmode"
	dbMaxOpenConns         = dbPrefix + "max_open_conns"
	dbMaxIdleConns         = dbPrefix + "max_idle_conns"
	dbMaxLifetime          = dbPrefix + "max_lifetime_second"
	dbMaxIdleTimeSecond    = dbPrefix + "max_idle_time_second"
	dbConnectTimeoutSecond = dbPrefix + "connect_timeout_second"
	dbRequestTimeoutSecond = dbPrefix + "request_timeout_second"

	// upload
	uploadPrefix   = "upload."
	uploadRootPath = uploadPrefix + "root_path"
	uploadMaxBytes = uploadPrefix + "max_bytes"

	// dispatch
	dispatchPrefix         = "dispatch."
	dispatchIntervalSecond = dispatchPrefix + "interval_second"
	dispatchBatchSize      = dispatchPrefix + "batch_size"
	dispatchMaxAttempts    = dispatchPrefix + "max_attempts"

	// agent (outbound commands and liveness)
	agentPrefix                  = "agent."
	agentStartTimeoutSecond      = agentPrefix + "start_timeout_second"
	agentConnectTimeoutSecond    = agentPrefix + "connect_timeout_second"
	agentRequestTimeoutSecond    = agentPrefix + "request_timeout_second"
	agentMaxTry                  = agentPrefix + "max_try"
	agentLivenessThresholdSecond = agentPrefix + "liveness_threshold_second"
	agentRecoveryGraceSecond     = agentPrefix + "recovery_grace_second"

	// detector
	detectorPrefix            = "detector."
	detectorIntervalSecond    = detectorPrefix + "interval_second"
	progressThresholdMinute   = detectorPrefix + "progress_threshold_minute"
	escalationThresholdMinute = detectorPrefix + "escalation_threshold_minute"

	// scheduler
	schedulerPrefix            = "scheduler."
	rollupIntervalMinute       = schedulerPrefix + "rollup_interval_minute"
	taskMaxConsecutiveFailures = schedulerPrefix + "max_consecutive_failures"
	taskPauseMinute            = schedulerPrefix + "pause_minute"

	// job
	jobPrefix         = "job."
	defaultConfigName = jobPrefix + "default_config_name"
)
