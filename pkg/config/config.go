/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "HIVE"

func SetValue(key, value string) {
	viper.Set(key, value)
}

// LoadConfig binds HIVE_* environment variables and, when path is non-empty,
// reads the YAML config file. Env values win over file values so deployments
// can override a mounted config without editing it.
func LoadConfig(path string) error {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if path == "" {
		return nil
	}
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")
	return viper.ReadInConfig()
}

func getString(key, defaultValue string) string {
	if !viper.IsSet(key) {
		return defaultValue
	}
	return viper.GetString(key)
}

func getInt(key string, defaultValue int) int {
	if !viper.IsSet(key) {
		return defaultValue
	}
	return viper.GetInt(key)
}

func getInt64(key string, defaultValue int64) int64 {
	if !viper.IsSet(key) {
		return defaultValue
	}
	return viper.GetInt64(key)
}

func GetServerPort() int {
	return getInt(serverPort, 8080)
}

func GetServerRequestTimeoutSecond() int {
	return getInt(serverRequestTimeoutSecond, 30)
}

func GetDBHost() string {
	return getString(dbHost, "localhost")
}

func GetDBPort() int {
	return getInt(dbPort, 5432)
}

func GetDBUser() string {
	return getString(dbUser, "hive")
}

func GetDBPassword() string {
	if passwd := getString(dbPassword, ""); passwd != "" {
		return passwd
	}
	return getFromFile(dbSecretPath, "password")
}

func GetDBName() string {
	return getString(dbName, "hive")
}

func GetDBSslMode() string {
	return getString(dbSslMode, "disable")
}

func GetDBMaxOpenConns() int {
	return getInt(dbMaxOpenConns, 100)
}

func GetDBMaxIdleConns() int {
	return getInt(dbMaxIdleConns, 10)
}

func GetDBMaxLifetimeSecond() int {
	return getInt(dbMaxLifetime, 600)
}

func GetDBMaxIdleTimeSecond() int {
	return getInt(dbMaxIdleTimeSecond, 60)
}

func GetDBConnectTimeoutSecond() int {
	return getInt(dbConnectTimeoutSecond, 10)
}

func GetDBRequestTimeoutSecond() int {
	return getInt(dbRequestTimeoutSecond, 20)
}

func GetUploadRootPath() string {
	return getString(uploadRootPath, "/var/lib/hive/uploads")
}

func GetUploadMaxBytes() int64 {
	return getInt64(uploadMaxBytes, 256<<20)
}

func GetDispatchIntervalSecond() int {
	return getInt(dispatchIntervalSecond, 2)
}

func GetDispatchBatchSize() int {
	return getInt(dispatchBatchSize, 16)
}

func GetDispatchMaxAttempts() int {
	return getInt(dispatchMaxAttempts, 5)
}

func GetAgentStartTimeoutSecond() int {
	return getInt(agentStartTimeoutSecond, 10)
}

func GetAgentConnectTimeoutSecond() int {
	return getInt(agentConnectTimeoutSecond, 2)
}

func GetAgentRequestTimeoutSecond() int {
	return getInt(agentRequestTimeoutSecond, 10)
}

func GetAgentMaxTry() int {
	return getInt(agentMaxTry, 3)
}

func GetAgentLivenessThresholdSecond() int {
	return getInt(agentLivenessThresholdSecond, 90)
}

func GetAgentRecoveryGraceSecond() int {
	return getInt(agentRecoveryGraceSecond, 120)
}

func GetDetectorIntervalSecond() int {
	return getInt(detectorIntervalSecond, 30)
}

func GetProgressThresholdMinute() int {
	return getInt(progressThresholdMinute, 10)
}

func GetEscalationThresholdMinute() int {
	return getInt(escalationThresholdMinute, 60)
}

func GetRollupIntervalMinute() int {
	return getInt(rollupIntervalMinute, 60)
}

func GetTaskMaxConsecutiveFailures() int {
	return getInt(taskMaxConsecutiveFailures, 5)
}

func GetTaskPauseMinute() int {
	return getInt(taskPauseMinute, 1)
}

func GetDefaultConfigName() string {
	return getString(defaultConfigName, "default")
}

func getFromFile(configPath, item string) string {
	path := getString(configPath, "")
	data, err := os.ReadFile(filepath.Join(path, item))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
