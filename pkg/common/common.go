/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package common

const (
	// ApiRootPath prefixes every resource route.
	ApiRootPath = "/api"

	HealthzPath = "/healthz"
	MetricsPath = "/metrics"
)
