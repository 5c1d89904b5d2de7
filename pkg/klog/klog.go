/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package klog

import (
	"flag"
	"strconv"

	"k8s.io/klog/v2"
)

// Init initializes the klog logging system with the specified log file path
// and maximum log file size. Logs go to both file and stderr; headers are
// skipped to keep lines grep-friendly.
func Init(logfilePath string, logFileSize int) error {
	klog.InitFlags(nil)
	settings := map[string]string{
		"log_file":        logfilePath,
		"alsologtostderr": "true",
		"logtostderr":     "false",
		"skip_log_headers": "true",
	}
	if logFileSize != 0 {
		settings["log_file_max_size"] = strconv.Itoa(logFileSize)
	}
	for name, value := range settings {
		if err := flag.Set(name, value); err != nil {
			return err
		}
	}
	flag.Parse()
	return nil
}
