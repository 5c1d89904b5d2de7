/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package main

import (
	"fmt"
	"os"

	commonerrors "github.com/hive-agents/HIVE/pkg/errors"
	"github.com/hive-agents/HIVE/pkg/server"
)

func main() {
	s, err := server.NewServer()
	if err != nil {
		fmt.Println("failed to new server, err: ", err.Error())
		if commonerrors.IsUnavailable(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
	s.Start()
}
