/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package apiutils

import (
	"time"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
)

// Logger is the request log middleware. One line per request with latency
// and any errors the handlers attached via c.Error.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		if len(c.Errors) > 0 {
			klog.Warningf("%s %s %d %v %s | %s",
				c.Request.Method, path, status, latency, c.ClientIP(), c.Errors.String())
			return
		}
		if status >= 500 {
			klog.Warningf("%s %s %d %v %s", c.Request.Method, path, status, latency, c.ClientIP())
		} else {
			klog.V(2).Infof("%s %s %d %v %s", c.Request.Method, path, status, latency, c.ClientIP())
		}
	}
}
