/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package middleware

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"k8s.io/klog/v2"

	"github.com/hive-agents/HIVE/pkg/channel"
	dbclient "github.com/hive-agents/HIVE/pkg/database/client"
	dbutils "github.com/hive-agents/HIVE/pkg/database/utils"
)

const (
	// ActorHeader identifies the caller for the audit trail. Operators and
	// agents set it; absent means anonymous.
	ActorHeader = "X-Hive-Actor"

	maxAuditBodySize   = 8192
	auditBufferSize    = 1000
	auditBatchSize     = 50
	auditFlushInterval = 5 * time.Second
)

type auditSink interface {
	InsertAuditLog(ctx context.Context, auditLog *dbclient.AuditLog) error
}

// AuditBuffer batches audit rows through a buffered channel so the request
// path never waits on the store. The owner stops it after the HTTP server
// has drained so the final batch still lands.
type AuditBuffer struct {
	ch   chan *dbclient.AuditLog
	sink auditSink
	tomb *channel.Tomb
}

func NewAuditBuffer(sink auditSink) *AuditBuffer {
	buf := &AuditBuffer{
		ch:   make(chan *dbclient.AuditLog, auditBufferSize),
		sink: sink,
		tomb: channel.NewTomb(),
	}
	go buf.flushWorker()
	return buf
}

// Stop flushes what is buffered and waits for the worker to exit.
func (b *AuditBuffer) Stop() {
	b.tomb.Stop()
}

// send is non-blocking; a full buffer drops the entry with a warning.
func (b *AuditBuffer) send(log *dbclient.AuditLog) bool {
	if b.tomb.IsStopped() {
		return false
	}
	select {
	case b.ch <- log:
		return true
	default:
		klog.Warningf("audit log buffer full, dropping %s %s", log.HttpMethod, log.RequestPath)
		return false
	}
}

func (b *AuditBuffer) flushWorker() {
	defer b.tomb.Done()
	ticker := time.NewTicker(auditFlushInterval)
	defer ticker.Stop()

	batch := make([]*dbclient.AuditLog, 0, auditBatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		b.writeBatch(batch)
		batch = batch[:0]
	}

	for {
		select {
		case log := <-b.ch:
			batch = append(batch, log)
			if len(batch) >= auditBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-b.tomb.Stopping():
			for {
				select {
				case log := <-b.ch:
					batch = append(batch, log)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (b *AuditBuffer) writeBatch(batch []*dbclient.AuditLog) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, log := range batch {
		if err := b.sink.InsertAuditLog(ctx, log); err != nil {
			klog.ErrorS(err, "failed to insert audit log",
				"method", log.HttpMethod, "path", log.RequestPath)
		}
	}
	klog.V(4).Infof("flushed %d audit logs", len(batch))
}

// AuditLog records write operations (POST, PUT, PATCH, DELETE) to the
// audit_logs table through the batching buffer.
func AuditLog(buffer *AuditBuffer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isWriteOperation(c.Request.Method) {
			c.Next()
			return
		}
		start := time.Now()

		var requestBody string
		if c.Request.Body != nil {
			if bodyBytes, err := io.ReadAll(c.Request.Body); err == nil {
				requestBody = truncateBody(bodyBytes)
				c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			}
		}

		c.Next()

		resourceType, resourceName := extractResourceInfo(c.Request.URL.Path)
		actor := c.GetHeader(ActorHeader)
		if actor == "" {
			actor = "anonymous"
		}
		buffer.send(&dbclient.AuditLog{
			Actor:          dbutils.NullString(actor),
			ClientIp:       dbutils.NullString(c.ClientIP()),
			HttpMethod:     c.Request.Method,
			RequestPath:    c.Request.URL.Path,
			ResourceType:   dbutils.NullString(resourceType),
			ResourceName:   dbutils.NullString(resourceName),
			RequestBody:    dbutils.NullString(requestBody),
			ResponseStatus: c.Writer.Status(),
			LatencyMs:      time.Since(start).Milliseconds(),
			CreatedAt:      pq.NullTime{Time: time.Now().UTC(), Valid: true},
		})
	}
}

func isWriteOperation(method string) bool {
	switch method {
	case "POST", "PUT", "PATCH", "DELETE":
		return true
	default:
		return false
	}
}

func truncateBody(body []byte) string {
	if len(body) > maxAuditBodySize {
		return string(body[:maxAuditBodySize]) + "...(truncated)"
	}
	return string(body)
}

// extractResourceInfo maps /api/{resource}/{name}/... to its type and name.
func extractResourceInfo(path string) (string, string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	startIdx := 0
	for i, part := range parts {
		if part == "api" {
			startIdx = i + 1
			continue
		}
		break
	}
	if startIdx >= len(parts) {
		return "", ""
	}
	resourceType := parts[startIdx]
	resourceName := ""
	if startIdx+1 < len(parts) && !isOperationKeyword(parts[startIdx+1]) {
		resourceName = parts[startIdx+1]
	}
	return resourceType, resourceName
}

func isOperationKeyword(s string) bool {
	operations := map[string]bool{
		"cancel": true, "resume": true, "approve": true, "freeze": true,
		"complete": true, "fail": true, "status": true, "heartbeat": true,
	}
	return operations[strings.ToLower(s)]
}
