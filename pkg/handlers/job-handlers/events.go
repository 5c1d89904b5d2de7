/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package job_handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"k8s.io/klog/v2"

	dbclient "github.com/hive-agents/HIVE/pkg/database/client"
	dbutils "github.com/hive-agents/HIVE/pkg/database/utils"
	"github.com/hive-agents/HIVE/pkg/apiutils"
	"github.com/hive-agents/HIVE/pkg/handlers/job-handlers/types"
)

const (
	eventPollInterval = 2 * time.Second
	eventWriteTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// StreamJobEvents upgrades to a websocket and pushes a frame whenever the
// job's status or role sub-states change. The store stays the single source
// of truth: the stream polls it rather than listening to in-process events.
// The socket closes after the frame that carries a terminal status.
func (h *Handler) StreamJobEvents(c *gin.Context) {
	jobId := c.Param(JobId)
	job, err := h.dbClient.GetJob(c.Request.Context(), jobId)
	if err != nil {
		apiutils.AbortWithApiError(c, err)
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		klog.ErrorS(err, "failed to upgrade events stream", "job", jobId)
		return
	}
	defer conn.Close()

	// Reader goroutine: we never expect client frames, but reading is what
	// detects a closed peer.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err = writeJobEvent(conn, job); err != nil {
		return
	}
	last := eventKey(job)

	ticker := time.NewTicker(eventPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-clientGone:
			return
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
		}
		job, err = h.dbClient.GetJob(c.Request.Context(), jobId)
		if err != nil {
			klog.V(4).InfoS("events stream poll failed, closing", "job", jobId, "err", err)
			return
		}
		if key := eventKey(job); key != last {
			last = key
			if err = writeJobEvent(conn, job); err != nil {
				return
			}
		}
		if dbclient.IsJobTerminal(job.Status) {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, job.Status),
				time.Now().Add(eventWriteTimeout))
			return
		}
	}
}

func eventKey(job *dbclient.Job) string {
	return job.Status + "/" + job.CreatorStatus + "/" + job.ValidatorStatus
}

func writeJobEvent(conn *websocket.Conn, job *dbclient.Job) error {
	_ = conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
	return conn.WriteJSON(&types.JobEvent{
		JobId:           job.JobId,
		Status:          job.Status,
		CreatorStatus:   job.CreatorStatus,
		ValidatorStatus: job.ValidatorStatus,
		Timestamp:       dbutils.ParseNullTimeToString(job.UpdatedAt),
	})
}
