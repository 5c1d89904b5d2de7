/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package upload_handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/hive-agents/HIVE/pkg/common"
)

func InitUploadRouters(e *gin.Engine, h *Handler) {
	group := e.Group(common.ApiRootPath)
	{
		group.POST("uploads", h.CreateUpload)
		group.GET(fmt.Sprintf("uploads/:%s", UploadId), h.GetUpload)
		group.GET(fmt.Sprintf("uploads/:%s/files/:%s", UploadId, FileName), h.GetUploadFile)
	}
}
