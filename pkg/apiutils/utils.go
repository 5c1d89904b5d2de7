/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package apiutils

import (
	"fmt"
	"io"
	"net/http"

	commonerrors "github.com/hive-agents/HIVE/pkg/errors"
	jsonutils "github.com/hive-agents/HIVE/pkg/json"
)

const (
	DefaultMaxRequestBodyBytes = int64(2 * 1024 * 1024)
)

// ReadBody reads the HTTP request body with a size limit to prevent excessive
// memory consumption. The request body is closed after reading.
func ReadBody(req *http.Request) ([]byte, error) {
	defer req.Body.Close()
	lr := &io.LimitedReader{
		R: req.Body,
		N: DefaultMaxRequestBodyBytes + 1,
	}
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, commonerrors.NewInternalError(err.Error())
	}
	if lr.N <= 0 {
		return nil, commonerrors.NewRequestEntityTooLargeError(
			fmt.Sprintf("the max length is %d bytes", DefaultMaxRequestBodyBytes))
	}
	return data, nil
}

// ParseRequestBody reads the request body and unmarshals it into bodyStruct,
// rejecting unknown fields. Empty bodies return nil for both values.
func ParseRequestBody(req *http.Request, bodyStruct interface{}) ([]byte, error) {
	body, err := ReadBody(req)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}
	if err = jsonutils.UnmarshalWithCheck(body, bodyStruct); err != nil {
		return body, commonerrors.NewBadRequest(err.Error())
	}
	return body, nil
}
