/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

type client struct {
	*http.Client
	maxTry int
}

const (
	DefaultTimeout = 30 * time.Second
	DefaultMaxTry  = 2
)

var (
	once     sync.Once
	instance *client
)

// NewHttpClient returns the process-wide shared client. It is tuned for
// orchestrator-to-pod traffic inside the cluster: plain HTTP, generous
// pooling, and a single built-in retry for connection-level hiccups.
func NewHttpClient() Interface {
	once.Do(func() {
		instance = newClient(DefaultTimeout, 0, DefaultMaxTry)
	})
	return instance
}

// NewHttpClientWithTimeout returns a dedicated (non-shared) client. Callers
// that manage their own retry budget, such as the agent command client, pass
// maxTry=1 so transport attempts are counted exactly once per call.
func NewHttpClientWithTimeout(requestTimeout, connectTimeout time.Duration, maxTry int) Interface {
	return newClient(requestTimeout, connectTimeout, maxTry)
}

func newClient(requestTimeout, connectTimeout time.Duration, maxTry int) *client {
	if maxTry <= 0 {
		maxTry = 1
	}
	transport := &http.Transport{
		MaxIdleConns:          128,
		MaxConnsPerHost:       64,
		IdleConnTimeout:       1 * time.Minute,
		ExpectContinueTimeout: 10 * time.Second,
	}
	if connectTimeout > 0 {
		transport.DialContext = (&net.Dialer{Timeout: connectTimeout}).DialContext
	}
	return &client{
		Client: &http.Client{
			Timeout:   requestTimeout,
			Transport: transport,
		},
		maxTry: maxTry,
	}
}

func (c *client) Get(url string, headers ...string) (*Result, error) {
	return c.do(context.Background(), url, http.MethodGet, nil, headers...)
}

func (c *client) Post(url string, body interface{}, headers ...string) (*Result, error) {
	return c.do(context.Background(), url, http.MethodPost, body, headers...)
}

func (c *client) Put(url string, body interface{}, headers ...string) (*Result, error) {
	return c.do(context.Background(), url, http.MethodPut, body, headers...)
}

func (c *client) Delete(url string, headers ...string) (*Result, error) {
	return c.do(context.Background(), url, http.MethodDelete, nil, headers...)
}

func (c *client) PostCtx(ctx context.Context, url string, body interface{}, headers ...string) (*Result, error) {
	return c.do(ctx, url, http.MethodPost, body, headers...)
}

func (c *client) do(ctx context.Context, url, method string, body interface{}, headers ...string) (*Result, error) {
	req, err := BuildRequest(ctx, url, method, body, headers...)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Do executes the HTTP request, attempting it up to maxTry times. If all
// attempts fail, the last error is returned. On success the response body is
// fully read and closed, and a Result is returned.
func (c *client) Do(req *http.Request) (*Result, error) {
	var rsp *http.Response
	var err error
	for i := 0; i < c.maxTry; i++ {
		if rsp, err = c.Client.Do(req); err == nil {
			break
		} else if i == c.maxTry-1 {
			return nil, err
		}
	}
	if rsp == nil {
		return nil, fmt.Errorf("no result")
	}
	data, err := io.ReadAll(rsp.Body)
	defer rsp.Body.Close()
	if err != nil {
		return nil, err
	}
	return &Result{StatusCode: rsp.StatusCode, Body: data, Header: rsp.Header}, nil
}

// BuildRequest creates an HTTP request with the given URL, method, body and
// header pairs. Agent pods are addressed by pod IP inside the cluster, so a
// bare host:port gets the http scheme. Content-Type is always JSON.
func BuildRequest(ctx context.Context, url, method string, body interface{}, headers ...string) (*http.Request, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}
	reader, err := cvtIOReader(body)
	if err != nil {
		return nil, err
	}
	request, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	for i := 0; i < len(headers); i += 2 {
		if i+1 >= len(headers) {
			break
		}
		request.Header.Set(headers[i], headers[i+1])
	}
	request.Header.Set("Content-Type", "application/json")
	return request, nil
}

// cvtIOReader converts the given body to an io.Reader. Strings, readers and
// byte slices pass through; everything else is marshalled to JSON.
func cvtIOReader(body interface{}) (io.Reader, error) {
	if body == nil {
		return nil, nil
	}
	var reader io.Reader
	switch b := body.(type) {
	case string:
		reader = strings.NewReader(b)
	case io.Reader:
		reader = b
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}
	return reader, nil
}
