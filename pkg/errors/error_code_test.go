/*
 * Copyright © AMD. 2025-2026. All rights reserved.
 */

package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFound(KindJob, "job-1a2b3c4d")))
	assert.True(t, IsNotFound(NewNotFound(KindAgent, "agent-1a2b3c4d")))
	assert.True(t, IsNotFound(NewNotFoundWithMessage("gone")))
	assert.False(t, IsNotFound(fmt.Errorf("gone")))
	assert.False(t, IsNotFound(NewInternalError("gone")))
	// k8s-native not-found carries a different reason and must not match
	assert.False(t, IsNotFound(apierrors.NewNotFound(schema.GroupResource{}, "x")))
}

func TestIsStateConflict(t *testing.T) {
	err := NewStateConflict(KindJob, "job-1a2b3c4d", "cannot cancel a completed job")
	assert.True(t, IsStateConflict(err))
	assert.False(t, IsStateConflict(NewAlreadyExist("test")))
	assert.False(t, IsStateConflict(nil))
}

func TestIsTransientBackend(t *testing.T) {
	assert.True(t, IsTransientBackend(NewTransientBackend("deadlock detected")))
	assert.False(t, IsTransientBackend(NewUnavailable("connection refused")))
	assert.True(t, IsUnavailable(NewUnavailable("connection refused")))
}

func TestNotFoundErrorCode(t *testing.T) {
	tests := []struct {
		kind   string
		reason string
	}{
		{KindJob, JobNotFound},
		{KindAgent, AgentNotFound},
		{KindUpload, UploadNotFound},
		{KindConfig, ConfigNotFound},
		{"Other", NotFound},
	}
	for _, test := range tests {
		t.Run(test.kind, func(t *testing.T) {
			assert.Equal(t, string(NotFoundErrorCode(test.kind)), test.reason)
		})
	}
}

func TestIgnoreFound(t *testing.T) {
	assert.NoError(t, IgnoreFound(nil))
	assert.NoError(t, IgnoreFound(NewNotFound(KindJob, "job-1a2b3c4d")))
	assert.Error(t, IgnoreFound(NewInternalError("boom")))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, GetErrorCode(NewBadRequest("bad")), BadRequest)
	assert.Equal(t, GetErrorCode(fmt.Errorf("bad")), "")
	assert.Equal(t, GetErrorCode(nil), "")
}
