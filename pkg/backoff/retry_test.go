/*
 * Copyright © AMD. 2025-2026. All rights reserved.
 */

package backoff

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"gotest.tools/assert"
)

func TestRetryN(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name       string
		attempts   uint64
		failBefore int
		wantCalls  int
		wantErr    bool
	}{
		{"succeeds first try", 5, 0, 1, false},
		{"succeeds on third", 5, 2, 3, false},
		{"budget exhausted", 3, 10, 3, true},
		{"zero attempts is a no-op", 0, 10, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryN(func() error {
				calls++
				if calls <= tt.failBefore {
					return boom
				}
				return nil
			}, tt.attempts, time.Millisecond, 4*time.Millisecond)
			assert.Equal(t, calls, tt.wantCalls)
			if tt.wantErr {
				assert.ErrorContains(t, err, "boom")
			} else {
				assert.NilError(t, err)
			}
		})
	}
}

func TestRetryNPermanent(t *testing.T) {
	calls := 0
	err := RetryN(func() error {
		calls++
		return Permanent(errors.New("hard failure"))
	}, 5, time.Millisecond, 4*time.Millisecond)
	assert.Equal(t, calls, 1)
	assert.ErrorContains(t, err, "hard failure")
}

func TestRetryNotifyN(t *testing.T) {
	boom := errors.New("boom")
	calls, notified := 0, 0
	err := RetryNotifyN(func() error {
		calls++
		if calls < 3 {
			return boom
		}
		return nil
	}, 4, time.Millisecond, 0.2, func(err error, wait time.Duration) {
		notified++
	})
	assert.NilError(t, err)
	assert.Equal(t, calls, 3)
	assert.Equal(t, notified, 2)
}
