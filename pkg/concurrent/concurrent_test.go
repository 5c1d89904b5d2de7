/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package concurrent

import (
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"gotest.tools/assert"
)

func TestExec(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name          string
		count         int
		fn            func() error
		expectSuccess int
		expectErr     bool
	}{
		{"zero", 0, func() error { return nil }, 0, false},
		{"null function", 10, nil, 0, false},
		{"no err", 10, func() error { return nil }, 10, false},
		{"all err", 10, func() error { return boom }, 0, true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			success, err := Exec(test.count, test.fn)
			assert.Equal(t, success, test.expectSuccess)
			if test.expectErr {
				assert.ErrorContains(t, err, boom.Error())
			} else {
				assert.NilError(t, err)
			}
		})
	}
}

func TestExecIndexed(t *testing.T) {
	var seen [8]int32
	success, err := ExecIndexed(len(seen), func(i int) error {
		atomic.AddInt32(&seen[i], 1)
		return nil
	})
	assert.NilError(t, err)
	assert.Equal(t, success, len(seen))
	for i := range seen {
		assert.Equal(t, seen[i], int32(1))
	}
}
