/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package concurrent

import (
	"sync"
)

// Exec runs fn count times in parallel and waits for all of them. It returns
// the number of successful runs and the first error observed.
func Exec(count int, fn func() error) (int, error) {
	if count == 0 || fn == nil {
		return 0, nil
	}
	return ExecIndexed(count, func(int) error { return fn() })
}

// ExecIndexed is Exec with the goroutine index passed to fn, for fanning out
// over a slice without capturing the loop variable.
func ExecIndexed(count int, fn func(i int) error) (int, error) {
	if count == 0 || fn == nil {
		return 0, nil
	}
	var wg sync.WaitGroup
	wg.Add(count)
	errCh := make(chan error, count)
	defer close(errCh)

	for i := 0; i < count; i++ {
		go func(i int) {
			defer wg.Done()
			if err := fn(i); err != nil {
				errCh <- err
			}
		}(i)
	}
	wg.Wait()
	successes := count - len(errCh)
	if len(errCh) > 0 {
		err := <-errCh
		return successes, err
	}
	return successes, nil
}
