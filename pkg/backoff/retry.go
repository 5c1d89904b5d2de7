/*
 * Copyright © AMD. 2025-2026. All rights reserved.
 */

package backoff

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Retry runs f with exponential backoff until it succeeds or maxElapsedTime
// is spent. maxInterval caps the gap between attempts.
func Retry(f backoff.Operation, maxElapsedTime, maxInterval time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxElapsedTime
	b.MaxInterval = maxInterval
	if err := backoff.Retry(f, b); err != nil {
		return err
	}
	return nil
}

// RetryN runs f at most attempts times with exponential backoff starting at
// initialInterval, doubling up to maxInterval. Attempt counting rather than
// elapsed time makes the retry budget exact, which the store paths rely on.
func RetryN(f backoff.Operation, attempts uint64, initialInterval, maxInterval time.Duration) error {
	if attempts == 0 {
		return nil
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initialInterval
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = maxInterval
	b.MaxElapsedTime = 0
	return backoff.Retry(f, backoff.WithMaxRetries(b, attempts-1))
}

// RetryNotifyN is RetryN with jitter and a per-failure callback. The agent
// command paths use it to log each failed attempt before the next try.
func RetryNotifyN(f backoff.Operation, attempts uint64, initialInterval time.Duration,
	jitter float64, notify backoff.Notify) error {
	if attempts == 0 {
		return nil
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initialInterval
	b.RandomizationFactor = jitter
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	return backoff.RetryNotify(f, backoff.WithMaxRetries(b, attempts-1), notify)
}

// Permanent marks err so the retry loops above stop immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}
