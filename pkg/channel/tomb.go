/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package channel

// Tomb controls the lifecycle of a background goroutine: the owner calls
// Stop and blocks until the goroutine has acknowledged via Done.
type Tomb struct {
	stop chan struct{}
	done chan struct{}
}

func NewTomb() *Tomb {
	return &Tomb{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Stop signals the goroutine and waits for it to finish.
func (t *Tomb) Stop() {
	close(t.stop)
	<-t.done
}

// Stopping is selected on by the goroutine to learn it should exit.
func (t *Tomb) Stopping() <-chan struct{} {
	return t.stop
}

// Done is deferred by the goroutine to acknowledge it has exited.
func (t *Tomb) Done() {
	close(t.done)
}

func (t *Tomb) IsStopped() bool {
	return isClosed(t.stop)
}

// isClosed reports whether an unbuffered signal channel is closed without
// blocking. A nil channel counts as closed.
func isClosed(ch chan struct{}) bool {
	if ch == nil {
		return true
	}
	select {
	case _, received := <-ch:
		if !received {
			return true
		}
	default:
	}
	return false
}
