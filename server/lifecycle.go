/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package server

import (
	"context"
	"sync"
	"time"
)

// StartFunc runs until ctx is cancelled. It is launched on its own
// goroutine by lifecycle.Start.
type StartFunc func(ctx context.Context) error

// StopFunc releases whatever StartFunc acquired. It is given its own
// context, independent of the one passed to StartFunc, so cleanup is not
// cut short by the same cancellation that stopped the start loop.
type StopFunc func(ctx context.Context) error

// lifecycle tracks the running/stopped state of one start/stop pair, the
// way a server's accept loop is started and drained. One lifecycle
// instance is reused across repeated Start/Stop/Restart cycles.
type lifecycle struct {
	mu      sync.Mutex
	start   StartFunc
	stop    StopFunc
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
	since   time.Time
	errs    []error
}

// newLifecycle builds a lifecycle around start/stop. It does not start
// anything until Start is called.
func newLifecycle(start StartFunc, stop StopFunc) *lifecycle {
	return &lifecycle{start: start, stop: stop}
}

// Start stops any instance already running, then launches start on a new
// goroutine. Start itself never blocks on the goroutine's completion.
func (l *lifecycle) Start(ctx context.Context) error {
	l.mu.Lock()

	if l.running {
		l.mu.Unlock()
		_ = l.Stop(ctx)
		l.mu.Lock()
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	l.cancel = cancel
	l.done = done
	l.running = true
	l.since = time.Now()

	start := l.start
	l.mu.Unlock()

	go func() {
		defer close(done)

		err := start(runCtx)

		l.mu.Lock()
		l.running = false
		l.since = time.Time{}
		if err != nil {
			l.errs = append(l.errs, err)
		}
		l.mu.Unlock()
	}()

	return nil
}

// Stop cancels the running start function and waits for StopFunc to
// finish, or for ctx to expire, whichever comes first.
func (l *lifecycle) Stop(ctx context.Context) error {
	l.mu.Lock()
	cancel := l.cancel
	done := l.done
	stop := l.stop
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
		}
	}

	l.mu.Lock()
	l.running = false
	l.since = time.Time{}
	l.mu.Unlock()

	if stop == nil {
		return nil
	}

	if err := stop(ctx); err != nil {
		l.mu.Lock()
		l.errs = append(l.errs, err)
		l.mu.Unlock()
		return err
	}

	return nil
}

// Restart is Stop followed by Start.
func (l *lifecycle) Restart(ctx context.Context) error {
	if err := l.Stop(ctx); err != nil {
		return err
	}
	return l.Start(ctx)
}

// IsRunning reports whether the start function is currently executing.
func (l *lifecycle) IsRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Uptime returns how long the current run has been active, or zero when
// stopped.
func (l *lifecycle) Uptime() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running || l.since.IsZero() {
		return 0
	}
	return time.Since(l.since)
}

// ErrorsList returns every error recorded across the lifecycle's history.
func (l *lifecycle) ErrorsList() []error {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]error, len(l.errs))
	copy(out, l.errs)
	return out
}

// ErrorsLast returns the most recently recorded error, or nil.
func (l *lifecycle) ErrorsLast() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.errs) == 0 {
		return nil
	}
	return l.errs[len(l.errs)-1]
}
