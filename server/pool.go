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
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/sync/errgroup"
)

// Pool groups several named Servers so an application can start, drain and
// query all of them together, mirroring the teacher's httpserver PoolServer
// (Add/Get/Del/Has/Len, bulk Restart/Shutdown, WaitNotify-on-signal), minus
// the status/semaphore machinery those methods leaned on, which no longer
// exists in this module (see DESIGN.md) — bulk operations here fan out on
// golang.org/x/sync/errgroup instead.
type Pool struct {
	mu   sync.RWMutex
	byID map[string]*Server
}

// NewPool builds an empty Pool.
func NewPool() *Pool {
	return &Pool{byID: make(map[string]*Server)}
}

// Add registers srv under its Config name, replacing any prior server of
// the same name (the replaced server is left untouched; callers wanting
// to drain it first should Shutdown it before Add).
func (p *Pool) Add(srv *Server) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byID[srv.cfg.GetName()] = srv
}

// Get returns the server registered under name, or nil.
func (p *Pool) Get(name string) *Server {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.byID[name]
}

// Del removes and returns the server registered under name, or nil if
// none was registered. It does not shut the server down.
func (p *Pool) Del(name string) *Server {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.byID[name]
	delete(p.byID, name)
	return s
}

// Has reports whether a server is registered under name.
func (p *Pool) Has(name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.byID[name]
	return ok
}

// Len returns the number of registered servers.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byID)
}

func (p *Pool) snapshot() []*Server {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Server, 0, len(p.byID))
	for _, s := range p.byID {
		out = append(out, s)
	}
	return out
}

// StartAll starts every registered server concurrently, returning the
// first error encountered (all starts still run; errgroup.Wait collects
// them after every goroutine finishes).
func (p *Pool) StartAll(ctx context.Context) error {
	var g errgroup.Group
	for _, s := range p.snapshot() {
		s := s
		g.Go(func() error { return s.Start(ctx) })
	}
	return g.Wait()
}

// Shutdown drains every registered server concurrently, bounded by ctx.
func (p *Pool) Shutdown(ctx context.Context) error {
	var g errgroup.Group
	for _, s := range p.snapshot() {
		s := s
		g.Go(func() error { return s.Shutdown(ctx) })
	}
	return g.Wait()
}

// Restart restarts every registered server concurrently.
func (p *Pool) Restart(ctx context.Context) error {
	var g errgroup.Group
	for _, s := range p.snapshot() {
		s := s
		g.Go(func() error { return s.Restart(ctx) })
	}
	return g.Wait()
}

// IsRunning reports whether every registered server is running (atLeast
// false) or at least one is (atLeast true).
func (p *Pool) IsRunning(atLeast bool) bool {
	servers := p.snapshot()
	if len(servers) == 0 {
		return false
	}

	running := false
	for _, s := range servers {
		if s.IsRunning() {
			running = true
			if atLeast {
				return true
			}
			continue
		}
		if !atLeast {
			return false
		}
	}
	return running
}

// WaitNotify blocks until SIGINT/SIGTERM/SIGQUIT or ctx is done, then
// shuts the whole pool down.
func (p *Pool) WaitNotify(ctx context.Context) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case <-ctx.Done():
	}

	return p.Shutdown(context.Background())
}
