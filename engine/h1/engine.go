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

// Package h1 is the HTTP/1.1 engine: it delegates entirely to net/http,
// reusing engine/h2's Handler (and hence the same event.EventChannel,
// body and service contracts) since both protocol versions share Go's
// http.Handler interface. EventChannel.Upgrade succeeds here via
// http.Hijacker; engine/h2 rejects it on HTTP/2 streams, and only the
// HTTP/1.1 requests that engine also serves can upgrade there.
package h1

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sabouaram/h2serve/engine/h2"
	"github.com/sabouaram/h2serve/metrics"
	"github.com/sabouaram/h2serve/service"
	"github.com/sabouaram/h2serve/transport"
)

// Config tunes the net/http.Server this Engine drives.
type Config struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Engine drives one transport.Acceptor through plain net/http, with no
// HTTP/2 upgrade path (use engine/h2 for that, or server.Server which
// picks between the two per connection).
type Engine struct {
	handler *h2.Handler
	httpSrv *http.Server

	connMu sync.Mutex
	conns  map[net.Conn]*h2.ConnCtx
}

// New builds an Engine. makeSvc is invoked once per accepted connection.
func New(makeSvc service.MakeService, cfg Config, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	e := &Engine{
		handler: h2.NewHandler(makeSvc, logger, 0),
		conns:   make(map[net.Conn]*h2.ConnCtx),
	}

	e.httpSrv = &http.Server{
		Handler:      e.handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		ErrorLog:     log.New(logger.WriterLevel(logrus.ErrorLevel), "", 0),
		ConnContext:  e.connContext,
		ConnState:    e.connState,
	}

	return e
}

func (e *Engine) connContext(ctx context.Context, c net.Conn) context.Context {
	cc := h2.NewConnCtx(c.LocalAddr(), c.RemoteAddr(), "")

	e.connMu.Lock()
	e.conns[c] = cc
	e.connMu.Unlock()

	e.handler.Metrics.ConnOpened()

	return h2.WithConnCtx(ctx, cc)
}

// WithMetrics attaches m so every connection/stream this Engine drives is
// observed through it.
func (e *Engine) WithMetrics(m *metrics.Collectors) *Engine {
	e.handler.Metrics = m
	return e
}

// connState forgets the cached Service once a connection closes or is
// hijacked (a 101 upgrade via EventChannel.Upgrade leaves net/http's
// bookkeeping in StateHijacked, same as engine/h2's equivalent hook).
func (e *Engine) connState(c net.Conn, state http.ConnState) {
	if state != http.StateClosed && state != http.StateHijacked {
		return
	}

	e.connMu.Lock()
	cc, ok := e.conns[c]
	delete(e.conns, c)
	e.connMu.Unlock()

	if ok {
		e.handler.Forget(cc)
		e.handler.Metrics.ConnClosed()
	}
}

// Serve drives a until it closes, the server is shut down, or ctx is
// cancelled. Cancelling ctx starts a graceful Shutdown.
func (e *Engine) Serve(ctx context.Context, a transport.Acceptor) error {
	ln := &acceptorListener{a: a}

	stop := context.AfterFunc(ctx, func() { _ = e.httpSrv.Shutdown(context.Background()) })
	defer stop()

	err := e.httpSrv.Serve(ln)
	if err != nil && errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully drains in-flight requests, honoring 101 upgrades
// already hijacked off the connection (they are no longer tracked by
// net/http once hijacked).
func (e *Engine) Shutdown(ctx context.Context) error {
	return e.httpSrv.Shutdown(ctx)
}

type acceptorListener struct {
	a transport.Acceptor
}

func (l *acceptorListener) Accept() (net.Conn, error) {
	for {
		acc, ok, err := l.a.Accept()
		if err != nil {
			if ok {
				continue
			}
			return nil, err
		}
		return acc.Conn, nil
	}
}

func (l *acceptorListener) Close() error   { return l.a.Close() }
func (l *acceptorListener) Addr() net.Addr { return l.a.Addr() }
