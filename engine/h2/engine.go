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

package h2

import (
	"context"
	"crypto/tls"
	"errors"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/sabouaram/h2serve/herrors"
	"github.com/sabouaram/h2serve/metrics"
	"github.com/sabouaram/h2serve/service"
	"github.com/sabouaram/h2serve/transport"
)

// Config tunes the golang.org/x/net/http2.Server this Engine drives.
// Field meanings and defaulting match http2.Server directly; see
// server.Config for the validated, mapstructure-tagged version an
// application actually populates.
type Config struct {
	MaxConcurrentStreams         uint32
	MaxUploadBufferPerConnection int32
	MaxUploadBufferPerStream     int32
	PermitProhibitedCipherSuites bool
	IdleTimeout                  time.Duration
	ReadTimeout                  time.Duration
	WriteTimeout                 time.Duration
}

// Engine drives one transport.Acceptor through golang.org/x/net/http2,
// dispatching every stream to the Service built for its connection.
type Engine struct {
	handler *Handler
	httpSrv *http.Server
	h2Srv   *http2.Server
	log     *logrus.Logger

	connMu sync.Mutex
	conns  map[net.Conn]*ConnCtx
}

// New builds an Engine. makeSvc is invoked once per accepted connection.
func New(makeSvc service.MakeService, cfg Config, logger *logrus.Logger) (*Engine, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	e := &Engine{
		handler: NewHandler(makeSvc, logger, int64(cfg.MaxUploadBufferPerStream)),
		log:     logger,
		conns:   make(map[net.Conn]*ConnCtx),
	}

	httpSrv := &http.Server{
		Handler:      e.handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		ErrorLog:     log.New(logger.WriterLevel(logrus.ErrorLevel), "", 0),
		ConnContext:  e.connContext,
		ConnState:    e.connState,
	}

	h2Srv := &http2.Server{
		MaxConcurrentStreams:         cfg.MaxConcurrentStreams,
		MaxUploadBufferPerConnection: cfg.MaxUploadBufferPerConnection,
		MaxUploadBufferPerStream:     cfg.MaxUploadBufferPerStream,
		PermitProhibitedCipherSuites: cfg.PermitProhibitedCipherSuites,
		IdleTimeout:                  cfg.IdleTimeout,
	}

	if err := http2.ConfigureServer(httpSrv, h2Srv); err != nil {
		return nil, herrors.ErrorProtocolHandshake.Error(err)
	}

	e.httpSrv = httpSrv
	e.h2Srv = h2Srv

	return e, nil
}

// NewCleartext builds an Engine that accepts prior-knowledge HTTP/2 over
// a cleartext connection (RFC 7540 §3.4), falling back to plain
// HTTP/1.1 for clients that don't send the "PRI * HTTP/2.0" preface. It
// skips http2.ConfigureServer (that wiring is TLS/ALPN-only) in favor of
// golang.org/x/net/http2/h2c.NewHandler, which sniffs the preface itself.
func NewCleartext(makeSvc service.MakeService, cfg Config, logger *logrus.Logger) (*Engine, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	e := &Engine{
		handler: NewHandler(makeSvc, logger, int64(cfg.MaxUploadBufferPerStream)),
		log:     logger,
		conns:   make(map[net.Conn]*ConnCtx),
	}

	h2Srv := &http2.Server{
		MaxConcurrentStreams:         cfg.MaxConcurrentStreams,
		MaxUploadBufferPerConnection: cfg.MaxUploadBufferPerConnection,
		MaxUploadBufferPerStream:     cfg.MaxUploadBufferPerStream,
		PermitProhibitedCipherSuites: cfg.PermitProhibitedCipherSuites,
		IdleTimeout:                  cfg.IdleTimeout,
	}

	e.httpSrv = &http.Server{
		Handler:      h2c.NewHandler(e.handler, h2Srv),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		ErrorLog:     log.New(logger.WriterLevel(logrus.ErrorLevel), "", 0),
		ConnContext:  e.connContext,
		ConnState:    e.connState,
	}
	e.h2Srv = h2Srv

	return e, nil
}

func (e *Engine) connContext(ctx context.Context, c net.Conn) context.Context {
	sni := ""
	if tc, ok := c.(*tls.Conn); ok {
		sni = tc.ConnectionState().ServerName
	}

	cc := NewConnCtx(c.LocalAddr(), c.RemoteAddr(), sni)

	e.connMu.Lock()
	e.conns[c] = cc
	e.connMu.Unlock()

	e.handler.Metrics.ConnOpened()

	return WithConnCtx(ctx, cc)
}

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

// WithMetrics attaches m so every connection/stream this Engine drives is
// observed through it.
func (e *Engine) WithMetrics(m *metrics.Collectors) *Engine {
	e.handler.Metrics = m
	return e
}

// readinessPollInterval bounds how quickly Serve's background watcher
// notices probe going not-ready and reacts with Shutdown.
const readinessPollInterval = 100 * time.Millisecond

// WithReady attaches probe as the service readiness gate described in
// spec.md §4.D: Handler consults it synchronously per-stream (answering
// 503 without invoking MakeService while not ready), and Serve's
// background watcher consults it to drive the Running→Draining
// transition itself — the moment probe reports not-ready, the engine
// calls Shutdown (GOAWAY with the last processed stream-id) and stops
// accepting new streams, without waiting for graceful_shutdown to be
// invoked externally.
func (e *Engine) WithReady(probe service.ReadyProbe) *Engine {
	e.handler.Ready = probe
	return e
}

// watchReadiness polls handler.Ready until it reports not-ready, then
// triggers Shutdown itself and returns. It never reports an error: the
// result of that Shutdown is discarded, and Serve returns nil once
// httpSrv.Serve reports http.ErrServerClosed.
func (e *Engine) watchReadiness(ctx context.Context) {
	ticker := time.NewTicker(readinessPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !e.handler.Ready.Ready() {
				_ = e.Shutdown(context.Background())
				return
			}
		}
	}
}

// Serve drives a until it closes or ctx is cancelled, dispatching every
// accepted connection onto http.Server.Serve's internal per-connection
// goroutine (which is, in turn, where golang.org/x/net/http2 dispatches
// one goroutine per stream). Cancelling ctx starts a graceful Shutdown.
func (e *Engine) Serve(ctx context.Context, a transport.Acceptor) error {
	ln := &acceptorListener{a: a, ctx: ctx}

	stop := context.AfterFunc(ctx, func() { _ = e.httpSrv.Shutdown(context.Background()) })
	defer stop()

	if e.handler.Ready != nil {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go e.watchReadiness(watchCtx)
	}

	err := e.httpSrv.Serve(ln)
	if err != nil && errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight streams and triggers GOAWAY on every active
// HTTP/2 connection (via http.Server.Shutdown, which
// golang.org/x/net/http2's ConfigureServer wires through
// RegisterOnShutdown), waiting up to ctx's deadline.
func (e *Engine) Shutdown(ctx context.Context) error {
	return e.httpSrv.Shutdown(ctx)
}

// acceptorListener adapts transport.Acceptor to net.Listener so it can
// be handed to http.Server.Serve.
type acceptorListener struct {
	a   transport.Acceptor
	ctx context.Context
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
