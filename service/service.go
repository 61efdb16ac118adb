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

// Package service defines the application contract a protocol engine
// drives: one Service per connection, invoked once per stream.
package service

import (
	"context"
	"net"

	"github.com/sabouaram/h2serve/event"
)

// ConnectionCtx exposes the per-connection metadata a MakeService may
// need to build a Service: the peer address, negotiated TLS server name,
// and an arbitrary value bag threaded down from the transport/server
// layer (request ids, tenant info, and so on).
type ConnectionCtx interface {
	RemoteAddr() net.Addr
	LocalAddr() net.Addr
	SNIHostname() string
	Value(key string) (any, bool)
}

// Service handles a single stream: it reads the request through ev,
// produces a response through ev, and returns once the stream is fully
// resolved either way. A returned error is logged and, if the response
// head was never sent, surfaces as a 500.
type Service func(ctx context.Context, head event.RequestHead, ev event.EventChannel) error

// MakeService builds a Service bound to one connection's ConnectionCtx.
// It is called once per accepted connection, before any stream on that
// connection is dispatched.
type MakeService func(ctx context.Context, cc ConnectionCtx) (Service, error)

// ReadyProbe is an optional, separately-supplied readiness gate an
// engine consults before dispatching a stream to a Service. When Ready
// reports false, new streams are answered with a backpressure response
// without invoking MakeService, and the connection engine drains toward
// Draining/Closed (see engine/h2.Engine.WithReady) rather than tearing
// down connections already in flight.
type ReadyProbe interface {
	Ready() bool
}

// ReadyProbeFunc adapts a bare func() bool to ReadyProbe, the way
// http.HandlerFunc adapts a bare handler function.
type ReadyProbeFunc func() bool

func (f ReadyProbeFunc) Ready() bool { return f() }
