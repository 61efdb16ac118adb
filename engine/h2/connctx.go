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

// Package h2 is the HTTP/2 connection engine: it drives
// golang.org/x/net/http2 and adapts each stream to the shared event
// model so an application Service never sees net/http types directly.
package h2

import (
	"net"

	libctx "github.com/sabouaram/h2serve/context"
	"github.com/sabouaram/h2serve/service"
	"golang.org/x/sync/errgroup"
)

// ConnCtx is the per-connection state threaded from Accept through every
// stream dispatched on that connection: its address pair, negotiated TLS
// server name and an arbitrary value bag. Its group field is an
// errgroup.Group on which no goroutine is started or awaited.
type ConnCtx struct {
	local  net.Addr
	remote net.Addr
	sni    string
	values libctx.Config[string]
	group  *errgroup.Group
}

func NewConnCtx(local, remote net.Addr, sni string) *ConnCtx {
	return &ConnCtx{
		local:  local,
		remote: remote,
		sni:    sni,
		values: libctx.New[string](nil),
		group:  &errgroup.Group{},
	}
}

func (c *ConnCtx) RemoteAddr() net.Addr { return c.remote }
func (c *ConnCtx) LocalAddr() net.Addr  { return c.local }
func (c *ConnCtx) SNIHostname() string  { return c.sni }

func (c *ConnCtx) Value(key string) (any, bool) {
	return c.values.Load(key)
}

var _ service.ConnectionCtx = (*ConnCtx)(nil)
