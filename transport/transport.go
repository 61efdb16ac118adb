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

// Package transport is the lowest layer of the serving stack: it turns a
// listen address into a stream of accepted connections, independent of
// whatever protocol engine (HTTP/1.1, HTTP/2) eventually drives them.
package transport

import (
	"net"
)

// Accepted is a single accepted connection plus the information a
// protocol engine needs without re-querying the OS for it.
type Accepted struct {
	Conn   net.Conn
	Local  net.Addr
	Remote net.Addr
}

// Acceptor is anything that can hand out accepted connections one at a
// time and be told to stop. It is a narrower surface than net.Listener:
// it does not promise Accept is safe to call concurrently with itself
// (engines call it from a single foreground loop), but Close must be
// safe to call concurrently with a blocked Accept.
type Acceptor interface {
	// Accept blocks until a connection arrives, the acceptor is closed,
	// or a transient error occurs. Transient errors (temporary network
	// errors) are returned with ok=true so callers can retry; permanent
	// failures (closed acceptor) are returned with ok=false.
	Accept() (conn Accepted, ok bool, err error)

	// Addr returns the bound local address.
	Addr() net.Addr

	// Close stops accepting and releases the underlying listener.
	Close() error
}

// netListenerAcceptor adapts a net.Listener (as returned by net.Listen
// for "tcp" and "unix" networks) to Acceptor.
type netListenerAcceptor struct {
	ln net.Listener
}

// Wrap adapts an existing net.Listener to the Acceptor interface. Used
// by both NewTCP/NewUnix and by callers who already hold a listener
// (e.g. one obtained from systemd socket activation).
func Wrap(ln net.Listener) Acceptor {
	return &netListenerAcceptor{ln: ln}
}

func (a *netListenerAcceptor) Accept() (Accepted, bool, error) {
	c, err := a.ln.Accept()
	if err != nil {
		if ne, isNet := err.(net.Error); isNet && ne.Temporary() {
			return Accepted{}, true, err
		}
		return Accepted{}, false, err
	}

	return Accepted{
		Conn:   c,
		Local:  c.LocalAddr(),
		Remote: c.RemoteAddr(),
	}, true, nil
}

func (a *netListenerAcceptor) Addr() net.Addr {
	return a.ln.Addr()
}

func (a *netListenerAcceptor) Close() error {
	return a.ln.Close()
}
