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

package transport

import (
	"net"

	"github.com/sabouaram/h2serve/herrors"
)

// NewTCP binds a TCP acceptor on addr (host:port, or :port for all
// interfaces).
func NewTCP(addr string) (Acceptor, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, herrors.ErrorTransportBind.Error(err)
	}

	return Wrap(ln), nil
}

// NewTCPKeepAlive is like NewTCP but sets a keep-alive period on every
// accepted connection, matching the behavior net/http.Server's default
// listener applies when none is supplied explicitly.
func NewTCPKeepAlive(addr string, keepAlive bool) (Acceptor, error) {
	a, err := NewTCP(addr)
	if err != nil {
		return nil, err
	}

	if !keepAlive {
		return a, nil
	}

	return &keepAliveAcceptor{Acceptor: a}, nil
}

type keepAliveAcceptor struct {
	Acceptor
}

func (a *keepAliveAcceptor) Accept() (Accepted, bool, error) {
	acc, ok, err := a.Acceptor.Accept()
	if err != nil || !ok {
		return acc, ok, err
	}

	if tc, isTCP := acc.Conn.(*net.TCPConn); isTCP {
		_ = tc.SetKeepAlive(true)
		_ = tc.SetKeepAlivePeriod(0)
	}

	return acc, ok, nil
}
