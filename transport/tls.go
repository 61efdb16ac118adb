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
	"crypto/tls"
	"net"

	tlscfg "github.com/sabouaram/h2serve/certificates"
)

// TLSAcceptor decorates an Acceptor with a deferred TLS handshake: the
// handshake runs lazily on first read/write of the returned net.Conn
// (the standard tls.Conn behavior), not inside Accept. This keeps a slow
// or hostile client's handshake from blocking the foreground accept
// loop, matching the "acceptor wraps acceptor" shape used for cleartext
// wrapping upstream of TLS.
type TLSAcceptor struct {
	inner Acceptor
	cfg   tlscfg.TLSConfig
	sni   string
}

// NewTLS wraps inner, terminating TLS on every accepted connection using
// cfg. sni is the server name advertised to TLSConfig.TlsConfig for SNI
// certificate selection; pass "" to use the config's default.
func NewTLS(inner Acceptor, cfg tlscfg.TLSConfig, sni string) *TLSAcceptor {
	return &TLSAcceptor{inner: inner, cfg: cfg, sni: sni}
}

func (a *TLSAcceptor) Accept() (Accepted, bool, error) {
	acc, ok, err := a.inner.Accept()
	if err != nil || !ok {
		return acc, ok, err
	}

	tc := tls.Server(acc.Conn, a.cfg.TlsConfig(a.sni))
	acc.Conn = tc

	return acc, true, nil
}

func (a *TLSAcceptor) Addr() net.Addr {
	return a.inner.Addr()
}

func (a *TLSAcceptor) Close() error {
	return a.inner.Close()
}
