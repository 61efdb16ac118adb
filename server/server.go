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
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sabouaram/h2serve/engine/h1"
	"github.com/sabouaram/h2serve/engine/h2"
	"github.com/sabouaram/h2serve/metrics"
	"github.com/sabouaram/h2serve/service"
	"github.com/sabouaram/h2serve/transport"
)

// engine is the subset of engine/h1.Engine and engine/h2.Engine that
// Server needs: drive an acceptor until closed, and drain on Shutdown.
type engine interface {
	Serve(ctx context.Context, a transport.Acceptor) error
	Shutdown(ctx context.Context) error
}

// Server binds one Config to one transport.Acceptor and the engine that
// Config selects:
//   - TLS configured: engine/h2, whose golang.org/x/net/http2.ConfigureServer
//     wiring negotiates h2 vs. HTTP/1.1 per connection via ALPN.
//   - no TLS, H2C: engine/h2 as well, but over a cleartext acceptor —
//     prior-knowledge HTTP/2 requires no ALPN, so the same engine serves
//     both h2c and HTTP/1.1 clients on the same plain listener.
//   - no TLS, no H2C: engine/h1, plain HTTP/1.1 only.
type Server struct {
	cfg  Config
	eng  engine
	acc  transport.Acceptor
	log  *logrus.Logger
	life *lifecycle
}

// New builds a Server bound to cfg. makeSvc is invoked once per accepted
// connection, regardless of which engine ends up serving it. m may be nil;
// when set, every connection/stream this Server drives is observed through
// it (see metrics.Collectors).
func New(cfg Config, makeSvc service.MakeService, logger *logrus.Logger, m *metrics.Collectors) (*Server, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	if verr := cfg.Validate(); verr != nil {
		return nil, verr
	}

	s := &Server{cfg: cfg, log: logger}

	h2cfg := h2.Config{
		MaxConcurrentStreams:         cfg.MaxConcurrentStreams,
		MaxUploadBufferPerConnection: cfg.MaxUploadBufferPerConnection,
		MaxUploadBufferPerStream:     cfg.MaxUploadBufferPerStream,
		PermitProhibitedCipherSuites: cfg.PermitProhibitedCipherSuites,
		IdleTimeout:                  cfg.IdleTimeout,
		ReadTimeout:                  cfg.ReadTimeout,
		WriteTimeout:                 cfg.WriteTimeout,
	}

	switch {
	case cfg.IsTLS():
		eng, err := h2.New(makeSvc, h2cfg, logger)
		if err != nil {
			return nil, err
		}
		s.eng = eng.WithMetrics(m)
	case cfg.H2C:
		eng, err := h2.NewCleartext(makeSvc, h2cfg, logger)
		if err != nil {
			return nil, err
		}
		s.eng = eng.WithMetrics(m)
	default:
		s.eng = h1.New(makeSvc, h1.Config{
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		}, logger).WithMetrics(m)
	}

	s.life = newLifecycle(s.run, s.drain)

	return s, nil
}

func (s *Server) acceptor() (transport.Acceptor, error) {
	var (
		acc transport.Acceptor
		err error
	)

	switch s.cfg.GetNetwork() {
	case "unix":
		acc, err = transport.NewUnix(s.cfg.Listen)
	default:
		acc, err = transport.NewTCPKeepAlive(s.cfg.Listen, true)
	}
	if err != nil {
		return nil, err
	}

	if s.cfg.IsTLS() {
		sni := ""
		if u := s.cfg.GetExpose(); u != nil {
			sni = u.Hostname()
		}
		acc = transport.NewTLS(acc, s.cfg.TLS.New(), sni)
	}

	return acc, nil
}

func (s *Server) run(ctx context.Context) error {
	acc, err := s.acceptor()
	if err != nil {
		return err
	}

	s.acc = acc

	s.log.WithFields(logrus.Fields{
		"server": s.cfg.GetName(),
		"listen": s.cfg.Listen,
		"tls":    s.cfg.IsTLS(),
		"h2c":    s.cfg.H2C,
	}).Info("server listening")

	return s.eng.Serve(ctx, acc)
}

func (s *Server) drain(ctx context.Context) error {
	return s.eng.Shutdown(ctx)
}

// Start launches the accept loop in the background. It returns once the
// loop has been scheduled, not once it is actually listening.
func (s *Server) Start(ctx context.Context) error {
	return s.life.Start(ctx)
}

// Shutdown gracefully drains the server, bounded by Config's
// ShutdownTimeout if ctx carries no earlier deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.GetShutdownTimeout())
	defer cancel()
	return s.life.Stop(ctx)
}

// Restart stops and relaunches the accept loop on a fresh listener.
func (s *Server) Restart(ctx context.Context) error {
	return s.life.Restart(ctx)
}

// IsRunning reports whether the accept loop is currently active.
func (s *Server) IsRunning() bool { return s.life.IsRunning() }

// Uptime reports how long the current accept loop has been running.
func (s *Server) Uptime() time.Duration { return s.life.Uptime() }

// Addr returns the bound local address, or nil before Start completes.
func (s *Server) Addr() net.Addr {
	if s.acc == nil {
		return nil
	}
	return s.acc.Addr()
}

// LastError mirrors lifecycle.ErrorsLast for callers that only care about
// the most recent failure.
func (s *Server) LastError() error { return s.life.ErrorsLast() }
