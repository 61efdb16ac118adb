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

// Package server is the supervisor component: it binds a transport
// acceptor, picks an engine (HTTP/1.1 or HTTP/2) per connection, and
// coordinates graceful shutdown across a pool of named servers.
package server

import (
	"fmt"
	"net/url"
	"time"

	libval "github.com/go-playground/validator/v10"

	libtls "github.com/sabouaram/h2serve/certificates"
	liberr "github.com/sabouaram/h2serve/errors"
	"github.com/sabouaram/h2serve/herrors"
)

// Config is the validated configuration of one server: its listen
// address, HTTP/2 tuning knobs, and optional TLS material.
type Config struct {
	// Name identifies the server among others in a Pool. Defaults to
	// Listen when empty.
	Name string `mapstructure:"name" json:"name" yaml:"name" toml:"name"`

	// Listen is the bind address: host:port, or a path when Network is
	// "unix".
	Listen string `mapstructure:"listen" json:"listen" yaml:"listen" toml:"listen" validate:"required"`

	// Network is "tcp" or "unix". Defaults to "tcp".
	Network string `mapstructure:"network" json:"network" yaml:"network" toml:"network"`

	// Expose is the externally reachable URL for this server, used only
	// for reporting/info purposes.
	Expose string `mapstructure:"expose" json:"expose" yaml:"expose" toml:"expose" validate:"omitempty,url"`

	// H2C allows prior-knowledge HTTP/2 over cleartext connections.
	H2C bool `mapstructure:"h2c" json:"h2c" yaml:"h2c" toml:"h2c"`

	// ReadTimeout, WriteTimeout, IdleTimeout mirror net/http.Server.
	ReadTimeout  time.Duration `mapstructure:"read_timeout" json:"read_timeout" yaml:"read_timeout" toml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" json:"write_timeout" yaml:"write_timeout" toml:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" json:"idle_timeout" yaml:"idle_timeout" toml:"idle_timeout"`

	// MaxConcurrentStreams bounds streams-per-connection for HTTP/2.
	// Zero lets golang.org/x/net/http2 apply its own default (100).
	MaxConcurrentStreams uint32 `mapstructure:"max_concurrent_streams" json:"max_concurrent_streams" yaml:"max_concurrent_streams" toml:"max_concurrent_streams"`

	// MaxUploadBufferPerConnection and MaxUploadBufferPerStream size the
	// initial HTTP/2 flow-control windows.
	MaxUploadBufferPerConnection int32 `mapstructure:"max_upload_buffer_per_connection" json:"max_upload_buffer_per_connection" yaml:"max_upload_buffer_per_connection" toml:"max_upload_buffer_per_connection"`
	MaxUploadBufferPerStream     int32 `mapstructure:"max_upload_buffer_per_stream" json:"max_upload_buffer_per_stream" yaml:"max_upload_buffer_per_stream" toml:"max_upload_buffer_per_stream"`

	// PermitProhibitedCipherSuites, if true, allows cipher suites the
	// HTTP/2 spec prohibits. Kept for parity with old TLS clients in
	// lab/test environments; never set it in production.
	PermitProhibitedCipherSuites bool `mapstructure:"permit_prohibited_cipher_suites" json:"permit_prohibited_cipher_suites" yaml:"permit_prohibited_cipher_suites" toml:"permit_prohibited_cipher_suites"`

	// ShutdownTimeout bounds how long Shutdown waits for in-flight
	// streams to drain. When it expires, Shutdown returns the context
	// error; connections still active are not closed.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout" yaml:"shutdown_timeout" toml:"shutdown_timeout"`

	// TLS configures TLS termination for this server. Leave the zero
	// value to serve cleartext.
	TLS libtls.Config `mapstructure:"tls" json:"tls" yaml:"tls" toml:"tls"`
}

const defaultShutdownTimeout = 10 * time.Second

// Validate runs struct-tag validation, mirroring the teacher's
// validator-based ServerConfig.Validate.
func (c *Config) Validate() liberr.Error {
	out := herrors.ErrorServerConfigInvalid.Error(nil)

	if er := libval.New().Struct(c); er != nil {
		if e, ok := er.(*libval.InvalidValidationError); ok {
			out.Add(e)
		} else if ve, ok := er.(libval.ValidationErrors); ok {
			for _, e := range ve {
				out.Add(fmt.Errorf("config field '%s' is not validated by constraint '%s'", e.Field(), e.ActualTag()))
			}
		} else {
			out.Add(er)
		}
	}

	if c.Network != "" && c.Network != "tcp" && c.Network != "unix" {
		out.Add(fmt.Errorf("network must be 'tcp' or 'unix', got %q", c.Network))
	}

	if out.HasParent() {
		return out
	}

	return nil
}

// GetName returns Name, defaulting to Listen.
func (c *Config) GetName() string {
	if c.Name == "" {
		return c.Listen
	}
	return c.Name
}

// GetNetwork returns Network, defaulting to "tcp".
func (c *Config) GetNetwork() string {
	if c.Network == "" {
		return "tcp"
	}
	return c.Network
}

// GetExpose parses Expose as a URL, falling back to Listen with a
// scheme inferred from IsTLS.
func (c *Config) GetExpose() *url.URL {
	if c.Expose != "" {
		if u, err := url.Parse(c.Expose); err == nil {
			return u
		}
	}

	scheme := "http"
	if c.IsTLS() {
		scheme = "https"
	}

	return &url.URL{Scheme: scheme, Host: c.Listen}
}

// IsTLS reports whether TLS carries at least one certificate pair.
func (c *Config) IsTLS() bool {
	return len(c.TLS.Certs) > 0
}

// GetShutdownTimeout returns ShutdownTimeout, defaulting to 10s.
func (c *Config) GetShutdownTimeout() time.Duration {
	if c.ShutdownTimeout > 0 {
		return c.ShutdownTimeout
	}
	return defaultShutdownTimeout
}
