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

// Package herrors registers this module's error codes in the teacher error
// framework (github.com/sabouaram/h2serve/errors) and defines the error
// taxonomy of spec.md §7: Protocol, StreamReset, Service, Body and Accept.
package herrors

import (
	liberr "github.com/sabouaram/h2serve/errors"
)

const (
	ErrorTransportAccept liberr.CodeError = iota + liberr.MinAvailable
	ErrorTransportBind
	ErrorTLSHandshake
	ErrorProtocolFrame
	ErrorProtocolHandshake
	ErrorStreamReset
	ErrorServiceNotReady
	ErrorServicePanic
	ErrorBodyLengthMismatch
	ErrorBodyRead
	ErrorResponseHeadAlreadySent
	ErrorResponseHeadTooLate
	ErrorSendAfterEndOfStream
	ErrorTrailersBeforeDataEnd
	ErrorUpgradeRejected
	ErrorServerConfigInvalid
	ErrorServerPortInUse
)

func init() {
	liberr.RegisterIdFctMessage(ErrorTransportAccept, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case liberr.UnknownError:
		return liberr.UnknownMessage
	case ErrorTransportAccept:
		return "transient error accepting a connection"
	case ErrorTransportBind:
		return "cannot bind transport acceptor"
	case ErrorTLSHandshake:
		return "TLS handshake failed"
	case ErrorProtocolFrame:
		return "HTTP/2 framing or connection-level protocol error"
	case ErrorProtocolHandshake:
		return "HTTP/2 handshake failed"
	case ErrorStreamReset:
		return "stream was reset"
	case ErrorServiceNotReady:
		return "service reported not ready"
	case ErrorServicePanic:
		return "service future resolved with an error"
	case ErrorBodyLengthMismatch:
		return "response body content length does not match bytes sent"
	case ErrorBodyRead:
		return "application response body errored mid-stream"
	case ErrorResponseHeadAlreadySent:
		return "start_send_response called more than once for this stream"
	case ErrorResponseHeadTooLate:
		return "start_send_response called after end of stream"
	case ErrorSendAfterEndOfStream:
		return "send operation attempted after end_of_stream was already observed"
	case ErrorTrailersBeforeDataEnd:
		return "trailers() called before data() observed end of stream"
	case ErrorUpgradeRejected:
		return "HTTP/2 streams cannot be upgraded (status 101 rejected)"
	case ErrorServerConfigInvalid:
		return "server configuration failed validation"
	case ErrorServerPortInUse:
		return "server bind address is already in use"
	}

	return ""
}
