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

package herrors

import (
	liberr "github.com/sabouaram/h2serve/errors"
)

// Kind classifies a failure along the five axes spec.md §7 distinguishes,
// independent of which liberr.CodeError actually produced it. Engines and
// the server package switch on Kind to decide connection-level behavior
// (tear down the connection, reset one stream, answer 503, ...) without
// needing to enumerate every CodeError constant at every call site.
type Kind uint8

const (
	// KindAccept covers transport.Acceptor failures: bind, accept, TLS
	// handshake.
	KindAccept Kind = iota
	// KindProtocol covers HTTP/2 framing and connection-level protocol
	// violations that must close the whole connection.
	KindProtocol
	// KindStreamReset covers a single stream being reset without
	// affecting the rest of the connection.
	KindStreamReset
	// KindService covers a Service/MakeService failure: readiness,
	// panics recovered into an error, or a returned error.
	KindService
	// KindBody covers request/response body errors: short reads,
	// content-length mismatches, reads after end of stream.
	KindBody
)

func (k Kind) String() string {
	switch k {
	case KindAccept:
		return "accept"
	case KindProtocol:
		return "protocol"
	case KindStreamReset:
		return "stream_reset"
	case KindService:
		return "service"
	case KindBody:
		return "body"
	}
	return "unknown"
}

var kindByCode = map[liberr.CodeError]Kind{
	ErrorTransportAccept: KindAccept,
	ErrorTransportBind:   KindAccept,
	ErrorTLSHandshake:    KindAccept,

	ErrorProtocolFrame:     KindProtocol,
	ErrorProtocolHandshake: KindProtocol,

	ErrorStreamReset: KindStreamReset,

	ErrorServiceNotReady: KindService,
	ErrorServicePanic:    KindService,

	ErrorBodyLengthMismatch:     KindBody,
	ErrorBodyRead:               KindBody,
	ErrorResponseHeadAlreadySent: KindBody,
	ErrorResponseHeadTooLate:     KindBody,
	ErrorSendAfterEndOfStream:    KindBody,
	ErrorTrailersBeforeDataEnd:   KindBody,
	ErrorUpgradeRejected:         KindBody,
}

// KindOf classifies err by the registered herrors CodeError it (or one of
// its parents) carries. Errors outside this package's taxonomy (plain Go
// errors, or liberr errors from a different module) report ok=false.
func KindOf(err error) (kind Kind, ok bool) {
	le, isLibErr := err.(liberr.Error)
	if !isLibErr {
		return 0, false
	}

	for _, code := range le.GetParentCode() {
		if k, found := kindByCode[code]; found {
			return k, true
		}
	}

	return 0, false
}

// Is reports whether err is classified as kind. A plain error (not a
// liberr.Error from this taxonomy) always reports false.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
