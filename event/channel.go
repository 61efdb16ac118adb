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

package event

import (
	"context"
	"io"
	"net/http"
)

// Upgraded is the raw duplex byte stream handed back by EventChannel.Upgrade,
// valid only for HTTP/1.1 protocol switches (status 101).
type Upgraded interface {
	io.ReadWriteCloser
}

// EventChannel is the per-stream primitive an application Service uses to
// read request data and drive a response. One EventChannel exists per
// stream and is not safe for use after the stream reaches a terminal
// StreamState.
//
// Data and Trailers are pull operations, driven by the application reading
// the request body. StartSendResponse, SendData and SendTrailers are push
// operations, driven by the application producing a response. Both sides
// may interleave freely; nothing here enforces request/response ordering
// beyond what HTTP itself requires.
type EventChannel interface {
	// Data returns the next chunk of request body, whether it is the
	// final chunk (end of stream reached), or an error. A nil chunk with
	// eos true and a nil error means the request had no more body.
	Data(ctx context.Context) (chunk *Chunk, eos bool, err error)

	// Trailers returns request trailers. It must only be called after
	// Data has reported eos; calling it earlier returns
	// herrors.ErrorTrailersBeforeDataEnd.
	Trailers(ctx context.Context) (http.Header, error)

	// StartSendResponse sends the response head. It may be called at
	// most once per stream, and never after the response has reached
	// end of stream.
	StartSendResponse(ctx context.Context, status int, header http.Header, endOfStream bool) error

	// SendData sends one chunk of response body, reserving flow-control
	// capacity for it before writing. Calling it after endOfStream was
	// already observed is an error.
	SendData(ctx context.Context, chunk *Chunk, endOfStream bool) error

	// SendTrailers sends response trailers and marks the stream's
	// response half closed.
	SendTrailers(ctx context.Context, trailers http.Header) error

	// Upgrade takes over the underlying connection for a protocol
	// switch. It only succeeds on HTTP/1.1; HTTP/2 streams reject it
	// with herrors.ErrorUpgradeRejected.
	Upgrade(ctx context.Context) (Upgraded, error)

	// State reports the current StreamState.
	State() StreamState
}
