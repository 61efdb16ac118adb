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

package h2

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/sabouaram/h2serve/event"
	"github.com/sabouaram/h2serve/herrors"
	"golang.org/x/sync/semaphore"
)

const defaultReadChunk = 32 * 1024

// eventChannel adapts one HTTP request/response pair served through
// net/http (HTTP/1.1 or HTTP/2, indistinguishably, since both ride the
// same http.Handler contract) to event.EventChannel. Its flow-control
// semaphore models the spec's per-stream send window on top of whatever
// real windowing golang.org/x/net/http2 applies underneath.
type eventChannel struct {
	w http.ResponseWriter
	r *http.Request

	sem *semaphore.Weighted

	mu       sync.Mutex
	state    event.StreamState
	headSent bool
	reqEos   bool

	// respDeclLen is the response Content-Length declared in
	// StartSendResponse's header (-1 if absent or unparseable).
	// respSent tracks bytes actually written through SendData so a
	// declared/actual mismatch (spec.md §8's body-length-mismatch
	// property) is caught before it escapes as a silently-truncated or
	// silently-overlong response; see baranov1ch-http2/server.go's
	// declBodyBytes tracking on the request side for the same idea
	// applied to responses.
	respDeclLen int64
	respSent    int64

	// lastErr records the last error a push operation produced, read by
	// Handler's panic recovery to classify an aborted stream by Kind
	// without widening the event.EventChannel interface.
	lastErr error
}

func newEventChannel(w http.ResponseWriter, r *http.Request, window int64) *eventChannel {
	if window <= 0 {
		window = 1 << 20
	}

	return &eventChannel{
		w:           w,
		r:           r,
		sem:         semaphore.NewWeighted(window),
		state:       event.StreamOpen,
		respDeclLen: -1,
	}
}

func (e *eventChannel) State() event.StreamState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *eventChannel) Data(ctx context.Context) (*event.Chunk, bool, error) {
	e.mu.Lock()
	if e.reqEos {
		e.mu.Unlock()
		return nil, true, nil
	}
	e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	buf := make([]byte, defaultReadChunk)
	n, err := e.r.Body.Read(buf)

	if n > 0 {
		chunk := event.NewChunk(buf[:n])

		if err != nil {
			e.markReqEos()
			if errors.Is(err, io.EOF) {
				return chunk, true, nil
			}
			return chunk, false, herrors.ErrorBodyRead.Error(err)
		}

		return chunk, false, nil
	}

	e.markReqEos()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, false, herrors.ErrorBodyRead.Error(err)
	}

	return nil, true, nil
}

func (e *eventChannel) markReqEos() {
	e.mu.Lock()
	e.reqEos = true
	e.mu.Unlock()
}

func (e *eventChannel) Trailers(_ context.Context) (http.Header, error) {
	e.mu.Lock()
	eos := e.reqEos
	e.mu.Unlock()

	if !eos {
		return nil, herrors.ErrorTrailersBeforeDataEnd.Error(nil)
	}

	return e.r.Trailer, nil
}

func (e *eventChannel) StartSendResponse(_ context.Context, status int, header http.Header, endOfStream bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.headSent {
		return herrors.ErrorResponseHeadAlreadySent.Error(nil)
	}
	if e.state.IsTerminal() {
		return herrors.ErrorResponseHeadTooLate.Error(nil)
	}

	dst := e.w.Header()
	for k, v := range header {
		dst[k] = v
	}

	if n, err := strconv.ParseInt(dst.Get("Content-Length"), 10, 64); err == nil && n >= 0 {
		e.respDeclLen = n
	}

	e.w.WriteHeader(status)
	e.headSent = true

	if endOfStream {
		e.state = event.StreamHalfClosedLocal
		if f, ok := e.w.(http.Flusher); ok {
			f.Flush()
		}
	}

	return nil
}

func (e *eventChannel) SendData(ctx context.Context, chunk *event.Chunk, endOfStream bool) error {
	e.mu.Lock()
	if e.state.IsTerminal() || e.state == event.StreamHalfClosedLocal {
		e.mu.Unlock()
		return herrors.ErrorSendAfterEndOfStream.Error(nil)
	}
	headSent := e.headSent
	e.mu.Unlock()

	if !headSent {
		if err := e.StartSendResponse(ctx, http.StatusOK, nil, false); err != nil {
			return err
		}
	}

	n := int64(chunk.Len())

	e.mu.Lock()
	declLen := e.respDeclLen
	wouldSend := e.respSent + n
	e.mu.Unlock()

	if declLen >= 0 && wouldSend > declLen {
		err := herrors.ErrorBodyLengthMismatch.Error(nil)
		e.mu.Lock()
		e.lastErr = err
		e.state = event.StreamHalfClosedLocal
		e.mu.Unlock()
		panic(http.ErrAbortHandler)
	}

	if n > 0 {
		if err := e.sem.Acquire(ctx, n); err != nil {
			return err
		}

		if _, err := e.w.Write(chunk.Bytes()); err != nil {
			e.sem.Release(n)
			return herrors.ErrorBodyRead.Error(err)
		}
		e.sem.Release(n)

		if f, ok := e.w.(http.Flusher); ok {
			f.Flush()
		}

		e.mu.Lock()
		e.respSent += n
		e.mu.Unlock()
	}

	e.mu.Lock()
	if endOfStream {
		if declLen >= 0 && e.respSent != declLen {
			err := herrors.ErrorBodyLengthMismatch.Error(nil)
			e.lastErr = err
			e.state = event.StreamHalfClosedLocal
			e.mu.Unlock()
			return err
		}
		e.state = event.StreamHalfClosedLocal
	}
	e.mu.Unlock()

	return nil
}

// LastError returns the last push-side error this stream recorded, or
// nil. It is not part of event.EventChannel — Handler holds the
// concrete *eventChannel it built and calls this directly to classify
// an http.ErrAbortHandler panic by Kind when logging.
func (e *eventChannel) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

func (e *eventChannel) SendTrailers(_ context.Context, trailers http.Header) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for k, v := range trailers {
		for _, vv := range v {
			e.w.Header().Add(http.TrailerPrefix+k, vv)
		}
	}

	e.state = event.StreamHalfClosedLocal
	return nil
}

func (e *eventChannel) Upgrade(_ context.Context) (event.Upgraded, error) {
	if e.r.ProtoMajor >= 2 {
		return nil, herrors.ErrorUpgradeRejected.Error(nil)
	}

	hj, ok := e.w.(http.Hijacker)
	if !ok {
		return nil, herrors.ErrorUpgradeRejected.Error(nil)
	}

	conn, rw, err := hj.Hijack()
	if err != nil {
		return nil, herrors.ErrorUpgradeRejected.Error(err)
	}

	e.mu.Lock()
	e.state = event.StreamHalfClosedLocal
	e.mu.Unlock()

	return &upgradedConn{Conn: conn, r: rw.Reader}, nil
}

// upgradedConn preserves bytes already buffered by net/http's
// bufio.ReadWriter before handing the raw connection to the caller.
type upgradedConn struct {
	net.Conn
	r *bufio.Reader
}

func (u *upgradedConn) Read(p []byte) (int, error) {
	if u.r.Buffered() > 0 {
		return u.r.Read(p)
	}
	return u.Conn.Read(p)
}

var _ event.EventChannel = (*eventChannel)(nil)
