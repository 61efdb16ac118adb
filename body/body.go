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

// Package body provides the response-body abstraction applications hand
// to a Service response: a pull-based source of chunks, polled by the
// streaming package into an event.EventChannel.
package body

import (
	"context"
	"net/http"

	"github.com/sabouaram/h2serve/event"
)

// Body is a pull-based source of response body chunks. Implementations
// need not be safe for concurrent use; a Body is driven by a single
// goroutine at a time.
type Body interface {
	// PollData returns the next chunk, with eos true once the body is
	// exhausted. The final chunk may itself carry eos true, or eos may
	// come on its own as a (nil, true) result. It may be called again
	// after eos is observed only if it keeps returning eos true.
	PollData(ctx context.Context) (chunk *event.Chunk, eos bool, err error)

	// PollTrailers returns trailers to send after the last data chunk.
	// It is only called once PollData has reported eos. A nil, nil
	// result means no trailers.
	PollTrailers(ctx context.Context) (http.Header, error)

	// ContentLength returns the body's length and whether it is known
	// ahead of time. An unknown length forces chunked DATA framing.
	ContentLength() (length int64, known bool)
}
