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

package body

import (
	"context"
	"net/http"

	"github.com/sabouaram/h2serve/event"
)

// BufferBody is a Body over a single in-memory byte slice, with a known
// content length. It is the body used for small, fully-materialized
// responses.
type BufferBody struct {
	data     []byte
	trailers http.Header
	sent     bool
}

// NewBufferBody wraps b. The slice is not copied; callers must not
// mutate it after handing it to NewBufferBody.
func NewBufferBody(b []byte) *BufferBody {
	return &BufferBody{data: b}
}

// WithTrailers attaches trailers sent after the data chunk and returns
// the receiver for chaining.
func (b *BufferBody) WithTrailers(h http.Header) *BufferBody {
	b.trailers = h
	return b
}

func (b *BufferBody) PollData(_ context.Context) (*event.Chunk, bool, error) {
	if b.sent {
		return nil, true, nil
	}
	b.sent = true
	if len(b.data) == 0 {
		return nil, true, nil
	}
	return event.NewChunk(b.data), true, nil
}

func (b *BufferBody) PollTrailers(_ context.Context) (http.Header, error) {
	return b.trailers, nil
}

func (b *BufferBody) ContentLength() (int64, bool) {
	return int64(len(b.data)), true
}
