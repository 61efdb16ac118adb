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
	"io"
	"net/http"

	"github.com/sabouaram/h2serve/event"
)

// ReaderBody is a Body backed by an io.Reader of unknown length. It
// forces chunked/DATA framing since ContentLength reports unknown, and
// reads in fixed-size chunks off the wrapped reader.
type ReaderBody struct {
	r         io.Reader
	chunkSize int
	trailers  func() (http.Header, error)
	eos       bool
}

const defaultReaderChunkSize = 32 * 1024

// NewReaderBody wraps r, reading chunkSize bytes at a time. A
// non-positive chunkSize falls back to a 32KiB default.
func NewReaderBody(r io.Reader, chunkSize int) *ReaderBody {
	if chunkSize <= 0 {
		chunkSize = defaultReaderChunkSize
	}
	return &ReaderBody{r: r, chunkSize: chunkSize}
}

// WithTrailerFunc attaches a function evaluated once the reader is
// drained, to produce trailers. Returns the receiver for chaining.
func (b *ReaderBody) WithTrailerFunc(f func() (http.Header, error)) *ReaderBody {
	b.trailers = f
	return b
}

func (b *ReaderBody) PollData(ctx context.Context) (*event.Chunk, bool, error) {
	if b.eos {
		return nil, true, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	buf := make([]byte, b.chunkSize)
	n, err := b.r.Read(buf)

	if n > 0 {
		chunk := event.NewChunk(buf[:n])
		if err == io.EOF {
			b.eos = true
			return chunk, true, nil
		}
		if err != nil {
			return chunk, false, err
		}
		return chunk, false, nil
	}

	if err == io.EOF || err == nil {
		b.eos = true
		return nil, true, nil
	}

	return nil, false, err
}

func (b *ReaderBody) PollTrailers(_ context.Context) (http.Header, error) {
	if b.trailers == nil {
		return nil, nil
	}
	return b.trailers()
}

func (b *ReaderBody) ContentLength() (int64, bool) {
	return 0, false
}
