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

import "net/http"

// Chunk is a single buffer of DATA-frame bytes moving through an
// EventChannel, in either direction.
type Chunk struct {
	buf []byte
	off int
}

// NewChunk wraps an existing byte slice without copying it.
func NewChunk(b []byte) *Chunk {
	return &Chunk{buf: b}
}

// Len returns the number of unread bytes remaining in the chunk.
func (c *Chunk) Len() int {
	if c == nil {
		return 0
	}
	return len(c.buf) - c.off
}

// Bytes returns the unread portion of the chunk.
func (c *Chunk) Bytes() []byte {
	if c == nil {
		return nil
	}
	return c.buf[c.off:]
}

// Advance marks n bytes as consumed. It clamps to the chunk length.
func (c *Chunk) Advance(n int) {
	if c == nil {
		return
	}
	c.off += n
	if c.off > len(c.buf) {
		c.off = len(c.buf)
	}
}

// SendBuf pairs an outbound chunk with the end-of-stream flag that
// accompanies it, matching a single DATA frame plus its END_STREAM bit.
type SendBuf struct {
	Data *Chunk
	Eos  bool
}

// RequestHead is the header-only portion of a request: everything known
// before the first DATA frame arrives.
type RequestHead struct {
	Method string
	URI    string
	Proto  string
	Header http.Header
}
