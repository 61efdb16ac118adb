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

// Package streaming implements the per-stream "Sending" loop of spec.md
// §4.D.2: draining a body.Body through an event.EventChannel once the
// response head is on the wire. A Service is free to call
// event.EventChannel.SendData/SendTrailers itself for full control; DriveHead
// and DriveBody exist for the common case of a Service that just hands back
// a status, header and body.Body and wants the framing handled for it.
package streaming

import (
	"context"
	"net/http"

	"github.com/sabouaram/h2serve/body"
	"github.com/sabouaram/h2serve/event"
	"github.com/sabouaram/h2serve/herrors"
)

// Respond sends status/header (inserting Content-Length when b reports a
// known length and the caller did not already set one, mirroring spec.md
// §4.D.2 step 2) and then drains b to completion, following the Sending
// loop: data chunks until end of stream, then trailers if any.
func Respond(ctx context.Context, ev event.EventChannel, status int, header http.Header, b body.Body) error {
	if header == nil {
		header = make(http.Header)
	}

	if header.Get("Content-Length") == "" {
		if n, known := b.ContentLength(); known {
			header.Set("Content-Length", itoa(n))
		}
	}

	chunk, eos, err := b.PollData(ctx)
	if err != nil {
		return herrors.ErrorBodyRead.Error(err)
	}

	if chunk == nil && eos {
		return ev.StartSendResponse(ctx, status, header, true)
	}

	if err := ev.StartSendResponse(ctx, status, header, false); err != nil {
		return err
	}

	return DriveBody(ctx, ev, b, chunk, eos)
}

// DriveBody runs the Sending loop for a body.Body whose response head has
// already been sent. first/firstEOS is the chunk (if any) already pulled
// from b, so Respond doesn't poll b twice; callers driving a body
// themselves after their own StartSendResponse may pass nil, false to
// have DriveBody poll from scratch.
func DriveBody(ctx context.Context, ev event.EventChannel, b body.Body, first *event.Chunk, firstEOS bool) error {
	chunk, eos := first, firstEOS

	// The chunk that arrives with end of data is held back until the
	// trailers are known: with trailers it goes out without
	// end_of_stream and the trailers close the stream; without them it
	// carries end_of_stream itself. Only when end of data comes with no
	// chunk is a bare empty end-of-stream marker sent.
	for !eos {
		if chunk != nil && chunk.Len() > 0 {
			if err := ev.SendData(ctx, chunk, false); err != nil {
				return err
			}
		}

		var err error
		chunk, eos, err = b.PollData(ctx)
		if err != nil {
			return herrors.ErrorBodyRead.Error(err)
		}
	}

	trailers, err := b.PollTrailers(ctx)
	if err != nil {
		return herrors.ErrorBodyRead.Error(err)
	}

	if len(trailers) > 0 {
		if chunk != nil && chunk.Len() > 0 {
			if err := ev.SendData(ctx, chunk, false); err != nil {
				return err
			}
		}
		return ev.SendTrailers(ctx, trailers)
	}

	if chunk == nil || chunk.Len() == 0 {
		chunk = event.NewChunk(nil)
	}
	return ev.SendData(ctx, chunk, true)
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
