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

// Package event defines the shared data model that flows between a
// transport acceptor, a protocol engine and an application service:
// request heads, data chunks and the connection/stream state machines
// driving them.
package event

// StreamState is the lifecycle of a single HTTP/2 (or HTTP/1.1) stream,
// mirrored on the state machine a real HTTP/2 peer keeps per-stream.
type StreamState uint8

const (
	StreamIdle StreamState = iota
	StreamOpen
	StreamHalfClosedLocal
	StreamHalfClosedRemote
	StreamClosed
	StreamReset
)

func (s StreamState) String() string {
	switch s {
	case StreamIdle:
		return "idle"
	case StreamOpen:
		return "open"
	case StreamHalfClosedLocal:
		return "half-closed-local"
	case StreamHalfClosedRemote:
		return "half-closed-remote"
	case StreamClosed:
		return "closed"
	case StreamReset:
		return "reset"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further frame is expected on a stream in
// this state.
func (s StreamState) IsTerminal() bool {
	return s == StreamClosed || s == StreamReset
}

// ConnState is the lifecycle of a connection as driven by the foreground
// accept loop of a protocol engine.
type ConnState uint8

const (
	ConnHandshaking ConnState = iota
	ConnRunning
	ConnDraining
	ConnClosed
)

func (s ConnState) String() string {
	switch s {
	case ConnHandshaking:
		return "handshaking"
	case ConnRunning:
		return "running"
	case ConnDraining:
		return "draining"
	case ConnClosed:
		return "closed"
	default:
		return "unknown"
	}
}
