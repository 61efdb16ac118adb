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

// Package metrics wires github.com/prometheus/client_golang collectors for
// the connection/stream lifecycle engine/h2 and engine/h1 drive. It is a
// domain-stack addition (SPEC_FULL.md §4): spec.md itself has no metrics
// component, but every engine in this module accepts an optional Collectors
// so an application can observe it.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collectors groups every counter/histogram this module exposes. The zero
// value is not usable; build one with New.
type Collectors struct {
	reg *prometheus.Registry

	ConnsOpened   prometheus.Counter
	ConnsClosed   prometheus.Counter
	ConnsActive   prometheus.Gauge
	StreamsTotal  *prometheus.CounterVec // label "outcome": ok|reset|error
	StreamLatency prometheus.Histogram
	BytesIn       prometheus.Counter
	BytesOut      prometheus.Counter
}

// New builds a Collectors registered against a fresh prometheus.Registry.
// namespace/subsystem follow the usual client_golang convention
// (namespace_subsystem_name).
func New(namespace, subsystem string) *Collectors {
	reg := prometheus.NewRegistry()

	c := &Collectors{
		reg: reg,
		ConnsOpened: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "connections_opened_total",
			Help: "Total accepted connections.",
		}),
		ConnsClosed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "connections_closed_total",
			Help: "Total closed connections.",
		}),
		ConnsActive: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "connections_active",
			Help: "Currently open connections.",
		}),
		StreamsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "streams_total",
			Help: "Total streams dispatched to a Service, by outcome.",
		}, []string{"outcome"}),
		StreamLatency: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "stream_duration_seconds",
			Help:    "Time from stream dispatch to completion.",
			Buckets: prometheus.DefBuckets,
		}),
		BytesIn: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "bytes_received_total",
			Help: "Total request body bytes read across all streams.",
		}),
		BytesOut: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "bytes_sent_total",
			Help: "Total response body bytes written across all streams.",
		}),
	}

	return c
}

// ConnOpened records one accepted connection.
func (c *Collectors) ConnOpened() {
	if c == nil {
		return
	}
	c.ConnsOpened.Inc()
	c.ConnsActive.Inc()
}

// ConnClosed records one closed connection.
func (c *Collectors) ConnClosed() {
	if c == nil {
		return
	}
	c.ConnsClosed.Inc()
	c.ConnsActive.Dec()
}

// StreamOutcome is one of "ok", "reset", "error" — the terminal state of a
// dispatched stream, matching event.StreamState's terminal variants.
type StreamOutcome string

const (
	OutcomeOK    StreamOutcome = "ok"
	OutcomeReset StreamOutcome = "reset"
	OutcomeError StreamOutcome = "error"
)

// StreamDone records one completed stream and its wall-clock duration.
func (c *Collectors) StreamDone(outcome StreamOutcome, seconds float64) {
	if c == nil {
		return
	}
	c.StreamsTotal.WithLabelValues(string(outcome)).Inc()
	c.StreamLatency.Observe(seconds)
}

// AddBytesIn/AddBytesOut accumulate body byte counts.
func (c *Collectors) AddBytesIn(n int)  { c.addIf(c.BytesIn, n) }
func (c *Collectors) AddBytesOut(n int) { c.addIf(c.BytesOut, n) }

func (c *Collectors) addIf(counter prometheus.Counter, n int) {
	if c == nil || n <= 0 {
		return
	}
	counter.Add(float64(n))
}

// Handler exposes the registry in the Prometheus text exposition format,
// ready to mount on a server.Config's own listener or a separate one.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
