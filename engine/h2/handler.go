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
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sabouaram/h2serve/event"
	"github.com/sabouaram/h2serve/metrics"
	"github.com/sabouaram/h2serve/service"
)

type connCtxKey struct{}

// WithConnCtx returns a context carrying cc, for use from an
// http.Server's ConnContext hook.
func WithConnCtx(ctx context.Context, cc *ConnCtx) context.Context {
	return context.WithValue(ctx, connCtxKey{}, cc)
}

// Handler adapts a service.MakeService to http.Handler. One Handler
// instance is shared across every connection; the per-connection
// service.Service it builds is cached on first use and keyed by the
// connCtx stashed by ConnContext, so MakeService runs exactly once per
// connection regardless of how many streams it carries. Make calls are
// serialized across all connections sharing the Handler.
type Handler struct {
	Make   service.MakeService
	Log    *logrus.Logger
	Window int64 // per-stream flow-control window; see server.Config.MaxUploadBufferPerStream

	// Ready, when set, gates new stream dispatch: a false result makes
	// the handler answer 503 without invoking Make or the Service. The
	// owning Engine's Serve also polls Ready in the background and calls
	// Shutdown the moment it goes false, per spec.md §4.D.1's
	// Running→Draining transition; this field only covers the
	// synchronous per-request gate that closes the race before that
	// drain completes.
	Ready service.ReadyProbe

	// Metrics, when set, receives per-stream outcome/duration counters.
	Metrics *metrics.Collectors

	svcMu sync.Mutex
	svc   map[*ConnCtx]service.Service
}

// NewHandler builds a Handler. log defaults to logrus's standard logger
// when nil; window defaults to 1MiB in eventChannel when non-positive.
func NewHandler(makeSvc service.MakeService, log *logrus.Logger, window int64) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Handler{
		Make:   makeSvc,
		Log:    log,
		Window: window,
		svc:    make(map[*ConnCtx]service.Service),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Ready != nil && !h.Ready.Ready() {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}

	cc, _ := r.Context().Value(connCtxKey{}).(*ConnCtx)
	if cc == nil {
		sni := ""
		if r.TLS != nil {
			sni = r.TLS.ServerName
		}
		cc = NewConnCtx(nil, nil, sni)
	}

	svc, err := h.serviceFor(r.Context(), cc)
	if err != nil {
		h.Log.WithError(err).WithField("remote", r.RemoteAddr).Error("make service failed")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	head := event.RequestHead{
		Method: r.Method,
		URI:    r.URL.RequestURI(),
		Proto:  r.Proto,
		Header: r.Header,
	}

	ev := newEventChannel(w, r, h.Window)

	log := h.Log.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"remote": r.RemoteAddr,
		"proto":  r.Proto,
	})

	started := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				if le := ev.LastError(); le != nil {
					log.WithError(le).Trace("stream aborted (RST_STREAM)")
				} else {
					log.Trace("stream aborted (RST_STREAM)")
				}
				h.Metrics.StreamDone(metrics.OutcomeReset, time.Since(started).Seconds())
			}
			panic(rec)
		}
	}()

	if err := svc(r.Context(), head, ev); err != nil {
		log.WithError(err).Trace("service returned error")
		h.Metrics.StreamDone(metrics.OutcomeError, time.Since(started).Seconds())
		if ev.State() == event.StreamOpen {
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	h.Metrics.StreamDone(metrics.OutcomeOK, time.Since(started).Seconds())
}

func (h *Handler) serviceFor(ctx context.Context, cc *ConnCtx) (service.Service, error) {
	h.svcMu.Lock()
	defer h.svcMu.Unlock()

	if svc, ok := h.svc[cc]; ok {
		return svc, nil
	}

	svc, err := h.Make(ctx, cc)
	if err != nil {
		return nil, err
	}

	h.svc[cc] = svc

	return svc, nil
}

// Forget drops the cached Service for a connection once it closes,
// releasing the reference so the ConnCtx (and anything it closed over)
// can be collected. Engines call this from their ConnState hook.
func (h *Handler) Forget(cc *ConnCtx) {
	h.svcMu.Lock()
	delete(h.svc, cc)
	h.svcMu.Unlock()
}
