package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hostelhub/roomcast/internal/notify"
)

// handleSubscribe opens a Server-Sent Events stream for the student named by
// the token. EventSource cannot set headers, so the token comes from the
// "token" query parameter; a Bearer header is accepted as well.
//
// Every resolution failure gets the same answer: a 200 stream that ends
// right away, so the browser sees a normal close rather than an error.
func (gw *Gateway) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	sub := gw.subscribe(r)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering if behind a proxy
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if sub.Closed() {
		return
	}
	defer sub.Complete()

	// SSE endpoint writes event-stream frames, not HTML.
	// nosemgrep: go.lang.security.audit.xss.no-fprintf-to-responsewriter.no-fprintf-to-responsewriter
	if _, err := io.WriteString(w, ": connected\n\n"); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-sub.Done():
			return
		case e := <-sub.Events():
			if err := writeEvent(w, e); err != nil {
				slog.Debug("gateway: stream write failed",
					"recipient", int64(sub.Recipient()), "subscription", sub.ID(), "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

// subscribe resolves the caller and registers a subscription, or returns an
// already-closed one when the caller cannot be identified.
func (gw *Gateway) subscribe(r *http.Request) *notify.Subscription {
	token := bearerToken(r)
	id, err := gw.resolver.Resolve(r.Context(), token)
	if err != nil {
		slog.Warn("gateway: subscribe rejected", "remote", r.RemoteAddr, "error", err)
		return notify.ClosedSubscription()
	}
	sub := gw.registry.Subscribe(id)
	slog.Info("gateway: stream opened", "recipient", int64(id), "subscription", sub.ID())
	return sub
}

func bearerToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	return headerToken(r)
}

// headerToken returns the token from an "Authorization: Bearer" header.
func headerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// writeEvent renders e in event-stream format. Keep-alives become comments.
func writeEvent(w io.Writer, e notify.Event) error {
	if e.IsHeartbeat() {
		_, err := io.WriteString(w, ": keep-alive\n\n")
		return err
	}
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Name, data)
	return err
}
