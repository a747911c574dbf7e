package notify

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const mirrorTimeout = 5 * time.Second

// Dispatcher delivers events to every live subscription of a recipient.
// Delivery is best-effort: a failed subscription is closed and removed, and
// the failure never reaches the caller.
type Dispatcher struct {
	reg     *Registry
	mirrors []Mirror
	log     *slog.Logger

	wg sync.WaitGroup

	published atomic.Int64
	delivered atomic.Int64
	pruned    atomic.Int64
}

// DispatchStats is a snapshot of the dispatcher counters.
type DispatchStats struct {
	Published int64 `json:"published"`
	Delivered int64 `json:"delivered"`
	Pruned    int64 `json:"pruned"`
}

// DispatcherOption customises a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithMirror forwards every published event to m as well. Mirrors that are
// not configured are skipped.
func WithMirror(m Mirror) DispatcherOption {
	return func(d *Dispatcher) {
		if m != nil && m.IsConfigured() {
			d.mirrors = append(d.mirrors, m)
		}
	}
}

// WithDispatcherLogger sets the dispatcher logger.
func WithDispatcherLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// NewDispatcher creates a Dispatcher publishing through reg.
func NewDispatcher(reg *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{reg: reg, log: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type failedDelivery struct {
	sub *Subscription
	err error
}

// Publish attempts one delivery of e to each subscription recipient holds at
// the moment of lookup. Publishing to a recipient with no live subscriptions
// is a no-op.
func (d *Dispatcher) Publish(recipient RecipientID, e Event) {
	d.published.Add(1)
	d.mirror(recipient, e)

	subs := d.reg.Subscriptions(recipient)
	if len(subs) == 0 {
		d.log.Debug("notify: no live subscriptions", "recipient", int64(recipient), "event", e.Name)
		return
	}
	d.prune(d.deliver(subs, e))
}

// Heartbeat sends a keep-alive to every live subscription. Connections that
// stopped draining fail the send and are pruned like in Publish.
func (d *Dispatcher) Heartbeat() {
	var subs []*Subscription
	d.reg.Each(func(s *Subscription) { subs = append(subs, s) })
	if len(subs) == 0 {
		return
	}
	d.prune(d.deliver(subs, Event{}))
}

func (d *Dispatcher) deliver(subs []*Subscription, e Event) []failedDelivery {
	var failed []failedDelivery
	for _, sub := range subs {
		if err := sub.Send(e); err != nil {
			failed = append(failed, failedDelivery{sub: sub, err: err})
			continue
		}
		if !e.IsHeartbeat() {
			d.delivered.Add(1)
		}
	}
	return failed
}

// prune runs after the delivery pass so the snapshot is never modified
// while it is being walked.
func (d *Dispatcher) prune(failed []failedDelivery) {
	for _, f := range failed {
		f.sub.abort(f.err)
		d.reg.Remove(f.sub.Recipient(), f.sub)
		d.pruned.Add(1)
		d.log.Debug("notify: pruned subscription",
			"recipient", int64(f.sub.Recipient()), "subscription", f.sub.ID(), "error", f.err)
	}
}

func (d *Dispatcher) mirror(recipient RecipientID, e Event) {
	for _, m := range d.mirrors {
		d.wg.Add(1)
		go func(m Mirror) {
			defer d.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
			defer cancel()
			if err := m.Send(ctx, recipient, e); err != nil {
				d.log.Warn("notify: mirror send failed", "mirror", m.Name(), "event", e.Name, "error", err)
			}
		}(m)
	}
}

// Wait blocks until in-flight mirror sends have finished.
func (d *Dispatcher) Wait() { d.wg.Wait() }

// Stats returns the current counters.
func (d *Dispatcher) Stats() DispatchStats {
	return DispatchStats{
		Published: d.published.Load(),
		Delivered: d.delivered.Load(),
		Pruned:    d.pruned.Load(),
	}
}
