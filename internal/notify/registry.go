package notify

import (
	"log/slog"
	"math/bits"
	"sync"
	"time"
)

const (
	// DefaultShards is the number of lock stripes recipients are spread over.
	DefaultShards = 32
	// DefaultBuffer is the per-subscription outbox size.
	DefaultBuffer = 32
)

// Registry maps recipients to their live subscriptions.
//
// Recipients are spread over lock-striped shards. Every change to one
// recipient's set, including creating or deleting its entry, happens under
// that recipient's shard lock, so an entry is never observed empty.
type Registry struct {
	shards      []*shard
	buffer      int
	maxLifetime time.Duration
	log         *slog.Logger
}

type shard struct {
	mu   sync.Mutex
	sets map[RecipientID]map[*Subscription]struct{}
}

// RegistryOption customises a Registry.
type RegistryOption func(*Registry)

// WithShards sets the number of lock stripes. Values below 1 are ignored.
func WithShards(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.shards = make([]*shard, n)
		}
	}
}

// WithBuffer sets how many undelivered events a subscription may hold before
// Send reports it as backlogged.
func WithBuffer(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.buffer = n
		}
	}
}

// WithMaxLifetime closes every subscription d after it was created. Zero keeps
// subscriptions open until they complete or fail.
func WithMaxLifetime(d time.Duration) RegistryOption {
	return func(r *Registry) { r.maxLifetime = d }
}

// WithLogger sets the logger used for lifecycle debug output.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		shards: make([]*shard, DefaultShards),
		buffer: DefaultBuffer,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	for i := range r.shards {
		r.shards[i] = &shard{sets: make(map[RecipientID]map[*Subscription]struct{})}
	}
	return r
}

func (r *Registry) shardFor(recipient RecipientID) *shard {
	// Fibonacci hashing: the top bits of the product are the well mixed
	// ones, so the index is taken from the high word of h * len(shards).
	h := uint64(recipient) * 0x9E3779B97F4A7C15
	idx, _ := bits.Mul64(h, uint64(len(r.shards)))
	return r.shards[idx]
}

// Subscribe creates an open subscription for recipient and files it. The
// subscription removes itself when it completes or times out.
func (r *Registry) Subscribe(recipient RecipientID) *Subscription {
	sub := newSubscription(recipient, r.buffer)

	sh := r.shardFor(recipient)
	sh.mu.Lock()
	set, ok := sh.sets[recipient]
	if !ok {
		set = make(map[*Subscription]struct{})
		sh.sets[recipient] = set
	}
	set[sub] = struct{}{}
	n := len(set)
	sh.mu.Unlock()

	sub.OnCompletion(func() { r.Remove(recipient, sub) })
	sub.OnTimeout(func() { r.Remove(recipient, sub) })
	sub.expireAfter(r.maxLifetime)

	r.log.Debug("notify: subscribed", "recipient", int64(recipient), "subscription", sub.ID(), "live", n)
	return sub
}

// Remove drops sub from recipient's set, deleting the entry once it is empty.
// Removing a subscription that is not filed is a no-op.
func (r *Registry) Remove(recipient RecipientID, sub *Subscription) {
	sh := r.shardFor(recipient)
	sh.mu.Lock()
	set, ok := sh.sets[recipient]
	if !ok {
		sh.mu.Unlock()
		return
	}
	if _, ok := set[sub]; !ok {
		sh.mu.Unlock()
		return
	}
	delete(set, sub)
	n := len(set)
	if n == 0 {
		delete(sh.sets, recipient)
	}
	sh.mu.Unlock()

	r.log.Debug("notify: removed", "recipient", int64(recipient), "subscription", sub.ID(), "live", n)
}

// Subscriptions returns a snapshot of recipient's live subscriptions.
func (r *Registry) Subscriptions(recipient RecipientID) []*Subscription {
	sh := r.shardFor(recipient)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	set := sh.sets[recipient]
	if len(set) == 0 {
		return nil
	}
	out := make([]*Subscription, 0, len(set))
	for sub := range set {
		out = append(out, sub)
	}
	return out
}

// Len returns how many subscriptions recipient currently holds.
func (r *Registry) Len(recipient RecipientID) int {
	sh := r.shardFor(recipient)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return len(sh.sets[recipient])
}

// Has reports whether the registry holds an entry for recipient.
func (r *Registry) Has(recipient RecipientID) bool {
	sh := r.shardFor(recipient)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	_, ok := sh.sets[recipient]
	return ok
}

// Recipients returns the number of recipients with at least one subscription.
func (r *Registry) Recipients() int {
	n := 0
	for _, sh := range r.shards {
		sh.mu.Lock()
		n += len(sh.sets)
		sh.mu.Unlock()
	}
	return n
}

// Total returns the number of live subscriptions across all recipients.
func (r *Registry) Total() int {
	n := 0
	for _, sh := range r.shards {
		sh.mu.Lock()
		for _, set := range sh.sets {
			n += len(set)
		}
		sh.mu.Unlock()
	}
	return n
}

// Each calls fn for a snapshot of every live subscription. fn runs without
// any registry lock held and may call Remove.
func (r *Registry) Each(fn func(*Subscription)) {
	for _, sh := range r.shards {
		sh.mu.Lock()
		var subs []*Subscription
		for _, set := range sh.sets {
			for sub := range set {
				subs = append(subs, sub)
			}
		}
		sh.mu.Unlock()
		for _, sub := range subs {
			fn(sub)
		}
	}
}
