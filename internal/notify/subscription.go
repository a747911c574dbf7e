package notify

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrClosed is returned by Send once the subscription has left the Open state.
	ErrClosed = errors.New("notify: subscription closed")
	// ErrBacklogged is returned by Send when the outbox is full, meaning the
	// connection stopped draining events.
	ErrBacklogged = errors.New("notify: subscription backlogged")
	// ErrCompleted is the close reason after Complete.
	ErrCompleted = errors.New("notify: subscription completed")
	// ErrTimedOut is the close reason after the maximum lifetime elapsed.
	ErrTimedOut = errors.New("notify: subscription timed out")
)

// Subscription is one live push connection bound to a recipient. It starts
// Open and moves to Closed exactly once: on Complete, on timeout, or after a
// failed delivery. A closed subscription is never reused.
//
// Subscriptions are compared by pointer; ID exists for logs only.
type Subscription struct {
	id        uuid.UUID
	recipient RecipientID
	outbox    chan Event
	done      chan struct{}

	mu           sync.Mutex
	closed       bool
	err          error
	timer        *time.Timer
	onCompletion []func()
	onTimeout    []func()
}

func newSubscription(recipient RecipientID, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Subscription{
		id:        uuid.New(),
		recipient: recipient,
		outbox:    make(chan Event, buffer),
		done:      make(chan struct{}),
	}
}

// ClosedSubscription returns a detached subscription that is already closed.
// Transports hand it out when the caller's identity cannot be resolved, so the
// client sees a normal end of stream.
func ClosedSubscription() *Subscription {
	s := newSubscription(0, 1)
	s.closed = true
	s.err = ErrTimedOut
	close(s.done)
	return s
}

func (s *Subscription) ID() string             { return s.id.String() }
func (s *Subscription) Recipient() RecipientID { return s.recipient }

// Events yields events accepted by Send. The channel is never closed; select
// on Done to learn when to stop reading.
func (s *Subscription) Events() <-chan Event { return s.outbox }

// Done is closed when the subscription leaves the Open state.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Closed reports whether the subscription is in its terminal state.
func (s *Subscription) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Err returns why the subscription closed, or nil while it is open.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Send queues e for the connection without blocking.
func (s *Subscription) Send(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	select {
	case s.outbox <- e:
		return nil
	default:
		return ErrBacklogged
	}
}

// OnCompletion registers fn to run when Complete closes the subscription.
// If that already happened, fn runs immediately.
func (s *Subscription) OnCompletion(fn func()) {
	s.mu.Lock()
	if s.closed {
		ran := errors.Is(s.err, ErrCompleted)
		s.mu.Unlock()
		if ran {
			fn()
		}
		return
	}
	s.onCompletion = append(s.onCompletion, fn)
	s.mu.Unlock()
}

// OnTimeout registers fn to run when the maximum lifetime elapses.
// If that already happened, fn runs immediately.
func (s *Subscription) OnTimeout(fn func()) {
	s.mu.Lock()
	if s.closed {
		ran := errors.Is(s.err, ErrTimedOut)
		s.mu.Unlock()
		if ran {
			fn()
		}
		return
	}
	s.onTimeout = append(s.onTimeout, fn)
	s.mu.Unlock()
}

// Complete closes the subscription normally. Calling it again is a no-op.
func (s *Subscription) Complete() {
	s.close(ErrCompleted)
}

// expireAfter arms the lifetime timer. d <= 0 means no expiry.
func (s *Subscription) expireAfter(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.timer = time.AfterFunc(d, func() { s.close(ErrTimedOut) })
}

// abort closes the subscription after a failed delivery. No hooks run: the
// dispatcher removes it from the registry itself.
func (s *Subscription) abort(err error) {
	s.close(err)
}

func (s *Subscription) close(reason error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.err = reason
	if s.timer != nil {
		s.timer.Stop()
	}
	var hooks []func()
	switch {
	case errors.Is(reason, ErrCompleted):
		hooks = s.onCompletion
	case errors.Is(reason, ErrTimedOut):
		hooks = s.onTimeout
	}
	s.onCompletion, s.onTimeout = nil, nil
	close(s.done)
	s.mu.Unlock()

	// Hooks take registry locks; run them outside ours.
	for _, fn := range hooks {
		fn()
	}
}
