package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionSendQueuesUntilFull(t *testing.T) {
	s := newSubscription(1, 2)

	assert.NoError(t, s.Send(NewEvent("a")))
	assert.NoError(t, s.Send(NewEvent("b")))
	assert.ErrorIs(t, s.Send(NewEvent("c")), ErrBacklogged)

	assert.Equal(t, "a", (<-s.Events()).Name)
	assert.NoError(t, s.Send(NewEvent("d")))
}

func TestSubscriptionCompleteRunsHooksOnce(t *testing.T) {
	s := newSubscription(1, 1)
	var completions, timeouts int
	s.OnCompletion(func() { completions++ })
	s.OnTimeout(func() { timeouts++ })

	s.Complete()
	s.Complete()

	assert.Equal(t, 1, completions)
	assert.Equal(t, 0, timeouts)
	assert.True(t, s.Closed())
	assert.ErrorIs(t, s.Send(NewEvent("x")), ErrClosed)
}

func TestSubscriptionLateHookRunsImmediately(t *testing.T) {
	s := newSubscription(1, 1)
	s.Complete()

	var completed, timedOut bool
	s.OnCompletion(func() { completed = true })
	s.OnTimeout(func() { timedOut = true })

	assert.True(t, completed)
	assert.False(t, timedOut)
}

func TestSubscriptionExpiry(t *testing.T) {
	s := newSubscription(1, 1)
	fired := make(chan struct{})
	s.OnTimeout(func() { close(fired) })
	s.expireAfter(10 * time.Millisecond)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timeout hook did not run")
	}
	assert.ErrorIs(t, s.Err(), ErrTimedOut)
}

func TestSubscriptionCompleteStopsExpiry(t *testing.T) {
	s := newSubscription(1, 1)
	var timedOut bool
	s.OnTimeout(func() { timedOut = true })
	s.expireAfter(10 * time.Millisecond)
	s.Complete()

	time.Sleep(30 * time.Millisecond)
	assert.False(t, timedOut)
	assert.ErrorIs(t, s.Err(), ErrCompleted)
}

func TestSubscriptionAbortRunsNoHooks(t *testing.T) {
	s := newSubscription(1, 1)
	var ran bool
	s.OnCompletion(func() { ran = true })
	s.OnTimeout(func() { ran = true })

	s.abort(ErrBacklogged)

	assert.False(t, ran)
	assert.ErrorIs(t, s.Err(), ErrBacklogged)
	select {
	case <-s.Done():
	default:
		t.Fatal("done not closed after abort")
	}
}

func TestClosedSubscriptionIsTerminal(t *testing.T) {
	s := ClosedSubscription()

	assert.True(t, s.Closed())
	assert.ErrorIs(t, s.Send(NewEvent("x")), ErrClosed)
	select {
	case <-s.Done():
	default:
		t.Fatal("done not closed")
	}
}
