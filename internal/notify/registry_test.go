package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrySubscribeFilesSubscription(t *testing.T) {
	reg := NewRegistry()
	sub := reg.Subscribe(7)

	require.NotNil(t, sub)
	assert.False(t, sub.Closed())
	assert.Equal(t, RecipientID(7), sub.Recipient())
	assert.Equal(t, 1, reg.Len(7))
	assert.True(t, reg.Has(7))
	assert.Equal(t, 1, reg.Recipients())
	assert.Equal(t, 1, reg.Total())
}

func TestRegistryMultipleSubscriptionsPerRecipient(t *testing.T) {
	reg := NewRegistry()
	a := reg.Subscribe(1)
	b := reg.Subscribe(1)
	c := reg.Subscribe(2)

	assert.NotSame(t, a, b)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, 2, reg.Len(1))
	assert.Equal(t, 1, reg.Len(2))
	assert.Equal(t, 2, reg.Recipients())
	assert.Equal(t, 3, reg.Total())
	assert.ElementsMatch(t, []*Subscription{a, b}, reg.Subscriptions(1))
	_ = c
}

func TestRegistryRemoveDeletesEmptyEntry(t *testing.T) {
	reg := NewRegistry()
	a := reg.Subscribe(5)
	b := reg.Subscribe(5)

	reg.Remove(5, a)
	assert.True(t, reg.Has(5))
	assert.Equal(t, 1, reg.Len(5))

	reg.Remove(5, b)
	assert.False(t, reg.Has(5))
	assert.Equal(t, 0, reg.Recipients())
	assert.Nil(t, reg.Subscriptions(5))
}

func TestRegistryRemoveIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	a := reg.Subscribe(9)
	b := reg.Subscribe(9)

	reg.Remove(9, a)
	reg.Remove(9, a)

	assert.Equal(t, 1, reg.Len(9))
	assert.Equal(t, []*Subscription{b}, reg.Subscriptions(9))
}

func TestRegistryRemoveUnknownIsNoop(t *testing.T) {
	reg := NewRegistry()
	a := reg.Subscribe(1)
	stray := newSubscription(1, 1)

	reg.Remove(2, a)
	reg.Remove(1, stray)

	assert.Equal(t, 1, reg.Len(1))
}

func TestRegistryCompletionRemovesSubscription(t *testing.T) {
	reg := NewRegistry()
	a := reg.Subscribe(3)
	b := reg.Subscribe(3)

	a.Complete()
	assert.Equal(t, []*Subscription{b}, reg.Subscriptions(3))

	b.Complete()
	b.Complete()
	assert.False(t, reg.Has(3))
	assert.ErrorIs(t, b.Err(), ErrCompleted)
}

func TestRegistryTimeoutRemovesSubscription(t *testing.T) {
	reg := NewRegistry(WithMaxLifetime(20 * time.Millisecond))
	sub := reg.Subscribe(4)

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not time out")
	}
	assert.ErrorIs(t, sub.Err(), ErrTimedOut)
	assert.Eventually(t, func() bool { return !reg.Has(4) }, time.Second, 5*time.Millisecond)
}

func TestRegistryNoExpiryByDefault(t *testing.T) {
	reg := NewRegistry()
	sub := reg.Subscribe(4)

	select {
	case <-sub.Done():
		t.Fatal("subscription closed without a lifetime configured")
	case <-time.After(30 * time.Millisecond):
	}
	assert.True(t, reg.Has(4))
}

func TestRegistrySingleShard(t *testing.T) {
	reg := NewRegistry(WithShards(1))
	for i := RecipientID(0); i < 10; i++ {
		reg.Subscribe(i)
	}
	assert.Equal(t, 10, reg.Recipients())
	assert.Equal(t, 10, reg.Total())
}

func TestRegistryEachVisitsSnapshot(t *testing.T) {
	reg := NewRegistry(WithShards(4))
	var want []*Subscription
	for i := RecipientID(1); i <= 6; i++ {
		want = append(want, reg.Subscribe(i), reg.Subscribe(i))
	}

	var got []*Subscription
	reg.Each(func(s *Subscription) {
		got = append(got, s)
		s.Complete()
	})

	assert.ElementsMatch(t, want, got)
	assert.Equal(t, 0, reg.Total())
}

func TestRegistryConcurrentSubscribeAndComplete(t *testing.T) {
	reg := NewRegistry(WithShards(8))
	const workers, perWorker = 16, 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			recipient := RecipientID(w % 4)
			for i := 0; i < perWorker; i++ {
				sub := reg.Subscribe(recipient)
				if i%2 == 0 {
					sub.Complete()
				}
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, workers*perWorker/2, reg.Total())
	assert.Equal(t, 4, reg.Recipients())

	reg.Each(func(s *Subscription) { s.Complete() })
	assert.Equal(t, 0, reg.Recipients())
}

func TestRegistrySpreadsSequentialRecipients(t *testing.T) {
	for _, tc := range []struct {
		shards, ids int
	}{
		{8, 64},
		{6, 60},
		{32, 320},
	} {
		reg := NewRegistry(WithShards(tc.shards))
		counts := make(map[*shard]int)
		for i := 1; i <= tc.ids; i++ {
			counts[reg.shardFor(RecipientID(i))]++
		}
		require.Len(t, counts, tc.shards, "every shard should receive recipients")
		want := tc.ids / tc.shards
		for _, n := range counts {
			assert.InDelta(t, want, n, float64(want)/2, "shards=%d", tc.shards)
		}
	}
}
