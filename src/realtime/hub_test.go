package realtime

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestPublishReachesOnlyTopicSubscribers(t *testing.T) {
	h := NewHub()
	ctx := context.Background()

	alice, cancelA := h.Subscribe(UserTopic("alice"))
	defer cancelA()
	bob, cancelB := h.Subscribe(UserTopic("bob"))
	defer cancelB()

	require.NoError(t, h.Publish(ctx, UserTopic("alice"), NewEvent(EventAffirmationsChanged, nil)))

	ev := receive(t, alice)
	assert.Equal(t, EventAffirmationsChanged, ev.Type)
	assert.False(t, ev.At.IsZero())
	assert.Empty(t, bob)
}

func TestSlowSubscriberDropsEvents(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("t")
	defer cancel()

	for i := 0; i < subscriberBuffer+5; i++ {
		require.NoError(t, h.Publish(context.Background(), "t", Event{Type: "x"}))
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestCancelClosesAndUnsubscribes(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("t")
	assert.Equal(t, 1, h.Subscribers("t"))

	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)
	assert.Zero(t, h.Subscribers("t"))
	assert.NoError(t, h.Publish(context.Background(), "t", Event{Type: "x"}))
}

func TestResetClosesEverySubscription(t *testing.T) {
	h := NewHub()
	a, cancelA := h.Subscribe("a")
	b, _ := h.Subscribe("b")

	h.Reset()
	_, okA := <-a
	_, okB := <-b
	assert.False(t, okA)
	assert.False(t, okB)
	cancelA()

	c, cancelC := h.Subscribe("a")
	defer cancelC()
	require.NoError(t, h.Publish(context.Background(), "a", Event{Type: "after"}))
	assert.Equal(t, "after", receive(t, c).Type)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	payload, err := encode(UserTopic("u1"), Event{Type: EventSessionEnded, At: time.Unix(0, 0).UTC()})
	require.NoError(t, err)

	topic, ev, err := decode(payload)
	require.NoError(t, err)
	assert.Equal(t, "user:u1", topic)
	assert.Equal(t, EventSessionEnded, ev.Type)

	_, _, err = decode(`{"topic":""}`)
	assert.Error(t, err)
	_, _, err = decode(`not json`)
	assert.Error(t, err)
}

// TestRedisHub_Integration requires a running Redis at REDIS_ADDR.
func TestRedisHub_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping Redis integration test: REDIS_ADDR not set")
	}

	local := NewHub()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	r := NewRedisHubWithClient(local, rdb, "lovepixel:test:"+time.Now().Format("150405.000000"))
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := r.Ping(ctx); err != nil {
		t.Skip("Skipping Redis integration test: redis not available")
	}
	go func() { _ = r.Run(ctx) }()

	ch, unsubscribe := local.Subscribe(UserTopic("u1"))
	defer unsubscribe()

	// The relay subscribes asynchronously; publish until it lands.
	deadline := time.After(3 * time.Second)
	for {
		require.NoError(t, r.Publish(ctx, UserTopic("u1"), NewEvent(EventConnectionsChanged, nil)))
		select {
		case ev := <-ch:
			assert.Equal(t, EventConnectionsChanged, ev.Type)
			return
		case <-time.After(100 * time.Millisecond):
		case <-deadline:
			t.Fatal("event never relayed")
		}
	}
}
