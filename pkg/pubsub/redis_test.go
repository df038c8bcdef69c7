package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisBroker(t *testing.T) *RedisBroker {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisBroker(client)
}

func TestRedisBroker_PublishSubscribe(t *testing.T) {
	broker := newTestRedisBroker(t)
	defer broker.Close()
	ctx := context.Background()

	sub, err := broker.Subscribe(ctx, "shipments")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, broker.Publish(ctx, "shipments", []byte("delayed")))
	assert.Equal(t, []byte("delayed"), receiveWithin(t, sub, 2*time.Second))
}

func TestRedisBroker_TopicsAreIsolated(t *testing.T) {
	broker := newTestRedisBroker(t)
	defer broker.Close()
	ctx := context.Background()

	shipments, err := broker.Subscribe(ctx, "shipments")
	require.NoError(t, err)
	defer shipments.Close()

	require.NoError(t, broker.Publish(ctx, "drivers", []byte("offline")))

	select {
	case msg := <-shipments.Messages():
		t.Fatalf("unexpected message on shipments topic: %s", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRedisBroker_SlowSubscriberDoesNotStrandPump(t *testing.T) {
	broker := newTestRedisBroker(t)
	defer broker.Close()
	ctx := context.Background()

	sub, err := broker.Subscribe(ctx, "shipments")
	require.NoError(t, err)

	// Overflow the subscriber buffer without reading a single message.
	for i := 0; i < subscriberBuffer*2; i++ {
		require.NoError(t, broker.Publish(ctx, "shipments", []byte("update")))
	}

	// Close must still end the pump even with undelivered messages; a
	// pump blocked on a full channel would never close it.
	require.NoError(t, sub.Close())

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-sub.Messages():
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("subscription channel not closed after Close")
		}
	}
}

func TestRedisBroker_SubscriptionCloseStopsDelivery(t *testing.T) {
	broker := newTestRedisBroker(t)
	defer broker.Close()
	ctx := context.Background()

	sub, err := broker.Subscribe(ctx, "shipments")
	require.NoError(t, err)
	require.NoError(t, sub.Close())

	// The pump goroutine closes the channel once the subscription ends.
	select {
	case _, open := <-sub.Messages():
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription channel not closed")
	}
}
