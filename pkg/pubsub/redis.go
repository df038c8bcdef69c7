package pubsub

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisBroker backs the Broker interface with Redis Pub/Sub.
type RedisBroker struct {
	client *redis.Client
}

// NewRedisBroker creates a broker over an existing Redis client.
func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

// Publish sends the payload to the Redis channel named by topic.
func (b *RedisBroker) Publish(ctx context.Context, topic string, payload []byte) error {
	return b.client.Publish(ctx, topic, payload).Err()
}

// Subscribe opens a Redis subscription and adapts it to the Subscription
// interface.
func (b *RedisBroker) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	ps := b.client.Subscribe(ctx, topic)

	// Force the subscription handshake so errors surface here instead of
	// on the first receive.
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, err
	}

	sub := &redisSubscription{
		ps: ps,
		ch: make(chan []byte, subscriberBuffer),
	}
	go sub.pump()
	return sub, nil
}

// Close closes the underlying Redis client.
func (b *RedisBroker) Close() error {
	return b.client.Close()
}

type redisSubscription struct {
	ps *redis.PubSub
	ch chan []byte
}

func (s *redisSubscription) pump() {
	defer close(s.ch)
	for msg := range s.ps.Channel() {
		select {
		case s.ch <- []byte(msg.Payload):
		default:
			// Slow subscriber: drop rather than block the pump, so Close
			// can always end it.
		}
	}
}

func (s *redisSubscription) Messages() <-chan []byte {
	return s.ch
}

func (s *redisSubscription) Close() error {
	return s.ps.Close()
}
