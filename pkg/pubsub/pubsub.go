// Package pubsub models notification fan-out as an explicit
// message-passing interface so callers never see transport details and
// the backing broker can be swapped.
package pubsub

import "context"

// Broker publishes payloads to named topics and hands out subscriptions.
type Broker interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(ctx context.Context, topic string) (Subscription, error)
	Close() error
}

// Subscription is one subscriber's view of a topic. Messages delivered
// after Close are discarded.
type Subscription interface {
	Messages() <-chan []byte
	Close() error
}
