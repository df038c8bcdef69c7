package pubsub

import (
	"context"
	"fmt"
	"sync"
)

// subscriberBuffer bounds each subscriber's channel; slow consumers drop
// messages rather than blocking publishers.
const subscriberBuffer = 64

// MemoryBroker is an in-process Broker used in development and tests.
type MemoryBroker struct {
	mu     sync.RWMutex
	topics map[string]map[*memorySubscription]struct{}
	closed bool
}

// NewMemoryBroker creates an in-memory broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		topics: make(map[string]map[*memorySubscription]struct{}),
	}
}

// Publish delivers the payload to every current subscriber of the topic.
func (b *MemoryBroker) Publish(_ context.Context, topic string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("broker is closed")
	}

	for sub := range b.topics[topic] {
		select {
		case sub.ch <- payload:
		default:
			// Slow subscriber: drop rather than block the publisher.
		}
	}
	return nil
}

// Subscribe registers a new subscriber on the topic.
func (b *MemoryBroker) Subscribe(_ context.Context, topic string) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("broker is closed")
	}

	sub := &memorySubscription{
		broker: b,
		topic:  topic,
		ch:     make(chan []byte, subscriberBuffer),
	}
	if b.topics[topic] == nil {
		b.topics[topic] = make(map[*memorySubscription]struct{})
	}
	b.topics[topic][sub] = struct{}{}
	return sub, nil
}

// Close shuts the broker down and closes every subscription.
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for _, subs := range b.topics {
		for sub := range subs {
			close(sub.ch)
		}
	}
	b.topics = nil
	return nil
}

type memorySubscription struct {
	broker    *MemoryBroker
	topic     string
	ch        chan []byte
	closeOnce sync.Once
}

func (s *memorySubscription) Messages() <-chan []byte {
	return s.ch
}

func (s *memorySubscription) Close() error {
	s.closeOnce.Do(func() {
		s.broker.mu.Lock()
		defer s.broker.mu.Unlock()

		if s.broker.closed {
			return
		}
		if subs, ok := s.broker.topics[s.topic]; ok {
			delete(subs, s)
			if len(subs) == 0 {
				delete(s.broker.topics, s.topic)
			}
		}
		close(s.ch)
	})
	return nil
}
