// Package bus provides the in-process topic-keyed publish/subscribe router.
//
// Delivery is best-effort with no guarantees regarding durability, replay or
// retries: a payload published to a topic reaches the subscribers registered
// at that instant, and nobody else. The bus is not a message broker; the
// document store remains the source of truth for anything published here.
//
// A Bus is safe for concurrent use by multiple goroutines. It is meant to be
// constructed once by the hosting process and passed by reference to every
// component that publishes or subscribes.
package bus

import (
	"log/slog"
	"sync"
)

type Bus[T any] struct {
	log    *slog.Logger
	buffer int
	onDrop func()

	mu     sync.RWMutex
	topics map[string]map[*Subscription[T]]struct{}
}

// Subscription is a live registration on one topic. Events() yields payloads
// published after the Subscribe call; the channel is closed on Unsubscribe.
type Subscription[T any] struct {
	topic string
	ch    chan T
	once  sync.Once
}

func (s *Subscription[T]) Topic() string { return s.topic }

func (s *Subscription[T]) Events() <-chan T { return s.ch }

func (s *Subscription[T]) close() {
	s.once.Do(func() { close(s.ch) })
}

// New creates a bus whose subscribers each get a buffer of the given size.
// A subscriber that falls more than buffer events behind starts losing them.
func New[T any](log *slog.Logger, buffer int) *Bus[T] {
	if buffer < 1 {
		buffer = 1
	}
	return &Bus[T]{
		log:    log,
		buffer: buffer,
		topics: make(map[string]map[*Subscription[T]]struct{}),
	}
}

// OnDrop registers a callback invoked once per event lost to a full
// subscriber buffer. Set it before the bus is in use; it is not guarded.
func (b *Bus[T]) OnDrop(fn func()) { b.onDrop = fn }

// Subscribe opens a fresh sequence of future payloads on the topic, starting
// from now. History is never replayed.
func (b *Bus[T]) Subscribe(topic string) *Subscription[T] {
	sub := &Subscription[T]{topic: topic, ch: make(chan T, b.buffer)}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.topics[topic]; !ok {
		b.topics[topic] = make(map[*Subscription[T]]struct{})
	}
	b.topics[topic][sub] = struct{}{}
	return sub
}

// Unsubscribe removes the registration and closes its event channel.
// Idempotent; a nil subscription is a no-op.
func (b *Bus[T]) Unsubscribe(sub *Subscription[T]) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	subs, ok := b.topics[sub.topic]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	// No empty sets left behind, the topic map must not grow forever.
	if len(subs) == 0 {
		delete(b.topics, sub.topic)
	}
	// Closing under the same lock that guards Publish: no send can race
	// with the close.
	sub.close()
}

// Publish hands the payload to every current subscriber of the topic.
// A topic with zero listeners simply discards it. The send never blocks: a
// subscriber whose buffer is full loses this event.
func (b *Bus[T]) Publish(topic string, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.topics[topic] {
		select {
		case sub.ch <- payload:
		default:
			b.log.Debug("event dropped, subscriber buffer full", "topic", topic)
			if b.onDrop != nil {
				b.onDrop()
			}
		}
	}
}

// Subscribers reports the number of live registrations on a topic.
func (b *Bus[T]) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}
