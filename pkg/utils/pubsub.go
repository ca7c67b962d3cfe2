package utils

import (
	"github.com/sasha-s/go-deadlock"
)

// Topic fans values out to every subscriber. A subscriber whose buffer is
// full misses the value rather than stalling the publisher.
type Topic[T any] struct {
	subscribers map[chan T]struct{}
	buffer      int
	mutex       deadlock.Mutex
}

func NewTopic[T any](buffer int) *Topic[T] {
	return &Topic[T]{
		subscribers: make(map[chan T]struct{}),
		buffer:      buffer,
	}
}

// Publish returns the number of subscribers that received the value.
func (t *Topic[T]) Publish(value T) int {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	delivered := 0
	for subscriber := range t.subscribers {
		select {
		case subscriber <- value:
			delivered++
		default:
		}
	}
	return delivered
}

func (t *Topic[T]) Len() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return len(t.subscribers)
}

type Subscriber[T any] struct {
	channel chan T
	topic   *Topic[T]
}

func (t *Topic[T]) Subscribe() *Subscriber[T] {
	channel := make(chan T, t.buffer)
	t.mutex.Lock()
	t.subscribers[channel] = struct{}{}
	t.mutex.Unlock()

	return &Subscriber[T]{channel, t}
}

func (t *Subscriber[T]) Recv() <-chan T {
	return t.channel
}

func (t *Subscriber[T]) Done() {
	topic := t.topic
	topic.mutex.Lock()
	delete(topic.subscribers, t.channel)
	topic.mutex.Unlock()
}
