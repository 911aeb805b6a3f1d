package sse

import (
	"sync"
)

// TopicAll receives every published event regardless of its target topics.
const TopicAll = "all"

const defaultBuffer = 16

// Event is a named payload delivered to stream subscribers.
type Event struct {
	Name string
	Data interface{}
}

// Hub fans events out to subscribers grouped by topic. Slow subscribers drop
// events instead of blocking publishers.
type Hub struct {
	mu          sync.RWMutex
	buffer      int
	subscribers map[string]map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{
		buffer:      defaultBuffer,
		subscribers: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe registers a subscriber on topic. The returned cancel func must be
// called exactly once; it closes the channel.
func (h *Hub) Subscribe(topic string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, h.buffer)
	if h.subscribers[topic] == nil {
		h.subscribers[topic] = make(map[chan Event]struct{})
	}
	h.subscribers[topic][ch] = struct{}{}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			// Close may already have closed the channel.
			if _, ok := h.subscribers[topic][ch]; !ok {
				return
			}
			delete(h.subscribers[topic], ch)
			close(ch)
			if len(h.subscribers[topic]) == 0 {
				delete(h.subscribers, topic)
			}
		})
	}

	return ch, cancel
}

// Publish delivers event to the subscribers of each topic and of TopicAll.
// A subscriber listening on several matching topics still receives it once.
func (h *Hub) Publish(event Event, topics ...string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := make(map[chan Event]struct{})
	for _, topic := range append(topics, TopicAll) {
		for ch := range h.subscribers[topic] {
			if _, done := delivered[ch]; done {
				continue
			}
			delivered[ch] = struct{}{}
			select {
			case ch <- event:
			default:
			}
		}
	}
}

// SubscriberCount returns the number of active subscribers on topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[topic])
}

// Close ends every subscription by closing its channel. Subscribing after
// Close is allowed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for topic, subs := range h.subscribers {
		for ch := range subs {
			close(ch)
		}
		delete(h.subscribers, topic)
	}
}
