// Package realtime fans change events out to the clients of each user.
package realtime

import (
	"context"
	"sync"
	"time"
)

// Event types published by the services.
const (
	EventInvitationsChanged   = "invitations.changed"
	EventConnectionsChanged   = "connections.changed"
	EventAffirmationsChanged  = "affirmations.changed"
	EventNotificationsChanged = "notifications.changed"
	EventSessionEnded         = "session.ended"
)

// subscriberBuffer is how many undelivered events a subscriber may lag behind
// before new events are dropped for it.
const subscriberBuffer = 16

type Event struct {
	Type    string    `json:"type"`
	Payload any       `json:"payload,omitempty"`
	At      time.Time `json:"at"`
}

func NewEvent(eventType string, payload any) Event {
	return Event{Type: eventType, Payload: payload, At: time.Now().UTC()}
}

// Publisher is what services need to announce changes.
type Publisher interface {
	Publish(ctx context.Context, topic string, ev Event) error
}

// UserTopic is the topic every event concerning userID is published on.
func UserTopic(userID string) string {
	return "user:" + userID
}

type subscription struct {
	ch   chan Event
	once sync.Once
}

func (s *subscription) close() {
	s.once.Do(func() { close(s.ch) })
}

// Hub is an in-process publish/subscribe store. It is created by main and
// Reset on shutdown, which closes every open subscription.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*subscription]struct{}
}

var _ Publisher = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*subscription]struct{})}
}

// Subscribe returns a channel receiving the events published on topic and a
// cancel func that unsubscribes and closes the channel.
func (h *Hub) Subscribe(topic string) (<-chan Event, func()) {
	sub := &subscription{ch: make(chan Event, subscriberBuffer)}

	h.mu.Lock()
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[*subscription]struct{})
	}
	h.subs[topic][sub] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[topic]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(h.subs, topic)
			}
		}
		h.mu.Unlock()
		sub.close()
	}
	return sub.ch, cancel
}

// Publish delivers ev to every subscriber of topic without blocking. A
// subscriber whose buffer is full misses the event.
func (h *Hub) Publish(_ context.Context, topic string, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[topic] {
		select {
		case sub.ch <- ev:
		default:
		}
	}
	return nil
}

// Subscribers returns the number of open subscriptions on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}

// Reset closes every subscription. The hub stays usable afterwards.
func (h *Hub) Reset() {
	h.mu.Lock()
	old := h.subs
	h.subs = make(map[string]map[*subscription]struct{})
	h.mu.Unlock()

	for _, set := range old {
		for sub := range set {
			sub.close()
		}
	}
}
