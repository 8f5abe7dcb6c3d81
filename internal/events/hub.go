// Package events is an in-process broadcast hub for channel activity.
// The message store publishes an event whenever a message lands in a
// channel log — foreground sends, deferred deliveries, and standup
// summaries alike — and the websocket endpoint streams them out.
package events

import (
	"sync"
	"time"
)

// Type of an event.
const (
	MessageCreated = "message.created"
)

// Event describes one message landing in a channel log.
type Event struct {
	Type      string    `json:"type"`
	ChannelID int64     `json:"channel_id"`
	MessageID int64     `json:"message_id"`
	AuthorID  int64     `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Hub fans events out to per-channel subscribers. Publish never blocks:
// a subscriber that cannot keep up loses events rather than stalling the
// store's callers.
type Hub struct {
	mu   sync.RWMutex
	subs map[int64]map[chan Event]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int64]map[chan Event]struct{})}
}

// Subscribe registers interest in one channel's events. The returned
// cancel function must be called when the subscriber goes away; after it
// returns, the event channel is closed.
func (h *Hub) Subscribe(channelID int64) (<-chan Event, func()) {
	ch := make(chan Event, 32)

	h.mu.Lock()
	if h.subs[channelID] == nil {
		h.subs[channelID] = make(map[chan Event]struct{})
	}
	h.subs[channelID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[channelID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
				if len(set) == 0 {
					delete(h.subs, channelID)
				}
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers ev to every subscriber of its channel. A nil hub is
// valid and does nothing, so components can treat the hub as optional.
func (h *Hub) Publish(ev Event) {
	if h == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[ev.ChannelID] {
		select {
		case ch <- ev:
		default:
			// subscriber is backed up; drop rather than block
		}
	}
}
