package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/tessera-chat/tessera/internal/errs"
	"github.com/tessera-chat/tessera/internal/events"
	"github.com/tessera-chat/tessera/internal/models"
	"github.com/tessera-chat/tessera/internal/scheduler"
	"github.com/tessera-chat/tessera/internal/store"
)

// Deferred queues send-later messages and promotes them into channel logs
// once due. An entry's lifecycle is Queued -> Delivered; there is no
// failure or retry state, and no cancellation once enqueued.
type Deferred struct {
	store  *store.Store
	hub    *events.Hub
	clock  scheduler.Clock
	logger *zap.Logger
}

// NewDeferred wires the deferred-delivery service.
func NewDeferred(st *store.Store, hub *events.Hub, clock scheduler.Clock, logger *zap.Logger) *Deferred {
	return &Deferred{store: st, hub: hub, clock: clock, logger: logger}
}

// Enqueue queues a message for delivery at dueAt, which must be strictly
// in the future. The returned message id is reserved now, so callers can
// reference the message before it is delivered.
func (s *Deferred) Enqueue(actorID, channelID int64, body string, dueAt time.Time) (int64, error) {
	if err := validateBody(body); err != nil {
		return 0, err
	}
	if !dueAt.After(s.clock.Now()) {
		return 0, errs.Validationf("due time is not in the future")
	}

	s.store.Lock()
	defer s.store.Unlock()

	c := s.store.ChannelByID(channelID)
	if c == nil {
		return 0, errs.Validationf("channel does not exist")
	}
	if !c.IsMember(actorID) {
		return 0, errs.Authorizationf("not a member of the channel")
	}

	d := &models.DeferredMessage{
		ID:        s.store.AllocMessageID(),
		ChannelID: channelID,
		AuthorID:  actorID,
		Body:      body,
		DueAt:     dueAt.UTC(),
	}
	s.store.AddDeferred(d)
	return d.ID, nil
}

// Pending returns a copy of the queue, in enqueue order.
func (s *Deferred) Pending() []models.DeferredMessage {
	s.store.RLock()
	defer s.store.RUnlock()
	out := make([]models.DeferredMessage, 0, len(s.store.Deferred()))
	for _, d := range s.store.Deferred() {
		out = append(out, *d)
	}
	return out
}

// PromoteDue delivers every queued entry with dueAt <= now into its
// channel log under the id reserved at enqueue time. A malformed entry —
// its channel is gone — is logged and dropped, never retried and never
// allowed to break the tick. Returns the number delivered.
func (s *Deferred) PromoteDue(now time.Time) int {
	s.store.Lock()

	delivered := 0
	var evs []events.Event
	remaining := make([]*models.DeferredMessage, 0, len(s.store.Deferred()))
	for _, d := range s.store.Deferred() {
		if d.DueAt.After(now) {
			remaining = append(remaining, d)
			continue
		}
		c := s.store.ChannelByID(d.ChannelID)
		if c == nil {
			s.logger.Warn("dropping deferred message for unknown channel",
				zap.Int64("message_id", d.ID),
				zap.Int64("channel_id", d.ChannelID),
			)
			continue
		}
		m := &models.Message{
			ID:        d.ID,
			AuthorID:  d.AuthorID,
			Body:      d.Body,
			CreatedAt: d.DueAt,
		}
		c.Messages = append(c.Messages, m)
		c.MessageCount++
		delivered++
		evs = append(evs, events.Event{
			Type:      events.MessageCreated,
			ChannelID: c.ID,
			MessageID: m.ID,
			AuthorID:  m.AuthorID,
			Body:      m.Body,
			CreatedAt: m.CreatedAt,
		})
	}
	s.store.SetDeferred(remaining)
	s.store.Unlock()

	for _, ev := range evs {
		s.hub.Publish(ev)
	}
	if delivered > 0 {
		s.logger.Info("deferred messages delivered", zap.Int("count", delivered))
	}
	return delivered
}
