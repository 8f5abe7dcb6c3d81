package service

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tessera-chat/tessera/internal/errs"
	"github.com/tessera-chat/tessera/internal/events"
	"github.com/tessera-chat/tessera/internal/models"
	"github.com/tessera-chat/tessera/internal/scheduler"
	"github.com/tessera-chat/tessera/internal/store"
)

// Standups runs the time-boxed line buffers: Idle -> Active while lines
// accumulate -> finalized into one aggregate message when the window
// closes. At most one standup is active per channel.
type Standups struct {
	store  *store.Store
	hub    *events.Hub
	clock  scheduler.Clock
	logger *zap.Logger
}

// NewStandups wires the standup aggregator.
func NewStandups(st *store.Store, hub *events.Hub, clock scheduler.Clock, logger *zap.Logger) *Standups {
	return &Standups{store: st, hub: hub, clock: clock, logger: logger}
}

// Start opens a standup window on the channel and returns when it closes.
func (s *Standups) Start(actorID, channelID int64, duration time.Duration) (time.Time, error) {
	if duration <= 0 {
		return time.Time{}, errs.Validationf("standup duration must be positive")
	}

	s.store.Lock()
	defer s.store.Unlock()

	c := s.store.ChannelByID(channelID)
	if c == nil {
		return time.Time{}, errs.Validationf("channel does not exist")
	}
	if s.store.Standup(channelID) != nil {
		return time.Time{}, errs.Validationf("a standup is already running in this channel")
	}
	if !c.IsMember(actorID) {
		return time.Time{}, errs.Authorizationf("not a member of the channel")
	}

	dueAt := s.clock.Now().Add(duration).UTC()
	s.store.SetStandup(&models.Standup{
		ChannelID:   channelID,
		InitiatorID: actorID,
		DueAt:       dueAt,
	})
	return dueAt, nil
}

// Send buffers one line into the channel's active standup. The line is
// not a message yet; it becomes part of the aggregate at finalization.
func (s *Standups) Send(actorID, channelID int64, body string) error {
	if len(body) > maxMessageLen {
		return errs.Validationf("message exceeds %d characters", maxMessageLen)
	}

	s.store.Lock()
	defer s.store.Unlock()

	c := s.store.ChannelByID(channelID)
	if c == nil {
		return errs.Validationf("channel does not exist")
	}
	su := s.store.Standup(channelID)
	if su == nil {
		return errs.Validationf("channel does not have an active standup")
	}
	if !c.IsMember(actorID) {
		return errs.Authorizationf("not a member of the channel")
	}
	actor := s.store.UserByID(actorID)
	if actor == nil {
		return errs.Validationf("user does not exist")
	}

	su.Lines = append(su.Lines, models.StandupLine{
		AuthorName: actor.DisplayName(),
		Body:       body,
	})
	return nil
}

// Active returns the close time of the channel's standup, or nil when
// none is running.
func (s *Standups) Active(channelID int64) (*time.Time, error) {
	s.store.RLock()
	defer s.store.RUnlock()

	if s.store.ChannelByID(channelID) == nil {
		return nil, errs.Validationf("channel does not exist")
	}
	su := s.store.Standup(channelID)
	if su == nil {
		return nil, nil
	}
	dueAt := su.DueAt
	return &dueAt, nil
}

// FinalizeDue closes every standup with dueAt <= now: the buffered lines
// are joined as "name: body\n" per line into one message authored by the
// initiator, and the standup entity is removed. A standup whose channel
// is gone, or that gathered no lines, is removed without posting.
// Returns the number of standups closed.
func (s *Standups) FinalizeDue(now time.Time) int {
	s.store.Lock()

	closed := 0
	var evs []events.Event
	for _, su := range s.store.Standups() {
		if su.DueAt.After(now) {
			continue
		}
		s.store.RemoveStandup(su.ChannelID)
		closed++

		c := s.store.ChannelByID(su.ChannelID)
		if c == nil {
			s.logger.Warn("dropping standup for unknown channel",
				zap.Int64("channel_id", su.ChannelID),
			)
			continue
		}
		if len(su.Lines) == 0 {
			continue
		}

		var b strings.Builder
		for _, line := range su.Lines {
			b.WriteString(line.AuthorName)
			b.WriteString(": ")
			b.WriteString(line.Body)
			b.WriteString("\n")
		}
		m := &models.Message{
			ID:        s.store.AllocMessageID(),
			AuthorID:  su.InitiatorID,
			Body:      b.String(),
			CreatedAt: now.UTC(),
		}
		c.Messages = append(c.Messages, m)
		c.MessageCount++
		evs = append(evs, events.Event{
			Type:      events.MessageCreated,
			ChannelID: c.ID,
			MessageID: m.ID,
			AuthorID:  m.AuthorID,
			Body:      m.Body,
			CreatedAt: m.CreatedAt,
		})
	}
	s.store.Unlock()

	for _, ev := range evs {
		s.hub.Publish(ev)
	}
	if closed > 0 {
		s.logger.Info("standups finalized", zap.Int("count", closed))
	}
	return closed
}
