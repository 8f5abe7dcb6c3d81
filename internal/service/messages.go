package service

import (
	"strings"

	"go.uber.org/zap"

	"github.com/tessera-chat/tessera/internal/errs"
	"github.com/tessera-chat/tessera/internal/events"
	"github.com/tessera-chat/tessera/internal/models"
	"github.com/tessera-chat/tessera/internal/scheduler"
	"github.com/tessera-chat/tessera/internal/store"
)

const (
	maxMessageLen = 1000
	pageSize      = 50
)

// reactionKinds in a fixed order so views are deterministic.
var reactionKinds = []models.ReactionKind{
	models.ReactThumbsUp,
	models.ReactHeart,
	models.ReactLaugh,
}

// Messages owns the per-channel message logs: send, edit, remove, pin,
// react, search, and the paginated retrieval algorithm.
type Messages struct {
	store  *store.Store
	hub    *events.Hub
	clock  scheduler.Clock
	logger *zap.Logger
}

// NewMessages wires the message store. hub may be nil when no live
// streaming is wanted.
func NewMessages(st *store.Store, hub *events.Hub, clock scheduler.Clock, logger *zap.Logger) *Messages {
	return &Messages{store: st, hub: hub, clock: clock, logger: logger}
}

// ReactionView is one reaction bucket as seen by a specific caller.
// ActorReacted is computed fresh on every read, never stored.
type ReactionView struct {
	Kind         models.ReactionKind `json:"kind"`
	UserIDs      []int64             `json:"user_ids"`
	ActorReacted bool                `json:"actor_reacted"`
}

// MessageView is a message as seen by a specific caller.
type MessageView struct {
	ID        int64          `json:"id"`
	AuthorID  int64          `json:"author_id"`
	Body      string         `json:"body"`
	CreatedAt int64          `json:"created_at"`
	Pinned    bool           `json:"pinned"`
	Reactions []ReactionView `json:"reactions"`
}

// Page is one retrieval window, newest first. End is -1 when no further
// pages exist, otherwise the start offset of the next page.
type Page struct {
	Messages []MessageView `json:"messages"`
	Start    int64         `json:"start"`
	End      int64         `json:"end"`
}

func viewOf(m *models.Message, actorID int64) MessageView {
	v := MessageView{
		ID:        m.ID,
		AuthorID:  m.AuthorID,
		Body:      m.Body,
		CreatedAt: m.CreatedAt.Unix(),
		Pinned:    m.Pinned,
		Reactions: make([]ReactionView, 0, len(m.Reactions)),
	}
	for _, kind := range reactionKinds {
		ids, ok := m.Reactions[kind]
		if !ok {
			continue
		}
		v.Reactions = append(v.Reactions, ReactionView{
			Kind:         kind,
			UserIDs:      append([]int64(nil), ids...),
			ActorReacted: m.HasReacted(kind, actorID),
		})
	}
	return v
}

// Send appends a message to the channel log and returns its id. Ids are
// globally unique and monotonic across all channels.
func (s *Messages) Send(actorID, channelID int64, body string) (int64, error) {
	if err := validateBody(body); err != nil {
		return 0, err
	}

	s.store.Lock()
	c := s.store.ChannelByID(channelID)
	if c == nil {
		s.store.Unlock()
		return 0, errs.Validationf("channel does not exist")
	}
	if !c.IsMember(actorID) {
		s.store.Unlock()
		return 0, errs.Authorizationf("not a member of the channel")
	}

	m := &models.Message{
		ID:        s.store.AllocMessageID(),
		AuthorID:  actorID,
		Body:      body,
		CreatedAt: s.clock.Now().UTC(),
	}
	c.Messages = append(c.Messages, m)
	c.MessageCount++
	ev := events.Event{
		Type:      events.MessageCreated,
		ChannelID: channelID,
		MessageID: m.ID,
		AuthorID:  actorID,
		Body:      body,
		CreatedAt: m.CreatedAt,
	}
	s.store.Unlock()

	s.hub.Publish(ev)
	return m.ID, nil
}

// Retrieve returns up to one page of messages, newest first, starting
// `start` messages back from the newest.
//
// The anchor is computed from the monotonic message count, not the number
// of surviving messages: removal tombstones a log slot without shifting
// the others, so page boundaries stay stable while messages disappear.
func (s *Messages) Retrieve(actorID, channelID, start int64) (*Page, error) {
	s.store.RLock()
	defer s.store.RUnlock()

	c := s.store.ChannelByID(channelID)
	if c == nil {
		return nil, errs.Validationf("channel does not exist")
	}
	if !c.IsMember(actorID) && c.Visibility != models.Public {
		return nil, errs.Authorizationf("not a member of the channel")
	}
	total := c.MessageCount
	if start < 0 || start >= total {
		return nil, errs.Validationf("start is beyond the message count")
	}

	anchor := total - start - 1
	lo := anchor - (pageSize - 1)
	if lo < 0 {
		lo = 0
	}
	page := &Page{
		Messages: make([]MessageView, 0, pageSize),
		Start:    start,
		End:      -1,
	}
	for i := anchor; i >= lo; i-- {
		m := c.Messages[i]
		if m.Removed {
			continue
		}
		page.Messages = append(page.Messages, viewOf(m, actorID))
	}
	// More than one page remains beyond this window.
	if anchor > pageSize-1 {
		page.End = start + pageSize
	}
	return page, nil
}

// Edit replaces a message body. No-op edits are rejected; an edit to the
// empty body removes the message instead.
func (s *Messages) Edit(actorID, messageID int64, newBody string) error {
	if len(newBody) > maxMessageLen {
		return errs.Validationf("message exceeds %d characters", maxMessageLen)
	}

	s.store.Lock()
	defer s.store.Unlock()

	c, m := s.store.FindMessage(messageID)
	if m == nil || m.Removed {
		return errs.Validationf("message does not exist")
	}
	if m.Body == newBody {
		return errs.Validationf("message is unchanged")
	}
	if !canModerateMessage(s.store, actorID, m, c.ID) {
		return errs.Authorizationf("no permission to edit this message")
	}

	if newBody == "" {
		m.Removed = true
		return nil
	}
	m.Body = newBody
	return nil
}

// Remove tombstones a message. The slot stays in the log and the channel's
// message count is untouched — pagination math is anchored on it.
func (s *Messages) Remove(actorID, messageID int64) error {
	s.store.Lock()
	defer s.store.Unlock()

	c, m := s.store.FindMessage(messageID)
	if m == nil || m.Removed {
		return errs.Validationf("message does not exist")
	}
	if !canModerateMessage(s.store, actorID, m, c.ID) {
		return errs.Authorizationf("no permission to remove this message")
	}

	m.Removed = true
	return nil
}

// Pin marks a message. Unlike edit/remove there is no author bypass:
// pinning takes channel-owner or global-admin tier.
func (s *Messages) Pin(actorID, messageID int64) error {
	return s.setPinned(actorID, messageID, true)
}

// Unpin clears the mark, under the same rules as Pin.
func (s *Messages) Unpin(actorID, messageID int64) error {
	return s.setPinned(actorID, messageID, false)
}

func (s *Messages) setPinned(actorID, messageID int64, pinned bool) error {
	s.store.Lock()
	defer s.store.Unlock()

	c, m := s.store.FindMessage(messageID)
	if m == nil || m.Removed {
		return errs.Validationf("message does not exist")
	}
	if !c.IsMember(actorID) {
		return errs.Authorizationf("not a member of the channel")
	}
	if !isChannelOwner(s.store, actorID, c.ID) && !isGlobalAdmin(s.store, actorID) {
		return errs.Authorizationf("channel owner or admin tier required")
	}
	if m.Pinned == pinned {
		if pinned {
			return errs.Validationf("message is already pinned")
		}
		return errs.Validationf("message is not pinned")
	}

	m.Pinned = pinned
	return nil
}

// React adds the actor to a kind bucket on the message.
func (s *Messages) React(actorID, messageID int64, kind models.ReactionKind) error {
	if !kind.Valid() {
		return errs.Validationf("unknown reaction kind %q", kind)
	}

	s.store.Lock()
	defer s.store.Unlock()

	c, m := s.store.FindMessage(messageID)
	if m == nil || m.Removed {
		return errs.Validationf("message does not exist")
	}
	if !c.IsMember(actorID) {
		return errs.Authorizationf("not a member of the channel")
	}
	if m.HasReacted(kind, actorID) {
		return errs.Validationf("already reacted with %q", kind)
	}

	if m.Reactions == nil {
		m.Reactions = make(map[models.ReactionKind][]int64)
	}
	m.Reactions[kind] = append(m.Reactions[kind], actorID)
	return nil
}

// Unreact removes the actor from a kind bucket, pruning the bucket when
// the last reactor leaves.
func (s *Messages) Unreact(actorID, messageID int64, kind models.ReactionKind) error {
	if !kind.Valid() {
		return errs.Validationf("unknown reaction kind %q", kind)
	}

	s.store.Lock()
	defer s.store.Unlock()

	c, m := s.store.FindMessage(messageID)
	if m == nil || m.Removed {
		return errs.Validationf("message does not exist")
	}
	if !c.IsMember(actorID) {
		return errs.Authorizationf("not a member of the channel")
	}
	if !m.HasReacted(kind, actorID) {
		return errs.Validationf("have not reacted with %q", kind)
	}

	m.Reactions[kind] = removeID(m.Reactions[kind], actorID)
	if len(m.Reactions[kind]) == 0 {
		delete(m.Reactions, kind)
	}
	return nil
}

// Search scans every channel the actor belongs to and returns the
// surviving messages whose body contains query as a case-sensitive
// substring. No ranking; channel order then log order.
func (s *Messages) Search(actorID int64, query string) ([]MessageView, error) {
	s.store.RLock()
	defer s.store.RUnlock()

	actor := s.store.UserByID(actorID)
	if actor == nil {
		return nil, errs.Validationf("user does not exist")
	}

	matches := make([]MessageView, 0)
	for _, channelID := range actor.ChannelIDs {
		c := s.store.ChannelByID(channelID)
		if c == nil {
			continue
		}
		for _, m := range c.Messages {
			if m.Removed {
				continue
			}
			if strings.Contains(m.Body, query) {
				matches = append(matches, viewOf(m, actorID))
			}
		}
	}
	return matches, nil
}

func validateBody(body string) error {
	if body == "" {
		return errs.Validationf("message must not be empty")
	}
	if len(body) > maxMessageLen {
		return errs.Validationf("message exceeds %d characters", maxMessageLen)
	}
	return nil
}
