// Package store holds every core entity behind one exclusive-write lock.
//
// The pagination math, id assignment, and membership symmetry are only
// correct under serialized mutation, so every writer — foreground request
// or background scheduler — takes the write lock, and readers take the
// read lock. The store is passed explicitly to every component; there are
// no package-level globals.
package store

import (
	"sync"
	"time"

	"github.com/tessera-chat/tessera/internal/models"
)

// Store is the single authoritative in-process state.
//
// All accessors below assume the caller already holds the appropriate
// lock; services lock once around a whole operation so multi-step checks
// stay atomic. Snapshot and Restore are the exceptions — they manage
// their own locking.
type Store struct {
	sync.RWMutex

	users    []*models.User    // index == user id
	channels []*models.Channel // index == channel id
	deferred []*models.DeferredMessage
	standups map[int64]*models.Standup // keyed by channel id

	nextMessageID int64
	creatorID     int64 // first-ever registered user, -1 until one exists
}

// New returns an empty store.
func New() *Store {
	return &Store{
		standups:  make(map[int64]*models.Standup),
		creatorID: -1,
	}
}

// ---------------------------------------------------------------
// Users
// ---------------------------------------------------------------

// UserByID returns the user or nil. Ids are dense, so this is an index.
func (s *Store) UserByID(id int64) *models.User {
	if id < 0 || id >= int64(len(s.users)) {
		return nil
	}
	return s.users[id]
}

// UserByEmail returns the user with the given email, or nil.
func (s *Store) UserByEmail(email string) *models.User {
	for _, u := range s.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

// HandleTaken reports whether any user already holds the handle.
func (s *Store) HandleTaken(handle string) bool {
	for _, u := range s.users {
		if u.Handle == handle {
			return true
		}
	}
	return false
}

// Users returns the backing user slice. Callers must not reorder it.
func (s *Store) Users() []*models.User { return s.users }

// AddUser assigns the next dense user id, records the first user as the
// protected creator, and returns the id.
func (s *Store) AddUser(u *models.User) int64 {
	u.ID = int64(len(s.users))
	if s.creatorID < 0 {
		s.creatorID = u.ID
	}
	s.users = append(s.users, u)
	return u.ID
}

// CreatorID is the id of the first-ever registered user, or -1.
func (s *Store) CreatorID() int64 { return s.creatorID }

// ---------------------------------------------------------------
// Channels
// ---------------------------------------------------------------

// ChannelByID returns the channel or nil.
func (s *Store) ChannelByID(id int64) *models.Channel {
	if id < 0 || id >= int64(len(s.channels)) {
		return nil
	}
	return s.channels[id]
}

// Channels returns the backing channel slice. Callers must not reorder it.
func (s *Store) Channels() []*models.Channel { return s.channels }

// AddChannel assigns the next dense channel id and returns it.
func (s *Store) AddChannel(c *models.Channel) int64 {
	c.ID = int64(len(s.channels))
	s.channels = append(s.channels, c)
	return c.ID
}

// ---------------------------------------------------------------
// Messages
// ---------------------------------------------------------------

// AllocMessageID reserves the next globally unique message id. Ids are
// monotonic across all channels and never reused, including ids reserved
// for deferred messages that have not been delivered yet.
func (s *Store) AllocMessageID() int64 {
	id := s.nextMessageID
	s.nextMessageID++
	return id
}

// FindMessage locates a message by id across every channel log, returning
// its channel and the message. Tombstoned slots are still returned; the
// caller decides whether Removed counts as found.
func (s *Store) FindMessage(id int64) (*models.Channel, *models.Message) {
	for _, c := range s.channels {
		for _, m := range c.Messages {
			if m.ID == id {
				return c, m
			}
		}
	}
	return nil, nil
}

// ---------------------------------------------------------------
// Deferred messages
// ---------------------------------------------------------------

// Deferred returns the queued send-later entries in enqueue order.
func (s *Store) Deferred() []*models.DeferredMessage { return s.deferred }

// AddDeferred queues a send-later entry.
func (s *Store) AddDeferred(d *models.DeferredMessage) {
	s.deferred = append(s.deferred, d)
}

// SetDeferred replaces the queue; the scheduler uses it to drop promoted
// and malformed entries in one pass.
func (s *Store) SetDeferred(ds []*models.DeferredMessage) {
	s.deferred = ds
}

// ---------------------------------------------------------------
// Standups
// ---------------------------------------------------------------

// Standup returns the active standup for the channel, or nil.
func (s *Store) Standup(channelID int64) *models.Standup {
	return s.standups[channelID]
}

// SetStandup installs the active standup for its channel. The service
// layer guarantees at most one per channel before calling.
func (s *Store) SetStandup(su *models.Standup) {
	s.standups[su.ChannelID] = su
}

// RemoveStandup clears the channel's active standup.
func (s *Store) RemoveStandup(channelID int64) {
	delete(s.standups, channelID)
}

// Standups returns every active standup, in no particular order.
func (s *Store) Standups() []*models.Standup {
	out := make([]*models.Standup, 0, len(s.standups))
	for _, su := range s.standups {
		out = append(out, su)
	}
	return out
}

// ---------------------------------------------------------------
// Snapshot / restore
// ---------------------------------------------------------------

// Snapshot deep-copies the entire state under the read lock. The copy is
// safe to serialize outside the lock on the persistence collaborator's
// own schedule.
func (s *Store) Snapshot() *models.Snapshot {
	s.RLock()
	defer s.RUnlock()

	snap := &models.Snapshot{
		Users:         make([]*models.User, len(s.users)),
		Channels:      make([]*models.Channel, len(s.channels)),
		Deferred:      make([]*models.DeferredMessage, len(s.deferred)),
		NextMessageID: s.nextMessageID,
		CreatorID:     s.creatorID,
		TakenAt:       time.Now().UTC(),
	}
	for i, u := range s.users {
		snap.Users[i] = copyUser(u)
	}
	for i, c := range s.channels {
		snap.Channels[i] = copyChannel(c)
	}
	for i, d := range s.deferred {
		snap.Deferred[i] = copyDeferred(d)
	}
	for _, su := range s.standups {
		snap.Standups = append(snap.Standups, copyStandup(su))
	}
	return snap
}

// Restore replaces the entire state with a snapshot's contents. The
// snapshot is deep-copied in, so the caller may keep mutating its copy.
func (s *Store) Restore(snap *models.Snapshot) {
	s.Lock()
	defer s.Unlock()

	s.users = make([]*models.User, len(snap.Users))
	for i, u := range snap.Users {
		s.users[i] = copyUser(u)
	}
	s.channels = make([]*models.Channel, len(snap.Channels))
	for i, c := range snap.Channels {
		s.channels[i] = copyChannel(c)
	}
	s.deferred = make([]*models.DeferredMessage, len(snap.Deferred))
	for i, d := range snap.Deferred {
		s.deferred[i] = copyDeferred(d)
	}
	s.standups = make(map[int64]*models.Standup, len(snap.Standups))
	for _, su := range snap.Standups {
		s.standups[su.ChannelID] = copyStandup(su)
	}
	s.nextMessageID = snap.NextMessageID
	s.creatorID = snap.CreatorID
}

func copyUser(u *models.User) *models.User {
	cp := *u
	cp.ChannelIDs = append([]int64(nil), u.ChannelIDs...)
	return &cp
}

func copyChannel(c *models.Channel) *models.Channel {
	cp := *c
	cp.Members = make(map[int64]*models.Membership, len(c.Members))
	for id, m := range c.Members {
		mc := *m
		cp.Members[id] = &mc
	}
	cp.Messages = make([]*models.Message, len(c.Messages))
	for i, m := range c.Messages {
		cp.Messages[i] = copyMessage(m)
	}
	return &cp
}

func copyMessage(m *models.Message) *models.Message {
	cp := *m
	if m.Reactions != nil {
		cp.Reactions = make(map[models.ReactionKind][]int64, len(m.Reactions))
		for kind, ids := range m.Reactions {
			cp.Reactions[kind] = append([]int64(nil), ids...)
		}
	}
	return &cp
}

func copyDeferred(d *models.DeferredMessage) *models.DeferredMessage {
	cp := *d
	return &cp
}

func copyStandup(su *models.Standup) *models.Standup {
	cp := *su
	cp.Lines = append([]models.StandupLine(nil), su.Lines...)
	return &cp
}
