package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/tessera-chat/tessera/internal/errs"
	"github.com/tessera-chat/tessera/internal/models"
	"github.com/tessera-chat/tessera/internal/store"
)

const maxChannelNameLen = 20

// Channels is the channel registry: creation, membership, and per-channel
// ownership management.
type Channels struct {
	store  *store.Store
	logger *zap.Logger
}

// NewChannels wires the channel registry.
func NewChannels(st *store.Store, logger *zap.Logger) *Channels {
	return &Channels{store: st, logger: logger}
}

// Summary is the {id, name} pair the list operations return.
type Summary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// MemberView is one channel member in a details listing.
type MemberView struct {
	ID              int64  `json:"id"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	ProfileImageURL string `json:"profile_img_url"`
}

// Details is the full channel description.
type Details struct {
	Name         string            `json:"name"`
	Visibility   models.Visibility `json:"visibility"`
	OwnerMembers []MemberView      `json:"owner_members"`
	AllMembers   []MemberView      `json:"all_members"`
}

// Create makes a channel with the actor as its sole initial channel
// owner, then auto-adds every current global Owner/Admin (other than the
// actor) as a channel-owner member. Seeding moderators this way means a
// fresh channel is never without global coverage.
func (s *Channels) Create(actorID int64, name string, visibility models.Visibility) (int64, error) {
	if name == "" {
		return 0, errs.Validationf("channel name must not be empty")
	}
	if len(name) > maxChannelNameLen {
		return 0, errs.Validationf("channel name exceeds %d characters", maxChannelNameLen)
	}
	if visibility != models.Public && visibility != models.Private {
		return 0, errs.Validationf("unknown visibility %q", visibility)
	}

	s.store.Lock()
	defer s.store.Unlock()

	actor := s.store.UserByID(actorID)
	if actor == nil {
		return 0, errs.Validationf("user does not exist")
	}

	c := &models.Channel{
		Name:       name,
		Visibility: visibility,
		Members: map[int64]*models.Membership{
			actorID: {UserID: actorID, IsChannelOwner: true},
		},
		CreatedAt: time.Now().UTC(),
	}
	channelID := s.store.AddChannel(c)
	actor.ChannelIDs = append(actor.ChannelIDs, channelID)

	for _, u := range s.store.Users() {
		if u.ID == actorID || !isGlobalAdmin(s.store, u.ID) {
			continue
		}
		c.Members[u.ID] = &models.Membership{UserID: u.ID, IsChannelOwner: true}
		u.ChannelIDs = append(u.ChannelIDs, channelID)
	}

	s.logger.Info("channel created",
		zap.Int64("channel_id", channelID),
		zap.Int64("actor_id", actorID),
		zap.String("visibility", string(visibility)),
	)
	return channelID, nil
}

// Join adds the actor as a non-owner member of a public channel.
// Re-joining is rejected rather than silently duplicating membership.
func (s *Channels) Join(actorID, channelID int64) error {
	s.store.Lock()
	defer s.store.Unlock()

	c := s.store.ChannelByID(channelID)
	if c == nil {
		return errs.Validationf("channel does not exist")
	}
	if c.Visibility == models.Private {
		return errs.Authorizationf("channel is invite only")
	}
	if c.IsMember(actorID) {
		return errs.Validationf("already a member")
	}
	actor := s.store.UserByID(actorID)
	if actor == nil {
		return errs.Validationf("user does not exist")
	}

	c.Members[actorID] = &models.Membership{UserID: actorID}
	actor.ChannelIDs = append(actor.ChannelIDs, channelID)
	return nil
}

// Leave removes the actor's membership, both directions.
func (s *Channels) Leave(actorID, channelID int64) error {
	s.store.Lock()
	defer s.store.Unlock()

	c := s.store.ChannelByID(channelID)
	if c == nil {
		return errs.Validationf("channel does not exist")
	}
	if !c.IsMember(actorID) {
		return errs.Validationf("not a member")
	}

	delete(c.Members, actorID)
	if actor := s.store.UserByID(actorID); actor != nil {
		actor.ChannelIDs = removeID(actor.ChannelIDs, channelID)
	}
	return nil
}

// Invite adds the target as a non-owner member. The actor must already be
// a member; private channels are only ever entered this way.
func (s *Channels) Invite(actorID, targetID, channelID int64) error {
	s.store.Lock()
	defer s.store.Unlock()

	c := s.store.ChannelByID(channelID)
	if c == nil {
		return errs.Validationf("channel does not exist")
	}
	target := s.store.UserByID(targetID)
	if target == nil {
		return errs.Validationf("user does not exist")
	}
	if !c.IsMember(actorID) {
		return errs.Authorizationf("not a member of the channel")
	}
	if c.IsMember(targetID) {
		return errs.Validationf("already a member")
	}

	c.Members[targetID] = &models.Membership{UserID: targetID}
	target.ChannelIDs = append(target.ChannelIDs, channelID)
	return nil
}

// AddOwner grants the channel-owner flag to a member.
func (s *Channels) AddOwner(actorID, targetID, channelID int64) error {
	s.store.Lock()
	defer s.store.Unlock()

	c := s.store.ChannelByID(channelID)
	if c == nil {
		return errs.Validationf("channel does not exist")
	}
	if s.store.UserByID(targetID) == nil {
		return errs.Validationf("user does not exist")
	}
	m := c.Member(targetID)
	if m == nil {
		return errs.Validationf("target is not a channel member")
	}
	if !canManageChannelOwnership(s.store, actorID, channelID) {
		return errs.Authorizationf("no permission to assign an owner")
	}
	if m.IsChannelOwner {
		return errs.Validationf("already a channel owner")
	}

	m.IsChannelOwner = true
	return nil
}

// RemoveOwner revokes the channel-owner flag. The original system creator
// is protected: their flag can never be taken away, by anyone.
func (s *Channels) RemoveOwner(actorID, targetID, channelID int64) error {
	s.store.Lock()
	defer s.store.Unlock()

	c := s.store.ChannelByID(channelID)
	if c == nil {
		return errs.Validationf("channel does not exist")
	}
	if s.store.UserByID(targetID) == nil {
		return errs.Validationf("user does not exist")
	}
	m := c.Member(targetID)
	if m == nil {
		return errs.Validationf("target is not a channel member")
	}
	if !m.IsChannelOwner {
		return errs.Validationf("already not a channel owner")
	}
	if !canManageChannelOwnership(s.store, actorID, channelID) {
		return errs.Authorizationf("no permission to remove an owner")
	}
	if targetID == s.store.CreatorID() {
		return errs.Authorizationf("cannot demote the system creator")
	}

	m.IsChannelOwner = false
	return nil
}

// ListForUser returns the channels the actor belongs to.
func (s *Channels) ListForUser(actorID int64) ([]Summary, error) {
	s.store.RLock()
	defer s.store.RUnlock()

	actor := s.store.UserByID(actorID)
	if actor == nil {
		return nil, errs.Validationf("user does not exist")
	}
	out := make([]Summary, 0, len(actor.ChannelIDs))
	for _, id := range actor.ChannelIDs {
		if c := s.store.ChannelByID(id); c != nil {
			out = append(out, Summary{ID: c.ID, Name: c.Name})
		}
	}
	return out, nil
}

// ListAllPublic returns every public channel.
func (s *Channels) ListAllPublic() []Summary {
	s.store.RLock()
	defer s.store.RUnlock()

	out := make([]Summary, 0)
	for _, c := range s.store.Channels() {
		if c.Visibility == models.Public {
			out = append(out, Summary{ID: c.ID, Name: c.Name})
		}
	}
	return out
}

// GetDetails returns the channel's name and member rosters. Private
// channels only show details to members.
func (s *Channels) GetDetails(actorID, channelID int64) (Details, error) {
	s.store.RLock()
	defer s.store.RUnlock()

	c := s.store.ChannelByID(channelID)
	if c == nil {
		return Details{}, errs.Validationf("channel does not exist")
	}
	if !c.IsMember(actorID) && c.Visibility != models.Public {
		return Details{}, errs.Authorizationf("not a member of the channel")
	}

	d := Details{
		Name:         c.Name,
		Visibility:   c.Visibility,
		OwnerMembers: make([]MemberView, 0),
		AllMembers:   make([]MemberView, 0),
	}
	// Roster in member-id order so the output is stable.
	for _, u := range s.store.Users() {
		m := c.Member(u.ID)
		if m == nil {
			continue
		}
		view := MemberView{
			ID:              u.ID,
			FirstName:       u.FirstName,
			LastName:        u.LastName,
			ProfileImageURL: u.ProfileImageURL,
		}
		d.AllMembers = append(d.AllMembers, view)
		if m.IsChannelOwner {
			d.OwnerMembers = append(d.OwnerMembers, view)
		}
	}
	return d, nil
}

func removeID(ids []int64, id int64) []int64 {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
