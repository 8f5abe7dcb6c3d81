package models

import "time"

// GlobalRole is a user's system-wide authority tier.
type GlobalRole string

const (
	RoleOwner  GlobalRole = "owner"
	RoleAdmin  GlobalRole = "admin"
	RoleMember GlobalRole = "member"
)

// Valid reports whether r is one of the three known tiers.
func (r GlobalRole) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// Visibility controls whether a channel can be discovered and joined
// without an invite.
type Visibility string

const (
	Public  Visibility = "public"
	Private Visibility = "private"
)

// ReactionKind is one of the fixed set of supported reactions.
// Anything outside the set is rejected at the service layer.
type ReactionKind string

const (
	ReactThumbsUp ReactionKind = "thumbsup"
	ReactHeart    ReactionKind = "heart"
	ReactLaugh    ReactionKind = "laugh"
)

// Valid reports whether k is a supported reaction kind.
func (k ReactionKind) Valid() bool {
	switch k {
	case ReactThumbsUp, ReactHeart, ReactLaugh:
		return true
	}
	return false
}

// User is a registered account.
//
// Why int64 ids and not UUIDs?
//   - The store is a single authoritative in-process sequence. Dense
//     monotonic ids are smaller, naturally ordered, and double as slice
//     indices into the store.
//   - UUIDs earn their keep when entities are minted on multiple servers.
//     Nothing here is.
//
// ChannelIDs mirrors channel membership: the id of channel c appears here
// iff c's member map contains this user. The store maintains both sides
// under the same lock.
type User struct {
	ID              int64      `json:"id"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Handle          string     `json:"handle"`
	GlobalRole      GlobalRole `json:"global_role"`
	ChannelIDs      []int64    `json:"channel_ids"`
	ProfileImageURL string     `json:"profile_img_url"`
	ResetToken      string     `json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
}

// DisplayName is what standup lines and member listings show.
func (u *User) DisplayName() string { return u.FirstName }

// InChannel reports whether channelID is in the membership mirror.
func (u *User) InChannel(channelID int64) bool {
	for _, id := range u.ChannelIDs {
		if id == channelID {
			return true
		}
	}
	return false
}

// Membership is one user's standing inside one channel.
type Membership struct {
	UserID         int64 `json:"user_id"`
	IsChannelOwner bool  `json:"is_channel_owner"`
}

// Channel owns an append-only message log.
//
// The log is slot-addressed: removal marks a slot Removed but never
// deletes it, so a message's slot index is its historical creation index
// forever. MessageCount therefore always equals len(Messages) and never
// decreases — the pagination anchor math depends on that.
type Channel struct {
	ID           int64                 `json:"id"`
	Name         string                `json:"name"`
	Visibility   Visibility            `json:"visibility"`
	Members      map[int64]*Membership `json:"members"`
	Messages     []*Message            `json:"messages"`
	MessageCount int64                 `json:"message_count"`
	CreatedAt    time.Time             `json:"created_at"`
}

// Member returns the membership entry for userID, or nil.
func (c *Channel) Member(userID int64) *Membership {
	return c.Members[userID]
}

// IsMember reports whether userID belongs to the channel.
func (c *Channel) IsMember(userID int64) bool {
	_, ok := c.Members[userID]
	return ok
}

// Message is one entry in a channel's log.
//
// Reactions maps kind -> ordered set of reacting user ids. A bucket never
// holds duplicates and an empty bucket is pruned from the map entirely.
type Message struct {
	ID        int64                    `json:"id"`
	AuthorID  int64                    `json:"author_id"`
	Body      string                   `json:"body"`
	CreatedAt time.Time                `json:"created_at"`
	Reactions map[ReactionKind][]int64 `json:"reactions,omitempty"`
	Pinned    bool                     `json:"pinned"`
	Removed   bool                     `json:"removed"`
}

// HasReacted reports whether userID is in the kind bucket.
func (m *Message) HasReacted(kind ReactionKind, userID int64) bool {
	for _, id := range m.Reactions[kind] {
		if id == userID {
			return true
		}
	}
	return false
}

// DeferredMessage is queued outside any channel log until its due time.
// The message id is reserved when the entry is enqueued, not when it is
// delivered, so callers can reference it immediately.
type DeferredMessage struct {
	ID        int64     `json:"id"`
	ChannelID int64     `json:"channel_id"`
	AuthorID  int64     `json:"author_id"`
	Body      string    `json:"body"`
	DueAt     time.Time `json:"due_at"`
}

// StandupLine is one buffered contribution to an active standup.
type StandupLine struct {
	AuthorName string `json:"author_name"`
	Body       string `json:"body"`
}

// Standup is a time-boxed line buffer for one channel. At most one exists
// per channel at any time; the aggregator consumes it at DueAt.
type Standup struct {
	ChannelID   int64         `json:"channel_id"`
	InitiatorID int64         `json:"initiator_id"`
	DueAt       time.Time     `json:"due_at"`
	Lines       []StandupLine `json:"lines"`
}

// Snapshot is a deep copy of the entire store state, handed to the
// persistence collaborator. The core never does file or network I/O with
// it itself.
type Snapshot struct {
	Users         []*User            `json:"users"`
	Channels      []*Channel         `json:"channels"`
	Deferred      []*DeferredMessage `json:"deferred"`
	Standups      []*Standup         `json:"standups"`
	NextMessageID int64              `json:"next_message_id"`
	CreatorID     int64              `json:"creator_id"`
	TakenAt       time.Time          `json:"taken_at"`
}
