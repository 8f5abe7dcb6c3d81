// Package service implements the domain engine: accounts, channels,
// messages, pagination, and the two time-driven delivery mechanisms.
//
// Every operation takes a resolved user id (the session authority has
// already run) plus typed arguments, locks the store once around the whole
// check-then-act sequence, and returns either a success value or exactly
// one of the two failure kinds in internal/errs. No partial mutation is
// ever committed.
package service

import (
	"github.com/tessera-chat/tessera/internal/models"
	"github.com/tessera-chat/tessera/internal/store"
)

// The permission model is pure decision logic over the data model: global
// role tiers plus per-channel owner flags. All helpers assume the caller
// holds the store lock.

// isGlobalAdmin reports whether the user holds Owner or Admin tier.
func isGlobalAdmin(st *store.Store, userID int64) bool {
	u := st.UserByID(userID)
	if u == nil {
		return false
	}
	return u.GlobalRole == models.RoleOwner || u.GlobalRole == models.RoleAdmin
}

// isChannelOwner reports whether the user's membership entry carries the
// channel-owner flag.
func isChannelOwner(st *store.Store, userID, channelID int64) bool {
	c := st.ChannelByID(channelID)
	if c == nil {
		return false
	}
	m := c.Member(userID)
	return m != nil && m.IsChannelOwner
}

// canModerateMessage: the author, a global admin, or a channel owner may
// edit or remove a message.
func canModerateMessage(st *store.Store, actorID int64, msg *models.Message, channelID int64) bool {
	if msg.AuthorID == actorID {
		return true
	}
	if isGlobalAdmin(st, actorID) {
		return true
	}
	return isChannelOwner(st, actorID, channelID)
}

// canManageChannelOwnership: a channel owner or a global admin may grant
// and revoke channel-owner flags. Note there is no author bypass here —
// pinning and ownership changes are strictly tier-gated.
func canManageChannelOwnership(st *store.Store, actorID, channelID int64) bool {
	return isChannelOwner(st, actorID, channelID) || isGlobalAdmin(st, actorID)
}
