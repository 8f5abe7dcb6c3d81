package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-chat/tessera/internal/errs"
	"github.com/tessera-chat/tessera/internal/models"
)

func TestCreateChannel(t *testing.T) {
	f := newFixture(t)
	u1 := f.register(t, "ada@example.com", "Ada", "Lovelace")

	channelID, err := f.channels.Create(u1, "general", models.Public)
	require.NoError(t, err)

	c := f.store.ChannelByID(channelID)
	require.NotNil(t, c)
	assert.Equal(t, "general", c.Name)
	require.NotNil(t, c.Member(u1))
	assert.True(t, c.Member(u1).IsChannelOwner)
	assert.Contains(t, f.store.UserByID(u1).ChannelIDs, channelID)
}

func TestCreateChannelValidation(t *testing.T) {
	f := newFixture(t)
	u1 := f.register(t, "ada@example.com", "Ada", "Lovelace")

	_, err := f.channels.Create(u1, "", models.Public)
	assert.True(t, errs.IsValidation(err), "empty name")

	_, err = f.channels.Create(u1, strings.Repeat("x", 21), models.Public)
	assert.True(t, errs.IsValidation(err), "name over the cap")

	_, err = f.channels.Create(u1, "ok", models.Visibility("secret"))
	assert.True(t, errs.IsValidation(err), "unknown visibility")
}

func TestCreateChannelSeedsGlobalAdmins(t *testing.T) {
	f := newFixture(t)

	owner := f.register(t, "owner@example.com", "Olive", "Owner")
	admin := f.register(t, "admin@example.com", "Andy", "Admin")
	member := f.register(t, "m@example.com", "Mel", "Member")
	require.NoError(t, f.users.ChangeGlobalRole(owner, admin, models.RoleAdmin))

	channelID := f.createChannel(t, member, "planning", models.Private)

	c := f.store.ChannelByID(channelID)
	require.NotNil(t, c.Member(owner), "global owner auto-added")
	assert.True(t, c.Member(owner).IsChannelOwner)
	require.NotNil(t, c.Member(admin), "global admin auto-added")
	assert.True(t, c.Member(admin).IsChannelOwner)
	assert.Contains(t, f.store.UserByID(owner).ChannelIDs, channelID)
	assert.Contains(t, f.store.UserByID(admin).ChannelIDs, channelID)

	// Members promoted to admin later are not retroactively added.
	late := f.register(t, "late@example.com", "Lana", "Late")
	require.NoError(t, f.users.ChangeGlobalRole(owner, late, models.RoleAdmin))
	assert.Nil(t, c.Member(late))
}

func TestJoinPublicChannel(t *testing.T) {
	f := newFixture(t)
	u1 := f.register(t, "ada@example.com", "Ada", "Lovelace")
	u2 := f.register(t, "bob@example.com", "Bob", "Stone")
	channelID := f.createChannel(t, u1, "general", models.Public)

	require.NoError(t, f.channels.Join(u2, channelID))
	c := f.store.ChannelByID(channelID)
	require.NotNil(t, c.Member(u2))
	assert.False(t, c.Member(u2).IsChannelOwner)

	// Re-joining is rejected, not silently absorbed.
	err := f.channels.Join(u2, channelID)
	assert.True(t, errs.IsValidation(err))
}

func TestJoinPrivateChannelDenied(t *testing.T) {
	f := newFixture(t)
	u1 := f.register(t, "ada@example.com", "Ada", "Lovelace")
	u2 := f.register(t, "bob@example.com", "Bob", "Stone")
	channelID := f.createChannel(t, u1, "secret", models.Private)

	err := f.channels.Join(u2, channelID)
	assert.True(t, errs.IsAuthorization(err))

	err = f.channels.Join(u2, 99)
	assert.True(t, errs.IsValidation(err), "unknown channel")
}

func TestLeaveChannel(t *testing.T) {
	f := newFixture(t)
	u1 := f.register(t, "ada@example.com", "Ada", "Lovelace")
	u2 := f.register(t, "bob@example.com", "Bob", "Stone")
	channelID := f.createChannel(t, u1, "general", models.Public)
	require.NoError(t, f.channels.Join(u2, channelID))

	require.NoError(t, f.channels.Leave(u2, channelID))
	assert.Nil(t, f.store.ChannelByID(channelID).Member(u2))
	assert.NotContains(t, f.store.UserByID(u2).ChannelIDs, channelID)

	err := f.channels.Leave(u2, channelID)
	assert.True(t, errs.IsValidation(err), "leaving twice")
}

func TestInvite(t *testing.T) {
	f := newFixture(t)
	u1 := f.register(t, "ada@example.com", "Ada", "Lovelace")
	u2 := f.register(t, "bob@example.com", "Bob", "Stone")
	u3 := f.register(t, "cam@example.com", "Cam", "Reed")
	channelID := f.createChannel(t, u1, "secret", models.Private)

	// Non-members cannot invite.
	err := f.channels.Invite(u2, u3, channelID)
	assert.True(t, errs.IsAuthorization(err))

	require.NoError(t, f.channels.Invite(u1, u2, channelID))
	c := f.store.ChannelByID(channelID)
	require.NotNil(t, c.Member(u2))
	assert.False(t, c.Member(u2).IsChannelOwner)

	err = f.channels.Invite(u1, u2, channelID)
	assert.True(t, errs.IsValidation(err), "target already a member")

	err = f.channels.Invite(u1, 99, channelID)
	assert.True(t, errs.IsValidation(err), "unknown target")
}

func TestOwnerRoundTrip(t *testing.T) {
	f := newFixture(t)
	u1 := f.register(t, "ada@example.com", "Ada", "Lovelace")
	u2 := f.register(t, "bob@example.com", "Bob", "Stone")
	channelID := f.createChannel(t, u1, "general", models.Public)
	require.NoError(t, f.channels.Join(u2, channelID))

	require.NoError(t, f.channels.AddOwner(u1, u2, channelID))
	assert.True(t, f.store.ChannelByID(channelID).Member(u2).IsChannelOwner)

	err := f.channels.AddOwner(u1, u2, channelID)
	assert.True(t, errs.IsValidation(err), "already an owner")

	require.NoError(t, f.channels.RemoveOwner(u1, u2, channelID))
	assert.False(t, f.store.ChannelByID(channelID).Member(u2).IsChannelOwner)

	err = f.channels.RemoveOwner(u1, u2, channelID)
	assert.True(t, errs.IsValidation(err), "already not an owner")
}

func TestOwnerChangesRequirePermission(t *testing.T) {
	f := newFixture(t)
	u1 := f.register(t, "ada@example.com", "Ada", "Lovelace")
	u2 := f.register(t, "bob@example.com", "Bob", "Stone")
	u3 := f.register(t, "cam@example.com", "Cam", "Reed")
	channelID := f.createChannel(t, u1, "general", models.Public)
	require.NoError(t, f.channels.Join(u2, channelID))
	require.NoError(t, f.channels.Join(u3, channelID))

	err := f.channels.AddOwner(u2, u3, channelID)
	assert.True(t, errs.IsAuthorization(err), "plain member cannot grant")

	err = f.channels.AddOwner(u1, u3, 99)
	assert.True(t, errs.IsValidation(err), "unknown channel")
}

func TestRemoveOwnerProtectsCreator(t *testing.T) {
	f := newFixture(t)
	creator := f.register(t, "first@example.com", "Faye", "First")
	u2 := f.register(t, "bob@example.com", "Bob", "Stone")
	channelID := f.createChannel(t, creator, "general", models.Public)
	require.NoError(t, f.channels.Join(u2, channelID))
	require.NoError(t, f.channels.AddOwner(creator, u2, channelID))

	// Even another channel owner cannot demote the system creator.
	err := f.channels.RemoveOwner(u2, creator, channelID)
	assert.True(t, errs.IsAuthorization(err))
	assert.True(t, f.store.ChannelByID(channelID).Member(creator).IsChannelOwner)
}

func TestChannelListings(t *testing.T) {
	f := newFixture(t)
	u1 := f.register(t, "ada@example.com", "Ada", "Lovelace")
	u2 := f.register(t, "bob@example.com", "Bob", "Stone")
	pub := f.createChannel(t, u1, "general", models.Public)
	priv := f.createChannel(t, u1, "secret", models.Private)

	mine, err := f.channels.ListForUser(u1)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	theirs, err := f.channels.ListForUser(u2)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	// Only public channels show up in the global listing.
	all := f.channels.ListAllPublic()
	require.Len(t, all, 1)
	assert.Equal(t, pub, all[0].ID)
	assert.Equal(t, "general", all[0].Name)
	_ = priv
}

func TestGetDetails(t *testing.T) {
	f := newFixture(t)
	u1 := f.register(t, "ada@example.com", "Ada", "Lovelace")
	u2 := f.register(t, "bob@example.com", "Bob", "Stone")
	channelID := f.createChannel(t, u1, "general", models.Public)
	require.NoError(t, f.channels.Join(u2, channelID))

	d, err := f.channels.GetDetails(u2, channelID)
	require.NoError(t, err)
	assert.Equal(t, "general", d.Name)
	require.Len(t, d.AllMembers, 2)
	require.Len(t, d.OwnerMembers, 1)
	assert.Equal(t, u1, d.OwnerMembers[0].ID)
	// Roster in user-id order.
	assert.Equal(t, u1, d.AllMembers[0].ID)
	assert.Equal(t, u2, d.AllMembers[1].ID)
}

func TestGetDetailsPrivateNonMember(t *testing.T) {
	f := newFixture(t)
	u1 := f.register(t, "ada@example.com", "Ada", "Lovelace")
	u2 := f.register(t, "bob@example.com", "Bob", "Stone")
	channelID := f.createChannel(t, u1, "secret", models.Private)

	_, err := f.channels.GetDetails(u2, channelID)
	assert.True(t, errs.IsAuthorization(err))

	_, err = f.channels.GetDetails(u2, 99)
	assert.True(t, errs.IsValidation(err))
}
