package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-chat/tessera/internal/models"
)

func TestAddUserAssignsDenseIDs(t *testing.T) {
	s := New()
	assert.Equal(t, int64(-1), s.CreatorID())

	id0 := s.AddUser(&models.User{Email: "a@example.com"})
	id1 := s.AddUser(&models.User{Email: "b@example.com"})

	assert.Equal(t, int64(0), id0)
	assert.Equal(t, int64(1), id1)
	assert.Equal(t, id0, s.CreatorID(), "first user is the protected creator")
	assert.Equal(t, "b@example.com", s.UserByID(id1).Email)
	assert.Nil(t, s.UserByID(2))
	assert.Nil(t, s.UserByID(-1))
}

func TestAllocMessageIDNeverReuses(t *testing.T) {
	s := New()
	seen := make(map[int64]bool)
	var last int64 = -1
	for i := 0; i < 100; i++ {
		id := s.AllocMessageID()
		assert.False(t, seen[id])
		assert.Greater(t, id, last)
		seen[id] = true
		last = id
	}
}

func TestFindMessageAcrossChannels(t *testing.T) {
	s := New()
	c1 := &models.Channel{Members: map[int64]*models.Membership{}}
	c2 := &models.Channel{Members: map[int64]*models.Membership{}}
	s.AddChannel(c1)
	s.AddChannel(c2)

	m := &models.Message{ID: s.AllocMessageID(), Body: "hi"}
	c2.Messages = append(c2.Messages, m)

	foundC, foundM := s.FindMessage(m.ID)
	require.NotNil(t, foundM)
	assert.Same(t, c2, foundC)
	assert.Same(t, m, foundM)

	foundC, foundM = s.FindMessage(999)
	assert.Nil(t, foundC)
	assert.Nil(t, foundM)
}

func populated() *Store {
	s := New()
	s.AddUser(&models.User{
		Email:      "a@example.com",
		Handle:     "ada",
		GlobalRole: models.RoleOwner,
		ChannelIDs: []int64{0},
	})
	c := &models.Channel{
		Name:       "general",
		Visibility: models.Public,
		Members: map[int64]*models.Membership{
			0: {UserID: 0, IsChannelOwner: true},
		},
	}
	s.AddChannel(c)
	c.Messages = append(c.Messages, &models.Message{
		ID:        s.AllocMessageID(),
		Body:      "hi",
		Reactions: map[models.ReactionKind][]int64{models.ReactHeart: {0}},
	})
	c.MessageCount = 1
	s.AddDeferred(&models.DeferredMessage{
		ID:        s.AllocMessageID(),
		ChannelID: 0,
		Body:      "later",
		DueAt:     time.Unix(1_700_000_000, 0).UTC(),
	})
	s.SetStandup(&models.Standup{
		ChannelID: 0,
		DueAt:     time.Unix(1_700_000_100, 0).UTC(),
		Lines:     []models.StandupLine{{AuthorName: "Ada", Body: "done"}},
	})
	return s
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := populated()
	snap := s.Snapshot()

	// Mutate the live store after snapshotting.
	s.Lock()
	s.Users()[0].Handle = "changed"
	s.Channels()[0].Messages[0].Body = "changed"
	s.Channels()[0].Messages[0].Reactions[models.ReactHeart] = append(
		s.Channels()[0].Messages[0].Reactions[models.ReactHeart], 7)
	s.Channels()[0].Members[0].IsChannelOwner = false
	s.Standup(0).Lines[0].Body = "changed"
	s.Unlock()

	assert.Equal(t, "ada", snap.Users[0].Handle)
	assert.Equal(t, "hi", snap.Channels[0].Messages[0].Body)
	assert.Equal(t, []int64{0}, snap.Channels[0].Messages[0].Reactions[models.ReactHeart])
	assert.True(t, snap.Channels[0].Members[0].IsChannelOwner)
	require.Len(t, snap.Standups, 1)
	assert.Equal(t, "done", snap.Standups[0].Lines[0].Body)
}

func TestRestoreRoundTrip(t *testing.T) {
	src := populated()
	snap := src.Snapshot()

	dst := New()
	dst.Restore(snap)

	assert.Equal(t, "ada", dst.UserByID(0).Handle)
	assert.Equal(t, int64(0), dst.CreatorID())
	c := dst.ChannelByID(0)
	require.NotNil(t, c)
	assert.Equal(t, "hi", c.Messages[0].Body)
	assert.Equal(t, int64(1), c.MessageCount)
	require.Len(t, dst.Deferred(), 1)
	assert.Equal(t, "later", dst.Deferred()[0].Body)
	require.NotNil(t, dst.Standup(0))

	// Id allocation continues past everything the snapshot reserved.
	assert.Equal(t, int64(2), dst.AllocMessageID())

	// The restored state is independent of the snapshot.
	snap.Users[0].Handle = "changed"
	assert.Equal(t, "ada", dst.UserByID(0).Handle)
}
