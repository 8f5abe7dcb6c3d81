package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tessera-chat/tessera/internal/media"
	"github.com/tessera-chat/tessera/internal/models"
	"github.com/tessera-chat/tessera/internal/notify"
	"github.com/tessera-chat/tessera/internal/session"
	"github.com/tessera-chat/tessera/internal/store"
)

// fakeClock lets scheduler-facing tests advance virtual time instead of
// sleeping.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time          { return f.now }
func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

type fixture struct {
	store    *store.Store
	clock    *fakeClock
	users    *Users
	channels *Channels
	messages *Messages
	deferred *Deferred
	standups *Standups
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.New()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0).UTC()}
	logger := zap.NewNop()
	sessions := session.NewMemory("test-session-secret")
	return &fixture{
		store:    st,
		clock:    clock,
		users:    NewUsers(st, sessions, notify.NewLog(logger), media.PassThrough{}, "test-reset-secret", logger),
		channels: NewChannels(st, logger),
		messages: NewMessages(st, nil, clock, logger),
		deferred: NewDeferred(st, nil, clock, logger),
		standups: NewStandups(st, nil, clock, logger),
	}
}

func (f *fixture) register(t *testing.T, email, firstName, lastName string) int64 {
	t.Helper()
	userID, _, err := f.users.Register(context.Background(), email, "hunter2", firstName, lastName)
	require.NoError(t, err)
	return userID
}

func (f *fixture) createChannel(t *testing.T, actorID int64, name string, visibility models.Visibility) int64 {
	t.Helper()
	channelID, err := f.channels.Create(actorID, name, visibility)
	require.NoError(t, err)
	return channelID
}

func (f *fixture) send(t *testing.T, actorID, channelID int64, body string) int64 {
	t.Helper()
	messageID, err := f.messages.Send(actorID, channelID, body)
	require.NoError(t, err)
	return messageID
}
