package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-chat/tessera/internal/errs"
	"github.com/tessera-chat/tessera/internal/models"
)

func TestStandupLifecycle(t *testing.T) {
	f := newFixture(t)
	u1 := f.register(t, "ada@example.com", "Ada", "Lovelace")
	u2 := f.register(t, "bob@example.com", "Bob", "Stone")
	channelID := f.createChannel(t, u1, "general", models.Public)
	require.NoError(t, f.channels.Join(u2, channelID))

	dueAt, err := f.standups.Start(u1, channelID, 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now().Add(15*time.Minute), dueAt)

	active, err := f.standups.Active(channelID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, dueAt, *active)

	require.NoError(t, f.standups.Send(u1, channelID, "shipped the parser"))
	require.NoError(t, f.standups.Send(u2, channelID, "reviewing it today"))

	// Nothing happens before the window closes.
	assert.Zero(t, f.standups.FinalizeDue(f.clock.Now()))

	f.clock.Advance(15 * time.Minute)
	assert.Equal(t, 1, f.standups.FinalizeDue(f.clock.Now()))

	// The lines collapse into one aggregate message from the initiator.
	page, err := f.messages.Retrieve(u1, channelID, 0)
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, u1, page.Messages[0].AuthorID)
	assert.Equal(t, "Ada: shipped the parser\nBob: reviewing it today\n", page.Messages[0].Body)

	active, err = f.standups.Active(channelID)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestStandupStartValidation(t *testing.T) {
	f := newFixture(t)
	u1 := f.register(t, "ada@example.com", "Ada", "Lovelace")
	u2 := f.register(t, "bob@example.com", "Bob", "Stone")
	channelID := f.createChannel(t, u1, "general", models.Public)

	_, err := f.standups.Start(u1, channelID, 0)
	assert.True(t, errs.IsValidation(err), "non-positive duration")

	_, err = f.standups.Start(u1, 99, time.Minute)
	assert.True(t, errs.IsValidation(err), "unknown channel")

	_, err = f.standups.Start(u2, channelID, time.Minute)
	assert.True(t, errs.IsAuthorization(err), "non-member")

	_, err = f.standups.Start(u1, channelID, time.Minute)
	require.NoError(t, err)
	_, err = f.standups.Start(u1, channelID, time.Minute)
	assert.True(t, errs.IsValidation(err), "one standup per channel")
}

func TestStandupSendValidation(t *testing.T) {
	f := newFixture(t)
	u1 := f.register(t, "ada@example.com", "Ada", "Lovelace")
	u2 := f.register(t, "bob@example.com", "Bob", "Stone")
	channelID := f.createChannel(t, u1, "general", models.Public)

	err := f.standups.Send(u1, channelID, "too early")
	assert.True(t, errs.IsValidation(err), "no active standup")

	_, err = f.standups.Start(u1, channelID, time.Minute)
	require.NoError(t, err)

	err = f.standups.Send(u2, channelID, "hi")
	assert.True(t, errs.IsAuthorization(err), "non-member")
}

func TestStandupWithNoLinesPostsNothing(t *testing.T) {
	f := newFixture(t)
	u1 := f.register(t, "ada@example.com", "Ada", "Lovelace")
	channelID := f.createChannel(t, u1, "general", models.Public)

	_, err := f.standups.Start(u1, channelID, time.Minute)
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	assert.Equal(t, 1, f.standups.FinalizeDue(f.clock.Now()))

	_, err = f.messages.Retrieve(u1, channelID, 0)
	assert.True(t, errs.IsValidation(err), "channel log stays empty")

	// A fresh standup can start once the old window has closed.
	_, err = f.standups.Start(u1, channelID, time.Minute)
	assert.NoError(t, err)
}
