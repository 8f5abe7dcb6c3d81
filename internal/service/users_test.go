package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-chat/tessera/internal/errs"
	"github.com/tessera-chat/tessera/internal/media"
	"github.com/tessera-chat/tessera/internal/models"
)

func TestRegisterFirstUserBecomesOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u1, cred, err := f.users.Register(ctx, "ada@example.com", "hunter2", "Ada", "Lovelace")
	require.NoError(t, err)
	assert.Equal(t, int64(0), u1)
	assert.NotEmpty(t, cred)

	u2, _, err := f.users.Register(ctx, "bob@example.com", "hunter2", "Bob", "Stone")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u2)

	assert.Equal(t, models.RoleOwner, f.store.UserByID(u1).GlobalRole)
	assert.Equal(t, models.RoleMember, f.store.UserByID(u2).GlobalRole)
	assert.Equal(t, u1, f.store.CreatorID())
}

func TestRegisterRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name      string
		email     string
		password  string
		firstName string
		lastName  string
	}{
		{"malformed email", "not-an-email", "hunter2", "Ada", "Lovelace"},
		{"short password", "ada@example.com", "ab", "Ada", "Lovelace"},
		{"empty first name", "ada@example.com", "hunter2", "", "Lovelace"},
		{"long last name", "ada@example.com", "hunter2", "Ada", strings.Repeat("x", 21)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := f.users.Register(ctx, tc.email, tc.password, tc.firstName, tc.lastName)
			assert.True(t, errs.IsValidation(err))
		})
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, "ada@example.com", "Ada", "Lovelace")
	_, _, err := f.users.Register(ctx, "ada@example.com", "hunter2", "Ada", "Again")
	assert.True(t, errs.IsValidation(err))
}

func TestRegisterDerivesUniqueHandles(t *testing.T) {
	f := newFixture(t)

	u1 := f.register(t, "a@example.com", "John", "Apple")
	u2 := f.register(t, "b@example.com", "John", "Apple")
	u3 := f.register(t, "c@example.com", "John", "Apple")

	assert.Equal(t, "johnapple", f.store.UserByID(u1).Handle)
	assert.Equal(t, "johnapple1", f.store.UserByID(u2).Handle)
	assert.Equal(t, "johnapple2", f.store.UserByID(u3).Handle)
}

func TestRegisterTrimsLongHandleOnCollision(t *testing.T) {
	f := newFixture(t)

	u1 := f.register(t, "a@example.com", "Maximiliano", "Fernandez")
	u2 := f.register(t, "b@example.com", "Maximiliano", "Fernandez")

	h1 := f.store.UserByID(u1).Handle
	h2 := f.store.UserByID(u2).Handle
	assert.Len(t, h1, 20)
	assert.Len(t, h2, 20)
	assert.NotEqual(t, h1, h2)
	assert.True(t, strings.HasSuffix(h2, "1"))
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u1 := f.register(t, "ada@example.com", "Ada", "Lovelace")

	userID, cred, err := f.users.Login(ctx, "ada@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, u1, userID)
	assert.NotEmpty(t, cred)

	_, _, err = f.users.Login(ctx, "ada@example.com", "wrong-pass")
	assert.True(t, errs.IsValidation(err))

	_, _, err = f.users.Login(ctx, "nobody@example.com", "hunter2")
	assert.True(t, errs.IsValidation(err))
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, cred, err := f.users.Register(ctx, "ada@example.com", "hunter2", "Ada", "Lovelace")
	require.NoError(t, err)

	ok, err := f.users.Logout(ctx, cred)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.users.Logout(ctx, cred)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChangeGlobalRole(t *testing.T) {
	f := newFixture(t)

	owner := f.register(t, "owner@example.com", "Olive", "Owner")
	member := f.register(t, "m1@example.com", "Mel", "Member")
	other := f.register(t, "m2@example.com", "Max", "Member")

	// Owner promotes a member to admin.
	require.NoError(t, f.users.ChangeGlobalRole(owner, member, models.RoleAdmin))
	assert.Equal(t, models.RoleAdmin, f.store.UserByID(member).GlobalRole)

	// An admin can promote others.
	require.NoError(t, f.users.ChangeGlobalRole(member, other, models.RoleAdmin))

	// But an admin cannot touch the owner.
	err := f.users.ChangeGlobalRole(member, owner, models.RoleMember)
	assert.True(t, errs.IsAuthorization(err))

	// A plain member cannot change roles at all.
	require.NoError(t, f.users.ChangeGlobalRole(owner, other, models.RoleMember))
	err = f.users.ChangeGlobalRole(other, member, models.RoleMember)
	assert.True(t, errs.IsAuthorization(err))
}

func TestChangeGlobalRoleValidation(t *testing.T) {
	f := newFixture(t)

	owner := f.register(t, "owner@example.com", "Olive", "Owner")
	member := f.register(t, "m1@example.com", "Mel", "Member")

	err := f.users.ChangeGlobalRole(owner, 99, models.RoleAdmin)
	assert.True(t, errs.IsValidation(err), "unknown target")

	err = f.users.ChangeGlobalRole(owner, member, models.GlobalRole("sudo"))
	assert.True(t, errs.IsValidation(err), "unknown role")

	err = f.users.ChangeGlobalRole(owner, member, models.RoleMember)
	assert.True(t, errs.IsValidation(err), "target already holds the role")
}

func TestPasswordResetRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u1 := f.register(t, "ada@example.com", "Ada", "Lovelace")

	require.NoError(t, f.users.RequestPasswordReset(ctx, "ada@example.com"))
	code := f.store.UserByID(u1).ResetToken
	require.NotEmpty(t, code)

	require.NoError(t, f.users.ResetPassword(ctx, code, "new-password"))

	_, _, err := f.users.Login(ctx, "ada@example.com", "new-password")
	assert.NoError(t, err)
	_, _, err = f.users.Login(ctx, "ada@example.com", "hunter2")
	assert.True(t, errs.IsValidation(err))

	// The code is single use.
	err = f.users.ResetPassword(ctx, code, "another-one")
	assert.True(t, errs.IsValidation(err))
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	f := newFixture(t)
	err := f.users.RequestPasswordReset(context.Background(), "nobody@example.com")
	assert.True(t, errs.IsValidation(err))
}

func TestProfileUpdates(t *testing.T) {
	f := newFixture(t)

	u1 := f.register(t, "ada@example.com", "Ada", "Lovelace")
	u2 := f.register(t, "bob@example.com", "Bob", "Stone")

	require.NoError(t, f.users.SetName(u1, "Augusta", "King"))
	require.NoError(t, f.users.SetEmail(u1, "augusta@example.com"))
	require.NoError(t, f.users.SetHandle(u1, "augusta"))

	p, err := f.users.GetProfile(u1)
	require.NoError(t, err)
	assert.Equal(t, "Augusta", p.FirstName)
	assert.Equal(t, "King", p.LastName)
	assert.Equal(t, "augusta@example.com", p.Email)
	assert.Equal(t, "augusta", p.Handle)

	// Uniqueness checks against other users.
	err = f.users.SetEmail(u2, "augusta@example.com")
	assert.True(t, errs.IsValidation(err))
	err = f.users.SetHandle(u2, "augusta")
	assert.True(t, errs.IsValidation(err))

	// Re-asserting your own handle is fine.
	assert.NoError(t, f.users.SetHandle(u1, "augusta"))

	err = f.users.SetHandle(u1, "ab")
	assert.True(t, errs.IsValidation(err), "handle below minimum length")
}

func TestSetProfilePhoto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u1 := f.register(t, "ada@example.com", "Ada", "Lovelace")
	crop := media.CropBox{XStart: 0, YStart: 0, XEnd: 100, YEnd: 100}

	require.NoError(t, f.users.SetProfilePhoto(ctx, u1, "http://img.example.com/a.jpg", crop, 200, 200))
	p, err := f.users.GetProfile(u1)
	require.NoError(t, err)
	assert.Equal(t, "http://img.example.com/a.jpg", p.ProfileImageURL)

	// Crop box outside the image bounds.
	bad := media.CropBox{XStart: 0, YStart: 0, XEnd: 300, YEnd: 100}
	err = f.users.SetProfilePhoto(ctx, u1, "http://img.example.com/a.jpg", bad, 200, 200)
	assert.True(t, errs.IsValidation(err))
}

func TestGetProfileUnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.users.GetProfile(42)
	assert.True(t, errs.IsValidation(err))
}

func TestListAllReturnsEveryUser(t *testing.T) {
	f := newFixture(t)

	f.register(t, "ada@example.com", "Ada", "Lovelace")
	f.register(t, "bob@example.com", "Bob", "Stone")

	all := f.users.ListAll()
	require.Len(t, all, 2)
	assert.Equal(t, int64(0), all[0].ID)
	assert.Equal(t, int64(1), all[1].ID)
}
