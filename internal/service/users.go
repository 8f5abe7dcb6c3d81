package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tessera-chat/tessera/internal/auth"
	"github.com/tessera-chat/tessera/internal/errs"
	"github.com/tessera-chat/tessera/internal/media"
	"github.com/tessera-chat/tessera/internal/models"
	"github.com/tessera-chat/tessera/internal/notify"
	"github.com/tessera-chat/tessera/internal/session"
	"github.com/tessera-chat/tessera/internal/store"
)

const (
	maxNameLen     = 20
	minPasswordLen = 5
	minHandleLen   = 3
	maxHandleLen   = 20
)

var emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

// Users covers accounts: registration, login, global role changes,
// password reset, and profile management.
type Users struct {
	store       *store.Store
	sessions    session.Authority
	notifier    notify.Notifier
	media       media.Processor
	resetSecret string
	logger      *zap.Logger
}

// NewUsers wires the account service.
func NewUsers(
	st *store.Store,
	sessions session.Authority,
	notifier notify.Notifier,
	mediaProc media.Processor,
	resetSecret string,
	logger *zap.Logger,
) *Users {
	return &Users{
		store:       st,
		sessions:    sessions,
		notifier:    notifier,
		media:       mediaProc,
		resetSecret: resetSecret,
		logger:      logger,
	}
}

// Profile is the public view of a user.
type Profile struct {
	ID              int64  `json:"id"`
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Handle          string `json:"handle"`
	ProfileImageURL string `json:"profile_img_url"`
}

func profileOf(u *models.User) Profile {
	return Profile{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Handle:          u.Handle,
		ProfileImageURL: u.ProfileImageURL,
	}
}

// Register creates an account and issues a session. The first registered
// user becomes the global Owner; everyone after defaults to Member.
func (s *Users) Register(ctx context.Context, email, password, firstName, lastName string) (int64, string, error) {
	if err := validateEmail(email); err != nil {
		return 0, "", err
	}
	if err := validatePassword(password); err != nil {
		return 0, "", err
	}
	if err := validateName(firstName); err != nil {
		return 0, "", err
	}
	if err := validateName(lastName); err != nil {
		return 0, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, "", fmt.Errorf("hash password: %w", err)
	}

	s.store.Lock()
	if s.store.UserByEmail(email) != nil {
		s.store.Unlock()
		return 0, "", errs.Validationf("email already registered")
	}

	role := models.RoleMember
	if len(s.store.Users()) == 0 {
		role = models.RoleOwner
	}
	u := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    firstName,
		LastName:     lastName,
		Handle:       s.deriveHandle(firstName, lastName),
		GlobalRole:   role,
		CreatedAt:    time.Now().UTC(),
	}
	userID := s.store.AddUser(u)
	s.store.Unlock()

	credential, err := s.sessions.Issue(ctx, userID)
	if err != nil {
		return 0, "", fmt.Errorf("issue session: %w", err)
	}
	s.logger.Info("user registered",
		zap.Int64("user_id", userID),
		zap.String("handle", u.Handle),
		zap.String("role", string(role)),
	)
	return userID, credential, nil
}

// deriveHandle lowercases first+last and caps it at 20 characters. On
// collision it appends an incrementing counter, trimming the base so the
// handle never exceeds the cap. Caller holds the store lock.
func (s *Users) deriveHandle(firstName, lastName string) string {
	base := strings.ToLower(firstName + lastName)
	if len(base) > maxHandleLen {
		base = base[:maxHandleLen]
	}
	handle := base
	for n := 1; s.store.HandleTaken(handle); n++ {
		suffix := strconv.Itoa(n)
		trimmed := base
		if len(trimmed) > maxHandleLen-len(suffix) {
			trimmed = trimmed[:maxHandleLen-len(suffix)]
		}
		handle = trimmed + suffix
	}
	return handle
}

// Login verifies the password and issues a fresh session, replacing any
// prior credential for the user.
func (s *Users) Login(ctx context.Context, email, password string) (int64, string, error) {
	if err := validateEmail(email); err != nil {
		return 0, "", err
	}

	s.store.RLock()
	u := s.store.UserByEmail(email)
	var userID int64
	var hash string
	if u != nil {
		userID = u.ID
		hash = u.PasswordHash
	}
	s.store.RUnlock()

	// One generic failure for both unknown email and wrong password, so
	// the error doesn't reveal which emails are registered.
	if u == nil {
		return 0, "", errs.Validationf("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return 0, "", errs.Validationf("invalid email or password")
	}

	credential, err := s.sessions.Issue(ctx, userID)
	if err != nil {
		return 0, "", fmt.Errorf("issue session: %w", err)
	}
	return userID, credential, nil
}

// Logout invalidates the credential and reports whether a session existed.
func (s *Users) Logout(ctx context.Context, credential string) (bool, error) {
	return s.sessions.Invalidate(ctx, credential)
}

// ChangeGlobalRole mutates the target's tier under the Owner-protection
// rules: only an Owner may target an Owner, and only Admin/Owner tiers may
// change roles at all.
func (s *Users) ChangeGlobalRole(actorID, targetID int64, newRole models.GlobalRole) error {
	s.store.Lock()
	defer s.store.Unlock()

	target := s.store.UserByID(targetID)
	if target == nil {
		return errs.Validationf("user does not exist")
	}
	if !newRole.Valid() {
		return errs.Validationf("unknown role %q", newRole)
	}

	actor := s.store.UserByID(actorID)
	if actor == nil {
		return errs.Authorizationf("unknown actor")
	}
	if actor.GlobalRole != models.RoleOwner {
		if target.GlobalRole == models.RoleOwner {
			return errs.Authorizationf("only the owner may change an owner's role")
		}
		if !isGlobalAdmin(s.store, actorID) {
			return errs.Authorizationf("admin tier required to change roles")
		}
	}
	if target.GlobalRole == newRole {
		return errs.Validationf("user already holds role %q", newRole)
	}

	target.GlobalRole = newRole
	s.logger.Info("global role changed",
		zap.Int64("actor_id", actorID),
		zap.Int64("target_id", targetID),
		zap.String("role", string(newRole)),
	)
	return nil
}

// RequestPasswordReset mints a reset code, remembers it on the account,
// and hands (recipientEmail, message) to the notification collaborator.
func (s *Users) RequestPasswordReset(ctx context.Context, email string) error {
	if err := validateEmail(email); err != nil {
		return err
	}

	s.store.Lock()
	u := s.store.UserByEmail(email)
	if u == nil {
		s.store.Unlock()
		return errs.Validationf("email does not exist")
	}
	code, err := auth.NewResetToken(u.ID, s.resetSecret)
	if err != nil {
		s.store.Unlock()
		return fmt.Errorf("mint reset code: %w", err)
	}
	u.ResetToken = code
	s.store.Unlock()

	msg := "Your reset code is " + code
	if err := s.notifier.Send(ctx, email, msg); err != nil {
		return fmt.Errorf("send reset notification: %w", err)
	}
	return nil
}

// ResetPassword consumes a reset code and installs the new password.
func (s *Users) ResetPassword(_ context.Context, code, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	s.store.Lock()
	defer s.store.Unlock()
	for _, u := range s.store.Users() {
		if u.ResetToken != "" && u.ResetToken == code {
			u.PasswordHash = string(hash)
			u.ResetToken = ""
			return nil
		}
	}
	return errs.Validationf("reset code is not valid")
}

// GetProfile returns the public view of any valid user.
func (s *Users) GetProfile(userID int64) (Profile, error) {
	s.store.RLock()
	defer s.store.RUnlock()
	u := s.store.UserByID(userID)
	if u == nil {
		return Profile{}, errs.Validationf("user does not exist")
	}
	return profileOf(u), nil
}

// ListAll returns every user's public view, in id order.
func (s *Users) ListAll() []Profile {
	s.store.RLock()
	defer s.store.RUnlock()
	out := make([]Profile, 0, len(s.store.Users()))
	for _, u := range s.store.Users() {
		out = append(out, profileOf(u))
	}
	return out
}

// SetName updates the actor's first and last name.
func (s *Users) SetName(actorID int64, firstName, lastName string) error {
	if err := validateName(firstName); err != nil {
		return err
	}
	if err := validateName(lastName); err != nil {
		return err
	}

	s.store.Lock()
	defer s.store.Unlock()
	u := s.store.UserByID(actorID)
	if u == nil {
		return errs.Validationf("user does not exist")
	}
	u.FirstName = firstName
	u.LastName = lastName
	return nil
}

// SetEmail updates the actor's email if it is well-formed and unused.
func (s *Users) SetEmail(actorID int64, email string) error {
	if err := validateEmail(email); err != nil {
		return err
	}

	s.store.Lock()
	defer s.store.Unlock()
	u := s.store.UserByID(actorID)
	if u == nil {
		return errs.Validationf("user does not exist")
	}
	if other := s.store.UserByEmail(email); other != nil && other.ID != actorID {
		return errs.Validationf("email already in use")
	}
	u.Email = email
	return nil
}

// SetHandle updates the actor's handle (3-20 chars, unique).
func (s *Users) SetHandle(actorID int64, handle string) error {
	if len(handle) < minHandleLen {
		return errs.Validationf("handle must be at least %d characters", minHandleLen)
	}
	if len(handle) > maxHandleLen {
		return errs.Validationf("handle exceeds %d characters", maxHandleLen)
	}

	s.store.Lock()
	defer s.store.Unlock()
	u := s.store.UserByID(actorID)
	if u == nil {
		return errs.Validationf("user does not exist")
	}
	if u.Handle != handle && s.store.HandleTaken(handle) {
		return errs.Validationf("handle already in use")
	}
	u.Handle = handle
	return nil
}

// SetProfilePhoto validates the crop box against the supplied image
// dimensions, delegates the crop to the media collaborator, and stores
// the resulting URL.
func (s *Users) SetProfilePhoto(ctx context.Context, actorID int64, sourceURL string, crop media.CropBox, imgWidth, imgHeight int) error {
	if !crop.WithinBounds(imgWidth, imgHeight) {
		return errs.Validationf("crop box outside image bounds")
	}

	s.store.RLock()
	u := s.store.UserByID(actorID)
	s.store.RUnlock()
	if u == nil {
		return errs.Validationf("user does not exist")
	}

	url, err := s.media.Process(ctx, actorID, sourceURL, crop)
	if err != nil {
		return fmt.Errorf("process profile photo: %w", err)
	}

	s.store.Lock()
	defer s.store.Unlock()
	if u := s.store.UserByID(actorID); u != nil {
		u.ProfileImageURL = url
	}
	return nil
}

func validateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return errs.Validationf("invalid email")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLen {
		return errs.Validationf("password must be at least %d characters", minPasswordLen)
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return errs.Validationf("name must not be empty")
	}
	if len(name) > maxNameLen {
		return errs.Validationf("name exceeds %d characters", maxNameLen)
	}
	return nil
}
