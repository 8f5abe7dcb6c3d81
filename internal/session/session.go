// Package session resolves opaque credentials to user identities.
//
// Every other component sits behind this one: a request enters the system
// as (credential, arguments) and leaves the middleware as (userId,
// arguments). The credential format is a signed JWT, but nothing outside
// this package depends on that — callers only see Issue / Resolve /
// Invalidate.
package session

import (
	"context"
	"sync"

	"github.com/tessera-chat/tessera/internal/auth"
	"github.com/tessera-chat/tessera/internal/errs"
)

// Authority is the session contract.
//
// A user has at most one live credential: Issue for a user who already
// holds a session replaces the old credential, which stops resolving.
type Authority interface {
	// Issue mints a credential for userID, replacing any prior one.
	Issue(ctx context.Context, userID int64) (string, error)

	// Resolve maps a credential back to a user id, or fails with an
	// AuthorizationError if no live session matches.
	Resolve(ctx context.Context, credential string) (int64, error)

	// Invalidate clears the session. Idempotent — it always succeeds and
	// reports whether a session existed.
	Invalidate(ctx context.Context, credential string) (bool, error)
}

// Memory is the in-process Authority. Default wiring and the one tests
// use; Redis (redis.go) covers multi-process deployments.
type Memory struct {
	mu     sync.Mutex
	secret string

	byCredential map[string]int64
	byUser       map[int64]string
}

// NewMemory returns an empty in-process session table.
func NewMemory(secret string) *Memory {
	return &Memory{
		secret:       secret,
		byCredential: make(map[string]int64),
		byUser:       make(map[int64]string),
	}
}

func (m *Memory) Issue(_ context.Context, userID int64) (string, error) {
	credential, err := auth.NewSessionToken(userID, m.secret)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.byUser[userID]; ok {
		delete(m.byCredential, old)
	}
	m.byCredential[credential] = userID
	m.byUser[userID] = credential
	return credential, nil
}

func (m *Memory) Resolve(_ context.Context, credential string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	userID, ok := m.byCredential[credential]
	if !ok {
		return 0, errs.Authorizationf("invalid session credential")
	}
	return userID, nil
}

func (m *Memory) Invalidate(_ context.Context, credential string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	userID, ok := m.byCredential[credential]
	if !ok {
		return false, nil
	}
	delete(m.byCredential, credential)
	delete(m.byUser, userID)
	return true, nil
}
