package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/tessera-chat/tessera/internal/auth"
	"github.com/tessera-chat/tessera/internal/errs"
)

// Redis is the Authority for deployments where sessions must survive a
// process restart (the domain state itself is restored from snapshots).
// Same one-credential-per-user contract as Memory, kept with a pair of
// keys per session.
type Redis struct {
	client *redis.Client
	secret string
}

// NewRedis builds a Redis-backed Authority from a redis URL and pings the
// server so a bad URL fails at startup, not on the first login.
func NewRedis(ctx context.Context, redisURL, secret string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{client: client, secret: secret}, nil
}

func credentialKey(credential string) string { return "session:cred:" + credential }
func userKey(userID int64) string            { return "session:user:" + strconv.FormatInt(userID, 10) }

func (r *Redis) Issue(ctx context.Context, userID int64) (string, error) {
	credential, err := auth.NewSessionToken(userID, r.secret)
	if err != nil {
		return "", err
	}

	// Retire the previous credential first so there is never a moment
	// with two live credentials for one user.
	old, err := r.client.Get(ctx, userKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("load prior session: %w", err)
	}
	if old != "" {
		if err := r.client.Del(ctx, credentialKey(old)).Err(); err != nil {
			return "", fmt.Errorf("retire prior session: %w", err)
		}
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, credentialKey(credential), userID, 0)
	pipe.Set(ctx, userKey(userID), credential, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return credential, nil
}

func (r *Redis) Resolve(ctx context.Context, credential string) (int64, error) {
	val, err := r.client.Get(ctx, credentialKey(credential)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, errs.Authorizationf("invalid session credential")
	}
	if err != nil {
		return 0, fmt.Errorf("resolve session: %w", err)
	}
	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("decode session user id: %w", err)
	}
	return userID, nil
}

func (r *Redis) Invalidate(ctx context.Context, credential string) (bool, error) {
	val, err := r.client.GetDel(ctx, credentialKey(credential)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("invalidate session: %w", err)
	}
	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return false, fmt.Errorf("decode session user id: %w", err)
	}
	if err := r.client.Del(ctx, userKey(userID)).Err(); err != nil {
		return false, fmt.Errorf("clear user session key: %w", err)
	}
	return true, nil
}
