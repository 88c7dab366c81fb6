package redis

// Package redis provides Redis-based adapters for the portal system.

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domainauth "github.com/itcache/portal/internal/domain/auth"
	"github.com/itcache/portal/internal/ports"
	"github.com/redis/go-redis/v9"
)

// SessionCache caches provider-validated sessions so the server guard can
// skip the validation round-trip on subsequent requests. Keys are derived
// from the access token by hash; raw tokens never appear in Redis keys.
type SessionCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ ports.SessionCache = (*SessionCache)(nil)

// NewSessionCache creates a session cache with the given upper-bound TTL.
// Entries always expire no later than the session itself.
func NewSessionCache(client redis.UniversalClient, ttl time.Duration) *SessionCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SessionCache{client: client, prefix: "session:", ttl: ttl}
}

func (c *SessionCache) key(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return c.prefix + hex.EncodeToString(sum[:])
}

func (c *SessionCache) Put(ctx context.Context, sess domainauth.Session) error {
	if sess.AccessToken == "" {
		return errors.New("session access token cannot be empty")
	}

	ttl := c.ttl
	if !sess.ExpiresAt.IsZero() {
		if until := time.Until(sess.ExpiresAt); until < ttl {
			ttl = until
		}
	}
	if ttl <= 0 {
		// Session is already expired, don't cache it.
		return nil
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return c.client.Set(ctx, c.key(sess.AccessToken), data, ttl).Err()
}

func (c *SessionCache) Lookup(ctx context.Context, accessToken string) (*domainauth.Session, error) {
	if accessToken == "" {
		return nil, nil
	}

	data, err := c.client.Get(ctx, c.key(accessToken)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var sess domainauth.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	// Redis TTL should handle expiry, but double-check before trusting.
	if sess.Expired(time.Now()) {
		if err := c.Invalidate(ctx, accessToken); err != nil {
			return nil, fmt.Errorf("cleanup expired session: %w", err)
		}
		return nil, nil
	}
	return &sess, nil
}

func (c *SessionCache) Invalidate(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	return c.client.Del(ctx, c.key(accessToken)).Err()
}
