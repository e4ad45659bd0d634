package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

const (
	lockPrefix    = "lock"
	revokedPrefix = "revoked"
)

// ErrLockNotHeld is returned by Unlock when the lock expired and may now
// belong to someone else. The lock is left alone.
var ErrLockNotHeld = errors.New("lock not held")

// Locker grants short lived exclusive locks keyed by entity
type Locker interface {
	// TryLock returns false when the key is already held. On success the
	// returned token identifies this holder and must be passed to Unlock.
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	// Unlock releases the key only if token still owns it
	Unlock(ctx context.Context, key, token string) error
}

// Revoker remembers revoked refresh token ids until they would expire anyway
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Key joins non-empty parts with ':' behind the prefix
func Key(prefix string, parts ...string) string {
	var sb strings.Builder
	sb.WriteString(prefix)
	for _, part := range parts {
		if part == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(":")
		}
		sb.WriteString(part)
	}
	return sb.String()
}
