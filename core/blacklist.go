package core

import (
	"context"
	"time"
)

// TokenBlacklist revokes refresh tokens by their JWT ID until they expire
// on their own.
type TokenBlacklist interface {
	Blacklist(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}
