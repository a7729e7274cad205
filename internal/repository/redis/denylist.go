package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistPrefix = "caremind:revoked:"

// TokenDenylist records revoked token ids until the token would have expired
type TokenDenylist struct {
	client *Client
}

func NewTokenDenylist(client *Client) *TokenDenylist {
	return &TokenDenylist{client: client}
}

// Revoke marks a token id as unusable for ttl
func (d *TokenDenylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := d.client.rdb.Set(ctx, denylistPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether the token id was revoked
func (d *TokenDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := d.client.rdb.Get(ctx, denylistPrefix+tokenID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check token: %w", err)
	}
	return true, nil
}
