package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRevocationPrefix = "auth:blacklist"

// RevocationRepo implements the auth.RevocationStore contract on Redis.
// Entries carry a TTL equal to the revoked token's remaining validity and
// expire on their own; nothing ever deletes them explicitly.
type RevocationRepo struct {
	client redis.UniversalClient
	prefix string
}

// NewRevocationRepo returns a repo using the given client. An empty prefix
// falls back to the default key namespace.
func NewRevocationRepo(client redis.UniversalClient, prefix string) *RevocationRepo {
	if prefix == "" {
		prefix = defaultRevocationPrefix
	}
	return &RevocationRepo{client: client, prefix: prefix}
}

// SetWithTTL writes a revocation entry for the rotation identifier.
func (r *RevocationRepo) SetWithTTL(ctx context.Context, rotationID, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(rotationID), value, ttl).Err(); err != nil {
		return fmt.Errorf("revocation set: %w", err)
	}
	return nil
}

// Exists reports whether the rotation identifier is blacklisted.
func (r *RevocationRepo) Exists(ctx context.Context, rotationID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(rotationID)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation exists: %w", err)
	}
	return n > 0, nil
}

func (r *RevocationRepo) key(rotationID string) string {
	return r.prefix + ":" + rotationID
}
