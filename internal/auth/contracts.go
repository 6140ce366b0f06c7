package auth

import (
	"context"
	"time"
)

// Principal is an authenticated identity as read from the user directory.
// The manager only reads it to build claims; ownership stays with the
// directory implementation.
type Principal struct {
	ID           int64
	Email        string
	Role         string
	PasswordHash string
}

// UserDirectory is the read-only lookup contract the manager depends on.
// Implementations return (nil, nil) when no principal matches; errors are
// reserved for store failures.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (*Principal, error)
	FindByID(ctx context.Context, id int64) (*Principal, error)
}

// PasswordVerifier checks a plaintext password against a stored hash.
type PasswordVerifier interface {
	Verify(plaintext, storedHash string) bool
}

// SessionStateStore holds the single currently-valid rotation identifier per
// principal. RotationID returns "" when the principal has no live session;
// SetRotationID with "" clears it.
type SessionStateStore interface {
	RotationID(ctx context.Context, principalID int64) (string, error)
	SetRotationID(ctx context.Context, principalID int64, rotationID string) error
}

// RotationSwapper is an optional SessionStateStore upgrade. Stores that can
// compare-and-swap the rotation identifier make Refresh linearizable per
// principal; without it, concurrent refreshes on the same identifier race
// last-writer-wins.
type RotationSwapper interface {
	SwapRotationID(ctx context.Context, principalID int64, old, next string) (bool, error)
}

// RevocationStore is the blacklist contract: set-with-expiry plus an
// existence probe. Entries self-expire and are never deleted explicitly.
type RevocationStore interface {
	SetWithTTL(ctx context.Context, rotationID, value string, ttl time.Duration) error
	Exists(ctx context.Context, rotationID string) (bool, error)
}
