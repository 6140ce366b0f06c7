package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SessionStateRepo persists the per-user rotation identifier on the users
// table. It implements auth.SessionStateStore and, through SwapRotationID,
// the compare-and-swap upgrade that makes refresh linearizable per user.
type SessionStateRepo struct {
	DB *sql.DB
}

// NewSessionStateRepo returns a repo bound to db.
func NewSessionStateRepo(db *sql.DB) *SessionStateRepo {
	return &SessionStateRepo{DB: db}
}

// RotationID returns the user's current rotation identifier, or "" when the
// user is logged out or unknown.
func (r *SessionStateRepo) RotationID(ctx context.Context, principalID int64) (string, error) {
	var jti sql.NullString
	err := r.DB.QueryRowContext(ctx,
		`SELECT refresh_jti FROM users WHERE id = $1`, principalID,
	).Scan(&jti)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get rotation id: %w", err)
	}
	return jti.String, nil
}

// SetRotationID overwrites the user's rotation identifier; "" clears it.
func (r *SessionStateRepo) SetRotationID(ctx context.Context, principalID int64, rotationID string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET refresh_jti = NULLIF($2, '') WHERE id = $1`,
		principalID, rotationID,
	)
	if err != nil {
		return fmt.Errorf("set rotation id: %w", err)
	}
	return nil
}

// SwapRotationID replaces old with next only if old is still the stored
// value. The WHERE clause makes the check-and-write a single atomic
// statement, so two racing refreshes can never both succeed.
func (r *SessionStateRepo) SwapRotationID(ctx context.Context, principalID int64, old, next string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET refresh_jti = $3 WHERE id = $1 AND refresh_jti = $2`,
		principalID, old, next,
	)
	if err != nil {
		return false, fmt.Errorf("swap rotation id: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("swap rotation id: %w", err)
	}
	return n == 1, nil
}
