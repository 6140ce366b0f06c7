// Package auth implements the session core: issuance of paired access/refresh
// tokens, one-shot refresh rotation, and logout revocation through a
// TTL-bounded blacklist. All state lives in the injected stores, so a Manager
// is safe for concurrent use by any number of request handlers.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"coffeeshop-backend/internal/auth/token"
)

const (
	// DefaultAccessTTL is the access token lifetime when none is configured.
	DefaultAccessTTL = 15 * time.Minute
	// DefaultRefreshTTL is the refresh token lifetime when none is configured.
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Config carries the token lifetimes for a Manager. Zero values fall back to
// the defaults above.
type Config struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenPair is the result of a successful login or refresh. Both tokens carry
// the same freshly minted rotation identifier.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Manager is the authentication state machine. It holds no in-process mutable
// state of its own; every operation reads or writes the injected stores.
type Manager struct {
	codec      *token.Codec
	users      UserDirectory
	passwords  PasswordVerifier
	sessions   SessionStateStore
	revoked    RevocationStore
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewManager wires the codec and the four collaborator contracts into a
// ready Manager.
func NewManager(
	codec *token.Codec,
	users UserDirectory,
	passwords PasswordVerifier,
	sessions SessionStateStore,
	revoked RevocationStore,
	cfg Config,
) (*Manager, error) {
	if codec == nil {
		return nil, errors.New("token codec required")
	}
	if users == nil {
		return nil, errors.New("user directory required")
	}
	if passwords == nil {
		return nil, errors.New("password verifier required")
	}
	if sessions == nil {
		return nil, errors.New("session state store required")
	}
	if revoked == nil {
		return nil, errors.New("revocation store required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}

	return &Manager{
		codec:      codec,
		users:      users,
		passwords:  passwords,
		sessions:   sessions,
		revoked:    revoked,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}, nil
}

// Login verifies the credentials and issues a fresh token pair, overwriting
// the principal's session state with the new rotation identifier.
func (m *Manager) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := m.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, storeErr(err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if !m.passwords.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	rotationID := uuid.NewString()
	pair, err := m.encodePair(user, rotationID)
	if err != nil {
		return nil, err
	}
	if err := m.sessions.SetRotationID(ctx, user.ID, rotationID); err != nil {
		return nil, storeErr(err)
	}
	return pair, nil
}

// Refresh exchanges a still-valid refresh token for a new pair. Each refresh
// token is good for exactly one successful call: the stored rotation
// identifier is swapped to a new value, so replaying the old token fails the
// identifier match below.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := m.codec.Decode(refreshToken)
	if err != nil {
		return nil, ErrAccessDenied
	}
	if claims.Kind != token.KindRefresh {
		return nil, ErrAccessDenied
	}

	current, err := m.sessions.RotationID(ctx, claims.UserID)
	if err != nil {
		return nil, storeErr(err)
	}
	if current == "" || current != claims.RotationID() {
		// Replay of a superseded or stolen refresh token lands here.
		return nil, ErrAccessDenied
	}

	user, err := m.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, storeErr(err)
	}
	if user == nil {
		return nil, ErrAccessDenied
	}

	next := uuid.NewString()
	pair, err := m.encodePair(user, next)
	if err != nil {
		return nil, err
	}

	if swapper, ok := m.sessions.(RotationSwapper); ok {
		swapped, err := swapper.SwapRotationID(ctx, user.ID, current, next)
		if err != nil {
			return nil, storeErr(err)
		}
		if !swapped {
			// A concurrent refresh won the swap; this caller's token is spent.
			return nil, ErrAccessDenied
		}
	} else if err := m.sessions.SetRotationID(ctx, user.ID, next); err != nil {
		return nil, storeErr(err)
	}

	return pair, nil
}

// Logout blacklists the access token's rotation identifier for its remaining
// validity window and clears the principal's session state, which also stops
// refresh tokens sharing that identifier. An already-expired access token is
// accepted; its revocation entry is simply skipped.
func (m *Manager) Logout(ctx context.Context, accessToken string) error {
	claims, err := m.codec.DecodeAllowExpired(accessToken)
	if err != nil {
		return ErrInvalidToken
	}
	if claims.Kind != token.KindAccess {
		return ErrInvalidToken
	}

	if claims.ExpiresAt != nil {
		if remaining := time.Until(claims.ExpiresAt.Time); remaining > 0 {
			if err := m.revoked.SetWithTTL(ctx, claims.RotationID(), "revoked", remaining); err != nil {
				return storeErr(err)
			}
		}
	}

	if err := m.sessions.SetRotationID(ctx, claims.UserID, ""); err != nil {
		return storeErr(err)
	}
	return nil
}

// ValidateAccessToken is the check every protected-resource request runs
// through: strict decode, kind check, then the blacklist probe.
func (m *Manager) ValidateAccessToken(ctx context.Context, accessToken string) (*token.Claims, error) {
	claims, err := m.codec.Decode(accessToken)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if claims.Kind != token.KindAccess {
		return nil, ErrInvalidToken
	}

	revoked, err := m.IsBlacklisted(ctx, claims.RotationID())
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// IsBlacklisted probes the revocation store directly. The request
// authentication layer uses it when full validation has already run.
func (m *Manager) IsBlacklisted(ctx context.Context, rotationID string) (bool, error) {
	revoked, err := m.revoked.Exists(ctx, rotationID)
	if err != nil {
		return false, storeErr(err)
	}
	return revoked, nil
}

func (m *Manager) encodePair(user *Principal, rotationID string) (*TokenPair, error) {
	access, err := m.codec.Encode(m.claims(user, rotationID, token.KindAccess), m.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := m.codec.Encode(m.claims(user, rotationID, token.KindRefresh), m.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (m *Manager) claims(user *Principal, rotationID string, kind token.Kind) token.Claims {
	claims := token.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		Kind:   kind,
	}
	claims.ID = rotationID
	return claims
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
