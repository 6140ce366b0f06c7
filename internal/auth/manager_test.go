package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"coffeeshop-backend/internal/auth/token"
)

type fakeDirectory struct {
	byEmail map[string]*Principal
	byID    map[int64]*Principal
	err     error
}

func (d *fakeDirectory) FindByEmail(_ context.Context, email string) (*Principal, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.byEmail[email], nil
}

func (d *fakeDirectory) FindByID(_ context.Context, id int64) (*Principal, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.byID[id], nil
}

type plainVerifier struct{}

func (plainVerifier) Verify(plaintext, storedHash string) bool {
	return plaintext == storedHash
}

type fakeSessions struct {
	mu  sync.Mutex
	ids map[int64]string
	err error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{ids: make(map[int64]string)}
}

func (s *fakeSessions) RotationID(_ context.Context, principalID int64) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids[principalID], nil
}

func (s *fakeSessions) SetRotationID(_ context.Context, principalID int64, rotationID string) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if rotationID == "" {
		delete(s.ids, principalID)
		return nil
	}
	s.ids[principalID] = rotationID
	return nil
}

// swappingSessions adds the compare-and-swap upgrade with a switch to force
// the swap to lose, as if a concurrent refresh got there first.
type swappingSessions struct {
	*fakeSessions
	loseSwap bool
}

func (s *swappingSessions) SwapRotationID(_ context.Context, principalID int64, old, next string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loseSwap || s.ids[principalID] != old {
		return false, nil
	}
	s.ids[principalID] = next
	return true, nil
}

type fakeRevocations struct {
	mu      sync.Mutex
	entries map[string]time.Duration
	err     error
}

func newFakeRevocations() *fakeRevocations {
	return &fakeRevocations{entries: make(map[string]time.Duration)}
}

func (r *fakeRevocations) SetWithTTL(_ context.Context, rotationID, _ string, ttl time.Duration) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[rotationID] = ttl
	return nil
}

func (r *fakeRevocations) Exists(_ context.Context, rotationID string) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[rotationID]
	return ok, nil
}

type fixture struct {
	manager  *Manager
	codec    *token.Codec
	dir      *fakeDirectory
	sessions SessionStateStore
	revoked  *fakeRevocations
}

func alice() *Principal {
	return &Principal{ID: 1, Email: "alice@example.com", Role: "USER", PasswordHash: "correct horse"}
}

func newFixture(t *testing.T, sessions SessionStateStore) *fixture {
	t.Helper()
	codec, err := token.NewCodec([]byte("0123456789abcdef0123456789abcdef"), "coffeeshop")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	user := alice()
	dir := &fakeDirectory{
		byEmail: map[string]*Principal{user.Email: user},
		byID:    map[int64]*Principal{user.ID: user},
	}
	if sessions == nil {
		sessions = newFakeSessions()
	}
	revoked := newFakeRevocations()
	m, err := NewManager(codec, dir, plainVerifier{}, sessions, revoked, Config{})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return &fixture{manager: m, codec: codec, dir: dir, sessions: sessions, revoked: revoked}
}

func (f *fixture) mustLogin(t *testing.T) *TokenPair {
	t.Helper()
	pair, err := f.manager.Login(context.Background(), "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return pair
}

func (f *fixture) claims(t *testing.T, tok string) *token.Claims {
	t.Helper()
	claims, err := f.codec.Decode(tok)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return claims
}

func TestLoginUnknownEmail(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.manager.Login(context.Background(), "nobody@example.com", "whatever")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.manager.Login(context.Background(), "alice@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginIssuesMatchedPair(t *testing.T) {
	f := newFixture(t, nil)
	pair := f.mustLogin(t)

	access := f.claims(t, pair.AccessToken)
	refresh := f.claims(t, pair.RefreshToken)

	if access.Kind != token.KindAccess {
		t.Fatalf("access kind = %q", access.Kind)
	}
	if refresh.Kind != token.KindRefresh {
		t.Fatalf("refresh kind = %q", refresh.Kind)
	}
	if access.RotationID() == "" || access.RotationID() != refresh.RotationID() {
		t.Fatalf("pair must share one rotation id, got %q and %q",
			access.RotationID(), refresh.RotationID())
	}

	current, err := f.sessions.RotationID(context.Background(), 1)
	if err != nil {
		t.Fatalf("RotationID: %v", err)
	}
	if current != access.RotationID() {
		t.Fatalf("stored rotation id %q, token carries %q", current, access.RotationID())
	}
}

func TestLoginStoreFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.dir.err = errors.New("connection refused")

	_, err := f.manager.Login(context.Background(), "alice@example.com", "correct horse")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
	if errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("store outage must not look like a credential failure")
	}
}

func TestRefreshIsOneShot(t *testing.T) {
	f := newFixture(t, nil)
	pair := f.mustLogin(t)

	next, err := f.manager.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("first Refresh: %v", err)
	}
	if f.claims(t, next.AccessToken).RotationID() == f.claims(t, pair.AccessToken).RotationID() {
		t.Fatal("refresh must mint a new rotation id")
	}

	// Replaying the spent token must fail.
	if _, err := f.manager.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("replay err = %v, want ErrAccessDenied", err)
	}

	// The freshly issued one works.
	if _, err := f.manager.Refresh(context.Background(), next.RefreshToken); err != nil {
		t.Fatalf("chained Refresh: %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	f := newFixture(t, nil)
	pair := f.mustLogin(t)

	if _, err := f.manager.Refresh(context.Background(), pair.AccessToken); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("err = %v, want ErrAccessDenied", err)
	}
}

func TestRefreshRejectsGarbage(t *testing.T) {
	f := newFixture(t, nil)
	if _, err := f.manager.Refresh(context.Background(), "not-a-token"); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("err = %v, want ErrAccessDenied", err)
	}
}

func TestSecondLoginInvalidatesFirstRefreshToken(t *testing.T) {
	f := newFixture(t, nil)
	first := f.mustLogin(t)
	second := f.mustLogin(t)

	if _, err := f.manager.Refresh(context.Background(), first.RefreshToken); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("superseded refresh err = %v, want ErrAccessDenied", err)
	}
	if _, err := f.manager.Refresh(context.Background(), second.RefreshToken); err != nil {
		t.Fatalf("latest refresh: %v", err)
	}
}

func TestRefreshSwapLost(t *testing.T) {
	sessions := &swappingSessions{fakeSessions: newFakeSessions()}
	f := newFixture(t, sessions)
	pair := f.mustLogin(t)

	sessions.loseSwap = true
	if _, err := f.manager.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("lost swap err = %v, want ErrAccessDenied", err)
	}
}

func TestRefreshSwapWins(t *testing.T) {
	sessions := &swappingSessions{fakeSessions: newFakeSessions()}
	f := newFixture(t, sessions)
	pair := f.mustLogin(t)

	next, err := f.manager.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	current, _ := sessions.RotationID(context.Background(), 1)
	if current != f.claims(t, next.RefreshToken).RotationID() {
		t.Fatalf("swap left stale rotation id %q", current)
	}
}

func TestValidateAccessToken(t *testing.T) {
	f := newFixture(t, nil)
	pair := f.mustLogin(t)

	claims, err := f.manager.ValidateAccessToken(context.Background(), pair.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if claims.UserID != 1 || claims.Email != "alice@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := f.manager.ValidateAccessToken(context.Background(), pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh-as-access err = %v, want ErrInvalidToken", err)
	}
	if _, err := f.manager.ValidateAccessToken(context.Background(), "junk"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("junk err = %v, want ErrInvalidToken", err)
	}
}

func TestLogoutRevokesCurrentPairOnly(t *testing.T) {
	f := newFixture(t, nil)
	first := f.mustLogin(t)
	second := f.mustLogin(t)

	if err := f.manager.Logout(context.Background(), second.AccessToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	if _, err := f.manager.ValidateAccessToken(context.Background(), second.AccessToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("revoked token err = %v, want ErrUnauthorized", err)
	}
	// The superseded pair's identifier was never blacklisted; its access token
	// still validates until it expires on its own.
	if _, err := f.manager.ValidateAccessToken(context.Background(), first.AccessToken); err != nil {
		t.Fatalf("earlier access token: %v", err)
	}
	// Logout also clears session state, so the revoked pair cannot refresh.
	if _, err := f.manager.Refresh(context.Background(), second.RefreshToken); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("refresh after logout err = %v, want ErrAccessDenied", err)
	}
}

func TestLogoutTTLBoundedByRemainingValidity(t *testing.T) {
	f := newFixture(t, nil)
	pair := f.mustLogin(t)

	if err := f.manager.Logout(context.Background(), pair.AccessToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	rotationID := f.claims(t, pair.RefreshToken).RotationID()
	ttl, ok := f.revoked.entries[rotationID]
	if !ok {
		t.Fatal("expected a blacklist entry for the pair's rotation id")
	}
	if ttl <= 0 || ttl > DefaultAccessTTL {
		t.Fatalf("blacklist ttl = %v, want within (0, %v]", ttl, DefaultAccessTTL)
	}
}

func TestLogoutExpiredAccessToken(t *testing.T) {
	f := newFixture(t, nil)

	user := alice()
	expired, err := f.codec.Encode(token.Claims{
		UserID: user.ID, Email: user.Email, Role: user.Role, Kind: token.KindAccess,
	}, -time.Minute)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if err := f.manager.Logout(context.Background(), expired); err != nil {
		t.Fatalf("Logout of expired token: %v", err)
	}
	if len(f.revoked.entries) != 0 {
		t.Fatalf("expired token must not be blacklisted, got %d entries", len(f.revoked.entries))
	}
}

func TestLogoutRejectsRefreshToken(t *testing.T) {
	f := newFixture(t, nil)
	pair := f.mustLogin(t)

	if err := f.manager.Logout(context.Background(), pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestValidateSurfacesBlacklistOutage(t *testing.T) {
	f := newFixture(t, nil)
	pair := f.mustLogin(t)

	f.revoked.err = errors.New("redis down")
	if _, err := f.manager.ValidateAccessToken(context.Background(), pair.AccessToken); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
}
