package token

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec(testSecret, "coffeeshop")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

func TestNewCodecRejectsShortSecret(t *testing.T) {
	if _, err := NewCodec([]byte("too short"), ""); err == nil {
		t.Fatal("expected error for short secret")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := newTestCodec(t)

	claims := Claims{UserID: 42, Email: "a@b.c", Role: "USER", Kind: KindAccess}
	claims.ID = "rotation-1"

	encoded, err := c.Encode(claims, time.Minute)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := c.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.UserID != 42 || decoded.Email != "a@b.c" || decoded.Role != "USER" {
		t.Fatalf("identity fields lost: %+v", decoded)
	}
	if decoded.Kind != KindAccess {
		t.Fatalf("kind = %q, want %q", decoded.Kind, KindAccess)
	}
	if decoded.RotationID() != "rotation-1" {
		t.Fatalf("rotation id = %q, want rotation-1", decoded.RotationID())
	}
	if decoded.Issuer != "coffeeshop" {
		t.Fatalf("issuer = %q, want coffeeshop", decoded.Issuer)
	}
	if decoded.ExpiresAt == nil || decoded.IssuedAt == nil {
		t.Fatal("expected stamped issued-at and expiry")
	}
}

func TestDecodeExpired(t *testing.T) {
	c := newTestCodec(t)

	encoded, err := c.Encode(Claims{UserID: 1, Kind: KindAccess}, -time.Minute)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if _, err := c.Decode(encoded); !errors.Is(err, ErrExpired) {
		t.Fatalf("Decode error = %v, want ErrExpired", err)
	}
}

func TestDecodeAllowExpired(t *testing.T) {
	c := newTestCodec(t)

	claims := Claims{UserID: 7, Kind: KindAccess}
	claims.ID = "rotation-7"
	encoded, err := c.Encode(claims, -time.Minute)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := c.DecodeAllowExpired(encoded)
	if err != nil {
		t.Fatalf("DecodeAllowExpired: %v", err)
	}
	if decoded.UserID != 7 || decoded.RotationID() != "rotation-7" {
		t.Fatalf("claims lost through expired decode: %+v", decoded)
	}
}

func TestDecodeTampered(t *testing.T) {
	c := newTestCodec(t)

	encoded, err := c.Encode(Claims{UserID: 1, Kind: KindAccess}, time.Minute)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	parts := strings.Split(encoded, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %d parts", len(parts))
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	if _, err := c.Decode(tampered); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Decode error = %v, want ErrInvalid", err)
	}
}

func TestDecodeWrongSecret(t *testing.T) {
	c := newTestCodec(t)
	other, err := NewCodec([]byte("ffffffffffffffffffffffffffffffff"), "coffeeshop")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	encoded, err := other.Encode(Claims{UserID: 1, Kind: KindAccess}, time.Minute)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := c.Decode(encoded); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Decode error = %v, want ErrInvalid", err)
	}
}

func TestDecodeMalformed(t *testing.T) {
	c := newTestCodec(t)
	if _, err := c.Decode("not-a-token"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("Decode error = %v, want ErrMalformed", err)
	}
}

func TestDecodeWrongIssuer(t *testing.T) {
	c := newTestCodec(t)
	other, err := NewCodec(testSecret, "someone-else")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	encoded, err := other.Encode(Claims{UserID: 1, Kind: KindAccess}, time.Minute)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := c.Decode(encoded); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Decode error = %v, want ErrInvalid", err)
	}
}
