// Package token encodes and decodes the signed claim payloads carried by
// access and refresh tokens. The codec is stateless and safe for concurrent
// reuse across requests.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind discriminates the two halves of an issued token pair.
type Kind string

const (
	// KindAccess marks short-lived tokens presented as bearer credentials.
	KindAccess Kind = "access"
	// KindRefresh marks the long-lived rotation token.
	KindRefresh Kind = "refresh"
)

var (
	// ErrMalformed is returned when the token encoding cannot be parsed.
	ErrMalformed = errors.New("token malformed")
	// ErrExpired is returned when the token is past its validity window.
	ErrExpired = errors.New("token expired")
	// ErrInvalid is returned when the signature does not verify.
	ErrInvalid = errors.New("token signature invalid")
)

// Claims is the signed payload embedded in every token. RegisteredClaims.ID
// carries the rotation identifier; an access token and the refresh token
// issued alongside it share the same one.
type Claims struct {
	UserID int64  `json:"uid"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Kind   Kind   `json:"token_type"`
	jwt.RegisteredClaims
}

// RotationID returns the rotation identifier minted at login or refresh.
func (c *Claims) RotationID() string {
	return c.ID
}

// Codec signs claims with a process-wide HS256 secret and verifies the
// inverse. The secret is read-only after construction.
type Codec struct {
	secret []byte
	issuer string
}

const minSecretBytes = 32

// NewCodec validates the signing secret and returns a ready codec.
func NewCodec(secret []byte, issuer string) (*Codec, error) {
	if len(secret) < minSecretBytes {
		return nil, errors.New("signing secret must be at least 32 bytes")
	}
	return &Codec{secret: secret, issuer: issuer}, nil
}

// Encode stamps issued-at and expiry (now + ttl) onto claims and signs them.
// It has no side effects.
func (c *Codec) Encode(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	if c.issuer != "" {
		claims.Issuer = c.issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode verifies signature and expiry and returns the embedded claims.
func (c *Codec) Decode(tokenStr string) (*Claims, error) {
	return c.decode(tokenStr, false)
}

// DecodeAllowExpired verifies the signature but tolerates an elapsed expiry.
// Logout needs the claims of an already-expired access token to compute a
// zero remaining revocation window instead of rejecting the request.
func (c *Codec) DecodeAllowExpired(tokenStr string) (*Claims, error) {
	return c.decode(tokenStr, true)
}

func (c *Codec) decode(tokenStr string, allowExpired bool) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if c.issuer != "" && !allowExpired {
		options = append(options, jwt.WithIssuer(c.issuer))
	}
	if allowExpired {
		options = append(options, jwt.WithoutClaimsValidation())
	}

	parser := jwt.NewParser(options...)
	tok, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		default:
			return nil, ErrInvalid
		}
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrInvalid
	}
	return claims, nil
}
