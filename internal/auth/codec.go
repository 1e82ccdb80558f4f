package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/session-auth/internal/model"
)

// Token type claim values.
const (
	TokenTypeAccess  = "ACCESS"
	TokenTypeRefresh = "REFRESH"
)

// MinSecretLength is the minimum signing secret length in bytes (256 bits).
const MinSecretLength = 32

// Claims is the payload of tokens issued by TokenCodec. The subject is
// the username.
type Claims struct {
	UserID      uint64   `json:"userId"`
	Email       string   `json:"email,omitempty"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	TokenType   string   `json:"tokenType"`
	jwt.RegisteredClaims
}

// TokenCodec signs and parses HS512 JWTs with a single shared secret.
// It holds no mutable state and is safe for concurrent use.
type TokenCodec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	parser     *jwt.Parser
}

// NewTokenCodec returns a codec for the given secret. An empty or short
// secret yields ErrSigningKey.
func NewTokenCodec(secret string, accessTTL, refreshTTL time.Duration, opts ...Option) (*TokenCodec, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: secret must be at least %d bytes", ErrSigningKey, MinSecretLength)
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	o := buildOptions(opts)
	c := &TokenCodec{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        o.now,
	}
	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)
	return c, nil
}

// AccessTTL returns the configured access token lifetime.
func (c *TokenCodec) AccessTTL() time.Duration { return c.accessTTL }

// IssueAccess signs an access token for u and returns it with its expiry.
func (c *TokenCodec) IssueAccess(u *model.User) (string, time.Time, error) {
	now := c.now()
	exp := now.Add(c.accessTTL)
	claims := Claims{
		UserID:      u.ID,
		Email:       u.Email,
		Role:        string(u.Role),
		Permissions: u.Role.Permissions(),
		TokenType:   TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := c.sign(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// IssueRefresh signs a self-contained refresh JWT. Sessions use opaque
// stored refresh tokens instead; this form cannot be revoked.
func (c *TokenCodec) IssueRefresh(u *model.User) (string, error) {
	now := c.now()
	claims := Claims{
		UserID:    u.ID,
		TokenType: TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.refreshTTL)),
		},
	}
	return c.sign(claims)
}

func (c *TokenCodec) sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate verifies the signature and expiry of token. When
// expectedSubject is non-empty the embedded subject must match it.
func (c *TokenCodec) Validate(token, expectedSubject string) (*Claims, error) {
	claims := &Claims{}
	_, err := c.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	default:
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenMalformed)
	}
	if expectedSubject != "" && claims.Subject != expectedSubject {
		return nil, ErrTokenSubjectMismatch
	}
	return claims, nil
}

// ClaimTokenType reads the tokenType claim without verifying the token.
// It returns "" when the token cannot be decoded.
func (c *TokenCodec) ClaimTokenType(token string) string {
	claims := &Claims{}
	if _, _, err := c.parser.ParseUnverified(token, claims); err != nil {
		return ""
	}
	return claims.TokenType
}
