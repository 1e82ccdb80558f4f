package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/session-auth/internal/model"
)

func newTestCodec(t *testing.T, clock *fakeClock) *TokenCodec {
	t.Helper()
	c, err := NewTokenCodec(testSecret, 15*time.Minute, time.Hour, WithClock(clock.Now))
	require.NoError(t, err)
	return c
}

func TestNewTokenCodecRejectsShortSecret(t *testing.T) {
	_, err := NewTokenCodec("", time.Minute, time.Hour)
	require.ErrorIs(t, err, ErrSigningKey)

	_, err = NewTokenCodec(strings.Repeat("x", MinSecretLength-1), time.Minute, time.Hour)
	require.ErrorIs(t, err, ErrSigningKey)

	_, err = NewTokenCodec(strings.Repeat("x", MinSecretLength), time.Minute, time.Hour)
	require.NoError(t, err)
}

func TestIssueAccessClaims(t *testing.T) {
	clock := newFakeClock()
	c := newTestCodec(t, clock)
	u := &model.User{ID: 7, Username: "alice", Email: "alice@example.com", Role: model.RoleManager}

	token, exp, err := c.IssueAccess(u)
	require.NoError(t, err)
	require.Equal(t, clock.Now().Add(15*time.Minute), exp)

	claims, err := c.Validate(token, "alice")
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)
	require.EqualValues(t, 7, claims.UserID)
	require.Equal(t, "alice@example.com", claims.Email)
	require.Equal(t, "MANAGER", claims.Role)
	require.Equal(t, TokenTypeAccess, claims.TokenType)
	require.ElementsMatch(t, []string{"user:read", "user:write", "product:read", "product:write"}, claims.Permissions)
	require.Equal(t, TokenTypeAccess, c.ClaimTokenType(token))
}

func TestValidateExpired(t *testing.T) {
	clock := newFakeClock()
	c := newTestCodec(t, clock)
	token, _, err := c.IssueAccess(&model.User{ID: 1, Username: "alice", Role: model.RoleUser})
	require.NoError(t, err)

	clock.Advance(15*time.Minute + time.Second)
	_, err = c.Validate(token, "alice")
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateSubjectMismatch(t *testing.T) {
	c := newTestCodec(t, newFakeClock())
	token, _, err := c.IssueAccess(&model.User{ID: 1, Username: "alice", Role: model.RoleUser})
	require.NoError(t, err)

	_, err = c.Validate(token, "bob")
	require.ErrorIs(t, err, ErrTokenSubjectMismatch)

	// An empty expected subject skips the check.
	claims, err := c.Validate(token, "")
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)
}

func TestValidateMalformed(t *testing.T) {
	clock := newFakeClock()
	c := newTestCodec(t, clock)

	for name, token := range map[string]string{
		"empty":   "",
		"garbage": "not-a-jwt",
		"dots":    "a.b.c",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := c.Validate(token, "")
			require.ErrorIs(t, err, ErrTokenMalformed)
			require.Empty(t, c.ClaimTokenType(token))
		})
	}

	t.Run("other secret", func(t *testing.T) {
		other, err := NewTokenCodec(strings.Repeat("z", 64), time.Minute, time.Hour, WithClock(clock.Now))
		require.NoError(t, err)
		token, _, err := other.IssueAccess(&model.User{ID: 1, Username: "alice", Role: model.RoleUser})
		require.NoError(t, err)
		_, err = c.Validate(token, "alice")
		require.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		claims := Claims{
			TokenType: TokenTypeAccess,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "alice",
				IssuedAt:  jwt.NewNumericDate(clock.Now()),
				ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Minute)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = c.Validate(token, "alice")
		require.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("missing subject", func(t *testing.T) {
		token, _, err := c.IssueAccess(&model.User{ID: 1, Role: model.RoleUser})
		require.NoError(t, err)
		_, err = c.Validate(token, "")
		require.ErrorIs(t, err, ErrTokenMalformed)
	})
}

func TestIssueRefreshTokenType(t *testing.T) {
	c := newTestCodec(t, newFakeClock())
	token, err := c.IssueRefresh(&model.User{ID: 3, Username: "carol"})
	require.NoError(t, err)
	require.Equal(t, TokenTypeRefresh, c.ClaimTokenType(token))

	claims, err := c.Validate(token, "carol")
	require.NoError(t, err)
	require.Empty(t, claims.Permissions)
}
