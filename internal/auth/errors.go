package auth

import "errors"

// Credential errors. ErrInvalidCredentials is returned for both unknown
// usernames and wrong passwords so callers cannot enumerate accounts.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrAccountLocked      = errors.New("account locked")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already registered")
)

// Access token errors.
var (
	ErrTokenMalformed       = errors.New("token malformed")
	ErrTokenExpired         = errors.New("token expired")
	ErrTokenSubjectMismatch = errors.New("token subject mismatch")
)

// Refresh token errors.
var (
	ErrRefreshNotFound = errors.New("refresh token not found")
	ErrRefreshExpired  = errors.New("refresh token expired")
	ErrRefreshRevoked  = errors.New("refresh token revoked")
)

// ErrSigningKey is returned at construction time when the signing secret
// is missing or too short. The service must not start with it.
var ErrSigningKey = errors.New("invalid signing key")
