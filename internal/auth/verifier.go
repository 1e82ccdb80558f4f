package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/session-auth/internal/model"
	"github.com/iliyamo/session-auth/internal/repository"
)

// LockoutPolicy controls brute-force protection. A Threshold of zero or
// less disables lockout.
type LockoutPolicy struct {
	Threshold int
	Duration  time.Duration
}

// CredentialVerifier checks passwords and maintains the failed-attempt
// counter and lockout state of each principal.
type CredentialVerifier struct {
	users    UserStore
	hasher   CredentialHasher
	sessions *RefreshSessionManager
	policy   LockoutPolicy
	now      func() time.Time
	log      *slog.Logger
}

func NewCredentialVerifier(users UserStore, hasher CredentialHasher, sessions *RefreshSessionManager, policy LockoutPolicy, opts ...Option) *CredentialVerifier {
	o := buildOptions(opts)
	return &CredentialVerifier{
		users:    users,
		hasher:   hasher,
		sessions: sessions,
		policy:   policy,
		now:      o.now,
		log:      o.logger.With("component", "credentials"),
	}
}

// Authenticate verifies username and password. Unknown usernames and
// wrong passwords both yield ErrInvalidCredentials. A wrong password
// increments the failure counter and locks the account once the counter
// reaches the policy threshold.
func (v *CredentialVerifier) Authenticate(ctx context.Context, username, password, clientIP string) (*model.User, error) {
	u, err := v.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !u.Enabled {
		return nil, ErrAccountDisabled
	}

	now := v.now().UTC()
	if u.IsLocked(now) {
		return nil, ErrAccountLocked
	}
	if u.AccountLockedUntil != nil {
		// The lock has elapsed; start counting from zero again.
		u.Unlock()
	}

	if !v.hasher.Verify(password, u.PasswordHash) {
		u.FailedLoginAttempts++
		locked := v.policy.Threshold > 0 && u.FailedLoginAttempts >= v.policy.Threshold
		if locked {
			until := now.Add(v.policy.Duration)
			u.AccountLockedUntil = &until
		}
		if err := v.users.Save(ctx, u); err != nil {
			return nil, fmt.Errorf("record failed login: %w", err)
		}
		if locked {
			v.log.Warn("account locked", "user_id", u.ID, "attempts", u.FailedLoginAttempts, "until", u.AccountLockedUntil)
		}
		return nil, ErrInvalidCredentials
	}

	u.Unlock()
	u.LastLoginAt = &now
	u.LastLoginIP = clientIP
	if err := v.users.Save(ctx, u); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	return u, nil
}

// ChangePassword replaces the password after re-checking the current one
// and revokes every refresh token of the user. The lockout counter is not
// touched by a mismatch here.
func (v *CredentialVerifier) ChangePassword(ctx context.Context, username, current, next string) error {
	u, err := v.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}
	if !v.hasher.Verify(current, u.PasswordHash) {
		return ErrInvalidCredentials
	}
	hash, err := v.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash
	if err := v.users.Save(ctx, u); err != nil {
		return fmt.Errorf("save password: %w", err)
	}
	return v.sessions.RevokeAll(ctx, u.ID)
}

// Unlock clears the lockout of username.
func (v *CredentialVerifier) Unlock(ctx context.Context, username string) error {
	u, err := v.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}
	u.Unlock()
	return v.users.Save(ctx, u)
}
