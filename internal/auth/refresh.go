package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/session-auth/internal/model"
	"github.com/iliyamo/session-auth/internal/repository"
	"github.com/iliyamo/session-auth/internal/utils"
)

// DefaultRefreshTTL is the refresh token lifetime used when none is configured.
const DefaultRefreshTTL = 7 * 24 * time.Hour

// Session is a freshly issued refresh token. Token is the raw value and
// is only available at creation time.
type Session struct {
	Token     string
	ExpiresAt time.Time
	UserID    uint64
}

// Rotation is the result of a successful refresh.
type Rotation struct {
	User            *model.User
	AccessToken     string
	AccessExpiresAt time.Time
	Refresh         *Session
}

// RefreshSessionManager is the only writer of refresh-token rows. Each
// user has at most one row; creating a session replaces any previous one.
// Rotation and single-token revocation on the same token are serialized
// in-process. Rotation swaps the row inside one store transaction with a
// conditional delete, so concurrent processes cannot both succeed.
type RefreshSessionManager struct {
	store RefreshTokenStore
	users UserStore
	codec *TokenCodec
	ttl   time.Duration
	locks *keyedMutex
	now   func() time.Time
	log   *slog.Logger
}

// NewRefreshSessionManager wires a manager. A non-positive ttl falls back
// to DefaultRefreshTTL.
func NewRefreshSessionManager(store RefreshTokenStore, users UserStore, codec *TokenCodec, ttl time.Duration, opts ...Option) *RefreshSessionManager {
	if ttl <= 0 {
		ttl = DefaultRefreshTTL
	}
	o := buildOptions(opts)
	return &RefreshSessionManager{
		store: store,
		users: users,
		codec: codec,
		ttl:   ttl,
		locks: newKeyedMutex(),
		now:   o.now,
		log:   o.logger.With("component", "refresh_sessions"),
	}
}

// Create replaces every refresh token of u with a new one.
func (m *RefreshSessionManager) Create(ctx context.Context, u *model.User) (*Session, error) {
	row, sess, err := m.mint(u.ID, m.now())
	if err != nil {
		return nil, err
	}
	if err := m.store.Save(ctx, row); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}
	return sess, nil
}

func (m *RefreshSessionManager) mint(userID uint64, now time.Time) (*model.RefreshToken, *Session, error) {
	tok, err := utils.NewRefreshToken(now, m.ttl)
	if err != nil {
		return nil, nil, fmt.Errorf("generate refresh token: %w", err)
	}
	row := &model.RefreshToken{
		UserID:    userID,
		TokenHash: utils.HashRefreshRaw(tok.Raw),
		ExpiresAt: tok.Exp,
		CreatedAt: now.UTC(),
	}
	return row, &Session{Token: tok.Raw, ExpiresAt: tok.Exp, UserID: userID}, nil
}

// Rotate exchanges a refresh token for a new access token and a new
// refresh token. The presented token is consumed and its replacement
// stored in one store transaction, so at most one concurrent caller can
// succeed with the same value and an owner-wide revoke never misses the
// replacement. Nothing is consumed when a step before the swap fails.
func (m *RefreshSessionManager) Rotate(ctx context.Context, raw string) (*Rotation, error) {
	hash := utils.HashRefreshRaw(raw)
	unlock := m.locks.Lock(hash)
	defer unlock()

	now := m.now()
	row, err := m.store.FindByToken(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRefreshNotFound
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	if row.Expired(now) {
		if err := m.store.DeleteByToken(ctx, hash); err != nil {
			m.log.Warn("delete expired refresh token failed", "user_id", row.UserID, "error", err)
		}
		return nil, ErrRefreshExpired
	}
	if row.Revoked {
		return nil, ErrRefreshRevoked
	}

	u, err := m.users.FindByID(ctx, row.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRefreshNotFound
		}
		return nil, fmt.Errorf("load refresh token owner: %w", err)
	}
	if !u.Enabled {
		if _, err := m.store.ConsumeActive(ctx, hash, now); err != nil {
			m.log.Warn("consume refresh token of disabled user failed", "user_id", u.ID, "error", err)
		}
		return nil, ErrAccountDisabled
	}

	access, accessExp, err := m.codec.IssueAccess(u)
	if err != nil {
		return nil, err
	}
	next, sess, err := m.mint(u.ID, now)
	if err != nil {
		return nil, err
	}
	// A sweep, a revoke or a rotation in another process may have changed
	// the row since it was read.
	swapped, err := m.store.Rotate(ctx, hash, next, now)
	if err != nil {
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}
	if !swapped {
		return nil, ErrRefreshNotFound
	}
	m.log.Debug("refresh token rotated", "user_id", u.ID)
	return &Rotation{User: u, AccessToken: access, AccessExpiresAt: accessExp, Refresh: sess}, nil
}

// RevokeOne marks a single refresh token of userID revoked. A token that
// belongs to someone else is reported as ErrRefreshNotFound.
func (m *RefreshSessionManager) RevokeOne(ctx context.Context, userID uint64, raw string) error {
	hash := utils.HashRefreshRaw(raw)
	unlock := m.locks.Lock(hash)
	defer unlock()

	row, err := m.store.FindByToken(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRefreshNotFound
		}
		return fmt.Errorf("find refresh token: %w", err)
	}
	if row.UserID != userID {
		return ErrRefreshNotFound
	}
	if err := m.store.Revoke(ctx, hash); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAll marks every refresh token of the user revoked.
func (m *RefreshSessionManager) RevokeAll(ctx context.Context, userID uint64) error {
	if err := m.store.RevokeByOwner(ctx, userID); err != nil {
		return fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	return nil
}

// Delete removes the user's refresh token rows.
func (m *RefreshSessionManager) Delete(ctx context.Context, userID uint64) error {
	if err := m.store.DeleteByOwner(ctx, userID); err != nil {
		return fmt.Errorf("delete user refresh tokens: %w", err)
	}
	return nil
}

// Sweep deletes every row that expired before now and returns how many
// were removed.
func (m *RefreshSessionManager) Sweep(ctx context.Context, now time.Time) (int64, error) {
	n, err := m.store.DeleteExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	return n, nil
}

// ActiveCount returns the number of the user's tokens that are neither
// revoked nor expired.
func (m *RefreshSessionManager) ActiveCount(ctx context.Context, userID uint64) (int, error) {
	return m.store.CountActive(ctx, userID, m.now())
}
