package auth

import (
	"context"
	"time"

	"github.com/iliyamo/session-auth/internal/model"
	"github.com/iliyamo/session-auth/internal/queue"
)

// UserStore is the persistence contract for principals. Lookups return
// repository.ErrNotFound when no row matches.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id uint64) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Save inserts u when u.ID is zero and updates it otherwise.
	Save(ctx context.Context, u *model.User) error
}

// RefreshTokenStore is the persistence contract for refresh-token rows.
// Tokens are addressed by their SHA-256 hash, never the raw value, and
// lookups return repository.ErrNotFound when no row matches.
type RefreshTokenStore interface {
	FindByToken(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	// Save deletes every row owned by t.UserID and inserts t, atomically.
	Save(ctx context.Context, t *model.RefreshToken) error
	DeleteByOwner(ctx context.Context, userID uint64) error
	DeleteByToken(ctx context.Context, tokenHash string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
	Revoke(ctx context.Context, tokenHash string) error
	RevokeByOwner(ctx context.Context, userID uint64) error
	// ConsumeActive deletes the row only if it is neither revoked nor
	// expired at now, and reports whether a row was deleted.
	ConsumeActive(ctx context.Context, tokenHash string, now time.Time) (bool, error)
	// Rotate atomically consumes the active row oldHash owned by
	// next.UserID and stores next. It reports false, changing nothing,
	// when no such row exists at now.
	Rotate(ctx context.Context, oldHash string, next *model.RefreshToken, now time.Time) (bool, error)
	CountActive(ctx context.Context, userID uint64, now time.Time) (int, error)
}

// CredentialHasher hides the password hashing algorithm.
type CredentialHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// EventPublisher receives audit events. Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.AuthEvent) error
}
