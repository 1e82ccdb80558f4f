package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/session-auth/internal/model"
)

// TokenRepo persists refresh tokens by hash (single 'token_hash' column).
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// FindByToken fetches the row with the given hash, whatever its state.
func (r *TokenRepo) FindByToken(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	var t model.RefreshToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, token_hash, expires_at, revoked, created_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.Revoked, &t.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	t.ExpiresAt = t.ExpiresAt.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

// Save deletes every row of t.UserID and inserts t in one transaction,
// so a user never holds more than one refresh token.
func (r *TokenRepo) Save(ctx context.Context, t *model.RefreshToken) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := replaceOwnerToken(ctx, tx, t); err != nil {
		return err
	}
	return tx.Commit()
}

// Rotate deletes the row with oldHash while it is unrevoked, unexpired at
// now and owned by next.UserID, then stores next in its place. Both steps
// share one transaction: false means the old row was not consumable and
// nothing changed. An owner-wide revoke therefore either removes the old
// row first or sees next.
func (r *TokenRepo) Rotate(ctx context.Context, oldHash string, next *model.RefreshToken, now time.Time) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE token_hash=? AND user_id=? AND revoked=? AND expires_at>?",
		oldHash, next.UserID, false, now.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n != 1 {
		return false, nil
	}
	if err := replaceOwnerToken(ctx, tx, next); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func replaceOwnerToken(ctx context.Context, tx *sql.Tx, t *model.RefreshToken) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE user_id=?", t.UserID); err != nil {
		return err
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at, revoked, created_at) VALUES (?,?,?,?,?)",
		t.UserID, t.TokenHash, t.ExpiresAt.UTC(), t.Revoked, t.CreatedAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// ConsumeActive deletes the row only while it is unrevoked and unexpired
// at now. It reports whether this call removed it; of several concurrent
// callers at most one sees true.
func (r *TokenRepo) ConsumeActive(ctx context.Context, tokenHash string, now time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE token_hash=? AND revoked=? AND expires_at>?",
		tokenHash, false, now.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *TokenRepo) DeleteByOwner(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE user_id=?", userID)
	return err
}

func (r *TokenRepo) DeleteByToken(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE token_hash=?", tokenHash)
	return err
}

// DeleteExpired removes rows whose expiry is at or before the given
// instant and returns how many were removed.
func (r *TokenRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE expires_at<=?", before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Revoke marks a token as revoked.
func (r *TokenRepo) Revoke(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked=? WHERE token_hash=?", true, tokenHash)
	return err
}

// RevokeByOwner revokes all of the user's tokens.
func (r *TokenRepo) RevokeByOwner(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked=? WHERE user_id=? AND revoked=?", true, userID, false)
	return err
}

// CountActive counts the user's unrevoked tokens that expire after now.
func (r *TokenRepo) CountActive(ctx context.Context, userID uint64, now time.Time) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM refresh_tokens WHERE user_id=? AND revoked=? AND expires_at>?",
		userID, false, now.UTC()).Scan(&n)
	return n, err
}
