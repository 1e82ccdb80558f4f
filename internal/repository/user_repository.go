package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/session-auth/internal/model"
)

const userColumns = "id,username,email,password_hash,role,enabled,created_at,updated_at," +
	"last_login_at,last_login_ip,failed_login_attempts,account_locked_until"

// UserRepo persists accounts in the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u           model.User
		role        string
		lastLoginAt sql.NullTime
		lockedUntil sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &u.Enabled,
		&u.CreatedAt, &u.UpdatedAt, &lastLoginAt, &u.LastLoginIP, &u.FailedLoginAttempts, &lockedUntil)
	if err != nil {
		return nil, notFound(err)
	}
	u.Role = model.Role(role)
	if lastLoginAt.Valid {
		t := lastLoginAt.Time.UTC()
		u.LastLoginAt = &t
	}
	if lockedUntil.Valid {
		t := lockedUntil.Time.UTC()
		u.AccountLockedUntil = &t
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

// FindByUsername fetches a user by exact username.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", username))
}

// FindByID fetches a user by id.
func (r *UserRepo) FindByID(ctx context.Context, id uint64) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// FindByEmail fetches a user by normalized email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

func (r *UserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "SELECT 1 FROM users WHERE username=? LIMIT 1", username)
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "SELECT 1 FROM users WHERE email=? LIMIT 1", strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserRepo) exists(ctx context.Context, query string, arg any) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Save inserts u when u.ID is zero and updates the row otherwise. On
// insert the generated id is written back to u.
func (r *UserRepo) Save(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	if u.ID == 0 {
		return r.insert(ctx, u, now)
	}
	u.UpdatedAt = now
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET username=?, email=?, password_hash=?, role=?, enabled=?, updated_at=?,
		 last_login_at=?, last_login_ip=?, failed_login_attempts=?, account_locked_until=?
		 WHERE id=?`,
		u.Username, u.Email, u.PasswordHash, string(u.Role), u.Enabled, u.UpdatedAt,
		nullTime(u.LastLoginAt), u.LastLoginIP, u.FailedLoginAttempts, nullTime(u.AccountLockedUntil),
		u.ID)
	if err != nil {
		if isDuplicateKey(err) {
			return duplicateUserError(err)
		}
		return err
	}
	return nil
}

func (r *UserRepo) insert(ctx context.Context, u *model.User, now time.Time) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, role, enabled, created_at, updated_at,
		 last_login_at, last_login_ip, failed_login_attempts, account_locked_until)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		u.Username, u.Email, u.PasswordHash, string(u.Role), u.Enabled, u.CreatedAt.UTC(), u.UpdatedAt.UTC(),
		nullTime(u.LastLoginAt), u.LastLoginIP, u.FailedLoginAttempts, nullTime(u.AccountLockedUntil))
	if err != nil {
		if isDuplicateKey(err) {
			return duplicateUserError(err)
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
