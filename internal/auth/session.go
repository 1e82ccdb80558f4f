package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/session-auth/internal/model"
	"github.com/iliyamo/session-auth/internal/queue"
	"github.com/iliyamo/session-auth/internal/repository"
)

// ErrPasswordResetUnavailable is returned by ResetPassword; reset tokens
// are delivered by email, which this service does not do.
var ErrPasswordResetUnavailable = errors.New("password reset is not available")

// JwtPair is the token pair returned by Login and Refresh.
type JwtPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"type"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// CurrentUserView describes the authenticated user.
type CurrentUserView struct {
	ID           uint64     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	Enabled      bool       `json:"enabled"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt"`
	ActiveTokens int        `json:"activeTokens"`
}

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// SessionFacade is the entry point other subsystems use for login,
// refresh, logout and account self-service.
type SessionFacade struct {
	users    UserStore
	hasher   CredentialHasher
	verifier *CredentialVerifier
	sessions *RefreshSessionManager
	codec    *TokenCodec
	events   EventPublisher
	now      func() time.Time
	log      *slog.Logger
}

// NewSessionFacade wires a facade. events may be nil.
func NewSessionFacade(users UserStore, hasher CredentialHasher, verifier *CredentialVerifier, sessions *RefreshSessionManager, codec *TokenCodec, events EventPublisher, opts ...Option) *SessionFacade {
	o := buildOptions(opts)
	return &SessionFacade{
		users:    users,
		hasher:   hasher,
		verifier: verifier,
		sessions: sessions,
		codec:    codec,
		events:   events,
		now:      o.now,
		log:      o.logger.With("component", "sessions"),
	}
}

// Login authenticates the user and opens a new session, replacing any
// previous one. Verifier errors are returned unchanged.
func (f *SessionFacade) Login(ctx context.Context, username, password, clientIP string) (*JwtPair, error) {
	u, err := f.verifier.Authenticate(ctx, username, password, clientIP)
	if err != nil {
		f.publish(ctx, queue.AuthEvent{Type: queue.EventLoginFailed, Username: username, ClientIP: clientIP, Reason: err.Error()})
		return nil, err
	}
	access, _, err := f.codec.IssueAccess(u)
	if err != nil {
		return nil, err
	}
	sess, err := f.sessions.Create(ctx, u)
	if err != nil {
		return nil, err
	}
	f.log.Info("login succeeded", "user_id", u.ID)
	f.publish(ctx, queue.AuthEvent{Type: queue.EventLoginSucceeded, UserID: u.ID, Username: u.Username, ClientIP: clientIP})
	return f.pair(u, access, sess.Token), nil
}

// Refresh rotates a refresh token into a new pair.
func (f *SessionFacade) Refresh(ctx context.Context, refreshToken string) (*JwtPair, error) {
	rot, err := f.sessions.Rotate(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	f.publish(ctx, queue.AuthEvent{Type: queue.EventSessionRefreshed, UserID: rot.User.ID, Username: rot.User.Username})
	return f.pair(rot.User, rot.AccessToken, rot.Refresh.Token), nil
}

// Logout ends the user's current session.
func (f *SessionFacade) Logout(ctx context.Context, username string) error {
	u, err := f.findUser(ctx, username)
	if err != nil {
		return err
	}
	if err := f.sessions.Delete(ctx, u.ID); err != nil {
		return err
	}
	f.publish(ctx, queue.AuthEvent{Type: queue.EventLogout, UserID: u.ID, Username: u.Username})
	return nil
}

// LogoutAll revokes every refresh token of the user.
func (f *SessionFacade) LogoutAll(ctx context.Context, username string) error {
	u, err := f.findUser(ctx, username)
	if err != nil {
		return err
	}
	if err := f.sessions.RevokeAll(ctx, u.ID); err != nil {
		return err
	}
	f.publish(ctx, queue.AuthEvent{Type: queue.EventLogoutAll, UserID: u.ID, Username: u.Username})
	return nil
}

// RevokeToken revokes one of the user's own refresh tokens.
func (f *SessionFacade) RevokeToken(ctx context.Context, userID uint64, refreshToken string) error {
	if err := f.sessions.RevokeOne(ctx, userID, refreshToken); err != nil {
		return err
	}
	f.publish(ctx, queue.AuthEvent{Type: queue.EventTokenRevoked, UserID: userID})
	return nil
}

// UnlockAccount clears the lockout of username on behalf of an operator.
func (f *SessionFacade) UnlockAccount(ctx context.Context, username string) error {
	if err := f.verifier.Unlock(ctx, username); err != nil {
		return err
	}
	f.publish(ctx, queue.AuthEvent{Type: queue.EventAccountUnlocked, Username: username})
	return nil
}

// Register creates an enabled USER account.
func (f *SessionFacade) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	taken, err := f.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, ErrUsernameTaken
	}
	taken, err = f.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := f.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := f.now().UTC()
	u := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := f.users.Save(ctx, u); err != nil {
		// Lost a race with a concurrent registration.
		switch {
		case errors.Is(err, repository.ErrUsernameExists):
			return nil, ErrUsernameTaken
		case errors.Is(err, repository.ErrEmailExists):
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	f.publish(ctx, queue.AuthEvent{Type: queue.EventUserRegistered, UserID: u.ID, Username: u.Username})
	return u, nil
}

// UsernameAvailable reports whether username is free.
func (f *SessionFacade) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	taken, err := f.users.ExistsByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return !taken, nil
}

// ChangePassword replaces the password and invalidates all sessions.
func (f *SessionFacade) ChangePassword(ctx context.Context, username, current, next string) error {
	if err := f.verifier.ChangePassword(ctx, username, current, next); err != nil {
		return err
	}
	f.publish(ctx, queue.AuthEvent{Type: queue.EventPasswordChanged, Username: username})
	return nil
}

// CurrentUser builds the view of the authenticated user.
func (f *SessionFacade) CurrentUser(ctx context.Context, username string) (*CurrentUserView, error) {
	u, err := f.findUser(ctx, username)
	if err != nil {
		return nil, err
	}
	active, err := f.sessions.ActiveCount(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}
	return &CurrentUserView{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Role:         string(u.Role),
		Enabled:      u.Enabled,
		CreatedAt:    u.CreatedAt,
		LastLoginAt:  u.LastLoginAt,
		ActiveTokens: active,
	}, nil
}

// InitPasswordReset accepts a reset request. The answer never depends on
// whether the email exists.
func (f *SessionFacade) InitPasswordReset(ctx context.Context, email string) {
	f.log.Info("password reset requested")
}

// ResetPassword always fails with ErrPasswordResetUnavailable.
func (f *SessionFacade) ResetPassword(ctx context.Context, token, newPassword string) error {
	return ErrPasswordResetUnavailable
}

func (f *SessionFacade) findUser(ctx context.Context, username string) (*model.User, error) {
	u, err := f.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (f *SessionFacade) pair(u *model.User, access, refresh string) *JwtPair {
	return &JwtPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		Username:     u.Username,
		Role:         string(u.Role),
		ExpiresIn:    int64(f.codec.AccessTTL() / time.Second),
	}
}

func (f *SessionFacade) publish(ctx context.Context, ev queue.AuthEvent) {
	if f.events == nil {
		return
	}
	ev.ID = uuid.NewString()
	ev.OccurredAt = f.now().UTC().Format(time.RFC3339)
	if err := f.events.Publish(ctx, ev); err != nil {
		f.log.Warn("publish auth event failed", "type", ev.Type, "error", err)
	}
}
