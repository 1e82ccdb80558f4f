package auth

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/session-auth/internal/database"
	"github.com/iliyamo/session-auth/internal/model"
	"github.com/iliyamo/session-auth/internal/queue"
	"github.com/iliyamo/session-auth/internal/repository"
)

var testSecret = strings.Repeat("s3cr3t-", 10)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.AuthEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.AuthEvent) error {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	clock    *fakeClock
	users    *repository.UserRepo
	tokens   *repository.TokenRepo
	hasher   *BcryptHasher
	codec    *TokenCodec
	sessions *RefreshSessionManager
	verifier *CredentialVerifier
	facade   *SessionFacade
	events   *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db, database.DriverSQLite))

	f := &fixture{
		clock:  newFakeClock(),
		users:  repository.NewUserRepo(db),
		tokens: repository.NewTokenRepo(db),
		hasher: NewBcryptHasher(4),
		events: &recordingPublisher{},
	}
	opts := []Option{
		WithClock(f.clock.Now),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	f.codec, err = NewTokenCodec(testSecret, 15*time.Minute, DefaultRefreshTTL, opts...)
	require.NoError(t, err)
	f.sessions = NewRefreshSessionManager(f.tokens, f.users, f.codec, DefaultRefreshTTL, opts...)
	f.verifier = NewCredentialVerifier(f.users, f.hasher, f.sessions, LockoutPolicy{Threshold: 5, Duration: 15 * time.Minute}, opts...)
	f.facade = NewSessionFacade(f.users, f.hasher, f.verifier, f.sessions, f.codec, f.events, opts...)
	return f
}

// addUser stores an enabled account with the given password and role.
func (f *fixture) addUser(t *testing.T, username, password string, role model.Role) *model.User {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)
	u := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         role,
		Enabled:      true,
	}
	require.NoError(t, f.users.Save(context.Background(), u))
	return u
}
