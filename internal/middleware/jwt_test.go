package middleware

import (
    "context"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/session-auth/internal/auth"
    "github.com/iliyamo/session-auth/internal/model"
    "github.com/iliyamo/session-auth/internal/repository"
)

type memUsers struct {
    byName map[string]*model.User
}

func newMemUsers(users ...*model.User) *memUsers {
    m := &memUsers{byName: map[string]*model.User{}}
    for _, u := range users {
        m.byName[u.Username] = u
    }
    return m
}

func (m *memUsers) FindByUsername(_ context.Context, username string) (*model.User, error) {
    if u, ok := m.byName[username]; ok {
        cp := *u
        return &cp, nil
    }
    return nil, repository.ErrNotFound
}

func (m *memUsers) FindByID(_ context.Context, id uint64) (*model.User, error) {
    for _, u := range m.byName {
        if u.ID == id {
            cp := *u
            return &cp, nil
        }
    }
    return nil, repository.ErrNotFound
}

func (m *memUsers) ExistsByUsername(_ context.Context, username string) (bool, error) {
    _, ok := m.byName[username]
    return ok, nil
}

func (m *memUsers) ExistsByEmail(_ context.Context, email string) (bool, error) {
    for _, u := range m.byName {
        if u.Email == email {
            return true, nil
        }
    }
    return false, nil
}

func (m *memUsers) Save(_ context.Context, u *model.User) error {
    m.byName[u.Username] = u
    return nil
}

func newCodec(t *testing.T, now func() time.Time) *auth.TokenCodec {
    t.Helper()
    c, err := auth.NewTokenCodec(strings.Repeat("m", 64), 15*time.Minute, time.Hour, auth.WithClock(now))
    require.NoError(t, err)
    return c
}

// serve runs one request through the filter and reports the principal
// the handler observed.
func serve(t *testing.T, mw echo.MiddlewareFunc, path, authz string) (*Principal, int) {
    t.Helper()
    e := echo.New()
    var seen *Principal
    h := mw(func(c echo.Context) error {
        seen, _ = PrincipalFrom(c)
        return c.NoContent(http.StatusNoContent)
    })
    req := httptest.NewRequest(http.MethodGet, path, nil)
    if authz != "" {
        req.Header.Set(echo.HeaderAuthorization, authz)
    }
    rec := httptest.NewRecorder()
    require.NoError(t, h(e.NewContext(req, rec)))
    return seen, rec.Code
}

func TestAuthenticationFilterInstallsPrincipal(t *testing.T) {
    alice := &model.User{ID: 1, Username: "alice", Email: "alice@example.com", Role: model.RoleAdmin, Enabled: true}
    codec := newCodec(t, time.Now)
    mw := AuthenticationFilter(codec, newMemUsers(alice), []string{"/api/auth/login"})

    token, _, err := codec.IssueAccess(alice)
    require.NoError(t, err)

    p, code := serve(t, mw, "/api/auth/me", "Bearer "+token)
    require.Equal(t, http.StatusNoContent, code)
    require.NotNil(t, p)
    require.Equal(t, "alice", p.Username)
    require.EqualValues(t, 1, p.UserID)
    require.Equal(t, "ROLE_ADMIN", p.Authorities[0])
    require.True(t, p.HasAuthority("admin:write"))
    require.False(t, p.HasAuthority("system:write"))

    // Scheme matching is case-insensitive.
    p, _ = serve(t, mw, "/api/auth/me", "bearer "+token)
    require.NotNil(t, p)
}

func TestAuthenticationFilterLeavesRequestAnonymous(t *testing.T) {
    now := time.Now()
    clock := func() time.Time { return now }
    alice := &model.User{ID: 1, Username: "alice", Role: model.RoleUser, Enabled: true}
    ghost := &model.User{ID: 2, Username: "ghost", Role: model.RoleUser, Enabled: true}
    disabled := &model.User{ID: 3, Username: "dora", Role: model.RoleUser, Enabled: false}
    codec := newCodec(t, clock)
    mw := AuthenticationFilter(codec, newMemUsers(alice, disabled), nil)

    ghostToken, _, err := codec.IssueAccess(ghost)
    require.NoError(t, err)
    disabledToken, _, err := codec.IssueAccess(disabled)
    require.NoError(t, err)
    refreshToken, err := codec.IssueRefresh(alice)
    require.NoError(t, err)

    expired := newCodec(t, func() time.Time { return now.Add(-time.Hour) })
    expiredToken, _, err := expired.IssueAccess(alice)
    require.NoError(t, err)

    cases := map[string]string{
        "no header":     "",
        "basic scheme":  "Basic YWxpY2U6cHc=",
        "empty bearer":  "Bearer ",
        "garbage":       "Bearer not-a-token",
        "unknown user":  "Bearer " + ghostToken,
        "disabled user": "Bearer " + disabledToken,
        "refresh token": "Bearer " + refreshToken,
        "expired":       "Bearer " + expiredToken,
    }
    for name, header := range cases {
        t.Run(name, func(t *testing.T) {
            p, code := serve(t, mw, "/api/auth/me", header)
            require.Nil(t, p)
            require.Equal(t, http.StatusNoContent, code)
        })
    }
}

func TestAuthenticationFilterSkipsConfiguredPaths(t *testing.T) {
    alice := &model.User{ID: 1, Username: "alice", Role: model.RoleUser, Enabled: true}
    codec := newCodec(t, time.Now)
    mw := AuthenticationFilter(codec, newMemUsers(alice), []string{"/api/auth/login", "/swagger"})
    token, _, err := codec.IssueAccess(alice)
    require.NoError(t, err)

    p, _ := serve(t, mw, "/swagger/index.html", "Bearer "+token)
    require.Nil(t, p)
    p, _ = serve(t, mw, "/api/auth/login", "Bearer "+token)
    require.Nil(t, p)
    p, _ = serve(t, mw, "/api/auth/logout", "Bearer "+token)
    require.NotNil(t, p)
}

func TestSkippedMatchesPathSegments(t *testing.T) {
    prefixes := []string{"/api/auth/login", "/swagger/", ""}
    tests := []struct {
        path string
        want bool
    }{
        {"/api/auth/login", true},
        {"/api/auth/login/", true},
        {"/api/auth/loginfoo", false},
        {"/swagger", true},
        {"/swagger/index.html", true},
        {"/swaggerx", false},
        {"/api/auth/me", false},
    }
    for _, tt := range tests {
        require.Equal(t, tt.want, skipped(tt.path, prefixes), tt.path)
    }
}

func TestRouteGuards(t *testing.T) {
    e := echo.New()
    ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

    run := func(mw echo.MiddlewareFunc, p *Principal) int {
        req := httptest.NewRequest(http.MethodGet, "/", nil)
        rec := httptest.NewRecorder()
        c := e.NewContext(req, rec)
        if p != nil {
            setPrincipal(c, p)
        }
        require.NoError(t, mw(ok)(c))
        return rec.Code
    }

    user := &Principal{Username: "alice", Role: model.RoleUser, Authorities: model.RoleUser.Authorities()}
    admin := &Principal{Username: "root", Role: model.RoleAdmin, Authorities: model.RoleAdmin.Authorities()}

    require.Equal(t, http.StatusUnauthorized, run(RequireAuthenticated(), nil))
    require.Equal(t, http.StatusOK, run(RequireAuthenticated(), user))

    require.Equal(t, http.StatusUnauthorized, run(RequireAuthority("ROLE_ADMIN"), nil))
    require.Equal(t, http.StatusForbidden, run(RequireAuthority("ROLE_ADMIN"), user))
    require.Equal(t, http.StatusOK, run(RequireAuthority("ROLE_ADMIN"), admin))
    require.Equal(t, http.StatusOK, run(RequireAuthority("user:delete", "product:read"), user))
}
