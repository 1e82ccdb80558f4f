package middleware

import (
    "errors"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/session-auth/internal/auth"
    "github.com/iliyamo/session-auth/internal/repository"
    "github.com/iliyamo/session-auth/internal/slogx"
)

// AuthenticationFilter resolves the bearer access token of a request into
// a Principal.  It never rejects: a missing, invalid or expired token, a
// refresh token, or an unknown or disabled user leaves the request
// unauthenticated, and the route guards decide what that means.
//
// Requests whose path starts with one of skipPaths are passed through
// before the header is even read.
func AuthenticationFilter(codec *auth.TokenCodec, users auth.UserStore, skipPaths []string) echo.MiddlewareFunc {
    skip := append([]string(nil), skipPaths...)
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if skipped(c.Request().URL.Path, skip) {
                return next(c)
            }
            raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
            if !ok {
                return next(c)
            }
            if p := resolvePrincipal(c, codec, users, raw); p != nil {
                setPrincipal(c, p)
            }
            return next(c)
        }
    }
}

func resolvePrincipal(c echo.Context, codec *auth.TokenCodec, users auth.UserStore, raw string) *Principal {
    ctx := c.Request().Context()
    log := slogx.FromContext(ctx)

    if codec.ClaimTokenType(raw) == auth.TokenTypeRefresh {
        log.Debug("refresh token presented as bearer")
        return nil
    }
    claims, err := codec.Validate(raw, "")
    if err != nil {
        log.Debug("bearer token rejected", "error", err)
        return nil
    }
    u, err := users.FindByUsername(ctx, claims.Subject)
    if err != nil {
        if !errors.Is(err, repository.ErrNotFound) {
            log.Warn("load token subject failed", "error", err)
        }
        return nil
    }
    if !u.Enabled {
        return nil
    }
    if _, err := codec.Validate(raw, u.Username); err != nil {
        return nil
    }
    return &Principal{
        UserID:      u.ID,
        Username:    u.Username,
        Role:        u.Role,
        Authorities: u.Role.Authorities(),
    }
}

// skipped matches whole path segments: "/swagger" covers "/swagger" and
// "/swagger/index.html" but not "/swaggerx".
func skipped(path string, prefixes []string) bool {
    for _, p := range prefixes {
        if p == "" {
            continue
        }
        base := strings.TrimSuffix(p, "/")
        if path == base || strings.HasPrefix(path, base+"/") {
            return true
        }
    }
    return false
}

func bearerToken(header string) (string, bool) {
    const prefix = "Bearer "
    if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
        return "", false
    }
    raw := strings.TrimSpace(header[len(prefix):])
    return raw, raw != ""
}
