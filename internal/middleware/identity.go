package middleware

// identity.go holds the principal installed by AuthenticationFilter and the
// helpers downstream middleware and handlers use to read it.

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/session-auth/internal/model"
)

const principalKey = "auth.principal"

// Principal is the authenticated caller of a request.
type Principal struct {
    UserID      uint64
    Username    string
    Role        model.Role
    Authorities []string // ROLE_<ROLE> followed by the role's permissions
}

// HasAuthority reports whether p holds any of the given authorities.
func (p *Principal) HasAuthority(authorities ...string) bool {
    for _, want := range authorities {
        for _, have := range p.Authorities {
            if have == want {
                return true
            }
        }
    }
    return false
}

// PrincipalFrom returns the principal of the request, if any.
func PrincipalFrom(c echo.Context) (*Principal, bool) {
    p, ok := c.Get(principalKey).(*Principal)
    return p, ok && p != nil
}

func setPrincipal(c echo.Context, p *Principal) { c.Set(principalKey, p) }

// userID identifies the caller for rate limiting. It returns "anon" when
// the request is unauthenticated.
func userID(c echo.Context) string {
    if p, ok := PrincipalFrom(c); ok && p.Username != "" {
        return p.Username
    }
    return "anon"
}
