package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// RequireAuthenticated rejects requests without a principal with 401.
func RequireAuthenticated() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if _, ok := PrincipalFrom(c); !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
            }
            return next(c)
        }
    }
}

// RequireAuthority enforces that the principal holds at least one of the
// given authorities, e.g. "ROLE_ADMIN" or "user:write".  Unauthenticated
// requests get 401 and authenticated ones lacking the authority get 403.
func RequireAuthority(authorities ...string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            p, ok := PrincipalFrom(c)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
            }
            if !p.HasAuthority(authorities...) {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
