package router // package router wires middleware and routes onto an Echo instance

import (
	"database/sql"
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/iliyamo/session-auth/internal/docs" // Swagger docs
	"github.com/iliyamo/session-auth/internal/auth"
	"github.com/iliyamo/session-auth/internal/config"
	"github.com/iliyamo/session-auth/internal/handler"
	"github.com/iliyamo/session-auth/internal/middleware"
	"github.com/iliyamo/session-auth/internal/model"
	"github.com/iliyamo/session-auth/internal/slogx"
)

// Deps carries everything the HTTP layer needs.
type Deps struct {
	DB        *sql.DB
	Auth      *handler.AuthHandler
	Codec     *auth.TokenCodec
	Users     auth.UserStore
	SkipPaths []string
	RateLimit config.RateLimitConfig
	Redis     *redis.Client // nil selects per-process rate limiting
	Logger    *slog.Logger
}

// New builds the Echo instance with the global middleware chain and every
// route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(slogx.EchoMiddleware(d.Logger))
	// The filter runs on every request; skip-listed paths pass through
	// untouched and the route guards below enforce authentication.
	e.Use(middleware.AuthenticationFilter(d.Codec, d.Users, d.SkipPaths))

	RegisterRoutes(e, d.DB)
	RegisterAuth(e, d.Auth, middleware.NewTokenBucket(d.RateLimit, d.Redis))
	return e
}

// RegisterRoutes registers routes that do not require authentication:
// the health check and the API documentation.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health(db))
	e.GET("/swagger/*", echo.WrapHandler(httpSwagger.Handler()))
}

// RegisterAuth registers the /api/auth routes.  Credential endpoints are
// rate limited; session endpoints require an authenticated principal.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limit echo.MiddlewareFunc) {
	g := e.Group("/api/auth")

	g.POST("/register", a.Register, limit)
	g.POST("/login", a.Login, limit)
	g.POST("/token/refresh", a.Refresh, limit)
	g.GET("/username/check", a.UsernameCheck)
	g.POST("/password/forget", a.ForgotPassword, limit)
	g.POST("/password/reset", a.ResetPassword, limit)

	authed := middleware.RequireAuthenticated()
	g.POST("/logout", a.Logout, authed)
	g.POST("/logout/all", a.LogoutAll, authed)
	g.POST("/token/revoke", a.RevokeToken, authed)
	g.POST("/password/change", a.ChangePassword, authed, limit)
	g.GET("/me", a.Me, authed)

	g.POST("/users/:username/unlock", a.UnlockAccount, middleware.RequireAuthority("ROLE_"+string(model.RoleAdmin)))
}
