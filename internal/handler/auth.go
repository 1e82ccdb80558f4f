package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/session-auth/internal/auth"
	"github.com/iliyamo/session-auth/internal/middleware"
	"github.com/iliyamo/session-auth/internal/slogx"
)

const requestTimeout = 5 * time.Second

// AuthHandler exposes the session facade over HTTP.
type AuthHandler struct {
	Sessions *auth.SessionFacade
}

func NewAuthHandler(s *auth.SessionFacade) *AuthHandler {
	return &AuthHandler{Sessions: s}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type forgotPasswordReq struct {
	Email string `json:"email"`
}

type resetPasswordReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type changePasswordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type userResp struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type usernameCheckResp struct {
	Username  string `json:"username"`
	Available bool   `json:"available"`
}

type errorResp struct {
	Error string `json:"error"`
}

const (
	minUsernameLen = 3
	maxUsernameLen = 50
	minPasswordLen = 6
)

// Register creates a USER account.
//
//	@Summary	Register a new account
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		registerReq	true	"account"
//	@Success	201		{object}	userResp
//	@Failure	400		{object}	errorResp
//	@Failure	409		{object}	errorResp
//	@Router		/api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if n := len(req.Username); n < minUsernameLen || n > maxUsernameLen {
		return badRequest(c, "username must be 3 to 50 characters")
	}
	if !strings.Contains(req.Email, "@") {
		return badRequest(c, "valid email required")
	}
	if len(req.Password) < minPasswordLen {
		return badRequest(c, "password must be at least 6 characters")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Sessions.Register(ctx, auth.RegisterInput{Username: req.Username, Email: req.Email, Password: req.Password})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, userResp{ID: u.ID, Username: u.Username, Email: u.Email, Role: string(u.Role)})
}

// Login verifies credentials and returns a token pair.
//
//	@Summary	Log in
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		loginReq	true	"credentials"
//	@Success	200		{object}	auth.JwtPair
//	@Failure	401		{object}	errorResp
//	@Failure	403		{object}	errorResp
//	@Failure	423		{object}	errorResp
//	@Router		/api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return badRequest(c, "username/password required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	pair, err := h.Sessions.Login(ctx, req.Username, req.Password, c.RealIP())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, pair)
}

// Refresh rotates a refresh token into a new pair.
//
//	@Summary	Refresh tokens
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		refreshReq	true	"refresh token"
//	@Success	200		{object}	auth.JwtPair
//	@Failure	401		{object}	errorResp
//	@Router		/api/auth/token/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return badRequest(c, "refreshToken required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	pair, err := h.Sessions.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, pair)
}

// Logout ends the caller's current session.
//
//	@Summary	Log out
//	@Tags		auth
//	@Security	BearerAuth
//	@Success	204
//	@Failure	401	{object}	errorResp
//	@Router		/api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Sessions.Logout(ctx, p.Username); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// LogoutAll revokes every refresh token of the caller.
//
//	@Summary	Log out everywhere
//	@Tags		auth
//	@Security	BearerAuth
//	@Success	204
//	@Failure	401	{object}	errorResp
//	@Router		/api/auth/logout/all [post]
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Sessions.LogoutAll(ctx, p.Username); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RevokeToken revokes a single refresh token.
//
//	@Summary	Revoke a refresh token
//	@Tags		auth
//	@Security	BearerAuth
//	@Accept		json
//	@Param		body	body	refreshReq	true	"refresh token"
//	@Success	204
//	@Failure	401	{object}	errorResp
//	@Router		/api/auth/token/revoke [post]
func (h *AuthHandler) RevokeToken(c echo.Context) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return badRequest(c, "refreshToken required")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Sessions.RevokeToken(ctx, p.UserID, strings.TrimSpace(req.RefreshToken)); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UnlockAccount clears the lockout of another account. Admin only.
//
//	@Summary	Unlock an account
//	@Tags		admin
//	@Security	BearerAuth
//	@Param		username	path	string	true	"username"
//	@Success	204
//	@Failure	401	{object}	errorResp
//	@Failure	403	{object}	errorResp
//	@Failure	404	{object}	errorResp
//	@Router		/api/auth/users/{username}/unlock [post]
func (h *AuthHandler) UnlockAccount(c echo.Context) error {
	username := strings.TrimSpace(c.Param("username"))
	if username == "" {
		return badRequest(c, "username required")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Sessions.UnlockAccount(ctx, username); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, errorResp{Error: "user not found"})
		}
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UsernameCheck reports whether a username is free.
//
//	@Summary	Check username availability
//	@Tags		auth
//	@Produce	json
//	@Param		username	query		string	true	"username"
//	@Success	200			{object}	usernameCheckResp
//	@Router		/api/auth/username/check [get]
func (h *AuthHandler) UsernameCheck(c echo.Context) error {
	username := strings.TrimSpace(c.QueryParam("username"))
	if username == "" {
		return badRequest(c, "username required")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	ok, err := h.Sessions.UsernameAvailable(ctx, username)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, usernameCheckResp{Username: username, Available: ok})
}

// ForgotPassword accepts a reset request. The response is the same
// whether or not the email is registered.
//
//	@Summary	Request a password reset
//	@Tags		auth
//	@Accept		json
//	@Param		body	body	forgotPasswordReq	true	"email"
//	@Success	202
//	@Router		/api/auth/password/forget [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return badRequest(c, "email required")
	}
	h.Sessions.InitPasswordReset(c.Request().Context(), req.Email)
	return c.JSON(http.StatusAccepted, echo.Map{"message": "if the account exists, reset instructions have been sent"})
}

// ResetPassword completes a password reset.
//
//	@Summary	Reset a password
//	@Tags		auth
//	@Accept		json
//	@Param		body	body	resetPasswordReq	true	"token and new password"
//	@Failure	501		{object}	errorResp
//	@Router		/api/auth/password/reset [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil || req.Token == "" || req.NewPassword == "" {
		return badRequest(c, "token/newPassword required")
	}
	if err := h.Sessions.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ChangePassword replaces the caller's password and ends all sessions.
//
//	@Summary	Change password
//	@Tags		auth
//	@Security	BearerAuth
//	@Accept		json
//	@Param		body	body	changePasswordReq	true	"passwords"
//	@Success	204
//	@Failure	400	{object}	errorResp
//	@Failure	401	{object}	errorResp
//	@Router		/api/auth/password/change [post]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil || req.CurrentPassword == "" {
		return badRequest(c, "currentPassword/newPassword required")
	}
	if len(req.NewPassword) < minPasswordLen {
		return badRequest(c, "password must be at least 6 characters")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Sessions.ChangePassword(ctx, p.Username, req.CurrentPassword, req.NewPassword); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me describes the authenticated caller.
//
//	@Summary	Current user
//	@Tags		auth
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	auth.CurrentUserView
//	@Failure	401	{object}	errorResp
//	@Router		/api/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	view, err := h.Sessions.CurrentUser(ctx, p.Username)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorResp{Error: msg})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, errorResp{Error: "authentication required"})
}

// writeError maps auth errors to responses. Anything unrecognized is
// logged and reported as a bare 500.
func writeError(c echo.Context, err error) error {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, auth.ErrAccountDisabled):
		status, msg = http.StatusForbidden, "account disabled"
	case errors.Is(err, auth.ErrAccountLocked):
		status, msg = http.StatusLocked, "account locked"
	case errors.Is(err, auth.ErrUsernameTaken):
		status, msg = http.StatusConflict, "username already exists"
	case errors.Is(err, auth.ErrEmailTaken):
		status, msg = http.StatusConflict, "email already registered"
	case errors.Is(err, auth.ErrRefreshNotFound),
		errors.Is(err, auth.ErrRefreshExpired),
		errors.Is(err, auth.ErrRefreshRevoked):
		status, msg = http.StatusUnauthorized, "invalid refresh token"
	case errors.Is(err, auth.ErrUserNotFound):
		status, msg = http.StatusUnauthorized, "authentication required"
	case errors.Is(err, auth.ErrPasswordResetUnavailable):
		status, msg = http.StatusNotImplemented, "password reset is not available"
	default:
		slogx.FromContext(c.Request().Context()).Error("request failed", "error", err)
	}
	return c.JSON(status, errorResp{Error: msg})
}
