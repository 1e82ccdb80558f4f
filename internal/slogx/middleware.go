package slogx

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// EchoMiddleware logs each request once it completes and attaches a
// request-scoped logger to the request context. The request ID is taken
// from X-Request-ID or generated, and echoed back in the response.
func EchoMiddleware(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			reqID := req.Header.Get(echo.HeaderXRequestID)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, reqID)

			logger := base.With(
				"req_id", reqID,
				"method", req.Method,
				"path", req.URL.Path,
				"remote_addr", c.RealIP(),
			)
			c.SetRequest(req.WithContext(WithContext(req.Context(), logger)))

			err := next(c)
			if err != nil {
				// Let echo write the error response so the status is final.
				c.Error(err)
			}

			level := slog.LevelInfo
			status := c.Response().Status
			if status >= 500 {
				level = slog.LevelError
			}
			logger.Log(req.Context(), level, "http_request",
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"user_agent", req.UserAgent(),
			)
			return nil
		}
	}
}
