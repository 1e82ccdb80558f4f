package slogx

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestNewWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(Config{Service: "session-auth", Version: "1.0", Env: "test", Level: "warn"}, &buf)

	log.Info("dropped")
	require.Zero(t, buf.Len())

	log.Warn("kept", "k", "v")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "kept", entry["msg"])
	require.Equal(t, "session-auth", entry["service"])
	require.Equal(t, "v", entry["k"])
}

func TestFromContextDefault(t *testing.T) {
	require.Equal(t, slog.Default(), FromContext(context.Background()))

	l := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	require.Same(t, l, FromContext(WithContext(context.Background(), l)))
}

func TestEchoMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := NewWriter(Config{Format: "json"}, &buf)

	e := echo.New()
	e.Use(EchoMiddleware(base))
	var sawLogger bool
	e.GET("/ping", func(c echo.Context) error {
		sawLogger = FromContext(c.Request().Context()) != slog.Default()
		return c.String(http.StatusOK, "pong")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "req-123", rec.Header().Get(echo.HeaderXRequestID))
	require.True(t, sawLogger)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "http_request", entry["msg"])
	require.Equal(t, "req-123", entry["req_id"])
	require.EqualValues(t, 200, entry["status"])
}
