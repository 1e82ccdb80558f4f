package config

import (
    "strings"
    "testing"
    "time"

    "github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
    t.Helper()
    t.Setenv("APP_ENV", "test")
    t.Setenv("APP_PORT", "8080")
    t.Setenv("DB_DRIVER", "sqlite")
    t.Setenv("JWT_SECRET", strings.Repeat("k", 64))
}

func TestLoadDefaults(t *testing.T) {
    setRequired(t)
    t.Setenv("AUTH_SKIP_PATHS", "")

    cfg := Load()
    require.Equal(t, "sqlite", cfg.DBDriver)
    require.Equal(t, 15*time.Minute, cfg.AccessTTL)
    require.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
    require.Equal(t, 5, cfg.LockoutThreshold)
    require.Equal(t, 30*time.Minute, cfg.LockoutDuration)
    require.Equal(t, DefaultSkipPaths, cfg.SkipPaths)
    require.Equal(t, 24*time.Hour, cfg.SweepInterval)
    require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
    setRequired(t)
    t.Setenv("ACCESS_TOKEN_TTL_MIN", "5")
    t.Setenv("REFRESH_TOKEN_TTL_DAYS", "1")
    t.Setenv("LOCKOUT_THRESHOLD", "3")
    t.Setenv("LOCKOUT_DURATION", "10m")
    t.Setenv("AUTH_SKIP_PATHS", " /public , ,/healthz")
    t.Setenv("AUDIT_CONSUMER_ENABLED", "yes")

    cfg := Load()
    require.Equal(t, 5*time.Minute, cfg.AccessTTL)
    require.Equal(t, 24*time.Hour, cfg.RefreshTTL)
    require.Equal(t, 3, cfg.LockoutThreshold)
    require.Equal(t, 10*time.Minute, cfg.LockoutDuration)
    require.Equal(t, []string{"/public", "/healthz"}, cfg.SkipPaths)
    require.True(t, cfg.AuditConsumer)
}

func TestValidate(t *testing.T) {
    good := Config{
        DBDriver:         "mysql",
        JWTSecret:        strings.Repeat("k", 32),
        AccessTTL:        time.Minute,
        RefreshTTL:       time.Hour,
        LockoutThreshold: 5,
        LockoutDuration:  time.Minute,
        SweepInterval:    time.Hour,
    }
    require.NoError(t, good.Validate())

    short := good
    short.JWTSecret = "too-short"
    require.ErrorContains(t, short.Validate(), "JWT_SECRET")

    driver := good
    driver.DBDriver = "oracle"
    require.ErrorContains(t, driver.Validate(), "DB_DRIVER")

    lock := good
    lock.LockoutDuration = 0
    require.ErrorContains(t, lock.Validate(), "LOCKOUT_DURATION")

    lock.LockoutThreshold = 0
    require.NoError(t, lock.Validate())
}

func TestLoadRateLimitConfigNormalizes(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
    t.Setenv("RATE_LIMIT_TTL", "1s")

    cfg := LoadRateLimitConfig()
    require.Equal(t, 1, cfg.Capacity)
    require.Equal(t, 2*time.Second, cfg.RefillInterval)
    require.Equal(t, 10*time.Second, cfg.TTL)
    require.Equal(t, "ip_route", cfg.KeyStrategy)
}
