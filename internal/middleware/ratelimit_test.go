package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/session-auth/internal/config"
)

func limitedServer(cfg config.RateLimitConfig, rdb *redis.Client) *echo.Echo {
    e := echo.New()
    e.POST("/api/auth/login", func(c echo.Context) error {
        return c.NoContent(http.StatusOK)
    }, NewTokenBucket(cfg, rdb))
    return e
}

func hit(e *echo.Echo, ip string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
    req.Header.Set(echo.HeaderXRealIP, ip)
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func testRateConfig() config.RateLimitConfig {
    return config.RateLimitConfig{
        Enabled:        true,
        Capacity:       3,
        RefillTokens:   1,
        RefillInterval: time.Minute,
        TTL:            10 * time.Minute,
        KeyStrategy:    "ip_route",
        Prefix:         "test_rl",
    }
}

func TestTokenBucketRedis(t *testing.T) {
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = rdb.Close() })
    e := limitedServer(testRateConfig(), rdb)

    for i := 0; i < 3; i++ {
        rec := hit(e, "203.0.113.1")
        require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
        require.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
    }
    rec := hit(e, "203.0.113.1")
    require.Equal(t, http.StatusTooManyRequests, rec.Code)
    require.NotEmpty(t, rec.Header().Get("Retry-After"))

    // Buckets are per client.
    require.Equal(t, http.StatusOK, hit(e, "203.0.113.2").Code)

    keys := mr.Keys()
    require.Contains(t, keys, "test_rl:ip:203.0.113.1:route:POST /api/auth/login")
}

func TestTokenBucketRedisFailureLetsRequestsThrough(t *testing.T) {
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
    t.Cleanup(func() { _ = rdb.Close() })
    e := limitedServer(testRateConfig(), rdb)
    mr.Close()

    for i := 0; i < 5; i++ {
        require.Equal(t, http.StatusOK, hit(e, "203.0.113.1").Code)
    }
}

func TestTokenBucketLocalFallback(t *testing.T) {
    e := limitedServer(testRateConfig(), nil)

    for i := 0; i < 3; i++ {
        require.Equal(t, http.StatusOK, hit(e, "198.51.100.1").Code)
    }
    rec := hit(e, "198.51.100.1")
    require.Equal(t, http.StatusTooManyRequests, rec.Code)
    require.Equal(t, "60", rec.Header().Get("Retry-After"))
    require.Equal(t, http.StatusOK, hit(e, "198.51.100.2").Code)
}

func TestTokenBucketDisabled(t *testing.T) {
    cfg := testRateConfig()
    cfg.Enabled = false
    e := limitedServer(cfg, nil)
    for i := 0; i < 10; i++ {
        require.Equal(t, http.StatusOK, hit(e, "198.51.100.1").Code)
    }
}
