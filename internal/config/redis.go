package config

// Redis backs the distributed rate limiter on the credential endpoints.
// When it is disabled or unreachable at startup the limiter falls back to
// per-process buckets.

import (
    "context"
    "crypto/tls"
    "log/slog"
    "os"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
)

// NewRedisClient builds a client from REDIS_* variables:
//   REDIS_ENABLED  – "false" skips Redis entirely (default true)
//   REDIS_ADDR     – host:port (default localhost:6379); REDIS_HOST and REDIS_PORT override it
//   REDIS_PASSWORD – optional password
//   REDIS_DB       – database number (default 0)
//   REDIS_TLS      – enable TLS when "true" or "1"
// It returns nil when Redis is disabled or the ping fails.
func NewRedisClient(log *slog.Logger) *redis.Client {
    if !envBool("REDIS_ENABLED", true) {
        return nil
    }
    addr := envStr("REDIS_ADDR", "localhost:6379")
    if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
        addr = host + ":" + port
    }
    var tlsConf *tls.Config
    if v := os.Getenv("REDIS_TLS"); strings.EqualFold(v, "true") || v == "1" {
        tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      addr,
        Password:  os.Getenv("REDIS_PASSWORD"),
        DB:        envInt("REDIS_DB", 0),
        TLSConfig: tlsConf,
    })

    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        log.Warn("redis unavailable, using in-process rate limiting", "addr", addr, "error", err)
        _ = client.Close()
        return nil
    }
    return client
}
