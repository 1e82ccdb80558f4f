package middleware

import (
    "math"
    "net/http"
    "strconv"
    "strings"
    "sync"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "golang.org/x/time/rate"

    "github.com/iliyamo/session-auth/internal/config"
    "github.com/iliyamo/session-auth/internal/slogx"
)

// tokenBucketScript refills and takes one token atomically.  It returns
// {allowed, remaining, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local refill_tokens = tonumber(ARGV[3])
    local interval_ms = tonumber(ARGV[4])
    local ttl_seconds = tonumber(ARGV[5])

    local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
    local tokens = tonumber(state[1])
    local last_refill = tonumber(state[2])
    if tokens == nil or last_refill == nil then
        tokens = capacity
        last_refill = now_ms
    end

    if interval_ms > 0 and refill_tokens > 0 then
        local elapsed = math.max(0, now_ms - last_refill)
        local intervals = math.floor(elapsed / interval_ms)
        if intervals > 0 then
            tokens = math.min(capacity, tokens + (intervals * refill_tokens))
            last_refill = last_refill + (intervals * interval_ms)
        end
    end

    local allowed = 0
    local retry_after_ms = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
    end

    redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
    redis.call('EXPIRE', key, ttl_seconds)
    return { allowed, tokens, retry_after_ms }
`)

// decision is the outcome of one limiter check.
type decision struct {
    allowed    bool
    remaining  int64
    retryAfter time.Duration
}

type limiter interface {
    take(c echo.Context, key string) (decision, error)
}

// NewTokenBucket limits requests per key built from cfg.KeyStrategy.
// Buckets live in Redis when rdb is non-nil so every instance shares them;
// otherwise each process keeps its own.  Redis errors let the request
// through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    var lim limiter
    if rdb != nil {
        lim = &redisLimiter{cfg: cfg, rdb: rdb}
    } else {
        lim = newLocalLimiter(cfg)
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            d, err := lim.take(c, key)
            if err != nil {
                slogx.FromContext(c.Request().Context()).Warn("rate limit check failed", "key", key, "error", err)
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.remaining, 10))
            if cfg.Debug {
                h.Set("X-RateLimit-Key", key)
            }
            if !d.allowed {
                secs := int(math.Ceil(d.retryAfter.Seconds()))
                if secs < 1 {
                    secs = 1
                }
                h.Set("Retry-After", strconv.Itoa(secs))
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "error":       "too_many_requests",
                    "message":     "rate limit exceeded",
                    "retry_after": secs,
                })
            }
            return next(c)
        }
    }
}

type redisLimiter struct {
    cfg config.RateLimitConfig
    rdb *redis.Client
}

func (l *redisLimiter) take(c echo.Context, key string) (decision, error) {
    args := []interface{}{
        time.Now().UnixMilli(),
        l.cfg.Capacity,
        l.cfg.RefillTokens,
        l.cfg.RefillInterval.Milliseconds(),
        int64(l.cfg.TTL / time.Second),
    }
    vals, err := tokenBucketScript.Run(c.Request().Context(), l.rdb, []string{key}, args...).Int64Slice()
    if err != nil {
        return decision{}, err
    }
    if len(vals) != 3 {
        return decision{}, redis.Nil
    }
    return decision{
        allowed:    vals[0] == 1,
        remaining:  vals[1],
        retryAfter: time.Duration(vals[2]) * time.Millisecond,
    }, nil
}

// localLimiter keeps one x/time/rate limiter per key.  Idle limiters are
// dropped on a TTL cadence.
type localLimiter struct {
    limit    rate.Limit
    burst    int
    ttl      time.Duration
    limiters sync.Map // key -> *rate.Limiter

    mu          sync.Mutex
    lastCleanup time.Time
}

func newLocalLimiter(cfg config.RateLimitConfig) *localLimiter {
    perSecond := float64(cfg.RefillTokens) / cfg.RefillInterval.Seconds()
    return &localLimiter{
        limit:       rate.Limit(perSecond),
        burst:       cfg.Capacity,
        ttl:         cfg.TTL,
        lastCleanup: time.Now(),
    }
}

func (l *localLimiter) take(_ echo.Context, key string) (decision, error) {
    v, ok := l.limiters.Load(key)
    if !ok {
        v, _ = l.limiters.LoadOrStore(key, rate.NewLimiter(l.limit, l.burst))
        l.maybeCleanup()
    }
    lim := v.(*rate.Limiter)

    now := time.Now()
    if lim.AllowN(now, 1) {
        return decision{allowed: true, remaining: int64(lim.TokensAt(now))}, nil
    }
    r := lim.ReserveN(now, 1)
    retry := r.DelayFrom(now)
    r.CancelAt(now)
    return decision{retryAfter: retry}, nil
}

func (l *localLimiter) maybeCleanup() {
    l.mu.Lock()
    defer l.mu.Unlock()
    if time.Since(l.lastCleanup) < l.ttl {
        return
    }
    l.lastCleanup = time.Now()
    l.limiters.Range(func(key, value any) bool {
        // A full bucket has not been used for a while.
        if value.(*rate.Limiter).Tokens() >= float64(l.burst) {
            l.limiters.Delete(key)
        }
        return true
    })
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    uid := userID(c)
    route := c.Request().Method + " " + c.Path()

    parts := []string{cfg.Prefix}
    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip":
        parts = append(parts, "ip", ip)
    case "user":
        parts = append(parts, "user", uid)
    case "route":
        parts = append(parts, "route", route)
    case "ip_user":
        parts = append(parts, "ip", ip, "user", uid)
    case "ip_route":
        parts = append(parts, "ip", ip, "route", route)
    case "user_route":
        parts = append(parts, "user", uid, "route", route)
    default:
        parts = append(parts, "ip", ip, "user", uid, "route", route)
    }
    return strings.Join(parts, ":")
}
