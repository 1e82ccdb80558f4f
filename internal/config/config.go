package config // package config loads application configuration from environment variables

import (
    "errors"
    "fmt"
    "log"
    "os"
    "strings"
    "time"
)

// DefaultSkipPaths lists the path prefixes the authentication filter
// ignores when AUTH_SKIP_PATHS is unset.
var DefaultSkipPaths = []string{
    "/api/auth/login",
    "/api/auth/register",
    "/api/auth/token/refresh",
    "/api/auth/username",
    "/api/auth/password/forget",
    "/api/auth/password/reset",
    "/swagger",
    "/v3/api-docs",
    "/healthz",
    "/favicon.ico",
}

// minSecretLength mirrors auth.MinSecretLength; config does not import auth.
const minSecretLength = 32

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
    Env     string // application environment (e.g. "dev", "prod")
    Port    string // HTTP port to listen on
    Version string // build version reported in logs

    DBDriver   string // "mysql" or "sqlite"
    DBUser     string // database username
    DBPass     string // database password (optional)
    DBHost     string // database host address
    DBPort     string // database port number
    DBName     string // database name
    SQLitePath string // database file when DBDriver is "sqlite"

    JWTSecret  string        // secret used to sign JWTs (HS512, >= 32 bytes)
    AccessTTL  time.Duration // access token time-to-live
    RefreshTTL time.Duration // refresh token time-to-live
    BcryptCost int           // bcrypt cost for password hashing

    LockoutThreshold int           // failed logins before the account locks; <= 0 disables
    LockoutDuration  time.Duration // how long a lock lasts

    SkipPaths     []string      // path prefixes the auth filter ignores
    SweepInterval time.Duration // period of the expired refresh token sweep

    AMQPURL       string // RabbitMQ URL for audit events; empty disables publishing
    AuditConsumer bool   // run the audit log consumer in-process
    AuditLogDir   string // directory of the audit log file

    LogLevel  string // debug, info, warn, error
    LogFormat string // json or text
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    cfg := Config{
        Env:     must("APP_ENV"),
        Port:    must("APP_PORT"),
        Version: envStr("APP_VERSION", "dev"),

        DBDriver:   strings.ToLower(envStr("DB_DRIVER", "mysql")),
        DBPass:     os.Getenv("DB_PASS"), // empty allowed
        SQLitePath: envStr("SQLITE_PATH", "session-auth.db"),

        JWTSecret:  must("JWT_SECRET"),
        AccessTTL:  time.Duration(envInt("ACCESS_TOKEN_TTL_MIN", 15)) * time.Minute,
        RefreshTTL: time.Duration(envInt("REFRESH_TOKEN_TTL_DAYS", 7)) * 24 * time.Hour,
        BcryptCost: envInt("BCRYPT_COST", 10),

        LockoutThreshold: envInt("LOCKOUT_THRESHOLD", 5),
        LockoutDuration:  envDur("LOCKOUT_DURATION", 30*time.Minute),

        SkipPaths:     envList("AUTH_SKIP_PATHS", DefaultSkipPaths),
        SweepInterval: envDur("SWEEP_INTERVAL", 24*time.Hour),

        AMQPURL:       os.Getenv("AMQP_URL"),
        AuditConsumer: envBool("AUDIT_CONSUMER_ENABLED", false),
        AuditLogDir:   envStr("AUDIT_LOG_DIR", "logs"),

        LogLevel:  envStr("LOG_LEVEL", "info"),
        LogFormat: envStr("LOG_FORMAT", "json"),
    }
    if cfg.DBDriver == "mysql" {
        cfg.DBUser = must("DB_USER")
        cfg.DBHost = must("DB_HOST")
        cfg.DBPort = must("DB_PORT")
        cfg.DBName = must("DB_NAME")
    }
    return cfg
}

// Validate reports values that are present but unusable.  The service must
// not start when it returns an error.
func (c Config) Validate() error {
    var errs []error
    if len(c.JWTSecret) < minSecretLength {
        errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLength))
    }
    switch c.DBDriver {
    case "mysql", "sqlite":
    default:
        errs = append(errs, fmt.Errorf("DB_DRIVER %q is not supported", c.DBDriver))
    }
    if c.AccessTTL <= 0 {
        errs = append(errs, errors.New("ACCESS_TOKEN_TTL_MIN must be positive"))
    }
    if c.RefreshTTL <= 0 {
        errs = append(errs, errors.New("REFRESH_TOKEN_TTL_DAYS must be positive"))
    }
    if c.LockoutThreshold > 0 && c.LockoutDuration <= 0 {
        errs = append(errs, errors.New("LOCKOUT_DURATION must be positive when lockout is enabled"))
    }
    if c.SweepInterval <= 0 {
        errs = append(errs, errors.New("SWEEP_INTERVAL must be positive"))
    }
    return errors.Join(errs...)
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// envList splits a comma-separated variable, dropping empty items.
func envList(k string, d []string) []string {
    v := os.Getenv(k)
    if v == "" {
        return append([]string(nil), d...)
    }
    var out []string
    for _, p := range strings.Split(v, ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}
