package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/session-auth/internal/auth"
	"github.com/iliyamo/session-auth/internal/config"
	"github.com/iliyamo/session-auth/internal/database"
	"github.com/iliyamo/session-auth/internal/handler"
	"github.com/iliyamo/session-auth/internal/queue"
	"github.com/iliyamo/session-auth/internal/repository"
	"github.com/iliyamo/session-auth/internal/router"
	"github.com/iliyamo/session-auth/internal/service"
	"github.com/iliyamo/session-auth/internal/slogx"
)

//	@title			Session Auth API
//	@version		1.0
//	@description	Token-based authentication and session lifecycle.
//	@BasePath		/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
func main() {
	_ = godotenv.Load() // .env is optional; real environment wins

	cfg := config.Load()
	log := slogx.New(slogx.Config{
		Service: "session-auth",
		Version: cfg.Version,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
	if err := cfg.Validate(); err != nil {
		fatal(log, "invalid configuration", err)
	}

	db, err := openDB(cfg)
	if err != nil {
		fatal(log, "database connection failed", err)
	}
	defer db.Close()
	if err := database.Migrate(db, cfg.DBDriver); err != nil {
		fatal(log, "database migration failed", err)
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	opts := []auth.Option{auth.WithLogger(log)}

	codec, err := auth.NewTokenCodec(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL, opts...)
	if err != nil {
		fatal(log, "signing key rejected", err)
	}
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	sessions := auth.NewRefreshSessionManager(tokens, users, codec, cfg.RefreshTTL, opts...)
	verifier := auth.NewCredentialVerifier(users, hasher, sessions, auth.LockoutPolicy{
		Threshold: cfg.LockoutThreshold,
		Duration:  cfg.LockoutDuration,
	}, opts...)

	var events auth.EventPublisher
	if cfg.AMQPURL != "" {
		pub := service.NewAMQPPublisher(cfg.AMQPURL, log)
		defer pub.Close()
		events = pub
		if cfg.AuditConsumer {
			go queue.StartAuditConsumer(cfg.AMQPURL, cfg.AuditLogDir, log)
		}
	}
	facade := auth.NewSessionFacade(users, hasher, verifier, sessions, codec, events, opts...)

	sweeper := service.NewSweeper(sessions, log, cfg.SweepInterval)
	sweeper.Start()
	defer sweeper.Stop()

	e := router.New(router.Deps{
		DB:        db,
		Auth:      handler.NewAuthHandler(facade),
		Codec:     codec,
		Users:     users,
		SkipPaths: cfg.SkipPaths,
		RateLimit: config.LoadRateLimitConfig(),
		Redis:     config.NewRedisClient(log),
		Logger:    log,
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", "addr", addr, "db_driver", cfg.DBDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "server failed", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	log.Info("server stopped")
}

func openDB(cfg config.Config) (*sql.DB, error) {
	if cfg.DBDriver == database.DriverSQLite {
		return database.OpenSQLite(cfg.SQLitePath)
	}
	return database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}
