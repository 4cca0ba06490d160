// Package main Campus Equipment Borrowing API
//
// @title           Campus Equipment Borrowing API
// @version         1.0
// @description     Borrow request lifecycle, email-verified accounts and admin equipment tracking.
//
// @host      localhost:8080
// @BasePath  /api
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/dtc-ibs/borrowing-api/internal/api"
	"github.com/dtc-ibs/borrowing-api/internal/api/handler"
	"github.com/dtc-ibs/borrowing-api/internal/core/ports"
	"github.com/dtc-ibs/borrowing-api/internal/core/service"
	"github.com/dtc-ibs/borrowing-api/internal/infrastructure/config"
	mongostore "github.com/dtc-ibs/borrowing-api/internal/infrastructure/db/mongo"
	"github.com/dtc-ibs/borrowing-api/internal/infrastructure/db/postgres"
	redisstore "github.com/dtc-ibs/borrowing-api/internal/infrastructure/db/redis"
	"github.com/dtc-ibs/borrowing-api/internal/infrastructure/mail"
	"github.com/dtc-ibs/borrowing-api/internal/infrastructure/notify"
	"github.com/dtc-ibs/borrowing-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "borrowing-api",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Relational store ---
	db, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.Database.DSN()})
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if cfg.MigrateOnStart {
		if err := postgres.Migrate(db); err != nil {
			return err
		}
		log.Info().Msg("database migrations applied")
	}

	checks := map[string]handler.PingFunc{}

	// --- Optional submission guard ---
	var guard ports.SubmissionGuard
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		guard = redisstore.NewSubmissionGuard(rdb)
		checks["redis"] = func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }
	} else {
		log.Warn().Msg("REDIS_ADDR not set, submission guard disabled")
	}

	// --- Optional audit trail ---
	var (
		recorder ports.AuditRecorder
		history  ports.AuditHistory
	)
	if cfg.Mongo.URI != "" {
		client, mdb, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(dctx)
		}()
		audit := mongostore.NewAuditRepository(mdb)
		if err := audit.EnsureIndexes(ctx); err != nil {
			return err
		}
		recorder, history = audit, audit
		checks["mongodb"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
	} else {
		log.Warn().Msg("MONGO_URI not set, audit trail disabled")
	}

	// --- Email ---
	mailCfg := mail.Config{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		User:     cfg.Email.User,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
	}
	verificationMailer, notificationMailer := mail.ForEnvironment(mailCfg, cfg.IsDevelopment(), logger.Component("mail"))

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher := notify.NewDispatcher(cfg.NotifyWorkers, notificationMailer, logger.Component("notify"))
	dispatcher.Start(workerCtx)
	defer func() {
		stopWorkers()
		dispatcher.Wait()
	}()

	// --- Core services ---
	emailPattern, err := cfg.EmailRegexp()
	if err != nil {
		return err
	}
	tokens := service.NewTokenManager(cfg.JWTSecret, cfg.SessionTTL)
	authService := service.NewAuthService(
		postgres.NewAccountRepository(db),
		tokens,
		verificationMailer,
		dispatcher,
		service.AuthConfig{
			PublicURL:    cfg.PublicURL,
			EmailPattern: emailPattern,
			NotifyTo:     cfg.Email.To,
		},
		logger.Component("auth"),
	)
	borrowService := service.NewBorrowService(
		postgres.NewBorrowRepository(db),
		recorder,
		guard,
		logger.Component("borrow"),
	)

	e := api.NewRouter(api.Deps{
		Auth:           authService,
		Items:          service.NewItemService(postgres.NewItemRepository(db)),
		Borrow:         borrowService,
		Gate:           service.NewGate(tokens),
		Audit:          history,
		DatabasePing:   func(ctx context.Context) error { return postgres.Ping(ctx, db) },
		Checks:         checks,
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
		Log:            logger.Component("http"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
