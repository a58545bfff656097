// @title          Reelbase API
// @version        1.0
// @description    Accounts, email verification, watchlists and reviews for the Reelbase movie and TV catalog.
// @BasePath       /
// @securityDefinitions.apikey BearerAuth
// @in             header
// @name           Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelbase/reelbase-api/internal/api"
	"github.com/reelbase/reelbase-api/internal/api/handler"
	"github.com/reelbase/reelbase-api/internal/api/middleware"
	"github.com/reelbase/reelbase-api/internal/core/service"
	mongodb "github.com/reelbase/reelbase-api/internal/infrastructure/db/mongo"
	redisdb "github.com/reelbase/reelbase-api/internal/infrastructure/db/redis"
	"github.com/reelbase/reelbase-api/internal/infrastructure/mail"
	"github.com/reelbase/reelbase-api/internal/pkg/config"
	"github.com/reelbase/reelbase-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		l := logger.Get()
		l.Fatal().Err(err).Msg("api stopped")
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Init(logger.Options{Service: "reelbase-api"})
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "reelbase-api",
	})

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(dctx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()
	log.Info().Str("database", cfg.Mongo.Database).Msg("mongo connected")

	users := mongodb.NewUserRepository(db)
	reviews := mongodb.NewReviewRepository(db)
	if err := mongodb.EnsureIndexes(ctx, users, reviews); err != nil {
		return err
	}

	health := map[string]handler.Pinger{"mongodb": mongodb.Pinger{Client: mongoClient}}

	var idempotency middleware.IdempotencyStore
	if cfg.Redis.Enabled {
		rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, Idempotency-Key handling disabled")
		} else {
			defer rdb.Close()
			idempotency = redisdb.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL)
			health["redis"] = redisdb.Pinger{Client: rdb}
		}
	}

	mailer, err := newMailer(cfg, log)
	if err != nil {
		return err
	}

	tokens := service.NewJWTService(cfg.JWTSecret, cfg.JWTTTL)
	accounts := service.NewAccountService(
		users,
		tokens,
		service.NewVerificationTokens(),
		mail.NewVerificationMailer(mailer, cfg.Mail.From, cfg.ClientURL),
		logger.Component("accounts"),
	)

	e := api.NewRouter(api.Dependencies{
		Accounts:     accounts,
		Watchlist:    service.NewWatchlistService(users, logger.Component("watchlist")),
		Reviews:      service.NewReviewService(reviews, users, logger.Component("reviews")),
		Tokens:       tokens,
		Idempotency:  idempotency,
		Health:       health,
		AllowOrigins: []string{cfg.ClientURL},
		Log:          logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(sctx)
}

func newMailer(cfg *config.Config, log zerolog.Logger) (mail.Mailer, error) {
	if cfg.Mail.Driver != "smtp" {
		return mail.NewLogMailer(logger.Component("mail")), nil
	}
	log.Info().Str("host", cfg.Mail.Host).Int("port", cfg.Mail.Port).Msg("smtp mailer enabled")
	return mail.NewSMTPMailer(mail.SMTPSettings{
		Enabled:  true,
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		UseTLS:   cfg.Mail.UseTLS,
	})
}
