package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/smartcart/internal/config"
	"github.com/Skotchmaster/smartcart/internal/db"
	"github.com/Skotchmaster/smartcart/internal/hash"
	"github.com/Skotchmaster/smartcart/internal/httpserver"
	"github.com/Skotchmaster/smartcart/internal/logging"
	"github.com/Skotchmaster/smartcart/internal/mykafka"
	"github.com/Skotchmaster/smartcart/internal/repo"
	"github.com/Skotchmaster/smartcart/internal/service"
	"github.com/Skotchmaster/smartcart/internal/tokens"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName, "env", cfg.Env)
	slog.SetDefault(logger)
	if cfg.UsingDevSecret {
		logger.Warn("jwt_secret_missing", "reason", "using development default, never do this in production")
	}

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}

	issuer, err := tokens.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}

	store := &repo.GormRepo{DB: gdb}
	svc := &service.AuthService{
		Store:       store,
		Hasher:      hash.New(cfg.BcryptCost),
		Tokens:      issuer,
		EventsTopic: cfg.KafkaTopic,
	}

	var prod *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod, err = mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka producer: %v", err)
		}
		prod.Timeout = cfg.PublishTimeout
		svc.Events = prod
	}

	if cfg.AdminEmail != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		created, err := svc.EnsureAdmin(logging.IntoContext(ctx, logger), cfg.AdminEmail, cfg.AdminPassword)
		cancel()
		if err != nil {
			log.Fatalf("bootstrap admin: %v", err)
		}
		logger.Info("bootstrap_admin", "created", created)
	}

	e := httpserver.NewEcho(logger)
	if err := httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: svc},
		UserHandler: &httpserver.UserHTTP{Svc: svc},
		Tokens:      issuer,
		DB:          store,
	}); err != nil {
		log.Fatalf("router: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if prod != nil {
		if err := prod.Close(); err != nil {
			logger.Error("kafka close", "error", err)
		}
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db close", "error", err)
	}

	logger.Info("shutdown complete")
}
