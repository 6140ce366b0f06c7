// Command coffeeshop runs the backend API server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"coffeeshop-backend/internal/auth"
	"coffeeshop-backend/internal/auth/token"
	"coffeeshop-backend/internal/config"
	"coffeeshop-backend/internal/httpapi"
	"coffeeshop-backend/internal/password"
	"coffeeshop-backend/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := store.Migrate(cfg.DatabaseURL); err != nil {
		return err
	}
	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = rdb.Close() }()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return err
	}

	codec, err := token.NewCodec([]byte(cfg.Auth.Secret), cfg.Auth.Issuer)
	if err != nil {
		return err
	}

	users := store.NewUserRepo(db)
	sessions, err := auth.NewManager(
		codec,
		users,
		password.NewBcrypt(cfg.Auth.BcryptCost),
		store.NewSessionStateRepo(db),
		store.NewRevocationRepo(rdb, ""),
		auth.Config{AccessTTL: cfg.Auth.AccessTTL, RefreshTTL: cfg.Auth.RefreshTTL},
	)
	if err != nil {
		return err
	}

	hasher := password.NewBcrypt(cfg.Auth.BcryptCost)
	handler := httpapi.NewRouter(httpapi.RouterDeps{
		Validator: sessions,
		Auth: &httpapi.AuthHandlers{
			Sessions:  sessions,
			Users:     users,
			Passwords: hasher,
			Logger:    logger,
		},
		Users:       &httpapi.UserHandlers{Users: users, Passwords: hasher, Logger: logger},
		Products:    &httpapi.ProductHandlers{Products: store.NewProductRepo(db), Logger: logger},
		Orders:      &httpapi.OrderHandlers{Orders: store.NewOrderRepo(db), Logger: logger},
		CORSOrigins: cfg.HTTP.CORSOrigins,
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
