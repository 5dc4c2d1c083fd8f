// Package main запускает HTTP-сервер витрины.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/shopnest/internal/config"
	"github.com/mmeshcher/shopnest/internal/handler"
	"github.com/mmeshcher/shopnest/internal/mailer"
	"github.com/mmeshcher/shopnest/internal/middleware"
	"github.com/mmeshcher/shopnest/internal/repository"
	"github.com/mmeshcher/shopnest/internal/service"
)

func main() {
	cfg, err := config.Parse()
	if err != nil {
		boot, _ := zap.NewProduction()
		boot.Sugar().Fatalw("configuration error", "error", err.Error())
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	sugar := logger.Sugar()

	repo, err := newRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}
	if cfg.DatabaseURI == "" {
		sugar.Warn("DATABASE_URI is empty, using in-memory store")
	}

	var sender mailer.Sender = mailer.NewLogSender(logger)
	if cfg.MailAPIAddress != "" {
		sender = mailer.NewClient(cfg.MailAPIAddress, cfg.MailFrom)
	}

	svc := service.NewService(repo, sender, logger, service.Options{
		StockMode:            service.StockMode(cfg.StockMode),
		ResetTokenTTL:        cfg.ResetTokenTTL,
		ResetCleanupInterval: cfg.ResetCleanupInterval,
	})
	defer svc.Close()

	if cfg.JWTSecret == "" {
		sugar.Warn("JWT_SECRET is empty, tokens will not survive a restart")
	}
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret, cfg.JWTExpire).
		WithUserLookup(func(ctx context.Context, id uuid.UUID) (string, error) {
			u, err := svc.GetUserDetails(ctx, id)
			if err != nil {
				return "", err
			}
			return u.Role, nil
		})
	h := handler.NewHandler(svc, logger, authMiddleware)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Очистка просроченных токенов восстановления пароля
	g.Go(func() error {
		svc.StartResetTokenCleanup(ctx)
		return nil
	})

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting shopnest server", "addr", cfg.RunAddress, "stock_mode", cfg.StockMode)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newRepository(dsn string) (service.Repository, error) {
	if dsn == "" {
		return repository.NewMemoryRepository(), nil
	}
	repo, err := repository.NewPostgresRepository(dsn)
	if err != nil {
		return nil, err
	}
	return repo, nil
}
