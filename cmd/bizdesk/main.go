// Package main запускает HTTP-сервер сервиса bizdesk.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/ralfiz/bizdesk/internal/cache"
	"github.com/ralfiz/bizdesk/internal/config"
	"github.com/ralfiz/bizdesk/internal/format"
	"github.com/ralfiz/bizdesk/internal/handler"
	"github.com/ralfiz/bizdesk/internal/metrics"
	"github.com/ralfiz/bizdesk/internal/repository"
	"github.com/ralfiz/bizdesk/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}

	var rdb *redis.Client
	if cfg.RedisAddress != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			sugar.Warnw("redis is unavailable, search cache will miss", "addr", cfg.RedisAddress, "error", err.Error())
		}
		cancel()
	}

	m := metrics.New("bizdesk", nil)

	svc := service.NewService(repo,
		service.WithCache(cache.New(rdb, "bizdesk:search:", cfg.SearchCacheTTL)),
		service.WithMetrics(m),
		service.WithLogger(logger),
		service.WithTaxRate(cfg.TaxRate()),
	)
	defer svc.Close()

	h := handler.NewHandler(svc, logger, format.NewFormatter(language.English), m)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Фоновое обновление статусов счетов и предложений
	g.Go(func() error {
		sugar.Infow("starting status refresher", "interval", cfg.StatusRefreshInterval.String())
		return svc.RunStatusRefresh(ctx, cfg.StatusRefreshInterval)
	})

	g.Go(func() error {
		sugar.Infow("starting bizdesk server", "addr", cfg.RunAddress)
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
