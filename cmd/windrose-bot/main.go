package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/couchcryptid/windrose-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/windrose-service/internal/adapter/kafka"
	"github.com/couchcryptid/windrose-service/internal/bot"
	"github.com/couchcryptid/windrose-service/internal/config"
	"github.com/couchcryptid/windrose-service/internal/observability"
	"github.com/couchcryptid/windrose-service/internal/pipeline"
	"github.com/couchcryptid/windrose-service/internal/render"
	"github.com/couchcryptid/windrose-service/internal/session"
	"github.com/couchcryptid/windrose-service/internal/windrose"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	renderer, err := newRenderer(cfg)
	if err != nil {
		logger.Error("failed to create renderer", "error", err)
		os.Exit(1)
	}
	svc := windrose.NewService(renderer, logger, metrics)

	store := session.New(cfg.SessionCacheSize, cfg.SessionTTL,
		session.WithEvictionHook(func(r session.EvictReason) {
			metrics.SessionEvictions.WithLabelValues(string(r)).Inc()
		}),
		session.WithSizeObserver(func(n int) {
			metrics.SessionsStored.Set(float64(n))
		}),
	)
	logger.Info("session store ready", "capacity", cfg.SessionCacheSize, "ttl", cfg.SessionTTL)

	handler := bot.NewHandler(store, svc, logger)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(handler)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, svc, cfg.HTTPMaxUploadBytes, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Drop expired sessions in the background.
	go store.RunSweeper(ctx, time.Minute)

	// Start update pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}

func newRenderer(cfg *config.Config) (*render.Renderer, error) {
	opts := []render.Option{render.WithDiameter(cfg.DiagramSize)}
	if cfg.DiagramFontPath != "" {
		font, err := render.LoadFont(cfg.DiagramFontPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, render.WithFont(font))
	}
	return render.New(opts...)
}
