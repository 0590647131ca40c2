package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"shopper/internal/cleanup"
	"shopper/internal/config"
	mydb "shopper/internal/db"
	"shopper/internal/imagestore"
	"shopper/internal/metrics"
	"shopper/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := newLogger(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := mydb.Open(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := mydb.Close(conn); err != nil {
			logger.Error("closing database", slog.String("error", err.Error()))
		}
	}()
	logger.Info("database ready")

	images, err := imagestore.New(cfg.Images)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	queue, closeQueue, err := cleanup.New(ctx, cfg.Cleanup, images, logger, m)
	if err != nil {
		return err
	}
	defer closeQueue()

	srv, err := server.New(cfg, server.Deps{
		DB:       conn,
		Images:   images,
		Queue:    queue,
		Metrics:  m,
		Gatherer: reg,
	}, logger)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
