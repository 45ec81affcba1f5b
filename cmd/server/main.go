package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"learnfinity/internal/app"
	"learnfinity/internal/config"
	"learnfinity/internal/database/migration"
	"learnfinity/internal/pkg/logger"
	"learnfinity/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg, err := logger.New(cfg.App.Environment)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer lg.Sync()

	bootstrap, cleanup, err := app.Bootstrap(cfg, lg)
	if err != nil {
		lg.Error("failed to bootstrap app", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := cleanup(); err != nil {
			lg.Warn("cleanup error", "error", err)
		}
	}()

	migCtx, migCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	r := migration.Runner{Source: migrations.FS, Logf: func(format string, args ...any) { lg.SugaredLogger.Infof(format, args...) }}
	applied, err := r.Run(migCtx, bootstrap.Container.DB.SQLDB())
	migCancel()
	if err != nil {
		lg.Error("migration failed", "error", err)
		os.Exit(1)
	}
	lg.Info("migrations applied", "count", applied)

	addr, err := app.ListenAddr(cfg.App.HTTPPort)
	if err != nil {
		lg.Error("invalid HTTP port", "error", err)
		os.Exit(1)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	bootstrap.Container.ExportGauges()
	if hub := bootstrap.Container.Hub; hub != nil {
		go hub.Run(ctx)
	}
	queue := bootstrap.Container.QueueWorker()
	queue.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		lg.Info("http server listening", "addr", addr)
		errCh <- bootstrap.Fiber.Listen(addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			lg.Error("server error", "error", err)
		}
	case sig := <-sigCh:
		lg.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := bootstrap.Fiber.ShutdownWithContext(shutdownCtx); err != nil {
			lg.Warn("shutdown error", "error", err)
		}
		cancel()
	}

	stop()
	queue.Wait()
}
