package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"owndrob/internal/app"
	"owndrob/internal/platform/config"
	"owndrob/internal/platform/httpserver"
	"owndrob/internal/platform/logger"
	"owndrob/internal/platform/metrics"
	"owndrob/internal/platform/postgres"
)

// main wires dependencies, serves HTTP and runs the background mirror
// reconciler until SIGINT/SIGTERM. Business logic lives in internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("closing resources", "error", err)
		}
	}()

	if a.DB != nil {
		if err := postgres.ApplySchema(ctx, a.DB); err != nil {
			return err
		}
	}

	srv := httpserver.New(cfg.Addr, a.Router(metrics.New()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting owndrob", "addr", cfg.Addr, "object_store", cfg.ObjectStore.Backend, "session_store", cfg.SessionStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return a.Reconciler.Run(gctx)
	})
	if cleanup := a.SessionCleanup(); cleanup != nil {
		g.Go(func() error {
			return cleanup(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.ShutdownGrace)
		defer cancel()
		log.Info("shutting down", "grace", cfg.ShutdownGrace)
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
