package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voicesocial/internal/db"
	"voicesocial/internal/handlers"
	"voicesocial/internal/metrics"
	"voicesocial/internal/middleware"
	"voicesocial/internal/router"
	"voicesocial/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const pruneInterval = time.Hour

func newServeCommand(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), app)
		},
	}
}

func runServe(ctx context.Context, app *app) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := app.settings()
	if err != nil {
		return err
	}
	conn, err := app.database()
	if err != nil {
		return err
	}
	if err := db.Migrate(conn); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	svc, err := app.buildServices(metrics.New(reg))
	if err != nil {
		return err
	}

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return fmt.Errorf("trusted proxies: %w", err)
	}

	router.RegisterRoutes(r, router.Handlers{
		Voice:        handlers.NewVoiceHandler(svc.voices, svc.ledger, svc.rotation, cfg),
		User:         handlers.NewUserHandler(svc.identity, svc.voices, svc.ledger),
		Notification: handlers.NewNotificationHandler(svc.notifier),
		Leaderboard:  handlers.NewLeaderboardHandler(svc.leaderboard),
		Health:       handlers.NewHealthHandler(conn),
	}, reg)

	go pruneLoop(ctx, svc.rotation, cfg.HistoryRetention(), logger)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Voice Social server starting", "addr", cfg.Server.Addr, "storage", svc.store.Kind(), "database", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// pruneLoop 定期清理过期的推送记录
func pruneLoop(ctx context.Context, rotation *services.RotationService, retention time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := rotation.PruneHistory(ctx, retention); err != nil {
				logger.Warn("prune voice history failed", "error", err)
			}
		}
	}
}
