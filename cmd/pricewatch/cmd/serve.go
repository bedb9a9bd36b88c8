package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ecwatch/pricewatch/internal/api/handlers"
	"github.com/ecwatch/pricewatch/internal/api/middleware"
	"github.com/ecwatch/pricewatch/internal/config"
	"github.com/ecwatch/pricewatch/internal/history"
	"github.com/ecwatch/pricewatch/internal/store"
	"github.com/ecwatch/pricewatch/internal/tracking"
	"github.com/ecwatch/pricewatch/pkg/advisor"
	"github.com/ecwatch/pricewatch/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and reconciliation scheduler",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	st, err := store.NewPostgresStore(ctx, cfg.Database.DSN(),
		store.WithPoolSize(cfg.Database.PoolSize))
	cancel()
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer st.Close()

	svc := history.NewService(st,
		history.WithLogger(log),
		history.WithThresholds(advisor.Thresholds{
			MinHistoryMonths:   cfg.Advisor.MinHistoryMonths,
			DoNotBuyMaxPercent: cfg.Advisor.DoNotBuyMaxPercent,
			NeutralMaxPercent:  cfg.Advisor.NeutralMaxPercent,
		}),
	)

	manager := tracking.NewManager(st,
		tracking.WithLogger(log),
		tracking.WithFavoriteLimit(cfg.Tracking.FavoriteLimit),
		tracking.WithMaxAttempts(cfg.Tracking.MaxAttempts),
	)

	reconciler := tracking.NewReconciler(st, log)
	scheduler, err := tracking.NewScheduler(reconciler, cfg.Schedule.ReconcileInterval, log)
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	e.Use(middleware.Recovery(log))
	e.Use(middleware.RequestLog(log))
	e.Use(middleware.Metrics())

	healthHandler := handlers.NewHealthHandler(st)
	e.GET("/healthz", healthHandler.Healthz)
	e.GET("/readyz", healthHandler.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	historyHandler := handlers.NewHistoryHandler(svc)
	e.GET("/api/v1/products/:id/chart", historyHandler.Chart)
	e.GET("/api/v1/products/:id/summary", historyHandler.Summary)
	e.GET("/api/v1/products/:id/suggestion", historyHandler.Suggestion)

	limited := middleware.RateLimit(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst)

	trackingHandler := handlers.NewTrackingHandler(st, manager)
	e.GET("/api/v1/users/:user_id/favorites", trackingHandler.ListFavorites)
	e.PUT("/api/v1/users/:user_id/favorites/:product_id",
		trackingHandler.AddFavorite, limited)
	e.DELETE("/api/v1/users/:user_id/favorites/:product_id",
		trackingHandler.RemoveFavorite, limited)
	e.PUT("/api/v1/users/:user_id/favorites/:product_id/alerts/:channel",
		trackingHandler.SetAlert, limited)

	scheduler.Start()
	defer scheduler.Stop()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("starting server", "addr", addr)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	log.Info("server stopped")
	return nil
}
