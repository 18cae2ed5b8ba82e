package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/riksdagskollen/riksdagsanalys/internal/adapters/http"
	"github.com/riksdagskollen/riksdagsanalys/internal/bootstrap"
	"github.com/riksdagskollen/riksdagsanalys/internal/config"
	"github.com/riksdagskollen/riksdagsanalys/internal/observability/logging"
	"github.com/riksdagskollen/riksdagsanalys/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.Setup("riksdagsanalys-api", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	router := httpadapter.NewRouter(
		app.SubmitUC,
		app.PollUC,
		app.ResultsUC,
		app.SyncUC,
		app.Jobs,
		httpadapter.RouterOptions{
			AdminToken:      cfg.AdminToken,
			DefaultSessions: cfg.Sessions,
			RateLimitRPS:    cfg.RateLimitRPS,
			RateLimitBurst:  cfg.RateLimitBurst,
			Metrics:         metrics.NewHTTPServerMetrics("riksdagsanalys-api"),
		},
	)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api shutdown failed", "error", err)
	}
}
