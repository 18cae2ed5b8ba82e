package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/riksdagskollen/riksdagsanalys/internal/bootstrap"
	"github.com/riksdagskollen/riksdagsanalys/internal/config"
	"github.com/riksdagskollen/riksdagsanalys/internal/core/domain"
	"github.com/riksdagskollen/riksdagsanalys/internal/observability/logging"
	"github.com/riksdagskollen/riksdagsanalys/internal/observability/metrics"
)

const serviceName = "riksdagsanalys-worker"

func main() {
	cfg := config.Load()
	logger := logging.Setup(serviceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", workerMetrics.Handler())
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: metricsMux,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	// Reconcile sweeps the tracker for jobs whose events were missed:
	// api restarts, dropped NATS messages, worker downtime.
	go func() {
		runReconcile(ctx, app, workerMetrics, logger)
		ticker := time.NewTicker(cfg.ReconcileEvery())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runReconcile(ctx, app, workerMetrics, logger)
			}
		}
	}()

	logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeJobSubmitted(ctx, func(handlerCtx context.Context, jobID string) error {
		return handleJob(handlerCtx, app, cfg, workerMetrics, logger, jobID)
	})
	if err != nil {
		logger.Error("worker subscribe failed", "error", err)
		os.Exit(1)
	}
}

func handleJob(
	ctx context.Context,
	app *bootstrap.App,
	cfg config.Config,
	workerMetrics *metrics.WorkerMetrics,
	logger *slog.Logger,
	jobID string,
) error {
	logger.Info("polling job", "job_id", jobID)

	workerMetrics.StartPoll()
	start := time.Now()
	batch, err := app.PollUC.PollUntilTerminal(ctx, jobID, cfg.PollInterval(), cfg.PollMaxWait())
	workerMetrics.FinishPoll(serviceName, time.Since(start), err)
	if err != nil {
		logger.Warn("poll session failed", "job_id", jobID, "error", err)
		return err
	}

	workerMetrics.RecordJobFinished(serviceName, string(batch.Status))
	logger.Info("job reached terminal state", "job_id", jobID, "status", batch.Status)

	if batch.Status != domain.JobStatusCompleted {
		return nil
	}

	stats, err := app.ResultsUC.ProcessJobResults(ctx, jobID)
	if err != nil {
		logger.Error("result processing failed", "job_id", jobID, "error", err)
		return err
	}
	workerMetrics.RecordResultLines(serviceName, stats.Stored, stats.Skipped, stats.Failed)
	logger.Info("results processed",
		"job_id", jobID,
		"total", stats.Total,
		"stored", stats.Stored,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
	)
	return nil
}

func runReconcile(ctx context.Context, app *bootstrap.App, workerMetrics *metrics.WorkerMetrics, logger *slog.Logger) {
	start := time.Now()
	report, err := app.PollUC.ReconcileOutstanding(ctx)
	workerMetrics.ObserveReconcile(serviceName, time.Since(start))
	if err != nil {
		logger.Warn("reconcile pass failed", "error", err)
		return
	}
	workerMetrics.RecordResultLines(serviceName, report.Results.Stored, report.Results.Skipped, report.Results.Failed)
	logger.Info("reconcile pass finished",
		"checked", report.Checked,
		"advanced", report.Advanced,
		"completed", report.Completed,
		"outstanding", report.Outstanding,
	)
}
