package bootstrap

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/riksdagskollen/riksdagsanalys/internal/config"
	"github.com/riksdagskollen/riksdagsanalys/internal/core/domain"
	"github.com/riksdagskollen/riksdagsanalys/internal/core/ports"
	"github.com/riksdagskollen/riksdagsanalys/internal/core/usecase"
	"github.com/riksdagskollen/riksdagsanalys/internal/infrastructure/llm/openaibatch"
	"github.com/riksdagskollen/riksdagsanalys/internal/infrastructure/queue/nats"
	"github.com/riksdagskollen/riksdagsanalys/internal/infrastructure/repository/postgres"
	"github.com/riksdagskollen/riksdagsanalys/internal/infrastructure/resilience"
	"github.com/riksdagskollen/riksdagsanalys/internal/infrastructure/riksdag"
)

type App struct {
	Config config.Config

	Queue ports.MessageQueue
	Jobs  ports.JobStore

	SubmitUC  ports.AnalysisSubmitter
	PollUC    ports.JobPoller
	ResultsUC ports.ResultIngestor
	SyncUC    ports.DataSyncer

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	jobs := postgres.NewJobRepository(db)
	results := postgres.NewResultRepository(db)
	riksdagStore := postgres.NewRiksdagRepository(db)

	// One executor for all outbound calls; breakers are keyed per
	// operation inside it, so a provider outage never trips the
	// riksdagen or NATS circuits.
	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	provider, err := openaibatch.New(openaibatch.Options{
		BaseURL:          cfg.OpenAIBaseURL,
		APIKey:           cfg.OpenAIAPIKey,
		Model:            cfg.OpenAIModel,
		CompletionWindow: cfg.BatchCompletionWindow,
		Executor:         executor,
	})
	if err != nil {
		queue.Close()
		return nil, fmt.Errorf("init batch provider: %w", err)
	}

	prompts := openaibatch.NewPromptBuilder(openaibatch.PromptOptions{
		MotionTextLimit:    cfg.MotionTextLimit,
		AbsenceBaselinePct: cfg.AbsenceBaselinePercent,
	})

	riksdagAPI := riksdag.New(riksdag.Options{
		ResilienceExecutor: executor,
	})

	submitUC := usecase.NewSubmitAnalysisUseCase(riksdagStore, jobs, provider, prompts, queue, usecase.SubmitOptions{
		Pricing: domain.Pricing{
			InputPerMTok:  cfg.PriceInputPerMTokUSD,
			OutputPerMTok: cfg.PriceOutputPerMTokUSD,
		},
		Sessions:   cfg.Sessions,
		ChunkSize:  cfg.BatchChunkSize,
		SubmitRate: rate.Limit(float64(cfg.BatchSubmitsPerMinute) / 60),
	})
	resultsUC := usecase.NewProcessResultsUseCase(provider, results, jobs)
	pollUC := usecase.NewPollJobsUseCase(jobs, provider, resultsUC)
	syncUC := usecase.NewSyncDataUseCase(riksdagAPI, riksdagStore)

	return &App{
		Config: cfg,
		Queue:  queue,
		Jobs:   jobs,

		SubmitUC:  submitUC,
		PollUC:    pollUC,
		ResultsUC: resultsUC,
		SyncUC:    syncUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
