package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/riksdagskollen/riksdagsanalys/internal/core/domain"
	"github.com/riksdagskollen/riksdagsanalys/internal/core/ports"
)

// PollJobsUseCase advances tracked jobs by querying the provider. The
// tracker only ever moves forward: once a job is terminal no poll result
// can change it again.
type PollJobsUseCase struct {
	jobs     ports.JobStore
	provider ports.BatchProvider
	ingestor ports.ResultIngestor
}

func NewPollJobsUseCase(
	jobs ports.JobStore,
	provider ports.BatchProvider,
	ingestor ports.ResultIngestor,
) *PollJobsUseCase {
	return &PollJobsUseCase{
		jobs:     jobs,
		provider: provider,
		ingestor: ingestor,
	}
}

// PollOnce fetches the provider's view of one job and records any
// forward transition in the tracker.
func (uc *PollJobsUseCase) PollOnce(ctx context.Context, jobID string) (*domain.ProviderBatch, error) {
	job, err := uc.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	batch, err := uc.provider.GetBatch(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if job.Status.Terminal() || !domain.CanTransition(job.Status, batch.Status) {
		return batch, nil
	}

	var completedAt *time.Time
	if batch.Status.Terminal() {
		completedAt = batch.CompletedAt
		if completedAt == nil {
			now := time.Now().UTC()
			completedAt = &now
		}
	}
	if err := uc.jobs.UpdateJobStatus(ctx, jobID, batch.Status, completedAt); err != nil {
		// A racing poller already advanced the job; the provider's view
		// is still valid for this caller.
		if domain.IsKind(err, domain.ErrJobTerminal) {
			return batch, nil
		}
		return nil, err
	}

	slog.Info("job status advanced",
		"job_id", jobID,
		"from", string(job.Status),
		"to", string(batch.Status),
		"succeeded", batch.Counts.Succeeded,
		"errored", batch.Counts.Errored,
	)
	return batch, nil
}

// PollUntilTerminal polls at the given interval until the job reaches a
// terminal state or maxWait elapses. Timing out loses nothing: the job
// stays tracked and the next reconcile pass resumes from the store.
func (uc *PollJobsUseCase) PollUntilTerminal(ctx context.Context, jobID string, interval, maxWait time.Duration) (*domain.ProviderBatch, error) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	deadline := time.Now().Add(maxWait)

	for {
		batch, err := uc.PollOnce(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if batch.Status.Terminal() {
			return batch, nil
		}
		if maxWait > 0 && time.Now().Add(interval).After(deadline) {
			return batch, domain.WrapError(domain.ErrPollTimeout, "poll until terminal",
				fmt.Errorf("job %s still %s after %s", jobID, batch.Status, maxWait))
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return batch, ctx.Err()
		case <-timer.C:
		}
	}
}

// ReconcileOutstanding makes one pass over every non-terminal job in the
// tracker, advancing statuses and ingesting results of jobs that
// completed since the last pass. This is the crash-recovery path: it
// needs nothing but the job store to resume.
func (uc *PollJobsUseCase) ReconcileOutstanding(ctx context.Context) (*domain.ReconcileReport, error) {
	outstanding, err := uc.jobs.ListOutstandingJobs(ctx)
	if err != nil {
		return nil, err
	}

	report := &domain.ReconcileReport{}
	for _, job := range outstanding {
		report.Checked++

		batch, err := uc.PollOnce(ctx, job.JobID)
		if err != nil {
			slog.Warn("reconcile poll failed", "job_id", job.JobID, "error", err)
			report.Outstanding++
			continue
		}
		if batch.Status == job.Status {
			report.Outstanding++
			continue
		}
		report.Advanced++

		if batch.Status == domain.JobStatusCompleted {
			report.Completed++
			if uc.ingestor != nil {
				stats, err := uc.ingestor.ProcessJobResults(ctx, job.JobID)
				if err != nil {
					slog.Error("reconcile result processing failed", "job_id", job.JobID, "error", err)
					continue
				}
				report.Results.Add(stats)
			}
		} else if !batch.Status.Terminal() {
			report.Outstanding++
		}
	}
	return report, nil
}

var _ ports.JobPoller = (*PollJobsUseCase)(nil)
