package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/riksdagskollen/riksdagsanalys/internal/core/domain"
)

// JobRepository is the durable batch-job tracker. Rows survive process
// restarts; the reconcile loop resumes from whatever it finds here.
type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) CreateJob(ctx context.Context, job *domain.BatchJob) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO batch_jobs (job_id, kind, item_count, estimated_cost_usd, status, created_at, completed_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`, job.JobID, string(job.Kind), job.ItemCount, job.EstimatedCostUSD, string(job.Status), job.CreatedAt, job.CompletedAt)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (r *JobRepository) GetJob(ctx context.Context, jobID string) (*domain.BatchJob, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT job_id, kind, item_count, estimated_cost_usd, status, created_at, completed_at
FROM batch_jobs
WHERE job_id = $1
`, jobID)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get job", fmt.Errorf("job %s", jobID))
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

func (r *JobRepository) ListJobs(ctx context.Context) ([]domain.BatchJob, error) {
	return r.listJobs(ctx, `
SELECT job_id, kind, item_count, estimated_cost_usd, status, created_at, completed_at
FROM batch_jobs
ORDER BY created_at DESC
`, "list jobs")
}

// ListOutstandingJobs returns jobs not yet in a terminal state, oldest
// first so reconciliation never starves long-running batches.
func (r *JobRepository) ListOutstandingJobs(ctx context.Context) ([]domain.BatchJob, error) {
	return r.listJobs(ctx, `
SELECT job_id, kind, item_count, estimated_cost_usd, status, created_at, completed_at
FROM batch_jobs
WHERE status NOT IN ('completed','failed','expired','cancelled')
ORDER BY created_at ASC
`, "list outstanding jobs")
}

func (r *JobRepository) listJobs(ctx context.Context, query, operation string) ([]domain.BatchJob, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	defer rows.Close()

	out := make([]domain.BatchJob, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", operation, err)
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", operation, err)
	}
	return out, nil
}

// UpdateJobStatus advances a job's lifecycle. The WHERE clause repeats
// the terminal-state guard so that two concurrent pollers cannot move a
// finished job, whatever order their reads happened in.
func (r *JobRepository) UpdateJobStatus(ctx context.Context, jobID string, status domain.JobStatus, completedAt *time.Time) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE batch_jobs
SET status = $2, completed_at = $3
WHERE job_id = $1
  AND status NOT IN ('completed','failed','expired','cancelled')
  AND status <> $2
`, jobID, string(status), completedAt)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job status rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	job, err := r.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return domain.WrapError(domain.ErrJobTerminal, "update job status", fmt.Errorf("job %s is %s", jobID, job.Status))
	}
	// Same non-terminal status; nothing to do.
	return nil
}

type jobScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row jobScanner) (domain.BatchJob, error) {
	var job domain.BatchJob
	var kind, status string
	err := row.Scan(
		&job.JobID,
		&kind,
		&job.ItemCount,
		&job.EstimatedCostUSD,
		&status,
		&job.CreatedAt,
		&job.CompletedAt,
	)
	if err != nil {
		return domain.BatchJob{}, err
	}
	job.Kind = domain.AnalysisKind(kind)
	job.Status = domain.JobStatus(status)
	return job, nil
}
