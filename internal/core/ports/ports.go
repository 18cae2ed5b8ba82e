package ports

import (
	"context"
	"time"

	"github.com/riksdagskollen/riksdagsanalys/internal/core/domain"
)

// JobStore is the durable batch-job tracker. Creation is append-only;
// status is mutated only through UpdateJobStatus, which must refuse to
// move a job out of a terminal state.
type JobStore interface {
	CreateJob(ctx context.Context, job *domain.BatchJob) error
	GetJob(ctx context.Context, jobID string) (*domain.BatchJob, error)
	ListJobs(ctx context.Context) ([]domain.BatchJob, error)
	ListOutstandingJobs(ctx context.Context) ([]domain.BatchJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status domain.JobStatus, completedAt *time.Time) error
}

// ResultStore persists analysis outcomes with upsert-or-skip semantics:
// an insert against an existing (record id, kind) key returns
// domain.ErrDuplicateResult and leaves the stored row untouched.
type ResultStore interface {
	StoreMotionQuality(ctx context.Context, result *domain.MotionQuality) error
	StoreAbsenceAnalysis(ctx context.Context, result *domain.AbsenceAnalysis) error
	StoreRhetoricAnalysis(ctx context.Context, result *domain.RhetoricAnalysis) error
}

// RiksdagStore reads and writes the ingested parliamentary data.
type RiksdagStore interface {
	ListMotionsWithoutAnalysis(ctx context.Context, sessions []string, limit int) ([]domain.Motion, error)
	ListMembersWithoutAnalysis(ctx context.Context, kind domain.AnalysisKind, limit int) ([]domain.Member, error)
	ListVotesForMember(ctx context.Context, memberID string, limit int) ([]domain.Vote, error)
	ListSpeechesForMember(ctx context.Context, memberID string, limit int) ([]domain.Speech, error)

	UpsertMembers(ctx context.Context, members []domain.Member) (int, error)
	InsertMotions(ctx context.Context, motions []domain.Motion) (int, error)
	InsertVotes(ctx context.Context, votes []domain.Vote) (int, error)
	InsertSpeeches(ctx context.Context, speeches []domain.Speech) (int, error)
}

// BatchOutputReader iterates a completed job's newline-delimited output
// file without loading it into memory. Next returns io.EOF after the
// last line; a malformed line is reported in the returned value, not as
// an iteration error, so one bad line never aborts the stream.
type BatchOutputReader interface {
	Next() (domain.BatchOutputLine, error)
	Close() error
}

// BatchProvider is the asynchronous inference provider's batch surface.
type BatchProvider interface {
	// UploadBatch serializes the requests as one JSONL file and uploads
	// it. Failures wrap domain.ErrUploadFailed and must not be retried
	// blindly: a re-upload creates a new billable file.
	UploadBatch(ctx context.Context, requests []domain.AnalysisRequest, filename string) (string, error)
	// CreateBatch registers an uploaded file as a batch job. Failures
	// wrap domain.ErrSubmissionFailed.
	CreateBatch(ctx context.Context, inputFileID string) (*domain.ProviderBatch, error)
	// GetBatch is a read-only status query, safe to repeat.
	GetBatch(ctx context.Context, jobID string) (*domain.ProviderBatch, error)
	// OpenOutput streams a completed job's output file.
	OpenOutput(ctx context.Context, fileID string) (BatchOutputReader, error)
}

// MessageQueue carries job-submitted events from the api to the worker.
// The job tracker, not the queue, remains the source of truth for which
// jobs are outstanding; events only shorten the first-poll latency.
type MessageQueue interface {
	PublishJobSubmitted(ctx context.Context, jobID string) error
	SubscribeJobSubmitted(ctx context.Context, handler func(context.Context, string) error) error
}

// RiksdagAPI fetches open data from data.riksdagen.se.
type RiksdagAPI interface {
	FetchMembers(ctx context.Context) ([]domain.Member, error)
	FetchMotions(ctx context.Context, session string) ([]domain.Motion, error)
	FetchVotes(ctx context.Context, session string) ([]domain.Vote, error)
	FetchSpeeches(ctx context.Context, session string) ([]domain.Speech, error)
}

// PromptBuilder renders one domain record into a fully specified
// analysis request. Implementations must be pure: the same inputs
// always produce byte-identical prompts. The correlation id is assigned
// by the caller.
type PromptBuilder interface {
	MotionQuality(motion domain.Motion) domain.AnalysisRequest
	AbsenceDetection(member domain.Member, votes []domain.Vote) domain.AnalysisRequest
	RhetoricAnalysis(member domain.Member, speeches []domain.Speech, votes []domain.Vote) domain.AnalysisRequest
}

// AnalysisSubmitter is the inbound contract for batch submission.
type AnalysisSubmitter interface {
	Estimate(ctx context.Context, kind domain.AnalysisKind, limit int) (*domain.CostEstimate, error)
	Submit(ctx context.Context, kind domain.AnalysisKind, limit int) (*domain.SubmitReceipt, error)
}

// JobPoller is the inbound contract for advancing tracked jobs.
type JobPoller interface {
	PollOnce(ctx context.Context, jobID string) (*domain.ProviderBatch, error)
	PollUntilTerminal(ctx context.Context, jobID string, interval, maxWait time.Duration) (*domain.ProviderBatch, error)
	ReconcileOutstanding(ctx context.Context) (*domain.ReconcileReport, error)
}

// ResultIngestor is the inbound contract for the result processor.
type ResultIngestor interface {
	ProcessResults(ctx context.Context, fileID string, kind domain.AnalysisKind) (domain.ProcessStats, error)
	ProcessJobResults(ctx context.Context, jobID string) (domain.ProcessStats, error)
}

// DataSyncer is the inbound contract for parliamentary data ingest.
type DataSyncer interface {
	SyncAll(ctx context.Context, sessions []string) (*domain.SyncReport, error)
}
