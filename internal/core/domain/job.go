package domain

import "time"

type JobStatus string

const (
	JobStatusSubmitted  JobStatus = "submitted"
	JobStatusValidating JobStatus = "validating"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusExpired    JobStatus = "expired"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Terminal reports whether no further status transition may occur.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusExpired, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransition enforces monotonic job lifecycle: a terminal status is
// final, and a job never moves back to the same non-terminal status it
// already left.
func CanTransition(from, to JobStatus) bool {
	if from.Terminal() {
		return false
	}
	return from != to
}

// BatchJob is one physical batch submitted to the inference provider.
// Rows are created at submit time, mutated only by the poller, and never
// deleted: they are the cost-accounting audit trail.
type BatchJob struct {
	JobID            string       `json:"job_id"`
	Kind             AnalysisKind `json:"kind"`
	ItemCount        int          `json:"item_count"`
	EstimatedCostUSD float64      `json:"estimated_cost_usd"`
	Status           JobStatus    `json:"status"`
	CreatedAt        time.Time    `json:"created_at"`
	CompletedAt      *time.Time   `json:"completed_at,omitempty"`
}

// RequestCounts mirrors the provider's per-job progress counters.
type RequestCounts struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Errored   int `json:"errored"`
}

// ProviderBatch is the provider's view of a batch job at poll time.
type ProviderBatch struct {
	ID           string
	Status       JobStatus
	OutputFileID string
	Counts       RequestCounts
	CompletedAt  *time.Time
}

// HasOutput reports whether results can be fetched for this batch. The
// provider may report completed with no output file when every request in
// the batch failed individually; that is zero retrievable results, not an
// orchestration error.
func (b *ProviderBatch) HasOutput() bool {
	return b.Status == JobStatusCompleted && b.OutputFileID != ""
}

// BatchOutputLine is one decoded line of a job's output file. Malformed
// marks a line whose envelope could not be decoded; ItemError carries a
// provider-side per-item failure. Either way the stream continues.
type BatchOutputLine struct {
	CustomID  string
	Content   string
	ItemError string
	Malformed bool
}

// SubmitReceipt summarizes one logical submission, possibly spanning
// several physical batch jobs. On a partial chunked failure JobIDs still
// lists every job that was durably created before the failure.
type SubmitReceipt struct {
	Kind             AnalysisKind `json:"kind"`
	JobIDs           []string     `json:"job_ids"`
	ItemCount        int          `json:"item_count"`
	ChunkCount       int          `json:"chunk_count"`
	EstimatedCostUSD float64      `json:"estimated_cost_usd"`
}

// ReconcileReport summarizes one pass over the outstanding jobs in the
// tracker.
type ReconcileReport struct {
	Checked     int          `json:"checked"`
	Advanced    int          `json:"advanced"`
	Completed   int          `json:"completed"`
	Outstanding int          `json:"outstanding"`
	Results     ProcessStats `json:"results"`
}

// SyncReport summarizes one parliamentary data ingest run.
type SyncReport struct {
	Members  int `json:"members"`
	Motions  int `json:"motions"`
	Votes    int `json:"votes"`
	Speeches int `json:"speeches"`
}
