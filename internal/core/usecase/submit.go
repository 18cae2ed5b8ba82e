package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/riksdagskollen/riksdagsanalys/internal/core/domain"
	"github.com/riksdagskollen/riksdagsanalys/internal/core/ports"
)

// SubmitAnalysisUseCase turns pending parliamentary records into
// provider batch jobs. Submissions above the chunk size are split into
// several physical batches; each chunk's job row is persisted before the
// next chunk is touched, so a failure mid-way leaves a resumable trail
// instead of an all-or-nothing loss.
type SubmitAnalysisUseCase struct {
	store    ports.RiksdagStore
	jobs     ports.JobStore
	provider ports.BatchProvider
	prompts  ports.PromptBuilder
	queue    ports.MessageQueue

	pricing   domain.Pricing
	sessions  []string
	chunkSize int
	limiter   *rate.Limiter

	voteSampleLimit   int
	speechSampleLimit int
}

type SubmitOptions struct {
	Pricing  domain.Pricing
	Sessions []string
	// ChunkSize caps the number of requests per physical batch.
	ChunkSize int
	// SubmitRate paces chunk submissions against provider rate limits.
	// Zero means no pacing.
	SubmitRate rate.Limit

	VoteSampleLimit   int
	SpeechSampleLimit int
}

func NewSubmitAnalysisUseCase(
	store ports.RiksdagStore,
	jobs ports.JobStore,
	provider ports.BatchProvider,
	prompts ports.PromptBuilder,
	queue ports.MessageQueue,
	options SubmitOptions,
) *SubmitAnalysisUseCase {
	chunkSize := options.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	voteLimit := options.VoteSampleLimit
	if voteLimit <= 0 {
		voteLimit = 200
	}
	speechLimit := options.SpeechSampleLimit
	if speechLimit <= 0 {
		speechLimit = 50
	}
	var limiter *rate.Limiter
	if options.SubmitRate > 0 {
		limiter = rate.NewLimiter(options.SubmitRate, 1)
	}
	return &SubmitAnalysisUseCase{
		store:             store,
		jobs:              jobs,
		provider:          provider,
		prompts:           prompts,
		queue:             queue,
		pricing:           options.Pricing,
		sessions:          options.Sessions,
		chunkSize:         chunkSize,
		limiter:           limiter,
		voteSampleLimit:   voteLimit,
		speechSampleLimit: speechLimit,
	}
}

// Estimate renders the candidate requests and prices them without
// submitting anything. This is the operator's confirmation gate.
func (uc *SubmitAnalysisUseCase) Estimate(ctx context.Context, kind domain.AnalysisKind, limit int) (*domain.CostEstimate, error) {
	requests, err := uc.buildRequests(ctx, kind, limit)
	if err != nil {
		return nil, err
	}
	estimate := domain.EstimateCost(requests, uc.pricing)
	return &estimate, nil
}

// Submit renders the candidate requests and submits them in chunks. On a
// mid-run failure the receipt still lists every job that was durably
// created; those jobs continue server-side and the remaining candidates
// are picked up by the next submission.
func (uc *SubmitAnalysisUseCase) Submit(ctx context.Context, kind domain.AnalysisKind, limit int) (*domain.SubmitReceipt, error) {
	requests, err := uc.buildRequests(ctx, kind, limit)
	if err != nil {
		return nil, err
	}

	receipt := &domain.SubmitReceipt{Kind: kind}
	if len(requests) == 0 {
		return receipt, nil
	}
	receipt.ChunkCount = (len(requests) + uc.chunkSize - 1) / uc.chunkSize

	for offset := 0; offset < len(requests); offset += uc.chunkSize {
		end := offset + uc.chunkSize
		if end > len(requests) {
			end = len(requests)
		}
		chunk := requests[offset:end]

		if uc.limiter != nil {
			if err := uc.limiter.Wait(ctx); err != nil {
				return receipt, fmt.Errorf("submit pacing: %w", err)
			}
		}

		job, err := uc.submitChunk(ctx, kind, chunk)
		if err != nil {
			return receipt, fmt.Errorf("submit chunk %d/%d: %w", offset/uc.chunkSize+1, receipt.ChunkCount, err)
		}
		receipt.JobIDs = append(receipt.JobIDs, job.JobID)
		receipt.ItemCount += job.ItemCount
		receipt.EstimatedCostUSD += job.EstimatedCostUSD
	}
	return receipt, nil
}

func (uc *SubmitAnalysisUseCase) submitChunk(ctx context.Context, kind domain.AnalysisKind, chunk []domain.AnalysisRequest) (*domain.BatchJob, error) {
	filename := fmt.Sprintf("%s_%s.jsonl", kind, uuid.NewString())
	fileID, err := uc.provider.UploadBatch(ctx, chunk, filename)
	if err != nil {
		return nil, err
	}

	batch, err := uc.provider.CreateBatch(ctx, fileID)
	if err != nil {
		return nil, err
	}

	estimate := domain.EstimateCost(chunk, uc.pricing)
	job := &domain.BatchJob{
		JobID:            batch.ID,
		Kind:             kind,
		ItemCount:        len(chunk),
		EstimatedCostUSD: estimate.TotalCostUSD,
		Status:           domain.JobStatusSubmitted,
		CreatedAt:        time.Now().UTC(),
	}
	if err := uc.jobs.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("persist job %s: %w", batch.ID, err)
	}

	// Publishing only shortens the worker's first-poll latency. The job
	// row is already durable, so a broker outage must not fail the
	// submission; reconciliation will find the job regardless.
	if uc.queue != nil {
		if err := uc.queue.PublishJobSubmitted(ctx, job.JobID); err != nil {
			slog.Warn("publish job event failed", "job_id", job.JobID, "error", err)
		}
	}

	slog.Info("batch chunk submitted",
		"job_id", job.JobID,
		"kind", string(kind),
		"items", job.ItemCount,
		"estimated_cost_usd", job.EstimatedCostUSD,
	)
	return job, nil
}

func (uc *SubmitAnalysisUseCase) buildRequests(ctx context.Context, kind domain.AnalysisKind, limit int) ([]domain.AnalysisRequest, error) {
	if limit <= 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "build requests", fmt.Errorf("limit must be positive"))
	}

	switch kind {
	case domain.KindMotionQuality:
		return uc.buildMotionRequests(ctx, limit)
	case domain.KindAbsenceDetection, domain.KindRhetoricAnalysis:
		return uc.buildMemberRequests(ctx, kind, limit)
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "build requests", fmt.Errorf("unknown kind %q", kind))
	}
}

func (uc *SubmitAnalysisUseCase) buildMotionRequests(ctx context.Context, limit int) ([]domain.AnalysisRequest, error) {
	motions, err := uc.store.ListMotionsWithoutAnalysis(ctx, uc.sessions, limit)
	if err != nil {
		return nil, fmt.Errorf("list candidate motions: %w", err)
	}

	requests := make([]domain.AnalysisRequest, 0, len(motions))
	for seq, motion := range motions {
		request := uc.prompts.MotionQuality(motion)
		request.CustomID = domain.EncodeCorrelationID(domain.KindMotionQuality, motion.ID, seq)
		requests = append(requests, request)
	}
	return requests, nil
}

func (uc *SubmitAnalysisUseCase) buildMemberRequests(ctx context.Context, kind domain.AnalysisKind, limit int) ([]domain.AnalysisRequest, error) {
	members, err := uc.store.ListMembersWithoutAnalysis(ctx, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("list candidate members: %w", err)
	}

	requests := make([]domain.AnalysisRequest, 0, len(members))
	seq := 0
	for _, member := range members {
		votes, err := uc.store.ListVotesForMember(ctx, member.ID, uc.voteSampleLimit)
		if err != nil {
			return nil, fmt.Errorf("list votes for %s: %w", member.ID, err)
		}
		if len(votes) == 0 {
			continue
		}

		var request domain.AnalysisRequest
		switch kind {
		case domain.KindAbsenceDetection:
			request = uc.prompts.AbsenceDetection(member, votes)
		case domain.KindRhetoricAnalysis:
			speeches, err := uc.store.ListSpeechesForMember(ctx, member.ID, uc.speechSampleLimit)
			if err != nil {
				return nil, fmt.Errorf("list speeches for %s: %w", member.ID, err)
			}
			if len(speeches) == 0 {
				continue
			}
			request = uc.prompts.RhetoricAnalysis(member, speeches, votes)
		}

		request.CustomID = domain.EncodeCorrelationID(kind, member.ID, seq)
		requests = append(requests, request)
		seq++
	}
	return requests, nil
}

var _ ports.AnalysisSubmitter = (*SubmitAnalysisUseCase)(nil)
