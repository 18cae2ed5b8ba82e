package usecase

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/riksdagskollen/riksdagsanalys/internal/core/domain"
	"github.com/riksdagskollen/riksdagsanalys/internal/core/ports"
)

type riksdagStoreFake struct {
	motions  []domain.Motion
	members  []domain.Member
	votes    map[string][]domain.Vote
	speeches map[string][]domain.Speech
	listErr  error
}

func (f *riksdagStoreFake) ListMotionsWithoutAnalysis(_ context.Context, _ []string, limit int) ([]domain.Motion, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if limit < len(f.motions) {
		return f.motions[:limit], nil
	}
	return f.motions, nil
}

func (f *riksdagStoreFake) ListMembersWithoutAnalysis(_ context.Context, _ domain.AnalysisKind, limit int) ([]domain.Member, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if limit < len(f.members) {
		return f.members[:limit], nil
	}
	return f.members, nil
}

func (f *riksdagStoreFake) ListVotesForMember(_ context.Context, memberID string, _ int) ([]domain.Vote, error) {
	return f.votes[memberID], nil
}

func (f *riksdagStoreFake) ListSpeechesForMember(_ context.Context, memberID string, _ int) ([]domain.Speech, error) {
	return f.speeches[memberID], nil
}

func (f *riksdagStoreFake) UpsertMembers(_ context.Context, members []domain.Member) (int, error) {
	return len(members), nil
}

func (f *riksdagStoreFake) InsertMotions(_ context.Context, motions []domain.Motion) (int, error) {
	return len(motions), nil
}

func (f *riksdagStoreFake) InsertVotes(_ context.Context, votes []domain.Vote) (int, error) {
	return len(votes), nil
}

func (f *riksdagStoreFake) InsertSpeeches(_ context.Context, speeches []domain.Speech) (int, error) {
	return len(speeches), nil
}

type jobStoreFake struct {
	jobs      map[string]*domain.BatchJob
	created   []string
	createErr error
}

func newJobStoreFake() *jobStoreFake {
	return &jobStoreFake{jobs: make(map[string]*domain.BatchJob)}
}

func (f *jobStoreFake) CreateJob(_ context.Context, job *domain.BatchJob) error {
	if f.createErr != nil {
		return f.createErr
	}
	clone := *job
	f.jobs[job.JobID] = &clone
	f.created = append(f.created, job.JobID)
	return nil
}

func (f *jobStoreFake) GetJob(_ context.Context, jobID string) (*domain.BatchJob, error) {
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get job", fmt.Errorf("job %s", jobID))
	}
	clone := *job
	return &clone, nil
}

func (f *jobStoreFake) ListJobs(context.Context) ([]domain.BatchJob, error) {
	out := make([]domain.BatchJob, 0, len(f.created))
	for _, id := range f.created {
		out = append(out, *f.jobs[id])
	}
	return out, nil
}

func (f *jobStoreFake) ListOutstandingJobs(ctx context.Context) ([]domain.BatchJob, error) {
	all, _ := f.ListJobs(ctx)
	out := make([]domain.BatchJob, 0)
	for _, job := range all {
		if !job.Status.Terminal() {
			out = append(out, job)
		}
	}
	return out, nil
}

func (f *jobStoreFake) UpdateJobStatus(_ context.Context, jobID string, status domain.JobStatus, completedAt *time.Time) error {
	job, ok := f.jobs[jobID]
	if !ok {
		return domain.WrapError(domain.ErrNotFound, "update job status", fmt.Errorf("job %s", jobID))
	}
	if job.Status.Terminal() {
		return domain.WrapError(domain.ErrJobTerminal, "update job status", fmt.Errorf("job %s is %s", jobID, job.Status))
	}
	job.Status = status
	job.CompletedAt = completedAt
	return nil
}

type lineReaderFake struct {
	lines []domain.BatchOutputLine
	pos   int
}

func (f *lineReaderFake) Next() (domain.BatchOutputLine, error) {
	if f.pos >= len(f.lines) {
		return domain.BatchOutputLine{}, io.EOF
	}
	line := f.lines[f.pos]
	f.pos++
	return line, nil
}

func (f *lineReaderFake) Close() error { return nil }

type providerFake struct {
	uploads    int
	creates    int
	uploadErr  error
	createErr  error
	failUpload int // fail the Nth upload, 1-based; 0 disables

	batches map[string]*domain.ProviderBatch
	pollSeq []*domain.ProviderBatch
	output  []domain.BatchOutputLine
	openErr error
}

func (f *providerFake) UploadBatch(_ context.Context, requests []domain.AnalysisRequest, _ string) (string, error) {
	f.uploads++
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	if f.failUpload > 0 && f.uploads == f.failUpload {
		return "", domain.WrapError(domain.ErrUploadFailed, "upload batch", fmt.Errorf("upload %d rejected", f.uploads))
	}
	return fmt.Sprintf("file_%d", f.uploads), nil
}

func (f *providerFake) CreateBatch(_ context.Context, inputFileID string) (*domain.ProviderBatch, error) {
	f.creates++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &domain.ProviderBatch{
		ID:     fmt.Sprintf("batch_%d", f.creates),
		Status: domain.JobStatusValidating,
	}, nil
}

func (f *providerFake) GetBatch(_ context.Context, jobID string) (*domain.ProviderBatch, error) {
	if len(f.pollSeq) > 0 {
		batch := f.pollSeq[0]
		f.pollSeq = f.pollSeq[1:]
		return batch, nil
	}
	if batch, ok := f.batches[jobID]; ok {
		return batch, nil
	}
	return nil, domain.WrapError(domain.ErrNotFound, "get batch", fmt.Errorf("batch %s", jobID))
}

func (f *providerFake) OpenOutput(context.Context, string) (ports.BatchOutputReader, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return &lineReaderFake{lines: f.output}, nil
}

type promptBuilderFake struct{}

func (promptBuilderFake) MotionQuality(domain.Motion) domain.AnalysisRequest {
	return domain.AnalysisRequest{System: "sys", Prompt: "motion prompt", MaxCompletionTokens: 3000}
}

func (promptBuilderFake) AbsenceDetection(domain.Member, []domain.Vote) domain.AnalysisRequest {
	return domain.AnalysisRequest{System: "sys", Prompt: "absence prompt", MaxCompletionTokens: 5000}
}

func (promptBuilderFake) RhetoricAnalysis(domain.Member, []domain.Speech, []domain.Vote) domain.AnalysisRequest {
	return domain.AnalysisRequest{System: "sys", Prompt: "rhetoric prompt", MaxCompletionTokens: 3000}
}

type queueFake struct {
	published  []string
	publishErr error
}

func (f *queueFake) PublishJobSubmitted(_ context.Context, jobID string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, jobID)
	return nil
}

func (f *queueFake) SubscribeJobSubmitted(context.Context, func(context.Context, string) error) error {
	return nil
}

type resultStoreFake struct {
	motions  []*domain.MotionQuality
	absences []*domain.AbsenceAnalysis
	rhetoric []*domain.RhetoricAnalysis
	seen     map[string]bool
	storeErr error
}

func newResultStoreFake() *resultStoreFake {
	return &resultStoreFake{seen: make(map[string]bool)}
}

func (f *resultStoreFake) store(key string) error {
	if f.storeErr != nil {
		return f.storeErr
	}
	if f.seen[key] {
		return domain.WrapError(domain.ErrDuplicateResult, "store", fmt.Errorf("id %s", key))
	}
	f.seen[key] = true
	return nil
}

func (f *resultStoreFake) StoreMotionQuality(_ context.Context, result *domain.MotionQuality) error {
	if err := f.store("motion:" + result.MotionID); err != nil {
		return err
	}
	f.motions = append(f.motions, result)
	return nil
}

func (f *resultStoreFake) StoreAbsenceAnalysis(_ context.Context, result *domain.AbsenceAnalysis) error {
	if err := f.store("absence:" + result.MemberID); err != nil {
		return err
	}
	f.absences = append(f.absences, result)
	return nil
}

func (f *resultStoreFake) StoreRhetoricAnalysis(_ context.Context, result *domain.RhetoricAnalysis) error {
	if err := f.store("rhetoric:" + result.MemberID); err != nil {
		return err
	}
	f.rhetoric = append(f.rhetoric, result)
	return nil
}

type riksdagAPIFake struct {
	members  []domain.Member
	motions  []domain.Motion
	votes    []domain.Vote
	speeches []domain.Speech
	fetchErr error
}

func (f *riksdagAPIFake) FetchMembers(context.Context) ([]domain.Member, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.members, nil
}

func (f *riksdagAPIFake) FetchMotions(context.Context, string) ([]domain.Motion, error) {
	return f.motions, nil
}

func (f *riksdagAPIFake) FetchVotes(context.Context, string) ([]domain.Vote, error) {
	return f.votes, nil
}

func (f *riksdagAPIFake) FetchSpeeches(context.Context, string) ([]domain.Speech, error) {
	return f.speeches, nil
}
