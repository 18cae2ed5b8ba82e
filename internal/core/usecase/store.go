package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/riksdagskollen/riksdagsanalys/internal/core/domain"
	"github.com/riksdagskollen/riksdagsanalys/internal/core/ports"
)

// ProcessResultsUseCase turns a completed job's output file into stored
// analysis rows. Processing is idempotent end to end: every line is
// keyed by its correlation id, duplicates are skipped rather than
// rewritten, and a bad line never aborts the stream.
type ProcessResultsUseCase struct {
	provider ports.BatchProvider
	results  ports.ResultStore
	jobs     ports.JobStore
}

func NewProcessResultsUseCase(
	provider ports.BatchProvider,
	results ports.ResultStore,
	jobs ports.JobStore,
) *ProcessResultsUseCase {
	return &ProcessResultsUseCase{
		provider: provider,
		results:  results,
		jobs:     jobs,
	}
}

// ProcessResults streams the given output file and stores every
// decodable result. kind guards against processing a file under the
// wrong analysis; lines whose correlation id names a different kind are
// counted as failed.
func (uc *ProcessResultsUseCase) ProcessResults(ctx context.Context, fileID string, kind domain.AnalysisKind) (domain.ProcessStats, error) {
	var stats domain.ProcessStats

	reader, err := uc.provider.OpenOutput(ctx, fileID)
	if err != nil {
		return stats, err
	}
	defer reader.Close()

	for {
		line, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("read output file %s: %w", fileID, err)
		}

		stats.Total++
		outcome := uc.processLine(ctx, line, kind)
		switch outcome {
		case lineStored:
			stats.Stored++
		case lineSkipped:
			stats.Skipped++
		case lineFailed:
			stats.Failed++
		}
	}

	slog.Info("output file processed",
		"file_id", fileID,
		"kind", string(kind),
		"total", stats.Total,
		"stored", stats.Stored,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
	)
	return stats, nil
}

// ProcessJobResults resolves a tracked job to its output file and
// processes it. A completed job without an output file means every
// request in the batch failed individually: zero results, not an error.
func (uc *ProcessResultsUseCase) ProcessJobResults(ctx context.Context, jobID string) (domain.ProcessStats, error) {
	var stats domain.ProcessStats

	job, err := uc.jobs.GetJob(ctx, jobID)
	if err != nil {
		return stats, err
	}

	batch, err := uc.provider.GetBatch(ctx, jobID)
	if err != nil {
		return stats, err
	}

	if batch.Status == domain.JobStatusCompleted && batch.OutputFileID == "" {
		slog.Warn("completed job has no output file", "job_id", jobID,
			"errored", batch.Counts.Errored, "total", batch.Counts.Total)
		return stats, nil
	}
	if !batch.HasOutput() {
		return stats, domain.WrapError(domain.ErrMissingOutput, "process job results",
			fmt.Errorf("job %s is %s", jobID, batch.Status))
	}

	return uc.ProcessResults(ctx, batch.OutputFileID, job.Kind)
}

type lineOutcome int

const (
	lineStored lineOutcome = iota
	lineSkipped
	lineFailed
)

func (uc *ProcessResultsUseCase) processLine(ctx context.Context, line domain.BatchOutputLine, expected domain.AnalysisKind) lineOutcome {
	if line.Malformed {
		slog.Warn("malformed output line skipped")
		return lineFailed
	}
	if line.ItemError != "" {
		slog.Warn("provider reported item error", "custom_id", line.CustomID, "error", line.ItemError)
		return lineFailed
	}

	kind, recordID, err := domain.DecodeCorrelationID(line.CustomID)
	if err != nil {
		slog.Warn("undecodable correlation id", "custom_id", line.CustomID, "error", err)
		return lineFailed
	}
	if expected != "" && kind != expected {
		slog.Warn("output line kind mismatch", "custom_id", line.CustomID,
			"expected", string(expected), "got", string(kind))
		return lineFailed
	}

	payload, err := domain.ExtractJSON(line.Content)
	if err != nil {
		slog.Warn("no usable json in model output", "custom_id", line.CustomID, "error", err)
		return lineFailed
	}

	err = uc.storeResult(ctx, kind, recordID, payload)
	if domain.IsKind(err, domain.ErrDuplicateResult) {
		return lineSkipped
	}
	if err != nil {
		slog.Error("store result failed", "custom_id", line.CustomID, "error", err)
		return lineFailed
	}
	return lineStored
}

func (uc *ProcessResultsUseCase) storeResult(ctx context.Context, kind domain.AnalysisKind, recordID string, payload json.RawMessage) error {
	now := time.Now().UTC()

	switch kind {
	case domain.KindMotionQuality:
		var decoded motionQualityPayload
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return fmt.Errorf("decode motion quality payload: %w", err)
		}
		return uc.results.StoreMotionQuality(ctx, &domain.MotionQuality{
			MotionID:          recordID,
			ConcreteProposals: decoded.Scores.ConcreteProposals,
			CostAnalysis:      decoded.Scores.CostAnalysis,
			SpecificGoals:     decoded.Scores.SpecificGoals,
			LegalText:         decoded.Scores.LegalText,
			Implementation:    decoded.Scores.Implementation,
			OverallScore:      decoded.OverallScore,
			Category:          decoded.Category,
			Assessment:        decoded.Assessment,
			AnalyzedAt:        now,
		})

	case domain.KindAbsenceDetection:
		var decoded absencePayload
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return fmt.Errorf("decode absence payload: %w", err)
		}
		analysis := &domain.AbsenceAnalysis{
			MemberID:   recordID,
			Categories: decoded.Categories,
			Assessment: decoded.Assessment,
			RedFlags:   decoded.RedFlags,
			AnalyzedAt: now,
		}
		analysis.RecomputeTotals()
		return uc.results.StoreAbsenceAnalysis(ctx, analysis)

	case domain.KindRhetoricAnalysis:
		var decoded rhetoricPayload
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return fmt.Errorf("decode rhetoric payload: %w", err)
		}
		return uc.results.StoreRhetoricAnalysis(ctx, &domain.RhetoricAnalysis{
			MemberID:          recordID,
			Topics:            decoded.Topics,
			GapScore:          decoded.GapScore,
			Assessment:        decoded.Assessment,
			CredibilityIssues: decoded.CredibilityIssues,
			AnalyzedAt:        now,
		})

	default:
		return domain.WrapError(domain.ErrInvalidInput, "store result", fmt.Errorf("unknown kind %q", kind))
	}
}

// Payload shapes mirror the JSON schemas embedded in the prompts.

type motionQualityPayload struct {
	Scores struct {
		ConcreteProposals int `json:"concrete_proposals"`
		CostAnalysis      int `json:"cost_analysis"`
		SpecificGoals     int `json:"specific_goals"`
		LegalText         int `json:"legal_text"`
		Implementation    int `json:"implementation"`
	} `json:"scores"`
	OverallScore float64 `json:"overall_substantiality_score"`
	Category     string  `json:"category"`
	Assessment   string  `json:"assessment"`
}

type absencePayload struct {
	Categories []domain.AbsenceCategory `json:"kategorier"`
	Assessment string                   `json:"overall_assessment"`
	RedFlags   []string                 `json:"red_flags"`
}

type rhetoricPayload struct {
	Topics            []domain.RhetoricTopic `json:"topics_analyzed"`
	GapScore          int                    `json:"overall_gap_score"`
	Assessment        string                 `json:"assessment"`
	CredibilityIssues []string               `json:"credibility_issues"`
}

var _ ports.ResultIngestor = (*ProcessResultsUseCase)(nil)
