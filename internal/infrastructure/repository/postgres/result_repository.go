package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/riksdagskollen/riksdagsanalys/internal/core/domain"
)

// ResultRepository persists analysis outcomes. Every insert is
// upsert-or-skip: ON CONFLICT DO NOTHING keeps the first stored row and
// a zero rows-affected count surfaces as domain.ErrDuplicateResult, so
// re-processing an output file is always safe.
type ResultRepository struct {
	db *sql.DB
}

func NewResultRepository(db *sql.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

func (r *ResultRepository) StoreMotionQuality(ctx context.Context, result *domain.MotionQuality) error {
	execResult, err := r.db.ExecContext(ctx, `
INSERT INTO motion_kvalitet (
	motion_id, har_konkreta_forslag, har_kostnader, har_specifika_mal,
	har_lagtext, har_implementation, substantiell_score, kategori,
	sammanfattning, analyzed_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (motion_id) DO NOTHING
`, result.MotionID, result.ConcreteProposals, result.CostAnalysis, result.SpecificGoals,
		result.LegalText, result.Implementation, result.OverallScore, result.Category,
		result.Assessment, result.AnalyzedAt)
	if err != nil {
		return fmt.Errorf("store motion quality: %w", err)
	}
	return duplicateIfNoRows(execResult, "store motion quality", result.MotionID)
}

func (r *ResultRepository) StoreAbsenceAnalysis(ctx context.Context, result *domain.AbsenceAnalysis) error {
	categories, err := json.Marshal(result.Categories)
	if err != nil {
		return fmt.Errorf("marshal absence categories: %w", err)
	}
	redFlags, err := json.Marshal(result.RedFlags)
	if err != nil {
		return fmt.Errorf("marshal absence red flags: %w", err)
	}

	execResult, err := r.db.ExecContext(ctx, `
INSERT INTO franvaro_analys (
	ledamot_id, kategorier, total_voteringar, total_franvaro,
	franvaro_procent, overall_assessment, red_flags, analyzed_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (ledamot_id) DO NOTHING
`, result.MemberID, categories, result.TotalVotes, result.TotalAbsences,
		result.AbsencePercent, result.Assessment, redFlags, result.AnalyzedAt)
	if err != nil {
		return fmt.Errorf("store absence analysis: %w", err)
	}
	return duplicateIfNoRows(execResult, "store absence analysis", result.MemberID)
}

func (r *ResultRepository) StoreRhetoricAnalysis(ctx context.Context, result *domain.RhetoricAnalysis) error {
	topics, err := json.Marshal(result.Topics)
	if err != nil {
		return fmt.Errorf("marshal rhetoric topics: %w", err)
	}
	issues, err := json.Marshal(result.CredibilityIssues)
	if err != nil {
		return fmt.Errorf("marshal credibility issues: %w", err)
	}

	execResult, err := r.db.ExecContext(ctx, `
INSERT INTO retorik_analys (
	ledamot_id, topics_analyzed, overall_gap_score, assessment,
	credibility_issues, analyzed_at
)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (ledamot_id) DO NOTHING
`, result.MemberID, topics, result.GapScore, result.Assessment, issues, result.AnalyzedAt)
	if err != nil {
		return fmt.Errorf("store rhetoric analysis: %w", err)
	}
	return duplicateIfNoRows(execResult, "store rhetoric analysis", result.MemberID)
}

func duplicateIfNoRows(result sql.Result, operation, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDuplicateResult, operation, fmt.Errorf("id %s", id))
	}
	return nil
}
