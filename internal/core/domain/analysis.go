package domain

import "time"

type AnalysisKind string

const (
	KindMotionQuality    AnalysisKind = "motion_quality"
	KindAbsenceDetection AnalysisKind = "absence_detection"
	KindRhetoricAnalysis AnalysisKind = "rhetoric_analysis"
)

// AnalysisKinds lists every supported kind, longest name first so that
// correlation-id decoding can match by prefix without ambiguity.
var AnalysisKinds = []AnalysisKind{
	KindAbsenceDetection,
	KindRhetoricAnalysis,
	KindMotionQuality,
}

func ParseAnalysisKind(raw string) (AnalysisKind, bool) {
	for _, kind := range AnalysisKinds {
		if raw == string(kind) {
			return kind, true
		}
	}
	return "", false
}

// AnalysisRequest is one unit of analysis work: a fully rendered prompt
// plus the correlation id that ties the eventual response line back to
// its source record. It exists only inside a job's input/output files.
type AnalysisRequest struct {
	CustomID            string
	System              string
	Prompt              string
	MaxCompletionTokens int
}

// MotionQuality is the persisted outcome of a motion_quality request,
// one row per motion.
type MotionQuality struct {
	MotionID          string    `json:"motion_id"`
	ConcreteProposals int       `json:"har_konkreta_forslag"`
	CostAnalysis      int       `json:"har_kostnader"`
	SpecificGoals     int       `json:"har_specifika_mal"`
	LegalText         int       `json:"har_lagtext"`
	Implementation    int       `json:"har_implementation"`
	OverallScore      float64   `json:"substantiell_score"`
	Category          string    `json:"kategori"`
	Assessment        string    `json:"sammanfattning"`
	AnalyzedAt        time.Time `json:"analyzed_at"`
}

// AbsenceCategory is one per-topic breakdown entry in an absence analysis.
type AbsenceCategory struct {
	Name            string  `json:"name"`
	VotingCount     int     `json:"voting_count"`
	AbsenceCount    int     `json:"absence_count"`
	AbsencePercent  float64 `json:"absence_percent"`
	BaselinePercent float64 `json:"baseline_percent"`
	Deviation       string  `json:"deviation"`
	PatternNote     string  `json:"pattern_note,omitempty"`
}

// AbsenceAnalysis is the persisted outcome of an absence_detection
// request, one row per member. The aggregate totals are recomputed from
// the category counts, never trusted from the model output.
type AbsenceAnalysis struct {
	MemberID       string            `json:"ledamot_id"`
	Categories     []AbsenceCategory `json:"kategorier"`
	TotalVotes     int               `json:"total_voteringar"`
	TotalAbsences  int               `json:"total_franvaro"`
	AbsencePercent float64           `json:"franvaro_procent"`
	Assessment     string            `json:"overall_assessment"`
	RedFlags       []string          `json:"red_flags,omitempty"`
	AnalyzedAt     time.Time         `json:"analyzed_at"`
}

// RecomputeTotals derives the aggregate counters from the per-category
// breakdown. The model states its own totals, but its arithmetic is not
// guaranteed consistent with its own breakdown.
func (a *AbsenceAnalysis) RecomputeTotals() {
	total, absent := 0, 0
	for _, cat := range a.Categories {
		total += cat.VotingCount
		absent += cat.AbsenceCount
	}
	a.TotalVotes = total
	a.TotalAbsences = absent
	if total > 0 {
		a.AbsencePercent = roundOneDecimal(float64(absent) / float64(total) * 100)
	} else {
		a.AbsencePercent = 0
	}
}

func roundOneDecimal(v float64) float64 {
	scaled := v * 10
	if scaled >= 0 {
		scaled += 0.5
	} else {
		scaled -= 0.5
	}
	return float64(int64(scaled)) / 10
}

// RhetoricTopic records how speech sentiment on one topic lines up with
// the member's votes on it.
type RhetoricTopic struct {
	Topic             string `json:"topic"`
	SpeechMentions    int    `json:"speech_mentions"`
	SpeechSentiment   string `json:"speech_sentiment"`
	RelatedVotes      int    `json:"related_votes"`
	SupportingVotes   int    `json:"supporting_votes"`
	OpposingVotes     int    `json:"opposing_votes"`
	Alignment         string `json:"alignment"`
	ContradictionNote string `json:"contradiction_note,omitempty"`
}

// RhetoricAnalysis is the persisted outcome of a rhetoric_analysis
// request, one row per member. GapScore is 0 (perfect alignment) to 100
// (complete contradiction).
type RhetoricAnalysis struct {
	MemberID          string          `json:"ledamot_id"`
	Topics            []RhetoricTopic `json:"topics_analyzed"`
	GapScore          int             `json:"overall_gap_score"`
	Assessment        string          `json:"assessment"`
	CredibilityIssues []string        `json:"credibility_issues,omitempty"`
	AnalyzedAt        time.Time       `json:"analyzed_at"`
}

// ProcessStats is the aggregate outcome of one result-processing call.
// Operators need to tell "nothing to do" from "everything failed" from
// "mixed outcome", so this is never collapsed into a bool.
type ProcessStats struct {
	Total   int `json:"total"`
	Stored  int `json:"stored"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

func (s *ProcessStats) Add(other ProcessStats) {
	s.Total += other.Total
	s.Stored += other.Stored
	s.Skipped += other.Skipped
	s.Failed += other.Failed
}
