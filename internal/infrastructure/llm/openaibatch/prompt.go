package openaibatch

import (
	"fmt"
	"strings"

	"github.com/riksdagskollen/riksdagsanalys/internal/core/domain"
	"github.com/riksdagskollen/riksdagsanalys/internal/core/ports"
)

const systemPrompt = "You are a Swedish political analyst. Respond ONLY with valid JSON."

const truncationMarker = "\n[... text truncated ...]"

// PromptBuilder renders domain records into analysis prompts. All
// methods are pure: same record in, byte-identical prompt out.
type PromptBuilder struct {
	motionTextLimit    int
	absenceBaselinePct float64
	maxTokensAbsence   int
	maxTokensDefault   int
}

type PromptOptions struct {
	MotionTextLimit    int
	AbsenceBaselinePct float64
	MaxTokensAbsence   int
	MaxTokensDefault   int
}

func NewPromptBuilder(options PromptOptions) *PromptBuilder {
	builder := &PromptBuilder{
		motionTextLimit:    options.MotionTextLimit,
		absenceBaselinePct: options.AbsenceBaselinePct,
		maxTokensAbsence:   options.MaxTokensAbsence,
		maxTokensDefault:   options.MaxTokensDefault,
	}
	if builder.motionTextLimit <= 0 {
		builder.motionTextLimit = 1500
	}
	if builder.absenceBaselinePct <= 0 {
		builder.absenceBaselinePct = 13
	}
	if builder.maxTokensAbsence <= 0 {
		// Absence analysis emits a full per-category breakdown and needs
		// the larger output budget.
		builder.maxTokensAbsence = 5000
	}
	if builder.maxTokensDefault <= 0 {
		builder.maxTokensDefault = 3000
	}
	return builder
}

func (b *PromptBuilder) MotionQuality(motion domain.Motion) domain.AnalysisRequest {
	title := orUnknown(motion.Title)
	author := orUnknown(motion.MemberID)
	text := motion.Fulltext
	if text == "" {
		text = "No fulltext available"
	}

	var sb strings.Builder
	sb.WriteString("You are an expert Swedish legislator. Evaluate the quality and substantiality of a parliamentary motion.\n\n")
	fmt.Fprintf(&sb, "MOTION TITLE: %s\nAUTHOR: %s\n\nMOTION TEXT (sample):\n%s\n\n", title, author, truncate(text, b.motionTextLimit))
	sb.WriteString(`TASK:
Score this motion on each criterion (1-10 scale where 10 = excellent):

1. CONCRETE PROPOSALS: Does it suggest specific, actionable measures?
2. COST ANALYSIS: Does it include budget estimates or financial implications?
3. SPECIFIC GOALS: Are measurable targets or objectives defined?
4. LEGAL TEXT: Does it include proposed legislative changes or law amendments?
5. IMPLEMENTATION: Are details about how/when/who will implement this included?

Then provide:
- Overall substantiality score (average of the 5 criteria, 1-10)
- Category: "substantial" (7-10), "medium" (4-6), "empty" (1-3)
- Summary of what makes this motion strong or weak

RESPOND ONLY WITH VALID JSON:
{
  "scores": {
    "concrete_proposals": number,
    "cost_analysis": number,
    "specific_goals": number,
    "legal_text": number,
    "implementation": number
  },
  "overall_substantiality_score": number,
  "category": "substantial" | "medium" | "empty",
  "assessment": "What makes this motion strong or weak"
}`)

	return domain.AnalysisRequest{
		System:              systemPrompt,
		Prompt:              sb.String(),
		MaxCompletionTokens: b.maxTokensDefault,
	}
}

func (b *PromptBuilder) AbsenceDetection(member domain.Member, votes []domain.Vote) domain.AnalysisRequest {
	absences := 0
	for _, vote := range votes {
		if vote.Absent() {
			absences++
		}
	}
	rate := 0.0
	if len(votes) > 0 {
		rate = float64(absences) / float64(len(votes)) * 100
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze voting absences for %s (%s): %d/%d absent (%.1f%%)\n\n",
		member.Name, orUnknown(member.Party), absences, len(votes), rate)

	sb.WriteString("RECENT VOTES:\n")
	sample := votes
	if len(sample) > 40 {
		sample = sample[:40]
	}
	for _, vote := range sample {
		presence := "present"
		if vote.Absent() {
			presence = "absent"
		}
		fmt.Fprintf(&sb, "- %s: %s\n", orUnknown(vote.Title), presence)
	}

	fmt.Fprintf(&sb, `
Identify topic categories, absences, patterns. Baseline: ~%.0f%%. Respond as JSON only:
{
  "kategorier": [{
    "name": "topic",
    "voting_count": N,
    "absence_count": N,
    "absence_percent": N.N,
    "baseline_percent": %.0f,
    "deviation": "higher"|"normal"|"lower",
    "pattern_note": "optional"
  }],
  "overall_assessment": "brief summary",
  "red_flags": ["pattern1", "pattern2"]
}`, b.absenceBaselinePct, b.absenceBaselinePct)

	return domain.AnalysisRequest{
		System:              systemPrompt,
		Prompt:              sb.String(),
		MaxCompletionTokens: b.maxTokensAbsence,
	}
}

func (b *PromptBuilder) RhetoricAnalysis(member domain.Member, speeches []domain.Speech, votes []domain.Vote) domain.AnalysisRequest {
	var sb strings.Builder
	sb.WriteString("You are a Swedish political journalist. Analyze the gap between what a politician says and how they vote.\n\n")
	fmt.Fprintf(&sb, "MEMBER: %s (%s)\n\n", member.Name, orUnknown(member.Party))

	fmt.Fprintf(&sb, "RECENT SPEECHES (sample of %d total):\n", len(speeches))
	speechSample := speeches
	if len(speechSample) > 3 {
		speechSample = speechSample[:3]
	}
	for _, speech := range speechSample {
		fmt.Fprintf(&sb, "%q\n", truncate(speech.Text, 200))
	}

	fmt.Fprintf(&sb, "\nRECENT VOTES (sample of %d total):\n", len(votes))
	voteSample := votes
	if len(voteSample) > 5 {
		voteSample = voteSample[:5]
	}
	for _, vote := range voteSample {
		fmt.Fprintf(&sb, "- %s: %s\n", orUnknown(vote.Title), normalizeChoice(vote.Choice))
	}

	sb.WriteString(`
TASK:
1. Identify the main topics mentioned in speeches
2. For each topic, find related votes
3. Determine if voting aligns with what was said (positive/negative sentiment consistency)
4. Calculate a "gap score" (0-100) where 0 = perfect alignment, 100 = complete contradiction
5. Highlight any obvious contradictions between words and actions

RESPOND ONLY WITH VALID JSON:
{
  "topics_analyzed": [
    {
      "topic": "topic name",
      "speech_mentions": number,
      "speech_sentiment": "positive" | "negative" | "neutral",
      "related_votes": number,
      "supporting_votes": number,
      "opposing_votes": number,
      "alignment": "high" | "medium" | "low",
      "contradiction_note": "If applicable"
    }
  ],
  "overall_gap_score": number,
  "assessment": "Brief summary of rhetoric vs voting alignment",
  "credibility_issues": ["list", "of", "concerns"]
}`)

	return domain.AnalysisRequest{
		System:              systemPrompt,
		Prompt:              sb.String(),
		MaxCompletionTokens: b.maxTokensDefault,
	}
}

// truncate caps text at limit runes and appends an explicit marker so
// downstream consumers can detect partial input. The cut point depends
// only on the input, keeping rendered prompts reproducible.
func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + truncationMarker
}

func normalizeChoice(choice string) string {
	switch choice {
	case "Ja":
		return "ja"
	case "Nej":
		return "nej"
	default:
		return "avstar"
	}
}

func orUnknown(value string) string {
	if strings.TrimSpace(value) == "" {
		return "Unknown"
	}
	return value
}

var _ ports.PromptBuilder = (*PromptBuilder)(nil)
