package openaibatch

import (
	"fmt"
	"strings"
	"testing"

	"github.com/riksdagskollen/riksdagsanalys/internal/core/domain"
)

func TestMotionQualityPromptIsDeterministic(t *testing.T) {
	builder := NewPromptBuilder(PromptOptions{})
	motion := domain.Motion{
		ID:       "H902MOT123",
		MemberID: "0123456789",
		Title:    "Utbyggnad av järnvägen i Norrland",
		Fulltext: "Riksdagen ställer sig bakom det som anförs i motionen.",
	}

	first := builder.MotionQuality(motion)
	second := builder.MotionQuality(motion)
	if first.Prompt != second.Prompt {
		t.Fatal("same motion must render byte-identical prompts")
	}
	if !strings.Contains(first.Prompt, motion.Title) {
		t.Fatal("prompt must include the motion title")
	}
	if first.MaxCompletionTokens != 3000 {
		t.Fatalf("unexpected token budget %d", first.MaxCompletionTokens)
	}
}

func TestMotionQualityPromptTruncatesLongText(t *testing.T) {
	builder := NewPromptBuilder(PromptOptions{MotionTextLimit: 100})
	motion := domain.Motion{
		ID:       "H902MOT124",
		Title:    "En lång motion",
		Fulltext: strings.Repeat("å", 150),
	}

	request := builder.MotionQuality(motion)
	if !strings.Contains(request.Prompt, truncationMarker) {
		t.Fatal("expected truncation marker in prompt")
	}
	if strings.Contains(request.Prompt, strings.Repeat("å", 101)) {
		t.Fatal("prompt must not contain text past the limit")
	}
}

func TestMotionQualityPromptHandlesMissingFields(t *testing.T) {
	builder := NewPromptBuilder(PromptOptions{})
	request := builder.MotionQuality(domain.Motion{ID: "H902MOT125"})
	if !strings.Contains(request.Prompt, "Unknown") {
		t.Fatal("missing title and author should render as Unknown")
	}
	if !strings.Contains(request.Prompt, "No fulltext available") {
		t.Fatal("missing fulltext should be stated explicitly")
	}
}

func TestAbsenceDetectionCapsVoteListing(t *testing.T) {
	builder := NewPromptBuilder(PromptOptions{})
	member := domain.Member{ID: "0123", Name: "Anna Andersson", Party: "S"}
	votes := make([]domain.Vote, 50)
	for i := range votes {
		votes[i] = domain.Vote{Title: fmt.Sprintf("Votering %02d", i), Choice: "Ja"}
	}
	votes[0].Choice = "Frånvarande"

	request := builder.AbsenceDetection(member, votes)
	if !strings.Contains(request.Prompt, "1/50 absent (2.0%)") {
		t.Fatalf("expected absence summary in prompt:\n%s", request.Prompt)
	}
	if !strings.Contains(request.Prompt, "Votering 39") {
		t.Fatal("expected the 40th vote in the listing")
	}
	if strings.Contains(request.Prompt, "Votering 40") {
		t.Fatal("listing must stop at 40 votes")
	}
	if request.MaxCompletionTokens != 5000 {
		t.Fatalf("unexpected token budget %d", request.MaxCompletionTokens)
	}
}

func TestAbsenceDetectionUsesConfiguredBaseline(t *testing.T) {
	builder := NewPromptBuilder(PromptOptions{AbsenceBaselinePct: 20})
	request := builder.AbsenceDetection(domain.Member{Name: "Anna Andersson"}, nil)
	if !strings.Contains(request.Prompt, "Baseline: ~20%") {
		t.Fatalf("expected configured baseline in prompt:\n%s", request.Prompt)
	}
}

func TestRhetoricAnalysisSamplesSpeechesAndVotes(t *testing.T) {
	builder := NewPromptBuilder(PromptOptions{})
	member := domain.Member{ID: "0123", Name: "Anna Andersson", Party: "S"}
	speeches := make([]domain.Speech, 5)
	for i := range speeches {
		speeches[i] = domain.Speech{Text: fmt.Sprintf("Anförande nummer %d om klimatet.", i)}
	}
	votes := make([]domain.Vote, 8)
	for i := range votes {
		votes[i] = domain.Vote{Title: fmt.Sprintf("Votering %d", i), Choice: "Nej"}
	}

	request := builder.RhetoricAnalysis(member, speeches, votes)
	if !strings.Contains(request.Prompt, "sample of 5 total") {
		t.Fatal("expected total speech count in prompt")
	}
	if strings.Contains(request.Prompt, "Anförande nummer 3") {
		t.Fatal("speech sample must stop at 3")
	}
	if strings.Contains(request.Prompt, "Votering 5") {
		t.Fatal("vote sample must stop at 5")
	}
	if !strings.Contains(request.Prompt, "- Votering 4: nej") {
		t.Fatal("expected normalized vote choice in listing")
	}
}
