package domain

import "testing"

func TestRecomputeTotals(t *testing.T) {
	analysis := AbsenceAnalysis{
		Categories: []AbsenceCategory{
			{Name: "Miljö", VotingCount: 100, AbsenceCount: 20},
			{Name: "Skatter", VotingCount: 50, AbsenceCount: 5},
		},
		// Model-reported totals that contradict the breakdown.
		TotalVotes:     999,
		TotalAbsences:  0,
		AbsencePercent: 50,
	}

	analysis.RecomputeTotals()
	if analysis.TotalVotes != 150 || analysis.TotalAbsences != 25 {
		t.Fatalf("got totals %d/%d, want 150/25", analysis.TotalVotes, analysis.TotalAbsences)
	}
	if analysis.AbsencePercent != 16.7 {
		t.Fatalf("got %.1f%%, want 16.7%%", analysis.AbsencePercent)
	}
}

func TestRecomputeTotalsNoVotes(t *testing.T) {
	analysis := AbsenceAnalysis{AbsencePercent: 42}
	analysis.RecomputeTotals()
	if analysis.TotalVotes != 0 || analysis.AbsencePercent != 0 {
		t.Fatalf("empty breakdown must zero the totals, got %+v", analysis)
	}
}

func TestVoteAbsent(t *testing.T) {
	if !(Vote{Choice: "Frånvarande"}).Absent() {
		t.Error("Frånvarande should count as absent")
	}
	if !(Vote{Choice: ""}).Absent() {
		t.Error("missing choice should count as absent")
	}
	for _, choice := range []string{"Ja", "Nej", "Avstår"} {
		if (Vote{Choice: choice}).Absent() {
			t.Errorf("%s should not count as absent", choice)
		}
	}
}

func TestParseAnalysisKind(t *testing.T) {
	for _, kind := range AnalysisKinds {
		got, ok := ParseAnalysisKind(string(kind))
		if !ok || got != kind {
			t.Errorf("round trip failed for %s", kind)
		}
	}
	if _, ok := ParseAnalysisKind("sentiment"); ok {
		t.Error("unknown kind must not parse")
	}
}

func TestProcessStatsAdd(t *testing.T) {
	total := ProcessStats{Total: 5, Stored: 3, Skipped: 1, Failed: 1}
	total.Add(ProcessStats{Total: 2, Stored: 2})
	if total.Total != 7 || total.Stored != 5 || total.Skipped != 1 || total.Failed != 1 {
		t.Fatalf("unexpected aggregate: %+v", total)
	}
}
