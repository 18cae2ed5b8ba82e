package domain

import "testing"

func TestCorrelationIDRoundTrip(t *testing.T) {
	tests := []struct {
		kind     AnalysisKind
		recordID string
	}{
		{KindMotionQuality, "H902MOT123"},
		{KindAbsenceDetection, "0123456789012"},
		// Record ids may themselves contain underscores.
		{KindRhetoricAnalysis, "some_odd_id_42"},
	}

	for _, tc := range tests {
		customID := EncodeCorrelationID(tc.kind, tc.recordID, 7)
		kind, recordID, err := DecodeCorrelationID(customID)
		if err != nil {
			t.Fatalf("decode %q: %v", customID, err)
		}
		if kind != tc.kind || recordID != tc.recordID {
			t.Fatalf("decode %q: got (%s, %s)", customID, kind, recordID)
		}
	}
}

func TestDecodeCorrelationIDRejectsGarbage(t *testing.T) {
	bad := []string{
		"",
		"sentiment_H902_0",
		"motion_quality_",
		"motion_quality_H902",
		"motion_quality_H902_abc",
		"motion_quality__0",
	}
	for _, customID := range bad {
		if _, _, err := DecodeCorrelationID(customID); err == nil {
			t.Errorf("expected decode error for %q", customID)
		}
	}
}
