package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// A correlation id encodes {kind, source record id, sequence index} as
// "<kind>_<record_id>_<seq>". It is the only linkage between a response
// line and the record it concerns: the provider returns lines in
// arbitrary order. Record ids may themselves contain underscores, so
// decoding anchors on the fixed kind prefix and the trailing numeric
// sequence instead of splitting on the separator.
func EncodeCorrelationID(kind AnalysisKind, recordID string, seq int) string {
	return fmt.Sprintf("%s_%s_%d", kind, recordID, seq)
}

func DecodeCorrelationID(customID string) (AnalysisKind, string, error) {
	var kind AnalysisKind
	for _, candidate := range AnalysisKinds {
		if strings.HasPrefix(customID, string(candidate)+"_") {
			kind = candidate
			break
		}
	}
	if kind == "" {
		return "", "", fmt.Errorf("correlation id %q: unknown analysis kind", customID)
	}

	rest := customID[len(kind)+1:]
	cut := strings.LastIndex(rest, "_")
	if cut <= 0 {
		return "", "", fmt.Errorf("correlation id %q: missing sequence suffix", customID)
	}
	if _, err := strconv.Atoi(rest[cut+1:]); err != nil {
		return "", "", fmt.Errorf("correlation id %q: sequence %q is not numeric", customID, rest[cut+1:])
	}

	recordID := rest[:cut]
	if recordID == "" {
		return "", "", fmt.Errorf("correlation id %q: empty record id", customID)
	}
	return kind, recordID, nil
}
