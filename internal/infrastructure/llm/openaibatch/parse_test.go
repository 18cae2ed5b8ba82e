package openaibatch

import (
	"io"
	"strings"
	"testing"

	"github.com/riksdagskollen/riksdagsanalys/internal/core/domain"
)

func TestOutputReaderHandlesMixedStream(t *testing.T) {
	stream := strings.Join([]string{
		`{"custom_id":"motion_quality_H1_0","response":{"status_code":200,"body":{"choices":[{"message":{"content":"ok"}}]}}}`,
		``,
		`not json at all`,
		`{"custom_id":"motion_quality_H2_1","error":{"message":"item exploded"}}`,
	}, "\n")

	reader := newOutputReader(io.NopCloser(strings.NewReader(stream)))
	defer reader.Close()

	first, err := reader.Next()
	if err != nil {
		t.Fatalf("first line: %v", err)
	}
	if first.CustomID != "motion_quality_H1_0" || first.Content != "ok" {
		t.Fatalf("unexpected first line: %+v", first)
	}

	second, err := reader.Next()
	if err != nil {
		t.Fatalf("second line: %v", err)
	}
	if !second.Malformed {
		t.Fatalf("expected malformed flag for garbage line, got %+v", second)
	}

	third, err := reader.Next()
	if err != nil {
		t.Fatalf("third line: %v", err)
	}
	if third.ItemError != "item exploded" {
		t.Fatalf("expected item error, got %+v", third)
	}

	if _, err := reader.Next(); err != io.EOF {
		t.Fatalf("expected EOF after last line, got %v", err)
	}
}

func TestOutputReaderFlagsMissingCustomID(t *testing.T) {
	reader := newOutputReader(io.NopCloser(strings.NewReader(`{"response":{"status_code":200}}`)))
	defer reader.Close()

	line, err := reader.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if !line.Malformed {
		t.Fatalf("line without custom_id must be malformed, got %+v", line)
	}
}

func TestOutputReaderEmptyFile(t *testing.T) {
	reader := newOutputReader(io.NopCloser(strings.NewReader("\n\n")))
	defer reader.Close()

	if _, err := reader.Next(); err != io.EOF {
		t.Fatalf("expected EOF for blank file, got %v", err)
	}
}

func TestEncodeBatchLinesRequiresCustomID(t *testing.T) {
	_, err := encodeBatchLines([]domain.AnalysisRequest{{Prompt: "p"}}, "gpt-5-mini")
	if err == nil {
		t.Fatal("expected error for request without custom id")
	}
}
