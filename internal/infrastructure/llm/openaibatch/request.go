package openaibatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/riksdagskollen/riksdagsanalys/internal/core/domain"
)

// batchLine is the per-line request envelope of the provider's batch
// input file format.
type batchLine struct {
	CustomID string   `json:"custom_id"`
	Method   string   `json:"method"`
	URL      string   `json:"url"`
	Body     chatBody `json:"body"`
}

type chatBody struct {
	Model               string        `json:"model"`
	Messages            []chatMessage `json:"messages"`
	MaxCompletionTokens int           `json:"max_completion_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func encodeBatchLines(requests []domain.AnalysisRequest, model string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, req := range requests {
		if req.CustomID == "" {
			return nil, fmt.Errorf("request without custom id")
		}
		line := batchLine{
			CustomID: req.CustomID,
			Method:   "POST",
			URL:      "/v1/chat/completions",
			Body: chatBody{
				Model: model,
				Messages: []chatMessage{
					{Role: "system", Content: req.System},
					{Role: "user", Content: req.Prompt},
				},
				MaxCompletionTokens: req.MaxCompletionTokens,
			},
		}
		if err := enc.Encode(line); err != nil {
			return nil, fmt.Errorf("encode request %s: %w", req.CustomID, err)
		}
	}
	return buf.Bytes(), nil
}

type fileObject struct {
	ID string `json:"id"`
}

type batchObject struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	OutputFileID  string `json:"output_file_id"`
	RequestCounts struct {
		Total     int `json:"total"`
		Succeeded int `json:"succeeded"`
		Errored   int `json:"errored"`
	} `json:"request_counts"`
	CompletedAt int64 `json:"completed_at"`
}

func (b *batchObject) toDomain() *domain.ProviderBatch {
	batch := &domain.ProviderBatch{
		ID:           b.ID,
		Status:       domain.JobStatus(b.Status),
		OutputFileID: b.OutputFileID,
		Counts: domain.RequestCounts{
			Total:     b.RequestCounts.Total,
			Succeeded: b.RequestCounts.Succeeded,
			Errored:   b.RequestCounts.Errored,
		},
	}
	if b.CompletedAt > 0 {
		done := time.Unix(b.CompletedAt, 0).UTC()
		batch.CompletedAt = &done
	}
	return batch
}
