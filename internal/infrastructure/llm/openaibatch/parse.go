package openaibatch

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"

	"github.com/riksdagskollen/riksdagsanalys/internal/core/domain"
)

// outputLine is the per-line response envelope of the provider's batch
// output file format.
type outputLine struct {
	CustomID string `json:"custom_id"`
	Response struct {
		StatusCode int `json:"status_code"`
		Body       struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		} `json:"body"`
	} `json:"response"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type outputReader struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

// Output lines carry a full rendered prompt response; motion fulltexts
// push some past bufio's default 64K token limit.
const maxOutputLineBytes = 4 * 1024 * 1024

func newOutputReader(body io.ReadCloser) *outputReader {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), maxOutputLineBytes)
	return &outputReader{body: body, scanner: scanner}
}

func (r *outputReader) Next() (domain.BatchOutputLine, error) {
	for r.scanner.Scan() {
		raw := bytes.TrimSpace(r.scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var line outputLine
		if err := json.Unmarshal(raw, &line); err != nil || line.CustomID == "" {
			return domain.BatchOutputLine{Malformed: true}, nil
		}

		out := domain.BatchOutputLine{CustomID: line.CustomID}
		if line.Error != nil {
			out.ItemError = line.Error.Message
			return out, nil
		}
		if len(line.Response.Body.Choices) > 0 {
			out.Content = line.Response.Body.Choices[0].Message.Content
		}
		return out, nil
	}
	if err := r.scanner.Err(); err != nil {
		return domain.BatchOutputLine{}, err
	}
	return domain.BatchOutputLine{}, io.EOF
}

func (r *outputReader) Close() error {
	return r.body.Close()
}

