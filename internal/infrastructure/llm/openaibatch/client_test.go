package openaibatch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riksdagskollen/riksdagsanalys/internal/core/domain"
	"github.com/riksdagskollen/riksdagsanalys/internal/infrastructure/resilience"
)

func testClient(t *testing.T, baseURL string, executor *resilience.Executor) *Client {
	t.Helper()
	client, err := New(Options{
		BaseURL:  baseURL,
		APIKey:   "test-key",
		Model:    "gpt-5-mini",
		Executor: executor,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func fastExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
	})
}

func TestUploadBatchSendsJSONLFile(t *testing.T) {
	var gotPurpose string
	var gotLines []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		gotPurpose = r.FormValue("purpose")
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		content, _ := io.ReadAll(file)
		gotLines = strings.Split(strings.TrimSpace(string(content)), "\n")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "file_abc"})
	}))
	defer server.Close()

	client := testClient(t, server.URL, nil)
	requests := []domain.AnalysisRequest{
		{CustomID: "motion_quality_H123_0", System: "sys", Prompt: "first", MaxCompletionTokens: 3000},
		{CustomID: "motion_quality_H124_1", System: "sys", Prompt: "second", MaxCompletionTokens: 3000},
	}

	fileID, err := client.UploadBatch(context.Background(), requests, "motions.jsonl")
	if err != nil {
		t.Fatalf("upload batch: %v", err)
	}
	if fileID != "file_abc" {
		t.Fatalf("expected file_abc, got %q", fileID)
	}
	if gotPurpose != "batch" {
		t.Fatalf("expected purpose=batch, got %q", gotPurpose)
	}
	if len(gotLines) != 2 {
		t.Fatalf("expected 2 JSONL lines, got %d", len(gotLines))
	}

	var line batchLine
	if err := json.Unmarshal([]byte(gotLines[1]), &line); err != nil {
		t.Fatalf("decode line: %v", err)
	}
	if line.CustomID != "motion_quality_H124_1" {
		t.Fatalf("unexpected custom id %q", line.CustomID)
	}
	if line.URL != "/v1/chat/completions" || line.Method != "POST" {
		t.Fatalf("unexpected envelope %s %s", line.Method, line.URL)
	}
	if line.Body.Model != "gpt-5-mini" || len(line.Body.Messages) != 2 {
		t.Fatalf("unexpected body: %+v", line.Body)
	}
}

func TestUploadBatchRejectsEmptyRequestSet(t *testing.T) {
	client := testClient(t, "http://localhost:1", nil)
	_, err := client.UploadBatch(context.Background(), nil, "empty.jsonl")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestUploadBatchFailureIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client := testClient(t, server.URL, fastExecutor())
	requests := []domain.AnalysisRequest{{CustomID: "motion_quality_H1_0", Prompt: "p"}}

	_, err := client.UploadBatch(context.Background(), requests, "motions.jsonl")
	if !domain.IsKind(err, domain.ErrUploadFailed) {
		t.Fatalf("expected upload failure, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("billable upload must not be retried, got %d calls", got)
	}
}

func TestCreateBatchSendsCompletionWindow(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/batches" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "batch_1", "status": "validating"})
	}))
	defer server.Close()

	client := testClient(t, server.URL, nil)
	batch, err := client.CreateBatch(context.Background(), "file_abc")
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	if batch.ID != "batch_1" || batch.Status != domain.JobStatusValidating {
		t.Fatalf("unexpected batch: %+v", batch)
	}
	if gotBody["input_file_id"] != "file_abc" {
		t.Fatalf("unexpected input_file_id %v", gotBody["input_file_id"])
	}
	if gotBody["completion_window"] != "24h" {
		t.Fatalf("unexpected completion_window %v", gotBody["completion_window"])
	}
}

func TestCreateBatchFailureIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	client := testClient(t, server.URL, fastExecutor())
	_, err := client.CreateBatch(context.Background(), "file_abc")
	if !domain.IsKind(err, domain.ErrSubmissionFailed) {
		t.Fatalf("expected submission failure, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("batch creation must not be retried, got %d calls", got)
	}
}

func TestGetBatchRetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":             "batch_1",
			"status":         "completed",
			"output_file_id": "file_out",
			"request_counts": map[string]int{"total": 10, "succeeded": 9, "errored": 1},
			"completed_at":   1735689600,
		})
	}))
	defer server.Close()

	client := testClient(t, server.URL, fastExecutor())
	batch, err := client.GetBatch(context.Background(), "batch_1")
	if err != nil {
		t.Fatalf("get batch: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 calls, got %d", got)
	}
	if batch.Status != domain.JobStatusCompleted || batch.OutputFileID != "file_out" {
		t.Fatalf("unexpected batch: %+v", batch)
	}
	if batch.Counts.Succeeded != 9 || batch.Counts.Errored != 1 {
		t.Fatalf("unexpected counts: %+v", batch.Counts)
	}
	if batch.CompletedAt == nil || !batch.CompletedAt.Equal(time.Unix(1735689600, 0)) {
		t.Fatalf("unexpected completed at: %v", batch.CompletedAt)
	}
}

func TestGetBatchDoesNotRetryClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "no such batch", http.StatusNotFound)
	}))
	defer server.Close()

	client := testClient(t, server.URL, fastExecutor())
	if _, err := client.GetBatch(context.Background(), "batch_missing"); err == nil {
		t.Fatal("expected error for 404")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("404 must not be retried, got %d calls", got)
	}
}

func TestOpenOutputStreamsFileContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/file_out/content" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"custom_id":"motion_quality_H1_0","response":{"status_code":200,"body":{"choices":[{"message":{"content":"{}"}}]}}}`+"\n")
	}))
	defer server.Close()

	client := testClient(t, server.URL, nil)
	reader, err := client.OpenOutput(context.Background(), "file_out")
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer reader.Close()

	line, err := reader.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if line.CustomID != "motion_quality_H1_0" || line.Content != "{}" {
		t.Fatalf("unexpected line: %+v", line)
	}
	if _, err := reader.Next(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}
