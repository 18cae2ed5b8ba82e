package openaibatch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/riksdagskollen/riksdagsanalys/internal/core/domain"
	"github.com/riksdagskollen/riksdagsanalys/internal/core/ports"
	"github.com/riksdagskollen/riksdagsanalys/internal/infrastructure/resilience"
)

// Client talks to the provider's asynchronous batch API: file upload,
// batch creation, status reads and output streaming. Individual chat
// completions are out of scope; everything goes through batch jobs.
type Client struct {
	baseURL          string
	apiKey           string
	model            string
	completionWindow string
	httpClient       *http.Client
	executor         *resilience.Executor
}

type Options struct {
	BaseURL          string
	APIKey           string
	Model            string
	CompletionWindow string
	Timeout          time.Duration
	Executor         *resilience.Executor
}

func New(options Options) (*Client, error) {
	if strings.TrimSpace(options.APIKey) == "" {
		return nil, fmt.Errorf("openaibatch: api key is required")
	}
	if strings.TrimSpace(options.Model) == "" {
		return nil, fmt.Errorf("openaibatch: model is required")
	}
	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	window := options.CompletionWindow
	if window == "" {
		window = "24h"
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:          strings.TrimRight(baseURL, "/"),
		apiKey:           options.APIKey,
		model:            options.Model,
		completionWindow: window,
		httpClient:       &http.Client{Timeout: timeout},
		executor:         options.Executor,
	}, nil
}

// UploadBatch serializes the requests as one JSONL file and uploads it
// with purpose=batch. Not retried on failure: the caller cannot tell a
// lost response from a lost request, and a second upload creates a new
// billable file either way.
func (c *Client) UploadBatch(ctx context.Context, requests []domain.AnalysisRequest, filename string) (string, error) {
	if len(requests) == 0 {
		return "", domain.WrapError(domain.ErrInvalidInput, "upload batch", fmt.Errorf("no requests"))
	}

	payload, err := encodeBatchLines(requests, c.model)
	if err != nil {
		return "", domain.WrapError(domain.ErrUploadFailed, "upload batch", err)
	}

	var uploaded fileObject
	if err := c.uploadFile(ctx, filename, payload, &uploaded); err != nil {
		return "", domain.WrapError(domain.ErrUploadFailed, "upload batch", err)
	}
	return uploaded.ID, nil
}

// CreateBatch registers an uploaded file as one batch job.
func (c *Client) CreateBatch(ctx context.Context, inputFileID string) (*domain.ProviderBatch, error) {
	request := map[string]any{
		"input_file_id":     inputFileID,
		"endpoint":          "/v1/chat/completions",
		"completion_window": c.completionWindow,
	}

	var response batchObject
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/batches", request, &response, "create batch")
	}
	if err := c.execute(ctx, "openai.batch.create", call, classifyNoRetry); err != nil {
		return nil, domain.WrapError(domain.ErrSubmissionFailed, "create batch", err)
	}
	return response.toDomain(), nil
}

// GetBatch is a read-only status query and safe to retry.
func (c *Client) GetBatch(ctx context.Context, jobID string) (*domain.ProviderBatch, error) {
	var response batchObject
	call := func(callCtx context.Context) error {
		return c.getJSON(callCtx, "/batches/"+jobID, &response, "get batch")
	}
	if err := c.execute(ctx, "openai.batch.get", call, classifyProviderError); err != nil {
		return nil, fmt.Errorf("get batch %s: %w", jobID, err)
	}
	return response.toDomain(), nil
}

// OpenOutput streams the job's output file line by line. Output files
// can hold tens of thousands of lines; they are never buffered whole.
func (c *Client) OpenOutput(ctx context.Context, fileID string) (ports.BatchOutputReader, error) {
	body, err := c.getStream(ctx, "/files/"+fileID+"/content", "get output file")
	if err != nil {
		return nil, fmt.Errorf("open output %s: %w", fileID, err)
	}
	return newOutputReader(body), nil
}

func (c *Client) execute(
	ctx context.Context,
	operation string,
	call func(context.Context) error,
	classifier resilience.ErrorClassifier,
) error {
	if c.executor == nil {
		return call(ctx)
	}
	return c.executor.Execute(ctx, operation, call, classifier)
}

var _ ports.BatchProvider = (*Client)(nil)
