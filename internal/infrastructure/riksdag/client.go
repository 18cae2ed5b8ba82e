package riksdag

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/riksdagskollen/riksdagsanalys/internal/core/ports"
	"github.com/riksdagskollen/riksdagsanalys/internal/infrastructure/resilience"
)

// Client fetches open data from data.riksdagen.se. All list endpoints
// are read-only and paginated; every call goes through the shared
// resilience executor since the API rate-limits aggressively.
type Client struct {
	baseURL    string
	pageSize   int
	maxPages   int
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	BaseURL            string
	PageSize           int
	MaxPages           int
	RequestTimeout     time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(options Options) *Client {
	baseURL := strings.TrimRight(options.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://data.riksdagen.se"
	}
	pageSize := options.PageSize
	if pageSize <= 0 {
		pageSize = 200
	}
	maxPages := options.MaxPages
	if maxPages <= 0 {
		maxPages = 20
	}
	timeout := options.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		pageSize:   pageSize,
		maxPages:   maxPages,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any, operation string) error {
	call := func(ctx context.Context) error {
		endpoint := c.baseURL + path
		if len(query) > 0 {
			endpoint += "?" + query.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("create %s request: %w", operation, err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%s request: %w", operation, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return newStatusError(operation, resp)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", operation, err)
		}
		return nil
	}

	if c.executor == nil {
		return call(ctx)
	}
	return c.executor.Execute(ctx, "riksdagen."+operation, call, classifyAPIError)
}

func (c *Client) getText(ctx context.Context, rawURL string, operation string) (string, error) {
	var text string
	call := func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return fmt.Errorf("create %s request: %w", operation, err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%s request: %w", operation, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return newStatusError(operation, resp)
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
		if err != nil {
			return fmt.Errorf("read %s response: %w", operation, err)
		}
		text = string(body)
		return nil
	}

	if c.executor == nil {
		return text, call(ctx)
	}
	if err := c.executor.Execute(ctx, "riksdagen."+operation, call, classifyAPIError); err != nil {
		return "", err
	}
	return text, nil
}

// Motion fulltexts occasionally reach several hundred kilobytes; anything
// past this is not useful for prompting anyway.
const maxDocumentBytes = 2 * 1024 * 1024

// StatusError carries the upstream HTTP status for the resilience
// classifier.
type StatusError struct {
	Operation  string
	StatusCode int
	Status     string
}

func newStatusError(operation string, resp *http.Response) *StatusError {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
	return &StatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
	}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("riksdagen %s status: %s", e.Operation, e.Status)
}

var _ ports.RiksdagAPI = (*Client)(nil)
