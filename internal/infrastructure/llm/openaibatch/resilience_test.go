package openaibatch

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestClassifyProviderError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		retryable     bool
		recordFailure bool
	}{
		{
			name: "context cancellation",
			err:  context.Canceled,
		},
		{
			name:          "rate limited",
			err:           &HTTPStatusError{StatusCode: http.StatusTooManyRequests},
			retryable:     true,
			recordFailure: true,
		},
		{
			name:          "server error",
			err:           &HTTPStatusError{StatusCode: http.StatusInternalServerError},
			retryable:     true,
			recordFailure: true,
		},
		{
			name: "bad request",
			err:  &HTTPStatusError{StatusCode: http.StatusBadRequest},
		},
		{
			name: "not found",
			err:  &HTTPStatusError{StatusCode: http.StatusNotFound},
		},
		{
			name:          "connection refused",
			err:           errors.New("dial tcp: connection refused"),
			retryable:     true,
			recordFailure: true,
		},
		{
			name:          "unknown error",
			err:           errors.New("something else"),
			recordFailure: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyProviderError(tc.err)
			if got.Retryable != tc.retryable {
				t.Errorf("retryable: got %v, want %v", got.Retryable, tc.retryable)
			}
			if got.RecordFailure != tc.recordFailure {
				t.Errorf("record failure: got %v, want %v", got.RecordFailure, tc.recordFailure)
			}
		})
	}
}

func TestClassifyNoRetryNeverRetries(t *testing.T) {
	errs := []error{
		&HTTPStatusError{StatusCode: http.StatusInternalServerError},
		&HTTPStatusError{StatusCode: http.StatusBadRequest},
		errors.New("dial tcp: connection reset"),
		context.DeadlineExceeded,
	}
	for _, err := range errs {
		if got := classifyNoRetry(err); got.Retryable {
			t.Errorf("classifyNoRetry(%v) must not be retryable", err)
		}
	}

	if got := classifyNoRetry(&HTTPStatusError{StatusCode: http.StatusInternalServerError}); !got.RecordFailure {
		t.Error("transient failure should still count against the breaker")
	}
	if got := classifyNoRetry(&HTTPStatusError{StatusCode: http.StatusBadRequest}); got.RecordFailure {
		t.Error("permanent rejection must not count against the breaker")
	}
}
