package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrTemporary    = errors.New("temporary failure")

	// ErrUploadFailed marks a failed batch-file upload. Callers must not
	// retry blindly: a repeated upload creates a new billable file.
	ErrUploadFailed = errors.New("batch upload failed")

	// ErrSubmissionFailed marks a rejected batch-create call.
	ErrSubmissionFailed = errors.New("batch submission failed")

	// ErrDuplicateResult marks an insert whose key is already stored.
	// Not a failure: re-processing overlapping output files is routine.
	ErrDuplicateResult = errors.New("result already stored")

	// ErrJobTerminal marks a status update attempted against a job that
	// already reached a terminal state.
	ErrJobTerminal = errors.New("job is in a terminal state")

	// ErrPollTimeout marks a polling session that exceeded its wait
	// budget. Job state is not lost; polling can resume later.
	ErrPollTimeout = errors.New("polling timed out")

	// ErrMissingOutput marks a results fetch against a job without a
	// retrievable output file.
	ErrMissingOutput = errors.New("no output file available")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
