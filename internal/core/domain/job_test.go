package domain

import "testing"

func TestJobStatusTerminal(t *testing.T) {
	terminal := []JobStatus{JobStatusCompleted, JobStatusFailed, JobStatusExpired, JobStatusCancelled}
	for _, status := range terminal {
		if !status.Terminal() {
			t.Errorf("%s should be terminal", status)
		}
	}
	open := []JobStatus{JobStatusSubmitted, JobStatusValidating, JobStatusInProgress}
	for _, status := range open {
		if status.Terminal() {
			t.Errorf("%s should not be terminal", status)
		}
	}
}

func TestCanTransition(t *testing.T) {
	if !CanTransition(JobStatusSubmitted, JobStatusInProgress) {
		t.Error("submitted -> in_progress should be allowed")
	}
	if !CanTransition(JobStatusInProgress, JobStatusCompleted) {
		t.Error("in_progress -> completed should be allowed")
	}
	if CanTransition(JobStatusCompleted, JobStatusInProgress) {
		t.Error("terminal status must never transition")
	}
	if CanTransition(JobStatusInProgress, JobStatusInProgress) {
		t.Error("same-status transition is a no-op, not a transition")
	}
}

func TestHasOutput(t *testing.T) {
	withOutput := &ProviderBatch{Status: JobStatusCompleted, OutputFileID: "file_1"}
	if !withOutput.HasOutput() {
		t.Error("completed batch with output file should have output")
	}

	// Completed with no output file: every request failed individually.
	// Zero retrievable results, not an error.
	allFailed := &ProviderBatch{Status: JobStatusCompleted}
	if allFailed.HasOutput() {
		t.Error("completed batch without output file has nothing to fetch")
	}

	running := &ProviderBatch{Status: JobStatusInProgress, OutputFileID: "file_1"}
	if running.HasOutput() {
		t.Error("non-completed batch must not expose output")
	}
}
