package domain

import (
	"encoding/json"
	"errors"
	"strings"
)

var (
	errEmptyContent = errors.New("empty content")
	errNoJSONObject = errors.New("no json object in content")
	errInvalidJSON  = errors.New("content is not valid json")
)

// ExtractJSON pulls one JSON object out of free-form model output. The
// model is instructed to answer with bare JSON but routinely wraps it in
// a markdown code fence anyway; the fenced block's interior wins when
// present, otherwise the outermost brace span is tried as-is.
func ExtractJSON(content string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, WrapError(ErrInvalidInput, "extract json", errEmptyContent)
	}

	if fenced, ok := insideFence(trimmed); ok {
		trimmed = fenced
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return nil, WrapError(ErrInvalidInput, "extract json", errNoJSONObject)
	}

	candidate := json.RawMessage(trimmed[start : end+1])
	if !json.Valid(candidate) {
		return nil, WrapError(ErrInvalidInput, "extract json", errInvalidJSON)
	}
	return candidate, nil
}

func insideFence(content string) (string, bool) {
	open := strings.Index(content, "```")
	if open < 0 {
		return "", false
	}
	rest := content[open+3:]
	if nl := strings.Index(rest, "\n"); nl >= 0 {
		// Skip the language tag on the opening fence line.
		rest = rest[nl+1:]
	}
	closing := strings.Index(rest, "```")
	if closing < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:closing]), true
}
