// Package llm defines the completion contract shared by the provider
// backends and builds the prompts sent to them.
package llm

import "context"

// Prompt is an immutable system/user instruction pair.
type Prompt struct {
	System string
	User   string
}

// Usage is the token accounting for a single completion call. All counts
// are non-negative and TotalTokens = InputTokens + OutputTokens.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Completion is the normalized result of one backend call.
type Completion struct {
	Text     string
	Usage    Usage
	Provider string
	Model    string
}

// Completer is implemented by each LLM backend. Failures are surfaced,
// never retried here; retry policy belongs to the caller.
type Completer interface {
	Complete(ctx context.Context, prompt Prompt, maxTokens int) (Completion, error)
	Provider() string
	Model() string
}
