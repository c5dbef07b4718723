package ai

import (
	"context"
)

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// AnalysisProvider sends a single prompt to an AI vendor and returns the raw
// response text. Providers perform exactly one request per Invoke call and
// never retry; the caller decides how failures are absorbed.
type AnalysisProvider interface {
	Invoke(ctx context.Context, systemPrompt, userPrompt string) (string, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}
