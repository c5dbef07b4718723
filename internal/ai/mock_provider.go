package ai

import (
	"context"
	"encoding/json"
	"math/rand/v2"

	cvlensErrors "cvlens/internal/errors"
)

// MockProvider implements AnalysisProvider without any external calls. It
// emits plausible JSON in the same shape real vendors return, with
// simulated scores. Selecting it requires explicit configuration; a missing
// credential on a real provider never falls back here.
type MockProvider struct {
	logger *cvlensErrors.Logger
}

// Ensure MockProvider implements AnalysisProvider
var _ AnalysisProvider = (*MockProvider)(nil)

// NewMockProvider creates a provider that simulates vendor replies
func NewMockProvider(logger *cvlensErrors.Logger) *MockProvider {
	return &MockProvider{logger: logger}
}

// Invoke returns a simulated model reply
func (m *MockProvider) Invoke(ctx context.Context, systemPrompt, userPrompt string) (string, *TokenUsage, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, cvlensErrors.NewNetworkError(cvlensErrors.ErrCodeAITimeout,
			"AI request timed out", err)
	}

	reply := map[string]any{
		"overallScore": 60 + rand.IntN(36),
		"skillMatches": []map[string]any{
			{
				"skill":      "Communication",
				"confidence": 50 + rand.IntN(51),
				"found":      true,
				"context":    "Simulated match",
			},
		},
		"experienceScore": 50 + rand.IntN(51),
		"educationScore":  50 + rand.IntN(51),
		"reasoning":       "Simulated analysis generated without contacting an AI vendor",
		"strengths":       []string{"Simulated strength"},
		"weaknesses":      []string{"Simulated weakness"},
		"recommendations": []string{"Verify with a real provider before making decisions"},

		// Extra keys so parse-job callers get usable output from the same
		// reply; unknown keys are ignored by each parser.
		"title":           "Simulated Position",
		"description":     "Simulated job description",
		"requiredSkills":  []string{"Communication"},
		"preferredSkills": []string{},
		"education":       []string{},
		"experienceLevel": "mid",
		"industry":        "Simulated",
		"location":        "Remote",
	}

	payload, err := json.Marshal(reply)
	if err != nil {
		return "", nil, cvlensErrors.NewInternalError(cvlensErrors.ErrCodeInvalidFormat,
			"Failed to encode simulated reply", err)
	}

	m.logger.Debug("Simulated AI reply generated", "prompt_length", len(userPrompt))

	usage := &TokenUsage{
		InputTokens:  int64((len(systemPrompt) + len(userPrompt) + 3) / 4),
		OutputTokens: int64((len(payload) + 3) / 4),
	}
	usage.TotalTokens = usage.InputTokens + usage.OutputTokens

	return string(payload), usage, nil
}

// GetModelInfo reports the simulated model
func (m *MockProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	return &ModelInfo{
		Name:      "mock",
		Provider:  "mock",
		Available: true,
	}
}

// Close implements AnalysisProvider interface
func (m *MockProvider) Close() error {
	return nil
}
