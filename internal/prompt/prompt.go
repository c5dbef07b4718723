// Package prompt builds the deterministic prompt fragments shared by the
// AI providers and enforces the per-request token budget.
package prompt

import (
	"strings"

	"cvlens/internal/types"
)

// MaxTokensPerRequest is the ceiling on the estimated token count of a
// single analysis prompt. Candidates over the budget are scored without a
// vendor call.
const MaxTokensPerRequest = 8000

// FormatJobProfile renders a job profile as the fixed text block embedded in
// analysis prompts. The same profile always yields the same block, so prompt
// caching on the vendor side stays effective.
func FormatJobProfile(p types.JobProfile) string {
	lines := []string{
		"Job Title: " + p.Title,
		"Description: " + p.Description,
		"Required Skills: " + skillsOrFallback(p.RequiredSkills),
		"Preferred Skills: " + skillsOrFallback(p.PreferredSkills),
		"Education: " + skillsOrFallback(p.Education),
		"Experience Level: " + valueOrFallback(p.ExperienceLevel, "Not specified"),
		"Industry: " + valueOrFallback(p.Industry, "Not specified"),
		"Location: " + valueOrFallback(p.Location, "Not specified"),
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func skillsOrFallback(skills []string) string {
	if len(skills) == 0 {
		return "None specified"
	}
	return strings.Join(skills, ", ")
}

func valueOrFallback(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// EstimateTokens approximates the token count of a text as one token per
// four characters, rounded up
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// WithinBudget reports whether a prompt text fits the per-request token
// budget
func WithinBudget(text string) bool {
	return EstimateTokens(text) <= MaxTokensPerRequest
}
