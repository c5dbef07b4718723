package prompt

import (
	"strings"
	"testing"

	"cvlens/internal/types"
)

func TestFormatJobProfileDeterministic(t *testing.T) {
	profile := types.JobProfile{
		Title:           "Backend Engineer",
		Description:     "Build and operate Go services",
		RequiredSkills:  []string{"Go", "PostgreSQL"},
		PreferredSkills: []string{"Kubernetes"},
		Education:       []string{"BSc Computer Science"},
		ExperienceLevel: "senior",
		Industry:        "Software",
		Location:        "Remote",
	}

	first := FormatJobProfile(profile)
	second := FormatJobProfile(profile)

	if first != second {
		t.Error("same profile should format to identical text")
	}

	expectedLines := []string{
		"Job Title: Backend Engineer",
		"Description: Build and operate Go services",
		"Required Skills: Go, PostgreSQL",
		"Preferred Skills: Kubernetes",
		"Education: BSc Computer Science",
		"Experience Level: senior",
		"Industry: Software",
		"Location: Remote",
	}
	if first != strings.Join(expectedLines, "\n") {
		t.Errorf("unexpected format:\n%s", first)
	}
}

func TestFormatJobProfileFallbacks(t *testing.T) {
	profile := types.JobProfile{
		Title:       "Backend Engineer",
		Description: "Build services",
	}

	formatted := FormatJobProfile(profile)

	if !strings.Contains(formatted, "Required Skills: None specified") {
		t.Error("missing required skills should render as 'None specified'")
	}
	if !strings.Contains(formatted, "Preferred Skills: None specified") {
		t.Error("missing preferred skills should render as 'None specified'")
	}
	if !strings.Contains(formatted, "Education: None specified") {
		t.Error("missing education should render as 'None specified'")
	}
	if !strings.Contains(formatted, "Experience Level: Not specified") {
		t.Error("missing experience level should render as 'Not specified'")
	}
	if !strings.Contains(formatted, "Industry: Not specified") {
		t.Error("missing industry should render as 'Not specified'")
	}
	if !strings.Contains(formatted, "Location: Not specified") {
		t.Error("missing location should render as 'Not specified'")
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{"empty", "", 0},
		{"single char rounds up", "a", 1},
		{"exact multiple", "abcd", 1},
		{"one over multiple", "abcde", 2},
		{"longer text", strings.Repeat("a", 400), 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateTokens(tt.text); got != tt.expected {
				t.Errorf("expected %d tokens, got %d", tt.expected, got)
			}
		})
	}
}

func TestWithinBudget(t *testing.T) {
	atLimit := strings.Repeat("a", MaxTokensPerRequest*4)
	if !WithinBudget(atLimit) {
		t.Error("text exactly at the budget should pass")
	}

	overLimit := atLimit + "a"
	if WithinBudget(overLimit) {
		t.Error("text over the budget should fail")
	}
}
