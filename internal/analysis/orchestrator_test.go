package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"cvlens/internal/ai"
	"cvlens/internal/errors"
	"cvlens/internal/prompt"
	"cvlens/internal/types"
)

var testLogger = errors.NewLogger(slog.LevelError)

// stubScorer scores by CV text convention: "score:N" returns N, "fail"
// returns an error. Calls are recorded for interaction assertions.
type stubScorer struct {
	mu    sync.Mutex
	calls []string
}

func (s *stubScorer) ScreenUserPrompt(input types.ScreenCandidateInput) string {
	return input.JobProfile.Title + "\n" + input.CVText
}

func (s *stubScorer) ScreenCandidate(ctx context.Context, input types.ScreenCandidateInput) (types.CandidateScore, *ai.TokenUsage, error) {
	s.mu.Lock()
	s.calls = append(s.calls, input.CandidateName)
	s.mu.Unlock()

	if strings.Contains(input.CVText, "fail") {
		return types.CandidateScore{}, nil, errors.NewNetworkError(errors.ErrCodeProviderTransport, "boom", nil)
	}

	var score int
	if _, err := fmt.Sscanf(input.CVText, "score:%d", &score); err != nil {
		score = 50
	}
	return types.CandidateScore{
		OverallScore: score,
		SkillMatches: []types.SkillMatch{},
		Reasoning:    "stub analysis",
	}, nil, nil
}

func (s *stubScorer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func testProfile() types.JobProfile {
	return types.JobProfile{Title: "Sales Rep", Description: "Sell things"}
}

func record(id, text string) types.CVRecord {
	return types.CVRecord{ID: id, Filename: id + ".pdf", ExtractedText: text}
}

func TestAnalyzePreservesRequestOrder(t *testing.T) {
	scorer := &stubScorer{}
	orch := New(scorer, 3, testLogger)

	ids := []string{"a", "b", "c", "d", "e"}
	records := map[string]types.CVRecord{}
	for i, id := range ids {
		records[id] = record(id, fmt.Sprintf("score:%d", (i+1)*10))
	}

	result, err := orch.Analyze(context.Background(), testProfile(), ids, records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Candidates) != len(ids) {
		t.Fatalf("expected %d candidates, got %d", len(ids), len(result.Candidates))
	}
	for i, id := range ids {
		if result.Candidates[i].ID != id {
			t.Errorf("position %d: expected id %q, got %q", i, id, result.Candidates[i].ID)
		}
		if result.Candidates[i].OverallScore != (i+1)*10 {
			t.Errorf("position %d: expected score %d, got %d", i, (i+1)*10, result.Candidates[i].OverallScore)
		}
		if result.Candidates[i].Filename != id+".pdf" {
			t.Errorf("position %d: expected filename carried from record, got %q", i, result.Candidates[i].Filename)
		}
	}
	if result.TotalCandidates != len(ids) {
		t.Errorf("expected total %d, got %d", len(ids), result.TotalCandidates)
	}
}

func TestAnalyzeSkipsMissingRecords(t *testing.T) {
	scorer := &stubScorer{}
	orch := New(scorer, 2, testLogger)

	result, err := orch.Analyze(context.Background(), testProfile(),
		[]string{"a", "b"},
		map[string]types.CVRecord{"a": record("a", "score:70")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(result.Candidates))
	}

	missing := result.Candidates[1]
	if missing.ID != "b" || missing.OverallScore != 0 {
		t.Errorf("missing record should yield zero score, got %+v", missing)
	}
	if !strings.Contains(missing.Reasoning, "not found") {
		t.Errorf("reasoning should mention missing data, got %q", missing.Reasoning)
	}
	if scorer.callCount() != 1 {
		t.Errorf("scorer should only be called for resolvable records, got %d calls", scorer.callCount())
	}
}

func TestAnalyzeSkipsOverBudgetCandidates(t *testing.T) {
	scorer := &stubScorer{}
	orch := New(scorer, 1, testLogger)

	oversized := strings.Repeat("x", prompt.MaxTokensPerRequest*4+100)
	result, err := orch.Analyze(context.Background(), testProfile(),
		[]string{"big"},
		map[string]types.CVRecord{"big": record("big", oversized)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	candidate := result.Candidates[0]
	if candidate.OverallScore != 0 {
		t.Errorf("over-budget candidate should score 0, got %d", candidate.OverallScore)
	}
	if candidate.Reasoning != "CV content too large for analysis" {
		t.Errorf("unexpected reasoning: %q", candidate.Reasoning)
	}
	if scorer.callCount() != 0 {
		t.Errorf("vendor must not be called for over-budget candidates, got %d calls", scorer.callCount())
	}
}

func TestAnalyzeDowngradesFailures(t *testing.T) {
	scorer := &stubScorer{}
	orch := New(scorer, 2, testLogger)

	result, err := orch.Analyze(context.Background(), testProfile(),
		[]string{"good", "bad"},
		map[string]types.CVRecord{
			"good": record("good", "score:80"),
			"bad":  record("bad", "fail"),
		})
	if err != nil {
		t.Fatalf("one candidate's failure must not fail the batch: %v", err)
	}

	failed := result.Candidates[1]
	if failed.OverallScore != 0 || failed.ExperienceScore != 0 || failed.EducationScore != 0 {
		t.Errorf("failed candidate should have zero scores, got %+v", failed)
	}
	if failed.Reasoning != "Analysis failed" {
		t.Errorf("unexpected reasoning: %q", failed.Reasoning)
	}
	if len(failed.Weaknesses) != 1 || failed.Weaknesses[0] != "Analysis error occurred" {
		t.Errorf("unexpected weaknesses: %v", failed.Weaknesses)
	}
	if result.Candidates[0].OverallScore != 80 {
		t.Errorf("healthy candidate should still score, got %d", result.Candidates[0].OverallScore)
	}
}

func TestAnalyzeAverageScore(t *testing.T) {
	scorer := &stubScorer{}
	orch := New(scorer, 2, testLogger)

	// Scores 80 and 71; the missing candidate's zero is excluded from the
	// mean but counted in the total.
	result, err := orch.Analyze(context.Background(), testProfile(),
		[]string{"a", "b", "gone"},
		map[string]types.CVRecord{
			"a": record("a", "score:80"),
			"b": record("b", "score:71"),
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.AverageScore != 76 {
		t.Errorf("expected rounded mean 76, got %d", result.AverageScore)
	}
	if result.TotalCandidates != 3 {
		t.Errorf("expected total 3, got %d", result.TotalCandidates)
	}
}

func TestAnalyzeAverageZeroWhenNoPositiveScores(t *testing.T) {
	scorer := &stubScorer{}
	orch := New(scorer, 1, testLogger)

	result, err := orch.Analyze(context.Background(), testProfile(),
		[]string{"gone"}, map[string]types.CVRecord{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AverageScore != 0 {
		t.Errorf("no positive scores should mean average 0, got %d", result.AverageScore)
	}
}

func TestAnalyzeValidation(t *testing.T) {
	scorer := &stubScorer{}
	orch := New(scorer, 2, testLogger)

	t.Run("empty id list", func(t *testing.T) {
		_, err := orch.Analyze(context.Background(), testProfile(), nil, nil)
		if err == nil || !errors.IsType(err, errors.ErrorTypeValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("missing job profile", func(t *testing.T) {
		_, err := orch.Analyze(context.Background(), types.JobProfile{}, []string{"a"}, nil)
		if err == nil || !errors.IsType(err, errors.ErrorTypeValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("batch over ceiling", func(t *testing.T) {
		ids := make([]string, MaxCVsPerAnalysis+1)
		records := map[string]types.CVRecord{}
		for i := range ids {
			ids[i] = fmt.Sprintf("cv-%d", i)
			records[ids[i]] = record(ids[i], "score:50")
		}

		_, err := orch.Analyze(context.Background(), testProfile(), ids, records)
		if err == nil || !errors.IsType(err, errors.ErrorTypeValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if scorer.callCount() != 0 {
			t.Errorf("no candidates may be processed on validation failure, got %d calls", scorer.callCount())
		}
	})
}
