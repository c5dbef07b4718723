// Package analysis fans an analyze request out over its CV identifiers and
// aggregates exactly one score per identifier, absorbing per-candidate
// failures so one bad CV never aborts the batch.
package analysis

import (
	"context"
	"math"
	"time"

	"cvlens/internal/ai"
	"cvlens/internal/errors"
	"cvlens/internal/prompt"
	"cvlens/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// MaxCVsPerAnalysis is the batch ceiling; larger requests are rejected
// whole before any per-candidate work
const MaxCVsPerAnalysis = 20

// Scorer scores one candidate against a job profile. ScreenUserPrompt must
// return the exact payload a screening call would send, so the token-budget
// guard inspects what would really go over the wire.
type Scorer interface {
	ScreenUserPrompt(input types.ScreenCandidateInput) string
	ScreenCandidate(ctx context.Context, input types.ScreenCandidateInput) (types.CandidateScore, *ai.TokenUsage, error)
}

// Orchestrator runs analyze batches against a Scorer
type Orchestrator struct {
	scorer  Scorer
	workers int
	logger  *errors.Logger
}

// New creates an orchestrator with a bounded fan-out width
func New(scorer Scorer, workers int, logger *errors.Logger) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		scorer:  scorer,
		workers: workers,
		logger:  logger,
	}
}

// Analyze scores every requested CV identifier against the job profile.
// The result list always has one entry per identifier, in request order;
// only request-shape validation can fail the whole batch.
func (o *Orchestrator) Analyze(ctx context.Context, jobProfile types.JobProfile, cvIDs []string, records map[string]types.CVRecord) (types.AnalysisResult, error) {
	if err := validateRequest(jobProfile, cvIDs); err != nil {
		return types.AnalysisResult{}, err
	}

	tracer := otel.Tracer("cvlens.analysis")
	ctx, span := tracer.Start(ctx, "analysis.batch")
	defer span.End()
	span.SetAttributes(
		attribute.Int("batch.size", len(cvIDs)),
		attribute.Int("batch.workers", o.workers),
		attribute.String("job.title", jobProfile.Title),
	)

	// Results are index-addressed so request order survives any completion
	// order the fan-out produces.
	candidates := make([]types.CandidateScore, len(cvIDs))

	var group errgroup.Group
	group.SetLimit(o.workers)

	for i, cvID := range cvIDs {
		group.Go(func() error {
			candidates[i] = o.scoreCandidate(ctx, jobProfile, cvID, records)
			return nil
		})
	}

	// Workers never return errors; failures land in placeholder scores
	_ = group.Wait()

	result := types.AnalysisResult{
		JobProfile:      jobProfile,
		Candidates:      candidates,
		AnalysisDate:    time.Now().UTC(),
		TotalCandidates: len(candidates),
		AverageScore:    averageScore(candidates),
	}

	span.SetAttributes(attribute.Int("batch.average_score", result.AverageScore))
	return result, nil
}

func validateRequest(jobProfile types.JobProfile, cvIDs []string) error {
	if jobProfile.Title == "" && jobProfile.Description == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Invalid request: job profile and CV IDs are required", nil)
	}
	if len(cvIDs) == 0 {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Invalid request: job profile and CV IDs are required", nil)
	}
	if len(cvIDs) > MaxCVsPerAnalysis {
		return errors.NewValidationError(errors.ErrCodeTooManyFiles,
			"Too many CVs in one analysis", nil).
			WithContext("max_cvs", MaxCVsPerAnalysis).
			WithContext("got", len(cvIDs))
	}
	return nil
}

// scoreCandidate drives one CV identifier through its states: a missing
// record or an over-budget prompt skips the vendor call, anything that
// fails during invocation or parsing is downgraded to a placeholder score.
func (o *Orchestrator) scoreCandidate(ctx context.Context, jobProfile types.JobProfile, cvID string, records map[string]types.CVRecord) types.CandidateScore {
	record, found := records[cvID]
	if !found {
		o.logger.Debug("CV record missing, skipping candidate", "cv_id", cvID)
		return skippedMissingScore(cvID)
	}

	input := types.ScreenCandidateInput{
		JobProfile:    jobProfile,
		CVText:        record.ExtractedText,
		CandidateName: record.Filename,
	}

	if !prompt.WithinBudget(o.scorer.ScreenUserPrompt(input)) {
		o.logger.Debug("Prompt over token budget, skipping candidate",
			"cv_id", cvID,
			"cv_text_length", len(record.ExtractedText))
		return skippedOversizeScore(cvID, record.Filename)
	}

	score, _, err := o.scorer.ScreenCandidate(ctx, input)
	if err != nil {
		o.logger.LogError(err, "Candidate analysis failed",
			"cv_id", cvID,
			"filename", record.Filename)
		return failedScore(cvID, record.Filename)
	}

	score.ID = cvID
	score.Filename = record.Filename
	return score
}

func skippedMissingScore(cvID string) types.CandidateScore {
	return types.CandidateScore{
		ID:              cvID,
		SkillMatches:    []types.SkillMatch{},
		Reasoning:       "CV data not found",
		Strengths:       []string{},
		Weaknesses:      []string{"CV content was not provided"},
		Recommendations: []string{"Please upload the CV again"},
	}
}

func skippedOversizeScore(cvID, filename string) types.CandidateScore {
	return types.CandidateScore{
		ID:              cvID,
		Filename:        filename,
		SkillMatches:    []types.SkillMatch{},
		Reasoning:       "CV content too large for analysis",
		Strengths:       []string{},
		Weaknesses:      []string{"Content exceeds token limits"},
		Recommendations: []string{"Please provide a shorter CV"},
	}
}

func failedScore(cvID, filename string) types.CandidateScore {
	return types.CandidateScore{
		ID:              cvID,
		Filename:        filename,
		SkillMatches:    []types.SkillMatch{},
		Reasoning:       "Analysis failed",
		Strengths:       []string{},
		Weaknesses:      []string{"Analysis error occurred"},
		Recommendations: []string{"Please try again"},
	}
}

// averageScore is the rounded mean of the strictly positive overall
// scores; failed and skipped candidates are excluded from the mean but
// still counted in the total
func averageScore(candidates []types.CandidateScore) int {
	sum, count := 0, 0
	for _, c := range candidates {
		if c.OverallScore > 0 {
			sum += c.OverallScore
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(count)))
}
