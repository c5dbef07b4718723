package ai

import (
	"context"
	"fmt"

	"cvlens/internal/config"
	"cvlens/internal/errors"
	"cvlens/internal/prompt"
	"cvlens/internal/types"
)

// placeholderAPIKeys are known non-credentials that templates and build
// scripts leave behind; treating them as configured would waste a vendor
// round trip on a guaranteed auth failure.
var placeholderAPIKeys = map[string]bool{
	"your_api_key_here":   true,
	"dummy-key-for-build": true,
}

// Service handles AI operations for CV screening and job parsing
type Service struct {
	Provider      AnalysisProvider // Exported for access from server package
	config        *config.OperationAIConfig
	operationType string
	logger        *errors.Logger
}

// NewService creates a new AI service instance with configuration for a specific operation
func NewService(cfg *config.OperationAIConfig, operationType string, logger *errors.Logger) (*Service, error) {
	var provider AnalysisProvider
	var err error

	// Debug logging for service initialization
	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"operation_type", operationType,
		"model", cfg.Model,
		"temperature", *cfg.Temperature,
		"timeout", *cfg.Timeout,
		"use_system_prompts", *cfg.UseSystemPrompts)

	if err := validateCredential(cfg); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case "gemini":
		provider, err = NewGeminiProvider(cfg, operationType, logger)
	case "openai":
		provider = NewOpenAIProvider(cfg, operationType, logger)
	case "perplexity":
		provider = NewPerplexityProvider(cfg, operationType, logger)
	case "mock":
		provider = NewMockProvider(logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}

	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed,
			"Failed to create AI provider", err)
	}

	return &Service{
		Provider:      provider,
		config:        cfg,
		operationType: operationType,
		logger:        logger,
	}, nil
}

// validateCredential rejects missing or placeholder API keys before any
// network attempt. The mock provider is the only one that needs no key.
func validateCredential(cfg *config.OperationAIConfig) error {
	if cfg.Provider == "mock" {
		return nil
	}
	if cfg.APIKey == "" || placeholderAPIKeys[cfg.APIKey] {
		return errors.NewConfigError(errors.ErrCodeMissingAPIKey,
			fmt.Sprintf("%s API key not configured", cfg.Provider), nil)
	}
	return nil
}

// ScreenCandidate scores one candidate's CV against a job profile. The
// reply goes through the tolerant parser, so missing fields come back as
// documented defaults rather than errors.
func (s *Service) ScreenCandidate(ctx context.Context, input types.ScreenCandidateInput) (types.CandidateScore, *TokenUsage, error) {
	systemPrompt := s.getSystemPrompt("screen")
	userPrompt := s.ScreenUserPrompt(input)

	raw, tokenUsage, err := s.Provider.Invoke(ctx, systemPrompt, userPrompt)
	if err != nil {
		return types.CandidateScore{}, nil, err
	}

	score, err := ParseCandidateScore(raw)
	if err != nil {
		return types.CandidateScore{}, tokenUsage, err
	}
	return score, tokenUsage, nil
}

// ScreenUserPrompt builds the exact user prompt a screening call would
// send. Exposed so callers can apply the token-budget guard to the real
// payload instead of an approximation.
func (s *Service) ScreenUserPrompt(input types.ScreenCandidateInput) string {
	template := s.getUserPrompt("screen")
	return fmt.Sprintf(template, prompt.FormatJobProfile(input.JobProfile), input.CandidateName, input.CVText)
}

// ParseJob structures a free-text job posting. Spanish is the default
// prompt language; "en" switches to the English variants.
func (s *Service) ParseJob(ctx context.Context, input types.ParseJobInput) (types.ParsedJobData, *TokenUsage, error) {
	promptKind := "parsejob_es"
	if input.Language == "en" {
		promptKind = "parsejob"
	}

	systemPrompt := s.getSystemPrompt(promptKind)
	userPrompt := fmt.Sprintf(s.getUserPrompt(promptKind), input.JobText)

	raw, tokenUsage, err := s.Provider.Invoke(ctx, systemPrompt, userPrompt)
	if err != nil {
		return types.ParsedJobData{}, nil, err
	}

	parsed, err := ParseJobData(raw, input.JobText)
	if err != nil {
		return types.ParsedJobData{}, tokenUsage, err
	}
	return parsed, tokenUsage, nil
}

// GetModelInfo returns information about the AI model for health checks
func (s *Service) GetModelInfo(ctx context.Context) any {
	return s.Provider.GetModelInfo(ctx)
}

// GetCircuitBreakerStats reports the provider's circuit breaker state.
// Providers without a breaker (the mock) report it as disabled.
func (s *Service) GetCircuitBreakerStats() map[string]any {
	if provider, ok := s.Provider.(interface{ GetCircuitBreakerStats() map[string]any }); ok {
		return provider.GetCircuitBreakerStats()
	}
	return map[string]any{
		"enabled": false,
	}
}

// Close releases provider resources
func (s *Service) Close() error {
	return s.Provider.Close()
}

// getPrompts returns the appropriate prompts for the operation, prioritizing loaded content over config
func (s *Service) getPrompts() (config.OperationLoadedPrompts, *config.PromptConfig) {
	loadedPrompts := config.GetPromptsForOperation(s.operationType)
	configPrompts := &s.config.CustomPrompts
	return loadedPrompts, configPrompts
}

// getSystemPrompt returns the appropriate system prompt
func (s *Service) getSystemPrompt(promptKind string) string {
	loadedPrompts, configPrompts := s.getPrompts()

	switch promptKind {
	case "screen":
		return resolvePrompt(
			loadedPrompts.SystemPrompts.ScreenCandidate,
			configPrompts.SystemPrompts.ScreenCandidate,
			DefaultSystemPrompts.ScreenCandidate,
		)
	case "parsejob":
		return resolvePrompt(
			loadedPrompts.SystemPrompts.ParseJob,
			configPrompts.SystemPrompts.ParseJob,
			DefaultSystemPrompts.ParseJob,
		)
	case "parsejob_es":
		return resolvePrompt(
			loadedPrompts.SystemPrompts.ParseJobES,
			configPrompts.SystemPrompts.ParseJobES,
			DefaultSystemPrompts.ParseJobES,
		)
	default:
		return ""
	}
}

// getUserPrompt returns the appropriate user prompt template
func (s *Service) getUserPrompt(promptKind string) string {
	loadedPrompts, configPrompts := s.getPrompts()

	switch promptKind {
	case "screen":
		return resolvePrompt(
			loadedPrompts.UserPrompts.ScreenCandidate,
			configPrompts.UserPrompts.ScreenCandidate,
			DefaultUserPrompts.ScreenCandidate,
		)
	case "parsejob":
		return resolvePrompt(
			loadedPrompts.UserPrompts.ParseJob,
			configPrompts.UserPrompts.ParseJob,
			DefaultUserPrompts.ParseJob,
		)
	case "parsejob_es":
		return resolvePrompt(
			loadedPrompts.UserPrompts.ParseJobES,
			configPrompts.UserPrompts.ParseJobES,
			DefaultUserPrompts.ParseJobES,
		)
	default:
		return ""
	}
}
