package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"cvlens/internal/config"
	cvlensErrors "cvlens/internal/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GeminiProvider implements AnalysisProvider for Google Gemini
type GeminiProvider struct {
	client         *genai.Client
	config         *config.OperationAIConfig
	operationType  string
	circuitBreaker *AICircuitBreaker
	modelBreaker   *ModelCircuitBreaker
	logger         *cvlensErrors.Logger
}

// Ensure GeminiProvider implements AnalysisProvider
var _ AnalysisProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance for a specific operation
func NewGeminiProvider(cfg *config.OperationAIConfig, operationType string, logger *cvlensErrors.Logger) (*GeminiProvider, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, cvlensErrors.NewAIError(cvlensErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	// Initialize circuit breakers with operation-specific configuration
	circuitBreaker := NewAICircuitBreaker(operationType, cfg, logger)
	modelBreaker := NewModelCircuitBreaker(operationType, cfg, logger)

	return &GeminiProvider{
		client:         client,
		config:         cfg,
		operationType:  operationType,
		circuitBreaker: circuitBreaker,
		modelBreaker:   modelBreaker,
		logger:         logger,
	}, nil
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{
		Name:      g.config.Model,
		Provider:  "gemini",
		Available: false,
	}

	// Create a timeout context for the model check
	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	// Get model information from Gemini API with circuit breaker
	model, err := g.modelBreaker.ExecuteModel(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)

		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"provider", g.config.Provider,
			"error", err.Error())
		return modelInfo
	}

	// Model is available, populate info
	modelInfo.Available = true
	if model.DisplayName != "" {
		modelInfo.DisplayName = model.DisplayName
	}
	if model.Version != "" {
		modelInfo.Version = model.Version
	}

	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"provider", g.config.Provider,
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)

	return modelInfo
}

// Invoke sends one prompt to Gemini and returns the raw response text.
// Exactly one request is made; failures map onto the transport/status
// taxonomy and are never retried here.
func (g *GeminiProvider) Invoke(ctx context.Context, systemPrompt, userPrompt string) (string, *TokenUsage, error) {
	tracer := otel.Tracer("cvlens.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+g.operationType)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
		attribute.Int("input.prompt_length", len(userPrompt)),
	)

	genaiConfig := g.buildGenerateConfig(systemPrompt)

	if g.config.Timeout != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *g.config.Timeout)
		defer cancel()
	}

	var tokenUsage *TokenUsage
	text, err := g.circuitBreaker.Execute(func() (string, error) {
		result, err := g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(userPrompt), genaiConfig)
		if err != nil {
			return "", classifyVendorError(err)
		}
		tokenUsage = extractTokenUsage(result)
		return result.Text(), nil
	})

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return "", nil, err
	}

	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return text, tokenUsage, nil
}

// buildGenerateConfig assembles the generation settings for one request.
// JSON output is requested via MIME type only; the tolerant parser copes
// with replies that are not bare JSON anyway.
func (g *GeminiProvider) buildGenerateConfig(systemPrompt string) *genai.GenerateContentConfig {
	genaiConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	if *g.config.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	// Apply temperature configuration if set
	if *g.config.Temperature > 0 {
		genaiConfig.Temperature = g.config.Temperature
	}

	if g.config.MaxOutputTokens != nil && *g.config.MaxOutputTokens > 0 {
		genaiConfig.MaxOutputTokens = int32(*g.config.MaxOutputTokens)
	}

	return genaiConfig
}

// classifyVendorError maps a raw vendor call failure onto the error
// taxonomy: non-2xx statuses keep their status code, everything else is a
// transport failure.
func classifyVendorError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return cvlensErrors.NewProviderHTTPError(apiErr.Code, apiErr.Body).
			WithContext("provider", "gemini")
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return cvlensErrors.NewNetworkError(cvlensErrors.ErrCodeAITimeout,
			"AI request timed out", err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return cvlensErrors.NewNetworkError(cvlensErrors.ErrCodeAITimeout,
			"AI request timed out", err)
	}

	return cvlensErrors.NewNetworkError(cvlensErrors.ErrCodeProviderTransport,
		"AI request failed", err)
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	stats := map[string]any{
		"ai_operations":    g.circuitBreaker.GetStats(),
		"model_operations": g.modelBreaker.GetModelStats(),
	}

	// Overall health - both breakers must be healthy
	aiHealthy := g.circuitBreaker.IsHealthy()
	modelHealthy := g.modelBreaker.IsModelHealthy()
	stats["overall_healthy"] = aiHealthy && modelHealthy

	return stats
}

// Close implements AnalysisProvider interface
func (g *GeminiProvider) Close() error {
	// Gemini client doesn't have a Close method in current single-shot usage
	return nil
}

// modelCheckTimeout bounds the model availability probe
const modelCheckTimeout = 10 * time.Second

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
