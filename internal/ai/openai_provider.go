package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"cvlens/internal/config"
	cvlensErrors "cvlens/internal/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	openAIDefaultBaseURL     = "https://api.openai.com/v1"
	perplexityDefaultBaseURL = "https://api.perplexity.ai"
)

// OpenAIProvider implements AnalysisProvider against any OpenAI-compatible
// chat-completions endpoint. Perplexity exposes the same wire format, so
// both vendors share this implementation; only the base URL and the JSON
// response-format hint differ.
type OpenAIProvider struct {
	name           string
	baseURL        string
	jsonMode       bool
	httpClient     *http.Client
	config         *config.OperationAIConfig
	operationType  string
	circuitBreaker *AICircuitBreaker
	logger         *cvlensErrors.Logger
}

// Ensure OpenAIProvider implements AnalysisProvider
var _ AnalysisProvider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a provider talking to the OpenAI API
func NewOpenAIProvider(cfg *config.OperationAIConfig, operationType string, logger *cvlensErrors.Logger) *OpenAIProvider {
	return newChatCompletionsProvider("openai", openAIDefaultBaseURL, true, cfg, operationType, logger)
}

// NewPerplexityProvider creates a provider talking to the Perplexity API.
// Perplexity rejects the response_format parameter, so JSON mode stays off
// and the tolerant parser deals with prose-wrapped replies.
func NewPerplexityProvider(cfg *config.OperationAIConfig, operationType string, logger *cvlensErrors.Logger) *OpenAIProvider {
	return newChatCompletionsProvider("perplexity", perplexityDefaultBaseURL, false, cfg, operationType, logger)
}

func newChatCompletionsProvider(name, defaultBaseURL string, jsonMode bool, cfg *config.OperationAIConfig, operationType string, logger *cvlensErrors.Logger) *OpenAIProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	httpClient := &http.Client{}
	if cfg.Timeout != nil {
		httpClient.Timeout = *cfg.Timeout
	}

	return &OpenAIProvider{
		name:           name,
		baseURL:        baseURL,
		jsonMode:       jsonMode,
		httpClient:     httpClient,
		config:         cfg,
		operationType:  operationType,
		circuitBreaker: NewAICircuitBreaker(operationType, cfg, logger),
		logger:         logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model          string              `json:"model"`
	Messages       []chatMessage       `json:"messages"`
	Temperature    *float32            `json:"temperature,omitempty"`
	MaxTokens      *int                `json:"max_tokens,omitempty"`
	ResponseFormat *chatResponseFormat `json:"response_format,omitempty"`
}

type chatResponseFormat struct {
	Type string `json:"type"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
}

// Invoke sends one chat-completions request and returns the raw reply text
func (p *OpenAIProvider) Invoke(ctx context.Context, systemPrompt, userPrompt string) (string, *TokenUsage, error) {
	tracer := otel.Tracer("cvlens.ai." + p.name)
	ctx, span := tracer.Start(ctx, p.name+"."+p.operationType)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", p.name),
		attribute.String("ai.model", p.config.Model),
		attribute.Float64("ai.temperature", float64(*p.config.Temperature)),
		attribute.Int("input.prompt_length", len(userPrompt)),
	)

	var tokenUsage *TokenUsage
	text, err := p.circuitBreaker.Execute(func() (string, error) {
		reply, usage, err := p.doRequest(ctx, systemPrompt, userPrompt)
		if err != nil {
			return "", err
		}
		tokenUsage = usage
		return reply, nil
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

func (p *OpenAIProvider) doRequest(ctx context.Context, systemPrompt, userPrompt string) (string, *TokenUsage, error) {
	messages := make([]chatMessage, 0, 2)
	if *p.config.UseSystemPrompts && systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})

	reqBody := chatCompletionRequest{
		Model:    p.config.Model,
		Messages: messages,
	}
	if *p.config.Temperature > 0 {
		reqBody.Temperature = p.config.Temperature
	}
	if p.config.MaxOutputTokens != nil && *p.config.MaxOutputTokens > 0 {
		reqBody.MaxTokens = p.config.MaxOutputTokens
	}
	if p.jsonMode {
		reqBody.ResponseFormat = &chatResponseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", nil, cvlensErrors.NewInternalError(cvlensErrors.ErrCodeInvalidFormat,
			"Failed to encode AI request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", nil, cvlensErrors.NewInternalError(cvlensErrors.ErrCodeInvalidFormat,
			"Failed to build AI request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if (errors.As(err, &netErr) && netErr.Timeout()) || errors.Is(err, context.DeadlineExceeded) {
			return "", nil, cvlensErrors.NewNetworkError(cvlensErrors.ErrCodeAITimeout,
				"AI request timed out", err)
		}
		return "", nil, cvlensErrors.NewNetworkError(cvlensErrors.ErrCodeProviderTransport,
			"AI request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", nil, cvlensErrors.NewNetworkError(cvlensErrors.ErrCodeProviderTransport,
			"Failed to read AI response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", nil, cvlensErrors.NewProviderHTTPError(resp.StatusCode, string(body)).
			WithContext("provider", p.name)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", nil, cvlensErrors.NewAIError(cvlensErrors.ErrCodeAIResponseInvalid,
			"Failed to decode AI response envelope", err)
	}

	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", nil, cvlensErrors.NewAIError(cvlensErrors.ErrCodeAIResponseInvalid,
			fmt.Sprintf("No response content from %s", p.name), nil)
	}

	var usage *TokenUsage
	if completion.Usage.TotalTokens > 0 {
		usage = &TokenUsage{
			InputTokens:  completion.Usage.PromptTokens,
			OutputTokens: completion.Usage.CompletionTokens,
			TotalTokens:  completion.Usage.TotalTokens,
		}
	}

	return completion.Choices[0].Message.Content, usage, nil
}

// GetModelInfo reports the configured model. The chat-completions surface
// has no cheap availability probe shared by both vendors, so the model is
// reported as configured without a network round trip.
func (p *OpenAIProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	return &ModelInfo{
		Name:      p.config.Model,
		Provider:  p.name,
		Available: true,
	}
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (p *OpenAIProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":   p.circuitBreaker.GetStats(),
		"overall_healthy": p.circuitBreaker.IsHealthy(),
	}
}

// Close implements AnalysisProvider interface
func (p *OpenAIProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}
