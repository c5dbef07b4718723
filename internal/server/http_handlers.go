package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"cvlens/internal/ai"
	"cvlens/internal/config"
	"cvlens/internal/errors"
	"cvlens/internal/ratelimit"
)

// modelStatsTimeout bounds the model availability probes in the stats handler
const modelStatsTimeout = 10 * time.Second

// healthHandler reports service liveness plus the caller's remaining general
// quota. The handler consumes the general pool directly instead of going
// through the middleware so the decision can be embedded in the body.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rateLimitInfo := map[string]any{}
	if s.Limiter != nil {
		decision := s.Limiter.Consume(ratelimit.PoolGeneral, clientIdentifier(r))
		setRateLimitHeaders(w, decision)
		if !decision.Allowed {
			writeErrorResponse(w, rateLimitMessages[ratelimit.PoolGeneral], "", http.StatusTooManyRequests)
			return
		}
		rateLimitInfo["remaining"] = decision.Remaining
		rateLimitInfo["reset"] = decision.ResetAfter.Milliseconds()
	}

	response := map[string]any{
		"status":      "ok",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"version":     s.Version,
		"environment": s.AppConfig.App.Environment,
		"rateLimit":   rateLimitInfo,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode health response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"service": "cvlens",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
		"ai": s.aiOperationStats(r.Context()),
	}

	if s.PoolLimiter != nil {
		response["rate_limiting"] = s.PoolLimiter.Stats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode stats response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// aiOperationStats reports model availability and circuit breaker state for
// each AI operation. The health endpoint stays cheap; vendor probes happen
// here only.
func (s *Server) aiOperationStats(ctx context.Context) map[string]any {
	checkCtx, cancel := context.WithTimeout(ctx, modelStatsTimeout)
	defer cancel()

	operations := map[string]config.OperationAIConfig{
		"screen":   s.AppConfig.GetScreenConfig(),
		"parsejob": s.AppConfig.GetParseJobConfig(),
	}

	status := make(map[string]any, len(operations))
	for operation, operationCfg := range operations {
		aiService, err := ai.NewService(&operationCfg, operation, s.Logger)
		if err != nil {
			status[operation] = map[string]any{
				"available": false,
				"error":     fmt.Sprintf("Failed to create %s service: %v", operation, err),
			}
			continue
		}

		status[operation] = map[string]any{
			"model":           aiService.GetModelInfo(checkCtx),
			"circuit_breaker": aiService.GetCircuitBreakerStats(),
		}

		if err := aiService.Close(); err != nil {
			s.Logger.Warn("Failed to close AI provider", "error", err.Error())
		}
	}

	return status
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	if r.Header.Get("Content-Type") != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   error,
		Message: message,
	}

	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode error response: %v", err)
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}

// writeAppError maps an application error onto an HTTP status and writes it
func writeAppError(w http.ResponseWriter, logger *errors.Logger, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		writeErrorResponse(w, "Internal server error", err.Error(), http.StatusInternalServerError)
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Type {
	case errors.ErrorTypeValidation:
		status = http.StatusBadRequest
	case errors.ErrorTypeRateLimit:
		status = http.StatusTooManyRequests
	}

	if status == http.StatusInternalServerError && logger != nil {
		logger.LogError(err, "Request failed")
	}

	writeErrorResponse(w, appErr.Message, "", status)
}

// uploadErrorMessage extracts a client-safe message for a rejected file
func uploadErrorMessage(err error) string {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	return "failed to process file"
}
