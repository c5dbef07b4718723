package ai

import (
	"testing"
	"time"

	"cvlens/internal/config"
)

func TestIndependentCircuitBreakerConfigurations(t *testing.T) {
	// Each operation gets its own circuit breaker configuration

	screenConfig := &config.OperationAIConfig{
		Provider: "gemini",
		Model:    "gemini-2.5-flash",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      3,
			Interval:         60 * time.Second,
			Timeout:          60 * time.Second,
			MinRequests:      3,
			FailureThreshold: 0.6,
		},
	}

	parseJobConfig := &config.OperationAIConfig{
		Provider: "openai",
		Model:    "gpt-4",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      5,                // Different from screen
			Interval:         30 * time.Second, // Different from screen
			Timeout:          45 * time.Second, // Different from screen
			MinRequests:      2,                // Different from screen
			FailureThreshold: 0.7,              // Different from screen
		},
	}

	screenCB := NewAICircuitBreaker("Screen", screenConfig, nil)
	parseJobCB := NewAICircuitBreaker("ParseJob", parseJobConfig, nil)

	t.Run("ScreenCircuitBreaker", func(t *testing.T) {
		stats := screenCB.GetStats()

		name, ok := stats["name"].(string)
		if !ok {
			t.Fatal("Circuit breaker name not found")
		}

		expectedName := "AI-Screen"
		if name != expectedName {
			t.Errorf("Expected circuit breaker name '%s', got '%s'", expectedName, name)
		}

		// Verify it's in closed state initially
		state, ok := stats["state"].(string)
		if !ok {
			t.Fatal("Circuit breaker state not found")
		}
		if state != "closed" {
			t.Errorf("Expected initial state 'closed', got '%s'", state)
		}

		// Verify it's enabled
		enabled, ok := stats["enabled"].(bool)
		if !ok {
			t.Fatal("Circuit breaker enabled status not found")
		}
		if !enabled {
			t.Error("Circuit breaker should be enabled")
		}
	})

	t.Run("ParseJobCircuitBreaker", func(t *testing.T) {
		stats := parseJobCB.GetStats()

		name, ok := stats["name"].(string)
		if !ok {
			t.Fatal("Circuit breaker name not found")
		}

		expectedName := "AI-ParseJob"
		if name != expectedName {
			t.Errorf("Expected circuit breaker name '%s', got '%s'", expectedName, name)
		}
	})

	t.Run("IndependentInstances", func(t *testing.T) {
		if screenCB == parseJobCB {
			t.Error("Screen and parse-job circuit breakers should be different instances")
		}
	})

	t.Run("IndependentHealthStates", func(t *testing.T) {
		if !screenCB.IsHealthy() {
			t.Error("Screen circuit breaker should be healthy initially")
		}
		if !parseJobCB.IsHealthy() {
			t.Error("Parse-job circuit breaker should be healthy initially")
		}
	})
}

func TestCircuitBreakerExecutePassesThrough(t *testing.T) {
	cfg := &config.OperationAIConfig{
		Provider: "gemini",
		Model:    "test-model",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      3,
			MinRequests:      3,
			FailureThreshold: 0.6,
		},
	}

	cb := NewAICircuitBreaker("Test", cfg, nil)

	result, err := cb.Execute(func() (string, error) {
		return `{"overallScore": 80}`, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != `{"overallScore": 80}` {
		t.Errorf("Execute should return the function result unchanged, got %q", result)
	}
}

func TestCircuitBreakerDisabled(t *testing.T) {
	disabledConfig := &config.OperationAIConfig{
		Provider: "gemini",
		Model:    "test-model",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled: false, // Disabled
		},
	}

	cb := NewAICircuitBreaker("Disabled", disabledConfig, nil)

	// Should return nil when disabled
	if cb != nil {
		t.Fatal("Circuit breaker should be nil when disabled")
	}

	// A nil breaker still executes the function directly
	result, err := cb.Execute(func() (string, error) {
		return "direct", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "direct" {
		t.Errorf("nil breaker should pass through, got %q", result)
	}
}
