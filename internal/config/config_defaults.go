package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// AI Configuration - Global defaults
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.baseURL", "")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.temperature", 0.3)
	v.SetDefault("ai.maxOutputTokens", 2000)
	v.SetDefault("ai.useSystemPrompts", true)

	// AI Configuration - Screen operation defaults
	v.SetDefault("ai.screen.provider", "")
	v.SetDefault("ai.screen.model", "")
	v.SetDefault("ai.screen.baseURL", "")
	v.SetDefault("ai.screen.timeout", 90*time.Second) // CV scoring prompts are large
	v.SetDefault("ai.screen.apiKey", "")
	v.SetDefault("ai.screen.temperature", 0.3)
	v.SetDefault("ai.screen.useSystemPrompts", true)

	// AI Configuration - ParseJob operation defaults
	v.SetDefault("ai.parseJob.provider", "")
	v.SetDefault("ai.parseJob.model", "")
	v.SetDefault("ai.parseJob.baseURL", "")
	v.SetDefault("ai.parseJob.timeout", 45*time.Second)
	v.SetDefault("ai.parseJob.apiKey", "")
	v.SetDefault("ai.parseJob.temperature", 0.1) // Low temperature for structured extraction
	v.SetDefault("ai.parseJob.maxOutputTokens", 1000)
	v.SetDefault("ai.parseJob.useSystemPrompts", true)

	// Circuit Breaker Configuration defaults for all operations
	v.SetDefault("ai.screen.circuitBreaker.enabled", true)
	v.SetDefault("ai.screen.circuitBreaker.maxRequests", 3)
	v.SetDefault("ai.screen.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("ai.screen.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("ai.screen.circuitBreaker.minRequests", 3)
	v.SetDefault("ai.screen.circuitBreaker.failureThreshold", 0.6)

	v.SetDefault("ai.parseJob.circuitBreaker.enabled", true)
	v.SetDefault("ai.parseJob.circuitBreaker.maxRequests", 3)
	v.SetDefault("ai.parseJob.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("ai.parseJob.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("ai.parseJob.circuitBreaker.minRequests", 3)
	v.SetDefault("ai.parseJob.circuitBreaker.failureThreshold", 0.6)

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 60*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.maxRequestSize", 50*1024*1024) // Multipart CV batches

	// TLS Configuration defaults
	v.SetDefault("server.tls.enabled", false)
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")

	// Rate limiting defaults, requests per window per identifier
	v.SetDefault("server.rateLimit.enabled", true)
	v.SetDefault("server.rateLimit.upload.requests", 5)
	v.SetDefault("server.rateLimit.upload.window", time.Minute)
	v.SetDefault("server.rateLimit.analyze.requests", 3)
	v.SetDefault("server.rateLimit.analyze.window", 5*time.Minute)
	v.SetDefault("server.rateLimit.general.requests", 100)
	v.SetDefault("server.rateLimit.general.window", time.Minute)
	v.SetDefault("server.rateLimit.cleanupInterval", 5*time.Minute)
	v.SetDefault("server.rateLimit.idleExpiry", 10*time.Minute)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.analysisWorkers", 3)

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.aiKey", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "cvlens")
	v.SetDefault("observability.serviceVersion", "")  // Will use app version if empty
	v.SetDefault("observability.serviceInstance", "") // Will be auto-generated if empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)

	// Tracing Configuration
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)

	// Metrics Configuration
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)

	// Custom Metrics Configuration
	v.SetDefault("observability.customMetrics.aiOperations.enabled", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackDuration", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackTokenUsage", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackModelInfo", true)
	v.SetDefault("observability.customMetrics.businessMetrics.enabled", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackSuccessRates", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackContentSizes", true)
	v.SetDefault("observability.customMetrics.infrastructure.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)

	// Console Configuration
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)

	// Prometheus Configuration
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")

	// OTLP Configuration
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}
