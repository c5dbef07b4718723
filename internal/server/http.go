package server

import (
	"time"

	"cvlens/internal/config"
	cvlensErrors "cvlens/internal/errors"
	"cvlens/internal/ratelimit"
	"cvlens/internal/types"
)

// ParseJobRequest represents the request body for the parse-job endpoint
type ParseJobRequest struct {
	JobText  string `json:"jobText"`
	Language string `json:"language"`
}

// AnalyzeRequest represents the request body for the analyze endpoint.
// CVData carries the client-held records referenced by CVIDs; the server
// keeps no CV storage between requests.
type AnalyzeRequest struct {
	JobProfile types.JobProfile `json:"jobProfile"`
	CVIDs      []string         `json:"cvIds"`
	CVData     []types.CVRecord `json:"cvData,omitempty"`
}

// UploadResponse represents the response body for the upload endpoint
type UploadResponse struct {
	Success bool             `json:"success"`
	Files   []types.CVRecord `json:"files"`
	Errors  []string         `json:"errors,omitempty"`
}

// ParseJobResponse represents the response body for the parse-job endpoint
type ParseJobResponse struct {
	Success bool                `json:"success"`
	Data    types.ParsedJobData `json:"data"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Details []string `json:"details,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting. Limiter is the interface handlers consume so tests
	// can swap in a stub; PoolLimiter is the concrete instance for stats
	// and shutdown.
	RateLimit   *config.RateLimitConfig
	Limiter     ratelimit.Consumer
	PoolLimiter *ratelimit.PoolLimiter

	// Logger
	Logger *cvlensErrors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *cvlensErrors.Logger) *Server {
	var poolLimiter *ratelimit.PoolLimiter
	var limiter ratelimit.Consumer
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		poolLimiter = ratelimit.New(map[string]ratelimit.PoolConfig{
			ratelimit.PoolUpload:  {Requests: cfg.RateLimit.Upload.Requests, Window: cfg.RateLimit.Upload.Window},
			ratelimit.PoolAnalyze: {Requests: cfg.RateLimit.Analyze.Requests, Window: cfg.RateLimit.Analyze.Window},
			ratelimit.PoolGeneral: {Requests: cfg.RateLimit.General.Requests, Window: cfg.RateLimit.General.Window},
		}, cfg.RateLimit.CleanupInterval, cfg.RateLimit.IdleExpiry)
		limiter = poolLimiter
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		Limiter:        limiter,
		PoolLimiter:    poolLimiter,
		Logger:         logger,
	}
}
