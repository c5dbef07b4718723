package server

import (
	"net/http"

	"cvlens/internal/observability"
	"cvlens/internal/ratelimit"
)

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes(om *observability.ObservabilityManager) *http.ServeMux {
	mux := http.NewServeMux()

	uploadLimit := s.poolRateLimitMiddleware(ratelimit.PoolUpload, om)
	analyzeLimit := s.poolRateLimitMiddleware(ratelimit.PoolAnalyze, om)
	generalLimit := s.poolRateLimitMiddleware(ratelimit.PoolGeneral, om)
	requestLimitHandler := s.requestSizeLimitMiddleware()

	// The health handler consumes the general pool itself so its response
	// body can carry the remaining quota; no limit middleware on it.
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/stats", s.corsMiddleware(generalLimit(s.statsHandler)))
	mux.HandleFunc("/upload",
		s.corsMiddleware(uploadLimit(requestLimitHandler(s.createUploadHandler(om)))),
	)
	mux.HandleFunc("/parse-job",
		s.corsMiddleware(analyzeLimit(requestLimitHandler(s.createParseJobHandler(om)))),
	)
	mux.HandleFunc("/analyze",
		s.corsMiddleware(analyzeLimit(requestLimitHandler(s.createAnalyzeHandler(om)))),
	)

	return mux
}

// corsMiddleware answers preflight requests and attaches permissive CORS
// headers. Preflights are answered before any rate limiting so browsers
// never burn quota on OPTIONS.
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				// Limit the request body size
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}

			next(w, r)
		}
	}
}
