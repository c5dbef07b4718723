package server

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"cvlens/internal/observability"
	"cvlens/internal/ratelimit"
)

// 429 messages per pool, matching what clients display verbatim.
var rateLimitMessages = map[string]string{
	ratelimit.PoolUpload:  "Upload rate limit exceeded. Please try again later.",
	ratelimit.PoolAnalyze: "Analysis rate limit exceeded. Please try again later.",
	ratelimit.PoolGeneral: "Rate limit exceeded",
}

// poolRateLimitMiddleware enforces the named pool's quota per client IP.
// Rate limit headers are set on allowed and denied responses alike so
// clients can pace themselves before hitting the quota.
func (s *Server) poolRateLimitMiddleware(pool string, om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	if s.Limiter == nil {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			identifier := clientIdentifier(r)
			decision := s.Limiter.Consume(pool, identifier)
			setRateLimitHeaders(w, decision)

			if !decision.Allowed {
				s.Logger.Info("Rate limit exceeded",
					"pool", pool,
					"identifier", identifier,
					"endpoint", r.URL.Path)
				if om != nil {
					om.GetMetrics().RecordBusinessMetric(r.Context(), "rate_limit_hit", false, om)
				}
				message, ok := rateLimitMessages[pool]
				if !ok {
					message = rateLimitMessages[ratelimit.PoolGeneral]
				}
				writeErrorResponse(w, message, "", http.StatusTooManyRequests)
				return
			}

			next(w, r)
		}
	}
}

// setRateLimitHeaders exposes the pool state in milliseconds
func setRateLimitHeaders(w http.ResponseWriter, decision ratelimit.Decision) {
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAfter.Milliseconds(), 10))
	if !decision.Allowed && decision.RetryAfter > 0 {
		seconds := int64(decision.RetryAfter.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		w.Header().Set("Retry-After", strconv.FormatInt(seconds, 10))
	}
}

// clientIdentifier keys rate limit buckets by client IP. Requests with no
// resolvable address share one "anonymous" bucket.
func clientIdentifier(r *http.Request) string {
	if ip := getClientIP(r); ip != "" {
		return ip
	}
	return "anonymous"
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header (for proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Take the first IP in the list
		if ip := parseFirstIP(xff); ip != "" {
			return ip
		}
	}

	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(xri); ip != nil {
			return xri
		}
	}

	// Fall back to RemoteAddr
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// parseFirstIP parses the first valid IP from a comma-separated list
func parseFirstIP(ips string) string {
	// Split by comma and check each IP
	for ip := range strings.SplitSeq(ips, ",") {
		ip = strings.TrimSpace(ip)
		if parsed := net.ParseIP(ip); parsed != nil {
			return ip
		}
	}
	return ""
}
