package server

import "fmt"

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

// displayEndpoints shows available API endpoints
func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET  /health     - Health check")
	fmt.Println("  GET  /stats      - Server statistics")
	fmt.Println("  POST /upload     - Upload CV files for text extraction")
	fmt.Println("  POST /parse-job  - Structure a free-text job posting")
	fmt.Println("  POST /analyze    - Score uploaded CVs against a job profile")
}

// displayRequestLimitInfo shows request size limit configuration
func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
		fmt.Println("WARNING: No request size limits configured!")
	}
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Println("Rate limiting: ENABLED (per client IP)")
		fmt.Printf("  - upload:  %d requests per %s\n", s.RateLimit.Upload.Requests, s.RateLimit.Upload.Window)
		fmt.Printf("  - analyze: %d requests per %s\n", s.RateLimit.Analyze.Requests, s.RateLimit.Analyze.Window)
		fmt.Printf("  - general: %d requests per %s\n", s.RateLimit.General.Requests, s.RateLimit.General.Window)
	} else {
		fmt.Println("Rate limiting: DISABLED")
		fmt.Println("WARNING: No rate limiting configured!")
	}
}
