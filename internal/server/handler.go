package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"cvlens/internal/ai"
	"cvlens/internal/analysis"
	"cvlens/internal/extract"
	"cvlens/internal/observability"
	"cvlens/internal/types"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// MaxJobTextLength caps the job posting text accepted by parse-job
const MaxJobTextLength = 10000

// createUploadHandler wraps the upload handler with observability
func (s *Server) createUploadHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("cvlens.api")
		ctx, span := tracer.Start(ctx, "api.upload")
		defer span.End()

		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := r.ParseMultipartForm(extract.MaxFileSize); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid multipart request", err.Error(), http.StatusBadRequest)
			return
		}

		files := r.MultipartForm.File["files"]
		if len(files) == 0 {
			writeErrorResponse(w, "No files provided", "files field is required", http.StatusBadRequest)
			return
		}
		if err := extract.ValidateBatch(len(files)); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeAppError(w, s.Logger, err)
			return
		}

		span.SetAttributes(
			attribute.Int("request.file_count", len(files)),
			attribute.String("operation", "upload"),
		)

		metrics := om.GetMetrics()
		records := make([]types.CVRecord, 0, len(files))
		var uploadErrors []string

		for _, header := range files {
			record, err := s.processUpload(header)
			if err != nil {
				s.Logger.LogError(err, "CV upload rejected", "filename", header.Filename)
				uploadErrors = append(uploadErrors, fmt.Sprintf("%s: %s", header.Filename, uploadErrorMessage(err)))
				metrics.RecordBusinessMetric(ctx, "cv_uploaded", false, om,
					attribute.String("filename", header.Filename))
				continue
			}
			records = append(records, record)
			metrics.RecordBusinessMetric(ctx, "cv_uploaded", true, om,
				attribute.Int("text_length", len(record.ExtractedText)))
		}

		if len(records) == 0 {
			span.SetAttributes(attribute.String("error.type", "extraction"))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			if err := json.NewEncoder(w).Encode(UploadResponse{
				Success: false,
				Files:   []types.CVRecord{},
				Errors:  uploadErrors,
			}); err != nil {
				span.RecordError(err)
			}
			return
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("response.accepted", len(records)),
			attribute.Int("response.rejected", len(uploadErrors)),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(UploadResponse{
			Success: true,
			Files:   records,
			Errors:  uploadErrors,
		}); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// processUpload validates one multipart file and extracts its text
func (s *Server) processUpload(header *multipart.FileHeader) (types.CVRecord, error) {
	if err := extract.ValidateFile(header.Filename, header.Size); err != nil {
		return types.CVRecord{}, err
	}

	file, err := header.Open()
	if err != nil {
		return types.CVRecord{}, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			s.Logger.Warn("Failed to close uploaded file", "filename", header.Filename)
		}
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		return types.CVRecord{}, fmt.Errorf("failed to read uploaded file: %w", err)
	}

	text, err := extract.Text(data, header.Filename)
	if err != nil {
		return types.CVRecord{}, err
	}

	return types.CVRecord{
		ID:            uuid.NewString(),
		Filename:      header.Filename,
		ExtractedText: text,
		FileSize:      header.Size,
		UploadedAt:    time.Now().UTC(),
	}, nil
}

// createParseJobHandler wraps the parse-job handler with observability
func (s *Server) createParseJobHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("cvlens.api")
		ctx, span := tracer.Start(ctx, "api.parse_job")
		defer span.End()

		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req ParseJobRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if strings.TrimSpace(req.JobText) == "" {
			err := fmt.Errorf("missing job text")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Job description text is required", "jobText field is required", http.StatusBadRequest)
			return
		}
		// Character count, not bytes; Spanish postings are full of multibyte runes
		if utf8.RuneCountInString(req.JobText) > MaxJobTextLength {
			err := fmt.Errorf("job text too large: %d chars", utf8.RuneCountInString(req.JobText))
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Job description is too long (max 10,000 characters)", "", http.StatusBadRequest)
			return
		}

		language := req.Language
		if language == "" {
			language = "es"
		}

		span.SetAttributes(
			attribute.Int("request.job_length", len(req.JobText)),
			attribute.String("request.language", language),
			attribute.String("operation", "parse_job"),
		)

		parseJobConfig := s.AppConfig.GetParseJobConfig()
		aiService, err := ai.NewService(&parseJobConfig, "parsejob", s.Logger)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create AI service", err.Error(), http.StatusInternalServerError)
			return
		}
		defer s.closeAIService(aiService)

		metrics := om.GetMetrics()
		var result types.ParsedJobData
		err = metrics.TrackAIOperationWithTokens(ctx, "parsejob", func(ctx context.Context) *observability.AIOperationResult {
			parsed, tokenUsage, aiErr := aiService.ParseJob(ctx, types.ParseJobInput{
				JobText:  req.JobText,
				Language: language,
			})
			result = parsed
			return &observability.AIOperationResult{
				Error:      aiErr,
				TokenUsage: (*observability.TokenUsage)(tokenUsage),
			}
		}, om)

		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "ai_processing"))
			metrics.RecordBusinessMetric(ctx, "job_parsed", false, om)
			writeErrorResponse(w, "Failed to parse job description", err.Error(), http.StatusInternalServerError)
			return
		}

		metrics.RecordBusinessMetric(ctx, "job_parsed", true, om,
			attribute.String("language", language),
			attribute.Int("required_skills", len(result.RequiredSkills)))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("response.title", result.Title),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(ParseJobResponse{Success: true, Data: result}); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createAnalyzeHandler wraps the analyze handler with observability
func (s *Server) createAnalyzeHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("cvlens.api")
		ctx, span := tracer.Start(ctx, "api.analyze")
		defer span.End()

		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req AnalyzeRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.cv_count", len(req.CVIDs)),
			attribute.String("request.job_title", req.JobProfile.Title),
			attribute.String("operation", "analyze"),
		)

		records := make(map[string]types.CVRecord, len(req.CVData))
		for _, record := range req.CVData {
			records[record.ID] = record
		}

		screenConfig := s.AppConfig.GetScreenConfig()
		aiService, err := ai.NewService(&screenConfig, "screen", s.Logger)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create AI service", err.Error(), http.StatusInternalServerError)
			return
		}
		defer s.closeAIService(aiService)

		orchestrator := analysis.New(aiService, s.AppConfig.App.AnalysisWorkers, s.Logger)

		metrics := om.GetMetrics()
		var result types.AnalysisResult
		err = metrics.TrackAIOperationWithTokens(ctx, "screen", func(ctx context.Context) *observability.AIOperationResult {
			output, analyzeErr := orchestrator.Analyze(ctx, req.JobProfile, req.CVIDs, records)
			result = output
			return &observability.AIOperationResult{Error: analyzeErr}
		}, om)

		if err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "candidate_scored", false, om)
			writeAppError(w, s.Logger, err)
			return
		}

		metrics.RecordBusinessMetric(ctx, "candidate_scored", true, om,
			attribute.Int("candidates", result.TotalCandidates),
			attribute.Int("average_score", result.AverageScore))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("response.candidates", result.TotalCandidates),
			attribute.Int("response.average_score", result.AverageScore),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// closeAIService releases per-request provider resources
func (s *Server) closeAIService(svc *ai.Service) {
	if err := svc.Provider.Close(); err != nil {
		s.Logger.Warn("Failed to close AI provider", "error", err.Error())
	}
}
