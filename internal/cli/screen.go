package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cvlens/internal/ai"
	"cvlens/internal/analysis"
	"cvlens/internal/common"
	"cvlens/internal/errors"
	"cvlens/internal/extract"
	"cvlens/internal/types"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var screenCmd = &cobra.Command{
	Use:   "screen [job-profile-file] [cv-file...]",
	Short: "Score CV files against a job profile",
	Long: `Score one or more CV files against a job profile using AI.
The first argument is a JSON file describing the job profile (title,
description, requiredSkills, and so on); the remaining arguments are CV
files in PDF, DOCX, DOC or plain text format.

Every CV gets exactly one score entry in the result, in the order the
files were given. CVs that fail extraction or analysis are reported with
a zero score instead of aborting the batch.`,
	Args: cobra.MinimumNArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if screenConfig.OutputFormat == "" {
			screenConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(screenConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runScreen,
}

var screenConfig common.CommandConfig

func init() {
	screenCmd.Flags().StringVarP(&screenConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	screenCmd.Flags().StringVar(&screenConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	// Add completion for format flag
	_ = screenCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runScreen(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	jobProfile, err := loadJobProfile(args[0])
	if err != nil {
		return err
	}

	cvIDs, records, err := loadCVFiles(args[1:], logger)
	if err != nil {
		return err
	}

	logger.Info("Starting CV screening",
		"job_title", jobProfile.Title,
		"cv_count", len(cvIDs),
		"output_format", screenConfig.OutputFormat)

	// Create AI service for screen operation
	screenAIConfig := cfg.GetScreenConfig()
	aiService, err := ai.NewService(&screenAIConfig, "screen", logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	defer func() {
		if err := aiService.Provider.Close(); err != nil {
			logger.Warn("Failed to close AI provider", "error", err.Error())
		}
	}()

	orchestrator := analysis.New(aiService, cfg.App.AnalysisWorkers, logger)
	result, err := orchestrator.Analyze(cmd.Context(), jobProfile, cvIDs, records)
	if err != nil {
		return fmt.Errorf("failed to screen CVs: %w", err)
	}

	logger.Info("CV screening completed successfully",
		"candidates", result.TotalCandidates,
		"average_score", result.AverageScore)

	return common.NewOutputHandler(logger).HandleOutput(result, screenConfig)
}

// loadJobProfile reads a job profile from a JSON file
func loadJobProfile(filename string) (types.JobProfile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return types.JobProfile{}, fmt.Errorf("failed to read job profile file %s: %w", filename, err)
	}

	var profile types.JobProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return types.JobProfile{}, fmt.Errorf("failed to parse job profile JSON in %s: %w", filename, err)
	}
	return profile, nil
}

// loadCVFiles validates and extracts text from CV files, returning ids in
// argument order and the record map keyed by those ids
func loadCVFiles(filenames []string, logger *errors.Logger) ([]string, map[string]types.CVRecord, error) {
	cvIDs := make([]string, 0, len(filenames))
	records := make(map[string]types.CVRecord, len(filenames))

	for _, filename := range filenames {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read CV file %s: %w", filename, err)
		}

		basename := filepath.Base(filename)
		if err := extract.ValidateFile(basename, int64(len(data))); err != nil {
			return nil, nil, fmt.Errorf("invalid CV file %s: %w", filename, err)
		}

		text, err := extract.Text(data, basename)
		if err != nil {
			// The batch keeps its one-entry-per-CV shape; the orchestrator
			// reports the unreadable file as a missing record.
			logger.Warn("Failed to extract text from CV, it will score zero",
				"filename", filename, "error", err.Error())
		}

		id := uuid.NewString()
		cvIDs = append(cvIDs, id)
		if err == nil {
			records[id] = types.CVRecord{
				ID:            id,
				Filename:      basename,
				ExtractedText: text,
				FileSize:      int64(len(data)),
				UploadedAt:    time.Now().UTC(),
			}
		}
	}

	return cvIDs, records, nil
}
