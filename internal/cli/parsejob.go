package cli

import (
	"context"
	"fmt"

	"cvlens/internal/ai"
	"cvlens/internal/common"
	"cvlens/internal/types"

	"github.com/spf13/cobra"
)

var parseJobCmd = &cobra.Command{
	Use:   "parse-job [job-description-file]",
	Short: "Structure a free-text job posting into a job profile",
	Long: `Parse a free-text job posting into a structured job profile using AI.
The command takes one argument: the path to a plain text file containing
the job posting. The posting can be in English or Spanish; use --language
to pick the prompt language (defaults to Spanish).`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if parseJobConfig.OutputFormat == "" {
			parseJobConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(parseJobConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runParseJob,
}

var parseJobConfig common.CommandConfig
var parseJobLanguage string

func init() {
	parseJobCmd.Flags().StringVarP(&parseJobConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	parseJobCmd.Flags().StringVar(&parseJobConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	parseJobCmd.Flags().StringVar(&parseJobLanguage, "language", "es", "Prompt language: en or es")

	// Add completion for format flag
	_ = parseJobCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runParseJob(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	// Create AI service for parse-job operation
	parseJobAIConfig := cfg.GetParseJobConfig()
	aiService, err := ai.NewService(&parseJobAIConfig, "parsejob", logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	defer func() {
		if err := aiService.Provider.Close(); err != nil {
			logger.Warn("Failed to close AI provider", "error", err.Error())
		}
	}()

	createInput := func(contents []string) (types.ParseJobInput, error) {
		if len(contents) != 1 {
			return types.ParseJobInput{}, fmt.Errorf("expected 1 file path, got %d", len(contents))
		}
		return types.ParseJobInput{
			JobText:  contents[0],
			Language: parseJobLanguage,
		}, nil
	}

	logDetails := func(input types.ParseJobInput, cfg common.CommandConfig) {
		logger.Info("Starting job posting parse",
			"job_chars", len(input.JobText),
			"language", input.Language,
			"output_format", cfg.OutputFormat)
	}

	// Create a wrapper function that uses our specific AI service
	parseOperation := func(ctx context.Context, input types.ParseJobInput) (types.ParsedJobData, *ai.TokenUsage, error) {
		return aiService.ParseJob(ctx, input)
	}

	err = common.RunAICommand(
		cmd.Context(),
		logger,
		parseJobConfig,
		args,
		createInput,
		parseOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to parse job posting: %w", err)
	}
	logger.Info("Job posting parsed successfully")
	return nil
}
