package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"cvlens/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "AnalysisResult", &AnalysisTextFormatter{})
	registry.RegisterFormatter("markdown", "AnalysisResult", &AnalysisMarkdownFormatter{})
	registry.RegisterFormatter("text", "ParsedJobData", &ParsedJobTextFormatter{})
	registry.RegisterFormatter("markdown", "ParsedJobData", &ParsedJobMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.AnalysisResult:
		return "AnalysisResult"
	case types.ParsedJobData:
		return "ParsedJobData"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// AnalysisTextFormatter handles text formatting for analysis results
type AnalysisTextFormatter struct{}

func (atf *AnalysisTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.AnalysisResult)
	if !ok {
		return "", fmt.Errorf("expected AnalysisResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== CANDIDATE ANALYSIS ===\n\n")
	output.WriteString(fmt.Sprintf("Position: %s\n", result.JobProfile.Title))
	output.WriteString(fmt.Sprintf("Candidates analyzed: %d\n", result.TotalCandidates))
	output.WriteString(fmt.Sprintf("Average score: %d/100\n\n", result.AverageScore))

	for i, candidate := range result.Candidates {
		output.WriteString(fmt.Sprintf("--- %d. %s ---\n", i+1, candidate.Filename))
		output.WriteString(fmt.Sprintf("Overall score: %d/100\n", candidate.OverallScore))
		output.WriteString(fmt.Sprintf("Experience: %d/100  Education: %d/100\n",
			candidate.ExperienceScore, candidate.EducationScore))
		output.WriteString("Reasoning:\n")
		output.WriteString(candidate.Reasoning)
		output.WriteString("\n")

		if len(candidate.SkillMatches) > 0 {
			output.WriteString("Skill matches:\n")
			for _, match := range candidate.SkillMatches {
				marker := "missing"
				if match.Found {
					marker = "found"
				}
				output.WriteString(fmt.Sprintf("- %s (%s, confidence %d)\n", match.Skill, marker, match.Confidence))
			}
		}
		if len(candidate.Strengths) > 0 {
			output.WriteString("Strengths:\n")
			for _, strength := range candidate.Strengths {
				output.WriteString(fmt.Sprintf("- %s\n", strength))
			}
		}
		if len(candidate.Weaknesses) > 0 {
			output.WriteString("Weaknesses:\n")
			for _, weakness := range candidate.Weaknesses {
				output.WriteString(fmt.Sprintf("- %s\n", weakness))
			}
		}
		if len(candidate.Recommendations) > 0 {
			output.WriteString("Recommendations:\n")
			for _, recommendation := range candidate.Recommendations {
				output.WriteString(fmt.Sprintf("- %s\n", recommendation))
			}
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (atf *AnalysisTextFormatter) SupportedType() string {
	return "AnalysisResult"
}

// AnalysisMarkdownFormatter handles markdown formatting for analysis results
type AnalysisMarkdownFormatter struct{}

func (amf *AnalysisMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.AnalysisResult)
	if !ok {
		return "", fmt.Errorf("expected AnalysisResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Candidate Analysis\n\n")
	output.WriteString(fmt.Sprintf("**Position:** %s\n\n", result.JobProfile.Title))
	output.WriteString(fmt.Sprintf("**Candidates analyzed:** %d\n\n", result.TotalCandidates))
	output.WriteString(fmt.Sprintf("**Average score:** %d/100\n\n", result.AverageScore))

	for i, candidate := range result.Candidates {
		output.WriteString(fmt.Sprintf("## %d. %s\n\n", i+1, candidate.Filename))
		output.WriteString(fmt.Sprintf("**Overall score:** %d/100\n\n", candidate.OverallScore))
		output.WriteString(fmt.Sprintf("**Experience:** %d/100 | **Education:** %d/100\n\n",
			candidate.ExperienceScore, candidate.EducationScore))
		output.WriteString("### Reasoning\n\n")
		output.WriteString(candidate.Reasoning)
		output.WriteString("\n\n")

		if len(candidate.SkillMatches) > 0 {
			output.WriteString("### Skill Matches\n\n")
			for _, match := range candidate.SkillMatches {
				marker := "missing"
				if match.Found {
					marker = "found"
				}
				output.WriteString(fmt.Sprintf("- **%s** (%s, confidence %d)\n", match.Skill, marker, match.Confidence))
			}
			output.WriteString("\n")
		}
		if len(candidate.Strengths) > 0 {
			output.WriteString("### Strengths\n\n")
			for _, strength := range candidate.Strengths {
				output.WriteString(fmt.Sprintf("- %s\n", strength))
			}
			output.WriteString("\n")
		}
		if len(candidate.Weaknesses) > 0 {
			output.WriteString("### Weaknesses\n\n")
			for _, weakness := range candidate.Weaknesses {
				output.WriteString(fmt.Sprintf("- %s\n", weakness))
			}
			output.WriteString("\n")
		}
		if len(candidate.Recommendations) > 0 {
			output.WriteString("### Recommendations\n\n")
			for _, recommendation := range candidate.Recommendations {
				output.WriteString(fmt.Sprintf("- %s\n", recommendation))
			}
			output.WriteString("\n")
		}
	}

	return output.String(), nil
}

func (amf *AnalysisMarkdownFormatter) SupportedType() string {
	return "AnalysisResult"
}

// ParsedJobTextFormatter handles text formatting for parsed job postings
type ParsedJobTextFormatter struct{}

func (pjf *ParsedJobTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ParsedJobData)
	if !ok {
		return "", fmt.Errorf("expected ParsedJobData, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== PARSED JOB POSTING ===\n\n")
	output.WriteString(fmt.Sprintf("Title: %s\n", result.Title))
	output.WriteString(fmt.Sprintf("Experience level: %s\n", result.ExperienceLevel))
	if result.Industry != "" {
		output.WriteString(fmt.Sprintf("Industry: %s\n", result.Industry))
	}
	if result.Location != "" {
		output.WriteString(fmt.Sprintf("Location: %s\n", result.Location))
	}
	output.WriteString("\nDescription:\n")
	output.WriteString(result.Description)
	output.WriteString("\n\n")

	writeList := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		output.WriteString(title + ":\n")
		for _, item := range items {
			output.WriteString(fmt.Sprintf("- %s\n", item))
		}
		output.WriteString("\n")
	}

	writeList("Required skills", result.RequiredSkills)
	writeList("Preferred skills", result.PreferredSkills)
	writeList("Education", result.Education)
	writeList("Responsibilities", result.Responsibilities)
	writeList("Requirements", result.Requirements)
	writeList("Benefits", result.Benefits)

	return output.String(), nil
}

func (pjf *ParsedJobTextFormatter) SupportedType() string {
	return "ParsedJobData"
}

// ParsedJobMarkdownFormatter handles markdown formatting for parsed job postings
type ParsedJobMarkdownFormatter struct{}

func (pjmf *ParsedJobMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ParsedJobData)
	if !ok {
		return "", fmt.Errorf("expected ParsedJobData, got %T", data)
	}

	var output strings.Builder

	output.WriteString(fmt.Sprintf("# %s\n\n", result.Title))
	output.WriteString(fmt.Sprintf("**Experience level:** %s\n\n", result.ExperienceLevel))
	if result.Industry != "" {
		output.WriteString(fmt.Sprintf("**Industry:** %s\n\n", result.Industry))
	}
	if result.Location != "" {
		output.WriteString(fmt.Sprintf("**Location:** %s\n\n", result.Location))
	}
	output.WriteString("## Description\n\n")
	output.WriteString(result.Description)
	output.WriteString("\n\n")

	writeList := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		output.WriteString("## " + title + "\n\n")
		for _, item := range items {
			output.WriteString(fmt.Sprintf("- %s\n", item))
		}
		output.WriteString("\n")
	}

	writeList("Required Skills", result.RequiredSkills)
	writeList("Preferred Skills", result.PreferredSkills)
	writeList("Education", result.Education)
	writeList("Responsibilities", result.Responsibilities)
	writeList("Requirements", result.Requirements)
	writeList("Benefits", result.Benefits)

	return output.String(), nil
}

func (pjmf *ParsedJobMarkdownFormatter) SupportedType() string {
	return "ParsedJobData"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
