package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// promptFileBinding maps a configured prompt file to its loaded destination
type promptFileBinding struct {
	filePath  string
	kind      string // "system" or "user"
	operation string
	target    *string
}

// loadPromptsFromFiles loads custom prompts from external files if file paths
// are specified, replacing the shared loaded prompt snapshot atomically
func (c *Config) loadPromptsFromFiles() error {
	var loaded AllLoadedPrompts

	for _, binding := range c.promptFileBindings(&loaded) {
		if binding.filePath == "" {
			continue
		}
		content, err := loadPromptFromFile(binding.filePath, binding.kind, binding.operation)
		if err != nil {
			return err
		}
		*binding.target = content
	}

	setLoadedPrompts(loaded)
	return nil
}

// promptFileBindings enumerates every configured prompt file and where its
// content lands in the loaded prompt snapshot
func (c *Config) promptFileBindings(loaded *AllLoadedPrompts) []promptFileBinding {
	return []promptFileBinding{
		// Global prompts
		{c.AI.CustomPrompts.SystemPrompts.ScreenCandidateFile, "system", "screenCandidate", &loaded.Global.SystemPrompts.ScreenCandidate},
		{c.AI.CustomPrompts.SystemPrompts.ParseJobFile, "system", "parseJob", &loaded.Global.SystemPrompts.ParseJob},
		{c.AI.CustomPrompts.SystemPrompts.ParseJobESFile, "system", "parseJobES", &loaded.Global.SystemPrompts.ParseJobES},
		{c.AI.CustomPrompts.UserPrompts.ScreenCandidateFile, "user", "screenCandidate", &loaded.Global.UserPrompts.ScreenCandidate},
		{c.AI.CustomPrompts.UserPrompts.ParseJobFile, "user", "parseJob", &loaded.Global.UserPrompts.ParseJob},
		{c.AI.CustomPrompts.UserPrompts.ParseJobESFile, "user", "parseJobES", &loaded.Global.UserPrompts.ParseJobES},

		// Operation-specific prompts
		{c.AI.Screen.CustomPrompts.SystemPrompts.ScreenCandidateFile, "system", "screenCandidate", &loaded.Screen.SystemPrompts.ScreenCandidate},
		{c.AI.Screen.CustomPrompts.UserPrompts.ScreenCandidateFile, "user", "screenCandidate", &loaded.Screen.UserPrompts.ScreenCandidate},
		{c.AI.ParseJob.CustomPrompts.SystemPrompts.ParseJobFile, "system", "parseJob", &loaded.ParseJob.SystemPrompts.ParseJob},
		{c.AI.ParseJob.CustomPrompts.UserPrompts.ParseJobFile, "user", "parseJob", &loaded.ParseJob.UserPrompts.ParseJob},
		{c.AI.ParseJob.CustomPrompts.SystemPrompts.ParseJobESFile, "system", "parseJobES", &loaded.ParseJob.SystemPrompts.ParseJobES},
		{c.AI.ParseJob.CustomPrompts.UserPrompts.ParseJobESFile, "user", "parseJobES", &loaded.ParseJob.UserPrompts.ParseJobES},
	}
}

// promptFilePaths returns the distinct set of configured prompt file paths
func (c *Config) promptFilePaths() []string {
	var loaded AllLoadedPrompts
	seen := make(map[string]bool)
	var paths []string
	for _, binding := range c.promptFileBindings(&loaded) {
		if binding.filePath == "" || seen[binding.filePath] {
			continue
		}
		seen[binding.filePath] = true
		paths = append(paths, binding.filePath)
	}
	return paths
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	// Resolve relative paths
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, operation, filePath, err)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, operation, absPath, err)
	}

	// Validate content is not empty
	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, operation, absPath)
	}

	log.Printf("[CONFIG] Successfully loaded %s %s prompt from file: %s (%d characters)",
		promptType, operation, absPath, len(trimmedContent))

	return trimmedContent, nil
}

// validatePromptFiles validates that prompt files exist before loading
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	var loaded AllLoadedPrompts
	for _, binding := range c.promptFileBindings(&loaded) {
		if binding.filePath == "" {
			continue
		}

		absPath, err := filepath.Abs(binding.filePath)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s %s prompt: %s", binding.kind, binding.operation, binding.filePath))
			continue
		}

		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s %s prompt file not found: %s", binding.kind, binding.operation, absPath))
		}
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}

	return nil
}
