package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPromptsFromFiles(t *testing.T) {
	tempDir := t.TempDir()

	systemPromptContent := "Test system prompt for candidate screening"
	userPromptContent := "Test user prompt template: %s and %s"

	systemPromptFile := filepath.Join(tempDir, "system.screen.md")
	userPromptFile := filepath.Join(tempDir, "user.screen.md")

	if err := os.WriteFile(systemPromptFile, []byte(systemPromptContent), 0600); err != nil {
		t.Fatalf("Failed to create test system prompt file: %v", err)
	}

	if err := os.WriteFile(userPromptFile, []byte(userPromptContent), 0600); err != nil {
		t.Fatalf("Failed to create test user prompt file: %v", err)
	}

	config := &Config{
		AI: AIConfig{
			Screen: OperationAIConfig{
				CustomPrompts: PromptConfig{
					SystemPrompts: SystemPrompts{
						ScreenCandidateFile: systemPromptFile,
					},
					UserPrompts: UserPrompts{
						ScreenCandidateFile: userPromptFile,
					},
				},
			},
		},
	}

	err := config.loadPromptsFromFiles()
	if err != nil {
		t.Fatalf("Failed to load prompts from files: %v", err)
	}

	// Verify content was loaded into the shared snapshot
	loadedOps := GetPromptsForOperation("screen")

	if loadedOps.SystemPrompts.ScreenCandidate != systemPromptContent {
		t.Errorf("Expected loaded system prompt content '%s', got '%s'",
			systemPromptContent, loadedOps.SystemPrompts.ScreenCandidate)
	}

	if loadedOps.UserPrompts.ScreenCandidate != userPromptContent {
		t.Errorf("Expected loaded user prompt content '%s', got '%s'",
			userPromptContent, loadedOps.UserPrompts.ScreenCandidate)
	}

	// Verify file paths are preserved
	if config.AI.Screen.CustomPrompts.SystemPrompts.ScreenCandidateFile != systemPromptFile {
		t.Error("Expected system prompt file path to be preserved")
	}

	if config.AI.Screen.CustomPrompts.UserPrompts.ScreenCandidateFile != userPromptFile {
		t.Error("Expected user prompt file path to be preserved")
	}
}

func TestValidatePromptFiles(t *testing.T) {
	tempDir := t.TempDir()

	validFile := filepath.Join(tempDir, "valid.md")
	if err := os.WriteFile(validFile, []byte("Valid content"), 0600); err != nil {
		t.Fatalf("Failed to create valid test file: %v", err)
	}

	config := &Config{
		AI: AIConfig{
			ParseJob: OperationAIConfig{
				CustomPrompts: PromptConfig{
					SystemPrompts: SystemPrompts{
						ParseJobFile: validFile,
					},
				},
			},
		},
	}

	err := config.validatePromptFiles()
	if err != nil {
		t.Errorf("Expected validation to pass for valid file, got error: %v", err)
	}

	// Test with non-existent file
	config.AI.ParseJob.CustomPrompts.SystemPrompts.ParseJobFile = filepath.Join(tempDir, "nonexistent.md")

	err = config.validatePromptFiles()
	if err == nil {
		t.Error("Expected validation to fail for non-existent file")
	}
}

func TestLoadPromptFromFile(t *testing.T) {
	tempDir := t.TempDir()

	content := "Test prompt content"
	testFile := filepath.Join(tempDir, "test.md")
	if err := os.WriteFile(testFile, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	loadedContent, err := loadPromptFromFile(testFile, "system", "screenCandidate")
	if err != nil {
		t.Fatalf("Failed to load prompt from file: %v", err)
	}

	if loadedContent != content {
		t.Errorf("Expected content '%s', got '%s'", content, loadedContent)
	}

	// Test with empty file
	emptyFile := filepath.Join(tempDir, "empty.md")
	if err := os.WriteFile(emptyFile, []byte(""), 0600); err != nil {
		t.Fatalf("Failed to create empty test file: %v", err)
	}

	_, err = loadPromptFromFile(emptyFile, "system", "screenCandidate")
	if err == nil {
		t.Error("Expected error for empty file")
	}

	// Test with non-existent file
	_, err = loadPromptFromFile(filepath.Join(tempDir, "nonexistent.md"), "system", "screenCandidate")
	if err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestGetPromptsForOperationFallsBackToGlobal(t *testing.T) {
	tempDir := t.TempDir()

	globalPrompt := "Global screening prompt"
	globalFile := filepath.Join(tempDir, "global.md")
	if err := os.WriteFile(globalFile, []byte(globalPrompt), 0600); err != nil {
		t.Fatalf("Failed to create global prompt file: %v", err)
	}

	config := &Config{
		AI: AIConfig{
			CustomPrompts: PromptConfig{
				SystemPrompts: SystemPrompts{
					ScreenCandidateFile: globalFile,
				},
			},
		},
	}

	if err := config.loadPromptsFromFiles(); err != nil {
		t.Fatalf("Failed to load prompts from files: %v", err)
	}

	// Unknown operations fall back to the global prompts
	loaded := GetPromptsForOperation("unknown")
	if loaded.SystemPrompts.ScreenCandidate != globalPrompt {
		t.Errorf("Expected global prompt fallback '%s', got '%s'",
			globalPrompt, loaded.SystemPrompts.ScreenCandidate)
	}
}
