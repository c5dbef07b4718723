package config

import (
	"sync"
)

var (
	loadedPromptsMu sync.RWMutex
	loadedPrompts   AllLoadedPrompts
)

// LoadedPrompts holds the content of prompts loaded from files
type LoadedPrompts struct {
	SystemPrompts LoadedSystemPrompts
	UserPrompts   LoadedUserPrompts
}

// LoadedSystemPrompts contains loaded system-level instructions
type LoadedSystemPrompts struct {
	ScreenCandidate string
	ParseJob        string
	ParseJobES      string
}

// LoadedUserPrompts contains loaded user-level prompt templates
type LoadedUserPrompts struct {
	ScreenCandidate string
	ParseJob        string
	ParseJobES      string
}

// OperationLoadedPrompts holds loaded prompts for a specific operation
type OperationLoadedPrompts struct {
	SystemPrompts LoadedSystemPrompts
	UserPrompts   LoadedUserPrompts
}

// AllLoadedPrompts holds all loaded prompts for all operations
type AllLoadedPrompts struct {
	Global   LoadedPrompts
	Screen   OperationLoadedPrompts
	ParseJob OperationLoadedPrompts
}

func getLoadedPrompts() AllLoadedPrompts {
	loadedPromptsMu.RLock()
	defer loadedPromptsMu.RUnlock()
	return loadedPrompts
}

func setLoadedPrompts(p AllLoadedPrompts) {
	loadedPromptsMu.Lock()
	defer loadedPromptsMu.Unlock()
	loadedPrompts = p
}

// GetPromptsForOperation returns a copy of the loaded prompts for an operation type
func GetPromptsForOperation(operationType string) OperationLoadedPrompts {
	all := getLoadedPrompts()

	switch operationType {
	case "screen":
		return all.Screen
	case "parsejob":
		return all.ParseJob
	default:
		return OperationLoadedPrompts{
			SystemPrompts: all.Global.SystemPrompts,
			UserPrompts:   all.Global.UserPrompts,
		}
	}
}
