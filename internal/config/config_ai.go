package config

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.BaseURL == "" {
		opCfg.BaseURL = c.AI.BaseURL
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
	if opCfg.MaxOutputTokens == nil {
		opCfg.MaxOutputTokens = &c.AI.MaxOutputTokens
	}
	// UseSystemPrompts: apply global default only if not explicitly set
	if opCfg.UseSystemPrompts == nil {
		opCfg.UseSystemPrompts = &c.AI.UseSystemPrompts
	}
}

// GetScreenConfig returns the AI configuration for candidate screening with
// fallback to the global config
func (c *Config) GetScreenConfig() OperationAIConfig {
	config := c.AI.Screen

	// Apply common defaults
	c.applyOperationDefaults(&config)

	// Apply screen-specific prompt fallbacks
	if config.CustomPrompts.SystemPrompts.ScreenCandidate == "" {
		config.CustomPrompts.SystemPrompts.ScreenCandidate = c.AI.CustomPrompts.SystemPrompts.ScreenCandidate
	}
	if config.CustomPrompts.UserPrompts.ScreenCandidate == "" {
		config.CustomPrompts.UserPrompts.ScreenCandidate = c.AI.CustomPrompts.UserPrompts.ScreenCandidate
	}
	// Also copy file paths for potential later loading
	if config.CustomPrompts.SystemPrompts.ScreenCandidateFile == "" {
		config.CustomPrompts.SystemPrompts.ScreenCandidateFile = c.AI.CustomPrompts.SystemPrompts.ScreenCandidateFile
	}
	if config.CustomPrompts.UserPrompts.ScreenCandidateFile == "" {
		config.CustomPrompts.UserPrompts.ScreenCandidateFile = c.AI.CustomPrompts.UserPrompts.ScreenCandidateFile
	}

	return config
}

// GetParseJobConfig returns the AI configuration for job posting parsing with
// fallback to the global config
func (c *Config) GetParseJobConfig() OperationAIConfig {
	config := c.AI.ParseJob

	// Apply common defaults
	c.applyOperationDefaults(&config)

	// Apply parse-job-specific prompt fallbacks, both languages
	if config.CustomPrompts.SystemPrompts.ParseJob == "" {
		config.CustomPrompts.SystemPrompts.ParseJob = c.AI.CustomPrompts.SystemPrompts.ParseJob
	}
	if config.CustomPrompts.UserPrompts.ParseJob == "" {
		config.CustomPrompts.UserPrompts.ParseJob = c.AI.CustomPrompts.UserPrompts.ParseJob
	}
	if config.CustomPrompts.SystemPrompts.ParseJobES == "" {
		config.CustomPrompts.SystemPrompts.ParseJobES = c.AI.CustomPrompts.SystemPrompts.ParseJobES
	}
	if config.CustomPrompts.UserPrompts.ParseJobES == "" {
		config.CustomPrompts.UserPrompts.ParseJobES = c.AI.CustomPrompts.UserPrompts.ParseJobES
	}
	// Also copy file paths for potential later loading
	if config.CustomPrompts.SystemPrompts.ParseJobFile == "" {
		config.CustomPrompts.SystemPrompts.ParseJobFile = c.AI.CustomPrompts.SystemPrompts.ParseJobFile
	}
	if config.CustomPrompts.UserPrompts.ParseJobFile == "" {
		config.CustomPrompts.UserPrompts.ParseJobFile = c.AI.CustomPrompts.UserPrompts.ParseJobFile
	}
	if config.CustomPrompts.SystemPrompts.ParseJobESFile == "" {
		config.CustomPrompts.SystemPrompts.ParseJobESFile = c.AI.CustomPrompts.SystemPrompts.ParseJobESFile
	}
	if config.CustomPrompts.UserPrompts.ParseJobESFile == "" {
		config.CustomPrompts.UserPrompts.ParseJobESFile = c.AI.CustomPrompts.UserPrompts.ParseJobESFile
	}

	return config
}

// GetLoadedScreenPrompts returns a copy of the loaded prompts for candidate screening
func (c *Config) GetLoadedScreenPrompts() OperationLoadedPrompts {
	return getLoadedPrompts().Screen
}

// GetLoadedParseJobPrompts returns a copy of the loaded prompts for job parsing
func (c *Config) GetLoadedParseJobPrompts() OperationLoadedPrompts {
	return getLoadedPrompts().ParseJob
}

// GetLoadedGlobalPrompts returns a copy of the loaded global prompts
func (c *Config) GetLoadedGlobalPrompts() LoadedPrompts {
	return getLoadedPrompts().Global
}
