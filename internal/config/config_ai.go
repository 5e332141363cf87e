package config

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		opCfg.MaxRetries = &c.AI.MaxRetries
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
	// UseSystemPrompts: apply global default only if not explicitly set
	if opCfg.UseSystemPrompts == nil {
		opCfg.UseSystemPrompts = &c.AI.UseSystemPrompts
	}
}

// fallback fills dst from src when dst is empty.
func fallback(dst *string, src string) {
	if *dst == "" {
		*dst = src
	}
}

// GetParseConfig returns the AI configuration for parse operations with fallback to global config
func (c *Config) GetParseConfig() OperationAIConfig {
	config := c.AI.Parse
	c.applyOperationDefaults(&config)

	fallback(&config.CustomPrompts.SystemPrompts.ParseResume, c.AI.CustomPrompts.SystemPrompts.ParseResume)
	fallback(&config.CustomPrompts.UserPrompts.ParseResume, c.AI.CustomPrompts.UserPrompts.ParseResume)
	fallback(&config.CustomPrompts.SystemPrompts.ParseResumeFile, c.AI.CustomPrompts.SystemPrompts.ParseResumeFile)
	fallback(&config.CustomPrompts.UserPrompts.ParseResumeFile, c.AI.CustomPrompts.UserPrompts.ParseResumeFile)

	return config
}

// GetOptimizeConfig returns the AI configuration for optimize operations with fallback to global config
func (c *Config) GetOptimizeConfig() OperationAIConfig {
	config := c.AI.Optimize
	c.applyOperationDefaults(&config)

	fallback(&config.CustomPrompts.SystemPrompts.OptimizeResume, c.AI.CustomPrompts.SystemPrompts.OptimizeResume)
	fallback(&config.CustomPrompts.UserPrompts.OptimizeResume, c.AI.CustomPrompts.UserPrompts.OptimizeResume)
	fallback(&config.CustomPrompts.SystemPrompts.OptimizeFile, c.AI.CustomPrompts.SystemPrompts.OptimizeFile)
	fallback(&config.CustomPrompts.UserPrompts.OptimizeFile, c.AI.CustomPrompts.UserPrompts.OptimizeFile)

	return config
}

// GetFeedbackConfig returns the AI configuration for feedback operations with fallback to global config
func (c *Config) GetFeedbackConfig() OperationAIConfig {
	config := c.AI.Feedback
	c.applyOperationDefaults(&config)

	fallback(&config.CustomPrompts.SystemPrompts.ApplyFeedback, c.AI.CustomPrompts.SystemPrompts.ApplyFeedback)
	fallback(&config.CustomPrompts.UserPrompts.ApplyFeedback, c.AI.CustomPrompts.UserPrompts.ApplyFeedback)
	fallback(&config.CustomPrompts.SystemPrompts.ApplyFeedbackFile, c.AI.CustomPrompts.SystemPrompts.ApplyFeedbackFile)
	fallback(&config.CustomPrompts.UserPrompts.ApplyFeedbackFile, c.AI.CustomPrompts.UserPrompts.ApplyFeedbackFile)

	return config
}

// GetScoreConfig returns the AI configuration for score operations with fallback to global config
func (c *Config) GetScoreConfig() OperationAIConfig {
	config := c.AI.Score
	c.applyOperationDefaults(&config)

	fallback(&config.CustomPrompts.SystemPrompts.ScoreATS, c.AI.CustomPrompts.SystemPrompts.ScoreATS)
	fallback(&config.CustomPrompts.UserPrompts.ScoreATS, c.AI.CustomPrompts.UserPrompts.ScoreATS)
	fallback(&config.CustomPrompts.SystemPrompts.ScoreATSFile, c.AI.CustomPrompts.SystemPrompts.ScoreATSFile)
	fallback(&config.CustomPrompts.UserPrompts.ScoreATSFile, c.AI.CustomPrompts.UserPrompts.ScoreATSFile)

	return config
}

// GetLoadedParsePrompts returns a copy of the loaded prompts for the parse operation
func (c *Config) GetLoadedParsePrompts() OperationLoadedPrompts {
	return loadedPrompts.Parse
}

// GetLoadedOptimizePrompts returns a copy of the loaded prompts for the optimize operation
func (c *Config) GetLoadedOptimizePrompts() OperationLoadedPrompts {
	return loadedPrompts.Optimize
}

// GetLoadedFeedbackPrompts returns a copy of the loaded prompts for the feedback operation
func (c *Config) GetLoadedFeedbackPrompts() OperationLoadedPrompts {
	return loadedPrompts.Feedback
}

// GetLoadedScorePrompts returns a copy of the loaded prompts for the score operation
func (c *Config) GetLoadedScorePrompts() OperationLoadedPrompts {
	return loadedPrompts.Score
}

// GetLoadedGlobalPrompts returns a copy of the loaded global prompts
func (c *Config) GetLoadedGlobalPrompts() LoadedPrompts {
	return loadedPrompts.Global
}
