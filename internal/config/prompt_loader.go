package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// GetLoadedPrompts returns the loaded prompt content in a thread-safe way
func GetLoadedPrompts() *AllLoadedPrompts {
	return &loadedPrompts
}

// loadPromptsFromFiles loads custom prompts from external files if file paths are specified
func (c *Config) loadPromptsFromFiles() error {
	loadedPromptsOnce.Do(func() {
		loadedPrompts = AllLoadedPrompts{}
	})

	// Global prompts first, then operation-specific overrides.
	if err := c.loadSystemPromptsFromFiles(&c.AI.CustomPrompts.SystemPrompts, &loadedPrompts.Global.SystemPrompts); err != nil {
		return fmt.Errorf("failed to load global system prompts: %w", err)
	}
	if err := c.loadUserPromptsFromFiles(&c.AI.CustomPrompts.UserPrompts, &loadedPrompts.Global.UserPrompts); err != nil {
		return fmt.Errorf("failed to load global user prompts: %w", err)
	}

	operations := []struct {
		name   string
		config *OperationAIConfig
		target *OperationLoadedPrompts
	}{
		{"parse", &c.AI.Parse, &loadedPrompts.Parse},
		{"optimize", &c.AI.Optimize, &loadedPrompts.Optimize},
		{"feedback", &c.AI.Feedback, &loadedPrompts.Feedback},
		{"score", &c.AI.Score, &loadedPrompts.Score},
	}
	for _, op := range operations {
		if err := c.loadSystemPromptsFromFiles(&op.config.CustomPrompts.SystemPrompts, &op.target.SystemPrompts); err != nil {
			return fmt.Errorf("failed to load %s system prompts: %w", op.name, err)
		}
		if err := c.loadUserPromptsFromFiles(&op.config.CustomPrompts.UserPrompts, &op.target.UserPrompts); err != nil {
			return fmt.Errorf("failed to load %s user prompts: %w", op.name, err)
		}
	}

	c.logPromptLoadingSummary()

	return nil
}

// loadSystemPromptsFromFiles loads system prompts from files if file paths are specified
func (c *Config) loadSystemPromptsFromFiles(prompts *SystemPrompts, target *LoadedSystemPrompts) error {
	entries := []struct {
		file   string
		target *string
		name   string
	}{
		{prompts.ParseResumeFile, &target.ParseResume, "parseResume"},
		{prompts.OptimizeFile, &target.OptimizeResume, "optimizeResume"},
		{prompts.ApplyFeedbackFile, &target.ApplyFeedback, "applyFeedback"},
		{prompts.ScoreATSFile, &target.ScoreATS, "scoreAts"},
	}
	for _, e := range entries {
		if e.file == "" {
			continue
		}
		content, err := c.loadPromptFromFile(e.file, "system", e.name)
		if err != nil {
			return err
		}
		*e.target = content
	}
	return nil
}

// loadUserPromptsFromFiles loads user prompts from files if file paths are specified
func (c *Config) loadUserPromptsFromFiles(prompts *UserPrompts, target *LoadedUserPrompts) error {
	entries := []struct {
		file   string
		target *string
		name   string
	}{
		{prompts.ParseResumeFile, &target.ParseResume, "parseResume"},
		{prompts.OptimizeFile, &target.OptimizeResume, "optimizeResume"},
		{prompts.ApplyFeedbackFile, &target.ApplyFeedback, "applyFeedback"},
		{prompts.ScoreATSFile, &target.ScoreATS, "scoreAts"},
	}
	for _, e := range entries {
		if e.file == "" {
			continue
		}
		content, err := c.loadPromptFromFile(e.file, "user", e.name)
		if err != nil {
			return err
		}
		*e.target = content
	}
	return nil
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func (c *Config) loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, operation, filePath, err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%s %s prompt file not found: %s", promptType, operation, absPath)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, operation, absPath, err)
	}

	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, operation, absPath)
	}

	log.Printf("[CONFIG] Loaded %s %s prompt from file: %s (%d characters)",
		promptType, operation, absPath, len(trimmedContent))

	return trimmedContent, nil
}

// validatePromptFiles validates that prompt files exist and are readable before loading
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	validateFile := func(filePath, promptType, operation string) {
		if filePath == "" {
			return
		}

		absPath, err := filepath.Abs(filePath)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s %s prompt: %s", promptType, operation, filePath))
			return
		}

		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s %s prompt file not found: %s", promptType, operation, absPath))
		}
	}

	validateSet := func(scope string, p *PromptConfig) {
		validateFile(p.SystemPrompts.ParseResumeFile, scope+" system", "parseResume")
		validateFile(p.SystemPrompts.OptimizeFile, scope+" system", "optimizeResume")
		validateFile(p.SystemPrompts.ApplyFeedbackFile, scope+" system", "applyFeedback")
		validateFile(p.SystemPrompts.ScoreATSFile, scope+" system", "scoreAts")
		validateFile(p.UserPrompts.ParseResumeFile, scope+" user", "parseResume")
		validateFile(p.UserPrompts.OptimizeFile, scope+" user", "optimizeResume")
		validateFile(p.UserPrompts.ApplyFeedbackFile, scope+" user", "applyFeedback")
		validateFile(p.UserPrompts.ScoreATSFile, scope+" user", "scoreAts")
	}

	validateSet("global", &c.AI.CustomPrompts)
	validateSet("parse", &c.AI.Parse.CustomPrompts)
	validateSet("optimize", &c.AI.Optimize.CustomPrompts)
	validateSet("feedback", &c.AI.Feedback.CustomPrompts)
	validateSet("score", &c.AI.Score.CustomPrompts)

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}

	return nil
}

// logPromptLoadingSummary logs a summary of loaded prompts
func (c *Config) logPromptLoadingSummary() {
	count := 0
	sets := map[string]*OperationLoadedPrompts{
		"parse":    &loadedPrompts.Parse,
		"optimize": &loadedPrompts.Optimize,
		"feedback": &loadedPrompts.Feedback,
		"score":    &loadedPrompts.Score,
	}
	for name, set := range sets {
		for _, content := range []string{
			set.SystemPrompts.ParseResume, set.SystemPrompts.OptimizeResume,
			set.SystemPrompts.ApplyFeedback, set.SystemPrompts.ScoreATS,
			set.UserPrompts.ParseResume, set.UserPrompts.OptimizeResume,
			set.UserPrompts.ApplyFeedback, set.UserPrompts.ScoreATS,
		} {
			if content != "" {
				log.Printf("[CONFIG] Custom %s prompt loaded from file", name)
				count++
			}
		}
	}

	if count == 0 {
		log.Println("[CONFIG] No custom prompts loaded - using built-in defaults")
	} else {
		log.Printf("[CONFIG] Total custom prompts loaded: %d", count)
	}
}
