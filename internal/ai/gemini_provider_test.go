package ai

import (
	"errors"
	"strings"
	"testing"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain json untouched",
			input:    `{"contact":{"lines":["a"]}}`,
			expected: `{"contact":{"lines":["a"]}}`,
		},
		{
			name:     "json fence with language tag",
			input:    "```json\n{\"skills\":{\"lines\":[\"Go\"]}}\n```",
			expected: `{"skills":{"lines":["Go"]}}`,
		},
		{
			name:     "bare fence",
			input:    "```\n{\"a\":1}\n```",
			expected: `{"a":1}`,
		},
		{
			name:     "surrounding whitespace",
			input:    "  \n```json\n{\"a\":1}\n```\n  ",
			expected: `{"a":1}`,
		},
		{
			name:     "fence with no newline",
			input:    "```",
			expected: "",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stripCodeFences(tt.input)
			if got != tt.expected {
				t.Errorf("stripCodeFences(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseErrorCarriesRawText(t *testing.T) {
	raw := "I could not produce JSON, sorry."
	cause := errors.New("invalid character 'I'")
	parseErr := &ParseError{Operation: "parse_resume", Raw: raw, Err: cause}

	if parseErr.Raw != raw {
		t.Errorf("Expected raw text to be preserved, got %q", parseErr.Raw)
	}
	if !errors.Is(parseErr, cause) {
		t.Error("Expected ParseError to unwrap to its cause")
	}
	if !strings.Contains(parseErr.Error(), "parse_resume") {
		t.Errorf("Expected error message to name the operation, got %q", parseErr.Error())
	}
}

func TestResolvePromptPriority(t *testing.T) {
	tests := []struct {
		name       string
		fromFile   string
		fromConfig string
		expected   string
	}{
		{
			name:       "file wins over config and default",
			fromFile:   "file-prompt",
			fromConfig: "config-prompt",
			expected:   "file-prompt",
		},
		{
			name:       "config wins over default",
			fromConfig: "config-prompt",
			expected:   "config-prompt",
		},
		{
			name:     "default when nothing set",
			expected: "default-prompt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolvePrompt(tt.fromFile, tt.fromConfig, "default-prompt")
			if got != tt.expected {
				t.Errorf("resolvePrompt() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDefaultPromptsHavePlaceholders(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		slots  int
	}{
		{"parse user prompt", DefaultUserPrompts.ParseResume, 1},
		{"optimize user prompt", DefaultUserPrompts.OptimizeResume, 2},
		{"feedback user prompt", DefaultUserPrompts.ApplyFeedback, 3},
		{"score user prompt", DefaultUserPrompts.ScoreATS, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := strings.Count(tt.prompt, "%s"); got != tt.slots {
				t.Errorf("Expected %d format placeholders, got %d", tt.slots, got)
			}
		})
	}
}

func TestScorePromptRequestsFullReportTemplate(t *testing.T) {
	sections := []string{
		"score from 0 to 100",
		"Contact information",
		"Strengths",
		"Gaps",
		"Keyword matches",
		"Recommendations",
	}

	for _, section := range sections {
		if !strings.Contains(DefaultSystemPrompts.ScoreATS, section) {
			t.Errorf("Score system prompt missing report section %q", section)
		}
	}
}
