package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"resutex/internal/ai"
	"resutex/internal/types"
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
	registry.RegisterFormatter("text", "TailorResult", &TailorTextFormatter{})
	registry.RegisterFormatter("markdown", "TailorResult", &TailorMarkdownFormatter{})
	registry.RegisterFormatter("text", "ScoreResult", &ScoreTextFormatter{})
	registry.RegisterFormatter("markdown", "ScoreResult", &ScoreMarkdownFormatter{})
	registry.RegisterFormatter("text", "ModelInfo", &ModelInfoTextFormatter{})
	registry.RegisterFormatter("markdown", "ModelInfo", &ModelInfoMarkdownFormatter{})

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
	case *types.TailorResult:
		return "TailorResult"
	case *types.ScoreResult:
		return "ScoreResult"
	case *ai.ModelInfo:
		return "ModelInfo"
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

// TailorTextFormatter handles text formatting for tailoring results
type TailorTextFormatter struct{}

func (ttf *TailorTextFormatter) Format(data any) (string, error) {
	result, ok := data.(*types.TailorResult)
	if !ok {
		return "", fmt.Errorf("expected *TailorResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== TAILORED RESUME (LaTeX) ===\n\n")
	output.WriteString(result.TailoredLaTeX)
	output.WriteString("\n")

	if result.UsedFallback {
		output.WriteString("\nNote: the optimized revision changed the resume structure and was discarded; the parsed resume was used instead.\n")
	}

	if result.ATSReport != "" {
		output.WriteString("\n=== ATS REPORT ===\n\n")
		output.WriteString(result.ATSReport)
		output.WriteString("\n")
	}

	if result.AppliedChanges && result.ImprovedLaTeX != "" {
		output.WriteString("\n=== ATS-IMPROVED RESUME (LaTeX) ===\n\n")
		output.WriteString(result.ImprovedLaTeX)
		output.WriteString("\n")
	}

	if len(result.Warnings) > 0 {
		output.WriteString("\n=== WARNINGS ===\n")
		for _, warning := range result.Warnings {
			output.WriteString(fmt.Sprintf("- [%s] %s\n", warning.Stage, warning.Message))
		}
	}

	return output.String(), nil
}

func (ttf *TailorTextFormatter) SupportedType() string {
	return "TailorResult"
}

// TailorMarkdownFormatter handles markdown formatting for tailoring results
type TailorMarkdownFormatter struct{}

func (tmf *TailorMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(*types.TailorResult)
	if !ok {
		return "", fmt.Errorf("expected *TailorResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Tailored Resume\n\n")
	output.WriteString("```latex\n")
	output.WriteString(result.TailoredLaTeX)
	output.WriteString("\n```\n")

	if result.UsedFallback {
		output.WriteString("\n> The optimized revision changed the resume structure and was discarded; the parsed resume was used instead.\n")
	}

	if result.ATSReport != "" {
		output.WriteString("\n## ATS Report\n\n")
		output.WriteString(result.ATSReport)
		output.WriteString("\n")
	}

	if result.AppliedChanges && result.ImprovedLaTeX != "" {
		output.WriteString("\n## ATS-Improved Resume\n\n")
		output.WriteString("```latex\n")
		output.WriteString(result.ImprovedLaTeX)
		output.WriteString("\n```\n")
	}

	if len(result.Warnings) > 0 {
		output.WriteString("\n## Warnings\n\n")
		for _, warning := range result.Warnings {
			output.WriteString(fmt.Sprintf("- **%s:** %s\n", warning.Stage, warning.Message))
		}
	}

	return output.String(), nil
}

func (tmf *TailorMarkdownFormatter) SupportedType() string {
	return "TailorResult"
}

// ScoreTextFormatter handles text formatting for ATS scoring results. The
// report is model text and is passed through untouched.
type ScoreTextFormatter struct{}

func (stf *ScoreTextFormatter) Format(data any) (string, error) {
	result, ok := data.(*types.ScoreResult)
	if !ok {
		return "", fmt.Errorf("expected *ScoreResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== ATS REPORT ===\n\n")
	output.WriteString(result.Report)
	output.WriteString("\n")

	return output.String(), nil
}

func (stf *ScoreTextFormatter) SupportedType() string {
	return "ScoreResult"
}

// ScoreMarkdownFormatter handles markdown formatting for ATS scoring results
type ScoreMarkdownFormatter struct{}

func (smf *ScoreMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(*types.ScoreResult)
	if !ok {
		return "", fmt.Errorf("expected *ScoreResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# ATS Report\n\n")
	output.WriteString(result.Report)
	output.WriteString("\n")

	return output.String(), nil
}

func (smf *ScoreMarkdownFormatter) SupportedType() string {
	return "ScoreResult"
}

// ModelInfoTextFormatter handles text formatting for model availability checks
type ModelInfoTextFormatter struct{}

func (mtf *ModelInfoTextFormatter) Format(data any) (string, error) {
	info, ok := data.(*ai.ModelInfo)
	if !ok {
		return "", fmt.Errorf("expected *ModelInfo, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== MODEL INFO ===\n")
	output.WriteString(fmt.Sprintf("Name: %s\n", info.Name))
	if info.DisplayName != "" {
		output.WriteString(fmt.Sprintf("Display Name: %s\n", info.DisplayName))
	}
	if info.Version != "" {
		output.WriteString(fmt.Sprintf("Version: %s\n", info.Version))
	}
	output.WriteString(fmt.Sprintf("Available: %t\n", info.Available))
	if info.Error != "" {
		output.WriteString(fmt.Sprintf("Error: %s\n", info.Error))
	}

	return output.String(), nil
}

func (mtf *ModelInfoTextFormatter) SupportedType() string {
	return "ModelInfo"
}

// ModelInfoMarkdownFormatter handles markdown formatting for model availability checks
type ModelInfoMarkdownFormatter struct{}

func (mmf *ModelInfoMarkdownFormatter) Format(data any) (string, error) {
	info, ok := data.(*ai.ModelInfo)
	if !ok {
		return "", fmt.Errorf("expected *ModelInfo, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Model Info\n\n")
	output.WriteString(fmt.Sprintf("**Name:** %s\n\n", info.Name))
	if info.DisplayName != "" {
		output.WriteString(fmt.Sprintf("**Display Name:** %s\n\n", info.DisplayName))
	}
	if info.Version != "" {
		output.WriteString(fmt.Sprintf("**Version:** %s\n\n", info.Version))
	}
	output.WriteString(fmt.Sprintf("**Available:** %t\n", info.Available))
	if info.Error != "" {
		output.WriteString(fmt.Sprintf("\n**Error:** %s\n", info.Error))
	}

	return output.String(), nil
}

func (mmf *ModelInfoMarkdownFormatter) SupportedType() string {
	return "ModelInfo"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
