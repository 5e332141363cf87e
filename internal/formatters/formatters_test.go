package formatters

import (
	"strings"
	"testing"

	"resutex/internal/ai"
	"resutex/internal/types"
)

func TestFormatTailorResultText(t *testing.T) {
	result := &types.TailorResult{
		TailoredLaTeX: "\\documentclass{article}",
		ATSReport:     "Score: 82/100",
		UsedFallback:  true,
		Warnings: []types.StageWarning{
			{Stage: "compile", Message: "no engine available"},
		},
	}

	output, err := GlobalRegistry.Format(result, "text")
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	for _, want := range []string{
		"=== TAILORED RESUME (LaTeX) ===",
		"\\documentclass{article}",
		"Score: 82/100",
		"changed the resume structure",
		"[compile] no engine available",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("text output missing %q:\n%s", want, output)
		}
	}
}

func TestFormatScoreResultPassesReportThrough(t *testing.T) {
	report := "Score: 71/100\n\nStrengths:\n- keywords"
	result := &types.ScoreResult{Report: report}

	for _, format := range []string{"text", "markdown"} {
		output, err := GlobalRegistry.Format(result, format)
		if err != nil {
			t.Fatalf("Format(%s) error = %v", format, err)
		}
		if !strings.Contains(output, report) {
			t.Errorf("%s output does not contain the verbatim report:\n%s", format, output)
		}
	}
}

func TestFormatModelInfo(t *testing.T) {
	info := &ai.ModelInfo{Name: "gemini-2.5-flash", Available: true}

	output, err := GlobalRegistry.Format(info, "text")
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(output, "gemini-2.5-flash") || !strings.Contains(output, "Available: true") {
		t.Errorf("unexpected model info output:\n%s", output)
	}
}

func TestFormatJSONFallbackForUnknownType(t *testing.T) {
	output, err := GlobalRegistry.Format(map[string]string{"key": "value"}, "json")
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(output, `"key": "value"`) {
		t.Errorf("unexpected JSON output: %s", output)
	}
}

func TestFormatUnknownFormat(t *testing.T) {
	if _, err := GlobalRegistry.Format(&types.ScoreResult{}, "yaml"); err == nil {
		t.Fatal("expected an error for unsupported format")
	}
}
