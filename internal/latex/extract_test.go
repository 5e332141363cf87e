package latex

import (
	"strings"
	"testing"
)

func TestExtractPlainText(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		contains    []string
		notContains []string
	}{
		{
			name:        "comments stripped",
			input:       "real text % a comment\nmore",
			contains:    []string{"real text", "more"},
			notContains: []string{"a comment"},
		},
		{
			name:        "structural commands stripped",
			input:       `\documentclass[11pt]{article}\usepackage{titlesec}\begin{document}hello\end{document}`,
			contains:    []string{"hello"},
			notContains: []string{"documentclass", "usepackage", "article", "titlesec"},
		},
		{
			name:     "resume subheading becomes pipe-delimited",
			input:    `\resumeSubheading{Software Engineer}{2020-2022}{Acme}{NYC}`,
			contains: []string{"Software Engineer | 2020-2022 | Acme | NYC"},
		},
		{
			name:     "project heading becomes pipe-delimited",
			input:    `\resumeProjectHeading{resutex}{2024}`,
			contains: []string{"resutex | 2024"},
		},
		{
			name:        "generic command keeps argument",
			input:       `\textbf{Lead Engineer} at \textit{Acme}`,
			contains:    []string{"Lead Engineer", "Acme"},
			notContains: []string{"textbf", "textit"},
		},
		{
			name:     "items become bullet glyphs",
			input:    "\\begin{itemize}\n\\item shipped v2\n\\item cut latency\n\\end{itemize}",
			contains: []string{"• shipped v2", "• cut latency"},
		},
		{
			name:        "escaped specials unescaped",
			input:       `R\&D with 40\% gains on \$2M`,
			contains:    []string{"R&D with 40% gains on $2M"},
			notContains: []string{`\&`, `\%`},
		},
		{
			name:     "nested commands unwrapped",
			input:    `\textbf{\textit{deeply}} nested`,
			contains: []string{"deeply", "nested"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractPlainText(tt.input)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("ExtractPlainText() = %q, missing %q", got, want)
				}
			}
			for _, reject := range tt.notContains {
				if strings.Contains(got, reject) {
					t.Errorf("ExtractPlainText() = %q, should not contain %q", got, reject)
				}
			}
		})
	}
}

func TestExtractPlainTextWhitespaceNormalized(t *testing.T) {
	input := "a    b\n\n\n\n\nc"
	got := ExtractPlainText(input)

	if strings.Contains(got, "  ") {
		t.Errorf("runs of spaces not collapsed: %q", got)
	}
	if strings.Contains(got, "\n\n\n") {
		t.Errorf("runs of blank lines not collapsed: %q", got)
	}
}
