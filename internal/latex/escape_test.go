package latex

import (
	"strings"
	"testing"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string unchanged",
			input:    "",
			expected: "",
		},
		{
			name:     "plain text unchanged",
			input:    "Senior Software Engineer",
			expected: "Senior Software Engineer",
		},
		{
			name:     "ampersand escaped",
			input:    "R&D team",
			expected: `R\&D team`,
		},
		{
			name:     "percent escaped",
			input:    "cut latency by 40%",
			expected: `cut latency by 40\%`,
		},
		{
			name:     "dollar and hash escaped",
			input:    "$2M budget, #1 ranked",
			expected: `\$2M budget, \#1 ranked`,
		},
		{
			name:     "underscore escaped",
			input:    "ops_pipeline module",
			expected: `ops\_pipeline module`,
		},
		{
			name:     "braces escaped",
			input:    "set {a, b}",
			expected: `set \{a, b\}`,
		},
		{
			name:     "caret and tilde escaped",
			input:    "x^2 ~approx",
			expected: `x\^{}2 \~{}approx`,
		},
		{
			name:     "already escaped symbol untouched",
			input:    `R\&D`,
			expected: `R\&D`,
		},
		{
			name:     "allowed command kept with braces",
			input:    `\textbf{Lead} engineer`,
			expected: `\textbf{Lead} engineer`,
		},
		{
			name:     "allowed command content still escaped",
			input:    `\textit{50% faster}`,
			expected: `\textit{50\% faster}`,
		},
		{
			name:     "hfill kept",
			input:    `Acme \hfill 2020`,
			expected: `Acme \hfill 2020`,
		},
		{
			name:     "disallowed command stripped",
			input:    `\input{/etc/passwd} data`,
			expected: `\{/etc/passwd\} data`,
		},
		{
			name:     "hallucinated command stripped keeps text",
			input:    `used \frobnicate tooling`,
			expected: `used  tooling`,
		},
		{
			name:     "lone backslash escaped",
			input:    `a \ b`,
			expected: `a \textbackslash{} b`,
		},
		{
			name:     "trailing backslash escaped",
			input:    `path\`,
			expected: `path\textbackslash{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Escape(tt.input)
			if got != tt.expected {
				t.Errorf("Escape(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEscapeNoUnescapedSpecials(t *testing.T) {
	input := `& % $ # _ { } ^ ~ all together & again`
	got := Escape(input)

	for i := 0; i < len(got); i++ {
		switch got[i] {
		case '&', '%', '$', '#', '_':
			if i == 0 || got[i-1] != '\\' {
				t.Errorf("unescaped %q at offset %d in %q", got[i], i, got)
			}
		}
	}
	if strings.Contains(got, "^2") || strings.Contains(got, "~a") {
		t.Errorf("caret/tilde escaped incorrectly in %q", got)
	}
}

func BenchmarkEscape(b *testing.B) {
	input := strings.Repeat("Improved R&D throughput by 40% using ops_pipeline & $2M budget. ", 20)
	for b.Loop() {
		Escape(input)
	}
}
