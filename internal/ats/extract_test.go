package ats

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractTextFromLaTeX(t *testing.T) {
	source := Source{LaTeX: `\documentclass{article}
\begin{document}
\section{Skills}
Go, Python \& SQL
\end{document}`}

	text, err := ExtractText(source)
	if err != nil {
		t.Fatalf("Expected LaTeX extraction to succeed, got %v", err)
	}
	if !strings.Contains(text, "Go, Python & SQL") {
		t.Errorf("Expected unescaped skill text, got %q", text)
	}
	if strings.Contains(text, `\section`) {
		t.Errorf("Expected LaTeX commands to be stripped, got %q", text)
	}
}

func TestExtractTextEmptySource(t *testing.T) {
	_, err := ExtractText(Source{})
	if err == nil {
		t.Fatal("Expected error for empty source")
	}
}

func TestExtractTextWhitespaceLaTeX(t *testing.T) {
	_, err := ExtractText(Source{LaTeX: "   \n\t  "})
	if err == nil {
		t.Fatal("Expected error for whitespace-only LaTeX source")
	}
}

func TestExtractTextMalformedPDF(t *testing.T) {
	// Both extraction tiers must fail loudly; a garbage document never
	// yields a silent empty string.
	_, err := ExtractText(Source{PDF: []byte("this is not a pdf document at all")})
	if err == nil {
		t.Fatal("Expected error for malformed PDF bytes")
	}

	var extractErr *ExtractError
	if !errors.As(err, &extractErr) {
		t.Fatalf("Expected *ExtractError, got %T: %v", err, err)
	}
	if extractErr.Primary == nil {
		t.Error("Expected primary extraction error to be recorded")
	}
	if extractErr.Fallback == nil {
		t.Error("Expected fallback extraction error to be recorded")
	}
}

func TestExtractTextPDFPreferredOverLaTeX(t *testing.T) {
	// When both are set, PDF bytes win; malformed bytes therefore error
	// instead of falling back to the LaTeX text.
	_, err := ExtractText(Source{
		LaTeX: `\section{Skills} Go`,
		PDF:   []byte("garbage"),
	})
	if err == nil {
		t.Fatal("Expected PDF path to be taken and fail")
	}
}
