// Package ats prepares resume text for ATS compatibility scoring.
package ats

import (
	"bytes"
	"fmt"
	"strings"

	dslipakpdf "github.com/dslipak/pdf"
	ledongthucpdf "github.com/ledongthuc/pdf"

	"resutex/internal/latex"
)

// Source is one resume document to extract text from: either LaTeX source or
// raw PDF bytes. Exactly one should be set.
type Source struct {
	LaTeX string
	PDF   []byte
}

// ExtractError reports that both PDF extraction tiers failed. It is always
// explicit: extraction never degrades to a silent empty string.
type ExtractError struct {
	Primary  error
	Fallback error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("PDF text extraction failed: primary: %v; fallback: %v", e.Primary, e.Fallback)
}

// ExtractText returns the plain text of a resume document.
func ExtractText(source Source) (string, error) {
	if len(source.PDF) > 0 {
		return extractPDFText(source.PDF)
	}
	if strings.TrimSpace(source.LaTeX) != "" {
		return latex.ExtractPlainText(source.LaTeX), nil
	}
	return "", fmt.Errorf("no resume source provided")
}

// extractPDFText runs the two-tier PDF extraction: ledongthuc/pdf first,
// dslipak/pdf when the primary errors or comes back empty.
func extractPDFText(data []byte) (string, error) {
	text, primaryErr := extractWithLedongthuc(data)
	if primaryErr == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}
	if primaryErr == nil {
		primaryErr = fmt.Errorf("extracted text is empty")
	}

	text, fallbackErr := extractWithDslipak(data)
	if fallbackErr == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}
	if fallbackErr == nil {
		fallbackErr = fmt.Errorf("extracted text is empty")
	}

	return "", &ExtractError{Primary: primaryErr, Fallback: fallbackErr}
}

func extractWithLedongthuc(data []byte) (text string, err error) {
	// The reader panics on some malformed documents; recover so the
	// fallback tier still gets its chance.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reader panic: %v", r)
		}
	}()

	reader, err := ledongthucpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(textReader); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func extractWithDslipak(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reader panic: %v", r)
		}
	}()

	reader, err := dslipakpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}
