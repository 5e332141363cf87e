package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"resutex/internal/ai"
	"resutex/internal/ats"
	"resutex/internal/config"
	"resutex/internal/errors"
	"resutex/internal/types"
)

var testLogger = errors.NewLogger(slog.LevelError)

const sampleLaTeX = `\documentclass{article}
\begin{document}
\section{Experience}
old body
\section{Skills}
old skills
\end{document}`

func sampleParsed() *types.StructuredResume {
	return &types.StructuredResume{
		Experience: &types.ResumeSection{
			Title: "Experience",
			Subsections: []types.SubsectionEntry{
				{Heading: "Engineer", Organization: "Acme", Date: "2020 - 2024", Bullets: []string{"built things"}},
				{Heading: "Junior Engineer", Organization: "Initech", Date: "2018 - 2020", Bullets: []string{"fixed things"}},
			},
		},
		Skills: &types.ResumeSection{Title: "Skills", Lines: []string{"Go, SQL"}},
	}
}

// stubProvider is a scriptable AIProvider for pipeline tests.
type stubProvider struct {
	parseResult    *types.StructuredResume
	parseErr       error
	optimizeResult *types.StructuredResume
	optimizeErr    error
	feedbackResult *types.StructuredResume
	feedbackErr    error
	scoreReport    string
	scoreErr       error

	parseCalls    int
	optimizeCalls int
	feedbackCalls int
	scoreCalls    int
}

func (s *stubProvider) ParseResume(ctx context.Context, latexSource string) (*types.StructuredResume, *ai.TokenUsage, error) {
	s.parseCalls++
	if s.parseErr != nil {
		return nil, nil, s.parseErr
	}
	return s.parseResult, nil, nil
}

func (s *stubProvider) OptimizeResume(ctx context.Context, req ai.OptimizeRequest) (*types.StructuredResume, *ai.TokenUsage, error) {
	s.optimizeCalls++
	if s.optimizeErr != nil {
		return nil, nil, s.optimizeErr
	}
	return s.optimizeResult, nil, nil
}

func (s *stubProvider) ApplyFeedback(ctx context.Context, req ai.FeedbackRequest) (*types.StructuredResume, *ai.TokenUsage, error) {
	s.feedbackCalls++
	if s.feedbackErr != nil {
		return nil, nil, s.feedbackErr
	}
	return s.feedbackResult, nil, nil
}

func (s *stubProvider) ScoreATS(ctx context.Context, resumeText, jobDescription string) (string, *ai.TokenUsage, error) {
	s.scoreCalls++
	if s.scoreErr != nil {
		return "", nil, s.scoreErr
	}
	return s.scoreReport, nil, nil
}

func (s *stubProvider) GetModelInfo(ctx context.Context) *ai.ModelInfo {
	return &ai.ModelInfo{Name: "stub", Available: true}
}

func (s *stubProvider) Close() error { return nil }

// stubCompiler returns canned PDF bytes or an error.
type stubCompiler struct {
	pdf   []byte
	err   error
	calls int
}

func (s *stubCompiler) Compile(ctx context.Context, texSource string) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.pdf, nil
}

func defaultFeatures() config.FeatureConfig {
	return config.FeatureConfig{
		StrictStructure: true,
		ATSCheck:        true,
		ATSOptimize:     false,
		DOCX:            false,
	}
}

func newTestPipeline(stub *stubProvider, compiler Compiler, features config.FeatureConfig) *Pipeline {
	return New(Providers{
		Parse:    stub,
		Optimize: stub,
		Feedback: stub,
		Score:    stub,
	}, compiler, features, testLogger)
}

func TestTailorHappyPath(t *testing.T) {
	parsed := sampleParsed()
	optimized := parsed.Clone()
	optimized.Experience.Subsections[0].Bullets = []string{"built Go services matching the role"}

	stub := &stubProvider{
		parseResult:    parsed,
		optimizeResult: optimized,
		scoreReport:    "Score: 85/100\nStrengths: Go",
	}

	p := newTestPipeline(stub, nil, defaultFeatures())
	result, err := p.Tailor(context.Background(), types.TailorInput{
		ResumeLaTeX:    sampleLaTeX,
		JobDescription: "Go engineer",
	})
	if err != nil {
		t.Fatalf("Expected tailoring to succeed, got %v", err)
	}

	if result.UsedFallback {
		t.Error("Expected optimized output to be accepted")
	}
	if !strings.Contains(result.TailoredLaTeX, "built Go services matching the role") {
		t.Error("Expected optimized bullet in rendered LaTeX")
	}
	if result.ATSReport != "Score: 85/100\nStrengths: Go" {
		t.Errorf("Expected ATS report verbatim, got %q", result.ATSReport)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", result.Warnings)
	}

	// Each AI operation runs exactly once.
	if stub.parseCalls != 1 || stub.optimizeCalls != 1 || stub.scoreCalls != 1 {
		t.Errorf("Expected one call per operation, got parse=%d optimize=%d score=%d",
			stub.parseCalls, stub.optimizeCalls, stub.scoreCalls)
	}
}

func TestTailorShapeMismatchFallsBack(t *testing.T) {
	parsed := sampleParsed()

	// Optimizer drops one experience entry: structural invariance broken.
	mutated := parsed.Clone()
	mutated.Experience.Subsections = mutated.Experience.Subsections[:1]

	stub := &stubProvider{
		parseResult:    parsed,
		optimizeResult: mutated,
		scoreReport:    "report",
	}

	p := newTestPipeline(stub, nil, defaultFeatures())
	result, err := p.Tailor(context.Background(), types.TailorInput{
		ResumeLaTeX:    sampleLaTeX,
		JobDescription: "Go engineer",
	})
	if err != nil {
		t.Fatalf("Expected tailoring to succeed via fallback, got %v", err)
	}

	if !result.UsedFallback {
		t.Error("Expected fallback to pre-optimization content")
	}
	if !strings.Contains(result.TailoredLaTeX, "Junior Engineer") {
		t.Error("Expected pre-optimization entry to survive in rendered output")
	}
}

func TestTailorShapeMismatchAcceptedWhenLenient(t *testing.T) {
	parsed := sampleParsed()
	mutated := parsed.Clone()
	mutated.Experience.Subsections = mutated.Experience.Subsections[:1]

	stub := &stubProvider{parseResult: parsed, optimizeResult: mutated, scoreReport: "r"}

	features := defaultFeatures()
	features.StrictStructure = false

	p := newTestPipeline(stub, nil, features)
	result, err := p.Tailor(context.Background(), types.TailorInput{ResumeLaTeX: sampleLaTeX, JobDescription: "jd"})
	if err != nil {
		t.Fatalf("Expected tailoring to succeed, got %v", err)
	}
	if result.UsedFallback {
		t.Error("Expected mutated structure to be accepted without strict checking")
	}
}

func TestTailorParseFailureAborts(t *testing.T) {
	stub := &stubProvider{parseErr: fmt.Errorf("model unavailable")}

	p := newTestPipeline(stub, nil, defaultFeatures())
	_, err := p.Tailor(context.Background(), types.TailorInput{ResumeLaTeX: sampleLaTeX, JobDescription: "jd"})
	if err == nil {
		t.Fatal("Expected parse failure to abort the run")
	}
	if stub.optimizeCalls != 0 {
		t.Error("Expected no optimize call after parse failure")
	}
}

func TestTailorCompileFailureIsWarning(t *testing.T) {
	parsed := sampleParsed()
	stub := &stubProvider{parseResult: parsed, optimizeResult: parsed.Clone(), scoreReport: "r"}
	compiler := &stubCompiler{err: fmt.Errorf("remote compilation failed")}

	p := newTestPipeline(stub, compiler, defaultFeatures())
	result, err := p.Tailor(context.Background(), types.TailorInput{ResumeLaTeX: sampleLaTeX, JobDescription: "jd"})
	if err != nil {
		t.Fatalf("Expected core result to stand despite compile failure, got %v", err)
	}

	if result.TailoredLaTeX == "" {
		t.Error("Expected LaTeX result despite compile failure")
	}
	if len(result.PDF) != 0 {
		t.Error("Expected no PDF bytes on compile failure")
	}

	found := false
	for _, w := range result.Warnings {
		if w.Stage == "compile" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected a compile warning, got %v", result.Warnings)
	}
}

func TestTailorScoreFailureIsWarning(t *testing.T) {
	parsed := sampleParsed()
	stub := &stubProvider{parseResult: parsed, optimizeResult: parsed.Clone(), scoreErr: fmt.Errorf("quota exceeded")}

	p := newTestPipeline(stub, nil, defaultFeatures())
	result, err := p.Tailor(context.Background(), types.TailorInput{ResumeLaTeX: sampleLaTeX, JobDescription: "jd"})
	if err != nil {
		t.Fatalf("Expected core result to stand despite score failure, got %v", err)
	}
	if result.ATSReport != "" {
		t.Error("Expected empty ATS report on score failure")
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Stage != "ats_score" {
		t.Errorf("Expected one ats_score warning, got %v", result.Warnings)
	}
}

func TestTailorFeedbackProducesImprovedVariant(t *testing.T) {
	parsed := sampleParsed()
	improved := parsed.Clone()
	improved.Skills.Lines = []string{"Go, SQL, Kubernetes"}

	stub := &stubProvider{
		parseResult:    parsed,
		optimizeResult: parsed.Clone(),
		feedbackResult: improved,
		scoreReport:    "add kubernetes",
	}

	features := defaultFeatures()
	features.ATSOptimize = true

	p := newTestPipeline(stub, nil, features)
	result, err := p.Tailor(context.Background(), types.TailorInput{ResumeLaTeX: sampleLaTeX, JobDescription: "jd"})
	if err != nil {
		t.Fatalf("Expected tailoring to succeed, got %v", err)
	}

	if !result.AppliedChanges {
		t.Error("Expected feedback changes to be applied")
	}
	if !strings.Contains(result.ImprovedLaTeX, "Kubernetes") {
		t.Error("Expected improved LaTeX to contain revised skills")
	}
	if stub.feedbackCalls != 1 {
		t.Errorf("Expected exactly one feedback call, got %d", stub.feedbackCalls)
	}
}

func TestTailorFeedbackShapeMismatchKeepsTailored(t *testing.T) {
	parsed := sampleParsed()
	broken := parsed.Clone()
	broken.Skills = nil

	stub := &stubProvider{
		parseResult:    parsed,
		optimizeResult: parsed.Clone(),
		feedbackResult: broken,
		scoreReport:    "report",
	}

	features := defaultFeatures()
	features.ATSOptimize = true

	p := newTestPipeline(stub, nil, features)
	result, err := p.Tailor(context.Background(), types.TailorInput{ResumeLaTeX: sampleLaTeX, JobDescription: "jd"})
	if err != nil {
		t.Fatalf("Expected tailoring to succeed, got %v", err)
	}

	if result.AppliedChanges {
		t.Error("Expected structural mismatch to reject the revision")
	}
	if result.ImprovedLaTeX != "" {
		t.Error("Expected no improved variant after rejected revision")
	}
}

func TestTailorDocxStage(t *testing.T) {
	parsed := sampleParsed()
	stub := &stubProvider{parseResult: parsed, optimizeResult: parsed.Clone(), scoreReport: "r"}

	features := defaultFeatures()
	features.DOCX = true

	p := newTestPipeline(stub, nil, features)
	result, err := p.Tailor(context.Background(), types.TailorInput{ResumeLaTeX: sampleLaTeX, JobDescription: "jd"})
	if err != nil {
		t.Fatalf("Expected tailoring to succeed, got %v", err)
	}
	if len(result.DOCX) == 0 {
		t.Error("Expected DOCX bytes")
	}
}

func TestTailorPreserveModeKeepsOriginalPreamble(t *testing.T) {
	parsed := sampleParsed()
	stub := &stubProvider{parseResult: parsed, optimizeResult: parsed.Clone(), scoreReport: "r"}

	p := newTestPipeline(stub, nil, defaultFeatures())
	result, err := p.Tailor(context.Background(), types.TailorInput{
		ResumeLaTeX:      sampleLaTeX,
		JobDescription:   "jd",
		PreserveTemplate: true,
	})
	if err != nil {
		t.Fatalf("Expected tailoring to succeed, got %v", err)
	}

	if !strings.Contains(result.TailoredLaTeX, `\documentclass{article}`) {
		t.Error("Expected original preamble to be preserved")
	}
	if strings.Contains(result.TailoredLaTeX, "old body") {
		t.Error("Expected original experience body to be replaced")
	}
}

func TestScoreStandalone(t *testing.T) {
	stub := &stubProvider{scoreReport: "Overall: 72/100"}

	p := newTestPipeline(stub, nil, defaultFeatures())
	result, err := p.Score(context.Background(), ats.Source{LaTeX: sampleLaTeX}, "Go engineer")
	if err != nil {
		t.Fatalf("Expected scoring to succeed, got %v", err)
	}

	if result.Report != "Overall: 72/100" {
		t.Errorf("Expected report verbatim, got %q", result.Report)
	}
	if result.PlainText == "" {
		t.Error("Expected extracted plain text in result")
	}
	if stub.scoreCalls != 1 {
		t.Errorf("Expected exactly one score call, got %d", stub.scoreCalls)
	}
}

func TestScoreWithoutProviderReturnsError(t *testing.T) {
	p := New(Providers{}, nil, defaultFeatures(), testLogger)

	_, err := p.Score(context.Background(), ats.Source{LaTeX: sampleLaTeX}, "Go engineer")
	if err == nil {
		t.Fatal("Expected an error when no score provider is configured")
	}

	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) || appErr.Code != errors.ErrCodeInvalidConfig {
		t.Errorf("Expected %s error, got %v", errors.ErrCodeInvalidConfig, err)
	}
}

func TestExportFilenames(t *testing.T) {
	p := newTestPipeline(&stubProvider{}, &stubCompiler{pdf: []byte("%PDF-1.4")}, defaultFeatures())
	resume := sampleParsed()

	tests := []struct {
		format   types.ExportFormat
		prefix   string
		filename string
	}{
		{types.ExportLaTeX, "", "tailored_resume.tex"},
		{types.ExportDOCX, "", "tailored_resume.docx"},
		{types.ExportPDF, "", "tailored_resume.pdf"},
		{types.ExportLaTeX, FilenamePrefixATSImproved, "ats_improved_resume.tex"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			result, err := p.Export(context.Background(), resume, tt.format, tt.prefix)
			if err != nil {
				t.Fatalf("Expected export to succeed, got %v", err)
			}
			if result.Filename != tt.filename {
				t.Errorf("Expected filename %q, got %q", tt.filename, result.Filename)
			}
			if len(result.Data) == 0 {
				t.Error("Expected artifact data")
			}
		})
	}
}

func TestExportPDFWithoutCompiler(t *testing.T) {
	p := newTestPipeline(&stubProvider{}, nil, defaultFeatures())
	_, err := p.Export(context.Background(), sampleParsed(), types.ExportPDF, "")
	if err == nil {
		t.Fatal("Expected PDF export to fail without a compiler")
	}
}

func TestExportUnknownFormat(t *testing.T) {
	p := newTestPipeline(&stubProvider{}, nil, defaultFeatures())
	_, err := p.Export(context.Background(), sampleParsed(), types.ExportFormat("xml"), "")
	if err == nil {
		t.Fatal("Expected unknown format to be rejected")
	}
}
