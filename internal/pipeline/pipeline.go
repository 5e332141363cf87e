// Package pipeline orchestrates the tailoring flow: parse, optimize, render,
// and the optional compile/score/feedback/export stages. Optional stage
// failures become warnings; only parse, optimize and the core render abort a
// run.
package pipeline

import (
	"context"
	"fmt"

	"resutex/internal/ai"
	"resutex/internal/ats"
	"resutex/internal/config"
	"resutex/internal/docx"
	resutexErrors "resutex/internal/errors"
	"resutex/internal/latex"
	"resutex/internal/types"
)

// Filename prefixes for exported artifacts.
const (
	FilenamePrefixTailored    = "tailored_resume"
	FilenamePrefixATSImproved = "ats_improved_resume"
)

// Compiler turns LaTeX source into PDF bytes.
type Compiler interface {
	Compile(ctx context.Context, texSource string) ([]byte, error)
}

// Providers groups the per-operation AI providers. Score and Feedback may be
// nil when their stages are disabled.
type Providers struct {
	Parse    ai.AIProvider
	Optimize ai.AIProvider
	Feedback ai.AIProvider
	Score    ai.AIProvider
}

// Pipeline runs tailoring, scoring and export flows. Stages read nothing
// ambient: configuration is fixed at construction.
type Pipeline struct {
	providers Providers
	compiler  Compiler
	features  config.FeatureConfig
	logger    *resutexErrors.Logger
}

// New creates a pipeline. compiler may be nil when PDF output is disabled.
func New(providers Providers, compiler Compiler, features config.FeatureConfig, logger *resutexErrors.Logger) *Pipeline {
	return &Pipeline{
		providers: providers,
		compiler:  compiler,
		features:  features,
		logger:    logger,
	}
}

// Tailor runs one full tailoring pass over a LaTeX resume.
func (p *Pipeline) Tailor(ctx context.Context, input types.TailorInput) (*types.TailorResult, error) {
	parsed, usage, err := p.providers.Parse.ParseResume(ctx, input.ResumeLaTeX)
	if err != nil {
		return nil, err
	}
	p.logTokens("parse", usage)

	optimized, usage, err := p.providers.Optimize.OptimizeResume(ctx, ai.OptimizeRequest{
		Resume:         parsed,
		JobDescription: input.JobDescription,
		ExtraContext:   input.ExtraContext,
		Constraints:    input.Constraints,
		SinglePage:     input.SinglePage || p.features.SinglePage,
	})
	if err != nil {
		return nil, err
	}
	p.logTokens("optimize", usage)

	result := &types.TailorResult{Resume: optimized}

	// The optimizer must return the same sections with the same entry
	// counts. A mismatched shape means content was invented or dropped, so
	// the pre-optimization resume stands.
	if p.features.StrictStructure && optimized.ShapeSignature() != parsed.ShapeSignature() {
		p.logger.Warn("Optimizer changed the resume structure, using pre-optimization content",
			"expected_shape", parsed.ShapeSignature(),
			"actual_shape", optimized.ShapeSignature())
		result.Resume = parsed
		result.UsedFallback = true
	}

	original := ""
	if input.PreserveTemplate || p.features.PreserveTemplate {
		original = input.ResumeLaTeX
	}

	tailored, err := latex.Render(result.Resume, original)
	if err != nil {
		return nil, err
	}
	result.TailoredLaTeX = tailored

	p.runOptionalStages(ctx, input, original, result)

	return result, nil
}

// runOptionalStages executes compile, ATS scoring, feedback application and
// DOCX export. Each failure is recorded as a warning; none aborts the run.
func (p *Pipeline) runOptionalStages(ctx context.Context, input types.TailorInput, original string, result *types.TailorResult) {
	if p.compiler != nil {
		pdf, err := p.compiler.Compile(ctx, result.TailoredLaTeX)
		if err != nil {
			p.warn(result, "compile", err)
		} else {
			result.PDF = pdf
		}
	}

	if p.features.ATSCheck && p.providers.Score != nil {
		p.runATSStages(ctx, input, original, result)
	}

	if p.features.DOCX {
		data, err := docx.Render(result.Resume)
		if err != nil {
			p.warn(result, "docx", err)
		} else {
			result.DOCX = data
		}
	}
}

// runATSStages scores the tailored resume and, when enabled, feeds the report
// back into a revision pass producing the ats_improved variant.
func (p *Pipeline) runATSStages(ctx context.Context, input types.TailorInput, original string, result *types.TailorResult) {
	plainText := latex.ExtractPlainText(result.TailoredLaTeX)

	report, usage, err := p.providers.Score.ScoreATS(ctx, plainText, input.JobDescription)
	if err != nil {
		p.warn(result, "ats_score", err)
		return
	}
	p.logTokens("score", usage)
	result.ATSReport = report

	if !p.features.ATSOptimize || p.providers.Feedback == nil {
		return
	}

	improved, usage, err := p.providers.Feedback.ApplyFeedback(ctx, ai.FeedbackRequest{
		Resume:         result.Resume,
		Feedback:       report,
		JobDescription: input.JobDescription,
	})
	if err != nil {
		p.warn(result, "ats_optimize", err)
		return
	}
	p.logTokens("feedback", usage)

	if p.features.StrictStructure && improved.ShapeSignature() != result.Resume.ShapeSignature() {
		p.warn(result, "ats_optimize", fmt.Errorf("revision changed the resume structure, keeping the tailored version"))
		return
	}

	improvedTex, err := latex.Render(improved, original)
	if err != nil {
		p.warn(result, "ats_optimize", err)
		return
	}

	result.Resume = improved
	result.ImprovedLaTeX = improvedTex
	result.AppliedChanges = true
}

// Score runs standalone ATS scoring on a LaTeX or PDF resume. The model's
// report is returned verbatim.
func (p *Pipeline) Score(ctx context.Context, source ats.Source, jobDescription string) (*types.ScoreResult, error) {
	if p.providers.Score == nil {
		return nil, resutexErrors.NewConfigError(resutexErrors.ErrCodeInvalidConfig,
			"Scoring requires an AI provider for the score operation", nil)
	}

	plainText, err := ats.ExtractText(source)
	if err != nil {
		return nil, resutexErrors.NewIOError(resutexErrors.ErrCodeExtractFailed,
			"Failed to extract resume text", err)
	}

	report, usage, err := p.providers.Score.ScoreATS(ctx, plainText, jobDescription)
	if err != nil {
		return nil, err
	}
	p.logTokens("score", usage)

	return &types.ScoreResult{Report: report, PlainText: plainText}, nil
}

// Export serializes a structured resume to one artifact. prefix selects the
// filename convention; empty means the tailored variant.
func (p *Pipeline) Export(ctx context.Context, resume *types.StructuredResume, format types.ExportFormat, prefix string) (*types.ExportResult, error) {
	if prefix == "" {
		prefix = FilenamePrefixTailored
	}

	switch format {
	case types.ExportLaTeX:
		tex, err := latex.Render(resume, "")
		if err != nil {
			return nil, err
		}
		return &types.ExportResult{Format: format, Filename: prefix + ".tex", Data: []byte(tex)}, nil

	case types.ExportDOCX:
		data, err := docx.Render(resume)
		if err != nil {
			return nil, err
		}
		return &types.ExportResult{Format: format, Filename: prefix + ".docx", Data: data}, nil

	case types.ExportPDF:
		if p.compiler == nil {
			return nil, resutexErrors.NewConfigError(resutexErrors.ErrCodeInvalidConfig,
				"PDF export requires compilation to be enabled", nil)
		}
		tex, err := latex.Render(resume, "")
		if err != nil {
			return nil, err
		}
		pdf, err := p.compiler.Compile(ctx, tex)
		if err != nil {
			return nil, err
		}
		return &types.ExportResult{Format: format, Filename: prefix + ".pdf", Data: pdf}, nil

	default:
		return nil, resutexErrors.NewValidationError(resutexErrors.ErrCodeInvalidRequest,
			fmt.Sprintf("Unsupported export format: %s", format), nil)
	}
}

func (p *Pipeline) warn(result *types.TailorResult, stage string, err error) {
	p.logger.Warn("Optional pipeline stage failed",
		"stage", stage,
		"error", err.Error())
	result.Warnings = append(result.Warnings, types.StageWarning{
		Stage:   stage,
		Message: err.Error(),
	})
}

func (p *Pipeline) logTokens(operation string, usage *ai.TokenUsage) {
	if usage == nil {
		return
	}
	p.logger.Debug("AI operation token usage",
		"operation", operation,
		"input_tokens", usage.InputTokens,
		"output_tokens", usage.OutputTokens,
		"total_tokens", usage.TotalTokens)
}
