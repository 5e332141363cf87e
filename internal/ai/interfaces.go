package ai

import (
	"context"
	"fmt"

	"resutex/internal/types"
)

// AIProvider interface for different AI implementations
// All methods return token usage information - callers can ignore it if not needed
type AIProvider interface {
	ParseResume(ctx context.Context, latexSource string) (*types.StructuredResume, *TokenUsage, error)
	OptimizeResume(ctx context.Context, req OptimizeRequest) (*types.StructuredResume, *TokenUsage, error)
	ApplyFeedback(ctx context.Context, req FeedbackRequest) (*types.StructuredResume, *TokenUsage, error)
	ScoreATS(ctx context.Context, resumeText, jobDescription string) (string, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// OptimizeRequest carries the inputs for one content optimization call.
type OptimizeRequest struct {
	Resume         *types.StructuredResume
	JobDescription string
	ExtraContext   string
	Constraints    types.SectionConstraints
	SinglePage     bool
}

// FeedbackRequest carries the inputs for one feedback application call.
type FeedbackRequest struct {
	Resume         *types.StructuredResume
	Feedback       string
	JobDescription string
}

// ParseError reports that a model response could not be decoded as the
// expected JSON. Raw carries the full response text so callers can log or
// surface it for debugging.
type ParseError struct {
	Operation string
	Raw       string
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s response: %v", e.Operation, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
