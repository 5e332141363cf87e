package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"resutex/internal/ai"
	"resutex/internal/ats"
	"resutex/internal/compile"
	"resutex/internal/config"
	"resutex/internal/observability"
	"resutex/internal/pipeline"
	"resutex/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

// newOperationProvider creates the AI provider for one operation.
func (s *Server) newOperationProvider(opCfg config.OperationAIConfig, operation string) (ai.AIProvider, error) {
	service, err := ai.NewService(&opCfg, operation, s.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s AI service: %w", operation, err)
	}
	return service.Provider, nil
}

// buildPipeline assembles a pipeline for one request, creating only the
// providers the endpoint needs.
func (s *Server) buildPipeline(parse, optimize, feedback, score bool) (*pipeline.Pipeline, error) {
	var providers pipeline.Providers
	var err error

	if parse {
		if providers.Parse, err = s.newOperationProvider(s.AppConfig.GetParseConfig(), "parse"); err != nil {
			return nil, err
		}
	}
	if optimize {
		if providers.Optimize, err = s.newOperationProvider(s.AppConfig.GetOptimizeConfig(), "optimize"); err != nil {
			return nil, err
		}
	}
	if feedback {
		if providers.Feedback, err = s.newOperationProvider(s.AppConfig.GetFeedbackConfig(), "feedback"); err != nil {
			return nil, err
		}
	}
	if score {
		if providers.Score, err = s.newOperationProvider(s.AppConfig.GetScoreConfig(), "score"); err != nil {
			return nil, err
		}
	}

	var compiler pipeline.Compiler
	if s.AppConfig.Compile.Enabled {
		compiler = compile.NewCompiler(s.AppConfig.Compile, s.Logger)
	}

	return pipeline.New(providers, compiler, s.AppConfig.Features, s.Logger), nil
}

// createTailorHandler wraps the tailor handler with observability
func (s *Server) createTailorHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resutex.api")
		ctx, span := tracer.Start(ctx, "api.tailor")
		defer span.End()

		// Parse request
		var req TailorRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		// Validation
		if strings.TrimSpace(req.ResumeLaTeX) == "" {
			err := fmt.Errorf("missing resume")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing resume", "resumeLatex field is required", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.JobDescription) == "" {
			err := fmt.Errorf("missing job description")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing job description", "jobDescription field is required", http.StatusBadRequest)
			return
		}

		// Size validation
		if len(req.ResumeLaTeX) > int(s.MaxRequestSize/2) {
			err := fmt.Errorf("resume too large: %d chars", len(req.ResumeLaTeX))
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Resume too large", fmt.Sprintf("resumeLatex exceeds recommended size limit of %d characters", s.MaxRequestSize/2), http.StatusBadRequest)
			return
		}
		if len(req.JobDescription) > int(s.MaxRequestSize/2) {
			err := fmt.Errorf("job description too large: %d chars", len(req.JobDescription))
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Job description too large", fmt.Sprintf("jobDescription exceeds recommended size limit of %d characters", s.MaxRequestSize/2), http.StatusBadRequest)
			return
		}

		// Add request attributes to span
		span.SetAttributes(
			attribute.Int("request.resume_length", len(req.ResumeLaTeX)),
			attribute.Int("request.job_length", len(req.JobDescription)),
			attribute.String("operation", "tailor"),
		)

		input := types.TailorInput{
			ResumeLaTeX:      req.ResumeLaTeX,
			JobDescription:   req.JobDescription,
			ExtraContext:     req.ExtraContext,
			Constraints:      req.Constraints,
			PreserveTemplate: req.PreserveTemplate,
			SinglePage:       req.SinglePage,
		}

		features := s.AppConfig.Features
		p, err := s.buildPipeline(true, true, features.ATSCheck && features.ATSOptimize, features.ATSCheck)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create AI service", err.Error(), http.StatusInternalServerError)
			return
		}

		// Track AI operation with observability
		metrics := om.GetMetrics()
		var result *types.TailorResult
		err = metrics.TrackAIOperationWithTokens(ctx, "tailor", func(ctx context.Context) *observability.AIOperationResult {
			output, aiErr := p.Tailor(ctx, input)
			result = output
			return &observability.AIOperationResult{Error: aiErr}
		}, om)

		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "ai_processing"))
			metrics.RecordBusinessMetric(ctx, "resume_tailored", false, om,
				attribute.String("error", err.Error()))
			writeErrorResponse(w, "Failed to tailor resume", err.Error(), http.StatusInternalServerError)
			return
		}

		// Record success metrics
		metrics.RecordBusinessMetric(ctx, "resume_tailored", true, om,
			attribute.Int("output.tailored_length", len(result.TailoredLaTeX)),
			attribute.Bool("used_fallback", result.UsedFallback),
			attribute.Int("warnings_count", len(result.Warnings)))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("response.tailored_length", len(result.TailoredLaTeX)),
			attribute.Bool("used_fallback", result.UsedFallback),
		)

		response := TailorResponse{
			TailorResult: result,
			PDF:          result.PDF,
			DOCX:         result.DOCX,
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createScoreHandler wraps the score handler with observability
func (s *Server) createScoreHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resutex.api")
		ctx, span := tracer.Start(ctx, "api.score")
		defer span.End()

		var req ScoreRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		// Either LaTeX source or PDF bytes; PDF wins when both are present
		if strings.TrimSpace(req.ResumeLaTeX) == "" && len(req.ResumePDF) == 0 {
			err := fmt.Errorf("missing resume")
			span.RecordError(err)
			writeErrorResponse(w, "Missing resume", "resumeLatex or resumePdf field is required", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.JobDescription) == "" {
			err := fmt.Errorf("missing job description")
			span.RecordError(err)
			writeErrorResponse(w, "Missing job description", "jobDescription field is required", http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.resume_length", len(req.ResumeLaTeX)),
			attribute.Int("request.pdf_bytes", len(req.ResumePDF)),
			attribute.String("operation", "score"),
		)

		p, err := s.buildPipeline(false, false, false, true)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create AI service", err.Error(), http.StatusInternalServerError)
			return
		}

		source := ats.Source{LaTeX: req.ResumeLaTeX, PDF: req.ResumePDF}

		metrics := om.GetMetrics()
		var result *types.ScoreResult
		err = metrics.TrackAIOperationWithTokens(ctx, "score", func(ctx context.Context) *observability.AIOperationResult {
			output, aiErr := p.Score(ctx, source, req.JobDescription)
			result = output
			return &observability.AIOperationResult{Error: aiErr}
		}, om)

		if err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "resume_scored", false, om)
			writeErrorResponse(w, "Failed to score resume", err.Error(), http.StatusInternalServerError)
			return
		}

		metrics.RecordBusinessMetric(ctx, "resume_scored", true, om,
			attribute.Int("report_length", len(result.Report)))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("report_length", len(result.Report)),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createExportHandler wraps the export handler with observability
func (s *Server) createExportHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resutex.api")
		ctx, span := tracer.Start(ctx, "api.export")
		defer span.End()

		var req ExportRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if strings.TrimSpace(req.ResumeLaTeX) == "" {
			err := fmt.Errorf("missing resume")
			span.RecordError(err)
			writeErrorResponse(w, "Missing resume", "resumeLatex field is required", http.StatusBadRequest)
			return
		}
		if req.Format == "" {
			req.Format = types.ExportLaTeX
		}

		span.SetAttributes(
			attribute.Int("request.resume_length", len(req.ResumeLaTeX)),
			attribute.String("request.format", string(req.Format)),
			attribute.String("operation", "export"),
		)

		p, err := s.buildPipeline(false, false, false, false)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create AI service", err.Error(), http.StatusInternalServerError)
			return
		}
		parseProvider, err := s.newOperationProvider(s.AppConfig.GetParseConfig(), "parse")
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create AI service", err.Error(), http.StatusInternalServerError)
			return
		}

		metrics := om.GetMetrics()
		var artifact *types.ExportResult
		err = metrics.TrackAIOperationWithTokens(ctx, "export", func(ctx context.Context) *observability.AIOperationResult {
			resume, tokenUsage, aiErr := parseProvider.ParseResume(ctx, req.ResumeLaTeX)
			if aiErr != nil {
				return &observability.AIOperationResult{
					Error:      aiErr,
					TokenUsage: (*observability.TokenUsage)(tokenUsage),
				}
			}
			artifact, aiErr = p.Export(ctx, resume, req.Format, req.Prefix)
			return &observability.AIOperationResult{
				Error:      aiErr,
				TokenUsage: (*observability.TokenUsage)(tokenUsage),
			}
		}, om)

		if err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "resume_exported", false, om,
				attribute.String("format", string(req.Format)))
			writeErrorResponse(w, "Failed to export resume", err.Error(), http.StatusInternalServerError)
			return
		}

		metrics.RecordBusinessMetric(ctx, "resume_exported", true, om,
			attribute.String("format", string(artifact.Format)),
			attribute.Int("artifact_bytes", len(artifact.Data)))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("format", string(artifact.Format)),
			attribute.Int("artifact_bytes", len(artifact.Data)),
		)

		response := ExportResponse{
			Format:   artifact.Format,
			Filename: artifact.Filename,
			Data:     artifact.Data,
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		return originalMiddleware(func(w http.ResponseWriter, r *http.Request) {
			// Check if this request was rate limited by examining the response
			// We'll wrap the ResponseWriter to detect rate limit responses
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}

			next(wrapper, r)

			// If rate limited, record metric
			if wrapper.statusCode == http.StatusTooManyRequests {
				metrics := om.GetMetrics()
				metrics.RecordBusinessMetric(r.Context(), "rate_limit_hit", true, om,
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		})
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
