package ai

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"strings"
	"time"

	"resutex/internal/config"
	resutexErrors "resutex/internal/errors"
	"resutex/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GeminiProvider implements AIProvider for Google Gemini
type GeminiProvider struct {
	client         *genai.Client
	httpClient     *http.Client
	config         *config.OperationAIConfig
	circuitBreaker *AICircuitBreaker
	modelBreaker   *ModelCircuitBreaker
	logger         *resutexErrors.Logger
}

// Ensure GeminiProvider implements AIProvider
var _ AIProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance for a specific operation
func NewGeminiProvider(cfg *config.OperationAIConfig, operationType string, logger *resutexErrors.Logger) (*GeminiProvider, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, resutexErrors.NewAIError(resutexErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	// Initialize circuit breaker with operation-specific configuration
	circuitBreaker := NewAICircuitBreaker(operationType, cfg, logger)
	modelBreaker := NewModelCircuitBreaker(operationType, cfg, logger)

	return &GeminiProvider{
		client: client,
		httpClient: &http.Client{
			Timeout: *cfg.Timeout,
		},
		config:         cfg,
		circuitBreaker: circuitBreaker,
		modelBreaker:   modelBreaker,
		logger:         logger,
	}, nil
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{
		Name:      g.config.Model,
		Available: false,
	}

	// Create a timeout context for the model check
	timeout := getAIModelCheckTimeout()
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Get model information from Gemini API with circuit breaker
	model, err := g.modelBreaker.ExecuteModel(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)

		// Log the error for debugging
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"provider", g.config.Provider,
			"error", err.Error())
		return modelInfo
	}

	// Model is available, populate info
	modelInfo.Available = true
	if model.DisplayName != "" {
		modelInfo.DisplayName = model.DisplayName
	}
	if model.Version != "" {
		modelInfo.Version = model.Version
	}

	// Log successful check
	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"provider", g.config.Provider,
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)

	return modelInfo
}

// executeWithRetry executes an AI operation with retry logic and exponential backoff
func (g *GeminiProvider) executeWithRetry(ctx context.Context, operation string, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= *g.config.MaxRetries; attempt++ {
		if attempt > 0 {
			// Log retry attempt
			g.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", *g.config.MaxRetries,
				"error", lastErr.Error())

			// Exponential backoff with jitter to prevent thundering herd
			baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			// Use crypto/rand for secure random jitter
			jitterMax := big.NewInt(int64(float64(baseDelay) * 0.1))
			jitterBig, _ := rand.Int(rand.Reader, jitterMax)
			jitter := time.Duration(jitterBig.Int64())
			// Cap maximum backoff at 30 seconds
			backoff := min(baseDelay+jitter, 30*time.Second)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"successful_attempt", attempt+1,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err

		// Don't retry on certain errors (auth, invalid input, etc.)
		if !g.isRetryableError(err) {
			g.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	// Log final failure
	g.logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"operation", operation,
		"total_attempts", *g.config.MaxRetries+1)

	return nil, fmt.Errorf("operation '%s' failed after %d retries: %w", operation, *g.config.MaxRetries, lastErr)
}

// isRetryableError determines if an error should trigger a retry
func (g *GeminiProvider) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Check for network errors (timeouts, connection issues)
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true // Retry on timeouts
		}
		// Consider other network errors retryable (e.g., connection refused)
		return true
	}

	// Check for Google API errors (HTTP status codes)
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}

// generate runs one model call with common tracing, circuit breaker, and retry
// logic, and returns the raw response.
func (g *GeminiProvider) generate(
	ctx context.Context,
	operationName string,
	userPrompt string,
	systemPrompt string,
	genaiConfig *genai.GenerateContentConfig,
	spanAttributes ...attribute.KeyValue,
) (*genai.GenerateContentResponse, error) {
	tracer := otel.Tracer("resutex.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+operationName)
	defer span.End()

	// Set base attributes
	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	if *g.config.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(ctx, operationName, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(userPrompt), genaiConfig)
		})
	})

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, resutexErrors.NewAIError(resutexErrors.ErrCodeAIServiceFailed, "Failed to generate content for "+operationName, err)
	}

	if tokenUsage := extractTokenUsage(result); tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return result, nil
}

// generateJSON is a generic helper for operations that expect a JSON response.
// The response text is stripped of Markdown code fences before decoding; an
// undecodable response yields a ParseError carrying the raw text.
func generateJSON[Out any](
	g *GeminiProvider,
	ctx context.Context,
	operationName string,
	userPrompt string,
	systemPrompt string,
	genaiConfig *genai.GenerateContentConfig,
	spanAttributes ...attribute.KeyValue,
) (Out, *TokenUsage, error) {
	var output Out

	result, err := g.generate(ctx, operationName, userPrompt, systemPrompt, genaiConfig, spanAttributes...)
	if err != nil {
		return output, nil, err
	}

	raw := stripCodeFences(result.Text())
	if err := json.Unmarshal([]byte(raw), &output); err != nil {
		parseErr := &ParseError{Operation: operationName, Raw: result.Text(), Err: err}
		return output, nil, resutexErrors.NewAIError(resutexErrors.ErrCodeParseFailed,
			"Failed to parse AI response for "+operationName, parseErr)
	}

	return output, extractTokenUsage(result), nil
}

// generateText is a helper for operations that expect a free-text response.
// The model text is returned verbatim.
func (g *GeminiProvider) generateText(
	ctx context.Context,
	operationName string,
	userPrompt string,
	systemPrompt string,
	genaiConfig *genai.GenerateContentConfig,
	spanAttributes ...attribute.KeyValue,
) (string, *TokenUsage, error) {
	result, err := g.generate(ctx, operationName, userPrompt, systemPrompt, genaiConfig, spanAttributes...)
	if err != nil {
		return "", nil, err
	}
	return result.Text(), extractTokenUsage(result), nil
}

// stripCodeFences removes a surrounding Markdown code fence (``` or ```json)
// from a model response, if present.
func stripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	// Drop the opening fence line, including any language tag.
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	} else {
		return ""
	}

	// Drop the closing fence.
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}

	return strings.TrimSpace(trimmed)
}

// ParseResume implements AIProvider interface for LaTeX resume parsing
func (g *GeminiProvider) ParseResume(ctx context.Context, latexSource string) (*types.StructuredResume, *TokenUsage, error) {
	if strings.TrimSpace(latexSource) == "" {
		return nil, nil, resutexErrors.NewAIError(resutexErrors.ErrCodeParseFailed,
			"Failed to parse resume", &ParseError{
				Operation: "parse_resume",
				Err:       fmt.Errorf("resume source is empty"),
			})
	}

	systemPrompt, userPrompt := g.getPromptsForParse(latexSource)
	genaiConfig := g.buildResumeSchema()

	output, tokenUsage, err := generateJSON[types.StructuredResume](
		g,
		ctx,
		"parse_resume",
		userPrompt,
		systemPrompt,
		genaiConfig,
		attribute.Int("input.resume_length", len(latexSource)),
	)
	if err != nil {
		return nil, nil, err
	}

	if output.IsEmpty() {
		return nil, nil, resutexErrors.NewAIError(resutexErrors.ErrCodeParseFailed,
			"Failed to parse resume", &ParseError{
				Operation: "parse_resume",
				Err:       fmt.Errorf("no resume sections recognized"),
			})
	}

	// Add operation-specific success metrics to the span created by the helper
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Int("output.section_count", len(strings.Split(output.ShapeSignature(), ";"))-1),
		)
	}

	return &output, tokenUsage, nil
}

// OptimizeResume implements AIProvider interface for content optimization
func (g *GeminiProvider) OptimizeResume(ctx context.Context, req OptimizeRequest) (*types.StructuredResume, *TokenUsage, error) {
	systemPrompt, userPrompt, err := g.getPromptsForOptimize(req)
	if err != nil {
		return nil, nil, err
	}
	genaiConfig := g.buildResumeSchema()

	output, tokenUsage, err := generateJSON[types.StructuredResume](
		g,
		ctx,
		"optimize_resume",
		userPrompt,
		systemPrompt,
		genaiConfig,
		attribute.Int("input.job_length", len(req.JobDescription)),
		attribute.Bool("input.single_page", req.SinglePage),
	)
	if err != nil {
		return nil, nil, err
	}

	return &output, tokenUsage, nil
}

// ApplyFeedback implements AIProvider interface for feedback-driven revision
func (g *GeminiProvider) ApplyFeedback(ctx context.Context, req FeedbackRequest) (*types.StructuredResume, *TokenUsage, error) {
	systemPrompt, userPrompt, err := g.getPromptsForFeedback(req)
	if err != nil {
		return nil, nil, err
	}
	genaiConfig := g.buildResumeSchema()

	output, tokenUsage, err := generateJSON[types.StructuredResume](
		g,
		ctx,
		"apply_feedback",
		userPrompt,
		systemPrompt,
		genaiConfig,
		attribute.Int("input.feedback_length", len(req.Feedback)),
	)
	if err != nil {
		return nil, nil, err
	}

	return &output, tokenUsage, nil
}

// ScoreATS implements AIProvider interface for ATS compatibility scoring.
// The report is free text and is returned exactly as the model produced it.
func (g *GeminiProvider) ScoreATS(ctx context.Context, resumeText, jobDescription string) (string, *TokenUsage, error) {
	systemPrompt, userPrompt := g.getPromptsForScore(resumeText, jobDescription)

	genaiConfig := &genai.GenerateContentConfig{}
	if *g.config.Temperature > 0 {
		genaiConfig.Temperature = g.config.Temperature
	}

	report, tokenUsage, err := g.generateText(
		ctx,
		"score_ats",
		userPrompt,
		systemPrompt,
		genaiConfig,
		attribute.Int("input.resume_length", len(resumeText)),
		attribute.Int("input.job_length", len(jobDescription)),
	)
	if err != nil {
		return "", nil, err
	}

	return report, tokenUsage, nil
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	stats := map[string]any{
		"ai_operations":    g.circuitBreaker.GetStats(),
		"model_operations": g.modelBreaker.GetModelStats(),
	}

	// Overall health - both breakers must be healthy
	aiHealthy := g.circuitBreaker.IsHealthy()
	modelHealthy := g.modelBreaker.IsModelHealthy()
	stats["overall_healthy"] = aiHealthy && modelHealthy

	return stats
}

// Close implements AIProvider interface
func (g *GeminiProvider) Close() error {
	// Gemini client doesn't have a Close method in current single-shot usage
	// Probably needed in streaming mode
	return nil
}

// buildResumeSchema creates the response schema shared by the parse, optimize
// and feedback operations: a structured resume as a JSON object.
func (g *GeminiProvider) buildResumeSchema() *genai.GenerateContentConfig {
	subsectionSchema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"heading":      {Type: genai.TypeString},
			"organization": {Type: genai.TypeString},
			"location":     {Type: genai.TypeString},
			"date":         {Type: genai.TypeString},
			"bullets": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
		},
		Required: []string{"heading"},
	}

	sectionSchema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title": {Type: genai.TypeString},
			"lines": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"subsections": {
				Type:  genai.TypeArray,
				Items: subsectionSchema,
			},
		},
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"contact":        sectionSchema,
				"summary":        sectionSchema,
				"experience":     sectionSchema,
				"skills":         sectionSchema,
				"education":      sectionSchema,
				"projects":       sectionSchema,
				"certifications": sectionSchema,
			},
		},
	}

	// Apply temperature configuration if set
	if *g.config.Temperature > 0 {
		config.Temperature = g.config.Temperature
	}

	return config
}

// getPromptsForParse returns system and user prompts for resume parsing
func (g *GeminiProvider) getPromptsForParse(latexSource string) (string, string) {
	systemPrompt := g.getSystemPrompt("parse")
	userPrompt := g.getUserPrompt("parse")

	formattedUserPrompt := fmt.Sprintf(userPrompt, latexSource)

	return systemPrompt, formattedUserPrompt
}

// getPromptsForOptimize returns system and user prompts for content optimization
func (g *GeminiProvider) getPromptsForOptimize(req OptimizeRequest) (string, string, error) {
	systemPrompt := g.getSystemPrompt("optimize")
	userPrompt := g.getUserPrompt("optimize")

	resumeJSON, err := json.MarshalIndent(req.Resume, "", "  ")
	if err != nil {
		return "", "", resutexErrors.NewInternalError(resutexErrors.ErrCodeInternalError,
			"Failed to encode resume for optimization", err)
	}

	formattedUserPrompt := fmt.Sprintf(userPrompt, string(resumeJSON), req.JobDescription)

	// Optional request extras are appended rather than templated so custom
	// user prompts only need the two core placeholders.
	if len(req.Constraints) > 0 {
		constraintsJSON, err := json.MarshalIndent(req.Constraints, "", "  ")
		if err != nil {
			return "", "", resutexErrors.NewInternalError(resutexErrors.ErrCodeInternalError,
				"Failed to encode section constraints", err)
		}
		formattedUserPrompt += fmt.Sprintf("\n\n**Section Constraints (advisory):**\n-----\n%s\n-----", string(constraintsJSON))
	}

	if strings.TrimSpace(req.ExtraContext) != "" {
		formattedUserPrompt += fmt.Sprintf("\n\n**Additional Candidate Context:**\n-----\n%s\n-----", req.ExtraContext)
	}

	if req.SinglePage {
		formattedUserPrompt += "\n\nTarget a single printed page: keep wording tight and prefer the strongest, most relevant bullet points."
	}

	return systemPrompt, formattedUserPrompt, nil
}

// getPromptsForFeedback returns system and user prompts for feedback application
func (g *GeminiProvider) getPromptsForFeedback(req FeedbackRequest) (string, string, error) {
	systemPrompt := g.getSystemPrompt("feedback")
	userPrompt := g.getUserPrompt("feedback")

	resumeJSON, err := json.MarshalIndent(req.Resume, "", "  ")
	if err != nil {
		return "", "", resutexErrors.NewInternalError(resutexErrors.ErrCodeInternalError,
			"Failed to encode resume for feedback application", err)
	}

	formattedUserPrompt := fmt.Sprintf(userPrompt, string(resumeJSON), req.Feedback, req.JobDescription)

	return systemPrompt, formattedUserPrompt, nil
}

// getPromptsForScore returns system and user prompts for ATS scoring
func (g *GeminiProvider) getPromptsForScore(resumeText, jobDescription string) (string, string) {
	systemPrompt := g.getSystemPrompt("score")
	userPrompt := g.getUserPrompt("score")

	formattedUserPrompt := fmt.Sprintf(userPrompt, resumeText, jobDescription)

	return systemPrompt, formattedUserPrompt
}

// getSystemPrompt returns the appropriate system prompt
func (g *GeminiProvider) getSystemPrompt(promptType string) string {
	loadedPrompts, configPrompts := g.getPrompts(promptType)
	var configSystemPrompts *config.SystemPrompts
	if configPrompts != nil {
		configSystemPrompts = &configPrompts.SystemPrompts
	} else {
		// Create an empty struct to avoid nil pointer panics
		configSystemPrompts = &config.SystemPrompts{}
	}

	switch promptType {
	case "parse":
		return resolvePrompt(
			loadedPrompts.SystemPrompts.ParseResume,
			configSystemPrompts.ParseResume,
			DefaultSystemPrompts.ParseResume,
		)
	case "optimize":
		return resolvePrompt(
			loadedPrompts.SystemPrompts.OptimizeResume,
			configSystemPrompts.OptimizeResume,
			DefaultSystemPrompts.OptimizeResume,
		)
	case "feedback":
		return resolvePrompt(
			loadedPrompts.SystemPrompts.ApplyFeedback,
			configSystemPrompts.ApplyFeedback,
			DefaultSystemPrompts.ApplyFeedback,
		)
	case "score":
		return resolvePrompt(
			loadedPrompts.SystemPrompts.ScoreATS,
			configSystemPrompts.ScoreATS,
			DefaultSystemPrompts.ScoreATS,
		)
	default:
		// Fallback for any unknown prompt type, perhaps returning an empty string or a default
		return ""
	}
}

// getUserPrompt returns the appropriate user prompt template
func (g *GeminiProvider) getUserPrompt(promptType string) string {
	loadedPrompts, configPrompts := g.getPrompts(promptType)
	var configUserPrompts *config.UserPrompts
	if configPrompts != nil {
		configUserPrompts = &configPrompts.UserPrompts
	} else {
		// Create an empty struct to avoid nil pointer panics
		configUserPrompts = &config.UserPrompts{}
	}

	switch promptType {
	case "parse":
		return resolvePrompt(
			loadedPrompts.UserPrompts.ParseResume,
			configUserPrompts.ParseResume,
			DefaultUserPrompts.ParseResume,
		)
	case "optimize":
		return resolvePrompt(
			loadedPrompts.UserPrompts.OptimizeResume,
			configUserPrompts.OptimizeResume,
			DefaultUserPrompts.OptimizeResume,
		)
	case "feedback":
		return resolvePrompt(
			loadedPrompts.UserPrompts.ApplyFeedback,
			configUserPrompts.ApplyFeedback,
			DefaultUserPrompts.ApplyFeedback,
		)
	case "score":
		return resolvePrompt(
			loadedPrompts.UserPrompts.ScoreATS,
			configUserPrompts.ScoreATS,
			DefaultUserPrompts.ScoreATS,
		)
	default:
		return ""
	}
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// AIOperationResult holds the result of an AI operation including token usage
type AIOperationResult struct {
	Error      error
	TokenUsage *TokenUsage
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}

// getAIModelCheckTimeout returns the configured AI model check timeout
func getAIModelCheckTimeout() time.Duration {
	// Use default timeout since we don't have access to config here
	// This function should be refactored to accept timeout as parameter
	// Fallback to default
	return 10 * time.Second
}

// getPrompts returns the appropriate prompts for the operation, prioritizing loaded content over config
func (g *GeminiProvider) getPrompts(operationType string) (config.OperationLoadedPrompts, *config.PromptConfig) {
	// Get loaded prompts (returns a copy)
	loadedPrompts := config.GetPromptsForOperation(operationType)
	configPrompts := &g.config.CustomPrompts
	return loadedPrompts, configPrompts
}

// resolvePrompt selects the correct prompt string based on a clear priority order:
// 1. A prompt loaded from a file.
// 2. A prompt defined directly in the configuration.
// 3. A hardcoded default prompt.
// This helper function centralizes the decision logic, making it DRY and easy to maintain.
func resolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}
