package server

import (
	"time"

	"resutex/internal/config"
	resutexErrors "resutex/internal/errors"
	"resutex/internal/types"
)

// TailorRequest represents the request body for the tailor endpoint
// ScoreRequest represents the request body for the score endpoint
// ErrorResponse represents an error response
type TailorRequest struct {
	ResumeLaTeX      string                   `json:"resumeLatex"`
	JobDescription   string                   `json:"jobDescription"`
	ExtraContext     string                   `json:"extraContext,omitempty"`
	Constraints      types.SectionConstraints `json:"constraints,omitempty"`
	PreserveTemplate bool                     `json:"preserveTemplate,omitempty"`
	SinglePage       bool                     `json:"singlePage,omitempty"`
}

// TailorResponse is the tailor result with the binary artifacts inlined as
// base64.
type TailorResponse struct {
	*types.TailorResult
	PDF  []byte `json:"pdf,omitempty"`
	DOCX []byte `json:"docx,omitempty"`
}

type ScoreRequest struct {
	ResumeLaTeX    string `json:"resumeLatex,omitempty"`
	ResumePDF      []byte `json:"resumePdf,omitempty"`
	JobDescription string `json:"jobDescription"`
}

type ExportRequest struct {
	ResumeLaTeX string             `json:"resumeLatex"`
	Format      types.ExportFormat `json:"format,omitempty"`
	Prefix      string             `json:"prefix,omitempty"`
}

type ExportResponse struct {
	Format   types.ExportFormat `json:"format"`
	Filename string             `json:"filename"`
	Data     []byte             `json:"data"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// Certificate management
	CertificateManager *CertificateManager

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Logger
	Logger *resutexErrors.Logger
}

// ServerConfig holds configuration for creating a Server instance
// (Refactored to reduce long parameter list in NewServer)
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *resutexErrors.Logger) *Server {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.Window,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Logger:         logger,
	}
}
