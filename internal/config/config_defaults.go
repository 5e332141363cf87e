package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// AI Configuration - Global defaults. Pipeline stages call the model
	// exactly once by default; retries are opt-in per operation.
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout", 45*time.Second)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.maxRetries", 0)
	v.SetDefault("ai.temperature", 0.3)
	v.SetDefault("ai.useSystemPrompts", true)

	// Parse operation: deterministic extraction, lowest temperature.
	v.SetDefault("ai.parse.provider", "gemini")
	v.SetDefault("ai.parse.model", "")
	v.SetDefault("ai.parse.timeout", 45*time.Second)
	v.SetDefault("ai.parse.apiKey", "")
	v.SetDefault("ai.parse.maxRetries", 0)
	v.SetDefault("ai.parse.temperature", 0.1)
	v.SetDefault("ai.parse.useSystemPrompts", true)

	// Optimize operation: content rewriting under structural invariance.
	v.SetDefault("ai.optimize.provider", "gemini")
	v.SetDefault("ai.optimize.model", "")
	v.SetDefault("ai.optimize.timeout", 45*time.Second)
	v.SetDefault("ai.optimize.apiKey", "")
	v.SetDefault("ai.optimize.maxRetries", 0)
	v.SetDefault("ai.optimize.temperature", 0.3)
	v.SetDefault("ai.optimize.useSystemPrompts", true)

	// Feedback operation: same contract as optimize, driven by an ATS report.
	v.SetDefault("ai.feedback.provider", "gemini")
	v.SetDefault("ai.feedback.model", "")
	v.SetDefault("ai.feedback.timeout", 45*time.Second)
	v.SetDefault("ai.feedback.apiKey", "")
	v.SetDefault("ai.feedback.maxRetries", 0)
	v.SetDefault("ai.feedback.temperature", 0.3)
	v.SetDefault("ai.feedback.useSystemPrompts", true)

	// Score operation: free-text report, no JSON schema.
	v.SetDefault("ai.score.provider", "gemini")
	v.SetDefault("ai.score.model", "")
	v.SetDefault("ai.score.timeout", 45*time.Second)
	v.SetDefault("ai.score.apiKey", "")
	v.SetDefault("ai.score.maxRetries", 0)
	v.SetDefault("ai.score.temperature", 0.2)
	v.SetDefault("ai.score.useSystemPrompts", true)

	// Circuit Breaker Configuration defaults for all operations
	for _, op := range []string{"parse", "optimize", "feedback", "score"} {
		v.SetDefault("ai."+op+".circuitBreaker.enabled", true)
		v.SetDefault("ai."+op+".circuitBreaker.maxRequests", 3)
		v.SetDefault("ai."+op+".circuitBreaker.interval", 60*time.Second)
		v.SetDefault("ai."+op+".circuitBreaker.timeout", 60*time.Second)
		v.SetDefault("ai."+op+".circuitBreaker.minRequests", 3)
		v.SetDefault("ai."+op+".circuitBreaker.failureThreshold", 0.6)
	}

	// Feature flags
	v.SetDefault("features.strictStructure", true)
	v.SetDefault("features.atsCheck", false)
	v.SetDefault("features.atsOptimize", false)
	v.SetDefault("features.docx", false)
	v.SetDefault("features.singlePage", false)
	v.SetDefault("features.preserveTemplate", true)

	// PDF compilation
	v.SetDefault("compile.enabled", false)
	v.SetDefault("compile.engine", "pdflatex")
	v.SetDefault("compile.remoteURL", "")
	v.SetDefault("compile.timeout", 45*time.Second)
	v.SetDefault("compile.keepArtifacts", false)

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 60*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)

	// TLS Configuration defaults
	v.SetDefault("server.tls.mode", "disabled")
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.caFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.tls.cipherSuites", []string{})
	v.SetDefault("server.tls.clientAuthPolicy", "require")
	v.SetDefault("server.tls.insecureSkipVerify", false)
	v.SetDefault("server.tls.serverName", "")

	// Auto-reload configuration defaults
	v.SetDefault("server.tls.autoReload.enabled", true)
	v.SetDefault("server.tls.autoReload.checkInterval", 30*time.Second)
	v.SetDefault("server.tls.autoReload.maxRetries", 3)
	v.SetDefault("server.tls.autoReload.retryDelay", 10*time.Second)
	v.SetDefault("server.tls.autoReload.fileWatcher.enabled", true)
	v.SetDefault("server.tls.autoReload.fileWatcher.debounceDelay", time.Second)

	// API Authentication defaults
	v.SetDefault("server.apiKeys", []string{})

	// Rate limiting defaults
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 1024*1024) // 1MB
	v.SetDefault("app.outputDir", ".")

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.geminiKey", "")
	v.SetDefault("vault.secrets.tlsCerts", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "resutex")
	v.SetDefault("observability.serviceVersion", "")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)

	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)

	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)

	v.SetDefault("observability.customMetrics.aiOperations.enabled", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackDuration", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackTokenUsage", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackModelInfo", true)
	v.SetDefault("observability.customMetrics.businessMetrics.enabled", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackSuccessRates", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackContentSizes", true)
	v.SetDefault("observability.customMetrics.infrastructure.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackCertExpiry", true)

	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)

	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")

	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})

	v.SetDefault("observability.healthCheck.timeout", 15*time.Second)
	v.SetDefault("observability.healthCheck.aiModelCheckTimeout", 10*time.Second)
}
