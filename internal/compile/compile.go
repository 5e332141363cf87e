// Package compile turns LaTeX source into PDF bytes, preferring a local
// pdflatex binary and falling back to a remote compilation service.
package compile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"resutex/internal/config"
	resutexErrors "resutex/internal/errors"
)

const texFileName = "resume.tex"

// pdfMagic is the ASCII signature every PDF body must start with.
var pdfMagic = []byte("%PDF")

// Compiler compiles LaTeX documents to PDF. The local engine is attempted
// first when it is on PATH; the remote service is the fallback when the
// engine is absent or exits without producing an output file.
type Compiler struct {
	cfg    config.CompileConfig
	client *http.Client
	logger *resutexErrors.Logger
}

// NewCompiler creates a compiler from configuration.
func NewCompiler(cfg config.CompileConfig, logger *resutexErrors.Logger) *Compiler {
	return &Compiler{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// Compile produces PDF bytes for the given LaTeX source.
func (c *Compiler) Compile(ctx context.Context, texSource string) ([]byte, error) {
	if engine := c.localEngine(); engine != "" {
		pdf, err := c.compileLocal(ctx, engine, texSource)
		if err == nil {
			return pdf, nil
		}

		if c.cfg.RemoteURL == "" {
			return nil, err
		}

		c.logger.Warn("Local LaTeX compilation failed, falling back to remote service",
			"engine", engine,
			"remote_url", c.cfg.RemoteURL,
			"error", err.Error())
	} else if c.cfg.RemoteURL == "" {
		return nil, resutexErrors.NewConfigError(resutexErrors.ErrCodeInvalidConfig,
			"No LaTeX engine on PATH and no remote compile URL configured", nil)
	}

	return c.compileRemote(ctx, texSource)
}

// localEngine returns the resolved engine path, or "" when unavailable.
func (c *Compiler) localEngine() string {
	engine := c.cfg.Engine
	if engine == "" {
		engine = "pdflatex"
	}
	path, err := exec.LookPath(engine)
	if err != nil {
		return ""
	}
	return path
}

// compileLocal runs the engine in a temporary working directory. Two passes,
// so cross-references and page totals settle.
func (c *Compiler) compileLocal(ctx context.Context, engine, texSource string) ([]byte, error) {
	workDir, err := os.MkdirTemp("", "resutex-compile-*")
	if err != nil {
		return nil, resutexErrors.NewIOError(resutexErrors.ErrCodeCompileFailed,
			"Failed to create compilation working directory", err)
	}
	if !c.cfg.KeepArtifacts {
		defer os.RemoveAll(workDir)
	}

	texPath := filepath.Join(workDir, texFileName)
	if err := os.WriteFile(texPath, []byte(texSource), 0644); err != nil {
		return nil, resutexErrors.NewIOError(resutexErrors.ErrCodeCompileFailed,
			"Failed to write LaTeX source to working directory", err)
	}

	var logOutput string
	for pass := 1; pass <= 2; pass++ {
		cmd := exec.CommandContext(ctx, engine,
			"-interaction=nonstopmode",
			"-halt-on-error",
			"-output-directory", workDir,
			texPath)

		var stdout, stderr strings.Builder
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		runErr := cmd.Run()
		logOutput = stdout.String() + stderr.String()

		if runErr != nil {
			// LaTeX can still emit a usable PDF after a nonfatal error;
			// the existence check below is authoritative.
			c.logger.Debug("LaTeX engine exited with error",
				"engine", engine,
				"pass", pass,
				"error", runErr.Error())
			break
		}
	}

	pdfPath := filepath.Join(workDir, strings.TrimSuffix(texFileName, ".tex")+".pdf")
	pdf, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, resutexErrors.NewIOError(resutexErrors.ErrCodeCompileFailed,
			"LaTeX compilation produced no PDF: "+tailLines(logOutput, 20), err)
	}

	if c.cfg.KeepArtifacts {
		c.logger.Info("Keeping compilation artifacts", "work_dir", workDir)
	}

	return pdf, nil
}

// compileRemote uploads the .tex file as multipart form data. Success is a
// 200/201 status AND a body beginning with the PDF signature; anything else
// is a failure whose logs are extracted for display.
func (c *Compiler) compileRemote(ctx context.Context, texSource string) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", texFileName)
	if err != nil {
		return nil, resutexErrors.NewInternalError(resutexErrors.ErrCodeCompileFailed,
			"Failed to build multipart request", err)
	}
	if _, err := io.WriteString(part, texSource); err != nil {
		return nil, resutexErrors.NewInternalError(resutexErrors.ErrCodeCompileFailed,
			"Failed to build multipart request", err)
	}
	if err := writer.Close(); err != nil {
		return nil, resutexErrors.NewInternalError(resutexErrors.ErrCodeCompileFailed,
			"Failed to build multipart request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.RemoteURL, &buf)
	if err != nil {
		return nil, resutexErrors.NewNetworkError(resutexErrors.ErrCodeCompileFailed,
			"Failed to build remote compile request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, resutexErrors.NewNetworkError(resutexErrors.ErrCodeCompileFailed,
			"Remote compile request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resutexErrors.NewNetworkError(resutexErrors.ErrCodeCompileFailed,
			"Failed to read remote compile response", err)
	}

	if isSuccess(resp.StatusCode, body) {
		return body, nil
	}

	return nil, resutexErrors.NewNetworkError(resutexErrors.ErrCodeCompileFailed,
		fmt.Sprintf("Remote compilation failed (status %d): %s", resp.StatusCode, extractLogs(body)), nil)
}

// isSuccess reports whether a remote response counts as a compiled PDF.
func isSuccess(status int, body []byte) bool {
	if status != http.StatusOK && status != http.StatusCreated {
		return false
	}
	return bytes.HasPrefix(body, pdfMagic)
}

// extractLogs pulls the `logs` field out of a JSON failure body, stripping
// the b'...' byte-string wrapper some services leave in. Non-JSON bodies are
// returned as raw text.
func extractLogs(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return string(body)
	}

	logs, ok := payload["logs"].(string)
	if !ok {
		return string(body)
	}

	return stripByteLiteral(logs)
}

// stripByteLiteral removes a surrounding b'...' or b"..." wrapper from a log
// string and resolves its escaped newlines.
func stripByteLiteral(s string) string {
	trimmed := strings.TrimSpace(s)
	for _, quote := range []string{"'", `"`} {
		prefix := "b" + quote
		if strings.HasPrefix(trimmed, prefix) && strings.HasSuffix(trimmed, quote) && len(trimmed) > len(prefix) {
			inner := trimmed[len(prefix) : len(trimmed)-1]
			inner = strings.ReplaceAll(inner, `\n`, "\n")
			inner = strings.ReplaceAll(inner, `\t`, "\t")
			return inner
		}
	}
	return trimmed
}

// tailLines returns the last n lines of a log, enough context to see the
// actual LaTeX error without dumping the full transcript.
func tailLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) <= n {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
