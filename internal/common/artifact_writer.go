package common

import (
	"fmt"
	"os"
	"path/filepath"

	"resutex/internal/errors"
	"resutex/internal/types"
)

// ArtifactWriter persists exported resume artifacts under an output
// directory, using each artifact's suggested filename.
type ArtifactWriter struct {
	outputDir string
	logger    *errors.Logger
}

// NewArtifactWriter creates an artifact writer. An empty outputDir means the
// current directory.
func NewArtifactWriter(outputDir string, logger *errors.Logger) *ArtifactWriter {
	if outputDir == "" {
		outputDir = "."
	}
	return &ArtifactWriter{outputDir: outputDir, logger: logger}
}

// Write stores one artifact and returns its full path.
func (w *ArtifactWriter) Write(artifact *types.ExportResult) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0750); err != nil {
		return "", errors.NewIOError("DIRECTORY_CREATE_FAILED",
			fmt.Sprintf("Cannot create output directory: %s", w.outputDir), err)
	}

	path := filepath.Join(w.outputDir, artifact.Filename)
	if err := os.WriteFile(path, artifact.Data, 0600); err != nil {
		return "", errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write artifact: %s", path), err)
	}

	w.logger.Info("Artifact written",
		"path", path,
		"format", string(artifact.Format),
		"size_bytes", len(artifact.Data))

	return path, nil
}
