package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"resutex/internal/common"
	"resutex/internal/config"
	"resutex/internal/errors"
	"resutex/internal/pipeline"
	"resutex/internal/types"

	"github.com/spf13/cobra"
)

var tailorCmd = &cobra.Command{
	Use:   "tailor [resume-tex-file] [job-description-file]",
	Short: "Tailor a LaTeX resume for a specific job description",
	Long: `Tailor your LaTeX resume for a specific job description using AI.
The command takes two arguments: the path to your resume .tex file and
the path to the job description file. The resume is parsed into a
structured form, its content is rewritten against the job description,
and the result is serialized back to LaTeX.

Optional stages (PDF compilation, ATS scoring, DOCX export) are controlled
by configuration and the flags below; their failures never discard the
tailored LaTeX result.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if tailorConfig.OutputFormat == "" {
			tailorConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(tailorConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runTailor,
}

var (
	tailorConfig          common.CommandConfig
	tailorContextFile     string
	tailorConstraintsFile string
	tailorOutputDir       string
)

func init() {
	tailorCmd.Flags().StringVarP(&tailorConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	tailorCmd.Flags().StringVar(&tailorConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	tailorCmd.Flags().StringVar(&tailorContextFile, "context", "", "File with extra candidate context for the optimizer")
	tailorCmd.Flags().StringVar(&tailorConstraintsFile, "constraints", "", "JSON file with per-section length constraints")
	tailorCmd.Flags().StringVar(&tailorOutputDir, "output-dir", "", "Directory for PDF/DOCX artifacts (default from config)")
	tailorCmd.Flags().Bool("preserve-template", false, "Splice tailored content into the original LaTeX template")
	tailorCmd.Flags().Bool("single-page", false, "Ask the optimizer to fit the resume on one page")
	tailorCmd.Flags().Bool("ats", false, "Score the tailored resume against the job description")
	tailorCmd.Flags().Bool("ats-optimize", false, "Apply the ATS report in a second revision pass")
	tailorCmd.Flags().Bool("docx", false, "Also produce a DOCX artifact")
	tailorCmd.Flags().Bool("pdf", false, "Also compile a PDF artifact")

	// Add completion for format flag
	_ = tailorCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runTailor(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	applyBoolFlagOverrides(cmd, tailorFlagOverrides(cfg))

	p, err := buildPipeline(cfg, logger, providerSet{
		parse:    true,
		optimize: true,
		score:    cfg.Features.ATSCheck,
		feedback: cfg.Features.ATSCheck && cfg.Features.ATSOptimize,
	})
	if err != nil {
		return err
	}

	extraContext, constraints, err := loadTailorExtras(logger)
	if err != nil {
		return err
	}

	createInput := func(contents []string) (types.TailorInput, error) {
		if len(contents) != 2 {
			return types.TailorInput{}, fmt.Errorf("expected 2 file paths, got %d", len(contents))
		}
		return types.TailorInput{
			ResumeLaTeX:    contents[0],
			JobDescription: contents[1],
			ExtraContext:   extraContext,
			Constraints:    constraints,
		}, nil
	}

	logDetails := func(input types.TailorInput, cfg common.CommandConfig) {
		logger.Info("Starting resume tailoring",
			"resume_chars", len(input.ResumeLaTeX),
			"job_chars", len(input.JobDescription),
			"output_format", cfg.OutputFormat)
	}

	outputDir := tailorOutputDir
	if outputDir == "" {
		outputDir = cfg.App.OutputDir
	}
	artifactWriter := common.NewArtifactWriter(outputDir, logger)

	tailorOperation := func(ctx context.Context, input types.TailorInput) (*types.TailorResult, error) {
		result, err := p.Tailor(ctx, input)
		if err != nil {
			return nil, err
		}
		writeTailorArtifacts(result, artifactWriter, logger)
		return result, nil
	}

	err = common.RunCommand(
		cmd.Context(),
		logger,
		tailorConfig,
		args,
		createInput,
		tailorOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to tailor resume: %w", err)
	}
	logger.Info("Resume tailoring completed successfully")
	return nil
}

// tailorFlagOverrides maps the tailor feature flags to the config fields the
// pipeline is built from.
func tailorFlagOverrides(cfg *config.Config) map[string]*bool {
	return map[string]*bool{
		"preserve-template": &cfg.Features.PreserveTemplate,
		"single-page":       &cfg.Features.SinglePage,
		"ats":               &cfg.Features.ATSCheck,
		"ats-optimize":      &cfg.Features.ATSOptimize,
		"docx":              &cfg.Features.DOCX,
		"pdf":               &cfg.Compile.Enabled,
	}
}

// loadTailorExtras reads the optional extra-context and constraints files
// named by the tailor flags.
func loadTailorExtras(logger *errors.Logger) (string, types.SectionConstraints, error) {
	fileProcessor := common.NewFileProcessor(logger)

	extraContext := ""
	if tailorContextFile != "" {
		content, err := fileProcessor.ReadFile(tailorContextFile)
		if err != nil {
			return "", nil, err
		}
		extraContext = content
	}

	var constraints types.SectionConstraints
	if tailorConstraintsFile != "" {
		content, err := fileProcessor.ReadFile(tailorConstraintsFile)
		if err != nil {
			return "", nil, err
		}
		if err := json.Unmarshal([]byte(content), &constraints); err != nil {
			return "", nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("Invalid constraints file: %s", tailorConstraintsFile), err)
		}
	}

	return extraContext, constraints, nil
}

// writeTailorArtifacts persists the binary artifacts a tailoring run
// produced. Write failures are logged, not fatal: the formatted result has
// already been computed and still reaches the user.
func writeTailorArtifacts(result *types.TailorResult, writer *common.ArtifactWriter, logger *errors.Logger) {
	if len(result.PDF) > 0 {
		artifact := &types.ExportResult{
			Format:   types.ExportPDF,
			Filename: pipeline.FilenamePrefixTailored + ".pdf",
			Data:     result.PDF,
		}
		if _, err := writer.Write(artifact); err != nil {
			logger.Warn("Failed to write PDF artifact", "error", err)
		}
	}
	if len(result.DOCX) > 0 {
		artifact := &types.ExportResult{
			Format:   types.ExportDOCX,
			Filename: pipeline.FilenamePrefixTailored + ".docx",
			Data:     result.DOCX,
		}
		if _, err := writer.Write(artifact); err != nil {
			logger.Warn("Failed to write DOCX artifact", "error", err)
		}
	}
	if result.AppliedChanges && result.ImprovedLaTeX != "" {
		artifact := &types.ExportResult{
			Format:   types.ExportLaTeX,
			Filename: pipeline.FilenamePrefixATSImproved + ".tex",
			Data:     []byte(result.ImprovedLaTeX),
		}
		if _, err := writer.Write(artifact); err != nil {
			logger.Warn("Failed to write improved LaTeX artifact", "error", err)
		}
	}
}
