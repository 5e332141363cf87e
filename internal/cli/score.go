package cli

import (
	"fmt"

	"resutex/internal/ats"
	"resutex/internal/common"
	"resutex/internal/utils"

	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score [resume-file] [job-description-file]",
	Short: "Score a resume against a job description for ATS compatibility",
	Long: `Score a resume against a job description for ATS (Applicant Tracking
System) compatibility. The resume may be a LaTeX .tex file or a compiled
.pdf; PDF text is extracted locally before scoring. The report is the
model's free-text assessment and is returned verbatim.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if scoreConfig.OutputFormat == "" {
			scoreConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(scoreConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runScore,
}

var scoreConfig common.CommandConfig

func init() {
	scoreCmd.Flags().StringVarP(&scoreConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	scoreCmd.Flags().StringVar(&scoreConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	// Add completion for format flag
	_ = scoreCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	p, err := buildPipeline(cfg, logger, providerSet{score: true})
	if err != nil {
		return err
	}

	fileProcessor := common.NewFileProcessor(logger)
	outputHandler := common.NewOutputHandler(logger)

	// PDF resumes are read as raw bytes; everything else is treated as
	// LaTeX or plain text.
	var source ats.Source
	if utils.GetFileExtension(args[0]) == ".pdf" {
		data, err := fileProcessor.ReadFileBytes(args[0])
		if err != nil {
			return err
		}
		source.PDF = data
	} else {
		content, err := fileProcessor.ReadFile(args[0])
		if err != nil {
			return err
		}
		source.LaTeX = content
	}

	jobDescription, err := fileProcessor.ReadFile(args[1])
	if err != nil {
		return err
	}

	logger.Info("Starting ATS scoring",
		"resume_file", args[0],
		"job_chars", len(jobDescription),
		"output_format", scoreConfig.OutputFormat)

	result, err := p.Score(cmd.Context(), source, jobDescription)
	if err != nil {
		return fmt.Errorf("failed to score resume: %w", err)
	}

	if err := outputHandler.HandleOutput(result, scoreConfig); err != nil {
		return err
	}
	logger.Info("ATS scoring completed successfully")
	return nil
}
