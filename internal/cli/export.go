package cli

import (
	"fmt"

	"resutex/internal/common"
	"resutex/internal/types"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [resume-tex-file]",
	Short: "Export a LaTeX resume as a LaTeX, DOCX or PDF artifact",
	Long: `Export a LaTeX resume as a standalone artifact. The resume is parsed
into its structured form and serialized to the requested format:

- latex: re-serialized LaTeX using the built-in template
- docx: a Word document with a fixed layout
- pdf: a compiled PDF (requires a local engine or a remote compile service)`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var (
	exportType      string
	exportOutputDir string
	exportPrefix    string
)

func init() {
	exportCmd.Flags().StringVarP(&exportType, "type", "t", "latex", "Artifact type: latex, docx, or pdf")
	exportCmd.Flags().StringVar(&exportOutputDir, "output-dir", "", "Directory for the artifact (default from config)")
	exportCmd.Flags().StringVar(&exportPrefix, "prefix", "", "Artifact filename prefix (default: tailored_resume)")
	exportCmd.Flags().Bool("pdf-compile", false, "Enable PDF compilation for this run")

	_ = exportCmd.RegisterFlagCompletionFunc("type", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"latex", "docx", "pdf"}, cobra.ShellCompDirectiveNoFileComp
	})
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	applyBoolFlagOverrides(cmd, map[string]*bool{
		"pdf-compile": &cfg.Compile.Enabled,
	})

	// Export itself only needs the compiler; parsing is a separate call.
	p, err := buildPipeline(cfg, logger, providerSet{})
	if err != nil {
		return err
	}

	parseProvider, err := newOperationProvider(cfg.GetParseConfig(), "parse", logger)
	if err != nil {
		return err
	}

	fileProcessor := common.NewFileProcessor(logger)
	contents, err := fileProcessor.ValidateAndReadFiles(args[0])
	if err != nil {
		return err
	}

	logger.Info("Starting resume export",
		"resume_file", args[0],
		"type", exportType)

	resume, usage, err := parseProvider.ParseResume(cmd.Context(), contents[0])
	if err != nil {
		return fmt.Errorf("failed to parse resume: %w", err)
	}
	if usage != nil {
		logger.Debug("AI operation token usage",
			"operation", "parse",
			"total_tokens", usage.TotalTokens)
	}

	artifact, err := p.Export(cmd.Context(), resume, types.ExportFormat(exportType), exportPrefix)
	if err != nil {
		return fmt.Errorf("failed to export resume: %w", err)
	}

	outputDir := exportOutputDir
	if outputDir == "" {
		outputDir = cfg.App.OutputDir
	}
	path, err := common.NewArtifactWriter(outputDir, logger).Write(artifact)
	if err != nil {
		return err
	}

	fmt.Printf("Exported %s artifact: %s\n", artifact.Format, path)
	return nil
}
