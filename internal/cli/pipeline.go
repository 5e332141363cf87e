package cli

import (
	"fmt"

	"resutex/internal/ai"
	"resutex/internal/compile"
	"resutex/internal/config"
	"resutex/internal/errors"
	"resutex/internal/pipeline"

	"github.com/spf13/cobra"
)

// providerSet selects which AI operations a command needs. Each enabled
// operation gets its own service so per-operation config overrides and
// circuit breakers apply.
type providerSet struct {
	parse    bool
	optimize bool
	feedback bool
	score    bool
}

func newOperationProvider(opCfg config.OperationAIConfig, operation string, logger *errors.Logger) (ai.AIProvider, error) {
	service, err := ai.NewService(&opCfg, operation, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s AI service: %w", operation, err)
	}
	return service.Provider, nil
}

// buildPipeline assembles a pipeline from the configuration, creating only
// the providers the command asked for. The compiler is attached whenever PDF
// compilation is enabled.
func buildPipeline(cfg *config.Config, logger *errors.Logger, need providerSet) (*pipeline.Pipeline, error) {
	var providers pipeline.Providers
	var err error

	if need.parse {
		if providers.Parse, err = newOperationProvider(cfg.GetParseConfig(), "parse", logger); err != nil {
			return nil, err
		}
	}
	if need.optimize {
		if providers.Optimize, err = newOperationProvider(cfg.GetOptimizeConfig(), "optimize", logger); err != nil {
			return nil, err
		}
	}
	if need.feedback {
		if providers.Feedback, err = newOperationProvider(cfg.GetFeedbackConfig(), "feedback", logger); err != nil {
			return nil, err
		}
	}
	if need.score {
		if providers.Score, err = newOperationProvider(cfg.GetScoreConfig(), "score", logger); err != nil {
			return nil, err
		}
	}

	var compiler pipeline.Compiler
	if cfg.Compile.Enabled {
		compiler = compile.NewCompiler(cfg.Compile, logger)
	}

	return pipeline.New(providers, compiler, cfg.Features, logger), nil
}

// applyBoolFlagOverrides copies explicitly set boolean flags onto their
// config targets, so a command-line flag wins over the config file for this
// run. Unset flags leave the loaded configuration alone.
func applyBoolFlagOverrides(cmd *cobra.Command, overrides map[string]*bool) {
	for flagName, target := range overrides {
		if !cmd.Flags().Changed(flagName) {
			continue
		}
		value, err := cmd.Flags().GetBool(flagName)
		if err != nil {
			continue
		}
		*target = value
	}
}

// applyStringFlagOverrides is the string counterpart of
// applyBoolFlagOverrides.
func applyStringFlagOverrides(cmd *cobra.Command, overrides map[string]*string) {
	for flagName, target := range overrides {
		if !cmd.Flags().Changed(flagName) {
			continue
		}
		value, err := cmd.Flags().GetString(flagName)
		if err != nil {
			continue
		}
		*target = value
	}
}
