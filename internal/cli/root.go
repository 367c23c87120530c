package cli

import (
	"context"
	"fmt"
	"os"

	"atsscorer/internal/common"
	"atsscorer/internal/config"
	"atsscorer/internal/errors"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var configFile string

var rootCmd = &cobra.Command{
	Use:   "atsscorer",
	Short: "Score resumes the way applicant tracking systems read them",
	Long: `atsscorer scores structured resumes for ATS compatibility against a job
description or an explicit keyword list. It reports a weighted overall score,
per-component breakdowns, and actionable issues and suggestions.

It runs as a CLI, an HTTP API (serve) or an MCP tool server (mcp).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile == "" {
			return nil
		}
		// an explicit --config replaces the configuration loaded at startup
		cfg, err := config.LoadConfigFile(configFile)
		if err != nil {
			return err
		}
		level, err := errors.ParseLevel(cfg.App.LogLevel)
		if err != nil {
			return err
		}
		logger := errors.NewLoggerTo(os.Stderr, level)
		if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
			return err
		}
		cmd.SetContext(withDeps(cmd.Context(), cfg, logger))
		return nil
	},
}

func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	// Attach the config and logger to the context, making them available to all subcommands
	rootCmd.SetContext(withDeps(ctx, cfg, logger))
	return rootCmd.Execute()
}

func withDeps(ctx context.Context, cfg *config.Config, logger *errors.Logger) context.Context {
	ctx = context.WithValue(ctx, configKey, cfg)
	return context.WithValue(ctx, loggerKey, logger)
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok && cfg != nil {
		return cfg, nil
	}
	return nil, fmt.Errorf("config not found in context")
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) (*errors.Logger, error) {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok && logger != nil {
		return logger, nil
	}
	return nil, fmt.Errorf("logger not found in context")
}

// addOutputFlags registers --output and --format on cmd, completing formats
// from the configured list.
func addOutputFlags(cmd *cobra.Command, cc *common.CommandConfig) {
	cmd.Flags().StringVarP(&cc.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&cc.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return []string{}, cobra.ShellCompDirectiveError
		}
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

// resolveOutput fills in the default format and file size limit
func resolveOutput(cmd *cobra.Command, cc *common.CommandConfig) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	format, err := common.ResolveOutputFormat(cc.OutputFormat, cfg.App.DefaultFormat, cfg.App.SupportedFormats)
	if err != nil {
		return err
	}
	cc.OutputFormat = format
	cc.MaxFileSize = cfg.App.MaxFileSize
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ./config.yaml, $HOME/.atsscorer, /etc/atsscorer)")

	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(extractKeywordsCmd)
	rootCmd.AddCommand(improveBulletCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(versionCmd)
}
