package cli

import (
	"fmt"
	"os"

	"atsscorer/internal/errors"
	"atsscorer/internal/mcpserver"

	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the scoring tools over MCP stdio",
	Long: `Run a Model Context Protocol server on stdin/stdout exposing the
score_resume, extract_keywords and assess_bullet tools. Logs go to stderr so
they never corrupt the protocol stream.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	level, err := errors.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		return err
	}
	logger := errors.NewLoggerTo(os.Stderr, level)

	comps, err := buildComponents(cmd.Context(), cfg, logger, nil)
	if err != nil {
		return err
	}
	defer comps.Close()

	logger.Info("Starting MCP stdio server", "version", Version, "ai_enabled", comps.ai.Enabled())
	if err := mcpserver.Run(cmd.Context(), mcpserver.New(comps.ai, Version, logger)); err != nil {
		return fmt.Errorf("mcp server failed: %w", err)
	}
	return nil
}
