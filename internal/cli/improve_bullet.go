package cli

import (
	"context"
	"fmt"
	"strings"

	"atsscorer/internal/common"
	"atsscorer/internal/types"

	"github.com/spf13/cobra"
)

var improveBulletCmd = &cobra.Command{
	Use:   "improve-bullet [bullet text]",
	Short: "Rewrite one achievement bullet with the AI model",
	Long: `Ask the configured AI model to rewrite one achievement bullet so it leads
with an action verb and carries a measurable result. Both the original and the
rewrite are classified by the scorer. Requires an AI API key.`,
	Args: cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutput(cmd, &improveConfig.CommandConfig)
	},
	RunE: runImproveBullet,
}

var improveConfig struct {
	common.CommandConfig
	JobFile string
}

func init() {
	addOutputFlags(improveBulletCmd, &improveConfig.CommandConfig)
	improveBulletCmd.Flags().StringVarP(&improveConfig.JobFile, "job", "j", "", "Job description file to tailor the rewrite to")
}

func runImproveBullet(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return err
	}

	comps, err := buildComponents(cmd.Context(), cfg, logger, nil)
	if err != nil {
		return err
	}
	defer comps.Close()

	createInput := func(fp *common.FileProcessor, args []string) (types.ImproveBulletRequest, error) {
		jobDescription, err := fp.ReadJobDescription(improveConfig.JobFile)
		if err != nil {
			return types.ImproveBulletRequest{}, err
		}
		req := types.ImproveBulletRequest{
			Bullet:         strings.TrimSpace(strings.Join(args, " ")),
			JobDescription: jobDescription,
		}
		return req, types.Validate(req)
	}

	improveOperation := func(ctx context.Context, input types.ImproveBulletRequest) (*types.ImproveBulletResponse, error) {
		return comps.ai.ImproveBullet(ctx, input)
	}

	if err := common.RunCommand(cmd.Context(), logger, improveConfig.CommandConfig, args, createInput, improveOperation, nil); err != nil {
		return fmt.Errorf("failed to improve bullet: %w", err)
	}
	return nil
}
