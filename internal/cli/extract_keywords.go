package cli

import (
	"context"
	"fmt"

	"atsscorer/internal/common"
	"atsscorer/internal/types"

	"github.com/spf13/cobra"
)

var extractKeywordsCmd = &cobra.Command{
	Use:   "extract-keywords [job-description-file]",
	Short: "Extract target keywords from a job description",
	Long: `Extract up to 40 target keywords and phrases from a job description.
HTML job postings are converted to text first. With --ai the configured model
is asked; on any model failure the heuristic extractor is used instead.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutput(cmd, &extractConfig.CommandConfig)
	},
	RunE: runExtractKeywords,
}

var extractConfig struct {
	common.CommandConfig
	UseAI bool
}

func init() {
	addOutputFlags(extractKeywordsCmd, &extractConfig.CommandConfig)
	extractKeywordsCmd.Flags().BoolVar(&extractConfig.UseAI, "ai", false, "Use the configured AI model")
}

func runExtractKeywords(cmd *cobra.Command, args []string) error {
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

	createInput := func(fp *common.FileProcessor, args []string) (types.KeywordExtractRequest, error) {
		jobDescription, err := fp.ReadJobDescription(args[0])
		if err != nil {
			return types.KeywordExtractRequest{}, err
		}
		req := types.KeywordExtractRequest{JobDescription: jobDescription, UseAI: extractConfig.UseAI}
		return req, types.Validate(req)
	}

	extractOperation := func(ctx context.Context, input types.KeywordExtractRequest) (types.KeywordExtractResponse, error) {
		return comps.ai.Keywords(ctx, input), nil
	}

	if err := common.RunCommand(cmd.Context(), logger, extractConfig.CommandConfig, args, createInput, extractOperation, nil); err != nil {
		return fmt.Errorf("failed to extract keywords: %w", err)
	}
	return nil
}
