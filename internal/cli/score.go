package cli

import (
	"context"
	"fmt"

	"atsscorer/internal/common"
	"atsscorer/internal/types"

	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score [resume-file]",
	Short: "Score a resume for ATS compatibility",
	Long: `Score a structured resume (JSON or YAML) for ATS compatibility.

The target is taken, in order of precedence, from --keywords, from the
resume's own targetKeywords, or from keywords extracted out of --job (or the
resume's targetJobDescription). Without any target the keyword component is
reported as neutral.

The report contains:
- Overall score and the keywords, formatting, content and impact components
- Issues ordered by severity, with matching suggestions
- Per-component insights with examples`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutput(cmd, &scoreConfig.CommandConfig)
	},
	RunE: runScore,
}

var scoreConfig struct {
	common.CommandConfig
	JobFile  string
	Keywords []string
	UseAI    bool
}

func init() {
	addOutputFlags(scoreCmd, &scoreConfig.CommandConfig)
	scoreCmd.Flags().StringVarP(&scoreConfig.JobFile, "job", "j", "", "Job description file (text, markdown or HTML)")
	scoreCmd.Flags().StringSliceVarP(&scoreConfig.Keywords, "keywords", "k", nil, "Explicit target keywords (comma separated)")
	scoreCmd.Flags().BoolVar(&scoreConfig.UseAI, "ai", false, "Extract target keywords with the configured AI model")
}

func runScore(cmd *cobra.Command, args []string) error {
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

	createInput := func(fp *common.FileProcessor, args []string) (types.ScoreRequest, error) {
		doc, err := fp.ReadDocument(args[0])
		if err != nil {
			return types.ScoreRequest{}, err
		}
		jobDescription, err := fp.ReadJobDescription(scoreConfig.JobFile)
		if err != nil {
			return types.ScoreRequest{}, err
		}
		return types.ScoreRequest{
			Resume:         doc,
			JobDescription: jobDescription,
			TargetKeywords: scoreConfig.Keywords,
			UseAI:          scoreConfig.UseAI,
		}, nil
	}

	logDetails := func(input types.ScoreRequest, cc common.CommandConfig) {
		logger.Info("Starting resume scoring",
			"resume", args[0],
			"job_chars", len(input.JobDescription),
			"target_keywords", len(input.TargetKeywords),
			"use_ai", input.UseAI,
			"output_format", cc.OutputFormat)
	}

	scoreOperation := func(ctx context.Context, input types.ScoreRequest) (types.ScoreReport, error) {
		return comps.ai.Score(ctx, input), nil
	}

	err = common.RunCommand(
		cmd.Context(),
		logger,
		scoreConfig.CommandConfig,
		args,
		createInput,
		scoreOperation,
		logDetails,
	)
	if err != nil {
		return fmt.Errorf("failed to score resume: %w", err)
	}
	logger.Info("Resume scoring completed successfully")
	return nil
}
