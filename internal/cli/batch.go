package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"atsscorer/internal/ai"
	"atsscorer/internal/common"
	"atsscorer/internal/errors"
	"atsscorer/internal/export"
	"atsscorer/internal/types"
	"atsscorer/internal/utils"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var batchCmd = &cobra.Command{
	Use:   "batch [resume-directory]",
	Short: "Score every resume in a directory and rank them",
	Long: `Score every JSON or YAML resume in a directory against one job description
or keyword list and print a ranked table. Documents that fail to load are
listed at the end with their error.

With --xlsx a workbook is also written with a Summary sheet (averages and
score distribution) and a Ranked sheet (one row per document).`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutput(cmd, &batchConfig.CommandConfig)
	},
	RunE: runBatch,
}

var batchConfig struct {
	common.CommandConfig
	JobFile  string
	Keywords []string
	UseAI    bool
	XLSXFile string
}

func init() {
	addOutputFlags(batchCmd, &batchConfig.CommandConfig)
	batchCmd.Flags().StringVarP(&batchConfig.JobFile, "job", "j", "", "Job description file (text, markdown or HTML)")
	batchCmd.Flags().StringSliceVarP(&batchConfig.Keywords, "keywords", "k", nil, "Explicit target keywords (comma separated)")
	batchCmd.Flags().BoolVar(&batchConfig.UseAI, "ai", false, "Extract target keywords with the configured AI model")
	batchCmd.Flags().StringVar(&batchConfig.XLSXFile, "xlsx", "", "Also write a spreadsheet report to this file")
}

// batchInput is one job target and every document path to score against it
type batchInput struct {
	Target types.ScoreRequest
	Paths  []string
	fp     *common.FileProcessor
}

func runBatch(cmd *cobra.Command, args []string) error {
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

	createInput := func(fp *common.FileProcessor, args []string) (batchInput, error) {
		paths, err := utils.ListDocuments(args[0])
		if err != nil {
			return batchInput{}, errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to list resume directory", err).
				WithContext("dir", args[0])
		}
		if len(paths) == 0 {
			return batchInput{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("no .json, .yaml or .yml resumes found in %s", args[0]), nil)
		}
		jobDescription, err := fp.ReadJobDescription(batchConfig.JobFile)
		if err != nil {
			return batchInput{}, err
		}
		return batchInput{
			Target: types.ScoreRequest{
				JobDescription: jobDescription,
				TargetKeywords: batchConfig.Keywords,
				UseAI:          batchConfig.UseAI,
			},
			Paths: paths,
			fp:    fp,
		}, nil
	}

	logDetails := func(input batchInput, cc common.CommandConfig) {
		logger.Info("Starting batch scoring",
			"dir", args[0],
			"documents", len(input.Paths),
			"concurrency", cfg.Scoring.BatchConcurrency,
			"output_format", cc.OutputFormat)
	}

	batchOperation := func(ctx context.Context, input batchInput) ([]types.BatchEntry, error) {
		entries := scoreBatch(ctx, comps.ai, input, cfg.Scoring.BatchConcurrency)
		if batchConfig.XLSXFile == "" {
			return entries, nil
		}
		path, err := export.WriteXLSX(batchConfig.XLSXFile, export.BatchReport{
			JobSource: batchConfig.JobFile,
			Generated: time.Now(),
			Entries:   entries,
		})
		if err != nil {
			return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to write spreadsheet report", err).
				WithContext("file", batchConfig.XLSXFile)
		}
		logger.Info("Spreadsheet report written", "file", path)
		return entries, nil
	}

	if err := common.RunCommand(cmd.Context(), logger, batchConfig.CommandConfig, args, createInput, batchOperation, logDetails); err != nil {
		return fmt.Errorf("failed to score batch: %w", err)
	}
	return nil
}

// scoreBatch loads and scores each document, keeping input order. A document
// that cannot be read becomes an entry carrying the error.
func scoreBatch(ctx context.Context, svc *ai.Service, input batchInput, concurrency int) []types.BatchEntry {
	if concurrency <= 0 {
		concurrency = 1
	}

	// extract once so every document is measured against the same list
	target := input.Target
	target.TargetKeywords = svc.Extractor.Targets(ctx, target)
	target.UseAI = false

	entries := make([]types.BatchEntry, len(input.Paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, path := range input.Paths {
		g.Go(func() error {
			entry := types.BatchEntry{Source: filepath.Base(path)}
			doc, err := input.fp.ReadDocument(path)
			if err != nil {
				entry.Error = err.Error()
				entries[i] = entry
				return nil
			}
			req := target
			req.Resume = doc
			report := svc.Score(ctx, req)
			entry.FullName = doc.PersonalInfo.FullName
			entry.Report = &report
			entries[i] = entry
			return nil
		})
	}
	_ = g.Wait()
	return entries
}
