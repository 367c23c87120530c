package cli

import (
	"context"
	"fmt"

	"atsscorer/internal/auth"
	"atsscorer/internal/common"
	"atsscorer/internal/config"
	"atsscorer/internal/errors"
	"atsscorer/internal/storage"
	"atsscorer/internal/types"

	"github.com/spf13/cobra"
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Manage stored resumes",
	Long: `Store, fetch, list and delete resumes in the configured store
(storage.driver: memory, sqlite or postgres). Documents are scoped to --owner,
which defaults to the local user the HTTP API uses when authentication is off.`,
}

var resumeConfig struct {
	common.CommandConfig
	Owner string
}

var resumePutCmd = &cobra.Command{
	Use:   "put [id] [resume-file]",
	Short: "Store a resume under an id, replacing any previous version",
	Args:  cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutput(cmd, &resumeConfig.CommandConfig)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store storage.ResumeStore, logger *errors.Logger) error {
			createInput := func(fp *common.FileProcessor, args []string) (types.ResumeDocument, error) {
				return fp.ReadDocument(args[1])
			}
			save := func(ctx context.Context, doc types.ResumeDocument) (*types.StoredResume, error) {
				if err := types.Validate(doc); err != nil {
					return nil, err
				}
				return store.Save(ctx, resumeConfig.Owner, args[0], doc)
			}
			return common.RunCommand(ctx, logger, resumeConfig.CommandConfig, args, createInput, save, nil)
		})
	},
}

var resumeGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Print a stored resume",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutput(cmd, &resumeConfig.CommandConfig)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store storage.ResumeStore, logger *errors.Logger) error {
			stored, err := store.Load(ctx, resumeConfig.Owner, args[0])
			if err != nil {
				return err
			}
			return common.NewOutputHandler(logger).HandleOutput(stored, resumeConfig.CommandConfig)
		})
	},
}

var resumeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored resumes, newest first",
	Args:  cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutput(cmd, &resumeConfig.CommandConfig)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store storage.ResumeStore, logger *errors.Logger) error {
			summaries, err := store.List(ctx, resumeConfig.Owner)
			if err != nil {
				return err
			}
			if summaries == nil {
				summaries = []types.ResumeSummary{}
			}
			return common.NewOutputHandler(logger).HandleOutput(summaries, resumeConfig.CommandConfig)
		})
	},
}

var resumeDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a stored resume",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store storage.ResumeStore, logger *errors.Logger) error {
			if err := store.Delete(ctx, resumeConfig.Owner, args[0]); err != nil {
				return err
			}
			logger.Info("Resume deleted", "id", args[0], "owner", resumeConfig.Owner)
			return nil
		})
	},
}

// withStore opens the configured store for the duration of fn
func withStore(cmd *cobra.Command, fn func(context.Context, storage.ResumeStore, *errors.Logger) error) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return err
	}
	if cfg.Storage.Driver == "" || cfg.Storage.Driver == config.StorageMemory {
		logger.Warn("Storage driver is memory; documents will not outlive this command")
	}

	store, err := storage.Open(cmd.Context(), cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.LogError(err, "Failed to close resume store")
		}
	}()

	if err := fn(cmd.Context(), store, logger); err != nil {
		return fmt.Errorf("resume %s failed: %w", cmd.Name(), err)
	}
	return nil
}

func init() {
	resumeCmd.PersistentFlags().StringVar(&resumeConfig.Owner, "owner", auth.LocalUser.ID, "Owner the documents belong to")
	for _, c := range []*cobra.Command{resumePutCmd, resumeGetCmd, resumeListCmd} {
		addOutputFlags(c, &resumeConfig.CommandConfig)
	}

	resumeCmd.AddCommand(resumePutCmd)
	resumeCmd.AddCommand(resumeGetCmd)
	resumeCmd.AddCommand(resumeListCmd)
	resumeCmd.AddCommand(resumeDeleteCmd)
}
