package main

import (
	"fmt"

	"github.com/at-ishikawa/glossa/internal/acquisition"
	"github.com/at-ishikawa/glossa/internal/command"
	"github.com/at-ishikawa/glossa/internal/database"
	"github.com/at-ishikawa/glossa/internal/media"
	"github.com/spf13/cobra"
)

func newAcquireCommand() *cobra.Command {
	var workers int
	var prune bool

	cmd := &cobra.Command{
		Use:   "acquire",
		Short: "Download every clip the dictionary references into the clip directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				cfg.Acquisition.Workers = workers
			}
			if cmd.Flags().Changed("prune") {
				cfg.Acquisition.Prune = prune
			}

			repo, closeRepo, err := openRepository(cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = closeRepo()
			}()

			acquirer := acquisition.NewAcquirer(repo, media.NewClipStore(cfg.Media.ClipDirectory), command.NewExecRunner(), acquisition.Options{
				Workers:   cfg.Acquisition.Workers,
				UserAgent: cfg.Acquisition.UserAgent,
				YTDLPPath: cfg.Acquisition.YTDLPPath,
				Prune:     cfg.Acquisition.Prune,
			})
			defer acquirer.Close()

			summary, err := acquirer.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("acquirer.Run() > %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "downloaded %d, skipped %d, failed %d, pruned %d\n",
				summary.Downloaded, summary.Skipped, summary.Failed, summary.Pruned)
			return err
		},
	}
	cmd.Flags().IntVar(&workers, "workers", acquisition.DefaultWorkers, "number of concurrent downloads")
	cmd.Flags().BoolVar(&prune, "prune", false, "delete clips no dictionary entry references")
	return cmd
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the dictionary schema in the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := database.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("database.Open() > %w", err)
			}
			defer func() {
				_ = db.Close()
			}()

			if err := database.Migrate(cmd.Context(), db); err != nil {
				return fmt.Errorf("database.Migrate() > %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "migrated %s database\n", cfg.Database.Driver)
			return err
		},
	}
}
