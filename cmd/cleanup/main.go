package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qs3c/comment_go_server/config"
	"github.com/qs3c/comment_go_server/internal/database"
	"github.com/qs3c/comment_go_server/internal/pkg/logger"
	"github.com/qs3c/comment_go_server/internal/pkg/oss"
	"github.com/qs3c/comment_go_server/internal/repository"
	"github.com/qs3c/comment_go_server/internal/service"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Purge attachments that were reserved but never claimed",
		Example: `  cleanup --dry-run
  cleanup --batch 500 --config /etc/comments/config.yaml`,
		SilenceUsage: true,
		RunE:         runCleanup,
	}

	cmd.Flags().StringP("config", "c", "config.yaml", "Config file path")
	cmd.Flags().Bool("dry-run", true, "Only report expired attachments, don't delete them")
	cmd.Flags().Int("batch", 0, "Max attachments to purge (defaults to attachment.cleanup_batch)")

	return cmd
}

func runCleanup(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	batch, _ := cmd.Flags().GetInt("batch")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log := logger.New(cfg.Log)

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting database: %w", err)
	}

	store, err := oss.Open(&cfg.OSS)
	if err != nil {
		return fmt.Errorf("opening object store: %w", err)
	}

	if batch <= 0 {
		batch = cfg.Attachment.CleanupBatch
	}

	attachments := service.NewAttachmentService(repository.NewAttachmentRepository(db), store, cfg, log)
	result, err := attachments.PurgeExpired(cmd.Context(), batch, dryRun)
	if err != nil {
		return fmt.Errorf("purging attachments: %w", err)
	}

	log.WithField("dry_run", dryRun).
		WithField("scanned", result.Scanned).
		WithField("deleted", result.Deleted).
		WithField("failed", result.Failed).
		Info("cleanup finished")
	if dryRun && result.Scanned > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "dry run: nothing deleted, rerun with --dry-run=false to purge")
	}
	return nil
}
