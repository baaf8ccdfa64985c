package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dhanavadh/aiform-backend/internal"
	"github.com/dhanavadh/aiform-backend/internal/config"
	"github.com/dhanavadh/aiform-backend/internal/export"
	"github.com/dhanavadh/aiform-backend/internal/logger"
	"github.com/dhanavadh/aiform-backend/internal/services"
	"github.com/dhanavadh/aiform-backend/internal/storage"
)

var l *zap.Logger

var rootCmd = &cobra.Command{
	Use:   "maintenance",
	Short: "Offline maintenance for the form builder database",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		l, err = logger.New(cfg.Server.Environment, cfg.Log.Level)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if err := internal.InitDB(cfg, l); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		appConfig = cfg
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		internal.CloseDB()
		if l != nil {
			_ = l.Sync()
		}
	},
	SilenceUsage: true,
}

var appConfig *config.Config

var dryRun bool

var orphansCmd = &cobra.Command{
	Use:   "orphans",
	Short: "Remove responses whose form no longer exists",
	RunE: func(cmd *cobra.Command, args []string) error {
		responses := services.NewResponseService(internal.DB, nil, l)

		if dryRun {
			l.Info("Running in dry run mode, no changes will be made")
		}
		ids, err := responses.Orphans(cmd.Context(), dryRun)
		if err != nil {
			return err
		}

		for _, id := range ids {
			fmt.Fprintf(cmd.OutOrStdout(), "orphaned response %d\n", id)
		}
		if dryRun {
			fmt.Fprintf(cmd.OutOrStdout(), "%d orphaned responses would be removed\n", len(ids))
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%d orphaned responses removed\n", len(ids))
		}
		return nil
	},
}

var (
	exportFormID uint
	exportOut    string
	exportUpload bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a form's responses to an xlsx file",
	RunE: func(cmd *cobra.Command, args []string) error {
		var uploader storage.Uploader
		if exportUpload {
			if appConfig.GCS.BucketName == "" {
				return fmt.Errorf("--upload requires GCS_BUCKET_NAME")
			}
			gcsClient, err := storage.NewGCSClient(appConfig.GCS.BucketName, appConfig.GCS.CredentialsPath)
			if err != nil {
				return err
			}
			defer gcsClient.Close()
			uploader = gcsClient
		}

		exports := services.NewExportService(internal.DB, export.New(l), uploader)
		artifact, err := exports.Build(cmd.Context(), exportFormID, "")
		if err != nil {
			return err
		}

		out := exportOut
		if out == "" {
			out = artifact.Filename
		}
		if err := os.WriteFile(out, artifact.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
		l.Info("Export written",
			zap.Uint("form_id", exportFormID),
			zap.String("path", filepath.Clean(out)),
			zap.Int("rows", len(artifact.Table.Rows)),
			zap.Int("dropped", artifact.Table.Dropped),
		)

		if exportUpload {
			url, err := exports.Upload(cmd.Context(), exportFormID, artifact)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
		}
		return nil
	},
}

func init() {
	orphansCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be removed without making changes")

	exportCmd.Flags().UintVar(&exportFormID, "form", 0, "Form ID to export")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output path (defaults to the form title)")
	exportCmd.Flags().BoolVar(&exportUpload, "upload", false, "Also upload the file to the export bucket")
	_ = exportCmd.MarkFlagRequired("form")

	rootCmd.AddCommand(orphansCmd, exportCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatal(err)
	}
}
