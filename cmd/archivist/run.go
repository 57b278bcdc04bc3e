package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vmunix/archivist/internal/archive"
	"github.com/vmunix/archivist/internal/auth"
	"github.com/vmunix/archivist/internal/bundle"
	"github.com/vmunix/archivist/internal/config"
	"github.com/vmunix/archivist/internal/dedup"
	"github.com/vmunix/archivist/internal/history"
	"github.com/vmunix/archivist/internal/registry"
	"github.com/vmunix/archivist/internal/upload"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process pending bundles in the inbox",
	Long: `Process every pending bundle in the inbox.

Each bundle is unpacked, its videos are checked against the registry and
uploaded until the daily cap is reached. A bundle is marked processed once
all of its videos have been handled.

Examples:
  archivist run              # Upload pending videos
  archivist run --dry-run    # Show what would be uploaded
  archivist run --verbose    # Print a line per video`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("dry-run", false, "Preview decisions without uploading or saving")
	runCmd.Flags().BoolP("verbose", "v", false, "Print a line for every video")
}

func archiveConfig(cfg *config.Config, dryRun bool) archive.Config {
	return archive.Config{
		InboxDir:         cfg.Inbox.Dir,
		TempDir:          cfg.Inbox.TempDir,
		BundleExtensions: cfg.Inbox.BundleExtensions,
		MetadataFile:     cfg.Export.MetadataFile,
		MediaExtensions:  cfg.Export.MediaExtensions,
		Records: bundle.RecordOptions{
			DefaultTitle: cfg.Export.DefaultTitle,
			DatePrefix:   cfg.Export.DatePrefix,
		},
		Limits: dedup.Limits{
			MaxPerDay: cfg.Limits.MaxPerDay,
			MaxPerRun: cfg.Limits.MaxPerRun,
		},
		DryRun: dryRun,
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := registry.NewFileStore(cfg.Registry.Path, nil, log)
	if dryRun {
		store = store.ReadOnly()
	}
	deps := archive.Deps{
		Store:    store,
		Observer: newConsoleObserver(cmd.OutOrStdout(), verbose),
		Log:      log,
	}

	if !dryRun {
		pub, err := newPublisher(ctx, cfg, log)
		if err != nil {
			return err
		}
		deps.Publisher = pub

		if cfg.History.Enabled {
			hist, err := history.Open(cfg.History.Path)
			if err != nil {
				return err
			}
			defer func() { _ = hist.Close() }()
			deps.History = hist
		}
	}

	controller := archive.NewController(archiveConfig(cfg, dryRun), deps)
	summary, err := controller.Run(ctx)
	if summary != nil {
		printSummary(cmd.OutOrStdout(), summary)
	}
	return err
}

// newPublisher wires the authorised YouTube client behind an orchestrator.
func newPublisher(ctx context.Context, cfg *config.Config, log *slog.Logger) (archive.Publisher, error) {
	base := upload.NewHTTPClient(upload.TransportConfig{
		Network: cfg.YouTube.Network,
		Timeout: cfg.YouTube.Timeout,
	})
	provider := auth.NewProvider(cfg.YouTube.ClientSecrets, cfg.YouTube.TokenFile, base, log)
	client, err := provider.Client(ctx)
	if err != nil {
		if errors.Is(err, auth.ErrAuthRequired) {
			return nil, fmt.Errorf("no YouTube token at %s: run 'archivist auth' first", cfg.YouTube.TokenFile)
		}
		return nil, err
	}

	uploader, err := upload.NewYouTubeUploader(ctx, client, log)
	if err != nil {
		return nil, err
	}
	return upload.NewOrchestrator(uploader, upload.Settings{
		CategoryID:    cfg.YouTube.CategoryID,
		PrivacyStatus: cfg.YouTube.Privacy,
	}, log), nil
}
