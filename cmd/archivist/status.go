package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vmunix/archivist/internal/archive"
	"github.com/vmunix/archivist/internal/auth"
	"github.com/vmunix/archivist/internal/history"
	"github.com/vmunix/archivist/internal/registry"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show registry counts and pending bundles",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	store := registry.NewFileStore(cfg.Registry.Path, nil, log).ReadOnly()
	reg, err := store.Load()
	if err != nil {
		return err
	}

	controller := archive.NewController(archiveConfig(cfg, true), archive.Deps{Store: store, Log: log})
	pending, err := controller.PendingBundles(reg)
	if err != nil {
		return err
	}

	_, _ = headColor.Fprintln(w, "Registry")
	_, _ = fmt.Fprintf(w, "  Path:       %s\n", cfg.Registry.Path)
	_, _ = fmt.Fprintf(w, "  Uploaded:   %d videos\n", len(reg.UploadedIDs()))
	_, _ = fmt.Fprintf(w, "  Processed:  %d bundles\n", len(reg.ProcessedBundles()))

	today := reg.TodayCount()
	line := fmt.Sprintf("  Today:      %d / %d (%s)\n", today, cfg.Limits.MaxPerDay, reg.Today())
	if !reg.CanUploadToday(cfg.Limits.MaxPerDay) {
		_, _ = warnColor.Fprint(w, line)
	} else {
		_, _ = fmt.Fprint(w, line)
	}

	_, _ = headColor.Fprintln(w, "Inbox")
	_, _ = fmt.Fprintf(w, "  Path:       %s\n", cfg.Inbox.Dir)
	_, _ = fmt.Fprintf(w, "  Pending:    %d bundles\n", len(pending))
	for _, name := range pending {
		_, _ = fmt.Fprintf(w, "    %s\n", name)
	}

	provider := auth.NewProvider(cfg.YouTube.ClientSecrets, cfg.YouTube.TokenFile, nil, log)
	_, _ = headColor.Fprintln(w, "YouTube")
	if provider.HasToken() {
		_, _ = okColor.Fprintf(w, "  Token:      %s\n", cfg.YouTube.TokenFile)
	} else {
		_, _ = warnColor.Fprintln(w, "  Token:      missing (run 'archivist auth')")
	}

	if cfg.History.Enabled {
		hist, err := history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer func() { _ = hist.Close() }()
		counts, err := hist.Counts()
		if err != nil {
			return err
		}
		_, _ = headColor.Fprintln(w, "History")
		for _, ev := range []string{history.EventUploaded, history.EventDuplicate, history.EventFailed, history.EventMissing} {
			_, _ = fmt.Fprintf(w, "  %-10s  %d\n", ev+":", counts[ev])
		}
	}
	return nil
}
