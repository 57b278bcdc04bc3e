package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vmunix/archivist/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the upload history",
	Long: `Show recorded upload outcomes, most recent first.

Examples:
  archivist history                    # Last 20 entries
  archivist history --event failed     # Failed uploads only
  archivist history --run <run-id>     # One run`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().Int("limit", 20, "Maximum entries to show (0 for all)")
	historyCmd.Flags().String("event", "", "Filter by event: uploaded, duplicate, failed, missing")
	historyCmd.Flags().String("run", "", "Filter by run id")
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	event, _ := cmd.Flags().GetString("event")
	runID, _ := cmd.Flags().GetString("run")

	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return errors.New("history is disabled (set history.enabled = true)")
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	entries, err := store.List(history.Filter{RunID: runID, Event: event, Limit: limit})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "No history entries.")
		return nil
	}
	for _, e := range entries {
		c := dimColor
		switch e.Event {
		case history.EventUploaded:
			c = okColor
		case history.EventFailed, history.EventMissing:
			c = errColor
		}
		_, _ = c.Fprintf(w, "%-9s", e.Event)
		_, _ = fmt.Fprintf(w, " %-14s %-20s %-12s %s",
			humanize.Time(e.CreatedAt), e.ExternalID, e.RemoteID, truncate(e.Title, 60))
		if e.Message != "" {
			_, _ = fmt.Fprintf(w, "  [%s]", truncate(e.Message, maxMessageLen))
		}
		_, _ = fmt.Fprintln(w)
	}
	return nil
}
