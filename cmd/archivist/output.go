package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/vmunix/archivist/internal/archive"
	"github.com/vmunix/archivist/internal/dedup"
)

const (
	maxShownErrors = 10
	maxMessageLen  = 100
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed)
	dimColor  = color.New(color.Faint)
	headColor = color.New(color.Bold)
)

// consoleObserver prints bundle progress; per-video lines only when verbose.
type consoleObserver struct {
	w       io.Writer
	verbose bool
}

var _ archive.Observer = (*consoleObserver)(nil)

func newConsoleObserver(w io.Writer, verbose bool) *consoleObserver {
	return &consoleObserver{w: w, verbose: verbose}
}

func (o *consoleObserver) BundleStarted(name string, index, total int) {
	_, _ = headColor.Fprintf(o.w, "[%d/%d] %s\n", index+1, total, name)
}

func (o *consoleObserver) ItemResolved(item archive.ItemResult) {
	if !o.verbose {
		return
	}
	id := item.Record.ExternalID
	switch {
	case item.Err != nil:
		_, _ = errColor.Fprintf(o.w, "  ✗ %s %s\n", id, truncate(item.Err.Error(), maxMessageLen))
	case item.Decision == dedup.Upload:
		_, _ = okColor.Fprintf(o.w, "  ✓ %s %q -> %s%s\n", id, item.Record.Title, item.RemoteID, sizeSuffix(item.Record.MediaPath))
	case item.Decision == dedup.SkipDuplicateInBundle:
		_, _ = warnColor.Fprintf(o.w, "  = %s repeated in bundle\n", id)
	default:
		_, _ = dimColor.Fprintf(o.w, "  = %s already uploaded\n", id)
	}
}

func (o *consoleObserver) BundleFinished(res archive.BundleResult) {
	switch {
	case res.Err != nil:
		_, _ = errColor.Fprintf(o.w, "  bundle failed: %s\n", truncate(res.Err.Error(), maxMessageLen))
	case res.Processed:
		_, _ = fmt.Fprintf(o.w, "  %d videos: %d uploaded, %d duplicate, %d failed\n",
			res.Records, res.Uploaded, res.Duplicates, res.Failed)
	default:
		_, _ = warnColor.Fprintf(o.w, "  paused after %d uploaded; bundle stays pending\n", res.Uploaded)
	}
}

func sizeSuffix(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return " (" + humanize.Bytes(uint64(info.Size())) + ")"
}

// printSummary renders the end-of-run report.
func printSummary(w io.Writer, s *archive.Summary) {
	_, _ = fmt.Fprintln(w)
	title := "Summary"
	if s.DryRun {
		title = "Summary (dry run, nothing uploaded or saved)"
	}
	_, _ = headColor.Fprintln(w, title)

	_, _ = okColor.Fprintf(w, "  Uploaded:   %d\n", len(s.Uploaded))
	for _, u := range s.Uploaded {
		_, _ = fmt.Fprintf(w, "    %s  %s  (%s)\n", u.RemoteID, truncate(u.Title, maxMessageLen), u.Bundle)
	}
	_, _ = fmt.Fprintf(w, "  Duplicates: %d\n", s.Duplicates)
	_, _ = fmt.Fprintf(w, "  Bundles:    %d processed, %d pending\n", len(s.Processed), s.Pending)

	if len(s.BundleErrors) > 0 {
		_, _ = errColor.Fprintf(w, "  Bundle errors: %d\n", len(s.BundleErrors))
		lines := make([]string, len(s.BundleErrors))
		for i, e := range s.BundleErrors {
			lines[i] = fmt.Sprintf("%s: %s", e.Bundle, e.Message)
		}
		printCapped(w, lines)
	}

	if len(s.ItemErrors) > 0 {
		_, _ = errColor.Fprintf(w, "  Item errors: %d\n", len(s.ItemErrors))
		lines := make([]string, len(s.ItemErrors))
		for i, e := range s.ItemErrors {
			id := e.ExternalID
			if id == "" {
				id = "-"
			}
			lines[i] = fmt.Sprintf("%s/%s: %s", e.Bundle, id, e.Message)
		}
		printCapped(w, lines)
	}

	if s.StoppedEarly() {
		_, _ = warnColor.Fprintf(w, "  Stopped: %s\n", s.Stopped)
		if s.Stopped == archive.StopAuth {
			_, _ = fmt.Fprintln(w, "  Run 'archivist auth' to renew the token, then run again.")
		}
	}
}

func printCapped(w io.Writer, lines []string) {
	for i, line := range lines {
		if i == maxShownErrors {
			_, _ = fmt.Fprintf(w, "    +%d more\n", len(lines)-maxShownErrors)
			return
		}
		_, _ = fmt.Fprintf(w, "    %s\n", truncate(line, maxMessageLen))
	}
}

// truncate shortens s to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
