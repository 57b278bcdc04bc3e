package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/vmunix/archivist/internal/archive"
	"github.com/vmunix/archivist/internal/bundle"
	"github.com/vmunix/archivist/internal/dedup"
)

func init() {
	color.NoColor = true
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefghi…", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ééé", truncate("ééé", 3))
	assert.Len(t, []rune(truncate(strings.Repeat("x", 500), maxMessageLen)), maxMessageLen)
}

func TestPrintSummary(t *testing.T) {
	s := &archive.Summary{
		Uploaded: []archive.UploadedItem{
			{Bundle: "a.zip", ExternalID: "111", Title: "First", RemoteID: "yt1"},
		},
		Duplicates: 3,
		Processed:  []string{"a.zip"},
		Pending:    1,
		Stopped:    archive.StopDailyCap,
	}

	var buf bytes.Buffer
	printSummary(&buf, s)
	out := buf.String()

	assert.Contains(t, out, "Uploaded:   1")
	assert.Contains(t, out, "yt1  First  (a.zip)")
	assert.Contains(t, out, "Duplicates: 3")
	assert.Contains(t, out, "1 processed, 1 pending")
	assert.Contains(t, out, "Stopped: daily upload cap reached")
	assert.NotContains(t, out, "dry run")
	assert.NotContains(t, out, "errors")
}

func TestPrintSummary_CapsErrors(t *testing.T) {
	s := &archive.Summary{}
	for i := 0; i < 13; i++ {
		s.ItemErrors = append(s.ItemErrors, archive.ItemError{
			Bundle:     "b.zip",
			ExternalID: fmt.Sprint(i),
			Message:    strings.Repeat("m", 300),
		})
	}
	s.BundleErrors = []archive.BundleError{{Bundle: "c.zip", Message: "corrupt"}}

	var buf bytes.Buffer
	printSummary(&buf, s)
	out := buf.String()

	assert.Contains(t, out, "Item errors: 13")
	assert.Contains(t, out, "+3 more")
	assert.Contains(t, out, "Bundle errors: 1")
	assert.Contains(t, out, "c.zip: corrupt")
	assert.Equal(t, 10, strings.Count(out, "b.zip/"))
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, len([]rune(strings.TrimSpace(line))), maxMessageLen)
	}
}

func TestPrintSummary_AuthHint(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, &archive.Summary{Stopped: archive.StopAuth, Pending: 1})
	assert.Contains(t, buf.String(), "Stopped: platform credentials rejected")
	assert.Contains(t, buf.String(), "archivist auth")
}

func TestPrintSummary_DryRun(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, &archive.Summary{DryRun: true})
	assert.Contains(t, buf.String(), "dry run")
	assert.NotContains(t, buf.String(), "Stopped")
}

func TestConsoleObserver(t *testing.T) {
	rec := bundle.Record{ExternalID: "42", Title: "Live", MediaPath: "/nonexistent/42.mp4"}

	tests := []struct {
		name    string
		verbose bool
		item    archive.ItemResult
		want    string
	}{
		{"quiet", false, archive.ItemResult{Record: rec, Decision: dedup.Upload, RemoteID: "yt"}, ""},
		{"uploaded", true, archive.ItemResult{Record: rec, Decision: dedup.Upload, RemoteID: "yt"}, "✓ 42 \"Live\" -> yt\n"},
		{"duplicate", true, archive.ItemResult{Record: rec, Decision: dedup.SkipDuplicate}, "already uploaded"},
		{"in bundle", true, archive.ItemResult{Record: rec, Decision: dedup.SkipDuplicateInBundle}, "repeated in bundle"},
		{"failed", true, archive.ItemResult{Record: rec, Decision: dedup.Upload, Err: errors.New("boom")}, "✗ 42 boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			newConsoleObserver(&buf, tt.verbose).ItemResolved(tt.item)
			if tt.want == "" {
				assert.Empty(t, buf.String())
				return
			}
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestConsoleObserver_Bundles(t *testing.T) {
	var buf bytes.Buffer
	o := newConsoleObserver(&buf, false)

	o.BundleStarted("a.zip", 0, 2)
	o.BundleFinished(archive.BundleResult{Name: "a.zip", Records: 4, Uploaded: 2, Duplicates: 1, Failed: 1, Processed: true})
	o.BundleStarted("b.zip", 1, 2)
	o.BundleFinished(archive.BundleResult{Name: "b.zip", Uploaded: 1})
	o.BundleFinished(archive.BundleResult{Name: "c.zip", Err: errors.New("bad zip")})

	out := buf.String()
	assert.Contains(t, out, "[1/2] a.zip")
	assert.Contains(t, out, "4 videos: 2 uploaded, 1 duplicate, 1 failed")
	assert.Contains(t, out, "[2/2] b.zip")
	assert.Contains(t, out, "paused after 1 uploaded")
	assert.Contains(t, out, "bundle failed: bad zip")
}
