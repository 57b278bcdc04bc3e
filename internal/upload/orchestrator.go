package upload

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/vmunix/archivist/internal/bundle"
)

// Settings are the per-upload values taken from configuration.
type Settings struct {
	CategoryID    string
	PrivacyStatus string
}

// Orchestrator turns records into a single upload attempt each.
type Orchestrator struct {
	uploader Uploader
	settings Settings
	log      *slog.Logger
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(uploader Uploader, settings Settings, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		uploader: uploader,
		settings: settings,
		log:      log.With("component", "orchestrator"),
	}
}

// Upload checks the media file and makes exactly one upload attempt.
// It does not retry; the caller decides what a failure means.
func (o *Orchestrator) Upload(ctx context.Context, rec bundle.Record) (string, error) {
	info, err := os.Stat(rec.MediaPath)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrMissingMediaFile, rec.FileName)
	}

	o.log.Info("uploading",
		"external_id", rec.ExternalID,
		"title", rec.Title,
		"size", humanize.Bytes(uint64(info.Size())))

	id, err := o.uploader.Upload(ctx, Video{
		Path:          rec.MediaPath,
		Title:         rec.Title,
		Description:   rec.Description,
		CategoryID:    o.settings.CategoryID,
		PrivacyStatus: o.settings.PrivacyStatus,
	})
	if err != nil {
		return "", err
	}
	return id, nil
}
