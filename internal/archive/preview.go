package archive

import (
	"context"
	"fmt"
	"os"

	"github.com/vmunix/archivist/internal/bundle"
	"github.com/vmunix/archivist/internal/upload"
)

// previewPublisher stands in for the uploader in dry-run mode. It applies
// the same media check but never contacts the platform.
type previewPublisher struct{}

func (previewPublisher) Upload(_ context.Context, rec bundle.Record) (string, error) {
	info, err := os.Stat(rec.MediaPath)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", upload.ErrMissingMediaFile, rec.FileName)
	}
	return "dry-run-" + rec.ExternalID, nil
}
