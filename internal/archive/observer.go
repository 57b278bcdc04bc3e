package archive

import (
	"github.com/vmunix/archivist/internal/bundle"
	"github.com/vmunix/archivist/internal/dedup"
)

// ItemResult is the resolution of one record.
type ItemResult struct {
	Bundle   string
	Record   bundle.Record
	Decision dedup.Decision
	// RemoteID is set when the record was uploaded.
	RemoteID string
	// Err is set when an upload was attempted and failed.
	Err error
}

// BundleResult is the resolution of one bundle.
type BundleResult struct {
	Name       string
	Records    int
	Uploaded   int
	Duplicates int
	Failed     int
	// Processed reports whether the bundle was marked processed.
	Processed bool
	// Err is the bundle-level failure, if any.
	Err error
}

// Observer receives progress events from a run. Events are delivered on
// the run's goroutine, in order.
type Observer interface {
	BundleStarted(name string, index, total int)
	ItemResolved(item ItemResult)
	BundleFinished(res BundleResult)
}

type nopObserver struct{}

func (nopObserver) BundleStarted(string, int, int) {}
func (nopObserver) ItemResolved(ItemResult)        {}
func (nopObserver) BundleFinished(BundleResult)    {}
