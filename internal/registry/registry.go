// Package registry tracks which content units have been uploaded, which bundles
// are fully processed, and how many uploads happened on each local calendar day.
package registry

import (
	"sort"
	"time"
)

// DateLayout is the key format of the daily counters.
const DateLayout = "2006-01-02"

// Clock returns the current time. The registry derives "today" from it.
type Clock func() time.Time

// Registry is the in-memory view of the persisted upload state.
// It is owned by a single run and is not safe for concurrent use.
type Registry struct {
	uploaded  map[string]struct{}
	processed map[string]struct{}
	daily     map[string]int
	clock     Clock
}

// New returns an empty registry. A nil clock means time.Now.
func New(clock Clock) *Registry {
	if clock == nil {
		clock = time.Now
	}
	return &Registry{
		uploaded:  make(map[string]struct{}),
		processed: make(map[string]struct{}),
		daily:     make(map[string]int),
		clock:     clock,
	}
}

// Today returns the local calendar date used for daily counters.
func (r *Registry) Today() string {
	return r.clock().Local().Format(DateLayout)
}

// TodayCount returns the number of uploads recorded today.
func (r *Registry) TodayCount() int {
	return r.daily[r.Today()]
}

// CanUploadToday reports whether today's upload count is below maxPerDay.
func (r *Registry) CanUploadToday(maxPerDay int) bool {
	return r.daily[r.Today()] < maxPerDay
}

// RecordUpload marks externalID as uploaded and bumps today's counter.
// The counter is incremented even when the id is already known: every call
// stands for one confirmed API upload.
func (r *Registry) RecordUpload(externalID string) {
	r.uploaded[externalID] = struct{}{}
	r.daily[r.Today()]++
}

// IsUploaded reports whether id has been recorded as uploaded.
func (r *Registry) IsUploaded(id string) bool {
	_, ok := r.uploaded[id]
	return ok
}

// IsProcessed reports whether the bundle has been fully processed.
func (r *Registry) IsProcessed(bundle string) bool {
	_, ok := r.processed[bundle]
	return ok
}

// MarkProcessed records a bundle as fully processed.
func (r *Registry) MarkProcessed(bundle string) {
	r.processed[bundle] = struct{}{}
}

// UploadedIDs returns the uploaded ids in sorted order.
func (r *Registry) UploadedIDs() []string {
	return sortedKeys(r.uploaded)
}

// ProcessedBundles returns the processed bundle names in sorted order.
func (r *Registry) ProcessedBundles() []string {
	return sortedKeys(r.processed)
}

// DailyCounts returns a copy of the per-day upload counters.
func (r *Registry) DailyCounts() map[string]int {
	out := make(map[string]int, len(r.daily))
	for k, v := range r.daily {
		out[k] = v
	}
	return out
}

// Clone returns a deep copy that shares only the clock.
func (r *Registry) Clone() *Registry {
	c := New(r.clock)
	for k := range r.uploaded {
		c.uploaded[k] = struct{}{}
	}
	for k := range r.processed {
		c.processed[k] = struct{}{}
	}
	for k, v := range r.daily {
		c.daily[k] = v
	}
	return c
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
