// Package dedup decides, record by record, whether content may be uploaded.
package dedup

import (
	"github.com/vmunix/archivist/internal/bundle"
	"github.com/vmunix/archivist/internal/registry"
)

// Decision is the outcome of evaluating one record.
type Decision int

const (
	// Upload means the record should be sent to the platform now.
	Upload Decision = iota
	// SkipDuplicate means a previous run already uploaded it.
	SkipDuplicate
	// SkipDuplicateInBundle means the id already appeared earlier in this pass.
	SkipDuplicateInBundle
	// DeferRateLimited means today's cap is reached; the run must stop.
	DeferRateLimited
	// DeferRunLimit means this run's upload allowance is used up.
	DeferRunLimit
)

func (d Decision) String() string {
	switch d {
	case Upload:
		return "upload"
	case SkipDuplicate:
		return "duplicate"
	case SkipDuplicateInBundle:
		return "duplicate-in-bundle"
	case DeferRateLimited:
		return "rate-limited"
	case DeferRunLimit:
		return "run-limit"
	default:
		return "unknown"
	}
}

// Deferred reports whether d stops the pass without consuming the record.
func (d Decision) Deferred() bool {
	return d == DeferRateLimited || d == DeferRunLimit
}

// Limits bounds how much a run may upload.
type Limits struct {
	// MaxPerDay is the daily cap shared across runs.
	MaxPerDay int
	// MaxPerRun caps uploads in a single run. Zero means unlimited.
	MaxPerRun int
}

// Engine evaluates records against the registry. It holds the seen-set of
// one bundle pass and the upload count of the whole run; use Reset between
// bundles.
type Engine struct {
	reg    *registry.Registry
	limits Limits
	seen   map[string]struct{}
	run    int
}

// New creates an engine over reg.
func New(reg *registry.Registry, limits Limits) *Engine {
	return &Engine{
		reg:    reg,
		limits: limits,
		seen:   make(map[string]struct{}),
	}
}

// Decide classifies rec. A repeat within the current bundle wins over a
// prior-run match, including when the first copy was uploaded moments ago.
// Duplicates are detected before any limit check so they never consume budget.
func (e *Engine) Decide(rec bundle.Record) Decision {
	if _, ok := e.seen[rec.ExternalID]; ok {
		return SkipDuplicateInBundle
	}
	e.seen[rec.ExternalID] = struct{}{}

	if e.reg.IsUploaded(rec.ExternalID) || (rec.FileName != "" && e.reg.IsUploaded(rec.FileName)) {
		return SkipDuplicate
	}

	if !e.reg.CanUploadToday(e.limits.MaxPerDay) {
		return DeferRateLimited
	}
	if e.limits.MaxPerRun > 0 && e.run >= e.limits.MaxPerRun {
		return DeferRunLimit
	}
	return Upload
}

// Uploaded tells the engine a record was confirmed uploaded.
func (e *Engine) Uploaded() {
	e.run++
}

// RunCount returns the uploads confirmed so far in this run.
func (e *Engine) RunCount() int {
	return e.run
}

// Reset starts a new bundle pass. The run counter is kept.
func (e *Engine) Reset() {
	e.seen = make(map[string]struct{})
}
