// Package archive drives a run: it walks the inbox, feeds each bundle's
// records through deduplication and upload, and keeps the registry current.
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/vmunix/archivist/internal/bundle"
	"github.com/vmunix/archivist/internal/dedup"
	"github.com/vmunix/archivist/internal/history"
	"github.com/vmunix/archivist/internal/registry"
	"github.com/vmunix/archivist/internal/upload"
)

// Publisher makes one upload attempt for a record. *upload.Orchestrator
// implements it.
type Publisher interface {
	Upload(ctx context.Context, rec bundle.Record) (string, error)
}

// HistoryRecorder receives every item outcome. *history.Store implements it.
type HistoryRecorder interface {
	Add(e *history.Entry) error
	RunID() string
}

// Config holds everything a run needs to know.
type Config struct {
	InboxDir         string
	TempDir          string
	BundleExtensions []string
	MetadataFile     string
	MediaExtensions  []string
	Records          bundle.RecordOptions
	Limits           dedup.Limits

	// DryRun previews the run against a copy of the registry. Nothing is
	// uploaded or saved.
	DryRun bool
}

// Deps are the collaborators of a Controller. Publisher may be nil in
// dry-run mode; History and Observer are optional.
type Deps struct {
	Store     registry.Store
	Publisher Publisher
	History   HistoryRecorder
	Observer  Observer
	Log       *slog.Logger
}

// Controller runs the pipeline. It is single-use per run and not safe for
// concurrent use.
type Controller struct {
	cfg       Config
	store     registry.Store
	publisher Publisher
	history   HistoryRecorder
	observer  Observer
	log       *slog.Logger
}

// NewController creates a controller.
func NewController(cfg Config, deps Deps) *Controller {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	obs := deps.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	pub := deps.Publisher
	if cfg.DryRun || pub == nil {
		pub = previewPublisher{}
	}
	return &Controller{
		cfg:       cfg,
		store:     deps.Store,
		publisher: pub,
		history:   deps.History,
		observer:  obs,
		log:       log.With("component", "archive"),
	}
}

// PendingBundles lists inbox files with a bundle extension that reg has not
// marked processed, sorted by name.
func (c *Controller) PendingBundles(reg *registry.Registry) ([]string, error) {
	entries, err := os.ReadDir(c.cfg.InboxDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInbox, err)
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !bundle.HasExtension(e.Name(), c.cfg.BundleExtensions) {
			continue
		}
		if reg.IsProcessed(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Run processes every pending bundle until the inbox is exhausted or a
// limit stops it. The returned error is non-nil only for failures that make
// continuing unsafe (the inbox or registry persistence); everything else is
// reported in the Summary.
func (c *Controller) Run(ctx context.Context) (*Summary, error) {
	reg, err := c.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}
	if c.cfg.DryRun {
		reg = reg.Clone()
	}

	summary := &Summary{DryRun: c.cfg.DryRun}
	if c.history != nil {
		summary.RunID = c.history.RunID()
	}

	pending, err := c.PendingBundles(reg)
	if err != nil {
		return summary, err
	}
	c.log.Info("run started", "pending", len(pending), "today", reg.TodayCount(),
		"max_per_day", c.cfg.Limits.MaxPerDay, "dry_run", c.cfg.DryRun)

	engine := dedup.New(reg, c.cfg.Limits)
	for i, name := range pending {
		if ctx.Err() != nil {
			summary.Stopped = StopCancelled
			summary.Pending = len(pending) - i
			break
		}

		stop, err := c.runBundle(ctx, reg, engine, name, i, len(pending), summary)
		if err != nil {
			summary.Pending = len(pending) - i
			return summary, err
		}
		if stop != StopNone {
			summary.Stopped = stop
			summary.Pending = len(pending) - i
			break
		}
	}

	c.log.Info("run finished",
		"uploaded", len(summary.Uploaded),
		"duplicates", summary.Duplicates,
		"item_errors", len(summary.ItemErrors),
		"bundle_errors", len(summary.BundleErrors),
		"stopped", string(summary.Stopped))
	return summary, nil
}

func (c *Controller) runBundle(ctx context.Context, reg *registry.Registry, engine *dedup.Engine,
	name string, index, total int, summary *Summary) (StopReason, error) {
	log := c.log.With("bundle", name)
	res := BundleResult{Name: name}
	c.observer.BundleStarted(name, index, total)
	defer func() { c.observer.BundleFinished(res) }()

	records, err := c.loadRecords(name, summary)
	if err != nil {
		log.Warn("bundle skipped", "error", err)
		res.Err = err
		summary.BundleErrors = append(summary.BundleErrors, BundleError{Bundle: name, Message: err.Error()})
		return StopNone, nil
	}
	defer func() { _ = records.extraction.Close() }()
	res.Records = len(records.list)

	engine.Reset()
	for _, rec := range records.list {
		if ctx.Err() != nil {
			log.Info("run cancelled")
			return StopCancelled, nil
		}

		item := ItemResult{Bundle: name, Record: rec, Decision: engine.Decide(rec)}
		switch item.Decision {
		case dedup.DeferRateLimited:
			log.Info("daily cap reached", "today", reg.TodayCount(), "max_per_day", c.cfg.Limits.MaxPerDay)
			return StopDailyCap, nil
		case dedup.DeferRunLimit:
			log.Info("run limit reached", "uploaded", engine.RunCount())
			return StopRunLimit, nil

		case dedup.SkipDuplicate:
			log.Debug("already uploaded", "external_id", rec.ExternalID)
			res.Duplicates++
			summary.Duplicates++
			c.record(name, rec, history.EventDuplicate, "", "")

		case dedup.SkipDuplicateInBundle:
			log.Warn("duplicate record in bundle", "external_id", rec.ExternalID)
			res.Duplicates++
			summary.Duplicates++
			c.record(name, rec, history.EventDuplicate, "", "repeated within bundle")

		case dedup.Upload:
			remoteID, err := c.publisher.Upload(ctx, rec)
			if err != nil {
				stop, handled := c.uploadStop(ctx, err)
				if handled {
					log.Warn("upload stopped run", "external_id", rec.ExternalID, "error", err)
					return stop, nil
				}
				log.Error("upload failed", "external_id", rec.ExternalID, "error", err)
				item.Err = err
				res.Failed++
				summary.ItemErrors = append(summary.ItemErrors, ItemError{
					Bundle: name, ExternalID: rec.ExternalID, Message: err.Error(),
				})
				event := history.EventFailed
				if errors.Is(err, upload.ErrMissingMediaFile) {
					event = history.EventMissing
				}
				c.record(name, rec, event, "", err.Error())
				break
			}

			reg.RecordUpload(rec.ExternalID)
			engine.Uploaded()
			if err := c.save(reg); err != nil {
				return StopNone, err
			}
			item.RemoteID = remoteID
			res.Uploaded++
			summary.Uploaded = append(summary.Uploaded, UploadedItem{
				Bundle: name, ExternalID: rec.ExternalID, Title: rec.Title, RemoteID: remoteID,
			})
			log.Info("uploaded", "external_id", rec.ExternalID, "remote_id", remoteID)
			c.record(name, rec, history.EventUploaded, remoteID, "")
		}
		c.observer.ItemResolved(item)
	}

	reg.MarkProcessed(name)
	if err := c.save(reg); err != nil {
		return StopNone, err
	}
	res.Processed = true
	summary.Processed = append(summary.Processed, name)
	log.Info("bundle processed", "records", res.Records, "uploaded", res.Uploaded, "duplicates", res.Duplicates)
	return StopNone, nil
}

type bundleRecords struct {
	extraction *bundle.Extraction
	list       []bundle.Record
}

// loadRecords extracts a bundle and builds its records. Malformed entries
// are added to the summary; the extraction is cleaned up on error.
func (c *Controller) loadRecords(name string, summary *Summary) (*bundleRecords, error) {
	x, err := bundle.Extract(filepath.Join(c.cfg.InboxDir, name), c.cfg.TempDir)
	if err != nil {
		return nil, err
	}

	meta, err := bundle.LocateMetadata(x.Root, c.cfg.MetadataFile)
	if err != nil {
		_ = x.Close()
		return nil, err
	}
	mediaDir, err := bundle.LocateMediaDirectory(x.Root, c.cfg.MediaExtensions)
	if err != nil {
		_ = x.Close()
		return nil, err
	}
	list, entryErrs, err := bundle.BuildRecords(meta, mediaDir, c.cfg.Records)
	if err != nil {
		_ = x.Close()
		return nil, err
	}

	for _, e := range entryErrs {
		c.log.Warn("skipping metadata entry", "bundle", name, "error", e)
		summary.ItemErrors = append(summary.ItemErrors, ItemError{Bundle: name, Message: e.Error()})
	}
	return &bundleRecords{extraction: x, list: list}, nil
}

// uploadStop reports whether err ends the run rather than just the item.
// Quota and credential failures would repeat for every remaining record, so
// the bundle is left pending instead.
func (c *Controller) uploadStop(ctx context.Context, err error) (StopReason, bool) {
	switch {
	case errors.Is(err, upload.ErrQuotaExceeded):
		return StopQuota, true
	case errors.Is(err, upload.ErrAuth):
		return StopAuth, true
	case ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		return StopCancelled, true
	default:
		return StopNone, false
	}
}

func (c *Controller) save(reg *registry.Registry) error {
	if c.cfg.DryRun {
		return nil
	}
	if err := c.store.Save(reg); err != nil {
		c.log.Error("registry save failed", "error", err)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

func (c *Controller) record(bundleName string, rec bundle.Record, event, remoteID, message string) {
	if c.history == nil || c.cfg.DryRun {
		return
	}
	err := c.history.Add(&history.Entry{
		Bundle:     bundleName,
		ExternalID: rec.ExternalID,
		Event:      event,
		RemoteID:   remoteID,
		Title:      rec.Title,
		Message:    message,
	})
	if err != nil {
		c.log.Warn("history write failed", "external_id", rec.ExternalID, "error", err)
	}
}
