package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/vmunix/archivist/internal/fsx"
)

// FormatVersion is written into every saved registry file.
const FormatVersion = 2

// ErrReadOnly is returned by Save on a store opened with ReadOnly.
var ErrReadOnly = errors.New("registry store is read-only")

// Store loads and persists a Registry.
type Store interface {
	Load() (*Registry, error)
	Save(r *Registry) error
}

// fileFormat is the on-disk JSON shape.
type fileFormat struct {
	Version          int            `json:"version"`
	UploadedIDs      []string       `json:"uploadedIds"`
	ProcessedBundles []string       `json:"processedBundles"`
	DailyCounts      map[string]int `json:"dailyCounts"`
}

// FileStore keeps the registry in a single JSON file.
type FileStore struct {
	path     string
	clock    Clock
	log      *slog.Logger
	readOnly bool
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a store backed by path.
func NewFileStore(path string, clock Clock, log *slog.Logger) *FileStore {
	if log == nil {
		log = slog.Default()
	}
	return &FileStore{
		path:  path,
		clock: clock,
		log:   log.With("component", "registry"),
	}
}

// ReadOnly returns a view of the same file that never writes: a malformed
// file is not copied aside and Save fails with ErrReadOnly.
func (s *FileStore) ReadOnly() *FileStore {
	ro := *s
	ro.readOnly = true
	return &ro
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the registry file. A missing, unreadable or malformed file yields
// an empty registry; it is never an error. The legacy format, a bare JSON list
// of uploaded names, is migrated into the uploaded set.
func (s *FileStore) Load() (*Registry, error) {
	r := New(s.clock)

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.log.Info("registry not found, starting fresh", "path", s.path)
		return r, nil
	}
	if err != nil {
		s.log.Warn("registry unreadable, starting fresh", "path", s.path, "error", err)
		return r, nil
	}

	if err := decode(data, r); err != nil {
		s.log.Warn("registry malformed, starting fresh", "path", s.path, "error", err)
		if !s.readOnly {
			s.preserveCorrupt(data)
		}
		return New(s.clock), nil
	}

	s.log.Debug("registry loaded",
		"path", s.path,
		"uploaded", len(r.uploaded),
		"processed_bundles", len(r.processed))
	return r, nil
}

// Save writes the full registry atomically.
func (s *FileStore) Save(r *Registry) error {
	if s.readOnly {
		return ErrReadOnly
	}
	f := fileFormat{
		Version:          FormatVersion,
		UploadedIDs:      r.UploadedIDs(),
		ProcessedBundles: r.ProcessedBundles(),
		DailyCounts:      r.DailyCounts(),
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	data = append(data, '\n')

	if err := fsx.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("save registry %s: %w", s.path, err)
	}
	return nil
}

// preserveCorrupt copies a malformed file aside so the next save does not
// destroy it. Best effort.
func (s *FileStore) preserveCorrupt(data []byte) {
	dst := s.path + ".corrupt-" + strconv.FormatInt(s.clock.now().Unix(), 10)
	if err := fsx.WriteFileAtomic(dst, data, 0o644); err != nil {
		s.log.Warn("could not preserve malformed registry", "path", dst, "error", err)
		return
	}
	s.log.Info("malformed registry preserved", "path", dst)
}

func decode(data []byte, r *Registry) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return errors.New("empty file")
	}

	switch trimmed[0] {
	case '[':
		var legacy []string
		if err := json.Unmarshal(trimmed, &legacy); err != nil {
			return fmt.Errorf("legacy list: %w", err)
		}
		for _, id := range legacy {
			if id != "" {
				r.uploaded[id] = struct{}{}
			}
		}
		return nil
	case '{':
		var f fileFormat
		if err := json.Unmarshal(trimmed, &f); err != nil {
			return fmt.Errorf("registry object: %w", err)
		}
		if f.Version > FormatVersion {
			return fmt.Errorf("unsupported registry version %d", f.Version)
		}
		for _, id := range f.UploadedIDs {
			if id != "" {
				r.uploaded[id] = struct{}{}
			}
		}
		for _, b := range f.ProcessedBundles {
			if b != "" {
				r.processed[b] = struct{}{}
			}
		}
		for day, n := range f.DailyCounts {
			if n > 0 {
				r.daily[day] = n
			}
		}
		return nil
	default:
		return fmt.Errorf("unexpected leading byte %q", trimmed[0])
	}
}

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}
