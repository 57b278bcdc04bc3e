package bundle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTitleLength is the longest title the video platform accepts, in runes.
const MaxTitleLength = 100

// Labels used by the export's label_values arrays.
const (
	LabelVideo       = "Video"
	LabelTitle       = "Title"
	LabelDescription = "Description"
)

// Record is one upload candidate extracted from bundle metadata.
type Record struct {
	// ExternalID is the dedup key: the numeric id embedded in the media file name.
	ExternalID string

	// FileName is the media file base name. Older registries stored these.
	FileName string

	Title       string
	Description string

	// MediaPath is where the media file should be inside the extraction.
	MediaPath string

	// CreatedAt is nil when the metadata carries no timestamp.
	CreatedAt *time.Time
}

// RecordOptions controls how titles are derived.
type RecordOptions struct {
	// DefaultTitle is used when an entry has no title.
	DefaultTitle string

	// DatePrefix prefixes titles with the creation date (YYYY-MM-DD - ).
	DatePrefix bool

	// Location is used for the date prefix. Defaults to time.Local.
	Location *time.Location
}

type metadataEntry struct {
	Timestamp   int64        `json:"timestamp"`
	LabelValues []labelValue `json:"label_values"`
}

type labelValue struct {
	Label string          `json:"label"`
	Value json.RawMessage `json:"value"`
	Media []mediaItem     `json:"media"`
}

type mediaItem struct {
	URI               string `json:"uri"`
	CreationTimestamp int64  `json:"creation_timestamp"`
}

// BuildRecords parses the metadata file and returns one record per usable
// entry, oldest first. Entries that cannot produce a record are reported in
// entryErrs (each wrapping ErrMalformedEntry) and do not fail the call.
// A metadata file that cannot be read or parsed at all is returned as err.
func BuildRecords(metadataPath, mediaDir string, opts RecordOptions) (records []Record, entryErrs []error, err error) {
	data, err := os.ReadFile(metadataPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read %s: %v", ErrMissingMetadata, filepath.Base(metadataPath), err)
	}

	rawEntries, err := splitEntries(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: parse %s: %v", ErrMissingMetadata, filepath.Base(metadataPath), err)
	}

	for i, raw := range rawEntries {
		rec, err := buildRecord(raw, mediaDir, opts)
		if err != nil {
			entryErrs = append(entryErrs, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		records = append(records, rec)
	}

	sortByCreation(records)
	return records, entryErrs, nil
}

// splitEntries accepts a top-level array, or an object whose first
// array-valued field (by key order) holds the entries.
func splitEntries(data []byte) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty metadata")
	}

	var entries []json.RawMessage
	if data[0] == '[' {
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, err
		}
		return entries, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := bytes.TrimSpace(obj[k])
		if len(v) > 0 && v[0] == '[' {
			if err := json.Unmarshal(v, &entries); err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			return entries, nil
		}
	}
	return nil, fmt.Errorf("no entry list found")
}

func buildRecord(raw json.RawMessage, mediaDir string, opts RecordOptions) (Record, error) {
	var e metadataEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedEntry, err)
	}

	media := e.media()
	if media == nil || strings.TrimSpace(media.URI) == "" {
		return Record{}, fmt.Errorf("%w: no video media uri", ErrMalformedEntry)
	}

	fileName := path.Base(strings.ReplaceAll(media.URI, "\\", "/"))
	id, ok := ExternalIDFromFileName(fileName)
	if !ok {
		return Record{}, fmt.Errorf("%w: no identifier in %q", ErrMalformedEntry, fileName)
	}

	var created *time.Time
	switch {
	case media.CreationTimestamp > 0:
		t := time.Unix(media.CreationTimestamp, 0)
		created = &t
	case e.Timestamp > 0:
		t := time.Unix(e.Timestamp, 0)
		created = &t
	}

	return Record{
		ExternalID:  id,
		FileName:    fileName,
		Title:       buildTitle(FixEncoding(e.label(LabelTitle)), created, opts),
		Description: FixEncoding(e.label(LabelDescription)),
		MediaPath:   filepath.Join(mediaDir, fileName),
		CreatedAt:   created,
	}, nil
}

func (e *metadataEntry) media() *mediaItem {
	for i := range e.LabelValues {
		lv := &e.LabelValues[i]
		if lv.Label == LabelVideo && len(lv.Media) > 0 {
			return &lv.Media[0]
		}
	}
	return nil
}

// label returns the string value of the first label_values item named label.
// Non-string values are ignored.
func (e *metadataEntry) label(label string) string {
	for _, lv := range e.LabelValues {
		if lv.Label != label || len(lv.Value) == 0 {
			continue
		}
		var s string
		if err := json.Unmarshal(lv.Value, &s); err == nil {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// ExternalIDFromFileName returns the longest run of ASCII digits in the file
// name stem. Facebook media names embed the numeric object id.
func ExternalIDFromFileName(name string) (string, bool) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	best, cur := "", 0
	for i := 0; i <= len(stem); i++ {
		if i < len(stem) && stem[i] >= '0' && stem[i] <= '9' {
			cur++
			continue
		}
		if cur > len(best) {
			best = stem[i-cur : i]
		}
		cur = 0
	}
	return best, best != ""
}

func buildTitle(title string, created *time.Time, opts RecordOptions) string {
	if title == "" {
		title = opts.DefaultTitle
	}
	if opts.DatePrefix && created != nil {
		loc := opts.Location
		if loc == nil {
			loc = time.Local
		}
		date := created.In(loc).Format("2006-01-02")
		if title == "" {
			title = date
		} else {
			title = date + " - " + title
		}
	}
	return SanitizeTitle(title)
}

// SanitizeTitle strips characters the video platform rejects, collapses
// whitespace and truncates to MaxTitleLength runes.
func SanitizeTitle(title string) string {
	title = strings.NewReplacer("<", "", ">", "").Replace(title)
	title = strings.Join(strings.Fields(title), " ")
	if utf8.RuneCountInString(title) > MaxTitleLength {
		runes := []rune(title)
		title = strings.TrimSpace(string(runes[:MaxTitleLength]))
	}
	return title
}

// sortByCreation orders records oldest first; undated records go last and
// keep their metadata order.
func sortByCreation(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].CreatedAt, records[j].CreatedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
}
