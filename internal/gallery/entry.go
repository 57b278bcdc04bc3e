// Package gallery copies a legacy photo gallery into an S3-compatible bucket.
// It is a one-shot importer: every entry is PUT once, with no retry state.
package gallery

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const dateLayout = "2006-01-02"

// Entry is one item of the gallery's metadata.json.
type Entry struct {
	PhotoURL    string `json:"photo_url"`
	Date        string `json:"date"`
	AproxDate   string `json:"aprox-date"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Object is a planned upload.
type Object struct {
	Key         string
	Path        string
	ContentType string
	Metadata    map[string]string
}

// LoadEntries reads the gallery metadata file.
func LoadEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gallery metadata: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse gallery metadata: %w", err)
	}
	return entries, nil
}

// Plan resolves e against imagesDir. Entries without an existing file or a
// parseable date return one of the skip errors.
func Plan(e Entry, imagesDir string) (Object, error) {
	if e.PhotoURL == "" {
		return Object{}, fmt.Errorf("%w: empty photo_url", ErrFileNotFound)
	}
	path := filepath.Join(imagesDir, e.PhotoURL)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return Object{}, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	exact := e.Date != ""
	raw := e.Date
	if !exact {
		raw = e.AproxDate
	}
	if raw == "" {
		return Object{}, fmt.Errorf("%w: %s", ErrNoDate, path)
	}
	date, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return Object{}, fmt.Errorf("%w: %s: %q", ErrBadDate, path, raw)
	}

	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectFile(path); err == nil {
		contentType = mt.String()
	}

	return Object{
		Key:         ObjectKey(date, filepath.Ext(path)),
		Path:        path,
		ContentType: contentType,
		Metadata: map[string]string{
			"title":       FoldASCII(e.Title),
			"description": FoldASCII(e.Description),
			"truedate":    strconv.FormatBool(exact),
		},
	}, nil
}

// ObjectKey returns YYYY/MM/DD/<unix><ext> for t in UTC.
func ObjectKey(t time.Time, ext string) string {
	t = t.UTC()
	return fmt.Sprintf("%s/%d%s", t.Format("2006/01/02"), t.Unix(), ext)
}

// FoldASCII decomposes s and drops everything outside ASCII, so "Café" becomes
// "Cafe". Object metadata only carries ASCII.
func FoldASCII(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	out, _, err := transform.String(t, s)
	if err != nil {
		return ""
	}
	return out
}
