// Package bundle unpacks export archives and turns their metadata into
// upload candidates.
package bundle

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Extraction is a bundle unpacked into a private temporary directory.
// Close removes the directory; callers should defer it right after Extract.
type Extraction struct {
	// Name is the bundle file name.
	Name string

	// Root is the directory holding the extracted tree.
	Root string
}

// Close deletes the extracted tree.
func (x *Extraction) Close() error {
	if x == nil || x.Root == "" {
		return nil
	}
	return os.RemoveAll(x.Root)
}

// Extract unpacks the zip archive at bundlePath under tempRoot (os.TempDir when
// empty). On failure nothing is left behind.
func Extract(bundlePath, tempRoot string) (*Extraction, error) {
	zr, err := zip.OpenReader(bundlePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptBundle, filepath.Base(bundlePath), err)
	}
	defer func() { _ = zr.Close() }()

	root, err := os.MkdirTemp(tempRoot, "bundle-*")
	if err != nil {
		return nil, fmt.Errorf("create extraction dir: %w", err)
	}

	for _, f := range zr.File {
		if err := extractFile(f, root); err != nil {
			_ = os.RemoveAll(root)
			return nil, err
		}
	}
	return &Extraction{Name: filepath.Base(bundlePath), Root: root}, nil
}

func extractFile(f *zip.File, root string) error {
	name := strings.ReplaceAll(f.Name, "\\", "/")
	dest := filepath.Join(root, filepath.FromSlash(name))
	if err := ValidatePath(dest, root); err != nil {
		return fmt.Errorf("%w: entry %q: %w", ErrCorruptBundle, f.Name, err)
	}

	mode := f.Mode()
	switch {
	case mode.IsDir():
		return os.MkdirAll(dest, 0o755)
	case !mode.IsRegular():
		// Symlinks and devices are never media.
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: open entry %q: %v", ErrCorruptBundle, f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return fmt.Errorf("%w: read entry %q: %v", ErrCorruptBundle, f.Name, err)
	}
	return out.Close()
}

// ValidatePath ensures path stays within root.
// Returns ErrPathTraversal if it would escape.
func ValidatePath(path, root string) error {
	cleanPath := filepath.Clean(path)
	cleanRoot := filepath.Clean(root)

	prefix := cleanRoot
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}

	if cleanPath != cleanRoot && !strings.HasPrefix(cleanPath, prefix) {
		return ErrPathTraversal
	}
	return nil
}
