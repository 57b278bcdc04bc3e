package bundle

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocateMetadata searches root recursively for a file called name and returns
// the first match in lexical walk order. Export layouts are not flat, so the
// file may sit several directories deep.
func LocateMetadata(root, name string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(d.Name(), name) {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walk %s: %w", root, err)
	}
	if found == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingMetadata, name)
	}
	return found, nil
}

// LocateMediaDirectory returns the first directory, in pre-order walk order,
// that directly contains at least one file with one of exts.
func LocateMediaDirectory(root string, exts []string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.Type().IsRegular() && HasExtension(e.Name(), exts) {
				found = path
				return fs.SkipAll
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walk %s: %w", root, err)
	}
	if found == "" {
		return "", fmt.Errorf("%w: extensions %s", ErrMissingMediaDirectory, strings.Join(exts, ","))
	}
	return found, nil
}

// HasExtension reports whether name ends in one of exts, ignoring case.
// Extensions may be given with or without the leading dot.
func HasExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if ext == e {
			return true
		}
	}
	return false
}
