package config

import (
	"fmt"
	"os"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

var validLogFormats = map[string]bool{
	"text": true, "json": true,
}

var validPrivacy = map[string]bool{
	"public": true, "unlisted": true, "private": true,
}

var validNetworks = map[string]bool{
	"tcp": true, "tcp4": true, "tcp6": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if c.Inbox.Dir == "" {
		errs = append(errs, "inbox.dir: required")
	}
	if len(c.Inbox.BundleExtensions) == 0 {
		errs = append(errs, "inbox.bundle_extensions: at least one extension required")
	}
	if c.Registry.Path == "" {
		errs = append(errs, "registry.path: required")
	}

	if c.Export.MetadataFile == "" {
		errs = append(errs, "export.metadata_file: required")
	}
	if len(c.Export.MediaExtensions) == 0 {
		errs = append(errs, "export.media_extensions: at least one extension required")
	}

	if c.Limits.MaxPerDay < 1 {
		errs = append(errs, fmt.Sprintf("limits.max_per_day: must be at least 1, got %d", c.Limits.MaxPerDay))
	}
	if c.Limits.MaxPerRun < 0 {
		errs = append(errs, fmt.Sprintf("limits.max_per_run: must not be negative, got %d", c.Limits.MaxPerRun))
	}

	if !validPrivacy[c.YouTube.Privacy] {
		errs = append(errs, fmt.Sprintf("youtube.privacy: must be one of public, unlisted, private; got %q", c.YouTube.Privacy))
	}
	if !validNetworks[c.YouTube.Network] {
		errs = append(errs, fmt.Sprintf("youtube.network: must be one of tcp, tcp4, tcp6; got %q", c.YouTube.Network))
	}
	if c.YouTube.Timeout <= 0 {
		errs = append(errs, fmt.Sprintf("youtube.timeout: must be positive, got %s", c.YouTube.Timeout))
	}

	if c.History.Enabled && c.History.Path == "" {
		errs = append(errs, "history.path: required when history is enabled")
	}

	if !validLogLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("log.level: must be one of debug, info, warn, error; got %q", c.Log.Level))
	}
	if !validLogFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("log.format: must be text or json; got %q", c.Log.Format))
	}

	if c.Gallery.Concurrency < 1 {
		errs = append(errs, fmt.Sprintf("gallery.concurrency: must be at least 1, got %d", c.Gallery.Concurrency))
	}

	return errs
}

// Warnings reports problems that do not stop a run, such as missing files
// that a later command will need.
func (c *Config) Warnings() []string {
	var warns []string
	if _, err := os.Stat(c.Inbox.Dir); os.IsNotExist(err) {
		warns = append(warns, fmt.Sprintf("inbox.dir: directory %q does not exist", c.Inbox.Dir))
	}
	if _, err := os.Stat(c.YouTube.ClientSecrets); os.IsNotExist(err) {
		warns = append(warns, fmt.Sprintf("youtube.client_secrets: file %q does not exist", c.YouTube.ClientSecrets))
	}
	return warns
}

// ValidateGallery checks the settings the gallery importer needs.
func (c *Config) ValidateGallery() []string {
	var errs []string
	if c.Gallery.ImagesDir == "" {
		errs = append(errs, "gallery.images_dir: required")
	}
	if c.Gallery.Bucket == "" {
		errs = append(errs, "gallery.bucket: required")
	}
	return errs
}
