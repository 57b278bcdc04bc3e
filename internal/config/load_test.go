package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "archivist.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))
	return cfgPath
}

func TestLoad_Valid(t *testing.T) {
	cfgPath := writeConfig(t, `
[inbox]
dir = "/srv/inbox"

[limits]
max_per_day = 10
max_per_run = 3

[youtube]
privacy = "unlisted"
timeout = "90s"
`)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "/srv/inbox", cfg.Inbox.Dir)
	assert.Equal(t, 10, cfg.Limits.MaxPerDay)
	assert.Equal(t, 3, cfg.Limits.MaxPerRun)
	assert.Equal(t, "unlisted", cfg.YouTube.Privacy)
	assert.Equal(t, 90*time.Second, cfg.YouTube.Timeout)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[inbox]\n"))
	require.NoError(t, err)

	assert.Equal(t, "./inbox", cfg.Inbox.Dir)
	assert.Equal(t, []string{".zip"}, cfg.Inbox.BundleExtensions)
	assert.Equal(t, "./data/registry.json", cfg.Registry.Path)
	assert.Equal(t, "live_videos.json", cfg.Export.MetadataFile)
	assert.Equal(t, []string{".mp4"}, cfg.Export.MediaExtensions)
	assert.Equal(t, 6, cfg.Limits.MaxPerDay)
	assert.Zero(t, cfg.Limits.MaxPerRun)
	assert.Equal(t, "22", cfg.YouTube.CategoryID)
	assert.Equal(t, "public", cfg.YouTube.Privacy)
	assert.Equal(t, "tcp4", cfg.YouTube.Network)
	assert.Equal(t, 5*time.Minute, cfg.YouTube.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 4, cfg.Gallery.Concurrency)
	assert.False(t, cfg.History.Enabled)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ARCHIVIST_MAX_PER_DAY", "2")
	t.Setenv("ARCHIVIST_MEDIA_EXTENSIONS", ".mp4,.mov")

	cfg, err := Load(writeConfig(t, "[limits]\nmax_per_day = 10\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Limits.MaxPerDay)
	assert.Equal(t, []string{".mp4", ".mov"}, cfg.Export.MediaExtensions)
}

func TestLoad_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })

	cfg, err := Load(writeConfig(t, "[registry]\npath = \"~/archivist/registry.json\"\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "archivist", "registry.json"), cfg.Registry.Path)
}

func TestLoad_MissingEnvVar(t *testing.T) {
	cfgPath := writeConfig(t, `
[gallery]
bucket = "${ARCHIVIST_TEST_MISSING_BUCKET}"
`)

	_, err := Load(cfgPath)
	require.Error(t, err, "expected error for missing env var")
	var cfgErr *Error
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{"ARCHIVIST_TEST_MISSING_BUCKET"}, cfgErr.Missing)
	assert.Equal(t, cfgPath, cfgErr.Path)
}

func TestLoad_ValidationError(t *testing.T) {
	cfgPath := writeConfig(t, `
[youtube]
privacy = "everyone"
`)

	_, err := Load(cfgPath)
	require.Error(t, err, "expected error for invalid privacy")
	assert.True(t, strings.Contains(err.Error(), "youtube.privacy"), "got %v", err)
}

func TestLoadWithoutValidation(t *testing.T) {
	cfg, err := LoadWithoutValidation(writeConfig(t, "[youtube]\nprivacy = \"everyone\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "everyone", cfg.YouTube.Privacy)
}

func TestLoad_EnvVarDefault(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[inbox]
dir = "${ARCHIVIST_TEST_OPTIONAL_INBOX:-/data/inbox}"
`))
	require.NoError(t, err)
	assert.Equal(t, "/data/inbox", cfg.Inbox.Dir)
}

func TestLoad_BadTOML(t *testing.T) {
	_, err := Load(writeConfig(t, "[inbox\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestDefault(t *testing.T) {
	t.Setenv("BUCKET_NAME", "photos")

	cfg, err := Default()
	require.NoError(t, err)
	assert.Empty(t, cfg.Validate())
	assert.Equal(t, "photos", cfg.Gallery.Bucket)
}

func TestEnvHelp(t *testing.T) {
	help, err := EnvHelp()
	require.NoError(t, err)
	assert.Contains(t, help, "ARCHIVIST_MAX_PER_DAY")
	assert.Contains(t, help, "BUCKET_NAME")
}
