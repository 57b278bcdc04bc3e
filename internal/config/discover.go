package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
)

// EnvConfigPath names the variable that pins the config file location.
const EnvConfigPath = "ARCHIVIST_CONFIG"

// ErrNotFound is returned by Discover when no config file exists.
var ErrNotFound = errors.New("config not found")

// DefaultPath is where 'config init' writes when no path is given:
// $XDG_CONFIG_HOME/archivist/config.toml, falling back to ~/.config.
func DefaultPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := homedir.Dir()
		if err != nil {
			return "archivist.toml"
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "archivist", "config.toml")
}

// searchPaths lists candidate files in priority order.
func searchPaths() []string {
	return []string{
		"archivist.toml",
		DefaultPath(),
		"/etc/archivist/config.toml",
	}
}

// Discover returns the config file to load. ARCHIVIST_CONFIG wins and must
// exist; otherwise the first existing entry of searchPaths is used.
func Discover() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%s=%s: %w", EnvConfigPath, p, err)
		}
		return p, nil
	}

	candidates := searchPaths()
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w (looked in %s)", ErrNotFound, strings.Join(candidates, ", "))
}

// LoadDotEnv loads variables from a .env file without overriding ones
// already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}
