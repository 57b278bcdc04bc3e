package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/vmunix/archivist/internal/fsx"
)

//go:embed default_config.toml
var defaultConfig string

// ErrExists is returned by WriteDefault when the target exists and force is off.
var ErrExists = errors.New("config file already exists")

// WriteDefault writes the example config to the specified path.
// Creates parent directories if needed.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
	}
	return fsx.WriteFileAtomic(path, []byte(defaultConfig), 0o644)
}
