package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vmunix/archivist/internal/config"
	"github.com/vmunix/archivist/internal/logging"
)

var version = "dev"

var (
	configPath string
	logLevel   string
	envFile    string
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "archivist",
	Short: "Archive Facebook export bundles to YouTube",
	Long: `archivist - archive Facebook export bundles to YouTube

Drop export zips into the inbox and run 'archivist run'. Videos already
uploaded are never sent twice, and uploads stop at the daily cap; the next
run picks up where this one left off.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			color.NoColor = true
		}
		return config.LoadDotEnv(envFile)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: discovered)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before the config")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable coloured output")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("archivist {{.Version}}\n")
}

// loadConfig loads --config, or the discovered file, or falls back to
// defaults and the environment when no file exists.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		found, err := config.Discover()
		switch {
		case errors.Is(err, config.ErrNotFound):
			cfg, err := config.Default()
			if err != nil {
				return nil, err
			}
			if errs := cfg.Validate(); len(errs) > 0 {
				return nil, &config.Error{Errors: errs}
			}
			return cfg, nil
		case err != nil:
			return nil, err
		}
		path = found
	}
	return config.Load(path)
}

// newLogger builds the process logger; --log-level wins over the config.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	name := cfg.Log.Level
	if logLevel != "" {
		name = logLevel
	}
	level, err := logging.ParseLevel(name)
	if err != nil {
		return nil, err
	}
	log := logging.New(w, level, cfg.Log.Format, color.NoColor)
	slog.SetDefault(log)
	return log, nil
}

// setup is the common prologue of commands that need config and a logger.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		var cfgErr *config.Error
		if errors.As(err, &cfgErr) {
			return nil, nil, fmt.Errorf("configuration invalid (run 'archivist config test'):\n%w", err)
		}
		return nil, nil, err
	}
	log, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
