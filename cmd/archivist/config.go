package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vmunix/archivist/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configTestCmd = &cobra.Command{
	Use:   "test [path]",
	Short: "Validate configuration file",
	Long:  "Validates config.toml syntax, required fields, and environment variable substitution without touching the inbox.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigTest,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

var configEnvCmd = &cobra.Command{
	Use:   "env",
	Short: "List the environment variables read by archivist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		help, err := config.EnvHelp()
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), help)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configTestCmd, configInitCmd, configEnvCmd)
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
}

func runConfigTest(cmd *cobra.Command, args []string) error {
	path := configPath
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		found, err := config.Discover()
		if err != nil {
			return err
		}
		path = found
	}

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "Validating %s...\n\n", path)

	cfg, err := config.Load(path)
	if err != nil {
		var configErr *config.Error
		if errors.As(err, &configErr) {
			printConfigErrors(w, configErr)
			return errors.New("configuration invalid")
		}
		return fmt.Errorf("failed to load config: %w", err)
	}

	if warnings := cfg.Warnings(); len(warnings) > 0 {
		_, _ = warnColor.Fprintln(w, "Warnings:")
		for _, msg := range warnings {
			_, _ = fmt.Fprintf(w, "  - %s\n", msg)
		}
		_, _ = fmt.Fprintln(w)
	}

	printConfigSummary(w, cfg)
	_, _ = okColor.Fprintln(w, "\nConfiguration valid!")
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	path := config.DefaultPath()
	if len(args) > 0 {
		path = args[0]
	}
	if err := config.WriteDefault(path, force); err != nil {
		if errors.Is(err, config.ErrExists) {
			return fmt.Errorf("%s already exists; use --force to overwrite", path)
		}
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func printConfigErrors(w io.Writer, e *config.Error) {
	if len(e.Missing) > 0 {
		_, _ = errColor.Fprintln(w, "Missing environment variables:")
		for _, m := range e.Missing {
			_, _ = fmt.Fprintf(w, "  - %s\n", m)
		}
		_, _ = fmt.Fprintln(w)
	}

	if len(e.Errors) > 0 {
		_, _ = errColor.Fprintln(w, "Validation errors:")
		for _, err := range e.Errors {
			_, _ = fmt.Fprintf(w, "  - %s\n", err)
		}
		_, _ = fmt.Fprintln(w)
	}
}

func printConfigSummary(w io.Writer, cfg *config.Config) {
	_, _ = fmt.Fprintln(w, "Configuration Summary:")
	_, _ = fmt.Fprintf(w, "  Inbox:      %s (%v)\n", cfg.Inbox.Dir, cfg.Inbox.BundleExtensions)
	_, _ = fmt.Fprintf(w, "  Registry:   %s\n", cfg.Registry.Path)
	_, _ = fmt.Fprintf(w, "  Limits:     %d per day", cfg.Limits.MaxPerDay)
	if cfg.Limits.MaxPerRun > 0 {
		_, _ = fmt.Fprintf(w, ", %d per run", cfg.Limits.MaxPerRun)
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "  YouTube:    %s, category %s (%s, timeout %s)\n",
		cfg.YouTube.Privacy, cfg.YouTube.CategoryID, cfg.YouTube.Network, cfg.YouTube.Timeout)
	if cfg.History.Enabled {
		_, _ = fmt.Fprintf(w, "  History:    %s\n", cfg.History.Path)
	}
	_, _ = fmt.Fprintf(w, "  Log:        %s (%s)\n", cfg.Log.Level, cfg.Log.Format)
	if cfg.Gallery.Bucket != "" {
		_, _ = fmt.Fprintf(w, "  Gallery:    %s -> s3://%s\n", cfg.Gallery.ImagesDir, cfg.Gallery.Bucket)
	}
}
