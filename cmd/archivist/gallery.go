package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/archivist/internal/config"
	"github.com/vmunix/archivist/internal/gallery"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Photo gallery tools",
}

var galleryImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Upload a photo gallery to an S3 bucket",
	Long: `Upload every photo listed in the gallery metadata file to S3.

Objects are keyed by date (YYYY/MM/DD/<unix>.<ext>) and carry the title,
description and original date as object metadata.`,
	Args: cobra.NoArgs,
	RunE: runGalleryImport,
}

func init() {
	rootCmd.AddCommand(galleryCmd)
	galleryCmd.AddCommand(galleryImportCmd)
	galleryImportCmd.Flags().Bool("dry-run", false, "Plan objects without contacting S3")
}

func galleryConfig(cfg *config.Config) gallery.Config {
	g := cfg.Gallery
	return gallery.Config{
		ImagesDir:       g.ImagesDir,
		MetadataFile:    g.MetadataFile,
		Bucket:          g.Bucket,
		Region:          g.Region,
		Endpoint:        g.Endpoint,
		AccessKeyID:     g.AccessKeyID,
		SecretAccessKey: g.SecretAccessKey,
		UsePathStyle:    g.UsePathStyle,
		Concurrency:     g.Concurrency,
	}
}

func runGalleryImport(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	if errs := cfg.ValidateGallery(); len(errs) > 0 {
		return fmt.Errorf("gallery configuration invalid:\n  - %s", strings.Join(errs, "\n  - "))
	}
	gcfg := galleryConfig(cfg)

	metadataPath := gcfg.MetadataFile
	if !filepath.IsAbs(metadataPath) {
		metadataPath = filepath.Join(gcfg.ImagesDir, metadataPath)
	}
	entries, err := gallery.LoadEntries(metadataPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client, err := gallery.NewClient(ctx, gcfg)
	if err != nil {
		return err
	}
	importer := gallery.NewImporter(client, gcfg, log)
	if !dryRun {
		if err := importer.EnsureBucket(ctx); err != nil {
			return err
		}
	}

	report, err := importer.Import(ctx, entries, dryRun)
	w := cmd.OutOrStdout()
	if dryRun {
		_, _ = headColor.Fprintln(w, "Gallery import (dry run)")
	} else {
		_, _ = headColor.Fprintln(w, "Gallery import")
	}
	_, _ = okColor.Fprintf(w, "  Uploaded: %d\n", report.Uploaded)
	_, _ = fmt.Fprintf(w, "  Skipped:  %d\n", report.Skipped)
	if report.Failed > 0 {
		_, _ = errColor.Fprintf(w, "  Failed:   %d\n", report.Failed)
	}
	return err
}
