package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/kozaktomas/face-search/internal/gallery"
	"github.com/spf13/cobra"
)

var galleryBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compute and persist the gallery from the reference images",
	Long: `Compute face embeddings for every reference image and persist the gallery.

If a valid persisted gallery already exists it is loaded instead, unless --force
is given. Images without a detectable face are skipped and listed in the summary.

Examples:
  # Build (or load) the gallery from DATASET_DIR
  face-search gallery build

  # Discard the persisted gallery and rebuild from scratch
  face-search gallery build --force

  # Print the full per-image report as JSON
  face-search gallery build --json`,
	Args: cobra.NoArgs,
	RunE: runGalleryBuild,
}

func init() {
	galleryCmd.AddCommand(galleryBuildCmd)

	galleryBuildCmd.Flags().Bool("force", false, "Discard the persisted gallery and rebuild it")
	galleryBuildCmd.Flags().Bool("json", false, "Output the build report as JSON")
	galleryBuildCmd.Flags().Int("workers", 0, "Parallel extractions (default from GALLERY_WORKERS)")
}

func runGalleryBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if workers := mustGetInt(cmd, "workers"); workers > 0 {
		cfg.Gallery.Workers = workers
	}
	force := mustGetBool(cmd, "force")
	jsonOutput := mustGetBool(cmd, "json")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := newLogger()
	var progress *barProgress
	var galleryProgress gallery.Progress
	if !jsonOutput {
		progress = &barProgress{}
		galleryProgress = progress
	}

	store, backend, err := openStore(ctx, cfg, logger, newExtractor(cfg), galleryProgress)
	if err != nil {
		return err
	}
	defer backend.Close()

	_, report, err := store.Reload(ctx, force)
	if progress != nil {
		progress.Finish()
	}
	if err != nil {
		return fmt.Errorf("gallery build failed: %w", err)
	}

	if jsonOutput {
		return outputJSON(report)
	}
	printBuildReport(report)
	return nil
}

func printBuildReport(report *gallery.Report) {
	if report.FromStore {
		fmt.Printf("Loaded %d identities from %s (use --force to rebuild)\n", report.Identities, report.Store)
		return
	}

	fmt.Printf("Source:      %s\n", report.Source)
	fmt.Printf("Store:       %s\n", report.Store)
	fmt.Printf("Candidates:  %d\n", report.Candidates)
	fmt.Printf("Identities:  %d\n", report.Identities)
	fmt.Printf("Skipped:     %d\n", report.Skipped())
	fmt.Printf("Duration:    %s\n", report.Duration.Round(time.Millisecond))

	if report.Discarded {
		fmt.Println("\nThe previous persisted gallery was corrupt and has been discarded.")
	}
	if report.SourceError != "" {
		fmt.Printf("\nReference images unavailable: %s\n", report.SourceError)
	}
	if report.SaveError != "" {
		fmt.Printf("\nWarning: gallery not persisted: %s\n", report.SaveError)
	}

	if report.Skipped() > 0 {
		fmt.Println("\nSkipped images:")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FILE\tREASON\tERROR")
		for _, o := range report.Outcomes {
			if o.Kind != gallery.OutcomeEmbedded {
				fmt.Fprintf(w, "%s\t%s\t%s\n", o.Filename, o.Kind, o.Error)
			}
		}
		w.Flush()
	}

	if len(report.Overwrites) > 0 {
		fmt.Println("\nDuplicate identity names (last file wins):")
		for _, ow := range report.Overwrites {
			fmt.Printf("  %s: %s replaced %s\n", ow.Name, ow.Winner, ow.Previous)
		}
	}
}
