package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/kozaktomas/face-search/internal/matcher"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <image>",
	Short: "Identify the face in a local image",
	Long: `Identify the face in a local image against the gallery.

The gallery is loaded from the persisted store, or built from the reference
images if nothing is persisted yet.

Examples:
  face-search search probe.jpg

  # Use a stricter threshold (lower = stricter)
  face-search search probe.jpg --threshold 0.3

  # Output as JSON
  face-search search probe.jpg --json`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().Float64("threshold", 0, "Maximum cosine distance for a match (default from MATCH_THRESHOLD, 0.4)")
	searchCmd.Flags().Bool("json", false, "Output as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if threshold := mustGetFloat64(cmd, "threshold"); threshold != 0 {
		cfg.Match.Threshold = threshold
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	logger := newLogger()
	m, err := matcher.New(cfg.Match.Threshold, logger.WithName("matcher"))
	if err != nil {
		return err
	}

	ctx := context.Background()
	ext := newExtractor(cfg)

	store, backend, err := openStore(ctx, cfg, logger, ext, nil)
	if err != nil {
		return err
	}
	defer backend.Close()

	g, _, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load gallery: %w", err)
	}

	embedding, err := ext.Extract(ctx, data)
	if err != nil {
		return fmt.Errorf("failed to extract probe embedding: %w", err)
	}

	result, err := m.Match(embedding, g)
	if err != nil {
		if errors.Is(err, matcher.ErrInvalidProbe) {
			return fmt.Errorf("probe cannot be matched against this gallery: %w", err)
		}
		return err
	}

	if mustGetBool(cmd, "json") {
		return outputJSON(result)
	}

	switch {
	case result.Status == matcher.StatusEmptyGallery:
		fmt.Println("Gallery is empty, no identities to match against")
	case result.Matched():
		fmt.Printf("%s (distance %.4f, threshold %.2f)\n", result.Name, result.Distance, m.Threshold())
	default:
		fmt.Printf("%s (no identity within threshold %.2f)\n", result.Name, m.Threshold())
	}
	return nil
}
