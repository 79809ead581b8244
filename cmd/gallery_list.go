package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var galleryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the identities in the gallery",
	Long: `List the identities in the gallery, building it first if nothing is persisted.

Examples:
  face-search gallery list
  face-search gallery list --json`,
	Args: cobra.NoArgs,
	RunE: runGalleryList,
}

func init() {
	galleryCmd.AddCommand(galleryListCmd)

	galleryListCmd.Flags().Bool("json", false, "Output as JSON")
}

type galleryListOutput struct {
	Store string   `json:"store"`
	Count int      `json:"count"`
	Dim   int      `json:"dim"`
	Names []string `json:"names"`
}

func runGalleryList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()

	store, backend, err := openStore(ctx, cfg, newLogger(), newExtractor(cfg), nil)
	if err != nil {
		return err
	}
	defer backend.Close()

	g, _, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load gallery: %w", err)
	}

	names := g.Names()
	if names == nil {
		names = []string{}
	}

	if mustGetBool(cmd, "json") {
		return outputJSON(galleryListOutput{Store: backend.Location(), Count: g.Len(), Dim: g.Dim(), Names: names})
	}

	if g.IsEmpty() {
		fmt.Println("Gallery is empty")
		return nil
	}
	fmt.Printf("%d identities (%d-dimensional embeddings) in %s\n\n", g.Len(), g.Dim(), backend.Location())
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}
