package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var verbosity int

var rootCmd = &cobra.Command{
	Use:   "face-search",
	Short: "Identify faces against a gallery of labeled reference photos",
	Long: `Face Search builds a gallery of face embeddings from a directory (or bucket) of
labeled reference photos, one identity per file, and identifies the face in a
probe image as the closest gallery identity under a cosine distance threshold.

The gallery is computed once and persisted to a file, Redis or PostgreSQL, so
later starts skip extraction entirely.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().IntVarP(&verbosity, "verbosity", "v", 0, "Log verbosity (1 logs every computed embedding)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
