package cmd

import (
	"github.com/spf13/cobra"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Gallery management commands",
	Long:  `Commands for building and inspecting the persisted face gallery.`,
}

func init() {
	rootCmd.AddCommand(galleryCmd)
}
