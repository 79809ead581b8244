package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// mustGet reads a flag with getter or panics. Flags are registered in init(), so a
// lookup failure is a programming bug rather than user error.
func mustGet[T any](name string, getter func(string) (T, error)) T {
	val, err := getter(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

func mustGetBool(cmd *cobra.Command, name string) bool {
	return mustGet(name, cmd.Flags().GetBool)
}

func mustGetInt(cmd *cobra.Command, name string) int {
	return mustGet(name, cmd.Flags().GetInt)
}

func mustGetString(cmd *cobra.Command, name string) string {
	return mustGet(name, cmd.Flags().GetString)
}

func mustGetFloat64(cmd *cobra.Command, name string) float64 {
	return mustGet(name, cmd.Flags().GetFloat64)
}
