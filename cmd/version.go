package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("%s version: %s (%s, default model %s)\n", app, version, runtime.Version(), defaults["gemini.model"])
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
