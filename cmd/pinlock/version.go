package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pinlock-dev/pinlock/internal/version"
)

// versionCmd implements the version command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of pinlock",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("pinlock version %s\n", version.Full())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
