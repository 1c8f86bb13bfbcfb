package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pinlock-dev/pinlock/internal/infrastructure/lockfile"
)

var (
	renderLockPath string
	renderOutput   string
)

// renderCmd emits the legacy one-row-per-category view of a lock file.
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a lock file in the legacy per-category-row format",
	Long: `Render converts an existing lock file to the legacy format, where each
package appears once per category it belongs to. No solving happens; the
lock file itself is not modified.`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVar(&renderLockPath, "lockfile", "pinlock.lock.yml", "lock file to render")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "output file (default: stdout)")

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	store := lockfile.NewFileStore()
	lf, err := store.Load(cmd.Context(), renderLockPath)
	if err != nil {
		return err
	}
	if lf == nil {
		return fmt.Errorf("no lock file at %s", renderLockPath)
	}

	out := os.Stdout
	if renderOutput != "" {
		f, err := os.Create(renderOutput)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer func() {
			_ = f.Close() // Best-effort cleanup
		}()
		out = f
	}

	return lockfile.NewCodec().EncodeLegacy(out, lf)
}
