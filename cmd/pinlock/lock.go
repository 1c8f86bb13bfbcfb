package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	appservices "github.com/pinlock-dev/pinlock/internal/application/services"
	"github.com/pinlock-dev/pinlock/internal/domain/values"
	"github.com/pinlock-dev/pinlock/internal/infrastructure/lockfile"
	"github.com/pinlock-dev/pinlock/internal/infrastructure/solver"
	specloader "github.com/pinlock-dev/pinlock/internal/infrastructure/spec"
)

var (
	lockSpecFile  string
	lockFilePath  string
	lockPlansDir  string
	lockPlatforms []string
	lockUpdates   []string
	lockWorkers   int
)

// lockCmd reconciles solver plans into the lock file.
var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Reconcile solver plans into a deterministic lock file",
	Long: `Lock reads the environment spec and the per-platform solve plans, propagates
usage categories from the requested roots through the dependency graph,
merges the result with any previous lock file, prunes orphaned packages, and
writes the new lock file atomically. If any platform fails, nothing is
written and the previous lock file is left untouched.`,
	RunE: runLock,
}

func init() {
	lockCmd.Flags().StringVarP(&lockSpecFile, "file", "f", "pinlock.yml", "environment spec file")
	lockCmd.Flags().StringVar(&lockFilePath, "lockfile", "pinlock.lock.yml", "lock file path")
	lockCmd.Flags().StringVar(&lockPlansDir, "plans", ".pinlock/plans", "directory of solver plan documents")
	lockCmd.Flags().StringArrayVarP(&lockPlatforms, "platform", "p", nil, "restrict the run to these platforms (repeatable)")
	lockCmd.Flags().StringArrayVar(&lockUpdates, "update", nil, "update only these packages and what they influence (repeatable)")
	lockCmd.Flags().IntVar(&lockWorkers, "workers", 0, "max platforms processed concurrently (0 = number of CPUs)")
	_ = viper.BindPFlag("workers", lockCmd.Flags().Lookup("workers"))

	rootCmd.AddCommand(lockCmd)
}

func runLock(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	lockSpec, err := specloader.NewLoader().Load(ctx, lockSpecFile)
	if err != nil {
		return err
	}

	platforms := make([]values.Platform, 0, len(lockPlatforms))
	for _, p := range lockPlatforms {
		platform, err := values.NewPlatform(p)
		if err != nil {
			return err
		}
		platforms = append(platforms, platform)
	}

	updates := make([]values.PackageName, 0, len(lockUpdates))
	for _, u := range lockUpdates {
		name, err := values.NewPackageName(u)
		if err != nil {
			return fmt.Errorf("--update: %w", err)
		}
		updates = append(updates, name)
	}

	service := appservices.NewLockService(
		solver.NewPlanDirSolver(lockPlansDir),
		lockfile.NewFileStore(),
		viper.GetInt("workers"),
	)

	locked, err := service.Lock(ctx, appservices.LockRequest{
		Spec:         lockSpec,
		LockfilePath: lockFilePath,
		Platforms:    platforms,
		UpdatedNames: updates,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Locked %d packages across %d platforms -> %s\n",
		locked.PackageCount(), len(locked.Platforms()), lockFilePath)
	return nil
}
