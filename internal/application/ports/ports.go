// Package ports defines the interfaces the application layer needs from
// its collaborators. The core consumes solver results and spec data purely
// through these contracts; solver invocation, credential handling, and
// environment management live behind them.
package ports

import (
	"context"

	"github.com/pinlock-dev/pinlock/internal/domain/entities"
	"github.com/pinlock-dev/pinlock/internal/domain/values"
)

// Solver supplies solved, concrete package sets per platform and manager.
// Implementations wrap an external resolution process; the core never
// inspects how the plan was produced, only the PlannedPackage contract.
type Solver interface {
	// Solve returns the planned packages for one (platform, manager)
	// pair, covering the requested roots and their transitive closure.
	Solve(ctx context.Context, platform values.Platform, manager values.Manager, roots []entities.RootRequest) ([]entities.PlannedPackage, error)
}

// LockfileStore handles lockfile persistence.
type LockfileStore interface {
	// Load reads a lockfile from the given path.
	// Returns nil, nil if no lockfile exists there.
	Load(ctx context.Context, path string) (*entities.Lockfile, error)

	// Save writes a lockfile to the given path. The write is atomic: a
	// failed save never leaves a partially written file behind.
	Save(ctx context.Context, lockfile *entities.Lockfile, path string) error

	// Exists checks if a lockfile exists at the given path.
	Exists(ctx context.Context, path string) (bool, error)
}

// SpecSource loads the user specification the lock derives from.
type SpecSource interface {
	// Load reads and validates a spec document.
	Load(ctx context.Context, path string) (*entities.LockSpec, error)
}
