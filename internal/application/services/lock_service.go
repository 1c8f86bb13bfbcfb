// Package services orchestrates the per-platform lock pipelines over the
// domain engine and the persistence ports.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pinlock-dev/pinlock/internal/application/apperrors"
	"github.com/pinlock-dev/pinlock/internal/application/ports"
	"github.com/pinlock-dev/pinlock/internal/domain/entities"
	"github.com/pinlock-dev/pinlock/internal/domain/services"
	"github.com/pinlock-dev/pinlock/internal/domain/values"
)

// LockService runs the full reconciliation pipeline: solve, graph build,
// category propagation, merge with the previous lockfile, and the final
// all-or-nothing write.
type LockService struct {
	solver     ports.Solver
	store      ports.LockfileStore
	reconciler *services.Reconciler
	workers    int
}

// NewLockService creates a new LockService. workers bounds the number of
// platforms processed concurrently; zero or negative means one worker per
// available CPU.
func NewLockService(solver ports.Solver, store ports.LockfileStore, workers int) *LockService {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &LockService{
		solver:     solver,
		store:      store,
		reconciler: services.NewReconciler(),
		workers:    workers,
	}
}

// LockRequest describes one lock run.
type LockRequest struct {
	Spec         *entities.LockSpec
	LockfilePath string

	// Platforms restricts the run to a subset of the spec's platforms.
	// Entries for unselected platforms are carried over from the previous
	// lockfile untouched. Empty means all spec platforms.
	Platforms []values.Platform

	// UpdatedNames asks for an incremental update limited to these
	// packages and whatever their change influences. Empty means a full
	// re-solve of each selected platform whose spec hash went stale.
	UpdatedNames []values.PackageName
}

// platformResult is written only by the goroutine that owns its slot.
type platformResult struct {
	platform values.Platform
	packages []entities.LockedPackage
}

// Lock executes the run and persists the resulting lockfile. If any
// selected platform fails, nothing is written and the previous lockfile
// remains untouched.
func (s *LockService) Lock(ctx context.Context, req LockRequest) (*entities.Lockfile, error) {
	if req.Spec == nil {
		return nil, fmt.Errorf("lock: spec is required")
	}
	if err := req.Spec.Validate(); err != nil {
		return nil, fmt.Errorf("lock: %w", err)
	}

	runID := uuid.NewString()
	log := slog.With("run", runID)

	previous, err := s.store.Load(ctx, req.LockfilePath)
	if err != nil {
		return nil, fmt.Errorf("loading previous lockfile: %w", err)
	}

	selected, err := s.selectPlatforms(req)
	if err != nil {
		return nil, err
	}

	hashes, err := req.Spec.ContentHashes()
	if err != nil {
		return nil, err
	}

	// One goroutine per platform; all work for a platform is a single
	// atomic unit inside its goroutine. The only cross-goroutine data is
	// the pre-allocated result slot each goroutine owns.
	results := make([]platformResult, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, platform := range selected {
		i, platform := i, platform
		g.Go(func() error {
			packages, err := s.lockPlatform(gctx, log, req, previous, platform, hashes[platform.String()])
			if err != nil {
				return apperrors.NewPlatformError(platform, runID, err)
			}
			results[i] = platformResult{platform: platform, packages: packages}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	next, err := s.assemble(req, previous, selected, results, hashes)
	if err != nil {
		return nil, err
	}

	if previous != nil && previous.ContentEquals(next) {
		// Nothing changed: keep the previous timestamp so repeated runs
		// produce byte-identical files.
		next.Metadata.Generated = previous.Metadata.Generated
	}

	if err := s.store.Save(ctx, next, req.LockfilePath); err != nil {
		return nil, fmt.Errorf("saving lockfile: %w", err)
	}
	log.Info("lockfile written",
		"path", req.LockfilePath,
		"platforms", len(next.Platforms()),
		"packages", next.PackageCount(),
	)
	return next, nil
}

// lockPlatform runs one platform's pipeline: solve, graph build,
// reconcile. Pure in-memory work apart from the solver call.
func (s *LockService) lockPlatform(
	ctx context.Context,
	log *slog.Logger,
	req LockRequest,
	previous *entities.Lockfile,
	platform values.Platform,
	specHash string,
) ([]entities.LockedPackage, error) {
	roots := req.Spec.RequestsFor(platform)

	recorded, hasRecorded := previous.ContentHash(platform)
	if hasRecorded && recorded == specHash && len(req.UpdatedNames) == 0 {
		// The spec for this platform is unchanged and no explicit update
		// was requested: carry the platform over without solving.
		log.Debug("platform unchanged, skipping solve", "platform", platform)
		return previous.PackagesForPlatform(platform), nil
	}
	if len(req.UpdatedNames) > 0 && previous.PackageCount() > 0 && (!hasRecorded || recorded != specHash) {
		// A partial update assumes the untouched entries still derive from
		// the current spec. Without a matching recorded hash that assumption
		// does not hold and only a full re-solve is safe.
		return nil, apperrors.NewStaleLockError(platform, recorded, specHash)
	}

	planned, err := s.solve(ctx, log, platform, roots)
	if err != nil {
		return nil, err
	}

	graph, err := services.NewDependencyGraph(platform, planned)
	if err != nil {
		return nil, err
	}

	// The solver must have honored every constraint it was handed; a
	// violating root means resolution is inconsistent with the request.
	for _, root := range roots {
		if pkg, ok := graph.Lookup(root.Manager, root.Name); ok {
			if !root.ConstraintSatisfiedBy(pkg.Version) {
				return nil, fmt.Errorf(
					"solved version %s of %s does not satisfy requested constraint %q",
					pkg.Version, root.Name, root.Constraint,
				)
			}
		}
	}

	packages, err := s.reconciler.Reconcile(services.ReconcileInput{
		Platform:     platform,
		Previous:     previous,
		Roots:        roots,
		Fresh:        graph,
		UpdatedNames: req.UpdatedNames,
	})
	if err != nil {
		return nil, err
	}
	log.Debug("platform reconciled", "platform", platform, "packages", len(packages))
	return packages, nil
}

// solve invokes the solver once per manager that has roots and combines
// the plans into one per-platform package list.
func (s *LockService) solve(
	ctx context.Context,
	log *slog.Logger,
	platform values.Platform,
	roots []entities.RootRequest,
) ([]entities.PlannedPackage, error) {
	var planned []entities.PlannedPackage
	for _, manager := range []values.Manager{values.ManagerConda, values.ManagerPip} {
		var managerRoots []entities.RootRequest
		for _, root := range roots {
			if root.Manager.Equals(manager) {
				managerRoots = append(managerRoots, root)
			}
		}
		if len(managerRoots) == 0 {
			continue
		}
		log.Debug("solving", "platform", platform, "manager", manager, "roots", len(managerRoots))
		plan, err := s.solver.Solve(ctx, platform, manager, managerRoots)
		if err != nil {
			return nil, fmt.Errorf("solving %s packages: %w", manager, err)
		}
		planned = append(planned, plan...)
	}
	return planned, nil
}

// assemble constructs the run's output snapshot: reconciled entries for
// the selected platforms, carried-over entries for the rest.
func (s *LockService) assemble(
	req LockRequest,
	previous *entities.Lockfile,
	selected []values.Platform,
	results []platformResult,
	hashes map[string]string,
) (*entities.Lockfile, error) {
	next := entities.NewLockfile()
	next.Metadata.Channels = append([]string(nil), req.Spec.Channels...)
	next.Metadata.Generated = time.Now().UTC()

	selectedSet := make(map[string]bool, len(selected))
	for _, p := range selected {
		selectedSet[p.String()] = true
	}

	for _, res := range results {
		for _, pkg := range res.packages {
			if err := next.AddPackage(pkg); err != nil {
				return nil, err
			}
		}
		next.Metadata.ContentHashes[res.platform.String()] = hashes[res.platform.String()]
	}

	// Platforms excluded from this run keep their previous entries and
	// recorded hashes verbatim.
	if previous != nil {
		for _, platform := range previous.Platforms() {
			if selectedSet[platform.String()] {
				continue
			}
			for _, pkg := range previous.PackagesForPlatform(platform) {
				if err := next.AddPackage(pkg); err != nil {
					return nil, err
				}
			}
			if h, ok := previous.ContentHash(platform); ok {
				next.Metadata.ContentHashes[platform.String()] = h
			}
		}
	}

	if err := next.Validate(); err != nil {
		return nil, err
	}
	return next, nil
}

// selectPlatforms resolves the requested platform filter against the spec.
func (s *LockService) selectPlatforms(req LockRequest) ([]values.Platform, error) {
	if len(req.Platforms) == 0 {
		return req.Spec.Platforms(), nil
	}
	for _, p := range req.Platforms {
		if _, ok := req.Spec.Requests[p]; !ok {
			return nil, fmt.Errorf("platform %s is not part of the spec", p)
		}
	}
	out := append([]values.Platform(nil), req.Platforms...)
	values.SortPlatforms(out)
	return out, nil
}
