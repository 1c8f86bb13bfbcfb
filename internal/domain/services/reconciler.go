package services

import (
	"fmt"

	"github.com/pinlock-dev/pinlock/internal/domain/entities"
	"github.com/pinlock-dev/pinlock/internal/domain/values"
)

// Reconciler merges a previous lock snapshot with freshly solved graphs for
// an incremental update. The previous lockfile is read-only input; the
// reconciler returns a fresh entry set and never mutates prior state.
type Reconciler struct {
	propagator *CategoryPropagator
}

// NewReconciler creates a new reconciler service
func NewReconciler() *Reconciler {
	return &Reconciler{propagator: NewCategoryPropagator()}
}

// ReconcileInput carries everything one platform's reconciliation needs.
type ReconcileInput struct {
	Platform values.Platform

	// Previous is the persisted snapshot; nil on a first run.
	Previous *entities.Lockfile

	// Roots is the CURRENT full root request set for the platform.
	// Categories depend on global reachability, so propagation always
	// re-runs against this set; category merging is never incremental.
	Roots []entities.RootRequest

	// Fresh is the newly solved graph. It must cover at least the updated
	// packages and their transitive closure; on a first run or full
	// re-solve it covers everything.
	Fresh *DependencyGraph

	// UpdatedNames are the package names the caller explicitly asked to
	// update. Empty means a full re-solve of the platform.
	UpdatedNames []values.PackageName
}

// Reconcile produces the platform's new locked entry set.
//
// A previously locked package is "touched" when its name is in the update
// set, when it is reachable from a root whose constraint or categories
// changed since the previous run, or when it is reachable from another
// touched package. The rule is deliberately conservative: anything the
// update could have influenced is re-solved, which is what prevents the
// orphaned- and dropped-package defect classes. Touched packages take
// their freshly solved identity; untouched packages carry over unchanged,
// hash and source included.
//
// After the merge, categories are recomputed from scratch over the merged
// graph and anything unreachable from the current roots is pruned.
func (r *Reconciler) Reconcile(in ReconcileInput) ([]entities.LockedPackage, error) {
	if in.Fresh == nil {
		return nil, fmt.Errorf("platform %s: no solved graph supplied", in.Platform)
	}

	previous := in.Previous.PackagesForPlatform(in.Platform)
	if len(previous) == 0 {
		// First run: everything comes from the fresh solve.
		return r.propagator.Propagate(in.Fresh, in.Roots)
	}

	touched := r.touchedSet(previous, in.Roots, in.UpdatedNames)
	if len(in.UpdatedNames) == 0 {
		// Full re-solve: the fresh graph replaces everything it covers.
		for _, prev := range previous {
			touched[nodeKey{manager: prev.Manager, name: prev.Name}] = true
		}
	}

	// Merge: fresh packages win for touched names; untouched previous
	// entries are carried over verbatim. An untouched package that the
	// fresh solve nevertheless produced with a different identity has no
	// unique resolution.
	merged := make([]entities.PlannedPackage, 0, in.Fresh.Len()+len(previous))
	inFresh := make(map[nodeKey]entities.PlannedPackage, in.Fresh.Len())
	for _, pkg := range in.Fresh.Packages() {
		inFresh[nodeKey{manager: pkg.Manager, name: pkg.Name}] = pkg
	}

	carried := make(map[nodeKey]bool, len(previous))
	for _, prev := range previous {
		key := nodeKey{manager: prev.Manager, name: prev.Name}
		if touched[key] {
			continue
		}
		if fresh, ok := inFresh[key]; ok && !fresh.SameIdentity(prev.PlannedPackage) {
			return nil, &entities.InconsistentMergeError{
				Platform: in.Platform,
				Manager:  prev.Manager,
				Name:     prev.Name,
				Previous: identityString(prev.PlannedPackage),
				Fresh:    identityString(fresh),
			}
		}
		carried[key] = true
		merged = append(merged, prev.PlannedPackage)
	}
	for _, pkg := range in.Fresh.Packages() {
		key := nodeKey{manager: pkg.Manager, name: pkg.Name}
		if carried[key] {
			continue
		}
		merged = append(merged, pkg)
	}

	mergedGraph, err := NewDependencyGraph(in.Platform, merged)
	if err != nil {
		return nil, err
	}

	// Re-propagation over the merged graph prunes every entry no longer
	// reachable from any current root.
	return r.propagator.Propagate(mergedGraph, in.Roots)
}

// touchedSet seeds the touched names from the explicit update list and
// from roots whose request changed, then expands through the previous
// snapshot's edges so everything transitively influenced is re-solved.
func (r *Reconciler) touchedSet(
	previous []entities.LockedPackage,
	roots []entities.RootRequest,
	updatedNames []values.PackageName,
) map[nodeKey]bool {
	prevByKey := make(map[nodeKey]entities.LockedPackage, len(previous))
	for _, pkg := range previous {
		prevByKey[nodeKey{manager: pkg.Manager, name: pkg.Name}] = pkg
	}

	seeds := make([]nodeKey, 0, len(updatedNames))
	for _, name := range updatedNames {
		// An updated name may exist under either manager.
		for _, manager := range []values.Manager{values.ManagerConda, values.ManagerPip} {
			if _, ok := prevByKey[nodeKey{manager: manager, name: name}]; ok {
				seeds = append(seeds, nodeKey{manager: manager, name: name})
			}
		}
	}
	for _, root := range roots {
		key := nodeKey{manager: root.Manager, name: root.Name}
		prev, ok := prevByKey[key]
		if !ok {
			// A root the previous snapshot never saw: whatever it pulls
			// in comes from the fresh solve anyway.
			continue
		}
		if prev.Requested != root.Constraint {
			seeds = append(seeds, key)
		}
	}

	touched := make(map[nodeKey]bool)
	queue := seeds
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if touched[current] {
			continue
		}
		touched[current] = true
		prev, ok := prevByKey[current]
		if !ok {
			continue
		}
		for _, dep := range prev.DependsOn {
			queue = append(queue, refKey(dep))
		}
	}
	return touched
}

func identityString(p entities.PlannedPackage) string {
	return fmt.Sprintf("%s=%s build=%s hash=%s source=%s", p.Name, p.Version, p.Build, p.Hash, p.Source)
}
