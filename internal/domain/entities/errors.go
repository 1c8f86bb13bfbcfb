package entities

import (
	"fmt"

	"github.com/pinlock-dev/pinlock/internal/domain/values"
)

// The four error kinds below are structural defects in solver input or in
// the engine's own invariants. None is retryable and none may be downgraded
// to a warning: every one of them, if ignored, would let a package silently
// vanish from the lock file.

// UnresolvedRootError indicates a root request with no corresponding node
// in the solved graph for its platform.
type UnresolvedRootError struct {
	Platform values.Platform
	Manager  values.Manager
	Name     values.PackageName
}

func (e *UnresolvedRootError) Error() string {
	return fmt.Sprintf(
		"platform %s: root request %s (%s) has no node in the solved graph",
		e.Platform, e.Name, e.Manager,
	)
}

// DanglingEdgeError indicates a dependency edge referencing a package name
// absent from the graph.
type DanglingEdgeError struct {
	Platform values.Platform
	From     values.PackageName
	Target   DependencyRef
}

func (e *DanglingEdgeError) Error() string {
	return fmt.Sprintf(
		"platform %s: package %s depends on %s, which is absent from the solved graph",
		e.Platform, e.From, e.Target,
	)
}

// EmptyCategoryIntegrityError indicates a locked package with an empty
// category set reached a stage where categories must be present. It means
// propagation or reconciliation itself is defective.
type EmptyCategoryIntegrityError struct {
	Platform values.Platform
	Manager  values.Manager
	Name     values.PackageName
}

func (e *EmptyCategoryIntegrityError) Error() string {
	return fmt.Sprintf(
		"platform %s: package %s (%s) has an empty category set",
		e.Platform, e.Name, e.Manager,
	)
}

// InconsistentMergeError indicates a package present in both the retained
// and freshly solved sets with conflicting identities, with no rule to pick
// a unique winner.
type InconsistentMergeError struct {
	Platform values.Platform
	Manager  values.Manager
	Name     values.PackageName
	Previous string
	Fresh    string
}

func (e *InconsistentMergeError) Error() string {
	return fmt.Sprintf(
		"platform %s: package %s (%s) has conflicting identities: previously %s, freshly solved %s",
		e.Platform, e.Name, e.Manager, e.Previous, e.Fresh,
	)
}
