package entities

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/pinlock-dev/pinlock/internal/domain/values"
)

// DependencyRef is a by-name edge target inside one platform's graph.
// The manager is explicit because language-level packages may reference
// native packages.
type DependencyRef struct {
	Name    values.PackageName
	Manager values.Manager
}

// String returns "name (manager)".
func (r DependencyRef) String() string {
	return fmt.Sprintf("%s (%s)", r.Name, r.Manager)
}

// PlannedPackage is a concrete, solved package as produced by an external
// solver for one (platform, manager) pair. Planned packages are transient;
// they exist only between a solve and the reconciliation that follows it.
type PlannedPackage struct {
	Name      values.PackageName
	Version   string
	Build     string
	Manager   values.Manager
	Hash      string
	Source    string
	DependsOn []DependencyRef
}

// Validate checks the fields a solver must always provide.
func (p PlannedPackage) Validate() error {
	if p.Name.IsEmpty() {
		return fmt.Errorf("planned package: name is required")
	}
	if p.Version == "" {
		return fmt.Errorf("planned package %s: version is required", p.Name)
	}
	if p.Manager.IsEmpty() {
		return fmt.Errorf("planned package %s: manager is required", p.Name)
	}
	if p.Hash == "" {
		return fmt.Errorf("planned package %s: hash is required", p.Name)
	}
	return nil
}

// SameIdentity reports whether two planned packages describe the exact same
// artifact. The reconciler uses this to decide whether a package present in
// both the retained and freshly solved sets is in conflict.
func (p PlannedPackage) SameIdentity(other PlannedPackage) bool {
	return p.Name.Equals(other.Name) &&
		p.Manager.Equals(other.Manager) &&
		p.Version == other.Version &&
		p.Build == other.Build &&
		p.Hash == other.Hash &&
		p.Source == other.Source
}

// RootRequest is a user-declared dependency: the entry point from which
// categories propagate through the graph.
type RootRequest struct {
	Name       values.PackageName
	Constraint string
	Manager    values.Manager
	Categories values.CategorySet
}

// NewRootRequest creates a RootRequest, enforcing the non-empty category
// set invariant. Language-manager constraints must parse as version
// constraints; native constraints use a looser grammar and are passed
// through for the solver to interpret.
func NewRootRequest(name values.PackageName, constraint string, manager values.Manager, categories values.CategorySet) (RootRequest, error) {
	if name.IsEmpty() {
		return RootRequest{}, fmt.Errorf("root request: name is required")
	}
	if manager.IsEmpty() {
		return RootRequest{}, fmt.Errorf("root request %s: manager is required", name)
	}
	if categories.IsEmpty() {
		return RootRequest{}, fmt.Errorf("root request %s: at least one category is required", name)
	}
	if constraint != "" && manager.Equals(values.ManagerPip) {
		if _, err := semver.NewConstraint(constraint); err != nil {
			return RootRequest{}, fmt.Errorf("root request %s: invalid constraint %q: %w", name, constraint, err)
		}
	}
	return RootRequest{
		Name:       name,
		Constraint: constraint,
		Manager:    manager,
		Categories: categories.Clone(),
	}, nil
}

// ConstraintSatisfiedBy reports whether a solved version satisfies the
// request. Only language-manager constraints are checked; native version
// grammars are the solver's concern. Unparseable versions count as
// unsatisfied rather than erroring the run.
func (r RootRequest) ConstraintSatisfiedBy(version string) bool {
	if r.Constraint == "" || !r.Manager.Equals(values.ManagerPip) {
		return true
	}
	c, err := semver.NewConstraint(r.Constraint)
	if err != nil {
		return false
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	return c.Check(v)
}

// PackageKey uniquely identifies a locked package across the whole file.
type PackageKey struct {
	Platform values.Platform
	Manager  values.Manager
	Name     values.PackageName
}

// String returns "name (manager, platform)".
func (k PackageKey) String() string {
	return fmt.Sprintf("%s (%s, %s)", k.Name, k.Manager, k.Platform)
}

// Less orders keys by name, then platform, then manager. Persisted output
// follows this order so diffs stay minimal across runs.
func (k PackageKey) Less(other PackageKey) bool {
	if !k.Name.Equals(other.Name) {
		return k.Name.String() < other.Name.String()
	}
	if !k.Platform.Equals(other.Platform) {
		return k.Platform.String() < other.Platform.String()
	}
	return k.Manager.String() < other.Manager.String()
}

// LockedPackage is one entry in the lock file: a solved package plus the
// categories that caused it to be included. An empty category set is not a
// representable state for a valid entry.
type LockedPackage struct {
	PlannedPackage
	Platform   values.Platform
	Categories values.CategorySet
	Requested  string
}

// Key returns the package's identity key.
func (p LockedPackage) Key() PackageKey {
	return PackageKey{Platform: p.Platform, Manager: p.Manager, Name: p.Name}
}

// Validate checks entry invariants, including the non-empty category set.
func (p LockedPackage) Validate() error {
	if err := p.PlannedPackage.Validate(); err != nil {
		return err
	}
	if p.Platform.IsEmpty() {
		return fmt.Errorf("locked package %s: platform is required", p.Name)
	}
	if p.Categories.IsEmpty() {
		return &EmptyCategoryIntegrityError{Platform: p.Platform, Manager: p.Manager, Name: p.Name}
	}
	return nil
}

// CategoryRow is the legacy model: one row per package per category. It is
// purely a serialization concern; all graph and merge algorithms operate on
// LockedPackage.
type CategoryRow struct {
	PlannedPackage
	Platform  values.Platform
	Category  values.Category
	Requested string
}

// Key returns the identity key of the package the row belongs to.
func (r CategoryRow) Key() PackageKey {
	return PackageKey{Platform: r.Platform, Manager: r.Manager, Name: r.Name}
}
