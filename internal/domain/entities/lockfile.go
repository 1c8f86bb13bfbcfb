package entities

import (
	"fmt"
	"sort"
	"time"

	"github.com/pinlock-dev/pinlock/internal/domain/values"
)

// LockfileVersion is the current format version. Version 1, the legacy
// one-row-per-category format, is still readable and renderable but never
// the internal representation.
const LockfileVersion = 2

// LockfileMetadata is the header block persisted ahead of the package list.
// Content hashes (one per platform, keyed by platform string) let an
// incremental run detect whether the originating spec changed without
// re-solving.
type LockfileMetadata struct {
	ContentHashes map[string]string
	Channels      []string
	Generated     time.Time
}

// Lockfile is the aggregate root for the reconciled lock state across all
// platforms. It is treated as an immutable snapshot between runs: a run
// reads one snapshot and constructs a new one, never mutating in place.
//
// Invariants:
// - Version must be 2
// - Every package entry has a hash and a non-empty category set
type Lockfile struct {
	Version  int
	Metadata LockfileMetadata

	packages map[PackageKey]LockedPackage
}

// NewLockfile creates an empty lockfile with the current format version.
func NewLockfile() *Lockfile {
	return &Lockfile{
		Version: LockfileVersion,
		Metadata: LockfileMetadata{
			ContentHashes: make(map[string]string),
			Generated:     time.Now().UTC(),
		},
		packages: make(map[PackageKey]LockedPackage),
	}
}

// AddPackage adds an entry, enforcing entry invariants. Adding a package
// with an empty category set fails with EmptyCategoryIntegrityError rather
// than storing an unrepresentable state.
func (l *Lockfile) AddPackage(pkg LockedPackage) error {
	if err := pkg.Validate(); err != nil {
		return err
	}
	if l.packages == nil {
		l.packages = make(map[PackageKey]LockedPackage)
	}
	key := pkg.Key()
	if _, exists := l.packages[key]; exists {
		return fmt.Errorf("duplicate locked package %s", key)
	}
	l.packages[key] = pkg
	return nil
}

// GetPackage retrieves an entry by key. Returns nil if not found.
func (l *Lockfile) GetPackage(key PackageKey) *LockedPackage {
	if l == nil || l.packages == nil {
		return nil
	}
	if pkg, ok := l.packages[key]; ok {
		return &pkg
	}
	return nil
}

// PackagesForPlatform returns the platform's entries in stable key order.
func (l *Lockfile) PackagesForPlatform(platform values.Platform) []LockedPackage {
	if l == nil {
		return nil
	}
	var out []LockedPackage
	for key, pkg := range l.packages {
		if key.Platform.Equals(platform) {
			out = append(out, pkg)
		}
	}
	sortLocked(out)
	return out
}

// Packages returns every entry in stable key order.
func (l *Lockfile) Packages() []LockedPackage {
	if l == nil {
		return nil
	}
	out := make([]LockedPackage, 0, len(l.packages))
	for _, pkg := range l.packages {
		out = append(out, pkg)
	}
	sortLocked(out)
	return out
}

// Platforms returns every platform with at least one entry, sorted.
func (l *Lockfile) Platforms() []values.Platform {
	if l == nil {
		return nil
	}
	seen := make(map[string]values.Platform)
	for key := range l.packages {
		seen[key.Platform.String()] = key.Platform
	}
	out := make([]values.Platform, 0, len(seen))
	for _, p := range seen {
		out = append(out, p)
	}
	values.SortPlatforms(out)
	return out
}

// PackageCount returns the number of locked entries.
func (l *Lockfile) PackageCount() int {
	if l == nil {
		return 0
	}
	return len(l.packages)
}

// ContentHash returns the recorded spec hash for a platform, if any.
func (l *Lockfile) ContentHash(platform values.Platform) (string, bool) {
	if l == nil || l.Metadata.ContentHashes == nil {
		return "", false
	}
	h, ok := l.Metadata.ContentHashes[platform.String()]
	return h, ok
}

// Validate checks lockfile invariants.
func (l *Lockfile) Validate() error {
	if l.Version != LockfileVersion {
		return fmt.Errorf("unsupported lockfile version: %d", l.Version)
	}
	if l.PackageCount() > 0 && l.Metadata.Generated.IsZero() {
		return fmt.Errorf("generated timestamp is required")
	}
	for _, pkg := range l.packages {
		if err := pkg.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ContentEquals reports whether two snapshots describe the same lock
// state: same version, channels, per-platform hashes, and entries. The
// generated timestamp is deliberately excluded so an unchanged run can
// reuse the previous one and stay byte-identical.
func (l *Lockfile) ContentEquals(other *Lockfile) bool {
	if l == nil || other == nil {
		return l == other
	}
	if l.Version != other.Version {
		return false
	}
	if len(l.Metadata.Channels) != len(other.Metadata.Channels) {
		return false
	}
	for i, c := range l.Metadata.Channels {
		if other.Metadata.Channels[i] != c {
			return false
		}
	}
	if len(l.Metadata.ContentHashes) != len(other.Metadata.ContentHashes) {
		return false
	}
	for platform, hash := range l.Metadata.ContentHashes {
		if other.Metadata.ContentHashes[platform] != hash {
			return false
		}
	}
	if len(l.packages) != len(other.packages) {
		return false
	}
	for key, pkg := range l.packages {
		theirs, ok := other.packages[key]
		if !ok {
			return false
		}
		if !pkg.SameIdentity(theirs.PlannedPackage) ||
			!pkg.Categories.Equals(theirs.Categories) ||
			pkg.Requested != theirs.Requested ||
			!dependsOnEqual(pkg.DependsOn, theirs.DependsOn) {
			return false
		}
	}
	return true
}

func dependsOnEqual(a, b []DependencyRef) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Name.Equals(b[i].Name) || !a[i].Manager.Equals(b[i].Manager) {
			return false
		}
	}
	return true
}

func sortLocked(pkgs []LockedPackage) {
	sort.Slice(pkgs, func(i, j int) bool {
		return pkgs[i].Key().Less(pkgs[j].Key())
	})
}
