// Package services holds the pure graph algorithms of the lock engine:
// graph construction, category propagation, incremental reconciliation,
// and conversion between the category-set and legacy row models. Nothing
// in this package performs I/O or holds shared state.
package services

import (
	"fmt"

	"github.com/pinlock-dev/pinlock/internal/domain/entities"
	"github.com/pinlock-dev/pinlock/internal/domain/values"
)

type nodeKey struct {
	manager values.Manager
	name    values.PackageName
}

func refKey(r entities.DependencyRef) nodeKey {
	return nodeKey{manager: r.Manager, name: r.Name}
}

// DependencyGraph is one platform's directed graph of solved packages and
// their "requires" edges. Node lookup by (manager, name) is O(1).
type DependencyGraph struct {
	platform values.Platform
	nodes    map[nodeKey]entities.PlannedPackage
	order    []nodeKey
}

// NewDependencyGraph builds a graph from solver output. Edge targets stay
// name references; resolution happens through ResolveEdge so a missing
// target is an explicit result, never a silent skip. Native packages
// declaring edges onto language-manager packages are rejected here, since
// no valid solve can produce that direction.
func NewDependencyGraph(platform values.Platform, packages []entities.PlannedPackage) (*DependencyGraph, error) {
	g := &DependencyGraph{
		platform: platform,
		nodes:    make(map[nodeKey]entities.PlannedPackage, len(packages)),
		order:    make([]nodeKey, 0, len(packages)),
	}

	for _, pkg := range packages {
		if err := pkg.Validate(); err != nil {
			return nil, fmt.Errorf("platform %s: %w", platform, err)
		}
		key := nodeKey{manager: pkg.Manager, name: pkg.Name}
		if _, exists := g.nodes[key]; exists {
			return nil, fmt.Errorf("platform %s: duplicate package %s (%s) in solver output", platform, pkg.Name, pkg.Manager)
		}
		for _, dep := range pkg.DependsOn {
			if !pkg.Manager.CanDependOn(dep.Manager) {
				return nil, fmt.Errorf(
					"platform %s: package %s (%s) may not depend on %s",
					platform, pkg.Name, pkg.Manager, dep,
				)
			}
		}
		g.nodes[key] = pkg
		g.order = append(g.order, key)
	}

	return g, nil
}

// Platform returns the platform this graph was solved for.
func (g *DependencyGraph) Platform() values.Platform {
	return g.platform
}

// Lookup finds a package by manager and name.
func (g *DependencyGraph) Lookup(manager values.Manager, name values.PackageName) (entities.PlannedPackage, bool) {
	pkg, ok := g.nodes[nodeKey{manager: manager, name: name}]
	return pkg, ok
}

// Packages returns all nodes in insertion order.
func (g *DependencyGraph) Packages() []entities.PlannedPackage {
	out := make([]entities.PlannedPackage, 0, len(g.order))
	for _, key := range g.order {
		out = append(out, g.nodes[key])
	}
	return out
}

// Len returns the node count.
func (g *DependencyGraph) Len() int {
	return len(g.nodes)
}

// EdgeResolution is the outcome of resolving one dependency edge. It is a
// closed tagged type: callers must handle the dangling case explicitly
// instead of defaulting to omission.
type EdgeResolution interface {
	isEdgeResolution()
}

// ResolvedEdge carries the node an edge resolved to.
type ResolvedEdge struct {
	Package entities.PlannedPackage
}

func (ResolvedEdge) isEdgeResolution() {}

// DanglingEdge carries the reference an edge failed to resolve.
type DanglingEdge struct {
	Target entities.DependencyRef
}

func (DanglingEdge) isEdgeResolution() {}

// ResolveEdge resolves a by-name edge target within this platform's graph.
func (g *DependencyGraph) ResolveEdge(ref entities.DependencyRef) EdgeResolution {
	if pkg, ok := g.nodes[refKey(ref)]; ok {
		return ResolvedEdge{Package: pkg}
	}
	return DanglingEdge{Target: ref}
}
