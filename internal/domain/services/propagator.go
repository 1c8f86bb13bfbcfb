package services

import (
	"github.com/pinlock-dev/pinlock/internal/domain/entities"
	"github.com/pinlock-dev/pinlock/internal/domain/values"
)

// CategoryPropagator assigns usage categories to every package reachable
// from the root request set.
type CategoryPropagator struct{}

// NewCategoryPropagator creates a new category propagator service
func NewCategoryPropagator() *CategoryPropagator {
	return &CategoryPropagator{}
}

// Propagate walks the graph breadth-first from each root, unioning the
// root's category set into every node it reaches. A node reached from
// several roots accumulates the union of all contributing sets; union is
// commutative and idempotent, so root iteration order cannot change the
// result. Nodes never reached from any root are excluded from the output
// entirely, not retained with an empty set.
//
// Hard errors:
//   - a root with no node in the graph (UnresolvedRootError);
//   - any edge on a reached node whose target is absent from the graph
//     (DanglingEdgeError). Propagation must not continue past such an edge
//     as if the dependency did not exist.
//
// A visited set per root keeps accidental cycles from looping.
func (p *CategoryPropagator) Propagate(graph *DependencyGraph, roots []entities.RootRequest) ([]entities.LockedPackage, error) {
	platform := graph.Platform()
	assigned := make(map[nodeKey]values.CategorySet)
	requested := make(map[nodeKey]string)

	for _, root := range roots {
		start := nodeKey{manager: root.Manager, name: root.Name}
		if _, ok := graph.nodes[start]; !ok {
			return nil, &entities.UnresolvedRootError{
				Platform: platform,
				Manager:  root.Manager,
				Name:     root.Name,
			}
		}
		requested[start] = root.Constraint

		visited := map[nodeKey]bool{start: true}
		queue := []nodeKey{start}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]

			set := assigned[current]
			set.Union(root.Categories)
			assigned[current] = set

			for _, dep := range graph.nodes[current].DependsOn {
				switch res := graph.ResolveEdge(dep).(type) {
				case ResolvedEdge:
					next := nodeKey{manager: res.Package.Manager, name: res.Package.Name}
					if !visited[next] {
						visited[next] = true
						queue = append(queue, next)
					}
				case DanglingEdge:
					return nil, &entities.DanglingEdgeError{
						Platform: platform,
						From:     graph.nodes[current].Name,
						Target:   res.Target,
					}
				}
			}
		}
	}

	// Output in graph insertion order, restricted to reached nodes.
	out := make([]entities.LockedPackage, 0, len(assigned))
	for _, key := range graph.order {
		categories, ok := assigned[key]
		if !ok {
			continue
		}
		out = append(out, entities.LockedPackage{
			PlannedPackage: graph.nodes[key],
			Platform:       platform,
			Categories:     categories,
			Requested:      requested[key],
		})
	}
	return out, nil
}
