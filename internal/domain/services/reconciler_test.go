package services_test

import (
	"testing"

	"github.com/pinlock-dev/pinlock/internal/domain/entities"
	"github.com/pinlock-dev/pinlock/internal/domain/services"
	"github.com/pinlock-dev/pinlock/internal/domain/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// snapshot builds a previous-run lockfile from locked entries.
func snapshot(t *testing.T, packages ...entities.LockedPackage) *entities.Lockfile {
	t.Helper()
	lf := entities.NewLockfile()
	for _, pkg := range packages {
		require.NoError(t, lf.AddPackage(pkg))
	}
	return lf
}

func lockedFrom(pkg entities.PlannedPackage, requested string, categories ...string) entities.LockedPackage {
	set := values.NewCategorySet()
	for _, c := range categories {
		set.Add(values.MustNewCategory(c))
	}
	return entities.LockedPackage{
		PlannedPackage: pkg,
		Platform:       linux,
		Categories:     set,
		Requested:      requested,
	}
}

func TestReconciler_FirstRun(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, planned("a", "1.0", "b"), planned("b", "1.0"))

	got, err := services.NewReconciler().Reconcile(services.ReconcileInput{
		Platform: linux,
		Roots:    []entities.RootRequest{root(t, "a", "main")},
		Fresh:    g,
	})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestReconciler_RemovedRootPrunesSubgraph(t *testing.T) {
	t.Parallel()

	// Previous lock: A -> B -> C, all "main". The spec drops root A and
	// now only requests D. A, B, and C must all be pruned.
	prev := snapshot(t,
		lockedFrom(planned("a", "1.0", "b"), "", "main"),
		lockedFrom(planned("b", "1.0", "c"), "", "main"),
		lockedFrom(planned("c", "1.0"), "", "main"),
	)
	fresh := buildGraph(t, planned("d", "2.0"))

	got, err := services.NewReconciler().Reconcile(services.ReconcileInput{
		Platform: linux,
		Previous: prev,
		Roots:    []entities.RootRequest{root(t, "d", "main")},
		Fresh:    fresh,
	})
	require.NoError(t, err)

	names := categoriesByName(got)
	assert.Contains(t, names, "d")
	assert.NotContains(t, names, "a")
	assert.NotContains(t, names, "b")
	assert.NotContains(t, names, "c")
}

func TestReconciler_PartialUpdateKeepsUntouchedIdentity(t *testing.T) {
	t.Parallel()

	// A -> B -> C and D -> C. Updating only B must leave C's identity
	// (hash, source) untouched while its categories stay the union
	// contributed by A and D.
	a := planned("a", "1.0", "b")
	b := planned("b", "1.0", "c")
	c := planned("c", "1.0")
	d := planned("d", "1.0", "c")
	prev := snapshot(t,
		lockedFrom(a, "", "main"),
		lockedFrom(b, "", "main"),
		lockedFrom(c, "", "dev", "main"),
		lockedFrom(d, "", "dev"),
	)

	// The fresh solve covers B's closure: a new B and the same C.
	bV2 := planned("b", "2.0", "c")
	fresh := buildGraph(t, bV2, c)

	got, err := services.NewReconciler().Reconcile(services.ReconcileInput{
		Platform: linux,
		Previous: prev,
		Roots: []entities.RootRequest{
			root(t, "a", "main"),
			root(t, "d", "dev"),
		},
		Fresh:        fresh,
		UpdatedNames: []values.PackageName{values.MustNewPackageName("b")},
	})
	require.NoError(t, err)

	byName := make(map[string]entities.LockedPackage)
	for _, pkg := range got {
		byName[pkg.Name.String()] = pkg
	}

	require.Contains(t, byName, "b")
	assert.Equal(t, "2.0", byName["b"].Version)

	require.Contains(t, byName, "c")
	assert.Equal(t, c.Hash, byName["c"].Hash)
	assert.Equal(t, c.Source, byName["c"].Source)
	assert.Equal(t, []string{"dev", "main"}, byName["c"].Categories.Sorted())

	// A and D were untouched and carry over verbatim.
	assert.Equal(t, a.Hash, byName["a"].Hash)
	assert.Equal(t, d.Hash, byName["d"].Hash)
}

func TestReconciler_Idempotent(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, planned("a", "1.0", "b"), planned("b", "1.0"))
	roots := []entities.RootRequest{root(t, "a", "main")}
	r := services.NewReconciler()

	first, err := r.Reconcile(services.ReconcileInput{Platform: linux, Roots: roots, Fresh: g})
	require.NoError(t, err)

	second, err := r.Reconcile(services.ReconcileInput{
		Platform: linux,
		Previous: snapshot(t, first...),
		Roots:    roots,
		Fresh:    g,
	})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestReconciler_ChangedConstraintTouchesClosure(t *testing.T) {
	t.Parallel()

	// Root A's constraint changed, so A and everything reachable from it
	// takes the fresh identity even though only B was named for update.
	aOld := planned("a", "1.0", "b")
	bOld := planned("b", "1.0")
	prev := snapshot(t,
		lockedFrom(aOld, "1.0.*", "main"),
		lockedFrom(bOld, "", "main"),
	)

	aNew := planned("a", "1.1", "b")
	bNew := planned("b", "1.0.post1")
	fresh := buildGraph(t, aNew, bNew)

	rootA, err := entities.NewRootRequest(
		values.MustNewPackageName("a"), "1.1.*", values.ManagerConda,
		values.NewCategorySet(values.MustNewCategory("main")))
	require.NoError(t, err)

	got, err := services.NewReconciler().Reconcile(services.ReconcileInput{
		Platform:     linux,
		Previous:     prev,
		Roots:        []entities.RootRequest{rootA},
		Fresh:        fresh,
		UpdatedNames: []values.PackageName{values.MustNewPackageName("b")},
	})
	require.NoError(t, err)

	byName := make(map[string]entities.LockedPackage)
	for _, pkg := range got {
		byName[pkg.Name.String()] = pkg
	}
	assert.Equal(t, "1.1", byName["a"].Version)
	assert.Equal(t, "1.0.post1", byName["b"].Version)
}

func TestReconciler_InconsistentMerge(t *testing.T) {
	t.Parallel()

	// C is untouched by the update, yet the fresh solve produced it with
	// a different hash. There is no unique resolution.
	a := planned("a", "1.0", "b")
	b := planned("b", "1.0")
	c := planned("c", "1.0")
	prev := snapshot(t,
		lockedFrom(a, "", "main"),
		lockedFrom(b, "", "main"),
		lockedFrom(c, "", "main"),
	)

	cConflict := planned("c", "1.0")
	cConflict.Hash = "sha256:something-else"
	fresh := buildGraph(t, planned("b", "2.0"), cConflict)

	_, err := services.NewReconciler().Reconcile(services.ReconcileInput{
		Platform: linux,
		Previous: prev,
		Roots: []entities.RootRequest{
			root(t, "a", "main"),
			root(t, "c", "main"),
		},
		Fresh:        fresh,
		UpdatedNames: []values.PackageName{values.MustNewPackageName("b")},
	})

	var conflict *entities.InconsistentMergeError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "c", conflict.Name.String())
}

func TestReconciler_NoGraph(t *testing.T) {
	t.Parallel()

	_, err := services.NewReconciler().Reconcile(services.ReconcileInput{Platform: linux})
	assert.ErrorContains(t, err, "no solved graph")
}
