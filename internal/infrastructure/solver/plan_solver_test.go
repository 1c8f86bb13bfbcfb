package solver_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinlock-dev/pinlock/internal/domain/values"
	"github.com/pinlock-dev/pinlock/internal/infrastructure/solver"
)

var linux = values.MustNewPlatform("linux-64")

func TestPlanDirSolver_Solve(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	plan := `
package:
  - name: python
    version: 3.11.8
    build: h1234_0
    hash: sha256:python-3.11.8
    source: https://conda.anaconda.org/conda-forge/python
    dependencies:
      - name: openssl
  - name: openssl
    version: 3.2.1
    hash: sha256:openssl-3.2.1
    source: https://conda.anaconda.org/conda-forge/openssl
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "linux-64.conda.yaml"), []byte(plan), 0o644))

	got, err := solver.NewPlanDirSolver(dir).Solve(context.Background(), linux, values.ManagerConda, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "python", got[0].Name.String())
	assert.Equal(t, "h1234_0", got[0].Build)
	require.Len(t, got[0].DependsOn, 1)
	// Dependencies without an explicit manager inherit the plan's.
	assert.True(t, got[0].DependsOn[0].Manager.Equals(values.ManagerConda))
}

func TestPlanDirSolver_CrossManagerDependency(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	plan := `
package:
  - name: numpy
    version: 1.26.4
    hash: sha256:numpy-1.26.4
    dependencies:
      - name: python
        manager: conda
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "linux-64.pip.yaml"), []byte(plan), 0o644))

	got, err := solver.NewPlanDirSolver(dir).Solve(context.Background(), linux, values.ManagerPip, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Manager.Equals(values.ManagerPip))
	assert.True(t, got[0].DependsOn[0].Manager.Equals(values.ManagerConda))
}

func TestPlanDirSolver_MissingPlan(t *testing.T) {
	t.Parallel()

	_, err := solver.NewPlanDirSolver(t.TempDir()).Solve(context.Background(), linux, values.ManagerConda, nil)
	assert.ErrorContains(t, err, "no solve plan at")
	assert.ErrorContains(t, err, "linux-64")
}

func TestPlanDirSolver_InvalidPackage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	// Version present but hash missing.
	plan := `
package:
  - name: python
    version: 3.11.8
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "linux-64.conda.yaml"), []byte(plan), 0o644))

	_, err := solver.NewPlanDirSolver(dir).Solve(context.Background(), linux, values.ManagerConda, nil)
	assert.ErrorContains(t, err, "hash is required")
}
