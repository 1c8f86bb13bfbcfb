package values_test

import (
	"testing"

	"github.com/pinlock-dev/pinlock/internal/domain/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager(t *testing.T) {
	t.Parallel()

	t.Run("conda", func(t *testing.T) {
		m, err := values.NewManager("conda")
		require.NoError(t, err)
		assert.True(t, m.Equals(values.ManagerConda))
	})

	t.Run("pip", func(t *testing.T) {
		m, err := values.NewManager("PIP")
		require.NoError(t, err)
		assert.True(t, m.Equals(values.ManagerPip))
	})

	t.Run("empty defaults to native manager", func(t *testing.T) {
		m, err := values.NewManager("")
		require.NoError(t, err)
		assert.True(t, m.Equals(values.ManagerConda))
	})

	t.Run("unknown rejected", func(t *testing.T) {
		_, err := values.NewManager("npm")
		assert.ErrorContains(t, err, "invalid manager")
	})
}

func TestManager_CanDependOn(t *testing.T) {
	t.Parallel()

	assert.True(t, values.ManagerConda.CanDependOn(values.ManagerConda))
	assert.True(t, values.ManagerPip.CanDependOn(values.ManagerPip))
	assert.True(t, values.ManagerPip.CanDependOn(values.ManagerConda))
	assert.False(t, values.ManagerConda.CanDependOn(values.ManagerPip))
}

func TestNewPlatform(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		p, err := values.NewPlatform("linux-64")
		require.NoError(t, err)
		assert.Equal(t, "linux-64", p.String())
	})

	t.Run("arm variant", func(t *testing.T) {
		_, err := values.NewPlatform("osx-arm64")
		assert.NoError(t, err)
	})

	t.Run("empty rejected", func(t *testing.T) {
		_, err := values.NewPlatform("")
		assert.Error(t, err)
	})

	t.Run("uppercase rejected", func(t *testing.T) {
		_, err := values.NewPlatform("Linux-64")
		assert.Error(t, err)
	})
}

func TestNewPackageName(t *testing.T) {
	t.Parallel()

	t.Run("normalizes case", func(t *testing.T) {
		n, err := values.NewPackageName(" NumPy ")
		require.NoError(t, err)
		assert.Equal(t, "numpy", n.String())
	})

	t.Run("empty rejected", func(t *testing.T) {
		_, err := values.NewPackageName("")
		assert.Error(t, err)
	})
}
