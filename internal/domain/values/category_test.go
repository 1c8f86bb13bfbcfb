package values_test

import (
	"testing"

	"github.com/pinlock-dev/pinlock/internal/domain/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCategory(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		c, err := values.NewCategory("main")
		require.NoError(t, err)
		assert.Equal(t, "main", c.String())
	})

	t.Run("trims whitespace", func(t *testing.T) {
		c, err := values.NewCategory("  dev ")
		require.NoError(t, err)
		assert.Equal(t, "dev", c.String())
	})

	t.Run("empty rejected", func(t *testing.T) {
		_, err := values.NewCategory("   ")
		assert.Error(t, err)
	})

	t.Run("case sensitive", func(t *testing.T) {
		upper := values.MustNewCategory("Dev")
		lower := values.MustNewCategory("dev")
		assert.False(t, upper.Equals(lower))
	})
}

func TestCategorySet_Union(t *testing.T) {
	t.Parallel()

	main := values.MustNewCategory("main")
	dev := values.MustNewCategory("dev")
	test := values.MustNewCategory("test")

	t.Run("commutative", func(t *testing.T) {
		a := values.NewCategorySet(main, dev)
		b := values.NewCategorySet(test)

		ab := a.Clone()
		ab.Union(b)
		ba := b.Clone()
		ba.Union(a)

		assert.True(t, ab.Equals(ba))
	})

	t.Run("idempotent", func(t *testing.T) {
		a := values.NewCategorySet(main, dev)
		once := a.Clone()
		once.Union(a)
		assert.True(t, once.Equals(a))
	})

	t.Run("accumulates members", func(t *testing.T) {
		s := values.NewCategorySet(main)
		s.Union(values.NewCategorySet(dev))
		assert.Equal(t, []string{"dev", "main"}, s.Sorted())
	})
}

func TestCategorySet_Sorted(t *testing.T) {
	t.Parallel()

	s := values.NewCategorySet(
		values.MustNewCategory("test"),
		values.MustNewCategory("main"),
		values.MustNewCategory("dev"),
	)
	assert.Equal(t, []string{"dev", "main", "test"}, s.Sorted())
}

func TestCategorySet_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	original := values.NewCategorySet(values.MustNewCategory("main"))
	clone := original.Clone()
	clone.Add(values.MustNewCategory("dev"))

	assert.Equal(t, 1, original.Len())
	assert.Equal(t, 2, clone.Len())
}

func TestParseCategorySet(t *testing.T) {
	t.Parallel()

	t.Run("valid labels", func(t *testing.T) {
		s, err := values.ParseCategorySet([]string{"main", "dev", "main"})
		require.NoError(t, err)
		assert.Equal(t, []string{"dev", "main"}, s.Sorted())
	})

	t.Run("empty label rejected", func(t *testing.T) {
		_, err := values.ParseCategorySet([]string{"main", ""})
		assert.Error(t, err)
	})
}
