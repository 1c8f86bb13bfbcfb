package services_test

import (
	"testing"

	"github.com/pinlock-dev/pinlock/internal/domain/entities"
	"github.com/pinlock-dev/pinlock/internal/domain/services"
	"github.com/pinlock-dev/pinlock/internal/domain/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionConverter_ToRows(t *testing.T) {
	t.Parallel()

	conv := services.NewVersionConverter()

	t.Run("one row per category", func(t *testing.T) {
		rows, err := conv.ToRows([]entities.LockedPackage{
			lockedFrom(planned("requests", "2.28.1"), ">=2.28", "dev", "main"),
		})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "dev", rows[0].Category.String())
		assert.Equal(t, "main", rows[1].Category.String())
		assert.Equal(t, "2.28.1", rows[0].Version)
		assert.Equal(t, ">=2.28", rows[0].Requested)
	})

	t.Run("empty category set fails loudly", func(t *testing.T) {
		_, err := conv.ToRows([]entities.LockedPackage{{
			PlannedPackage: planned("ghost", "1.0"),
			Platform:       linux,
			Categories:     values.NewCategorySet(),
		}})

		var integrity *entities.EmptyCategoryIntegrityError
		require.ErrorAs(t, err, &integrity)
		assert.Equal(t, "ghost", integrity.Name.String())
	})

	t.Run("rows sorted by key then category", func(t *testing.T) {
		rows, err := conv.ToRows([]entities.LockedPackage{
			lockedFrom(planned("zlib", "1.3"), "", "main"),
			lockedFrom(planned("attrs", "23.1"), "", "main"),
		})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "attrs", rows[0].Name.String())
		assert.Equal(t, "zlib", rows[1].Name.String())
	})
}

func TestVersionConverter_FromRows(t *testing.T) {
	t.Parallel()

	conv := services.NewVersionConverter()
	row := func(pkg entities.PlannedPackage, category string) entities.CategoryRow {
		return entities.CategoryRow{
			PlannedPackage: pkg,
			Platform:       linux,
			Category:       values.MustNewCategory(category),
		}
	}

	t.Run("rows for one package merge", func(t *testing.T) {
		pkg := planned("requests", "2.28.1")
		got, err := conv.FromRows([]entities.CategoryRow{
			row(pkg, "main"),
			row(pkg, "dev"),
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, []string{"dev", "main"}, got[0].Categories.Sorted())
		assert.Equal(t, pkg.Hash, got[0].Hash)
	})

	t.Run("row order does not matter", func(t *testing.T) {
		pkg := planned("requests", "2.28.1")
		other := planned("attrs", "23.1")

		forward, err := conv.FromRows([]entities.CategoryRow{
			row(pkg, "main"), row(other, "dev"), row(pkg, "dev"),
		})
		require.NoError(t, err)
		reversed, err := conv.FromRows([]entities.CategoryRow{
			row(pkg, "dev"), row(other, "dev"), row(pkg, "main"),
		})
		require.NoError(t, err)
		assert.Equal(t, forward, reversed)
	})

	t.Run("identity conflict has no resolution", func(t *testing.T) {
		a := planned("requests", "2.28.1")
		b := planned("requests", "2.31.0")

		_, err := conv.FromRows([]entities.CategoryRow{
			row(a, "main"),
			row(b, "dev"),
		})

		var conflict *entities.InconsistentMergeError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "requests", conflict.Name.String())
	})

	t.Run("round trip preserves entries", func(t *testing.T) {
		original := []entities.LockedPackage{
			lockedFrom(planned("attrs", "23.1"), "", "main"),
			lockedFrom(planned("requests", "2.28.1"), ">=2.28", "dev", "main"),
		}
		rows, err := conv.ToRows(original)
		require.NoError(t, err)
		got, err := conv.FromRows(rows)
		require.NoError(t, err)
		assert.Equal(t, original, got)
	})
}
