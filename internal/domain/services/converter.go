package services

import (
	"sort"

	"github.com/pinlock-dev/pinlock/internal/domain/entities"
	"github.com/pinlock-dev/pinlock/internal/domain/values"
)

// VersionConverter transforms between the internal category-set model and
// the legacy one-row-per-category model. The legacy model is purely a wire
// concern; every algorithm upstream operates on category sets.
type VersionConverter struct{}

// NewVersionConverter creates a new version converter service
func NewVersionConverter() *VersionConverter {
	return &VersionConverter{}
}

// ToRows emits one legacy row per category for each package. Because valid
// entries never carry an empty category set, every package yields at least
// one row; an empty set reaching this stage is an integrity defect and
// fails loudly instead of emitting zero rows, which is exactly the silent
// disappearance this conversion exists to rule out.
//
// Rows are ordered by (name, platform, manager, category) so the rendered
// output is stable regardless of input order.
func (c *VersionConverter) ToRows(packages []entities.LockedPackage) ([]entities.CategoryRow, error) {
	var rows []entities.CategoryRow
	for _, pkg := range packages {
		if pkg.Categories.IsEmpty() {
			return nil, &entities.EmptyCategoryIntegrityError{
				Platform: pkg.Platform,
				Manager:  pkg.Manager,
				Name:     pkg.Name,
			}
		}
		for _, label := range pkg.Categories.Sorted() {
			rows = append(rows, entities.CategoryRow{
				PlannedPackage: pkg.PlannedPackage,
				Platform:       pkg.Platform,
				Category:       values.MustNewCategory(label),
				Requested:      pkg.Requested,
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		ki, kj := rows[i].Key(), rows[j].Key()
		if ki != kj {
			return ki.Less(kj)
		}
		return rows[i].Category.String() < rows[j].Category.String()
	})
	return rows, nil
}

// FromRows groups legacy rows by package identity and unions their single
// categories into one entry per package. Two rows for the same package
// merge rather than duplicating the package; rows for the same package
// that disagree on identity have no unique resolution.
func (c *VersionConverter) FromRows(rows []entities.CategoryRow) ([]entities.LockedPackage, error) {
	grouped := make(map[entities.PackageKey]entities.LockedPackage)
	var order []entities.PackageKey

	for _, row := range rows {
		key := row.Key()
		existing, ok := grouped[key]
		if !ok {
			categories := values.NewCategorySet(row.Category)
			grouped[key] = entities.LockedPackage{
				PlannedPackage: row.PlannedPackage,
				Platform:       row.Platform,
				Categories:     categories,
				Requested:      row.Requested,
			}
			order = append(order, key)
			continue
		}
		if !existing.PlannedPackage.SameIdentity(row.PlannedPackage) {
			return nil, &entities.InconsistentMergeError{
				Platform: row.Platform,
				Manager:  row.Manager,
				Name:     row.Name,
				Previous: identityString(existing.PlannedPackage),
				Fresh:    identityString(row.PlannedPackage),
			}
		}
		existing.Categories.Add(row.Category)
		if existing.Requested == "" {
			existing.Requested = row.Requested
		}
		grouped[key] = existing
	}

	sort.Slice(order, func(i, j int) bool { return order[i].Less(order[j]) })
	out := make([]entities.LockedPackage, 0, len(order))
	for _, key := range order {
		out = append(out, grouped[key])
	}
	return out, nil
}
