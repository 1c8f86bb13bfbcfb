package values

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultCategory is assigned to root requests that do not name a usage group.
const DefaultCategory = "main"

// Category represents a validated usage-group label such as "main" or "dev".
// Labels are case-sensitive and never empty.
type Category struct {
	value string
}

// NewCategory creates a Category with validation
func NewCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Category{}, fmt.Errorf("category cannot be empty")
	}
	return Category{value: s}, nil
}

// MustNewCategory creates a Category or panics
func MustNewCategory(s string) Category {
	c, err := NewCategory(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String returns the string representation
func (c Category) String() string {
	return c.value
}

// IsEmpty returns true if this is the zero value
func (c Category) IsEmpty() bool {
	return c.value == ""
}

// Equals checks if two categories are equal
func (c Category) Equals(other Category) bool {
	return c.value == other.value
}

// CategorySet is a set of usage-group labels. Union is the only merge
// operation; it is commutative and idempotent, so accumulation order can
// never change the result.
type CategorySet struct {
	members map[string]struct{}
}

// NewCategorySet creates a set containing the given categories.
func NewCategorySet(categories ...Category) CategorySet {
	s := CategorySet{members: make(map[string]struct{}, len(categories))}
	for _, c := range categories {
		s.Add(c)
	}
	return s
}

// ParseCategorySet creates a set from raw labels, validating each one.
func ParseCategorySet(labels []string) (CategorySet, error) {
	s := NewCategorySet()
	for _, l := range labels {
		c, err := NewCategory(l)
		if err != nil {
			return CategorySet{}, err
		}
		s.Add(c)
	}
	return s, nil
}

// Add inserts a category into the set. Adding the zero Category is a no-op.
func (s *CategorySet) Add(c Category) {
	if c.IsEmpty() {
		return
	}
	if s.members == nil {
		s.members = make(map[string]struct{})
	}
	s.members[c.value] = struct{}{}
}

// Union merges all members of other into this set.
func (s *CategorySet) Union(other CategorySet) {
	for m := range other.members {
		s.Add(Category{value: m})
	}
}

// Contains reports whether c is a member.
func (s CategorySet) Contains(c Category) bool {
	_, ok := s.members[c.value]
	return ok
}

// ContainsAll reports whether every member of other is also a member of s.
func (s CategorySet) ContainsAll(other CategorySet) bool {
	for m := range other.members {
		if _, ok := s.members[m]; !ok {
			return false
		}
	}
	return true
}

// IsEmpty returns true if the set has no members.
func (s CategorySet) IsEmpty() bool {
	return len(s.members) == 0
}

// Len returns the number of members.
func (s CategorySet) Len() int {
	return len(s.members)
}

// Clone returns an independent copy of the set.
func (s CategorySet) Clone() CategorySet {
	c := CategorySet{members: make(map[string]struct{}, len(s.members))}
	for m := range s.members {
		c.members[m] = struct{}{}
	}
	return c
}

// Equals checks set equality by membership.
func (s CategorySet) Equals(other CategorySet) bool {
	if len(s.members) != len(other.members) {
		return false
	}
	return s.ContainsAll(other)
}

// Sorted returns the members as lexicographically sorted labels.
// Serialization goes through this so output is stable across runs.
func (s CategorySet) Sorted() []string {
	out := make([]string, 0, len(s.members))
	for m := range s.members {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// String returns the sorted members joined with commas.
func (s CategorySet) String() string {
	return strings.Join(s.Sorted(), ",")
}
