package values

import (
	"fmt"
	"strings"
)

// PackageName represents a validated package identifier, unique within one
// (platform, manager) pair. Names are compared case-insensitively, so they
// are normalized to lower case on construction.
type PackageName struct {
	value string
}

// NewPackageName creates a PackageName with validation
func NewPackageName(name string) (PackageName, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return PackageName{}, fmt.Errorf("package name cannot be empty")
	}
	return PackageName{value: name}, nil
}

// MustNewPackageName creates a PackageName or panics
func MustNewPackageName(name string) PackageName {
	n, err := NewPackageName(name)
	if err != nil {
		panic(err)
	}
	return n
}

// String returns the string representation
func (n PackageName) String() string {
	return n.value
}

// IsEmpty returns true if this is the zero value
func (n PackageName) IsEmpty() bool {
	return n.value == ""
}

// Equals checks if two package names are equal
func (n PackageName) Equals(other PackageName) bool {
	return n.value == other.value
}
