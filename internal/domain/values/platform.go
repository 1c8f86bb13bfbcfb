package values

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Platform pattern: os plus optional architecture, e.g. "linux-64",
// "osx-arm64", "win-64".
var platformPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9_]+)*$`)

// Platform identifies one solve target. Lock state is partitioned per
// platform; no edges cross platforms.
type Platform struct {
	value string
}

// NewPlatform creates a Platform with validation
func NewPlatform(s string) (Platform, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Platform{}, fmt.Errorf("platform cannot be empty")
	}
	if !platformPattern.MatchString(s) {
		return Platform{}, fmt.Errorf("invalid platform: %q (expected form like linux-64 or osx-arm64)", s)
	}
	return Platform{value: s}, nil
}

// MustNewPlatform creates a Platform or panics
func MustNewPlatform(s string) Platform {
	p, err := NewPlatform(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the string representation
func (p Platform) String() string {
	return p.value
}

// IsEmpty returns true if this is the zero value
func (p Platform) IsEmpty() bool {
	return p.value == ""
}

// Equals checks if two platforms are equal
func (p Platform) Equals(other Platform) bool {
	return p.value == other.value
}

// SortPlatforms orders platforms lexicographically for stable output.
func SortPlatforms(platforms []Platform) {
	sort.Slice(platforms, func(i, j int) bool {
		return platforms[i].value < platforms[j].value
	})
}
