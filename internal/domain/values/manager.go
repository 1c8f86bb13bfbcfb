package values

import (
	"fmt"
	"strings"
)

// Manager identifies which package ecosystem resolved a package.
// Exactly two are supported: the native manager ("conda") and the
// language-level manager ("pip").
type Manager struct {
	value string
}

// Predefined manager values
var (
	ManagerConda = Manager{value: "conda"}
	ManagerPip   = Manager{value: "pip"}
)

// NewManager creates a Manager from string. The empty string defaults to
// the native manager, matching how source specs omit the field.
func NewManager(s string) (Manager, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	switch s {
	case "conda", "":
		return ManagerConda, nil
	case "pip":
		return ManagerPip, nil
	default:
		return Manager{}, fmt.Errorf("invalid manager: %s", s)
	}
}

// MustNewManager creates a Manager or panics
func MustNewManager(s string) Manager {
	m, err := NewManager(s)
	if err != nil {
		panic(err)
	}
	return m
}

// String returns the string representation
func (m Manager) String() string {
	return m.value
}

// IsEmpty returns true if this is the zero value
func (m Manager) IsEmpty() bool {
	return m.value == ""
}

// Equals checks if two managers are equal
func (m Manager) Equals(other Manager) bool {
	return m.value == other.value
}

// CanDependOn reports whether a package from this manager may declare an
// edge onto a package from other. Language-level packages may depend on
// native ones; the reverse direction is never valid.
func (m Manager) CanDependOn(other Manager) bool {
	if m.Equals(other) {
		return true
	}
	return m.Equals(ManagerPip) && other.Equals(ManagerConda)
}
