// Package apperrors defines application-level error types.
package apperrors

import (
	"fmt"

	"github.com/pinlock-dev/pinlock/internal/domain/values"
)

// PlatformError wraps a failure from one platform's pipeline with the run
// context needed to diagnose it without re-running verbosely.
type PlatformError struct {
	Platform values.Platform
	RunID    string
	Cause    error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("platform %s (run %s): %v", e.Platform, e.RunID, e.Cause)
}

func (e *PlatformError) Unwrap() error {
	return e.Cause
}

// NewPlatformError creates a new platform error.
func NewPlatformError(platform values.Platform, runID string, cause error) *PlatformError {
	return &PlatformError{Platform: platform, RunID: runID, Cause: cause}
}

// StaleLockError indicates a partial update was requested against a
// lockfile whose recorded spec hash no longer matches the current spec.
// Re-solving the platform in full is the only safe way forward.
type StaleLockError struct {
	Platform values.Platform
	Recorded string
	Current  string
}

func (e *StaleLockError) Error() string {
	return fmt.Sprintf(
		"platform %s: lockfile was generated from a different spec (recorded hash %.12s, current %.12s); run a full re-solve",
		e.Platform, e.Recorded, e.Current,
	)
}

// NewStaleLockError creates a new stale lock error.
func NewStaleLockError(platform values.Platform, recorded, current string) *StaleLockError {
	return &StaleLockError{Platform: platform, Recorded: recorded, Current: current}
}
