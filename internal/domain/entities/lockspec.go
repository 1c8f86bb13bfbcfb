package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pinlock-dev/pinlock/internal/domain/values"
)

// LockSpec is the user specification the lock file is derived from: the
// channel list plus the root requests declared per platform.
type LockSpec struct {
	Channels []string
	Requests map[values.Platform][]RootRequest
}

// Platforms returns the spec's target platforms, sorted.
func (s *LockSpec) Platforms() []values.Platform {
	out := make([]values.Platform, 0, len(s.Requests))
	for p := range s.Requests {
		out = append(out, p)
	}
	values.SortPlatforms(out)
	return out
}

// RequestsFor returns the root requests for one platform.
func (s *LockSpec) RequestsFor(platform values.Platform) []RootRequest {
	return s.Requests[platform]
}

// hashedRequest is the canonical material a root request contributes to the
// content hash. Field order is fixed; categories are sorted.
type hashedRequest struct {
	Name       string   `json:"name"`
	Manager    string   `json:"manager"`
	Constraint string   `json:"constraint,omitempty"`
	Categories []string `json:"categories"`
}

// ContentHashForPlatform computes a digest of everything that influences
// the solve for one platform. Identical specs hash identically regardless
// of declaration order, so the hash can be compared across runs to detect
// stale platforms.
func (s *LockSpec) ContentHashForPlatform(platform values.Platform) (string, error) {
	requests, ok := s.Requests[platform]
	if !ok {
		return "", fmt.Errorf("platform %s is not part of the spec", platform)
	}

	specs := make([]hashedRequest, 0, len(requests))
	for _, r := range requests {
		specs = append(specs, hashedRequest{
			Name:       r.Name.String(),
			Manager:    r.Manager.String(),
			Constraint: r.Constraint,
			Categories: r.Categories.Sorted(),
		})
	}
	sort.Slice(specs, func(i, j int) bool {
		if specs[i].Manager != specs[j].Manager {
			return specs[i].Manager < specs[j].Manager
		}
		return specs[i].Name < specs[j].Name
	})

	channels := append([]string(nil), s.Channels...)

	material, err := json.Marshal(struct {
		Channels []string        `json:"channels"`
		Specs    []hashedRequest `json:"specs"`
	}{Channels: channels, Specs: specs})
	if err != nil {
		return "", fmt.Errorf("hashing spec for platform %s: %w", platform, err)
	}

	digest := sha256.Sum256(material)
	return hex.EncodeToString(digest[:]), nil
}

// ContentHashes computes the per-platform hashes for the whole spec.
func (s *LockSpec) ContentHashes() (map[string]string, error) {
	out := make(map[string]string, len(s.Requests))
	for platform := range s.Requests {
		h, err := s.ContentHashForPlatform(platform)
		if err != nil {
			return nil, err
		}
		out[platform.String()] = h
	}
	return out, nil
}

// Validate checks that every platform has at least one request and that
// requests are unique per (manager, name).
func (s *LockSpec) Validate() error {
	if len(s.Requests) == 0 {
		return fmt.Errorf("spec declares no platforms")
	}
	for platform, requests := range s.Requests {
		if len(requests) == 0 {
			return fmt.Errorf("platform %s declares no dependencies", platform)
		}
		seen := make(map[string]bool, len(requests))
		for _, r := range requests {
			id := r.Manager.String() + "/" + r.Name.String()
			if seen[id] {
				return fmt.Errorf("platform %s: duplicate root request %s (%s)", platform, r.Name, r.Manager)
			}
			seen[id] = true
		}
	}
	return nil
}
