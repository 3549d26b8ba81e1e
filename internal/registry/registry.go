// Package registry holds the named, validated weight profiles used for
// scoring. Profiles are replaced atomically: readers always see either the
// old or the new complete profile, never a partial update.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Meridian-SCM/Segment/internal/scoring"
)

// DefaultBusinessUnit names the fallback profile applied when a business unit
// has no profile of its own.
const DefaultBusinessUnit = "combined"

// ValidationResult lists every governance violation found in a profile, so a
// configuration author can fix all issues in one pass.
type ValidationResult struct {
	Profile    string   `json:"profile"`
	Version    string   `json:"version"`
	Violations []string `json:"violations,omitempty"`
}

func (r ValidationResult) OK() bool {
	return len(r.Violations) == 0
}

// ValidateProfile checks weight governance plus the business-unit multiplier
// bounds. It never stops at the first violation.
func ValidateProfile(p scoring.Profile) ValidationResult {
	result := ValidationResult{Profile: p.BusinessUnit, Version: p.Version}
	result.Violations = append(result.Violations, p.Weights.Violations()...)

	if p.BusinessUnit == "" {
		result.Violations = append(result.Violations, "business_unit is empty")
	}
	if p.Version == "" {
		result.Violations = append(result.Violations, "profile version is empty")
	}
	if p.BUImpact < 0 || p.BUImpact > scoring.MaxBUImpact {
		result.Violations = append(result.Violations,
			fmt.Sprintf("bu_impact %.2f outside [0,%.0f]", p.BUImpact, scoring.MaxBUImpact))
	}
	if p.BUScale < 0 || p.BUScale > scoring.MaxBUScale {
		result.Violations = append(result.Violations,
			fmt.Sprintf("bu_scale %.2f outside [0,%.0f]", p.BUScale, scoring.MaxBUScale))
	}
	return result
}

type Registry struct {
	mu       sync.RWMutex
	profiles map[string]scoring.Profile
}

func New() *Registry {
	return &Registry{profiles: make(map[string]scoring.Profile)}
}

// Put validates and atomically installs one profile, replacing any previous
// version for the same business unit.
func (r *Registry) Put(p scoring.Profile) error {
	if result := ValidateProfile(p); !result.OK() {
		return fmt.Errorf("%w: %v", scoring.ErrInvalidProfile, result.Violations)
	}
	r.mu.Lock()
	r.profiles[p.BusinessUnit] = p
	r.mu.Unlock()
	return nil
}

// Get returns the profile for a business unit, falling back to the default
// combined profile. The returned profile is a value copy, safe to use as a
// read-only snapshot during a scoring pass.
func (r *Registry) Get(businessUnit string) (scoring.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.profiles[businessUnit]; ok {
		return p, nil
	}
	if p, ok := r.profiles[DefaultBusinessUnit]; ok {
		return p, nil
	}
	return scoring.Profile{}, fmt.Errorf("%w: %s", scoring.ErrMissingProfile, businessUnit)
}

// Has reports whether a business unit has its own profile (no fallback).
func (r *Registry) Has(businessUnit string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.profiles[businessUnit]
	return ok
}

// BusinessUnits returns the configured business unit tags, sorted.
func (r *Registry) BusinessUnits() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	units := make([]string, 0, len(r.profiles))
	for bu := range r.profiles {
		units = append(units, bu)
	}
	sort.Strings(units)
	return units
}
