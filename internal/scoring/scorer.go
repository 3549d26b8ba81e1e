package scoring

import (
	"errors"
	"fmt"

	"github.com/Meridian-SCM/Segment/internal/store"
)

// Error kinds surfaced by the calculator. Callers match with errors.Is.
var (
	// ErrInvalidRecord marks malformed or out-of-range supplier attributes.
	// Raw inputs are never silently clamped; only the final score is.
	ErrInvalidRecord = errors.New("invalid supplier record")

	// ErrInvalidProfile marks a weight configuration outside governance
	// bounds. A bad profile fails every supplier in its business unit.
	ErrInvalidProfile = errors.New("invalid weight profile")

	// ErrMissingProfile marks a business unit with no profile and no default.
	ErrMissingProfile = errors.New("no weight profile for business unit")
)

// Score is the computed output for one supplier record: a scalar in [0,100]
// plus the per-criterion breakdown retained for audit and sensitivity
// analysis. Derived, never mutated.
type Score struct {
	SupplierID     string            `json:"supplier_id"`
	BusinessUnit   string            `json:"business_unit"`
	Value          float64           `json:"value"`
	Raw            float64           `json:"raw"`
	Components     []ComponentResult `json:"components"`
	ProfileVersion string            `json:"profile_version"`
}

// Breakdown returns the pre-multiplier weighted contribution per criterion.
func (s Score) Breakdown() map[string]float64 {
	out := make(map[string]float64, len(s.Components))
	for _, c := range s.Components {
		out[string(c.Criterion)] = c.Weighted
	}
	return out
}

// ValidateRecord checks a supplier record's raw attributes. It reports every
// violation wrapped in ErrInvalidRecord.
func ValidateRecord(rec *store.SupplierRecord) error {
	var problems []string
	if rec.SoleSourceParts < 0 || rec.SingleSourceParts < 0 || rec.MultiSourceParts < 0 {
		problems = append(problems, "negative source part count")
	}
	if rec.TotalParts() <= 0 {
		problems = append(problems, "total parts must be > 0")
	}
	if rec.RampTimeMonths < 0 {
		problems = append(problems, fmt.Sprintf("ramp_time_months %.2f is negative", rec.RampTimeMonths))
	}
	if rec.AnnualSpend < 0 {
		problems = append(problems, fmt.Sprintf("annual_spend %.2f is negative", rec.AnnualSpend))
	}
	ordinals := []struct {
		name  string
		value int
	}{
		{"partnership_score", rec.PartnershipScore},
		{"innovation_score", rec.InnovationScore},
		{"risk_score", rec.RiskScore},
	}
	for _, o := range ordinals {
		if o.value < 1 || o.value > 3 {
			problems = append(problems, fmt.Sprintf("%s %d outside [1,3]", o.name, o.value))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRecord, joinProblems(problems))
	}
	return nil
}

func joinProblems(problems []string) string {
	out := problems[0]
	for _, p := range problems[1:] {
		out += "; " + p
	}
	return out
}

// Calculator computes supplier scores. It holds no mutable state; Score is a
// pure function of the record and profile, so concurrent calls with different
// profiles never interfere.
type Calculator struct{}

func NewCalculator() *Calculator {
	return &Calculator{}
}

// Score computes the weighted score for one supplier under one profile.
//
//	raw   = Σ weight[c] × normalized[c]
//	value = clamp((bu_impact/100) × (bu_scale/3) × raw × 100, 0, 100)
//
// The clamp guards against pathological multiplier configurations; it is not
// an expected path. Re-running with identical inputs yields a bit-identical
// score.
func (c *Calculator) Score(rec *store.SupplierRecord, profile Profile) (Score, error) {
	if err := ValidateRecord(rec); err != nil {
		return Score{}, err
	}
	if err := profile.Weights.Validate(); err != nil {
		return Score{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	normalized := Normalize(rec)

	components := make([]ComponentResult, 0, len(normalized))
	var raw float64
	for _, criterion := range Criteria() {
		weight := profile.Weights.Weight(criterion)
		weighted := weight * normalized[criterion]
		raw += weighted
		components = append(components, ComponentResult{
			Criterion:  criterion,
			Normalized: normalized[criterion],
			Weight:     weight,
			Weighted:   weighted,
		})
	}

	value := clamp(profile.Multiplier()*raw*100.0, 0, 100)

	return Score{
		SupplierID:     rec.SupplierID,
		BusinessUnit:   rec.BusinessUnit,
		Value:          value,
		Raw:            raw,
		Components:     components,
		ProfileVersion: profile.Version,
	}, nil
}
