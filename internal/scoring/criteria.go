package scoring

import (
	"github.com/Meridian-SCM/Segment/internal/store"
)

// Criterion names one of the eight scoring components. The set is closed so a
// misspelled criterion in configuration is a validation error, not a silent
// zero weight.
type Criterion string

const (
	CriterionSoleSource   Criterion = "sole_source"
	CriterionSingleSource Criterion = "single_source"
	CriterionMultiSource  Criterion = "multi_source"
	CriterionRampTime     Criterion = "ramp_time"
	CriterionSpend        Criterion = "spend"
	CriterionPartnership  Criterion = "partnership"
	CriterionInnovation   Criterion = "innovation"
	CriterionRisk         Criterion = "risk"
)

// Criteria lists all scoring components in evaluation order.
func Criteria() []Criterion {
	return []Criterion{
		CriterionSoleSource, CriterionSingleSource, CriterionMultiSource,
		CriterionRampTime, CriterionSpend,
		CriterionPartnership, CriterionInnovation, CriterionRisk,
	}
}

// ComponentResult captures one criterion's contribution to the total score.
// Weighted is pre-multiplier: weight × normalized, before the business-unit
// impact and scale factors are applied.
type ComponentResult struct {
	Criterion  Criterion `json:"criterion"`
	Normalized float64   `json:"normalized"`
	Weight     float64   `json:"weight"`
	Weighted   float64   `json:"weighted"`
}

// --- Normalization functions ---
//
// Each maps a raw supplier attribute into [0,1], monotonic in the direction
// the criterion calls for. Inputs are validated upstream; these functions
// never clamp raw values.

// SourceRatios returns the sole/single/multi source part ratios. The record
// must have at least one tracked part.
func SourceRatios(rec *store.SupplierRecord) (sole, single, multi float64) {
	total := float64(rec.TotalParts())
	return float64(rec.SoleSourceParts) / total,
		float64(rec.SingleSourceParts) / total,
		float64(rec.MultiSourceParts) / total
}

// NormalizeRampTime maps qualification ramp time to [0,1) with a convex
// saturating curve: 1 - 1/(1 + (months/12)^2). A 12-month ramp lands at 0.5;
// very long ramps approach 1.
func NormalizeRampTime(months float64) float64 {
	r := months / 12.0
	return 1.0 - 1.0/(1.0+r*r)
}

// NormalizeSpend maps annual spend to [0,1) with a concave saturating curve:
// 1 - 1/(1 + spend/100). Saturation keeps a single large spender from
// dominating the score.
func NormalizeSpend(spend float64) float64 {
	return 1.0 - 1.0/(1.0+spend/100.0)
}

// NormalizeOrdinal rescales a [1,3] rating to (0,1].
func NormalizeOrdinal(rating int) float64 {
	return float64(rating) / 3.0
}

// NormalizeRisk inverts a [1,3] risk rating so that lower risk contributes
// more: risk 1 → 1.0, risk 3 → 0.33.
func NormalizeRisk(rating int) float64 {
	return float64(4-rating) / 3.0
}

// Normalize evaluates every criterion for a record. Keys cover the full
// closed criterion set.
func Normalize(rec *store.SupplierRecord) map[Criterion]float64 {
	sole, single, multi := SourceRatios(rec)
	return map[Criterion]float64{
		CriterionSoleSource:   sole,
		CriterionSingleSource: single,
		CriterionMultiSource:  multi,
		CriterionRampTime:     NormalizeRampTime(rec.RampTimeMonths),
		CriterionSpend:        NormalizeSpend(rec.AnnualSpend),
		CriterionPartnership:  NormalizeOrdinal(rec.PartnershipScore),
		CriterionInnovation:   NormalizeOrdinal(rec.InnovationScore),
		CriterionRisk:         NormalizeRisk(rec.RiskScore),
	}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
