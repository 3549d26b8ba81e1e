package scoring

import (
	"github.com/Meridian-SCM/Segment/internal/store"
)

// CriterionDelta reports how the final score moves when one raw input is
// perturbed while everything else stays fixed.
type CriterionDelta struct {
	Criterion Criterion `json:"criterion"`
	Base      float64   `json:"base"`
	Up        float64   `json:"up"`
	Down      float64   `json:"down"`
}

// Sensitivity perturbs each raw input up and down by one step and reports the
// resulting score per criterion. Step sizes: one part for source counts, one
// month of ramp time, 10% of annual spend, one rating level for ordinals.
// Perturbed values are kept inside their valid ranges, so a rating already at
// a bound reports the base score for that direction.
func (c *Calculator) Sensitivity(rec *store.SupplierRecord, profile Profile) ([]CriterionDelta, error) {
	base, err := c.Score(rec, profile)
	if err != nil {
		return nil, err
	}

	deltas := make([]CriterionDelta, 0, len(Criteria()))
	for _, criterion := range Criteria() {
		up := *rec
		down := *rec
		perturb(&up, criterion, +1)
		perturb(&down, criterion, -1)

		deltas = append(deltas, CriterionDelta{
			Criterion: criterion,
			Base:      base.Value,
			Up:        c.mustValue(&up, profile, base.Value),
			Down:      c.mustValue(&down, profile, base.Value),
		})
	}
	return deltas, nil
}

// mustValue scores a perturbed copy, falling back to the base value when the
// perturbation left the valid input range.
func (c *Calculator) mustValue(rec *store.SupplierRecord, profile Profile, fallback float64) float64 {
	s, err := c.Score(rec, profile)
	if err != nil {
		return fallback
	}
	return s.Value
}

func perturb(rec *store.SupplierRecord, criterion Criterion, direction int) {
	switch criterion {
	case CriterionSoleSource:
		rec.SoleSourceParts = maxInt(rec.SoleSourceParts+direction, 0)
	case CriterionSingleSource:
		rec.SingleSourceParts = maxInt(rec.SingleSourceParts+direction, 0)
	case CriterionMultiSource:
		rec.MultiSourceParts = maxInt(rec.MultiSourceParts+direction, 0)
	case CriterionRampTime:
		rec.RampTimeMonths += float64(direction)
		if rec.RampTimeMonths < 0 {
			rec.RampTimeMonths = 0
		}
	case CriterionSpend:
		rec.AnnualSpend *= 1.0 + 0.1*float64(direction)
	case CriterionPartnership:
		rec.PartnershipScore = clampOrdinal(rec.PartnershipScore + direction)
	case CriterionInnovation:
		rec.InnovationScore = clampOrdinal(rec.InnovationScore + direction)
	case CriterionRisk:
		rec.RiskScore = clampOrdinal(rec.RiskScore + direction)
	}
}

func clampOrdinal(v int) int {
	if v < 1 {
		return 1
	}
	if v > 3 {
		return 3
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
