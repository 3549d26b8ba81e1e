package scoring

import (
	"fmt"
	"math"
)

// Weight governance bounds. Weights for all active criteria must sum to 1.0
// within SumTolerance; an active (nonzero) weight must stay inside
// [MinActiveWeight, MaxActiveWeight] so no single criterion dominates and no
// token weight lingers below usefulness.
const (
	SumTolerance    = 1e-6
	MinActiveWeight = 0.05
	MaxActiveWeight = 0.30
)

// WeightSet defines the relative importance of each scoring criterion.
// A zero weight deactivates a criterion entirely.
type WeightSet struct {
	SoleSource   float64 `yaml:"sole_source" json:"sole_source"`
	SingleSource float64 `yaml:"single_source" json:"single_source"`
	MultiSource  float64 `yaml:"multi_source" json:"multi_source"`
	RampTime     float64 `yaml:"ramp_time" json:"ramp_time"`
	Spend        float64 `yaml:"spend" json:"spend"`
	Partnership  float64 `yaml:"partnership" json:"partnership"`
	Innovation   float64 `yaml:"innovation" json:"innovation"`
	Risk         float64 `yaml:"risk" json:"risk"`
}

// DefaultWeights returns the combined-profile weight distribution.
func DefaultWeights() WeightSet {
	return WeightSet{
		SoleSource:   0.25,
		SingleSource: 0.10,
		MultiSource:  0.05,
		RampTime:     0.15,
		Spend:        0.10,
		Partnership:  0.15,
		Innovation:   0.10,
		Risk:         0.10,
	}
}

// Weight returns the weight assigned to one criterion.
func (w WeightSet) Weight(c Criterion) float64 {
	switch c {
	case CriterionSoleSource:
		return w.SoleSource
	case CriterionSingleSource:
		return w.SingleSource
	case CriterionMultiSource:
		return w.MultiSource
	case CriterionRampTime:
		return w.RampTime
	case CriterionSpend:
		return w.Spend
	case CriterionPartnership:
		return w.Partnership
	case CriterionInnovation:
		return w.Innovation
	case CriterionRisk:
		return w.Risk
	}
	return 0
}

// Sum returns the total of all weights.
func (w WeightSet) Sum() float64 {
	var total float64
	for _, c := range Criteria() {
		total += w.Weight(c)
	}
	return total
}

// Validate checks that weights sum to 1.0 and every active weight sits inside
// the governance bounds. It returns the first violation; Violations returns
// them all.
func (w WeightSet) Validate() error {
	violations := w.Violations()
	if len(violations) > 0 {
		return fmt.Errorf("%s", violations[0])
	}
	return nil
}

// Violations returns every governance violation in the weight set, so a
// configuration author can fix all issues in one pass.
func (w WeightSet) Violations() []string {
	var out []string
	if math.Abs(w.Sum()-1.0) > SumTolerance {
		out = append(out, fmt.Sprintf("weights sum to %.6f, must sum to 1.0", w.Sum()))
	}
	for _, c := range Criteria() {
		v := w.Weight(c)
		if v == 0 {
			continue // inactive criterion
		}
		if v < 0 {
			out = append(out, fmt.Sprintf("negative weight for %s: %f", c, v))
			continue
		}
		if v < MinActiveWeight {
			out = append(out, fmt.Sprintf("active weight for %s is %.4f, below minimum %.2f", c, v, MinActiveWeight))
		}
		if v > MaxActiveWeight {
			out = append(out, fmt.Sprintf("weight for %s is %.4f, above maximum %.2f", c, v, MaxActiveWeight))
		}
	}
	return out
}
