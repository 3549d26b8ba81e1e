// Package segment classifies computed supplier scores into the four strategic
// tiers and validates population distributions against governance targets.
package segment

import (
	"fmt"
)

// Tier is the ordered supplier classification:
// Strategic > Critical > Operational > Transactional.
//
// TierExit is a terminal tag outside the four-tier scale. It is applied
// upstream by an explicit offboarding decision, never assigned from a score;
// the classifier only passes an existing Exit through.
type Tier string

const (
	TierStrategic     Tier = "Strategic"
	TierCritical      Tier = "Critical"
	TierOperational   Tier = "Operational"
	TierTransactional Tier = "Transactional"
	TierExit          Tier = "Exit"
)

// Tiers lists the four score-driven tiers in descending order.
func Tiers() []Tier {
	return []Tier{TierStrategic, TierCritical, TierOperational, TierTransactional}
}

// Rank orders tiers: higher rank means more strategic. Exit ranks below all.
func (t Tier) Rank() int {
	switch t {
	case TierStrategic:
		return 4
	case TierCritical:
		return 3
	case TierOperational:
		return 2
	case TierTransactional:
		return 1
	default:
		return 0
	}
}

// Thresholds are the score cut points, evaluated in descending order. They
// are configuration, not hardcoded law; DefaultThresholds gives the standard
// governance defaults. Ties at a boundary resolve to the higher tier.
type Thresholds struct {
	Strategic   float64 `yaml:"strategic" json:"strategic"`
	Critical    float64 `yaml:"critical" json:"critical"`
	Operational float64 `yaml:"operational" json:"operational"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{Strategic: 80, Critical: 60, Operational: 30}
}

// Validate checks that the cut points descend and stay inside [0,100].
func (t Thresholds) Validate() error {
	if t.Strategic <= t.Critical || t.Critical <= t.Operational {
		return fmt.Errorf("thresholds must descend: strategic %.2f > critical %.2f > operational %.2f",
			t.Strategic, t.Critical, t.Operational)
	}
	if t.Operational < 0 || t.Strategic > 100 {
		return fmt.Errorf("thresholds must stay inside [0,100]")
	}
	return nil
}

// Classifier maps score values to tiers under one threshold configuration.
type Classifier struct {
	thresholds Thresholds
}

func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{thresholds: t}
}

// Classify maps a score value to its tier. Exactly hitting a boundary
// resolves upward: a score of 80.0 under default thresholds is Strategic.
func (c *Classifier) Classify(value float64) Tier {
	switch {
	case value >= c.thresholds.Strategic:
		return TierStrategic
	case value >= c.thresholds.Critical:
		return TierCritical
	case value >= c.thresholds.Operational:
		return TierOperational
	default:
		return TierTransactional
	}
}

// ClassifyWithOverride applies the exogenous Exit override: a supplier
// already marked for offboarding keeps Exit regardless of its score.
func (c *Classifier) ClassifyWithOverride(value float64, exitFlagged bool) Tier {
	if exitFlagged {
		return TierExit
	}
	return c.Classify(value)
}
