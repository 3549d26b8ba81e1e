package scoring

import (
	"testing"
)

func TestSensitivityDirections(t *testing.T) {
	calc := NewCalculator()
	rec := validRecord()
	profile := workedProfile()

	deltas, err := calc.Sensitivity(rec, profile)
	if err != nil {
		t.Fatalf("Sensitivity failed: %v", err)
	}
	if len(deltas) != len(Criteria()) {
		t.Fatalf("got %d deltas, want %d", len(deltas), len(Criteria()))
	}

	byCriterion := make(map[Criterion]CriterionDelta)
	for _, d := range deltas {
		byCriterion[d.Criterion] = d
	}

	// Sole-source weight is positive, so one more sole part raises the score.
	sole := byCriterion[CriterionSoleSource]
	if sole.Up <= sole.Base {
		t.Errorf("sole +1 part should raise the score: base %f, up %f", sole.Base, sole.Up)
	}

	// Risk is already at the best rating; the down direction is pinned to
	// base.
	risk := byCriterion[CriterionRisk]
	if risk.Down != risk.Base {
		t.Errorf("risk already at bound, down should equal base: %f vs %f", risk.Down, risk.Base)
	}
	// Worse risk lowers the score.
	if risk.Up >= risk.Base {
		t.Errorf("worse risk should lower the score: base %f, up %f", risk.Base, risk.Up)
	}
}

func TestSensitivityInvalidRecord(t *testing.T) {
	calc := NewCalculator()
	rec := validRecord()
	rec.PartnershipScore = 0

	if _, err := calc.Sensitivity(rec, workedProfile()); err == nil {
		t.Error("expected error for invalid base record")
	}
}
