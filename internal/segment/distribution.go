package segment

import (
	"sort"
	"time"
)

// Outcome is one classified supplier as seen by the distribution and
// concentration analyses. The evaluator builds these from score rows.
type Outcome struct {
	SupplierID   string  `json:"supplier_id"`
	BusinessUnit string  `json:"business_unit"`
	Value        float64 `json:"value"`
	Tier         Tier    `json:"tier"`
	AnnualSpend  float64 `json:"annual_spend"`
	RiskScore    int     `json:"risk_score"`
}

// Targets are the governance target ratios per tier, with a per-tier
// tolerance in percentage points and the single-category dominance cutoff.
// The source governance documents disagree on the exact ratios, so these are
// configuration; DefaultTargets carries the standard 5/15/40/40 split.
type Targets struct {
	Strategic     float64 `yaml:"strategic" json:"strategic"`
	Critical      float64 `yaml:"critical" json:"critical"`
	Operational   float64 `yaml:"operational" json:"operational"`
	Transactional float64 `yaml:"transactional" json:"transactional"`

	// TolerancePts is the allowed deviation per tier, in percentage points.
	TolerancePts float64 `yaml:"tolerance_pts" json:"tolerance_pts"`

	// DominancePct flags a business unit with more than this percentage of
	// its suppliers in a single tier.
	DominancePct float64 `yaml:"dominance_pct" json:"dominance_pct"`
}

func DefaultTargets() Targets {
	return Targets{
		Strategic:     5,
		Critical:      15,
		Operational:   40,
		Transactional: 40,
		TolerancePts:  5,
		DominancePct:  80,
	}
}

func (t Targets) target(tier Tier) float64 {
	switch tier {
	case TierStrategic:
		return t.Strategic
	case TierCritical:
		return t.Critical
	case TierOperational:
		return t.Operational
	case TierTransactional:
		return t.Transactional
	}
	return 0
}

// TierStat is one tier's share of a population against its target.
type TierStat struct {
	Tier            Tier    `json:"tier"`
	Count           int     `json:"count"`
	Pct             float64 `json:"pct"`
	TargetPct       float64 `json:"target_pct"`
	WithinTolerance bool    `json:"within_tolerance"`
}

// TierProfile summarizes the average attributes of one tier's suppliers, the
// classification-driver view used in governance reviews.
type TierProfile struct {
	Tier          Tier    `json:"tier"`
	Count         int     `json:"count"`
	AvgValue      float64 `json:"avg_value"`
	AvgSpend      float64 `json:"avg_spend"`
	HighRisk      int     `json:"high_risk_count"`
	SpendSharePct float64 `json:"spend_share_pct"`
}

// UnitReport is the distribution verdict for one business unit (or the
// combined population).
type UnitReport struct {
	BusinessUnit    string     `json:"business_unit"`
	Suppliers       int        `json:"suppliers"`
	ExitCount       int        `json:"exit_count"`
	Tiers           []TierStat `json:"tiers"`
	WithinTolerance bool       `json:"within_tolerance"`

	// Dominant is set when one tier holds more than the dominance cutoff.
	Dominant Tier `json:"dominant_tier,omitempty"`
}

// DistributionReport compares classified populations against the target
// ratios. It only reports; it never mutates classifications.
type DistributionReport struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Combined    UnitReport    `json:"combined"`
	Units       []UnitReport  `json:"units"`
	Profiles    []TierProfile `json:"tier_profiles"`
}

// OutOfTolerance reports whether any business unit, or the combined
// population, deviates from the targets. This is a report condition, not an
// error: segmentation still succeeds on an unbalanced population.
func (r DistributionReport) OutOfTolerance() bool {
	if !r.Combined.WithinTolerance || r.Combined.Dominant != "" {
		return true
	}
	for _, u := range r.Units {
		if !u.WithinTolerance || u.Dominant != "" {
			return true
		}
	}
	return false
}

// ValidateDistribution builds the distribution report for a classified
// population, per business unit and combined. Exit suppliers are counted but
// excluded from the tier fractions, since Exit sits outside the four-tier
// scale.
func ValidateDistribution(outcomes []Outcome, targets Targets) DistributionReport {
	report := DistributionReport{
		GeneratedAt: time.Now().UTC(),
		Combined:    unitReport("combined", outcomes, targets),
		Profiles:    tierProfiles(outcomes),
	}

	byUnit := make(map[string][]Outcome)
	for _, o := range outcomes {
		byUnit[o.BusinessUnit] = append(byUnit[o.BusinessUnit], o)
	}

	units := make([]string, 0, len(byUnit))
	for bu := range byUnit {
		units = append(units, bu)
	}
	sort.Strings(units)

	for _, bu := range units {
		report.Units = append(report.Units, unitReport(bu, byUnit[bu], targets))
	}
	return report
}

func unitReport(name string, outcomes []Outcome, targets Targets) UnitReport {
	report := UnitReport{BusinessUnit: name, Suppliers: len(outcomes), WithinTolerance: true}

	counts := make(map[Tier]int)
	active := 0
	for _, o := range outcomes {
		if o.Tier == TierExit {
			report.ExitCount++
			continue
		}
		counts[o.Tier]++
		active++
	}

	for _, tier := range Tiers() {
		stat := TierStat{Tier: tier, Count: counts[tier], TargetPct: targets.target(tier)}
		if active > 0 {
			stat.Pct = float64(counts[tier]) / float64(active) * 100
		}
		deviation := stat.Pct - stat.TargetPct
		if deviation < 0 {
			deviation = -deviation
		}
		stat.WithinTolerance = deviation <= targets.TolerancePts
		if !stat.WithinTolerance {
			report.WithinTolerance = false
		}
		if active > 0 && stat.Pct > targets.DominancePct {
			report.Dominant = tier
		}
		report.Tiers = append(report.Tiers, stat)
	}
	return report
}

func tierProfiles(outcomes []Outcome) []TierProfile {
	var totalSpend float64
	for _, o := range outcomes {
		totalSpend += o.AnnualSpend
	}

	var profiles []TierProfile
	for _, tier := range Tiers() {
		p := TierProfile{Tier: tier}
		var spend, value float64
		for _, o := range outcomes {
			if o.Tier != tier {
				continue
			}
			p.Count++
			spend += o.AnnualSpend
			value += o.Value
			if o.RiskScore == 3 {
				p.HighRisk++
			}
		}
		if p.Count > 0 {
			p.AvgValue = value / float64(p.Count)
			p.AvgSpend = spend / float64(p.Count)
		}
		if totalSpend > 0 {
			p.SpendSharePct = spend / totalSpend * 100
		}
		profiles = append(profiles, p)
	}
	return profiles
}
