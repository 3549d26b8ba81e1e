package segment

import (
	"sort"
)

// TierSpend is one tier's share of total annual spend.
type TierSpend struct {
	Tier          Tier    `json:"tier"`
	Suppliers     int     `json:"suppliers"`
	TotalSpend    float64 `json:"total_spend"`
	SpendSharePct float64 `json:"spend_share_pct"`
}

// ConcentrationReport summarizes how annual spend concentrates across the
// supplier base: the classic 80/20 breakpoint plus per-tier spend shares.
type ConcentrationReport struct {
	Suppliers int `json:"suppliers"`

	// Pareto80SupplierCount is how many of the highest-spend suppliers it
	// takes to cover 80% of total spend; Pareto80SupplierPct is that count as
	// a percentage of the population.
	Pareto80SupplierCount int     `json:"pareto_80_supplier_count"`
	Pareto80SupplierPct   float64 `json:"pareto_80_supplier_pct"`

	Top10SpendSharePct float64 `json:"top_10_spend_share_pct"`

	TierSpend []TierSpend `json:"tier_spend"`
}

// SpendConcentration computes the spend concentration report for a classified
// population. O(n log n) for the spend sort.
func SpendConcentration(outcomes []Outcome) ConcentrationReport {
	report := ConcentrationReport{Suppliers: len(outcomes)}
	if len(outcomes) == 0 {
		return report
	}

	sorted := make([]Outcome, len(outcomes))
	copy(sorted, outcomes)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].AnnualSpend > sorted[j].AnnualSpend
	})

	var totalSpend float64
	for _, o := range sorted {
		totalSpend += o.AnnualSpend
	}

	if totalSpend > 0 {
		var cumulative float64
		for i, o := range sorted {
			cumulative += o.AnnualSpend
			if report.Pareto80SupplierCount == 0 && cumulative/totalSpend >= 0.80 {
				report.Pareto80SupplierCount = i + 1
			}
			if i < 10 {
				report.Top10SpendSharePct = cumulative / totalSpend * 100
			}
		}
		report.Pareto80SupplierPct = float64(report.Pareto80SupplierCount) / float64(len(sorted)) * 100
	}

	spendByTier := make(map[Tier]*TierSpend)
	tiers := append(Tiers(), TierExit)
	for _, tier := range tiers {
		spendByTier[tier] = &TierSpend{Tier: tier}
	}
	for _, o := range sorted {
		ts := spendByTier[o.Tier]
		if ts == nil {
			continue
		}
		ts.Suppliers++
		ts.TotalSpend += o.AnnualSpend
	}
	for _, tier := range tiers {
		ts := spendByTier[tier]
		if totalSpend > 0 {
			ts.SpendSharePct = ts.TotalSpend / totalSpend * 100
		}
		report.TierSpend = append(report.TierSpend, *ts)
	}
	return report
}
