package scoring

// Multiplier bounds for the business-unit factors.
const (
	MaxBUImpact = 100.0
	MaxBUScale  = 3.0
)

// Profile is one business unit's weight configuration. Profiles are read-only
// snapshots during scoring and are versioned so historical runs can be
// reproduced against the exact configuration used.
type Profile struct {
	Version      string `yaml:"version" json:"version"`
	BusinessUnit string `yaml:"business_unit" json:"business_unit"`

	Weights WeightSet `yaml:"weights" json:"weights"`

	// BUImpact is the strategic-importance multiplier in [0,100], applied as
	// impact/100. BUScale is the scale multiplier in [0,3], applied as
	// scale/3.
	BUImpact float64 `yaml:"bu_impact" json:"bu_impact"`
	BUScale  float64 `yaml:"bu_scale" json:"bu_scale"`
}

// Multiplier is the combined business-unit factor applied to the weighted sum.
func (p Profile) Multiplier() float64 {
	return (p.BUImpact / MaxBUImpact) * (p.BUScale / MaxBUScale)
}
