package events

import "time"

// EvaluationRequestEvent asks the service to score a batch. Records are
// expected already shaped as supplier records; ERP/CRM extraction happens
// upstream.
type EvaluationRequestEvent struct {
	RequestedBy  string `json:"requested_by,omitempty"`
	BusinessUnit string `json:"business_unit,omitempty"`
}

type RunStartedEvent struct {
	RunID        string `json:"run_id"`
	TotalRecords int    `json:"total_records"`
}

type RunCompletedEvent struct {
	RunID           string            `json:"run_id"`
	ScoredRecords   int               `json:"scored_records"`
	FailedRecords   int               `json:"failed_records"`
	ProfileVersions map[string]string `json:"profile_versions,omitempty"`
	OutOfTolerance  bool              `json:"out_of_tolerance"`
	CompletedAt     time.Time         `json:"completed_at"`
}

type RunFailedEvent struct {
	RunID string `json:"run_id"`
	Error string `json:"error"`
}

type SupplierClassifiedEvent struct {
	RunID        string  `json:"run_id"`
	SupplierID   string  `json:"supplier_id"`
	BusinessUnit string  `json:"business_unit"`
	Value        float64 `json:"value"`
	Tier         string  `json:"tier"`
}

// DistributionAlertEvent flags one business unit outside governance targets.
type DistributionAlertEvent struct {
	RunID        string   `json:"run_id"`
	BusinessUnit string   `json:"business_unit"`
	Dominant     string   `json:"dominant_tier,omitempty"`
	TiersOutside []string `json:"tiers_outside_tolerance,omitempty"`
}

type ProfileUpdatedEvent struct {
	BusinessUnit string `json:"business_unit"`
	Version      string `json:"version"`
	UpdatedBy    string `json:"updated_by,omitempty"`
}
