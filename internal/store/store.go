package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// SupplierRecord is one supplier's raw attributes for a business unit
// evaluation cycle. Records are immutable once scored; re-evaluation writes a
// new score row rather than mutating history.
type SupplierRecord struct {
	SupplierID   string `json:"supplier_id"`
	BusinessUnit string `json:"business_unit"`

	SoleSourceParts   int `json:"sole_source_parts"`
	SingleSourceParts int `json:"single_source_parts"`
	MultiSourceParts  int `json:"multi_source_parts"`

	RampTimeMonths float64 `json:"ramp_time_months"`
	AnnualSpend    float64 `json:"annual_spend"`

	// Ordinal ratings, valid range [1,3]. RiskScore is inverted during
	// scoring: 3 = highest risk.
	PartnershipScore int `json:"partnership_score"`
	InnovationScore  int `json:"innovation_score"`
	RiskScore        int `json:"risk_score"`

	// ExitFlagged marks a supplier selected for offboarding by an explicit
	// business decision. The classifier passes it through untouched.
	ExitFlagged bool `json:"exit_flagged"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TotalParts is the sum of the three source-type counts. A record with zero
// tracked parts cannot be scored.
func (r *SupplierRecord) TotalParts() int {
	return r.SoleSourceParts + r.SingleSourceParts + r.MultiSourceParts
}

type SupplierFilter struct {
	BusinessUnit string
	Limit        int
	Offset       int
}

// SupplierScore is one computed score row: the scalar value, the
// per-criterion weighted breakdown retained for audit and sensitivity
// analysis, and the tier the classifier assigned.
type SupplierScore struct {
	RunID        uuid.UUID `json:"run_id"`
	SupplierID   string    `json:"supplier_id"`
	BusinessUnit string    `json:"business_unit"`

	Value          float64            `json:"value"`
	Breakdown      map[string]float64 `json:"component_breakdown"`
	ProfileVersion string             `json:"profile_version"`

	Tier         string `json:"tier"`
	ExitOverride bool   `json:"exit_override"`

	CreatedAt time.Time `json:"created_at"`
}

type ScoreFilter struct {
	RunID        *uuid.UUID
	BusinessUnit string
	Tier         string
	Limit        int
	Offset       int
}

// RecordFailure captures one supplier that could not be scored in a run.
type RecordFailure struct {
	SupplierID   string `json:"supplier_id"`
	BusinessUnit string `json:"business_unit"`
	Error        string `json:"error"`
}

// EvaluationRun is one batch scoring pass over a set of suppliers.
type EvaluationRun struct {
	ID     uuid.UUID `json:"run_id"`
	Status RunStatus `json:"status"`

	TotalRecords  int `json:"total_records"`
	ScoredRecords int `json:"scored_records"`
	FailedRecords int `json:"failed_records"`

	// ProfileVersions pins the exact profile version used per business unit
	// so historical runs stay reproducible.
	ProfileVersions map[string]string `json:"profile_versions,omitempty"`

	Failures []RecordFailure `json:"failures,omitempty"`

	// Report holds the distribution report produced at the end of the run,
	// serialized as-is.
	Report map[string]interface{} `json:"report,omitempty"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type Store interface {
	UpsertSupplier(ctx context.Context, rec *SupplierRecord) error
	GetSupplier(ctx context.Context, businessUnit, supplierID string) (*SupplierRecord, error)
	ListSuppliers(ctx context.Context, filter SupplierFilter) ([]*SupplierRecord, error)

	CreateRun(ctx context.Context, run *EvaluationRun) error
	UpdateRun(ctx context.Context, run *EvaluationRun) error
	GetRun(ctx context.Context, id uuid.UUID) (*EvaluationRun, error)
	ListRuns(ctx context.Context, limit int) ([]*EvaluationRun, error)

	SaveScores(ctx context.Context, scores []*SupplierScore) error
	ListScores(ctx context.Context, filter ScoreFilter) ([]*SupplierScore, error)
	GetLatestScore(ctx context.Context, businessUnit, supplierID string) (*SupplierScore, error)

	Close() error
}
