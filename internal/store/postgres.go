package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const supplierColumns = `supplier_id, business_unit,
	sole_source_parts, single_source_parts, multi_source_parts,
	ramp_time_months, annual_spend,
	partnership_score, innovation_score, risk_score,
	exit_flagged, created_at, updated_at`

func (s *PostgresStore) UpsertSupplier(ctx context.Context, rec *SupplierRecord) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO scm_suppliers (supplier_id, business_unit,
			sole_source_parts, single_source_parts, multi_source_parts,
			ramp_time_months, annual_spend,
			partnership_score, innovation_score, risk_score, exit_flagged)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (business_unit, supplier_id) DO UPDATE SET
			sole_source_parts = EXCLUDED.sole_source_parts,
			single_source_parts = EXCLUDED.single_source_parts,
			multi_source_parts = EXCLUDED.multi_source_parts,
			ramp_time_months = EXCLUDED.ramp_time_months,
			annual_spend = EXCLUDED.annual_spend,
			partnership_score = EXCLUDED.partnership_score,
			innovation_score = EXCLUDED.innovation_score,
			risk_score = EXCLUDED.risk_score,
			exit_flagged = EXCLUDED.exit_flagged,
			updated_at = now()
		RETURNING created_at, updated_at`,
		rec.SupplierID, rec.BusinessUnit,
		rec.SoleSourceParts, rec.SingleSourceParts, rec.MultiSourceParts,
		rec.RampTimeMonths, rec.AnnualSpend,
		rec.PartnershipScore, rec.InnovationScore, rec.RiskScore, rec.ExitFlagged,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
}

func (s *PostgresStore) GetSupplier(ctx context.Context, businessUnit, supplierID string) (*SupplierRecord, error) {
	rec := &SupplierRecord{}
	err := s.pool.QueryRow(ctx, `
		SELECT `+supplierColumns+`
		FROM scm_suppliers WHERE business_unit = $1 AND supplier_id = $2`,
		businessUnit, supplierID,
	).Scan(
		&rec.SupplierID, &rec.BusinessUnit,
		&rec.SoleSourceParts, &rec.SingleSourceParts, &rec.MultiSourceParts,
		&rec.RampTimeMonths, &rec.AnnualSpend,
		&rec.PartnershipScore, &rec.InnovationScore, &rec.RiskScore,
		&rec.ExitFlagged, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *PostgresStore) ListSuppliers(ctx context.Context, filter SupplierFilter) ([]*SupplierRecord, error) {
	query := `SELECT ` + supplierColumns + ` FROM scm_suppliers WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.BusinessUnit != "" {
		n++
		query += fmt.Sprintf(" AND business_unit = $%d", n)
		args = append(args, filter.BusinessUnit)
	}

	query += " ORDER BY business_unit, supplier_id"

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	n++
	query += fmt.Sprintf(" LIMIT $%d", n)
	args = append(args, limit)

	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*SupplierRecord
	for rows.Next() {
		rec := &SupplierRecord{}
		if err := rows.Scan(
			&rec.SupplierID, &rec.BusinessUnit,
			&rec.SoleSourceParts, &rec.SingleSourceParts, &rec.MultiSourceParts,
			&rec.RampTimeMonths, &rec.AnnualSpend,
			&rec.PartnershipScore, &rec.InnovationScore, &rec.RiskScore,
			&rec.ExitFlagged, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

const runColumns = `run_id, status, total_records, scored_records, failed_records,
	profile_versions, failures, report, started_at, completed_at`

func (s *PostgresStore) CreateRun(ctx context.Context, run *EvaluationRun) error {
	versionsJSON, _ := json.Marshal(run.ProfileVersions)
	return s.pool.QueryRow(ctx, `
		INSERT INTO scm_evaluation_runs (status, total_records, profile_versions)
		VALUES ($1, $2, $3)
		RETURNING run_id, started_at`,
		run.Status, run.TotalRecords, versionsJSON,
	).Scan(&run.ID, &run.StartedAt)
}

func (s *PostgresStore) UpdateRun(ctx context.Context, run *EvaluationRun) error {
	versionsJSON, _ := json.Marshal(run.ProfileVersions)
	failuresJSON, _ := json.Marshal(run.Failures)
	reportJSON, _ := json.Marshal(run.Report)
	_, err := s.pool.Exec(ctx, `
		UPDATE scm_evaluation_runs
		SET status = $2, total_records = $3, scored_records = $4, failed_records = $5,
			profile_versions = $6, failures = $7, report = $8, completed_at = $9
		WHERE run_id = $1`,
		run.ID, run.Status, run.TotalRecords, run.ScoredRecords, run.FailedRecords,
		versionsJSON, failuresJSON, reportJSON, run.CompletedAt,
	)
	return err
}

func (s *PostgresStore) GetRun(ctx context.Context, id uuid.UUID) (*EvaluationRun, error) {
	run := &EvaluationRun{}
	var versionsJSON, failuresJSON, reportJSON []byte
	err := s.pool.QueryRow(ctx, `
		SELECT `+runColumns+`
		FROM scm_evaluation_runs WHERE run_id = $1`, id,
	).Scan(
		&run.ID, &run.Status, &run.TotalRecords, &run.ScoredRecords, &run.FailedRecords,
		&versionsJSON, &failuresJSON, &reportJSON, &run.StartedAt, &run.CompletedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if versionsJSON != nil {
		_ = json.Unmarshal(versionsJSON, &run.ProfileVersions)
	}
	if failuresJSON != nil {
		_ = json.Unmarshal(failuresJSON, &run.Failures)
	}
	if reportJSON != nil {
		_ = json.Unmarshal(reportJSON, &run.Report)
	}
	return run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]*EvaluationRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+runColumns+`
		FROM scm_evaluation_runs
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*EvaluationRun
	for rows.Next() {
		run := &EvaluationRun{}
		var versionsJSON, failuresJSON, reportJSON []byte
		if err := rows.Scan(
			&run.ID, &run.Status, &run.TotalRecords, &run.ScoredRecords, &run.FailedRecords,
			&versionsJSON, &failuresJSON, &reportJSON, &run.StartedAt, &run.CompletedAt,
		); err != nil {
			return nil, err
		}
		if versionsJSON != nil {
			_ = json.Unmarshal(versionsJSON, &run.ProfileVersions)
		}
		if failuresJSON != nil {
			_ = json.Unmarshal(failuresJSON, &run.Failures)
		}
		if reportJSON != nil {
			_ = json.Unmarshal(reportJSON, &run.Report)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

const scoreColumns = `run_id, supplier_id, business_unit, value, breakdown,
	profile_version, tier, exit_override, created_at`

func (s *PostgresStore) SaveScores(ctx context.Context, scores []*SupplierScore) error {
	batch := &pgx.Batch{}
	for _, sc := range scores {
		breakdownJSON, _ := json.Marshal(sc.Breakdown)
		batch.Queue(`
			INSERT INTO scm_supplier_scores (run_id, supplier_id, business_unit,
				value, breakdown, profile_version, tier, exit_override)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			sc.RunID, sc.SupplierID, sc.BusinessUnit,
			sc.Value, breakdownJSON, sc.ProfileVersion, sc.Tier, sc.ExitOverride,
		)
	}
	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range scores {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("save scores: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) ListScores(ctx context.Context, filter ScoreFilter) ([]*SupplierScore, error) {
	query := `SELECT ` + scoreColumns + ` FROM scm_supplier_scores WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.RunID != nil {
		n++
		query += fmt.Sprintf(" AND run_id = $%d", n)
		args = append(args, *filter.RunID)
	}
	if filter.BusinessUnit != "" {
		n++
		query += fmt.Sprintf(" AND business_unit = $%d", n)
		args = append(args, filter.BusinessUnit)
	}
	if filter.Tier != "" {
		n++
		query += fmt.Sprintf(" AND tier = $%d", n)
		args = append(args, filter.Tier)
	}

	query += " ORDER BY value DESC, supplier_id ASC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	n++
	query += fmt.Sprintf(" LIMIT $%d", n)
	args = append(args, limit)

	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanScores(rows)
}

func (s *PostgresStore) GetLatestScore(ctx context.Context, businessUnit, supplierID string) (*SupplierScore, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+scoreColumns+`
		FROM scm_supplier_scores
		WHERE business_unit = $1 AND supplier_id = $2
		ORDER BY created_at DESC
		LIMIT 1`, businessUnit, supplierID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores, err := scanScores(rows)
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		return nil, nil
	}
	return scores[0], nil
}

func scanScores(rows pgx.Rows) ([]*SupplierScore, error) {
	var out []*SupplierScore
	for rows.Next() {
		sc := &SupplierScore{}
		var breakdownJSON []byte
		if err := rows.Scan(
			&sc.RunID, &sc.SupplierID, &sc.BusinessUnit, &sc.Value, &breakdownJSON,
			&sc.ProfileVersion, &sc.Tier, &sc.ExitOverride, &sc.CreatedAt,
		); err != nil {
			return nil, err
		}
		if breakdownJSON != nil {
			_ = json.Unmarshal(breakdownJSON, &sc.Breakdown)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}
