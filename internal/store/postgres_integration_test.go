//go:build integration

package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func setupTestDB(t *testing.T) *PostgresStore {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	t.Cleanup(func() {
		// Truncate in dependency order
		_, _ = s.pool.Exec(ctx, "TRUNCATE scm_supplier_scores CASCADE")
		_, _ = s.pool.Exec(ctx, "TRUNCATE scm_evaluation_runs CASCADE")
		_, _ = s.pool.Exec(ctx, "TRUNCATE scm_suppliers CASCADE")
		s.Close()
	})

	return s
}

func testSupplier(bu, id string) *SupplierRecord {
	return &SupplierRecord{
		SupplierID:        id,
		BusinessUnit:      bu,
		SoleSourceParts:   30,
		SingleSourceParts: 45,
		MultiSourceParts:  45,
		RampTimeMonths:    18,
		AnnualSpend:       500,
		PartnershipScore:  2,
		InnovationScore:   2,
		RiskScore:         1,
	}
}

func TestUpsertAndGetSupplier(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	rec := testSupplier("unit_a", "acme-fasteners")
	if err := s.UpsertSupplier(ctx, rec); err != nil {
		t.Fatalf("UpsertSupplier failed: %v", err)
	}
	if rec.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}

	got, err := s.GetSupplier(ctx, "unit_a", "acme-fasteners")
	if err != nil {
		t.Fatalf("GetSupplier failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected supplier, got nil")
	}
	if got.SoleSourceParts != 30 || got.AnnualSpend != 500 {
		t.Errorf("round-trip mismatch: %+v", got)
	}

	// Second upsert updates in place.
	rec.AnnualSpend = 750
	rec.ExitFlagged = true
	if err := s.UpsertSupplier(ctx, rec); err != nil {
		t.Fatalf("second UpsertSupplier failed: %v", err)
	}
	got, err = s.GetSupplier(ctx, "unit_a", "acme-fasteners")
	if err != nil {
		t.Fatalf("GetSupplier failed: %v", err)
	}
	if got.AnnualSpend != 750 || !got.ExitFlagged {
		t.Errorf("upsert did not update: %+v", got)
	}

	all, err := s.ListSuppliers(ctx, SupplierFilter{})
	if err != nil {
		t.Fatalf("ListSuppliers failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 supplier after two upserts, got %d", len(all))
	}
}

func TestGetSupplierMissing(t *testing.T) {
	s := setupTestDB(t)

	got, err := s.GetSupplier(context.Background(), "unit_a", "ghost")
	if err != nil {
		t.Fatalf("GetSupplier failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing supplier, got %+v", got)
	}
}

func TestListSuppliersByBusinessUnit(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	for _, rec := range []*SupplierRecord{
		testSupplier("unit_a", "sup-1"),
		testSupplier("unit_a", "sup-2"),
		testSupplier("unit_b", "sup-3"),
	} {
		if err := s.UpsertSupplier(ctx, rec); err != nil {
			t.Fatalf("UpsertSupplier failed: %v", err)
		}
	}

	result, err := s.ListSuppliers(ctx, SupplierFilter{BusinessUnit: "unit_a"})
	if err != nil {
		t.Fatalf("ListSuppliers failed: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("expected 2 unit_a suppliers, got %d", len(result))
	}
}

func TestRunLifecycle(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	run := &EvaluationRun{
		Status:          RunRunning,
		TotalRecords:    3,
		ProfileVersions: map[string]string{"unit_a": "v1"},
	}
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if run.ID == uuid.Nil {
		t.Fatal("expected run ID after create")
	}
	if run.StartedAt.IsZero() {
		t.Fatal("expected StartedAt to be set")
	}

	now := time.Now().UTC()
	run.Status = RunCompleted
	run.ScoredRecords = 2
	run.FailedRecords = 1
	run.Failures = []RecordFailure{{SupplierID: "bad", BusinessUnit: "unit_a", Error: "no tracked parts"}}
	run.Report = map[string]interface{}{"combined": map[string]interface{}{"suppliers": float64(2)}}
	run.CompletedAt = &now
	if err := s.UpdateRun(ctx, run); err != nil {
		t.Fatalf("UpdateRun failed: %v", err)
	}

	got, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Status != RunCompleted || got.ScoredRecords != 2 {
		t.Errorf("run not updated: %+v", got)
	}
	if got.ProfileVersions["unit_a"] != "v1" {
		t.Errorf("profile versions lost: %v", got.ProfileVersions)
	}
	if len(got.Failures) != 1 || got.Failures[0].SupplierID != "bad" {
		t.Errorf("failures lost: %v", got.Failures)
	}
	if got.Report == nil {
		t.Error("report lost")
	}
	if got.CompletedAt == nil {
		t.Error("completed_at lost")
	}

	runs, err := s.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestGetRunMissing(t *testing.T) {
	s := setupTestDB(t)

	got, err := s.GetRun(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing run, got %+v", got)
	}
}

func TestSaveAndListScores(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	run := &EvaluationRun{Status: RunRunning, TotalRecords: 3}
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	scores := []*SupplierScore{
		{RunID: run.ID, SupplierID: "a", BusinessUnit: "unit_a", Value: 91.2,
			Breakdown: map[string]float64{"sole_source": 0.25}, ProfileVersion: "v1", Tier: "Strategic"},
		{RunID: run.ID, SupplierID: "b", BusinessUnit: "unit_a", Value: 45.0,
			ProfileVersion: "v1", Tier: "Operational"},
		{RunID: run.ID, SupplierID: "c", BusinessUnit: "unit_b", Value: 74.7,
			ProfileVersion: "v1", Tier: "Critical", ExitOverride: true},
	}
	if err := s.SaveScores(ctx, scores); err != nil {
		t.Fatalf("SaveScores failed: %v", err)
	}

	// Ordered by value, highest first.
	got, err := s.ListScores(ctx, ScoreFilter{RunID: &run.ID})
	if err != nil {
		t.Fatalf("ListScores failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 scores, got %d", len(got))
	}
	if got[0].SupplierID != "a" || got[1].SupplierID != "c" || got[2].SupplierID != "b" {
		t.Errorf("wrong order: %s, %s, %s", got[0].SupplierID, got[1].SupplierID, got[2].SupplierID)
	}
	if got[0].Breakdown["sole_source"] != 0.25 {
		t.Errorf("breakdown lost: %v", got[0].Breakdown)
	}
	if !got[1].ExitOverride {
		t.Error("exit override flag lost")
	}

	// Filter by business unit.
	got, err = s.ListScores(ctx, ScoreFilter{RunID: &run.ID, BusinessUnit: "unit_a"})
	if err != nil {
		t.Fatalf("ListScores failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 unit_a scores, got %d", len(got))
	}

	// Filter by tier.
	got, err = s.ListScores(ctx, ScoreFilter{Tier: "Strategic"})
	if err != nil {
		t.Fatalf("ListScores failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 Strategic score, got %d", len(got))
	}
}

func TestGetLatestScore(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	first := &EvaluationRun{Status: RunRunning, TotalRecords: 1}
	if err := s.CreateRun(ctx, first); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if err := s.SaveScores(ctx, []*SupplierScore{
		{RunID: first.ID, SupplierID: "a", BusinessUnit: "unit_a", Value: 50, ProfileVersion: "v1", Tier: "Operational"},
	}); err != nil {
		t.Fatalf("SaveScores failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	second := &EvaluationRun{Status: RunRunning, TotalRecords: 1}
	if err := s.CreateRun(ctx, second); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if err := s.SaveScores(ctx, []*SupplierScore{
		{RunID: second.ID, SupplierID: "a", BusinessUnit: "unit_a", Value: 85, ProfileVersion: "v2", Tier: "Strategic"},
	}); err != nil {
		t.Fatalf("SaveScores failed: %v", err)
	}

	got, err := s.GetLatestScore(ctx, "unit_a", "a")
	if err != nil {
		t.Fatalf("GetLatestScore failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected score, got nil")
	}
	if got.RunID != second.ID || got.ProfileVersion != "v2" {
		t.Errorf("expected latest score from second run, got %+v", got)
	}

	missing, err := s.GetLatestScore(ctx, "unit_a", "ghost")
	if err != nil {
		t.Fatalf("GetLatestScore failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unscored supplier, got %+v", missing)
	}
}
