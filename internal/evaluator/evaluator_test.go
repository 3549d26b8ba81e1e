package evaluator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/Meridian-SCM/Segment/internal/config"
	"github.com/Meridian-SCM/Segment/internal/registry"
	"github.com/Meridian-SCM/Segment/internal/scoring"
	"github.com/Meridian-SCM/Segment/internal/segment"
	"github.com/Meridian-SCM/Segment/internal/store"
)

// memStore is an in-memory Store for exercising the evaluator without a
// database.
type memStore struct {
	suppliers []*store.SupplierRecord
	runs      map[uuid.UUID]*store.EvaluationRun
	scores    []*store.SupplierScore

	saveScoresErr error
}

func newMemStore() *memStore {
	return &memStore{runs: make(map[uuid.UUID]*store.EvaluationRun)}
}

func (m *memStore) UpsertSupplier(_ context.Context, rec *store.SupplierRecord) error {
	for i, existing := range m.suppliers {
		if existing.BusinessUnit == rec.BusinessUnit && existing.SupplierID == rec.SupplierID {
			m.suppliers[i] = rec
			return nil
		}
	}
	m.suppliers = append(m.suppliers, rec)
	return nil
}

func (m *memStore) GetSupplier(_ context.Context, businessUnit, supplierID string) (*store.SupplierRecord, error) {
	for _, rec := range m.suppliers {
		if rec.BusinessUnit == businessUnit && rec.SupplierID == supplierID {
			return rec, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListSuppliers(_ context.Context, filter store.SupplierFilter) ([]*store.SupplierRecord, error) {
	var out []*store.SupplierRecord
	for _, rec := range m.suppliers {
		if filter.BusinessUnit != "" && rec.BusinessUnit != filter.BusinessUnit {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (m *memStore) CreateRun(_ context.Context, run *store.EvaluationRun) error {
	run.ID = uuid.New()
	m.runs[run.ID] = run
	return nil
}

func (m *memStore) UpdateRun(_ context.Context, run *store.EvaluationRun) error {
	m.runs[run.ID] = run
	return nil
}

func (m *memStore) GetRun(_ context.Context, id uuid.UUID) (*store.EvaluationRun, error) {
	return m.runs[id], nil
}

func (m *memStore) ListRuns(_ context.Context, _ int) ([]*store.EvaluationRun, error) {
	var out []*store.EvaluationRun
	for _, run := range m.runs {
		out = append(out, run)
	}
	return out, nil
}

func (m *memStore) SaveScores(_ context.Context, scores []*store.SupplierScore) error {
	if m.saveScoresErr != nil {
		return m.saveScoresErr
	}
	m.scores = append(m.scores, scores...)
	return nil
}

func (m *memStore) ListScores(_ context.Context, filter store.ScoreFilter) ([]*store.SupplierScore, error) {
	var out []*store.SupplierScore
	for _, sc := range m.scores {
		if filter.RunID != nil && sc.RunID != *filter.RunID {
			continue
		}
		if filter.BusinessUnit != "" && sc.BusinessUnit != filter.BusinessUnit {
			continue
		}
		out = append(out, sc)
	}
	return out, nil
}

func (m *memStore) GetLatestScore(_ context.Context, businessUnit, supplierID string) (*store.SupplierScore, error) {
	for i := len(m.scores) - 1; i >= 0; i-- {
		if m.scores[i].BusinessUnit == businessUnit && m.scores[i].SupplierID == supplierID {
			return m.scores[i], nil
		}
	}
	return nil, nil
}

func (m *memStore) Close() error { return nil }

// memEvents records published subjects.
type memEvents struct {
	published []string
}

func (m *memEvents) Publish(subject string, _ interface{}) error {
	m.published = append(m.published, subject)
	return nil
}

func (m *memEvents) Subscribe(_ string, _ func(string, []byte)) error { return nil }

func (m *memEvents) Close() {}

func (m *memEvents) countPrefix(prefix string) int {
	n := 0
	for _, s := range m.published {
		if strings.HasPrefix(s, prefix) {
			n++
		}
	}
	return n
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(workers int) *config.Config {
	return &config.Config{
		Evaluation: config.EvaluationConfig{Workers: workers},
		Segmentation: config.SegmentationConfig{
			Thresholds: segment.DefaultThresholds(),
			Targets:    segment.DefaultTargets(),
		},
	}
}

func testRegistry(t *testing.T, units ...string) *registry.Registry {
	t.Helper()
	r := registry.New()
	for _, bu := range units {
		p := scoring.Profile{
			Version:      "v1",
			BusinessUnit: bu,
			Weights:      scoring.DefaultWeights(),
			BUImpact:     100,
			BUScale:      3,
		}
		if err := r.Put(p); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	return r
}

func testRecord(bu, id string) *store.SupplierRecord {
	return &store.SupplierRecord{
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

func TestRunMixedBatch(t *testing.T) {
	st := newMemStore()
	reg := testRegistry(t, "unit_a")
	ev := New(st, nil, reg, testConfig(4), testLogger())

	bad := testRecord("unit_a", "sup-bad")
	bad.SoleSourceParts, bad.SingleSourceParts, bad.MultiSourceParts = 0, 0, 0

	records := []*store.SupplierRecord{
		testRecord("unit_a", "sup-1"),
		testRecord("unit_a", "sup-2"),
		bad,
		testRecord("unit_b", "sup-3"), // no profile, no combined fallback
	}

	result, err := ev.Run(context.Background(), records)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	run := result.Run
	if run.Status != store.RunCompleted {
		t.Errorf("run status = %s, want completed", run.Status)
	}
	if run.TotalRecords != 4 || run.ScoredRecords != 2 || run.FailedRecords != 2 {
		t.Errorf("counters = %d/%d/%d, want 4/2/2",
			run.TotalRecords, run.ScoredRecords, run.FailedRecords)
	}
	if len(st.scores) != 2 {
		t.Errorf("persisted %d scores, want 2", len(st.scores))
	}
	if v, ok := run.ProfileVersions["unit_a"]; !ok || v != "v1" {
		t.Errorf("profile versions = %v, want unit_a pinned at v1", run.ProfileVersions)
	}
	if _, ok := run.ProfileVersions["unit_b"]; ok {
		t.Error("unit_b has no profile, must not be pinned")
	}
	if run.Report == nil {
		t.Error("expected distribution report on the run")
	}

	// Failures are sorted by unit then supplier.
	if len(run.Failures) != 2 {
		t.Fatalf("got %d failures, want 2", len(run.Failures))
	}
	if run.Failures[0].SupplierID != "sup-bad" || run.Failures[1].SupplierID != "sup-3" {
		t.Errorf("failure order wrong: %+v", run.Failures)
	}
}

func TestRunMissingProfileFailsOnlyThatUnit(t *testing.T) {
	st := newMemStore()
	reg := testRegistry(t, "unit_a")
	ev := New(st, nil, reg, testConfig(2), testLogger())

	records := []*store.SupplierRecord{
		testRecord("unit_a", "sup-1"),
		testRecord("unit_b", "sup-2"),
		testRecord("unit_b", "sup-3"),
	}

	result, err := ev.Run(context.Background(), records)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, r := range result.Results {
		switch r.Record.BusinessUnit {
		case "unit_a":
			if r.Err != nil {
				t.Errorf("unit_a record failed: %v", r.Err)
			}
		case "unit_b":
			if !errors.Is(r.Err, scoring.ErrMissingProfile) {
				t.Errorf("expected ErrMissingProfile for unit_b, got %v", r.Err)
			}
		}
	}
}

func TestRunCombinedFallback(t *testing.T) {
	st := newMemStore()
	reg := testRegistry(t, registry.DefaultBusinessUnit)
	ev := New(st, nil, reg, testConfig(2), testLogger())

	result, err := ev.Run(context.Background(), []*store.SupplierRecord{
		testRecord("unit_without_profile", "sup-1"),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Run.ScoredRecords != 1 {
		t.Errorf("scored = %d, want 1 via combined fallback", result.Run.ScoredRecords)
	}
}

func TestRunExitOverride(t *testing.T) {
	st := newMemStore()
	reg := testRegistry(t, "unit_a")
	ev := New(st, nil, reg, testConfig(1), testLogger())

	rec := testRecord("unit_a", "sup-exit")
	rec.ExitFlagged = true

	result, err := ev.Run(context.Background(), []*store.SupplierRecord{rec})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	sc := result.Results[0].Score
	if sc.Tier != string(segment.TierExit) {
		t.Errorf("tier = %s, want Exit regardless of value %f", sc.Tier, sc.Value)
	}
	if !sc.ExitOverride {
		t.Error("exit override flag not carried onto the score")
	}
}

func TestRunPublishesEvents(t *testing.T) {
	st := newMemStore()
	reg := testRegistry(t, "unit_a")
	cfg := testConfig(2)
	cfg.Evaluation.PublishSupplierEvents = true
	bus := &memEvents{}
	ev := New(st, bus, reg, cfg, testLogger())

	records := []*store.SupplierRecord{
		testRecord("unit_a", "sup-1"),
		testRecord("unit_a", "sup-2"),
	}
	if _, err := ev.Run(context.Background(), records); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if n := bus.countPrefix("scm.run."); n < 2 {
		t.Errorf("expected run started+completed events, got %d run events", n)
	}
	if n := bus.countPrefix("scm.supplier."); n != 2 {
		t.Errorf("expected 2 supplier events, got %d", n)
	}
	// Two Critical suppliers in a two-supplier unit is 100% dominance.
	if n := bus.countPrefix("scm.distribution."); n == 0 {
		t.Error("expected a distribution alert")
	}
}

func TestRunSaveScoresFailure(t *testing.T) {
	st := newMemStore()
	st.saveScoresErr = fmt.Errorf("connection reset")
	reg := testRegistry(t, "unit_a")
	ev := New(st, nil, reg, testConfig(2), testLogger())

	_, err := ev.Run(context.Background(), []*store.SupplierRecord{testRecord("unit_a", "sup-1")})
	if err == nil {
		t.Fatal("expected error when scores cannot be persisted")
	}

	for _, run := range st.runs {
		if run.Status != store.RunFailed {
			t.Errorf("run status = %s, want failed", run.Status)
		}
	}
}

func TestRunStoredFiltersBusinessUnit(t *testing.T) {
	st := newMemStore()
	ctx := context.Background()
	for _, rec := range []*store.SupplierRecord{
		testRecord("unit_a", "sup-1"),
		testRecord("unit_a", "sup-2"),
		testRecord("unit_b", "sup-3"),
	} {
		if err := st.UpsertSupplier(ctx, rec); err != nil {
			t.Fatalf("UpsertSupplier failed: %v", err)
		}
	}

	reg := testRegistry(t, registry.DefaultBusinessUnit)
	ev := New(st, nil, reg, testConfig(2), testLogger())

	result, err := ev.RunStored(ctx, "unit_a")
	if err != nil {
		t.Fatalf("RunStored failed: %v", err)
	}
	if result.Run.TotalRecords != 2 {
		t.Errorf("total = %d, want the 2 unit_a suppliers", result.Run.TotalRecords)
	}
}

func TestRunEmptyBatch(t *testing.T) {
	st := newMemStore()
	reg := testRegistry(t, registry.DefaultBusinessUnit)
	ev := New(st, nil, reg, testConfig(2), testLogger())

	result, err := ev.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Run.Status != store.RunCompleted {
		t.Errorf("run status = %s, want completed", result.Run.Status)
	}
	if len(st.scores) != 0 {
		t.Errorf("persisted %d scores for an empty batch", len(st.scores))
	}
}
