// Package evaluator runs batch scoring passes: it resolves one profile per
// business unit, fans the records out across a bounded worker pool, classifies
// the results, and produces the distribution report.
package evaluator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Meridian-SCM/Segment/internal/config"
	"github.com/Meridian-SCM/Segment/internal/events"
	"github.com/Meridian-SCM/Segment/internal/registry"
	"github.com/Meridian-SCM/Segment/internal/scoring"
	"github.com/Meridian-SCM/Segment/internal/segment"
	"github.com/Meridian-SCM/Segment/internal/store"
)

type Evaluator struct {
	store      store.Store
	events     events.Client
	registry   *registry.Registry
	calc       *scoring.Calculator
	classifier *segment.Classifier
	targets    segment.Targets

	workers               int
	publishSupplierEvents bool
	logger                *slog.Logger
}

func New(s store.Store, ev events.Client, reg *registry.Registry, cfg *config.Config, logger *slog.Logger) *Evaluator {
	workers := cfg.Evaluation.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Evaluator{
		store:                 s,
		events:                ev,
		registry:              reg,
		calc:                  scoring.NewCalculator(),
		classifier:            segment.NewClassifier(cfg.Segmentation.Thresholds),
		targets:               cfg.Segmentation.Targets,
		workers:               workers,
		publishSupplierEvents: cfg.Evaluation.PublishSupplierEvents,
		logger:                logger,
	}
}

// RecordResult pairs one input record with its score or its error, so one
// malformed supplier never aborts the batch.
type RecordResult struct {
	Record *store.SupplierRecord
	Score  *store.SupplierScore
	Err    error
}

// RunResult is the full output of one evaluation pass.
type RunResult struct {
	Run     *store.EvaluationRun
	Results []RecordResult
	Report  segment.DistributionReport
}

// RunStored scores every supplier currently in the store, optionally filtered
// to one business unit.
func (e *Evaluator) RunStored(ctx context.Context, businessUnit string) (*RunResult, error) {
	records, err := e.store.ListSuppliers(ctx, store.SupplierFilter{BusinessUnit: businessUnit, Limit: 100000})
	if err != nil {
		return nil, fmt.Errorf("load suppliers: %w", err)
	}
	return e.Run(ctx, records)
}

// Run scores a batch of supplier records. Per-record validation failures are
// collected, not fatal; a broken profile fails every record of its business
// unit while the other units still score. Records fan out across the worker
// pool with no ordering guarantee between suppliers.
func (e *Evaluator) Run(ctx context.Context, records []*store.SupplierRecord) (*RunResult, error) {
	start := time.Now()

	run := &store.EvaluationRun{
		Status:       store.RunRunning,
		TotalRecords: len(records),
	}
	if err := e.store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	e.publish(events.SubjectRunStarted(run.ID.String()), events.RunStartedEvent{
		RunID:        run.ID.String(),
		TotalRecords: len(records),
	})

	// Resolve each business unit's profile once. Profiles are value
	// snapshots, so a registry update mid-run cannot mix versions.
	profiles, profileErrs, versions := e.resolveProfiles(records)
	run.ProfileVersions = versions

	results := e.scoreAll(ctx, run, records, profiles, profileErrs)

	var scores []*store.SupplierScore
	var outcomes []segment.Outcome
	for _, r := range results {
		if r.Err != nil {
			run.FailedRecords++
			run.Failures = append(run.Failures, store.RecordFailure{
				SupplierID:   r.Record.SupplierID,
				BusinessUnit: r.Record.BusinessUnit,
				Error:        r.Err.Error(),
			})
			recordFailures.WithLabelValues(errorKind(r.Err)).Inc()
			continue
		}
		run.ScoredRecords++
		scores = append(scores, r.Score)
		suppliersScored.WithLabelValues(r.Record.BusinessUnit).Inc()
		scoreValues.Observe(r.Score.Value)
		outcomes = append(outcomes, segment.Outcome{
			SupplierID:   r.Score.SupplierID,
			BusinessUnit: r.Score.BusinessUnit,
			Value:        r.Score.Value,
			Tier:         segment.Tier(r.Score.Tier),
			AnnualSpend:  r.Record.AnnualSpend,
			RiskScore:    r.Record.RiskScore,
		})
		if e.publishSupplierEvents {
			e.publish(events.SubjectSupplierClassified(r.Score.SupplierID), events.SupplierClassifiedEvent{
				RunID:        run.ID.String(),
				SupplierID:   r.Score.SupplierID,
				BusinessUnit: r.Score.BusinessUnit,
				Value:        r.Score.Value,
				Tier:         r.Score.Tier,
			})
		}
	}
	sortFailures(run.Failures)

	report := segment.ValidateDistribution(outcomes, e.targets)
	e.alertOnDistribution(run.ID.String(), report)

	if len(scores) > 0 {
		if err := e.store.SaveScores(ctx, scores); err != nil {
			run.Status = store.RunFailed
			_ = e.finishRun(ctx, run, report)
			e.publish(events.SubjectRunFailed(run.ID.String()), events.RunFailedEvent{
				RunID: run.ID.String(),
				Error: err.Error(),
			})
			runsTotal.WithLabelValues(string(store.RunFailed)).Inc()
			return nil, fmt.Errorf("save scores: %w", err)
		}
	}

	run.Status = store.RunCompleted
	if err := e.finishRun(ctx, run, report); err != nil {
		e.logger.Error("failed to persist run", "run_id", run.ID, "error", err)
	}

	e.publish(events.SubjectRunCompleted(run.ID.String()), events.RunCompletedEvent{
		RunID:           run.ID.String(),
		ScoredRecords:   run.ScoredRecords,
		FailedRecords:   run.FailedRecords,
		ProfileVersions: run.ProfileVersions,
		OutOfTolerance:  report.OutOfTolerance(),
		CompletedAt:     time.Now().UTC(),
	})
	runsTotal.WithLabelValues(string(store.RunCompleted)).Inc()
	runDuration.Observe(time.Since(start).Seconds())

	e.logger.Info("evaluation run completed",
		"run_id", run.ID,
		"total", run.TotalRecords,
		"scored", run.ScoredRecords,
		"failed", run.FailedRecords,
		"out_of_tolerance", report.OutOfTolerance(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &RunResult{Run: run, Results: results, Report: report}, nil
}

func (e *Evaluator) resolveProfiles(records []*store.SupplierRecord) (map[string]scoring.Profile, map[string]error, map[string]string) {
	profiles := make(map[string]scoring.Profile)
	profileErrs := make(map[string]error)
	versions := make(map[string]string)

	for _, rec := range records {
		bu := rec.BusinessUnit
		if _, seen := profiles[bu]; seen {
			continue
		}
		if _, seen := profileErrs[bu]; seen {
			continue
		}
		p, err := e.registry.Get(bu)
		if err != nil {
			profileErrs[bu] = err
			e.logger.Warn("business unit cannot be scored", "business_unit", bu, "error", err)
			continue
		}
		if err := p.Weights.Validate(); err != nil {
			// Fatal for the whole unit's batch: every supplier would score
			// against the same broken configuration.
			profileErrs[bu] = fmt.Errorf("%w: %v", scoring.ErrInvalidProfile, err)
			e.logger.Warn("business unit cannot be scored", "business_unit", bu, "error", err)
			continue
		}
		profiles[bu] = p
		versions[bu] = p.Version
	}
	return profiles, profileErrs, versions
}

func (e *Evaluator) scoreAll(ctx context.Context, run *store.EvaluationRun, records []*store.SupplierRecord,
	profiles map[string]scoring.Profile, profileErrs map[string]error) []RecordResult {

	jobs := make(chan *store.SupplierRecord)
	out := make(chan RecordResult)

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				out <- e.scoreOne(run, rec, profiles, profileErrs)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, rec := range records {
			select {
			case jobs <- rec:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	results := make([]RecordResult, 0, len(records))
	for r := range out {
		results = append(results, r)
	}
	return results
}

func (e *Evaluator) scoreOne(run *store.EvaluationRun, rec *store.SupplierRecord,
	profiles map[string]scoring.Profile, profileErrs map[string]error) RecordResult {

	if err, bad := profileErrs[rec.BusinessUnit]; bad {
		return RecordResult{Record: rec, Err: err}
	}
	profile := profiles[rec.BusinessUnit]

	score, err := e.calc.Score(rec, profile)
	if err != nil {
		return RecordResult{Record: rec, Err: err}
	}

	tier := e.classifier.ClassifyWithOverride(score.Value, rec.ExitFlagged)

	return RecordResult{
		Record: rec,
		Score: &store.SupplierScore{
			RunID:          run.ID,
			SupplierID:     rec.SupplierID,
			BusinessUnit:   rec.BusinessUnit,
			Value:          score.Value,
			Breakdown:      score.Breakdown(),
			ProfileVersion: score.ProfileVersion,
			Tier:           string(tier),
			ExitOverride:   rec.ExitFlagged,
		},
	}
}

func (e *Evaluator) alertOnDistribution(runID string, report segment.DistributionReport) {
	for _, unit := range report.Units {
		if unit.WithinTolerance && unit.Dominant == "" {
			continue
		}
		alert := events.DistributionAlertEvent{
			RunID:        runID,
			BusinessUnit: unit.BusinessUnit,
			Dominant:     string(unit.Dominant),
		}
		for _, tier := range unit.Tiers {
			if !tier.WithinTolerance {
				alert.TiersOutside = append(alert.TiersOutside, string(tier.Tier))
			}
		}
		e.publish(events.SubjectDistributionAlert(unit.BusinessUnit), alert)
		e.logger.Warn("distribution out of tolerance",
			"run_id", runID,
			"business_unit", unit.BusinessUnit,
			"dominant_tier", unit.Dominant,
			"tiers_outside", alert.TiersOutside,
		)
	}
}

func (e *Evaluator) finishRun(ctx context.Context, run *store.EvaluationRun, report segment.DistributionReport) error {
	now := time.Now().UTC()
	run.CompletedAt = &now
	run.Report = reportAsMap(report)
	return e.store.UpdateRun(ctx, run)
}

func (e *Evaluator) publish(subject string, payload interface{}) {
	if e.events == nil {
		return
	}
	if err := e.events.Publish(subject, payload); err != nil {
		e.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}

// SetupSubscriptions wires the evaluation-request subject so upstream systems
// can trigger a run over the stored supplier base.
func (e *Evaluator) SetupSubscriptions(ctx context.Context) {
	if e.events == nil {
		return
	}
	err := e.events.Subscribe(events.SubjectEvaluationRequest, func(subject string, data []byte) {
		var req events.EvaluationRequestEvent
		if err := json.Unmarshal(data, &req); err != nil {
			e.logger.Warn("bad evaluation request", "error", err)
			return
		}
		if _, err := e.RunStored(ctx, req.BusinessUnit); err != nil {
			e.logger.Error("requested evaluation failed", "requested_by", req.RequestedBy, "error", err)
		}
	})
	if err != nil {
		e.logger.Warn("failed to subscribe to evaluation requests", "error", err)
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, scoring.ErrInvalidRecord):
		return "invalid_record"
	case errors.Is(err, scoring.ErrInvalidProfile):
		return "invalid_profile"
	case errors.Is(err, scoring.ErrMissingProfile):
		return "missing_profile"
	default:
		return "other"
	}
}

// reportAsMap round-trips the report through JSON so the store can persist it
// without importing the segment package.
func reportAsMap(report segment.DistributionReport) map[string]interface{} {
	data, err := json.Marshal(report)
	if err != nil {
		return nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

func sortFailures(failures []store.RecordFailure) {
	sort.Slice(failures, func(i, j int) bool {
		if failures[i].BusinessUnit != failures[j].BusinessUnit {
			return failures[i].BusinessUnit < failures[j].BusinessUnit
		}
		return failures[i].SupplierID < failures[j].SupplierID
	})
}
