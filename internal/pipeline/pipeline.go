// Package pipeline drives batch trials: mutate -> oracle -> repair ->
// verify, once per trial, recording a pass/fail outcome for each. Trials
// are independent (each owns its seeded RNG), so they may run in parallel.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"schemadrift/internal/drift"
	"schemadrift/internal/excerpt"
	"schemadrift/internal/oracle"
	"schemadrift/internal/patch"
	"schemadrift/internal/repair"
	"schemadrift/internal/results"
	"schemadrift/internal/verify"
)

// Config selects what a batch run does.
type Config struct {
	Trials      int
	Mode        drift.Mode
	Order       drift.Order
	BaseSeed    int64
	Parallelism int  // <= 1 means sequential
	SkipVerify  bool // record SKIPPED verdicts instead of comparing
}

// TrialResult is everything one trial produced.
type TrialResult struct {
	TrialID      int
	Seed         int64
	Record       *drift.Record
	Plan         *repair.Plan
	RepairLog    []repair.LogEntry
	Verification *verify.Result
	Err          error

	FunctionsVerdict string
	TopLevelVerdict  string
	Passed           bool
}

// Summary aggregates a run.
type Summary struct {
	RunID   string
	Trials  []TrialResult
	Passed  int
	Failed  int
	Errored int
}

// Accuracy renders passed/total.
func (s Summary) Accuracy() string {
	return fmt.Sprintf("%d/%d", s.Passed, len(s.Trials))
}

// Runner wires the pipeline stages together.
type Runner struct {
	vocab  drift.Vocabulary
	oracle oracle.Oracle
	store  *results.Store // optional
	logger *zap.Logger
}

// NewRunner creates a runner. store may be nil to skip persistence.
func NewRunner(vocab drift.Vocabulary, o oracle.Oracle, store *results.Store, logger *zap.Logger) *Runner {
	return &Runner{vocab: vocab, oracle: o, store: store, logger: logger}
}

// Run executes cfg.Trials trials against the reference patch. Trial i uses
// seed BaseSeed+i. An oracle failure fails that trial only, never the run.
func (r *Runner) Run(ctx context.Context, reference patch.Patch, cfg Config) (*Summary, error) {
	if cfg.Trials <= 0 {
		return nil, fmt.Errorf("trial count must be positive, got %d", cfg.Trials)
	}

	summary := &Summary{
		RunID:  uuid.NewString(),
		Trials: make([]TrialResult, cfg.Trials),
	}
	r.logger.Info("starting batch run",
		zap.String("run_id", summary.RunID),
		zap.Int("trials", cfg.Trials),
		zap.String("mode", string(cfg.Mode)),
		zap.String("order", string(cfg.Order)))

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Parallelism > 1 {
		g.SetLimit(cfg.Parallelism)
	} else {
		g.SetLimit(1)
	}
	for i := 0; i < cfg.Trials; i++ {
		g.Go(func() error {
			summary.Trials[i] = r.runTrial(gctx, reference, cfg, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range summary.Trials {
		t := &summary.Trials[i]
		switch {
		case t.Err != nil:
			summary.Errored++
		case t.Passed:
			summary.Passed++
		default:
			summary.Failed++
		}
		if r.store != nil {
			if err := r.store.Record(trialRow(summary.RunID, cfg, t)); err != nil {
				return nil, err
			}
		}
	}

	r.logger.Info("batch run complete",
		zap.String("run_id", summary.RunID),
		zap.Int("passed", summary.Passed),
		zap.Int("failed", summary.Failed),
		zap.Int("errored", summary.Errored))
	return summary, nil
}

func (r *Runner) runTrial(ctx context.Context, reference patch.Patch, cfg Config, trialID int) TrialResult {
	res := TrialResult{
		TrialID:          trialID,
		Seed:             cfg.BaseSeed + int64(trialID),
		FunctionsVerdict: results.VerdictSkipped,
		TopLevelVerdict:  results.VerdictSkipped,
	}
	log := r.logger.With(zap.Int("trial_id", trialID), zap.Int64("seed", res.Seed))

	mutator := drift.NewMutator(r.vocab)
	mutated, record, err := mutator.Mutate(reference, drift.Options{
		Mode:    cfg.Mode,
		Order:   cfg.Order,
		Seed:    res.Seed,
		TrialID: trialID,
	})
	if err != nil {
		res.Err = fmt.Errorf("mutation failed: %w", err)
		res.FunctionsVerdict = results.VerdictError
		res.TopLevelVerdict = results.VerdictError
		return res
	}
	res.Record = record

	ex := excerpt.Extract(mutated, r.vocab)
	plan, err := r.oracle.InferPlan(ctx, ex)
	if err != nil {
		res.Err = fmt.Errorf("oracle failed: %w", err)
		res.FunctionsVerdict = results.VerdictError
		res.TopLevelVerdict = results.VerdictError
		log.Warn("trial aborted at oracle stage", zap.Error(err))
		return res
	}
	res.Plan = plan

	engine := repair.NewEngine(r.vocab)
	repaired, repairLog := engine.Apply(mutated, plan)
	res.RepairLog = repairLog

	if cfg.SkipVerify {
		return res
	}

	verdict := verify.Verify(reference, repaired, r.vocab)
	res.Verification = &verdict
	res.FunctionsVerdict = verify.Verdict(verdict.Functions.Pass)
	res.TopLevelVerdict = verify.Verdict(verdict.TopLevel.Pass)
	res.Passed = verdict.Pass()

	log.Debug("trial complete",
		zap.String("functions_keyset", res.FunctionsVerdict),
		zap.String("top_level_keys", res.TopLevelVerdict))
	return res
}

func trialRow(runID string, cfg Config, t *TrialResult) results.Trial {
	row := results.Trial{
		RunID:           runID,
		TrialID:         t.TrialID,
		Mode:            string(cfg.Mode),
		Order:           string(cfg.Order),
		FunctionsKeyset: t.FunctionsVerdict,
		TopLevelKeys:    t.TopLevelVerdict,
		Passed:          t.Passed,
	}
	if t.Err != nil {
		row.Error = t.Err.Error()
	}
	return row
}
