package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"schemadrift/internal/drift"
	"schemadrift/internal/excerpt"
	"schemadrift/internal/oracle"
	"schemadrift/internal/patch"
	"schemadrift/internal/repair"
	"schemadrift/internal/results"
	"schemadrift/internal/verify"
)

func referencePatch() patch.Patch {
	return patch.Generate("functions", 8, 1)
}

func newRunner(t *testing.T, o oracle.Oracle, store *results.Store) *Runner {
	t.Helper()
	return NewRunner(drift.DefaultVocabulary(), o, store, zap.NewNop())
}

// failingOracle always errors, standing in for a down or misbehaving model.
type failingOracle struct{}

func (failingOracle) InferPlan(context.Context, *excerpt.Excerpt) (*repair.Plan, error) {
	return nil, fmt.Errorf("%w: synthetic failure", oracle.ErrInvalidResponse)
}

func TestRunAllModesRoundTrip(t *testing.T) {
	vocab := drift.DefaultVocabulary()
	runner := newRunner(t, oracle.NewRule(vocab), nil)

	for _, mode := range drift.Modes {
		for _, order := range drift.Orders {
			t.Run(string(mode)+"/"+string(order), func(t *testing.T) {
				summary, err := runner.Run(context.Background(), referencePatch(), Config{
					Trials:   10,
					Mode:     mode,
					Order:    order,
					BaseSeed: 100,
				})
				require.NoError(t, err)
				assert.Equal(t, 10, summary.Passed,
					"every trial must round-trip: %+v", summary.Trials)
				assert.Equal(t, "10/10", summary.Accuracy())
			})
		}
	}
}

func TestRunTrialSeedsAreSequential(t *testing.T) {
	runner := newRunner(t, oracle.NewRule(drift.DefaultVocabulary()), nil)
	summary, err := runner.Run(context.Background(), referencePatch(), Config{
		Trials:   3,
		Mode:     drift.ModeRename,
		Order:    drift.OrderRandom,
		BaseSeed: 40,
	})
	require.NoError(t, err)
	for i, tr := range summary.Trials {
		assert.Equal(t, int64(40+i), tr.Seed)
		assert.Equal(t, i, tr.TrialID)
		require.NotNil(t, tr.Record)
		assert.Equal(t, int64(40+i), tr.Record.Seed)
	}
}

func TestRunParallelMatchesSequential(t *testing.T) {
	cfg := Config{
		Trials:   12,
		Mode:     drift.ModeRandom,
		Order:    drift.OrderRandom,
		BaseSeed: 7,
	}
	runner := newRunner(t, oracle.NewRule(drift.DefaultVocabulary()), nil)

	seq, err := runner.Run(context.Background(), referencePatch(), cfg)
	require.NoError(t, err)

	cfg.Parallelism = 4
	par, err := runner.Run(context.Background(), referencePatch(), cfg)
	require.NoError(t, err)

	require.Len(t, par.Trials, len(seq.Trials))
	for i := range seq.Trials {
		assert.Equal(t, seq.Trials[i].Record, par.Trials[i].Record, "trial %d", i)
		assert.Equal(t, seq.Trials[i].Passed, par.Trials[i].Passed, "trial %d", i)
	}
	assert.Equal(t, seq.Passed, par.Passed)
}

func TestRunOracleFailureIsolatedPerTrial(t *testing.T) {
	runner := newRunner(t, failingOracle{}, nil)
	summary, err := runner.Run(context.Background(), referencePatch(), Config{
		Trials:   3,
		Mode:     drift.ModeWrapper,
		Order:    drift.OrderRandom,
		BaseSeed: 0,
	})
	require.NoError(t, err, "oracle failures fail trials, not the run")

	assert.Equal(t, 3, summary.Errored)
	assert.Equal(t, 0, summary.Passed)
	for _, tr := range summary.Trials {
		require.Error(t, tr.Err)
		assert.True(t, errors.Is(tr.Err, oracle.ErrInvalidResponse))
		assert.Equal(t, results.VerdictError, tr.FunctionsVerdict)
	}
}

func TestRunSkipVerify(t *testing.T) {
	runner := newRunner(t, oracle.NewRule(drift.DefaultVocabulary()), nil)
	summary, err := runner.Run(context.Background(), referencePatch(), Config{
		Trials:     2,
		Mode:       drift.ModeRename,
		Order:      drift.OrderRandom,
		BaseSeed:   0,
		SkipVerify: true,
	})
	require.NoError(t, err)
	for _, tr := range summary.Trials {
		assert.Nil(t, tr.Verification)
		assert.Equal(t, results.VerdictSkipped, tr.FunctionsVerdict)
		assert.Equal(t, results.VerdictSkipped, tr.TopLevelVerdict)
		assert.False(t, tr.Passed)
	}
}

func TestRunRecordsTrials(t *testing.T) {
	store, err := results.Open(filepath.Join(t.TempDir(), "trials.db"))
	require.NoError(t, err)
	defer store.Close()

	runner := newRunner(t, oracle.NewRule(drift.DefaultVocabulary()), store)
	summary, err := runner.Run(context.Background(), referencePatch(), Config{
		Trials:   4,
		Mode:     drift.ModeAll,
		Order:    drift.OrderWrapThenRename,
		BaseSeed: 2,
	})
	require.NoError(t, err)

	rows, err := store.Trials(summary.RunID)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	for i, row := range rows {
		assert.Equal(t, i, row.TrialID)
		assert.Equal(t, "all", row.Mode)
		assert.Equal(t, string(drift.OrderWrapThenRename), row.Order)
		assert.True(t, row.Passed)
	}
}

func TestRunRejectsBadTrialCount(t *testing.T) {
	runner := newRunner(t, oracle.NewRule(drift.DefaultVocabulary()), nil)
	_, err := runner.Run(context.Background(), referencePatch(), Config{Trials: 0})
	require.Error(t, err)
}

// TestRoundTripMinimalPlans pins the core invariant directly: each
// drift combination is invertible by at most one rename plus one unwrap,
// applied renames-first.
func TestRoundTripMinimalPlans(t *testing.T) {
	vocab := drift.DefaultVocabulary()
	mutator := drift.NewMutator(vocab)
	engine := repair.NewEngine(vocab)
	planner := oracle.NewRule(vocab)

	for _, mode := range []drift.Mode{drift.ModeRename, drift.ModeWrapper, drift.ModeBoth, drift.ModeAll} {
		for _, order := range []drift.Order{drift.OrderRenameThenWrap, drift.OrderWrapThenRename} {
			for seed := int64(0); seed < 20; seed++ {
				ref := referencePatch()
				mutated, rec, err := mutator.Mutate(ref, drift.Options{
					Mode: mode, Order: order, Seed: seed,
				})
				require.NoError(t, err)

				plan, err := planner.InferPlan(context.Background(), excerpt.Extract(mutated, vocab))
				require.NoError(t, err)
				require.NoError(t, plan.Validate())

				repaired, _ := engine.Apply(mutated, plan)
				res := verify.Verify(ref, repaired, vocab)
				require.True(t, res.Pass(),
					"mode=%s order=%s seed=%d record=%+v plan=%+v", mode, order, seed, rec, plan)
				assert.Equal(t, res.Functions.OriginalHash, res.Functions.RepairedHash)
			}
		}
	}
}
