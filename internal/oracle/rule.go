package oracle

import (
	"context"

	"schemadrift/internal/drift"
	"schemadrift/internal/excerpt"
	"schemadrift/internal/repair"
)

// Rule is a deterministic local planner implementing the same decision
// rules the Gemini prompt spells out: rename when the canonical key is
// missing but the container was found elsewhere, unwrap when a wrapper is
// detected by vocabulary or by the single-key heuristic. It never proposes
// actions for noise keys and emits at most one action of each kind.
//
// Used for offline runs and as the test substitute for the network oracle.
type Rule struct {
	vocab drift.Vocabulary
}

// NewRule returns a rule-based oracle.
func NewRule(vocab drift.Vocabulary) Rule {
	return Rule{vocab: vocab}
}

// InferPlan derives the minimal plan for the excerpt. Never fails.
func (r Rule) InferPlan(_ context.Context, ex *excerpt.Excerpt) (*repair.Plan, error) {
	plan := &repair.Plan{Actions: []repair.Action{}}

	if !ex.HasCanonical && ex.FunctionsContainerKey != "" {
		plan.Actions = append(plan.Actions, repair.Action{
			Op:   repair.OpRenameKey,
			Path: []string{},
			From: ex.FunctionsContainerKey,
			To:   r.vocab.CanonicalKey,
		})
	}

	wrapperKey := ex.WrapperKeyDetected
	if wrapperKey == "" && ex.SingleKeyWrapperHint != nil {
		// The heuristic can misfire on an unwrapped single-function
		// container; the verifier catches that case downstream.
		wrapperKey = ex.SingleKeyWrapperHint.WrapperKey
	}
	if wrapperKey != "" {
		plan.Actions = append(plan.Actions, repair.Action{
			Op:         repair.OpUnwrap,
			Path:       []string{r.vocab.CanonicalKey},
			WrapperKey: wrapperKey,
		})
	}

	return plan, nil
}
