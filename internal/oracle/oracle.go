// Package oracle turns a schema excerpt into a repair plan. The production
// implementation asks Gemini; a deterministic rule-based planner covers
// offline runs and tests. Either way the rest of the pipeline only sees the
// Oracle interface.
package oracle

import (
	"context"
	"errors"

	"schemadrift/internal/excerpt"
	"schemadrift/internal/repair"
)

// ErrInvalidResponse means the oracle's output could not be turned into a
// well-formed repair plan. Fatal for the trial; never silently recovered.
var ErrInvalidResponse = errors.New("oracle response is not a valid repair plan")

// Oracle infers a minimal corrective plan from a schema-only excerpt.
type Oracle interface {
	InferPlan(ctx context.Context, ex *excerpt.Excerpt) (*repair.Plan, error)
}
