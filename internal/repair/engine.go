package repair

import (
	"fmt"
	"sort"

	"schemadrift/internal/drift"
	"schemadrift/internal/patch"
)

// Status classifies the outcome of one action.
type Status string

const (
	StatusApplied Status = "APPLIED"
	StatusNoOp    Status = "NO-OP"
	StatusSkipped Status = "SKIPPED"
)

// LogEntry records what happened to one plan action. Index is the action's
// position in the original plan, before priority ordering.
type LogEntry struct {
	Index  int    `json:"index"`
	Action Action `json:"action"`
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func (e LogEntry) String() string {
	if e.Reason == "" {
		return fmt.Sprintf("[%d] %s: %s", e.Index, e.Action, e.Status)
	}
	return fmt.Sprintf("[%d] %s: %s (%s)", e.Index, e.Action, e.Status, e.Reason)
}

// Engine applies repair plans against one vocabulary.
type Engine struct {
	vocab drift.Vocabulary
}

// NewEngine returns an engine for the given vocabulary.
func NewEngine(vocab drift.Vocabulary) *Engine {
	return &Engine{vocab: vocab}
}

// Apply executes plan against a copy of p and returns the repaired patch
// with one log entry per action. Renames run before unwraps no matter how
// the plan orders them. A malformed action is logged and skipped; it never
// aborts the rest of the plan.
func (e *Engine) Apply(p patch.Patch, plan *Plan) (patch.Patch, []LogEntry) {
	out := p.Clone()

	ordered := make([]LogEntry, len(plan.Actions))
	for i, a := range plan.Actions {
		ordered[i] = LogEntry{Index: i, Action: a}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Action.priority() < ordered[j].Action.priority()
	})

	for i := range ordered {
		entry := &ordered[i]
		switch entry.Action.Op {
		case OpRenameKey:
			e.applyRename(out, entry)
		case OpUnwrap:
			e.applyUnwrap(out, entry)
		default:
			entry.Status = StatusSkipped
			entry.Reason = fmt.Sprintf("unknown op %q", entry.Action.Op)
		}
	}
	return out, ordered
}

func (e *Engine) applyRename(p patch.Patch, entry *LogEntry) {
	a := entry.Action
	if a.From == "" || a.To == "" {
		entry.Status = StatusSkipped
		entry.Reason = "missing from/to"
		return
	}

	target, err := resolvePath(p, a.Path)
	if err != nil {
		entry.Status = StatusSkipped
		entry.Reason = err.Error()
		return
	}

	_, fromExists := target[a.From]
	_, toExists := target[a.To]
	if !fromExists || toExists {
		// Already-correct documents must be repairable idempotently, so a
		// rename that has nothing to move is an audit entry, not an error.
		entry.Status = StatusNoOp
		if !fromExists {
			entry.Reason = fmt.Sprintf("key %q not present", a.From)
		} else {
			entry.Reason = fmt.Sprintf("key %q already present", a.To)
		}
		return
	}

	target[a.To] = target[a.From]
	delete(target, a.From)
	entry.Status = StatusApplied
}

func (e *Engine) applyUnwrap(p patch.Patch, entry *LogEntry) {
	a := entry.Action
	if len(a.Path) != 1 || a.Path[0] != e.vocab.CanonicalKey {
		entry.Status = StatusSkipped
		entry.Reason = fmt.Sprintf("unwrap path must be [%q]", e.vocab.CanonicalKey)
		return
	}
	if a.WrapperKey == "" {
		entry.Status = StatusSkipped
		entry.Reason = "missing wrapper_key"
		return
	}

	container, ok := patch.AsObject(p[e.vocab.CanonicalKey])
	if !ok {
		entry.Status = StatusNoOp
		entry.Reason = fmt.Sprintf("no mapping under %q", e.vocab.CanonicalKey)
		return
	}
	inner, ok := patch.AsObject(container[a.WrapperKey])
	if !ok {
		entry.Status = StatusNoOp
		entry.Reason = fmt.Sprintf("no wrapped mapping under %q", a.WrapperKey)
		return
	}

	p[e.vocab.CanonicalKey] = inner
	entry.Status = StatusApplied
}

// resolvePath walks path segments through nested mappings, returning the
// mapping the final segment points into. An empty path is the top level.
func resolvePath(p patch.Patch, path []string) (map[string]any, error) {
	cur := map[string]any(p)
	for _, seg := range path {
		next, ok := patch.AsObject(cur[seg])
		if !ok {
			return nil, fmt.Errorf("path not found at %q", seg)
		}
		cur = next
	}
	return cur, nil
}
