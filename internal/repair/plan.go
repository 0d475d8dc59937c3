// Package repair applies oracle-produced correction plans to a drifted
// patch. Application is deterministic: renames always run before unwraps
// regardless of plan order, malformed actions are logged and skipped, and
// applying a plan twice leaves the document unchanged the second time.
package repair

import (
	"fmt"
	"strings"
)

// Known action ops. Anything else is skipped with an explicit log entry,
// never silently defaulted.
const (
	OpRenameKey = "rename_key"
	OpUnwrap    = "unwrap"
)

// Action is one correction step. Op selects the variant; Path addresses a
// location in the patch (empty means top level, [canonical] means inside
// the functions container).
type Action struct {
	Op         string   `json:"op"`
	Path       []string `json:"path"`
	From       string   `json:"from,omitempty"`
	To         string   `json:"to,omitempty"`
	WrapperKey string   `json:"wrapper_key,omitempty"`
}

func (a Action) String() string {
	switch a.Op {
	case OpRenameKey:
		return fmt.Sprintf("%s [%s] %q -> %q", a.Op, strings.Join(a.Path, "."), a.From, a.To)
	case OpUnwrap:
		return fmt.Sprintf("%s [%s] wrapper=%q", a.Op, strings.Join(a.Path, "."), a.WrapperKey)
	default:
		return fmt.Sprintf("%s [%s]", a.Op, strings.Join(a.Path, "."))
	}
}

// priority orders actions for application: renames first, then unwraps,
// unknown ops last.
func (a Action) priority() int {
	switch a.Op {
	case OpRenameKey:
		return 0
	case OpUnwrap:
		return 1
	default:
		return 99
	}
}

// Plan is an ordered list of corrective actions. Empty means no repair is
// needed.
type Plan struct {
	Actions []Action `json:"actions"`
}

// Validate enforces the oracle contract on a plan: at most one rename and
// at most one unwrap action. Plans applied by the engine are not required
// to pass this; it guards what the oracle is allowed to return.
func (p *Plan) Validate() error {
	var renames, unwraps int
	for _, a := range p.Actions {
		switch a.Op {
		case OpRenameKey:
			renames++
		case OpUnwrap:
			unwraps++
		}
	}
	if renames > 1 {
		return fmt.Errorf("plan has %d rename_key actions, at most 1 allowed", renames)
	}
	if unwraps > 1 {
		return fmt.Errorf("plan has %d unwrap actions, at most 1 allowed", unwraps)
	}
	return nil
}
