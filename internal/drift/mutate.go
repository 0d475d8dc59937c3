package drift

import (
	"errors"
	"fmt"
	"math/rand"

	"schemadrift/internal/patch"
)

// Mode selects which drift families a mutation applies.
type Mode string

const (
	ModeWrapper Mode = "wrapper" // wrap functions container under a wrapper key
	ModeRename  Mode = "rename"  // rename the canonical key to a variant
	ModeExtra   Mode = "extra"   // add an ignorable noise struct
	ModeBoth    Mode = "both"    // rename + wrap
	ModeAll     Mode = "all"     // rename + wrap + extra
	ModeRandom  Mode = "random"  // coin-flip each family, at least one applied
)

// Modes lists every supported mode, for flag validation.
var Modes = []Mode{ModeWrapper, ModeRename, ModeExtra, ModeBoth, ModeAll, ModeRandom}

// Order fixes which of rename and wrap happens first when both are active.
type Order string

const (
	OrderRenameThenWrap Order = "rename_then_wrap"
	OrderWrapThenRename Order = "wrap_then_rename"
	OrderRandom         Order = "random"

	// orderNotApplicable is recorded when at most one of rename/wrap ran.
	orderNotApplicable = "n/a"
)

// Orders lists every supported order, for flag validation.
var Orders = []Order{OrderRenameThenWrap, OrderWrapThenRename, OrderRandom}

var (
	// ErrSchemaViolation means the input patch was not in canonical shape
	// before mutation (canonical key missing or not a mapping).
	ErrSchemaViolation = errors.New("patch is not in canonical shape")

	// ErrNoAvailableTarget means every rename variant already exists as a
	// top-level key, so a rename drift cannot be applied.
	ErrNoAvailableTarget = errors.New("no available rename targets")
)

// Options configures a single mutation.
type Options struct {
	Mode    Mode
	Order   Order
	Seed    int64
	TrialID int
}

// Record discloses exactly which drifts a mutation applied and with which
// parameters. It is written once per mutation and never updated.
type Record struct {
	TrialID    int    `json:"trial_id"`
	Seed       int64  `json:"seed"`
	Mode       Mode   `json:"mode"`
	UseRename  bool   `json:"use_rename"`
	RenameTo   string `json:"rename_to,omitempty"`
	UseWrap    bool   `json:"use_wrap"`
	WrapperKey string `json:"wrapper_key,omitempty"`
	UseExtra   bool   `json:"use_extra_struct"`
	NoiseKey   string `json:"extra_struct_key,omitempty"`

	// Order is the realized operation order ("rename_then_wrap" or
	// "wrap_then_rename") when both families ran, "n/a" otherwise. It is
	// resolved before any drift is applied.
	Order string `json:"order"`
}

// Mutator applies controlled schema drift against one vocabulary.
type Mutator struct {
	vocab Vocabulary
}

// NewMutator returns a mutator for the given vocabulary.
func NewMutator(vocab Vocabulary) *Mutator {
	return &Mutator{vocab: vocab}
}

// Mutate applies the drifts selected by opts to a copy of p and returns the
// mutated patch with its mutation record. The input patch is not modified.
// The same options always produce the same output.
func (m *Mutator) Mutate(p patch.Patch, opts Options) (patch.Patch, *Record, error) {
	rng := rand.New(rand.NewSource(opts.Seed))

	container, ok := p[m.vocab.CanonicalKey]
	if !ok {
		return nil, nil, fmt.Errorf("%w: top-level key %q not found", ErrSchemaViolation, m.vocab.CanonicalKey)
	}
	if _, ok := patch.AsObject(container); !ok {
		return nil, nil, fmt.Errorf("%w: value under %q is not a mapping", ErrSchemaViolation, m.vocab.CanonicalKey)
	}

	var useRename, useWrap, useExtra bool
	switch opts.Mode {
	case ModeRandom:
		useRename = rng.Intn(2) == 0
		useWrap = rng.Intn(2) == 0
		useExtra = rng.Intn(2) == 0
		if !useRename && !useWrap && !useExtra {
			// Floor: a random trial always drifts somehow.
			useWrap = true
		}
	case ModeWrapper, ModeRename, ModeExtra, ModeBoth, ModeAll:
		useWrap = opts.Mode == ModeWrapper || opts.Mode == ModeBoth || opts.Mode == ModeAll
		useRename = opts.Mode == ModeRename || opts.Mode == ModeBoth || opts.Mode == ModeAll
		useExtra = opts.Mode == ModeExtra || opts.Mode == ModeAll
	default:
		return nil, nil, fmt.Errorf("unknown drift mode %q", opts.Mode)
	}

	// Choose all drift parameters up front so the record can disclose them
	// before anything is touched.
	var renameTo string
	if useRename {
		candidates := make([]string, 0, len(m.vocab.RenameVariants))
		for _, k := range m.vocab.RenameVariants {
			if _, exists := p[k]; !exists {
				candidates = append(candidates, k)
			}
		}
		if len(candidates) == 0 {
			return nil, nil, ErrNoAvailableTarget
		}
		renameTo = candidates[rng.Intn(len(candidates))]
	}

	var wrapperKey string
	if useWrap {
		wrapperKey = m.vocab.WrapperVariants[rng.Intn(len(m.vocab.WrapperVariants))]
	}

	var noiseKey string
	if useExtra {
		noiseKey = m.vocab.NoiseKeys[rng.Intn(len(m.vocab.NoiseKeys))]
	}

	order := orderNotApplicable
	if useRename && useWrap {
		switch opts.Order {
		case OrderRandom, "":
			if rng.Intn(2) == 0 {
				order = string(OrderRenameThenWrap)
			} else {
				order = string(OrderWrapThenRename)
			}
		case OrderRenameThenWrap, OrderWrapThenRename:
			order = string(opts.Order)
		default:
			return nil, nil, fmt.Errorf("unknown operation order %q", opts.Order)
		}
	}

	out := p.Clone()

	switch {
	case useRename && useWrap:
		if order == string(OrderRenameThenWrap) {
			m.rename(out, renameTo)
			if err := m.wrapCurrent(out, wrapperKey); err != nil {
				return nil, nil, err
			}
		} else {
			if err := m.wrap(out, m.vocab.CanonicalKey, wrapperKey); err != nil {
				return nil, nil, err
			}
			m.rename(out, renameTo)
		}
	case useRename:
		m.rename(out, renameTo)
	case useWrap:
		if err := m.wrapCurrent(out, wrapperKey); err != nil {
			return nil, nil, err
		}
	}

	if useExtra {
		m.addNoise(out, noiseKey, opts)
	}

	rec := &Record{
		TrialID:    opts.TrialID,
		Seed:       opts.Seed,
		Mode:       opts.Mode,
		UseRename:  useRename,
		RenameTo:   renameTo,
		UseWrap:    useWrap,
		WrapperKey: wrapperKey,
		UseExtra:   useExtra,
		NoiseKey:   noiseKey,
		Order:      order,
	}
	return out, rec, nil
}

// rename moves the functions container from the canonical key to the chosen
// variant. No-op if the canonical key is gone or the target is taken.
func (m *Mutator) rename(p patch.Patch, to string) {
	v, ok := p[m.vocab.CanonicalKey]
	if !ok {
		return
	}
	if _, taken := p[to]; taken {
		return
	}
	p[to] = v
	delete(p, m.vocab.CanonicalKey)
}

// wrapCurrent wraps the container wherever it currently lives (canonical or
// already-renamed key).
func (m *Mutator) wrapCurrent(p patch.Patch, wrapperKey string) error {
	key, ok := m.vocab.FindFunctionsKey(p)
	if !ok {
		return fmt.Errorf("%w: functions container not found under canonical or known renamed keys", ErrSchemaViolation)
	}
	return m.wrap(p, key, wrapperKey)
}

func (m *Mutator) wrap(p patch.Patch, key, wrapperKey string) error {
	if _, ok := patch.AsObject(p[key]); !ok {
		return fmt.Errorf("%w: value under %q is not a mapping before wrapping", ErrSchemaViolation, key)
	}
	p[key] = map[string]any{wrapperKey: p[key]}
	return nil
}

// addNoise adds a fresh top-level key holding an inert marker record. The
// noise never touches the functions container. Skipped silently if the key
// already exists.
func (m *Mutator) addNoise(p patch.Patch, key string, opts Options) {
	if _, exists := p[key]; exists {
		return
	}
	p[key] = map[string]any{
		"note":     "extra_struct noise field (ignorable)",
		"trial_id": float64(opts.TrialID),
		"seed":     float64(opts.Seed),
	}
}
