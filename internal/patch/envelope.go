package patch

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// PatchKey is the envelope field holding the patch document itself.
const PatchKey = "patch"

// Envelope is a patch file on disk: the patch document plus whatever
// metadata surrounds it (export timestamps, provenance, and so on). The
// metadata is kept as raw bytes and written back verbatim; mutation and
// repair only ever touch the patch itself.
type Envelope struct {
	Patch Patch

	// extra holds every envelope field other than "patch", unparsed.
	extra map[string]json.RawMessage
}

// NewEnvelope wraps a patch with the given metadata under "__meta__".
func NewEnvelope(p Patch, meta map[string]any) (*Envelope, error) {
	env := &Envelope{Patch: p, extra: map[string]json.RawMessage{}}
	if meta != nil {
		raw, err := json.Marshal(meta)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal envelope metadata: %w", err)
		}
		env.extra["__meta__"] = raw
	}
	return env, nil
}

// Meta returns the raw bytes of an envelope metadata field, if present.
func (e *Envelope) Meta(key string) (json.RawMessage, bool) {
	raw, ok := e.extra[key]
	return raw, ok
}

// WithPatch returns a new envelope carrying p with this envelope's metadata
// untouched.
func (e *Envelope) WithPatch(p Patch) *Envelope {
	return &Envelope{Patch: p, extra: e.extra}
}

// UnmarshalJSON decodes the envelope, splitting the patch document from the
// surrounding metadata.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	raw, ok := fields[PatchKey]
	if !ok {
		return fmt.Errorf("envelope has no %q field", PatchKey)
	}
	var p Patch
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("failed to decode %q field: %w", PatchKey, err)
	}
	delete(fields, PatchKey)
	e.Patch = p
	e.extra = fields
	return nil
}

// MarshalJSON emits the metadata fields verbatim alongside the current
// patch, with keys in sorted order so output is stable across runs.
func (e *Envelope) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(e.extra)+1)
	for k, v := range e.extra {
		fields[k] = v
	}
	raw, err := json.Marshal(e.Patch)
	if err != nil {
		return nil, err
	}
	fields[PatchKey] = raw
	return json.Marshal(fields)
}

// LoadEnvelope reads a JSON patch file.
func LoadEnvelope(path string) (*Envelope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read patch file: %w", err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse patch file %s: %w", path, err)
	}
	return &env, nil
}

// Save writes the envelope as indented JSON, matching the layout of the
// exported artifacts it round-trips.
func (e *Envelope) Save(path string) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal patch file: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write patch file: %w", err)
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
