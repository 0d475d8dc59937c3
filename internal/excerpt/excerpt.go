// Package excerpt derives the bounded, schema-only view of a patch that is
// handed to the repair oracle. An excerpt never contains function-record
// content, and its size is capped regardless of how large the patch is.
package excerpt

import (
	"sort"

	"schemadrift/internal/drift"
	"schemadrift/internal/patch"
)

// Sampling caps. Kept small so an excerpt always fits comfortably in an
// oracle request.
const (
	TopLevelSampleLimit  = 40
	ContainerSampleLimit = 25
)

// WrapperHint is the single-key wrap heuristic: when the functions
// container holds exactly one key whose value is itself a mapping, that key
// is a wrapper candidate. Without this hint a wrapper key is
// indistinguishable from an ordinary function name when the container
// happens to hold one entry.
type WrapperHint struct {
	WrapperKey      string   `json:"wrapper_key"`
	InnerKeysSample []string `json:"inner_keys_sample"`
}

// Excerpt is the schema-level summary of a (possibly drifted) patch.
type Excerpt struct {
	TopLevelKeysSample    []string     `json:"top_level_patch_keys_sample"`
	HasCanonical          bool         `json:"has_canonical_functions"`
	RenamedKeysPresent    []string     `json:"possible_renamed_functions_keys_present"`
	NoiseKeysPresent      []string     `json:"extra_struct_keys_present"`
	FunctionsContainerKey string       `json:"functions_container_key,omitempty"`
	ContainerIsMapping    bool         `json:"functions_container_is_mapping"`
	ContainerKeysSample   []string     `json:"functions_container_keys_sample,omitempty"`
	WrapperKeyDetected    string       `json:"wrapper_key_detected_by_list,omitempty"`
	SingleKeyWrapperHint  *WrapperHint `json:"single_key_wrapper_heuristic,omitempty"`
}

// Extract builds the excerpt for p. Pure: p is never modified. Key samples
// are sorted so the excerpt is deterministic for a given patch.
func Extract(p patch.Patch, vocab drift.Vocabulary) *Excerpt {
	ex := &Excerpt{
		TopLevelKeysSample: sample(p.SortedKeys(), TopLevelSampleLimit),
	}
	_, ex.HasCanonical = p[vocab.CanonicalKey]

	for _, k := range vocab.RenameVariants {
		if _, ok := p[k]; ok {
			ex.RenamedKeysPresent = append(ex.RenamedKeysPresent, k)
		}
	}
	for _, k := range vocab.NoiseKeys {
		if _, ok := p[k]; ok {
			ex.NoiseKeysPresent = append(ex.NoiseKeysPresent, k)
		}
	}

	key, found := vocab.FindFunctionsKey(p)
	if !found {
		return ex
	}
	ex.FunctionsContainerKey = key

	container, ok := patch.AsObject(p[key])
	if !ok {
		return ex
	}
	ex.ContainerIsMapping = true

	keys := sortedKeys(container)
	ex.ContainerKeysSample = sample(keys, ContainerSampleLimit)

	if wk, ok := vocab.FindWrapperKey(container); ok {
		ex.WrapperKeyDetected = wk
	}

	if len(keys) == 1 {
		if inner, ok := patch.AsObject(container[keys[0]]); ok {
			ex.SingleKeyWrapperHint = &WrapperHint{
				WrapperKey:      keys[0],
				InnerKeysSample: sample(sortedKeys(inner), ContainerSampleLimit),
			}
		}
	}

	return ex
}

func sample(keys []string, limit int) []string {
	if len(keys) > limit {
		keys = keys[:limit]
	}
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
