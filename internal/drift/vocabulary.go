// Package drift injects controlled schema drift into a canonical patch:
// renaming the functions key, wrapping the functions container one level
// deeper, and adding ignorable structural noise. Every random choice is
// drawn from an explicitly seeded generator so trials are reproducible.
package drift

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"schemadrift/internal/patch"
)

// DefaultCanonicalKey is the top-level key holding the functions container
// in a canonical patch.
const DefaultCanonicalKey = "functions"

// Vocabulary is the closed set of drift shapes the pipeline knows about:
// the canonical key, the rename targets producers have been seen to use,
// the wrapper keys an extra nesting layer may appear under, and the noise
// keys canonical consumers must ignore.
type Vocabulary struct {
	CanonicalKey    string   `yaml:"canonical_key" json:"canonical_key"`
	RenameVariants  []string `yaml:"rename_variants" json:"rename_variants"`
	WrapperVariants []string `yaml:"wrapper_variants" json:"wrapper_variants"`
	NoiseKeys       []string `yaml:"noise_keys" json:"noise_keys"`
}

// DefaultVocabulary returns the built-in drift vocabulary.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		CanonicalKey: DefaultCanonicalKey,
		RenameVariants: []string{
			"function",
			"Functions",
			"funcs",
			"fn_map",
			"function_map",
			"functions_map",
			"functions_dict",
		},
		WrapperVariants: []string{
			"wrapper",
			"new_wrapper",
			"new_schema",
			"new_layout",
			"wrapped",
			"temp_wrapper",
		},
		NoiseKeys: []string{
			"extra_struct_1",
			"extra_struct_2",
			"temp_block",
			"temp_struct",
		},
	}
}

// LoadVocabulary reads a vocabulary from a YAML file. Fields left empty in
// the file fall back to the defaults.
func LoadVocabulary(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("failed to read vocabulary file: %w", err)
	}
	v := DefaultVocabulary()
	var loaded Vocabulary
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return Vocabulary{}, fmt.Errorf("failed to parse vocabulary file %s: %w", path, err)
	}
	if loaded.CanonicalKey != "" {
		v.CanonicalKey = loaded.CanonicalKey
	}
	if len(loaded.RenameVariants) > 0 {
		v.RenameVariants = loaded.RenameVariants
	}
	if len(loaded.WrapperVariants) > 0 {
		v.WrapperVariants = loaded.WrapperVariants
	}
	if len(loaded.NoiseKeys) > 0 {
		v.NoiseKeys = loaded.NoiseKeys
	}
	if err := v.Validate(); err != nil {
		return Vocabulary{}, fmt.Errorf("invalid vocabulary in %s: %w", path, err)
	}
	return v, nil
}

// Validate checks the vocabulary invariants: a canonical key exists and
// never doubles as a rename variant.
func (v Vocabulary) Validate() error {
	if v.CanonicalKey == "" {
		return fmt.Errorf("canonical key must not be empty")
	}
	for _, k := range v.RenameVariants {
		if k == v.CanonicalKey {
			return fmt.Errorf("canonical key %q must not appear in rename variants", v.CanonicalKey)
		}
	}
	return nil
}

// FindFunctionsKey returns the key under which the functions container
// currently lives: the canonical key if present, otherwise the first known
// rename variant found.
func (v Vocabulary) FindFunctionsKey(p patch.Patch) (string, bool) {
	if _, ok := p[v.CanonicalKey]; ok {
		return v.CanonicalKey, true
	}
	for _, k := range v.RenameVariants {
		if _, ok := p[k]; ok {
			return k, true
		}
	}
	return "", false
}

// FindWrapperKey returns a wrapper key if the functions container is
// wrapped under one of the known wrapper variants.
func (v Vocabulary) FindWrapperKey(container map[string]any) (string, bool) {
	for _, k := range v.WrapperVariants {
		if inner, ok := container[k]; ok {
			if _, ok := patch.AsObject(inner); ok {
				return k, true
			}
		}
	}
	return "", false
}

// IsNoiseKey reports whether k is in the noise vocabulary.
func (v Vocabulary) IsNoiseKey(k string) bool {
	for _, n := range v.NoiseKeys {
		if n == k {
			return true
		}
	}
	return false
}
