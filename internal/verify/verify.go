// Package verify compares an original patch against its repaired form. Only
// key sets are checked: the functions container's keys must match exactly,
// and the top-level keys must match once noise keys are excluded. Function
// record contents are never diffed here.
package verify

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"schemadrift/internal/drift"
	"schemadrift/internal/patch"
)

// DiffSampleLimit bounds the missing/extra key samples reported on failure
// so output stays usable for large patches.
const DiffSampleLimit = 25

// NotADict is reported in place of a keyset hash when the functions
// container is not a mapping on that side.
const NotADict = "NOT_A_DICT"

// KeysetCheck is the verdict for one key-set comparison.
type KeysetCheck struct {
	Pass              bool     `json:"pass"`
	OriginalCount     int      `json:"original_count"`
	RepairedCount     int      `json:"repaired_count"`
	OriginalHash      string   `json:"original_hash,omitempty"`
	RepairedHash      string   `json:"repaired_hash,omitempty"`
	MissingInRepaired []string `json:"missing_in_repaired,omitempty"`
	ExtraInRepaired   []string `json:"extra_in_repaired,omitempty"`
}

// Result holds both independent checks. Overall success requires both.
type Result struct {
	Functions KeysetCheck `json:"functions_keyset"`
	TopLevel  KeysetCheck `json:"top_level_keys"`
}

// Pass reports whether both checks passed.
func (r Result) Pass() bool {
	return r.Functions.Pass && r.TopLevel.Pass
}

// Verify compares original and repaired. Neither patch is modified.
func Verify(original, repaired patch.Patch, vocab drift.Vocabulary) Result {
	return Result{
		Functions: functionsCheck(original, repaired, vocab.CanonicalKey),
		TopLevel:  topLevelCheck(original, repaired, vocab),
	}
}

func functionsCheck(original, repaired patch.Patch, canonicalKey string) KeysetCheck {
	oKeys, oOK := functionKeys(original, canonicalKey)
	rKeys, rOK := functionKeys(repaired, canonicalKey)

	check := KeysetCheck{
		OriginalCount: len(oKeys),
		RepairedCount: len(rKeys),
		OriginalHash:  NotADict,
		RepairedHash:  NotADict,
	}
	if oOK {
		check.OriginalHash = KeysetHash(oKeys)
	}
	if rOK {
		check.RepairedHash = KeysetHash(rKeys)
	}
	if !oOK || !rOK {
		return check
	}

	check.Pass = equalSorted(oKeys, rKeys)
	if !check.Pass {
		check.MissingInRepaired, check.ExtraInRepaired = diffSamples(oKeys, rKeys)
	}
	return check
}

func topLevelCheck(original, repaired patch.Patch, vocab drift.Vocabulary) KeysetCheck {
	oKeys := topLevelKeys(original, vocab)
	rKeys := topLevelKeys(repaired, vocab)

	check := KeysetCheck{
		OriginalCount: len(oKeys),
		RepairedCount: len(rKeys),
		Pass:          equalSorted(oKeys, rKeys),
	}
	if !check.Pass {
		check.MissingInRepaired, check.ExtraInRepaired = diffSamples(oKeys, rKeys)
	}
	return check
}

// functionKeys returns the sorted function identifiers, or ok=false when
// the canonical key does not hold a mapping.
func functionKeys(p patch.Patch, canonicalKey string) ([]string, bool) {
	container, ok := patch.AsObject(p[canonicalKey])
	if !ok {
		return nil, false
	}
	keys := make([]string, 0, len(container))
	for k := range container {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, true
}

// topLevelKeys returns the sorted top-level keys with noise keys excluded.
func topLevelKeys(p patch.Patch, vocab drift.Vocabulary) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		if vocab.IsNoiseKey(k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// KeysetHash is the content fingerprint of a sorted key list: SHA-256 over
// each key followed by a newline.
func KeysetHash(keys []string) string {
	h := sha256.New()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func equalSorted(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// diffSamples returns bounded symmetric-difference samples: keys only in a
// (missing in repaired) and keys only in b (extra in repaired).
func diffSamples(a, b []string) (missing, extra []string) {
	inA := make(map[string]bool, len(a))
	for _, k := range a {
		inA[k] = true
	}
	inB := make(map[string]bool, len(b))
	for _, k := range b {
		inB[k] = true
	}
	for _, k := range a {
		if !inB[k] && len(missing) < DiffSampleLimit {
			missing = append(missing, k)
		}
	}
	for _, k := range b {
		if !inA[k] && len(extra) < DiffSampleLimit {
			extra = append(extra, k)
		}
	}
	return missing, extra
}

// Verdict renders a check outcome the way trial summaries record it.
func Verdict(pass bool) string {
	if pass {
		return "PASS"
	}
	return "FAIL"
}
