package verify

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemadrift/internal/drift"
	"schemadrift/internal/patch"
)

func canonicalPatch() patch.Patch {
	return patch.Patch{
		"functions": map[string]any{
			"f1": map[string]any{"co_argcount": float64(1)},
			"f2": map[string]any{"co_argcount": float64(2)},
		},
	}
}

func TestVerifyIdentical(t *testing.T) {
	res := Verify(canonicalPatch(), canonicalPatch(), drift.DefaultVocabulary())

	assert.True(t, res.Pass())
	assert.True(t, res.Functions.Pass)
	assert.True(t, res.TopLevel.Pass)
	assert.Equal(t, res.Functions.OriginalHash, res.Functions.RepairedHash)
	assert.Equal(t, KeysetHash([]string{"f1", "f2"}), res.Functions.OriginalHash)
	assert.Empty(t, res.Functions.MissingInRepaired)
	assert.Empty(t, res.Functions.ExtraInRepaired)
}

func TestVerifyNoiseIgnored(t *testing.T) {
	repaired := canonicalPatch()
	repaired["temp_block"] = map[string]any{"note": "noise"}
	repaired["extra_struct_1"] = map[string]any{}

	res := Verify(canonicalPatch(), repaired, drift.DefaultVocabulary())
	assert.True(t, res.Pass(), "noise keys must never affect verification")
}

func TestVerifyMissingCanonicalKeyFails(t *testing.T) {
	repaired := patch.Patch{
		"function": map[string]any{
			"f1": map[string]any{},
			"f2": map[string]any{},
		},
	}

	res := Verify(canonicalPatch(), repaired, drift.DefaultVocabulary())
	assert.False(t, res.Pass())
	assert.False(t, res.Functions.Pass)
	assert.Equal(t, NotADict, res.Functions.RepairedHash)
	assert.NotEqual(t, NotADict, res.Functions.OriginalHash)
	assert.False(t, res.TopLevel.Pass)
	assert.Equal(t, []string{"functions"}, res.TopLevel.MissingInRepaired)
	assert.Equal(t, []string{"function"}, res.TopLevel.ExtraInRepaired)
}

func TestVerifyContainerNotADict(t *testing.T) {
	repaired := patch.Patch{"functions": "broken"}
	res := Verify(canonicalPatch(), repaired, drift.DefaultVocabulary())

	assert.False(t, res.Functions.Pass)
	assert.Equal(t, NotADict, res.Functions.RepairedHash)
	// Top-level keys still match.
	assert.True(t, res.TopLevel.Pass)
}

func TestVerifyKeysetDiffer(t *testing.T) {
	repaired := patch.Patch{
		"functions": map[string]any{
			"f1": map[string]any{},
			"f3": map[string]any{},
		},
	}
	res := Verify(canonicalPatch(), repaired, drift.DefaultVocabulary())

	assert.False(t, res.Functions.Pass)
	assert.Equal(t, []string{"f2"}, res.Functions.MissingInRepaired)
	assert.Equal(t, []string{"f3"}, res.Functions.ExtraInRepaired)
	assert.NotEqual(t, res.Functions.OriginalHash, res.Functions.RepairedHash)
}

func TestVerifyChecksIndependent(t *testing.T) {
	// Functions match but an unexpected non-noise top-level key fails the
	// top-level check alone.
	repaired := canonicalPatch()
	repaired["surprise"] = "value"

	res := Verify(canonicalPatch(), repaired, drift.DefaultVocabulary())
	assert.True(t, res.Functions.Pass)
	assert.False(t, res.TopLevel.Pass)
	assert.False(t, res.Pass())
}

func TestVerifyDiffSamplesBounded(t *testing.T) {
	orig := patch.Patch{"functions": map[string]any{}}
	repaired := patch.Patch{"functions": map[string]any{}}
	oFns := orig["functions"].(map[string]any)
	for i := 0; i < DiffSampleLimit+20; i++ {
		oFns[fmt.Sprintf("fn_%03d", i)] = map[string]any{}
	}

	res := Verify(orig, repaired, drift.DefaultVocabulary())
	assert.False(t, res.Functions.Pass)
	assert.Len(t, res.Functions.MissingInRepaired, DiffSampleLimit)
}

func TestKeysetHashStable(t *testing.T) {
	a := KeysetHash([]string{"f1", "f2"})
	b := KeysetHash([]string{"f1", "f2"})
	assert.Equal(t, a, b)

	// Boundary-sensitive: the newline terminator keeps ["ab"] and ["a","b"]
	// distinct.
	assert.NotEqual(t, KeysetHash([]string{"ab"}), KeysetHash([]string{"a", "b"}))
	assert.NotEqual(t, a, KeysetHash([]string{"f2", "f1"}))
}

func TestSampleFieldChecks(t *testing.T) {
	orig := canonicalPatch()
	repaired := canonicalPatch()

	checks := SampleFieldChecks(orig, repaired, "functions", "f1")
	require.NotEmpty(t, checks)
	for _, c := range checks {
		assert.True(t, c.Match, "%s", c)
	}

	repaired["functions"].(map[string]any)["f1"].(map[string]any)["co_argcount"] = float64(9)
	checks = SampleFieldChecks(orig, repaired, "functions", "f1")
	var sawDiff bool
	for _, c := range checks {
		if !c.Match {
			sawDiff = true
		}
	}
	assert.True(t, sawDiff)
}

func TestSampleFieldChecksMissingRecord(t *testing.T) {
	assert.Nil(t, SampleFieldChecks(canonicalPatch(), patch.Patch{}, "functions", "f1"))
}

func TestVerdict(t *testing.T) {
	assert.Equal(t, "PASS", Verdict(true))
	assert.Equal(t, "FAIL", Verdict(false))
}
