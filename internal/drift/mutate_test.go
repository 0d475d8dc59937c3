package drift

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func TestMutateRename(t *testing.T) {
	m := NewMutator(DefaultVocabulary())
	in := canonicalPatch()

	out, rec, err := m.Mutate(in, Options{Mode: ModeRename, Seed: 1})
	require.NoError(t, err)

	assert.True(t, rec.UseRename)
	assert.False(t, rec.UseWrap)
	assert.False(t, rec.UseExtra)
	assert.Equal(t, "n/a", rec.Order)
	require.NotEmpty(t, rec.RenameTo)

	assert.NotContains(t, out, "functions")
	moved, ok := patch.AsObject(out[rec.RenameTo])
	require.True(t, ok)
	assert.Contains(t, moved, "f1")
	assert.Contains(t, moved, "f2")

	// Input untouched.
	assert.Contains(t, in, "functions")
}

func TestMutateWrapper(t *testing.T) {
	m := NewMutator(DefaultVocabulary())

	out, rec, err := m.Mutate(canonicalPatch(), Options{Mode: ModeWrapper, Seed: 3})
	require.NoError(t, err)

	assert.True(t, rec.UseWrap)
	require.NotEmpty(t, rec.WrapperKey)

	container, ok := patch.AsObject(out["functions"])
	require.True(t, ok)
	require.Len(t, container, 1)
	inner, ok := patch.AsObject(container[rec.WrapperKey])
	require.True(t, ok)
	assert.Contains(t, inner, "f1")
}

func TestMutateExtra(t *testing.T) {
	m := NewMutator(DefaultVocabulary())

	out, rec, err := m.Mutate(canonicalPatch(), Options{Mode: ModeExtra, Seed: 5, TrialID: 9})
	require.NoError(t, err)

	assert.True(t, rec.UseExtra)
	require.NotEmpty(t, rec.NoiseKey)

	noise, ok := patch.AsObject(out[rec.NoiseKey])
	require.True(t, ok)
	assert.Equal(t, float64(9), noise["trial_id"])
	assert.NotContains(t, noise, "functions")

	// The functions container is untouched by noise.
	fns, ok := patch.AsObject(out["functions"])
	require.True(t, ok)
	assert.Len(t, fns, 2)
}

func TestMutateExtraSkipsExistingKey(t *testing.T) {
	vocab := DefaultVocabulary()
	vocab.NoiseKeys = []string{"temp_block"}
	m := NewMutator(vocab)

	in := canonicalPatch()
	in["temp_block"] = "preexisting"

	out, rec, err := m.Mutate(in, Options{Mode: ModeExtra, Seed: 0})
	require.NoError(t, err)
	assert.Equal(t, "temp_block", rec.NoiseKey)
	assert.Equal(t, "preexisting", out["temp_block"])
}

func TestMutateBothOrders(t *testing.T) {
	for _, order := range []Order{OrderRenameThenWrap, OrderWrapThenRename} {
		t.Run(string(order), func(t *testing.T) {
			m := NewMutator(DefaultVocabulary())
			out, rec, err := m.Mutate(canonicalPatch(), Options{Mode: ModeBoth, Order: order, Seed: 11})
			require.NoError(t, err)

			assert.Equal(t, string(order), rec.Order)
			assert.True(t, rec.UseRename)
			assert.True(t, rec.UseWrap)

			// Either order ends with the wrapped container at the renamed key.
			assert.NotContains(t, out, "functions")
			container, ok := patch.AsObject(out[rec.RenameTo])
			require.True(t, ok)
			inner, ok := patch.AsObject(container[rec.WrapperKey])
			require.True(t, ok)
			assert.Contains(t, inner, "f1")
			assert.Contains(t, inner, "f2")
		})
	}
}

func TestMutateAll(t *testing.T) {
	m := NewMutator(DefaultVocabulary())
	out, rec, err := m.Mutate(canonicalPatch(), Options{Mode: ModeAll, Order: OrderRenameThenWrap, Seed: 2})
	require.NoError(t, err)

	assert.True(t, rec.UseRename)
	assert.True(t, rec.UseWrap)
	assert.True(t, rec.UseExtra)
	assert.Contains(t, out, rec.RenameTo)
	assert.Contains(t, out, rec.NoiseKey)
}

func TestMutateRandomAlwaysDriftsSomething(t *testing.T) {
	m := NewMutator(DefaultVocabulary())
	for seed := int64(0); seed < 64; seed++ {
		_, rec, err := m.Mutate(canonicalPatch(), Options{Mode: ModeRandom, Order: OrderRandom, Seed: seed})
		require.NoError(t, err, "seed %d", seed)
		assert.True(t, rec.UseRename || rec.UseWrap || rec.UseExtra, "seed %d applied nothing", seed)
		if rec.UseRename && rec.UseWrap {
			assert.Contains(t, []string{string(OrderRenameThenWrap), string(OrderWrapThenRename)}, rec.Order)
		} else {
			assert.Equal(t, "n/a", rec.Order)
		}
	}
}

func TestMutateDeterministic(t *testing.T) {
	m := NewMutator(DefaultVocabulary())
	for _, mode := range Modes {
		opts := Options{Mode: mode, Order: OrderRandom, Seed: 1234, TrialID: 1}
		out1, rec1, err := m.Mutate(canonicalPatch(), opts)
		require.NoError(t, err)
		out2, rec2, err := m.Mutate(canonicalPatch(), opts)
		require.NoError(t, err)

		assert.Empty(t, cmp.Diff(map[string]any(out1), map[string]any(out2)), "mode %s", mode)
		assert.Equal(t, rec1, rec2, "mode %s", mode)
	}
}

func TestMutateMissingCanonicalKey(t *testing.T) {
	m := NewMutator(DefaultVocabulary())
	_, _, err := m.Mutate(patch.Patch{"other": map[string]any{}}, Options{Mode: ModeRename, Seed: 0})
	require.ErrorIs(t, err, ErrSchemaViolation)
}

func TestMutateCanonicalNotAMapping(t *testing.T) {
	m := NewMutator(DefaultVocabulary())
	_, _, err := m.Mutate(patch.Patch{"functions": "nope"}, Options{Mode: ModeWrapper, Seed: 0})
	require.ErrorIs(t, err, ErrSchemaViolation)
}

func TestMutateNoAvailableRenameTarget(t *testing.T) {
	vocab := DefaultVocabulary()
	m := NewMutator(vocab)

	in := canonicalPatch()
	for _, k := range vocab.RenameVariants {
		in[k] = "occupied"
	}

	_, _, err := m.Mutate(in, Options{Mode: ModeRename, Seed: 0})
	require.ErrorIs(t, err, ErrNoAvailableTarget)
}

func TestMutateUnknownMode(t *testing.T) {
	m := NewMutator(DefaultVocabulary())
	_, _, err := m.Mutate(canonicalPatch(), Options{Mode: Mode("bogus"), Seed: 0})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrSchemaViolation))
}

func TestMutateRenameTargetAvoidsExistingKeys(t *testing.T) {
	vocab := DefaultVocabulary()
	m := NewMutator(vocab)

	// Occupy every variant except one; the rename must land there.
	in := canonicalPatch()
	for _, k := range vocab.RenameVariants[1:] {
		in[k] = "occupied"
	}

	out, rec, err := m.Mutate(in, Options{Mode: ModeRename, Seed: 99})
	require.NoError(t, err)
	assert.Equal(t, vocab.RenameVariants[0], rec.RenameTo)
	assert.Contains(t, out, vocab.RenameVariants[0])
}
