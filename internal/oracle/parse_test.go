package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemadrift/internal/repair"
)

func TestParsePlanBareJSON(t *testing.T) {
	plan, err := ParsePlan(`{"actions": [{"op": "rename_key", "path": [], "from": "funcs", "to": "functions"}]}`)
	require.NoError(t, err)
	require.Len(t, plan.Actions, 1)
	assert.Equal(t, repair.OpRenameKey, plan.Actions[0].Op)
	assert.Equal(t, "funcs", plan.Actions[0].From)
}

func TestParsePlanMarkdownFence(t *testing.T) {
	raw := "```json\n{\"actions\": [{\"op\": \"unwrap\", \"path\": [\"functions\"], \"wrapper_key\": \"wrapped\"}]}\n```"
	plan, err := ParsePlan(raw)
	require.NoError(t, err)
	require.Len(t, plan.Actions, 1)
	assert.Equal(t, "wrapped", plan.Actions[0].WrapperKey)
}

func TestParsePlanSurroundingProse(t *testing.T) {
	raw := `Based on the excerpt, the patch needs one fix.

{"actions": [{"op": "rename_key", "path": [], "from": "function", "to": "functions"}]}

Let me know if you need anything else!`
	plan, err := ParsePlan(raw)
	require.NoError(t, err)
	require.Len(t, plan.Actions, 1)
}

func TestParsePlanEmptyActions(t *testing.T) {
	plan, err := ParsePlan(`{"actions": []}`)
	require.NoError(t, err)
	assert.Empty(t, plan.Actions)
}

func TestParsePlanBracesInsideStrings(t *testing.T) {
	raw := `note first: {"actions": [{"op": "rename_key", "path": [], "from": "weird{name", "to": "functions"}]}`
	plan, err := ParsePlan(raw)
	require.NoError(t, err)
	assert.Equal(t, "weird{name", plan.Actions[0].From)
}

func TestParsePlanInvalid(t *testing.T) {
	cases := map[string]string{
		"no json at all":    "I cannot help with that.",
		"unbalanced braces": `{"actions": [`,
		"missing actions":   `{"plan": []}`,
		"actions not list":  `{"actions": "rename"}`,
		"empty response":    "",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePlan(raw)
			require.ErrorIs(t, err, ErrInvalidResponse)
		})
	}
}

func TestParsePlanRejectsOverfullPlans(t *testing.T) {
	raw := `{"actions": [
		{"op": "rename_key", "path": [], "from": "a", "to": "functions"},
		{"op": "rename_key", "path": [], "from": "b", "to": "functions"}
	]}`
	_, err := ParsePlan(raw)
	require.ErrorIs(t, err, ErrInvalidResponse)
}
