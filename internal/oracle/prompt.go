package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"schemadrift/internal/drift"
	"schemadrift/internal/excerpt"
)

// BuildPrompt renders the diagnostic prompt for an excerpt. The oracle sees
// schema structure only, never function-record content, and is told to
// return at most one rename and one unwrap and to leave noise keys alone.
func BuildPrompt(ex *excerpt.Excerpt, vocab drift.Vocabulary) (string, error) {
	excerptJSON, err := json.MarshalIndent(ex, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal excerpt: %w", err)
	}

	canon := vocab.CanonicalKey
	var b strings.Builder
	fmt.Fprintf(&b, `You are diagnosing schema drift in a recovered patch dictionary.

Canonical requirements:
- patch must contain a key named %[1]q
- patch[%[1]q] must be a dict mapping function_name -> function_record
- patch[%[1]q] must NOT be wrapped under an extra layer
- Extra top-level keys may exist and should be ignored unless they replace %[1]q

Observed excerpt from mutated patch (schema-only, not full content):
%[2]s

Return ONLY valid JSON with schema:

{
  "actions": [
    {
      "op": "rename_key",
      "path": [],
      "from": "<use functions_container_key>",
      "to": %[1]q
    },
    {
      "op": "unwrap",
      "path": [%[1]q],
      "wrapper_key": "<wrapper_key>"
    }
  ]
}

Rules:
- Include ONLY actions necessary based on the excerpt.
- If %[1]q is missing but a renamed key is present, include rename_key using that key.
- If the functions container appears wrapped:
  - Prefer wrapper_key from "single_key_wrapper_heuristic.wrapper_key" if present.
  - Otherwise use a wrapper key that appears under the functions container.
- Do NOT include actions for extra_struct keys; they are ignorable noise.
- Do not propose renames to keys other than %[1]q.
- Return at most one rename_key action and at most one unwrap action.
- If wrapper_key_detected_by_list is non-null, include an unwrap action using that wrapper_key.
- If no repair is needed, return { "actions": [] }.`, canon, excerptJSON)

	return b.String(), nil
}
