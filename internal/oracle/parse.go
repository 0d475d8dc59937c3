package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"schemadrift/internal/repair"
)

// ParsePlan locates and decodes exactly one JSON plan object in raw model
// output. Models wrap payloads in markdown fences or surrounding prose;
// both are tolerated. Anything that does not yield a well-formed plan with
// an action list is ErrInvalidResponse.
func ParsePlan(raw string) (*repair.Plan, error) {
	text := stripFences(strings.TrimSpace(raw))

	candidate := text
	if !json.Valid([]byte(candidate)) {
		candidate = extractJSONObject(text)
		if candidate == "" {
			return nil, fmt.Errorf("%w: no JSON object found in output", ErrInvalidResponse)
		}
	}

	// Actions is a pointer so a response missing the field entirely is
	// distinguishable from an explicitly empty plan.
	var decoded struct {
		Actions *[]repair.Action `json:"actions"`
	}
	if err := json.Unmarshal([]byte(candidate), &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if decoded.Actions == nil {
		return nil, fmt.Errorf("%w: missing \"actions\" list", ErrInvalidResponse)
	}

	plan := &repair.Plan{Actions: *decoded.Actions}
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return plan, nil
}

// stripFences removes a surrounding markdown code fence, if any.
func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) < 3 {
		return text
	}
	return strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
}

// extractJSONObject returns the first brace-balanced object in text, or ""
// when none is found.
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
