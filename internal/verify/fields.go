package verify

import (
	"fmt"
	"reflect"

	"schemadrift/internal/patch"
)

// Shallow record fields sampled in verification reports. Purely diagnostic;
// these never feed the pass/fail verdicts.
var sampledFields = []string{
	"func_module",
	"func_qualname",
	"co_argcount",
	"co_kwonlyargcount",
	"co_flags",
}

var sampledCodeFields = []string{"len", "preview_hex"}

// FieldCheck is one MATCH/DIFF line of the sample report.
type FieldCheck struct {
	Field    string `json:"field"`
	Match    bool   `json:"match"`
	Original any    `json:"original"`
	Repaired any    `json:"repaired"`
}

func (c FieldCheck) String() string {
	verdict := "DIFF"
	if c.Match {
		verdict = "MATCH"
	}
	return fmt.Sprintf("%s: %s (orig=%v, repaired=%v)", c.Field, verdict, c.Original, c.Repaired)
}

// SampleFieldChecks compares a handful of fields of one function record
// between the original and repaired patches. Returns nil when the record is
// missing or not a mapping on either side.
func SampleFieldChecks(original, repaired patch.Patch, canonicalKey, fnName string) []FieldCheck {
	o := functionRecord(original, canonicalKey, fnName)
	r := functionRecord(repaired, canonicalKey, fnName)
	if o == nil || r == nil {
		return nil
	}

	var checks []FieldCheck
	for _, f := range sampledFields {
		checks = append(checks, FieldCheck{
			Field:    fnName + "." + f,
			Match:    reflect.DeepEqual(o[f], r[f]),
			Original: o[f],
			Repaired: r[f],
		})
	}

	oCode, oOK := patch.AsObject(o["co_code"])
	rCode, rOK := patch.AsObject(r["co_code"])
	if oOK && rOK {
		for _, f := range sampledCodeFields {
			checks = append(checks, FieldCheck{
				Field:    fnName + ".co_code." + f,
				Match:    reflect.DeepEqual(oCode[f], rCode[f]),
				Original: oCode[f],
				Repaired: rCode[f],
			})
		}
	}
	return checks
}

func functionRecord(p patch.Patch, canonicalKey, fnName string) map[string]any {
	container, ok := patch.AsObject(p[canonicalKey])
	if !ok {
		return nil
	}
	record, ok := patch.AsObject(container[fnName])
	if !ok {
		return nil
	}
	return record
}
