package patch

import (
	"encoding/hex"
	"fmt"
	"math/rand"
)

// Names used to build readable synthetic function identifiers.
var generatedNames = []string{
	"emojis", "tokenize", "normalize", "lookup", "render",
	"validate", "encode", "decode", "flatten", "classify",
}

// Generate builds a synthetic canonical patch with n opaque function
// records under canonicalKey. Records carry the same fields as a real
// exported snapshot (module, qualname, arg counts, flags, bytecode preview)
// so downstream stages and demos see realistic shapes. Output is fully
// determined by the seed.
func Generate(canonicalKey string, n int, seed int64) Patch {
	rng := rand.New(rand.NewSource(seed))

	functions := make(map[string]any, n)
	for i := 0; i < n; i++ {
		name := generatedNames[i%len(generatedNames)]
		if i >= len(generatedNames) {
			name = fmt.Sprintf("%s_%d", name, i/len(generatedNames))
		}

		codeLen := 16 + rng.Intn(240)
		preview := make([]byte, 16)
		rng.Read(preview)

		functions[name] = map[string]any{
			"func_module":       "zen.runtime",
			"func_qualname":     name,
			"co_argcount":       float64(rng.Intn(5)),
			"co_kwonlyargcount": float64(rng.Intn(2)),
			"co_flags":          float64(67),
			"co_code": map[string]any{
				"len":         float64(codeLen),
				"preview_hex": hex.EncodeToString(preview),
			},
		}
	}

	return Patch{canonicalKey: functions}
}
