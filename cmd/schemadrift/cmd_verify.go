package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"schemadrift/internal/patch"
	"schemadrift/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Compare original and repaired patches structurally",
	Long: `Checks that the repaired patch matches the reference: exact functions
keyset equality and top-level keyset equality with noise keys excluded.
Exits non-zero when either check fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		vocab, err := loadVocabulary()
		if err != nil {
			return err
		}
		orig, err := loadEnvelope(referenceFile)
		if err != nil {
			return err
		}
		repaired, err := loadEnvelope(repairedFile)
		if err != nil {
			return err
		}

		res := verify.Verify(orig.Patch, repaired.Patch, vocab)

		fmt.Println("[FUNCTIONS KEYSET CHECK]")
		fmt.Printf("  original functions count: %d\n", res.Functions.OriginalCount)
		fmt.Printf("  repaired  functions count: %d\n", res.Functions.RepairedCount)
		fmt.Printf("  original keys sha256: %s\n", res.Functions.OriginalHash)
		fmt.Printf("  repaired  keys sha256: %s\n", res.Functions.RepairedHash)
		if res.Functions.Pass {
			fmt.Println("  PASS: functions keyset EXACT MATCH")
		} else {
			fmt.Println("  FAIL: functions keyset DIFFER")
			fmt.Printf("    missing in repaired: %v\n", res.Functions.MissingInRepaired)
			fmt.Printf("    extra in repaired:   %v\n", res.Functions.ExtraInRepaired)
		}

		fmt.Println("\n[TOP-LEVEL PATCH KEYS CHECK]")
		if res.TopLevel.Pass {
			fmt.Println("  PASS: top-level patch keys match (excluding ignorable noise)")
		} else {
			fmt.Println("  FAIL: top-level patch keys differ (excluding ignorable noise)")
			fmt.Printf("    missing in repaired: %v\n", res.TopLevel.MissingInRepaired)
			fmt.Printf("    extra in repaired:   %v\n", res.TopLevel.ExtraInRepaired)
		}

		printSampleFieldReport(orig.Patch, repaired.Patch, vocab.CanonicalKey)

		if !res.Pass() {
			return fmt.Errorf("verification failed")
		}
		return nil
	},
}

// printSampleFieldReport shows MATCH/DIFF lines for one sampled function
// record. Diagnostic only.
func printSampleFieldReport(orig, repaired patch.Patch, canonicalKey string) {
	oKeys, ok := sortedContainerKeys(orig, canonicalKey)
	if !ok || len(oKeys) == 0 {
		fmt.Println("\n[SAMPLE FUNCTION FIELD CHECK]")
		fmt.Println("  No functions available to sample.")
		return
	}
	sample := oKeys[0]
	fmt.Printf("\n[SAMPLE FUNCTION FIELD CHECK: %s]\n", sample)
	checks := verify.SampleFieldChecks(orig, repaired, canonicalKey, sample)
	if checks == nil {
		fmt.Printf("  Sample %q: missing or not a dict\n", sample)
		return
	}
	for _, c := range checks {
		fmt.Println(" ", c)
	}
}

// sortedContainerKeys returns the sorted keys of the mapping under key, if
// it is one.
func sortedContainerKeys(p patch.Patch, key string) ([]string, bool) {
	container, ok := patch.AsObject(p[key])
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
