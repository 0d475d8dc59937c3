package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"schemadrift/internal/drift"
	"schemadrift/internal/patch"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Demonstrate canonical access against each artifact",
	Long: `Attempts the canonical lookup patch[functions][<first fn>] against the
reference, mutated, and repaired artifacts and reports where it works. A
drifted patch is expected to fail this lookup; a repaired one must not.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		vocab, err := loadVocabulary()
		if err != nil {
			return err
		}
		orig, err := loadEnvelope(referenceFile)
		if err != nil {
			return err
		}

		keys, ok := sortedContainerKeys(orig.Patch, vocab.CanonicalKey)
		if !ok || len(keys) == 0 {
			return fmt.Errorf("reference patch has no functions to probe")
		}
		target := keys[0]

		fmt.Println("\n[ORIGINAL]")
		probeAccess(orig.Patch, vocab, target)

		if env, err := loadEnvelope(mutatedFile); err == nil {
			fmt.Println("\n[MUTATED]")
			probeAccess(env.Patch, vocab, target)
		}
		if env, err := loadEnvelope(repairedFile); err == nil {
			fmt.Println("\n[REPAIRED]")
			probeAccess(env.Patch, vocab, target)
		}
		return nil
	},
}

func probeAccess(p patch.Patch, vocab drift.Vocabulary, target string) {
	canon := vocab.CanonicalKey
	if container, ok := patch.AsObject(p[canon]); ok {
		if _, ok := container[target]; ok {
			fmt.Printf("OK: patch[%q][%q] exists\n", canon, target)
			return
		}
	}
	fmt.Printf("FAIL: patch[%q][%q] not reachable\n", canon, target)

	if key, ok := vocab.FindFunctionsKey(p); ok && key != canon {
		fmt.Printf("INFO: functions container appears under renamed key: %q\n", key)
	}
}
