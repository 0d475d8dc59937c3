package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"schemadrift/internal/repair"
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Apply the repair plan to the mutated patch",
	Long: `Reads data/patch_mutated.json and data/repair_plan.json, applies the plan
deterministically, and writes data/patch_repaired.json. The envelope
metadata around the patch is preserved untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		vocab, err := loadVocabulary()
		if err != nil {
			return err
		}
		env, err := loadEnvelope(mutatedFile)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(dataPath(planFile))
		if err != nil {
			return fmt.Errorf("failed to read repair plan: %w", err)
		}
		var plan repair.Plan
		if err := json.Unmarshal(data, &plan); err != nil {
			return fmt.Errorf("failed to parse repair plan: %w", err)
		}

		repaired, log := repair.NewEngine(vocab).Apply(env.Patch, &plan)
		if err := env.WithPatch(repaired).Save(dataPath(repairedFile)); err != nil {
			return err
		}

		fmt.Printf("Wrote %s\n", dataPath(repairedFile))
		fmt.Println("Applied actions:")
		for _, entry := range log {
			fmt.Println(" ", entry)
		}
		if len(log) == 0 {
			fmt.Println("  (empty plan)")
		}
		return nil
	},
}
