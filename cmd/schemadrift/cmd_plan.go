package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"schemadrift/internal/drift"
	"schemadrift/internal/excerpt"
	"schemadrift/internal/oracle"
)

var (
	planOracle string
	planModel  string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Infer a repair plan for the mutated patch",
	Long: `Extracts the schema excerpt from data/patch_mutated.json, asks the
selected oracle for a minimal repair plan, and writes data/repair_plan.json.

Oracles:
  gemini  ask a Gemini model (requires GEMINI_API_KEY)
  rule    deterministic local planner, no network`,
	RunE: func(cmd *cobra.Command, args []string) error {
		vocab, err := loadVocabulary()
		if err != nil {
			return err
		}
		env, err := loadEnvelope(mutatedFile)
		if err != nil {
			return err
		}

		o, err := buildOracle(cmd, vocab)
		if err != nil {
			return err
		}

		ex := excerpt.Extract(env.Patch, vocab)
		plan, err := o.InferPlan(cmd.Context(), ex)
		if err != nil {
			return fmt.Errorf("plan inference failed: %w", err)
		}

		out := dataPath(planFile)
		if err := writeJSON(out, plan); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", out)
		fmt.Println("Inferred actions:")
		for _, a := range plan.Actions {
			fmt.Println(" ", a)
		}
		if len(plan.Actions) == 0 {
			fmt.Println("  (none: no repair needed)")
		}
		return nil
	},
}

// buildOracle constructs the oracle selected by --oracle.
func buildOracle(cmd *cobra.Command, vocab drift.Vocabulary) (oracle.Oracle, error) {
	switch planOracle {
	case "gemini":
		cfg := oracle.DefaultGeminiConfig()
		if planModel != "" {
			cfg.Model = planModel
		}
		return oracle.NewGemini(cmd.Context(), cfg, vocab, logger)
	case "rule":
		return oracle.NewRule(vocab), nil
	default:
		return nil, fmt.Errorf("unknown oracle %q (want gemini or rule)", planOracle)
	}
}

func init() {
	planCmd.Flags().StringVar(&planOracle, "oracle", "gemini", "oracle backend (gemini|rule)")
	planCmd.Flags().StringVar(&planModel, "model", "", "Gemini model id (default "+oracle.DefaultModel+")")
}
