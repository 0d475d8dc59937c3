package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"schemadrift/internal/drift"
)

var (
	mutateMode    string
	mutateOrder   string
	mutateSeed    int64
	mutateTrialID int
)

var mutateCmd = &cobra.Command{
	Use:   "mutate",
	Short: "Apply controlled schema drift to the reference patch",
	Long: `Reads data/patch_reference.json, applies the selected drift, and writes
data/patch_mutated.json plus data/mutation_log.json.

Modes:
  wrapper  wrap the functions dict under a wrapper key
  rename   rename the canonical key to a variant
  extra    add an ignorable noise struct alongside functions
  both     rename + wrapper
  all      rename + wrapper + extra
  random   coin-flip each drift family (at least one applied)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := parseMode(mutateMode)
		if err != nil {
			return err
		}
		order, err := parseOrder(mutateOrder)
		if err != nil {
			return err
		}
		vocab, err := loadVocabulary()
		if err != nil {
			return err
		}

		env, err := loadEnvelope(referenceFile)
		if err != nil {
			return err
		}

		mutated, record, err := drift.NewMutator(vocab).Mutate(env.Patch, drift.Options{
			Mode:    mode,
			Order:   order,
			Seed:    mutateSeed,
			TrialID: mutateTrialID,
		})
		if err != nil {
			return fmt.Errorf("mutation failed: %w", err)
		}

		if err := env.WithPatch(mutated).Save(dataPath(mutatedFile)); err != nil {
			return err
		}
		if err := writeJSON(dataPath(mutationLog), record); err != nil {
			return err
		}

		logger.Info("mutation complete",
			zap.String("mode", string(mode)),
			zap.Int64("seed", mutateSeed),
			zap.String("order", record.Order))

		fmt.Println("Mutation complete.")
		return printJSON(record)
	},
}

func parseMode(s string) (drift.Mode, error) {
	for _, m := range drift.Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mode %q (want one of %v)", s, drift.Modes)
}

func parseOrder(s string) (drift.Order, error) {
	for _, o := range drift.Orders {
		if string(o) == s {
			return o, nil
		}
	}
	return "", fmt.Errorf("unknown order %q (want one of %v)", s, drift.Orders)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func init() {
	mutateCmd.Flags().StringVar(&mutateMode, "mode", string(drift.ModeWrapper), "drift mode")
	mutateCmd.Flags().StringVar(&mutateOrder, "order", string(drift.OrderRandom), "operation order when rename and wrap both apply")
	mutateCmd.Flags().Int64Var(&mutateSeed, "seed", 0, "seed for reproducible randomness")
	mutateCmd.Flags().IntVar(&mutateTrialID, "trial-id", 0, "identifier recorded in the mutation log")
}
