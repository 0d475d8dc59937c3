package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"schemadrift/internal/pipeline"
	"schemadrift/internal/results"
)

var (
	runTrials      int
	runMode        string
	runOrder       string
	runSeed        int64
	runParallelism int
	runSkipVerify  bool
	runNoDB        bool
	runCSV         string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run batch trials: mutate -> oracle -> repair -> verify",
	Long: `Runs the full loop once per trial against data/patch_reference.json.
Trial i uses seed --seed + i, so a run is reproducible end to end with the
rule oracle. Outcomes are recorded in the trials database and optionally
exported as CSV.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := parseMode(runMode)
		if err != nil {
			return err
		}
		order, err := parseOrder(runOrder)
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
		o, err := buildOracle(cmd, vocab)
		if err != nil {
			return err
		}

		var store *results.Store
		if !runNoDB {
			if err := ensureDataDir(); err != nil {
				return err
			}
			store, err = results.Open(dataPath(trialsDBFile))
			if err != nil {
				return err
			}
			defer store.Close()
		}

		runner := pipeline.NewRunner(vocab, o, store, logger)
		summary, err := runner.Run(cmd.Context(), env.Patch, pipeline.Config{
			Trials:      runTrials,
			Mode:        mode,
			Order:       order,
			BaseSeed:    runSeed,
			Parallelism: runParallelism,
			SkipVerify:  runSkipVerify,
		})
		if err != nil {
			return err
		}

		for _, t := range summary.Trials {
			status := fmt.Sprintf("functions_keyset=%s top_level_keys=%s", t.FunctionsVerdict, t.TopLevelVerdict)
			if t.Err != nil {
				status = "error: " + t.Err.Error()
			}
			fmt.Printf("trial %d (seed %d): %s\n", t.TrialID, t.Seed, status)
		}
		fmt.Printf("\nrun %s: accuracy %s (%d failed, %d errored)\n",
			summary.RunID, summary.Accuracy(), summary.Failed, summary.Errored)

		if runCSV != "" && store != nil {
			f, err := os.Create(runCSV)
			if err != nil {
				return fmt.Errorf("failed to create csv file: %w", err)
			}
			defer f.Close()
			if err := store.ExportCSV(f, summary.RunID); err != nil {
				return err
			}
			fmt.Printf("Wrote trial summary: %s\n", runCSV)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().IntVar(&runTrials, "trials", 1, "number of trials")
	runCmd.Flags().StringVar(&runMode, "mode", "random", "drift mode per trial")
	runCmd.Flags().StringVar(&runOrder, "order", "random", "operation order when rename and wrap both apply")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "base seed; trial i uses seed+i")
	runCmd.Flags().IntVar(&runParallelism, "parallelism", 1, "max trials in flight")
	runCmd.Flags().BoolVar(&runSkipVerify, "skip-verify", false, "skip the verification stage")
	runCmd.Flags().BoolVar(&runNoDB, "no-db", false, "do not record trials in the database")
	runCmd.Flags().StringVar(&runCSV, "csv", "", "export this run's trial summary CSV to the given path")
	runCmd.Flags().StringVar(&planOracle, "oracle", "gemini", "oracle backend (gemini|rule)")
	runCmd.Flags().StringVar(&planModel, "model", "", "Gemini model id")
}
