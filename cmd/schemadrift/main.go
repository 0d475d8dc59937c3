// schemadrift simulates and repairs schema drift in captured function
// metadata patches. It injects drift deterministically, asks an oracle
// (Gemini, or a local rule planner) for a minimal repair plan, applies the
// plan, and verifies the result against the original.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"schemadrift/internal/drift"
	"schemadrift/internal/patch"
)

// Artifact file names inside the data directory. The names are stable so
// repeated stages pick up where the previous one left off.
const (
	referenceFile = "patch_reference.json"
	mutatedFile   = "patch_mutated.json"
	mutationLog   = "mutation_log.json"
	planFile      = "repair_plan.json"
	repairedFile  = "patch_repaired.json"
	trialsDBFile  = "trials.db"
)

var (
	// Global flags
	verbose   bool
	dataDir   string
	vocabPath string

	// Logger
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "schemadrift",
	Short: "Schema-drift injection and LLM-assisted repair for patch snapshots",
	Long: `schemadrift exercises the schema-drift repair loop end to end:

  gen      create a synthetic canonical reference patch
  mutate   inject controlled drift (rename / wrap / noise)
  excerpt  show the schema-only excerpt an oracle would see
  plan     infer a repair plan (Gemini or local rules)
  repair   apply a repair plan deterministically
  verify   compare original vs repaired key sets
  probe    demonstrate canonical access against each artifact
  run      batch trials: mutate -> oracle -> repair -> verify

Artifacts are plain JSON files in the data directory, so every stage can be
run and inspected in isolation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// loadVocabulary returns the configured drift vocabulary.
func loadVocabulary() (drift.Vocabulary, error) {
	if vocabPath == "" {
		return drift.DefaultVocabulary(), nil
	}
	return drift.LoadVocabulary(vocabPath)
}

// dataPath joins the data directory with an artifact name.
func dataPath(name string) string {
	return filepath.Join(dataDir, name)
}

// loadEnvelope reads a patch artifact from the data directory.
func loadEnvelope(name string) (*patch.Envelope, error) {
	return patch.LoadEnvelope(dataPath(name))
}

func ensureDataDir() error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "data", "directory for pipeline artifacts")
	rootCmd.PersistentFlags().StringVar(&vocabPath, "vocab", "", "YAML drift vocabulary (defaults built in)")

	rootCmd.AddCommand(genCmd)
	rootCmd.AddCommand(mutateCmd)
	rootCmd.AddCommand(excerptCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(repairCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resultsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
