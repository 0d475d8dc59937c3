package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"schemadrift/internal/results"
)

var (
	resultsRunID string
	resultsOut   string
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect recorded trial outcomes",
}

var resultsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export trial outcomes as CSV",
	Long: `Exports trials from the trials database as a summary CSV with a running
accuracy column. With --run, only that run's trials are exported.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := results.Open(dataPath(trialsDBFile))
		if err != nil {
			return err
		}
		defer store.Close()

		out := os.Stdout
		if resultsOut != "" {
			f, err := os.Create(resultsOut)
			if err != nil {
				return fmt.Errorf("failed to create csv file: %w", err)
			}
			defer f.Close()
			out = f
		}
		return store.ExportCSV(out, resultsRunID)
	},
}

func init() {
	resultsExportCmd.Flags().StringVar(&resultsRunID, "run", "", "restrict to one run id")
	resultsExportCmd.Flags().StringVar(&resultsOut, "out", "", "write CSV here instead of stdout")
	resultsCmd.AddCommand(resultsExportCmd)
}
