package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// csvHeader matches the trial summary layout the pipeline has always
// exported: one row per trial plus a running accuracy column.
var csvHeader = []string{"trial_id", "mode", "functions_keyset", "top_level_keys", "accuracy"}

// WriteCSV renders trials as a summary CSV. Accuracy is running
// passed/seen, in row order.
func WriteCSV(w io.Writer, trials []Trial) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	passed := 0
	for i, t := range trials {
		if t.Passed {
			passed++
		}
		row := []string{
			strconv.Itoa(t.TrialID),
			t.Mode,
			t.FunctionsKeyset,
			t.TopLevelKeys,
			fmt.Sprintf("%d/%d", passed, i+1),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCSV writes the trials of a run to w.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	trials, err := s.Trials(runID)
	if err != nil {
		return err
	}
	return WriteCSV(w, trials)
}
