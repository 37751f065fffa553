package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"probe-accuracy/internal/stats"
	"probe-accuracy/internal/suite"
)

// WriteSamplesCSV exports the raw sample table, one row per probe reading,
// in acquisition order.
func WriteSamplesCSV(dir, runID string, table suite.Table) (string, error) {
	path := filepath.Join(dir, runID+"_samples.csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create samples csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"test", "measurement", "sample_index", "x", "y", "z"}); err != nil {
		return "", fmt.Errorf("write samples csv header: %w", err)
	}
	for _, s := range table {
		rec := []string{
			s.Test,
			s.Measurement,
			strconv.Itoa(s.Index),
			formatCoord(s.X),
			formatCoord(s.Y),
			formatCoord(s.Z),
		}
		if err := w.Write(rec); err != nil {
			return "", fmt.Errorf("write samples csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush samples csv: %w", err)
	}
	return path, nil
}

// WriteSummaryCSV exports per-test aggregates in execution order.
func WriteSummaryCSV(dir, runID string, rows map[string]stats.SummaryRow, order []string) (string, error) {
	path := filepath.Join(dir, runID+"_summary.csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create summary csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"test", "min", "max", "first", "last", "mean", "std", "count", "range", "drift"}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write summary csv header: %w", err)
	}
	for _, test := range order {
		row, ok := rows[test]
		if !ok {
			continue
		}
		rec := []string{
			test,
			formatCoord(row.Min),
			formatCoord(row.Max),
			formatCoord(row.First),
			formatCoord(row.Last),
			formatCoord(row.Mean),
			formatCoord(row.Std),
			strconv.Itoa(row.Count),
			formatCoord(row.Range),
			formatCoord(row.Drift),
		}
		if err := w.Write(rec); err != nil {
			return "", fmt.Errorf("write summary csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush summary csv: %w", err)
	}
	return path, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
