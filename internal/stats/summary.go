// Package stats turns ordered probe observations into summary tables,
// convergence progressions and anomaly flags. It knows nothing about the
// controller; callers feed it plain observations.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"text/tabwriter"

	"gonum.org/v1/gonum/stat"
)

// Observation is one probed Z value. Test groups observations for summary
// rows; Measurement groups them for the repeatability progression; Index is
// the 0-based sample position within its acquisition, pre-drop.
type Observation struct {
	Test        string
	Measurement string
	Index       int
	Z           float64
}

// SummaryRow is the per-test aggregate. Recomputed on demand, never mutated.
type SummaryRow struct {
	Min   float64
	Max   float64
	First float64
	Last  float64
	Mean  float64
	Std   float64
	Count int
	Range float64
	Drift float64
}

// Summarize aggregates Z values per distinct test name. Std is the sample
// standard deviation and is NaN for single-observation tests, mirroring how
// a lone reading carries no spread information.
func Summarize(obs []Observation) map[string]SummaryRow {
	grouped := groupBy(obs, func(o Observation) string { return o.Test })
	rows := make(map[string]SummaryRow, len(grouped))
	for test, values := range grouped {
		row := SummaryRow{
			Min:   values[0],
			Max:   values[0],
			First: values[0],
			Last:  values[len(values)-1],
			Mean:  stat.Mean(values, nil),
			Std:   stat.StdDev(values, nil),
			Count: len(values),
		}
		for _, z := range values {
			row.Min = math.Min(row.Min, z)
			row.Max = math.Max(row.Max, z)
		}
		row.Range = row.Max - row.Min
		row.Drift = row.Last - row.First
		rows[test] = row
	}
	return rows
}

// TestOrder returns the distinct test names in first-appearance order, so
// printed summaries follow execution order rather than map order.
func TestOrder(obs []Observation) []string {
	seen := make(map[string]bool)
	var order []string
	for _, o := range obs {
		if !seen[o.Test] {
			seen[o.Test] = true
			order = append(order, o.Test)
		}
	}
	return order
}

// FprintSummary renders the summary table in execution order.
func FprintSummary(w io.Writer, rows map[string]SummaryRow, order []string) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "test\tmin\tmax\tfirst\tlast\tmean\tstd\tcount\trange\tdrift")
	for _, test := range order {
		row, ok := rows[test]
		if !ok {
			continue
		}
		fmt.Fprintf(tw, "%s\t%.6f\t%.6f\t%.6f\t%.6f\t%.6f\t%.6f\t%d\t%.6f\t%.6f\n",
			test, row.Min, row.Max, row.First, row.Last, row.Mean, row.Std,
			row.Count, row.Range, row.Drift)
	}
	tw.Flush()
}

func groupBy(obs []Observation, key func(Observation) string) map[string][]float64 {
	grouped := make(map[string][]float64)
	for _, o := range obs {
		k := key(o)
		grouped[k] = append(grouped[k], o.Z)
	}
	return grouped
}

// median averages the two middle values for even-length input.
func median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
