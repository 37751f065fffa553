package stats

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"gonum.org/v1/gonum/stat"
)

// ProgressionRow reports how the configured aggregation would have behaved
// with SampleCount samples per probe instead of the configured number.
type ProgressionRow struct {
	SampleCount int
	Mean        float64
	Min         float64
	Max         float64
	Std         float64
	Range       float64
}

// Progression re-aggregates an increasing prefix of sample indices: for each
// prefix it applies method ("mean" or "median") per measurement label, then
// summarizes those per-label values. When the first sample was dropped
// upstream the surviving indices start at 1, so the prefix is shifted to
// keep SampleCount meaning "N samples kept".
func Progression(obs []Observation, method string) []ProgressionRow {
	if len(obs) == 0 {
		return nil
	}

	minIndex := obs[0].Index
	distinct := make(map[int]bool)
	for _, o := range obs {
		distinct[o.Index] = true
		if o.Index < minIndex {
			minIndex = o.Index
		}
	}
	shift := 0
	if minIndex == 1 {
		shift = 1
	}

	rows := make([]ProgressionRow, 0, len(distinct))
	for i := 0; i < len(distinct); i++ {
		perLabel := make(map[string][]float64)
		var labels []string
		for _, o := range obs {
			if o.Index > i+shift {
				continue
			}
			if _, seen := perLabel[o.Measurement]; !seen {
				labels = append(labels, o.Measurement)
			}
			perLabel[o.Measurement] = append(perLabel[o.Measurement], o.Z)
		}

		aggregates := make([]float64, 0, len(labels))
		for _, label := range labels {
			aggregates = append(aggregates, aggregate(perLabel[label], method))
		}

		row := ProgressionRow{
			SampleCount: i + 1,
			Mean:        stat.Mean(aggregates, nil),
			Std:         stat.StdDev(aggregates, nil),
			Min:         aggregates[0],
			Max:         aggregates[0],
		}
		for _, v := range aggregates {
			row.Min = math.Min(row.Min, v)
			row.Max = math.Max(row.Max, v)
		}
		row.Range = row.Max - row.Min
		rows = append(rows, row)
	}
	return rows
}

func aggregate(values []float64, method string) float64 {
	if method == "median" {
		return median(values)
	}
	return stat.Mean(values, nil)
}

// FprintProgression renders the convergence table.
func FprintProgression(w io.Writer, rows []ProgressionRow) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "sample_count\tmean\tmin\tmax\tstd\trange")
	for _, row := range rows {
		fmt.Fprintf(tw, "%d\t%.6f\t%.6f\t%.6f\t%.6f\t%.6f\n",
			row.SampleCount, row.Mean, row.Min, row.Max, row.Std, row.Range)
	}
	tw.Flush()
}
