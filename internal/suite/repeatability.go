package suite

import (
	"context"
	"fmt"
	"os"

	"probe-accuracy/internal/stats"
)

// repeatabilitySamples is the per-round acquisition size. Rounds vary by
// plan; the sample count per round does not.
const repeatabilitySamples = 10

// runRepeatability interleaves motion churn with center acquisitions: each
// round visits four random interior points before returning to center, so
// the measurement includes settle behavior rather than a static read.
func (r *Runner) runRepeatability(ctx context.Context) error {
	rounds := r.Plan.RepeatabilityRounds
	fmt.Println("\nRepeatability test:")
	fmt.Printf("Take %d probe_accuracy tests to check for repeatability\n", rounds)

	if !r.Plan.ForceDock {
		if err := r.Printer.Lock(ctx); err != nil {
			return err
		}
	}

	fmt.Print("Test number: ")
	var table Table
	for round := 0; round < rounds; round++ {
		fmt.Printf("%d...", rounds-round)
		r.Printer.DisplayStatus(ctx, fmt.Sprintf("%d/%d repeatability", round+1, rounds))

		for i := 0; i < 4; i++ {
			if err := r.Printer.MoveRandom(ctx); err != nil {
				return err
			}
		}

		run, err := r.acquire(ctx, acquireRequest{
			Count: repeatabilitySamples,
			Test:  fmt.Sprintf("%02d: center %d samples", round+1, repeatabilitySamples),
		})
		if err != nil {
			return err
		}
		label := fmt.Sprintf("Test #%02d", round+1)
		for j := range run {
			run[j].Measurement = label
		}
		table = append(table, run...)
	}
	fmt.Println("Done")

	if !r.Plan.ForceDock {
		if err := r.Printer.Unlock(ctx, true); err != nil {
			return err
		}
	}

	r.finish(ctx, table)
	r.printProgression(table)

	title := fmt.Sprintf("Repeatability Test\n(%d samples)", repeatabilitySamples)
	reportErr("repeatability facet plot", r.Report.FacetPlot(table, defaultFacetCols, title))
	reportErr("repeatability box plot", r.Report.BoxPlot(table, title))
	return nil
}

// printProgression shows how the configured multi-sample aggregation would
// have converged with different per-probe sample counts.
func (r *Runner) printProgression(table Table) {
	method := r.Printer.SamplesResult()
	obs := table.Observations()
	rows := stats.Progression(obs, method)
	if len(rows) == 0 {
		return
	}

	maxIndex, minIndex := 0, table[0].Index
	labels := make(map[string]bool)
	for _, s := range table {
		if s.Index > maxIndex {
			maxIndex = s.Index
		}
		if s.Index < minIndex {
			minIndex = s.Index
		}
		labels[s.Measurement] = true
	}

	msg := fmt.Sprintf("\nYour probe config uses %s of %d sample(s) over %d tests",
		method, maxIndex+1, len(labels))
	if minIndex == 1 {
		msg += " with the first sample dropped"
	}
	fmt.Println(msg)
	fmt.Printf("Below is the statistics on your %s Z values using different probe samples\n\n", method)
	stats.FprintProgression(os.Stdout, rows)
}
