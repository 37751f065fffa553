package suite

import (
	"context"
	"fmt"
)

// runDrift takes one long uninterrupted acquisition at bed center to expose
// thermal or mechanical drift over consecutive samples. No locking: the
// probe stays attached for the whole run.
func (r *Runner) runDrift(ctx context.Context) error {
	count := r.Plan.DriftSamples
	fmt.Println("\nDrift test:")
	fmt.Printf("Take %d samples in a row to check for drift\n", count)

	table, err := r.acquire(ctx, acquireRequest{
		Count: count,
		Test:  fmt.Sprintf("center %d samples", count),
	})
	if err != nil {
		return err
	}
	for i := range table {
		table[i].Measurement = "Drift"
	}

	r.finish(ctx, table)

	reportErr("drift plot", r.Report.DriftPlot(table, fmt.Sprintf("Drift Test\n(%d samples)", count)))
	return nil
}
