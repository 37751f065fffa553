package suite

import (
	"context"
	"fmt"
)

// minCornerSamples is the floor for per-corner sample counts; fewer samples
// make the per-drive comparison meaningless.
const minCornerSamples = 10

// runCorner probes each of the four mesh corners to expose problems with
// individual Z drives.
func (r *Runner) runCorner(ctx context.Context) error {
	count := r.Plan.CornerSamples
	fmt.Println("\nCorner test:")
	fmt.Println("Test probe around the bed to see if there are issues with individual drives")

	if count < minCornerSamples {
		fmt.Printf("The minimum corner count is %d, updating test count from %d to %d\n",
			minCornerSamples, count, minCornerSamples)
		count = minCornerSamples
	}

	if err := r.Printer.LevelBed(ctx, true); err != nil {
		return err
	}
	if !r.Plan.ForceDock {
		if err := r.Printer.Lock(ctx); err != nil {
			return err
		}
	}

	fmt.Print("Test number: ")
	var table Table
	for i, corner := range r.Printer.Corners {
		fmt.Printf("%d...", len(r.Printer.Corners)-i)
		r.Printer.DisplayStatus(ctx, fmt.Sprintf("Corner test %d/4", i+1))

		loc := corner
		run, err := r.acquire(ctx, acquireRequest{
			Count:    count,
			Location: &loc,
			Test:     fmt.Sprintf("%d: corner %d samples %s", i+1, count, corner),
		})
		if err != nil {
			return err
		}
		label := fmt.Sprintf("%d: %s", i+1, corner)
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

	title := fmt.Sprintf("Corner Test\n(%d samples)", count)
	reportErr("corner facet plot", r.Report.FacetPlot(table, 2, title))
	reportErr("corner box plot", r.Report.BoxPlot(table, title))
	return nil
}
