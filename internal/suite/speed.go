package suite

import (
	"context"
	"fmt"
)

// defaultFacetCols is the facet-grid width used by every scenario except the
// four-corner test.
const defaultFacetCols = 5

// speedConfirmLimit is the probe speed above which an explicit confirmation
// is required before any motion is commanded.
const speedConfirmLimit = 35

// speedSweepSamples is the per-speed acquisition size.
const speedSweepSamples = 10

type speedRange struct {
	Start, Stop, Step float64
}

func (s speedRange) validate() error {
	if s.Step <= 0 {
		return fmt.Errorf("step must be positive, got %g", s.Step)
	}
	if s.Start < 1 {
		return fmt.Errorf("minimum speed must be at least 1, got %g", s.Start)
	}
	if s.Stop < s.Start {
		return fmt.Errorf("maximum speed %g is below minimum %g", s.Stop, s.Start)
	}
	return nil
}

// values expands the half-open arithmetic range and then appends the exact
// stop value, guaranteeing the maximum is sampled even when stepping does
// not land on it.
func (s speedRange) values() []float64 {
	var speeds []float64
	for v := s.Start; v < s.Stop; v += s.Step {
		speeds = append(speeds, v)
	}
	return append(speeds, s.Stop)
}

// runSpeedSweep probes a range of probe speeds. All validation and the
// high-speed safety gate happen before any motion or probe command.
func (r *Runner) runSpeedSweep(ctx context.Context) error {
	fmt.Println("\nZ-Probe speed test:")
	fmt.Println("Test a range of z-probe speed")
	fmt.Println()

	sweep, err := r.askSpeedRange()
	if err != nil {
		fmt.Printf("Invalid user input: %v\n", err)
		return errScenarioAborted
	}
	if sweep.Stop >= speedConfirmLimit {
		fmt.Printf("Warning: your maximum speed will be %g\n", sweep.Stop)
		confirmed, err := r.Ops.Confirm("confirm?")
		if err != nil || !confirmed {
			return errScenarioAborted
		}
	}
	fmt.Println()

	if err := r.Printer.LevelBed(ctx, false); err != nil {
		return err
	}
	if !r.Plan.ForceDock {
		if err := r.Printer.Lock(ctx); err != nil {
			return err
		}
	}

	fmt.Print("Test speeds: ")
	var table Table
	for _, speed := range sweep.values() {
		fmt.Printf("%g mm/s...", speed)
		r.Printer.DisplayStatus(ctx, fmt.Sprintf("%g mm/s probe speed", speed))

		run, err := r.acquire(ctx, acquireRequest{
			Count: speedSweepSamples,
			Test:  fmt.Sprintf("%g", speed),
			Speed: speed,
		})
		if err != nil {
			return err
		}
		label := fmt.Sprintf("Speed %4.1f", speed)
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

	title := "Speed Test"
	reportErr("speed facet plot", r.Report.FacetPlot(table, defaultFacetCols, title))
	reportErr("speed box plot", r.Report.BoxPlot(table, title))
	return nil
}

func (r *Runner) askSpeedRange() (speedRange, error) {
	var sweep speedRange
	var err error
	if sweep.Start, err = r.Ops.AskFloat("Minimum speed?  "); err != nil {
		return sweep, err
	}
	if sweep.Stop, err = r.Ops.AskFloat("Maximum speed?  "); err != nil {
		return sweep, err
	}
	if sweep.Step, err = r.Ops.AskFloat("Steps between speeds?  "); err != nil {
		return sweep, err
	}
	return sweep, sweep.validate()
}
