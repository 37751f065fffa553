package suite

import (
	"context"
	"errors"
	"fmt"
	"os"

	"probe-accuracy/internal/console"
	"probe-accuracy/internal/printer"
	"probe-accuracy/internal/stats"
	"probe-accuracy/internal/telemetry"
)

// Reporter consumes finished scenario tables. The plotting/CSV layer
// implements it; tests plug in a no-op.
type Reporter interface {
	FacetPlot(table Table, cols int, title string) error
	BoxPlot(table Table, title string) error
	DriftPlot(table Table, title string) error
}

// errScenarioAborted ends the current scenario only; the remaining suite
// keeps running. Raised on invalid speed-sweep input or a declined
// high-speed confirmation.
var errScenarioAborted = errors.New("scenario aborted")

// Runner sequences the requested scenarios against one printer. Scenarios
// run strictly one after another; they share a physical machine and a dock.
type Runner struct {
	Printer   *printer.Printer
	Ops       console.Interaction
	Report    Reporter
	Telemetry *telemetry.Telemetry
	Plan      Plan

	tables []Table
}

// Run executes every requested scenario in fixed order, then concatenates
// their results into the suite table and computes the suite summary without
// printing it. A scenario abort skips only that scenario; sample loss and
// cancellation abort the rest of the suite.
func (r *Runner) Run(ctx context.Context) (Table, map[string]stats.SummaryRow, error) {
	scenarios := []struct {
		name    string
		enabled bool
		run     func(context.Context) error
	}{
		{"corner", r.Plan.CornerSamples > 0, r.runCorner},
		{"repeatability", r.Plan.RepeatabilityRounds > 0, r.runRepeatability},
		{"drift", r.Plan.DriftSamples > 0, r.runDrift},
		{"speed", r.Plan.SpeedSweep, r.runSpeedSweep},
	}

	for _, s := range scenarios {
		if !s.enabled {
			continue
		}
		r.Printer.Respond(ctx, "Starting "+s.name+" test")
		scenarioCtx, end := r.Telemetry.StartScenario(ctx, s.name)
		err := s.run(scenarioCtx)
		end(err)
		if errors.Is(err, errScenarioAborted) {
			fmt.Printf("Skipping %s test.\n", s.name)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
	}

	var suiteTable Table
	for _, t := range r.tables {
		suiteTable = append(suiteTable, t...)
	}
	if len(suiteTable) > 0 {
		r.Printer.Respond(ctx, "Probe accuracy tests complete")
		r.Printer.DisplayStatus(ctx, "")
	}
	summary := stats.Summarize(suiteTable.Observations())
	return suiteTable, summary, nil
}

// finish summarizes and records one completed scenario table. Partial tables
// from scenarios that errored out never reach here; they are discarded, not
// salvaged.
func (r *Runner) finish(ctx context.Context, table Table) {
	obs := table.Observations()
	fmt.Println()
	stats.FprintSummary(os.Stdout, stats.Summarize(obs), stats.TestOrder(obs))
	r.Telemetry.AddSamples(ctx, len(table))
	r.tables = append(r.tables, table)
}

func reportErr(step string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %s: %v\n", step, err)
	}
}
