package suite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"probe-accuracy/internal/printer"
)

// ErrNoSamples is fatal for the whole suite: a probe command that produced
// no parseable samples means the hardware or macros are broken, and there is
// no retry policy anywhere in this tool.
var ErrNoSamples = errors.New("no probe samples collected")

// logWindow bounds each gcode-store fetch. Heavy unrelated log traffic
// between command and tail can push samples out of this window; the upstream
// ring buffer offers nothing stronger, so the limitation stands.
const logWindow = 1000

type acquireRequest struct {
	Count    int
	Location *printer.XY // nil probes the bed center
	Test     string
	Speed    float64 // per-acquisition override, 0 uses the plan's speed
}

// acquire moves into position, issues PROBE_ACCURACY and decodes the
// resulting log entries into samples. The log is re-read only after the
// command is issued; entries at or before the pre-command watermark are
// ignored, which is the only ordering guarantee the protocol needs.
func (r *Runner) acquire(ctx context.Context, req acquireRequest) (Table, error) {
	p := r.Printer

	var err error
	if req.Location != nil {
		err = p.MoveXY(ctx, req.Location.X, req.Location.Y)
	} else {
		err = p.MoveCenter(ctx)
	}
	if err != nil {
		return nil, err
	}

	watermark, err := r.logWatermark(ctx)
	if err != nil {
		return nil, err
	}

	var cmd strings.Builder
	fmt.Fprintf(&cmd, "PROBE_ACCURACY SAMPLES=%d", req.Count)
	if r.Plan.RetractDist > 0 {
		fmt.Fprintf(&cmd, " SAMPLE_RETRACT_DIST=%g", r.Plan.RetractDist)
	}
	switch {
	case req.Speed > 0:
		fmt.Fprintf(&cmd, " PROBE_SPEED=%g", req.Speed)
	case r.Plan.ProbeSpeed > 0:
		fmt.Fprintf(&cmd, " PROBE_SPEED=%g", r.Plan.ProbeSpeed)
	}
	if err := p.GCode(ctx, cmd.String()); err != nil {
		return nil, err
	}

	entries, err := p.TailLog(ctx, logWindow)
	if err != nil {
		return nil, err
	}
	sampleLines, errorLines := classify(entries, watermark)

	if len(errorLines) > 0 {
		r.Telemetry.AddProtocolErrors(ctx, len(errorLines))
		fmt.Println("\nSomething's wrong with probe_accuracy! Klipper response:")
		for _, msg := range errorLines {
			fmt.Println(msg)
			if hint := remediationHint(msg); hint != "" {
				fmt.Println(hint)
			}
		}
	}

	fieldCount := p.Variant.SampleFields()
	samples := make(Table, 0, len(sampleLines))
	for i, msg := range sampleLines {
		x, y, z, parseErr := parseSampleLine(msg, fieldCount)
		if parseErr != nil {
			fmt.Printf("Skipping unparseable probe response: %v\n", parseErr)
			continue
		}
		samples = append(samples, Sample{
			Test:  req.Test,
			Index: i,
			X:     x,
			Y:     y,
			Z:     z,
		})
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("%w (test %q)", ErrNoSamples, req.Test)
	}

	// Drop the historically unreliable first touch, keeping the surviving
	// indices as probed.
	if p.DropFirstResult() && !r.Plan.KeepFirst {
		samples = samples[1:]
		if len(samples) == 0 {
			return nil, fmt.Errorf("%w (test %q)", ErrNoSamples, req.Test)
		}
	}
	return samples, nil
}

// logWatermark records the newest log timestamp before a command is issued.
// An empty store yields zero, which keeps everything that follows.
func (r *Runner) logWatermark(ctx context.Context) (float64, error) {
	entries, err := r.Printer.TailLog(ctx, 1)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}
	return entries[len(entries)-1].Time, nil
}
