package suite

import (
	"probe-accuracy/internal/stats"
)

// Sample is one parsed probe reading. Index is its 0-based position among
// the sample lines of its acquisition and is preserved verbatim when the
// first sample is dropped.
type Sample struct {
	Test        string
	Measurement string
	Index       int
	X           float64
	Y           float64
	Z           float64
}

// Table is an ordered collection of samples, either one scenario's results
// or the whole suite.
type Table []Sample

func (t Table) Observations() []stats.Observation {
	obs := make([]stats.Observation, len(t))
	for i, s := range t {
		obs[i] = stats.Observation{
			Test:        s.Test,
			Measurement: s.Measurement,
			Index:       s.Index,
			Z:           s.Z,
		}
	}
	return obs
}

// Plan is the immutable test selection built from user input. A zero count
// disables a scenario.
type Plan struct {
	CornerSamples       int
	RepeatabilityRounds int
	DriftSamples        int
	SpeedSweep          bool

	ForceDock   bool
	KeepFirst   bool
	ExportCSV   bool
	ProbeSpeed  float64
	RetractDist float64
	OutputDir   string
}

// Enabled reports whether any scenario was requested.
func (p Plan) Enabled() bool {
	return p.CornerSamples > 0 || p.RepeatabilityRounds > 0 || p.DriftSamples > 0 || p.SpeedSweep
}

// Defaults for a full run when no individual scenario was selected.
const (
	DefaultCornerSamples       = 30
	DefaultRepeatabilityRounds = 20
	DefaultDriftSamples        = 100
)

// WithDefaults returns the plan with the three non-interactive scenarios
// enabled at their default counts. The speed sweep stays opt-in because it
// prompts for input.
func (p Plan) WithDefaults() Plan {
	p.CornerSamples = DefaultCornerSamples
	p.RepeatabilityRounds = DefaultRepeatabilityRounds
	p.DriftSamples = DefaultDriftSamples
	return p
}
