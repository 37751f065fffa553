package stats

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Fixed absolute thresholds for flagging suspicious Z spreads. These are
// millimeter figures tuned for toolhead height probes.
const (
	rangeFlagStep = 0.01
	stdFlagLimit  = 0.004
	medianBand    = 0.01
)

// Anomaly captures the per-panel diagnostics the plotting layer annotates
// with.
type Anomaly struct {
	Mean     float64
	Median   float64
	Std      float64
	Min      float64
	Max      float64
	Range    float64
	MidRange float64 // interquartile spread
	// RangeFlags escalates once per full multiple of rangeFlagStep covered
	// by the min-max spread.
	RangeFlags int
	// StdFlag marks a sample standard deviation above stdFlagLimit.
	StdFlag bool
	// OutOfBand counts values outside median±medianBand.
	OutOfBand int
}

// Flag computes anomaly diagnostics for a set of Z values.
func Flag(values []float64) Anomaly {
	if len(values) == 0 {
		return Anomaly{}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	a := Anomaly{
		Mean:   stat.Mean(values, nil),
		Median: median(values),
		Std:    stat.StdDev(values, nil),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
	a.Range = a.Max - a.Min
	a.MidRange = stat.Quantile(0.75, stat.Empirical, sorted, nil) -
		stat.Quantile(0.25, stat.Empirical, sorted, nil)
	a.RangeFlags = int(math.Floor(a.Range / rangeFlagStep))
	a.StdFlag = a.Std > stdFlagLimit
	for _, v := range values {
		if v < a.Median-medianBand || v > a.Median+medianBand {
			a.OutOfBand++
		}
	}
	return a
}

// Annotation renders the multi-line panel caption used on diagnostic plots.
func (a Anomaly) Annotation(label string) string {
	rangeFlag := strings.Repeat("!", a.RangeFlags)
	stdFlag := ""
	if a.StdFlag {
		stdFlag = "!"
	}
	lines := []string{
		label,
		fmt.Sprintf("Mean:%.4f  Std:%.4f%s", a.Mean, a.Std, stdFlag),
		fmt.Sprintf("Median:%.4f  Mid 50%% range:%.4f", a.Median, a.MidRange),
		fmt.Sprintf("Range:%.4f%s  Min:%.4f  Max:%.4f", a.Range, rangeFlag, a.Min, a.Max),
	}
	if a.OutOfBand == 1 {
		lines = append(lines, fmt.Sprintf("1 sample is outside of median±%.2fmm range", medianBand))
	} else if a.OutOfBand > 1 {
		lines = append(lines, fmt.Sprintf("%d samples are outside of median±%.2fmm range", a.OutOfBand, medianBand))
	}
	return strings.Join(lines, "\n")
}
