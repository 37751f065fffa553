package stats

import (
	"bytes"
	"math"
	"strings"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSummarize(t *testing.T) {
	obs := []Observation{
		{Test: "a", Index: 0, Z: 2.0},
		{Test: "a", Index: 1, Z: 2.2},
		{Test: "a", Index: 2, Z: 2.1},
		{Test: "b", Index: 0, Z: 1.0},
	}
	rows := Summarize(obs)
	a, ok := rows["a"]
	if !ok {
		t.Fatalf("missing row for test a")
	}
	if a.Count != 3 || !almostEqual(a.Min, 2.0) || !almostEqual(a.Max, 2.2) {
		t.Fatalf("unexpected row %+v", a)
	}
	if !almostEqual(a.First, 2.0) || !almostEqual(a.Last, 2.1) {
		t.Fatalf("first/last must follow observation order, got %+v", a)
	}
	if !almostEqual(a.Range, a.Max-a.Min) || !almostEqual(a.Drift, a.Last-a.First) {
		t.Fatalf("range/drift invariants violated in %+v", a)
	}
	if !almostEqual(a.Mean, 2.1) {
		t.Fatalf("expected mean 2.1, got %g", a.Mean)
	}
	// Sample standard deviation of {2.0, 2.2, 2.1}.
	if !almostEqual(a.Std, 0.1) {
		t.Fatalf("expected sample std 0.1, got %g", a.Std)
	}

	b := rows["b"]
	if !math.IsNaN(b.Std) {
		t.Fatalf("a single observation carries no spread, want NaN std, got %g", b.Std)
	}
	if !almostEqual(b.Range, 0) || !almostEqual(b.Drift, 0) {
		t.Fatalf("single observation must have zero range and drift, got %+v", b)
	}
}

func TestTestOrderFollowsAppearance(t *testing.T) {
	obs := []Observation{
		{Test: "z"}, {Test: "a"}, {Test: "z"}, {Test: "m"},
	}
	order := TestOrder(obs)
	want := []string{"z", "a", "m"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestFprintSummary(t *testing.T) {
	obs := []Observation{
		{Test: "center", Z: 2.0},
		{Test: "center", Z: 2.1},
	}
	var buf bytes.Buffer
	FprintSummary(&buf, Summarize(obs), TestOrder(obs))
	out := buf.String()
	if !strings.Contains(out, "center") || !strings.Contains(out, "drift") {
		t.Fatalf("unexpected summary output:\n%s", out)
	}
}

func TestProgressionMean(t *testing.T) {
	// Two measurements with three samples each.
	obs := []Observation{
		{Measurement: "m1", Index: 0, Z: 1.0},
		{Measurement: "m1", Index: 1, Z: 2.0},
		{Measurement: "m1", Index: 2, Z: 3.0},
		{Measurement: "m2", Index: 0, Z: 2.0},
		{Measurement: "m2", Index: 1, Z: 4.0},
		{Measurement: "m2", Index: 2, Z: 6.0},
	}
	rows := Progression(obs, "mean")
	if len(rows) != 3 {
		t.Fatalf("expected one row per distinct index, got %d", len(rows))
	}
	for i, row := range rows {
		if row.SampleCount != i+1 {
			t.Fatalf("sample counts must be 1..n, got %+v", rows)
		}
	}
	// Prefix of one sample: aggregates are 1.0 and 2.0.
	if !almostEqual(rows[0].Mean, 1.5) || !almostEqual(rows[0].Range, 1.0) {
		t.Fatalf("unexpected first row %+v", rows[0])
	}
	// Full prefix: aggregates are 2.0 and 4.0.
	if !almostEqual(rows[2].Mean, 3.0) || !almostEqual(rows[2].Min, 2.0) || !almostEqual(rows[2].Max, 4.0) {
		t.Fatalf("unexpected last row %+v", rows[2])
	}
}

func TestProgressionShiftedIndices(t *testing.T) {
	// Indices starting at 1 mean the first sample was dropped upstream; the
	// prefix must shift so SampleCount still counts kept samples.
	obs := []Observation{
		{Measurement: "m1", Index: 1, Z: 2.0},
		{Measurement: "m1", Index: 2, Z: 4.0},
	}
	rows := Progression(obs, "mean")
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if !almostEqual(rows[0].Mean, 2.0) {
		t.Fatalf("first row must cover only index 1, got %+v", rows[0])
	}
	if !almostEqual(rows[1].Mean, 3.0) {
		t.Fatalf("second row must cover indices 1 and 2, got %+v", rows[1])
	}
}

func TestProgressionMedian(t *testing.T) {
	obs := []Observation{
		{Measurement: "m1", Index: 0, Z: 1.0},
		{Measurement: "m1", Index: 1, Z: 100.0},
		{Measurement: "m1", Index: 2, Z: 2.0},
	}
	rows := Progression(obs, "median")
	// Median of {1, 100, 2} is 2; an outlier must not dominate.
	if !almostEqual(rows[2].Mean, 2.0) {
		t.Fatalf("expected median aggregation, got %+v", rows[2])
	}
}

func TestMedian(t *testing.T) {
	if !almostEqual(median([]float64{3, 1, 2}), 2) {
		t.Fatalf("odd-length median broken")
	}
	if !almostEqual(median([]float64{4, 1, 2, 3}), 2.5) {
		t.Fatalf("even-length median must average the middle pair")
	}
	if !math.IsNaN(median(nil)) {
		t.Fatalf("empty median must be NaN")
	}
}

func TestFlagThresholds(t *testing.T) {
	// Tight cluster: nothing flagged.
	a := Flag([]float64{2.000, 2.001, 2.002, 2.001})
	if a.RangeFlags != 0 || a.StdFlag || a.OutOfBand != 0 {
		t.Fatalf("tight cluster should be clean, got %+v", a)
	}

	// A 0.025 spread earns two range flags (one per full 0.01 step).
	a = Flag([]float64{2.000, 2.025})
	if a.RangeFlags != 2 {
		t.Fatalf("expected 2 range flags for 0.025 spread, got %d", a.RangeFlags)
	}

	// Wide scatter trips the std flag.
	a = Flag([]float64{2.00, 2.01, 1.99, 2.02, 1.98})
	if !a.StdFlag {
		t.Fatalf("expected std flag for spread %g", a.Std)
	}

	if Flag(nil).RangeFlags != 0 {
		t.Fatalf("empty input must be a zero Anomaly")
	}
}

func TestFlagOutOfBand(t *testing.T) {
	values := []float64{2.0, 2.0, 2.0, 2.0, 2.05}
	a := Flag(values)
	if a.OutOfBand != 1 {
		t.Fatalf("expected one sample outside the median band, got %d", a.OutOfBand)
	}
	caption := a.Annotation("panel")
	if !strings.HasPrefix(caption, "panel\n") {
		t.Fatalf("caption must lead with the label:\n%s", caption)
	}
	if !strings.Contains(caption, "1 sample is outside") {
		t.Fatalf("caption must report the out-of-band count:\n%s", caption)
	}
}
