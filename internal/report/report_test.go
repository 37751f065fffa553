package report

import (
	"encoding/csv"
	"math"
	"os"
	"testing"
	"time"

	"probe-accuracy/internal/stats"
	"probe-accuracy/internal/suite"
)

func TestRunID(t *testing.T) {
	ts := time.Date(2024, 3, 7, 14, 5, 59, 0, time.UTC)
	if got := RunID(ts); got != "20240307_1405" {
		t.Fatalf("unexpected run id %q", got)
	}
}

func TestFileStem(t *testing.T) {
	if got := fileStem("Corner Test\n(10 samples)"); got != "corner_test" {
		t.Fatalf("unexpected stem %q", got)
	}
	if got := fileStem("Speed Test"); got != "speed_test" {
		t.Fatalf("unexpected stem %q", got)
	}
}

func TestWriteSamplesCSV(t *testing.T) {
	dir := t.TempDir()
	table := suite.Table{
		{Test: "center", Measurement: "Test #01", Index: 1, X: 150, Y: 150, Z: 2.0275},
		{Test: "center", Measurement: "Test #01", Index: 2, X: 150, Y: 150, Z: 2.028},
	}
	path, err := WriteSamplesCSV(dir, "20240307_1405", table)
	if err != nil {
		t.Fatalf("WriteSamplesCSV error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if records[0][2] != "sample_index" {
		t.Fatalf("unexpected header %v", records[0])
	}
	if records[1][0] != "center" || records[1][2] != "1" || records[1][5] != "2.027500" {
		t.Fatalf("unexpected first row %v", records[1])
	}
}

func TestWriteSummaryCSV(t *testing.T) {
	dir := t.TempDir()
	rows := map[string]stats.SummaryRow{
		"center": {Min: 2.0, Max: 2.1, First: 2.0, Last: 2.1, Mean: 2.05, Std: 0.05, Count: 2, Range: 0.1, Drift: 0.1},
	}
	path, err := WriteSummaryCSV(dir, "20240307_1405", rows, []string{"center", "absent"})
	if err != nil {
		t.Fatalf("WriteSummaryCSV error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("tests absent from the summary must be skipped, got %d rows", len(records)-1)
	}
	if records[1][0] != "center" || records[1][7] != "2" {
		t.Fatalf("unexpected row %v", records[1])
	}
}

func TestPolyFit(t *testing.T) {
	// Exact cubic: y = 1 + 2x - x^2 + 0.5x^3.
	xs := []float64{0, 1, 2, 3, 4, 5}
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = 1 + 2*x - x*x + 0.5*x*x*x
	}
	coeffs := polyFit(xs, ys, 3)
	if coeffs == nil {
		t.Fatalf("fit failed")
	}
	want := []float64{1, 2, -1, 0.5}
	for i := range want {
		if math.Abs(coeffs[i]-want[i]) > 1e-6 {
			t.Fatalf("coefficient %d: want %g, got %g", i, want[i], coeffs[i])
		}
	}
	if got := polyEval(coeffs, 2); math.Abs(got-ys[2]) > 1e-6 {
		t.Fatalf("polyEval mismatch at x=2: %g vs %g", got, ys[2])
	}
}

func TestPolyFitDegenerate(t *testing.T) {
	// Two points force a linear fit; a single point fits nothing.
	coeffs := polyFit([]float64{0, 1}, []float64{1, 3}, 3)
	if len(coeffs) != 2 || math.Abs(coeffs[1]-2) > 1e-9 {
		t.Fatalf("expected linear fit with slope 2, got %v", coeffs)
	}
	if polyFit([]float64{1}, []float64{1}, 3) != nil {
		t.Fatalf("a single point must not produce a trend")
	}
}

func TestPlotsWriteFiles(t *testing.T) {
	dir := t.TempDir()
	p := &Plots{Dir: dir, RunID: "20240307_1405"}
	table := suite.Table{}
	for m := 0; m < 3; m++ {
		for i := 0; i < 10; i++ {
			table = append(table, suite.Sample{
				Test:        "center",
				Measurement: []string{"Test #01", "Test #02", "Test #03"}[m],
				Index:       i,
				X:           150, Y: 150,
				Z: 2.0 + 0.001*float64(i%4),
			})
		}
	}

	if err := p.FacetPlot(table, 2, "Repeatability Test\n(10 samples)"); err != nil {
		t.Fatalf("FacetPlot error: %v", err)
	}
	if err := p.BoxPlot(table, "Repeatability Test"); err != nil {
		t.Fatalf("BoxPlot error: %v", err)
	}
	if err := p.DriftPlot(table, "Drift Test\n(30 samples)"); err != nil {
		t.Fatalf("DriftPlot error: %v", err)
	}

	for _, name := range []string{
		"20240307_1405_repeatability_test.png",
		"20240307_1405_repeatability_test_box.png",
		"20240307_1405_drift_test.png",
	} {
		info, err := os.Stat(dir + "/" + name)
		if err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
		if info.Size() == 0 {
			t.Fatalf("%s is empty", name)
		}
	}
}

func TestPlotsRejectEmptyTables(t *testing.T) {
	p := &Plots{Dir: t.TempDir(), RunID: "x"}
	if err := p.FacetPlot(nil, 2, "Empty"); err == nil {
		t.Fatalf("empty facet table must error")
	}
	if err := p.BoxPlot(nil, "Empty"); err == nil {
		t.Fatalf("empty box table must error")
	}
	if err := p.DriftPlot(nil, "Empty"); err == nil {
		t.Fatalf("empty drift table must error")
	}
}
