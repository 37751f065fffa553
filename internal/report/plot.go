package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"probe-accuracy/internal/stats"
	"probe-accuracy/internal/suite"
)

const (
	panelWidth  = 4 * vg.Inch
	panelHeight = 3 * vg.Inch
	titleStrip  = 0.5 * vg.Inch

	// yBand keeps every panel at least this tall around the median so a
	// tight probe does not get its noise blown up to full scale.
	yBand = 0.01
)

var (
	sampleColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	trendColor  = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
)

// Plots renders the diagnostic PNGs for one run. It satisfies the suite's
// Reporter interface.
type Plots struct {
	Dir   string
	RunID string
}

func (p *Plots) path(title string) string {
	return filepath.Join(p.Dir, p.RunID+"_"+fileStem(title)+".png")
}

// FacetPlot draws one scatter panel per measurement, arranged in a grid of
// the given column count, each annotated with its anomaly caption.
func (p *Plots) FacetPlot(table suite.Table, cols int, title string) error {
	names, groups := groupMeasurements(table)
	if len(names) == 0 {
		return fmt.Errorf("facet plot %q: no samples", fileStem(title))
	}
	if cols > len(names) {
		cols = len(names)
	}
	rows := (len(names) + cols - 1) / cols

	panels := make([][]*plot.Plot, rows)
	for r := range panels {
		panels[r] = make([]*plot.Plot, cols)
	}
	for i, name := range names {
		panel, err := samplePanel(groups[name], name)
		if err != nil {
			return fmt.Errorf("facet panel %q: %w", name, err)
		}
		panels[i/cols][i%cols] = panel
	}

	img := vgimg.New(vg.Length(cols)*panelWidth, vg.Length(rows)*panelHeight+titleStrip)
	dc := draw.New(img)
	drawFigureTitle(dc, title)
	body := draw.Crop(dc, 0, 0, 0, -titleStrip)

	tiles := draw.Tiles{
		Rows: rows,
		Cols: cols,
		PadX: 2 * vg.Millimeter,
		PadY: 2 * vg.Millimeter,
	}
	canvases := plot.Align(panels, tiles, body)
	for r := range panels {
		for c := range panels[r] {
			if panels[r][c] != nil {
				panels[r][c].Draw(canvases[r][c])
			}
		}
	}
	return p.writePNG(img, title)
}

// BoxPlot draws one box per measurement on a shared axis.
func (p *Plots) BoxPlot(table suite.Table, title string) error {
	names, groups := groupMeasurements(table)
	if len(names) == 0 {
		return fmt.Errorf("box plot %q: no samples", fileStem(title))
	}

	pl := plot.New()
	pl.Title.Text = title
	pl.Y.Label.Text = "Z (mm)"
	for i, name := range names {
		values := make(plotter.Values, len(groups[name]))
		for j, s := range groups[name] {
			values[j] = s.Z
		}
		box, err := plotter.NewBoxPlot(vg.Points(20), float64(i), values)
		if err != nil {
			return fmt.Errorf("box %q: %w", name, err)
		}
		pl.Add(box)
	}
	pl.NominalX(names...)

	// The facet plot of the same scenario shares the title; keep the two
	// files apart.
	path := filepath.Join(p.Dir, p.RunID+"_"+fileStem(title)+"_box.png")
	if err := pl.Save(vg.Length(len(names))*vg.Inch+3*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save box plot: %w", err)
	}
	fmt.Printf("Plot saved to %s\n", path)
	return nil
}

// DriftPlot draws the whole table as one sequence, trend line included, to
// expose slow thermal movement.
func (p *Plots) DriftPlot(table suite.Table, title string) error {
	if len(table) == 0 {
		return fmt.Errorf("drift plot %q: no samples", fileStem(title))
	}
	values := make([]float64, len(table))
	pts := make(plotter.XYs, len(table))
	for i, s := range table {
		values[i] = s.Z
		pts[i] = plotter.XY{X: float64(i), Y: s.Z}
	}

	pl := plot.New()
	caption := strings.TrimSpace(stats.Flag(values).Annotation(""))
	pl.Title.Text = title + "\n" + caption
	pl.Title.TextStyle.Font.Size = vg.Points(9)
	pl.X.Label.Text = "sample"
	pl.Y.Label.Text = "Z (mm)"
	if err := addSeries(pl, pts); err != nil {
		return err
	}

	path := p.path(title)
	if err := pl.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save drift plot: %w", err)
	}
	fmt.Printf("Plot saved to %s\n", path)
	return nil
}

// samplePanel builds a single measurement panel: scatter over sample index,
// cubic trend, anomaly caption as the panel title and the y axis clamped to
// at least the median band.
func samplePanel(samples []suite.Sample, name string) (*plot.Plot, error) {
	values := make([]float64, len(samples))
	pts := make(plotter.XYs, len(samples))
	for i, s := range samples {
		values[i] = s.Z
		pts[i] = plotter.XY{X: float64(s.Index), Y: s.Z}
	}
	a := stats.Flag(values)

	pl := plot.New()
	pl.Title.Text = a.Annotation(name)
	pl.Title.TextStyle.Font.Size = vg.Points(7)
	pl.X.Label.Text = "sample"
	pl.Y.Label.Text = "Z (mm)"
	if err := addSeries(pl, pts); err != nil {
		return nil, err
	}

	pl.Y.Min = a.Median - yBand
	pl.Y.Max = a.Median + yBand
	if a.Min < pl.Y.Min {
		pl.Y.Min = a.Min - yBand/10
	}
	if a.Max > pl.Y.Max {
		pl.Y.Max = a.Max + yBand/10
	}
	return pl, nil
}

// addSeries adds the scatter points plus a cubic trend when there is enough
// data to fit one.
func addSeries(pl *plot.Plot, pts plotter.XYs) error {
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("scatter: %w", err)
	}
	sc.GlyphStyle.Radius = vg.Points(2)
	sc.GlyphStyle.Color = sampleColor
	pl.Add(sc)

	if trend := trendLine(pts); trend != nil {
		line, err := plotter.NewLine(trend)
		if err != nil {
			return fmt.Errorf("trend line: %w", err)
		}
		line.LineStyle.Color = trendColor
		line.LineStyle.Width = vg.Points(1)
		pl.Add(line)
	}
	return nil
}

// trendLine fits a cubic (or lower, when samples are scarce) least-squares
// polynomial and samples it densely over the x span. Returns nil when a fit
// is not meaningful.
func trendLine(pts plotter.XYs) plotter.XYs {
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = p.X, p.Y
	}
	coeffs := polyFit(xs, ys, 3)
	if coeffs == nil {
		return nil
	}

	xMin, xMax := xs[0], xs[0]
	for _, x := range xs {
		if x < xMin {
			xMin = x
		}
		if x > xMax {
			xMax = x
		}
	}
	const steps = 50
	line := make(plotter.XYs, steps+1)
	for i := 0; i <= steps; i++ {
		x := xMin + (xMax-xMin)*float64(i)/steps
		line[i] = plotter.XY{X: x, Y: polyEval(coeffs, x)}
	}
	return line
}

// polyFit solves the Vandermonde least-squares system for the requested
// degree, lowering the degree when there are too few points.
func polyFit(xs, ys []float64, degree int) []float64 {
	if len(xs) <= degree {
		degree = len(xs) - 1
	}
	if degree < 1 {
		return nil
	}
	a := mat.NewDense(len(xs), degree+1, nil)
	for i, x := range xs {
		v := 1.0
		for j := 0; j <= degree; j++ {
			a.Set(i, j, v)
			v *= x
		}
	}
	b := mat.NewVecDense(len(ys), ys)
	var beta mat.VecDense
	if err := beta.SolveVec(a, b); err != nil {
		return nil
	}
	coeffs := make([]float64, degree+1)
	for j := range coeffs {
		coeffs[j] = beta.AtVec(j)
	}
	return coeffs
}

func polyEval(coeffs []float64, x float64) float64 {
	y := 0.0
	for j := len(coeffs) - 1; j >= 0; j-- {
		y = y*x + coeffs[j]
	}
	return y
}

// groupMeasurements splits the table per measurement label, preserving
// first-appearance order.
func groupMeasurements(table suite.Table) ([]string, map[string][]suite.Sample) {
	groups := make(map[string][]suite.Sample)
	var names []string
	for _, s := range table {
		if _, ok := groups[s.Measurement]; !ok {
			names = append(names, s.Measurement)
		}
		groups[s.Measurement] = append(groups[s.Measurement], s)
	}
	return names, groups
}

// drawFigureTitle paints the overall title centered in the top strip,
// borrowing a fully initialized text style from a fresh plot.
func drawFigureTitle(dc draw.Canvas, title string) {
	style := plot.New().Title.TextStyle
	style.Font.Size = vg.Points(13)
	style.XAlign = draw.XCenter
	style.YAlign = draw.YTop
	dc.FillText(style, vg.Point{X: (dc.Min.X + dc.Max.X) / 2, Y: dc.Max.Y - 2*vg.Millimeter}, title)
}

func (p *Plots) writePNG(img *vgimg.Canvas, title string) error {
	path := p.path(title)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create plot file: %w", err)
	}
	defer f.Close()
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return fmt.Errorf("write plot file: %w", err)
	}
	fmt.Printf("Plot saved to %s\n", path)
	return nil
}
