package printer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// XY is a toolhead position on the bed plane.
type XY struct {
	X, Y float64
}

func (p XY) String() string {
	return fmt.Sprintf("(%.0f, %.0f)", p.X, p.Y)
}

// resolveGeometry computes the bed center from the toolhead axis limits and
// the four probe-relevant corners from the mesh bounds minus probe offset.
func (p *Printer) resolveGeometry(ctx context.Context) error {
	axisMin, err := p.axisLimit(ctx, "axis_minimum")
	if err != nil {
		return err
	}
	axisMax, err := p.axisLimit(ctx, "axis_maximum")
	if err != nil {
		return err
	}
	p.axisMin, p.axisMax = axisMin, axisMax
	p.Center = XY{
		X: (axisMin.X + axisMax.X) / 2,
		Y: (axisMin.Y + axisMax.Y) / 2,
	}

	corners, err := p.bedCorners()
	if err != nil {
		return err
	}
	p.Corners = corners
	return nil
}

func (p *Printer) axisLimit(ctx context.Context, key string) (XY, error) {
	raw, err := p.ctrl.Query(ctx, "toolhead", key)
	if err != nil {
		return XY{}, err
	}
	coords, ok := raw.([]any)
	if !ok || len(coords) < 2 {
		return XY{}, fmt.Errorf("toolhead.%s: unexpected shape %v", key, raw)
	}
	x, okX := asFloat(coords[0])
	y, okY := asFloat(coords[1])
	if !okX || !okY {
		return XY{}, fmt.Errorf("toolhead.%s: non-numeric coordinates %v", key, raw)
	}
	return XY{X: x, Y: y}, nil
}

// bedCorners derives the four mesh corners shifted by the probe XY offset.
// The ordering is fixed front-to-back for comparability across runs:
// (xmin,ymax), (xmax,ymax), (xmin,ymin), (xmax,ymin).
func (p *Printer) bedCorners() ([4]XY, error) {
	xOffset, yOffset := p.probeOffsets()

	min, err := p.meshBound("mesh_min")
	if err != nil {
		return [4]XY{}, err
	}
	max, err := p.meshBound("mesh_max")
	if err != nil {
		return [4]XY{}, err
	}

	xmin, ymin := min.X-xOffset, min.Y-yOffset
	xmax, ymax := max.X-xOffset, max.Y-yOffset
	return [4]XY{
		{xmin, ymax},
		{xmax, ymax},
		{xmin, ymin},
		{xmax, ymin},
	}, nil
}

// probeOffsets reads x_offset/y_offset from whichever probe section is
// configured, trying the generic section before the eddy-current family.
func (p *Printer) probeOffsets() (float64, float64) {
	sections := append([]string{"probe"}, beaconSections...)
	for _, name := range sections {
		if _, ok := p.configSection(name); !ok {
			continue
		}
		x, _ := p.configFloat(name, "x_offset")
		y, _ := p.configFloat(name, "y_offset")
		return x, y
	}
	return 0, 0
}

func (p *Printer) meshBound(key string) (XY, error) {
	raw, ok := p.configString("bed_mesh", key)
	if !ok {
		return XY{}, fmt.Errorf("bed_mesh.%s is not configured", key)
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return XY{}, fmt.Errorf("bed_mesh.%s: expected \"x,y\", got %q", key, raw)
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errX != nil || errY != nil {
		return XY{}, fmt.Errorf("bed_mesh.%s: non-numeric bound %q", key, raw)
	}
	return XY{X: x, Y: y}, nil
}

// RandomInterior picks a uniformly random point at least margin away from
// every axis limit.
func (p *Printer) RandomInterior(margin float64) XY {
	return XY{
		X: p.rng.Float64()*(p.axisMax.X-p.axisMin.X-2*margin) + p.axisMin.X + margin,
		Y: p.rng.Float64()*(p.axisMax.Y-p.axisMin.Y-2*margin) + p.axisMin.Y + margin,
	}
}
