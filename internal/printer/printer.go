package printer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"probe-accuracy/internal/console"
	"probe-accuracy/internal/moonraker"
)

// ErrNoProbe means no supported probe hardware was detected. Nothing has
// been locked or moved when this is returned, so no cleanup is owed.
var ErrNoProbe = errors.New("no supported probe detected")

// Controller is the remote motion/probe controller surface this tool drives.
// *moonraker.Client satisfies it; tests substitute a scripted fake.
type Controller interface {
	QueryObject(ctx context.Context, object string) (map[string]any, error)
	Query(ctx context.Context, object, key string) (any, error)
	RunGCode(ctx context.Context, script string) error
	GCodeStore(ctx context.Context, count int) ([]moonraker.GCodeEntry, error)
}

// Printer is the immutable context threaded through motion, acquisition and
// scenario code. Everything expensive or interactive (config snapshot,
// variant detection, safe-height discovery, bed geometry) is resolved once
// here and never mutated afterwards.
type Printer struct {
	ctrl Controller
	ops  console.Interaction

	config   map[string]map[string]any
	settings map[string]map[string]any

	Variant       Variant
	VariantDetail string
	SafeZ         float64

	Center  XY
	Corners [4]XY

	axisMin, axisMax XY
	beaconSection    string

	rng *rand.Rand
}

// New snapshots the controller configuration, classifies the probe hardware
// and eagerly resolves the safe height and bed geometry. A printer without
// any recognizable probe yields ErrNoProbe before anything has moved.
func New(ctx context.Context, ctrl Controller, ops console.Interaction) (*Printer, error) {
	p := &Printer{
		ctrl: ctrl,
		ops:  ops,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	var err error
	p.config, err = p.querySections(ctx, "config")
	if err != nil {
		return nil, fmt.Errorf("fetch printer config: %w", err)
	}
	p.settings, err = p.querySections(ctx, "settings")
	if err != nil {
		return nil, fmt.Errorf("fetch printer settings: %w", err)
	}

	for _, d := range detections() {
		if detail, ok := d.match(ctx, p); ok {
			p.Variant = d.variant
			p.VariantDetail = detail
			break
		}
	}
	if p.Variant == VariantNone {
		return nil, ErrNoProbe
	}

	if err := p.resolveSafeZ(ctx); err != nil {
		return nil, err
	}
	if err := p.resolveGeometry(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Printer) querySections(ctx context.Context, key string) (map[string]map[string]any, error) {
	raw, err := p.ctrl.Query(ctx, "configfile", key)
	if err != nil {
		return nil, err
	}
	tree, _ := raw.(map[string]any)
	sections := make(map[string]map[string]any, len(tree))
	for name, value := range tree {
		if section, ok := value.(map[string]any); ok {
			sections[name] = section
		}
	}
	return sections, nil
}

// lookup is the best-effort query used by detection heuristics: any failure,
// transport included, reads as "not present".
func (p *Printer) lookup(ctx context.Context, object, key string) any {
	value, err := p.ctrl.Query(ctx, object, key)
	if err != nil {
		return nil
	}
	return value
}

func (p *Printer) configSection(name string) (map[string]any, bool) {
	section, ok := p.config[name]
	return section, ok
}

func (p *Printer) configString(section, key string) (string, bool) {
	sec, ok := p.config[section]
	if !ok {
		return "", false
	}
	value, ok := sec[key]
	if !ok {
		return "", false
	}
	s, ok := value.(string)
	return s, ok
}

func (p *Printer) configFloat(section, key string) (float64, bool) {
	sec, ok := p.config[section]
	if !ok {
		return 0, false
	}
	return asFloat(sec[key])
}

// resolveSafeZ discovers the variant-specific clearance height, falling back
// to an interactive prompt when the printer does not advertise one.
func (p *Printer) resolveSafeZ(ctx context.Context) error {
	var safeZ float64
	var found bool

	switch p.Variant {
	case VariantKlicky:
		safeZ, found = asFloat(p.lookup(ctx, "gcode_macro _User_Variables", "safe_z"))
	case VariantKlippain:
		safeZ, found = asFloat(p.lookup(ctx, "gcode_macro _USER_VARIABLES", "probe_min_z_travel"))
	case VariantTap:
		if sec, ok := p.settings["safe_z_home"]; ok {
			safeZ, found = asFloat(sec["z_hop"])
		}
	case VariantBeacon:
		safeZ, found = 2, true
	}

	if !found || safeZ == 0 {
		fmt.Println("Safe z has not been set in klicky-variables or in [safe_z_home]")
		answer, err := p.ops.AskFloat("Enter safe z height to avoid crash: ")
		if err != nil {
			return fmt.Errorf("safe z prompt: %w", err)
		}
		safeZ = answer
	}
	p.SafeZ = safeZ
	return nil
}

// DropFirstResult reports whether the probe configuration discards the first
// sample of every acquisition. Read from the typed settings tree, not the
// raw string config.
func (p *Printer) DropFirstResult() bool {
	sec, ok := p.settings["probe"]
	if !ok {
		return false
	}
	switch value := sec["drop_first_result"].(type) {
	case bool:
		return value
	case string:
		b, err := strconv.ParseBool(value)
		return err == nil && b
	default:
		return false
	}
}

// SamplesResult is the configured multi-sample aggregation method: "median"
// when explicitly set, otherwise "mean".
func (p *Printer) SamplesResult() string {
	if sec, ok := p.settings["probe"]; ok {
		if method, ok := sec["samples_result"].(string); ok && method == "median" {
			return "median"
		}
	}
	return "mean"
}

func asFloat(v any) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case int:
		return float64(value), true
	case string:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
