package printer

import (
	"context"
	"regexp"
)

// Variant identifies the installed probe hardware convention. Each variant
// has its own safe-height source, dock commands and response format.
type Variant int

const (
	VariantNone Variant = iota
	VariantKlicky
	VariantKlippain
	VariantBeacon
	VariantTap
)

func (v Variant) String() string {
	switch v {
	case VariantKlicky:
		return "Klicky"
	case VariantKlippain:
		return "Klippain"
	case VariantBeacon:
		return "Beacon"
	case VariantTap:
		return "Tap"
	default:
		return "none"
	}
}

// Lockable reports whether the variant has a physical dock that must be
// attached and released around a test.
func (v Variant) Lockable() bool {
	return v == VariantKlicky || v == VariantKlippain
}

// SampleFields is the number of numeric fields a probe response line carries.
// Beacon-family probes report an extra field between Y and Z.
func (v Variant) SampleFields() int {
	if v == VariantBeacon {
		return 4
	}
	return 3
}

var virtualEndstopPattern = regexp.MustCompile(`probe:\s*z_virtual_endstop`)

// beaconSections are the alternately named config sections of the
// eddy-current probe family, checked in this order.
var beaconSections = []string{"idm", "beacon", "cartographer"}

type detection struct {
	variant Variant
	// detail names the concrete hardware when a variant covers several
	// products (IDM vs Beacon vs Cartographer).
	match func(ctx context.Context, p *Printer) (detail string, ok bool)
}

// detections is the priority-ordered capability table. Detection stops at the
// first match, so a printer satisfying several heuristics is classified by
// whichever check runs first.
func detections() []detection {
	return []detection{
		{VariantKlicky, matchKlicky},
		{VariantKlippain, matchKlippain},
		{VariantBeacon, matchBeacon},
		{VariantTap, matchTap},
	}
}

func matchKlicky(ctx context.Context, p *Printer) (string, bool) {
	if truthy(p.lookup(ctx, "gcode_macro _User_Variables", "docklocation_x")) {
		return "Klicky", true
	}
	return "", false
}

func matchKlippain(ctx context.Context, p *Printer) (string, bool) {
	probeType, _ := p.lookup(ctx, "gcode_macro _USER_VARIABLES", "probe_type_enabled").(string)
	if probeType == "dockable" {
		return "Klippain", true
	}
	return "", false
}

func matchBeacon(_ context.Context, p *Printer) (string, bool) {
	for _, section := range beaconSections {
		if backlash, ok := p.configFloat(section, "backlash_comp"); ok && backlash != 0 {
			p.beaconSection = section
			switch section {
			case "idm":
				return "IDM", true
			case "cartographer":
				return "Cartographer", true
			default:
				return "Beacon", true
			}
		}
	}
	return "", false
}

func matchTap(_ context.Context, p *Printer) (string, bool) {
	pin, ok := p.configString("stepper_z", "endstop_pin")
	if ok && virtualEndstopPattern.MatchString(pin) {
		return "Tap", true
	}
	return "", false
}

// truthy mirrors the loose presence check used on user-variable values: nil,
// empty strings, zero numbers and false all mean "not set".
func truthy(v any) bool {
	switch value := v.(type) {
	case nil:
		return false
	case bool:
		return value
	case string:
		return value != ""
	case float64:
		return value != 0
	case int:
		return value != 0
	default:
		return true
	}
}
