package suite

import (
	"strings"
	"testing"

	"probe-accuracy/internal/moonraker"
)

func TestClassifyRespectsWatermark(t *testing.T) {
	entries := []moonraker.GCodeEntry{
		{Time: 5, Message: "// probe at 10.000,10.000 is z=2.000"},
		{Time: 10, Message: "!! stale error"},
		{Time: 11, Message: "// probe at 10.000,10.000 is z=2.001"},
		{Time: 12, Message: "B_PROBE_LOOP"},
		{Time: 13, Message: "!! Probe triggered prior to movement"},
	}
	samples, errs := classify(entries, 10)
	if len(samples) != 1 || samples[0] != "// probe at 10.000,10.000 is z=2.001" {
		t.Fatalf("unexpected sample lines %v", samples)
	}
	if len(errs) != 1 || errs[0] != "!! Probe triggered prior to movement" {
		t.Fatalf("unexpected error lines %v", errs)
	}
}

func TestParseSampleLineThreeFields(t *testing.T) {
	x, y, z, err := parseSampleLine("// probe at 232.000,356.000 is z=2.027500", 3)
	if err != nil {
		t.Fatalf("parseSampleLine error: %v", err)
	}
	if x != 232 || y != 356 || z != 2.0275 {
		t.Fatalf("got %g,%g,%g", x, y, z)
	}
}

func TestParseSampleLineFourFields(t *testing.T) {
	// Beacon responses carry an extra field; Z is the last number.
	x, y, z, err := parseSampleLine("// probe at 150.000,150.000 is z=4.241079 (pos=2.027500)", 4)
	if err != nil {
		t.Fatalf("parseSampleLine error: %v", err)
	}
	if x != 150 || y != 150 || z != 2.0275 {
		t.Fatalf("got %g,%g,%g", x, y, z)
	}
}

func TestParseSampleLineTooFewFields(t *testing.T) {
	if _, _, _, err := parseSampleLine("// probe at 150.000,150.000 is z=2.0", 4); err == nil {
		t.Fatalf("expected error for a 3-field line parsed as 4 fields")
	}
}

func TestRemediationHintKlickyMacro(t *testing.T) {
	hint := remediationHint(klickyMacroIssue)
	if !strings.Contains(hint, "klicky-macros.cfg") ||
		!strings.Contains(hint, "github.com/jlas1/Klicky-Probe") {
		t.Fatalf("unexpected hint %q", hint)
	}
	if remediationHint("!! some other error") != "" {
		t.Fatalf("unrecognized errors must have no hint")
	}
}
