package suite

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"probe-accuracy/internal/moonraker"
)

// The probe response grammar is free text; lines are classified by prefix
// and numbers extracted in appearance order:
//
//	// probe at 150.000,150.000 is z=2.027500
//
// Beacon-family firmwares report a fourth numeric field between Y and Z.
const (
	errorPrefix      = "!!"
	sampleLinePrefix = "// probe at"
)

var numberPattern = regexp.MustCompile(`[\d.]+`)

// klickyMacroIssue is a known defect in older klicky-macros.cfg overrides of
// PROBE_ACCURACY; it has a documented fix.
const klickyMacroIssue = "!! Error evaluating 'gcode_macro PROBE_ACCURACY:gcode': " +
	"CommandError: Must perform PROBE_ACCURACY with the probe above the BED!"

const klickyMacroFix = "This issue can be fixed by updating klicky-macros.cfg\n" +
	"Reference: https://github.com/jlas1/Klicky-Probe/commit/31a481c843567233c807bb310b6f0e83d60b4fca"

// classify splits log entries newer than the watermark into error messages
// and sample lines. Anything else is loop chatter and ignored.
func classify(entries []moonraker.GCodeEntry, watermark float64) (sampleLines, errorLines []string) {
	for _, entry := range entries {
		if entry.Time <= watermark {
			continue
		}
		switch {
		case strings.HasPrefix(entry.Message, errorPrefix):
			errorLines = append(errorLines, entry.Message)
		case strings.HasPrefix(entry.Message, sampleLinePrefix):
			sampleLines = append(sampleLines, entry.Message)
		}
	}
	return sampleLines, errorLines
}

// remediationHint returns advice for recognized error messages, or "".
func remediationHint(msg string) string {
	if msg == klickyMacroIssue {
		return klickyMacroFix
	}
	return ""
}

// parseSampleLine extracts the coordinate triple from one sample line.
// fieldCount is 3 or 4; 4-field variants carry Z in the fourth position.
func parseSampleLine(msg string, fieldCount int) (x, y, z float64, err error) {
	numbers := numberPattern.FindAllString(msg, -1)
	if len(numbers) < fieldCount {
		return 0, 0, 0, fmt.Errorf("expected %d numeric fields, found %d in %q",
			fieldCount, len(numbers), msg)
	}
	fields := make([]float64, fieldCount)
	for i := 0; i < fieldCount; i++ {
		fields[i], err = strconv.ParseFloat(numbers[i], 64)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("field %d of %q: %w", i, msg, err)
		}
	}
	x, y = fields[0], fields[1]
	z = fields[fieldCount-1]
	return x, y, z, nil
}
