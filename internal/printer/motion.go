package printer

import (
	"context"
	"fmt"

	"probe-accuracy/internal/console"
	"probe-accuracy/internal/moonraker"
)

// travelFeedrate lets the firmware's own velocity limits govern the move.
const travelFeedrate = 99999

// defaultMargin keeps random interior points clear of docks and clips at the
// bed edges.
const defaultMargin = 50

// GCode forwards a script to the controller.
func (p *Printer) GCode(ctx context.Context, script string) error {
	return p.ctrl.RunGCode(ctx, script)
}

// TailLog returns the newest count entries of the gcode response store.
func (p *Printer) TailLog(ctx context.Context, count int) ([]moonraker.GCodeEntry, error) {
	return p.ctrl.GCodeStore(ctx, count)
}

// DisplayStatus puts a short message on the printer display.
func (p *Printer) DisplayStatus(ctx context.Context, msg string) {
	_ = p.ctrl.RunGCode(ctx, "M117 "+msg)
}

// Respond echoes a message to the console and into the gcode response log.
func (p *Printer) Respond(ctx context.Context, msg string) {
	fmt.Println(msg)
	_ = p.ctrl.RunGCode(ctx, "M118 "+msg)
}

// ConditionalHome homes only when the toolhead is not already homed on all
// axes.
func (p *Printer) ConditionalHome(ctx context.Context) error {
	homed, _ := p.lookup(ctx, "toolhead", "homed_axes").(string)
	if homed == "xyz" {
		return nil
	}
	fmt.Println("Homing")
	return p.ctrl.RunGCode(ctx, "G28")
}

func (p *Printer) moveAbs(ctx context.Context, cmd string) error {
	if err := p.ctrl.RunGCode(ctx, "G90"); err != nil {
		return err
	}
	return p.ctrl.RunGCode(ctx, cmd)
}

// MoveZ travels to an absolute Z height.
func (p *Printer) MoveZ(ctx context.Context, z float64) error {
	return p.moveAbs(ctx, fmt.Sprintf("G0 Z%g F%d", z, travelFeedrate))
}

// MoveXY travels laterally to (x, y). Lateral motion must never happen below
// the safe height, so the toolhead hops to SafeZ first.
func (p *Printer) MoveXY(ctx context.Context, x, y float64) error {
	if err := p.MoveZ(ctx, p.SafeZ); err != nil {
		return err
	}
	return p.moveAbs(ctx, fmt.Sprintf("G0 X%g Y%g F%d", x, y, travelFeedrate))
}

// MoveCenter parks the toolhead over the bed center.
func (p *Printer) MoveCenter(ctx context.Context) error {
	return p.MoveXY(ctx, p.Center.X, p.Center.Y)
}

// MoveRandom travels to a random interior point.
func (p *Printer) MoveRandom(ctx context.Context) error {
	loc := p.RandomInterior(defaultMargin)
	return p.MoveXY(ctx, loc.X, loc.Y)
}

// MoveCorner travels to mesh corner i (0..3).
func (p *Printer) MoveCorner(ctx context.Context, i int) error {
	if i < 0 || i >= len(p.Corners) {
		return fmt.Errorf("corner index %d out of range", i)
	}
	return p.MoveXY(ctx, p.Corners[i].X, p.Corners[i].Y)
}

// Lock attaches and holds a dockable probe. Dockless variants make this a
// no-op.
func (p *Printer) Lock(ctx context.Context) error {
	switch p.Variant {
	case VariantKlicky:
		return p.ctrl.RunGCode(ctx, "ATTACH_PROBE_LOCK")
	case VariantKlippain:
		return p.ctrl.RunGCode(ctx, "ACTIVATE_PROBE LOCK=true")
	default:
		return nil
	}
}

// Unlock docks the probe. release additionally clears the lock for variants
// that distinguish the two.
func (p *Printer) Unlock(ctx context.Context, release bool) error {
	switch p.Variant {
	case VariantKlicky:
		return p.ctrl.RunGCode(ctx, "DOCK_PROBE_UNLOCK")
	case VariantKlippain:
		if release {
			return p.ctrl.RunGCode(ctx, "DEACTIVATE_PROBE UNLOCK=true")
		}
		return p.ctrl.RunGCode(ctx, "DEACTIVATE_PROBE")
	default:
		return nil
	}
}

// LevelBed runs whichever of the two leveling subsystems is configured,
// skipping the command when the printer reports it already applied and force
// is unset. A printer with neither subsystem gets a notice, not an error.
func (p *Printer) LevelBed(ctx context.Context, force bool) error {
	var levelCmd, statusObject string
	if _, ok := p.configSection("z_tilt"); ok {
		levelCmd, statusObject = "z_tilt_adjust", "z_tilt"
	} else if _, ok := p.configSection("quad_gantry_level"); ok {
		levelCmd, statusObject = "quad_gantry_level", "quad_gantry_level"
	} else {
		fmt.Println("No leveling gcode configured; check printer.cfg [z_tilt] or [quad_gantry_level]")
		fmt.Println("Leveling... Skipped")
		return nil
	}

	fmt.Println("Leveling...")
	applied, _ := p.lookup(ctx, statusObject, "applied").(bool)
	if applied && !force {
		return nil
	}
	if err := p.ctrl.RunGCode(ctx, levelCmd); err != nil {
		return err
	}
	fmt.Printf("%sLeveling... Done\n", console.ClearLine)
	return nil
}
