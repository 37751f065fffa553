// Command probe-accuracy runs a Z-probe accuracy test suite against a
// Klipper printer through its Moonraker API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"probe-accuracy/internal/config"
	"probe-accuracy/internal/console"
	"probe-accuracy/internal/history"
	"probe-accuracy/internal/moonraker"
	"probe-accuracy/internal/printer"
	"probe-accuracy/internal/report"
	"probe-accuracy/internal/stats"
	"probe-accuracy/internal/suite"
	"probe-accuracy/internal/telemetry"
)

func main() {
	configPath := flag.String("config", envOr("PROBE_ACCURACY_CONFIG", ""), "Path to yaml/json config file")
	moonrakerURL := flag.String("moonraker-url", envOr("MOONRAKER_URL", ""), "Moonraker base URL (overrides config)")
	apiKey := flag.String("api-key", envOr("MOONRAKER_API_KEY", ""), "Moonraker API key (overrides config)")
	cornerSamples := flag.Int("corner", 0, "Corner test: number of samples per corner (0=skip)")
	repeatability := flag.Int("repeatability", 0, "Repeatability test: number of rounds (0=skip)")
	driftSamples := flag.Int("drift", 0, "Drift test: number of consecutive samples (0=skip)")
	speedTest := flag.Bool("speedtest", false, "Run the interactive probe-speed sweep")
	exportCSV := flag.Bool("export-csv", false, "Export raw samples and summary as CSV")
	forceDock := flag.Bool("force-dock", false, "Dock the probe between corner measurements")
	keepFirst := flag.Bool("keep-first", false, "Keep the first sample even when the probe config drops it")
	probeSpeed := flag.Float64("speed", 0, "PROBE_SPEED override in mm/s (0=printer default)")
	retractDist := flag.Float64("retract", 0, "SAMPLE_RETRACT_DIST override in mm (0=printer default)")
	outputDir := flag.String("output-dir", "", "Directory for plots and CSV files (overrides config)")
	detectOnly := flag.Bool("detect-probe", false, "Detect the probe variant, print it and exit")
	update := flag.Bool("update", false, "Update this tool via git pull and exit")
	flag.Parse()

	if *update {
		os.Exit(selfUpdate())
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatalf("%v", err)
	}
	if *moonrakerURL != "" {
		cfg.Moonraker.URL = *moonrakerURL
	}
	if *apiKey != "" {
		cfg.Moonraker.APIKey = *apiKey
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Setup(ctx, telemetry.Config{
		OTLPEndpoint: cfg.Observer.OTLPEndpoint,
		ServiceName:  cfg.Observer.ServiceName,
		SampleRatio:  cfg.Observer.SampleRatio,
	})
	if err != nil {
		fatalf("telemetry setup: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "warning: telemetry shutdown: %v\n", err)
		}
	}()

	client := moonraker.NewClient(moonraker.Config{
		BaseURL:   cfg.Moonraker.URL,
		APIKey:    cfg.Moonraker.APIKey,
		Timeout:   time.Duration(cfg.Moonraker.TimeoutSec) * time.Second,
		Transport: otelhttp.NewTransport(nil),
	})
	ops := console.NewTerminal()

	p, err := printer.New(ctx, client, ops)
	if err != nil {
		if errors.Is(err, printer.ErrNoProbe) {
			fmt.Println("No probe or valid probe configuration found. Exiting.")
			os.Exit(1)
		}
		fatalf("connect to printer: %v", err)
	}
	fmt.Printf("Detected %s probe (%s).\n", p.Variant, p.VariantDetail)
	if *detectOnly {
		return
	}

	plan := suite.Plan{
		CornerSamples:       *cornerSamples,
		RepeatabilityRounds: *repeatability,
		DriftSamples:        *driftSamples,
		SpeedSweep:          *speedTest,
		ForceDock:           *forceDock,
		KeepFirst:           *keepFirst,
		ExportCSV:           *exportCSV,
		ProbeSpeed:          *probeSpeed,
		RetractDist:         *retractDist,
		OutputDir:           cfg.OutputDir,
	}
	if !plan.Enabled() {
		plan = plan.WithDefaults()
		fmt.Println("No test selected, running corner, repeatability and drift tests.")
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		fatalf("create output dir: %v", err)
	}
	runID := report.RunID(time.Now())

	if err := p.ConditionalHome(ctx); err != nil {
		fatalf("home printer: %v", err)
	}

	runner := &suite.Runner{
		Printer:   p,
		Ops:       ops,
		Report:    &report.Plots{Dir: cfg.OutputDir, RunID: runID},
		Telemetry: tel,
		Plan:      plan,
	}

	table, summary, runErr := runner.Run(ctx)
	parkAndDock(p)

	switch {
	case runErr == nil:
	case errors.Is(runErr, context.Canceled):
		fmt.Println("\nInterrupted, probe docked and toolhead parked.")
		return
	case errors.Is(runErr, suite.ErrNoSamples):
		fmt.Fprintf(os.Stderr, "%v\n", runErr)
		os.Exit(1)
	default:
		fatalf("%v", runErr)
	}

	if len(table) == 0 {
		fmt.Println("No samples collected.")
		return
	}

	order := stats.TestOrder(table.Observations())
	fmt.Println("\nSuite summary:")
	stats.FprintSummary(os.Stdout, summary, order)

	if plan.ExportCSV {
		if path, err := report.WriteSamplesCSV(cfg.OutputDir, runID, table); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		} else {
			fmt.Printf("Samples saved to %s\n", path)
		}
		if path, err := report.WriteSummaryCSV(cfg.OutputDir, runID, summary, order); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		} else {
			fmt.Printf("Summary saved to %s\n", path)
		}
	}

	if cfg.History.DSN != "" {
		archiveRun(cfg.History.DSN, runID, p.Variant.String(), summary, order)
	}
}

// parkAndDock returns the machine to a safe idle state. It runs on a fresh
// context so an interrupt that cancelled the suite cannot cancel the
// cleanup motion too.
func parkAndDock(p *printer.Printer) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := p.Unlock(ctx, true); err != nil {
		fmt.Fprintf(os.Stderr, "warning: dock probe: %v\n", err)
	}
	if err := p.MoveCenter(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: park toolhead: %v\n", err)
	}
}

func archiveRun(dsn, runID, probe string, summary map[string]stats.SummaryRow, order []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	archive, err := history.Open(ctx, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		return
	}
	defer archive.Close()
	if err := archive.Record(ctx, runID, probe, summary, order); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		return
	}
	fmt.Printf("Run %s archived.\n", runID)
}

// selfUpdate pulls the latest version of the checkout this binary was built
// from. Requires running from inside the git working tree.
func selfUpdate() int {
	exe, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "update: %v\n", err)
		return 1
	}
	cmd := exec.Command("git", "-C", filepath.Dir(exe), "pull")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "update: %v\n", err)
		return 1
	}
	return 0
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
