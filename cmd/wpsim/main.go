package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/san-kum/wpsim/internal/automation"
	"github.com/san-kum/wpsim/internal/config"
	"github.com/san-kum/wpsim/internal/metrics"
	"github.com/san-kum/wpsim/internal/optim"
	"github.com/san-kum/wpsim/internal/storage"
	"github.com/san-kum/wpsim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir     string
	configFile  string
	preset      string
	logLevel    string
	logJSON     bool
	metricsAddr string
	workers     int

	// lattice
	latP float64
	latQ float64
	latN int

	// launch
	z0Re     float64
	z0Im     float64
	v0Re     float64
	v0Im     float64
	dt       float64
	duration float64
	blow     float64
	poleEps  float64
	maxSteps int
	adaptive bool
	stepper  string
	wrapAt   float64

	// field
	nx       int
	ny       int
	which    string
	fieldEps float64

	// sweep
	fanCount   int
	fanSpeed   float64
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int

	showJSON    bool
	svgOut      string
	pngOut      string
	fieldRun    string
	overlayRuns []string
	pngWidth    float64
	pngHeight   float64
	lyapDelta   float64

	// optimize
	searchAxes   []string
	searchMetric string
	maximize     bool

	metricsServer *metrics.Server
)

// main registers the wpsim commands, opens the interactive preset picker
// when no subcommand is given and exits with status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:               "wpsim",
		Short:             "weierstrass p lattice dynamics lab",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".wpsim", "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "use preset configuration")
	pf.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.BoolVar(&logJSON, "log-json", false, "log as json")
	pf.StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while running")
	pf.IntVar(&workers, "workers", 0, "worker limit for sweeps and field rows (0 = one per cpu)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "integrate one trajectory",
		Args:  cobra.NoArgs,
		RunE:  runTrajectory,
	}
	addLatticeFlags(runCmd)
	addLaunchFlags(runCmd)

	fieldCmd := &cobra.Command{
		Use:   "field",
		Short: "sample the field over the fundamental cell",
		Args:  cobra.NoArgs,
		RunE:  runField,
	}
	addLatticeFlags(fieldCmd)
	addFieldFlags(fieldCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "launch a fan of particles or sweep one setting",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addLatticeFlags(sweepCmd)
	addLaunchFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&fanCount, "count", 16, "particles in the fan")
	sweepCmd.Flags().Float64Var(&fanSpeed, "speed", 1, "launch speed of the fan")
	sweepCmd.Flags().StringVar(&sweepParam, "param", "", "sweep this setting instead of launching a fan ("+strings.Join(config.TunableNames, ", ")+")")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first swept value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1, "last swept value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of swept values")

	optimizeCmd := &cobra.Command{
		Use:   "optimize",
		Short: "grid search settings for the best metric score",
		Args:  cobra.NoArgs,
		RunE:  runOptimize,
	}
	addLatticeFlags(optimizeCmd)
	addLaunchFlags(optimizeCmd)
	optimizeCmd.Flags().StringArrayVar(&searchAxes, "axis", nil, "swept setting as name=lo:hi:n (repeatable)")
	optimizeCmd.Flags().StringVar(&searchMetric, "metric", "min_pole_distance", "metric to score ("+strings.Join(optim.MetricNames(), ", ")+")")
	optimizeCmd.Flags().BoolVar(&maximize, "maximize", false, "prefer the highest score")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a yaml scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print the run as json")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "spectrum and lyapunov exponent of a stored trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().Float64Var(&lyapDelta, "delta", 1e-8, "initial offset for the lyapunov estimate (0 skips it)")

	svgCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export a wrapped trajectory as svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	svgCmd.Flags().StringVarP(&svgOut, "output", "o", "", "output file (default stdout)")

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "render the field as a png heat map",
		Args:  cobra.NoArgs,
		RunE:  renderField,
	}
	addLatticeFlags(renderCmd)
	addFieldFlags(renderCmd)
	renderCmd.Flags().StringVarP(&pngOut, "output", "o", "field.png", "output file")
	renderCmd.Flags().StringVar(&fieldRun, "field-run", "", "render a stored field run instead of sampling")
	renderCmd.Flags().StringSliceVar(&overlayRuns, "run", nil, "trajectory runs to draw on top")
	renderCmd.Flags().Float64Var(&pngWidth, "width", 11, "image width in inches")
	renderCmd.Flags().Float64Var(&pngHeight, "height", 5, "image height in inches")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "step a trajectory in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addLatticeFlags(liveCmd)
	addLaunchFlags(liveCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, fieldCmd, sweepCmd, optimizeCmd, scenarioCmd, listCmd, showCmd, analyzeCmd, svgCmd, renderCmd, liveCmd, presetsCmd)

	err := rootCmd.Execute()
	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if serr := metricsServer.Shutdown(ctx); serr != nil {
			slog.Warn("metrics server shutdown", "err", serr)
		}
		cancel()
	}
	if err != nil {
		os.Exit(1)
	}
}

func addLatticeFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	cmd.Flags().Float64Var(&latP, "p", d.Lattice.P, "real period")
	cmd.Flags().Float64Var(&latQ, "q", d.Lattice.Q, "imaginary period")
	cmd.Flags().IntVar(&latN, "n", d.Lattice.N, "lattice truncation")
}

func addLaunchFlags(cmd *cobra.Command) {
	d := config.DefaultConfig().Integrate
	cmd.Flags().Float64Var(&z0Re, "z0-re", d.Z0.Re, "initial position, real part")
	cmd.Flags().Float64Var(&z0Im, "z0-im", d.Z0.Im, "initial position, imaginary part")
	cmd.Flags().Float64Var(&v0Re, "v0-re", d.V0.Re, "initial velocity, real part")
	cmd.Flags().Float64Var(&v0Im, "v0-im", d.V0.Im, "initial velocity, imaginary part")
	cmd.Flags().Float64Var(&dt, "dt", d.Dt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", d.Duration, "duration")
	cmd.Flags().Float64Var(&blow, "blow", d.BlowThresh, "blow-up threshold on |z''|")
	cmd.Flags().Float64Var(&poleEps, "pole-eps", d.PoleEps, "pole halt radius")
	cmd.Flags().IntVar(&maxSteps, "max-steps", d.MaxSteps, "step budget (0 = unlimited)")
	cmd.Flags().BoolVar(&adaptive, "adaptive", d.Adaptive, "adaptive step size")
	cmd.Flags().StringVar(&stepper, "integrator", d.Integrator, "fixed-step integrator")
	cmd.Flags().Float64Var(&wrapAt, "wrap", config.DefaultConfig().WrapThreshold, "break threshold for wrapped rendering")
}

func addFieldFlags(cmd *cobra.Command) {
	d := config.DefaultConfig().Field
	cmd.Flags().IntVar(&nx, "nx", d.Nx, "grid columns")
	cmd.Flags().IntVar(&ny, "ny", d.Ny, "grid rows")
	cmd.Flags().StringVar(&which, "which", d.Which, "function to sample (wp, wp_deriv)")
	cmd.Flags().Float64Var(&fieldEps, "field-eps", d.PoleEps, "mask radius around poles")
}

// setup configures logging and starts the metrics endpoint.
func setup(cmd *cobra.Command, args []string) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if logJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))

	if metricsAddr != "" {
		srv, err := metrics.Serve(metricsAddr)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		metricsServer = srv
		slog.Info("serving metrics", "addr", srv.Addr())
	}
	return nil
}

// loadConfig builds the effective config: defaults, then the preset, then
// the config file (which overrides the preset), then any flag the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		if cfg = config.GetPreset(preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset %q (available: %s)", preset, strings.Join(config.ListPresets(), ", "))
		}
		slog.Debug("using preset", "name", preset)
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	changed := func(name string) bool {
		return flags.Lookup(name) != nil && flags.Changed(name)
	}
	if changed("p") {
		cfg.Lattice.P = latP
	}
	if changed("q") {
		cfg.Lattice.Q = latQ
	}
	if changed("n") {
		cfg.Lattice.N = latN
	}
	if changed("z0-re") {
		cfg.Integrate.Z0.Re = z0Re
	}
	if changed("z0-im") {
		cfg.Integrate.Z0.Im = z0Im
	}
	if changed("v0-re") {
		cfg.Integrate.V0.Re = v0Re
	}
	if changed("v0-im") {
		cfg.Integrate.V0.Im = v0Im
	}
	if changed("dt") {
		cfg.Integrate.Dt = dt
	}
	if changed("time") {
		cfg.Integrate.Duration = duration
	}
	if changed("blow") {
		cfg.Integrate.BlowThresh = blow
	}
	if changed("pole-eps") {
		cfg.Integrate.PoleEps = poleEps
	}
	if changed("max-steps") {
		cfg.Integrate.MaxSteps = maxSteps
	}
	if changed("adaptive") {
		cfg.Integrate.Adaptive = adaptive
	}
	if changed("integrator") {
		cfg.Integrate.Integrator = stepper
	}
	if changed("wrap") {
		cfg.WrapThreshold = wrapAt
	}
	if changed("nx") {
		cfg.Field.Nx = nx
	}
	if changed("ny") {
		cfg.Field.Ny = ny
	}
	if changed("which") {
		cfg.Field.Which = which
	}
	if changed("field-eps") {
		cfg.Field.PoleEps = fieldEps
	}
	if changed("workers") {
		cfg.Workers = workers
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openStore() (*storage.Store, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

func newRunner(cfg *config.Config, st *storage.Store) *automation.Runner {
	return &automation.Runner{Store: st, Workers: cfg.Workers, Log: slog.Default()}
}
