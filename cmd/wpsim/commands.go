package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/cmplx"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/san-kum/wpsim/internal/analysis"
	"github.com/san-kum/wpsim/internal/automation"
	"github.com/san-kum/wpsim/internal/config"
	"github.com/san-kum/wpsim/internal/export"
	"github.com/san-kum/wpsim/internal/field"
	"github.com/san-kum/wpsim/internal/optim"
	"github.com/san-kum/wpsim/internal/storage"
	"github.com/san-kum/wpsim/internal/torus"
	"github.com/san-kum/wpsim/internal/trajectory"
	"github.com/san-kum/wpsim/internal/viz"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"
)

var statusOrder = []trajectory.Status{
	trajectory.Completed,
	trajectory.PoleHalt,
	trajectory.BlowUp,
	trajectory.NumericFailure,
}

func runTrajectory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}

	fmt.Printf("integrating z0=%s v0=%s on p=%g q=%g N=%d...\n",
		viz.FormatComplex(cfg.Integrate.Z0.Value()), viz.FormatComplex(cfg.Integrate.V0.Value()),
		cfg.Lattice.P, cfg.Lattice.Q, cfg.Lattice.N)
	start := time.Now()
	res, err := newRunner(cfg, st).RunTrajectory(cfg, map[string]string{"kind": "run"})
	if err != nil {
		return err
	}
	tr := res.Trajectories[0]

	fmt.Printf("completed in %v\n\n", time.Since(start))
	fmt.Print(viz.TrajectorySummary(tr))
	if g := viz.Graph(magnitudes(tr.Points), "|z(t)|", 80, 10); g != "" {
		fmt.Println()
		fmt.Println(g)
	}
	fmt.Printf("\nrun id: %s\n", res.RunIDs[0])
	return nil
}

func runField(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := newRunner(cfg, st).RunField(cfg)
	if err != nil {
		return err
	}
	printField(res.Grid)
	fmt.Printf("sampled in %v\n", time.Since(start))
	fmt.Printf("run id: %s\n", res.RunIDs[0])
	return nil
}

func printField(g *field.Grid) {
	fmt.Print(viz.KeyValue("Function", g.Which.String()))
	fmt.Print(viz.KeyValue("Lattice", g.Params.String()))
	fmt.Print(viz.KeyValue("Grid", fmt.Sprintf("%dx%d", g.Nx, g.Ny)))
	fmt.Print(viz.KeyValue("Valid", fmt.Sprintf("%s %.2f%%", viz.ProgressBar(g.ValidFraction(), 20), 100*g.ValidFraction())))
	if lo, hi, ok := g.MagnitudeRange(); ok {
		fmt.Print(viz.KeyValue("|F| range", fmt.Sprintf("%.4g .. %.4g", lo, hi)))
	}
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	runner := newRunner(cfg, st)

	var res automation.Result
	if sweepParam != "" {
		fmt.Printf("sweeping %s over [%g, %g] in %d steps\n\n", sweepParam, sweepMin, sweepMax, sweepSteps)
		res, err = runner.RunSweep(cmd.Context(), cfg, automation.ParameterSweep{
			Param: sweepParam,
			Min:   sweepMin,
			Max:   sweepMax,
			Steps: sweepSteps,
		})
	} else {
		fmt.Printf("launching %d particles from %s at speed %g\n\n", fanCount, viz.FormatComplex(cfg.Integrate.Z0.Value()), fanSpeed)
		res, err = runner.RunFan(cmd.Context(), cfg, automation.FanConfig{Count: fanCount, Speed: fanSpeed})
	}
	if err != nil {
		return err
	}
	return printResult(os.Stdout, res)
}

// printResult tabulates the trajectories of one result and their status
// counts.
func printResult(out io.Writer, res automation.Result) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LABEL\tSTATUS\tPOINTS\tFINAL\tRUN")
	for i, tr := range res.Trajectories {
		id := "-"
		if i < len(res.RunIDs) {
			id = res.RunIDs[i]
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", res.Labels[i], tr.Status(), tr.Len(), viz.FormatComplex(tr.Last()), id)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	summary := res.Summary()
	fmt.Fprintln(out)
	for _, s := range statusOrder {
		if n := summary[s]; n > 0 {
			fmt.Fprintf(out, "  %s %d\n", viz.StatusBadge(s), n)
		}
	}
	return nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(searchAxes) == 0 {
		return fmt.Errorf("at least one --axis is required")
	}
	axes := make([]optim.Axis, len(searchAxes))
	for i, spec := range searchAxes {
		if axes[i], err = parseAxis(spec); err != nil {
			return err
		}
	}

	g := &optim.GridSearch{Axes: axes, Metric: searchMetric, Maximize: maximize, Workers: cfg.Workers}
	best, all, err := g.Search(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := ""
	for _, ax := range axes {
		header += strings.ToUpper(ax.Name) + "\t"
	}
	fmt.Fprintln(w, header+strings.ToUpper(searchMetric)+"\tSTATUS")
	for _, p := range all {
		for _, ax := range axes {
			fmt.Fprintf(w, "%g\t", p.Settings[ax.Name])
		}
		fmt.Fprintf(w, "%.6g\t%s\n", p.Value, p.Status)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println("\nbest:")
	for _, ax := range axes {
		fmt.Print(viz.KeyValue(ax.Name, fmt.Sprintf("%g", best.Settings[ax.Name])))
	}
	fmt.Print(viz.KeyValue(searchMetric, fmt.Sprintf("%.6g", best.Value)))
	fmt.Print(viz.KeyValue("status", viz.StatusBadge(best.Status)))
	return nil
}

// parseAxis reads name=lo:hi:n, or name=v for a single value.
func parseAxis(spec string) (optim.Axis, error) {
	name, rng, ok := strings.Cut(spec, "=")
	if !ok || name == "" {
		return optim.Axis{}, fmt.Errorf("invalid axis %q: want name=lo:hi:n", spec)
	}
	parts := strings.Split(rng, ":")
	switch len(parts) {
	case 1:
		v, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return optim.Axis{}, fmt.Errorf("invalid axis %q: %w", spec, err)
		}
		return optim.Axis{Name: name, Values: []float64{v}}, nil
	case 3:
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err := errors.Join(err1, err2, err3); err != nil {
			return optim.Axis{}, fmt.Errorf("invalid axis %q: %w", spec, err)
		}
		if n < 1 {
			return optim.Axis{}, fmt.Errorf("invalid axis %q: need at least one value", spec)
		}
		return optim.Linspace(name, lo, hi, n), nil
	}
	return optim.Axis{}, fmt.Errorf("invalid axis %q: want name=lo:hi:n", spec)
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}

	fmt.Printf("scenario: %s\n", sc.Name)
	if sc.Description != "" {
		fmt.Printf("%s\n", sc.Description)
	}
	runner := &automation.Runner{Store: st, Workers: workers, Log: slog.Default()}
	results, err := runner.RunScenario(cmd.Context(), sc)
	for _, res := range results {
		fmt.Printf("\n== %s (%s)\n", res.Step, res.Kind)
		if res.Grid != nil {
			printField(res.Grid)
			if len(res.RunIDs) > 0 {
				fmt.Printf("run id: %s\n", res.RunIDs[0])
			}
			continue
		}
		if perr := printResult(os.Stdout, res); perr != nil {
			return perr
		}
	}
	if err != nil {
		return fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tTIME\tLATTICE\tRESULT\tPOINTS\tLABEL")

	for _, run := range runs {
		result := run.Status.String()
		points := fmt.Sprintf("%d", run.Points)
		if run.Kind == storage.KindField {
			result = fmt.Sprintf("%.1f%% valid", 100*run.ValidFraction)
			points = "-"
			if run.Field != nil {
				points = fmt.Sprintf("%dx%d", run.Field.Nx, run.Field.Ny)
			}
		}
		label := run.Tags["label"]
		if label == "" {
			label = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\tp=%g q=%g N=%d\t%s\t%s\t%s\n",
			run.ID,
			run.Kind,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Lattice.P, run.Lattice.Q, run.Lattice.N,
			result,
			points,
			label,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	if meta.Kind == storage.KindField {
		if showJSON {
			return fmt.Errorf("--json is only available for trajectory runs")
		}
		g, err := st.LoadField(runID)
		if err != nil {
			return err
		}
		fmt.Printf("run: %s\n\n", meta.ID)
		printField(g)
		return nil
	}

	if showJSON {
		return st.ExportJSON(os.Stdout, runID)
	}

	rec, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	tr := rec.Trajectory

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("lattice: %s\n", rec.Params)
	fmt.Printf("samples: %d (%d breaks when wrapped)\n\n", tr.Len(), rec.Wrapped.Breaks())
	fmt.Print(viz.TrajectorySummary(tr))

	if len(meta.Metrics) > 0 {
		fmt.Println("\nmetrics:")
		names := make([]string, 0, len(meta.Metrics))
		for name := range meta.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %s: %.6f\n", name, meta.Metrics[name])
		}
	}

	re := make([]float64, tr.Len())
	im := make([]float64, tr.Len())
	for i, z := range tr.Points {
		re[i], im[i] = real(z), imag(z)
	}
	for _, g := range []string{viz.Graph(re, "Re z(t)", 80, 10), viz.Graph(im, "Im z(t)", 80, 10)} {
		if g != "" {
			fmt.Println()
			fmt.Println(g)
		}
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	rec, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	tr := rec.Trajectory

	fmt.Printf("analysis: %s\n", rec.Meta.ID)
	fmt.Printf("lattice: %s\n\n", rec.Params)

	spec, err := analysis.PowerSpectrum(tr)
	if err != nil {
		return err
	}
	freqs, power := spec.Positive()
	if len(power) > 1 {
		logPower := make([]float64, len(power))
		for i, p := range power {
			logPower[i] = math.Log10(p + 1e-300)
		}
		fmt.Println(viz.Graph(logPower, fmt.Sprintf("log10 power, 0 < f <= %.3g", freqs[len(freqs)-1]), 80, 12))
		fmt.Println()
	}
	freq, _ := spec.Dominant()
	direction := "counterclockwise"
	if freq < 0 {
		direction = "clockwise"
	}
	fmt.Printf("dominant frequency: %.4f (%s)\n", math.Abs(freq), direction)
	if freq != 0 {
		fmt.Printf("period: %.4f\n", 1/math.Abs(freq))
	}

	if lyapDelta == 0 || rec.Meta.Integrate == nil {
		return nil
	}
	cfg := config.DefaultConfig()
	cfg.Lattice = rec.Meta.Lattice
	cfg.Integrate = *rec.Meta.Integrate
	sep, err := analysis.LyapunovExponent(rec.Params, cfg.Integrate.Z0.Value(), cfg.Integrate.V0.Value(), cfg.Trajectory(), lyapDelta)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Print(viz.KeyValue("Lyapunov", fmt.Sprintf("%.6f", sep.Exponent)))
	fmt.Print(viz.KeyValue("Over t", fmt.Sprintf("%.4f", sep.Time)))
	fmt.Print(viz.KeyValue("Renorms", fmt.Sprintf("%d", sep.Renormalized)))
	if sep.Reference.Halted() || sep.Perturbed.Halted() {
		fmt.Print(viz.KeyValue("Stopped", fmt.Sprintf("%s / %s", viz.StatusBadge(sep.Reference), viz.StatusBadge(sep.Perturbed))))
	}
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	rec, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	svg := export.TrajectoryToSVG(rec.Wrapped, rec.Params.P(), rec.Params.Q(), export.SVGOptions{
		Poles: rec.Params.CellPoles(),
	})
	if svgOut == "" {
		_, err := io.WriteString(os.Stdout, svg)
		return err
	}
	if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", svgOut)
	return nil
}

func renderField(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)

	var g *field.Grid
	if fieldRun != "" {
		loaded, err := st.LoadField(fieldRun)
		if err != nil {
			return err
		}
		g = loaded
	} else {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		res, err := newRunner(cfg, nil).RunField(cfg)
		if err != nil {
			return err
		}
		g = res.Grid
	}

	traces := make([]torus.Wrapped, 0, len(overlayRuns))
	for _, id := range overlayRuns {
		rec, err := st.LoadTrajectory(id)
		if err != nil {
			return err
		}
		if rec.Params != g.Params {
			slog.Warn("overlay lattice differs from field", "run", id, "run_lattice", rec.Params.String(), "field_lattice", g.Params.String())
		}
		traces = append(traces, rec.Wrapped)
	}

	p, err := export.FieldPlot(g, traces...)
	if err != nil {
		return err
	}
	f, err := os.Create(pngOut)
	if err != nil {
		return err
	}
	if err := export.WritePNG(f, p, vg.Length(pngWidth)*vg.Inch, vg.Length(pngHeight)*vg.Inch); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", pngOut)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	params, err := cfg.Params()
	if err != nil {
		return err
	}
	if msg, ok := params.Advisory(); ok {
		slog.Warn("large lattice truncation", "detail", msg)
	}

	title := "wpsim live"
	if preset != "" {
		title += " - " + preset
	}
	m, err := viz.NewModel(params, cfg.Integrate.Z0.Value(), cfg.Integrate.V0.Value(), cfg.Trajectory(), cfg.WrapThreshold, title)
	if err != nil {
		return err
	}
	return viz.RunLive(m)
}

func listPresets(cmd *cobra.Command, args []string) error {
	fmt.Println("available presets:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		mode := "fixed"
		if cfg.Integrate.Adaptive {
			mode = "adaptive"
		}
		fmt.Fprintf(w, "  %s\tp=%g q=%g N=%d\tz0=%s v0=%s\tT=%g %s\n",
			name,
			cfg.Lattice.P, cfg.Lattice.Q, cfg.Lattice.N,
			viz.FormatComplex(cfg.Integrate.Z0.Value()), viz.FormatComplex(cfg.Integrate.V0.Value()),
			cfg.Integrate.Duration, mode,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println("\nusage: wpsim run --preset <name>")
	return nil
}

func magnitudes(zs []complex128) []float64 {
	out := make([]float64, len(zs))
	for i, z := range zs {
		out[i] = cmplx.Abs(z)
	}
	return out
}
