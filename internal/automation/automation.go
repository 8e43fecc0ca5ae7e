package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/wpsim/internal/config"
	"github.com/san-kum/wpsim/internal/field"
	"github.com/san-kum/wpsim/internal/metrics"
	"github.com/san-kum/wpsim/internal/storage"
	"github.com/san-kum/wpsim/internal/trajectory"
)

var ErrInvalidScenario = errors.New("automation: invalid scenario")

// Kind selects what a scenario step does.
type Kind string

const (
	KindRun        Kind = "run"
	KindField      Kind = "field"
	KindFan        Kind = "fan"
	KindSweep      Kind = "sweep"
	KindMonteCarlo Kind = "montecarlo"
)

// Scenario is a scripted sequence of runs sharing a base configuration.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Preset      string         `yaml:"preset"`
	Base        yaml.Node      `yaml:"base"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single step. Config holds keys overriding the scenario
// base, in the same layout as the config file.
type ScenarioStep struct {
	Name   string    `yaml:"name"`
	Kind   Kind      `yaml:"kind"`
	Config yaml.Node `yaml:"config"`

	Fan        *FanConfig        `yaml:"fan,omitempty"`
	Sweep      *ParameterSweep   `yaml:"sweep,omitempty"`
	MonteCarlo *MonteCarloConfig `yaml:"montecarlo,omitempty"`
}

// FanConfig launches Count particles from z0 at equal angles.
type FanConfig struct {
	Count int     `yaml:"count"`
	Speed float64 `yaml:"speed"`
}

// ParameterSweep varies one tunable setting over Steps evenly spaced values
// in [Min, Max].
type ParameterSweep struct {
	Param string  `yaml:"param"`
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
	Steps int     `yaml:"steps"`
}

// MonteCarloConfig perturbs z0 uniformly within ±Perturbation on each axis.
type MonteCarloConfig struct {
	Trials       int     `yaml:"trials"`
	Perturbation float64 `yaml:"perturbation"`
	Seed         int64   `yaml:"seed"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%w: no steps", ErrInvalidScenario)
	}
	return &scenario, nil
}

// Result is the outcome of one step. Labels and RunIDs line up with
// Trajectories; RunIDs is empty when the runner has no store.
type Result struct {
	Step         string
	Kind         Kind
	Trajectories []*trajectory.Trajectory
	Labels       []string
	Grid         *field.Grid
	RunIDs       []string
}

// Summary counts trajectories by terminal status.
func (r Result) Summary() map[trajectory.Status]int {
	return trajectory.Summary(r.Trajectories)
}

// Runner executes runs and scenarios, persisting and instrumenting each
// result.
type Runner struct {
	Store   *storage.Store
	Workers int
	Log     *slog.Logger
}

func (r *Runner) logger() *slog.Logger {
	if r.Log == nil {
		return slog.Default()
	}
	return r.Log
}

// RunScenario executes all steps in order and stops at the first error,
// returning the results gathered so far.
func (r *Runner) RunScenario(ctx context.Context, sc *Scenario) ([]Result, error) {
	base := config.DefaultConfig()
	if sc.Preset != "" {
		if base = config.GetPreset(sc.Preset); base == nil {
			return nil, fmt.Errorf("%w: unknown preset %q", ErrInvalidScenario, sc.Preset)
		}
	}
	if err := decodeOver(base, &sc.Base); err != nil {
		return nil, fmt.Errorf("%w: base: %v", ErrInvalidScenario, err)
	}

	results := make([]Result, 0, len(sc.Steps))
	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step%d", i+1)
		}
		r.logger().Info("scenario step", "scenario", sc.Name, "step", name, "index", i+1, "of", len(sc.Steps), "kind", step.Kind)

		cfg := base.Clone()
		if err := decodeOver(cfg, &step.Config); err != nil {
			return results, fmt.Errorf("step %s: %w: %v", name, ErrInvalidScenario, err)
		}

		res, err := r.runStep(ctx, cfg, step)
		if err != nil {
			return results, fmt.Errorf("step %s: %w", name, err)
		}
		res.Step = name
		results = append(results, res)
	}
	return results, nil
}

func decodeOver(cfg *config.Config, node *yaml.Node) error {
	if node.Kind == 0 {
		return nil
	}
	if err := node.Decode(cfg); err != nil {
		return err
	}
	return cfg.Validate()
}

func (r *Runner) runStep(ctx context.Context, cfg *config.Config, step ScenarioStep) (Result, error) {
	switch step.Kind {
	case KindRun, "":
		return r.RunTrajectory(cfg, nil)
	case KindField:
		return r.RunField(cfg)
	case KindFan:
		if step.Fan == nil {
			return Result{}, fmt.Errorf("%w: fan step needs a fan section", ErrInvalidScenario)
		}
		return r.RunFan(ctx, cfg, *step.Fan)
	case KindSweep:
		if step.Sweep == nil {
			return Result{}, fmt.Errorf("%w: sweep step needs a sweep section", ErrInvalidScenario)
		}
		return r.RunSweep(ctx, cfg, *step.Sweep)
	case KindMonteCarlo:
		if step.MonteCarlo == nil {
			return Result{}, fmt.Errorf("%w: montecarlo step needs a montecarlo section", ErrInvalidScenario)
		}
		return r.RunMonteCarlo(ctx, cfg, *step.MonteCarlo)
	}
	return Result{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidScenario, step.Kind)
}

// RunTrajectory integrates the configured z0, v0.
func (r *Runner) RunTrajectory(cfg *config.Config, tags map[string]string) (Result, error) {
	params, err := cfg.Params()
	if err != nil {
		return Result{}, err
	}
	r.advise(cfg)

	start := time.Now()
	tr, err := trajectory.Integrate(params, cfg.Integrate.Z0.Value(), cfg.Integrate.V0.Value(), cfg.Trajectory())
	if err != nil {
		return Result{}, err
	}
	metrics.RecordTrajectory(tr, time.Since(start))

	res := Result{Kind: KindRun, Trajectories: []*trajectory.Trajectory{tr}, Labels: []string{"z0=" + formatComplex(cfg.Integrate.Z0.Value())}}
	if err := r.persist(&res, []*config.Config{cfg}, tags); err != nil {
		return res, err
	}
	return res, nil
}

// RunField samples the configured field grid.
func (r *Runner) RunField(cfg *config.Config) (Result, error) {
	params, err := cfg.Params()
	if err != nil {
		return Result{}, err
	}
	which, err := cfg.Function()
	if err != nil {
		return Result{}, err
	}
	r.advise(cfg)

	start := time.Now()
	g, err := field.Sample(params, which, cfg.Field.Nx, cfg.Field.Ny, cfg.Field.PoleEps, cfg.FieldOptions()...)
	if err != nil {
		return Result{}, err
	}
	metrics.RecordField(g, time.Since(start))
	r.logger().Debug("field sampled", "nx", g.Nx, "ny", g.Ny, "valid_fraction", g.ValidFraction())

	res := Result{Kind: KindField, Grid: g}
	if r.Store != nil {
		id, err := r.Store.SaveField(cfg, g)
		if err != nil {
			return res, err
		}
		res.RunIDs = []string{id}
	}
	return res, nil
}

// RunFan launches a fan of particles from z0 with trajectory.Ensemble.
func (r *Runner) RunFan(ctx context.Context, cfg *config.Config, fan FanConfig) (Result, error) {
	if fan.Count < 1 {
		return Result{}, fmt.Errorf("%w: fan count must be positive", ErrInvalidScenario)
	}
	speed := fan.Speed
	if speed == 0 {
		speed = 1
	}
	inits := trajectory.LaunchFan(cfg.Integrate.Z0.Value(), speed, fan.Count)

	labels := make([]string, len(inits))
	configs := make([]*config.Config, len(inits))
	for i, in := range inits {
		labels[i] = "v0=" + formatComplex(in.V0)
		configs[i] = cfg.Clone()
		configs[i].Integrate.V0 = config.C(in.V0)
	}
	return r.ensemble(ctx, KindFan, cfg, inits, configs, labels)
}

// RunMonteCarlo integrates Trials randomly perturbed starting points.
func (r *Runner) RunMonteCarlo(ctx context.Context, cfg *config.Config, mc MonteCarloConfig) (Result, error) {
	if mc.Trials < 1 {
		return Result{}, fmt.Errorf("%w: montecarlo trials must be positive", ErrInvalidScenario)
	}
	seed := mc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	z0, v0 := cfg.Integrate.Z0.Value(), cfg.Integrate.V0.Value()
	inits := make([]trajectory.Initial, mc.Trials)
	labels := make([]string, mc.Trials)
	configs := make([]*config.Config, mc.Trials)
	for i := range inits {
		dz := complex((rng.Float64()-0.5)*2*mc.Perturbation, (rng.Float64()-0.5)*2*mc.Perturbation)
		inits[i] = trajectory.Initial{Z0: z0 + dz, V0: v0}
		labels[i] = "z0=" + formatComplex(inits[i].Z0)
		configs[i] = cfg.Clone()
		configs[i].Integrate.Z0 = config.C(inits[i].Z0)
	}
	r.logger().Debug("montecarlo", "trials", mc.Trials, "seed", seed)
	return r.ensemble(ctx, KindMonteCarlo, cfg, inits, configs, labels)
}

func (r *Runner) ensemble(ctx context.Context, kind Kind, cfg *config.Config, inits []trajectory.Initial, configs []*config.Config, labels []string) (Result, error) {
	params, err := cfg.Params()
	if err != nil {
		return Result{}, err
	}
	r.advise(cfg)

	start := time.Now()
	trs, err := trajectory.Ensemble(ctx, params, inits, cfg.Trajectory(), r.Workers)
	if err != nil {
		return Result{}, err
	}
	per := time.Since(start) / time.Duration(len(trs))
	for _, tr := range trs {
		metrics.RecordTrajectory(tr, per)
	}

	res := Result{Kind: kind, Trajectories: trs, Labels: labels}
	if err := r.persist(&res, configs, map[string]string{"kind": string(kind)}); err != nil {
		return res, err
	}
	return res, nil
}

// RunSweep integrates one trajectory per swept value. Each value gets its
// own config, so lattice settings may be swept too.
func (r *Runner) RunSweep(ctx context.Context, cfg *config.Config, sweep ParameterSweep) (Result, error) {
	if sweep.Steps < 1 {
		return Result{}, fmt.Errorf("%w: sweep steps must be positive", ErrInvalidScenario)
	}
	if _, err := cfg.Get(sweep.Param); err != nil {
		return Result{}, err
	}

	configs := make([]*config.Config, sweep.Steps)
	labels := make([]string, sweep.Steps)
	for i := range configs {
		v := sweep.Min
		if sweep.Steps > 1 {
			v += float64(i) * (sweep.Max - sweep.Min) / float64(sweep.Steps-1)
		}
		c := cfg.Clone()
		if err := c.Set(sweep.Param, v); err != nil {
			return Result{}, err
		}
		if err := c.Validate(); err != nil {
			return Result{}, fmt.Errorf("%s=%g: %w", sweep.Param, v, err)
		}
		configs[i] = c
		labels[i] = sweep.Param + "=" + strconv.FormatFloat(v, 'g', 6, 64)
	}

	trs := make([]*trajectory.Trajectory, len(configs))
	g, gctx := errgroup.WithContext(ctx)
	if r.Workers > 0 {
		g.SetLimit(r.Workers)
	}
	for i, c := range configs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			params, _ := c.Params()
			r.advise(c)
			start := time.Now()
			tr, err := trajectory.Integrate(params, c.Integrate.Z0.Value(), c.Integrate.V0.Value(), c.Trajectory())
			if err != nil {
				return err
			}
			metrics.RecordTrajectory(tr, time.Since(start))
			trs[i] = tr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{Kind: KindSweep, Trajectories: trs, Labels: labels}
	if err := r.persist(&res, configs, map[string]string{"kind": string(KindSweep), "param": sweep.Param}); err != nil {
		return res, err
	}
	return res, nil
}

// persist saves every trajectory of res with its standard metrics.
func (r *Runner) persist(res *Result, configs []*config.Config, tags map[string]string) error {
	if r.Store == nil {
		return nil
	}
	for i, tr := range res.Trajectories {
		cfg := configs[i]
		params, err := cfg.Params()
		if err != nil {
			return err
		}
		t := make(map[string]string, len(tags)+1)
		for k, v := range tags {
			t[k] = v
		}
		t["label"] = res.Labels[i]

		id, err := r.Store.SaveTrajectory(cfg, tr, metrics.Evaluate(tr, metrics.Standard(params)...), t)
		if err != nil {
			return err
		}
		res.RunIDs = append(res.RunIDs, id)
	}
	return nil
}

func (r *Runner) advise(cfg *config.Config) {
	params, err := cfg.Params()
	if err != nil {
		return
	}
	if msg, ok := params.Advisory(); ok {
		r.logger().Warn("large lattice truncation", "detail", msg)
	}
}

func formatComplex(z complex128) string {
	return strconv.FormatComplex(z, 'g', 6, 128)
}
