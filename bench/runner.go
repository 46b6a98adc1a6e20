package bench

import (
	"context"
	"hash/fnv"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"qbench/sim"
)

// topStates is how many basis states a circuit result keeps.
const topStates = 8

// Runner times cases according to a Config.
type Runner struct {
	cfg    Config
	logger *log.Logger
	runID  string
}

// NewRunner returns a runner whose results share a fresh run ID.
func NewRunner(cfg Config, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{cfg: cfg, logger: logger, runID: NewRunID()}
}

// RunID returns the identifier stamped on every result of this runner.
func (r *Runner) RunID() string { return r.runID }

// Run executes cases with at most cfg.Workers in flight and returns their results in
// the order of cases. A failing case is recorded in its result and does not stop the
// others. progress, if set, is called as each case finishes, possibly concurrently.
func (r *Runner) Run(ctx context.Context, cases []Case, progress func(Result)) []Result {
	results := make([]Result, len(cases))

	var g errgroup.Group
	g.SetLimit(max(r.cfg.Workers, 1))
	for i, c := range cases {
		g.Go(func() error {
			results[i] = r.RunCase(ctx, c)
			if progress != nil {
				progress(results[i])
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// RunCase loads c, runs the warmup trials and then times cfg.Trials trials. The case
// timeout covers loading, warmup and trials.
func (r *Runner) RunCase(ctx context.Context, c Case) Result {
	res := Result{
		RunID:   r.runID,
		Task:    c.Task.Name,
		Case:    c.Name,
		Qubits:  c.Qubits,
		Started: time.Now(),
	}
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	logger := r.logger.With("case", c.Name)
	logger.Debug("loading case", "qubits", c.Qubits, "memory", FormatBytes(StateBytes(c.Qubits)))

	var err error
	switch c.Task.Kind {
	case KindQAOA:
		err = r.runQAOA(ctx, c, &res)
	default:
		err = r.runCircuit(ctx, c, &res)
	}
	if err != nil {
		res.Err = err.Error()
		logger.Error("case failed", "err", err)
		return res
	}

	logger.Info("case done",
		"qubits", res.Qubits,
		"gates", res.Gates,
		"mean", FormatDuration(res.Stats.Mean),
		"stddev", FormatDuration(res.Stats.StdDev))
	return res
}

// measure runs warmup untimed trials, then the timed ones.
func (r *Runner) measure(ctx context.Context, res *Result, trial func(context.Context) error) error {
	for range r.cfg.Warmup {
		if err := trial(ctx); err != nil {
			return err
		}
	}
	samples := make([]time.Duration, 0, r.cfg.Trials)
	for range r.cfg.Trials {
		start := time.Now()
		if err := trial(ctx); err != nil {
			res.Stats = Summarize(samples)
			return err
		}
		samples = append(samples, time.Since(start))
	}
	res.Stats = Summarize(samples)
	return nil
}

func (r *Runner) runCircuit(ctx context.Context, c Case, res *Result) error {
	w, err := Load(c)
	if err != nil {
		return err
	}
	res.Gates = w.Circuit.Len()
	res.Depth = w.Circuit.Depth()

	e, err := sim.New(c.Qubits, r.cfg.EngineOptions(r.logger)...)
	if err != nil {
		return err
	}
	err = r.measure(ctx, res, func(ctx context.Context) error {
		e.Reset()
		if err := e.ApplyCircuitContext(ctx, w.Circuit, nil); err != nil {
			return err
		}
		_ = e.Snapshot()
		return nil
	})
	if err != nil {
		return err
	}

	res.Norm = e.Norm()
	res.States = statesOf(c.Qubits, e.TopStates(topStates))
	return nil
}

func (r *Runner) runQAOA(ctx context.Context, c Case, res *Result) error {
	w, err := Load(c)
	if err != nil {
		return err
	}
	p, err := NewProblem(c.Qubits, w.Edges, r.cfg.EngineOptions(r.logger)...)
	if err != nil {
		return err
	}
	res.Gates = p.Circuit().Len()
	res.Depth = p.Circuit().Depth()

	weights := r.initialWeights(c, p.NumParams())
	var opt Optimum
	err = r.measure(ctx, res, func(ctx context.Context) error {
		var err error
		opt, err = p.Minimize(ctx, weights, r.cfg.QAOASteps, r.cfg.LearningRate)
		return err
	})
	if err != nil {
		return err
	}

	res.Value = opt.Value
	res.GradNorm = opt.GradNorm
	res.Steps = opt.Steps
	return nil
}

// initialWeights draws uniform weights in [0, 1), seeded by the config seed and the
// case name so that every trial and every run starts from the same point.
func (r *Runner) initialWeights(c Case, n int) []float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(c.Name))
	rng := rand.New(rand.NewPCG(r.cfg.Seed, h.Sum64()))
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = rng.Float64()
	}
	return weights
}
