package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
	"go.uber.org/automaxprocs/maxprocs"

	"qbench/bench"
	"qbench/sim"
)

func main() {
	app := &cli.App{
		Name:  "qbench",
		Usage: "statevector simulator benchmarks",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file", EnvVars: []string{"QBENCH_CONFIG"}},
			&cli.StringFlag{Name: "data", Usage: "data directory"},
			&cli.StringSliceFlag{Name: "task", Usage: "task to run (repeatable)"},
			&cli.IntFlag{Name: "trials", Usage: "timed trials per case"},
			&cli.IntFlag{Name: "warmup", Usage: "untimed trials per case"},
			&cli.IntFlag{Name: "workers", Usage: "cases run at the same time"},
			&cli.IntFlag{Name: "gate-workers", Usage: "goroutines per gate"},
			&cli.DurationFlag{Name: "timeout", Usage: "per-case timeout"},
			&cli.IntFlag{Name: "qaoa-steps", Usage: "gradient descent steps per QAOA trial"},
			&cli.StringFlag{Name: "results", Usage: "JSONL file results are appended to"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		},
		Before: func(cCtx *cli.Context) error {
			// before any config is loaded: the default gate worker count reads GOMAXPROCS
			setMaxProcs(newLogger(os.Stderr, cCtx.String("log-level")))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "run the benchmark cases and print a summary table",
				Action: runAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "match", Usage: "only run cases whose file name contains this"},
				},
			},
			{
				Name:      "inspect",
				Usage:     "run one data file and print its final state",
				ArgsUsage: "FILE",
				Action:    inspectAction,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "top", Value: 8, Usage: "basis states to print"},
					&cli.StringSliceFlag{Name: "expect", Usage: `Pauli string to measure, e.g. "Z0 Z1" (repeatable)`},
					&cli.BoolFlag{Name: "qasm", Usage: "print the circuit as OpenQASM"},
				},
			},
			{
				Name:   "deck",
				Usage:  "interactive benchmark dashboard",
				Action: deckAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "log-file", Usage: "write logs here while the dashboard runs"},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(cCtx *cli.Context) (bench.Config, error) {
	cfg, err := bench.LoadConfig(cCtx.String("config"))
	if err != nil {
		return cfg, err
	}
	if cCtx.IsSet("data") {
		cfg.DataDir = cCtx.String("data")
	}
	if cCtx.IsSet("task") {
		cfg.Tasks = cCtx.StringSlice("task")
	}
	if cCtx.IsSet("trials") {
		cfg.Trials = cCtx.Int("trials")
	}
	if cCtx.IsSet("warmup") {
		cfg.Warmup = cCtx.Int("warmup")
	}
	if cCtx.IsSet("workers") {
		cfg.Workers = cCtx.Int("workers")
	}
	if cCtx.IsSet("gate-workers") {
		cfg.GateWorkers = cCtx.Int("gate-workers")
	}
	if cCtx.IsSet("timeout") {
		cfg.Timeout = cCtx.Duration("timeout")
	}
	if cCtx.IsSet("qaoa-steps") {
		cfg.QAOASteps = cCtx.Int("qaoa-steps")
	}
	if cCtx.IsSet("results") {
		cfg.Results = cCtx.String("results")
	}
	if cCtx.IsSet("log-level") {
		cfg.LogLevel = cCtx.String("log-level")
	}
	return cfg, cfg.Validate()
}

func newLogger(w io.Writer, level string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "qbench",
	})
	if lvl, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

// setMaxProcs matches GOMAXPROCS to the container CPU quota, reporting at debug level
// through logger. The returned func restores the previous value.
func setMaxProcs(logger *log.Logger) func() {
	undo, err := maxprocs.Set(maxprocs.Logger(logger.Debugf))
	if err != nil {
		logger.Warn("maxprocs: could not set GOMAXPROCS", "err", err)
	}
	return undo
}

func runAction(cCtx *cli.Context) error {
	cfg, err := loadConfig(cCtx)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, cfg.LogLevel)

	cases, err := bench.DiscoverAll(cfg.DataDir, cfg.Tasks)
	if err != nil {
		return err
	}
	if match := cCtx.String("match"); match != "" {
		filtered := cases[:0]
		for _, c := range cases {
			if strings.Contains(c.Name, match) {
				filtered = append(filtered, c)
			}
		}
		cases = filtered
	}
	if len(cases) == 0 {
		return cli.Exit(fmt.Sprintf("no cases found in %s for tasks %v", cfg.DataDir, cfg.Tasks), 1)
	}

	ctx, stop := signal.NotifyContext(cCtx.Context, os.Interrupt)
	defer stop()

	runner := bench.NewRunner(cfg, logger)
	logger.Info("starting run", "run_id", runner.RunID(), "cases", len(cases), "trials", cfg.Trials)
	results := runner.Run(ctx, cases, nil)

	bench.WriteTable(os.Stdout, results)
	if cfg.Results != "" {
		if err := bench.AppendJSONL(cfg.Results, results); err != nil {
			return err
		}
		logger.Info("results saved", "path", cfg.Results)
	}

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}
	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d cases failed", failed, len(results)), 1)
	}
	return nil
}

func inspectAction(cCtx *cli.Context) error {
	if cCtx.NArg() != 1 {
		return cli.Exit("inspect needs exactly one FILE argument", 2)
	}
	cfg, err := loadConfig(cCtx)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, cfg.LogLevel)

	c, err := bench.CaseFor(cCtx.Args().First())
	if err != nil {
		return err
	}
	w, err := bench.Load(c)
	if err != nil {
		return err
	}

	if c.Task.Kind == bench.KindQAOA {
		return inspectQAOA(cfg, logger, w)
	}

	e, err := sim.New(c.Qubits, cfg.EngineOptions(logger)...)
	if err != nil {
		return err
	}
	if err := e.ApplyCircuitContext(cCtx.Context, w.Circuit, nil); err != nil {
		return err
	}

	fmt.Printf("%s: %d qubits, %d gates, depth %d, norm %.12f\n",
		c.Name, c.Qubits, w.Circuit.Len(), w.Circuit.Depth(), e.Norm())

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Index", "Bits", "Amplitude", "Prob", "Phase"})
	for _, s := range e.TopStates(cCtx.Int("top")) {
		table.Append([]string{
			strconv.Itoa(s.Index),
			fmt.Sprintf("%0*b", max(c.Qubits, 1), s.Index),
			fmt.Sprintf("%.6f", s.Amplitude),
			fmt.Sprintf("%.6f", s.Prob),
			sim.FormatAngle(s.Phase),
		})
	}
	table.Render()

	for _, expr := range cCtx.StringSlice("expect") {
		term, err := sim.ParsePauliTerm(1, expr)
		if err != nil {
			return err
		}
		v, err := sim.Expectation(e.Snapshot(), sim.Observable{term})
		if err != nil {
			return err
		}
		fmt.Printf("<%s> = %.10f\n", expr, v)
	}

	if cCtx.Bool("qasm") {
		qasm, err := w.Circuit.ToQASM(nil)
		if err != nil {
			return err
		}
		fmt.Print("\n" + qasm)
	}
	return nil
}

func inspectQAOA(cfg bench.Config, logger *log.Logger, w *bench.Workload) error {
	p, err := bench.NewProblem(w.Case.Qubits, w.Edges, cfg.EngineOptions(logger)...)
	if err != nil {
		return err
	}
	weights := make([]float64, p.NumParams())
	for i := range weights {
		weights[i] = 0.5
	}
	value, grad, err := p.FunAndGrad(weights)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d qubits, %d edges, %d parameters, depth %d\n",
		w.Case.Name, w.Case.Qubits, len(w.Edges), p.NumParams(), p.Circuit().Depth())
	fmt.Printf("<C>(0.5...) = %.10f\n", value)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Param", "dC/dθ"})
	for k, g := range grad {
		table.Append([]string{bench.ParamName(k), fmt.Sprintf("%.8f", g)})
	}
	table.Render()
	return nil
}

func deckAction(cCtx *cli.Context) error {
	cfg, err := loadConfig(cCtx)
	if err != nil {
		return err
	}

	logOut := io.Discard
	if path := cCtx.String("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		logOut = f
	}
	logger := newLogger(logOut, cfg.LogLevel)

	cases, err := bench.DiscoverAll(cfg.DataDir, cfg.Tasks)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cCtx.Context)
	defer cancel()

	m := newModel(ctx, cfg, bench.NewRunner(cfg, logger), cases)
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
