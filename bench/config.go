package bench

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"qbench/sim"
)

// Config controls a benchmark run. Zero-valued fields in a config file keep their
// defaults.
type Config struct {
	DataDir string   `yaml:"data_dir"`
	Tasks   []string `yaml:"tasks"`

	Trials  int           `yaml:"trials"`
	Warmup  int           `yaml:"warmup"`
	Timeout time.Duration `yaml:"timeout"` // per case, 0 disables

	// Workers is how many cases run at the same time; GateWorkers is how many
	// goroutines a single gate may use.
	Workers           int `yaml:"workers"`
	GateWorkers       int `yaml:"gate_workers"`
	ParallelThreshold int `yaml:"parallel_threshold"`

	QAOASteps    int     `yaml:"qaoa_steps"`
	LearningRate float64 `yaml:"learning_rate"`
	Seed         uint64  `yaml:"seed"`

	Results  string `yaml:"results"`
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		DataDir:           "data",
		Tasks:             TaskNames(),
		Trials:            5,
		Warmup:            1,
		Timeout:           5 * time.Minute,
		Workers:           1,
		GateWorkers:       runtime.GOMAXPROCS(0),
		ParallelThreshold: sim.DefaultParallelThreshold,
		LearningRate:      0.1,
		Seed:              1,
		Results:           "results.jsonl",
		LogLevel:          "info",
	}
}

// LoadConfig reads a YAML config over the defaults. An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the configuration for values the runner cannot use.
func (c Config) Validate() error {
	var errs []error
	if c.Trials < 1 {
		errs = append(errs, fmt.Errorf("trials must be at least 1, got %d", c.Trials))
	}
	if c.Warmup < 0 {
		errs = append(errs, fmt.Errorf("warmup must not be negative, got %d", c.Warmup))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	if c.QAOASteps < 0 {
		errs = append(errs, fmt.Errorf("qaoa_steps must not be negative, got %d", c.QAOASteps))
	}
	if c.QAOASteps > 0 && c.LearningRate <= 0 {
		errs = append(errs, fmt.Errorf("learning_rate must be positive, got %g", c.LearningRate))
	}
	for _, name := range c.Tasks {
		if _, ok := LookupTask(name); !ok {
			errs = append(errs, fmt.Errorf("unknown task %q", name))
		}
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	return errors.Join(errs...)
}

// EngineOptions returns the engine options implied by the configuration.
func (c Config) EngineOptions(logger *log.Logger) []sim.Option {
	return []sim.Option{
		sim.WithWorkers(c.GateWorkers),
		sim.WithParallelThreshold(c.ParallelThreshold),
		sim.WithLogger(logger),
	}
}
