package sim

import (
	"io"
	"runtime"

	"github.com/charmbracelet/log"
)

// DefaultParallelThreshold is the smallest qubit count for which a gate is split
// across workers.
const DefaultParallelThreshold = 16

type options struct {
	workers           int
	parallelThreshold int
	logger            *log.Logger
}

func defaultOptions() options {
	return options{
		workers:           runtime.GOMAXPROCS(0),
		parallelThreshold: DefaultParallelThreshold,
		logger:            log.New(io.Discard),
	}
}

// Option configures an Engine.
type Option func(*options)

// WithWorkers sets how many goroutines a single gate may be split across.
// Values below 2 keep every gate on the calling goroutine.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithParallelThreshold sets the qubit count from which gates are split across workers.
func WithParallelThreshold(qubits int) Option {
	return func(o *options) {
		o.parallelThreshold = qubits
	}
}

// WithLogger sets the logger used for per-circuit debug events.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
