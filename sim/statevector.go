package sim

import (
	"context"
	"math/bits"
	"math/cmplx"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// MaxQubits bounds the width of an engine; 2^30 amplitudes already take 16 GiB.
const MaxQubits = 30

// Engine owns a dense state vector of 2^n amplitudes and applies gates to it in place.
//
// Qubit q corresponds to bit 1<<q of the amplitude index (LSB-first), so for two qubits
// the amplitudes are ordered |q1 q0> = |00>, |01>, |10>, |11>.
//
// An Engine is not safe for concurrent use; independent engines share nothing.
type Engine struct {
	numQubits int
	amps      []Complex
	opts      options
}

// New allocates an engine over numQubits qubits initialised to |0...0>.
func New(numQubits int, opts ...Option) (*Engine, error) {
	if numQubits < 0 || numQubits > MaxQubits {
		return nil, &DimensionMismatchError{What: "qubit count", Expected: MaxQubits, Actual: numQubits}
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	e := &Engine{
		numQubits: numQubits,
		amps:      make([]Complex, 1<<numQubits),
		opts:      o,
	}
	e.amps[0] = 1
	return e, nil
}

// NumQubits returns the width of the engine.
func (e *Engine) NumQubits() int { return e.numQubits }

// Reset returns the state to |0...0> without reallocating.
func (e *Engine) Reset() {
	clear(e.amps)
	e.amps[0] = 1
}

// Snapshot returns a copy of the amplitude vector.
func (e *Engine) Snapshot() []Complex {
	out := make([]Complex, len(e.amps))
	copy(out, e.amps)
	return out
}

// Amplitude returns the amplitude of basis state i.
func (e *Engine) Amplitude(i int) Complex { return e.amps[i] }

// Norm returns the sum of squared magnitudes of the amplitudes.
func (e *Engine) Norm() float64 {
	var sum float64
	for _, a := range e.amps {
		sum += real(a)*real(a) + imag(a)*imag(a)
	}
	return sum
}

// ApplyGate applies a 2x2 (one target) or 4x4 (two targets) matrix in place. With a
// control qubit, only the subspace where the control bit is 1 is touched.
func (e *Engine) ApplyGate(m Matrix, targets, controls []int) error {
	if len(targets) < 1 || len(targets) > 2 {
		return invalid("matrix", "expected 1 or 2 targets, got %d", len(targets))
	}
	if want := 1 << len(targets); m.Dim() != want {
		return &DimensionMismatchError{What: "gate matrix", Expected: want, Actual: m.Dim()}
	}
	seen := make(map[int]bool, len(targets)+len(controls))
	for _, q := range append(append([]int{}, targets...), controls...) {
		if q < 0 || q >= e.numQubits {
			return invalid("matrix", "qubit %d out of range [0, %d)", q, e.numQubits)
		}
		if seen[q] {
			return invalid("matrix", "qubit %d used twice", q)
		}
		seen[q] = true
	}
	e.applyMatrix(m, targets, controls)
	return nil
}

// ApplyCircuit applies every instruction of c in order, resolving symbolic parameters
// from b.
func (e *Engine) ApplyCircuit(c *Circuit, b Bindings) error {
	return e.run(context.Background(), c, b, nil)
}

// ApplyCircuitContext is ApplyCircuit with cancellation checked between gates.
// A gate that has started always completes.
func (e *Engine) ApplyCircuitContext(ctx context.Context, c *Circuit, b Bindings) error {
	return e.run(ctx, c, b, nil)
}

// run applies c; offsets adds an angle to individual instructions by index and is used
// by the parameter-shift gradient.
func (e *Engine) run(ctx context.Context, c *Circuit, b Bindings, offsets map[int]float64) error {
	if c.NumQubits() != e.numQubits {
		return &DimensionMismatchError{What: "circuit", Expected: e.numQubits, Actual: c.NumQubits()}
	}
	start := time.Now()
	for i, g := range c.instructions {
		if err := ctx.Err(); err != nil {
			return err
		}
		m, err := instructionMatrix(g, b, offsets[i])
		if err != nil {
			return err
		}
		e.applyMatrix(m, g.Targets, g.Controls)
	}
	e.opts.logger.Debug("circuit applied",
		"qubits", e.numQubits,
		"gates", c.Len(),
		"elapsed", time.Since(start))
	return nil
}

func instructionMatrix(g GateInstruction, b Bindings, offset float64) (Matrix, error) {
	if !g.Kind.Parametrized() {
		return MatrixFor(g.Kind)
	}
	theta, err := g.Param.Resolve(b)
	if err != nil {
		return nil, err
	}
	return MatrixFor(g.Kind, theta+offset)
}

// ──────────────────────────── Kernels ────────────────────────────

func (e *Engine) applyMatrix(m Matrix, targets, controls []int) {
	cmask := 0
	for _, c := range controls {
		cmask |= 1 << c
	}
	if len(targets) == 1 {
		e.apply1(m, targets[0], cmask)
		return
	}
	e.apply2(m, targets[0], targets[1], cmask)
}

// insertZero inserts a 0 bit at position pos of k.
func insertZero(k, pos int) int {
	low := k & (1<<pos - 1)
	return (k>>pos)<<(pos+1) | low
}

// apply1 walks the 2^(n-1) index pairs (i, i|1<<t) that differ only in the target bit.
func (e *Engine) apply1(m Matrix, t, cmask int) {
	tb := 1 << t
	amps := e.amps
	groups := len(amps) >> 1

	if m.isDiagonal() {
		d0, d1 := m[0], m[3]
		e.forEachChunk(groups, func(lo, hi int) {
			for k := lo; k < hi; k++ {
				i0 := insertZero(k, t)
				if i0&cmask != cmask {
					continue
				}
				if d0 != 1 {
					amps[i0] *= d0
				}
				amps[i0|tb] *= d1
			}
		})
		return
	}

	m00, m01, m10, m11 := m[0], m[1], m[2], m[3]
	e.forEachChunk(groups, func(lo, hi int) {
		for k := lo; k < hi; k++ {
			i0 := insertZero(k, t)
			if i0&cmask != cmask {
				continue
			}
			i1 := i0 | tb
			a0, a1 := amps[i0], amps[i1]
			amps[i0] = m00*a0 + m01*a1
			amps[i1] = m10*a0 + m11*a1
		}
	})
}

// apply2 walks the 2^(n-2) index quads spanning both target bits. Within a quad the
// local index is bit(t0) | bit(t1)<<1.
func (e *Engine) apply2(m Matrix, t0, t1, cmask int) {
	b0, b1 := 1<<t0, 1<<t1
	lowPos, highPos := min(t0, t1), max(t0, t1)
	amps := e.amps
	groups := len(amps) >> 2
	diagonal := m.isDiagonal()

	e.forEachChunk(groups, func(lo, hi int) {
		var idx [4]int
		var in [4]Complex
		for k := lo; k < hi; k++ {
			base := insertZero(insertZero(k, lowPos), highPos)
			if base&cmask != cmask {
				continue
			}
			idx = [4]int{base, base | b0, base | b1, base | b0 | b1}
			if diagonal {
				for r := range 4 {
					amps[idx[r]] *= m[r*5]
				}
				continue
			}
			for r := range 4 {
				in[r] = amps[idx[r]]
			}
			for r := range 4 {
				row := m[r*4 : r*4+4]
				amps[idx[r]] = row[0]*in[0] + row[1]*in[1] + row[2]*in[2] + row[3]*in[3]
			}
		}
	})
}

// forEachChunk calls fn over [0, groups), split into disjoint contiguous chunks across
// workers when the engine is wide enough. It returns once every chunk is done.
func (e *Engine) forEachChunk(groups int, fn func(lo, hi int)) {
	workers := e.opts.workers
	if workers < 2 || e.numQubits < e.opts.parallelThreshold || groups < workers {
		fn(0, groups)
		return
	}
	chunk := (groups + workers - 1) / workers
	var g errgroup.Group
	for lo := 0; lo < groups; lo += chunk {
		hi := min(lo+chunk, groups)
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	_ = g.Wait()
}

// ──────────────────────────── Readouts ────────────────────────────

// Probabilities returns |amplitude|^2 for every basis state.
func (e *Engine) Probabilities() []float64 {
	probs := make([]float64, len(e.amps))
	for i, a := range e.amps {
		probs[i] = real(a)*real(a) + imag(a)*imag(a)
	}
	return probs
}

// QubitProbability is the marginal distribution of one qubit.
type QubitProbability struct {
	Prob0 float64
	Prob1 float64
}

// QubitProbabilities returns the marginal probability of 0 and 1 for each qubit.
func (e *Engine) QubitProbabilities() []QubitProbability {
	probs := make([]QubitProbability, e.numQubits)
	for i, a := range e.amps {
		prob := real(a)*real(a) + imag(a)*imag(a)
		for q := range e.numQubits {
			if i&(1<<q) != 0 {
				probs[q].Prob1 += prob
			} else {
				probs[q].Prob0 += prob
			}
		}
	}
	return probs
}

// BasisState describes one populated computational basis state.
type BasisState struct {
	Index     int
	Amplitude Complex
	Prob      float64
	Phase     float64
	Hamming   int
}

// TopStates returns up to k basis states with probability above 1e-10, most probable
// first. k <= 0 returns all of them.
func (e *Engine) TopStates(k int) []BasisState {
	states := make([]BasisState, 0)
	for i, amp := range e.amps {
		prob := real(amp)*real(amp) + imag(amp)*imag(amp)
		if prob <= 1e-10 {
			continue
		}
		states = append(states, BasisState{
			Index:     i,
			Amplitude: amp,
			Prob:      prob,
			Phase:     cmplx.Phase(amp),
			Hamming:   bits.OnesCount(uint(i)),
		})
	}
	sort.SliceStable(states, func(a, b int) bool {
		return states[a].Prob > states[b].Prob
	})
	if k > 0 && len(states) > k {
		states = states[:k]
	}
	return states
}
