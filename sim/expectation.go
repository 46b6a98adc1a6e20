package sim

import (
	"context"
	"fmt"
	"math"
	"math/bits"
	"sort"
	"strconv"
	"strings"
)

// Pauli is a single-qubit Pauli operator.
type Pauli byte

const (
	PauliI Pauli = 'I'
	PauliX Pauli = 'X'
	PauliY Pauli = 'Y'
	PauliZ Pauli = 'Z'
)

// PauliTerm is Coeff times the tensor product of Ops; qubits missing from Ops are I.
type PauliTerm struct {
	Coeff float64
	Ops   map[int]Pauli
}

// Observable is a sum of Pauli terms.
type Observable []PauliTerm

// ParsePauliTerm parses a space-separated Pauli string such as "X0 X1" or "Z2 Y0".
func ParsePauliTerm(coeff float64, s string) (PauliTerm, error) {
	term := PauliTerm{Coeff: coeff, Ops: make(map[int]Pauli)}
	for _, field := range strings.Fields(s) {
		if len(field) < 2 {
			return PauliTerm{}, fmt.Errorf("invalid pauli factor %q", field)
		}
		op := Pauli(strings.ToUpper(field[:1])[0])
		switch op {
		case PauliI, PauliX, PauliY, PauliZ:
		default:
			return PauliTerm{}, fmt.Errorf("invalid pauli operator %q", field[:1])
		}
		q, err := strconv.Atoi(field[1:])
		if err != nil || q < 0 {
			return PauliTerm{}, fmt.Errorf("invalid pauli qubit %q", field)
		}
		if _, dup := term.Ops[q]; dup {
			return PauliTerm{}, fmt.Errorf("qubit %d repeated in %q", q, s)
		}
		if op != PauliI {
			term.Ops[q] = op
		}
	}
	return term, nil
}

// String renders the term as "coeff*Z0 Z1", qubits ascending.
func (t PauliTerm) String() string {
	qubits := make([]int, 0, len(t.Ops))
	for q := range t.Ops {
		qubits = append(qubits, q)
	}
	sort.Ints(qubits)
	parts := make([]string, 0, len(qubits))
	for _, q := range qubits {
		parts = append(parts, fmt.Sprintf("%c%d", t.Ops[q], q))
	}
	if len(parts) == 0 {
		parts = append(parts, "I")
	}
	return strconv.FormatFloat(t.Coeff, 'g', -1, 64) + "*" + strings.Join(parts, " ")
}

// ZZEdges returns the sum of weight-1 Z_i Z_j terms, one per edge.
func ZZEdges(edges [][2]int) Observable {
	obs := make(Observable, 0, len(edges))
	for _, e := range edges {
		obs = append(obs, PauliTerm{Coeff: 1, Ops: map[int]Pauli{e[0]: PauliZ, e[1]: PauliZ}})
	}
	return obs
}

// MaxQubit returns the highest qubit index referenced by the observable, or -1.
func (o Observable) MaxQubit() int {
	top := -1
	for _, t := range o {
		for q, p := range t.Ops {
			if p != PauliI {
				top = max(top, q)
			}
		}
	}
	return top
}

// stateQubits returns n for a state of length 2^n.
func stateQubits(state []Complex) (int, error) {
	l := len(state)
	if l == 0 || l&(l-1) != 0 {
		return 0, &DimensionMismatchError{What: "state", Expected: 1 << bits.Len(uint(max(l-1, 0))), Actual: l}
	}
	return bits.TrailingZeros(uint(l)), nil
}

// Expectation returns <psi|O|psi> for a normalised state.
//
// For a Pauli string P, P|i> = phase(i) |i ^ xmask> where xmask covers the X and Y
// factors, so each term is a single pass over the amplitudes.
func Expectation(state []Complex, obs Observable) (float64, error) {
	n, err := stateQubits(state)
	if err != nil {
		return 0, err
	}
	if top := obs.MaxQubit(); top >= n {
		return 0, &DimensionMismatchError{What: "observable", Expected: n, Actual: top + 1}
	}

	var total float64
	for _, t := range obs {
		total += t.Coeff * pauliExpectation(state, t)
	}
	return total, nil
}

func pauliExpectation(state []Complex, t PauliTerm) float64 {
	var xmask, zmask, ny int
	for q, p := range t.Ops {
		switch p {
		case PauliX:
			xmask |= 1 << q
		case PauliY:
			xmask |= 1 << q
			zmask |= 1 << q
			ny++
		case PauliZ:
			zmask |= 1 << q
		}
	}
	// Y = i * X * Z, so a Y factor contributes i and a sign taken from the input bit.
	yphase := [4]Complex{1, 1i, -1, -1i}[ny%4]

	var sum Complex
	for i, a := range state {
		if a == 0 {
			continue
		}
		c := yphase
		if bits.OnesCount(uint(i&zmask))%2 == 1 {
			c = -c
		}
		j := i ^ xmask
		b := state[j]
		sum += complex(real(b), -imag(b)) * c * a
	}
	return real(sum)
}

// ──────────────────────────── Gradients ────────────────────────────

// StateProducer returns the final state of a parametrized circuit under the given bindings.
type StateProducer func(b Bindings) ([]Complex, error)

// Gradient differentiates <O> with respect to each named parameter using the two-term
// parameter-shift rule on the bindings: (f(θ+π/2) - f(θ-π/2)) / 2. It is exact when each
// parameter drives a single uncontrolled rotation; CircuitGradient handles the general case.
func Gradient(produce StateProducer, obs Observable, b Bindings, params []string) ([]float64, error) {
	eval := func(bb Bindings) (float64, error) {
		state, err := produce(bb)
		if err != nil {
			return 0, err
		}
		return Expectation(state, obs)
	}

	grad := make([]float64, len(params))
	for k, name := range params {
		theta, ok := b[name]
		if !ok {
			return nil, &UnboundParameterError{Name: name}
		}
		plus, err := eval(b.With(name, theta+math.Pi/2))
		if err != nil {
			return nil, err
		}
		minus, err := eval(b.With(name, theta-math.Pi/2))
		if err != nil {
			return nil, err
		}
		grad[k] = (plus - minus) / 2
	}
	return grad, nil
}

// shiftTerm is one (coefficient, shift) pair of a parameter-shift rule:
// df/dθ = Σ coeff * (f(θ+shift) - f(θ-shift)).
type shiftTerm struct {
	coeff float64
	shift float64
}

var (
	twoTermRule = []shiftTerm{{coeff: 0.5, shift: math.Pi / 2}}

	// Controlled rotations have generator eigenvalues {0, ±1/2}; the four-term rule is
	// exact for the two resulting frequencies.
	fourTermRule = []shiftTerm{
		{coeff: (math.Sqrt2 + 1) / (4 * math.Sqrt2), shift: math.Pi / 2},
		{coeff: -(math.Sqrt2 - 1) / (4 * math.Sqrt2), shift: 3 * math.Pi / 2},
	}
)

func shiftRule(g GateInstruction) []shiftTerm {
	if g.Controlled() && g.Kind != GatePhase {
		return fourTermRule
	}
	return twoTermRule
}

// Objective returns <O> after running c under b on e.
func Objective(e *Engine, c *Circuit, obs Observable, b Bindings) (float64, error) {
	return ObjectiveContext(context.Background(), e, c, obs, b)
}

// ObjectiveContext is Objective with cancellation checked between gates.
func ObjectiveContext(ctx context.Context, e *Engine, c *Circuit, obs Observable, b Bindings) (float64, error) {
	e.Reset()
	if err := e.ApplyCircuitContext(ctx, c, b); err != nil {
		return 0, err
	}
	return Expectation(e.amps, obs)
}

// CircuitGradient differentiates <O> with respect to each named parameter of c. Every
// instruction that uses a parameter is shifted on its own and the contributions are
// summed, so parameters shared between gates and controlled rotations are exact. The
// engine is reused and its state is left undefined.
func CircuitGradient(e *Engine, c *Circuit, obs Observable, b Bindings, params []string) ([]float64, error) {
	return CircuitGradientContext(context.Background(), e, c, obs, b, params)
}

// CircuitGradientContext is CircuitGradient with cancellation checked between gates.
func CircuitGradientContext(ctx context.Context, e *Engine, c *Circuit, obs Observable, b Bindings, params []string) ([]float64, error) {
	uses := make(map[string][]int)
	for i, g := range c.instructions {
		if g.Param.IsSymbolic() {
			uses[g.Param.Name] = append(uses[g.Param.Name], i)
		}
	}

	eval := func(offsets map[int]float64) (float64, error) {
		e.Reset()
		if err := e.run(ctx, c, b, offsets); err != nil {
			return 0, err
		}
		return Expectation(e.amps, obs)
	}

	grad := make([]float64, len(params))
	for k, name := range params {
		if _, ok := b[name]; !ok {
			return nil, &UnboundParameterError{Name: name}
		}
		for _, idx := range uses[name] {
			for _, term := range shiftRule(c.instructions[idx]) {
				plus, err := eval(map[int]float64{idx: term.shift})
				if err != nil {
					return nil, err
				}
				minus, err := eval(map[int]float64{idx: -term.shift})
				if err != nil {
					return nil, err
				}
				grad[k] += term.coeff * (plus - minus)
			}
		}
	}
	return grad, nil
}
