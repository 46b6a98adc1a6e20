package bench

import (
	"context"
	"fmt"
	"math"

	"qbench/sim"
)

// Problem is a QAOA MaxCut instance: the ansatz H^n, rzz(theta_k) per edge and
// rx(theta_{|E|+i}) per qubit, measured against the sum of Z_i Z_j over the edges.
type Problem struct {
	NumQubits int
	Edges     [][2]int

	circuit *sim.Circuit
	cost    sim.Observable
	params  []string
	engine  *sim.Engine
}

// ParamName returns the name of the k-th ansatz parameter.
func ParamName(k int) string { return fmt.Sprintf("theta_%d", k) }

// Ansatz builds the QAOA circuit for a graph and returns it with its parameter names
// in weight order.
func Ansatz(numQubits int, edges [][2]int) (*sim.Circuit, []string, error) {
	if err := checkEdges(numQubits, edges); err != nil {
		return nil, nil, err
	}

	b := sim.NewBuilder(numQubits)
	params := make([]string, 0, len(edges)+numQubits)
	for q := range numQubits {
		if err := b.Add(sim.GateH, []int{q}, nil); err != nil {
			return nil, nil, err
		}
	}
	for _, e := range edges {
		name := ParamName(len(params))
		params = append(params, name)
		if err := b.Add(sim.GateRZZ, []int{e[0], e[1]}, nil, sim.Symbol(name)); err != nil {
			return nil, nil, err
		}
	}
	for q := range numQubits {
		name := ParamName(len(params))
		params = append(params, name)
		if err := b.Add(sim.GateRX, []int{q}, nil, sim.Symbol(name)); err != nil {
			return nil, nil, err
		}
	}
	return b.Build(), params, nil
}

// NewProblem builds the ansatz and cost observable for a graph. The problem owns an
// engine created with opts.
func NewProblem(numQubits int, edges [][2]int, opts ...sim.Option) (*Problem, error) {
	circuit, params, err := Ansatz(numQubits, edges)
	if err != nil {
		return nil, err
	}
	engine, err := sim.New(numQubits, opts...)
	if err != nil {
		return nil, err
	}
	return &Problem{
		NumQubits: numQubits,
		Edges:     edges,
		circuit:   circuit,
		cost:      sim.ZZEdges(edges),
		params:    params,
		engine:    engine,
	}, nil
}

// Circuit returns the ansatz.
func (p *Problem) Circuit() *sim.Circuit { return p.circuit }

// NumParams returns the length of the weight vector.
func (p *Problem) NumParams() int { return len(p.params) }

// FunAndGrad returns the cost expectation and its exact gradient at weights.
func (p *Problem) FunAndGrad(weights []float64) (float64, []float64, error) {
	return p.FunAndGradContext(context.Background(), weights)
}

// FunAndGradContext is FunAndGrad with cancellation checked between gates.
func (p *Problem) FunAndGradContext(ctx context.Context, weights []float64) (float64, []float64, error) {
	b, err := sim.BindVector(p.params, weights)
	if err != nil {
		return 0, nil, err
	}
	value, err := sim.ObjectiveContext(ctx, p.engine, p.circuit, p.cost, b)
	if err != nil {
		return 0, nil, err
	}
	grad, err := sim.CircuitGradientContext(ctx, p.engine, p.circuit, p.cost, b, p.params)
	if err != nil {
		return 0, nil, err
	}
	return value, grad, nil
}

// Optimum is the outcome of Minimize.
type Optimum struct {
	Weights  []float64
	Value    float64
	GradNorm float64
	Steps    int
}

// Minimize runs plain gradient descent from weights for at most steps iterations,
// stopping early once the gradient norm drops below 1e-6. The returned value and
// gradient norm belong to the returned weights.
func (p *Problem) Minimize(ctx context.Context, weights []float64, steps int, rate float64) (Optimum, error) {
	w := append([]float64(nil), weights...)
	opt := Optimum{Weights: w}
	for {
		value, grad, err := p.FunAndGradContext(ctx, w)
		if err != nil {
			return opt, err
		}
		opt.Value, opt.GradNorm = value, norm(grad)
		if opt.Steps >= steps || opt.GradNorm < 1e-6 {
			return opt, nil
		}
		for i, g := range grad {
			w[i] -= rate * g
		}
		opt.Steps++
	}
}

func norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
