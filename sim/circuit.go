package sim

import (
	"slices"
	"sort"
)

// MaxControls is the number of control qubits a single instruction may carry.
const MaxControls = 1

// GateInstruction is one validated gate application on a circuit.
type GateInstruction struct {
	Kind     GateKind
	Targets  []int
	Controls []int
	Param    Param // set only for parametrized kinds
}

// Controlled reports whether the instruction carries a control qubit.
func (g GateInstruction) Controlled() bool { return len(g.Controls) > 0 }

// references reports whether the instruction touches the given qubit.
func (g GateInstruction) references(qubit int) bool {
	return slices.Contains(g.Targets, qubit) || slices.Contains(g.Controls, qubit)
}

// qubits returns the targets followed by the controls.
func (g GateInstruction) qubits() []int {
	out := make([]int, 0, len(g.Targets)+len(g.Controls))
	out = append(out, g.Targets...)
	return append(out, g.Controls...)
}

func (g GateInstruction) clone() GateInstruction {
	g.Targets = slices.Clone(g.Targets)
	g.Controls = slices.Clone(g.Controls)
	return g
}

// Circuit is an immutable, validated sequence of gate instructions over NumQubits qubits.
type Circuit struct {
	numQubits    int
	instructions []GateInstruction
}

// NumQubits returns the width of the circuit.
func (c *Circuit) NumQubits() int { return c.numQubits }

// Len returns the number of instructions.
func (c *Circuit) Len() int { return len(c.instructions) }

// Instruction returns a copy of the i-th instruction.
func (c *Circuit) Instruction(i int) GateInstruction { return c.instructions[i].clone() }

// Instructions returns a copy of all instructions in application order.
func (c *Circuit) Instructions() []GateInstruction {
	out := make([]GateInstruction, len(c.instructions))
	for i, g := range c.instructions {
		out[i] = g.clone()
	}
	return out
}

// Parameters returns the sorted, de-duplicated names of the symbolic parameters.
func (c *Circuit) Parameters() []string {
	seen := make(map[string]bool)
	var names []string
	for _, g := range c.instructions {
		if g.Param.IsSymbolic() && !seen[g.Param.Name] {
			seen[g.Param.Name] = true
			names = append(names, g.Param.Name)
		}
	}
	sort.Strings(names)
	return names
}

// Builder accumulates gate instructions and validates each one as it is added.
// Once Build is called the builder is sealed.
type Builder struct {
	numQubits    int
	instructions []GateInstruction
	built        bool
}

// NewBuilder returns a builder for a circuit over numQubits qubits.
func NewBuilder(numQubits int) *Builder {
	return &Builder{numQubits: max(numQubits, 0)}
}

// AddGate validates and appends a gate. name is a gate name understood by ParseGateKind;
// parametrized gates need exactly one param, fixed gates none.
func (b *Builder) AddGate(name string, targets, controls []int, params ...Param) error {
	if b.built {
		return ErrCircuitBuilt
	}
	kind, err := ParseGateKind(name)
	if err != nil {
		return err
	}
	return b.add(kind, targets, controls, params...)
}

// Add is AddGate for a known gate kind.
func (b *Builder) Add(kind GateKind, targets, controls []int, params ...Param) error {
	if b.built {
		return ErrCircuitBuilt
	}
	if !kind.valid() {
		return &UnsupportedGateError{Name: kind.String()}
	}
	return b.add(kind, targets, controls, params...)
}

func (b *Builder) add(kind GateKind, targets, controls []int, params ...Param) error {
	name := kind.String()

	if len(targets) != kind.Qubits() {
		return invalid(name, "expected %d target(s), got %d", kind.Qubits(), len(targets))
	}
	if len(controls) > MaxControls {
		return invalid(name, "at most %d control qubit(s) supported, got %d", MaxControls, len(controls))
	}

	seen := make(map[int]bool, len(targets)+len(controls))
	for _, q := range targets {
		if q < 0 || q >= b.numQubits {
			return invalid(name, "target qubit %d out of range [0, %d)", q, b.numQubits)
		}
		if seen[q] {
			return invalid(name, "target qubit %d repeated", q)
		}
		seen[q] = true
	}
	for _, q := range controls {
		if q < 0 || q >= b.numQubits {
			return invalid(name, "control qubit %d out of range [0, %d)", q, b.numQubits)
		}
		if seen[q] {
			return invalid(name, "control qubit %d overlaps a target", q)
		}
		seen[q] = true
	}

	inst := GateInstruction{
		Kind:     kind,
		Targets:  slices.Clone(targets),
		Controls: slices.Clone(controls),
	}
	switch {
	case len(params) > 1:
		return invalid(name, "expected at most one parameter, got %d", len(params))
	case kind.Parametrized() && (len(params) == 0 || !params[0].IsSet()):
		return invalid(name, "missing parameter")
	case !kind.Parametrized() && len(params) == 1 && params[0].IsSet():
		return invalid(name, "gate takes no parameter")
	case kind.Parametrized():
		inst.Param = params[0]
	}

	b.instructions = append(b.instructions, inst)
	return nil
}

// Build seals the builder and returns the circuit. Later calls return an equivalent circuit.
func (b *Builder) Build() *Circuit {
	b.built = true
	return &Circuit{numQubits: b.numQubits, instructions: b.instructions}
}

// Built reports whether Build has been called.
func (b *Builder) Built() bool { return b.built }
