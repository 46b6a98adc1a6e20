package sim

import (
	"math"
	"math/cmplx"
	"strings"
)

// Complex is the amplitude type used throughout the simulator.
type Complex = complex128

// Matrix is a row-major 2x2 or 4x4 complex matrix.
//
// For two-qubit matrices the local basis index is bit(targets[0]) | bit(targets[1])<<1.
type Matrix []Complex

// Dim returns the row count of the matrix (2 or 4), or 0 for a malformed matrix.
func (m Matrix) Dim() int {
	switch len(m) {
	case 4:
		return 2
	case 16:
		return 4
	default:
		return 0
	}
}

// isDiagonal reports whether every off-diagonal entry is exactly zero.
func (m Matrix) isDiagonal() bool {
	d := m.Dim()
	for r := range d {
		for c := range d {
			if r != c && m[r*d+c] != 0 {
				return false
			}
		}
	}
	return true
}

// GateKind enumerates the gates the library can produce matrices for.
type GateKind int

const (
	GateX GateKind = iota
	GateY
	GateZ
	GateH
	GateS
	GateSdg
	GateT
	GateTdg
	GatePhase
	GateRX
	GateRY
	GateRZ
	GateSwap
	GateRXX
	GateRYY
	GateRZZ
)

// gateInfo describes one gate kind: its canonical record name, arity and whether it
// takes a parameter.
type gateInfo struct {
	name   string
	qasm   string
	qubits int
	param  bool
}

var gateTable = [...]gateInfo{
	GateX:     {name: "x", qasm: "x", qubits: 1},
	GateY:     {name: "y", qasm: "y", qubits: 1},
	GateZ:     {name: "z", qasm: "z", qubits: 1},
	GateH:     {name: "h", qasm: "h", qubits: 1},
	GateS:     {name: "s", qasm: "s", qubits: 1},
	GateSdg:   {name: "sdag", qasm: "sdg", qubits: 1},
	GateT:     {name: "t", qasm: "t", qubits: 1},
	GateTdg:   {name: "tdag", qasm: "tdg", qubits: 1},
	GatePhase: {name: "ps", qasm: "p", qubits: 1, param: true},
	GateRX:    {name: "rx", qasm: "rx", qubits: 1, param: true},
	GateRY:    {name: "ry", qasm: "ry", qubits: 1, param: true},
	GateRZ:    {name: "rz", qasm: "rz", qubits: 1, param: true},
	GateSwap:  {name: "swap", qasm: "swap", qubits: 2},
	GateRXX:   {name: "rxx", qasm: "rxx", qubits: 2, param: true},
	GateRYY:   {name: "ryy", qasm: "ryy", qubits: 2, param: true},
	GateRZZ:   {name: "rzz", qasm: "rzz", qubits: 2, param: true},
}

var gateAliases = map[string]GateKind{
	"sdg":   GateSdg,
	"tdg":   GateTdg,
	"p":     GatePhase,
	"u1":    GatePhase,
	"phase": GatePhase,
}

// ParseGateKind resolves a gate name, case-insensitively, to its kind.
func ParseGateKind(name string) (GateKind, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for k, info := range gateTable {
		if info.name == key {
			return GateKind(k), nil
		}
	}
	if k, ok := gateAliases[key]; ok {
		return k, nil
	}
	return 0, &UnsupportedGateError{Name: name}
}

func (k GateKind) valid() bool { return k >= 0 && int(k) < len(gateTable) }

// String returns the record name of the gate ("x", "sdag", "rzz", ...).
func (k GateKind) String() string {
	if !k.valid() {
		return "unknown"
	}
	return gateTable[k].name
}

// Qubits returns how many target qubits the gate acts on.
func (k GateKind) Qubits() int {
	if !k.valid() {
		return 0
	}
	return gateTable[k].qubits
}

// Parametrized reports whether the gate matrix depends on an angle.
func (k GateKind) Parametrized() bool {
	return k.valid() && gateTable[k].param
}

var (
	invSqrt2 = complex(1/math.Sqrt2, 0)

	matX   = Matrix{0, 1, 1, 0}
	matY   = Matrix{0, -1i, 1i, 0}
	matZ   = Matrix{1, 0, 0, -1}
	matH   = Matrix{invSqrt2, invSqrt2, invSqrt2, -invSqrt2}
	matS   = Matrix{1, 0, 0, 1i}
	matSdg = Matrix{1, 0, 0, -1i}
	matT   = Matrix{1, 0, 0, cmplx.Exp(complex(0, math.Pi/4))}
	matTdg = Matrix{1, 0, 0, cmplx.Exp(complex(0, -math.Pi/4))}

	matSwap = Matrix{
		1, 0, 0, 0,
		0, 0, 1, 0,
		0, 1, 0, 0,
		0, 0, 0, 1,
	}
)

// MatrixFor returns the matrix of the gate. Parametrized gates require exactly one angle;
// fixed gates accept none. The returned matrix is a fresh copy the caller may modify.
func MatrixFor(kind GateKind, param ...float64) (Matrix, error) {
	if !kind.valid() {
		return nil, &UnsupportedGateError{Name: kind.String()}
	}
	want := 0
	if kind.Parametrized() {
		want = 1
	}
	if len(param) != want {
		return nil, invalid(kind.String(), "expected %d parameter(s), got %d", want, len(param))
	}

	switch kind {
	case GateX:
		return clone(matX), nil
	case GateY:
		return clone(matY), nil
	case GateZ:
		return clone(matZ), nil
	case GateH:
		return clone(matH), nil
	case GateS:
		return clone(matS), nil
	case GateSdg:
		return clone(matSdg), nil
	case GateT:
		return clone(matT), nil
	case GateTdg:
		return clone(matTdg), nil
	case GateSwap:
		return clone(matSwap), nil
	}
	return rotation(kind, param[0]), nil
}

func clone(m Matrix) Matrix {
	out := make(Matrix, len(m))
	copy(out, m)
	return out
}

// rotation builds exp(-i θ/2 G) for the rotation gates and diag(1, e^{iθ}) for the phase shift.
func rotation(kind GateKind, theta float64) Matrix {
	c := complex(math.Cos(theta/2), 0)
	s := complex(math.Sin(theta/2), 0)
	is := complex(0, math.Sin(theta/2))
	em := cmplx.Exp(complex(0, -theta/2))
	ep := cmplx.Exp(complex(0, theta/2))

	switch kind {
	case GatePhase:
		return Matrix{1, 0, 0, cmplx.Exp(complex(0, theta))}
	case GateRX:
		return Matrix{c, -is, -is, c}
	case GateRY:
		return Matrix{c, -s, s, c}
	case GateRZ:
		return Matrix{em, 0, 0, ep}
	case GateRXX:
		return Matrix{
			c, 0, 0, -is,
			0, c, -is, 0,
			0, -is, c, 0,
			-is, 0, 0, c,
		}
	case GateRYY:
		return Matrix{
			c, 0, 0, is,
			0, c, -is, 0,
			0, -is, c, 0,
			is, 0, 0, c,
		}
	case GateRZZ:
		return Matrix{
			em, 0, 0, 0,
			0, ep, 0, 0,
			0, 0, ep, 0,
			0, 0, 0, em,
		}
	}
	return nil
}
