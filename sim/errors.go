package sim

import (
	"errors"
	"fmt"
)

// ErrCircuitBuilt is returned when a sealed builder is asked to accept more gates.
var ErrCircuitBuilt = errors.New("circuit already built")

// InvalidInstructionError reports a gate instruction that cannot be placed on the circuit:
// out-of-range qubit, overlapping targets and controls, wrong arity or a bad parameter.
type InvalidInstructionError struct {
	Gate   string
	Reason string
}

func (e *InvalidInstructionError) Error() string {
	return fmt.Sprintf("invalid instruction %q: %s", e.Gate, e.Reason)
}

func invalid(gate, format string, args ...any) error {
	return &InvalidInstructionError{Gate: gate, Reason: fmt.Sprintf(format, args...)}
}

// UnsupportedGateError reports a gate name that the gate library does not know.
type UnsupportedGateError struct {
	Name string
}

func (e *UnsupportedGateError) Error() string {
	return fmt.Sprintf("unsupported gate %q", e.Name)
}

// UnboundParameterError reports a symbolic parameter with no value in the bindings.
type UnboundParameterError struct {
	Name string
}

func (e *UnboundParameterError) Error() string {
	return fmt.Sprintf("unbound parameter %q", e.Name)
}

// DimensionMismatchError reports a size that does not fit the qubit count in use.
//
// What names the offending input ("circuit", "state", "observable", ...).
type DimensionMismatchError struct {
	What     string
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s dimension mismatch: expected %d, got %d", e.What, e.Expected, e.Actual)
}
