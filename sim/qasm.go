package sim

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Pre-compiled regexps for QASM parsing.
var (
	qregRegex    = regexp.MustCompile(`^qreg\s+(\w+)\s*\[\s*(\d+)\s*\]\s*;?$`)
	gateRegex    = regexp.MustCompile(`^(\w+)\s*(?:\(\s*([^)]*?)\s*\))?\s+(\w+\s*\[\s*\d+\s*\](?:\s*,\s*\w+\s*\[\s*\d+\s*\])*)\s*;?$`)
	qubitRegex   = regexp.MustCompile(`(\w+)\s*\[\s*(\d+)\s*\]`)
	skipPrefixes = []string{"OPENQASM", "include", "creg", "barrier", "measure"}
)

// ToQASM generates OpenQASM 2.0 for the circuit. Symbolic parameters are resolved from b;
// an unbound symbol fails with UnboundParameterError.
func (c *Circuit) ToQASM(b Bindings) (string, error) {
	var sb strings.Builder
	sb.WriteString("OPENQASM 2.0;\n")
	sb.WriteString("include \"qelib1.inc\";\n\n")
	fmt.Fprintf(&sb, "qreg q[%d];\n\n", c.numQubits)

	for _, g := range c.instructions {
		name := gateTable[g.Kind].qasm
		if g.Controlled() {
			name = "c" + name
			if g.Kind == GatePhase {
				name = "cu1"
			}
		}
		sb.WriteString(name)
		if g.Kind.Parametrized() {
			theta, err := g.Param.Resolve(b)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, "(%s)", FormatAngle(theta))
		}
		for i, q := range append(append([]int{}, g.Controls...), g.Targets...) {
			if i == 0 {
				sb.WriteString(" ")
			} else {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "q[%d]", q)
		}
		sb.WriteString(";\n")
	}

	return sb.String(), nil
}

// ParseQASM parses the OpenQASM 2.0 subset this simulator supports: one quantum
// register, the gates of the library, their single-control "c" forms, and numeric,
// pi-expression or symbolic parameters. Measurements and barriers are ignored.
func ParseQASM(qasm string) (*Circuit, error) {
	var b *Builder
	var reg string

	for lineNo, line := range strings.Split(qasm, "\n") {
		line = strings.TrimSpace(line)
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if line == "" || hasAnyPrefix(line, skipPrefixes) {
			continue
		}

		if matches := qregRegex.FindStringSubmatch(line); matches != nil {
			if b != nil {
				return nil, fmt.Errorf("line %d: only one quantum register is supported", lineNo+1)
			}
			n, _ := strconv.Atoi(matches[2])
			reg = matches[1]
			b = NewBuilder(n)
			continue
		}

		matches := gateRegex.FindStringSubmatch(line)
		if matches == nil {
			return nil, fmt.Errorf("line %d: cannot parse %q", lineNo+1, line)
		}
		if b == nil {
			return nil, fmt.Errorf("line %d: gate before qreg declaration", lineNo+1)
		}

		kind, controlled, err := parseQASMGateName(matches[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
		}

		var qubits []int
		for _, ref := range qubitRegex.FindAllStringSubmatch(matches[3], -1) {
			if ref[1] != reg {
				return nil, fmt.Errorf("line %d: unknown register %q, declared %q", lineNo+1, ref[1], reg)
			}
			q, _ := strconv.Atoi(ref[2])
			qubits = append(qubits, q)
		}
		var controls, targets []int
		if controlled {
			if len(qubits) == 0 {
				return nil, fmt.Errorf("line %d: controlled gate without qubits", lineNo+1)
			}
			controls, targets = qubits[:1], qubits[1:]
		} else {
			targets = qubits
		}

		var params []Param
		if matches[2] != "" {
			p, err := parseQASMParam(matches[2])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
			}
			params = append(params, p)
		}

		if err := b.Add(kind, targets, controls, params...); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
		}
	}

	if b == nil {
		return nil, fmt.Errorf("missing qreg declaration")
	}
	return b.Build(), nil
}

// parseQASMGateName maps "cx", "crz", "cu1", ... to a kind plus a control flag.
func parseQASMGateName(name string) (GateKind, bool, error) {
	lower := strings.ToLower(name)
	if kind, err := ParseGateKind(lower); err == nil {
		return kind, false, nil
	}
	if lower == "cnot" {
		return GateX, true, nil
	}
	if strings.HasPrefix(lower, "c") {
		if kind, err := ParseGateKind(lower[1:]); err == nil {
			return kind, true, nil
		}
	}
	return 0, false, &UnsupportedGateError{Name: name}
}

func parseQASMParam(s string) (Param, error) {
	return ParseParam(strings.ReplaceAll(s, " ", ""))
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
