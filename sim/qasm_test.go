package sim

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQASMBell(t *testing.T) {
	qasm := `OPENQASM 2.0;
include "qelib1.inc";

qreg q[2];
creg c[2];

h q[0]; // superpose
cx q[0], q[1];
barrier q[0], q[1];
measure q[0] -> c[0];
measure q[1] -> c[1];`

	c, err := ParseQASM(qasm)
	require.NoError(t, err)
	require.Equal(t, 2, c.NumQubits())
	require.Equal(t, 2, c.Len())

	cx := c.Instruction(1)
	assert.Equal(t, GateX, cx.Kind)
	assert.Equal(t, []int{1}, cx.Targets)
	assert.Equal(t, []int{0}, cx.Controls)
}

func TestParseQASMGateNames(t *testing.T) {
	qasm := `OPENQASM 2.0;
qreg q[3];
cnot q[2], q[0];
cu1(pi/4) q[0], q[1];
crz( -pi / 2 ) q[1], q[2];
sdg q[0];
cswap q[0], q[1], q[2];
rzz(theta) q[0], q[2];`

	c, err := ParseQASM(qasm)
	require.NoError(t, err)
	require.Equal(t, 6, c.Len())

	assert.Equal(t, GateX, c.Instruction(0).Kind)
	assert.Equal(t, []int{2}, c.Instruction(0).Controls)

	cu1 := c.Instruction(1)
	assert.Equal(t, GatePhase, cu1.Kind)
	assert.InDelta(t, math.Pi/4, cu1.Param.Value, 1e-12)

	crz := c.Instruction(2)
	assert.Equal(t, GateRZ, crz.Kind)
	assert.InDelta(t, -math.Pi/2, crz.Param.Value, 1e-12)

	assert.Equal(t, GateSdg, c.Instruction(3).Kind)

	cswap := c.Instruction(4)
	assert.Equal(t, GateSwap, cswap.Kind)
	assert.Equal(t, []int{1, 2}, cswap.Targets)

	assert.Equal(t, []string{"theta"}, c.Parameters())
}

func TestParseQASMErrors(t *testing.T) {
	tests := []struct {
		desc string
		qasm string
		msg  string
	}{
		{"gate before qreg", "h q[0];", "line 1: gate before qreg"},
		{"missing qreg", "OPENQASM 2.0;\n", "missing qreg"},
		{"two registers", "qreg q[1];\nqreg r[1];", "line 2: only one quantum register"},
		{"garbage", "qreg q[1];\nthis is not qasm", "line 2: cannot parse"},
		{"unknown gate", "qreg q[1];\nfoo q[0];", `unsupported gate "foo"`},
		{"out of range", "qreg q[2];\ncx q[0], q[2];", "out of range"},
		{"bad parameter", "qreg q[1];\nrx(1x) q[0];", "invalid parameter"},
		{"other register", "qreg q[2];\nx r[0];", `line 2: unknown register "r"`},
		{"mixed registers", "qreg q[2];\ncx q[0], r[1];", `unknown register "r"`},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			_, err := ParseQASM(tt.qasm)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	_, err := ParseQASM("qreg q[1];\nfoo q[0];")
	var unsupported *UnsupportedGateError
	assert.ErrorAs(t, err, &unsupported)
}

func TestQASMRoundTrip(t *testing.T) {
	b := NewBuilder(3)
	require.NoError(t, b.AddGate("rx", []int{0}, nil, Literal(math.Pi/2)))
	require.NoError(t, b.AddGate("ry", []int{1}, nil, Literal(3*math.Pi/4)))
	require.NoError(t, b.AddGate("rz", []int{1}, []int{0}, Literal(-math.Pi)))
	require.NoError(t, b.AddGate("ps", []int{2}, []int{1}, Symbol("phi")))
	require.NoError(t, b.AddGate("rxx", []int{0, 2}, nil, Literal(0.3)))
	require.NoError(t, b.AddGate("tdag", []int{2}, nil))
	c := b.Build()

	qasm, err := c.ToQASM(Bindings{"phi": math.Pi / 4})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(qasm, "OPENQASM 2.0;\n"))
	assert.Contains(t, qasm, "qreg q[3];")
	assert.Contains(t, qasm, "rx(pi/2) q[0];")
	assert.Contains(t, qasm, "ry(3*pi/4) q[1];")
	assert.Contains(t, qasm, "crz(-pi) q[0], q[1];")
	assert.Contains(t, qasm, "cu1(pi/4) q[1], q[2];")
	assert.Contains(t, qasm, "rxx(0.3) q[0], q[2];")
	assert.Contains(t, qasm, "tdg q[2];")

	c2, err := ParseQASM(qasm)
	require.NoError(t, err)
	require.Equal(t, c.Len(), c2.Len())
	for i := range c.Len() {
		want, got := c.Instruction(i), c2.Instruction(i)
		assert.Equal(t, want.Kind, got.Kind, "instruction %d", i)
		assert.Equal(t, want.Targets, got.Targets, "instruction %d", i)
		assert.Equal(t, len(want.Controls), len(got.Controls), "instruction %d", i)
	}
	assert.InDelta(t, math.Pi/4, c2.Instruction(3).Param.Value, 1e-12)

	_, err = c.ToQASM(nil)
	var unbound *UnboundParameterError
	assert.ErrorAs(t, err, &unbound)
}

func TestQASMRoundTripKeepsWidth(t *testing.T) {
	for _, n := range []int{0, 1, 4} {
		c := NewBuilder(n).Build()
		qasm, err := c.ToQASM(nil)
		require.NoError(t, err)

		c2, err := ParseQASM(qasm)
		require.NoError(t, err, qasm)
		assert.Equal(t, n, c2.NumQubits())
		assert.Zero(t, c2.Len())
	}

	c, err := ParseQASM("qreg data[2];\nh data[0];\ncx data[0], data[1];")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
}
