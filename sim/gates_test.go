package sim

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allKinds() []GateKind {
	kinds := make([]GateKind, 0, len(gateTable))
	for k := range gateTable {
		kinds = append(kinds, GateKind(k))
	}
	return kinds
}

func matrixOf(t *testing.T, kind GateKind, theta float64) Matrix {
	t.Helper()
	var m Matrix
	var err error
	if kind.Parametrized() {
		m, err = MatrixFor(kind, theta)
	} else {
		m, err = MatrixFor(kind)
	}
	require.NoError(t, err)
	return m
}

func TestGateMatricesAreUnitary(t *testing.T) {
	for _, kind := range allKinds() {
		for _, theta := range []float64{0, 0.37, math.Pi / 3, -2.1} {
			m := matrixOf(t, kind, theta)
			d := m.Dim()
			require.Equal(t, 1<<kind.Qubits(), d, "gate %s", kind)

			for r := range d {
				for c := range d {
					var sum Complex
					for k := range d {
						sum += cmplx.Conj(m[k*d+r]) * m[k*d+c]
					}
					want := Complex(0)
					if r == c {
						want = 1
					}
					assert.InDelta(t, real(want), real(sum), 1e-12, "gate %s theta %g (%d,%d)", kind, theta, r, c)
					assert.InDelta(t, imag(want), imag(sum), 1e-12, "gate %s theta %g (%d,%d)", kind, theta, r, c)
				}
			}
		}
	}
}

func TestRotationValues(t *testing.T) {
	rx := matrixOf(t, GateRX, math.Pi)
	assert.InDelta(t, 0, cmplx.Abs(rx[0]), 1e-12)
	assert.InDelta(t, -1, imag(rx[1]), 1e-12)

	rz := matrixOf(t, GateRZ, math.Pi/2)
	assert.InDelta(t, -math.Pi/4, cmplx.Phase(rz[0]), 1e-12)
	assert.InDelta(t, math.Pi/4, cmplx.Phase(rz[3]), 1e-12)

	ps := matrixOf(t, GatePhase, math.Pi/2)
	assert.Equal(t, Complex(1), ps[0])
	assert.InDelta(t, 1, imag(ps[3]), 1e-12)

	rzz := matrixOf(t, GateRZZ, 0.8)
	assert.True(t, rzz.isDiagonal())
	assert.Equal(t, rzz[0], rzz[15])
	assert.Equal(t, rzz[5], rzz[10])
}

func TestMatrixForReturnsCopy(t *testing.T) {
	m := matrixOf(t, GateX, 0)
	m[0] = 42
	fresh := matrixOf(t, GateX, 0)
	assert.Equal(t, Complex(0), fresh[0])
}

func TestMatrixForParameterCount(t *testing.T) {
	_, err := MatrixFor(GateRX)
	var inv *InvalidInstructionError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, "rx", inv.Gate)

	_, err = MatrixFor(GateH, 1)
	require.ErrorAs(t, err, &inv)

	_, err = MatrixFor(GateKind(99))
	var unsupported *UnsupportedGateError
	require.ErrorAs(t, err, &unsupported)
}

func TestParseGateKind(t *testing.T) {
	tests := []struct {
		name string
		want GateKind
	}{
		{"x", GateX},
		{"H", GateH},
		{"sdag", GateSdg},
		{"sdg", GateSdg},
		{"tdag", GateTdg},
		{"ps", GatePhase},
		{"u1", GatePhase},
		{" rzz ", GateRZZ},
		{"swap", GateSwap},
	}
	for _, tt := range tests {
		got, err := ParseGateKind(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, err := ParseGateKind("foo")
	var unsupported *UnsupportedGateError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "foo", unsupported.Name)
}

func TestGateKindMetadata(t *testing.T) {
	assert.Equal(t, 2, GateRXX.Qubits())
	assert.Equal(t, 1, GateT.Qubits())
	assert.True(t, GateRY.Parametrized())
	assert.False(t, GateSwap.Parametrized())
	assert.Equal(t, "unknown", GateKind(-1).String())
	assert.Equal(t, 0, GateKind(-1).Qubits())
}
