package bench

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(dir string) Config {
	cfg := DefaultConfig()
	cfg.DataDir = dir
	cfg.Trials = 3
	cfg.Warmup = 1
	cfg.Workers = 2
	cfg.GateWorkers = 1
	cfg.Timeout = time.Minute
	return cfg
}

func TestRunnerRunsEveryTask(t *testing.T) {
	dir := t.TempDir()
	writeData(t, dir, "random_circuit_qubit_2.json", bellRecords)
	writeData(t, dir, "simple_circuit_qubit_3.json.zst", `[{"name": "foo", "obj": [0], "ctrl": []}]`)
	writeData(t, dir, "regular_4_qubit_4.json", ringEdges)

	cfg := testConfig(dir)
	cases, err := DiscoverAll(dir, cfg.Tasks)
	require.NoError(t, err)
	require.Len(t, cases, 3)

	var mu sync.Mutex
	var seen []string
	r := NewRunner(cfg, quietLogger())
	results := r.Run(context.Background(), cases, func(res Result) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, res.Case)
	})
	require.Len(t, results, 3)
	assert.ElementsMatch(t, []string{cases[0].Name, cases[1].Name, cases[2].Name}, seen)

	bell := results[0]
	require.True(t, bell.OK(), bell.Err)
	assert.Equal(t, r.RunID(), bell.RunID)
	assert.Equal(t, "random_circuit_qubit_2.json", bell.Case)
	assert.Equal(t, 2, bell.Gates)
	assert.Equal(t, 2, bell.Depth)
	assert.Equal(t, 3, bell.Stats.Trials)
	assert.InDelta(t, 1, bell.Norm, 1e-12)
	require.Len(t, bell.States, 2)
	assert.Equal(t, "00", bell.States[0].Bits)
	assert.Equal(t, "11", bell.States[1].Bits)

	broken := results[1]
	assert.False(t, broken.OK())
	assert.Contains(t, broken.Err, `unsupported gate "foo"`)

	qaoa := results[2]
	require.True(t, qaoa.OK(), qaoa.Err)
	assert.Equal(t, "regular_4", qaoa.Task)
	assert.Equal(t, 3, qaoa.Stats.Trials)
	assert.LessOrEqual(t, math.Abs(qaoa.Value), 4.0)
	assert.Positive(t, qaoa.GradNorm)
}

func TestRunnerQAOAIsReproducible(t *testing.T) {
	dir := t.TempDir()
	writeData(t, dir, "regular_4_qubit_4.json", ringEdges)
	cfg := testConfig(dir)
	cfg.Tasks = []string{"regular_4"}
	cfg.QAOASteps = 3
	cases, err := DiscoverAll(dir, cfg.Tasks)
	require.NoError(t, err)

	a := NewRunner(cfg, quietLogger()).Run(context.Background(), cases, nil)
	b := NewRunner(cfg, quietLogger()).Run(context.Background(), cases, nil)
	require.True(t, a[0].OK(), a[0].Err)
	assert.Equal(t, a[0].Value, b[0].Value)
	assert.Equal(t, 3, a[0].Steps)
	assert.NotEqual(t, a[0].RunID, b[0].RunID)
}

func TestRunnerRecordsCancellation(t *testing.T) {
	dir := t.TempDir()
	writeData(t, dir, "random_circuit_qubit_2.json", bellRecords)
	cases, err := DiscoverAll(dir, []string{"random_circuit"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := NewRunner(testConfig(dir), quietLogger()).RunCase(ctx, cases[0])
	assert.False(t, res.OK())
	assert.Contains(t, res.Err, "context canceled")
	assert.Equal(t, 2, res.Gates)
}
