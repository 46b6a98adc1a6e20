package bench

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeData(t, dir, "random_circuit_qubit_3_b.json", bellRecords)
	writeData(t, dir, "random_circuit_qubit_2_a.json", bellRecords)
	writeData(t, dir, "simple_circuit_qubit_2.json", bellRecords)
	writeData(t, dir, "regular_4_qubit_4.json", ringEdges)
	writeData(t, dir, "notes.txt", "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "random_circuit_qubit_9_dir"), 0o755))

	task, ok := LookupTask("random_circuit")
	require.True(t, ok)
	cases, err := Discover(dir, task)
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, "random_circuit_qubit_2_a.json", cases[0].Name)
	assert.Equal(t, 2, cases[0].Qubits)
	assert.Equal(t, 3, cases[1].Qubits)
	assert.Equal(t, filepath.Join(dir, "random_circuit_qubit_3_b.json"), cases[1].Path)

	limited, err := Discover(dir, Task{Name: "random_circuit", Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "random_circuit_qubit_2_a.json", limited[0].Name)

	all, err := DiscoverAll(dir, TaskNames())
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, KindQAOA, all[3].Task.Kind)

	_, err = DiscoverAll(dir, []string{"nope"})
	assert.Error(t, err)
	_, err = Discover(filepath.Join(dir, "missing"), task)
	assert.Error(t, err)
}

func TestDiscoverRejectsNamesWithoutQubits(t *testing.T) {
	dir := t.TempDir()
	writeData(t, dir, "simple_circuit_small.json", bellRecords)
	task, _ := LookupTask("simple_circuit")
	_, err := Discover(dir, task)
	assert.ErrorContains(t, err, "qubit_<n>")
}

func TestTaskLimits(t *testing.T) {
	want := map[string]int{"random_circuit": 24, "simple_circuit": 24, "regular_4": 3}
	for _, task := range Tasks() {
		assert.Equal(t, want[task.Name], task.Limit, task.Name)
	}
}

func TestLoadCompressedCircuits(t *testing.T) {
	dir := t.TempDir()
	task, _ := LookupTask("random_circuit")
	for _, name := range []string{
		"random_circuit_qubit_2.json",
		"random_circuit_qubit_2.json.gz",
		"random_circuit_qubit_2.json.zst",
	} {
		path := writeData(t, dir, name, bellRecords)
		w, err := Load(Case{Task: task, Name: name, Path: path, Qubits: 2})
		require.NoError(t, err, name)
		require.NotNil(t, w.Circuit, name)
		assert.Equal(t, 2, w.Circuit.Len(), name)
	}
}

func TestLoadEdges(t *testing.T) {
	dir := t.TempDir()
	task, _ := LookupTask("regular_4")
	path := writeData(t, dir, "regular_4_qubit_4.json.gz", ringEdges)

	w, err := Load(Case{Task: task, Name: "regular_4_qubit_4.json.gz", Path: path, Qubits: 4})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}}, w.Edges)

	_, err = Load(Case{Task: task, Name: "small", Path: path, Qubits: 3})
	assert.ErrorContains(t, err, "distinct qubits")
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	task, _ := LookupTask("simple_circuit")

	path := writeData(t, dir, "simple_circuit_qubit_1.json", `[{"name": "foo", "obj": [0], "ctrl": []}]`)
	_, err := Load(Case{Task: task, Name: "bad", Path: path, Qubits: 1})
	assert.ErrorContains(t, err, `unsupported gate "foo"`)

	path = writeData(t, dir, "simple_circuit_qubit_1.json.gz", "")
	_, err = os.Stat(path)
	require.NoError(t, err)
	_, err = Load(Case{Task: task, Name: "empty", Path: path, Qubits: 1})
	assert.Error(t, err)

	_, err = Load(Case{Task: task, Name: "missing", Path: filepath.Join(dir, "missing.json"), Qubits: 1})
	assert.Error(t, err)

	graph, _ := LookupTask("regular_4")
	path = writeData(t, dir, "regular_4_qubit_4_weighted.json", `[[0, 1, 2], [1, 2, 7], [2, 3], [3, 0]]`)
	_, err = Load(Case{Task: graph, Name: "weighted", Path: path, Qubits: 4})
	assert.ErrorContains(t, err, "edge 0 has 3 entries")

	path = writeData(t, dir, "regular_4_qubit_4_short.json", `[[0, 1], [2]]`)
	_, err = Load(Case{Task: graph, Name: "short", Path: path, Qubits: 4})
	assert.ErrorContains(t, err, "edge 1 has 1 entries")

	path = writeData(t, dir, "regular_4_qubit_4_loop.json", `[[0, 1], [2, 2]]`)
	_, err = Load(Case{Task: graph, Name: "loop", Path: path, Qubits: 4})
	assert.ErrorContains(t, err, "edge 1 (2, 2)")
}

func TestCaseFor(t *testing.T) {
	c, err := CaseFor("/data/regular_4_qubit_12_seed_3.json.zst")
	require.NoError(t, err)
	assert.Equal(t, KindQAOA, c.Task.Kind)
	assert.Equal(t, 12, c.Qubits)
	assert.Equal(t, "regular_4_qubit_12_seed_3.json.zst", c.Name)

	c, err = CaseFor("mine_qubit_5.json")
	require.NoError(t, err)
	assert.Equal(t, KindCircuit, c.Task.Kind)

	_, err = CaseFor("mine.json")
	assert.Error(t, err)
	_, err = CaseFor("random_circuit_qubit_99.json")
	assert.Error(t, err)
}
