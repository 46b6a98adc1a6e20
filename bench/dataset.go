// Package bench runs the statevector engine over benchmark datasets: random and simple
// gate-set circuits, and QAOA MaxCut instances on 4-regular graphs.
package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"qbench/sim"
)

// Kind tells how the data files of a task are interpreted.
type Kind int

const (
	// KindCircuit files hold a JSON array of gate records.
	KindCircuit Kind = iota
	// KindQAOA files hold a JSON array of graph edges.
	KindQAOA
)

func (k Kind) String() string {
	if k == KindQAOA {
		return "qaoa"
	}
	return "circuit"
}

// Task is one benchmark family: files whose names start with Name, at most Limit of
// them after sorting.
type Task struct {
	Name  string
	Limit int
	Kind  Kind
}

var tasks = []Task{
	{Name: "random_circuit", Limit: 24, Kind: KindCircuit},
	{Name: "simple_circuit", Limit: 24, Kind: KindCircuit},
	{Name: "regular_4", Limit: 3, Kind: KindQAOA},
}

// Tasks returns the known benchmark tasks.
func Tasks() []Task { return append([]Task(nil), tasks...) }

// TaskNames returns the names of the known tasks.
func TaskNames() []string {
	names := make([]string, len(tasks))
	for i, t := range tasks {
		names[i] = t.Name
	}
	return names
}

// LookupTask returns the task with the given name.
func LookupTask(name string) (Task, bool) {
	for _, t := range tasks {
		if t.Name == name {
			return t, true
		}
	}
	return Task{}, false
}

var qubitRegex = regexp.MustCompile(`qubit_(\d+)`)

// Case is one data file of a task.
type Case struct {
	Task   Task
	Name   string // file name without directory
	Path   string
	Qubits int
}

// Discover lists the data files of task in dir, sorted by name and truncated to the
// task limit. The qubit count of each case is taken from the "qubit_<n>" token of its
// file name.
func Discover(dir string, task Task) ([]Case, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list data dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && strings.HasPrefix(entry.Name(), task.Name) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	if task.Limit > 0 && len(names) > task.Limit {
		names = names[:task.Limit]
	}

	cases := make([]Case, 0, len(names))
	for _, name := range names {
		n, err := QubitsFromName(name)
		if err != nil {
			return nil, err
		}
		cases = append(cases, Case{Task: task, Name: name, Path: filepath.Join(dir, name), Qubits: n})
	}
	return cases, nil
}

// DiscoverAll runs Discover for each named task, in order.
func DiscoverAll(dir string, taskNames []string) ([]Case, error) {
	var all []Case
	for _, name := range taskNames {
		task, ok := LookupTask(name)
		if !ok {
			return nil, fmt.Errorf("unknown task %q", name)
		}
		cases, err := Discover(dir, task)
		if err != nil {
			return nil, err
		}
		all = append(all, cases...)
	}
	return all, nil
}

// CaseFor describes a single data file outside of discovery. The task is chosen by
// file name prefix and defaults to a circuit task.
func CaseFor(path string) (Case, error) {
	name := filepath.Base(path)
	n, err := QubitsFromName(name)
	if err != nil {
		return Case{}, err
	}
	task := Task{Name: "circuit", Kind: KindCircuit}
	for _, t := range tasks {
		if strings.HasPrefix(name, t.Name) {
			task = t
			break
		}
	}
	return Case{Task: task, Name: name, Path: path, Qubits: n}, nil
}

// QubitsFromName parses the qubit count from a "qubit_<n>" token.
func QubitsFromName(name string) (int, error) {
	m := qubitRegex.FindStringSubmatch(name)
	if m == nil {
		return 0, fmt.Errorf("%s: no qubit_<n> token in file name", name)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n > sim.MaxQubits {
		return 0, fmt.Errorf("%s: unusable qubit count %q", name, m[1])
	}
	return n, nil
}

// Workload is the decoded content of a case.
type Workload struct {
	Case    Case
	Circuit *sim.Circuit // KindCircuit
	Edges   [][2]int     // KindQAOA
}

// Load reads and decodes the data file of c. Files ending in .gz or .zst are
// decompressed on the fly.
func Load(c Case) (*Workload, error) {
	rc, err := openData(c.Path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	w := &Workload{Case: c}
	switch c.Task.Kind {
	case KindQAOA:
		var raw [][]int
		if err := json.NewDecoder(rc).Decode(&raw); err != nil {
			return nil, fmt.Errorf("%s: decode edges: %w", c.Name, err)
		}
		if w.Edges, err = edgePairs(raw); err != nil {
			return nil, fmt.Errorf("%s: %w", c.Name, err)
		}
		if err := checkEdges(c.Qubits, w.Edges); err != nil {
			return nil, fmt.Errorf("%s: %w", c.Name, err)
		}
	default:
		recs, err := sim.DecodeRecords(rc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Name, err)
		}
		if w.Circuit, err = sim.FromRecords(c.Qubits, recs); err != nil {
			return nil, fmt.Errorf("%s: %w", c.Name, err)
		}
	}
	return w, nil
}

// edgePairs converts decoded edge entries to pairs. Every entry must hold exactly two
// qubit indices.
func edgePairs(raw [][]int) ([][2]int, error) {
	edges := make([][2]int, len(raw))
	for i, e := range raw {
		if len(e) != 2 {
			return nil, fmt.Errorf("edge %d has %d entries %v, want a qubit pair", i, len(e), e)
		}
		edges[i] = [2]int{e[0], e[1]}
	}
	return edges, nil
}

func checkEdges(n int, edges [][2]int) error {
	for i, e := range edges {
		if e[0] < 0 || e[0] >= n || e[1] < 0 || e[1] >= n || e[0] == e[1] {
			return fmt.Errorf("edge %d (%d, %d) is not a pair of distinct qubits below %d", i, e[0], e[1], n)
		}
	}
	return nil
}

func openData(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}

	switch {
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("%s: gzip: %w", path, err)
		}
		return &stackedCloser{Reader: zr, closers: []io.Closer{zr, f}}, nil
	case strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("%s: zstd: %w", path, err)
		}
		return &stackedCloser{Reader: dec, closers: []io.Closer{dec.IOReadCloser(), f}}, nil
	}
	return f, nil
}

// stackedCloser reads from the outermost decoder and closes every layer in order.
type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
