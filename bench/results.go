package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"math/bits"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"

	"qbench/sim"
)

// Result is the outcome of one case. A failed case carries Err and whatever was
// measured before the failure.
type Result struct {
	RunID   string    `json:"run_id"`
	Task    string    `json:"task"`
	Case    string    `json:"case"`
	Qubits  int       `json:"qubits"`
	Gates   int       `json:"gates"`
	Depth   int       `json:"depth"`
	Started time.Time `json:"started"`
	Stats   Stats     `json:"stats"`

	Norm   float64 `json:"norm,omitempty"`
	States []State `json:"states,omitempty"`

	Value    float64 `json:"qaoa_value,omitempty"`
	GradNorm float64 `json:"qaoa_grad_norm,omitempty"`
	Steps    int     `json:"qaoa_steps,omitempty"`

	Err string `json:"error,omitempty"`
}

// OK reports whether the case completed.
func (r Result) OK() bool { return r.Err == "" }

// State is a populated basis state of the final state of a circuit case.
type State struct {
	Index int     `json:"index"`
	Bits  string  `json:"bits"`
	Prob  float64 `json:"prob"`
	Phase float64 `json:"phase"`
}

// statesOf converts the most probable basis states to their report form. Bits are
// printed most significant qubit first.
func statesOf(numQubits int, top []sim.BasisState) []State {
	out := make([]State, len(top))
	for i, s := range top {
		out[i] = State{
			Index: s.Index,
			Bits:  fmt.Sprintf("%0*b", max(numQubits, 1), s.Index),
			Prob:  s.Prob,
			Phase: s.Phase,
		}
	}
	return out
}

// NewRunID returns a fresh identifier shared by the results of one run.
func NewRunID() string { return uuid.NewString() }

// AppendJSONL appends one JSON object per result to path, creating the file if needed.
func AppendJSONL(path string, results []Result) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open results: %w", err)
	}
	enc := json.NewEncoder(f)
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			_ = f.Close()
			return fmt.Errorf("write results: %w", err)
		}
	}
	return f.Close()
}

// ReadJSONL reads results written by AppendJSONL.
func ReadJSONL(r io.Reader) ([]Result, error) {
	var out []Result
	dec := json.NewDecoder(r)
	for dec.More() {
		var res Result
		if err := dec.Decode(&res); err != nil {
			return out, fmt.Errorf("read results: %w", err)
		}
		out = append(out, res)
	}
	return out, nil
}

// WriteTable renders results as a text table.
func WriteTable(w io.Writer, results []Result) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Task", "Case", "Qubits", "Gates", "Depth", "Trials", "Mean", "Min", "Max", "StdDev", "Result"})
	table.SetAutoWrapText(false)
	for _, r := range results {
		table.Append([]string{
			r.Task,
			r.Case,
			strconv.Itoa(r.Qubits),
			strconv.Itoa(r.Gates),
			strconv.Itoa(r.Depth),
			strconv.Itoa(r.Stats.Trials),
			FormatDuration(r.Stats.Mean),
			FormatDuration(r.Stats.Min),
			FormatDuration(r.Stats.Max),
			FormatDuration(r.Stats.StdDev),
			r.Summary(),
		})
	}
	table.Render()
}

// Summary is a one-line description of the outcome.
func (r Result) Summary() string {
	switch {
	case !r.OK():
		return "error: " + r.Err
	case r.isQAOA():
		return fmt.Sprintf("<C>=%.6f |g|=%.3g", r.Value, r.GradNorm)
	default:
		return fmt.Sprintf("norm=%.12f", r.Norm)
	}
}

func (r Result) isQAOA() bool {
	t, ok := LookupTask(r.Task)
	return ok && t.Kind == KindQAOA
}

// FormatDuration prints a duration with three significant digits.
func FormatDuration(d time.Duration) string {
	switch {
	case d == 0:
		return "-"
	case d < time.Microsecond:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	case d < time.Millisecond:
		return fmt.Sprintf("%.3gµs", float64(d)/float64(time.Microsecond))
	case d < time.Second:
		return fmt.Sprintf("%.3gms", float64(d)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%.3gs", d.Seconds())
	}
}

// StateBytes is the memory taken by the state vector of n qubits.
func StateBytes(n int) uint64 {
	return 16 << uint(n)
}

// FormatBytes prints a byte count with a binary unit.
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	exp := (bits.Len64(n) - 1) / 10
	return fmt.Sprintf("%.3g%ciB", float64(n)/float64(uint64(1)<<(10*exp)), "KMGTPE"[exp-1])
}
