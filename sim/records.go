package sim

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Record is one gate in the serialized circuit format:
//
//	{"name": "rx", "obj": [1], "ctrl": [0], "val": 0.25}
//
// Val may be a JSON number, an angle expression string such as "pi/2", or the name of
// a parameter to be bound at application time.
type Record struct {
	Name string     `json:"name"`
	Obj  []int      `json:"obj"`
	Ctrl []int      `json:"ctrl"`
	Val  *RecordVal `json:"val,omitempty"`
}

// RecordVal is the optional parameter of a Record.
type RecordVal struct {
	Param Param
}

// UnmarshalJSON accepts numbers and strings.
func (v *RecordVal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		p, err := ParseParam(s)
		if err != nil {
			return err
		}
		v.Param = p
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid gate value %s: %w", data, err)
	}
	v.Param = Literal(f)
	return nil
}

// MarshalJSON writes literals as numbers and symbols as strings.
func (v RecordVal) MarshalJSON() ([]byte, error) {
	if v.Param.IsSymbolic() {
		return json.Marshal(v.Param.Name)
	}
	return json.Marshal(v.Param.Value)
}

// DecodeRecords reads a JSON array of records.
func DecodeRecords(r io.Reader) ([]Record, error) {
	var recs []Record
	if err := json.NewDecoder(r).Decode(&recs); err != nil {
		return nil, fmt.Errorf("decode circuit records: %w", err)
	}
	return recs, nil
}

// FromRecords builds a circuit from serialized records. Unknown gate names fail with
// UnsupportedGateError before anything is applied; a parametrized record without a
// value binds the angle 0.
func FromRecords(numQubits int, recs []Record) (*Circuit, error) {
	b := NewBuilder(numQubits)
	for i, rec := range recs {
		kind, err := ParseGateKind(rec.Name)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		var params []Param
		if kind.Parametrized() {
			p := Literal(0)
			if rec.Val != nil {
				p = rec.Val.Param
			}
			params = append(params, p)
		}
		if err := b.Add(kind, rec.Obj, rec.Ctrl, params...); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return b.Build(), nil
}

// Records converts the circuit back into the serialized form.
func (c *Circuit) Records() []Record {
	recs := make([]Record, 0, len(c.instructions))
	for _, g := range c.instructions {
		rec := Record{
			Name: g.Kind.String(),
			Obj:  append([]int{}, g.Targets...),
			Ctrl: append([]int{}, g.Controls...),
		}
		if g.Kind.Parametrized() {
			rec.Val = &RecordVal{Param: g.Param}
		}
		recs = append(recs, rec)
	}
	return recs
}
