package sim

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// piExprRegex matches [-][coeff][*]pi[/denom], e.g. "pi", "-2pi", "3*pi/4".
var piExprRegex = regexp.MustCompile(`^(-?)(\d*\.?\d*)\s*\*?\s*pi(?:\s*/\s*(\d+\.?\d*))?$`)

// symbolRegex matches parameter names usable as symbolic gate parameters.
var symbolRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_\[\]\.]*$`)

// angleDenominators are the pi fractions FormatAngle writes symbolically, smallest first
// so that fractions come out reduced.
var angleDenominators = []float64{1, 2, 3, 4, 6, 8}

// ParseAngle parses a finite float ("0.5", "3.14e-2") or a multiple of pi
// ("pi/2", "2pi", "-3*pi/4"). Case and surrounding spaces are ignored.
func ParseAngle(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	if val, err := strconv.ParseFloat(s, 64); err == nil {
		return val, !math.IsInf(val, 0) && !math.IsNaN(val)
	}
	return parsePiMultiple(s)
}

func parsePiMultiple(s string) (float64, bool) {
	m := piExprRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	sign, coeff, denom := 1.0, 1.0, 1.0
	if m[1] == "-" {
		sign = -1
	}
	var err error
	if m[2] != "" {
		if coeff, err = strconv.ParseFloat(m[2], 64); err != nil {
			return 0, false
		}
	}
	if m[3] != "" {
		if denom, err = strconv.ParseFloat(m[3], 64); err != nil || denom == 0 {
			return 0, false
		}
	}
	return sign * coeff * math.Pi / denom, true
}

// FormatAngle writes k*pi/d for angles within two turns that sit on one of the
// angleDenominators, and a shortest float otherwise. The output parses back with
// ParseAngle.
func FormatAngle(val float64) string {
	for _, d := range angleDenominators {
		k := math.Round(val * d / math.Pi)
		if k == 0 || math.Abs(k) > 2*d || math.Abs(val-k*math.Pi/d) >= 1e-10 {
			continue
		}
		var sb strings.Builder
		if k < 0 {
			sb.WriteByte('-')
		}
		if a := math.Abs(k); a != 1 {
			fmt.Fprintf(&sb, "%g*", a)
		}
		sb.WriteString("pi")
		if d != 1 {
			fmt.Fprintf(&sb, "/%g", d)
		}
		return sb.String()
	}
	return strconv.FormatFloat(val, 'g', -1, 64)
}

// Param is the parameter of a gate instruction: either a literal angle or a symbolic
// name that is resolved from Bindings when the circuit is applied.
type Param struct {
	Name  string
	Value float64
	set   bool
}

// Literal returns a parameter with a fixed angle.
func Literal(v float64) Param { return Param{Value: v, set: true} }

// Symbol returns a parameter resolved by name at application time.
func Symbol(name string) Param { return Param{Name: name, set: true} }

// IsSet reports whether the parameter carries a literal or a symbol.
func (p Param) IsSet() bool { return p.set }

// IsSymbolic reports whether the parameter is resolved from bindings.
func (p Param) IsSymbolic() bool { return p.set && p.Name != "" }

// Resolve returns the angle of the parameter under the given bindings.
func (p Param) Resolve(b Bindings) (float64, error) {
	if !p.IsSymbolic() {
		return p.Value, nil
	}
	v, ok := b[p.Name]
	if !ok {
		return 0, &UnboundParameterError{Name: p.Name}
	}
	return v, nil
}

func (p Param) String() string {
	switch {
	case !p.set:
		return ""
	case p.Name != "":
		return p.Name
	default:
		return FormatAngle(p.Value)
	}
}

// ParseParam interprets a textual parameter: an angle expression becomes a literal,
// an identifier becomes a symbol.
func ParseParam(s string) (Param, error) {
	if v, ok := ParseAngle(s); ok {
		return Literal(v), nil
	}
	s = strings.TrimSpace(s)
	if symbolRegex.MatchString(s) {
		return Symbol(s), nil
	}
	return Param{}, fmt.Errorf("invalid parameter %q: use a number, a pi expression or a name", s)
}

// Bindings maps parameter names to their values.
type Bindings map[string]float64

// With returns a copy of b with name set to v.
func (b Bindings) With(name string, v float64) Bindings {
	out := make(Bindings, len(b)+1)
	for k, val := range b {
		out[k] = val
	}
	out[name] = v
	return out
}

// BindVector binds values[i] to names[i]; the two slices must have the same length.
func BindVector(names []string, values []float64) (Bindings, error) {
	if len(names) != len(values) {
		return nil, &DimensionMismatchError{What: "parameter vector", Expected: len(names), Actual: len(values)}
	}
	b := make(Bindings, len(names))
	for i, name := range names {
		b[name] = values[i]
	}
	return b, nil
}
