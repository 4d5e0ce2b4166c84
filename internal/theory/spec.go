package theory

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Spec is a degree, note, chord or Nashville chord as a caller
// supplies it: a bare integer such as 3, or text such as "b3", "3:5",
// "C#:2" or "CM7:3". Parsing into a structured token happens once, in the
// Parse* functions.
type Spec struct {
	text  string
	num   int
	isNum bool
}

// Int returns a numeric spec.
func Int(n int) Spec {
	return Spec{num: n, isNum: true}
}

// Str returns a text spec.
func Str(s string) Spec {
	return Spec{text: s}
}

// Specs builds a spec list from ints, strings and Specs. It panics on any
// other type and is meant for table literals.
func Specs(vals ...any) []Spec {
	out := make([]Spec, len(vals))
	for i, v := range vals {
		switch val := v.(type) {
		case int:
			out[i] = Int(val)
		case string:
			out[i] = Str(val)
		case Spec:
			out[i] = val
		default:
			panic(fmt.Sprintf("theory: unsupported spec value %v (%T)", v, v))
		}
	}
	return out
}

// Int reports the numeric value of a numeric spec.
func (s Spec) Int() (int, bool) {
	return s.num, s.isNum
}

func (s Spec) String() string {
	if s.isNum {
		return strconv.Itoa(s.num)
	}
	return s.text
}

// MarshalJSON encodes numeric specs as JSON numbers and text specs as strings.
func (s Spec) MarshalJSON() ([]byte, error) {
	if s.isNum {
		return json.Marshal(s.num)
	}
	return json.Marshal(s.text)
}

// UnmarshalJSON accepts either a JSON integer or a JSON string.
func (s *Spec) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return fmt.Errorf("%w: spec is null", ErrMalformedSpec)
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*s = Int(n)
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*s = Str(text)
		return nil
	}
	return fmt.Errorf("%w: spec must be an integer or a string, got %s", ErrMalformedSpec, data)
}
