package rbxtypes

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Float is a 32-bit float as the host stores it. It encodes with the
// shortest representation that parses back to the same bits.
// Non-finite values encode as the strings "NaN", "Infinity" and "-Infinity".
type Float float32

// Double is the 64-bit counterpart of Float.
type Double float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	return appendFloat(nil, float64(f), 32), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Float) UnmarshalJSON(b []byte) error {
	v, err := parseFloat(b, 32)
	if err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Double) MarshalJSON() ([]byte, error) {
	return appendFloat(nil, float64(d), 64), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Double) UnmarshalJSON(b []byte) error {
	v, err := parseFloat(b, 64)
	if err != nil {
		return err
	}
	*d = Double(v)
	return nil
}

func appendFloat(b []byte, v float64, bits int) []byte {
	switch {
	case math.IsNaN(v):
		return append(b, `"NaN"`...)
	case math.IsInf(v, 1):
		return append(b, `"Infinity"`...)
	case math.IsInf(v, -1):
		return append(b, `"-Infinity"`...)
	}
	return strconv.AppendFloat(b, v, 'g', -1, bits)
}

func parseFloat(b []byte, bits int) (float64, error) {
	if len(b) == 0 {
		return 0, fmt.Errorf("empty number")
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return 0, err
		}
		switch s {
		case "NaN":
			return math.NaN(), nil
		case "Infinity":
			return math.Inf(1), nil
		case "-Infinity":
			return math.Inf(-1), nil
		}
		return 0, fmt.Errorf("invalid float literal %q", s)
	}
	if string(b) == "null" {
		return 0, fmt.Errorf("expected number, got null")
	}
	v, err := strconv.ParseFloat(string(b), bits)
	if err != nil {
		return 0, fmt.Errorf("invalid float %s: %w", b, err)
	}
	return v, nil
}
