package rbxtypes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownVariant is returned when a value carries a type tag this
// package does not know.
var ErrUnknownVariant = errors.New("unknown value type")

var (
	errNullPayload    = errors.New("value must not be null")
	errMissingPayload = errors.New("missing value")
)

// DecodeError reports a value that could not be decoded. Name is the
// property or attribute it belongs to, when known.
type DecodeError struct {
	Name string
	Type string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("decode %s (%s): %v", e.Name, e.Type, e.Err)
	}
	if e.Type != "" {
		return fmt.Sprintf("decode %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("decode value: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

type tagged struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// Marshal encodes v like json.Marshal but leaves <, > and & unescaped, so
// strings reach the host and the disk with the bytes they arrived with.
// json.Marshal re-escapes the output of every MarshalJSON it calls, so any
// encoder carrying these values must disable HTML escaping too.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func marshalTagged(tag string, payload any) ([]byte, error) {
	raw, err := Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", tag, err)
	}
	return Marshal(tagged{Type: tag, Value: raw})
}

func splitTagged(b []byte) (string, json.RawMessage, error) {
	var t tagged
	if err := decodeStrict(b, &t); err != nil {
		return "", nil, &DecodeError{Err: err}
	}
	if t.Type == "" {
		return "", nil, &DecodeError{Err: errors.New("missing type tag")}
	}
	if t.Value == nil {
		return "", nil, &DecodeError{Type: t.Type, Err: errMissingPayload}
	}
	return t.Type, t.Value, nil
}

func decodeStrict(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func isNull(b []byte) bool {
	return bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}
