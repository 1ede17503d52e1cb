package rbxtypes

import (
	"encoding/json"
	"errors"
)

// Attribute is implemented by the payloads an AttributeValue can carry.
// Attributes support a narrower set of types than properties, and every
// number is a Double.
type Attribute interface {
	attributeType() string
}

func (Bool) attributeType() string           { return "bool" }
func (Double) attributeType() string         { return "number" }
func (String) attributeType() string         { return "string" }
func (Vector2) attributeType() string        { return "Vector2" }
func (Vector3) attributeType() string        { return "Vector3" }
func (CFrame) attributeType() string         { return "CFrame" }
func (Color3) attributeType() string         { return "Color3" }
func (UDim) attributeType() string           { return "UDim" }
func (UDim2) attributeType() string          { return "UDim2" }
func (NumberSequence) attributeType() string { return "NumberSequence" }
func (ColorSequence) attributeType() string  { return "ColorSequence" }
func (NumberRange) attributeType() string    { return "NumberRange" }
func (Rect) attributeType() string           { return "Rect" }
func (BrickColor) attributeType() string     { return "BrickColor" }
func (Font) attributeType() string           { return "Font" }

var attributeDecoders = map[string]func(json.RawMessage) (Attribute, error){
	"bool":           decodeAttribute[Bool],
	"number":         decodeAttribute[Double],
	"string":         decodeAttribute[String],
	"Vector2":        decodeAttribute[Vector2],
	"Vector3":        decodeAttribute[Vector3],
	"CFrame":         decodeAttribute[CFrame],
	"Color3":         decodeAttribute[Color3],
	"UDim":           decodeAttribute[UDim],
	"UDim2":          decodeAttribute[UDim2],
	"NumberSequence": decodeAttribute[NumberSequence],
	"ColorSequence":  decodeAttribute[ColorSequence],
	"NumberRange":    decodeAttribute[NumberRange],
	"Rect":           decodeAttribute[Rect],
	"BrickColor":     decodeAttribute[BrickColor],
	"Font":           decodeAttribute[Font],
}

func decodeAttribute[T Attribute](raw json.RawMessage) (Attribute, error) {
	var v T
	if err := decodeStrict(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// AttributeValue is a typed custom attribute, encoded like PropertyValue.
type AttributeValue struct {
	Value Attribute
}

// NewAttribute wraps a in an AttributeValue.
func NewAttribute(a Attribute) AttributeValue {
	return AttributeValue{Value: a}
}

// Type returns the wire tag, or "" for an empty value.
func (v AttributeValue) Type() string {
	if v.Value == nil {
		return ""
	}
	return v.Value.attributeType()
}

// MarshalJSON implements json.Marshaler.
func (v AttributeValue) MarshalJSON() ([]byte, error) {
	if v.Value == nil {
		return nil, errors.New("rbxtypes: cannot encode empty AttributeValue")
	}
	return marshalTagged(v.Value.attributeType(), v.Value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *AttributeValue) UnmarshalJSON(b []byte) error {
	tag, raw, err := splitTagged(b)
	if err != nil {
		return err
	}
	decode, ok := attributeDecoders[tag]
	if !ok {
		return &DecodeError{Type: tag, Err: ErrUnknownVariant}
	}
	if isNull(raw) {
		return &DecodeError{Type: tag, Err: errNullPayload}
	}
	a, err := decode(raw)
	if err != nil {
		return &DecodeError{Type: tag, Err: err}
	}
	v.Value = a
	return nil
}
