package rbxtypes

import (
	"encoding/json"
	"errors"
)

// Property is implemented by every payload a PropertyValue can carry.
// The set is closed: only types in this package implement it.
type Property interface {
	propertyType() string
}

func (Bool) propertyType() string                 { return "bool" }
func (Int) propertyType() string                  { return "int" }
func (Int64) propertyType() string                { return "int64" }
func (Float) propertyType() string                { return "float" }
func (Double) propertyType() string               { return "double" }
func (String) propertyType() string               { return "string" }
func (Vector2) propertyType() string              { return "Vector2" }
func (Vector2int16) propertyType() string         { return "Vector2int16" }
func (Vector3) propertyType() string              { return "Vector3" }
func (Vector3int16) propertyType() string         { return "Vector3int16" }
func (CFrame) propertyType() string               { return "CFrame" }
func (Color3) propertyType() string               { return "Color3" }
func (Color3uint8) propertyType() string          { return "Color3uint8" }
func (BrickColor) propertyType() string           { return "BrickColor" }
func (UDim) propertyType() string                 { return "UDim" }
func (UDim2) propertyType() string                { return "UDim2" }
func (Rect) propertyType() string                 { return "Rect" }
func (NumberSequence) propertyType() string       { return "NumberSequence" }
func (ColorSequence) propertyType() string        { return "ColorSequence" }
func (NumberRange) propertyType() string          { return "NumberRange" }
func (EnumValue) propertyType() string            { return "Enum" }
func (Ref) propertyType() string                  { return "Ref" }
func (Content) propertyType() string              { return "Content" }
func (BinaryString) propertyType() string         { return "BinaryString" }
func (SharedString) propertyType() string         { return "SharedString" }
func (Font) propertyType() string                 { return "Font" }
func (Faces) propertyType() string                { return "Faces" }
func (Axes) propertyType() string                 { return "Axes" }
func (PhysicalProperties) propertyType() string   { return "PhysicalProperties" }
func (Ray) propertyType() string                  { return "Ray" }
func (Region3) propertyType() string              { return "Region3" }
func (Region3int16) propertyType() string         { return "Region3int16" }
func (ProtectedString) propertyType() string      { return "ProtectedString" }
func (OptionalCFrame) propertyType() string       { return "OptionalCFrame" }
func (UniqueID) propertyType() string             { return "UniqueId" }
func (SecurityCapabilities) propertyType() string { return "SecurityCapabilities" }

var propertyDecoders = map[string]func(json.RawMessage) (Property, error){
	"bool":                 decodeProperty[Bool],
	"int":                  decodeProperty[Int],
	"int64":                decodeProperty[Int64],
	"float":                decodeProperty[Float],
	"double":               decodeProperty[Double],
	"string":               decodeProperty[String],
	"Vector2":              decodeProperty[Vector2],
	"Vector2int16":         decodeProperty[Vector2int16],
	"Vector3":              decodeProperty[Vector3],
	"Vector3int16":         decodeProperty[Vector3int16],
	"CFrame":               decodeProperty[CFrame],
	"Color3":               decodeProperty[Color3],
	"Color3uint8":          decodeProperty[Color3uint8],
	"BrickColor":           decodeProperty[BrickColor],
	"UDim":                 decodeProperty[UDim],
	"UDim2":                decodeProperty[UDim2],
	"Rect":                 decodeProperty[Rect],
	"NumberSequence":       decodeProperty[NumberSequence],
	"ColorSequence":        decodeProperty[ColorSequence],
	"NumberRange":          decodeProperty[NumberRange],
	"Enum":                 decodeProperty[EnumValue],
	"Ref":                  decodeProperty[Ref],
	"Content":              decodeProperty[Content],
	"BinaryString":         decodeProperty[BinaryString],
	"SharedString":         decodeProperty[SharedString],
	"Font":                 decodeProperty[Font],
	"Faces":                decodeProperty[Faces],
	"Axes":                 decodeProperty[Axes],
	"PhysicalProperties":   decodeProperty[PhysicalProperties],
	"Ray":                  decodeProperty[Ray],
	"Region3":              decodeProperty[Region3],
	"Region3int16":         decodeProperty[Region3int16],
	"ProtectedString":      decodeProperty[ProtectedString],
	"OptionalCFrame":       decodeProperty[OptionalCFrame],
	"UniqueId":             decodeProperty[UniqueID],
	"SecurityCapabilities": decodeProperty[SecurityCapabilities],
}

func decodeProperty[T Property](raw json.RawMessage) (Property, error) {
	var v T
	if err := decodeStrict(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// PropertyValue is a typed property value. On the wire it is
// {"type": <tag>, "value": <payload>}.
type PropertyValue struct {
	Value Property
}

// NewProperty wraps p in a PropertyValue.
func NewProperty(p Property) PropertyValue {
	return PropertyValue{Value: p}
}

// Type returns the wire tag, or "" for an empty value.
func (v PropertyValue) Type() string {
	if v.Value == nil {
		return ""
	}
	return v.Value.propertyType()
}

// MarshalJSON implements json.Marshaler.
func (v PropertyValue) MarshalJSON() ([]byte, error) {
	if v.Value == nil {
		return nil, errors.New("rbxtypes: cannot encode empty PropertyValue")
	}
	return marshalTagged(v.Value.propertyType(), v.Value)
}

// UnmarshalJSON implements json.Unmarshaler. An unknown tag yields an error
// wrapping ErrUnknownVariant; a payload that does not fit the tag yields a
// *DecodeError.
func (v *PropertyValue) UnmarshalJSON(b []byte) error {
	tag, raw, err := splitTagged(b)
	if err != nil {
		return err
	}
	decode, ok := propertyDecoders[tag]
	if !ok {
		return &DecodeError{Type: tag, Err: ErrUnknownVariant}
	}
	if isNull(raw) && tag != "Ref" && tag != "OptionalCFrame" {
		return &DecodeError{Type: tag, Err: errNullPayload}
	}
	p, err := decode(raw)
	if err != nil {
		return &DecodeError{Type: tag, Err: err}
	}
	v.Value = p
	return nil
}
