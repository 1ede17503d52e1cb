package rbxtypes

import (
	"fmt"

	"github.com/google/uuid"
)

// Scalar payloads. Each keeps the width the host declares for it.
type (
	Bool                 bool
	Int                  int32
	Int64                int64
	String               string
	BrickColor           uint32
	Content              string
	BinaryString         string
	ProtectedString      string
	UniqueID             string
	SecurityCapabilities uint64
)

type Vector2 struct {
	X Float `json:"x"`
	Y Float `json:"y"`
}

type Vector2int16 struct {
	X int16 `json:"x"`
	Y int16 `json:"y"`
}

type Vector3 struct {
	X Float `json:"x"`
	Y Float `json:"y"`
	Z Float `json:"z"`
}

type Vector3int16 struct {
	X int16 `json:"x"`
	Y int16 `json:"y"`
	Z int16 `json:"z"`
}

// CFrame is a position plus a row-major 3x3 rotation matrix.
type CFrame struct {
	Position [3]Float `json:"position"`
	Rotation [9]Float `json:"rotation"`
}

// IdentityCFrame returns a CFrame at the origin with no rotation.
func IdentityCFrame() CFrame {
	return CFrame{Rotation: [9]Float{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// UnmarshalJSON rejects position and rotation arrays of the wrong length.
// encoding/json would otherwise zero-fill or truncate them silently.
func (c *CFrame) UnmarshalJSON(b []byte) error {
	var raw struct {
		Position []Float `json:"position"`
		Rotation []Float `json:"rotation"`
	}
	if err := decodeStrict(b, &raw); err != nil {
		return err
	}
	if len(raw.Position) != 3 {
		return fmt.Errorf("CFrame position has %d components, want 3", len(raw.Position))
	}
	if len(raw.Rotation) != 9 {
		return fmt.Errorf("CFrame rotation has %d components, want 9", len(raw.Rotation))
	}
	copy(c.Position[:], raw.Position)
	copy(c.Rotation[:], raw.Rotation)
	return nil
}

type Color3 struct {
	R Float `json:"r"`
	G Float `json:"g"`
	B Float `json:"b"`
}

type Color3uint8 struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

type UDim struct {
	Scale  Float `json:"scale"`
	Offset int32 `json:"offset"`
}

type UDim2 struct {
	X UDim `json:"x"`
	Y UDim `json:"y"`
}

type Rect struct {
	Min Vector2 `json:"min"`
	Max Vector2 `json:"max"`
}

type NumberSequenceKeypoint struct {
	Time     Float `json:"time"`
	Value    Float `json:"value"`
	Envelope Float `json:"envelope"`
}

type NumberSequence struct {
	Keypoints []NumberSequenceKeypoint `json:"keypoints"`
}

// MarshalJSON always writes keypoints as an array, never null.
func (s NumberSequence) MarshalJSON() ([]byte, error) {
	type plain NumberSequence
	if s.Keypoints == nil {
		s.Keypoints = []NumberSequenceKeypoint{}
	}
	return Marshal(plain(s))
}

type ColorSequenceKeypoint struct {
	Time  Float  `json:"time"`
	Color Color3 `json:"color"`
}

type ColorSequence struct {
	Keypoints []ColorSequenceKeypoint `json:"keypoints"`
}

// MarshalJSON always writes keypoints as an array, never null.
func (s ColorSequence) MarshalJSON() ([]byte, error) {
	type plain ColorSequence
	if s.Keypoints == nil {
		s.Keypoints = []ColorSequenceKeypoint{}
	}
	return Marshal(plain(s))
}

type NumberRange struct {
	Min Float `json:"min"`
	Max Float `json:"max"`
}

// EnumValue is an enum item named by its enum type and item name.
type EnumValue struct {
	EnumType string `json:"enumType"`
	Value    string `json:"value"`
}

// Ref points at another instance by referenceId. An invalid Ref encodes as null.
type Ref struct {
	uuid.NullUUID
}

// RefTo returns a Ref pointing at id.
func RefTo(id uuid.UUID) Ref {
	return Ref{uuid.NullUUID{UUID: id, Valid: true}}
}

// SharedString references deduplicated binary data by hash.
type SharedString struct {
	Hash string  `json:"hash"`
	File *string `json:"file"`
}

type Font struct {
	Family string `json:"family"`
	Weight string `json:"weight"`
	Style  string `json:"style"`
}

type Faces struct {
	Top    bool `json:"top"`
	Bottom bool `json:"bottom"`
	Left   bool `json:"left"`
	Right  bool `json:"right"`
	Front  bool `json:"front"`
	Back   bool `json:"back"`
}

type Axes struct {
	X bool `json:"x"`
	Y bool `json:"y"`
	Z bool `json:"z"`
}

type PhysicalProperties struct {
	Density          Float `json:"density"`
	Friction         Float `json:"friction"`
	Elasticity       Float `json:"elasticity"`
	FrictionWeight   Float `json:"friction_weight"`
	ElasticityWeight Float `json:"elasticity_weight"`
}

type Ray struct {
	Origin    Vector3 `json:"origin"`
	Direction Vector3 `json:"direction"`
}

type Region3 struct {
	Min Vector3 `json:"min"`
	Max Vector3 `json:"max"`
}

type Region3int16 struct {
	Min Vector3int16 `json:"min"`
	Max Vector3int16 `json:"max"`
}

// OptionalCFrame is a CFrame that may be absent. A nil CFrame encodes as null.
type OptionalCFrame struct {
	CFrame *CFrame
}

// MarshalJSON implements json.Marshaler.
func (o OptionalCFrame) MarshalJSON() ([]byte, error) {
	if o.CFrame == nil {
		return []byte("null"), nil
	}
	return Marshal(o.CFrame)
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptionalCFrame) UnmarshalJSON(b []byte) error {
	if isNull(b) {
		o.CFrame = nil
		return nil
	}
	var c CFrame
	if err := c.UnmarshalJSON(b); err != nil {
		return err
	}
	o.CFrame = &c
	return nil
}
