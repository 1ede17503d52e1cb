package rbxtypes

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributeValue_RoundTrip(t *testing.T) {
	attrs := map[string]Attribute{
		"bool":           Bool(false),
		"number":         Double(-12.75),
		"string":         String("tycoon"),
		"Vector2":        Vector2{X: 1, Y: 2},
		"Vector3":        Vector3{X: 1, Y: 2, Z: 3},
		"CFrame":         IdentityCFrame(),
		"Color3":         Color3{R: 1, G: 1, B: 1},
		"UDim":           UDim{Scale: 1, Offset: 2},
		"UDim2":          UDim2{X: UDim{Scale: 1}, Y: UDim{Scale: 1}},
		"NumberSequence": NumberSequence{Keypoints: []NumberSequenceKeypoint{{Time: 0, Value: 0}}},
		"ColorSequence":  ColorSequence{Keypoints: []ColorSequenceKeypoint{{Time: 0, Color: Color3{G: 1}}}},
		"NumberRange":    NumberRange{Min: 0, Max: 100},
		"Rect":           Rect{Max: Vector2{X: 1, Y: 1}},
		"BrickColor":     BrickColor(1),
		"Font":           Font{Family: "f", Weight: "Regular", Style: "Normal"},
	}
	require.Len(t, attrs, len(attributeDecoders))

	for tag, a := range attrs {
		t.Run(tag, func(t *testing.T) {
			v := NewAttribute(a)
			assert.Equal(t, tag, v.Type())

			encoded, err := json.Marshal(v)
			require.NoError(t, err)

			var decoded AttributeValue
			require.NoError(t, json.Unmarshal(encoded, &decoded))
			assert.Equal(t, v, decoded)

			reencoded, err := json.Marshal(decoded)
			require.NoError(t, err)
			assert.Equal(t, string(encoded), string(reencoded))
		})
	}
}

func TestAttributeValue_NumberIsDouble(t *testing.T) {
	var v AttributeValue
	require.NoError(t, json.Unmarshal([]byte(`{"type":"number","value":"NaN"}`), &v))
	d, ok := v.Value.(Double)
	require.True(t, ok)
	assert.True(t, math.IsNaN(float64(d)))

	err := json.Unmarshal([]byte(`{"type":"int","value":1}`), &v)
	assert.True(t, errors.Is(err, ErrUnknownVariant), "attributes have no int variant")
}

func sampleTree() Instance {
	ws := Instance{ClassName: "Workspace", Name: "Workspace", ReferenceID: uuid.New()}
	part := NewInstance("Part", "Baseplate")
	part.SetProperty("Anchored", Bool(true))
	part.SetProperty("Size", Vector3{X: 512, Y: 20, Z: 512})
	part.SetAttribute("Owner", String("nobody"))
	part.AddTag("Ground")
	ws.AddChild(*part)

	script := NewInstance("Script", "Main")
	script.SetProperty("Source", String("print('hello')\n"))
	ws.AddChild(*script)
	return ws
}

func TestInstance_RoundTrip(t *testing.T) {
	tree := sampleTree()

	encoded, err := json.Marshal(tree)
	require.NoError(t, err)

	var decoded Instance
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, tree, decoded)
	assert.Equal(t, 3, decoded.Count())
}

func TestInstance_OmitsEmptyCollections(t *testing.T) {
	inst := Instance{ClassName: "Folder", Name: "Empty", ReferenceID: uuid.Nil}
	encoded, err := json.Marshal(inst)
	require.NoError(t, err)
	assert.JSONEq(t, `{"className":"Folder","name":"Empty","referenceId":"00000000-0000-0000-0000-000000000000"}`, string(encoded))
}

func TestInstance_Helpers(t *testing.T) {
	tests := []struct {
		className string
		isScript  bool
		isService bool
		ext       string
	}{
		{className: "Script", isScript: true, ext: ".server.luau"},
		{className: "LocalScript", isScript: true, ext: ".client.luau"},
		{className: "ModuleScript", isScript: true, ext: ".luau"},
		{className: "Workspace", isService: true},
		{className: "ReplicatedStorage", isService: true},
		{className: "Part"},
	}

	for _, tt := range tests {
		t.Run(tt.className, func(t *testing.T) {
			inst := NewInstance(tt.className, "x")
			assert.Equal(t, tt.isScript, inst.IsScript())
			assert.Equal(t, tt.isService, inst.IsService())
			ext, ok := ScriptExtension(tt.className)
			assert.Equal(t, tt.isScript, ok)
			assert.Equal(t, tt.ext, ext)
		})
	}
}

func TestInstance_MetaCopiesMaps(t *testing.T) {
	tree := sampleTree()
	script := tree.Children[1]

	meta := script.Meta()
	src, ok := meta.Source()
	require.True(t, ok)
	assert.Equal(t, "print('hello')\n", src)

	delete(meta.Properties, "Source")
	_, ok = script.Source()
	assert.True(t, ok, "deleting from the meta must not touch the instance")
}

func TestDecodeInstances_DropsOnlyBadValues(t *testing.T) {
	data := []byte(`[
		{
			"className": "Part",
			"name": "Brick",
			"referenceId": "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
			"properties": {
				"Anchored": {"type": "bool", "value": true},
				"Weird": {"type": "Vector4", "value": {}},
				"Size": {"type": "Vector3", "value": {"x": 4, "y": 1, "z": 2}}
			},
			"attributes": {
				"Broken": {"type": "number", "value": "lots"}
			},
			"children": [
				{"className": "Folder", "name": "Inner", "referenceId": "6ba7b811-9dad-11d1-80b4-00c04fd430c8"}
			]
		}
	]`)

	instances, warnings, err := DecodeInstances(data)
	require.NoError(t, err)
	require.Len(t, instances, 1)
	require.Len(t, warnings, 2)

	brick := instances[0]
	assert.Equal(t, NewProperty(Bool(true)), brick.Properties["Anchored"])
	assert.Equal(t, NewProperty(Vector3{X: 4, Y: 1, Z: 2}), brick.Properties["Size"])
	assert.NotContains(t, brick.Properties, "Weird")
	assert.Empty(t, brick.Attributes)
	require.Len(t, brick.Children, 1)
	assert.Equal(t, "Inner", brick.Children[0].Name)

	unknown := 0
	for _, w := range warnings {
		var de *DecodeError
		require.True(t, errors.As(w, &de))
		if errors.Is(w, ErrUnknownVariant) {
			unknown++
			assert.Equal(t, "Brick.Weird", de.Name)
		}
	}
	assert.Equal(t, 1, unknown)
}

func TestDecodeInstances_SingleObjectAndNull(t *testing.T) {
	instances, warnings, err := DecodeInstances([]byte(`{"className":"Folder","name":"A","referenceId":"6ba7b810-9dad-11d1-80b4-00c04fd430c8"}`))
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, instances, 1)
	assert.Equal(t, "A", instances[0].Name)

	instances, _, err = DecodeInstances([]byte("null"))
	require.NoError(t, err)
	assert.Empty(t, instances)

	_, _, err = DecodeInstances([]byte(`[{"className":`))
	assert.Error(t, err)
}
