package rbxtypes

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Instance is a node of the host's object tree.
type Instance struct {
	ClassName   string                    `json:"className"`
	Name        string                    `json:"name"`
	ReferenceID uuid.UUID                 `json:"referenceId"`
	Properties  map[string]PropertyValue  `json:"properties,omitempty"`
	Attributes  map[string]AttributeValue `json:"attributes,omitempty"`
	Tags        []string                  `json:"tags,omitempty"`
	Children    []Instance                `json:"children,omitempty"`
	SourceFile  *string                   `json:"sourceFile,omitempty"`
}

// InstanceMeta is an Instance without its subtree. It is what gets stored
// next to each instance on disk and what an upsert carries.
type InstanceMeta struct {
	ClassName   string                    `json:"className"`
	Name        string                    `json:"name"`
	ReferenceID uuid.UUID                 `json:"referenceId"`
	Properties  map[string]PropertyValue  `json:"properties,omitempty"`
	Attributes  map[string]AttributeValue `json:"attributes,omitempty"`
	Tags        []string                  `json:"tags,omitempty"`
}

// NewInstance creates an instance with a fresh referenceId.
func NewInstance(className, name string) *Instance {
	return &Instance{
		ClassName:   className,
		Name:        name,
		ReferenceID: uuid.New(),
	}
}

// SetProperty sets a property, allocating the map on first use.
func (i *Instance) SetProperty(name string, p Property) {
	if i.Properties == nil {
		i.Properties = make(map[string]PropertyValue)
	}
	i.Properties[name] = NewProperty(p)
}

// SetAttribute sets a custom attribute, allocating the map on first use.
func (i *Instance) SetAttribute(name string, a Attribute) {
	if i.Attributes == nil {
		i.Attributes = make(map[string]AttributeValue)
	}
	i.Attributes[name] = NewAttribute(a)
}

func (i *Instance) AddTag(tag string) {
	i.Tags = append(i.Tags, tag)
}

func (i *Instance) AddChild(child Instance) {
	i.Children = append(i.Children, child)
}

// Meta returns the instance without children. The property and attribute
// maps are copied.
func (i *Instance) Meta() InstanceMeta {
	m := InstanceMeta{
		ClassName:   i.ClassName,
		Name:        i.Name,
		ReferenceID: i.ReferenceID,
		Tags:        append([]string(nil), i.Tags...),
	}
	if len(i.Properties) > 0 {
		m.Properties = make(map[string]PropertyValue, len(i.Properties))
		for k, v := range i.Properties {
			m.Properties[k] = v
		}
	}
	if len(i.Attributes) > 0 {
		m.Attributes = make(map[string]AttributeValue, len(i.Attributes))
		for k, v := range i.Attributes {
			m.Attributes[k] = v
		}
	}
	return m
}

// Source returns the Source property of a script, if present.
func (i *Instance) Source() (string, bool) {
	return sourceOf(i.Properties)
}

// Source returns the Source property of a script, if present.
func (m InstanceMeta) Source() (string, bool) {
	return sourceOf(m.Properties)
}

func sourceOf(props map[string]PropertyValue) (string, bool) {
	pv, ok := props["Source"]
	if !ok {
		return "", false
	}
	switch s := pv.Value.(type) {
	case String:
		return string(s), true
	case ProtectedString:
		return string(s), true
	}
	return "", false
}

// Count returns the number of instances in the subtree rooted at i.
func (i *Instance) Count() int {
	n := 1
	for idx := range i.Children {
		n += i.Children[idx].Count()
	}
	return n
}

// PropertyNames returns the property names in sorted order.
func (m InstanceMeta) PropertyNames() []string {
	names := make([]string, 0, len(m.Properties))
	for k := range m.Properties {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

var scriptExtensions = map[string]string{
	"Script":       ".server.luau",
	"LocalScript":  ".client.luau",
	"ModuleScript": ".luau",
}

var serviceClasses = map[string]bool{
	"Workspace":           true,
	"Lighting":            true,
	"ReplicatedFirst":     true,
	"ReplicatedStorage":   true,
	"ServerScriptService": true,
	"ServerStorage":       true,
	"StarterGui":          true,
	"StarterPack":         true,
	"StarterPlayer":       true,
	"Teams":               true,
	"SoundService":        true,
	"Chat":                true,
	"TextChatService":     true,
	"LocalizationService": true,
	"MaterialService":     true,
	"TestService":         true,
	"VoiceChatService":    true,
}

// IsScriptClass reports whether className holds Luau source.
func IsScriptClass(className string) bool {
	_, ok := scriptExtensions[className]
	return ok
}

// ScriptExtension returns the file extension used for a script class.
func ScriptExtension(className string) (string, bool) {
	ext, ok := scriptExtensions[className]
	return ext, ok
}

// IsServiceClass reports whether className is a top-level service.
func IsServiceClass(className string) bool {
	return serviceClasses[className]
}

func (i *Instance) IsScript() bool     { return IsScriptClass(i.ClassName) }
func (i *Instance) IsService() bool    { return IsServiceClass(i.ClassName) }
func (m InstanceMeta) IsScript() bool  { return IsScriptClass(m.ClassName) }
func (m InstanceMeta) IsService() bool { return IsServiceClass(m.ClassName) }

// looseInstance mirrors Instance with its values left undecoded so that one
// bad value can be dropped without losing its siblings.
type looseInstance struct {
	ClassName   string                     `json:"className"`
	Name        string                     `json:"name"`
	ReferenceID uuid.UUID                  `json:"referenceId"`
	Properties  map[string]json.RawMessage `json:"properties"`
	Attributes  map[string]json.RawMessage `json:"attributes"`
	Tags        []string                   `json:"tags"`
	Children    []looseInstance            `json:"children"`
	SourceFile  *string                    `json:"sourceFile"`
}

// DecodeInstances decodes a chunk of extracted instances. The chunk is
// either a single instance object or an array of them. Values that fail to
// decode are left out and reported as *DecodeError; the returned error is
// only set when the chunk itself is not valid.
func DecodeInstances(data []byte) ([]Instance, []error, error) {
	if len(data) == 0 || isNull(data) {
		return nil, nil, nil
	}
	var loose []looseInstance
	trimmed := trimLeft(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(data, &loose); err != nil {
			return nil, nil, &DecodeError{Type: "Instance[]", Err: err}
		}
	} else {
		var one looseInstance
		if err := json.Unmarshal(data, &one); err != nil {
			return nil, nil, &DecodeError{Type: "Instance", Err: err}
		}
		loose = []looseInstance{one}
	}

	var warnings []error
	out := make([]Instance, 0, len(loose))
	for idx := range loose {
		out = append(out, loose[idx].build(&warnings))
	}
	return out, warnings, nil
}

// DecodeMeta decodes an InstanceMeta the same way DecodeInstances does.
func DecodeMeta(data []byte) (InstanceMeta, []error, error) {
	var l looseInstance
	if err := json.Unmarshal(data, &l); err != nil {
		return InstanceMeta{}, nil, fmt.Errorf("decode meta: %w", err)
	}
	var warnings []error
	inst := l.build(&warnings)
	return inst.Meta(), warnings, nil
}

func (l *looseInstance) build(warnings *[]error) Instance {
	inst := Instance{
		ClassName:   l.ClassName,
		Name:        l.Name,
		ReferenceID: l.ReferenceID,
		Tags:        l.Tags,
		SourceFile:  l.SourceFile,
	}
	for name, raw := range l.Properties {
		var pv PropertyValue
		if err := pv.UnmarshalJSON(raw); err != nil {
			*warnings = append(*warnings, namedDecodeError(l.Name, name, err))
			continue
		}
		if inst.Properties == nil {
			inst.Properties = make(map[string]PropertyValue, len(l.Properties))
		}
		inst.Properties[name] = pv
	}
	for name, raw := range l.Attributes {
		var av AttributeValue
		if err := av.UnmarshalJSON(raw); err != nil {
			*warnings = append(*warnings, namedDecodeError(l.Name, name, err))
			continue
		}
		if inst.Attributes == nil {
			inst.Attributes = make(map[string]AttributeValue, len(l.Attributes))
		}
		inst.Attributes[name] = av
	}
	for idx := range l.Children {
		inst.Children = append(inst.Children, l.Children[idx].build(warnings))
	}
	return inst
}

func namedDecodeError(instance, name string, err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return &DecodeError{Name: instance + "." + name, Type: de.Type, Err: de.Err}
	}
	return &DecodeError{Name: instance + "." + name, Err: err}
}

func trimLeft(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\n' || b[0] == '\r' || b[0] == '\t') {
		b = b[1:]
	}
	return b
}
