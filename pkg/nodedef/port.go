package nodedef

// PortType classifies what flows through a port.
type PortType string

// Port types.
const (
	PortMain    PortType = "main"
	PortTool    PortType = "tool"
	PortControl PortType = "control"
	PortError   PortType = "error"
)

// AnyDataType is the wildcard data type accepted by every port.
const AnyDataType = "any"

// Valid reports whether t is one of the known port types.
func (t PortType) Valid() bool {
	switch t {
	case PortMain, PortTool, PortControl, PortError:
		return true
	}
	return false
}

// restricted reports whether the port type only connects to its own kind.
func (t PortType) restricted() bool { return t == PortError || t == PortControl }

// PortDef describes one connector of a node type.
type PortDef struct {
	ID       string   `json:"id" toml:"id"`
	Type     PortType `json:"type" toml:"type"`
	Label    string   `json:"label,omitempty" toml:"label"`
	Multiple bool     `json:"multiple,omitempty" toml:"multiple"`
	Required bool     `json:"required,omitempty" toml:"required"`
	DataType string   `json:"dataType,omitempty" toml:"data_type"`
}

// EffectiveDataType returns the declared data type, or [AnyDataType] when unset.
func (p PortDef) EffectiveDataType() string {
	if p.DataType == "" {
		return AnyDataType
	}
	return p.DataType
}

// CanConnectTo reports whether an edge may join port p to port other.
//
// Error and control ports only connect to ports of the same type. When both
// sides declare a concrete data type the types must match exactly. Anything
// else is allowed.
func (p PortDef) CanConnectTo(other PortDef) bool {
	if p.Type.restricted() || other.Type.restricted() {
		if p.Type != other.Type {
			return false
		}
	}
	a, b := p.EffectiveDataType(), other.EffectiveDataType()
	if a != AnyDataType && b != AnyDataType {
		return a == b
	}
	return true
}

func findPort(ports []PortDef, id string) (PortDef, bool) {
	for _, p := range ports {
		if p.ID == id {
			return p, true
		}
	}
	return PortDef{}, false
}
