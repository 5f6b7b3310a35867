package nodedef

// PropertyType is the value type of a configuration field.
type PropertyType string

// Property types.
const (
	TypeString  PropertyType = "string"
	TypeNumber  PropertyType = "number"
	TypeBoolean PropertyType = "boolean"
	TypeEnum    PropertyType = "enum"
	TypeJSON    PropertyType = "json"
	TypeCode    PropertyType = "code"
)

// Valid reports whether t is one of the known property types.
func (t PropertyType) Valid() bool {
	switch t {
	case TypeString, TypeNumber, TypeBoolean, TypeEnum, TypeJSON, TypeCode:
		return true
	}
	return false
}

// Widget names understood by the property editor.
const (
	WidgetInput    = "input"
	WidgetTextarea = "textarea"
	WidgetNumber   = "number"
	WidgetSwitch   = "switch"
	WidgetSelect   = "select"
	WidgetCode     = "code"
	WidgetJSON     = "json"
)

// UIHint tells the property editor how to render a field.
type UIHint struct {
	Widget      string `json:"widget,omitempty" toml:"widget"`
	Placeholder string `json:"placeholder,omitempty" toml:"placeholder"`
	Rows        int    `json:"rows,omitempty" toml:"rows"`
}

// PropertyDef describes one configuration field of a node type.
type PropertyDef struct {
	Name        string       `json:"name" toml:"name"`
	Label       string       `json:"label,omitempty" toml:"label"`
	Description string       `json:"description,omitempty" toml:"description"`
	Type        PropertyType `json:"type" toml:"type"`
	Required    bool         `json:"required,omitempty" toml:"required"`
	Default     any          `json:"default,omitempty" toml:"default"`
	UI          UIHint       `json:"ui,omitzero" toml:"ui"`
	Options     []string     `json:"options,omitempty" toml:"options"`
	Rules       []Rule       `json:"rules,omitempty" toml:"rules"`
}

// DisplayLabel returns the label if set, otherwise the field name.
func (p PropertyDef) DisplayLabel() string {
	if p.Label != "" {
		return p.Label
	}
	return p.Name
}

// Widget returns the explicit widget hint or the natural widget for the type.
func (p PropertyDef) Widget() string {
	if p.UI.Widget != "" {
		return p.UI.Widget
	}
	switch p.Type {
	case TypeNumber:
		return WidgetNumber
	case TypeBoolean:
		return WidgetSwitch
	case TypeEnum:
		return WidgetSelect
	case TypeCode:
		return WidgetCode
	case TypeJSON:
		return WidgetJSON
	default:
		return WidgetInput
	}
}

// customRule returns the first custom rule attached to the property.
func (p PropertyDef) customRule() (Rule, bool) {
	for _, r := range p.Rules {
		if r.Kind == RuleCustom {
			return r, true
		}
	}
	return Rule{}, false
}
