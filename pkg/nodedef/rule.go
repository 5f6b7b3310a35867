package nodedef

import (
	"fmt"
	"strings"
)

// RuleKind tags a validation rule.
type RuleKind string

// Rule kinds.
const (
	RuleRequired RuleKind = "required"
	RuleRange    RuleKind = "range"
	RuleEnum     RuleKind = "enum"
	RuleCustom   RuleKind = "custom"
)

// Rule is a serializable validation rule attached to a property.
//
// Only the fields relevant to Kind are read: Min and Max for [RuleRange],
// Values for [RuleEnum] and ID for [RuleCustom]. A custom rule replaces all
// built-in checks of its property.
type Rule struct {
	Kind   RuleKind `json:"kind" toml:"kind"`
	Min    *float64 `json:"min,omitempty" toml:"min"`
	Max    *float64 `json:"max,omitempty" toml:"max"`
	Values []string `json:"values,omitempty" toml:"values"`
	ID     string   `json:"id,omitempty" toml:"id"`
}

// Required returns a rule that rejects absent values.
func Required() Rule { return Rule{Kind: RuleRequired} }

// NumericRange returns a rule bounding a numeric value to [min, max].
func NumericRange(min, max float64) Rule { return Rule{Kind: RuleRange, Min: &min, Max: &max} }

// AtLeast returns a rule bounding a numeric value from below.
func AtLeast(min float64) Rule { return Rule{Kind: RuleRange, Min: &min} }

// EnumMember returns a rule restricting a value to the given members.
func EnumMember(values ...string) Rule { return Rule{Kind: RuleEnum, Values: values} }

// Custom returns a rule resolved by name against a [RuleSet].
func Custom(id string) Rule { return Rule{Kind: RuleCustom, ID: id} }

func (r Rule) check() error {
	switch r.Kind {
	case RuleRequired:
	case RuleRange:
		if r.Min == nil && r.Max == nil {
			return fmt.Errorf("range rule needs min or max")
		}
		if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
			return fmt.Errorf("range rule min %v > max %v", *r.Min, *r.Max)
		}
	case RuleEnum:
		if len(r.Values) == 0 {
			return fmt.Errorf("enum rule needs values")
		}
	case RuleCustom:
		if r.ID == "" {
			return fmt.Errorf("custom rule needs an id")
		}
	default:
		return fmt.Errorf("unknown rule kind %q", r.Kind)
	}
	return nil
}

// CheckFunc validates one property value. It receives the value and whether
// the value is present, and returns an empty string when the value is valid
// or a message otherwise. The message is prefixed with the property label.
type CheckFunc func(value any, present bool) string

// RuleSet maps custom rule identifiers to their implementation.
type RuleSet map[string]CheckFunc

// Env resolves the named functions a definition may reference.
// A nil Env resolves nothing.
type Env struct {
	Rules      RuleSet
	Transforms Transforms
}

func (e *Env) rule(id string) (CheckFunc, bool) {
	if e == nil || e.Rules == nil {
		return nil, false
	}
	fn, ok := e.Rules[id]
	return fn, ok
}

func (e *Env) transform(id string) (MigrationFunc, bool) {
	if e == nil || e.Transforms == nil {
		return nil, false
	}
	fn, ok := e.Transforms[id]
	return fn, ok
}

// StandardRules are the custom rules shipped with the built-in catalog.
var StandardRules = RuleSet{
	"url": func(v any, present bool) string {
		s, _ := v.(string)
		if !present {
			return ""
		}
		if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
			return "debe ser una URL http(s)"
		}
		return ""
	},
	"identifier": func(v any, present bool) string {
		s, _ := v.(string)
		if !present {
			return ""
		}
		for i, r := range s {
			letter := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
			if !letter && (i == 0 || r < '0' || r > '9') {
				return "debe ser un identificador válido"
			}
		}
		return ""
	},
	"nonblank": func(v any, present bool) string {
		s, ok := v.(string)
		if !present || (ok && strings.TrimSpace(s) == "") {
			return "no puede estar vacío"
		}
		return ""
	},
}
