package nodedef

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ErrInvalidDefinition is wrapped by every error returned from [Definition.Check].
var ErrInvalidDefinition = errors.New("invalid node definition")

// Category groups node types in the palette.
type Category string

// Categories used by the built-in catalog.
const (
	CategoryTrigger   Category = "trigger"
	CategoryAgent     Category = "agent"
	CategoryLogic     Category = "logic"
	CategoryMemory    Category = "memory"
	CategoryModel     Category = "model"
	CategoryTool      Category = "tool"
	CategoryAction    Category = "action"
	CategoryResponse  Category = "response"
	CategoryUtilities Category = "utilities"
)

// CredentialDef names an external secret a node needs.
type CredentialDef struct {
	Type     string `json:"type" toml:"type"`
	Label    string `json:"label,omitempty" toml:"label"`
	Required bool   `json:"required,omitempty" toml:"required"`
}

// Runtime is the execution policy attached to a node type.
type Runtime struct {
	Timeout   Duration `json:"timeout,omitzero" toml:"timeout"`
	Retries   int      `json:"retries,omitempty" toml:"retries"`
	RateLimit int      `json:"rateLimit,omitempty" toml:"rate_limit"` // calls per minute, 0 = unlimited
}

// Duration is a time.Duration that encodes as a Go duration string.
type Duration time.Duration

func (d Duration) String() string { return time.Duration(d).String() }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) { return []byte(time.Duration(d).String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Definition is the versioned schema of one node type.
//
// TypeID is globally unique and dotted (e.g. "ap.agent.core"). Version starts
// at 1 and increases with every release that changes the configuration shape;
// Migrations[v] holds the steps that turn a version v-1 configuration into a
// version v one.
type Definition struct {
	TypeID      string   `json:"typeId" toml:"type_id"`
	Version     int      `json:"version" toml:"version"`
	DisplayName string   `json:"displayName" toml:"display_name"`
	Description string   `json:"description,omitempty" toml:"description"`
	Category    Category `json:"category" toml:"category"`
	Tags        []string `json:"tags,omitempty" toml:"tags"`
	Icon        string   `json:"icon,omitempty" toml:"icon"`
	Color       string   `json:"color,omitempty" toml:"color"`

	Inputs      []PortDef       `json:"inputs,omitempty" toml:"inputs"`
	Outputs     []PortDef       `json:"outputs,omitempty" toml:"outputs"`
	Properties  []PropertyDef   `json:"properties,omitempty" toml:"properties"`
	Credentials []CredentialDef `json:"credentials,omitempty" toml:"credentials"`
	Defaults    map[string]any  `json:"defaults,omitempty" toml:"defaults"`

	Migrations map[int][]MigrationOp `json:"migrations,omitempty" toml:"-"`
	Runtime    Runtime               `json:"runtime,omitzero" toml:"runtime"`
	HelpURL    string                `json:"helpUrl,omitempty" toml:"help_url"`
}

// IsTrigger reports whether the node type starts a workflow.
func (d *Definition) IsTrigger() bool {
	return d.Category == CategoryTrigger || strings.HasPrefix(d.TypeID, "ap.trigger.")
}

// Property returns the property with the given name.
func (d *Definition) Property(name string) (PropertyDef, bool) {
	for _, p := range d.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return PropertyDef{}, false
}

// Input returns the input port with the given id.
func (d *Definition) Input(id string) (PortDef, bool) { return findPort(d.Inputs, id) }

// Output returns the output port with the given id.
func (d *Definition) Output(id string) (PortDef, bool) { return findPort(d.Outputs, id) }

// DefaultValue returns the type-level override for name if present, else the
// property's own default, else nil.
func (d *Definition) DefaultValue(name string) any {
	if v, ok := d.Defaults[name]; ok {
		return CloneValue(v)
	}
	if p, ok := d.Property(name); ok {
		return CloneValue(p.Default)
	}
	return nil
}

// DefaultConfig builds a configuration holding the default of every
// declared property. Properties without any default map to nil.
func (d *Definition) DefaultConfig() map[string]any {
	cfg := make(map[string]any, len(d.Properties))
	for _, p := range d.Properties {
		cfg[p.Name] = d.DefaultValue(p.Name)
	}
	return cfg
}

// Check reports structural mistakes in the definition. A definition that
// fails Check is a programming error and must not be registered.
func (d *Definition) Check() error {
	if d == nil {
		return fmt.Errorf("%w: nil definition", ErrInvalidDefinition)
	}
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", ErrInvalidDefinition, d.TypeID, fmt.Sprintf(format, args...))
	}
	if d.TypeID == "" || !strings.Contains(d.TypeID, ".") || strings.HasPrefix(d.TypeID, ".") || strings.HasSuffix(d.TypeID, ".") {
		return fmt.Errorf("%w: type id %q must be a dotted name", ErrInvalidDefinition, d.TypeID)
	}
	if d.Version < 1 {
		return fail("version must be positive, got %d", d.Version)
	}
	if err := checkPorts("input", d.Inputs); err != nil {
		return fail("%v", err)
	}
	if err := checkPorts("output", d.Outputs); err != nil {
		return fail("%v", err)
	}

	seen := make(map[string]bool, len(d.Properties))
	for _, p := range d.Properties {
		if p.Name == "" {
			return fail("property with empty name")
		}
		if seen[p.Name] {
			return fail("duplicate property %q", p.Name)
		}
		seen[p.Name] = true
		if !p.Type.Valid() {
			return fail("property %q has unknown type %q", p.Name, p.Type)
		}
		if p.Type == TypeEnum {
			if len(p.Options) == 0 {
				return fail("enum property %q has no options", p.Name)
			}
			if p.Required && p.Default != nil {
				if s, ok := p.Default.(string); !ok || !slices.Contains(p.Options, s) {
					return fail("default of enum property %q is not an option", p.Name)
				}
			}
		}
		for _, r := range p.Rules {
			if err := r.check(); err != nil {
				return fail("property %q: %v", p.Name, err)
			}
		}
	}

	for v, ops := range d.Migrations {
		if v < 2 || v > d.Version {
			return fail("migration to version %d outside 2..%d", v, d.Version)
		}
		for _, op := range ops {
			if err := op.check(); err != nil {
				return fail("migration to version %d: %v", v, err)
			}
		}
	}
	return nil
}

// CheckEnv verifies that every named rule and transform referenced by the
// definition resolves in env.
func (d *Definition) CheckEnv(env *Env) error {
	for _, p := range d.Properties {
		for _, r := range p.Rules {
			if r.Kind != RuleCustom {
				continue
			}
			if _, ok := env.rule(r.ID); !ok {
				return fmt.Errorf("%w: %s: property %q references unknown rule %q", ErrInvalidDefinition, d.TypeID, p.Name, r.ID)
			}
		}
	}
	for v, ops := range d.Migrations {
		for _, op := range ops {
			if op.Op != OpTransform {
				continue
			}
			if _, ok := env.transform(op.Transform); !ok {
				return fmt.Errorf("%w: %s: migration to version %d references unknown transform %q", ErrInvalidDefinition, d.TypeID, v, op.Transform)
			}
		}
	}
	return nil
}

func checkPorts(side string, ports []PortDef) error {
	seen := make(map[string]bool, len(ports))
	for _, p := range ports {
		if p.ID == "" {
			return fmt.Errorf("%s port with empty id", side)
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate %s port %q", side, p.ID)
		}
		seen[p.ID] = true
		if !p.Type.Valid() {
			return fmt.Errorf("%s port %q has unknown type %q", side, p.ID, p.Type)
		}
	}
	return nil
}
