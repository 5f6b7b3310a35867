package nodedef

import (
	"errors"
	"strings"
	"testing"
)

func TestPortDef_CanConnectTo(t *testing.T) {
	tests := []struct {
		name     string
		from, to PortDef
		want     bool
	}{
		{"main to main", PortDef{Type: PortMain}, PortDef{Type: PortMain}, true},
		{"main to tool", PortDef{Type: PortMain}, PortDef{Type: PortTool}, true},
		{"error to main", PortDef{Type: PortError}, PortDef{Type: PortMain}, false},
		{"main to error", PortDef{Type: PortMain}, PortDef{Type: PortError}, false},
		{"error to error", PortDef{Type: PortError}, PortDef{Type: PortError}, true},
		{"control to main", PortDef{Type: PortControl}, PortDef{Type: PortMain}, false},
		{"data mismatch", PortDef{Type: PortMain, DataType: "text"}, PortDef{Type: PortMain, DataType: "json"}, false},
		{"data match", PortDef{Type: PortMain, DataType: "text"}, PortDef{Type: PortMain, DataType: "text"}, true},
		{"any data", PortDef{Type: PortMain, DataType: "text"}, PortDef{Type: PortMain}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanConnectTo(tt.to); got != tt.want {
				t.Errorf("CanConnectTo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefinition_Check(t *testing.T) {
	valid := func() *Definition {
		return &Definition{
			TypeID:     "test.ok",
			Version:    2,
			Inputs:     []PortDef{{ID: "in", Type: PortMain}},
			Outputs:    []PortDef{{ID: "out", Type: PortMain}},
			Properties: []PropertyDef{{Name: "mode", Type: TypeEnum, Options: []string{"a", "b"}, Required: true, Default: "a"}},
			Migrations: map[int][]MigrationOp{2: {Rename("m", "mode")}},
		}
	}
	if err := valid().Check(); err != nil {
		t.Fatalf("Check(valid) = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(d *Definition)
		substr string
	}{
		{"undotted id", func(d *Definition) { d.TypeID = "plain" }, "dotted"},
		{"zero version", func(d *Definition) { d.Version = 0 }, "version"},
		{"duplicate port", func(d *Definition) { d.Inputs = append(d.Inputs, PortDef{ID: "in", Type: PortMain}) }, "duplicate input port"},
		{"bad port type", func(d *Definition) { d.Outputs[0].Type = "wire" }, "unknown type"},
		{"duplicate property", func(d *Definition) { d.Properties = append(d.Properties, d.Properties[0]) }, "duplicate property"},
		{"enum default", func(d *Definition) { d.Properties[0].Default = "c" }, "not an option"},
		{"bad range", func(d *Definition) {
			d.Properties = append(d.Properties, PropertyDef{Name: "n", Type: TypeNumber, Rules: []Rule{NumericRange(3, 1)}})
		}, "min"},
		{"migration version", func(d *Definition) { d.Migrations[5] = nil }, "outside"},
		{"bad op", func(d *Definition) { d.Migrations[2] = []MigrationOp{{Op: "explode"}} }, "unknown migration op"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid()
			tt.mutate(d)
			err := d.Check()
			if !errors.Is(err, ErrInvalidDefinition) {
				t.Fatalf("Check() = %v, want ErrInvalidDefinition", err)
			}
			if !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("Check() = %q, want it to mention %q", err, tt.substr)
			}
		})
	}
}

func TestDefinition_CheckEnv(t *testing.T) {
	d := &Definition{
		TypeID:     "test.env",
		Version:    2,
		Properties: []PropertyDef{{Name: "u", Type: TypeString, Rules: []Rule{Custom("url")}}},
		Migrations: map[int][]MigrationOp{2: {Transform("split")}},
	}
	if err := d.CheckEnv(&Env{Rules: StandardRules}); err == nil {
		t.Error("CheckEnv without transform: want error")
	}
	env := &Env{Rules: StandardRules, Transforms: Transforms{"split": func(c map[string]any) (map[string]any, error) { return c, nil }}}
	if err := d.CheckEnv(env); err != nil {
		t.Errorf("CheckEnv = %v", err)
	}
}

func TestDefinition_DefaultConfig(t *testing.T) {
	d := &Definition{
		TypeID:  "test.defaults",
		Version: 1,
		Properties: []PropertyDef{
			{Name: "a", Type: TypeString, Default: "x"},
			{Name: "b", Type: TypeNumber, Default: 1},
			{Name: "c", Type: TypeJSON},
		},
		Defaults: map[string]any{"b": 2},
	}
	cfg := d.DefaultConfig()
	if cfg["a"] != "x" || cfg["b"] != 2 || cfg["c"] != nil {
		t.Errorf("DefaultConfig() = %v", cfg)
	}
	if _, ok := cfg["c"]; !ok {
		t.Error("DefaultConfig() must contain every property")
	}
}
