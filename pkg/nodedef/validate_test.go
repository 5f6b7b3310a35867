package nodedef

import (
	"slices"
	"testing"
)

func echoDef() *Definition {
	return &Definition{
		TypeID:      "test.echo",
		Version:     1,
		DisplayName: "Echo",
		Category:    CategoryUtilities,
		Properties: []PropertyDef{
			{Name: "x", Type: TypeNumber, Required: true},
		},
	}
}

func TestValidateConfig_RequiredNumber(t *testing.T) {
	def := echoDef()

	res := def.ValidateConfig(map[string]any{})
	if res.Valid {
		t.Fatal("Valid = true for empty config, want false")
	}
	if want := []string{"x es requerido"}; !slices.Equal(res.Errors, want) {
		t.Errorf("Errors = %q, want %q", res.Errors, want)
	}

	res = def.ValidateConfig(map[string]any{"x": 5})
	if !res.Valid {
		t.Errorf("Valid = false for {x: 5}, errors %q", res.Errors)
	}
	if res.Errors == nil || res.Warnings == nil {
		t.Error("Errors and Warnings must be non-nil")
	}
}

func TestValidateConfig_BuiltinChecks(t *testing.T) {
	def := &Definition{
		TypeID:  "test.all",
		Version: 1,
		Properties: []PropertyDef{
			{Name: "temp", Label: "Temperatura", Type: TypeNumber, Rules: []Rule{NumericRange(0, 2)}},
			{Name: "mode", Label: "Modo", Type: TypeEnum, Options: []string{"fast", "slow"}},
			{Name: "on", Label: "Activo", Type: TypeBoolean},
			{Name: "body", Label: "Cuerpo", Type: TypeJSON},
		},
	}

	tests := []struct {
		name string
		cfg  map[string]any
		want []string
	}{
		{"valid", map[string]any{"temp": 1.5, "mode": "fast", "on": true, "body": `{"a":1}`}, []string{}},
		{"absent optional", map[string]any{}, []string{}},
		{"empty string is absent", map[string]any{"mode": ""}, []string{}},
		{"not a number", map[string]any{"temp": "hot"}, []string{"Temperatura debe ser un número"}},
		{"below min", map[string]any{"temp": -1}, []string{"Temperatura debe ser >= 0"}},
		{"above max", map[string]any{"temp": 2.5}, []string{"Temperatura debe ser <= 2"}},
		{"bad enum", map[string]any{"mode": "medium"}, []string{"Modo debe ser uno de: fast, slow"}},
		{"bad bool", map[string]any{"on": "yes"}, []string{"Activo debe ser verdadero o falso"}},
		{"bad json", map[string]any{"body": "{"}, []string{"Cuerpo debe ser JSON válido"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := def.ValidateConfig(tt.cfg)
			if !slices.Equal(res.Errors, tt.want) {
				t.Errorf("Errors = %q, want %q", res.Errors, tt.want)
			}
			if res.Valid != (len(tt.want) == 0) {
				t.Errorf("Valid = %v", res.Valid)
			}
		})
	}
}

func TestValidateConfig_UnknownFieldWarns(t *testing.T) {
	res := echoDef().ValidateConfig(map[string]any{"x": 1, "y": 2, CredentialRefsKey: map[string]any{}})
	if !res.Valid {
		t.Fatalf("Valid = false, errors %q", res.Errors)
	}
	if want := []string{"Campo desconocido: y"}; !slices.Equal(res.Warnings, want) {
		t.Errorf("Warnings = %q, want %q", res.Warnings, want)
	}
}

func TestValidateConfig_CustomRuleOverrides(t *testing.T) {
	def := &Definition{
		TypeID:  "test.custom",
		Version: 1,
		Properties: []PropertyDef{
			{Name: "url", Label: "URL", Type: TypeNumber, Rules: []Rule{Custom("url")}},
		},
	}
	env := &Env{Rules: StandardRules}

	// The custom rule replaces the number check entirely.
	if res := def.ValidateConfigIn(env, map[string]any{"url": "https://example.com"}); !res.Valid {
		t.Errorf("Valid = false, errors %q", res.Errors)
	}
	res := def.ValidateConfigIn(env, map[string]any{"url": "ftp://x"})
	if want := []string{"URL debe ser una URL http(s)"}; !slices.Equal(res.Errors, want) {
		t.Errorf("Errors = %q, want %q", res.Errors, want)
	}

	// Without an environment the rule cannot run and only warns.
	res = def.ValidateConfig(map[string]any{"url": "ftp://x"})
	if !res.Valid || len(res.Warnings) != 1 {
		t.Errorf("ValidateConfig without env = %+v, want valid with one warning", res)
	}
}

func TestValidateConfig_Credentials(t *testing.T) {
	def := echoDef()
	def.Credentials = []CredentialDef{{Type: "openai", Required: true}}

	tests := []struct {
		name  string
		refs  any
		valid bool
	}{
		{"missing", nil, false},
		{"map", map[string]any{"openai": "cred_1"}, true},
		{"map empty id", map[string]any{"openai": ""}, false},
		{"list", []any{map[string]any{"type": "openai", "id": "cred_1"}}, true},
		{"list other type", []any{map[string]any{"type": "slack", "id": "cred_2"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := map[string]any{"x": 1}
			if tt.refs != nil {
				cfg[CredentialRefsKey] = tt.refs
			}
			res := def.ValidateConfig(cfg)
			if res.Valid != tt.valid {
				t.Errorf("Valid = %v, want %v (errors %q)", res.Valid, tt.valid, res.Errors)
			}
			if !tt.valid && !slices.Contains(res.Errors, "Credencial requerida: openai") {
				t.Errorf("Errors = %q, want credential error", res.Errors)
			}
		})
	}
}
