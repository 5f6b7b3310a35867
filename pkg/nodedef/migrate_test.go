package nodedef

import (
	"errors"
	"reflect"
	"testing"
)

func versionedDef() *Definition {
	return &Definition{
		TypeID:  "test.versioned",
		Version: 3,
		Properties: []PropertyDef{
			{Name: "prompt", Type: TypeString},
			{Name: "temperature", Type: TypeNumber},
		},
		Migrations: map[int][]MigrationOp{
			2: {Rename("text", "prompt")},
			3: {Default("temperature", 0.7), Delete("legacy")},
		},
	}
}

func TestMigrateConfig_Composes(t *testing.T) {
	def := versionedDef()
	in := map[string]any{"text": "hi", "legacy": true}

	got, err := def.MigrateConfig(in, 1)
	if err != nil {
		t.Fatalf("MigrateConfig: %v", err)
	}
	want := map[string]any{"prompt": "hi", "temperature": 0.7}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MigrateConfig(v1) = %v, want %v", got, want)
	}

	// f3(f2(cfg)) must equal a single migration from version 1.
	step2, _ := def.MigrateConfig(in, 1)
	def2 := *def
	def2.Version = 2
	mid, _ := def2.MigrateConfig(in, 1)
	step, _ := def.MigrateConfig(mid, 2)
	if !reflect.DeepEqual(step, step2) {
		t.Errorf("stepwise = %v, direct = %v", step, step2)
	}

	if _, ok := in["prompt"]; ok {
		t.Error("MigrateConfig modified its input")
	}
}

func TestMigrateConfig_CurrentVersionIsCopy(t *testing.T) {
	def := versionedDef()
	in := map[string]any{"prompt": "hi", "nested": map[string]any{"a": 1}}

	got, err := def.MigrateConfig(in, 3)
	if err != nil {
		t.Fatalf("MigrateConfig: %v", err)
	}
	if !reflect.DeepEqual(got, in) {
		t.Errorf("MigrateConfig(current) = %v, want %v", got, in)
	}
	got["nested"].(map[string]any)["a"] = 2
	if in["nested"].(map[string]any)["a"] != 1 {
		t.Error("result shares nested maps with input")
	}
}

func TestMigrateConfig_GapIsNoop(t *testing.T) {
	// Version 2 has no steps; going 1 -> 3 runs only the version 3 steps.
	def := &Definition{
		TypeID:     "test.gap",
		Version:    3,
		Migrations: map[int][]MigrationOp{3: {Set("mode", "fast")}},
	}
	got, err := def.MigrateConfig(map[string]any{"a": 1}, 1)
	if err != nil {
		t.Fatalf("MigrateConfig: %v", err)
	}
	if want := map[string]any{"a": 1, "mode": "fast"}; !reflect.DeepEqual(got, want) {
		t.Errorf("MigrateConfig = %v, want %v", got, want)
	}
}

func TestMigrateConfig_Transform(t *testing.T) {
	def := &Definition{
		TypeID:     "test.transform",
		Version:    2,
		Migrations: map[int][]MigrationOp{2: {Transform("wrap")}},
	}
	env := &Env{Transforms: Transforms{
		"wrap": func(cfg map[string]any) (map[string]any, error) {
			return map[string]any{"inner": cfg}, nil
		},
		"fail": func(map[string]any) (map[string]any, error) { return nil, errors.New("boom") },
	}}

	got, err := def.MigrateConfigIn(env, map[string]any{"a": 1}, 1)
	if err != nil {
		t.Fatalf("MigrateConfigIn: %v", err)
	}
	if want := map[string]any{"inner": map[string]any{"a": 1}}; !reflect.DeepEqual(got, want) {
		t.Errorf("MigrateConfigIn = %v, want %v", got, want)
	}

	if _, err := def.MigrateConfig(map[string]any{}, 1); err == nil {
		t.Error("MigrateConfig without env: want unknown transform error")
	}

	def.Migrations[2] = []MigrationOp{Transform("fail")}
	if _, err := def.MigrateConfigIn(env, map[string]any{}, 1); err == nil {
		t.Error("MigrateConfigIn with failing transform: want error")
	}
}
