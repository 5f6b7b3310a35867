package registry

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/matzehuels/flowcanvas/pkg/nodedef"
	"github.com/matzehuels/flowcanvas/pkg/workflow"
)

func typeIDs(defs []*nodedef.Definition) []string {
	ids := make([]string, len(defs))
	for i, d := range defs {
		ids[i] = d.TypeID
	}
	return ids
}

func TestRegister_EchoScenario(t *testing.T) {
	r := New()
	r.MustRegister(&nodedef.Definition{
		TypeID:     "test.echo",
		Version:    1,
		Properties: []nodedef.PropertyDef{{Name: "x", Type: nodedef.TypeNumber, Required: true}},
	})

	def, ok := r.Get("test.echo")
	if !ok {
		t.Fatal("Get(test.echo) not found")
	}
	res := def.ValidateConfig(map[string]any{})
	if res.Valid || !slices.Equal(res.Errors, []string{"x es requerido"}) {
		t.Errorf("ValidateConfig({}) = %+v", res)
	}
	if res := def.ValidateConfig(map[string]any{"x": 5}); !res.Valid {
		t.Errorf("ValidateConfig({x:5}) = %+v", res)
	}
}

func TestRegister_Errors(t *testing.T) {
	r := New()
	if err := r.Register(nil); !errors.Is(err, nodedef.ErrInvalidDefinition) {
		t.Errorf("Register(nil) = %v", err)
	}
	if err := r.Register(&nodedef.Definition{TypeID: "nodots", Version: 1}); err == nil {
		t.Error("Register(undotted) = nil, want error")
	}

	r.Freeze()
	err := r.Register(&nodedef.Definition{TypeID: "test.late", Version: 1})
	if !errors.Is(err, ErrFrozen) {
		t.Errorf("Register after Freeze = %v, want ErrFrozen", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("MustRegister(nil) did not panic")
		}
	}()
	New().MustRegister(nil)
}

func TestRegister_LastWriteWins(t *testing.T) {
	r := New()
	r.MustRegister(&nodedef.Definition{TypeID: "test.dup", Version: 1, DisplayName: "first"})
	r.MustRegister(&nodedef.Definition{TypeID: "test.dup", Version: 2, DisplayName: "second"})
	def, _ := r.Get("test.dup")
	if def.DisplayName != "second" || r.Len() != 1 {
		t.Errorf("Get(test.dup) = %q (len %d), want second (len 1)", def.DisplayName, r.Len())
	}
}

func TestRegister_CheckedAgainstEnv(t *testing.T) {
	r := New(WithEnv(&nodedef.Env{Rules: nodedef.StandardRules}))
	err := r.Register(&nodedef.Definition{
		TypeID:     "test.rule",
		Version:    1,
		Properties: []nodedef.PropertyDef{{Name: "a", Type: nodedef.TypeString, Rules: []nodedef.Rule{nodedef.Custom("nope")}}},
	})
	if err == nil {
		t.Error("Register with unknown rule = nil, want error")
	}
}

func TestBuiltin(t *testing.T) {
	r := Builtin()
	if !r.Frozen() {
		t.Error("Builtin() is not frozen")
	}
	want := []string{
		"ap.action.http", "ap.agent.core", "ap.condition.expr", "ap.memory.kv",
		"ap.model.llm", "ap.response.chat", "ap.response.end", "ap.tool.http",
		"ap.tool.postgres", "ap.trigger.input", "ap.trigger.manual", "ap.trigger.webhook",
	}
	if got := typeIDs(r.All()); !slices.Equal(got, want) {
		t.Errorf("All() = %v\nwant %v", got, want)
	}

	for _, d := range r.ByCategory(nodedef.CategoryTrigger) {
		if len(d.Inputs) != 0 || !d.IsTrigger() {
			t.Errorf("trigger %s has inputs %v", d.TypeID, d.Inputs)
		}
	}
}

func TestBuiltinPortCompatibility(t *testing.T) {
	r := Builtin()
	port := func(typeID, id string, output bool) nodedef.PortDef {
		t.Helper()
		d, ok := r.Get(typeID)
		if !ok {
			t.Fatalf("missing %s", typeID)
		}
		var p nodedef.PortDef
		if output {
			p, ok = d.Output(id)
		} else {
			p, ok = d.Input(id)
		}
		if !ok {
			t.Fatalf("%s has no port %q", typeID, id)
		}
		return p
	}

	tests := []struct {
		name     string
		src, out string
		dst, in  string
		want     bool
	}{
		{"main into main", "ap.trigger.manual", "out", "ap.agent.core", "in", true},
		{"else branch into main", "ap.condition.expr", "else", "ap.response.end", "in", true},
		{"memory into agent", "ap.memory.kv", "out", "ap.agent.core", "memory", true},
		{"model into agent", "ap.model.llm", "out", "ap.agent.core", "model", true},
		{"http tool into agent", "ap.tool.http", "out", "ap.agent.core", "tools", true},
		{"memory into chat response", "ap.memory.kv", "out", "ap.response.chat", "in", false},
		{"tool into http action", "ap.tool.postgres", "out", "ap.action.http", "in", false},
		{"main into agent tools", "ap.trigger.manual", "out", "ap.agent.core", "tools", false},
		{"error into main", "ap.agent.core", "error", "ap.response.chat", "in", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := port(tt.src, tt.out, true)
			in := port(tt.dst, tt.in, false)
			if got := out.CanConnectTo(in); got != tt.want {
				t.Errorf("%s.%s -> %s.%s = %v, want %v", tt.src, tt.out, tt.dst, tt.in, got, tt.want)
			}
		})
	}
}

func TestSearch(t *testing.T) {
	r := Builtin()

	tests := []struct {
		name string
		got  []*nodedef.Definition
		want []string
	}{
		{"tags any", r.SearchByTags("SQL", "memory"), []string{"ap.memory.kv", "ap.tool.postgres"}},
		{"tags none", r.SearchByTags(), []string{}},
		{"query name", r.Search("webhook"), []string{"ap.trigger.webhook"}},
		{"query case", r.Search("CHAT"), []string{"ap.model.llm", "ap.response.chat", "ap.trigger.input"}},
		{"query miss", r.Search("kubernetes"), []string{}},
		{"category", r.ByCategory(nodedef.CategoryLogic), []string{"ap.condition.expr"}},
		{"find all", r.Find(Query{}), typeIDs(r.All())},
		{"find category and tag", r.Find(Query{Category: nodedef.CategoryTrigger, Tags: []string{"http"}}), []string{"ap.trigger.webhook"}},
		{"find text", r.Find(Query{Category: nodedef.CategoryResponse, Text: "chat"}), []string{"ap.response.chat"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := typeIDs(tt.got); !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if cats := r.Categories(); len(cats) != 8 {
		t.Errorf("Categories() = %v", cats)
	}
}

func TestConcurrentReads(t *testing.T) {
	r := Builtin()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				r.Get("ap.agent.core")
				r.Search("http")
				r.All()
			}
		}()
	}
	wg.Wait()
}

func TestUpgradeNode(t *testing.T) {
	r := Builtin()
	n := workflow.Node{
		ID:      "n_1",
		TypeID:  "ap.model.llm",
		Version: 1,
		Config:  map[string]any{"model": "anthropic/claude", "temp": 0.2},
	}

	up, err := r.UpgradeNode(n)
	if err != nil {
		t.Fatalf("UpgradeNode: %v", err)
	}
	if up.Version != 3 || up.Config["provider"] != "anthropic" || up.Config["model"] != "claude" || up.Config["temperature"] != 0.2 {
		t.Errorf("UpgradeNode() = %+v", up)
	}
	if n.Config["model"] != "anthropic/claude" {
		t.Error("UpgradeNode modified its input")
	}

	n.Version = 9
	if _, err := r.UpgradeNode(n); err == nil || !strings.Contains(err.Error(), "newer") {
		t.Errorf("UpgradeNode(v9) = %v, want newer-version error", err)
	}
	if _, err := r.ValidateNode(workflow.Node{TypeID: "ap.nope"}); !errors.Is(err, ErrUnknownType) {
		t.Errorf("ValidateNode(unknown) = %v", err)
	}
}

func TestValidateNode_Advisory(t *testing.T) {
	r := Builtin()
	def, _ := r.Get("ap.tool.http")
	n := workflow.NewNode(def, workflow.Position{})
	res, err := r.ValidateNode(n)
	if err != nil {
		t.Fatalf("ValidateNode: %v", err)
	}
	if res.Valid || !slices.Contains(res.Errors, "URL es requerido") {
		t.Errorf("ValidateNode(new http tool) = %+v", res)
	}

	n.Config["url"] = "https://example.com"
	if res, _ := r.ValidateNode(n); !res.Valid {
		t.Errorf("ValidateNode(with url) = %+v", res)
	}
}

const extraCatalog = `
[[node]]
type_id = "acme.slack.post"
version = 2
display_name = "Slack"
category = "action"
tags = ["chat", "slack"]

[[node.inputs]]
id = "in"
type = "main"

[[node.properties]]
name = "channel"
label = "Canal"
type = "string"
required = true

[[node.properties]]
name = "retries"
type = "number"
default = 3
rules = [{ kind = "range", min = 0, max = 5 }]

[node.runtime]
timeout = "30s"

[[node.migrations]]
version = 2
ops = [{ op = "rename", field = "room", to = "channel" }]
`

func TestLoadCatalog(t *testing.T) {
	r := New()
	n, err := r.LoadCatalog(strings.NewReader(extraCatalog))
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if n != 1 {
		t.Fatalf("LoadCatalog() = %d, want 1", n)
	}
	def, ok := r.Get("acme.slack.post")
	if !ok {
		t.Fatal("acme.slack.post not registered")
	}
	if def.Runtime.Timeout.String() != "30s" {
		t.Errorf("Runtime.Timeout = %v", def.Runtime.Timeout)
	}

	cfg, err := def.MigrateConfig(map[string]any{"room": "#ops"}, 1)
	if err != nil {
		t.Fatalf("MigrateConfig: %v", err)
	}
	if cfg["channel"] != "#ops" {
		t.Errorf("MigrateConfig() = %v", cfg)
	}
	if res := def.ValidateConfig(map[string]any{"channel": "#ops", "retries": 9}); res.Valid {
		t.Error("ValidateConfig(retries=9) valid, want range error")
	}

	if _, err := New().LoadCatalog(strings.NewReader("[[node]]\ntype_id = \"bad\"\nversion = 1\n")); err == nil {
		t.Error("LoadCatalog(bad id) = nil, want error")
	}
}
