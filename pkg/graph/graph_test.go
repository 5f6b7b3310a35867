package graph

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/flowcanvas/pkg/registry"
	"github.com/matzehuels/flowcanvas/pkg/workflow"
)

func sampleDefinition() Definition {
	return Definition{
		ID:      "wf_1",
		Version: 1,
		Start:   "n_trigger",
		Nodes: []BaseNode{
			{ID: "n_trigger", Type: "trigger.manual", TypeVersion: 1, Config: map[string]any{}, UI: UI{X: 0, Y: 0}},
			{ID: "n_agent", Type: "agent.core", TypeVersion: 2, Label: "Agent",
				Config: map[string]any{"instructions": "be brief", "maxIterations": 4.0, "nested": map[string]any{"a": []any{1.0, "x"}}},
				UI:     UI{X: 300, Y: 0, W: 240, H: 120}},
			{ID: "n_future", Type: "vector.search", TypeVersion: 1, Config: map[string]any{"k": 3.0}},
			{ID: "n_end", Type: "response.end", TypeVersion: 1, Config: map[string]any{"status": "success"}},
		},
		Edges: []Edge{
			{ID: "e_1", Source: "n_trigger", Target: "n_agent"},
			{ID: "e_2", Source: "n_future", Target: "n_agent", SourceHandle: "out", TargetHandle: "tools"},
			{ID: "e_3", Source: "n_agent", Target: "n_end", Label: "done"},
		},
	}
}

func TestRoundTripIdentity(t *testing.T) {
	in := sampleDefinition()
	nodes, edges := FromCanonical(in)
	out := ToCanonical(nodes, edges, in.ID)

	if !reflect.DeepEqual(out, in) {
		t.Errorf("ToCanonical(FromCanonical(G)) differs\n got %+v\nwant %+v", out, in)
	}
	for _, n := range nodes {
		if n.Status != workflow.StatusIdle {
			t.Errorf("node %s status = %q, want idle", n.ID, n.Status)
		}
	}
	if nodes[2].TypeID != "ap.vector.search" {
		t.Errorf("unknown type = %q, want ap.vector.search", nodes[2].TypeID)
	}

	nodes[1].Config["nested"].(map[string]any)["a"].([]any)[0] = 9.0
	if in.Nodes[1].Config["nested"].(map[string]any)["a"].([]any)[0] != 1.0 {
		t.Error("FromCanonical shares config with its input")
	}
}

func TestTypeMapping(t *testing.T) {
	tests := []struct {
		internal, canonical, back string
	}{
		{"ap.trigger.webhook", "trigger.webhook", "ap.trigger.webhook"},
		{"ap.tool.http", "tool.http", "ap.tool.http"},
		{"ap.action.http", "tool.http", "ap.tool.http"},
		{"ap.response.end", "response.end", "ap.response.end"},
		{"ap.custom.thing", "custom.thing", "ap.custom.thing"},
	}
	for _, tt := range tests {
		t.Run(tt.internal, func(t *testing.T) {
			if got := CanonicalType(tt.internal); got != tt.canonical {
				t.Errorf("CanonicalType(%q) = %q, want %q", tt.internal, got, tt.canonical)
			}
			if got := InternalType(tt.canonical); got != tt.back {
				t.Errorf("InternalType(%q) = %q, want %q", tt.canonical, got, tt.back)
			}
		})
	}

	// The alias spelled as a canonical type is not stable across a round trip.
	if got := InternalType("action.http"); got != "ap.action.http" {
		t.Errorf("InternalType(action.http) = %q", got)
	}
	if got := CanonicalType(InternalType("action.http")); got != "tool.http" {
		t.Errorf("action.http written back as %q, want tool.http", got)
	}
}

func TestStartNode(t *testing.T) {
	tests := []struct {
		name  string
		nodes []workflow.Node
		edges []workflow.Edge
		want  string
	}{
		{"empty", nil, nil, ""},
		{
			"trigger wins",
			[]workflow.Node{{ID: "a", TypeID: "ap.agent.core"}, {ID: "t", TypeID: "ap.trigger.webhook"}},
			nil,
			"t",
		},
		{
			"no incoming",
			[]workflow.Node{{ID: "a", TypeID: "ap.agent.core"}, {ID: "b", TypeID: "ap.response.end"}},
			[]workflow.Edge{{ID: "e", Source: "b", Target: "a"}},
			"b",
		},
		{
			"cycle falls back to first",
			[]workflow.Node{{ID: "a", TypeID: "ap.agent.core"}, {ID: "b", TypeID: "ap.response.end"}},
			[]workflow.Edge{{ID: "e1", Source: "a", Target: "b"}, {ID: "e2", Source: "b", Target: "a"}},
			"a",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StartNode(tt.nodes, tt.edges); got != tt.want {
				t.Errorf("StartNode() = %q, want %q", got, tt.want)
			}
			def := ToCanonical(tt.nodes, tt.edges, "g")
			if len(tt.nodes) > 0 && !slices.Contains(def.NodeIDs(), def.Start) {
				t.Errorf("start %q not among nodes %v", def.Start, def.NodeIDs())
			}
		})
	}
}

func TestImport_RejectsAllDanglingEdges(t *testing.T) {
	data := `{"id":"g","version":1,"nodes":[
		{"id":"A","type":"trigger.manual","config":{}},
		{"id":"B","type":"agent.core","config":{}}],
	"edges":[
		{"id":"e1","source":"A","target":"X"},
		{"id":"e2","source":"B","target":"Y"}]}`

	res, err := Import([]byte(data), ImportOptions{})
	if res != nil {
		t.Fatal("Import returned a result for an invalid graph")
	}
	var ie *ImportError
	if !errors.As(err, &ie) {
		t.Fatalf("Import error = %v, want *ImportError", err)
	}
	if want := []string{"e1", "e2"}; !slices.Equal(ie.DanglingEdges, want) {
		t.Errorf("DanglingEdges = %v, want %v", ie.DanglingEdges, want)
	}
}

func TestImport_Structural(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		codes []string
	}{
		{"malformed", `{"nodes": [`, []string{CodeMalformed}},
		{"empty object", `{}`, []string{CodeNoNodes}},
		{"future version", `{"version":2,"nodes":[{"id":"a","type":"x.y"}]}`, []string{CodeUnsupportedVersion}},
		{
			"duplicates and blanks",
			`{"nodes":[{"id":"a","type":"x.y"},{"id":"a","type":""},{"id":"","type":"x.y"}],
			  "edges":[{"id":"e","source":"a","target":"b"},{"id":"e","source":"a","target":"b"},{"source":"a","target":"b"}]}`,
			[]string{CodeDuplicateNodeID, CodeEmptyNodeType, CodeEmptyNodeID, CodeDuplicateEdgeID, CodeEmptyEdgeID},
		},
		{"missing start", `{"start":"zz","nodes":[{"id":"a","type":"x.y"}]}`, []string{CodeMissingStart}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Import([]byte(tt.data), ImportOptions{})
			var ie *ImportError
			if !errors.As(err, &ie) {
				t.Fatalf("Import error = %v, want *ImportError", err)
			}
			var codes []string
			for _, is := range ie.Issues {
				codes = append(codes, is.Code)
			}
			if !slices.Equal(codes, tt.codes) {
				t.Errorf("codes = %v, want %v", codes, tt.codes)
			}
		})
	}
}

func TestImport_Tolerant(t *testing.T) {
	res, err := Import([]byte(`{"id":"g","nodes":[{"id":"a","type":"agent.core"},{"id":"t","type":"trigger.input"}]}`), ImportOptions{})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Definition.Start != "t" || res.Definition.Version != 1 {
		t.Errorf("Definition = %+v", res.Definition)
	}
	if res.Edges == nil || len(res.Edges) != 0 {
		t.Errorf("Edges = %v, want empty", res.Edges)
	}
	if res.Nodes[0].Version != 1 || res.Nodes[0].Config == nil {
		t.Errorf("node = %+v", res.Nodes[0])
	}
}

func TestImport_WithCatalog(t *testing.T) {
	reg := registry.Builtin()

	data := `{"id":"g","version":1,"nodes":[
		{"id":"t","type":"trigger.manual","typeVersion":1,"config":{}},
		{"id":"m","type":"model.llm","typeVersion":1,"config":{"model":"openai/gpt-4o","credentialRefs":{"llm_api_key":"k"}}},
		{"id":"a","type":"agent.core","typeVersion":1,"config":{"systemPrompt":"hola"}}],
	"edges":[
		{"id":"e1","source":"t","target":"a"},
		{"id":"e2","source":"m","target":"a","targetHandle":"model"}]}`

	res, err := Import([]byte(data), ImportOptions{Catalog: reg})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	model := res.Nodes[1]
	if model.Version != 3 || model.Config["provider"] != "openai" || model.Config["model"] != "gpt-4o" {
		t.Errorf("model node not migrated: %+v", model)
	}
	agent := res.Nodes[2]
	if agent.Config["instructions"] != "hola" || agent.Config["outputFormat"] != "text" {
		t.Errorf("agent node not migrated: %+v", agent)
	}
	if res.Definition.Nodes[2].TypeVersion != 2 {
		t.Errorf("definition typeVersion = %d, want 2", res.Definition.Nodes[2].TypeVersion)
	}

	bad := strings.Replace(data, `"targetHandle":"model"`, `"targetHandle":"bogus"`, 1)
	_, err = Import([]byte(bad), ImportOptions{Catalog: reg})
	var ie *ImportError
	if !errors.As(err, &ie) || len(ie.Issues) != 1 || ie.Issues[0].Code != CodeUnknownPort {
		t.Errorf("Import(bad handle) = %v", err)
	}
}

func TestImport_IncompatiblePorts(t *testing.T) {
	data := `{"nodes":[
		{"id":"h","type":"tool.http","config":{"url":"https://x"}},
		{"id":"c","type":"condition.expr","config":{"expression":"true"}},
		{"id":"x","type":"action.http","config":{}}],
	"edges":[{"id":"e1","source":"c","sourceHandle":"else","target":"h","targetHandle":"in"}]}`
	_, err := Import([]byte(data), ImportOptions{Catalog: registry.Builtin()})
	var ie *ImportError
	if !errors.As(err, &ie) || len(ie.Issues) != 1 || ie.Issues[0].Code != CodeUnknownPort {
		t.Fatalf("Import() = %v, want unknown port (tool has no input)", err)
	}

	src, _ := registry.Builtin().Get("ap.action.http")
	dst, _ := registry.Builtin().Get("ap.response.chat")
	e := workflow.Edge{ID: "e", SourceHandle: "error", TargetHandle: "in"}
	if is := CheckConnection(e, src, dst); is == nil || is.Code != CodeIncompatiblePorts {
		t.Errorf("CheckConnection(error -> main) = %v", is)
	}
}

func TestImportYAMLAndFiles(t *testing.T) {
	def := sampleDefinition()
	dir := t.TempDir()

	for _, name := range []string{"g.json", "g.yaml"} {
		path := filepath.Join(dir, name)
		if err := WriteFile(def, path); err != nil {
			t.Fatalf("WriteFile(%s): %v", name, err)
		}
		res, err := ReadFile(path, ImportOptions{})
		if err != nil {
			t.Fatalf("ReadFile(%s): %v", name, err)
		}
		if !slices.Equal(res.Definition.NodeIDs(), def.NodeIDs()) {
			t.Errorf("%s: nodes = %v", name, res.Definition.NodeIDs())
		}
		if len(res.Edges) != 3 || res.Edges[1].TargetHandle != "tools" {
			t.Errorf("%s: edges = %+v", name, res.Edges)
		}
	}

	if _, err := ReadFile(filepath.Join(dir, "missing.json"), ImportOptions{}); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadFile(missing) = %v", err)
	}
}

func TestLayout_ApplyTo(t *testing.T) {
	def := sampleDefinition()
	l := Layout{Engine: "layered", Placements: []Placement{{ID: "n_agent", X: 40, Y: 60}}}
	out := l.ApplyTo(def)
	if out.Nodes[1].UI.X != 40 || out.Nodes[1].UI.Y != 60 || out.Nodes[1].UI.W != 240 {
		t.Errorf("ApplyTo() node = %+v", out.Nodes[1].UI)
	}
	if def.Nodes[1].UI.X != 300 {
		t.Error("ApplyTo modified its input")
	}

	data, _ := MarshalLayout(l)
	back, err := UnmarshalLayout(data)
	if err != nil || !reflect.DeepEqual(back, l) {
		t.Errorf("UnmarshalLayout() = %+v, %v", back, err)
	}
	if _, err := UnmarshalLayout([]byte(`{}`)); err == nil {
		t.Error("UnmarshalLayout({}) = nil error")
	}
}
