package workflow

import (
	"strings"
	"testing"

	"github.com/matzehuels/flowcanvas/pkg/nodedef"
)

func TestNewNodeID_Sortable(t *testing.T) {
	prev := ""
	seen := make(map[string]bool)
	for range 1000 {
		id := NewNodeID()
		if !strings.HasPrefix(id, NodeIDPrefix) {
			t.Fatalf("NewNodeID() = %q, want prefix %q", id, NodeIDPrefix)
		}
		if seen[id] {
			t.Fatalf("NewNodeID() returned duplicate %q", id)
		}
		if id <= prev {
			t.Fatalf("NewNodeID() = %q not after %q", id, prev)
		}
		seen[id] = true
		prev = id
	}
	if _, ok := IDTime(NewEdgeID()); !ok {
		t.Error("IDTime(NewEdgeID()) failed")
	}
	if _, ok := IDTime("node-1"); ok {
		t.Error("IDTime(node-1) = ok, want false")
	}
}

func TestEdge_Handles(t *testing.T) {
	src, dst := Edge{}.Handles()
	if src != "out" || dst != "in" {
		t.Errorf("Handles() = %q, %q, want out, in", src, dst)
	}
	src, dst = Edge{SourceHandle: "else", TargetHandle: "tools"}.Handles()
	if src != "else" || dst != "tools" {
		t.Errorf("Handles() = %q, %q", src, dst)
	}
}

func TestNewNode_SeedsDefaults(t *testing.T) {
	def := &nodedef.Definition{
		TypeID:      "ap.test.node",
		Version:     2,
		DisplayName: "Test",
		Properties:  []nodedef.PropertyDef{{Name: "n", Type: nodedef.TypeNumber, Default: 3}},
	}
	n := NewNode(def, Position{X: 10, Y: 20})
	if n.TypeID != def.TypeID || n.Version != 2 || n.Status != StatusIdle {
		t.Errorf("NewNode() = %+v", n)
	}
	if n.Config["n"] != 3 {
		t.Errorf("Config = %v, want n=3", n.Config)
	}
}

func TestCloneNodes_Deep(t *testing.T) {
	nodes := []Node{{ID: "a", Config: map[string]any{"k": []any{1}}, Size: &Size{Width: 1}}}
	c := CloneNodes(nodes)
	c[0].Config["k"].([]any)[0] = 2
	c[0].Size.Width = 5
	if nodes[0].Config["k"].([]any)[0] != 1 || nodes[0].Size.Width != 1 {
		t.Error("CloneNodes shares state with its input")
	}
}
