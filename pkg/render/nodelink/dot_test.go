package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/flowcanvas/pkg/workflow"
)

func sample() ([]workflow.Node, []workflow.Edge) {
	nodes := []workflow.Node{
		{ID: "n_1", TypeID: "ap.trigger.webhook", Version: 1, Label: "Webhook"},
		{ID: "n_2", TypeID: "ap.agent.core", Version: 2, Status: workflow.StatusRunning, Position: workflow.Position{X: 300, Y: 0}},
		{ID: "n_3", TypeID: "ap.condition.expr", Version: 1, Position: workflow.Position{X: 600, Y: 120}},
	}
	edges := []workflow.Edge{
		{ID: "e_1", Source: "n_1", Target: "n_2"},
		{ID: "e_2", Source: "n_2", Target: "n_3", Label: "route"},
		{ID: "e_3", Source: "n_3", Target: "n_1", SourceHandle: "false"},
	}
	return nodes, edges
}

func TestToDOT_Basic(t *testing.T) {
	nodes, edges := sample()
	dot := ToDOT(nodes, edges, Options{})

	for _, want := range []string{
		"digraph G",
		"rankdir=LR;",
		`"n_1" [label="Webhook", peripheries=2];`,
		`"n_2" [label="ap.agent.core", fillcolor=lightblue];`,
		`"n_1" -> "n_2";`,
		`"n_2" -> "n_3" [label="route"];`,
		`"n_3" -> "n_1" [taillabel="false"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "pos=") {
		t.Error("unpinned DOT should not carry positions")
	}
}

func TestToDOT_Detailed(t *testing.T) {
	nodes, _ := sample()
	dot := ToDOT(nodes[1:2], nil, Options{Detailed: true})

	if !strings.Contains(dot, `ap.agent.core\nap.agent.core v2\nn_2`) {
		t.Errorf("detailed label missing type and version:\n%s", dot)
	}
}

func TestToDOT_Pinned(t *testing.T) {
	nodes, edges := sample()
	dot := ToDOT(nodes, edges, Options{Pinned: true})

	if strings.Contains(dot, "rankdir") {
		t.Error("pinned DOT should not set rankdir")
	}
	// Bottom edge is n_3 at y=120+100; centres flip around it.
	for _, want := range []string{`pos="100,170!"`, `pos="400,170!"`, `pos="700,50!"`} {
		if !strings.Contains(dot, want) {
			t.Errorf("pinned DOT missing %s:\n%s", want, dot)
		}
	}
}

func TestToDOT_Direction(t *testing.T) {
	dot := ToDOT(nil, nil, Options{Direction: "down"})
	if !strings.Contains(dot, "rankdir=TB;") {
		t.Errorf("direction not applied:\n%s", dot)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatSVG, false},
		{"SVG", FormatSVG, false},
		{"png", FormatPNG, false},
		{"dot", FormatDOT, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestRenderSVG(t *testing.T) {
	nodes, edges := sample()
	svg, err := RenderSVG(context.Background(), ToDOT(nodes, edges, Options{}), false)
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") || !strings.Contains(string(svg), "Webhook") {
		t.Errorf("unexpected SVG: %.200s", svg)
	}
}

func TestRenderDOTPassthrough(t *testing.T) {
	out, err := Render(context.Background(), "digraph G {}", FormatDOT, false)
	if err != nil || string(out) != "digraph G {}" {
		t.Errorf("Render(dot) = %q, %v", out, err)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 100.00 50.00" width="100" height="50"`) {
		t.Errorf("normalizeViewBox = %s", out)
	}
	if got := normalizeViewBox([]byte("<svg>")); string(got) != "<svg>" {
		t.Errorf("no viewBox should pass through, got %s", got)
	}
}
