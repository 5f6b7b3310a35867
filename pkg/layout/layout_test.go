package layout

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/matzehuels/flowcanvas/pkg/workflow"
)

func node(id, typeID string) workflow.Node {
	return workflow.Node{ID: id, TypeID: typeID, Version: 1, Config: map[string]any{"k": id}}
}

func edge(id, from, to string) workflow.Edge {
	return workflow.Edge{ID: id, Source: from, Target: to}
}

func chain() ([]workflow.Node, []workflow.Edge) {
	nodes := []workflow.Node{
		node("A", "ap.trigger.manual"),
		node("B", "ap.agent.core"),
		node("C", "ap.response.end"),
	}
	edges := []workflow.Edge{edge("e1", "A", "B"), edge("e2", "B", "C")}
	return nodes, edges
}

func diamond() ([]workflow.Node, []workflow.Edge) {
	nodes := []workflow.Node{
		node("A", "ap.trigger.webhook"),
		node("B", "ap.agent.core"),
		node("C", "ap.tool.http"),
		node("D", "ap.response.chat"),
	}
	edges := []workflow.Edge{
		edge("e1", "A", "B"),
		edge("e2", "A", "C"),
		edge("e3", "B", "D"),
		edge("e4", "C", "D"),
	}
	return nodes, edges
}

func positions(nodes []workflow.Node) map[string]workflow.Position {
	m := make(map[string]workflow.Position, len(nodes))
	for _, n := range nodes {
		m[n.ID] = n.Position
	}
	return m
}

func TestApplyLinearChain(t *testing.T) {
	nodes, edges := chain()
	sizes := FixedSizes(map[string]workflow.Size{
		"A": {Width: 200, Height: 100},
		"B": {Width: 200, Height: 100},
		"C": {Width: 200, Height: 100},
	})

	got, err := Apply(context.Background(), nodes, edges, sizes, Options{LayerSpacing: 200, Direction: DirectionRight})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	pos := positions(got)

	if pos["B"].X-pos["A"].X != 400 || pos["C"].X-pos["B"].X != 400 {
		t.Errorf("x steps = %v, %v, want 400", pos["B"].X-pos["A"].X, pos["C"].X-pos["B"].X)
	}
	if pos["A"].Y != pos["B"].Y || pos["B"].Y != pos["C"].Y {
		t.Errorf("y not constant: %v", pos)
	}
}

func TestApplyDirections(t *testing.T) {
	tests := []struct {
		dir          Direction
		wantX, wantY [3]float64
	}{
		{DirectionRight, [3]float64{0, 300, 600}, [3]float64{0, 0, 0}},
		{DirectionLeft, [3]float64{600, 300, 0}, [3]float64{0, 0, 0}},
		{DirectionDown, [3]float64{0, 0, 0}, [3]float64{0, 200, 400}},
		{DirectionUp, [3]float64{0, 0, 0}, [3]float64{400, 200, 0}},
	}
	for _, tt := range tests {
		t.Run(string(tt.dir), func(t *testing.T) {
			nodes, edges := chain()
			got, err := Apply(context.Background(), nodes, edges, nil, Options{Direction: tt.dir})
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			for i, n := range got {
				if n.Position.X != tt.wantX[i] || n.Position.Y != tt.wantY[i] {
					t.Errorf("%s = (%v,%v), want (%v,%v)", n.ID, n.Position.X, n.Position.Y, tt.wantX[i], tt.wantY[i])
				}
			}
		})
	}
}

func TestApplyDiamondSnapsToGrid(t *testing.T) {
	nodes, edges := diamond()
	got, err := Apply(context.Background(), nodes, edges, nil, Options{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	pos := positions(got)

	for id, p := range pos {
		if math.Mod(p.X, DefaultGridSize) != 0 || math.Mod(p.Y, DefaultGridSize) != 0 {
			t.Errorf("%s = %v, not on the %v grid", id, p, DefaultGridSize)
		}
	}
	if !(pos["A"].X < pos["B"].X && pos["B"].X < pos["D"].X) {
		t.Errorf("layers not left to right: %v", pos)
	}
	if pos["B"].X != pos["C"].X {
		t.Errorf("B and C should share a layer: %v", pos)
	}
	if pos["B"].Y >= pos["C"].Y {
		t.Errorf("declaration order lost: B.y=%v C.y=%v", pos["B"].Y, pos["C"].Y)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	nodes, edges := diamond()
	first, err := Apply(context.Background(), nodes, edges, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := Apply(context.Background(), first, edges, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	p1, p2 := positions(first), positions(second)
	for id := range p1 {
		if p1[id] != p2[id] {
			t.Errorf("%s moved on rerun: %v -> %v", id, p1[id], p2[id])
		}
	}
}

func TestApplyOnlyChangesPositions(t *testing.T) {
	nodes, edges := diamond()
	nodes[1].Status = workflow.StatusRunning

	got, err := Apply(context.Background(), nodes, edges, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for i, n := range got {
		orig := nodes[i]
		if n.ID != orig.ID || n.TypeID != orig.TypeID || n.Status != orig.Status || n.Config["k"] != orig.Config["k"] {
			t.Errorf("node %d changed beyond position: %+v", i, n)
		}
	}
	got[0].Config["k"] = "mutated"
	if nodes[0].Config["k"] != "A" {
		t.Error("Apply result shares config with input")
	}
}

func TestApplyFailureKeepsOriginal(t *testing.T) {
	nodes, _ := chain()
	nodes[0].Position = workflow.Position{X: 13, Y: 7}
	edges := []workflow.Edge{edge("e1", "A", "B"), edge("bad", "B", "missing")}

	got, err := Apply(context.Background(), nodes, edges, nil, Options{})
	if !errors.Is(err, ErrDanglingEdge) {
		t.Fatalf("err = %v, want ErrDanglingEdge", err)
	}
	if len(got) != len(nodes) {
		t.Fatalf("len = %d, want %d", len(got), len(nodes))
	}
	for i := range nodes {
		if got[i].Position != nodes[i].Position {
			t.Errorf("%s moved to %v on failure", nodes[i].ID, got[i].Position)
		}
	}
}

func TestApplyCancelled(t *testing.T) {
	nodes, edges := diamond()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := Apply(ctx, nodes, edges, nil, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if positions(got)["B"] != nodes[1].Position {
		t.Error("cancelled layout moved nodes")
	}
}

func TestApplyCycle(t *testing.T) {
	nodes := []workflow.Node{node("A", "ap.agent.core"), node("B", "ap.tool.http")}
	edges := []workflow.Edge{edge("e1", "A", "B"), edge("e2", "B", "A"), edge("e3", "A", "A")}

	got, err := Apply(context.Background(), nodes, edges, nil, Options{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got[0].Position == got[1].Position {
		t.Errorf("cycle nodes overlap at %v", got[0].Position)
	}
}

func TestComputeLayout(t *testing.T) {
	nodes, edges := chain()
	l, err := Compute(context.Background(), nodes, edges, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if l.Engine != string(EngineLayered) || l.Direction != string(DirectionRight) || !l.Linear {
		t.Errorf("layout meta = %+v", l)
	}
	if len(l.Placements) != 3 || l.Placements[0].ID != "A" {
		t.Fatalf("placements = %+v", l.Placements)
	}
	if l.Width != 800 || l.Height != 100 {
		t.Errorf("bbox = %vx%v, want 800x100", l.Width, l.Height)
	}
}

func TestComputeRejectsUnknownEngine(t *testing.T) {
	nodes, edges := chain()
	if _, err := Compute(context.Background(), nodes, edges, nil, Options{Engine: "elk"}); err == nil {
		t.Error("expected error for unknown engine")
	}
}

func TestBuildPorts(t *testing.T) {
	nodes, edges := chain()
	g, err := Build(nodes, edges, nil, Options{Direction: DirectionDown})
	if err != nil {
		t.Fatal(err)
	}

	trigger, _ := g.Box("A")
	if !trigger.Trigger || len(trigger.Ports) != 1 || trigger.Ports[0] != (Port{ID: PortOut, Side: SideSouth}) {
		t.Errorf("trigger ports = %+v", trigger.Ports)
	}
	agent, _ := g.Box("B")
	if in, ok := agent.Port(PortIn); !ok || in.Side != SideNorth {
		t.Errorf("agent in port = %+v, %v", in, ok)
	}
	if agent.Width != DefaultWidth || agent.Height != DefaultHeight {
		t.Errorf("default size = %vx%v", agent.Width, agent.Height)
	}
}

func TestBuildSizes(t *testing.T) {
	nodes, edges := chain()
	nodes[1].Size = &workflow.Size{Width: 320, Height: 80}
	nodes[2].Size = &workflow.Size{Width: 320, Height: 80}
	sizes := FixedSizes(map[string]workflow.Size{"C": {Width: 100, Height: 40}})

	g, err := Build(nodes, edges, sizes, Options{})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := g.Box("B")
	c, _ := g.Box("C")
	if b.Width != 320 || c.Width != 100 {
		t.Errorf("widths = %v, %v; want node size then lookup", b.Width, c.Width)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		nodes []workflow.Node
		edges []workflow.Edge
		want  error
	}{
		{"empty id", []workflow.Node{node("", "ap.agent.core")}, nil, ErrEmptyNodeID},
		{"duplicate", []workflow.Node{node("A", "x"), node("A", "y")}, nil, ErrDuplicateNode},
		{"dangling", []workflow.Node{node("A", "x")}, []workflow.Edge{edge("e", "A", "Z")}, ErrDanglingEdge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Build(tt.nodes, tt.edges, nil, Options{}); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestIsLinearChain(t *testing.T) {
	tests := []struct {
		name  string
		nodes []string
		links [][2]string
		want  bool
	}{
		{"empty", nil, nil, false},
		{"single", []string{"a"}, nil, true},
		{"chain", []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}}, true},
		{"declared out of order", []string{"c", "a", "b"}, [][2]string{{"a", "b"}, {"b", "c"}}, true},
		{"branch", []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"a", "c"}}, false},
		{"merge", []string{"a", "b", "c"}, [][2]string{{"a", "c"}, {"b", "c"}}, false},
		{"disconnected", []string{"a", "b"}, nil, false},
		{"cycle", []string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}}, false},
		{"tail loop", []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}, {"c", "b"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var nodes []workflow.Node
			for _, id := range tt.nodes {
				nodes = append(nodes, node(id, "ap.agent.core"))
			}
			var edges []workflow.Edge
			for i, l := range tt.links {
				edges = append(edges, edge(string(rune('p'+i)), l[0], l[1]))
			}
			g, err := Build(nodes, edges, nil, Options{})
			if err != nil {
				t.Fatal(err)
			}
			if _, got := IsLinearChain(g); got != tt.want {
				t.Errorf("IsLinearChain = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTidySnapsNonLinear(t *testing.T) {
	nodes, edges := diamond()
	g, _ := Build(nodes, edges, nil, Options{})
	raw := map[string]workflow.Position{
		"A": {X: 9, Y: 31}, "B": {X: 311, Y: -11}, "C": {X: 305, Y: 149}, "D": {X: 590, Y: 70},
	}
	got, linear := Tidy(g, raw, Options{})
	if linear {
		t.Fatal("diamond reported as linear")
	}
	want := map[string]workflow.Position{
		"A": {X: 0, Y: 40}, "B": {X: 320, Y: -20}, "C": {X: 300, Y: 140}, "D": {X: 600, Y: 80},
	}
	for id, w := range want {
		if got[id] != w {
			t.Errorf("%s = %v, want %v", id, got[id], w)
		}
	}
}

func TestTidyStraightensChain(t *testing.T) {
	nodes, edges := chain()
	g, _ := Build(nodes, edges, nil, Options{})
	raw := map[string]workflow.Position{"A": {X: 12, Y: 47}, "B": {X: 250, Y: 90}, "C": {X: 900, Y: 3}}

	got, linear := Tidy(g, raw, Options{LayerSpacing: 60})
	if !linear {
		t.Fatal("chain not detected")
	}
	want := []workflow.Position{{X: 20, Y: 40}, {X: 280, Y: 40}, {X: 540, Y: 40}}
	for i, id := range []string{"A", "B", "C"} {
		if got[id] != want[i] {
			t.Errorf("%s = %v, want %v", id, got[id], want[i])
		}
	}
}

func TestToDOT(t *testing.T) {
	nodes, edges := chain()
	g, _ := Build(nodes, edges, nil, Options{})
	dot := ToDOT(g, Options{})

	for _, want := range []string{
		"rankdir=LR;",
		"ordering=out;",
		`"A" [width=2.7778, height=1.3889];`,
		`"A" -> "B" [tailport=e, headport=w];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestParsePositions(t *testing.T) {
	nodes := []workflow.Node{node("a", "x"), node("b-1", "x")}
	g, _ := Build(nodes, []workflow.Edge{edge("e", "a", "b-1")}, nil, Options{})

	xdot := `digraph G {
	graph [bb="0,0,500,100",
		rankdir=LR
	];
	node [label="", shape=box];
	a	[height=1.3889,
		pos="100,50",
		width=2.7778];
	"b-1"	[height=1.3889, pos="400,50", width=2.7778];
	a -> "b-1"	[pos="e,300,50 200,50"];
}
`
	pos, err := parsePositions([]byte(xdot), g)
	if err != nil {
		t.Fatal(err)
	}
	if pos["a"] != (workflow.Position{X: 0, Y: 0}) || pos["b-1"] != (workflow.Position{X: 300, Y: 0}) {
		t.Errorf("positions = %v", pos)
	}

	if _, err := parsePositions([]byte("digraph G {}"), g); err == nil {
		t.Error("expected error when positions are missing")
	}
}

func TestGraphvizEngineChain(t *testing.T) {
	nodes, edges := chain()
	got, err := Apply(context.Background(), nodes, edges, nil, Options{Engine: EngineGraphviz})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	pos := positions(got)
	if pos["B"].X-pos["A"].X != 300 || pos["C"].X-pos["B"].X != 300 {
		t.Errorf("x steps = %v", pos)
	}
	if pos["A"].Y != pos["C"].Y {
		t.Errorf("y not constant: %v", pos)
	}
}

func TestParseOptions(t *testing.T) {
	if e, err := ParseEngine("DOT"); err != nil || e != EngineGraphviz {
		t.Errorf("ParseEngine(DOT) = %v, %v", e, err)
	}
	if d, err := ParseDirection("down"); err != nil || d != DirectionDown {
		t.Errorf("ParseDirection(down) = %v, %v", d, err)
	}
	if _, err := ParseDirection("diagonal"); err == nil {
		t.Error("expected error for bad direction")
	}
	o := DefaultOptions()
	if o.LayerSpacing != 100 || o.NodeSpacing != 50 || o.GridSize != 20 || o.Timeout != DefaultTimeout {
		t.Errorf("defaults = %+v", o)
	}
}
