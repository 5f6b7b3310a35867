package graph

import (
	"github.com/matzehuels/flowcanvas/pkg/nodedef"
	"github.com/matzehuels/flowcanvas/pkg/workflow"
)

// =============================================================================
// Editor ↔ Canonical Conversion
// =============================================================================

// ToCanonical converts editor collections into a canonical definition with
// the given id. Node and edge ids are kept as they are, configs are copied
// and Start is derived with [StartNode]. Status never leaves the editor.
func ToCanonical(nodes []workflow.Node, edges []workflow.Edge, graphID string) Definition {
	def := Definition{
		ID:      graphID,
		Version: ContractVersion,
		Start:   StartNode(nodes, edges),
		Nodes:   make([]BaseNode, len(nodes)),
		Edges:   make([]Edge, len(edges)),
	}
	for i, n := range nodes {
		def.Nodes[i] = baseNodeFrom(n)
	}
	for i, e := range edges {
		def.Edges[i] = Edge{
			ID:           e.ID,
			Source:       e.Source,
			Target:       e.Target,
			SourceHandle: e.SourceHandle,
			TargetHandle: e.TargetHandle,
			Label:        e.Label,
		}
	}
	return def
}

// FromCanonical converts a canonical definition into editor collections.
// Every node starts idle. Unknown canonical types become "ap.<type>".
func FromCanonical(def Definition) ([]workflow.Node, []workflow.Edge) {
	nodes := make([]workflow.Node, len(def.Nodes))
	for i, b := range def.Nodes {
		nodes[i] = nodeFrom(b)
	}
	edges := make([]workflow.Edge, len(def.Edges))
	for i, e := range def.Edges {
		edges[i] = workflow.Edge{
			ID:           e.ID,
			Source:       e.Source,
			Target:       e.Target,
			SourceHandle: e.SourceHandle,
			TargetHandle: e.TargetHandle,
			Label:        e.Label,
		}
	}
	return nodes, edges
}

// StartNode picks the entry node of a workflow: the first node whose
// canonical type is a trigger, else the first node without incoming edges,
// else the first node. It returns "" only for an empty node list.
func StartNode(nodes []workflow.Node, edges []workflow.Edge) string {
	targets := make([]string, len(edges))
	for i, e := range edges {
		targets[i] = e.Target
	}
	return pickStart(len(nodes), func(i int) (string, string) {
		return nodes[i].ID, CanonicalType(nodes[i].TypeID)
	}, targets)
}

// DeriveStart is StartNode for canonical nodes.
func DeriveStart(def Definition) string {
	targets := make([]string, len(def.Edges))
	for i, e := range def.Edges {
		targets[i] = e.Target
	}
	return pickStart(len(def.Nodes), func(i int) (string, string) {
		return def.Nodes[i].ID, def.Nodes[i].Type
	}, targets)
}

func pickStart(n int, node func(i int) (id, canonical string), targets []string) string {
	if n == 0 {
		return ""
	}
	for i := range n {
		if id, typ := node(i); IsTriggerType(typ) {
			return id
		}
	}
	incoming := make(map[string]bool, len(targets))
	for _, t := range targets {
		incoming[t] = true
	}
	for i := range n {
		if id, _ := node(i); !incoming[id] {
			return id
		}
	}
	id, _ := node(0)
	return id
}

func baseNodeFrom(n workflow.Node) BaseNode {
	version := n.Version
	if version == 0 {
		version = 1
	}
	b := BaseNode{
		ID:          n.ID,
		Type:        CanonicalType(n.TypeID),
		TypeVersion: version,
		Label:       n.Label,
		Config:      nodedef.CloneConfig(n.Config),
		UI:          UI{X: n.Position.X, Y: n.Position.Y},
	}
	if b.Config == nil {
		b.Config = map[string]any{}
	}
	if n.Size != nil {
		b.UI.W, b.UI.H = n.Size.Width, n.Size.Height
	}
	return b
}

func nodeFrom(b BaseNode) workflow.Node {
	version := b.TypeVersion
	if version == 0 {
		version = 1
	}
	n := workflow.Node{
		ID:       b.ID,
		TypeID:   InternalType(b.Type),
		Version:  version,
		Label:    b.Label,
		Config:   nodedef.CloneConfig(b.Config),
		Position: workflow.Position{X: b.UI.X, Y: b.UI.Y},
		Status:   workflow.StatusIdle,
	}
	if n.Config == nil {
		n.Config = map[string]any{}
	}
	if b.UI.W > 0 && b.UI.H > 0 {
		n.Size = &workflow.Size{Width: b.UI.W, Height: b.UI.H}
	}
	return n
}
