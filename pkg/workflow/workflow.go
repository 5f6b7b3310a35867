package workflow

import (
	"github.com/matzehuels/flowcanvas/pkg/nodedef"
)

// Status is the execution-derived state of a node. It is ephemeral and
// never part of the persisted graph.
type Status string

// Node statuses.
const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// Default port ids used when an edge omits its handles.
const (
	DefaultSourceHandle = "out"
	DefaultTargetHandle = "in"
)

// Position is a point on the canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is the measured extent of a rendered node.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Node is one node instance on the canvas.
//
// Version is the schema version Config conforms to. It may lag the
// registered definition's version until the config is migrated.
type Node struct {
	ID       string         `json:"id"`
	TypeID   string         `json:"typeId"`
	Version  int            `json:"version"`
	Label    string         `json:"label,omitempty"`
	Config   map[string]any `json:"config"`
	Position Position       `json:"position"`
	Size     *Size          `json:"size,omitempty"`
	Status   Status         `json:"status,omitempty"`
}

// Edge connects an output port of one node to an input port of another.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
	Label        string `json:"label,omitempty"`
}

// Handles returns the edge's port ids, defaulting to "out" and "in".
func (e Edge) Handles() (source, target string) {
	source, target = e.SourceHandle, e.TargetHandle
	if source == "" {
		source = DefaultSourceHandle
	}
	if target == "" {
		target = DefaultTargetHandle
	}
	return source, target
}

// NewNode creates an idle node of the given type at pos with a fresh id and
// a configuration seeded from the definition's defaults.
func NewNode(def *nodedef.Definition, pos Position) Node {
	return Node{
		ID:       NewNodeID(),
		TypeID:   def.TypeID,
		Version:  def.Version,
		Label:    def.DisplayName,
		Config:   def.DefaultConfig(),
		Position: pos,
		Status:   StatusIdle,
	}
}

// NewEdge creates an edge with a fresh id between the given ports.
func NewEdge(source, sourceHandle, target, targetHandle string) Edge {
	return Edge{
		ID:           NewEdgeID(),
		Source:       source,
		Target:       target,
		SourceHandle: sourceHandle,
		TargetHandle: targetHandle,
	}
}

// Clone returns a deep copy of n.
func (n Node) Clone() Node {
	n.Config = nodedef.CloneConfig(n.Config)
	if n.Size != nil {
		s := *n.Size
		n.Size = &s
	}
	return n
}

// CloneNodes returns a deep copy of nodes.
func CloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// CloneEdges returns a copy of edges.
func CloneEdges(edges []Edge) []Edge {
	if edges == nil {
		return nil
	}
	return append([]Edge(nil), edges...)
}

// Index maps node ids to their position in nodes.
func Index(nodes []Node) map[string]int {
	m := make(map[string]int, len(nodes))
	for i, n := range nodes {
		m[n.ID] = i
	}
	return m
}
