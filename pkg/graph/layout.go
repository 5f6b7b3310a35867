package graph

import (
	"encoding/json"
	"fmt"
	"os"
)

// =============================================================================
// Layout - Computed Placement
// =============================================================================

// Layout is the serialized result of an auto-layout run: where every node
// of one graph goes, and with which settings it was computed. It is what
// the pipeline caches and what the API returns alongside a graph.
type Layout struct {
	GraphID   string `json:"graph_id,omitempty"`
	Engine    string `json:"engine"`
	Direction string `json:"direction"`
	Linear    bool   `json:"linear,omitempty"`

	// Bounding box of all placements.
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Placements []Placement `json:"placements"`
}

// Placement is the computed box of one node. X and Y are the top-left corner.
type Placement struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Positions returns the placements keyed by node id.
func (l *Layout) Positions() map[string]UI {
	m := make(map[string]UI, len(l.Placements))
	for _, p := range l.Placements {
		m[p.ID] = UI{X: p.X, Y: p.Y}
	}
	return m
}

// ApplyTo returns a copy of def with node UI coordinates replaced by the
// layout's placements. Nodes missing from the layout keep their position.
func (l *Layout) ApplyTo(def Definition) Definition {
	pos := l.Positions()
	nodes := make([]BaseNode, len(def.Nodes))
	copy(nodes, def.Nodes)
	for i := range nodes {
		if p, ok := pos[nodes[i].ID]; ok {
			nodes[i].UI.X, nodes[i].UI.Y = p.X, p.Y
		}
	}
	def.Nodes = nodes
	return def
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if l.Engine == "" {
		return Layout{}, fmt.Errorf("layout must name its engine")
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
