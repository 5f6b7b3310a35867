package graph

// =============================================================================
// Constants
// =============================================================================

// ContractVersion is the wire-format version written by [ToCanonical].
const ContractVersion = 1

// =============================================================================
// Definition - Canonical Workflow Envelope
// =============================================================================

// Definition is the canonical, persisted form of a workflow graph.
//
// Version is the contract version of the envelope and is independent of the
// per-node TypeVersion. Start names the entry node.
type Definition struct {
	ID      string     `json:"id" yaml:"id"`
	Version int        `json:"version" yaml:"version"`
	Start   string     `json:"start" yaml:"start"`
	Nodes   []BaseNode `json:"nodes" yaml:"nodes"`
	Edges   []Edge     `json:"edges" yaml:"edges"`
}

// NodeIDs returns the ids of all nodes in declaration order.
func (d *Definition) NodeIDs() []string {
	ids := make([]string, len(d.Nodes))
	for i, n := range d.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// Node returns the node with the given id.
func (d *Definition) Node(id string) (BaseNode, bool) {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return BaseNode{}, false
}

// =============================================================================
// BaseNode - Canonical Node
// =============================================================================

// BaseNode is one node of a canonical graph.
type BaseNode struct {
	ID          string         `json:"id" yaml:"id"`
	Type        string         `json:"type" yaml:"type"`
	TypeVersion int            `json:"typeVersion" yaml:"typeVersion"`
	Label       string         `json:"label,omitempty" yaml:"label,omitempty"`
	Config      map[string]any `json:"config" yaml:"config"`
	UI          UI             `json:"ui" yaml:"ui"`
}

// UI is the on-canvas placement of a node. W and H are optional.
type UI struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	W float64 `json:"w,omitempty" yaml:"w,omitempty"`
	H float64 `json:"h,omitempty" yaml:"h,omitempty"`
}

// =============================================================================
// Edge - Port Connection
// =============================================================================

// Edge is one connection of a canonical graph. Empty handles mean the
// default "out" and "in" ports.
type Edge struct {
	ID           string `json:"id" yaml:"id"`
	Source       string `json:"source" yaml:"source"`
	Target       string `json:"target" yaml:"target"`
	SourceHandle string `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty" yaml:"targetHandle,omitempty"`
	Label        string `json:"label,omitempty" yaml:"label,omitempty"`
}
