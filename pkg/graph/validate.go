package graph

import (
	"fmt"
	"strings"

	"github.com/matzehuels/flowcanvas/pkg/nodedef"
	"github.com/matzehuels/flowcanvas/pkg/workflow"
)

// Issue codes.
const (
	CodeMalformed          = "malformed"
	CodeUnsupportedVersion = "unsupported_version"
	CodeNoNodes            = "no_nodes"
	CodeEmptyNodeID        = "empty_node_id"
	CodeDuplicateNodeID    = "duplicate_node_id"
	CodeEmptyNodeType      = "empty_node_type"
	CodeEmptyEdgeID        = "empty_edge_id"
	CodeDuplicateEdgeID    = "duplicate_edge_id"
	CodeMissingStart       = "missing_start"
	CodeDanglingEdge       = "dangling_edge"
	CodeUnknownPort        = "unknown_port"
	CodeIncompatiblePorts  = "incompatible_ports"
)

// Issue is one structural problem found in a graph.
type Issue struct {
	Code    string `json:"code"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (i Issue) String() string { return fmt.Sprintf("%s: %s", i.Path, i.Message) }

func issue(code, path, format string, args ...any) Issue {
	return Issue{Code: code, Path: path, Message: fmt.Sprintf(format, args...)}
}

// Normalize returns def with tolerant defaults applied: a zero contract
// version becomes [ContractVersion], nil node and edge lists become empty
// and an empty Start is derived with [DeriveStart]. def is not modified.
func Normalize(def Definition) Definition {
	if def.Version == 0 {
		def.Version = ContractVersion
	}
	if def.Nodes == nil {
		def.Nodes = []BaseNode{}
	}
	if def.Edges == nil {
		def.Edges = []Edge{}
	}
	if def.Start == "" {
		def.Start = DeriveStart(def)
	}
	return def
}

// Validate checks the structural invariants of a normalized definition
// and returns every violation found. Edge endpoints are checked separately
// by [DanglingEdges]; cycles are allowed.
func Validate(def Definition) []Issue {
	var issues []Issue

	if def.Version != ContractVersion {
		issues = append(issues, issue(CodeUnsupportedVersion, "version",
			"unsupported contract version %d (want %d)", def.Version, ContractVersion))
	}
	if len(def.Nodes) == 0 {
		issues = append(issues, issue(CodeNoNodes, "nodes", "graph has no nodes"))
	}

	nodeIDs := make(map[string]bool, len(def.Nodes))
	for i, n := range def.Nodes {
		path := fmt.Sprintf("nodes[%d]", i)
		switch {
		case n.ID == "":
			issues = append(issues, issue(CodeEmptyNodeID, path+".id", "node id is empty"))
		case nodeIDs[n.ID]:
			issues = append(issues, issue(CodeDuplicateNodeID, path+".id", "duplicate node id %q", n.ID))
		default:
			nodeIDs[n.ID] = true
		}
		if strings.TrimSpace(n.Type) == "" {
			issues = append(issues, issue(CodeEmptyNodeType, path+".type", "node %q has no type", n.ID))
		}
	}

	edgeIDs := make(map[string]bool, len(def.Edges))
	for i, e := range def.Edges {
		path := fmt.Sprintf("edges[%d].id", i)
		switch {
		case e.ID == "":
			issues = append(issues, issue(CodeEmptyEdgeID, path, "edge id is empty"))
		case edgeIDs[e.ID]:
			issues = append(issues, issue(CodeDuplicateEdgeID, path, "duplicate edge id %q", e.ID))
		default:
			edgeIDs[e.ID] = true
		}
	}

	if len(def.Nodes) > 0 && !nodeIDs[def.Start] {
		issues = append(issues, issue(CodeMissingStart, "start", "start node %q is not in the graph", def.Start))
	}
	return issues
}

// DanglingEdges returns the ids of every edge whose source or target is
// not a node in nodes, in edge order.
func DanglingEdges(nodes []workflow.Node, edges []workflow.Edge) []string {
	idx := workflow.Index(nodes)
	var bad []string
	for _, e := range edges {
		_, okS := idx[e.Source]
		_, okT := idx[e.Target]
		if !okS || !okT {
			bad = append(bad, e.ID)
		}
	}
	return bad
}

// Catalog resolves node types. *registry.Registry implements it.
type Catalog interface {
	Get(typeID string) (*nodedef.Definition, bool)
	Env() *nodedef.Env
}

// CheckPorts checks every edge whose endpoints resolve to known node types:
// the handles must name an output of the source and an input of the
// target, and the two ports must be able to connect. Edges touching unknown
// types or missing nodes are skipped.
func CheckPorts(cat Catalog, nodes []workflow.Node, edges []workflow.Edge) []Issue {
	idx := workflow.Index(nodes)
	var issues []Issue
	for i, e := range edges {
		si, okS := idx[e.Source]
		ti, okT := idx[e.Target]
		if !okS || !okT {
			continue
		}
		srcDef, okS := cat.Get(nodes[si].TypeID)
		dstDef, okT := cat.Get(nodes[ti].TypeID)
		if !okS || !okT {
			continue
		}
		if is := checkEdgePorts(fmt.Sprintf("edges[%d]", i), e, srcDef, dstDef); is != nil {
			issues = append(issues, *is)
		}
	}
	return issues
}

// CheckConnection reports whether an edge between the given node types and
// handles is allowed. It returns nil when it is.
func CheckConnection(e workflow.Edge, src, dst *nodedef.Definition) *Issue {
	return checkEdgePorts("edge", e, src, dst)
}

func checkEdgePorts(path string, e workflow.Edge, src, dst *nodedef.Definition) *Issue {
	sh, th := e.Handles()
	out, ok := src.Output(sh)
	if !ok {
		is := issue(CodeUnknownPort, path+".sourceHandle", "edge %q: %s has no output %q", e.ID, src.TypeID, sh)
		return &is
	}
	in, ok := dst.Input(th)
	if !ok {
		is := issue(CodeUnknownPort, path+".targetHandle", "edge %q: %s has no input %q", e.ID, dst.TypeID, th)
		return &is
	}
	if !out.CanConnectTo(in) {
		is := issue(CodeIncompatiblePorts, path, "edge %q: %s port %q cannot connect to %s port %q",
			e.ID, out.Type, sh, in.Type, th)
		return &is
	}
	return nil
}

// FanInWarnings reports single-connection ports that receive more than one
// edge. Such graphs are still accepted.
func FanInWarnings(cat Catalog, nodes []workflow.Node, edges []workflow.Edge) []string {
	idx := workflow.Index(nodes)
	type portKey struct{ node, port string }
	count := make(map[portKey]int)
	var order []portKey
	for _, e := range edges {
		_, th := e.Handles()
		k := portKey{e.Target, th}
		if count[k] == 0 {
			order = append(order, k)
		}
		count[k]++
	}
	var warnings []string
	for _, k := range order {
		i, ok := idx[k.node]
		if !ok || count[k] < 2 {
			continue
		}
		def, ok := cat.Get(nodes[i].TypeID)
		if !ok {
			continue
		}
		if p, ok := def.Input(k.port); ok && !p.Multiple {
			warnings = append(warnings, fmt.Sprintf("%s: input %q accepts one connection, has %d", k.node, k.port, count[k]))
		}
	}
	return warnings
}
