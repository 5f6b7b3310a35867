package graph

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/flowcanvas/pkg/workflow"
)

// ImportOptions configures [Import].
type ImportOptions struct {
	// Catalog enables port checks, config migration and advisory config
	// validation. Without it only structural checks run.
	Catalog Catalog
	// KeepVersions leaves node configs at their stored version instead of
	// migrating them to the registered version.
	KeepVersions bool
}

// ImportResult is a successfully imported graph.
type ImportResult struct {
	Definition Definition      `json:"definition"`
	Nodes      []workflow.Node `json:"nodes"`
	Edges      []workflow.Edge `json:"edges"`
	// Warnings are advisory and never block an import.
	Warnings []string `json:"warnings"`
}

// ImportError lists every reason an import was rejected.
type ImportError struct {
	Issues        []Issue  `json:"issues,omitempty"`
	DanglingEdges []string `json:"danglingEdges,omitempty"`
}

func (e *ImportError) Error() string {
	var parts []string
	for _, is := range e.Issues {
		parts = append(parts, is.String())
	}
	if len(e.DanglingEdges) > 0 {
		parts = append(parts, "edges reference missing nodes: "+strings.Join(e.DanglingEdges, ", "))
	}
	return "invalid graph: " + strings.Join(parts, "; ")
}

// Import decodes a JSON graph and turns it into editor collections.
//
// Missing node or edge lists are treated as empty and a missing start is
// derived. The graph is then validated structurally; when that passes, the
// ids of all edges with a missing endpoint are collected and, with a
// catalog, every edge's ports are checked. Any failure yields an
// [*ImportError] with the complete list and no result.
func Import(data []byte, opts ImportOptions) (*ImportResult, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, &ImportError{Issues: []Issue{issue(CodeMalformed, "", "decode: %v", err)}}
	}
	return ImportDefinition(def, opts)
}

// ImportYAML is like Import but decodes YAML.
func ImportYAML(data []byte, opts ImportOptions) (*ImportResult, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, &ImportError{Issues: []Issue{issue(CodeMalformed, "", "decode: %v", err)}}
	}
	return ImportDefinition(def, opts)
}

// ImportDefinition runs the import checks on an already decoded definition.
func ImportDefinition(def Definition, opts ImportOptions) (*ImportResult, error) {
	def = Normalize(def)
	if issues := Validate(def); len(issues) > 0 {
		return nil, &ImportError{Issues: issues}
	}

	nodes, edges := FromCanonical(def)
	if bad := DanglingEdges(nodes, edges); len(bad) > 0 {
		return nil, &ImportError{DanglingEdges: bad}
	}

	res := &ImportResult{Nodes: nodes, Edges: edges, Warnings: []string{}}
	if opts.Catalog != nil {
		if issues := CheckPorts(opts.Catalog, nodes, edges); len(issues) > 0 {
			return nil, &ImportError{Issues: issues}
		}
		res.Warnings = append(res.Warnings, FanInWarnings(opts.Catalog, nodes, edges)...)
		res.Warnings = append(res.Warnings, prepareNodes(opts, res.Nodes)...)
	}

	res.Definition = ToCanonical(res.Nodes, res.Edges, def.ID)
	res.Definition.Start = def.Start
	return res, nil
}

// prepareNodes migrates node configs in place and returns advisory
// warnings. nodes is the importer's private copy.
func prepareNodes(opts ImportOptions, nodes []workflow.Node) []string {
	cat := opts.Catalog
	env := cat.Env()
	var warnings []string
	for i := range nodes {
		n := &nodes[i]
		def, ok := cat.Get(n.TypeID)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("%s: tipo desconocido %s", n.ID, n.TypeID))
			continue
		}
		if n.Version > def.Version {
			warnings = append(warnings, fmt.Sprintf("%s: versión %d más nueva que %s v%d", n.ID, n.Version, def.TypeID, def.Version))
			continue
		}
		if !opts.KeepVersions && n.Version < def.Version {
			cfg, err := def.MigrateConfigIn(env, n.Config, n.Version)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: %v", n.ID, err))
				continue
			}
			n.Config, n.Version = cfg, def.Version
		}
		if n.Version == def.Version {
			res := def.ValidateConfigIn(env, n.Config)
			for _, msg := range res.Errors {
				warnings = append(warnings, n.ID+": "+msg)
			}
		}
	}
	return warnings
}
