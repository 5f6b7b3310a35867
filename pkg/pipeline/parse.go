package pipeline

import (
	"context"

	"github.com/matzehuels/flowcanvas/pkg/graph"
	"github.com/matzehuels/flowcanvas/pkg/observability"
)

// Parse decodes a JSON or YAML graph document and runs the import checks
// against cat. cat may be nil, in which case only structural checks run.
func Parse(ctx context.Context, cat Catalog, data []byte, opts Options) (*graph.ImportResult, error) {
	importOpts := graph.ImportOptions{KeepVersions: opts.KeepVersions}
	if cat != nil {
		importOpts.Catalog = cat
	}

	decode := graph.Import
	if opts.YAML {
		decode = graph.ImportYAML
	}
	res, err := decode(data, importOpts)

	nodes, edges := 0, 0
	if res != nil {
		nodes, edges = len(res.Nodes), len(res.Edges)
	}
	observability.Import().OnImport(ctx, nodes, edges, err)
	if err != nil {
		return nil, err
	}

	if opts.Logger != nil {
		for _, w := range res.Warnings {
			opts.Logger.Warn(w)
		}
	}
	return res, nil
}
