package registry

import (
	"fmt"

	"github.com/matzehuels/flowcanvas/pkg/nodedef"
	"github.com/matzehuels/flowcanvas/pkg/workflow"
)

// ValidateNode validates the node's configuration against its definition.
// Configs stored at an older version are migrated first; the node itself is
// not modified. Unknown types and versions newer than the registered
// definition are errors.
func (r *Registry) ValidateNode(n workflow.Node) (nodedef.ValidationResult, error) {
	def, cfg, err := r.upgrade(n)
	if err != nil {
		return nodedef.ValidationResult{}, err
	}
	return def.ValidateConfigIn(r.env, cfg), nil
}

// UpgradeNode returns a copy of n with its config migrated to the current
// version of its definition.
func (r *Registry) UpgradeNode(n workflow.Node) (workflow.Node, error) {
	def, cfg, err := r.upgrade(n)
	if err != nil {
		return n, err
	}
	out := n.Clone()
	out.Config = cfg
	out.Version = def.Version
	return out, nil
}

func (r *Registry) upgrade(n workflow.Node) (*nodedef.Definition, map[string]any, error) {
	def, err := r.Lookup(n.TypeID)
	if err != nil {
		return nil, nil, err
	}
	from := n.Version
	if from == 0 {
		from = 1
	}
	if from > def.Version {
		return nil, nil, fmt.Errorf("node %s: config version %d is newer than %s version %d", n.ID, from, def.TypeID, def.Version)
	}
	cfg, err := def.MigrateConfigIn(r.env, n.Config, from)
	if err != nil {
		return nil, nil, fmt.Errorf("node %s: %w", n.ID, err)
	}
	return def, cfg, nil
}
