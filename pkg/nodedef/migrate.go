package nodedef

import (
	"fmt"
	"slices"
)

// OpKind names a declarative migration step.
type OpKind string

// Migration step kinds.
const (
	OpRename    OpKind = "rename"    // move Field to To
	OpSet       OpKind = "set"       // unconditionally set Field to Value
	OpDefault   OpKind = "default"   // set Field to Value when absent
	OpDelete    OpKind = "delete"    // drop Field
	OpTransform OpKind = "transform" // run the named Transform over the whole config
)

// MigrationOp is one step of a migration between adjacent versions.
type MigrationOp struct {
	Op        OpKind `json:"op" toml:"op"`
	Field     string `json:"field,omitempty" toml:"field"`
	To        string `json:"to,omitempty" toml:"to"`
	Value     any    `json:"value,omitempty" toml:"value"`
	Transform string `json:"transform,omitempty" toml:"transform"`
}

// Rename moves a field to a new name.
func Rename(from, to string) MigrationOp { return MigrationOp{Op: OpRename, Field: from, To: to} }

// Set overwrites a field.
func Set(field string, v any) MigrationOp { return MigrationOp{Op: OpSet, Field: field, Value: v} }

// Default fills a field only when it is absent.
func Default(field string, v any) MigrationOp {
	return MigrationOp{Op: OpDefault, Field: field, Value: v}
}

// Delete drops a field.
func Delete(field string) MigrationOp { return MigrationOp{Op: OpDelete, Field: field} }

// Transform runs a named [MigrationFunc].
func Transform(id string) MigrationOp { return MigrationOp{Op: OpTransform, Transform: id} }

func (op MigrationOp) check() error {
	switch op.Op {
	case OpRename:
		if op.Field == "" || op.To == "" {
			return fmt.Errorf("rename needs field and to")
		}
	case OpSet, OpDefault, OpDelete:
		if op.Field == "" {
			return fmt.Errorf("%s needs a field", op.Op)
		}
	case OpTransform:
		if op.Transform == "" {
			return fmt.Errorf("transform needs a name")
		}
	default:
		return fmt.Errorf("unknown migration op %q", op.Op)
	}
	return nil
}

// MigrationFunc rewrites a whole configuration. It may modify and return
// its argument, which is always a private copy.
type MigrationFunc func(cfg map[string]any) (map[string]any, error)

// Transforms maps transform names to their implementation.
type Transforms map[string]MigrationFunc

// MigrateConfig upgrades cfg from version from to the definition's current
// version without any named transforms; see [Definition.MigrateConfigIn].
func (d *Definition) MigrateConfig(cfg map[string]any, from int) (map[string]any, error) {
	return d.MigrateConfigIn(nil, cfg, from)
}

// MigrateConfigIn applies the migration of every version v in
// from+1..Version in increasing order. Versions without a registered
// migration pass the configuration through unchanged. cfg itself is never
// modified. A from at or above the current version returns a copy of cfg.
func (d *Definition) MigrateConfigIn(env *Env, cfg map[string]any, from int) (map[string]any, error) {
	out := CloneConfig(cfg)
	if out == nil {
		out = map[string]any{}
	}
	for v := from + 1; v <= d.Version; v++ {
		ops, ok := d.Migrations[v]
		if !ok {
			continue
		}
		var err error
		for _, op := range ops {
			out, err = op.apply(env, out)
			if err != nil {
				return nil, fmt.Errorf("migrate %s to version %d: %w", d.TypeID, v, err)
			}
		}
	}
	return out, nil
}

func (op MigrationOp) apply(env *Env, cfg map[string]any) (map[string]any, error) {
	switch op.Op {
	case OpRename:
		if v, ok := cfg[op.Field]; ok {
			delete(cfg, op.Field)
			cfg[op.To] = v
		}
	case OpSet:
		cfg[op.Field] = CloneValue(op.Value)
	case OpDefault:
		if v, ok := cfg[op.Field]; !ok || v == nil {
			cfg[op.Field] = CloneValue(op.Value)
		}
	case OpDelete:
		delete(cfg, op.Field)
	case OpTransform:
		fn, ok := env.transform(op.Transform)
		if !ok {
			return nil, fmt.Errorf("unknown transform %q", op.Transform)
		}
		next, err := fn(cfg)
		if err != nil {
			return nil, fmt.Errorf("transform %q: %w", op.Transform, err)
		}
		if next == nil {
			next = map[string]any{}
		}
		return next, nil
	default:
		return nil, fmt.Errorf("unknown migration op %q", op.Op)
	}
	return cfg, nil
}

// MigrationVersions returns the versions that carry a migration, ascending.
func (d *Definition) MigrationVersions() []int {
	vs := make([]int, 0, len(d.Migrations))
	for v := range d.Migrations {
		vs = append(vs, v)
	}
	slices.Sort(vs)
	return vs
}
