package registry

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/flowcanvas/pkg/nodedef"
)

// catalogFile is the TOML shape of an extra node catalog:
//
//	[[node]]
//	type_id = "acme.slack.post"
//	version = 2
//	display_name = "Slack"
//	category = "action"
//
//	[[node.properties]]
//	name = "channel"
//	type = "string"
//	required = true
//
//	[[node.migrations]]
//	version = 2
//	ops = [{ op = "rename", field = "room", to = "channel" }]
type catalogFile struct {
	Node []catalogNode `toml:"node"`
}

type catalogNode struct {
	nodedef.Definition
	Migrations []catalogMigration `toml:"migrations"`
}

type catalogMigration struct {
	Version int                   `toml:"version"`
	Ops     []nodedef.MigrationOp `toml:"ops"`
}

// DecodeCatalog parses a TOML catalog into definitions without registering them.
func DecodeCatalog(r io.Reader) ([]*nodedef.Definition, error) {
	var f catalogFile
	if _, err := toml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	defs := make([]*nodedef.Definition, 0, len(f.Node))
	for i := range f.Node {
		n := f.Node[i]
		def := n.Definition
		if len(n.Migrations) > 0 {
			def.Migrations = make(map[int][]nodedef.MigrationOp, len(n.Migrations))
			for _, m := range n.Migrations {
				if _, dup := def.Migrations[m.Version]; dup {
					return nil, fmt.Errorf("decode catalog: %s: duplicate migration to version %d", def.TypeID, m.Version)
				}
				def.Migrations[m.Version] = m.Ops
			}
		}
		defs = append(defs, &def)
	}
	return defs, nil
}

// LoadCatalog decodes a TOML catalog and registers every definition in it.
// It returns the number of definitions registered. Nothing is registered
// when any definition is invalid.
func (r *Registry) LoadCatalog(rd io.Reader) (int, error) {
	defs, err := DecodeCatalog(rd)
	if err != nil {
		return 0, err
	}
	for _, d := range defs {
		if err := d.Check(); err != nil {
			return 0, err
		}
		if r.env != nil {
			if err := d.CheckEnv(r.env); err != nil {
				return 0, err
			}
		}
	}
	for _, d := range defs {
		if err := r.Register(d); err != nil {
			return 0, err
		}
	}
	return len(defs), nil
}

// LoadCatalogFile is like LoadCatalog but reads from path.
func (r *Registry) LoadCatalogFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	n, err := r.LoadCatalog(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}
