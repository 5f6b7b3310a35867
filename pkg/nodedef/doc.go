// Package nodedef describes node types: their ports, configuration
// properties, validation rules, migrations and runtime policy.
//
// # Overview
//
// A [Definition] is the versioned schema of one node type. It aggregates two
// kinds of primitives:
//
//   - [PortDef]: one connector (input or output) of the node
//   - [PropertyDef]: one configuration field of the node
//
// Definitions are plain data. Validators and migration steps are expressed as
// small tagged descriptions ([Rule], [MigrationOp]) rather than closures, so a
// definition can be encoded to JSON or TOML and shipped across a process
// boundary. Rules and migrations that need code reference a named function
// that is resolved against an [Env] at validation or migration time.
//
// # Validation
//
// [Definition.ValidateConfig] checks a node configuration against the
// declared properties and credentials. Validation never fails hard: it
// returns a [ValidationResult] whose messages are keyed by the property's
// display label so they can be shown to the user as-is:
//
//	res := def.ValidateConfig(map[string]any{})
//	// res.Valid == false
//	// res.Errors == []string{"Prompt es requerido"}
//
// # Migrations
//
// [Definition.MigrateConfig] brings a configuration written for an older
// version forward, one version step at a time. Steps without registered
// operations are skipped silently.
//
// # Concurrency
//
// Definitions are immutable after registration and safe for concurrent reads.
package nodedef
