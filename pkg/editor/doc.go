// Package editor holds the state of one open canvas.
//
// A [Session] owns the node and edge collections the editor renders, the
// graph id they are saved under, and the auto-layout controller. Every
// mutation goes through the session so that loads replace the canvas
// atomically and layouts computed against an older canvas are dropped
// instead of overwriting newer edits.
//
//	s := editor.New(registry.Builtin())
//	warnings, err := s.Load(ctx, def)
//	...
//	applied, err := s.AutoLayout(ctx, nil)
//
// Sessions are safe for concurrent use.
package editor
