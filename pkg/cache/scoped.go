package cache

// ScopedKeyer prepends a fixed scope to every key produced by another
// Keyer. The CLI and server scope keys by build version:
//
//	keyer := NewScopedKeyer(nil, buildinfo.Version+":")
type ScopedKeyer struct {
	inner Keyer
	scope string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, scope string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, scope: scope}
}

func (k *ScopedKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return k.scope + k.inner.LayoutKey(graphHash, opts)
}

func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.scope + k.inner.ArtifactKey(layoutHash, opts)
}

func (k *ScopedKeyer) ValidationKey(graphHash, catalogHash string) string {
	return k.scope + k.inner.ValidationKey(graphHash, catalogHash)
}
