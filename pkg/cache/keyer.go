package cache

import "fmt"

// Keyer builds cache keys. Implementations must return different keys for
// inputs that can produce different results.
type Keyer interface {
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
	ValidationKey(graphHash, catalogHash string) string
}

// LayoutKeyOpts are the inputs of a layout run besides the graph itself.
type LayoutKeyOpts struct {
	Engine       string  `json:"engine"`
	Direction    string  `json:"direction"`
	LayerSpacing float64 `json:"layer_spacing"`
	NodeSpacing  float64 `json:"node_spacing"`
	GridSize     float64 `json:"grid_size"`
	// SizesHash identifies the measured node sizes, if any.
	SizesHash string `json:"sizes_hash,omitempty"`
}

// ArtifactKeyOpts are the inputs of a render besides the layout.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed"`
}

// DefaultKeyer hashes all key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact:"+opts.Format, layoutHash, opts)
}

// ValidationKey implements Keyer.
func (DefaultKeyer) ValidationKey(graphHash, catalogHash string) string {
	return fmt.Sprintf("validation:%s:%s", graphHash, catalogHash)
}
