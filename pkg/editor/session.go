package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowcanvas/pkg/graph"
	"github.com/matzehuels/flowcanvas/pkg/layout"
	"github.com/matzehuels/flowcanvas/pkg/nodedef"
	"github.com/matzehuels/flowcanvas/pkg/observability"
	"github.com/matzehuels/flowcanvas/pkg/registry"
	"github.com/matzehuels/flowcanvas/pkg/store"
	"github.com/matzehuels/flowcanvas/pkg/workflow"
)

var (
	// ErrNodeNotFound is returned when an operation names a node that is not
	// on the canvas.
	ErrNodeNotFound = errors.New("node not found")

	// ErrEdgeNotFound is returned when an operation names an unknown edge.
	ErrEdgeNotFound = errors.New("edge not found")

	// ErrInvalidConnection is returned by Connect when the ports cannot be
	// joined.
	ErrInvalidConnection = errors.New("invalid connection")

	// ErrStale is reported for a load that was superseded by a newer one
	// before it could be applied.
	ErrStale = errors.New("load superseded by a newer request")
)

// Option configures a [Session].
type Option func(*Session)

// WithLogger sets the session's logger.
func WithLogger(l *log.Logger) Option { return func(s *Session) { s.logger = l } }

// WithLayoutOptions sets the options used by AutoLayout.
func WithLayoutOptions(o layout.Options) Option { return func(s *Session) { s.layoutOpts = o } }

// WithKeepVersions leaves imported node configs at their stored version.
func WithKeepVersions() Option { return func(s *Session) { s.keepVersions = true } }

// Session is the editor state of one canvas.
type Session struct {
	catalog      graph.Catalog
	logger       *log.Logger
	layoutOpts   layout.Options
	keepVersions bool

	mu      sync.Mutex
	graphID string
	nodes   []workflow.Node
	edges   []workflow.Edge

	loads  layout.Generation
	layout *layout.Controller
}

// New creates an empty session whose node types resolve through cat.
func New(cat graph.Catalog, opts ...Option) *Session {
	s := &Session{
		catalog:    cat,
		logger:     log.New(io.Discard),
		layoutOpts: layout.DefaultOptions(),
		nodes:      []workflow.Node{},
		edges:      []workflow.Edge{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.layoutOpts.Logger == nil {
		s.layoutOpts.Logger = s.logger
	}
	s.layout = layout.NewController(s.layoutOpts)
	return s
}

// Snapshot is a copy of the canvas.
type Snapshot struct {
	GraphID string          `json:"graphId"`
	Nodes   []workflow.Node `json:"nodes"`
	Edges   []workflow.Edge `json:"edges"`
}

// Snapshot returns a deep copy of the current canvas.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		GraphID: s.graphID,
		Nodes:   workflow.CloneNodes(s.nodes),
		Edges:   workflow.CloneEdges(s.edges),
	}
}

// Definition converts the canvas to its canonical form.
func (s *Session) Definition() graph.Definition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return graph.ToCanonical(s.nodes, s.edges, s.graphID)
}

// GraphID returns the id the canvas is saved under, or "" if it was never
// saved or loaded.
func (s *Session) GraphID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graphID
}

// LayoutState returns the state of the auto-layout controller.
func (s *Session) LayoutState() layout.State { return s.layout.State() }

// =============================================================================
// Loading
// =============================================================================

// Load replaces the canvas with def. The definition goes through the full
// import checks first; if any fails the canvas is left untouched and the
// [*graph.ImportError] is returned. Advisory warnings are returned on
// success.
func (s *Session) Load(ctx context.Context, def graph.Definition) ([]string, error) {
	token := s.loads.Next()
	res, err := graph.ImportDefinition(def, s.importOptions())
	return s.finishLoad(ctx, token, len(def.Nodes), len(def.Edges), res, err)
}

// Import is like Load but decodes a JSON or YAML document first.
func (s *Session) Import(ctx context.Context, data []byte, yaml bool) ([]string, error) {
	token := s.loads.Next()
	decode := graph.Import
	if yaml {
		decode = graph.ImportYAML
	}
	res, err := decode(data, s.importOptions())
	nodes, edges := 0, 0
	if res != nil {
		nodes, edges = len(res.Nodes), len(res.Edges)
	}
	return s.finishLoad(ctx, token, nodes, edges, res, err)
}

// LoadResult is the outcome of an asynchronous load.
type LoadResult struct {
	Warnings []string
	Err      error
}

// LoadAsync fetches a definition in the background and loads it. If
// another load starts before the fetch returns, the fetched graph is
// dropped and the result carries [ErrStale]. The channel receives exactly
// one result.
func (s *Session) LoadAsync(ctx context.Context, fetch func(context.Context) (graph.Definition, error)) <-chan LoadResult {
	token := s.loads.Next()
	ch := make(chan LoadResult, 1)
	go func() {
		defer close(ch)
		def, err := fetch(ctx)
		if err != nil {
			ch <- LoadResult{Err: fmt.Errorf("fetch graph: %w", err)}
			return
		}
		if !s.loads.IsCurrent(token) {
			ch <- LoadResult{Err: ErrStale}
			return
		}
		res, err := graph.ImportDefinition(def, s.importOptions())
		warnings, err := s.finishLoad(ctx, token, len(def.Nodes), len(def.Edges), res, err)
		ch <- LoadResult{Warnings: warnings, Err: err}
	}()
	return ch
}

func (s *Session) importOptions() graph.ImportOptions {
	return graph.ImportOptions{Catalog: s.catalog, KeepVersions: s.keepVersions}
}

func (s *Session) finishLoad(ctx context.Context, token uint64, nodes, edges int, res *graph.ImportResult, err error) ([]string, error) {
	observability.Import().OnImport(ctx, nodes, edges, err)
	if err != nil {
		s.logger.Debug("import rejected", "err", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loads.IsCurrent(token) {
		s.logger.Debug("dropping superseded load", "token", token, "current", s.loads.Current())
		return nil, ErrStale
	}
	s.graphID = res.Definition.ID
	s.nodes = res.Nodes
	s.edges = res.Edges
	s.layout.Invalidate()
	s.logger.Info("graph loaded", "id", s.graphID, "nodes", len(s.nodes), "edges", len(s.edges), "warnings", len(res.Warnings))
	return res.Warnings, nil
}

// Reset clears the canvas and forgets the graph id.
func (s *Session) Reset() {
	s.loads.Next()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graphID = ""
	s.nodes = []workflow.Node{}
	s.edges = []workflow.Edge{}
	s.layout.Invalidate()
}

// =============================================================================
// Mutations
// =============================================================================

// AddNode places a new node of the given type at pos. Its config is seeded
// from the type's defaults and validated; validation problems are returned
// as warnings since a freshly added node is expected to be incomplete.
func (s *Session) AddNode(typeID string, pos workflow.Position) (workflow.Node, []string, error) {
	def, ok := s.catalog.Get(typeID)
	if !ok {
		return workflow.Node{}, nil, fmt.Errorf("%w: %s", registry.ErrUnknownType, typeID)
	}
	n := workflow.NewNode(def, pos)
	res := def.ValidateConfigIn(s.catalog.Env(), n.Config)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = append(s.nodes, n)
	s.layout.Invalidate()
	return n.Clone(), res.Errors, nil
}

// UpdateConfig replaces a node's config and returns the validation errors
// of the new config as warnings.
func (s *Session) UpdateConfig(id string, cfg map[string]any) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.node(id)
	if err != nil {
		return nil, err
	}
	n.Config = nodedef.CloneConfig(cfg)
	def, ok := s.catalog.Get(n.TypeID)
	if !ok || def.Version != n.Version {
		return []string{}, nil
	}
	return def.ValidateConfigIn(s.catalog.Env(), n.Config).Errors, nil
}

// Rename sets a node's label.
func (s *Session) Rename(id, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.node(id)
	if err != nil {
		return err
	}
	n.Label = label
	return nil
}

// MoveNode sets a node's position. A layout computing at the time is
// discarded so that it cannot undo the move.
func (s *Session) MoveNode(id string, pos workflow.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.node(id)
	if err != nil {
		return err
	}
	n.Position = pos
	s.layout.Invalidate()
	return nil
}

// Resize records the measured size of a rendered node.
func (s *Session) Resize(id string, size workflow.Size) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.node(id)
	if err != nil {
		return err
	}
	n.Size = &size
	return nil
}

// SetStatus sets a node's execution status.
func (s *Session) SetStatus(id string, status workflow.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.node(id)
	if err != nil {
		return err
	}
	n.Status = status
	return nil
}

// ResetStatus marks every node idle.
func (s *Session) ResetStatus() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.nodes {
		s.nodes[i].Status = workflow.StatusIdle
	}
}

// RemoveNode deletes a node together with every edge touching it.
func (s *Session) RemoveNode(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := workflow.Index(s.nodes)[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	s.nodes = append(s.nodes[:i:i], s.nodes[i+1:]...)
	edges := make([]workflow.Edge, 0, len(s.edges))
	for _, e := range s.edges {
		if e.Source != id && e.Target != id {
			edges = append(edges, e)
		}
	}
	s.edges = edges
	s.layout.Invalidate()
	return nil
}

// Connect adds an edge between two ports. Empty handles default to "out"
// and "in". The source must have the named output and the target the named
// input, and the port types must be compatible; otherwise the error wraps
// [ErrInvalidConnection]. Connecting the same ports twice is rejected too.
func (s *Session) Connect(source, sourceHandle, target, targetHandle string) (workflow.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, err := s.node(source)
	if err != nil {
		return workflow.Edge{}, err
	}
	dst, err := s.node(target)
	if err != nil {
		return workflow.Edge{}, err
	}

	e := workflow.NewEdge(source, sourceHandle, target, targetHandle)
	sh, th := e.Handles()
	for _, o := range s.edges {
		osh, oth := o.Handles()
		if o.Source == source && o.Target == target && osh == sh && oth == th {
			return workflow.Edge{}, fmt.Errorf("%w: %s.%s is already connected to %s.%s", ErrInvalidConnection, source, sh, target, th)
		}
	}

	srcDef, okS := s.catalog.Get(src.TypeID)
	dstDef, okT := s.catalog.Get(dst.TypeID)
	if okS && okT {
		if is := graph.CheckConnection(e, srcDef, dstDef); is != nil {
			return workflow.Edge{}, fmt.Errorf("%w: %s", ErrInvalidConnection, is.Message)
		}
	}

	s.edges = append(s.edges, e)
	s.layout.Invalidate()
	return e, nil
}

// Disconnect removes an edge.
func (s *Session) Disconnect(edgeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.edges {
		if e.ID == edgeID {
			s.edges = append(s.edges[:i:i], s.edges[i+1:]...)
			s.layout.Invalidate()
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrEdgeNotFound, edgeID)
}

// node returns a pointer into s.nodes. The caller must hold s.mu.
func (s *Session) node(id string) (*workflow.Node, error) {
	for i := range s.nodes {
		if s.nodes[i].ID == id {
			return &s.nodes[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
}

// =============================================================================
// Persistence and layout
// =============================================================================

// Save stores the canvas in st. A canvas without a graph id, or whose id
// the store does not know, is created and adopts the stored id; otherwise
// the stored graph is replaced. The canvas must pass structural
// validation.
func (s *Session) Save(ctx context.Context, st store.Store) (graph.Definition, error) {
	s.mu.Lock()
	def := graph.ToCanonical(s.nodes, s.edges, s.graphID)
	token := s.loads.Current()
	s.mu.Unlock()

	if issues := graph.Validate(def); len(issues) > 0 {
		return graph.Definition{}, &graph.ImportError{Issues: issues}
	}

	if def.ID != "" {
		err := st.Update(ctx, def)
		if err == nil {
			s.logger.Info("graph saved", "id", def.ID)
			return def, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return graph.Definition{}, fmt.Errorf("update graph: %w", err)
		}
	}

	created, err := st.Create(ctx, def)
	if err != nil {
		return graph.Definition{}, fmt.Errorf("create graph: %w", err)
	}
	s.mu.Lock()
	if s.loads.IsCurrent(token) {
		s.graphID = created.ID
	}
	s.mu.Unlock()
	s.logger.Info("graph created", "id", created.ID)
	return created, nil
}

// AutoLayout arranges the canvas. sizes may be nil, in which case measured
// node sizes and then the layout defaults are used.
//
// The layout is computed on a copy. Its positions are committed only if
// nothing moved, added, removed or reconnected nodes in the meantime and
// no newer layout was requested; AutoLayout reports whether they were. A
// failed layout leaves positions unchanged, marks the layout discarded and
// returns the error.
func (s *Session) AutoLayout(ctx context.Context, sizes layout.SizeFunc) (bool, error) {
	token, err := s.layout.Begin()
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	nodes := workflow.CloneNodes(s.nodes)
	edges := workflow.CloneEdges(s.edges)
	s.mu.Unlock()

	moved, layoutErr := layout.Apply(ctx, nodes, edges, sizes, s.layout.Options())
	if layoutErr != nil {
		s.layout.Abort(ctx, token)
		return false, layoutErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	applied := s.layout.Finish(ctx, token, func() {
		pos := make(map[string]workflow.Position, len(moved))
		for _, n := range moved {
			pos[n.ID] = n.Position
		}
		for i := range s.nodes {
			if p, ok := pos[s.nodes[i].ID]; ok {
				s.nodes[i].Position = p
			}
		}
	})
	return applied, nil
}
