package layout

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowcanvas/pkg/workflow"
)

// Engine names a coordinate assignment algorithm.
type Engine string

const (
	// EngineLayered is the built-in layered (Sugiyama) engine.
	EngineLayered Engine = "layered"
	// EngineGraphviz uses the Graphviz dot engine.
	EngineGraphviz Engine = "graphviz"
)

// Engines lists every supported engine.
var Engines = []Engine{EngineLayered, EngineGraphviz}

// ParseEngine parses an engine name, case-insensitively. The empty string
// selects [EngineLayered].
func ParseEngine(s string) (Engine, error) {
	switch Engine(strings.ToLower(strings.TrimSpace(s))) {
	case "", EngineLayered:
		return EngineLayered, nil
	case EngineGraphviz, "dot":
		return EngineGraphviz, nil
	}
	return "", fmt.Errorf("unknown layout engine %q (want layered or graphviz)", s)
}

// Direction is the flow direction of the primary axis.
type Direction string

const (
	DirectionRight Direction = "RIGHT"
	DirectionLeft  Direction = "LEFT"
	DirectionDown  Direction = "DOWN"
	DirectionUp    Direction = "UP"
)

// ParseDirection parses a direction name, case-insensitively. The empty
// string selects [DirectionRight].
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToUpper(strings.TrimSpace(s))); d {
	case "":
		return DirectionRight, nil
	case DirectionRight, DirectionLeft, DirectionDown, DirectionUp:
		return d, nil
	}
	return "", fmt.Errorf("unknown layout direction %q (want RIGHT, LEFT, DOWN or UP)", s)
}

// Horizontal reports whether layers advance along the x axis.
func (d Direction) Horizontal() bool { return d == DirectionRight || d == DirectionLeft }

// Reversed reports whether layers advance towards negative coordinates.
func (d Direction) Reversed() bool { return d == DirectionLeft || d == DirectionUp }

// Defaults applied by [Options.WithDefaults].
const (
	DefaultLayerSpacing = 100.0
	DefaultNodeSpacing  = 50.0
	DefaultGridSize     = 20.0
	DefaultWidth        = 200.0
	DefaultHeight       = 100.0
	DefaultTimeout      = 5 * time.Second
)

// Options configures a layout run. Zero fields take the package defaults.
type Options struct {
	Engine    Engine
	Direction Direction

	// LayerSpacing is the gap between consecutive layers along the primary
	// axis, NodeSpacing the gap between neighbours within a layer.
	LayerSpacing float64
	NodeSpacing  float64

	// GridSize is the snapping grid of the tidy pass. Negative disables
	// snapping.
	GridSize float64

	// DefaultWidth and DefaultHeight size nodes without a measurement.
	DefaultWidth  float64
	DefaultHeight float64

	// Timeout bounds a single run. Negative disables the deadline.
	Timeout time.Duration

	Logger *log.Logger
}

// DefaultOptions returns Options with every default filled in.
func DefaultOptions() Options { return Options{}.WithDefaults() }

// WithDefaults returns a copy of o with zero fields replaced by defaults.
func (o Options) WithDefaults() Options {
	if o.Engine == "" {
		o.Engine = EngineLayered
	}
	if o.Direction == "" {
		o.Direction = DirectionRight
	}
	if o.LayerSpacing == 0 {
		o.LayerSpacing = DefaultLayerSpacing
	}
	if o.NodeSpacing == 0 {
		o.NodeSpacing = DefaultNodeSpacing
	}
	if o.GridSize == 0 {
		o.GridSize = DefaultGridSize
	}
	if o.DefaultWidth <= 0 {
		o.DefaultWidth = DefaultWidth
	}
	if o.DefaultHeight <= 0 {
		o.DefaultHeight = DefaultHeight
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o
}

// Validate checks engine and direction names.
func (o Options) Validate() error {
	if _, err := ParseEngine(string(o.Engine)); err != nil {
		return err
	}
	if _, err := ParseDirection(string(o.Direction)); err != nil {
		return err
	}
	if o.LayerSpacing < 0 || o.NodeSpacing < 0 {
		return fmt.Errorf("layout spacing must not be negative")
	}
	return nil
}

// SizeFunc looks up the measured size of a node. It returns false when the
// node has not been measured.
type SizeFunc func(id string) (workflow.Size, bool)

// MeasuredSizes returns a SizeFunc backed by each node's Size field.
func MeasuredSizes(nodes []workflow.Node) SizeFunc {
	m := make(map[string]workflow.Size, len(nodes))
	for _, n := range nodes {
		if n.Size != nil {
			m[n.ID] = *n.Size
		}
	}
	return func(id string) (workflow.Size, bool) {
		s, ok := m[id]
		return s, ok
	}
}

// FixedSizes returns a SizeFunc backed by a map.
func FixedSizes(sizes map[string]workflow.Size) SizeFunc {
	return func(id string) (workflow.Size, bool) {
		s, ok := sizes[id]
		return s, ok
	}
}
