package layout

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/matzehuels/flowcanvas/pkg/observability"
	"github.com/matzehuels/flowcanvas/pkg/workflow"
)

// ErrBusy is returned when a layout is requested while one is computing.
var ErrBusy = errors.New("layout already in progress")

// Generation is a monotonically increasing request token. Each new request
// takes a token with [Generation.Next]; a result may only be committed
// while its token is still [Generation.Current]. The zero value is ready
// to use.
type Generation struct {
	n atomic.Uint64
}

// Next starts a new generation and returns its token.
func (g *Generation) Next() uint64 { return g.n.Add(1) }

// Current returns the newest token.
func (g *Generation) Current() uint64 { return g.n.Load() }

// IsCurrent reports whether token is the newest one.
func (g *Generation) IsCurrent(token uint64) bool { return g.n.Load() == token }

// State is the lifecycle state of a [Controller].
type State int

const (
	StateIdle State = iota
	StateComputing
	StateApplied
	StateDiscarded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateComputing:
		return "computing"
	case StateApplied:
		return "applied"
	case StateDiscarded:
		return "discarded"
	}
	return "unknown"
}

// Controller serializes auto-layout runs for one canvas.
//
// Only one run computes at a time. Anything that changes the canvas while
// a run is computing should call [Controller.Invalidate]; the run's result
// is then discarded instead of committed.
type Controller struct {
	opts Options

	mu    sync.Mutex
	state State
	gen   Generation
}

// NewController creates a controller that lays out with opts.
func NewController(opts Options) *Controller {
	return &Controller{opts: opts.WithDefaults()}
}

// Options returns the controller's layout options.
func (c *Controller) Options() Options { return c.opts }

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Begin enters the computing state and returns the run's token. It fails
// with [ErrBusy] if a run is already computing.
func (c *Controller) Begin() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateComputing {
		return 0, ErrBusy
	}
	c.state = StateComputing
	return c.gen.Next(), nil
}

// Invalidate makes every outstanding token stale.
func (c *Controller) Invalidate() uint64 {
	return c.gen.Next()
}

// Finish ends the run with the given token. If the token is still current,
// commit is called (when non-nil) and the state becomes applied; otherwise
// the result is dropped and the state becomes discarded. Finish reports
// whether the result was committed.
func (c *Controller) Finish(ctx context.Context, token uint64, commit func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.gen.IsCurrent(token) {
		c.state = StateDiscarded
		c.opts.Logger.Debug("discarding stale layout", "token", token, "current", c.gen.Current())
		observability.Layout().OnLayoutDiscarded(ctx, token)
		return false
	}
	if commit != nil {
		commit()
	}
	c.state = StateApplied
	return true
}

// Abort ends a failed run without committing anything. A current run
// leaves the controller discarded; a stale one is handled as in Finish.
func (c *Controller) Abort(ctx context.Context, token uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateDiscarded
	if !c.gen.IsCurrent(token) {
		c.opts.Logger.Debug("discarding stale layout", "token", token, "current", c.gen.Current())
		observability.Layout().OnLayoutDiscarded(ctx, token)
	}
}

// Run computes a layout and hands the moved nodes to commit if no newer
// request arrived in the meantime. Failed layouts commit the original
// positions; the error is returned alongside.
func (c *Controller) Run(ctx context.Context, nodes []workflow.Node, edges []workflow.Edge, sizes SizeFunc, commit func([]workflow.Node)) (bool, error) {
	token, err := c.Begin()
	if err != nil {
		return false, err
	}
	moved, layoutErr := Apply(ctx, nodes, edges, sizes, c.opts)
	applied := c.Finish(ctx, token, func() {
		if commit != nil {
			commit(moved)
		}
	})
	return applied, layoutErr
}
