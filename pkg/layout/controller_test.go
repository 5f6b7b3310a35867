package layout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/flowcanvas/pkg/observability"
	"github.com/matzehuels/flowcanvas/pkg/workflow"
)

type recordingHooks struct {
	observability.NoopLayoutHooks
	mu        sync.Mutex
	discarded []uint64
	completed []error
}

func (h *recordingHooks) OnLayoutDiscarded(_ context.Context, gen uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.discarded = append(h.discarded, gen)
}

func (h *recordingHooks) OnLayoutComplete(_ context.Context, _ string, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.completed = append(h.completed, err)
}

func TestGeneration(t *testing.T) {
	var g Generation
	if g.Current() != 0 {
		t.Fatalf("zero value current = %d", g.Current())
	}
	a := g.Next()
	if !g.IsCurrent(a) {
		t.Error("fresh token should be current")
	}
	b := g.Next()
	if g.IsCurrent(a) || !g.IsCurrent(b) || b <= a {
		t.Errorf("tokens a=%d b=%d current=%d", a, b, g.Current())
	}
}

func TestControllerBusy(t *testing.T) {
	c := NewController(Options{})
	if c.State() != StateIdle {
		t.Fatalf("initial state = %v", c.State())
	}
	tok, err := c.Begin()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Begin(); !errors.Is(err, ErrBusy) {
		t.Errorf("second Begin err = %v, want ErrBusy", err)
	}
	if !c.Finish(context.Background(), tok, nil) {
		t.Error("current token not committed")
	}
	if c.State() != StateApplied {
		t.Errorf("state = %v, want applied", c.State())
	}
	if _, err := c.Begin(); err != nil {
		t.Errorf("Begin after finish: %v", err)
	}
}

func TestControllerDiscardsStaleResult(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetLayoutHooks(hooks)
	defer observability.Reset()

	c := NewController(Options{})
	tok, err := c.Begin()
	if err != nil {
		t.Fatal(err)
	}
	c.Invalidate()

	committed := false
	if c.Finish(context.Background(), tok, func() { committed = true }) {
		t.Error("stale result reported as committed")
	}
	if committed {
		t.Error("stale result was committed")
	}
	if c.State() != StateDiscarded {
		t.Errorf("state = %v, want discarded", c.State())
	}
	if len(hooks.discarded) != 1 || hooks.discarded[0] != tok {
		t.Errorf("discard hook = %v, want [%d]", hooks.discarded, tok)
	}
}

func TestControllerRun(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetLayoutHooks(hooks)
	defer observability.Reset()

	nodes, edges := chain()
	c := NewController(Options{})

	var got []workflow.Node
	applied, err := c.Run(context.Background(), nodes, edges, nil, func(n []workflow.Node) { got = n })
	if err != nil || !applied {
		t.Fatalf("Run = %v, %v", applied, err)
	}
	if len(got) != 3 || got[1].Position.X != 300 {
		t.Errorf("committed nodes = %+v", got)
	}
	if nodes[1].Position.X != 0 {
		t.Error("Run mutated its input")
	}
	if len(hooks.completed) != 1 || hooks.completed[0] != nil {
		t.Errorf("complete hook = %v", hooks.completed)
	}
}

func TestControllerRunFailureCommitsOriginals(t *testing.T) {
	nodes, _ := chain()
	nodes[2].Position = workflow.Position{X: 5, Y: 5}
	edges := []workflow.Edge{edge("bad", "A", "nowhere")}

	c := NewController(Options{})
	var got []workflow.Node
	applied, err := c.Run(context.Background(), nodes, edges, nil, func(n []workflow.Node) { got = n })
	if !errors.Is(err, ErrDanglingEdge) {
		t.Fatalf("err = %v", err)
	}
	if !applied || got[2].Position != nodes[2].Position {
		t.Errorf("applied=%v got=%+v", applied, got)
	}
}

func TestControllerAbort(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetLayoutHooks(hooks)
	defer observability.Reset()

	c := NewController(Options{})
	token, err := c.Begin()
	if err != nil {
		t.Fatal(err)
	}
	c.Abort(context.Background(), token)
	if c.State() != StateDiscarded {
		t.Errorf("state = %v, want discarded", c.State())
	}
	if len(hooks.discarded) != 0 {
		t.Errorf("current run reported as stale: %v", hooks.discarded)
	}
	if _, err := c.Begin(); err != nil {
		t.Errorf("Begin after Abort: %v", err)
	}
}
