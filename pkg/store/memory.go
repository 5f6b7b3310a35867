package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/matzehuels/flowcanvas/pkg/graph"
)

// Memory is an in-process Store. Graphs are stored as encoded JSON so
// callers never share maps with the store.
type Memory struct {
	mu     sync.RWMutex
	graphs map[string]memoryEntry
	now    func() time.Time
}

type memoryEntry struct {
	data    []byte
	summary Summary
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{graphs: make(map[string]memoryEntry), now: time.Now}
}

// Create implements Store.
func (m *Memory) Create(_ context.Context, def graph.Definition) (graph.Definition, error) {
	def = assignID(def)
	data, err := graph.Marshal(def)
	if err != nil {
		return graph.Definition{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.graphs[def.ID]; ok {
		return graph.Definition{}, fmt.Errorf("%w: %s", ErrExists, def.ID)
	}
	now := m.now()
	m.graphs[def.ID] = memoryEntry{data: data, summary: summarize(def, now, now)}
	return def, nil
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, id string) (graph.Definition, error) {
	m.mu.RLock()
	e, ok := m.graphs[id]
	m.mu.RUnlock()
	if !ok {
		return graph.Definition{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return graph.Unmarshal(e.data)
}

// Update implements Store.
func (m *Memory) Update(_ context.Context, def graph.Definition) error {
	data, err := graph.Marshal(def)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.graphs[def.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, def.ID)
	}
	m.graphs[def.ID] = memoryEntry{data: data, summary: summarize(def, e.summary.CreatedAt, m.now())}
	return nil
}

// Delete implements Store. Deleting a missing graph returns ErrNotFound.
func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.graphs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.graphs, id)
	return nil
}

// List implements Store.
func (m *Memory) List(context.Context) ([]Summary, error) {
	m.mu.RLock()
	out := make([]Summary, 0, len(m.graphs))
	for _, e := range m.graphs {
		out = append(out, e.summary)
	}
	m.mu.RUnlock()
	sortSummaries(out)
	return out, nil
}

// Close implements Store.
func (m *Memory) Close(context.Context) error { return nil }

func sortSummaries(s []Summary) {
	slices.SortFunc(s, func(a, b Summary) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

var _ Store = (*Memory)(nil)
