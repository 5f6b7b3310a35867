package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	flowerrors "github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/graph"
)

// File stores each graph as <dir>/<id>.json.
type File struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

type fileRecord struct {
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
	Definition graph.Definition `json:"definition"`
}

// NewFile creates a file store in dir, creating the directory if needed.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &File{dir: dir, now: time.Now}, nil
}

// Create implements Store.
func (f *File) Create(_ context.Context, def graph.Definition) (graph.Definition, error) {
	def = assignID(def)
	path, err := f.path(def.ID)
	if err != nil {
		return graph.Definition{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := os.Stat(path); err == nil {
		return graph.Definition{}, fmt.Errorf("%w: %s", ErrExists, def.ID)
	}
	now := f.now()
	if err := writeRecord(path, fileRecord{CreatedAt: now, UpdatedAt: now, Definition: def}); err != nil {
		return graph.Definition{}, err
	}
	return def, nil
}

// Get implements Store.
func (f *File) Get(_ context.Context, id string) (graph.Definition, error) {
	path, err := f.path(id)
	if err != nil {
		return graph.Definition{}, err
	}
	rec, err := readRecord(path)
	if err != nil {
		return graph.Definition{}, err
	}
	return rec.Definition, nil
}

// Update implements Store.
func (f *File) Update(_ context.Context, def graph.Definition) error {
	path, err := f.path(def.ID)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	rec, err := readRecord(path)
	if err != nil {
		return err
	}
	rec.Definition = def
	rec.UpdatedAt = f.now()
	return writeRecord(path, rec)
}

// Delete implements Store.
func (f *File) Delete(_ context.Context, id string) error {
	path, err := f.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return err
	}
	return nil
}

// List implements Store. Unreadable files are skipped.
func (f *File) List(context.Context) ([]Summary, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		rec, err := readRecord(filepath.Join(f.dir, e.Name()))
		if err != nil {
			continue
		}
		out = append(out, summarize(rec.Definition, rec.CreatedAt, rec.UpdatedAt))
	}
	sortSummaries(out)
	return out, nil
}

// Close implements Store.
func (f *File) Close(context.Context) error { return nil }

// path maps an id to its file, rejecting ids that are not a single safe
// path element.
func (f *File) path(id string) (string, error) {
	if strings.ContainsAny(id, "/") {
		return "", flowerrors.New(flowerrors.ErrCodeInvalidInput, "invalid graph id: %q", id)
	}
	if err := flowerrors.ValidatePath(id + ".json"); err != nil {
		return "", err
	}
	return filepath.Join(f.dir, id+".json"), nil
}

func readRecord(path string) (fileRecord, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fileRecord{}, fmt.Errorf("%w: %s", ErrNotFound, strings.TrimSuffix(filepath.Base(path), ".json"))
	}
	if err != nil {
		return fileRecord{}, err
	}
	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fileRecord{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return rec, nil
}

func writeRecord(path string, rec fileRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

var _ Store = (*File)(nil)
