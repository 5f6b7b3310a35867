package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/flowcanvas/pkg/buildinfo"
	flowerrors "github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/graph"
	"github.com/matzehuels/flowcanvas/pkg/nodedef"
	"github.com/matzehuels/flowcanvas/pkg/pipeline"
	"github.com/matzehuels/flowcanvas/pkg/registry"
	"github.com/matzehuels/flowcanvas/pkg/render/nodelink"
	"github.com/matzehuels/flowcanvas/pkg/workflow"
)

// =============================================================================
// Health and Catalog
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": buildinfo.Version,
		"types":   s.registry.Len(),
	})
}

type typesResponse struct {
	Types      []*nodedef.Definition `json:"types"`
	Categories []nodedef.Category    `json:"categories"`
}

// handleListTypes lists node types. category, tag and q narrow the list;
// all given filters must match.
func (s *Server) handleListTypes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	defs := s.registry.Find(registry.Query{
		Category: nodedef.Category(q.Get("category")),
		Tags:     q["tag"],
		Text:     q.Get("q"),
	})
	writeJSON(w, http.StatusOK, typesResponse{Types: defs, Categories: s.registry.Categories()})
}

func (s *Server) handleGetType(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "typeID")
	if err := flowerrors.ValidateTypeID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	def, err := s.registry.Lookup(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

// =============================================================================
// Graphs
// =============================================================================

type graphResponse struct {
	Definition graph.Definition `json:"definition"`
	Warnings   []string         `json:"warnings"`
}

type validateResponse struct {
	Valid bool `json:"valid"`
	graphResponse
}

// parseGraph reads the request body and runs the import checks.
func (s *Server) parseGraph(w http.ResponseWriter, r *http.Request) (*graph.ImportResult, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errInvalid("request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, errInvalid("read body: %v", err)
	}
	return s.runner.Parse(r.Context(), data, pipeline.Options{YAML: isYAML(r)})
}

func isYAML(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return strings.HasSuffix(mt, "yaml")
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	res, err := s.parseGraph(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{
		Valid:         true,
		graphResponse: graphResponse{Definition: res.Definition, Warnings: res.Warnings},
	})
}

func (s *Server) handleListGraphs(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"graphs": list})
}

// handleCreateGraph stores a new graph. A client-supplied id must be a
// UUID; without one the store assigns it.
func (s *Server) handleCreateGraph(w http.ResponseWriter, r *http.Request) {
	res, err := s.parseGraph(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	def := res.Definition
	if def.ID != "" {
		if err := flowerrors.ValidateGraphID(def.ID); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	created, err := s.store.Create(r.Context(), def)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("graph created", "id", created.ID, "nodes", len(created.Nodes))
	w.Header().Set("Location", "/v1/graphs/"+created.ID)
	writeJSON(w, http.StatusCreated, graphResponse{Definition: created, Warnings: res.Warnings})
}

func (s *Server) graphID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	return id, flowerrors.ValidateGraphID(id)
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	id, err := s.graphID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	def, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (s *Server) handleUpdateGraph(w http.ResponseWriter, r *http.Request) {
	id, err := s.graphID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.parseGraph(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	def := res.Definition
	if def.ID != "" && def.ID != id {
		s.writeError(w, r, errInvalid("body id %q does not match path id %q", def.ID, id))
		return
	}
	def.ID = id
	if err := s.store.Update(r.Context(), def); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, graphResponse{Definition: def, Warnings: res.Warnings})
}

func (s *Server) handleDeleteGraph(w http.ResponseWriter, r *http.Request) {
	id, err := s.graphID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Layout and Rendering
// =============================================================================

type layoutRequest struct {
	Engine       string                   `json:"engine"`
	Direction    string                   `json:"direction"`
	LayerSpacing float64                  `json:"layerSpacing"`
	NodeSpacing  float64                  `json:"nodeSpacing"`
	GridSize     float64                  `json:"gridSize"`
	Sizes        map[string]workflow.Size `json:"sizes"`
}

type layoutResponse struct {
	Definition graph.Definition `json:"definition"`
	Layout     graph.Layout     `json:"layout"`
	Cached     bool             `json:"cached"`
}

// handleLayout lays out a stored graph, persists the new coordinates and
// returns the updated graph. Unset request fields take the server
// defaults; an empty body is allowed.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	id, err := s.graphID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req layoutRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, r, errInvalid("decode layout request: %v", err))
		return
	}

	def, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := s.layoutOptions(req)
	if err := opts.ValidateForLayout(); err != nil {
		s.writeError(w, r, errInvalid("%v", err))
		return
	}
	nodes, edges := graph.FromCanonical(def)
	l, hit, err := s.runner.GenerateLayoutWithCacheInfo(r.Context(), nodes, edges, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	l.GraphID = id

	out := l.ApplyTo(def)
	if err := s.store.Update(r.Context(), out); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, layoutResponse{Definition: out, Layout: l, Cached: hit})
}

func (s *Server) layoutOptions(req layoutRequest) pipeline.Options {
	d := s.opts.Layout
	opts := pipeline.Options{
		Engine:       req.Engine,
		Direction:    req.Direction,
		LayerSpacing: req.LayerSpacing,
		NodeSpacing:  req.NodeSpacing,
		GridSize:     req.GridSize,
		Sizes:        req.Sizes,
	}
	if opts.Engine == "" {
		opts.Engine = string(d.Engine)
	}
	if opts.Direction == "" {
		opts.Direction = string(d.Direction)
	}
	if opts.LayerSpacing <= 0 {
		opts.LayerSpacing = d.LayerSpacing
	}
	if opts.NodeSpacing <= 0 {
		opts.NodeSpacing = d.NodeSpacing
	}
	if opts.GridSize <= 0 {
		opts.GridSize = d.GridSize
	}
	return opts
}

var contentTypes = map[nodelink.Format]string{
	nodelink.FormatSVG: "image/svg+xml",
	nodelink.FormatPNG: "image/png",
	nodelink.FormatDOT: "text/vnd.graphviz; charset=utf-8",
}

// handleRender draws a stored graph at its saved coordinates.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	id, err := s.graphID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	format, err := nodelink.ParseFormat(q.Get("format"))
	if err != nil {
		s.writeError(w, r, errInvalid("%v", err))
		return
	}
	detailed := false
	if v := q.Get("detailed"); v != "" {
		if detailed, err = strconv.ParseBool(v); err != nil {
			s.writeError(w, r, errInvalid("detailed: %v", err))
			return
		}
	}

	def, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	nodes, edges := graph.FromCanonical(def)
	l := s.savedLayout(def)

	opts := pipeline.Options{Formats: []string{string(format)}, Detailed: detailed}
	artifacts, hit, err := s.runner.RenderWithCacheInfo(r.Context(), l, nodes, edges, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("X-Cache", strconv.FormatBool(hit))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[string(format)])
}

// savedLayout describes a graph's stored coordinates as a layout. Nodes
// without a saved size get the layout default.
func (s *Server) savedLayout(def graph.Definition) graph.Layout {
	d := s.opts.Layout
	l := graph.Layout{
		GraphID:    def.ID,
		Engine:     "saved",
		Direction:  string(d.Direction),
		Placements: make([]graph.Placement, len(def.Nodes)),
	}
	for i, n := range def.Nodes {
		p := graph.Placement{ID: n.ID, X: n.UI.X, Y: n.UI.Y, Width: n.UI.W, Height: n.UI.H}
		if p.Width <= 0 || p.Height <= 0 {
			p.Width, p.Height = d.DefaultWidth, d.DefaultHeight
		}
		l.Placements[i] = p
		l.Width = max(l.Width, p.X+p.Width)
		l.Height = max(l.Height, p.Y+p.Height)
	}
	return l
}
