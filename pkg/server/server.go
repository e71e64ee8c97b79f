// Package server exposes an editor's diagram over a read-only HTTP API.
//
// Routes:
//
//	GET /healthz
//	GET /elements            ?type=task  ?bbox=x,y,w,h
//	GET /elements/{id}
//	GET /actions             ?q=query
//	GET /diagram.json
//	GET /diagram.dot         ?detailed=1  ?positioned=1
//	GET /diagram.svg         same options as .dot
//
// The editor is not safe for concurrent use, so every request holds the
// server's lock while it reads the diagram.
package server

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/flowmodel/pkg/buildinfo"
	"github.com/matzehuels/flowmodel/pkg/editor"
	"github.com/matzehuels/flowmodel/pkg/errors"
	fio "github.com/matzehuels/flowmodel/pkg/io"
	"github.com/matzehuels/flowmodel/pkg/model"
	"github.com/matzehuels/flowmodel/pkg/render/nodelink"
)

// Server serves one editor.
type Server struct {
	mu       *sync.Mutex
	ed       *editor.Editor
	renderer *nodelink.Renderer
	logger   *log.Logger
	router   chi.Router
}

// Option configures [New].
type Option func(*Server)

// WithRenderer sets the renderer used for /diagram.svg. Without one the
// route renders uncached.
func WithRenderer(r *nodelink.Renderer) Option { return func(s *Server) { s.renderer = r } }

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// WithLock shares mu with other users of the editor, such as a terminal
// session editing the same diagram.
func WithLock(mu *sync.Mutex) Option { return func(s *Server) { s.mu = mu } }

// New builds the router for ed.
func New(ed *editor.Editor, opts ...Option) *Server {
	s := &Server{ed: ed, mu: &sync.Mutex{}, logger: log.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if s.renderer == nil {
		s.renderer = nodelink.NewRenderer(nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Get("/healthz", s.health)
	r.Route("/elements", func(r chi.Router) {
		r.Get("/", s.listElements)
		r.Get("/{id}", s.getElement)
	})
	r.Get("/actions", s.listActions)
	r.Get("/diagram.json", s.diagramJSON)
	r.Get("/diagram.dot", s.diagramDOT)
	r.Get("/diagram.svg", s.diagramSVG)
	s.router = r
	return s
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(), "bytes", ww.BytesWritten())
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	version, commit, _ := buildinfo.Info()
	writeJSON(w, map[string]any{
		"status":   "ok",
		"version":  version,
		"commit":   commit,
		"diagram":  s.ed.Diagram(),
		"elements": s.ed.Registry().Len(),
	}, http.StatusOK)
}

func (s *Server) listElements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var bbox *model.Rect
	if raw := q.Get("bbox"); raw != "" {
		rect, err := parseRect(raw)
		if err != nil {
			writeError(w, err)
			return
		}
		bbox = &rect
	}
	typ := q.Get("type")

	s.mu.Lock()
	defer s.mu.Unlock()
	reg := s.ed.Registry()
	var els []*model.Element
	switch {
	case bbox != nil:
		els = reg.InBounds(*bbox)
		if typ != "" {
			els = slices.DeleteFunc(els, func(el *model.Element) bool { return el.Type != typ })
		}
	case typ != "":
		els = reg.ByType(typ)
	default:
		for el := range reg.All() {
			els = append(els, el)
		}
	}

	out := make([]fio.Element, len(els))
	for i, el := range els {
		out[i] = fio.FromElement(el)
	}
	writeJSON(w, map[string]any{"elements": out, "count": len(out)}, http.StatusOK)
}

func (s *Server) getElement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	el, err := s.ed.Registry().MustGet(id)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := map[string]any{"element": fio.FromElement(el)}
	if el.Kind == model.KindShape {
		resp["incoming"] = elementIDs(s.ed.Registry().Incoming(id))
		resp["outgoing"] = elementIDs(s.ed.Registry().Outgoing(id))
	}
	writeJSON(w, resp, http.StatusOK)
}

type actionInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Disabled    string `json:"disabled,omitempty"`
}

func (s *Server) listActions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acts, err := editor.Service[*editor.Actions](s.ed, editor.ServiceEditorActions)
	if err != nil {
		writeError(w, err)
		return
	}
	var found []editor.Action
	if q := r.URL.Query().Get("q"); q != "" {
		found = acts.Find(q)
	} else {
		found = acts.Find("")
	}
	out := make([]actionInfo, len(found))
	for i, a := range found {
		out[i] = actionInfo{Name: a.Name, Description: a.Description}
		if a.Disabled != nil {
			if off, reason := a.Disabled(); off {
				out[i].Disabled = reason
			}
		}
	}
	writeJSON(w, map[string]any{"actions": out}, http.StatusOK)
}

func (s *Server) diagramJSON(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	doc := s.ed.Export()
	s.mu.Unlock()
	data, err := fio.Marshal(doc, fio.FormatJSON)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) diagramDOT(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	dot := nodelink.ToDOT(s.ed.Registry(), dotOptions(r))
	s.mu.Unlock()
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	_, _ = w.Write([]byte(dot))
}

func (s *Server) diagramSVG(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	svg, err := s.renderer.Render(r.Context(), s.ed.Registry(), dotOptions(r), "svg", 1)
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

func dotOptions(r *http.Request) nodelink.Options {
	q := r.URL.Query()
	return nodelink.Options{Detailed: flag(q.Get("detailed")), Positioned: flag(q.Get("positioned"))}
}

func flag(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// parseRect parses "x,y,w,h".
func parseRect(raw string) (model.Rect, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return model.Rect{}, errors.New(errors.ErrCodeInvalidInput, "bbox must be x,y,w,h")
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return model.Rect{}, errors.New(errors.ErrCodeInvalidInput, "bbox: invalid number %q", p)
		}
		v[i] = f
	}
	if v[2] < 0 || v[3] < 0 {
		return model.Rect{}, errors.New(errors.ErrCodeInvalidInput, "bbox: negative size")
	}
	return model.Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}

func elementIDs(els []*model.Element) []string {
	ids := make([]string, len(els))
	for i, el := range els {
		ids[i] = el.ID
	}
	return ids
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, ErrorResponse{Error: errors.UserMessage(err), Code: string(errors.GetCode(err))}, statusFor(err))
}

func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
