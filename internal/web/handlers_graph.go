package web

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/cdm/internal/core"
	"github.com/JonMunkholm/cdm/internal/web/views"
)

// handleObjectGraph returns the relationship graph around an object as JSON,
// or Graphviz text with ?format=dot.
func (s *Server) handleObjectGraph(w http.ResponseWriter, r *http.Request) {
	g, err := s.service.ObjectGraph(r.Context(), chi.URLParam(r, "id"), parseIntParam(r, "depth", core.DefaultGraphDepth))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeGraph(w, r, g)
}

func (s *Server) handleListGraph(w http.ResponseWriter, r *http.Request) {
	g, err := s.service.ListGraph(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeGraph(w, r, g)
}

func writeGraph(w http.ResponseWriter, r *http.Request, g core.Graph) {
	if r.URL.Query().Get("format") == "dot" {
		w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
		io.WriteString(w, g.DOT())
		return
	}
	writeJSON(w, g)
}

func (s *Server) handleObjectGraphPage(w http.ResponseWriter, r *http.Request) {
	g, err := s.service.ObjectGraph(r.Context(), chi.URLParam(r, "id"), parseIntParam(r, "depth", core.DefaultGraphDepth))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, views.GraphPage("Object graph: "+g.Label(g.RootID), g))
}

func (s *Server) handleListGraphPage(w http.ResponseWriter, r *http.Request) {
	g, err := s.service.ListGraph(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, views.GraphPage("List tiers: "+g.Label(g.RootID), g))
}
