package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/cdm/internal/core"
	"github.com/JonMunkholm/cdm/internal/logging"
	"github.com/JonMunkholm/cdm/internal/web/views"
)

// handleHealth reports 503 when the store is unreachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Ping(r.Context()); err != nil {
		logging.FromContext(r.Context()).Error("health check failed", "error", err)
		writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.Entities())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, stats)
}

func (s *Server) handleUploadStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.Limiter().Status())
}

// handleAuditLog lists audit entries newest first.
//
//	?kind=objects&action=delete&since=2026-01-01T00:00:00Z&limit=50&offset=0
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := core.AuditFilter{
		Action: core.AuditAction(q.Get("action")),
		Limit:  parseIntParam(r, "limit", core.DefaultAuditLimit),
		Offset: parseIntParam(r, "offset", 0),
	}
	if k := q.Get("kind"); k != "" {
		kind, err := core.ParseKind(k)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		f.Kind = kind
	}
	for name, dst := range map[string]*time.Time{"since": &f.Since, "until": &f.Until} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.fail(w, r, fmt.Errorf("%w: %s must be RFC 3339", errBadRequest, name))
			return
		}
		*dst = t
	}

	entries, err := s.service.AuditLog(r.Context(), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, entries)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	infos := s.service.Entities()
	summaries := make([]views.EntitySummary, len(infos))
	for i, info := range infos {
		summaries[i] = views.EntitySummary{Info: info, Count: stats.Counts[info.Kind]}
	}
	s.render(w, r, views.Dashboard(summaries, stats.Uploads))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render failed", "error", err)
	}
}
