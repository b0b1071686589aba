package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/cdm/internal/core"
)

func (s *Server) handleListPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := s.service.Preferences(r.Context(), clientID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, prefs)
}

func (s *Server) handleGetPreference(w http.ResponseWriter, r *http.Request) {
	value, err := s.service.Preference(r.Context(), clientID(r), chi.URLParam(r, "key"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(value)
}

// handlePutPreference stores the raw JSON body under {key}.
func (s *Server) handlePutPreference(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, core.MaxPreferenceSize+1))
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: read body: %v", errBadRequest, err))
		return
	}
	if err := s.service.SetPreference(r.Context(), clientID(r), chi.URLParam(r, "key"), json.RawMessage(body)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeletePreference(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeletePreference(r.Context(), clientID(r), chi.URLParam(r, "key")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
