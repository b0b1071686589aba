package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/cdm/internal/core"
)

// DriverStringRequest is the body of POST /api/driver-strings/parse.
type DriverStringRequest struct {
	Driver string `json:"driver"`
}

// DriverStringResponse pairs a selection with its canonical string.
type DriverStringResponse struct {
	Driver    string               `json:"driver"`
	Selection core.DriverSelection `json:"selection"`
}

// ReorderRequest is the body of POST /api/driver-order/{category}.
type ReorderRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleDriverCatalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := s.service.DriverCatalog(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, catalog)
}

func (s *Server) handleParseDriver(w http.ResponseWriter, r *http.Request) {
	var req DriverStringRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	sel, err := s.service.ParseDriver(r.Context(), req.Driver)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, DriverStringResponse{Driver: sel.String(), Selection: sel})
}

func (s *Server) handleFormatDriver(w http.ResponseWriter, r *http.Request) {
	var sel core.DriverSelection
	if err := decodeJSON(w, r, &sel); err != nil {
		s.fail(w, r, err)
		return
	}
	driver, err := s.service.FormatDriver(r.Context(), sel)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	parsed, err := core.ParseDriverString(driver)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, DriverStringResponse{Driver: driver, Selection: parsed})
}

func (s *Server) handleReorderDrivers(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	drivers, err := s.service.ReorderDrivers(r.Context(), chi.URLParam(r, "category"), req.IDs)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, drivers)
}
