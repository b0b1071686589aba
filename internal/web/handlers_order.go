package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/cdm/internal/core"
)

// DefaultOrderRequest is the body of PUT /api/{kind}/default-order.
type DefaultOrderRequest struct {
	Levels []core.DefaultOrderLevel `json:"levels"`
}

func (s *Server) handleGetDefaultOrder(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	order, err := s.service.DefaultOrder(r.Context(), kind)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, order)
}

func (s *Server) handleSetDefaultOrder(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req DefaultOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	order, err := s.service.SetDefaultOrder(r.Context(), kind, req.Levels)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, order)
}

func (s *Server) handleClearDefaultOrder(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.service.ClearDefaultOrder(r.Context(), kind); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDefaultOrderCandidates lists the values of ?column= for the order editor.
func (s *Server) handleDefaultOrderCandidates(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	column := strings.TrimSpace(r.URL.Query().Get("column"))
	if column == "" {
		s.fail(w, r, fmt.Errorf("%w: column is required", errBadRequest))
		return
	}
	values, err := s.service.DefaultOrderCandidates(r.Context(), kind, column)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"column": column, "values": values})
}
