package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/cdm/internal/core"
)

// handleView returns one page of the grid.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	result, err := s.service.View(r.Context(), kind, parseViewRequest(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, result)
}

// handleExport streams every page of the current view as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", string(kind)+".csv"))
	if _, err := s.service.Export(r.Context(), kind, parseViewRequest(r), w); err != nil {
		s.fail(w, r, err)
	}
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ctx, id := r.Context(), chi.URLParam(r, "id")

	var entity any
	switch kind {
	case core.KindDrivers:
		entity, err = s.service.GetDriver(ctx, id)
	case core.KindObjects:
		entity, err = s.service.GetObject(ctx, id)
	case core.KindVariables:
		entity, err = s.service.GetVariable(ctx, id)
	case core.KindLists:
		entity, err = s.service.GetList(ctx, id)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, entity)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	entity, err := s.save(w, r, kind, "")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, entity)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	entity, err := s.save(w, r, kind, chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, entity)
}

// save decodes the body as kind and creates it, or updates id when set.
// The URL id wins over any id in the body.
func (s *Server) save(w http.ResponseWriter, r *http.Request, kind core.Kind, id string) (any, error) {
	ctx := r.Context()
	switch kind {
	case core.KindDrivers:
		var body struct {
			core.Driver
			SortOrder *int `json:"sortOrder"`
		}
		if err := decodeJSON(w, r, &body); err != nil {
			return nil, err
		}
		d := body.Driver
		d.ID = id
		d.SortOrder = core.AppendSortOrder
		if body.SortOrder != nil {
			d.SortOrder = *body.SortOrder
		}
		return saveWith(ctx, id, d, s.service.CreateDriver, s.service.UpdateDriver)
	case core.KindObjects:
		var o core.Object
		if err := decodeJSON(w, r, &o); err != nil {
			return nil, err
		}
		o.ID = id
		return saveWith(ctx, id, o, s.service.CreateObject, s.service.UpdateObject)
	case core.KindVariables:
		var v core.Variable
		if err := decodeJSON(w, r, &v); err != nil {
			return nil, err
		}
		v.ID = id
		return saveWith(ctx, id, v, s.service.CreateVariable, s.service.UpdateVariable)
	case core.KindLists:
		var l core.List
		if err := decodeJSON(w, r, &l); err != nil {
			return nil, err
		}
		l.ID = id
		return saveWith(ctx, id, l, s.service.CreateList, s.service.UpdateList)
	}
	return nil, fmt.Errorf("%w: %q", core.ErrUnknownKind, kind)
}

func saveWith[T any](ctx context.Context, id string, entity T, create, update func(context.Context, T) (T, error)) (any, error) {
	if id == "" {
		return create(ctx, entity)
	}
	return update(ctx, entity)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.service.Delete(r.Context(), kind, chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleClone returns an unsaved copy; the client saves it with POST /{kind}.
func (s *Server) handleClone(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rec, err := s.service.Clone(r.Context(), kind, chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, rec)
}
