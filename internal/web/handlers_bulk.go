package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/JonMunkholm/cdm/internal/core"
	"github.com/JonMunkholm/cdm/internal/logging"
)

// multipartOverhead allows for boundaries and part headers around the file.
const multipartOverhead = 1 << 20

// BulkEditRequest is the body of POST /api/{kind}/bulk-edit.
type BulkEditRequest struct {
	IDs    []string `json:"ids"`
	Column string   `json:"column"`
	Value  string   `json:"value"`
}

// BulkDeleteRequest is the body of POST /api/{kind}/bulk-delete.
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// bulkRejectedResponse carries the per-id failures of a rolled back bulk operation.
type bulkRejectedResponse struct {
	ErrorResponse
	Result core.BulkResult `json:"result"`
}

func (s *Server) handleBulkEdit(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req BulkEditRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	result, err := s.service.BulkEdit(r.Context(), kind, req.IDs, req.Column, req.Value)
	s.respondBulk(w, r, result, err)
}

func (s *Server) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req BulkDeleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	result, err := s.service.BulkDelete(r.Context(), kind, req.IDs)
	s.respondBulk(w, r, result, err)
}

func (s *Server) respondBulk(w http.ResponseWriter, r *http.Request, result core.BulkResult, err error) {
	switch {
	case err == nil:
		writeJSON(w, result)
	case errors.Is(err, core.ErrBulkRejected):
		msg := core.MapError(err)
		logging.FromContext(r.Context()).Warn("bulk operation rejected",
			"kind", result.Kind, "failures", len(result.Failures))
		writeJSONStatus(w, http.StatusUnprocessableEntity, bulkRejectedResponse{
			ErrorResponse: ErrorResponse{Error: msg.Message, Message: msg.Message, Action: msg.Action, Code: msg.Code},
			Result:        result,
		})
	default:
		s.fail(w, r, err)
	}
}

// handleUpload streams the "file" part of a multipart form into the importer.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize+multipartOverhead)
	mr, err := r.MultipartReader()
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: expected multipart form: %v", errBadRequest, err))
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			s.fail(w, r, fmt.Errorf("%w: no file provided", errBadRequest))
			return
		}
		if err != nil {
			s.fail(w, r, uploadReadError(err))
			return
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}

		result, err := s.service.Upload(r.Context(), kind, fileName(part.FileName(), kind), part)
		part.Close()
		if err != nil {
			s.fail(w, r, uploadReadError(err))
			return
		}
		writeJSON(w, result)
		return
	}
}

// uploadReadError reports an oversized request body as ErrFileTooLarge.
func uploadReadError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Errorf("%w: limit is %d bytes", core.ErrFileTooLarge, maxErr.Limit)
	}
	return err
}

func fileName(name string, kind core.Kind) string {
	if name == "" {
		return string(kind) + ".csv"
	}
	return name
}
