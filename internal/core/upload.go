package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/JonMunkholm/cdm/internal/logging"
)

// ContextCheckInterval is how often row processing checks for cancellation.
var ContextCheckInterval = 100

// Upload row outcomes reported to the Recorder.
const (
	OutcomeCreated = "created"
	OutcomeUpdated = "updated"
	OutcomeSkipped = "skipped"
)

// FailedRow is a data row that was skipped.
type FailedRow struct {
	LineNumber int      `json:"lineNumber"`
	Reason     string   `json:"reason"`
	Data       []string `json:"data"`
}

// UploadResult summarizes one CSV upload.
type UploadResult struct {
	Kind       Kind          `json:"kind"`
	FileName   string        `json:"fileName"`
	TotalRows  int           `json:"totalRows"`
	Created    int           `json:"created"`
	Updated    int           `json:"updated"`
	Skipped    int           `json:"skipped"`
	FailedRows []FailedRow   `json:"failedRows"`
	Duration   time.Duration `json:"duration"`
}

// uploadRow is a data row with its line in the file.
type uploadRow struct {
	line   int
	fields []string
}

// uploadHeader maps CSV positions to grid columns.
type uploadHeader struct {
	columns []string // column name per CSV position
	idPos   int      // position of the ID column, -1 when absent
}

// Upload imports a CSV file. The header row is matched case-insensitively to
// the grid columns. Rows whose ID matches an existing entity update it; other
// rows create new entities. Invalid rows are skipped and reported; everything
// else commits together.
func (s *Service) Upload(ctx context.Context, kind Kind, fileName string, r io.Reader) (UploadResult, error) {
	start := time.Now()
	def, err := definition(kind)
	if err != nil {
		return UploadResult{}, err
	}

	log := logging.WithFields(ctx, "kind", kind, "file", fileName)
	if !s.limiter.TryAcquire() {
		log.Info("upload waiting for a slot", "active", s.limiter.ActiveCount())
		if err := s.limiter.Acquire(ctx); err != nil {
			log.Warn("upload rejected", "error", err)
			return UploadResult{}, err
		}
	}
	defer s.limiter.Release()

	if s.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.uploadTimeout)
		defer cancel()
	}

	header, rows, err := s.readUpload(def, r)
	if err != nil {
		return UploadResult{}, err
	}

	result := UploadResult{Kind: kind, FileName: fileName, TotalRows: len(rows), FailedRows: []FailedRow{}}
	err = s.store.InTx(ctx, func(st Store) error {
		result.Created, result.Updated, result.FailedRows = 0, 0, result.FailedRows[:0]

		snap, err := loadSnapshot(ctx, st)
		if err != nil {
			return err
		}
		for i, row := range rows {
			if i%ContextCheckInterval == 0 && ctx.Err() != nil {
				return ctx.Err()
			}
			created, err := s.applyUploadRow(ctx, st, snap, def, header, row)
			if err != nil {
				if !isRowError(err) {
					return fmt.Errorf("line %d: %w", row.line, err)
				}
				result.FailedRows = append(result.FailedRows, FailedRow{
					LineNumber: row.line,
					Reason:     err.Error(),
					Data:       row.fields,
				})
				continue
			}
			if created {
				result.Created++
			} else {
				result.Updated++
			}
		}

		s.audit(ctx, st, AuditEntry{
			Action:       ActionUpload,
			Kind:         kind,
			RowsAffected: result.Created + result.Updated,
			Reason:       fileName,
		})
		return nil
	})
	if err != nil {
		return UploadResult{}, err
	}

	result.Skipped = len(result.FailedRows)
	result.Duration = time.Since(start)

	s.recorder.RecordUploadRows(kind, OutcomeCreated, result.Created)
	s.recorder.RecordUploadRows(kind, OutcomeUpdated, result.Updated)
	s.recorder.RecordUploadRows(kind, OutcomeSkipped, result.Skipped)
	s.recorder.RecordMutation(kind, ActionUpload, result.Created+result.Updated)
	log.Info("upload finished",
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"duration", result.Duration)
	return result, nil
}

// readUpload parses the header and collects non-empty data rows.
func (s *Service) readUpload(def EntityDefinition, r io.Reader) (uploadHeader, []uploadRow, error) {
	cr := csv.NewReader(newUploadReader(r, s.maxUploadSize))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var header uploadHeader
	haveHeader := false
	var rows []uploadRow

	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if errors.Is(err, ErrFileTooLarge) {
				return header, nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.maxUploadSize)
			}
			return header, nil, ValidationErrors{{Field: "file", Message: fmt.Sprintf("invalid CSV: %v", err)}}
		}
		for i := range fields {
			fields[i] = cleanCell(fields[i])
		}
		if isEmptyRow(fields) {
			continue
		}
		if !haveHeader {
			header, err = parseUploadHeader(def, fields)
			if err != nil {
				return header, nil, err
			}
			haveHeader = true
			continue
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, uploadRow{line: line, fields: fields})
		if s.maxUploadRows > 0 && len(rows) > s.maxUploadRows {
			return header, nil, fmt.Errorf("%w: limit is %d", ErrTooManyRows, s.maxUploadRows)
		}
	}

	if !haveHeader {
		return header, nil, ValidationErrors{{Field: "file", Message: "empty file"}}
	}
	return header, rows, nil
}

// parseUploadHeader rejects unknown, read-only and duplicate headers and
// requires every required column.
func parseUploadHeader(def EntityDefinition, fields []string) (uploadHeader, error) {
	h := uploadHeader{columns: make([]string, len(fields)), idPos: -1}
	var errs ValidationErrors
	seen := make(map[string]bool)

	for i, raw := range fields {
		name := strings.TrimSpace(raw)
		spec, ok := def.Spec(name)
		switch {
		case !ok:
			errs.add("header", name, "unknown column; expected one of: %s", strings.Join(def.Info.Columns, ", "))
			continue
		case seen[spec.Name]:
			errs.add("header", name, "duplicate column")
			continue
		}
		seen[spec.Name] = true

		if strings.EqualFold(spec.Name, "ID") {
			h.idPos = i
		} else if spec.ReadOnly {
			errs.add("header", spec.Name, "column is read-only")
			continue
		}
		h.columns[i] = spec.Name
	}

	for _, spec := range def.FieldSpecs {
		if spec.Required && !seen[spec.Name] {
			errs.add("header", spec.Name, "missing required column")
		}
	}

	if err := errs.err(); err != nil {
		return uploadHeader{}, err
	}
	return h, nil
}

// applyUploadRow creates or updates one entity. It reports whether the row
// created a new entity.
func (s *Service) applyUploadRow(ctx context.Context, st Store, snap *snapshot, def EntityDefinition, h uploadHeader, row uploadRow) (bool, error) {
	var rec Record
	create := true
	if h.idPos >= 0 && h.idPos < len(row.fields) {
		if id := strings.TrimSpace(row.fields[h.idPos]); id != "" {
			if existing, err := snap.record(def.Info.Kind, id); err == nil {
				rec, create = existing, false
			}
		}
	}
	if rec == nil {
		rec = def.New()
	}

	for i, col := range h.columns {
		if col == "" || i == h.idPos {
			continue
		}
		value := ""
		if i < len(row.fields) {
			value = row.fields[i]
		}
		if err := def.SetField(rec, col, value); err != nil {
			return false, err
		}
	}

	if err := s.save(ctx, st, snap, rec, create); err != nil {
		return false, err
	}
	return create, nil
}

// isRowError reports whether err concerns one row's data rather than the store.
func isRowError(err error) bool {
	var verrs ValidationErrors
	return errors.As(err, &verrs) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrInUse) ||
		errors.Is(err, ErrReadOnlyColumn) ||
		errors.Is(err, ErrUnknownColumn)
}

// cleanCell trims a cell and unwraps the ="..." form spreadsheets use to
// keep values such as leading zeros literal.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 3 && strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		s = s[2 : len(s)-1]
	}
	return s
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
