package core

import (
	"strings"
)

// Paging defaults used when the caller does not configure them.
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// ViewRequest describes what a grid wants to see.
type ViewRequest struct {
	Search   string         `json:"search,omitempty"`
	Filters  []ColumnFilter `json:"filters,omitempty"`
	Sorts    []SortSpec     `json:"sorts,omitempty"`
	Mode     SortMode       `json:"mode,omitempty"`
	Page     int            `json:"page,omitempty"`
	PageSize int            `json:"pageSize,omitempty"`

	// MaxPageSize caps PageSize; zero uses the package MaxPageSize.
	MaxPageSize int `json:"-"`
}

// ViewRow is one rendered grid row, cells in column order.
type ViewRow struct {
	ID    string   `json:"id"`
	Cells []string `json:"cells"`
}

// ViewResult is one page of a filtered, sorted grid.
type ViewResult struct {
	Kind       Kind           `json:"kind"`
	Columns    []string       `json:"columns"`
	Rows       []ViewRow      `json:"rows"`
	TotalRows  int            `json:"totalRows"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
	Mode       SortMode       `json:"mode"`
	Sorts      []SortSpec     `json:"sorts"`
	Filters    []ColumnFilter `json:"filters"`
	Search     string         `json:"search,omitempty"`
}

// BuildView filters, sorts and pages records. records is reordered in place.
func BuildView(def EntityDefinition, records []Record, req ViewRequest, order *DefaultOrder) ViewResult {
	matched, sorts, filters := applyView(def, records, req, order)

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	maxSize := req.MaxPageSize
	if maxSize <= 0 {
		maxSize = MaxPageSize
	}
	pageSize = min(pageSize, maxSize)

	total := len(matched)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, total)

	rows := make([]ViewRow, 0, end-start)
	for _, rec := range matched[start:end] {
		rows = append(rows, renderRow(def, rec))
	}

	return ViewResult{
		Kind:       def.Info.Kind,
		Columns:    def.Info.Columns,
		Rows:       rows,
		TotalRows:  total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		Mode:       modeOrDefault(req.Mode),
		Sorts:      sorts,
		Filters:    filters,
		Search:     strings.TrimSpace(req.Search),
	}
}

// applyView returns the matching records in display order together with the
// sort levels and filters that were actually applied.
func applyView(def EntityDefinition, records []Record, req ViewRequest, order *DefaultOrder) ([]Record, []SortSpec, []ColumnFilter) {
	filters := usableFilters(def, req.Filters)

	matched := make([]Record, 0, len(records))
	for _, rec := range records {
		if !matchSearch(rec, def.Info.Columns, req.Search) {
			continue
		}
		ok := true
		for _, f := range filters {
			if !matchFilter(rec.Cell(f.Column), f) {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, rec)
		}
	}

	sorts := sortRecords(def, matched, req.Sorts, modeOrDefault(req.Mode), order)
	return matched, sorts, filters
}

// usableFilters drops filters on unknown columns or with operators the column
// type does not support.
func usableFilters(def EntityDefinition, filters []ColumnFilter) []ColumnFilter {
	out := make([]ColumnFilter, 0, len(filters))
	for _, f := range filters {
		spec, ok := def.Spec(f.Column)
		if !ok || !ValidOperator(f.Operator, spec.Type) {
			continue
		}
		f.Column = spec.Name
		out = append(out, f)
	}
	return out
}

func renderRow(def EntityDefinition, rec Record) ViewRow {
	cells := make([]string, len(def.Info.Columns))
	for i, col := range def.Info.Columns {
		cells[i] = rec.Cell(col)
	}
	return ViewRow{ID: rec.RecordID(), Cells: cells}
}

func modeOrDefault(m SortMode) SortMode {
	if m == "" {
		return SortByColumn
	}
	return m
}
