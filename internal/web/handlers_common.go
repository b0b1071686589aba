package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/cdm/internal/core"
)

// maxJSONBody caps decoded request bodies.
const maxJSONBody = 1 << 20

// kindParam resolves the {kind} URL parameter.
func kindParam(r *http.Request) (core.Kind, error) {
	return core.ParseKind(chi.URLParam(r, "kind"))
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// parseViewRequest reads search, filters, sorts, mode and paging from the query.
//
//	?q=acme&filter[Object]=contains:cust&sort=Being,Object&dir=asc,desc&mode=custom&page=2&pageSize=100
//
// in filters separate candidates with "|": filter[Being]=in:Party|Thing.
func parseViewRequest(r *http.Request) core.ViewRequest {
	q := r.URL.Query()
	return core.ViewRequest{
		Search:   strings.TrimSpace(q.Get("q")),
		Filters:  parseFilters(r),
		Sorts:    parseSorts(r),
		Mode:     core.ParseSortMode(q.Get("mode")),
		Page:     parseIntParam(r, "page", 1),
		PageSize: parseIntParam(r, "pageSize", 0),
	}
}

// parseSorts pairs comma-separated sort columns with directions.
func parseSorts(r *http.Request) []core.SortSpec {
	sortStr := r.URL.Query().Get("sort")
	if sortStr == "" {
		return nil
	}
	dirs := strings.Split(r.URL.Query().Get("dir"), ",")

	var sorts []core.SortSpec
	for i, col := range strings.Split(sortStr, ",") {
		col = strings.TrimSpace(col)
		if col == "" {
			continue
		}
		dir := "asc"
		if i < len(dirs) && strings.EqualFold(strings.TrimSpace(dirs[i]), "desc") {
			dir = "desc"
		}
		sorts = append(sorts, core.SortSpec{Column: col, Dir: dir})
		if len(sorts) == core.MaxSortLevels {
			break
		}
	}
	return sorts
}

// parseFilters extracts filter[Column]=op:value parameters. Column and
// operator checks happen in the view engine.
func parseFilters(r *http.Request) []core.ColumnFilter {
	var filters []core.ColumnFilter
	for key, values := range r.URL.Query() {
		if !strings.HasPrefix(key, "filter[") || !strings.HasSuffix(key, "]") {
			continue
		}
		column := key[len("filter[") : len(key)-1]
		if column == "" {
			continue
		}
		for _, val := range values {
			op, value, ok := strings.Cut(val, ":")
			if !ok || value == "" {
				continue
			}
			f := core.ColumnFilter{
				Column:   column,
				Operator: core.FilterOperator(op),
				Value:    value,
			}
			if f.Operator == core.OpIn {
				f.Values = core.SplitInValues(value)
			}
			filters = append(filters, f)
		}
	}
	slices.SortStableFunc(filters, func(a, b core.ColumnFilter) int {
		return strings.Compare(a.Column, b.Column)
	})
	return filters
}

// clientID reads the preference owner from X-Client-ID.
func clientID(r *http.Request) string {
	return core.NormalizeClientID(r.Header.Get("X-Client-ID"))
}
