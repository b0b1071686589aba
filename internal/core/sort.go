package core

import (
	"sort"
	"strings"
)

// MaxSortLevels caps the number of levels in a custom sort.
const MaxSortLevels = 5

// normalizeSorts resolves column names against the definition, drops unknown
// or duplicate columns and applies the per-mode level limit.
func normalizeSorts(def EntityDefinition, sorts []SortSpec, mode SortMode) []SortSpec {
	limit := MaxSortLevels
	if mode == SortByColumn {
		limit = 1
	}

	seen := make(map[string]bool)
	out := make([]SortSpec, 0, len(sorts))
	for _, s := range sorts {
		spec, ok := def.Spec(s.Column)
		if !ok || seen[spec.Name] {
			continue
		}
		seen[spec.Name] = true
		dir := "asc"
		if strings.EqualFold(s.Dir, "desc") {
			dir = "desc"
		}
		out = append(out, SortSpec{Column: spec.Name, Dir: dir})
		if len(out) == limit {
			break
		}
	}
	return out
}

// fallbackSort is the first data column ascending.
func fallbackSort(def EntityDefinition) []SortSpec {
	for _, spec := range def.FieldSpecs {
		if !strings.EqualFold(spec.Name, "ID") {
			return []SortSpec{{Column: spec.Name, Dir: "asc"}}
		}
	}
	return []SortSpec{{Column: "ID", Dir: "asc"}}
}

// compareCells orders values naturally with empty values last.
func compareCells(a, b string) int {
	ea, eb := strings.TrimSpace(a) == "", strings.TrimSpace(b) == ""
	switch {
	case ea && eb:
		return 0
	case ea:
		return 1
	case eb:
		return -1
	}
	return compareValues(a, b)
}

// compareBySpecs walks the sort levels. Empty values stay last in either direction.
func compareBySpecs(a, b Record, sorts []SortSpec) int {
	for _, s := range sorts {
		va, vb := a.Cell(s.Column), b.Cell(s.Column)
		ea, eb := strings.TrimSpace(va) == "", strings.TrimSpace(vb) == ""
		if ea != eb {
			if ea {
				return 1
			}
			return -1
		}
		c := compareCells(va, vb)
		if s.Dir == "desc" {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// sortRecords orders records in place and returns the sort levels applied.
// Ties always break by ID so paging is stable.
func sortRecords(def EntityDefinition, records []Record, sorts []SortSpec, mode SortMode, order *DefaultOrder) []SortSpec {
	var applied []SortSpec
	useOrder := mode == SortByDefault && order != nil && len(order.Levels) > 0
	if !useOrder {
		applied = normalizeSorts(def, sorts, mode)
		if len(applied) == 0 {
			applied = fallbackSort(def)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		var c int
		if useOrder {
			c = order.Compare(records[i], records[j])
		} else {
			c = compareBySpecs(records[i], records[j], applied)
		}
		if c == 0 {
			c = strings.Compare(records[i].RecordID(), records[j].RecordID())
		}
		return c < 0
	})
	return applied
}
