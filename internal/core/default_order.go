package core

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"
)

// DefaultOrderLevel ranks the values of one column. Values earlier in the
// slice sort first; values not listed follow in natural order.
type DefaultOrderLevel struct {
	Column string   `json:"column"`
	Values []string `json:"values"`
}

// DefaultOrder is the persisted, user-defined ordering of one entity kind.
type DefaultOrder struct {
	Kind      Kind                `json:"kind"`
	Levels    []DefaultOrderLevel `json:"levels"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// rank returns the position of v, or len(Values) when unlisted.
func (l DefaultOrderLevel) rank(v string) int {
	for i, candidate := range l.Values {
		if strings.EqualFold(candidate, v) {
			return i
		}
	}
	return len(l.Values)
}

// Compare orders two records level by level.
func (o DefaultOrder) Compare(a, b Record) int {
	for _, level := range o.Levels {
		va, vb := a.Cell(level.Column), b.Cell(level.Column)
		ra, rb := level.rank(va), level.rank(vb)
		if ra != rb {
			return ra - rb
		}
		if ra == len(level.Values) {
			if c := compareCells(va, vb); c != 0 {
				return c
			}
		}
	}
	return 0
}

// normalizeDefaultOrder validates levels against a definition and trims values.
func normalizeDefaultOrder(def EntityDefinition, levels []DefaultOrderLevel) ([]DefaultOrderLevel, error) {
	var errs ValidationErrors
	seenCols := make(map[string]bool)
	out := make([]DefaultOrderLevel, 0, len(levels))

	for i, level := range levels {
		field := fmt.Sprintf("levels[%d]", i)
		spec, ok := def.Spec(level.Column)
		if !ok {
			errs.add(field+".column", level.Column, "unknown column")
			continue
		}
		if !spec.Categorical {
			errs.add(field+".column", spec.Name, "column is not categorical; allowed: %s",
				strings.Join(def.categoricalColumns(), ", "))
			continue
		}
		key := strings.ToLower(spec.Name)
		if seenCols[key] {
			errs.add(field+".column", spec.Name, "duplicate column")
			continue
		}
		seenCols[key] = true

		seen := make(map[string]bool)
		values := make([]string, 0, len(level.Values))
		for j, v := range level.Values {
			v = strings.TrimSpace(v)
			if v == "" {
				errs.add(fmt.Sprintf("%s.values[%d]", field, j), v, "value is empty")
				continue
			}
			if seen[strings.ToLower(v)] {
				errs.add(fmt.Sprintf("%s.values[%d]", field, j), v, "duplicate value")
				continue
			}
			seen[strings.ToLower(v)] = true
			values = append(values, v)
		}
		out = append(out, DefaultOrderLevel{Column: spec.Name, Values: values})
	}

	if err := errs.err(); err != nil {
		return nil, err
	}
	return out, nil
}

// orderCandidates lists ranked values first, then distinct unranked values
// present in records, naturally sorted.
func orderCandidates(order *DefaultOrder, column string, records []Record) []string {
	var ranked []string
	if order != nil {
		for _, level := range order.Levels {
			if strings.EqualFold(level.Column, column) {
				ranked = slices.Clone(level.Values)
			}
		}
	}

	seen := make(map[string]bool)
	for _, v := range ranked {
		seen[strings.ToLower(v)] = true
	}
	var rest []string
	for _, rec := range records {
		v := strings.TrimSpace(rec.Cell(column))
		if v == "" || seen[strings.ToLower(v)] {
			continue
		}
		seen[strings.ToLower(v)] = true
		rest = append(rest, v)
	}
	sort.SliceStable(rest, func(i, j int) bool { return compareValues(rest[i], rest[j]) < 0 })
	return append(ranked, rest...)
}
