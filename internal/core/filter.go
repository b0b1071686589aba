package core

import (
	"strconv"
	"strings"
)

// ValidOperator reports whether op applies to a field type.
func ValidOperator(op FilterOperator, ft FieldType) bool {
	switch ft {
	case FieldText, FieldList:
		switch op {
		case OpContains, OpEquals, OpStartsWith, OpEndsWith, OpIn:
			return true
		}
	case FieldNumeric:
		switch op {
		case OpEquals, OpGreaterEq, OpLessEq, OpGreater, OpLess, OpIn:
			return true
		}
	case FieldEnum:
		switch op {
		case OpEquals, OpIn:
			return true
		}
	}
	return false
}

// matchFilter evaluates one filter against a cell value. Comparisons are
// case-insensitive; ordering operators compare numerically when both sides parse.
func matchFilter(cell string, f ColumnFilter) bool {
	c := strings.ToLower(cell)
	v := strings.ToLower(f.Value)

	switch f.Operator {
	case OpContains:
		return strings.Contains(c, v)
	case OpEquals:
		return equalValues(cell, f.Value)
	case OpStartsWith:
		return strings.HasPrefix(c, v)
	case OpEndsWith:
		return strings.HasSuffix(c, v)
	case OpGreater:
		return cell != "" && compareValues(cell, f.Value) > 0
	case OpGreaterEq:
		return cell != "" && compareValues(cell, f.Value) >= 0
	case OpLess:
		return cell != "" && compareValues(cell, f.Value) < 0
	case OpLessEq:
		return cell != "" && compareValues(cell, f.Value) <= 0
	case OpIn:
		candidates := f.Values
		if len(candidates) == 0 {
			candidates = SplitInValues(f.Value)
		}
		for _, candidate := range candidates {
			if equalValues(cell, candidate) {
				return true
			}
		}
		return false
	}
	return false
}

// matchSearch reports whether any cell contains the search term.
func matchSearch(rec Record, columns []string, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, col := range columns {
		if strings.Contains(strings.ToLower(rec.Cell(col)), term) {
			return true
		}
	}
	return false
}

// equalValues is numeric equality when both sides are numbers, otherwise
// case-insensitive equality.
func equalValues(a, b string) bool {
	if fa, err := strconv.ParseFloat(strings.TrimSpace(a), 64); err == nil {
		if fb, err := strconv.ParseFloat(strings.TrimSpace(b), 64); err == nil {
			return fa == fb
		}
	}
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// compareValues orders two cells: numerically when both are numbers,
// otherwise case-insensitively with a case-sensitive tiebreak.
func compareValues(a, b string) int {
	if fa, err := strconv.ParseFloat(strings.TrimSpace(a), 64); err == nil {
		if fb, err := strconv.ParseFloat(strings.TrimSpace(b), 64); err == nil {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}
