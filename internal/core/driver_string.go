package core

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// DriverAll marks a segment with no selection.
const DriverAll = "ALL"

const (
	segmentSeparator = ","
	valueSeparator   = "+"
)

// DriverSelection is the structured form of a driver string.
type DriverSelection struct {
	Sectors    []string `json:"sectors"`
	Domains    []string `json:"domains"`
	Countries  []string `json:"countries"`
	Clarifiers []string `json:"clarifiers"`
}

// Values returns the selection for one category.
func (d DriverSelection) Values(c DriverCategory) []string {
	switch c {
	case CategorySector:
		return d.Sectors
	case CategoryDomain:
		return d.Domains
	case CategoryCountry:
		return d.Countries
	case CategoryClarifier:
		return d.Clarifiers
	}
	return nil
}

func (d *DriverSelection) setValues(c DriverCategory, values []string) {
	switch c {
	case CategorySector:
		d.Sectors = values
	case CategoryDomain:
		d.Domains = values
	case CategoryCountry:
		d.Countries = values
	case CategoryClarifier:
		d.Clarifiers = values
	}
}

// IsEmpty reports whether every segment is ALL.
func (d DriverSelection) IsEmpty() bool {
	for _, c := range DriverCategories {
		if len(d.Values(c)) > 0 {
			return false
		}
	}
	return true
}

// ParseDriverString decodes "sector, domain, country, clarifier".
// Missing trailing segments mean ALL.
func ParseDriverString(s string) (DriverSelection, error) {
	var sel DriverSelection
	if strings.TrimSpace(s) == "" {
		return sel, nil
	}

	segments := strings.Split(s, segmentSeparator)
	if len(segments) > len(DriverCategories) {
		return sel, fmt.Errorf("driver string has %d segments, at most %d allowed", len(segments), len(DriverCategories))
	}

	for i, seg := range segments {
		sel.setValues(DriverCategories[i], parseSegment(seg))
	}
	return sel, nil
}

func parseSegment(seg string) []string {
	seg = strings.TrimSpace(seg)
	if seg == "" || strings.EqualFold(seg, DriverAll) {
		return nil
	}
	var values []string
	seen := make(map[string]bool)
	for _, v := range strings.Split(seg, valueSeparator) {
		v = strings.TrimSpace(v)
		if v == "" || strings.EqualFold(v, DriverAll) || seen[strings.ToLower(v)] {
			continue
		}
		seen[strings.ToLower(v)] = true
		values = append(values, v)
	}
	return values
}

// String encodes the selection; ParseDriverString(d.String()) yields d.
func (d DriverSelection) String() string {
	parts := make([]string, len(DriverCategories))
	for i, c := range DriverCategories {
		values := d.Values(c)
		if len(values) == 0 {
			parts[i] = DriverAll
			continue
		}
		parts[i] = strings.Join(values, valueSeparator)
	}
	return strings.Join(parts, segmentSeparator+" ")
}

// Uses reports whether name is selected in category c.
func (d DriverSelection) Uses(c DriverCategory, name string) bool {
	return containsFold(d.Values(c), name)
}

// Rename replaces oldName with newName in category c.
func (d DriverSelection) Rename(c DriverCategory, oldName, newName string) (DriverSelection, bool) {
	values := d.Values(c)
	idx := slices.IndexFunc(values, func(v string) bool { return strings.EqualFold(v, oldName) })
	if idx < 0 {
		return d, false
	}
	renamed := slices.Clone(values)
	renamed[idx] = newName
	d.setValues(c, renamed)
	return d, true
}

// DriverCatalog is the ordered driver vocabulary per category.
type DriverCatalog struct {
	Sectors    []string `json:"sectors" yaml:"sectors"`
	Domains    []string `json:"domains" yaml:"domains"`
	Countries  []string `json:"countries" yaml:"countries"`
	Clarifiers []string `json:"clarifiers" yaml:"clarifiers"`
}

// NewDriverCatalog orders drivers by SortOrder, then name.
func NewDriverCatalog(drivers []Driver) DriverCatalog {
	sorted := slices.Clone(drivers)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].SortOrder != sorted[j].SortOrder {
			return sorted[i].SortOrder < sorted[j].SortOrder
		}
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})

	var sel DriverSelection
	for _, d := range sorted {
		sel.setValues(d.Category, append(sel.Values(d.Category), d.Name))
	}
	return DriverCatalog(sel)
}

// Values returns the ordered names of one category.
func (c DriverCatalog) Values(cat DriverCategory) []string {
	return DriverSelection(c).Values(cat)
}

// Validate rejects names that are not in the catalog.
func (c DriverCatalog) Validate(sel DriverSelection) error {
	var errs []error
	for _, cat := range DriverCategories {
		known := c.Values(cat)
		for _, v := range sel.Values(cat) {
			if !containsFold(known, v) {
				errs = append(errs, fmt.Errorf("unknown %s %q", cat, v))
			}
		}
	}
	return errors.Join(errs...)
}

// Canonicalize uses catalog spelling and orders each segment by catalog order.
// Unknown names keep their position after known ones.
func (c DriverCatalog) Canonicalize(sel DriverSelection) DriverSelection {
	var out DriverSelection
	for _, cat := range DriverCategories {
		known := c.Values(cat)
		rank := func(v string) int {
			idx := slices.IndexFunc(known, func(k string) bool { return strings.EqualFold(k, v) })
			if idx < 0 {
				return len(known)
			}
			return idx
		}

		values := slices.Clone(sel.Values(cat))
		sort.SliceStable(values, func(i, j int) bool { return rank(values[i]) < rank(values[j]) })
		for i, v := range values {
			if r := rank(v); r < len(known) {
				values[i] = known[r]
			}
		}
		out.setValues(cat, values)
	}
	return out
}
