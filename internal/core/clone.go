package core

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
)

// copySuffix marks the primary name of a cloned entity.
const copySuffix = " (Copy)"

// Clone returns an unsaved duplicate of an entity with fresh ids for the
// entity and its nested items. The caller saves it with the matching Create
// method after editing.
func (s *Service) Clone(ctx context.Context, kind Kind, id string) (Record, error) {
	snap, err := loadSnapshot(ctx, s.store)
	if err != nil {
		return nil, err
	}
	rec, err := snap.record(kind, id)
	if err != nil {
		return nil, err
	}

	switch r := rec.(type) {
	case *Driver:
		r.ID = ""
		r.Name = uniqueDriverCopyName(snap, r.Category, r.Name)
		r.SortOrder = snap.nextSortOrder(r.Category)
		r.CreatedAt, r.UpdatedAt = time.Time{}, time.Time{}
	case *Object:
		r.ID = ""
		r.Object = strings.TrimSpace(r.Object) + copySuffix
		for i := range r.Relationships {
			r.Relationships[i].ID = s.newID()
		}
		for i := range r.Variants {
			r.Variants[i].ID = s.newID()
		}
		r.CreatedAt, r.UpdatedAt = time.Time{}, time.Time{}
	case *Variable:
		r.ID = ""
		r.Variable = strings.TrimSpace(r.Variable) + copySuffix
		r.CreatedAt, r.UpdatedAt = time.Time{}, time.Time{}
	case *List:
		r.ID = ""
		r.List = strings.TrimSpace(r.List) + copySuffix
		for i := range r.Values {
			r.Values[i].ID = s.newID()
		}
		r.CreatedAt, r.UpdatedAt = time.Time{}, time.Time{}
	}
	return rec, nil
}

// uniqueDriverCopyName returns "name (Copy N)" with the smallest N not taken
// in the category.
func uniqueDriverCopyName(snap *snapshot, cat DriverCategory, name string) string {
	names := snap.catalog.Values(cat)
	base := strings.TrimSpace(name)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (Copy %d)", base, n)
		if !slices.ContainsFunc(names, func(v string) bool { return strings.EqualFold(v, candidate) }) {
			return candidate
		}
	}
}
